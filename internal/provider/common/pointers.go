package common

// Value dereferences optional JSON fields, yielding the zero value for nil.
func Value[T any](ptr *T) T {
	var zero T
	if ptr == nil {
		return zero
	}
	return *ptr
}

// ValueOr is Value with a caller-chosen fallback.
func ValueOr[T any](ptr *T, fallback T) T {
	if ptr == nil {
		return fallback
	}
	return *ptr
}
