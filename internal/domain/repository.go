package domain

// KeyValueStore is a flat, string-keyed persistent store.
type KeyValueStore interface {
	// Get returns ok=false when the key is absent.
	Get(key string) (value string, ok bool, err error)

	Set(key, value string) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(key string) error
}
