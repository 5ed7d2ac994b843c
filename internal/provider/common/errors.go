package common

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidHandleFormat = errors.New("invalid account handle format")
	ErrUnexpectedStatus    = errors.New("unexpected response status")
)

// APIError is a non-2xx answer from a federated instance. Code is the
// machine-readable "error" field of the body when there is one.
type APIError struct {
	StatusCode int
	Code       string
	Path       string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %d %s", e.Path, e.StatusCode, e.Code)
	}
	return fmt.Sprintf("%s: %d", e.Path, e.StatusCode)
}

func (e *APIError) Unwrap() error {
	return ErrUnexpectedStatus
}

// ExtractErrorMessage turns an error chain into a one-line message fit
// for the status bar.
func ExtractErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Code != "" {
		return strings.ReplaceAll(apiErr.Code, "_", " ")
	}

	return err.Error()
}
