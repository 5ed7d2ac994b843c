package domain

import "errors"

var (
	ErrValidation        = errors.New("missing required login fields")
	ErrAuthExchange      = errors.New("authorization code exchange failed")
	ErrNeedsSecondFactor = errors.New("second factor required")
	ErrDecode            = errors.New("malformed token")
	ErrStorageCorruption = errors.New("stored credentials are corrupt")
	ErrAccountNotFound   = errors.New("account not found")
	ErrNoSession         = errors.New("no active session")
)
