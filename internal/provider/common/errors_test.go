package common

import (
	"errors"
	"fmt"
	"testing"
)

func TestExtractErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "API error with code",
			err:      &APIError{StatusCode: 400, Code: "incorrect_login", Path: "/api/v3/user/login"},
			expected: "incorrect login",
		},
		{
			name:     "wrapped API error",
			err:      fmt.Errorf("failed to login: %w", &APIError{StatusCode: 400, Code: "missing_totp_token"}),
			expected: "missing totp token",
		},
		{
			name:     "API error without code",
			err:      &APIError{StatusCode: 502, Path: "/api/v3/site"},
			expected: "/api/v3/site: 502",
		},
		{
			name:     "Simple error message",
			err:      errors.New("connection timeout"),
			expected: "connection timeout",
		},
		{
			name:     "Nil error",
			err:      nil,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ExtractErrorMessage(tt.err)
			if result != tt.expected {
				t.Errorf("ExtractErrorMessage() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestAPIErrorUnwrapsToUnexpectedStatus(t *testing.T) {
	err := fmt.Errorf("get site: %w", &APIError{StatusCode: 500})
	if !errors.Is(err, ErrUnexpectedStatus) {
		t.Error("Expected APIError to match ErrUnexpectedStatus")
	}
}
