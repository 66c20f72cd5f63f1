package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *DomainError
		expected string
	}{
		{
			name:     "without details",
			err:      NewDomainError("GRR-TEST-1000", "test message"),
			expected: "[GRR-TEST-1000] test message",
		},
		{
			name:     "with details",
			err:      NewDomainError("GRR-TEST-1001", "test message").WithDetails("extra info"),
			expected: "[GRR-TEST-1001] test message: extra info",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestDomainError_Is(t *testing.T) {
	a := NewDomainError("GRR-TEST-1000", "message 1")
	b := NewDomainError("GRR-TEST-1000", "message 2")
	c := NewDomainError("GRR-TEST-1001", "message 1")

	if !errors.Is(a, b) {
		t.Error("errors.Is should match on code")
	}
	if errors.Is(a, c) {
		t.Error("errors.Is should not match different codes")
	}
	if errors.Is(a, fmt.Errorf("plain")) {
		t.Error("errors.Is should not match non-DomainError")
	}

	wrapped := fmt.Errorf("lookup: %w", ErrSessionNotFound.WithDetails("ses-x"))
	if !errors.Is(wrapped, ErrSessionNotFound) {
		t.Error("errors.Is should see through fmt wrapping and details")
	}
}

func TestDomainError_WithCause(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := ErrStorageError.WithCause(cause)

	if errors.Unwrap(err) != cause {
		t.Errorf("Unwrap() = %v, want %v", errors.Unwrap(err), cause)
	}
	if ErrStorageError.Cause != nil {
		t.Error("WithCause should not modify the original")
	}
}

func TestDomainError_HTTPStatus(t *testing.T) {
	tests := []struct {
		err  *DomainError
		want int
	}{
		{ErrSessionNotFound, http.StatusNotFound},
		{ErrSessionVersionConflict, http.StatusConflict},
		{ErrPermissionDenied, http.StatusForbidden},
		{ErrAPIKeyInvalid, http.StatusUnauthorized},
		{ErrRateLimited, http.StatusTooManyRequests},
		{ErrInvalidArgument, http.StatusBadRequest},
		{ErrSessionValidation, http.StatusBadRequest},
		{ErrInternalServer, http.StatusInternalServerError},
		{NewDomainError("broken", "no suffix"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Code, func(t *testing.T) {
			if got := tt.err.HTTPStatus(); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestGetErrorCode(t *testing.T) {
	if got := GetErrorCode(fmt.Errorf("x: %w", ErrMethodNotFound)); got != ErrMethodNotFound.Code {
		t.Errorf("GetErrorCode() = %q, want %q", got, ErrMethodNotFound.Code)
	}
	if got := GetErrorCode(errors.New("plain")); got != "" {
		t.Errorf("GetErrorCode() = %q, want empty", got)
	}
	if !IsDomainError(ErrBadRequest, "") {
		t.Error("IsDomainError with empty code should match any DomainError")
	}
}
