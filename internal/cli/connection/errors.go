package connection

import (
	"errors"
	"fmt"
)

// Sentinels matched by the typed errors below.
var (
	ErrConfiguration           = errors.New("connection: invalid configuration")
	ErrInvalidCall             = errors.New("connection: invalid call")
	ErrPaginationLimitExceeded = errors.New("connection: pagination limit exceeded")
	ErrResponseConsumed        = errors.New("connection: response already consumed")
)

// ConfigurationError reports bad connector construction parameters.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("connection: invalid %s: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// InvalidCallError reports a call rejected before it reached the router.
type InvalidCallError struct {
	Method string
	Reason string

	// Err is the server reply that identified the call as invalid, if any.
	Err error
}

func (e *InvalidCallError) Error() string {
	if e.Method == "" {
		return "connection: invalid call: " + e.Reason
	}
	return fmt.Sprintf("connection: invalid call %s: %s", e.Method, e.Reason)
}

func (e *InvalidCallError) Is(target error) bool {
	return target == ErrInvalidCall
}

func (e *InvalidCallError) Unwrap() error {
	return e.Err
}

// PaginationLimitError is returned when a listing would need more than
// Config.MaxPages pages.
type PaginationLimitError struct {
	Method string
	Pages  int
}

func (e *PaginationLimitError) Error() string {
	return fmt.Sprintf("connection: %s still has more data after %d pages", e.Method, e.Pages)
}

func (e *PaginationLimitError) Is(target error) bool {
	return target == ErrPaginationLimitExceeded
}
