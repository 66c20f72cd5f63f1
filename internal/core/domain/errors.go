package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// DomainError is a business error carrying a stable code.
//
// Codes look like "GRR-SESS-4040". The trailing number doubles as a hint
// for the HTTP status: values of 4000 and above map to status/10, lower
// values (argument errors) map to 400.
type DomainError struct {
	Code    string // e.g. "GRR-SESS-4040"
	Message string
	Details string
	Cause   error
}

func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a DomainError with the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// HTTPStatus derives the transport status from the numeric suffix of the code.
func (e *DomainError) HTTPStatus() int {
	idx := strings.LastIndexByte(e.Code, '-')
	if idx < 0 {
		return http.StatusInternalServerError
	}
	n, err := strconv.Atoi(e.Code[idx+1:])
	if err != nil {
		return http.StatusInternalServerError
	}
	if n < 4000 {
		return http.StatusBadRequest
	}
	status := n / 10
	if http.StatusText(status) == "" {
		return http.StatusInternalServerError
	}
	return status
}

// IsDomainError checks if an error is a DomainError with the given code.
// An empty code matches any DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return code == "" || de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// Session errors.
var (
	ErrSessionNotFound        = NewDomainError("GRR-SESS-4040", "session not found")
	ErrSessionExpired         = NewDomainError("GRR-SESS-4041", "session expired")
	ErrSessionConflict        = NewDomainError("GRR-SESS-4090", "session id conflict")
	ErrSessionVersionConflict = NewDomainError("GRR-SESS-4091", "version conflict, please retry")
	ErrSessionValidation      = NewDomainError("GRR-SESS-4001", "session validation failed")
	ErrSessionQuotaExceeded   = NewDomainError("GRR-SESS-4002", "user session quota exceeded")
)

// Token errors.
var (
	ErrTokenMalformed = NewDomainError("GRR-TOKN-4000", "malformed token")
	ErrTokenInvalid   = NewDomainError("GRR-TOKN-4010", "invalid token")
	ErrTokenExpired   = NewDomainError("GRR-TOKN-4011", "token expired")
)

// Authentication and authorization errors.
var (
	ErrAPIKeyMissing    = NewDomainError("GRR-AUTH-4010", "api key not provided")
	ErrAPIKeyInvalid    = NewDomainError("GRR-AUTH-4011", "invalid api key")
	ErrAPIKeyDisabled   = NewDomainError("GRR-AUTH-4012", "api key disabled")
	ErrPermissionDenied = NewDomainError("GRR-AUTH-4030", "permission denied")
	ErrAPIKeyValidation = NewDomainError("GRR-AUTH-4001", "api key validation failed")
	ErrAPIKeyNotFound   = NewDomainError("GRR-AUTH-4040", "api key not found")
	ErrAPIKeyConflict   = NewDomainError("GRR-AUTH-4090", "api key id conflict")
	ErrPrincipalInvalid = NewDomainError("GRR-AUTH-4002", "invalid principal")
)

// Router errors.
var (
	// ErrMethodNotFound is returned for operation names the router does not know.
	ErrMethodNotFound = NewDomainError("GRR-API-4040", "method not found")

	// ErrNotPaged is returned when a page is requested from a single-result method
	// or a single result from a list method.
	ErrNotPaged = NewDomainError("GRR-API-4000", "method paging mismatch")

	ErrInvalidCursor = NewDomainError("GRR-API-4001", "invalid pagination cursor")
)

// System errors.
var (
	ErrInternalServer     = NewDomainError("GRR-SYS-5000", "internal server error")
	ErrStorageError       = NewDomainError("GRR-SYS-5001", "storage error")
	ErrServiceUnavailable = NewDomainError("GRR-SYS-5030", "service unavailable")
	ErrBadRequest         = NewDomainError("GRR-SYS-4000", "bad request")
	ErrRateLimited        = NewDomainError("GRR-SYS-4290", "too many requests")
)

// Argument errors.
var (
	ErrInvalidArgument  = NewDomainError("GRR-ARG-1001", "invalid argument")
	ErrMissingArgument  = NewDomainError("GRR-ARG-1002", "missing required argument")
	ErrArgumentConflict = NewDomainError("GRR-ARG-1003", "argument conflict")
)
