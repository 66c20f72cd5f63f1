package handler

import (
	"errors"
	"time"

	apiv1 "github.com/abiibaabi/grr/api/v1"
	"github.com/abiibaabi/grr/internal/core/domain"
)

// NewResponse creates a success envelope.
func NewResponse(requestID string, data any) *apiv1.Response {
	return &apiv1.Response{
		Code:      apiv1.CodeOK,
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse creates an error envelope.
func NewErrorResponse(requestID string, err *domain.DomainError) *apiv1.Response {
	return &apiv1.Response{
		Code:      err.Code,
		Message:   err.Message,
		Details:   err.Details,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
	}
}

// AsDomainError returns the DomainError in err's chain, or nil.
func AsDomainError(err error) *domain.DomainError {
	var derr *domain.DomainError
	if errors.As(err, &derr) {
		return derr
	}
	return nil
}
