package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Err     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrBadRequest
	ErrInternal
	ErrStorageFailure
)

// Allocation engine error codes, one per violated precondition
const (
	ErrOrganUnavailable ErrorCode = iota + 2000
	ErrOrganNotEligible
	ErrOrganNotAllocated
	ErrTerminalStateViolation
	ErrRecipientNotEligible
	ErrDuplicatePendingAllocation
	ErrDeadlinePassed
	ErrNoAcceptedAllocation
	ErrHospitalIncapable
	ErrSurgeonMismatch
	ErrInvalidDate
	ErrNoActiveWaitlistEntry
	ErrIneligibleCandidate
	ErrDuplicateWaitlistEntry
	ErrDonorNotEligible
)

// Error constructors
func NewNotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func NewBadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    ErrBadRequest,
		Message: message,
		Err:     err,
	}
}

func NewInternal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal server error",
		Err:     err,
	}
}

// NewStorageFailure wraps unexpected storage errors. State changes of the
// failing operation are rolled back by the transaction boundary.
func NewStorageFailure(err error) *AppError {
	return &AppError{
		Code:    ErrStorageFailure,
		Message: "storage failure",
		Err:     err,
	}
}

// NewPrecondition builds a typed precondition failure carrying entity context
// so callers can render a user message.
func NewPrecondition(code ErrorCode, message string, details map[string]interface{}) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

func NotFound(resource string, err error) *AppError {
	return NewNotFound(resource, err)
}

func BadRequest(message string, err error) *AppError {
	return NewBadRequest(message, err)
}

func Internal(err error) *AppError {
	return NewInternal(err)
}

// CodeOf extracts the error code from err, or ErrInternal if err is not an
// AppError.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternal
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
