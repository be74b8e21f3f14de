package app

import (
	"errors"
	"fmt"
)

// CommonError represents application-level errors
type CommonError struct {
	Code    string
	Message string
	Cause   error
}

func (e *CommonError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *CommonError) Unwrap() error {
	return e.Cause
}

// Common error codes
const (
	ErrCodeInvalidInput     = "INVALID_INPUT"
	ErrCodeIdentityNotFound = "IDENTITY_NOT_FOUND"
	ErrCodeMissingContainer = "MISSING_CONTAINER"
	ErrCodeContainerAccess  = "CONTAINER_ACCESS"
	ErrCodeInternal         = "INTERNAL"
)

// NewError creates a new CommonError
func NewError(code, message string, cause error) *CommonError {
	return &CommonError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// ErrorCode returns the code of the first CommonError in err's chain, or ""
func ErrorCode(err error) string {
	var ce *CommonError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}
