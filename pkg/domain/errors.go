package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// DomainError represents a domain-specific error with a code and message.
// Message is safe to show to the user; Err carries the internal cause.
type DomainError struct {
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Error codes
const (
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeConfiguration = "CONFIGURATION_ERROR"
	ErrCodeUpstream      = "UPSTREAM_ERROR"
	ErrCodeConflict      = "CONFLICT"
	ErrCodeInternal      = "INTERNAL_ERROR"
)

// NewValidationError creates a client-correctable error. msg is shown verbatim.
func NewValidationError(msg string) error {
	return &DomainError{
		Code:    ErrCodeValidation,
		Message: msg,
		Status:  http.StatusBadRequest,
	}
}

// NewConfigurationError creates an operator-correctable error such as a missing credential.
// detail is logged, never shown to the user.
func NewConfigurationError(detail string) error {
	return &DomainError{
		Code:    ErrCodeConfiguration,
		Message: "This service is temporarily unavailable. Please try again later.",
		Status:  http.StatusInternalServerError,
		Err:     errors.New(detail),
	}
}

// NewUpstreamError wraps a third-party failure with the status and message to return.
func NewUpstreamError(status int, msg string, err error) error {
	return &DomainError{
		Code:    ErrCodeUpstream,
		Message: msg,
		Status:  status,
		Err:     err,
	}
}

// NewConflictError creates a conflict error
func NewConflictError(msg string) error {
	return &DomainError{
		Code:    ErrCodeConflict,
		Message: msg,
		Status:  http.StatusConflict,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(err error) error {
	return &DomainError{
		Code:    ErrCodeInternal,
		Message: "An internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// AsDomainError unwraps err to a *DomainError if it holds one.
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

func hasCode(err error, code string) bool {
	de, ok := AsDomainError(err)
	return ok && de.Code == code
}

// IsValidation checks if the error is a validation error
func IsValidation(err error) bool {
	return hasCode(err, ErrCodeValidation)
}

// IsConfiguration checks if the error is a configuration error
func IsConfiguration(err error) bool {
	return hasCode(err, ErrCodeConfiguration)
}

// IsUpstream checks if the error is an upstream error
func IsUpstream(err error) bool {
	return hasCode(err, ErrCodeUpstream)
}

// IsConflict checks if the error is a conflict error
func IsConflict(err error) bool {
	return hasCode(err, ErrCodeConflict)
}

// GetErrorCode extracts the error code from a domain error
func GetErrorCode(err error) string {
	if de, ok := AsDomainError(err); ok {
		return de.Code
	}
	return ErrCodeInternal
}

// StatusCode returns the HTTP status for err, 500 for anything that is not a DomainError.
func StatusCode(err error) int {
	if de, ok := AsDomainError(err); ok && de.Status != 0 {
		return de.Status
	}
	return http.StatusInternalServerError
}
