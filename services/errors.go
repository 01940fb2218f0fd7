package services

import (
	"errors"
	"fmt"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeExhausted        ErrorType = "exhausted"
	ErrorTypeMalformedRequest ErrorType = "malformed_request"
	ErrorTypeNotFound         ErrorType = "not_found"
	ErrorTypeValidation       ErrorType = "validation"
	ErrorTypeInternal         ErrorType = "internal"
)

// DomainError represents a structured error with additional context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// Detail returns the message of the wrapped cause, falling back to Message.
// This is the text surfaced to callers in the "detail" field of error bodies.
func (e *DomainError) Detail() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// WithDetail adds a detail to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

// Domain error variables. These are comparison targets for errors.Is; never
// mutate them with WithDetail.
var (
	ErrAllProvidersFailed = NewDomainError(ErrorTypeExhausted, "all providers failed", nil)
	ErrMalformedRequest   = NewDomainError(ErrorTypeMalformedRequest, "invalid JSON body", nil)
	ErrSessionNotFound    = NewDomainError(ErrorTypeNotFound, "session not found", nil)
	ErrInvalidRegistry    = NewDomainError(ErrorTypeValidation, "invalid provider registration", nil)
)

// NewSessionNotFoundError reports an unknown or expired session id. The id
// is carried in the "session_id" detail.
func NewSessionNotFoundError(id string) *DomainError {
	return NewDomainError(ErrorTypeNotFound, ErrSessionNotFound.Message, nil).WithDetail("session_id", id)
}

// NewExhaustedError reports that every candidate failed; lastErr is the
// failure of the final attempt and becomes the surfaced detail.
func NewExhaustedError(lastErr error) *DomainError {
	return NewDomainError(ErrorTypeExhausted, ErrAllProvidersFailed.Message, lastErr)
}

// Error type checking helper functions

// IsExhaustedError checks if an error means every candidate provider failed
func IsExhaustedError(err error) bool {
	return hasType(err, ErrorTypeExhausted)
}

// IsMalformedRequestError checks if an error is a request decoding error
func IsMalformedRequestError(err error) bool {
	return hasType(err, ErrorTypeMalformedRequest)
}

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	return hasType(err, ErrorTypeNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return hasType(err, ErrorTypeValidation)
}

// IsInternalError checks if an error is an internal error
func IsInternalError(err error) bool {
	return hasType(err, ErrorTypeInternal)
}

func hasType(err error, t ErrorType) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == t
	}
	return false
}

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorDetails returns the details map of a domain error, or nil if not a domain error
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

// WrapError wraps an error with additional context
func WrapError(errType ErrorType, message string, err error) error {
	return NewDomainError(errType, message, err)
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}
