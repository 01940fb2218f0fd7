package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDomainError(t *testing.T) {
	baseErr := errors.New("base error")
	domainErr := NewDomainError(ErrorTypeNotFound, "resource not found", baseErr)

	assert.Equal(t, ErrorTypeNotFound, domainErr.Type)
	assert.Equal(t, "resource not found", domainErr.Message)
	assert.Equal(t, baseErr, domainErr.Err)
	assert.NotNil(t, domainErr.Details)
}

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name    string
		err     *DomainError
		wantMsg string
	}{
		{
			name: "error with wrapped error",
			err: &DomainError{
				Type:    ErrorTypeExhausted,
				Message: "all providers failed",
				Err:     errors.New("[Groq System] HTTP 500: boom"),
			},
			wantMsg: "exhausted: all providers failed ([Groq System] HTTP 500: boom)",
		},
		{
			name: "error without wrapped error",
			err: &DomainError{
				Type:    ErrorTypeNotFound,
				Message: "session not found",
			},
			wantMsg: "not_found: session not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMsg, tt.err.Error())
		})
	}
}

func TestDomainError_Detail(t *testing.T) {
	cause := errors.New("[Cerebras System] Limit Exceeded: slow down")
	assert.Equal(t, cause.Error(), NewExhaustedError(cause).Detail())
	assert.Equal(t, "session not found", ErrSessionNotFound.Detail())
}

func TestDomainError_Unwrap(t *testing.T) {
	baseErr := errors.New("base error")
	domainErr := NewDomainError(ErrorTypeInternal, "internal error", baseErr)

	assert.Equal(t, baseErr, errors.Unwrap(domainErr))
}

func TestDomainError_Is(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{
			name:   "same error type",
			err:    NewExhaustedError(errors.New("last")),
			target: ErrAllProvidersFailed,
			want:   true,
		},
		{
			name:   "different error type",
			err:    NewDomainError(ErrorTypeValidation, "validation", nil),
			target: ErrSessionNotFound,
			want:   false,
		},
		{
			name:   "not a domain error",
			err:    NewDomainError(ErrorTypeNotFound, "not found", nil),
			target: errors.New("regular error"),
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errors.Is(tt.err, tt.target))
		})
	}
}

func TestDomainError_WithDetail(t *testing.T) {
	err := NewDomainError(ErrorTypeNotFound, "session not found", nil)

	err.WithDetail("session_id", "abc").WithDetail("op", "delete")

	assert.Equal(t, "abc", err.Details["session_id"])
	assert.Equal(t, "delete", err.Details["op"])
	assert.Empty(t, ErrSessionNotFound.Details)
}

func TestErrorTypeCheckers(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		checker func(error) bool
		want    bool
	}{
		{"exhausted", NewExhaustedError(nil), IsExhaustedError, true},
		{"wrapped exhausted", fmt.Errorf("dispatch: %w", ErrAllProvidersFailed), IsExhaustedError, true},
		{"malformed", ErrMalformedRequest, IsMalformedRequestError, true},
		{"not found", ErrSessionNotFound, IsNotFoundError, true},
		{"validation", ErrInvalidRegistry, IsValidationError, true},
		{"internal", WrapInternal("request cancelled", errors.New("context canceled")), IsInternalError, true},
		{"not found is not internal", ErrSessionNotFound, IsInternalError, false},
		{"regular error", errors.New("regular"), IsNotFoundError, false},
		{"nil error", nil, IsExhaustedError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.checker(tt.err))
		})
	}
}

func TestGetErrorType(t *testing.T) {
	assert.Equal(t, ErrorTypeExhausted, GetErrorType(ErrAllProvidersFailed))
	assert.Equal(t, ErrorTypeMalformedRequest, GetErrorType(fmt.Errorf("x: %w", ErrMalformedRequest)))
	assert.Equal(t, ErrorType(""), GetErrorType(errors.New("regular")))
}

func TestNewSessionNotFoundError(t *testing.T) {
	err := NewSessionNotFoundError("session_1")

	assert.True(t, errors.Is(err, ErrSessionNotFound))
	assert.True(t, IsNotFoundError(err))
	assert.Equal(t, "session_1", GetErrorDetails(err)["session_id"])
	assert.Empty(t, ErrSessionNotFound.Details)
}

func TestGetErrorDetails(t *testing.T) {
	err := NewDomainError(ErrorTypeValidation, "validation error", nil)
	err.WithDetail("field", "url")

	details := GetErrorDetails(err)
	require.NotNil(t, details)
	assert.Equal(t, "url", details["field"])

	assert.Nil(t, GetErrorDetails(errors.New("regular error")))
}

func TestWrapInternal(t *testing.T) {
	baseErr := errors.New("context canceled")
	wrapped := WrapInternal("dispatch aborted", baseErr)

	assert.True(t, IsInternalError(wrapped))
	assert.Equal(t, baseErr, errors.Unwrap(wrapped))
}
