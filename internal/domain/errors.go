package domain

import (
	"encoding/json"
	"fmt"
)

// ErrorCode represents a specific type of error in the domain
type ErrorCode string

const (
	// Common errors
	CodeInternal     ErrorCode = "INTERNAL_ERROR"
	CodeInvalidInput ErrorCode = "INVALID_INPUT"
	CodeNotFound     ErrorCode = "NOT_FOUND"
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"
	CodeForbidden    ErrorCode = "FORBIDDEN"
	CodeUpstream     ErrorCode = "UPSTREAM_ERROR"

	// Validation errors (field-level)
	CodeValidation    ErrorCode = "VALIDATION_ERROR"
	CodeMissingField  ErrorCode = "MISSING_FIELD"
	CodeInvalidFormat ErrorCode = "INVALID_FORMAT"
	CodeOutOfRange    ErrorCode = "OUT_OF_RANGE"

	// Quiz lifecycle errors
	CodeEmptySelection  ErrorCode = "EMPTY_SELECTION"
	CodeConfigMismatch  ErrorCode = "CONFIG_MISMATCH"
	CodeIndexOutOfRange ErrorCode = "INDEX_OUT_OF_RANGE"
	CodeSessionFinished ErrorCode = "SESSION_FINISHED"
	CodeSessionNotFound ErrorCode = "SESSION_NOT_FOUND"

	// Premium gating. Distinct from CodeForbidden: the remediation is an
	// upgrade prompt, not a denial.
	CodePremiumRequired ErrorCode = "PREMIUM_REQUIRED"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// MarshalJSON implements the json.Marshaler interface
func (e *DomainError) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}{
		Code:    string(e.Code),
		Message: e.Message,
	})
}

// NewError creates a new DomainError
func NewError(code ErrorCode, message string, cause error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Helper constructors for common errors

func NewNotFoundError(message string) *DomainError {
	return NewError(CodeNotFound, message, nil)
}

func NewInvalidInputError(message string) *DomainError {
	return NewError(CodeInvalidInput, message, nil)
}

func NewInternalError(message string, cause error) *DomainError {
	return NewError(CodeInternal, message, cause)
}

func NewUnauthorizedError(message string) *DomainError {
	return NewError(CodeUnauthorized, message, nil)
}

func NewForbiddenError(message string) *DomainError {
	return NewError(CodeForbidden, message, nil)
}

func NewPremiumRequiredError(feature string) *DomainError {
	return NewError(CodePremiumRequired, fmt.Sprintf("Premium subscription required for %s", feature), nil)
}

func NewUpstreamError(message string, cause error) *DomainError {
	return NewError(CodeUpstream, message, cause)
}

func NewEmptySelectionError() *DomainError {
	return NewError(CodeEmptySelection, "At least one subject and a mode must be selected", nil)
}

func NewConfigMismatchError(want, got int) *DomainError {
	return NewError(CodeConfigMismatch, fmt.Sprintf("Question source returned %d questions, config requires %d", got, want), nil)
}

func NewIndexOutOfRangeError(what string, index, size int) *DomainError {
	return NewError(CodeIndexOutOfRange, fmt.Sprintf("%s index %d out of range [0,%d)", what, index, size), nil)
}

func NewSessionFinishedError(sessionID string) *DomainError {
	return NewError(CodeSessionFinished, fmt.Sprintf("Session %s is already finished", sessionID), nil)
}

func NewSessionNotFoundError(sessionID string) *DomainError {
	return NewError(CodeSessionNotFound, fmt.Sprintf("Session not found: %s", sessionID), nil)
}

// ValidationError represents a single field-level validation failure.
type ValidationError struct {
	Field   string    `json:"field"`
	Value   string    `json:"value,omitempty"`
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of field-level validation failures.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s (and %d more)", e[0].Error(), len(e)-1)
}

func NewMissingFieldError(field string) ValidationError {
	return ValidationError{
		Field:   field,
		Code:    CodeMissingField,
		Message: fmt.Sprintf("%s is required", field),
	}
}

func NewInvalidFormatError(field, value string) ValidationError {
	return ValidationError{
		Field:   field,
		Value:   value,
		Code:    CodeInvalidFormat,
		Message: fmt.Sprintf("%s has an invalid format", field),
	}
}

func NewOutOfRangeError(field string, value, min, max int) ValidationError {
	return ValidationError{
		Field:   field,
		Value:   fmt.Sprintf("%d", value),
		Code:    CodeOutOfRange,
		Message: fmt.Sprintf("%s must be between %d and %d, got %d", field, min, max, value),
	}
}
