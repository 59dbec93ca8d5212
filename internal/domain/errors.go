package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrDomain is matched by every DomainError via errors.Is
var ErrDomain = errors.New("domain error")

// ErrNotFound is returned when a requested assessment does not exist
var ErrNotFound = errors.New("not found")

// ErrStorageFailure marks errors raised by the assessment history backend
var ErrStorageFailure = errors.New("storage failure")

// DomainError represents a numeric input that makes a mathematical operation
// undefined, such as a non-positive value passed to a logarithm
type DomainError struct {
	Field string  `json:"field"`
	Value float64 `json:"value"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return fmt.Sprintf("domain error: %s must be positive for logarithm, got %g", e.Field, e.Value)
}

// Is reports whether target is ErrDomain
func (e *DomainError) Is(target error) bool {
	return target == ErrDomain
}

// NewDomainError creates a new DomainError
func NewDomainError(field string, value float64) *DomainError {
	return &DomainError{Field: field, Value: value}
}

// APIError represents a standardized error response
type APIError struct {
	Code      string           `json:"code"`
	Message   string           `json:"message"`
	Details   string           `json:"details,omitempty"`
	Fields    ValidationErrors `json:"fields,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	RequestID string           `json:"request_id"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error codes for different failure scenarios
const (
	ErrInvalidInput   = "INVALID_INPUT"
	ErrValidation     = "VALIDATION_ERROR"
	ErrDomainCode     = "DOMAIN_ERROR"
	ErrNotFoundCode   = "NOT_FOUND"
	ErrStorage        = "STORAGE_ERROR"
	ErrRateLimit      = "RATE_LIMIT_EXCEEDED"
	ErrTimeout        = "REQUEST_TIMEOUT"
	ErrInternalServer = "INTERNAL_SERVER_ERROR"
)

// NewAPIError creates a new APIError with timestamp
func NewAPIError(code, message, details, requestID string) *APIError {
	return &APIError{
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
		RequestID: requestID,
	}
}

// ValidationError represents input validation errors
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// ValidationErrors collects every failed field of one input record
type ValidationErrors []*ValidationError

// Error implements the error interface
func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, e := range v {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}
