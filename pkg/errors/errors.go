package errors

import (
	"errors"
	"fmt"
)

// Domain error types for business logic

var (
	// ErrConfiguration indicates a required credential or limit is missing at startup
	ErrConfiguration = errors.New("configuration error")

	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates invalid input parameters
	ErrInvalidInput = errors.New("invalid input")

	// ErrInternal indicates an internal error
	ErrInternal = errors.New("internal error")

	// ErrTimeout indicates an operation timeout
	ErrTimeout = errors.New("operation timeout")

	// ErrUnavailable indicates a service is unavailable
	ErrUnavailable = errors.New("service unavailable")
)

// Budget and usage-tracking errors

var (
	// ErrBudgetExceeded indicates the lifetime spending limit would be exceeded
	ErrBudgetExceeded = errors.New("budget limit exceeded")

	// ErrDailyLimitExceeded indicates the daily spending limit would be exceeded
	ErrDailyLimitExceeded = errors.New("daily limit exceeded")

	// ErrPersistence indicates the usage ledger could not be read or written
	ErrPersistence = errors.New("ledger persistence failed")
)

// Agent loop errors

var (
	// ErrIterationLimit indicates the reasoning loop hit its iteration cap
	ErrIterationLimit = errors.New("iteration limit exceeded")

	// ErrMalformedOutput indicates the model response matched no recognized shape
	ErrMalformedOutput = errors.New("malformed model output")

	// ErrToolExecution indicates a tool failed during execution
	ErrToolExecution = errors.New("tool execution failed")

	// ErrUpstream indicates the model or a collaborator API is unreachable
	ErrUpstream = errors.New("upstream unavailable")
)

// ValidationError represents a validation error with field-specific details
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: field '%s': %s (value: %v)", e.Field, e.Message, e.Value)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// Helper functions

// Is checks if err is or wraps target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target type
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

func New(message string) error {
	return errors.New(message)
}

func Newf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
