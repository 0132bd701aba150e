// Package errors provides standardized error types for the domain layer.
// These errors provide consistent error handling across all services
// and let callers branch on error category without string matching.
package errors

import (
	"errors"
	"fmt"
)

// Standard error categories
var (
	// ErrInvalidArgument indicates a caller error (bad amount, bad archetype id).
	// Not retried.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrInsufficientBalance indicates a withdrawal exceeds the available balance
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrStoreUnavailable indicates the durable store failed. The operation
	// was not applied partially; callers may retry with backoff.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrOracleUnreachable indicates the balance oracle could not be reached.
	// Never surfaced to callers; the adapter degrades to zero balances.
	ErrOracleUnreachable = errors.New("balance oracle unreachable")
)

// DomainError represents a domain-specific error with additional context
type DomainError struct {
	Err       error
	Code      string
	Message   string
	Details   map[string]interface{}
	Retryable bool
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Code
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is checks if the error matches the target
func (e *DomainError) Is(target error) bool {
	if e.Err != nil {
		return errors.Is(e.Err, target)
	}
	return false
}

// WithDetails adds details to the error
func (e *DomainError) WithDetails(details map[string]interface{}) *DomainError {
	e.Details = details
	return e
}

// WithRetryable marks the error as retryable
func (e *DomainError) WithRetryable(retryable bool) *DomainError {
	e.Retryable = retryable
	return e
}

// IsRetryable returns true if the error is retryable
func (e *DomainError) IsRetryable() bool {
	return e.Retryable
}

// NewDomainError creates a new domain error
func NewDomainError(err error, code, message string) *DomainError {
	return &DomainError{
		Err:     err,
		Code:    code,
		Message: message,
	}
}

// InvalidArgumentError creates an invalid argument error with a
// caller-renderable message
func InvalidArgumentError(message string) *DomainError {
	return &DomainError{
		Err:     ErrInvalidArgument,
		Code:    "INVALID_ARGUMENT",
		Message: message,
	}
}

// StoreUnavailableError wraps a durable store failure as retryable
func StoreUnavailableError(cause error) *DomainError {
	return &DomainError{
		Err:       ErrStoreUnavailable,
		Code:      "STORE_UNAVAILABLE",
		Message:   fmt.Sprintf("durable store unavailable: %v", cause),
		Retryable: true,
	}
}
