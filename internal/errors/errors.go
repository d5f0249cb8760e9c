package errors

import (
	"errors"
	"fmt"
)

// AdvisorError is the structured error type for dbadvisor.
type AdvisorError struct {
	// Code is the unique error code (e.g., "ERR_201_STORE_UNAVAILABLE").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Settings, Store, ...).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *AdvisorError) Error() string {
	if e.Cause != nil && e.Cause.Error() != e.Message {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *AdvisorError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
func (e *AdvisorError) Is(target error) bool {
	if t, ok := target.(*AdvisorError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
func (e *AdvisorError) WithDetail(key, value string) *AdvisorError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *AdvisorError) WithSuggestion(suggestion string) *AdvisorError {
	e.Suggestion = suggestion
	return e
}

// New creates a new AdvisorError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *AdvisorError {
	return &AdvisorError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates an AdvisorError from an existing error.
// An error that already carries an AdvisorError in its chain is returned
// unchanged so the innermost code wins.
func Wrap(code string, err error) *AdvisorError {
	if err == nil {
		return nil
	}
	var ae *AdvisorError
	if errors.As(err, &ae) {
		return ae
	}
	return New(code, err.Error(), err)
}

// StoreError reports that the configuration store could not be read.
func StoreError(message string, cause error) *AdvisorError {
	return New(ErrCodeStoreUnavailable, message, cause)
}

// WriteError reports that the configuration store rejected a write.
func WriteError(message string, cause error) *AdvisorError {
	return New(ErrCodeStoreWrite, message, cause)
}

// ConfigError creates a settings-related error.
func ConfigError(message string, cause error) *AdvisorError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *AdvisorError {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *AdvisorError {
	return New(ErrCodeInternal, message, cause)
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var ae *AdvisorError
	if errors.As(err, &ae) {
		return ae.Retryable
	}
	return false
}

// IsFatal checks if an error has fatal severity.
func IsFatal(err error) bool {
	var ae *AdvisorError
	if errors.As(err, &ae) {
		return ae.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from an AdvisorError.
// Returns empty string if not an AdvisorError.
func GetCode(err error) string {
	var ae *AdvisorError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// GetCategory extracts the category from an AdvisorError.
// Returns empty string if not an AdvisorError.
func GetCategory(err error) Category {
	var ae *AdvisorError
	if errors.As(err, &ae) {
		return ae.Category
	}
	return ""
}
