// Package errors provides structured error handling for dbadvisor.
//
// Configuration findings are never errors; they are advisories. The errors in
// this package describe a broken host environment: a store that cannot be
// read or written, a capability probe that fails, a random source that runs
// dry.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Settings errors
//   - 2XX: Configuration store errors
//   - 4XX: Validation errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategorySettings indicates problems with the tool's own settings file.
	CategorySettings Category = "SETTINGS"
	// CategoryStore indicates the configuration store could not be used.
	CategoryStore Category = "STORE"
	// CategoryValidation indicates invalid input.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Settings errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// Store errors (200-299)
	ErrCodeStoreUnavailable = "ERR_201_STORE_UNAVAILABLE"
	ErrCodeStoreWrite       = "ERR_202_STORE_WRITE"
	ErrCodeStoreLocked      = "ERR_203_STORE_LOCKED"

	// Validation errors (400-499)
	ErrCodeInvalidInput = "ERR_401_INVALID_INPUT"

	// Internal errors (500-599)
	ErrCodeInternal         = "ERR_501_INTERNAL"
	ErrCodeProbeFailed      = "ERR_502_PROBE_FAILED"
	ErrCodeSecretGeneration = "ERR_503_SECRET_GENERATION"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	switch code[4] {
	case '1':
		return CategorySettings
	case '2':
		return CategoryStore
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeStoreUnavailable, ErrCodeProbeFailed, ErrCodeSecretGeneration:
		return SeverityFatal
	case ErrCodeStoreLocked:
		return SeverityWarning
	}
	return SeverityError
}

// isRetryableCode reports whether the operation may succeed if tried again.
func isRetryableCode(code string) bool {
	return code == ErrCodeStoreLocked
}
