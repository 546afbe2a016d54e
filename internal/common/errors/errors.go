// Package errors provides standardized error handling for the orchestration
// workflow and its external collaborators.
package errors

import (
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Submission / run lifecycle
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeRunNotFound      ErrorCode = "RUN_NOT_FOUND"
	ErrCodeRunCancelled     ErrorCode = "RUN_CANCELLED"
	ErrCodeRunTerminal      ErrorCode = "RUN_TERMINAL"

	// Query parsing
	ErrCodeParseFailed     ErrorCode = "PARSE_FAILED"
	ErrCodeParseAPITimeout ErrorCode = "PARSE_API_TIMEOUT"
	ErrCodeSchemaViolation ErrorCode = "SCHEMA_VIOLATION"

	// Source retrieval
	ErrCodeAdapterFailed   ErrorCode = "ADAPTER_FAILED"
	ErrCodeAdapterTimeout  ErrorCode = "ADAPTER_TIMEOUT"
	ErrCodeRetrievalFailed ErrorCode = "RETRIEVAL_FAILED"

	// Output dispatch
	ErrCodeExportFailed       ErrorCode = "EXPORT_FAILED"
	ErrCodeDraftFailed        ErrorCode = "DRAFT_FAILED"
	ErrCodePersistFailed      ErrorCode = "PERSIST_FAILED"
	ErrCodeIndexFailed        ErrorCode = "INDEX_FAILED"
	ErrCodeNotificationFailed ErrorCode = "NOTIFICATION_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewValidationFailedError rejects a bad submission synchronously.
func NewValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Submission input is invalid",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRunNotFoundError reports an unknown run identifier.
func NewRunNotFoundError(runID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRunNotFound,
		Message:   "Run not found",
		Details:   fmt.Sprintf("runId: %s", runID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRunTerminalError rejects a transition against an already-terminal run.
func NewRunTerminalError(runID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRunTerminal,
		Message:   "Run already reached a terminal status",
		Details:   fmt.Sprintf("runId: %s", runID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewParseFailedError creates a terminal parse failure.
func NewParseFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeParseFailed,
		Message:   "Query parsing failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSchemaViolationError reports parser output that failed schema validation.
func NewSchemaViolationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSchemaViolation,
		Message:   "Parser output violates the structured query schema",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAdapterFailedError records one source adapter failing.
func NewAdapterFailedError(source string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAdapterFailed,
		Message:   fmt.Sprintf("Source adapter '%s' failed", source),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAdapterTimeoutError records one source adapter exceeding its deadline.
func NewAdapterTimeoutError(source string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAdapterTimeout,
		Message:   fmt.Sprintf("Source adapter '%s' timed out", source),
		Details:   "search call exceeded the configured per-adapter timeout",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewRetrievalFailedError escalates when every source adapter failed.
func NewRetrievalFailedError() *StandardError {
	return &StandardError{
		Code:      ErrCodeRetrievalFailed,
		Message:   "All source adapters failed or timed out",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDispatchFailedError records one output dispatcher failing.
func NewDispatchFailedError(code ErrorCode, component string, err error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   fmt.Sprintf("Output dispatcher '%s' failed", component),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// GetRetryCount returns the recommended retry count per error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeAdapterFailed,
		ErrCodeParseFailed,
		ErrCodePersistFailed,
		ErrCodeIndexFailed,
		ErrCodeNotificationFailed:
		return 3 // Retryable technical errors

	case ErrCodeAdapterTimeout,
		ErrCodeParseAPITimeout:
		return 2 // Partial retry for timeouts

	default:
		return 0 // Business errors: no retry
	}
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}
