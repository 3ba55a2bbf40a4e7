package operations

import (
	"errors"
	"fmt"

	apperrors "scadapulse/internal/errors"
)

// ErrorType represents the type of pipeline error
type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeExecution    ErrorType = "execution"
	ErrorTypeTimeout      ErrorType = "timeout"
	ErrorTypeCancellation ErrorType = "cancellation"
	ErrorTypeSkipped      ErrorType = "skipped"
)

// OperationError represents a stage failure.
type OperationError struct {
	Type      ErrorType `json:"type"`
	Stage     string    `json:"stage,omitempty"`
	Message   string    `json:"message"`
	Cause     error     `json:"-"`
	Retryable bool      `json:"retryable"`
}

// Error implements the error interface
func (e *OperationError) Error() string {
	if e == nil {
		return "unknown operation error"
	}
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if e.Stage != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Type, e.Stage, msg)
	}
	return fmt.Sprintf("[%s] %s", e.Type, msg)
}

// Unwrap returns the underlying error
func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewValidationError creates a new validation error
func NewValidationError(stage, message string) *OperationError {
	return &OperationError{Type: ErrorTypeValidation, Stage: stage, Message: message}
}

// NewExecutionError wraps a stage failure. Network failures are retryable.
func NewExecutionError(stage string, cause error) *OperationError {
	return &OperationError{
		Type:      ErrorTypeExecution,
		Stage:     stage,
		Message:   "stage execution failed",
		Cause:     cause,
		Retryable: apperrors.IsType(cause, apperrors.ErrTypeNetwork),
	}
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(stage string, timeout string) *OperationError {
	return &OperationError{
		Type:    ErrorTypeTimeout,
		Stage:   stage,
		Message: fmt.Sprintf("stage timed out after %s", timeout),
	}
}

// NewCancellationError creates a new cancellation error
func NewCancellationError(stage string) *OperationError {
	return &OperationError{Type: ErrorTypeCancellation, Stage: stage, Message: "run cancelled"}
}

// SkipStage is returned by a stage that decided not to run. The pipeline
// records the reason and moves on.
func SkipStage(reason string) *OperationError {
	return &OperationError{Type: ErrorTypeSkipped, Message: reason}
}

// IsRetryable reports whether a stage error may succeed on another attempt.
func IsRetryable(err error) bool {
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr.Retryable
	}
	return false
}

// GetErrorType returns the pipeline error type, or "" for foreign errors.
func GetErrorType(err error) ErrorType {
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr.Type
	}
	return ""
}

// IsSkip reports whether err is a SkipStage signal.
func IsSkip(err error) bool {
	return GetErrorType(err) == ErrorTypeSkipped
}
