package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeData       ErrorType = "data"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeNetwork    ErrorType = "network"
	ErrorTypeInternal   ErrorType = "internal"
)

// ChartError is a structured error type with context.
type ChartError struct {
	Type        ErrorType
	Code        string
	Message     string
	Cause       error
	Context     map[string]interface{}
	Pane        string
	Axis        string
	Series      string
	Suggestions []string
	Recoverable bool
}

// Error implements the error interface.
func (e *ChartError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Pane != "" {
		parts = append(parts, "pane:"+e.Pane)
	}
	if e.Axis != "" {
		parts = append(parts, "axis:"+e.Axis)
	}
	if e.Series != "" {
		parts = append(parts, "series:"+e.Series)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *ChartError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *ChartError) Is(target error) bool {
	var t *ChartError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *ChartError) WithContext(key string, value interface{}) *ChartError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithPane adds pane context.
func (e *ChartError) WithPane(pane string) *ChartError {
	e.Pane = pane

	return e
}

// WithAxis adds axis context.
func (e *ChartError) WithAxis(axis string) *ChartError {
	e.Axis = axis

	return e
}

// WithSeries adds series context.
func (e *ChartError) WithSeries(series string) *ChartError {
	e.Series = series

	return e
}

// WithSuggestions attaches "did you mean" style hints.
func (e *ChartError) WithSuggestions(suggestions ...string) *ChartError {
	e.Suggestions = append(e.Suggestions, suggestions...)

	return e
}

// Error creation functions

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *ChartError {
	return &ChartError{
		Type:        ErrorTypeValidation,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewConfigError creates a configuration error. Configuration errors are
// reported at attach time and leave group membership untouched.
func NewConfigError(code, message string) *ChartError {
	return &ChartError{
		Type:        ErrorTypeConfig,
		Code:        code,
		Message:     message,
		Recoverable: false,
	}
}

// NewDataError creates a data error.
func NewDataError(code, message string, cause error) *ChartError {
	return &ChartError{
		Type:        ErrorTypeData,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *ChartError {
	return &ChartError{
		Type:        ErrorTypeIO,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// NewNetworkError creates a network error.
func NewNetworkError(code, message string, cause error) *ChartError {
	return &ChartError{
		Type:        ErrorTypeNetwork,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *ChartError {
	return &ChartError{
		Type:        ErrorTypeInternal,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// Error recovery and handling utilities

// IsRecoverable checks if an error is recoverable.
func IsRecoverable(err error) bool {
	var ce *ChartError
	if errors.As(err, &ce) {
		return ce.Recoverable
	}

	return false
}

// IsConfigError checks if an error is a configuration error.
func IsConfigError(err error) bool {
	return hasType(err, ErrorTypeConfig)
}

// IsValidationError checks if an error is a validation error.
func IsValidationError(err error) bool {
	return hasType(err, ErrorTypeValidation)
}

// IsDataError checks if an error is a data error.
func IsDataError(err error) bool {
	return hasType(err, ErrorTypeData)
}

func hasType(err error, t ErrorType) bool {
	var ce *ChartError
	if errors.As(err, &ce) {
		return ce.Type == t
	}

	return false
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code string) bool {
	for err != nil {
		var ce *ChartError
		if !errors.As(err, &ce) {
			return false
		}
		if ce.Code == code {
			return true
		}
		err = ce.Cause
	}

	return false
}

// ErrorHandler provides centralized error handling.
type ErrorHandler struct {
	logger Logger
}

// Logger interface for error logging.
type Logger interface {
	Error(ctx context.Context, err error, msg string, fields ...interface{})
	Warn(ctx context.Context, err error, msg string, fields ...interface{})
}

// NewErrorHandler creates a new error handler.
func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle logs an error at a level matching its type.
func (h *ErrorHandler) Handle(ctx context.Context, err error) {
	if err == nil || h.logger == nil {
		return
	}

	var ce *ChartError
	if !errors.As(err, &ce) {
		h.logger.Error(ctx, err, "Unhandled error occurred")
		return
	}

	switch ce.Type {
	case ErrorTypeValidation, ErrorTypeConfig, ErrorTypeData:
		h.logger.Warn(ctx, err, "Chart error occurred",
			"type", ce.Type,
			"code", ce.Code,
			"pane", ce.Pane,
			"axis", ce.Axis)
	default:
		h.logger.Error(ctx, err, "Error occurred",
			"type", ce.Type,
			"code", ce.Code)
	}
}

// Common error codes.
const (
	ErrCodeAxisNotFound     = "ERR_AXIS_NOT_FOUND"
	ErrCodePaneNotFound     = "ERR_PANE_NOT_FOUND"
	ErrCodeSeriesNotFound   = "ERR_SERIES_NOT_FOUND"
	ErrCodeAlreadyAttached  = "ERR_ALREADY_ATTACHED"
	ErrCodeDomainMismatch   = "ERR_DOMAIN_MISMATCH"
	ErrCodeDuplicateID      = "ERR_DUPLICATE_ID"
	ErrCodeInvalidRange     = "ERR_INVALID_RANGE"
	ErrCodeInvalidEvent     = "ERR_INVALID_EVENT"
	ErrCodeConfigInvalid    = "ERR_CONFIG_INVALID"
	ErrCodeFileNotFound     = "ERR_FILE_NOT_FOUND"
	ErrCodeDecodeFailed     = "ERR_DECODE_FAILED"
	ErrCodeInvalidOrigin    = "ERR_INVALID_ORIGIN"
	ErrCodeInternalError    = "ERR_INTERNAL"
	ErrCodeValidationFailed = "ERR_VALIDATION_FAILED"
)

// Helper functions for common errors

// ErrAxisNotFound creates an unknown-axis configuration error.
func ErrAxisNotFound(id string, known []string) *ChartError {
	return NewConfigError(ErrCodeAxisNotFound, "axis not found: "+id).
		WithAxis(id).
		WithSuggestions(SuggestIDs(id, known)...)
}

// ErrPaneNotFound creates an unknown-pane configuration error.
func ErrPaneNotFound(id string, known []string) *ChartError {
	return NewConfigError(ErrCodePaneNotFound, "pane not found: "+id).
		WithPane(id).
		WithSuggestions(SuggestIDs(id, known)...)
}

// ErrDomainMismatch creates an incompatible-axis configuration error.
func ErrDomainMismatch(axis, want, got string) *ChartError {
	return NewConfigError(
		ErrCodeDomainMismatch,
		fmt.Sprintf("axis domain %s does not match group domain %s", got, want),
	).WithAxis(axis)
}

// ErrAlreadyAttached creates a duplicate-membership configuration error.
func ErrAlreadyAttached(kind, id string) *ChartError {
	return NewConfigError(ErrCodeAlreadyAttached, kind+" already attached: "+id).
		WithContext(kind, id)
}

// ErrDuplicateID creates a duplicate identifier configuration error.
func ErrDuplicateID(kind, id string) *ChartError {
	return NewConfigError(ErrCodeDuplicateID, "duplicate "+kind+" id: "+id).
		WithContext(kind, id)
}
