// Package errors defines the application error taxonomy shared by every
// pipeline stage. Each stage fails fast with a typed error instead of
// propagating a generic I/O or nil-dereference failure.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeEmptyInput   ErrorType = "EMPTY_INPUT"
	ErrTypeSchema       ErrorType = "SCHEMA"
	ErrTypePrerequisite ErrorType = "PREREQUISITE"
	ErrTypeWrite        ErrorType = "WRITE"
	ErrTypeParsing      ErrorType = "PARSING"
	ErrTypeConfig       ErrorType = "CONFIG"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// IsType reports whether err is (or wraps) an AppError of the given type.
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errType
	}
	return false
}

// NewEmptyInputError reports an input source with zero data rows.
func NewEmptyInputError(source string) *AppError {
	return NewAppError(ErrTypeEmptyInput, fmt.Sprintf("input %s contains no data rows", source), nil).
		WithContext("source", source)
}

// NewSchemaError reports missing required columns. It carries both the
// missing list and the columns actually found so callers can surface a
// usable message.
func NewSchemaError(missing, found []string) *AppError {
	msg := fmt.Sprintf("missing required columns: %s (found columns: %s)",
		strings.Join(missing, ", "), strings.Join(found, ", "))
	return NewAppError(ErrTypeSchema, msg, nil).
		WithContext("missing_columns", missing).
		WithContext("found_columns", found)
}

// SchemaDetails extracts the missing and found column lists from a schema
// error. ok is false when err is not a schema error.
func SchemaDetails(err error) (missing, found []string, ok bool) {
	var appErr *AppError
	if !errors.As(err, &appErr) || appErr.Type != ErrTypeSchema {
		return nil, nil, false
	}
	missing, _ = appErr.Context["missing_columns"].([]string)
	found, _ = appErr.Context["found_columns"].([]string)
	return missing, found, true
}

// NewPrerequisiteError reports a stage invoked out of order.
func NewPrerequisiteError(message string) *AppError {
	return NewAppError(ErrTypePrerequisite, message, nil)
}

// NewWriteError reports that the output artifact could not be persisted,
// wrapping the underlying I/O cause.
func NewWriteError(message string, cause error) *AppError {
	return NewAppError(ErrTypeWrite, message, cause)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}
