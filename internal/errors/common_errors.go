package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies pipeline failures by the stage that raised them.
type ErrorType string

const (
	ErrTypeDecode     ErrorType = "DECODE"
	ErrTypeSchema     ErrorType = "SCHEMA"
	ErrTypeParsing    ErrorType = "PARSING"
	ErrTypeValidation ErrorType = "VALIDATION"
	ErrTypeNotFound   ErrorType = "NOT_FOUND"
)

// AppError is the internal error carried between pipeline stages. The HTTP
// layer translates it to a problem response; the CLI prints it as-is.
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext attaches a key/value pair for the error handler to log.
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewDecodeError creates an input decoding error. Decode errors are fatal
// to the current report run and carry the underlying cause so the user can
// fix the input (wrong delimiter, non-UTF-8 bytes, empty table).
func NewDecodeError(message string, cause error) *AppError {
	return NewAppError(ErrTypeDecode, message, cause)
}

// NewSchemaMismatchError creates an error for an inferred column name that
// is absent from the actual header set at the point it is needed.
func NewSchemaMismatchError(column string) *AppError {
	return NewAppError(ErrTypeSchema, fmt.Sprintf("column %q not found in input headers", column), nil).
		WithContext("column", column)
}

// IsType reports whether err is an AppError of the given type anywhere in
// its chain.
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errType
	}
	return false
}
