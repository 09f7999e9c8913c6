package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeValidation       ErrorType = "VALIDATION"
	ErrTypeNotFound         ErrorType = "NOT_FOUND"
	ErrTypeInsufficientData ErrorType = "INSUFFICIENT_DATA"
	ErrTypeModelFit         ErrorType = "MODEL_FIT"
	ErrTypeParsing          ErrorType = "PARSING"
	ErrTypeStorage          ErrorType = "STORAGE"
	ErrTypeConfig           ErrorType = "CONFIG"
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

// Helper functions for common error types

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// NewInsufficientDataError reports a series too short to forecast. The point
// count and the required minimum are attached as context.
func NewInsufficientDataError(points, minimum int) *AppError {
	return NewAppError(ErrTypeInsufficientData,
		fmt.Sprintf("insufficient data for forecasting: %d points, need at least %d", points, minimum), nil).
		WithContext("points", points).
		WithContext("minimum", minimum)
}

// NewModelFitError wraps a failure of the forecasting model
func NewModelFitError(message string, cause error) *AppError {
	return NewAppError(ErrTypeModelFit, message, cause)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// TypeOf returns the AppError type found in err's chain, or "" if none.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// IsNotFound reports whether err is a NOT_FOUND AppError
func IsNotFound(err error) bool {
	return TypeOf(err) == ErrTypeNotFound
}

// IsInsufficientData reports whether err is an INSUFFICIENT_DATA AppError
func IsInsufficientData(err error) bool {
	return TypeOf(err) == ErrTypeInsufficientData
}

// IsModelFit reports whether err is a MODEL_FIT AppError
func IsModelFit(err error) bool {
	return TypeOf(err) == ErrTypeModelFit
}

// IsValidation reports whether err is a VALIDATION AppError
func IsValidation(err error) bool {
	return TypeOf(err) == ErrTypeValidation
}
