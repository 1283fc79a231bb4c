package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation       ErrorType = "validation"
	ErrorTypeUnreadablePdf    ErrorType = "unreadable_pdf"
	ErrorTypeFilePlacement    ErrorType = "file_placement"
	ErrorTypeStoreUnavailable ErrorType = "store_unavailable"
	ErrorTypeWatermark        ErrorType = "watermark"
	ErrorTypeNotFound         ErrorType = "not_found"
	ErrorTypeInternal         ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Fields     []string  `json:"fields,omitempty"`
	StatusCode int       `json:"-"`
	Cause      error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, strings.Join(e.Fields, ", "))
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates a validation error naming every offending field.
func NewValidationError(message string, fields ...string) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		Fields:     fields,
		StatusCode: http.StatusBadRequest,
	}
}

// NewUnreadablePdfError creates an error for files that cannot be parsed as PDF.
func NewUnreadablePdfError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeUnreadablePdf,
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
		Cause:      cause,
	}
}

// NewFilePlacementError creates an error for failed vault copies.
func NewFilePlacementError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeFilePlacement,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// NewStoreUnavailableError creates an error for a busy or unreachable store.
func NewStoreUnavailableError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeStoreUnavailable,
		Message:    message,
		StatusCode: http.StatusServiceUnavailable,
		Cause:      cause,
	}
}

// NewWatermarkError creates an error for a failed watermark application.
// Callers treat it as a warning; the unwatermarked copy stays valid.
func NewWatermarkError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeWatermark,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

// NewInternalError creates a new internal server error
func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// IsType checks if the error is of a specific type
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// GetStatusCode returns the HTTP status code for an error
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
