package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	// Pipeline errors
	ErrorTypeUnknownMetric   ErrorType = "unknown_metric"
	ErrorTypeEmptyClass      ErrorType = "empty_class"
	ErrorTypeUnknownModality ErrorType = "unknown_modality"
	ErrorTypeDegenerateImage ErrorType = "degenerate_image"
	ErrorTypeShapeMismatch   ErrorType = "shape_mismatch"

	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeNetwork    ErrorType = "network"
	ErrorTypeProcessing ErrorType = "processing"
	ErrorTypeTimeout    ErrorType = "timeout"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeInternal   ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	StatusCode int       `json:"status_code"`
	Cause      error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewUnknownMetricError reports a metric name outside the supported set
func NewUnknownMetricError(name string) *AppError {
	return &AppError{
		Type:       ErrorTypeUnknownMetric,
		Message:    fmt.Sprintf("unknown focus metric: %q", name),
		StatusCode: http.StatusBadRequest,
	}
}

// NewEmptyClassError reports an ROC request lacking positive or negative labels
func NewEmptyClassError(positives, negatives int) *AppError {
	return &AppError{
		Type:       ErrorTypeEmptyClass,
		Message:    "ROC curve needs at least one positive and one negative label",
		Details:    fmt.Sprintf("positives=%d negatives=%d", positives, negatives),
		StatusCode: http.StatusUnprocessableEntity,
	}
}

// NewUnknownModalityError reports a modality name outside Brightfield/DIC
func NewUnknownModalityError(name string) *AppError {
	return &AppError{
		Type:       ErrorTypeUnknownModality,
		Message:    fmt.Sprintf("unknown modality: %q", name),
		StatusCode: http.StatusBadRequest,
	}
}

// NewDegenerateImageError reports normalization of a constant-valued image
func NewDegenerateImageError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeDegenerateImage,
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
	}
}

// NewShapeMismatchError reports ground truth that does not line up with the stack
func NewShapeMismatchError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeShapeMismatch,
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
		Cause:      cause,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Cause:      cause,
	}
}

// NewNetworkError creates a new network error
func NewNetworkError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeNetwork,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Cause:      cause,
	}
}

// NewProcessingError creates a new processing error
func NewProcessingError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeProcessing,
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
		Cause:      cause,
	}
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeTimeout,
		Message:    message,
		StatusCode: http.StatusGatewayTimeout,
		Cause:      cause,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
		Cause:      cause,
	}
}

// IsType checks if the error, or any error it wraps, is of a specific type
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// GetStatusCode extracts the HTTP status code from an error
func GetStatusCode(err error) int {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
