package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error kinds. Every domain error wraps exactly one of these so callers can
// branch with errors.Is without caring about the message.
var (
	// ErrValidation is returned when input is malformed or out of range.
	ErrValidation = errors.New("validation failed")
	// ErrUnauthorized is returned when a credential is missing, invalid or expired.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is returned when the principal lacks rights over the target resource.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned on uniqueness violations.
	ErrConflict = errors.New("conflict")
)

// AppError carries a caller-facing message and the kind it belongs to.
type AppError struct {
	Kind    error
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

// Unwrap exposes the kind to errors.Is.
func (e *AppError) Unwrap() error {
	return e.Kind
}

// New creates an AppError of the given kind.
func New(kind error, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

// NotFound builds a NotFound error with a formatted message.
func NotFound(format string, args ...interface{}) *AppError {
	return New(ErrNotFound, fmt.Sprintf(format, args...))
}

// Forbidden builds a Forbidden error.
func Forbidden(message string) *AppError {
	return New(ErrForbidden, message)
}

// Conflict builds a Conflict error.
func Conflict(message string) *AppError {
	return New(ErrConflict, message)
}

// Unauthorized builds an Unauthorized error.
func Unauthorized(message string) *AppError {
	return New(ErrUnauthorized, message)
}

// ValidationError lists every constraint a payload violated.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}

// Unwrap exposes ErrValidation to errors.Is.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError creates a ValidationError from one or more messages.
func NewValidationError(messages ...string) *ValidationError {
	return &ValidationError{Messages: messages}
}

// ErrorResponse represents a standardized error response.
// Message is either a string or a list of validation messages.
type ErrorResponse struct {
	Message interface{} `json:"message" swaggertype:"string"`
	Code    string      `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    interface{}
	Code       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprint(e.Message)
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message interface{}, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Message: e.Message,
		Code:    e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return NewHTTPError(http.StatusBadRequest, validationErr.Messages, "VALIDATION_ERROR")
	}

	switch {
	case errors.Is(err, ErrValidation):
		return NewHTTPError(http.StatusBadRequest, []string{err.Error()}, "VALIDATION_ERROR")
	case errors.Is(err, ErrUnauthorized):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "UNAUTHORIZED")
	case errors.Is(err, ErrForbidden):
		return NewHTTPError(http.StatusForbidden, err.Error(), "FORBIDDEN")
	case errors.Is(err, ErrNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "NOT_FOUND")
	case errors.Is(err, ErrConflict):
		return NewHTTPError(http.StatusConflict, err.Error(), "CONFLICT")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
