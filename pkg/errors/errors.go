package errors

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
)

// ErrorType represents the kind of failure surfaced to callers
type ErrorType string

const (
	// Domain errors
	ErrorTypeUnauthorized    ErrorType = "UNAUTHORIZED"
	ErrorTypeNotFound        ErrorType = "NOT_FOUND"
	ErrorTypeDuplicateEntity ErrorType = "DUPLICATE_ENTITY"
	ErrorTypeInvalidInput    ErrorType = "INVALID_INPUT"
	ErrorTypeInvalidKey      ErrorType = "INVALID_KEY"

	// Application errors
	ErrorTypeInternal  ErrorType = "INTERNAL"
	ErrorTypeRateLimit ErrorType = "RATE_LIMIT"

	// Infrastructure errors
	ErrorTypeDatabase ErrorType = "DATABASE"
	ErrorTypeExternal ErrorType = "EXTERNAL"
)

// AppError represents an application-specific error
type AppError struct {
	Type       ErrorType              `json:"type"`
	Message    string                 `json:"message"`
	Code       string                 `json:"code,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	StackTrace string                 `json:"-"`
	HTTPStatus int                    `json:"-"`
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

// WithCode adds an error code
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

// WithDetails adds error details
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

// WithCause wraps an underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

func captureStackTrace() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	var sb strings.Builder
	for {
		frame, more := frames.Next()
		fmt.Fprintf(&sb, "%s:%d %s\n", frame.File, frame.Line, frame.Function)
		if !more {
			break
		}
	}
	return sb.String()
}

func newError(t ErrorType, status int, message string) *AppError {
	return &AppError{
		Type:       t,
		Message:    message,
		HTTPStatus: status,
		StackTrace: captureStackTrace(),
	}
}

// NewUnauthorizedError is returned when no principal is present.
func NewUnauthorizedError(message string) *AppError {
	if message == "" {
		message = "authentication required"
	}
	return newError(ErrorTypeUnauthorized, http.StatusUnauthorized, message)
}

// NewForbiddenError is an Unauthorized error for a principal that is present
// but not allowed to act. Same type, different status.
func NewForbiddenError(message string) *AppError {
	if message == "" {
		message = "not authorized"
	}
	return newError(ErrorTypeUnauthorized, http.StatusForbidden, message)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return newError(ErrorTypeNotFound, http.StatusNotFound, fmt.Sprintf("%s not found", resource))
}

// NewDuplicateEntityError creates a uniqueness violation error
func NewDuplicateEntityError(message string) *AppError {
	return newError(ErrorTypeDuplicateEntity, http.StatusConflict, message)
}

// NewInvalidInputError creates a validation error
func NewInvalidInputError(message string) *AppError {
	return newError(ErrorTypeInvalidInput, http.StatusBadRequest, message)
}

// NewInvalidKeyError is returned by the key scheme for malformed identifiers.
func NewInvalidKeyError(message string) *AppError {
	return newError(ErrorTypeInvalidKey, http.StatusBadRequest, message)
}

// NewInternalError creates an internal error
func NewInternalError(message string) *AppError {
	return newError(ErrorTypeInternal, http.StatusInternalServerError, message)
}

// NewRateLimitError creates a rate limit error
func NewRateLimitError(limit int, window string) *AppError {
	return newError(ErrorTypeRateLimit, http.StatusTooManyRequests,
		fmt.Sprintf("rate limit exceeded: %d requests per %s", limit, window)).
		WithDetails(map[string]interface{}{"limit": limit, "window": window})
}

// NewDatabaseError creates a database error
func NewDatabaseError(operation string, err error) *AppError {
	e := newError(ErrorTypeDatabase, http.StatusInternalServerError,
		fmt.Sprintf("database operation '%s' failed", operation))
	e.Cause = err
	return e
}

// NewExternalError creates an external service error
func NewExternalError(service string, err error) *AppError {
	e := newError(ErrorTypeExternal, http.StatusBadGateway,
		fmt.Sprintf("external service '%s' error", service))
	e.Cause = err
	return e
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError extracts AppError from an error chain
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsType checks if an error is of a specific type
func IsType(err error, errType ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == errType
}

func IsUnauthorized(err error) bool { return IsType(err, ErrorTypeUnauthorized) }
func IsNotFound(err error) bool     { return IsType(err, ErrorTypeNotFound) }
func IsDuplicate(err error) bool    { return IsType(err, ErrorTypeDuplicateEntity) }
func IsInvalidInput(err error) bool { return IsType(err, ErrorTypeInvalidInput) }
func IsInvalidKey(err error) bool   { return IsType(err, ErrorTypeInvalidKey) }
func IsInternal(err error) bool     { return IsType(err, ErrorTypeInternal) }

// Wrap wraps an error with additional context. AppErrors keep their type.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	if appErr := GetAppError(err); appErr != nil {
		appErr.Message = fmt.Sprintf("%s: %s", message, appErr.Message)
		return appErr
	}

	return NewInternalError(message).WithCause(err)
}
