package errors

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
)

// ErrorType classifies an AppError.
type ErrorType string

const (
	// Caller errors
	ErrorTypeValidation   ErrorType = "VALIDATION"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeRateLimit    ErrorType = "RATE_LIMIT"

	// Application errors
	ErrorTypeInternal    ErrorType = "INTERNAL"
	ErrorTypeUnavailable ErrorType = "UNAVAILABLE"

	// Store errors
	ErrorTypeDatabase ErrorType = "DATABASE"
	ErrorTypeNetwork  ErrorType = "NETWORK"
	ErrorTypeExternal ErrorType = "EXTERNAL"

	// ErrorTypeDrift marks a mirrored entity whose document and graph
	// representations disagree. It is reported, never returned from a
	// successful operation.
	ErrorTypeDrift ErrorType = "CROSS_STORE_DRIFT"
)

// Error codes shared by the store adapters.
const (
	CodeInvalidArgument = "INVALID_ARGUMENT"
	CodeWriteConflict   = "WRITE_CONFLICT"
	CodeWriteError      = "WRITE_ERROR"
	CodeTransport       = "TRANSPORT_ERROR"
)

// AppError is the error value returned across package boundaries.
type AppError struct {
	Type       ErrorType              `json:"type"`
	Message    string                 `json:"message"`
	Code       string                 `json:"code,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	StackTrace string                 `json:"-"`
	HTTPStatus int                    `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithCode sets the machine readable code.
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

// WithDetails merges details into the error.
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{}, len(details))
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithCause wraps an underlying error.
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

func captureStackTrace() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	var b strings.Builder
	for {
		frame, more := frames.Next()
		fmt.Fprintf(&b, "%s:%d %s\n", frame.File, frame.Line, frame.Function)
		if !more {
			break
		}
	}
	return b.String()
}

func newError(t ErrorType, status int, message string) *AppError {
	return &AppError{
		Type:       t,
		Message:    message,
		HTTPStatus: status,
		StackTrace: captureStackTrace(),
	}
}

// NewValidationError creates a validation error.
func NewValidationError(message string) *AppError {
	return newError(ErrorTypeValidation, http.StatusBadRequest, message)
}

// NewInvalidArgumentError reports a caller-supplied value the stores cannot
// accept: an unknown update operator, an unsafe identifier, a malformed id.
func NewInvalidArgumentError(format string, args ...interface{}) *AppError {
	return NewValidationError(fmt.Sprintf(format, args...)).WithCode(CodeInvalidArgument)
}

// NewNotFoundError creates a not found error.
func NewNotFoundError(resource string) *AppError {
	return newError(ErrorTypeNotFound, http.StatusNotFound, fmt.Sprintf("%s not found", resource))
}

// NewConflictError creates a conflict error.
func NewConflictError(message string) *AppError {
	return newError(ErrorTypeConflict, http.StatusConflict, message)
}

// NewWriteConflictError reports a write rejected by a uniqueness rule.
func NewWriteConflictError(operation string, err error) *AppError {
	return NewConflictError(fmt.Sprintf("write '%s' rejected: duplicate key or constraint violation", operation)).
		WithCode(CodeWriteConflict).
		WithCause(err)
}

// NewUnauthorizedError creates an unauthorized error.
func NewUnauthorizedError(message string) *AppError {
	if message == "" {
		message = "unauthorized"
	}
	return newError(ErrorTypeUnauthorized, http.StatusUnauthorized, message)
}

// NewForbiddenError creates a forbidden error.
func NewForbiddenError(message string) *AppError {
	if message == "" {
		message = "forbidden"
	}
	return newError(ErrorTypeForbidden, http.StatusForbidden, message)
}

// NewTooManyRequestsError rejects a throttled caller.
func NewTooManyRequestsError(message string) *AppError {
	return newError(ErrorTypeRateLimit, http.StatusTooManyRequests, message)
}

// NewInternalError creates an internal error.
func NewInternalError(message string) *AppError {
	return newError(ErrorTypeInternal, http.StatusInternalServerError, message)
}

// NewUnavailableError creates a service unavailable error.
func NewUnavailableError(service string) *AppError {
	return newError(ErrorTypeUnavailable, http.StatusServiceUnavailable, fmt.Sprintf("service '%s' is unavailable", service))
}

// NewDatabaseError creates a database error.
func NewDatabaseError(operation string, err error) *AppError {
	e := newError(ErrorTypeDatabase, http.StatusInternalServerError, fmt.Sprintf("database operation '%s' failed", operation))
	e.Cause = err
	return e
}

// NewWriteError reports a write the store rejected for a reason other than
// a uniqueness rule.
func NewWriteError(operation string, err error) *AppError {
	return NewDatabaseError(operation, err).WithCode(CodeWriteError)
}

// NewNetworkError creates a transport error.
func NewNetworkError(message string, err error) *AppError {
	e := newError(ErrorTypeNetwork, http.StatusBadGateway, message)
	e.Cause = err
	e.Code = CodeTransport
	return e
}

// NewExternalError creates an external service error.
func NewExternalError(service string, err error) *AppError {
	e := newError(ErrorTypeExternal, http.StatusBadGateway, fmt.Sprintf("external service '%s' error", service))
	e.Cause = err
	return e
}

// NewDriftError describes a mirrored entity whose two stores disagree.
func NewDriftError(entity, id, kind string, cause error) *AppError {
	e := newError(ErrorTypeDrift, http.StatusOK, fmt.Sprintf("%s %s: %s", entity, id, kind))
	e.Cause = cause
	e.Code = kind
	return e
}

// GetAppError extracts an AppError from an error chain.
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsAppError reports whether err wraps an AppError.
func IsAppError(err error) bool {
	return GetAppError(err) != nil
}

// IsType reports whether err is an AppError of the given type.
func IsType(err error, errType ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == errType
}

func IsNotFound(err error) bool     { return IsType(err, ErrorTypeNotFound) }
func IsValidation(err error) bool   { return IsType(err, ErrorTypeValidation) }
func IsUnauthorized(err error) bool { return IsType(err, ErrorTypeUnauthorized) }
func IsConflict(err error) bool     { return IsType(err, ErrorTypeConflict) }
func IsNetwork(err error) bool      { return IsType(err, ErrorTypeNetwork) }
func IsUnavailable(err error) bool  { return IsType(err, ErrorTypeUnavailable) }

// IsInvalidArgument reports a rejected caller argument.
func IsInvalidArgument(err error) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Code == CodeInvalidArgument
}

// IsWriteError reports a write the store refused, whether by conflict or
// any other rejection.
func IsWriteError(err error) bool {
	appErr := GetAppError(err)
	return appErr != nil && (appErr.Code == CodeWriteConflict || appErr.Code == CodeWriteError)
}

// IsTransient reports errors that stem from the store being unreachable.
func IsTransient(err error) bool {
	return IsNetwork(err) || IsUnavailable(err)
}

// Wrap prefixes the message of an AppError, or wraps a plain error as
// internal.
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

// Wrapf is Wrap with a format string.
func Wrapf(err error, format string, args ...interface{}) error {
	return Wrap(err, fmt.Sprintf(format, args...))
}
