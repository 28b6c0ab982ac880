package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

const (
	// Authentication & Authorization
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeRateLimited  ErrorCode = "RATE_LIMITED"

	// Validation
	ErrCodeValidation      ErrorCode = "VALIDATION_ERROR"
	ErrCodeInvalidInput    ErrorCode = "INVALID_INPUT"
	ErrCodeMissingRequired ErrorCode = "MISSING_REQUIRED"

	// Resource
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	ErrCodeConflict ErrorCode = "CONFLICT"

	// Provider adapters
	ErrCodeMissingCredential        ErrorCode = "MISSING_CREDENTIAL"
	ErrCodeMissingRefreshCredential ErrorCode = "MISSING_REFRESH_CREDENTIAL"
	ErrCodeAuthExpired              ErrorCode = "AUTH_EXPIRED"
	ErrCodeProvider                 ErrorCode = "PROVIDER_ERROR"
	ErrCodeRefreshFailed            ErrorCode = "REFRESH_FAILED"
	ErrCodeNotSupported             ErrorCode = "NOT_SUPPORTED"
	ErrCodeSystemNotFound           ErrorCode = "SYSTEM_NOT_FOUND"

	// Rewards
	ErrCodeDistribution ErrorCode = "DISTRIBUTION_ERROR"

	// Internal
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	ErrCodeDatabase ErrorCode = "DATABASE_ERROR"
	ErrCodeExternal ErrorCode = "EXTERNAL_SERVICE_ERROR"
)

// AppError is a structured error that can be returned to clients
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details any       `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.cause
}

// WithCause adds a cause to the error
func (e *AppError) WithCause(err error) *AppError {
	e.cause = err
	return e
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an AppError
func Wrap(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Common error constructors

func Unauthorized(message string) *AppError {
	return New(ErrCodeUnauthorized, message)
}

func Forbidden(message string) *AppError {
	return New(ErrCodeForbidden, message)
}

func RateLimited() *AppError {
	return New(ErrCodeRateLimited, "Too many requests. Please try again later.")
}

func NotFound(resource string) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource))
}

func Conflict(message string) *AppError {
	return New(ErrCodeConflict, message)
}

func ValidationError(message string) *AppError {
	return New(ErrCodeValidation, message)
}

func InvalidInput(field string, reason string) *AppError {
	return New(ErrCodeInvalidInput, fmt.Sprintf("Invalid %s: %s", field, reason))
}

func MissingRequired(field string) *AppError {
	return New(ErrCodeMissingRequired, fmt.Sprintf("%s is required", field))
}

// Provider adapter errors

func MissingCredential(provider, credential string) *AppError {
	return New(ErrCodeMissingCredential, fmt.Sprintf("No %s available for %s account", credential, provider))
}

func MissingRefreshCredential(provider string) *AppError {
	return New(ErrCodeMissingRefreshCredential, fmt.Sprintf("No refresh token available for %s account", provider))
}

func AuthExpired(provider string) *AppError {
	return New(ErrCodeAuthExpired, fmt.Sprintf("%s credential expired or invalid", provider))
}

func ProviderError(provider, reason string) *AppError {
	return New(ErrCodeProvider, fmt.Sprintf("%s API error: %s", provider, reason))
}

func RefreshFailed(provider string, cause error) *AppError {
	return Wrap(ErrCodeRefreshFailed, fmt.Sprintf("Failed to refresh %s access token", provider), cause)
}

func NotSupported(provider, operation string) *AppError {
	return New(ErrCodeNotSupported, fmt.Sprintf("%s does not support %s", provider, operation))
}

func SystemNotFound(provider, systemID string) *AppError {
	return New(ErrCodeSystemNotFound, fmt.Sprintf("System ID %s not found in %s account", systemID, provider))
}

func Distribution(cause error) *AppError {
	return Wrap(ErrCodeDistribution, "Reward distribution failed", cause)
}

func Internal(message string) *AppError {
	return New(ErrCodeInternal, message)
}

func Database(cause error) *AppError {
	return Wrap(ErrCodeDatabase, "Database error", cause)
}

func External(service string, cause error) *AppError {
	return Wrap(ErrCodeExternal, fmt.Sprintf("External service error: %s", service), cause)
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetCode returns the error code if the error is an AppError, otherwise returns ErrCodeInternal
func GetCode(err error) ErrorCode {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	return ErrCodeInternal
}

// HasCode reports whether err is, or wraps, an AppError with the given code.
func HasCode(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}
	return GetCode(err) == code
}
