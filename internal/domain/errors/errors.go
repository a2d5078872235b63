package errors

import (
	"net/http"

	"authgate/internal/errors"
)

// AppError defines the interface for application-specific errors
type AppError interface {
	error
	HTTPCode() int     // HTTP status code
	ErrorCode() string // Business error code
	Message() string   // User-facing message
	Details() string   // Optional detail, never rendered for 5xx/401/403
}

// BaseError is a basic error structure that implements the AppError interface
type BaseError struct {
	httpCode  int
	errorCode string
	message   string
	details   string
}

// NewBaseError creates a new base error
func NewBaseError(httpCode int, errorCode, message, details string) *BaseError {
	return &BaseError{
		httpCode:  httpCode,
		errorCode: errorCode,
		message:   message,
		details:   details,
	}
}

func (e *BaseError) Error() string {
	return e.message
}

// WrapMessage wraps the error with additional context message
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

func (e *BaseError) HTTPCode() int {
	return e.httpCode
}

func (e *BaseError) ErrorCode() string {
	return e.errorCode
}

func (e *BaseError) Message() string {
	return e.message
}

func (e *BaseError) Details() string {
	return e.details
}

// WithDetails returns a copy carrying details. Copies do not compare equal
// to the original, so match them with errors.As on the error code.
func (e *BaseError) WithDetails(details string) *BaseError {
	return &BaseError{
		httpCode:  e.httpCode,
		errorCode: e.errorCode,
		message:   e.message,
		details:   details,
	}
}

// Error codes the client interceptor depends on.
const (
	CodeAccessTokenExpired = "ACCESS_TOKEN_EXPIRED"
	MessageAccessExpired   = "Access token expired"
)

var (
	// Account lookup and credentials
	ErrUserNotFound = NewBaseError(
		http.StatusNotFound,
		"USER_NOT_FOUND",
		"User not found",
		"",
	)

	ErrInvalidCredentials = NewBaseError(
		http.StatusUnauthorized,
		"INVALID_CREDENTIALS",
		"Invalid credentials",
		"",
	)

	ErrUserAlreadyExists = NewBaseError(
		http.StatusConflict,
		"USER_ALREADY_EXISTS",
		"User already exists",
		"",
	)

	// Access tokens
	ErrAccessTokenMissing = NewBaseError(
		http.StatusUnauthorized,
		"ACCESS_TOKEN_MISSING",
		"Access token required",
		"",
	)

	ErrAccessTokenExpired = NewBaseError(
		http.StatusUnauthorized,
		CodeAccessTokenExpired,
		MessageAccessExpired,
		"",
	)

	ErrAccessTokenInvalid = NewBaseError(
		http.StatusForbidden,
		"ACCESS_TOKEN_INVALID",
		"Invalid access token",
		"",
	)

	// Refresh tokens
	ErrRefreshTokenMissing = NewBaseError(
		http.StatusUnauthorized,
		"REFRESH_TOKEN_MISSING",
		"Refresh token required",
		"",
	)

	ErrRefreshTokenInvalid = NewBaseError(
		http.StatusUnauthorized,
		"REFRESH_TOKEN_INVALID",
		"Invalid or expired refresh token",
		"",
	)

	// Input and password policy
	ErrValidationFailed = NewBaseError(
		http.StatusBadRequest,
		"VALIDATION_FAILED",
		"Input validation failed",
		"",
	)

	ErrPasswordStrength = NewBaseError(
		http.StatusBadRequest,
		"PASSWORD_STRENGTH",
		"Password does not meet the strength requirements",
		"",
	)

	ErrPasswordMismatch = NewBaseError(
		http.StatusBadRequest,
		"PASSWORD_MISMATCH",
		"Passwords do not match",
		"",
	)

	ErrResetTokenInvalid = NewBaseError(
		http.StatusBadRequest,
		"RESET_TOKEN_INVALID",
		"Invalid or expired password reset token",
		"",
	)

	ErrOAuthTokenInvalid = NewBaseError(
		http.StatusUnauthorized,
		"OAUTH_TOKEN_INVALID",
		"Invalid ID token",
		"",
	)

	ErrTooManyRequests = NewBaseError(
		http.StatusTooManyRequests,
		"TOO_MANY_REQUESTS",
		"Too many requests, please try again later",
		"",
	)

	ErrMailDeliveryFailed = NewBaseError(
		http.StatusBadGateway,
		"MAIL_DELIVERY_FAILED",
		"Failed to send email",
		"",
	)

	ErrInternalError = NewBaseError(
		http.StatusInternalServerError,
		"INTERNAL_ERROR",
		"Internal server error",
		"",
	)
)

// UpstreamError reports a failed call to a backing store or dependency.
type UpstreamError struct {
	err     error
	details string
}

// NewUpstreamError wraps a store or dependency failure.
func NewUpstreamError(err error, details string) AppError {
	return &UpstreamError{
		err:     err,
		details: details,
	}
}

func (e *UpstreamError) Error() string {
	return errors.Wrap(e.err, "upstream call failed").Error()
}

func (e *UpstreamError) Unwrap() error {
	return e.err
}

func (e *UpstreamError) HTTPCode() int {
	return http.StatusServiceUnavailable
}

func (e *UpstreamError) ErrorCode() string {
	return "UPSTREAM_UNAVAILABLE"
}

func (e *UpstreamError) Message() string {
	return "Service temporarily unavailable"
}

func (e *UpstreamError) Details() string {
	return e.details
}

// HasCode reports whether err wraps an AppError carrying target's error code.
// It matches copies made with WithDetails.
func HasCode(err error, target AppError) bool {
	var appErr AppError
	if !errors.As(err, &appErr) {
		return false
	}

	return appErr.ErrorCode() == target.ErrorCode()
}
