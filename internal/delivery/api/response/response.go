// Package response renders the JSON envelope shared by every endpoint.
package response

import (
	"net/http"

	deliverycontext "authgate/internal/delivery/context"
	domainerrors "authgate/internal/domain/errors"

	"github.com/labstack/echo/v4"
)

// SuccessResponse defines the structure for successful responses
type SuccessResponse struct {
	Data any       `json:"data"`
	Meta *MetaInfo `json:"meta"`
}

// ErrorResponse defines the structure for error responses
type ErrorResponse struct {
	Error *ErrorInfo `json:"error"`
	Meta  *MetaInfo  `json:"meta"`
}

// ErrorInfo contains detailed error information
type ErrorInfo struct {
	Code    string `json:"code"`              // Machine-readable error code, e.g., "ACCESS_TOKEN_EXPIRED"
	Message string `json:"message"`           // User-facing message
	Details any    `json:"details,omitempty"` // Only for 4xx other than 401/403
}

// MetaInfo represents response metadata
type MetaInfo struct {
	RequestID string `json:"request_id"`
}

// MessageData is the payload of endpoints that only confirm an action.
type MessageData struct {
	Message string `json:"message"`
}

func Success(c echo.Context, statusCode int, data any) error {
	return c.JSON(statusCode, SuccessResponse{
		Data: data,
		Meta: meta(c),
	})
}

// Message responds with {data: {message}}.
func Message(c echo.Context, statusCode int, message string) error {
	return Success(c, statusCode, MessageData{Message: message})
}

// Error writes an error envelope. Details are dropped for 5xx, 401 and 403.
func Error(c echo.Context, statusCode int, errorCode, message string, details any) error {
	if statusCode >= http.StatusInternalServerError ||
		statusCode == http.StatusUnauthorized ||
		statusCode == http.StatusForbidden {
		details = nil
	}

	return c.JSON(statusCode, ErrorResponse{
		Error: &ErrorInfo{
			Code:    errorCode,
			Message: message,
			Details: details,
		},
		Meta: meta(c),
	})
}

// AppError renders a domain error with its status, code, message and details.
func AppError(c echo.Context, appErr domainerrors.AppError) error {
	var details any
	if d := appErr.Details(); d != "" {
		details = d
	}

	return Error(c, appErr.HTTPCode(), appErr.ErrorCode(), appErr.Message(), details)
}

func meta(c echo.Context) *MetaInfo {
	return &MetaInfo{RequestID: deliverycontext.GetRequestID(c)}
}
