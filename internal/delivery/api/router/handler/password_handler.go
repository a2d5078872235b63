package handler

import (
	"net/http"

	"authgate/internal/delivery/api/response"
	"authgate/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// PasswordHandler serves the reset-link flow.
type PasswordHandler struct {
	passwordUC usecase.PasswordUsecase
}

func NewPasswordHandler(passwordUC usecase.PasswordUsecase) *PasswordHandler {
	return &PasswordHandler{passwordUC: passwordUC}
}

type RequestPasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest fields are checked by the use case so each failure
// gets its own error code.
type ResetPasswordRequest struct {
	Token           string `json:"token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type VerifyResetTokenResponse struct {
	Message string `json:"message"`
	Email   string `json:"email"`
}

// resetRequestedMessage is returned whether or not the account exists.
const resetRequestedMessage = "If an account exists for that email, a password reset link has been sent"

func (h *PasswordHandler) RequestPasswordReset(c echo.Context) error {
	var req RequestPasswordResetRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.passwordUC.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		return errors.WithStack(err)
	}

	return response.Message(c, http.StatusOK, resetRequestedMessage)
}

func (h *PasswordHandler) VerifyResetToken(c echo.Context) error {
	email, err := h.passwordUC.VerifyResetToken(c.Request().Context(), c.Param("token"))
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, VerifyResetTokenResponse{
		Message: "Reset token is valid",
		Email:   email,
	})
}

func (h *PasswordHandler) ResetPassword(c echo.Context) error {
	var req ResetPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.passwordUC.ResetPassword(c.Request().Context(), &usecase.ResetPasswordInput{
		Token:           req.Token,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	}); err != nil {
		return errors.WithStack(err)
	}

	return response.Message(c, http.StatusOK, "Password has been reset successfully")
}
