// Package handler contains the HTTP handlers for the application.
package handler

import (
	"log/slog"
	"net/http"

	"authgate/config"
	"authgate/internal/delivery/api/cookie"
	"authgate/internal/delivery/api/response"
	domainerrors "authgate/internal/domain/errors"
	"authgate/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// AuthHandlerParams holds dependencies for AuthHandler, injected by Fx.
type AuthHandlerParams struct {
	fx.In

	SessionUC usecase.SessionUsecase
	Config    *config.Config
	Logger    *slog.Logger
}

// AuthHandler serves sign-up, sign-in, refresh and sign-out.
type AuthHandler struct {
	sessionUC usecase.SessionUsecase
	secure    bool
	logger    *slog.Logger
}

// NewAuthHandler is the constructor for AuthHandler.
func NewAuthHandler(params AuthHandlerParams) *AuthHandler {
	return &AuthHandler{
		sessionUC: params.SessionUC,
		secure:    params.Config.IsProduction(),
		logger:    params.Logger,
	}
}

type SignUpRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// OAuthSignInRequest is posted by the browser after Google sign-in.
type OAuthSignInRequest struct {
	IDToken string `json:"idToken"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Photo   string `json:"photo"`
}

// RefreshResponse is returned by the refresh endpoint alongside the rotated cookies.
type RefreshResponse struct {
	Message     string `json:"message"`
	AccessToken string `json:"accessToken"`
}

// SignUp creates an account without signing it in.
func (h *AuthHandler) SignUp(c echo.Context) error {
	var req SignUpRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if _, err := h.sessionUC.SignUp(c.Request().Context(), &usecase.SignUpInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	}); err != nil {
		return errors.WithStack(err)
	}

	return response.Message(c, http.StatusCreated, "User created successfully")
}

func (h *AuthHandler) SignIn(c echo.Context) error {
	var req SignInRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	out, err := h.sessionUC.SignIn(c.Request().Context(), &usecase.SignInInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	cookie.SetSession(c, out.Credentials, h.secure)

	return response.Success(c, http.StatusOK, out.User.Public())
}

func (h *AuthHandler) OAuthSignIn(c echo.Context) error {
	var req OAuthSignInRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	out, err := h.sessionUC.OAuthSignIn(c.Request().Context(), &usecase.OAuthSignInInput{
		IDToken: req.IDToken,
		Email:   req.Email,
		Name:    req.Name,
		Photo:   req.Photo,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	cookie.SetSession(c, out.Credentials, h.secure)

	return response.Success(c, http.StatusOK, out.User.Public())
}

// RefreshToken rotates the refresh cookie. A rejected token clears both
// cookies so the browser stops replaying a dead session.
func (h *AuthHandler) RefreshToken(c echo.Context) error {
	out, err := h.sessionUC.Refresh(c.Request().Context(), cookie.RefreshToken(c))
	if err != nil {
		if domainerrors.HasCode(err, domainerrors.ErrRefreshTokenInvalid) {
			cookie.ClearSession(c, h.secure)
		}

		return errors.WithStack(err)
	}

	cookie.SetSession(c, out.Credentials, h.secure)

	return response.Success(c, http.StatusOK, RefreshResponse{
		Message:     "Token refreshed successfully",
		AccessToken: out.Credentials.Access.Value,
	})
}

// SignOut always succeeds and always clears the cookies.
func (h *AuthHandler) SignOut(c echo.Context) error {
	h.sessionUC.SignOut(c.Request().Context(), cookie.RefreshToken(c))
	cookie.ClearSession(c, h.secure)

	return response.Message(c, http.StatusOK, "Signed out successfully")
}
