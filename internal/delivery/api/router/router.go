// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"authgate/config"
	"authgate/internal/delivery/api/middleware"
	"authgate/internal/delivery/api/router/handler"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	AuthHandler         *handler.AuthHandler
	PasswordHandler     *handler.PasswordHandler
	UserHandler         *handler.UserHandler
	AuthMiddleware      *middleware.AuthMiddleware
	RateLimitMiddleware *middleware.RateLimitMiddleware
	Config              *config.Config
}

// router holds all the handlers that need to be registered.
type router struct {
	authHandler     *handler.AuthHandler
	passwordHandler *handler.PasswordHandler
	userHandler     *handler.UserHandler
	authMiddleware  *middleware.AuthMiddleware
	rateLimit       *middleware.RateLimitMiddleware
	limits          config.RateLimitConfig
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	var limits config.RateLimitConfig
	if params.Config.RateLimit != nil {
		limits = *params.Config.RateLimit
	}

	return &router{
		authHandler:     params.AuthHandler,
		passwordHandler: params.PasswordHandler,
		userHandler:     params.UserHandler,
		authMiddleware:  params.AuthMiddleware,
		rateLimit:       params.RateLimitMiddleware,
		limits:          limits,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", handler.HealthCheck)

	api := e.Group("/api")

	signInLimit := r.rateLimit.Limit(r.limits.SignIn)
	resetLimit := r.rateLimit.Limit(r.limits.PasswordReset)

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/signup", r.authHandler.SignUp)
		authGroup.POST("/signin", r.authHandler.SignIn, signInLimit)
		authGroup.POST("/google", r.authHandler.OAuthSignIn, signInLimit)
		authGroup.POST("/refresh-token", r.authHandler.RefreshToken)
		authGroup.GET("/signout", r.authHandler.SignOut)

		authGroup.POST("/request-password-reset", r.passwordHandler.RequestPasswordReset, resetLimit)
		authGroup.GET("/verify-reset-token/:token", r.passwordHandler.VerifyResetToken)
		authGroup.POST("/reset-password", r.passwordHandler.ResetPassword, resetLimit)
	}

	userGroup := api.Group("/user")
	userGroup.Use(r.authMiddleware.Authenticate)
	{
		userGroup.GET("/profile", r.userHandler.GetProfile)
	}
}
