// Package router contains routing setup for the HTTP delivery.
package router

import (
	"passport/config"
	"passport/internal/delivery/http/middleware"
	"passport/internal/delivery/http/router/handler"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// RouterParams holds the handlers injected by Fx. VerifyHandler is only
// provided when the service runs in the central role.
type RouterParams struct {
	fx.In

	Config         *config.Config
	AuthHandler    *handler.AuthHandler
	SessionHandler *handler.SessionHandler
	VerifyHandler  *handler.VerifyHandler `optional:"true"`
	AuthMiddleware *middleware.AuthMiddleware
}

// router holds all the handlers that need to be registered.
type router struct {
	cfg            *config.Config
	authHandler    *handler.AuthHandler
	sessionHandler *handler.SessionHandler
	verifyHandler  *handler.VerifyHandler
	authMiddleware *middleware.AuthMiddleware
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		cfg:            params.Config,
		authHandler:    params.AuthHandler,
		sessionHandler: params.SessionHandler,
		verifyHandler:  params.VerifyHandler,
		authMiddleware: params.AuthMiddleware,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	v1 := e.Group("/v1")

	// Token exchange routes, available in every role.
	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/exchange", r.authHandler.Exchange)
		authGroup.POST("/refresh", r.authHandler.Refresh)
		authGroup.POST("/logout", r.authHandler.Logout)
		authGroup.GET("/check", r.authHandler.Check)
	}

	// Central-only routes: app-to-app code redemption and code issuing.
	if r.cfg.Auth.Role == config.RoleCentral && r.verifyHandler != nil {
		authGroup.POST("/verify", r.verifyHandler.VerifyCode)
		authGroup.POST("/codes", r.verifyHandler.IssueCode, r.authMiddleware.Authenticate)
	}

	// Session management requires a valid access token.
	sessionGroup := v1.Group("/sessions")
	sessionGroup.Use(r.authMiddleware.Authenticate)
	{
		sessionGroup.GET("", r.sessionHandler.ListSessions)
		sessionGroup.DELETE("/:id", r.sessionHandler.RevokeSession)
		sessionGroup.DELETE("", r.sessionHandler.RevokeAllSessions)
	}
}
