package handler

import (
	"log/slog"
	"net/http"

	deliverycontext "passport/internal/delivery/context"
	"passport/internal/delivery/http/response"
	"passport/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// SessionHandler exposes session listing and revocation for the
// authenticated user.
type SessionHandler struct {
	uc     usecase.SessionUsecase
	logger *slog.Logger
}

// NewSessionHandler is the constructor for SessionHandler, injected by Fx.
func NewSessionHandler(uc usecase.SessionUsecase, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		uc:     uc,
		logger: logger,
	}
}

// ListSessions returns the caller's sessions, newest first.
func (h *SessionHandler) ListSessions(c echo.Context) error {
	identity, ok := deliverycontext.GetIdentity(c.Request().Context())
	if !ok {
		return response.Unauthorized(c, "ACCESS_TOKEN_INVALID", "Authentication required")
	}

	sessions, err := h.uc.GetActiveSessions(c.Request().Context(), identity.UserID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, sessions, "Sessions retrieved successfully")
}

// RevokeSession ends one of the caller's sessions.
func (h *SessionHandler) RevokeSession(c echo.Context) error {
	identity, ok := deliverycontext.GetIdentity(c.Request().Context())
	if !ok {
		return response.Unauthorized(c, "ACCESS_TOKEN_INVALID", "Authentication required")
	}

	sessionID := c.Param("id")
	if sessionID == "" {
		return response.BindingError(c, "INVALID_INPUT", "Session id is required")
	}

	if err := h.uc.RevokeSession(c.Request().Context(), identity.UserID, sessionID); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]string{"message": "Session revoked"}, "Session revoked successfully")
}

// RevokeAllSessions ends every session of the caller.
func (h *SessionHandler) RevokeAllSessions(c echo.Context) error {
	identity, ok := deliverycontext.GetIdentity(c.Request().Context())
	if !ok {
		return response.Unauthorized(c, "ACCESS_TOKEN_INVALID", "Authentication required")
	}

	if err := h.uc.RevokeAllSessions(c.Request().Context(), identity.UserID); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]string{"message": "All sessions revoked"}, "All sessions revoked successfully")
}
