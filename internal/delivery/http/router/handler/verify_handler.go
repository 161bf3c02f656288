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

// VerifyHandler exposes the central identity app's code endpoints.
type VerifyHandler struct {
	uc     usecase.VerifyUsecase
	logger *slog.Logger
}

// NewVerifyHandler is the constructor for VerifyHandler, injected by Fx.
func NewVerifyHandler(uc usecase.VerifyUsecase, logger *slog.Logger) *VerifyHandler {
	return &VerifyHandler{
		uc:     uc,
		logger: logger,
	}
}

// VerifyCode handles app-to-app code redemption. On success the identity is
// returned as a bare JSON object, the wire shape satellite clients decode.
func (h *VerifyHandler) VerifyCode(c echo.Context) error {
	var input *usecase.VerifyCodeInput
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid verify input")
	}
	if err := c.Validate(input); err != nil {
		return errors.WithStack(err)
	}

	identity, err := h.uc.VerifyAuthCode(c.Request().Context(), input)
	if err != nil {
		return errors.WithStack(err)
	}

	return c.JSON(http.StatusOK, identity)
}

// issueCodeRequest is the body of the code issue endpoint. The identity is
// taken from the authenticated caller, never from the body.
type issueCodeRequest struct {
	App string `json:"app" validate:"required,max=64"`
}

// IssueCode creates a single-use auth code for the calling user and the
// target app. Requires a valid access token.
func (h *VerifyHandler) IssueCode(c echo.Context) error {
	var req *issueCodeRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid issue input")
	}
	if err := c.Validate(req); err != nil {
		return errors.WithStack(err)
	}

	identity, ok := deliverycontext.GetIdentity(c.Request().Context())
	if !ok {
		return response.Unauthorized(c, "ACCESS_TOKEN_INVALID", "Authentication required")
	}

	output, err := h.uc.IssueAuthCode(c.Request().Context(), &usecase.IssueCodeInput{
		App:      req.App,
		Identity: identity,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, output, "Auth code issued successfully")
}
