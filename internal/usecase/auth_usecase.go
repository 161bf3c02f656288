// Package usecase contains the application-specific business rules.
package usecase

import (
	"context"

	"passport/internal/domain/entity"
)

// ExchangeInput carries the single-use auth code presented by a client that
// just completed the central sign-in flow.
type ExchangeInput struct {
	Code string `json:"code" validate:"required,max=1024"`
}

// RefreshInput carries the (typically expired) access token, whose identity
// claims are still trusted after signature verification, plus the raw refresh
// token.
type RefreshInput struct {
	AccessToken  string `json:"accessToken" validate:"required"`
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// LogoutInput carries the refresh token of the session being ended.
type LogoutInput struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// TokenPairOutput is the result of a successful exchange or refresh.
type TokenPairOutput struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// AuthUsecase is the token exchange and refresh protocol, the satellite-side
// surface of the cross-app authentication subsystem.
type AuthUsecase interface {
	// Exchange converts a single-use auth code into an access/refresh token
	// pair. The code is authenticated against the central identity app and
	// consumed; calling Exchange twice with the same code fails the second
	// time with a not-found error.
	Exchange(ctx context.Context, input *ExchangeInput) (*TokenPairOutput, error)

	// Refresh validates a stored refresh token and mints a fresh access
	// token. The refresh token is rotated once most of its lifetime is
	// consumed. Authentication failures (unknown, expired or user-mismatched
	// token) return ErrRefreshTokenInvalid.
	Refresh(ctx context.Context, input *RefreshInput) (*TokenPairOutput, error)

	// Logout deletes the refresh token record, ending the session.
	Logout(ctx context.Context, input *LogoutInput) error

	// VerifyAccessToken reports whether the access token is valid and
	// unexpired right now. Stateless; no side effects.
	VerifyAccessToken(ctx context.Context, accessToken string) bool
}

// VerifyCodeInput is the central-side code redemption request.
type VerifyCodeInput struct {
	App       string `json:"app" validate:"required,max=64"`
	Code      string `json:"code" validate:"required,max=1024"`
	Signature string `json:"signature" validate:"required,max=128"`
}

// IssueCodeInput creates a single-use auth code for an app after a successful
// central sign-in.
type IssueCodeInput struct {
	App      string          `json:"app" validate:"required,max=64"`
	Identity entity.Identity `json:"identity" validate:"required"`
}

// IssueCodeOutput returns the raw code handed back to the sign-in flow.
type IssueCodeOutput struct {
	Code      string `json:"code"`
	ExpiresAt int64  `json:"expiresAt"` // epoch millis
}

// VerifyUsecase is the central identity app's side of the exchange protocol.
type VerifyUsecase interface {
	// VerifyAuthCode authenticates and consumes a single-use code: missing,
	// expired or app-mismatched codes fail with a not-found error, a bad
	// signature with a forbidden error. At most one concurrent redemption of
	// the same code can succeed.
	VerifyAuthCode(ctx context.Context, input *VerifyCodeInput) (entity.Identity, error)

	// IssueAuthCode creates a code for the given app and identity.
	IssueAuthCode(ctx context.Context, input *IssueCodeInput) (*IssueCodeOutput, error)
}

// SessionUsecase manages the refresh-token sessions of a user. It is also the
// extension point for token revocation: revoking a session deletes the
// refresh token record it is backed by.
type SessionUsecase interface {
	// GetActiveSessions lists the user's sessions, newest first.
	GetActiveSessions(ctx context.Context, userID string) ([]*entity.SessionInfo, error)

	// RevokeSession ends one session. The session must belong to the user.
	RevokeSession(ctx context.Context, userID, sessionID string) error

	// RevokeAllSessions ends every session of the user ("logout everywhere").
	RevokeAllSessions(ctx context.Context, userID string) error

	// CleanupExpiredSessions removes expired records; intended for periodic
	// invocation.
	CleanupExpiredSessions(ctx context.Context) error
}
