package repository

import (
	"context"
	"time"

	"passport/internal/domain/entity"

	"github.com/pkg/errors"
)

// Domain-specific errors for refresh-token persistence.
var (
	// ErrTokenNotFound is returned when a refresh token record is not found.
	ErrTokenNotFound = errors.New("refresh token not found")
)

// TokenRepository manages persisted refresh-token records, keyed by the
// SHA-256 hash of the raw token. The raw token value is never stored.
type TokenRepository interface {
	// CreateToken persists a new refresh token record, representing a session.
	CreateToken(ctx context.Context, token *entity.RefreshToken) error

	// FindTokenByHash retrieves a token record by its hash.
	FindTokenByHash(ctx context.Context, hash string) (*entity.RefreshToken, error)

	// FindTokensByUserID retrieves all token records for a user, newest first.
	// This backs session listing and is the lookup path a future revocation
	// mechanism would use.
	FindTokensByUserID(ctx context.Context, userID string) ([]*entity.RefreshToken, error)

	// DeleteTokenByHash removes a token record, ending the session. Returns
	// ErrTokenNotFound if no record matched.
	DeleteTokenByHash(ctx context.Context, hash string) error

	// DeleteTokensByUserID removes all token records for a user
	// ("logout from all devices").
	DeleteTokensByUserID(ctx context.Context, userID string) error

	// DeleteExpiredTokens removes token records expired at the given instant,
	// returning how many were removed.
	DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error)

	// CountActiveTokensByUserID returns the number of non-expired sessions.
	CountActiveTokensByUserID(ctx context.Context, userID string) (int, error)
}
