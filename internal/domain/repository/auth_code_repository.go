// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"time"

	"passport/internal/domain/entity"

	"github.com/pkg/errors"
)

// Domain-specific errors for auth-code persistence.
var (
	// ErrAuthCodeNotFound is returned when an auth code does not exist or was
	// already consumed.
	ErrAuthCodeNotFound = errors.New("auth code not found")
)

// AuthCodeRepository manages the single-use authorization codes issued by the
// central identity app.
type AuthCodeRepository interface {
	// CreateAuthCode persists a freshly issued code.
	CreateAuthCode(ctx context.Context, code *entity.AuthCode) error

	// FindAuthCode retrieves a code record by its value. Expiry and app
	// matching are the caller's concern; the repository only reports presence.
	FindAuthCode(ctx context.Context, code string) (*entity.AuthCode, error)

	// ConsumeAuthCode deletes the code record, returning ErrAuthCodeNotFound
	// if it was already gone. The delete is conditional on existence so that
	// two concurrent redemptions of the same code cannot both succeed.
	ConsumeAuthCode(ctx context.Context, code string) error

	// DeleteExpiredAuthCodes removes codes expired at the given instant,
	// returning how many were removed. Stores with native TTL enforcement may
	// make this a no-op.
	DeleteExpiredAuthCodes(ctx context.Context, now time.Time) (int64, error)
}
