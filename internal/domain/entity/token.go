package entity

import "time"

// TokenTypeRefresh is the only token type currently persisted. The column
// exists so future token kinds (e.g. revocation markers) can share the store.
const TokenTypeRefresh = "refresh"

// RefreshToken is the persisted state of a long-lived session credential.
// Only the SHA-256 hash of the raw token is stored; possession of the raw
// value is required to redeem it.
type RefreshToken struct {
	Hash      string    // Hex SHA-256 of the raw token, primary key.
	Type      string    // Token kind, always "refresh" for now.
	UserID    string    // Owner of the session.
	CreatedAt time.Time // When the session was created.
	ExpiresAt time.Time // Hard expiry of the refresh token.
	TTL       int64     // Expiry as epoch seconds, for store-level garbage collection.
}

// Expired reports whether the token is past its expiry at the given instant.
func (t *RefreshToken) Expired(now time.Time) bool {
	return t.ExpiresAt.Before(now)
}

// RemainingFraction returns the unconsumed share of the token's total
// lifetime at the given instant. Used by the rotation policy.
func (t *RefreshToken) RemainingFraction(now time.Time, lifetime time.Duration) float64 {
	if lifetime <= 0 {
		return 0
	}

	return t.ExpiresAt.Sub(now).Seconds() / lifetime.Seconds()
}

// SessionInfo is a user-facing view of a refresh token record, used by the
// session management endpoints. ID is the stored token hash — irreversible,
// and unusable for redemption without the raw token.
type SessionInfo struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
	IsActive  bool      `json:"isActive"`
}
