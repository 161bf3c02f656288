package entity

import "time"

// AuthCode is a short-lived, single-use code issued by the central identity app
// after a successful sign-in. A satellite app redeems it exactly once for an
// access/refresh token pair; redemption deletes the record.
type AuthCode struct {
	Code      string    // The opaque code value, primary key.
	App       string    // The app the code was issued for. Redemption by any other app fails.
	Name      string    // Display name of the signed-in user.
	Email     string    // Email of the signed-in user.
	UserID    string    // Canonical user id.
	Provider  string    // Sign-in provider that authenticated the user.
	ExpiresAt time.Time // Hard expiry; an expired code is indistinguishable from a missing one.
	TTL       int64     // Expiry as epoch seconds, for store-level garbage collection.
}

// Identity returns the user identity embedded in the code.
func (c *AuthCode) Identity() Identity {
	return Identity{
		UserID:   c.UserID,
		Email:    c.Email,
		Name:     c.Name,
		Provider: c.Provider,
	}
}

// Expired reports whether the code is past its expiry at the given instant.
func (c *AuthCode) Expired(now time.Time) bool {
	return c.ExpiresAt.Before(now)
}
