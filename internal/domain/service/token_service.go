// Package service defines domain service interfaces implemented by the
// infrastructure layer.
package service

import (
	"context"
	"time"

	"passport/internal/domain/entity"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// ErrInvalidToken is the sentinel for every authentication failure during
// token verification: malformed token, bad signature, wrong issuer, wrong
// algorithm, expired. It deliberately carries no detail — "not authenticated"
// is the whole answer. Operational failures (key fetch, store I/O) are
// returned as distinct wrapped errors instead.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the access-token payload: registered claims plus the canonical
// user identity under the custom "data" claim.
type Claims struct {
	Data entity.Identity `json:"data"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies access tokens (JWTs).
// This abstracts the signing algorithm and key management from the use cases.
type TokenService interface {
	// Sign mints an access token for the given identity: subject = user id,
	// issuer = the configured app id, expiry = now + access-token lifetime.
	Sign(ctx context.Context, identity entity.Identity) (string, error)

	// Verify validates signature, algorithm and issuer, returning the decoded
	// claims. Authentication failures return ErrInvalidToken.
	Verify(ctx context.Context, token string) (*Claims, error)

	// Decode validates signature, algorithm and issuer but tolerates an
	// expired "exp" claim. Used during refresh, where the access token has
	// usually already expired but its identity claims are still trusted.
	Decode(ctx context.Context, token string) (*Claims, error)

	// AccessTokenLifetime returns the configured access-token duration.
	AccessTokenLifetime() time.Duration
}
