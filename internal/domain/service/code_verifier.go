package service

import (
	"context"

	"passport/internal/domain/entity"
)

// CodeVerifier authenticates a single-use auth code against the central
// identity app and returns the identity embedded in it. The code is consumed
// by a successful call and cannot be verified again.
//
// Two implementations exist: an HTTP client for satellite apps talking to a
// separate central deployment, and a local one for the central app itself.
type CodeVerifier interface {
	Verify(ctx context.Context, app, code, signature string) (entity.Identity, error)
}
