package service

import "context"

// SecretSource fetches secrets and keys by logical parameter name from an
// external secret store (AWS SSM Parameter Store in deployment, environment
// variables locally). Implementations may cache; fetched values are treated
// as immutable for the process lifetime.
type SecretSource interface {
	Get(ctx context.Context, name string) (string, error)
}
