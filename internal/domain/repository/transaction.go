package repository

import "context"

// RepositoryFactory creates repository instances bound to a single transaction.
type RepositoryFactory interface {
	AuthCodeRepo() AuthCodeRepository
	TokenRepo() TokenRepository
}

// TransactionManager executes a function within a database transaction.
// The function receives a RepositoryFactory whose repositories share the
// transaction; returning an error rolls everything back.
type TransactionManager interface {
	Execute(ctx context.Context, fn func(factory RepositoryFactory) error) error
}
