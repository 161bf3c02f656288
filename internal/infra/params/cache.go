package params

import (
	"context"
	"sync"

	"passport/internal/domain/service"
)

// Source is the local alias for the SecretSource domain interface, so the
// package's constructors read naturally.
type Source = service.SecretSource

// cachedSource memoizes fetched parameters for the process lifetime.
// Parameters are treated as immutable; rotation requires a restart.
type cachedSource struct {
	inner Source

	mu     sync.RWMutex
	values map[string]string
}

// NewCachedSource wraps a source with an in-process cache. Concurrent first
// fetches of the same name may both hit the inner source; the value is
// idempotent so last-write-wins is fine.
func NewCachedSource(inner Source) Source {
	return &cachedSource{
		inner:  inner,
		values: make(map[string]string),
	}
}

func (s *cachedSource) Get(ctx context.Context, name string) (string, error) {
	s.mu.RLock()
	value, ok := s.values[name]
	s.mu.RUnlock()
	if ok {
		return value, nil
	}

	value, err := s.inner.Get(ctx, name)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.values[name] = value
	s.mu.Unlock()

	return value, nil
}
