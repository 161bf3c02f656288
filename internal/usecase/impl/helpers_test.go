package impl

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"passport/internal/domain/entity"
	"passport/internal/domain/repository"
	"passport/internal/domain/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeTokenRepo is an in-memory TokenRepository keyed by hash.
type fakeTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*entity.RefreshToken

	createErr error
	deleteErr error
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: make(map[string]*entity.RefreshToken)}
}

func (r *fakeTokenRepo) CreateToken(_ context.Context, token *entity.RefreshToken) error {
	if r.createErr != nil {
		return r.createErr
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *token
	r.tokens[token.Hash] = &copied

	return nil
}

func (r *fakeTokenRepo) FindTokenByHash(_ context.Context, hash string) (*entity.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, ok := r.tokens[hash]
	if !ok {
		return nil, repository.ErrTokenNotFound
	}
	copied := *token

	return &copied, nil
}

func (r *fakeTokenRepo) FindTokensByUserID(_ context.Context, userID string) ([]*entity.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []*entity.RefreshToken
	for _, token := range r.tokens {
		if token.UserID == userID {
			copied := *token
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })

	return result, nil
}

func (r *fakeTokenRepo) DeleteTokenByHash(_ context.Context, hash string) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tokens[hash]; !ok {
		return repository.ErrTokenNotFound
	}
	delete(r.tokens, hash)

	return nil
}

func (r *fakeTokenRepo) DeleteTokensByUserID(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for hash, token := range r.tokens {
		if token.UserID == userID {
			delete(r.tokens, hash)
		}
	}

	return nil
}

func (r *fakeTokenRepo) DeleteExpiredTokens(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed int64
	for hash, token := range r.tokens {
		if token.ExpiresAt.Before(now) {
			delete(r.tokens, hash)
			removed++
		}
	}

	return removed, nil
}

func (r *fakeTokenRepo) CountActiveTokensByUserID(_ context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	now := time.Now()
	for _, token := range r.tokens {
		if token.UserID == userID && token.ExpiresAt.After(now) {
			count++
		}
	}

	return count, nil
}

func (r *fakeTokenRepo) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.tokens)
}

// fakeAuthCodeRepo is an in-memory AuthCodeRepository keyed by code.
type fakeAuthCodeRepo struct {
	mu    sync.Mutex
	codes map[string]*entity.AuthCode
}

func newFakeAuthCodeRepo() *fakeAuthCodeRepo {
	return &fakeAuthCodeRepo{codes: make(map[string]*entity.AuthCode)}
}

func (r *fakeAuthCodeRepo) CreateAuthCode(_ context.Context, code *entity.AuthCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *code
	r.codes[code.Code] = &copied

	return nil
}

func (r *fakeAuthCodeRepo) FindAuthCode(_ context.Context, code string) (*entity.AuthCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.codes[code]
	if !ok {
		return nil, repository.ErrAuthCodeNotFound
	}
	copied := *record

	return &copied, nil
}

func (r *fakeAuthCodeRepo) ConsumeAuthCode(_ context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.codes[code]; !ok {
		return repository.ErrAuthCodeNotFound
	}
	delete(r.codes, code)

	return nil
}

func (r *fakeAuthCodeRepo) DeleteExpiredAuthCodes(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed int64
	for code, record := range r.codes {
		if record.ExpiresAt.Before(now) {
			delete(r.codes, code)
			removed++
		}
	}

	return removed, nil
}

// fakeRepoFactory hands out the in-memory repositories.
type fakeRepoFactory struct {
	codeRepo  *fakeAuthCodeRepo
	tokenRepo *fakeTokenRepo
}

func (f *fakeRepoFactory) AuthCodeRepo() repository.AuthCodeRepository {
	return f.codeRepo
}

func (f *fakeRepoFactory) TokenRepo() repository.TokenRepository {
	return f.tokenRepo
}

// fakeTxManager runs the unit of work directly against the fakes, without
// transactional semantics.
type fakeTxManager struct {
	factory *fakeRepoFactory
}

func newFakeTxManager() *fakeTxManager {
	return &fakeTxManager{factory: &fakeRepoFactory{
		codeRepo:  newFakeAuthCodeRepo(),
		tokenRepo: newFakeTokenRepo(),
	}}
}

func (m *fakeTxManager) Execute(_ context.Context, fn func(repository.RepositoryFactory) error) error {
	return fn(m.factory)
}

// fakeTokenService mints predictable token strings and replays a fixed
// identity on Verify/Decode.
type fakeTokenService struct {
	mu       sync.Mutex
	signed   int
	identity entity.Identity

	signErr   error
	verifyErr error
	decodeErr error
}

func (s *fakeTokenService) Sign(_ context.Context, identity entity.Identity) (string, error) {
	if s.signErr != nil {
		return "", s.signErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.signed++

	return "jwt-" + identity.UserID, nil
}

func (s *fakeTokenService) Verify(_ context.Context, _ string) (*service.Claims, error) {
	if s.verifyErr != nil {
		return nil, s.verifyErr
	}

	return &service.Claims{
		Data: s.identity,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.AccessTokenLifetime())),
		},
	}, nil
}

func (s *fakeTokenService) Decode(_ context.Context, _ string) (*service.Claims, error) {
	if s.decodeErr != nil {
		return nil, s.decodeErr
	}

	return &service.Claims{Data: s.identity}, nil
}

func (s *fakeTokenService) AccessTokenLifetime() time.Duration {
	return 15 * time.Minute
}

// fakeSecretSource serves secrets from a map.
type fakeSecretSource struct {
	values map[string]string
}

func (s *fakeSecretSource) Get(_ context.Context, name string) (string, error) {
	value, ok := s.values[name]
	if !ok {
		return "", errors.Errorf("parameter not found: %s", name)
	}

	return value, nil
}

// fakeVerifier records the verification request and replays a canned answer.
type fakeVerifier struct {
	identity entity.Identity
	err      error

	gotApp       string
	gotCode      string
	gotSignature string
}

func (v *fakeVerifier) Verify(_ context.Context, app, code, signature string) (entity.Identity, error) {
	v.gotApp = app
	v.gotCode = code
	v.gotSignature = signature

	if v.err != nil {
		return entity.Identity{}, v.err
	}

	return v.identity, nil
}
