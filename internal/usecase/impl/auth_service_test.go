package impl

import (
	"context"
	"net/http"
	"testing"
	"time"

	"passport/config"
	"passport/internal/domain/entity"
	domainerrors "passport/internal/domain/errors"
	"passport/internal/domain/service"
	"passport/internal/infra/auth"
	"passport/internal/usecase"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuthService(
	tokenRepo *fakeTokenRepo,
	tokenSvc *fakeTokenService,
	secrets *fakeSecretSource,
	verifier *fakeVerifier,
) usecase.AuthUsecase {
	cfg := &config.Config{
		Auth: &config.AuthConfig{
			AppID:                "demo",
			RefreshTokenLifetime: time.Hour,
			RotationThreshold:    0.2,
		},
		Params: &config.ParamsConfig{Prefix: "/p"},
	}

	return NewAuthService(AuthServiceParams{
		TokenRepo: tokenRepo,
		TokenSvc:  tokenSvc,
		Secrets:   secrets,
		Verifier:  verifier,
		Config:    cfg,
		Logger:    newDiscardLogger(),
	})
}

func seedRefreshToken(t *testing.T, repo *fakeTokenRepo, raw, userID string, createdAt, expiresAt time.Time) {
	t.Helper()

	require.NoError(t, repo.CreateToken(context.Background(), &entity.RefreshToken{
		Hash:      auth.HashToken(raw),
		Type:      entity.TokenTypeRefresh,
		UserID:    userID,
		CreatedAt: createdAt,
		ExpiresAt: expiresAt,
		TTL:       expiresAt.Unix(),
	}))
}

func TestAuthService_Exchange_Success(t *testing.T) {
	tokenRepo := newFakeTokenRepo()
	identity := entity.Identity{UserID: "user-1", Email: "user@example.com", Provider: "google"}
	verifier := &fakeVerifier{identity: identity}
	secrets := &fakeSecretSource{values: map[string]string{"/p/demo-app-secret": "s3cret"}}
	svc := newTestAuthService(tokenRepo, &fakeTokenService{}, secrets, verifier)

	output, err := svc.Exchange(context.Background(), &usecase.ExchangeInput{Code: "code-123"})
	require.NoError(t, err)

	assert.Equal(t, "jwt-user-1", output.AccessToken)
	require.NotEmpty(t, output.RefreshToken)

	// The verifier was called with the signature derived from the shared secret.
	assert.Equal(t, "demo", verifier.gotApp)
	assert.Equal(t, "code-123", verifier.gotCode)
	assert.Equal(t, auth.SignCode("s3cret", "code-123"), verifier.gotSignature)

	// Only the hash of the refresh token is persisted.
	record, err := tokenRepo.FindTokenByHash(context.Background(), auth.HashToken(output.RefreshToken))
	require.NoError(t, err)
	assert.Equal(t, "user-1", record.UserID)
	assert.Equal(t, entity.TokenTypeRefresh, record.Type)
	assert.NotEqual(t, output.RefreshToken, record.Hash)
	assert.WithinDuration(t, time.Now().Add(time.Hour), record.ExpiresAt, 5*time.Second)
	assert.Equal(t, 1, tokenRepo.len())
}

func TestAuthService_Exchange_VerificationFailure(t *testing.T) {
	tokenRepo := newFakeTokenRepo()
	verifier := &fakeVerifier{err: domainerrors.ErrAuthCodeNotFound.WrapMessage("auth code not found")}
	secrets := &fakeSecretSource{values: map[string]string{"/p/demo-app-secret": "s3cret"}}
	svc := newTestAuthService(tokenRepo, &fakeTokenService{}, secrets, verifier)

	_, err := svc.Exchange(context.Background(), &usecase.ExchangeInput{Code: "gone"})
	require.Error(t, err)

	var appErr domainerrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusNotFound, appErr.HTTPCode())

	// No session is created for a failed exchange.
	assert.Equal(t, 0, tokenRepo.len())
}

func TestAuthService_Exchange_MissingSecret(t *testing.T) {
	svc := newTestAuthService(newFakeTokenRepo(), &fakeTokenService{}, &fakeSecretSource{values: map[string]string{}}, &fakeVerifier{})

	_, err := svc.Exchange(context.Background(), &usecase.ExchangeInput{Code: "code-123"})
	assert.Error(t, err)
}

func TestAuthService_Refresh_YoungTokenNotRotated(t *testing.T) {
	tokenRepo := newFakeTokenRepo()
	identity := entity.Identity{UserID: "user-1"}
	tokenSvc := &fakeTokenService{identity: identity}
	svc := newTestAuthService(tokenRepo, tokenSvc, &fakeSecretSource{}, &fakeVerifier{})

	raw := "raw-refresh-token"
	now := time.Now()
	seedRefreshToken(t, tokenRepo, raw, "user-1", now.Add(-10*time.Minute), now.Add(50*time.Minute))

	output, err := svc.Refresh(context.Background(), &usecase.RefreshInput{
		AccessToken:  "expired-jwt",
		RefreshToken: raw,
	})
	require.NoError(t, err)

	assert.Equal(t, "jwt-user-1", output.AccessToken)
	assert.Equal(t, raw, output.RefreshToken)

	_, err = tokenRepo.FindTokenByHash(context.Background(), auth.HashToken(raw))
	require.NoError(t, err)
	assert.Equal(t, 1, tokenRepo.len())
}

func TestAuthService_Refresh_OldTokenRotated(t *testing.T) {
	tokenRepo := newFakeTokenRepo()
	identity := entity.Identity{UserID: "user-1"}
	tokenSvc := &fakeTokenService{identity: identity}
	svc := newTestAuthService(tokenRepo, tokenSvc, &fakeSecretSource{}, &fakeVerifier{})

	raw := "raw-refresh-token"
	now := time.Now()
	// 55 of 60 minutes consumed: remaining fraction is below the 0.2 threshold.
	seedRefreshToken(t, tokenRepo, raw, "user-1", now.Add(-55*time.Minute), now.Add(5*time.Minute))

	output, err := svc.Refresh(context.Background(), &usecase.RefreshInput{
		AccessToken:  "expired-jwt",
		RefreshToken: raw,
	})
	require.NoError(t, err)

	assert.NotEqual(t, raw, output.RefreshToken)
	require.NotEmpty(t, output.RefreshToken)

	// The old record is gone, the replacement is stored under the new hash.
	_, err = tokenRepo.FindTokenByHash(context.Background(), auth.HashToken(raw))
	assert.Error(t, err)

	record, err := tokenRepo.FindTokenByHash(context.Background(), auth.HashToken(output.RefreshToken))
	require.NoError(t, err)
	assert.Equal(t, "user-1", record.UserID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), record.ExpiresAt, 5*time.Second)
	assert.Equal(t, 1, tokenRepo.len())
}

func TestAuthService_Refresh_UnknownToken(t *testing.T) {
	tokenSvc := &fakeTokenService{identity: entity.Identity{UserID: "user-1"}}
	svc := newTestAuthService(newFakeTokenRepo(), tokenSvc, &fakeSecretSource{}, &fakeVerifier{})

	_, err := svc.Refresh(context.Background(), &usecase.RefreshInput{
		AccessToken:  "expired-jwt",
		RefreshToken: "never-issued",
	})
	require.Error(t, err)

	var appErr domainerrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusUnauthorized, appErr.HTTPCode())
	assert.Equal(t, "REFRESH_TOKEN_INVALID", appErr.ErrorCode())
}

func TestAuthService_Refresh_ExpiredToken(t *testing.T) {
	tokenRepo := newFakeTokenRepo()
	tokenSvc := &fakeTokenService{identity: entity.Identity{UserID: "user-1"}}
	svc := newTestAuthService(tokenRepo, tokenSvc, &fakeSecretSource{}, &fakeVerifier{})

	raw := "raw-refresh-token"
	now := time.Now()
	seedRefreshToken(t, tokenRepo, raw, "user-1", now.Add(-2*time.Hour), now.Add(-time.Minute))

	_, err := svc.Refresh(context.Background(), &usecase.RefreshInput{
		AccessToken:  "expired-jwt",
		RefreshToken: raw,
	})
	require.Error(t, err)

	var appErr domainerrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "REFRESH_TOKEN_INVALID", appErr.ErrorCode())
}

func TestAuthService_Refresh_UserMismatch(t *testing.T) {
	tokenRepo := newFakeTokenRepo()
	// The access token belongs to user-1, the refresh token to user-2.
	tokenSvc := &fakeTokenService{identity: entity.Identity{UserID: "user-1"}}
	svc := newTestAuthService(tokenRepo, tokenSvc, &fakeSecretSource{}, &fakeVerifier{})

	raw := "raw-refresh-token"
	now := time.Now()
	seedRefreshToken(t, tokenRepo, raw, "user-2", now.Add(-10*time.Minute), now.Add(50*time.Minute))

	_, err := svc.Refresh(context.Background(), &usecase.RefreshInput{
		AccessToken:  "expired-jwt",
		RefreshToken: raw,
	})
	require.Error(t, err)

	var appErr domainerrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "REFRESH_TOKEN_INVALID", appErr.ErrorCode())

	// The mismatched token is left untouched.
	_, err = tokenRepo.FindTokenByHash(context.Background(), auth.HashToken(raw))
	assert.NoError(t, err)
}

func TestAuthService_Refresh_BadAccessToken(t *testing.T) {
	tokenSvc := &fakeTokenService{decodeErr: service.ErrInvalidToken}
	svc := newTestAuthService(newFakeTokenRepo(), tokenSvc, &fakeSecretSource{}, &fakeVerifier{})

	_, err := svc.Refresh(context.Background(), &usecase.RefreshInput{
		AccessToken:  "garbage",
		RefreshToken: "raw-refresh-token",
	})
	require.Error(t, err)

	var appErr domainerrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "ACCESS_TOKEN_INVALID", appErr.ErrorCode())
}

func TestAuthService_Logout(t *testing.T) {
	tokenRepo := newFakeTokenRepo()
	svc := newTestAuthService(tokenRepo, &fakeTokenService{}, &fakeSecretSource{}, &fakeVerifier{})

	raw := "raw-refresh-token"
	now := time.Now()
	seedRefreshToken(t, tokenRepo, raw, "user-1", now, now.Add(time.Hour))

	require.NoError(t, svc.Logout(context.Background(), &usecase.LogoutInput{RefreshToken: raw}))
	assert.Equal(t, 0, tokenRepo.len())

	// A second logout finds nothing to delete.
	err := svc.Logout(context.Background(), &usecase.LogoutInput{RefreshToken: raw})
	require.Error(t, err)

	var appErr domainerrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "REFRESH_TOKEN_INVALID", appErr.ErrorCode())
}

func TestAuthService_VerifyAccessToken(t *testing.T) {
	valid := newTestAuthService(newFakeTokenRepo(), &fakeTokenService{identity: entity.Identity{UserID: "user-1"}}, &fakeSecretSource{}, &fakeVerifier{})
	assert.True(t, valid.VerifyAccessToken(context.Background(), "some-jwt"))

	invalid := newTestAuthService(newFakeTokenRepo(), &fakeTokenService{verifyErr: service.ErrInvalidToken}, &fakeSecretSource{}, &fakeVerifier{})
	assert.False(t, invalid.VerifyAccessToken(context.Background(), "some-jwt"))
}
