package impl

import (
	"context"
	"net/http"
	"testing"
	"time"

	"passport/config"
	"passport/internal/domain/entity"
	domainerrors "passport/internal/domain/errors"
	"passport/internal/infra/auth"
	"passport/internal/usecase"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVerifyService(txManager *fakeTxManager, secrets *fakeSecretSource) usecase.VerifyUsecase {
	cfg := &config.Config{
		Auth:   &config.AuthConfig{AppID: "central", Role: config.RoleCentral, AuthCodeLifetime: time.Minute},
		Params: &config.ParamsConfig{Prefix: "/p"},
	}

	return NewVerifyService(txManager, secrets, cfg, newDiscardLogger())
}

func seedAuthCode(t *testing.T, repo *fakeAuthCodeRepo, code, app, userID string, expiresAt time.Time) {
	t.Helper()

	require.NoError(t, repo.CreateAuthCode(context.Background(), &entity.AuthCode{
		Code:      code,
		App:       app,
		Name:      "User One",
		Email:     "user@example.com",
		UserID:    userID,
		Provider:  "google",
		ExpiresAt: expiresAt,
		TTL:       expiresAt.Unix(),
	}))
}

func appErrCode(t *testing.T, err error) string {
	t.Helper()

	var appErr domainerrors.AppError
	require.True(t, errors.As(err, &appErr), "expected an AppError, got %v", err)

	return appErr.ErrorCode()
}

func TestVerifyService_VerifyAuthCode_Success(t *testing.T) {
	txManager := newFakeTxManager()
	secrets := &fakeSecretSource{values: map[string]string{"/p/demo-app-secret": "s3cret"}}
	svc := newTestVerifyService(txManager, secrets)

	seedAuthCode(t, txManager.factory.codeRepo, "code-123", "demo", "user-1", time.Now().Add(time.Minute))

	identity, err := svc.VerifyAuthCode(context.Background(), &usecase.VerifyCodeInput{
		App:       "demo",
		Code:      "code-123",
		Signature: auth.SignCode("s3cret", "code-123"),
	})
	require.NoError(t, err)

	assert.Equal(t, "user-1", identity.UserID)
	assert.Equal(t, "user@example.com", identity.Email)
	assert.Equal(t, "google", identity.Provider)

	// The code is consumed: a second redemption fails with not-found.
	_, err = svc.VerifyAuthCode(context.Background(), &usecase.VerifyCodeInput{
		App:       "demo",
		Code:      "code-123",
		Signature: auth.SignCode("s3cret", "code-123"),
	})
	require.Error(t, err)
	assert.Equal(t, "AUTH_CODE_NOT_FOUND", appErrCode(t, err))
}

func TestVerifyService_VerifyAuthCode_UnknownCode(t *testing.T) {
	txManager := newFakeTxManager()
	secrets := &fakeSecretSource{values: map[string]string{"/p/demo-app-secret": "s3cret"}}
	svc := newTestVerifyService(txManager, secrets)

	_, err := svc.VerifyAuthCode(context.Background(), &usecase.VerifyCodeInput{
		App:       "demo",
		Code:      "never-issued",
		Signature: auth.SignCode("s3cret", "never-issued"),
	})
	require.Error(t, err)
	assert.Equal(t, "AUTH_CODE_NOT_FOUND", appErrCode(t, err))
}

func TestVerifyService_VerifyAuthCode_ExpiredCode(t *testing.T) {
	txManager := newFakeTxManager()
	secrets := &fakeSecretSource{values: map[string]string{"/p/demo-app-secret": "s3cret"}}
	svc := newTestVerifyService(txManager, secrets)

	seedAuthCode(t, txManager.factory.codeRepo, "code-123", "demo", "user-1", time.Now().Add(-time.Second))

	_, err := svc.VerifyAuthCode(context.Background(), &usecase.VerifyCodeInput{
		App:       "demo",
		Code:      "code-123",
		Signature: auth.SignCode("s3cret", "code-123"),
	})
	require.Error(t, err)

	// An expired code is indistinguishable from a missing one.
	assert.Equal(t, "AUTH_CODE_NOT_FOUND", appErrCode(t, err))
}

func TestVerifyService_VerifyAuthCode_AppMismatch(t *testing.T) {
	txManager := newFakeTxManager()
	secrets := &fakeSecretSource{values: map[string]string{"/p/other-app-secret": "other"}}
	svc := newTestVerifyService(txManager, secrets)

	seedAuthCode(t, txManager.factory.codeRepo, "code-123", "demo", "user-1", time.Now().Add(time.Minute))

	_, err := svc.VerifyAuthCode(context.Background(), &usecase.VerifyCodeInput{
		App:       "other",
		Code:      "code-123",
		Signature: auth.SignCode("other", "code-123"),
	})
	require.Error(t, err)
	assert.Equal(t, "AUTH_CODE_NOT_FOUND", appErrCode(t, err))
}

func TestVerifyService_VerifyAuthCode_BadSignature(t *testing.T) {
	txManager := newFakeTxManager()
	secrets := &fakeSecretSource{values: map[string]string{"/p/demo-app-secret": "s3cret"}}
	svc := newTestVerifyService(txManager, secrets)

	seedAuthCode(t, txManager.factory.codeRepo, "code-123", "demo", "user-1", time.Now().Add(time.Minute))

	_, err := svc.VerifyAuthCode(context.Background(), &usecase.VerifyCodeInput{
		App:       "demo",
		Code:      "code-123",
		Signature: auth.SignCode("wrong-secret", "code-123"),
	})
	require.Error(t, err)
	assert.Equal(t, "INVALID_CODE_SIGNATURE", appErrCode(t, err))

	var appErr domainerrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusForbidden, appErr.HTTPCode())

	// A failed signature check must not consume the code.
	_, err = txManager.factory.codeRepo.FindAuthCode(context.Background(), "code-123")
	assert.NoError(t, err)
}

func TestVerifyService_IssueAuthCode(t *testing.T) {
	txManager := newFakeTxManager()
	secrets := &fakeSecretSource{values: map[string]string{"/p/demo-app-secret": "s3cret"}}
	svc := newTestVerifyService(txManager, secrets)

	identity := entity.Identity{UserID: "user-1", Email: "user@example.com", Name: "User One", Provider: "google"}

	output, err := svc.IssueAuthCode(context.Background(), &usecase.IssueCodeInput{
		App:      "demo",
		Identity: identity,
	})
	require.NoError(t, err)
	require.NotEmpty(t, output.Code)
	assert.Greater(t, output.ExpiresAt, time.Now().UnixMilli())

	record, err := txManager.factory.codeRepo.FindAuthCode(context.Background(), output.Code)
	require.NoError(t, err)
	assert.Equal(t, "demo", record.App)
	assert.Equal(t, identity, record.Identity())
	assert.WithinDuration(t, time.Now().Add(time.Minute), record.ExpiresAt, 5*time.Second)

	// The issued code round-trips through verification.
	got, err := svc.VerifyAuthCode(context.Background(), &usecase.VerifyCodeInput{
		App:       "demo",
		Code:      output.Code,
		Signature: auth.SignCode("s3cret", output.Code),
	})
	require.NoError(t, err)
	assert.Equal(t, identity, got)
}
