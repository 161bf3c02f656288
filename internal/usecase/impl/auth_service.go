// Package impl contains the application-specific business rules implementations.
package impl

import (
	"context"
	"log/slog"
	"time"

	"passport/config"
	deliverycontext "passport/internal/delivery/context"
	"passport/internal/domain/entity"
	domainerrors "passport/internal/domain/errors"
	"passport/internal/domain/repository"
	"passport/internal/domain/service"
	"passport/internal/infra/auth"
	"passport/internal/infra/params"
	"passport/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
	"golang.org/x/sync/errgroup"
)

// authService implements the AuthUsecase interface: the satellite side of the
// exchange/refresh protocol.
type authService struct {
	appID             string
	secretPrefix      string
	refreshTTL        time.Duration
	rotationThreshold float64

	tokenRepo repository.TokenRepository
	tokenSvc  service.TokenService
	secrets   service.SecretSource
	verifier  service.CodeVerifier
	logger    *slog.Logger
}

// AuthServiceParams holds dependencies for authService, injected by Fx.
type AuthServiceParams struct {
	fx.In

	TokenRepo repository.TokenRepository
	TokenSvc  service.TokenService
	Secrets   service.SecretSource
	Verifier  service.CodeVerifier
	Config    *config.Config
	Logger    *slog.Logger
}

// NewAuthService is the constructor for authService.
func NewAuthService(p AuthServiceParams) usecase.AuthUsecase {
	return &authService{
		appID:             p.Config.Auth.AppID,
		secretPrefix:      p.Config.Params.Prefix,
		refreshTTL:        p.Config.Auth.RefreshTokenLifetime,
		rotationThreshold: p.Config.Auth.RotationThreshold,
		tokenRepo:         p.TokenRepo,
		tokenSvc:          p.TokenSvc,
		secrets:           p.Secrets,
		verifier:          p.Verifier,
		logger:            p.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *authService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Exchange converts a single-use auth code into an access/refresh token pair.
func (srv *authService) Exchange(ctx context.Context, input *usecase.ExchangeInput) (*usecase.TokenPairOutput, error) {
	srv.log(ctx).Info("Exchanging auth code", slog.String("app", srv.appID))

	secret, err := srv.secrets.Get(ctx, params.AppSecretName(srv.secretPrefix, srv.appID))
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch app secret")
	}

	signature := auth.SignCode(secret, input.Code)

	identity, err := srv.verifier.Verify(ctx, srv.appID, input.Code, signature)
	if err != nil {
		srv.log(ctx).Warn("Auth code verification failed", slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to verify auth code")
	}

	accessToken, err := srv.tokenSvc.Sign(ctx, identity)
	if err != nil {
		return nil, errors.Wrap(err, "failed to mint access token")
	}

	refreshToken, err := srv.createRefreshToken(ctx, identity.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create refresh token")
	}

	srv.log(ctx).Info("Auth code exchanged", slog.String("user_id", identity.UserID))

	return &usecase.TokenPairOutput{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Refresh validates a refresh token, rotates it when most of its lifetime is
// consumed, and always mints a fresh access token. Authentication failures
// return ErrRefreshTokenInvalid; only infrastructure problems surface as
// other errors.
func (srv *authService) Refresh(ctx context.Context, input *usecase.RefreshInput) (*usecase.TokenPairOutput, error) {
	srv.log(ctx).Debug("Refreshing access token")

	claims, err := srv.tokenSvc.Decode(ctx, input.AccessToken)
	if err != nil {
		return nil, domainerrors.ErrAccessTokenInvalid.WrapMessage("access token signature rejected")
	}

	hash := auth.HashToken(input.RefreshToken)

	record, err := srv.tokenRepo.FindTokenByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return nil, domainerrors.ErrRefreshTokenInvalid.WrapMessage("refresh token not found")
		}

		return nil, errors.Wrap(err, "failed to look up refresh token")
	}

	now := time.Now()
	if record.Expired(now) {
		return nil, domainerrors.ErrRefreshTokenInvalid.WrapMessage("refresh token expired")
	}
	// A refresh token can only be redeemed together with an access token of
	// the same user; this blocks cross-user token substitution.
	if record.UserID != claims.Data.UserID {
		return nil, domainerrors.ErrRefreshTokenInvalid.WrapMessage("refresh token user mismatch")
	}

	refreshToken := input.RefreshToken
	if record.RemainingFraction(now, srv.refreshTTL) < srv.rotationThreshold {
		refreshToken, err = srv.rotateRefreshToken(ctx, record.UserID, hash)
		if err != nil {
			return nil, errors.Wrap(err, "failed to rotate refresh token")
		}
		srv.log(ctx).Info("Refresh token rotated", slog.String("user_id", record.UserID))
	}

	accessToken, err := srv.tokenSvc.Sign(ctx, claims.Data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to mint access token")
	}

	return &usecase.TokenPairOutput{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Logout deletes the refresh token record, ending the session.
func (srv *authService) Logout(ctx context.Context, input *usecase.LogoutInput) error {
	srv.log(ctx).Info("Logging out")

	hash := auth.HashToken(input.RefreshToken)

	if err := srv.tokenRepo.DeleteTokenByHash(ctx, hash); err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return domainerrors.ErrRefreshTokenInvalid.WrapMessage("refresh token not found")
		}

		return errors.Wrap(err, "failed to delete refresh token")
	}

	return nil
}

// VerifyAccessToken reports whether the token is valid and unexpired now.
// The expiry is re-checked against the wall clock on top of the library's
// claims validation.
func (srv *authService) VerifyAccessToken(ctx context.Context, accessToken string) bool {
	claims, err := srv.tokenSvc.Verify(ctx, accessToken)
	if err != nil {
		return false
	}

	if claims.ExpiresAt == nil || claims.ExpiresAt.Before(time.Now()) {
		return false
	}

	return true
}

// createRefreshToken generates an opaque token, persists its hash and returns
// the raw value. The raw token is never stored.
func (srv *authService) createRefreshToken(ctx context.Context, userID string) (string, error) {
	raw, err := auth.NewOpaqueToken()
	if err != nil {
		return "", err
	}

	now := time.Now()
	expires := now.Add(srv.refreshTTL)

	record := &entity.RefreshToken{
		Hash:      auth.HashToken(raw),
		Type:      entity.TokenTypeRefresh,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: expires,
		TTL:       expires.Unix(),
	}

	if err := srv.tokenRepo.CreateToken(ctx, record); err != nil {
		return "", err
	}

	return raw, nil
}

// rotateRefreshToken creates a replacement token and deletes the old record.
// The two writes run concurrently; both must succeed or the whole refresh
// fails. Concurrent rotations of the same token race benignly: either winner's
// orphaned record is swept by store TTL.
func (srv *authService) rotateRefreshToken(ctx context.Context, userID, oldHash string) (string, error) {
	var newToken string

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		token, err := srv.createRefreshToken(groupCtx, userID)
		if err != nil {
			return err
		}
		newToken = token

		return nil
	})
	group.Go(func() error {
		if err := srv.tokenRepo.DeleteTokenByHash(groupCtx, oldHash); err != nil && !errors.Is(err, repository.ErrTokenNotFound) {
			return err
		}

		return nil
	})

	if err := group.Wait(); err != nil {
		return "", err
	}

	return newToken, nil
}
