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
)

// verifyService implements the VerifyUsecase interface: the central identity
// app's side of the code exchange. It issues single-use auth codes after
// sign-in and redeems them for satellite apps.
type verifyService struct {
	secretPrefix string
	codeTTL      time.Duration

	txManager repository.TransactionManager
	secrets   service.SecretSource
	logger    *slog.Logger
}

// NewVerifyService is the constructor for verifyService.
func NewVerifyService(
	txManager repository.TransactionManager,
	secrets service.SecretSource,
	cfg *config.Config,
	logger *slog.Logger,
) usecase.VerifyUsecase {
	return &verifyService{
		secretPrefix: cfg.Params.Prefix,
		codeTTL:      cfg.Auth.AuthCodeLifetime,
		txManager:    txManager,
		secrets:      secrets,
		logger:       logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *verifyService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// VerifyAuthCode authenticates a code redemption request and consumes the
// code. Missing, expired and app-mismatched codes are indistinguishable to the
// caller: all fail with ErrAuthCodeNotFound. A present code with a wrong
// signature fails with ErrInvalidCodeSignature and stays unconsumed.
func (srv *verifyService) VerifyAuthCode(ctx context.Context, input *usecase.VerifyCodeInput) (entity.Identity, error) {
	srv.log(ctx).Info("Verifying auth code", slog.String("app", input.App))

	secret, err := srv.secrets.Get(ctx, params.AppSecretName(srv.secretPrefix, input.App))
	if err != nil {
		return entity.Identity{}, errors.Wrap(err, "failed to fetch app secret")
	}

	var identity entity.Identity

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		codeRepo := repoFactory.AuthCodeRepo()

		code, err := codeRepo.FindAuthCode(ctx, input.Code)
		if err != nil {
			if errors.Is(err, repository.ErrAuthCodeNotFound) {
				return domainerrors.ErrAuthCodeNotFound.WrapMessage("auth code not found")
			}

			return errors.Wrap(err, "failed to find auth code")
		}

		now := time.Now()
		if code.Expired(now) {
			return domainerrors.ErrAuthCodeNotFound.WrapMessage("auth code expired")
		}
		if code.App != input.App {
			return domainerrors.ErrAuthCodeNotFound.WrapMessage("auth code app mismatch")
		}

		if !auth.VerifyCodeSignature(secret, input.Code, input.Signature) {
			return domainerrors.ErrInvalidCodeSignature.WrapMessage("code signature mismatch")
		}

		// Single conditional delete; losing a concurrent redemption race
		// surfaces here as not-found.
		if err := codeRepo.ConsumeAuthCode(ctx, input.Code); err != nil {
			if errors.Is(err, repository.ErrAuthCodeNotFound) {
				return domainerrors.ErrAuthCodeNotFound.WrapMessage("auth code already consumed")
			}

			return errors.Wrap(err, "failed to consume auth code")
		}

		identity = code.Identity()

		return nil
	})
	if err != nil {
		srv.log(ctx).Warn("Auth code verification failed", slog.Any("error", err), slog.String("app", input.App))

		return entity.Identity{}, err
	}

	srv.log(ctx).Info("Auth code verified", slog.String("app", input.App), slog.String("user_id", identity.UserID))

	return identity, nil
}

// IssueAuthCode creates a single-use code binding the identity to the target
// app. The raw code is returned once and never derivable from the store
// afterwards (codes are random, not hashed, but short-lived and single-use).
func (srv *verifyService) IssueAuthCode(ctx context.Context, input *usecase.IssueCodeInput) (*usecase.IssueCodeOutput, error) {
	srv.log(ctx).Info("Issuing auth code", slog.String("app", input.App), slog.String("user_id", input.Identity.UserID))

	raw, err := auth.NewOpaqueToken()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate auth code")
	}

	now := time.Now()
	expires := now.Add(srv.codeTTL)

	code := &entity.AuthCode{
		Code:      raw,
		App:       input.App,
		Name:      input.Identity.Name,
		Email:     input.Identity.Email,
		UserID:    input.Identity.UserID,
		Provider:  input.Identity.Provider,
		ExpiresAt: expires,
		TTL:       expires.Unix(),
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		return repoFactory.AuthCodeRepo().CreateAuthCode(ctx, code)
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to store auth code")
	}

	return &usecase.IssueCodeOutput{
		Code:      raw,
		ExpiresAt: expires.UnixMilli(),
	}, nil
}
