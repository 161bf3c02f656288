package impl

import (
	"context"
	"log/slog"
	"time"

	deliverycontext "passport/internal/delivery/context"
	"passport/internal/domain/entity"
	domainerrors "passport/internal/domain/errors"
	"passport/internal/domain/repository"
	"passport/internal/usecase"

	"github.com/pkg/errors"
)

// sessionService implements the SessionUsecase interface. A session is the
// lifetime of one refresh token record; revoking a session deletes the record,
// which is also the subsystem's token revocation mechanism.
type sessionService struct {
	txManager repository.TransactionManager
	logger    *slog.Logger
}

// NewSessionService is the constructor for sessionService.
func NewSessionService(
	txManager repository.TransactionManager,
	logger *slog.Logger,
) usecase.SessionUsecase {
	return &sessionService{
		txManager: txManager,
		logger:    logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *sessionService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// GetActiveSessions retrieves all sessions for a user, newest first.
func (srv *sessionService) GetActiveSessions(ctx context.Context, userID string) ([]*entity.SessionInfo, error) {
	srv.log(ctx).Debug("Getting active sessions", slog.String("user_id", userID))

	var sessions []*entity.SessionInfo

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		tokens, err := repoFactory.TokenRepo().FindTokensByUserID(ctx, userID)
		if err != nil {
			return errors.Wrap(err, "failed to find refresh tokens")
		}

		now := time.Now()
		for _, token := range tokens {
			sessions = append(sessions, &entity.SessionInfo{
				ID:        token.Hash,
				UserID:    token.UserID,
				CreatedAt: token.CreatedAt,
				ExpiresAt: token.ExpiresAt,
				IsActive:  token.ExpiresAt.After(now),
			})
		}

		return nil
	})
	if err != nil {
		srv.log(ctx).Error("Failed to get active sessions", slog.Any("error", err), slog.String("user_id", userID))

		return nil, errors.Wrap(err, "failed to get active sessions")
	}

	return sessions, nil
}

// RevokeSession revokes a specific session after verifying ownership.
func (srv *sessionService) RevokeSession(ctx context.Context, userID, sessionID string) error {
	srv.log(ctx).Info("Revoking session", slog.String("user_id", userID))

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		tokenRepo := repoFactory.TokenRepo()

		token, err := tokenRepo.FindTokenByHash(ctx, sessionID)
		if err != nil {
			if errors.Is(err, repository.ErrTokenNotFound) {
				return domainerrors.ErrSessionNotFound.WrapMessage("session not found")
			}

			return errors.Wrap(err, "failed to find session")
		}

		if token.UserID != userID {
			return domainerrors.ErrForbidden.WrapMessage("session does not belong to user")
		}

		if err := tokenRepo.DeleteTokenByHash(ctx, sessionID); err != nil {
			return errors.Wrap(err, "failed to delete session")
		}

		return nil
	})
	if err != nil {
		srv.log(ctx).Error("Failed to revoke session", slog.Any("error", err), slog.String("user_id", userID))

		return errors.Wrap(err, "failed to revoke session")
	}
	srv.log(ctx).Info("Successfully revoked session", slog.String("user_id", userID))

	return nil
}

// RevokeAllSessions revokes every session of the user.
func (srv *sessionService) RevokeAllSessions(ctx context.Context, userID string) error {
	srv.log(ctx).Info("Revoking all sessions", slog.String("user_id", userID))

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		if err := repoFactory.TokenRepo().DeleteTokensByUserID(ctx, userID); err != nil {
			return errors.Wrap(err, "failed to delete all sessions")
		}

		return nil
	})
	if err != nil {
		srv.log(ctx).Error("Failed to revoke all sessions", slog.Any("error", err), slog.String("user_id", userID))

		return errors.Wrap(err, "failed to revoke all sessions")
	}
	srv.log(ctx).Info("Successfully revoked all sessions", slog.String("user_id", userID))

	return nil
}

// CleanupExpiredSessions removes expired refresh tokens and auth codes. It
// backs up the store's native TTL sweep and covers stores without one.
func (srv *sessionService) CleanupExpiredSessions(ctx context.Context) error {
	srv.log(ctx).Info("Cleaning up expired sessions")

	now := time.Now()

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		tokens, err := repoFactory.TokenRepo().DeleteExpiredTokens(ctx, now)
		if err != nil {
			return errors.Wrap(err, "failed to delete expired tokens")
		}

		codes, err := repoFactory.AuthCodeRepo().DeleteExpiredAuthCodes(ctx, now)
		if err != nil {
			return errors.Wrap(err, "failed to delete expired auth codes")
		}

		srv.log(ctx).Info("Expired records removed", slog.Int64("tokens", tokens), slog.Int64("auth_codes", codes))

		return nil
	})
	if err != nil {
		srv.log(ctx).Error("Failed to clean up expired sessions", slog.Any("error", err))

		return errors.Wrap(err, "failed to clean up expired sessions")
	}

	return nil
}
