package postgres

import (
	"context"
	"time"

	"passport/internal/domain/entity"
	domainerrors "passport/internal/domain/errors"
	"passport/internal/domain/repository"
	"passport/internal/infra/persistence/model"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// tokenRepository implements the domain.TokenRepository interface.
type tokenRepository struct {
	db *gorm.DB
}

// NewTokenRepository is the constructor for tokenRepository.
func NewTokenRepository(db *gorm.DB) repository.TokenRepository {
	return &tokenRepository{db: db}
}

// CreateToken persists a new refresh token record.
func (repo *tokenRepository) CreateToken(ctx context.Context, token *entity.RefreshToken) error {
	tokenM := fromTokenDomain(token)

	if err := repo.db.WithContext(ctx).Create(tokenM).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to create refresh token")
	}

	return nil
}

// FindTokenByHash retrieves a token record by its hash. Expiry is the
// caller's concern; the record is returned as stored.
func (repo *tokenRepository) FindTokenByHash(ctx context.Context, hash string) (*entity.RefreshToken, error) {
	var tokenM model.TokenModel

	err := repo.db.WithContext(ctx).
		Where("hash = ?", hash).
		First(&tokenM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrTokenNotFound
		}

		return nil, errors.WithStack(err)
	}

	return toTokenDomain(&tokenM), nil
}

// FindTokensByUserID retrieves all token records for a user, newest first.
func (repo *tokenRepository) FindTokensByUserID(ctx context.Context, userID string) ([]*entity.RefreshToken, error) {
	var tokenModels []*model.TokenModel

	err := repo.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&tokenModels).Error
	if err != nil {
		return nil, errors.WithStack(err)
	}

	tokens := make([]*entity.RefreshToken, 0, len(tokenModels))
	for _, tokenM := range tokenModels {
		tokens = append(tokens, toTokenDomain(tokenM))
	}

	return tokens, nil
}

// DeleteTokenByHash removes a token record, ending the session.
func (repo *tokenRepository) DeleteTokenByHash(ctx context.Context, hash string) error {
	result := repo.db.WithContext(ctx).
		Where("hash = ?", hash).
		Delete(&model.TokenModel{})
	if result.Error != nil {
		return errors.WithStack(result.Error)
	}

	if result.RowsAffected == 0 {
		return repository.ErrTokenNotFound
	}

	return nil
}

// DeleteTokensByUserID removes all token records for a user.
func (repo *tokenRepository) DeleteTokensByUserID(ctx context.Context, userID string) error {
	if err := repo.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.TokenModel{}).Error; err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// DeleteExpiredTokens removes token records expired at the given instant.
func (repo *tokenRepository) DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	result := repo.db.WithContext(ctx).
		Where("expires_at < ?", now).
		Delete(&model.TokenModel{})
	if result.Error != nil {
		return 0, errors.WithStack(result.Error)
	}

	return result.RowsAffected, nil
}

// CountActiveTokensByUserID returns the number of non-expired sessions.
func (repo *tokenRepository) CountActiveTokensByUserID(ctx context.Context, userID string) (int, error) {
	var count int64

	err := repo.db.WithContext(ctx).
		Model(&model.TokenModel{}).
		Where("user_id = ? AND expires_at > ?", userID, time.Now()).
		Count(&count).Error
	if err != nil {
		return 0, errors.WithStack(err)
	}

	return int(count), nil
}

// --- Mapper Functions ---

func toTokenDomain(data *model.TokenModel) *entity.RefreshToken {
	if data == nil {
		return nil
	}

	return &entity.RefreshToken{
		Hash:      data.Hash,
		Type:      data.Type,
		UserID:    data.UserID,
		CreatedAt: data.CreatedAt,
		ExpiresAt: data.ExpiresAt,
		TTL:       data.TTL,
	}
}

func fromTokenDomain(data *entity.RefreshToken) *model.TokenModel {
	if data == nil {
		return nil
	}

	return &model.TokenModel{
		Hash:      data.Hash,
		Type:      data.Type,
		UserID:    data.UserID,
		CreatedAt: data.CreatedAt,
		ExpiresAt: data.ExpiresAt,
		TTL:       data.TTL,
	}
}
