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

// authCodeRepository implements the domain.AuthCodeRepository interface.
type authCodeRepository struct {
	db *gorm.DB
}

// NewAuthCodeRepository is the constructor for authCodeRepository.
func NewAuthCodeRepository(db *gorm.DB) repository.AuthCodeRepository {
	return &authCodeRepository{db: db}
}

// CreateAuthCode persists a freshly issued code.
func (repo *authCodeRepository) CreateAuthCode(ctx context.Context, code *entity.AuthCode) error {
	codeM := fromAuthCodeDomain(code)

	if err := repo.db.WithContext(ctx).Create(codeM).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to create auth code")
	}

	return nil
}

// FindAuthCode retrieves a code record by its value.
func (repo *authCodeRepository) FindAuthCode(ctx context.Context, code string) (*entity.AuthCode, error) {
	var codeM model.AuthCodeModel

	err := repo.db.WithContext(ctx).
		Where("code = ?", code).
		First(&codeM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrAuthCodeNotFound
		}

		return nil, errors.WithStack(err)
	}

	return toAuthCodeDomain(&codeM), nil
}

// ConsumeAuthCode deletes the code record. The delete is a single conditional
// statement, so of two concurrent redemptions exactly one observes a deleted
// row; the other gets ErrAuthCodeNotFound.
func (repo *authCodeRepository) ConsumeAuthCode(ctx context.Context, code string) error {
	result := repo.db.WithContext(ctx).
		Where("code = ?", code).
		Delete(&model.AuthCodeModel{})
	if result.Error != nil {
		return errors.WithStack(result.Error)
	}

	if result.RowsAffected == 0 {
		return repository.ErrAuthCodeNotFound
	}

	return nil
}

// DeleteExpiredAuthCodes removes codes expired at the given instant.
func (repo *authCodeRepository) DeleteExpiredAuthCodes(ctx context.Context, now time.Time) (int64, error) {
	result := repo.db.WithContext(ctx).
		Where("expires_at < ?", now).
		Delete(&model.AuthCodeModel{})
	if result.Error != nil {
		return 0, errors.WithStack(result.Error)
	}

	return result.RowsAffected, nil
}

// --- Mapper Functions ---

func toAuthCodeDomain(data *model.AuthCodeModel) *entity.AuthCode {
	if data == nil {
		return nil
	}

	return &entity.AuthCode{
		Code:      data.Code,
		App:       data.App,
		Name:      data.Name,
		Email:     data.Email,
		UserID:    data.UserID,
		Provider:  data.Provider,
		ExpiresAt: data.ExpiresAt,
		TTL:       data.TTL,
	}
}

func fromAuthCodeDomain(data *entity.AuthCode) *model.AuthCodeModel {
	if data == nil {
		return nil
	}

	return &model.AuthCodeModel{
		Code:      data.Code,
		App:       data.App,
		Name:      data.Name,
		Email:     data.Email,
		UserID:    data.UserID,
		Provider:  data.Provider,
		ExpiresAt: data.ExpiresAt,
		TTL:       data.TTL,
	}
}
