//go:generate mockery --name TokenRepository --output ./mocks --outpkg mocks --case=underscore
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go_5_auth_keep/internal/middleware"
	"go_5_auth_keep/internal/model"

	"gorm.io/gorm"
)

// TokenRepository はワンタイムトークンの永続化を担当します。
// キーは全て平文トークンではなく保存用ダイジェストです。
type TokenRepository interface {
	CreateVerificationToken(ctx context.Context, db *gorm.DB, token *model.VerificationToken) error
	FindVerificationToken(ctx context.Context, db *gorm.DB, tokenHash string) (*model.VerificationToken, error)
	// DeleteVerificationToken は削除した行数を返します。一回限りの消費の
	// 判定(0行なら別リクエストに先を越された)に使います。
	DeleteVerificationToken(ctx context.Context, db *gorm.DB, tokenHash string) (int64, error)

	CreatePasswordResetToken(ctx context.Context, db *gorm.DB, token *model.PasswordResetToken) error
	FindPasswordResetToken(ctx context.Context, db *gorm.DB, tokenHash string) (*model.PasswordResetToken, error)
	// MarkPasswordResetTokenUsed は used_at IS NULL の行だけを条件付き更新し、
	// 更新できた行数を返します。これが二重消費ガードです。
	MarkPasswordResetTokenUsed(ctx context.Context, db *gorm.DB, tokenHash string, usedAt time.Time) (int64, error)

	CreateMagicLinkToken(ctx context.Context, db *gorm.DB, token *model.MagicLinkToken) error
	FindMagicLinkToken(ctx context.Context, db *gorm.DB, tokenHash string) (*model.MagicLinkToken, error)
	DeleteMagicLinkToken(ctx context.Context, db *gorm.DB, tokenHash string) (int64, error)

	// PurgeExpired は保持期間を過ぎたトークン行を削除し、削除行数を返します
	PurgeExpired(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error)
}

type gormTokenRepository struct{}

func NewGormTokenRepository() TokenRepository {
	return &gormTokenRepository{}
}

func (r *gormTokenRepository) CreateVerificationToken(ctx context.Context, db *gorm.DB, token *model.VerificationToken) error {
	logger := middleware.GetLogger(ctx)
	if err := db.WithContext(ctx).Create(token).Error; err != nil {
		logger.Error("Failed to create verification token", "error", err)
		return fmt.Errorf("gormTokenRepository.CreateVerificationToken: %w", err)
	}
	return nil
}

func (r *gormTokenRepository) FindVerificationToken(ctx context.Context, db *gorm.DB, tokenHash string) (*model.VerificationToken, error) {
	logger := middleware.GetLogger(ctx)
	var token model.VerificationToken
	if err := db.WithContext(ctx).Where("token_hash = ?", tokenHash).First(&token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Failed to find verification token", "error", err)
		return nil, fmt.Errorf("gormTokenRepository.FindVerificationToken: %w", err)
	}
	return &token, nil
}

func (r *gormTokenRepository) DeleteVerificationToken(ctx context.Context, db *gorm.DB, tokenHash string) (int64, error) {
	logger := middleware.GetLogger(ctx)
	result := db.WithContext(ctx).Where("token_hash = ?", tokenHash).Delete(&model.VerificationToken{})
	if result.Error != nil {
		logger.Error("Failed to delete verification token", "error", result.Error)
		return 0, fmt.Errorf("gormTokenRepository.DeleteVerificationToken: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *gormTokenRepository) CreatePasswordResetToken(ctx context.Context, db *gorm.DB, token *model.PasswordResetToken) error {
	logger := middleware.GetLogger(ctx)
	if err := db.WithContext(ctx).Create(token).Error; err != nil {
		logger.Error("Failed to create password reset token", "error", err)
		return fmt.Errorf("gormTokenRepository.CreatePasswordResetToken: %w", err)
	}
	return nil
}

func (r *gormTokenRepository) FindPasswordResetToken(ctx context.Context, db *gorm.DB, tokenHash string) (*model.PasswordResetToken, error) {
	logger := middleware.GetLogger(ctx)
	var token model.PasswordResetToken
	if err := db.WithContext(ctx).Where("token_hash = ?", tokenHash).First(&token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Failed to find password reset token", "error", err)
		return nil, fmt.Errorf("gormTokenRepository.FindPasswordResetToken: %w", err)
	}
	return &token, nil
}

func (r *gormTokenRepository) MarkPasswordResetTokenUsed(ctx context.Context, db *gorm.DB, tokenHash string, usedAt time.Time) (int64, error) {
	logger := middleware.GetLogger(ctx)
	result := db.WithContext(ctx).Model(&model.PasswordResetToken{}).
		Where("token_hash = ? AND used_at IS NULL", tokenHash).
		Update("used_at", usedAt)
	if result.Error != nil {
		logger.Error("Failed to mark password reset token used", "error", result.Error)
		return 0, fmt.Errorf("gormTokenRepository.MarkPasswordResetTokenUsed: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *gormTokenRepository) CreateMagicLinkToken(ctx context.Context, db *gorm.DB, token *model.MagicLinkToken) error {
	logger := middleware.GetLogger(ctx)
	if err := db.WithContext(ctx).Create(token).Error; err != nil {
		logger.Error("Failed to create magic link token", "error", err)
		return fmt.Errorf("gormTokenRepository.CreateMagicLinkToken: %w", err)
	}
	return nil
}

func (r *gormTokenRepository) FindMagicLinkToken(ctx context.Context, db *gorm.DB, tokenHash string) (*model.MagicLinkToken, error) {
	logger := middleware.GetLogger(ctx)
	var token model.MagicLinkToken
	if err := db.WithContext(ctx).Where("token_hash = ?", tokenHash).First(&token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Failed to find magic link token", "error", err)
		return nil, fmt.Errorf("gormTokenRepository.FindMagicLinkToken: %w", err)
	}
	return &token, nil
}

func (r *gormTokenRepository) DeleteMagicLinkToken(ctx context.Context, db *gorm.DB, tokenHash string) (int64, error) {
	logger := middleware.GetLogger(ctx)
	result := db.WithContext(ctx).Where("token_hash = ?", tokenHash).Delete(&model.MagicLinkToken{})
	if result.Error != nil {
		logger.Error("Failed to delete magic link token", "error", result.Error)
		return 0, fmt.Errorf("gormTokenRepository.DeleteMagicLinkToken: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *gormTokenRepository) PurgeExpired(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	logger := middleware.GetLogger(ctx)
	var total int64

	result := db.WithContext(ctx).Where("expires_at < ?", cutoff).Delete(&model.VerificationToken{})
	if result.Error != nil {
		logger.Error("Failed to purge verification tokens", "error", result.Error)
		return total, fmt.Errorf("gormTokenRepository.PurgeExpired: %w", result.Error)
	}
	total += result.RowsAffected

	result = db.WithContext(ctx).Where("expires_at < ?", cutoff).Delete(&model.MagicLinkToken{})
	if result.Error != nil {
		logger.Error("Failed to purge magic link tokens", "error", result.Error)
		return total, fmt.Errorf("gormTokenRepository.PurgeExpired: %w", result.Error)
	}
	total += result.RowsAffected

	// 使用済みのリセットトークンも保持期間を過ぎたら消す
	result = db.WithContext(ctx).
		Where("expires_at < ? OR (used_at IS NOT NULL AND used_at < ?)", cutoff, cutoff).
		Delete(&model.PasswordResetToken{})
	if result.Error != nil {
		logger.Error("Failed to purge password reset tokens", "error", result.Error)
		return total, fmt.Errorf("gormTokenRepository.PurgeExpired: %w", result.Error)
	}
	total += result.RowsAffected

	return total, nil
}
