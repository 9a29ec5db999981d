//go:generate mockery --name UserRepository --output ./mocks --outpkg mocks --case=underscore
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go_5_auth_keep/internal/middleware"
	"go_5_auth_keep/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, db *gorm.DB, user *model.User) error
	FindByID(ctx context.Context, db *gorm.DB, userID uuid.UUID) (*model.User, error)
	FindByEmail(ctx context.Context, db *gorm.DB, email string) (*model.User, error)
	MarkEmailVerified(ctx context.Context, db *gorm.DB, email string, verifiedAt time.Time) error
	UpdatePasswordHash(ctx context.Context, db *gorm.DB, userID uuid.UUID, passwordHash string) error
	UpdateProfile(ctx context.Context, db *gorm.DB, userID uuid.UUID, updates map[string]interface{}) error
	CountByRole(ctx context.Context, db *gorm.DB, role model.Role) (int64, error)
}

type gormUserRepository struct{}

func NewGormUserRepository() UserRepository {
	return &gormUserRepository{}
}

func (r *gormUserRepository) Create(ctx context.Context, db *gorm.DB, user *model.User) error {
	logger := middleware.GetLogger(ctx)

	result := db.WithContext(ctx).Create(user)
	if result.Error != nil {
		// email の一意制約違反はレースコンディションでも起き得るのでここで拾う
		var pgErr *pgconn.PgError
		if errors.As(result.Error, &pgErr) && pgErr.Code == "23505" {
			logger.Warn("Duplicate key error on create user", "error", result.Error, "email", user.Email)
			return model.ErrConflict
		}

		logger.Error("Error creating user in DB", "error", result.Error, "email", user.Email)
		return fmt.Errorf("gormUserRepository.Create: %w", result.Error)
	}

	return nil
}

func (r *gormUserRepository) FindByID(ctx context.Context, db *gorm.DB, userID uuid.UUID) (*model.User, error) {
	logger := middleware.GetLogger(ctx)
	var user model.User

	result := db.WithContext(ctx).Where("user_id = ?", userID).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding user by ID in DB", "error", result.Error, "user_id", userID.String())
		return nil, fmt.Errorf("gormUserRepository.FindByID: %w", result.Error)
	}
	return &user, nil
}

func (r *gormUserRepository) FindByEmail(ctx context.Context, db *gorm.DB, email string) (*model.User, error) {
	logger := middleware.GetLogger(ctx)
	var user model.User

	result := db.WithContext(ctx).Where("email = ?", email).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			logger.Debug("User not found by email")
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding user by email in DB", "error", result.Error)
		return nil, fmt.Errorf("gormUserRepository.FindByEmail: %w", result.Error)
	}
	return &user, nil
}

func (r *gormUserRepository) MarkEmailVerified(ctx context.Context, db *gorm.DB, email string, verifiedAt time.Time) error {
	logger := middleware.GetLogger(ctx)

	result := db.WithContext(ctx).Model(&model.User{}).
		Where("email = ?", email).
		Update("email_verified_at", verifiedAt)
	if result.Error != nil {
		logger.Error("Error marking email verified in DB", "error", result.Error)
		return fmt.Errorf("gormUserRepository.MarkEmailVerified: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *gormUserRepository) UpdatePasswordHash(ctx context.Context, db *gorm.DB, userID uuid.UUID, passwordHash string) error {
	logger := middleware.GetLogger(ctx)

	result := db.WithContext(ctx).Model(&model.User{}).
		Where("user_id = ?", userID).
		Update("password_hash", passwordHash)
	if result.Error != nil {
		logger.Error("Error updating password hash in DB", "error", result.Error, "user_id", userID.String())
		return fmt.Errorf("gormUserRepository.UpdatePasswordHash: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *gormUserRepository) UpdateProfile(ctx context.Context, db *gorm.DB, userID uuid.UUID, updates map[string]interface{}) error {
	logger := middleware.GetLogger(ctx)

	if len(updates) == 0 {
		return nil
	}

	result := db.WithContext(ctx).Model(&model.User{}).
		Where("user_id = ?", userID).
		Updates(updates)
	if result.Error != nil {
		logger.Error("Error updating profile in DB", "error", result.Error, "user_id", userID.String())
		return fmt.Errorf("gormUserRepository.UpdateProfile: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *gormUserRepository) CountByRole(ctx context.Context, db *gorm.DB, role model.Role) (int64, error) {
	logger := middleware.GetLogger(ctx)

	var count int64
	result := db.WithContext(ctx).Model(&model.User{}).Where("role = ?", role).Count(&count)
	if result.Error != nil {
		logger.Error("Error counting users by role in DB", "error", result.Error, "role", role)
		return 0, fmt.Errorf("gormUserRepository.CountByRole: %w", result.Error)
	}
	return count, nil
}
