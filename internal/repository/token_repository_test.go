// internal/repository/token_repository_test.go
package repository

import (
	"context"
	"testing"
	"time"

	"go_5_auth_keep/internal/model"
	"go_5_auth_keep/internal/token"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupRepoTestDB はマイグレーション済みのインメモリSQLiteを返します
func setupRepoTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.VerificationToken{},
		&model.PasswordResetToken{},
		&model.MagicLinkToken{},
	))
	return db
}

func newVerificationToken(email string, ttl time.Duration) (*model.VerificationToken, string) {
	plain, err := token.Generate()
	if err != nil {
		panic(err)
	}
	return &model.VerificationToken{
		TokenHash:  token.Digest(plain),
		Identifier: email,
		ExpiresAt:  time.Now().Add(ttl),
	}, plain
}

func Test_gormTokenRepository_VerificationToken(t *testing.T) {
	ctx := context.Background()
	db := setupRepoTestDB(t)
	repo := NewGormTokenRepository()

	vt, _ := newVerificationToken("taro@example.com", 30*time.Minute)
	require.NoError(t, repo.CreateVerificationToken(ctx, db, vt))

	t.Run("正常系: ダイジェストで検索できる", func(t *testing.T) {
		found, err := repo.FindVerificationToken(ctx, db, vt.TokenHash)
		require.NoError(t, err)
		assert.Equal(t, vt.Identifier, found.Identifier)
	})

	t.Run("異常系: 存在しないダイジェストはErrNotFound", func(t *testing.T) {
		_, err := repo.FindVerificationToken(ctx, db, token.Digest("unknown"))
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("正常系: 同じメールアドレスに複数の未使用トークンが共存できる", func(t *testing.T) {
		second, _ := newVerificationToken("taro@example.com", 30*time.Minute)
		require.NoError(t, repo.CreateVerificationToken(ctx, db, second))

		// どちらのトークンでも検索でき、片方の消費はもう片方に影響しない
		found1, err := repo.FindVerificationToken(ctx, db, vt.TokenHash)
		require.NoError(t, err)
		found2, err := repo.FindVerificationToken(ctx, db, second.TokenHash)
		require.NoError(t, err)
		assert.Equal(t, found1.Identifier, found2.Identifier)

		rows, err := repo.DeleteVerificationToken(ctx, db, second.TokenHash)
		require.NoError(t, err)
		assert.Equal(t, int64(1), rows)
		_, err = repo.FindVerificationToken(ctx, db, vt.TokenHash)
		require.NoError(t, err)
	})

	t.Run("正常系: 削除は1回目だけ行数1を返す", func(t *testing.T) {
		rows, err := repo.DeleteVerificationToken(ctx, db, vt.TokenHash)
		require.NoError(t, err)
		assert.Equal(t, int64(1), rows)

		// 2回目は0行。この行数が一回限り消費の判定に使われる
		rows, err = repo.DeleteVerificationToken(ctx, db, vt.TokenHash)
		require.NoError(t, err)
		assert.Equal(t, int64(0), rows)
	})
}

func Test_gormTokenRepository_PasswordResetToken(t *testing.T) {
	ctx := context.Background()
	db := setupRepoTestDB(t)
	repo := NewGormTokenRepository()

	plain, err := token.Generate()
	require.NoError(t, err)
	rt := &model.PasswordResetToken{
		TokenHash: token.Digest(plain),
		UserID:    uuid.New(),
		ExpiresAt: time.Now().Add(30 * time.Minute),
	}
	require.NoError(t, repo.CreatePasswordResetToken(ctx, db, rt))

	t.Run("正常系: 未使用行の使用済みマークは1行更新", func(t *testing.T) {
		rows, err := repo.MarkPasswordResetTokenUsed(ctx, db, rt.TokenHash, time.Now())
		require.NoError(t, err)
		assert.Equal(t, int64(1), rows)

		found, err := repo.FindPasswordResetToken(ctx, db, rt.TokenHash)
		require.NoError(t, err)
		require.NotNil(t, found.UsedAt)
	})

	t.Run("異常系: 使用済み行への再マークは0行 (used_at IS NULL 条件)", func(t *testing.T) {
		rows, err := repo.MarkPasswordResetTokenUsed(ctx, db, rt.TokenHash, time.Now())
		require.NoError(t, err)
		assert.Equal(t, int64(0), rows)
	})
}

func Test_gormTokenRepository_PurgeExpired(t *testing.T) {
	ctx := context.Background()
	db := setupRepoTestDB(t)
	repo := NewGormTokenRepository()

	now := time.Now()
	cutoff := now.Add(-7 * 24 * time.Hour)

	// 保持期間を過ぎた行
	oldVT, _ := newVerificationToken("old@example.com", 0)
	oldVT.ExpiresAt = cutoff.Add(-time.Hour)
	require.NoError(t, repo.CreateVerificationToken(ctx, db, oldVT))

	oldUsed := cutoff.Add(-time.Hour)
	oldRT := &model.PasswordResetToken{
		TokenHash: token.Digest("old-reset"),
		UserID:    uuid.New(),
		ExpiresAt: now.Add(30 * time.Minute), // 期限内だが使用済みが古い
		UsedAt:    &oldUsed,
	}
	require.NoError(t, repo.CreatePasswordResetToken(ctx, db, oldRT))

	oldML := &model.MagicLinkToken{
		TokenHash:  token.Digest("old-magic"),
		Identifier: "old@example.com",
		ExpiresAt:  cutoff.Add(-time.Hour),
	}
	require.NoError(t, repo.CreateMagicLinkToken(ctx, db, oldML))

	// まだ残すべき行
	freshVT, _ := newVerificationToken("fresh@example.com", 30*time.Minute)
	require.NoError(t, repo.CreateVerificationToken(ctx, db, freshVT))

	purged, err := repo.PurgeExpired(ctx, db, cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(3), purged)

	_, err = repo.FindVerificationToken(ctx, db, oldVT.TokenHash)
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = repo.FindPasswordResetToken(ctx, db, oldRT.TokenHash)
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = repo.FindMagicLinkToken(ctx, db, oldML.TokenHash)
	assert.ErrorIs(t, err, model.ErrNotFound)

	found, err := repo.FindVerificationToken(ctx, db, freshVT.TokenHash)
	require.NoError(t, err)
	assert.Equal(t, "fresh@example.com", found.Identifier)
}

func Test_gormUserRepository(t *testing.T) {
	ctx := context.Background()
	db := setupRepoTestDB(t)
	repo := NewGormUserRepository()

	hash := "bcrypt-hash-placeholder"
	user := &model.User{
		UserID:       uuid.New(),
		Name:         "テスト太郎",
		Email:        "taro@example.com",
		PasswordHash: &hash,
		Role:         model.RoleUser,
	}
	require.NoError(t, repo.Create(ctx, db, user))

	t.Run("正常系: メールアドレスで検索", func(t *testing.T) {
		found, err := repo.FindByEmail(ctx, db, user.Email)
		require.NoError(t, err)
		assert.Equal(t, user.UserID, found.UserID)
		assert.False(t, found.IsVerified())
	})

	t.Run("正常系: 確認済みマーク", func(t *testing.T) {
		require.NoError(t, repo.MarkEmailVerified(ctx, db, user.Email, time.Now()))
		found, err := repo.FindByID(ctx, db, user.UserID)
		require.NoError(t, err)
		assert.True(t, found.IsVerified())
	})

	t.Run("異常系: 存在しないメールアドレスへの確認マークはErrNotFound", func(t *testing.T) {
		err := repo.MarkEmailVerified(ctx, db, "unknown@example.com", time.Now())
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("正常系: パスワードハッシュの更新", func(t *testing.T) {
		require.NoError(t, repo.UpdatePasswordHash(ctx, db, user.UserID, "new-hash"))
		found, err := repo.FindByID(ctx, db, user.UserID)
		require.NoError(t, err)
		require.NotNil(t, found.PasswordHash)
		assert.Equal(t, "new-hash", *found.PasswordHash)
	})

	t.Run("正常系: プロフィールの部分更新", func(t *testing.T) {
		require.NoError(t, repo.UpdateProfile(ctx, db, user.UserID, map[string]interface{}{
			"name": "改名太郎",
		}))
		found, err := repo.FindByID(ctx, db, user.UserID)
		require.NoError(t, err)
		assert.Equal(t, "改名太郎", found.Name)
		assert.Equal(t, user.Email, found.Email) // 他のフィールドは変わらない
	})

	t.Run("正常系: ロール別カウント", func(t *testing.T) {
		admin := &model.User{
			UserID: uuid.New(),
			Name:   "管理者",
			Email:  "admin@example.com",
			Role:   model.RoleAdmin,
		}
		require.NoError(t, repo.Create(ctx, db, admin))

		users, err := repo.CountByRole(ctx, db, model.RoleUser)
		require.NoError(t, err)
		admins, err := repo.CountByRole(ctx, db, model.RoleAdmin)
		require.NoError(t, err)
		assert.Equal(t, int64(1), users)
		assert.Equal(t, int64(1), admins)
	})
}
