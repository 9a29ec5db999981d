//go:generate mockery --name AuthService --output ./mocks --outpkg mocks --case=underscore
package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"go_5_auth_keep/internal/config"
	"go_5_auth_keep/internal/middleware"
	"go_5_auth_keep/internal/model"
	"go_5_auth_keep/internal/password"
	"go_5_auth_keep/internal/repository"
	"go_5_auth_keep/internal/token"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuthService interface {
	Signup(ctx context.Context, req *model.SignupRequest) (*model.User, error)
	VerifyEmail(ctx context.Context, email, tokenString string) error
	Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, tokenString, newPassword string) error
	RequestMagicLink(ctx context.Context, email string) error
	ConsumeMagicLink(ctx context.Context, email, tokenString string) (*model.LoginResponse, error)
	SignInWithOAuth(ctx context.Context, info *model.OAuthUserInfo) (*model.LoginResponse, error)
	GetUser(ctx context.Context, userID uuid.UUID) (*model.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req *model.UpdateProfileRequest) (*model.User, error)
	Stats(ctx context.Context) (*model.AdminStats, error)
	PurgeExpiredTokens(ctx context.Context) (int64, error)
}

type authService struct {
	db        *gorm.DB
	userRepo  repository.UserRepository
	tokenRepo repository.TokenRepository
	mailer    Mailer
	cfg       *config.Config
}

// NewAuthService は AuthService の新しいインスタンスを生成します
func NewAuthService(db *gorm.DB, userRepo repository.UserRepository, tokenRepo repository.TokenRepository, mailer Mailer, cfg *config.Config) AuthService {
	return &authService{
		db:        db,
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		mailer:    mailer,
		cfg:       cfg,
	}
}

// Signup は新しいユーザーを登録し、確認メールを送信します
func (s *authService) Signup(ctx context.Context, req *model.SignupRequest) (*model.User, error) {
	logger := middleware.GetLogger(ctx)

	passwordHash, err := password.Hash(req.Password)
	if err != nil {
		logger.Error("Failed to hash password", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "パスワードの処理中にエラーが発生しました。", "", err)
	}

	var newUser *model.User
	var verifyLink string

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Emailでの重複チェック
		_, err := s.userRepo.FindByEmail(ctx, tx, req.Email)
		if err == nil {
			logger.Warn("Email already exists", "email", req.Email)
			return model.NewAppError("DUPLICATE_EMAIL", "このメールアドレスは既に使用されています。", "email", model.ErrConflict)
		}
		if !errors.Is(err, model.ErrNotFound) {
			logger.Error("Failed to check email existence", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部でエラーが発生しました。", "", err)
		}

		user := &model.User{
			UserID:       uuid.New(),
			Name:         req.Name,
			Email:        req.Email,
			PasswordHash: &passwordHash,
			Role:         model.RoleUser,
		}

		if err := s.userRepo.Create(ctx, tx, user); err != nil {
			// Create内で重複エラーが検知された場合 (レースコンディション対策)
			if errors.Is(err, model.ErrConflict) {
				logger.Warn("Conflict during user creation (race condition)", "error", err)
				return model.NewAppError("DUPLICATE_EMAIL", "このメールアドレスは既に使用されています。", "email", model.ErrConflict)
			}
			logger.Error("Failed to create user in DB", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "ユーザーの作成に失敗しました。", "", err)
		}
		newUser = user

		link, err := s.issueVerificationToken(ctx, tx, user.Email)
		if err != nil {
			return err
		}
		verifyLink = link

		return nil // トランザクション成功
	})
	if err != nil {
		return nil, err
	}

	// メール送信はコミット後に行う。送信に失敗してもトークンは取り消さない
	// (ユーザーは再送を依頼できる)。失敗自体は呼び出し元へ報告する。
	if err := s.sendVerificationEmail(ctx, newUser.Email, verifyLink); err != nil {
		return newUser, model.NewAppError("EMAIL_SEND_FAILED", "確認メールの送信に失敗しました。時間をおいて再度お試しください。", "", err)
	}

	logger.Info("User registered and verification email sent", "user_id", newUser.UserID, "email", newUser.Email)
	return newUser, nil
}

// VerifyEmail は提供されたトークンを検証し、メールアドレスを確認済みにします。
// 消費は一回限り: ユーザー更新後にトークン行を削除できなかった場合は
// 不整合としてエラーを返し、トランザクションごと巻き戻す。
func (s *authService) VerifyEmail(ctx context.Context, email, tokenString string) error {
	logger := middleware.GetLogger(ctx)
	tokenHash := token.Digest(tokenString)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		vt, err := s.tokenRepo.FindVerificationToken(ctx, tx, tokenHash)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				logger.Warn("Verification token not found")
				return model.NewAppError("TOKEN_NOT_FOUND", "このリンクは無効か、既に使用されています。", "token", model.ErrTokenNotFound)
			}
			logger.Error("Error finding verification token", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "エラーが発生しました。", "", err)
		}

		// トークンが宛てられたメールアドレスと一致しない場合も「無効」として
		// 扱い、どちらの理由かは外に漏らさない
		if vt.Identifier != email {
			logger.Warn("Verification token identifier mismatch")
			return model.NewAppError("TOKEN_NOT_FOUND", "このリンクは無効か、既に使用されています。", "token", model.ErrTokenNotFound)
		}

		// 有効期限は絶対時刻での比較 (now < expiresAt で有効)
		if !time.Now().Before(vt.ExpiresAt) {
			logger.Warn("Verification token expired", "expires_at", vt.ExpiresAt)
			return model.NewAppError("TOKEN_EXPIRED", "このリンクの有効期限が切れています。", "token", model.ErrTokenExpired)
		}

		if err := s.userRepo.MarkEmailVerified(ctx, tx, email, time.Now()); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				logger.Error("User not found during verification", "email", email)
				return model.NewAppError("NOT_FOUND", "アカウントが見つかりません。", "", model.ErrNotFound)
			}
			logger.Error("Failed to mark email verified", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "アカウントの確認に失敗しました。", "", err)
		}

		rows, err := s.tokenRepo.DeleteVerificationToken(ctx, tx, tokenHash)
		if err != nil {
			logger.Error("Failed to delete used verification token", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "エラーが発生しました。", "", err)
		}
		if rows == 0 {
			// 並行リクエストに先に消費された。ユーザー更新ごと巻き戻す
			logger.Warn("Verification token consumed concurrently")
			return model.NewAppError("TOKEN_NOT_FOUND", "このリンクは無効か、既に使用されています。", "token", model.ErrTokenNotFound)
		}

		logger.Info("Email verified successfully", "email", email)
		return nil
	})
}

// Login はユーザーを認証し、セッショントークン(JWT)を返します。
// 未確認アカウントには確認トークンを再発行してメールを送り直す。
func (s *authService) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	logger := middleware.GetLogger(ctx).With("email", req.Email)

	user, err := s.userRepo.FindByEmail(ctx, s.db, req.Email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			logger.Warn("Login failed: user not found")
			return nil, s.invalidCredentials()
		}
		logger.Error("Login failed: db error on FindByEmail", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部エラー", "", err)
	}

	// パスワード未設定(OAuth専用)も照合失敗も同じ応答にする。
	// どの条件で弾かれたかを外から区別させない
	if !password.Verify(req.Password, user.PasswordHash) {
		logger.Warn("Login failed: password mismatch", "user_id", user.UserID)
		return nil, s.invalidCredentials()
	}

	if !user.IsVerified() {
		logger.Warn("Login failed: email not verified", "user_id", user.UserID)

		// 確認トークンを発行し直してメールを再送する。既存の未使用トークン
		// は無効化しない(未期限のものはどれでも使える)
		var verifyLink string
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			link, err := s.issueVerificationToken(ctx, tx, user.Email)
			if err != nil {
				return err
			}
			verifyLink = link
			return nil
		})
		if err != nil {
			return nil, err
		}
		if err := s.sendVerificationEmail(ctx, user.Email, verifyLink); err != nil {
			// 送信失敗でも応答は変えない。トークンは保存済みのまま残す
			logger.Error("Failed to resend verification email", "error", err)
		}

		return nil, model.NewAppError("EMAIL_NOT_VERIFIED", "メールアドレスが確認されていません。確認メールを再送しました。メールボックスをご確認ください。", user.Email, model.ErrForbidden)
	}

	resp, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}

	logger.Info("Login successful", "user_id", user.UserID)
	return resp, nil
}

// RequestPasswordReset はパスワード再設定メールを送信します。
// アカウントの存在有無を悟られないよう、見つからない場合も成功として扱い、
// トークン行は一切作らない。
func (s *authService) RequestPasswordReset(ctx context.Context, email string) error {
	logger := middleware.GetLogger(ctx).With("email", email)

	user, err := s.userRepo.FindByEmail(ctx, s.db, email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			logger.Warn("Password reset requested for non-existent email")
			return nil
		}
		return model.NewAppError("INTERNAL_SERVER_ERROR", "エラーが発生しました。", "", err)
	}

	tokenString, err := token.Generate()
	if err != nil {
		logger.Error("Failed to generate reset token", "error", err)
		return model.NewAppError("INTERNAL_SERVER_ERROR", "トークンの生成に失敗しました。", "", err)
	}

	resetToken := &model.PasswordResetToken{
		TokenHash: token.Digest(tokenString),
		UserID:    user.UserID,
		ExpiresAt: time.Now().Add(time.Duration(s.cfg.Token.ResetTTLMinutes) * time.Minute),
	}
	if err := s.tokenRepo.CreatePasswordResetToken(ctx, s.db, resetToken); err != nil {
		return model.NewAppError("INTERNAL_SERVER_ERROR", "トークンの保存に失敗しました。", "", err)
	}

	// リンクに載るのは平文トークンのみ。ダイジェストはストアの外に出さない
	resetURL := fmt.Sprintf("%s/reset-password?token=%s", s.cfg.App.BaseURL, url.QueryEscape(tokenString))
	subject := fmt.Sprintf("【%s】パスワードの再設定", s.cfg.App.Name)
	body := fmt.Sprintf("パスワードを再設定するには、以下のリンクをクリックしてください:\n%s\n\nこのリンクの有効期限は%d分です。", resetURL, s.cfg.Token.ResetTTLMinutes)

	if err := s.mailer.Send(ctx, user.Email, subject, body); err != nil {
		// 送信失敗を応答に反映するとアカウントの存在が漏れるため、
		// ログに残すだけで成功の形を保つ。トークンは保存済みのまま
		logger.Error("Failed to send password reset email", "error", err)
		return nil
	}

	logger.Info("Password reset email sent")
	return nil
}

// ResetPassword はトークンを検証し、パスワードを書き換えます。
// パスワード更新と使用済みマークは同一トランザクションで行い、
// 片方だけが残ることはない。
func (s *authService) ResetPassword(ctx context.Context, tokenString, newPassword string) error {
	logger := middleware.GetLogger(ctx)

	newHash, err := password.Hash(newPassword)
	if err != nil {
		logger.Error("Failed to hash new password", "error", err)
		return model.NewAppError("INTERNAL_SERVER_ERROR", "パスワードの処理中にエラーが発生しました。", "", err)
	}

	tokenHash := token.Digest(tokenString)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rt, err := s.validateResetToken(ctx, tx, tokenHash)
		if err != nil {
			return err
		}

		if err := s.userRepo.UpdatePasswordHash(ctx, tx, rt.UserID, newHash); err != nil {
			logger.Error("Failed to update password hash", "error", err, "user_id", rt.UserID)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "パスワードの更新に失敗しました。", "", err)
		}

		// used_at IS NULL の条件付き更新。0行なら並行リクエストに
		// 先に消費されたので、パスワード更新ごと巻き戻す
		rows, err := s.tokenRepo.MarkPasswordResetTokenUsed(ctx, tx, tokenHash, time.Now())
		if err != nil {
			return model.NewAppError("INTERNAL_SERVER_ERROR", "エラーが発生しました。", "", err)
		}
		if rows == 0 {
			logger.Warn("Password reset token consumed concurrently")
			return model.NewAppError("TOKEN_ALREADY_USED", "このリンクは既に使用されています。", "token", model.ErrTokenUsed)
		}

		logger.Info("Password reset successfully", "user_id", rt.UserID)
		return nil
	})
}

// validateResetToken はリセットトークンを検証します。
// 失敗理由の判定順は NotFound → Expired → AlreadyUsed に固定。
func (s *authService) validateResetToken(ctx context.Context, tx *gorm.DB, tokenHash string) (*model.PasswordResetToken, error) {
	logger := middleware.GetLogger(ctx)

	rt, err := s.tokenRepo.FindPasswordResetToken(ctx, tx, tokenHash)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			logger.Warn("Password reset token not found")
			return nil, model.NewAppError("TOKEN_NOT_FOUND", "このリンクは無効です。", "token", model.ErrTokenNotFound)
		}
		logger.Error("Error finding password reset token", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "エラーが発生しました。", "", err)
	}

	if !time.Now().Before(rt.ExpiresAt) {
		logger.Warn("Password reset token expired", "expires_at", rt.ExpiresAt)
		return nil, model.NewAppError("TOKEN_EXPIRED", "このリンクの有効期限が切れています。", "token", model.ErrTokenExpired)
	}

	// 一度使われたトークンは期限内でも二度と有効にならない
	if rt.UsedAt != nil {
		logger.Warn("Password reset token already used", "used_at", rt.UsedAt)
		return nil, model.NewAppError("TOKEN_ALREADY_USED", "このリンクは既に使用されています。", "token", model.ErrTokenUsed)
	}

	return rt, nil
}

// RequestMagicLink はメールリンクログイン用のトークンを発行して送信します。
// パスワード再設定と同様、アカウントが存在しない場合も成功の形で返す。
func (s *authService) RequestMagicLink(ctx context.Context, email string) error {
	logger := middleware.GetLogger(ctx).With("email", email)

	user, err := s.userRepo.FindByEmail(ctx, s.db, email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			logger.Warn("Magic link requested for non-existent email")
			return nil
		}
		return model.NewAppError("INTERNAL_SERVER_ERROR", "エラーが発生しました。", "", err)
	}

	tokenString, err := token.Generate()
	if err != nil {
		logger.Error("Failed to generate magic link token", "error", err)
		return model.NewAppError("INTERNAL_SERVER_ERROR", "トークンの生成に失敗しました。", "", err)
	}

	mlt := &model.MagicLinkToken{
		TokenHash:  token.Digest(tokenString),
		Identifier: user.Email,
		ExpiresAt:  time.Now().Add(time.Duration(s.cfg.Token.MagicLinkTTLMinutes) * time.Minute),
	}
	if err := s.tokenRepo.CreateMagicLinkToken(ctx, s.db, mlt); err != nil {
		return model.NewAppError("INTERNAL_SERVER_ERROR", "トークンの保存に失敗しました。", "", err)
	}

	loginURL := fmt.Sprintf("%s/magic-link?token=%s&email=%s", s.cfg.App.BaseURL, url.QueryEscape(tokenString), url.QueryEscape(user.Email))
	subject := fmt.Sprintf("【%s】ログインリンク", s.cfg.App.Name)
	body := fmt.Sprintf("以下のリンクをクリックしてログインしてください:\n%s\n\nこのリンクは一度だけ使用でき、有効期限は%d分です。", loginURL, s.cfg.Token.MagicLinkTTLMinutes)

	if err := s.mailer.Send(ctx, user.Email, subject, body); err != nil {
		logger.Error("Failed to send magic link email", "error", err)
		return nil
	}

	logger.Info("Magic link email sent")
	return nil
}

// ConsumeMagicLink はメールリンクを消費してセッションを発行します。
// リンクを踏めたことがメールアドレスの所有証明になるため、
// 未確認のアカウントはここで確認済みにする。
func (s *authService) ConsumeMagicLink(ctx context.Context, email, tokenString string) (*model.LoginResponse, error) {
	logger := middleware.GetLogger(ctx)
	tokenHash := token.Digest(tokenString)

	var user *model.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		mlt, err := s.tokenRepo.FindMagicLinkToken(ctx, tx, tokenHash)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				logger.Warn("Magic link token not found")
				return model.NewAppError("TOKEN_NOT_FOUND", "このリンクは無効か、既に使用されています。", "token", model.ErrTokenNotFound)
			}
			logger.Error("Error finding magic link token", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "エラーが発生しました。", "", err)
		}

		if mlt.Identifier != email {
			logger.Warn("Magic link token identifier mismatch")
			return model.NewAppError("TOKEN_NOT_FOUND", "このリンクは無効か、既に使用されています。", "token", model.ErrTokenNotFound)
		}

		if !time.Now().Before(mlt.ExpiresAt) {
			logger.Warn("Magic link token expired", "expires_at", mlt.ExpiresAt)
			return model.NewAppError("TOKEN_EXPIRED", "このリンクの有効期限が切れています。", "token", model.ErrTokenExpired)
		}

		// 行削除が消費。0行なら並行リクエストに先を越されている
		rows, err := s.tokenRepo.DeleteMagicLinkToken(ctx, tx, tokenHash)
		if err != nil {
			return model.NewAppError("INTERNAL_SERVER_ERROR", "エラーが発生しました。", "", err)
		}
		if rows == 0 {
			logger.Warn("Magic link token consumed concurrently")
			return model.NewAppError("TOKEN_NOT_FOUND", "このリンクは無効か、既に使用されています。", "token", model.ErrTokenNotFound)
		}

		u, err := s.userRepo.FindByEmail(ctx, tx, email)
		if err != nil {
			logger.Error("User not found during magic link consumption", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "エラーが発生しました。", "", err)
		}

		if !u.IsVerified() {
			now := time.Now()
			if err := s.userRepo.MarkEmailVerified(ctx, tx, email, now); err != nil {
				logger.Error("Failed to mark email verified via magic link", "error", err)
				return model.NewAppError("INTERNAL_SERVER_ERROR", "エラーが発生しました。", "", err)
			}
			u.EmailVerifiedAt = &now
		}

		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}

	logger.Info("Magic link login successful", "user_id", user.UserID)
	return resp, nil
}

// SignInWithOAuth は外部IdPで認証済みのユーザーを連携または新規作成して
// セッションを発行します。IdP側でメールアドレスの確認が済んでいるため、
// このアカウントをメール確認ゲートにかけることはない。
func (s *authService) SignInWithOAuth(ctx context.Context, info *model.OAuthUserInfo) (*model.LoginResponse, error) {
	logger := middleware.GetLogger(ctx).With("provider", info.Provider)

	if info.Email == "" {
		logger.Warn("OAuth user info without email")
		return nil, model.NewAppError("INVALID_OAUTH_PAYLOAD", "外部プロバイダからメールアドレスを取得できませんでした。", "", model.ErrInvalidInput)
	}

	user, err := s.userRepo.FindByEmail(ctx, s.db, info.Email)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		logger.Error("OAuth sign-in failed: db error on FindByEmail", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部エラー", "", err)
	}

	if user == nil {
		now := time.Now()
		newUser := &model.User{
			UserID:          uuid.New(),
			Name:            info.Name,
			Email:           info.Email,
			Role:            model.RoleUser,
			EmailVerifiedAt: &now,
		}
		if info.Picture != "" {
			newUser.Image = &info.Picture
		}
		if err := s.userRepo.Create(ctx, s.db, newUser); err != nil {
			if errors.Is(err, model.ErrConflict) {
				// 同時サインインのレース。既存行を読み直す
				user, err = s.userRepo.FindByEmail(ctx, s.db, info.Email)
				if err != nil {
					return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部エラー", "", err)
				}
			} else {
				logger.Error("Failed to create OAuth user", "error", err)
				return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "ユーザーの作成に失敗しました。", "", err)
			}
		} else {
			user = newUser
			logger.Info("OAuth user created", "user_id", user.UserID)
		}
	}

	// 既存アカウントが未確認のままでも、IdPの確認をもって確認済みにする
	if !user.IsVerified() {
		now := time.Now()
		if err := s.userRepo.MarkEmailVerified(ctx, s.db, user.Email, now); err != nil {
			logger.Error("Failed to mark OAuth user verified", "error", err)
			return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "エラーが発生しました。", "", err)
		}
		user.EmailVerifiedAt = &now
	}

	resp, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}

	logger.Info("OAuth sign-in successful", "user_id", user.UserID)
	return resp, nil
}

// GetUser は指定されたIDのユーザーを取得します
func (s *authService) GetUser(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	logger := middleware.GetLogger(ctx)
	user, err := s.userRepo.FindByID(ctx, s.db, userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			logger.Warn("User not found", "user_id", userID.String())
			return nil, model.NewAppError("USER_NOT_FOUND", "ユーザーが見つかりません。", "", model.ErrNotFound)
		}
		logger.Error("Error finding user by ID", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部エラー", "", err)
	}
	return user, nil
}

// UpdateProfile は表示名とプロフィール画像を更新します
func (s *authService) UpdateProfile(ctx context.Context, userID uuid.UUID, req *model.UpdateProfileRequest) (*model.User, error) {
	logger := middleware.GetLogger(ctx)

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Image != nil {
		updates["image"] = *req.Image
	}

	if len(updates) > 0 {
		if err := s.userRepo.UpdateProfile(ctx, s.db, userID, updates); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return nil, model.NewAppError("USER_NOT_FOUND", "ユーザーが見つかりません。", "", model.ErrNotFound)
			}
			logger.Error("Failed to update profile", "error", err, "user_id", userID)
			return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "プロフィールの更新に失敗しました。", "", err)
		}
	}

	return s.GetUser(ctx, userID)
}

// Stats は管理者向けの集計を返します
func (s *authService) Stats(ctx context.Context) (*model.AdminStats, error) {
	users, err := s.userRepo.CountByRole(ctx, s.db, model.RoleUser)
	if err != nil {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部エラー", "", err)
	}
	admins, err := s.userRepo.CountByRole(ctx, s.db, model.RoleAdmin)
	if err != nil {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部エラー", "", err)
	}
	return &model.AdminStats{TotalUsers: users + admins, Admins: admins}, nil
}

// PurgeExpiredTokens は保持期間を過ぎたトークン行を削除します。
// 元の設計には掃除の仕組みがなく無限に溜まるため、明示的な保守操作として追加
func (s *authService) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	logger := middleware.GetLogger(ctx)

	cutoff := time.Now().Add(-s.cfg.Token.Retention)
	purged, err := s.tokenRepo.PurgeExpired(ctx, s.db, cutoff)
	if err != nil {
		logger.Error("Failed to purge expired tokens", "error", err)
		return 0, err
	}

	if purged > 0 {
		logger.Info("Purged expired tokens", "count", purged, "cutoff", cutoff)
	}
	return purged, nil
}

// --- ヘルパー関数 ---

// invalidCredentials は認証失敗の共通応答。ユーザー不在・パスワード未設定・
// パスワード不一致のいずれでも同一のエラーを返す
func (s *authService) invalidCredentials() error {
	return model.NewAppError("AUTHENTICATION_FAILED", "メールアドレスまたはパスワードが正しくありません。", "", model.ErrUnauthorized)
}

func (s *authService) issueVerificationToken(ctx context.Context, tx *gorm.DB, email string) (string, error) {
	logger := middleware.GetLogger(ctx)

	tokenString, err := token.Generate()
	if err != nil {
		logger.Error("Failed to generate verification token", "error", err)
		return "", model.NewAppError("INTERNAL_SERVER_ERROR", "トークンの生成に失敗しました。", "", err)
	}

	verificationToken := &model.VerificationToken{
		TokenHash:  token.Digest(tokenString),
		Identifier: email,
		ExpiresAt:  time.Now().Add(time.Duration(s.cfg.Token.VerificationTTLMinutes) * time.Minute),
	}
	if err := s.tokenRepo.CreateVerificationToken(ctx, tx, verificationToken); err != nil {
		return "", model.NewAppError("INTERNAL_SERVER_ERROR", "トークンの保存に失敗しました。", "", err)
	}

	link := fmt.Sprintf("%s/verify-email?token=%s&email=%s", s.cfg.App.BaseURL, url.QueryEscape(tokenString), url.QueryEscape(email))
	return link, nil
}

func (s *authService) sendVerificationEmail(ctx context.Context, email, link string) error {
	logger := middleware.GetLogger(ctx)

	subject := fmt.Sprintf("【%s】メールアドレスの確認をお願いします", s.cfg.App.Name)
	body := fmt.Sprintf("%sにご登録いただきありがとうございます。\n\n以下のリンクをクリックしてメールアドレスを確認してください:\n%s\n\nこのリンクの有効期限は%d分です。", s.cfg.App.Name, link, s.cfg.Token.VerificationTTLMinutes)

	logger.Info("Sending verification email", "to", email)
	return s.mailer.Send(ctx, email, subject, body)
}

// issueSession はサインイン時点のユーザー情報をクレームに写した
// セッショントークンを発行します。以後のリクエストはこのクレームだけを見る
func (s *authService) issueSession(ctx context.Context, user *model.User) (*model.LoginResponse, error) {
	logger := middleware.GetLogger(ctx)

	image := ""
	if user.Image != nil {
		image = *user.Image
	}

	claims := &model.SessionClaims{
		Email: user.Email,
		Name:  user.Name,
		Role:  user.Role,
		Image: image,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.App.Name,
			Subject:   user.UserID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.cfg.JWT.SessionTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	jwtToken := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := jwtToken.SignedString([]byte(s.cfg.JWT.SecretKey))
	if err != nil {
		logger.Error("Failed to sign session token", "error", err, "user_id", user.UserID)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "トークンの生成に失敗しました。", "", err)
	}

	return &model.LoginResponse{AccessToken: signedToken}, nil
}
