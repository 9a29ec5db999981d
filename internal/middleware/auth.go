package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go_5_auth_keep/internal/config"
	"go_5_auth_keep/internal/model"
	"go_5_auth_keep/internal/webutil"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type sessionCtxKey struct{}

// SessionAuthMiddleware は Authorization ヘッダーの Bearer トークンを検証し、
// クレームの内容をそのままセッションとしてコンテキストに載せるミドルウェア。
// ロール等はトークン発行時の値の写しであり、ここでDBを参照し直すことはしない。
// ロール変更が効くのは次回サインイン(トークン再発行)から。
func SessionAuthMiddleware(cfg *config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := GetLogger(r.Context())

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn("Session auth failed: Authorization header missing")
				appErr := model.NewAppError("UNAUTHORIZED", "Authorizationヘッダーが必要です。", "", model.ErrUnauthorized)
				webutil.HandleError(w, logger, appErr)
				return
			}

			// "Bearer {token}" の形式を検証
			headerParts := strings.Split(authHeader, " ")
			if len(headerParts) != 2 || strings.ToLower(headerParts[0]) != "bearer" {
				logger.Warn("Session auth failed: Invalid Authorization header format")
				appErr := model.NewAppError("UNAUTHORIZED", "Authorizationヘッダーの形式が正しくありません。", "", model.ErrUnauthorized)
				webutil.HandleError(w, logger, appErr)
				return
			}
			tokenString := headerParts[1]

			// 署名と有効期限(exp)の検証は ParseWithClaims が行う
			claims := &model.SessionClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, errors.New("unexpected signing method")
				}
				return []byte(cfg.JWT.SecretKey), nil
			})
			if err != nil || !token.Valid {
				logger.Warn("Session auth failed: Invalid token", "error", err)
				appErr := model.NewAppError("INVALID_TOKEN", "トークンが無効です。", "", model.ErrUnauthorized)
				webutil.HandleError(w, logger, appErr)
				return
			}

			subject, err := claims.GetSubject()
			if err != nil || subject == "" {
				logger.Warn("Session auth failed: Subject (sub) claim missing", "error", err)
				appErr := model.NewAppError("INVALID_TOKEN", "トークンにユーザー情報が含まれていません。", "", model.ErrUnauthorized)
				webutil.HandleError(w, logger, appErr)
				return
			}

			userID, err := uuid.Parse(subject)
			if err != nil {
				logger.Warn("Session auth failed: Invalid subject (sub) format", "subject", subject, "error", err)
				appErr := model.NewAppError("INVALID_TOKEN", "トークンのユーザー情報が不正です。", "", model.ErrUnauthorized)
				webutil.HandleError(w, logger, appErr)
				return
			}

			if !claims.Role.Valid() {
				logger.Warn("Session auth failed: Unknown role claim", "role", claims.Role)
				appErr := model.NewAppError("INVALID_TOKEN", "トークンの権限情報が不正です。", "", model.ErrUnauthorized)
				webutil.HandleError(w, logger, appErr)
				return
			}

			session := model.Session{
				UserID: userID,
				Email:  claims.Email,
				Name:   claims.Name,
				Role:   claims.Role,
				Image:  claims.Image,
			}
			ctx := context.WithValue(r.Context(), sessionCtxKey{}, session)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSessionFromContext はコンテキストから認証済みセッションを取得します
func GetSessionFromContext(ctx context.Context) (model.Session, error) {
	session, ok := ctx.Value(sessionCtxKey{}).(model.Session)
	if !ok {
		return model.Session{}, model.NewAppError("INTERNAL_SERVER_ERROR", "コンテキストからユーザー情報を取得できませんでした。", "", model.ErrInternalServer)
	}
	return session, nil
}

// RequireRole は指定ロール以外のアクセスを拒否するミドルウェア。
// SessionAuthMiddleware の内側で使うこと。
func RequireRole(role model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := GetLogger(r.Context())

			session, err := GetSessionFromContext(r.Context())
			if err != nil {
				webutil.HandleError(w, logger, err)
				return
			}

			if session.Role != role {
				logger.Warn("Role check failed", "required", role, "actual", session.Role, "user_id", session.UserID)
				appErr := model.NewAppError("FORBIDDEN", "この操作を行う権限がありません。", "", model.ErrForbidden)
				webutil.HandleError(w, logger, appErr)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
