package model

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// LoginRequest はログインAPIのリクエストボディ
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse はログイン成功時のレスポンス
type LoginResponse struct {
	AccessToken string `json:"access_token"`
}

// SessionClaims はセッショントークン(JWT)に含めるカスタムクレーム。
// ここに埋め込んだ値はミドルウェアがそのまま取り出して使い、
// リクエスト毎にDBへ問い合わせ直すことはしない。つまりロール変更は
// 次回のサインイン(トークン再発行)まで反映されない。
type SessionClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
	Image string `json:"image,omitempty"`
	jwt.RegisteredClaims
}

// Session はリクエストコンテキストに載せる認証済みセッション。
// 全フィールドはトークン発行時点のクレームの写しで、ストアには
// 問い合わせない。
type Session struct {
	UserID uuid.UUID
	Email  string
	Name   string
	Role   Role
	Image  string
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// MagicLinkRequest はメールリンクログインの発行リクエスト
type MagicLinkRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// OAuthUserInfo は外部IdPから受け取ったユーザー情報を境界で検証した後の
// 閉じた入力型。map[string]any のままコアへ持ち込まない。
type OAuthUserInfo struct {
	Provider string
	Subject  string
	Email    string
	Name     string
	Picture  string
}

// AdminStats は管理者向けの集計レスポンス
type AdminStats struct {
	TotalUsers int64 `json:"total_users"`
	Admins     int64 `json:"admins"`
}
