package model

import (
	"time"

	"github.com/google/uuid"
)

// トークンは全て平文を保存せず、sha256ダイジェストをキーにする

// VerificationToken はメールアドレス確認用のトークン情報を保持します。
// 同じメールアドレスに対して複数の未使用トークンが共存し得ます
// (一意制約は TokenHash のみ)。
type VerificationToken struct {
	TokenHash  string    `gorm:"primaryKey"`
	Identifier string    `gorm:"not null;index"` // 対象のメールアドレス
	ExpiresAt  time.Time `gorm:"not null"`
}

func (VerificationToken) TableName() string {
	return "verification_tokens"
}

// PasswordResetToken はパスワード再設定用のトークン情報を保持します。
// UsedAt が非nullのトークンは有効期限に関わらず二度と使えません。
type PasswordResetToken struct {
	TokenHash string     `gorm:"primaryKey"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	ExpiresAt time.Time  `gorm:"not null"`
	UsedAt    *time.Time `gorm:"default:null"`
}

func (PasswordResetToken) TableName() string {
	return "password_reset_tokens"
}

// MagicLinkToken はメールリンクによるログイン用のワンタイムトークンです。
// 消費時に行ごと削除されるため UsedAt は持ちません。
type MagicLinkToken struct {
	TokenHash  string    `gorm:"primaryKey"`
	Identifier string    `gorm:"not null;index"`
	ExpiresAt  time.Time `gorm:"not null"`
}

func (MagicLinkToken) TableName() string {
	return "magic_link_tokens"
}
