package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role はユーザー権限の閉じた列挙型
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Valid は既知のロールかどうかを判定します
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// ユーザーの基本情報
type User struct {
	UserID uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	Name   string    `gorm:"not null" json:"name"`
	Email  string    `gorm:"unique;not null" json:"email"`

	// OAuth経由のみで作成されたアカウントはパスワードを持たない
	PasswordHash *string `gorm:"default:null" json:"-"`

	Role            Role           `gorm:"type:varchar(20);not null;default:'USER'" json:"role"`
	EmailVerifiedAt *time.Time     `json:"email_verified_at"`
	Image           *string        `json:"image"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// IsVerified はメールアドレスが確認済みかを返します
func (u *User) IsVerified() bool {
	return u.EmailVerifiedAt != nil
}

// SignupRequest は新規登録APIのリクエストボディの構造体 (DTO)
type SignupRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// UpdateProfileRequest はプロフィール更新のリクエストボディ
type UpdateProfileRequest struct {
	Name  *string `json:"name" validate:"omitempty,min=1,max=100"`
	Image *string `json:"image" validate:"omitempty,url"`
}

// UserResponse はクライアントに返すユーザー情報の構造体
type UserResponse struct {
	UserID          uuid.UUID  `json:"user_id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Role            Role       `json:"role"`
	EmailVerifiedAt *time.Time `json:"email_verified_at"`
	Image           *string    `json:"image"`
	CreatedAt       time.Time  `json:"created_at"`
}

// NewUserResponse は User から公開用レスポンスを組み立てます
func NewUserResponse(u *User) *UserResponse {
	return &UserResponse{
		UserID:          u.UserID,
		Name:            u.Name,
		Email:           u.Email,
		Role:            u.Role,
		EmailVerifiedAt: u.EmailVerifiedAt,
		Image:           u.Image,
		CreatedAt:       u.CreatedAt,
	}
}
