// Package password はパスワードの一方向ハッシュ化と照合を担当します。
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hash はパスワードをbcryptでハッシュ化します。
// コストは対話的ログインの応答時間に収まる DefaultCost 固定。
func Hash(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("password.Hash: %w", err)
	}
	return string(hashed), nil
}

// Verify はパスワードとハッシュを照合します。
// 不一致・ハッシュ不正・ハッシュ未設定(nil)はいずれも false を返すだけで、
// エラーにはしません。
func Verify(plain string, hashed *string) bool {
	if hashed == nil || *hashed == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(*hashed), []byte(plain)) == nil
}
