// Package token は推測不可能な不透明トークンの生成と、
// 保存用ダイジェストの計算を担当します。
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ByteLength は生成するトークンの乱数バイト長。
// hexエンコード後の文字列長は ByteLength*2 になる。
const ByteLength = 32

// Generate はCSPRNGから固定長の不透明トークンを生成します
func Generate() (string, error) {
	b := make([]byte, ByteLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("token.Generate: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Digest はトークンの保存用ダイジェスト(sha256 hex)を返します。
// 入力はフル乱数のトークンなので、パスワード用の遅いハッシュではなく
// 衝突耐性のある高速ハッシュで十分です。
func Digest(tok string) string {
	sum := sha256.Sum256([]byte(tok))
	return hex.EncodeToString(sum[:])
}
