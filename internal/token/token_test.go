package token_test

import (
	"encoding/hex"
	"testing"

	"go_5_auth_keep/internal/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	tok, err := token.Generate()
	require.NoError(t, err)

	// 32バイト = hexで64文字の固定長
	assert.Len(t, tok, token.ByteLength*2)
	_, err = hex.DecodeString(tok)
	assert.NoError(t, err, "トークンはhex文字列であること")
}

func TestGenerate_Uniqueness(t *testing.T) {
	// 連続生成で重複しないこと
	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		tok, err := token.Generate()
		require.NoError(t, err)
		_, dup := seen[tok]
		require.False(t, dup, "トークンが重複した: %s", tok)
		seen[tok] = struct{}{}
	}
}

func TestDigest(t *testing.T) {
	tok, err := token.Generate()
	require.NoError(t, err)

	d1 := token.Digest(tok)
	d2 := token.Digest(tok)

	// 同じ入力には常に同じダイジェスト
	assert.Equal(t, d1, d2)
	// sha256 hex は64文字
	assert.Len(t, d1, 64)
	// ダイジェストから平文は復元できない前提なので、少なくとも一致しないこと
	assert.NotEqual(t, tok, d1)

	other, err := token.Generate()
	require.NoError(t, err)
	assert.NotEqual(t, token.Digest(other), d1)
}
