package cryptox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	SetPepperPath(t.TempDir() + "/pepper")

	t.Run("produces PHC format", func(t *testing.T) {
		hash, err := HashPassword("secret1")
		require.NoError(t, err)

		parts := strings.Split(hash, "$")
		require.Len(t, parts, 6)
		require.Equal(t, "argon2id", parts[1])
		require.Equal(t, "v=19", parts[2])
		require.Contains(t, parts[3], "m=")
		require.Contains(t, parts[3], "t=")
		require.Contains(t, parts[3], "p=")
	})

	t.Run("same password hashes differently", func(t *testing.T) {
		a, err := HashPassword("secret1")
		require.NoError(t, err)
		b, err := HashPassword("secret1")
		require.NoError(t, err)
		require.NotEqual(t, a, b)
	})
}

func TestVerifyPassword(t *testing.T) {
	SetPepperPath(t.TempDir() + "/pepper")

	hash, err := HashPassword("correct horse")
	require.NoError(t, err)

	t.Run("accepts matching password", func(t *testing.T) {
		require.NoError(t, VerifyPassword("correct horse", hash))
	})

	t.Run("rejects wrong password", func(t *testing.T) {
		require.ErrorIs(t, VerifyPassword("battery staple", hash), ErrPasswordMismatch)
	})

	t.Run("rejects malformed hash", func(t *testing.T) {
		require.Error(t, VerifyPassword("anything", "not-a-hash"))
		require.Error(t, VerifyPassword("anything", "$argon2id$v=19$m=19456,t=2,p=1$short"))
	})
}

func TestGenerateToken(t *testing.T) {
	t.Run("is URL safe and unique", func(t *testing.T) {
		seen := make(map[string]struct{})
		for range 64 {
			tok, err := GenerateToken(TokenSize256)
			require.NoError(t, err)
			require.NotContains(t, tok, "+")
			require.NotContains(t, tok, "/")
			require.NotContains(t, tok, "=")
			_, dup := seen[tok]
			require.False(t, dup, "token collision")
			seen[tok] = struct{}{}
		}
	})

	t.Run("rejects non-positive size", func(t *testing.T) {
		_, err := GenerateToken(0)
		require.Error(t, err)
	})
}
