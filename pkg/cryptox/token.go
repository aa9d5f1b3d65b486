package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// Token sizes in raw bytes, before base64url encoding.
const (
	// TokenSize128 gives 128 bits of entropy (22 chars encoded).
	TokenSize128 = 16
	// TokenSize256 gives 256 bits of entropy (43 chars encoded). Default
	// for password-reset tokens.
	TokenSize256 = 32
)

// GenerateToken returns a cryptographically random, URL-safe token of the
// given byte size, encoded base64url without padding.
func GenerateToken(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("cryptox: token size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("cryptox: failed to generate random token: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}
