package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// Token sizes in bytes before encoding.
const (
	// TokenSize128 gives 22 chars of base64url.
	TokenSize128 = 16
	// TokenSize256 gives 43 chars of base64url. Download tokens use this.
	TokenSize256 = 32
)

// EncodedLen reports the length of a base64url token generated with size bytes.
func EncodedLen(size int) int {
	return base64.RawURLEncoding.EncodedLen(size)
}

// GenerateToken returns size random bytes from crypto/rand encoded as
// unpadded base64url. The result is always EncodedLen(size) characters long.
func GenerateToken(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("token size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// MustGenerateToken is like GenerateToken but panics on error.
func MustGenerateToken(size int) string {
	token, err := GenerateToken(size)
	if err != nil {
		panic(fmt.Sprintf("cryptox: failed to generate token: %v", err))
	}
	return token
}

// FingerprintToken returns the SHA-256 of token as base64url (43 chars).
// Stores key records by fingerprint so a leaked table holds no usable tokens.
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// ShortFingerprint is the first 8 chars of a fingerprint, safe for logs.
func ShortFingerprint(fingerprint string) string {
	if len(fingerprint) <= 8 {
		return fingerprint
	}
	return fingerprint[:8]
}
