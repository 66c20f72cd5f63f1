package domain

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"
)

const (
	// TokenPrefix is the prefix for session tokens.
	TokenPrefix = "grtk_"

	// TokenHashPrefix is the prefix for stored token hashes.
	TokenHashPrefix = "grth_"

	TokenBytesLength = 32
	TokenBodyLength  = 43 // base64 raw url of 32 bytes
	TokenLength      = len(TokenPrefix) + TokenBodyLength
	TokenHashLength  = len(TokenHashPrefix) + 64
)

// GenerateToken returns a new plaintext session token and its hash.
// Only the hash is ever persisted; the plaintext goes back to the caller once.
func GenerateToken() (plaintext string, hash string, err error) {
	buf := make([]byte, TokenBytesLength)
	if _, err := rand.Read(buf); err != nil {
		return "", "", ErrInternalServer.WithCause(err)
	}
	plaintext = TokenPrefix + base64.RawURLEncoding.EncodeToString(buf)
	return plaintext, HashToken(plaintext), nil
}

// HashToken computes the storage hash of a plaintext token.
func HashToken(plaintext string) string {
	h := sha256.Sum256([]byte(plaintext))
	return TokenHashPrefix + hex.EncodeToString(h[:])
}

// ValidateTokenFormat checks prefix, length and encoding of a plaintext token.
func ValidateTokenFormat(token string) bool {
	if len(token) != TokenLength || !strings.HasPrefix(token, TokenPrefix) {
		return false
	}
	_, err := base64.RawURLEncoding.DecodeString(token[len(TokenPrefix):])
	return err == nil
}

// MaskSecret masks a token or API key secret for display.
// Example: grtk_ABC...xyz
func MaskSecret(secret string) string {
	if len(secret) < 12 {
		return "***REDACTED***"
	}
	for _, prefix := range []string{TokenPrefix, APIKeySecretPrefix} {
		if strings.HasPrefix(secret, prefix) {
			body := secret[len(prefix):]
			return prefix + body[:3] + "..." + body[len(body)-3:]
		}
	}
	return "***REDACTED***"
}
