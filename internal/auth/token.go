package auth

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/blake2b"
)

const bearerPrefix = "bearer "

// BearerToken extracts the credential from an Authorization header value.
// The scheme is matched case-insensitively. It returns "" when the header is
// missing, uses another scheme, or carries an empty token.
func BearerToken(header string) string {
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(header[len(bearerPrefix):])
}

// Fingerprint returns a fixed-length digest of a bearer token for use as a
// cache key. The token itself is never stored.
func Fingerprint(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
