package identity

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/crypto/scrypt"
)

// scrypt parameters. 16 byte random salt, 64 byte derived key, costs per the
// OWASP password storage guidance.
const (
	scryptN       = 16384
	scryptR       = 8
	scryptP       = 1
	saltLength    = 16
	derivedKeyLen = 64
)

// HashPassword derives a key from the password with a fresh random salt and
// returns it encoded as "saltHex:derivedKeyHex". Two calls with the same
// password produce different results.
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	key, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, derivedKeyLen)
	if err != nil {
		return "", fmt.Errorf("failed to derive key: %w", err)
	}
	return hex.EncodeToString(salt) + ":" + hex.EncodeToString(key), nil
}

// VerifyPassword re-derives the key from the supplied password and the stored
// salt and compares in constant time. Malformed stored hashes verify as
// false rather than erroring.
func VerifyPassword(storedHash, password string) bool {
	parts := strings.SplitN(storedHash, ":", 2)
	if len(parts) != 2 {
		return false
	}
	salt, err := hex.DecodeString(parts[0])
	if err != nil {
		return false
	}
	expected, err := hex.DecodeString(parts[1])
	if err != nil {
		return false
	}
	key, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, derivedKeyLen)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(expected, key) == 1
}

// GenerateRandomToken returns n cryptographically random bytes hex encoded.
func GenerateRandomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

var permalinkInvalid = regexp.MustCompile(`[^a-z0-9]+`)

// Permalink derives a URL-safe slug from a display name: lower-cased, every
// run of characters outside [a-z0-9] collapsed to a single hyphen, leading
// and trailing hyphens stripped.
func Permalink(name string) string {
	slug := permalinkInvalid.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}
