package security

import (
	"crypto/rand"
	"encoding/base64"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// tokenHashCost matches the work factor the legacy service used for its
// one-time tokens. Tokens carry ~122 bits of entropy, so a moderate cost
// keeps validation latency acceptable.
const tokenHashCost = 10

// HashToken produces a salted bcrypt hash of a raw one-time token.
func HashToken(raw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), tokenHashCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CompareToken reports whether the presented raw token matches the stored
// hash. bcrypt's comparison is constant-time over the digest.
func CompareToken(hash, raw string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(raw))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, err
}

// NewRandomString returns a URL-safe random string carrying n bytes of
// entropy.
func NewRandomString(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
