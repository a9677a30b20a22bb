package utils // package utils provides hashing helpers shared by repositories and services

import (
	"crypto/sha256" // SHA-256 digest for refresh tokens
	"encoding/hex"  // hex encoding of digests

	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns bcrypt hash using the given cost.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares bcrypt hash and plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// DigestToken returns the SHA-256 hash of a raw token as a hex string.
// Refresh tokens are far longer than bcrypt's 72-byte input limit, so the
// raw token is always reduced to this fixed-length digest before the slow
// hash is applied; skipping this step would make bcrypt silently truncate
// the input and accept forged suffixes.
func DigestToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
