// Package credential holds the one-way transforms applied to user
// secrets: the password hash stored instead of the plaintext, and the
// channel token derived from it that names the user's private realtime
// channel.
package credential

import (
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword runs plaintext through bcrypt at the given cost. A
// fresh salt is baked into every digest, so the output is stable only
// once stored.
func HashPassword(plaintext string, cost int) (string, error) {
	buf, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return "", fmt.Errorf("unable to hash password, cause %w", err)
	}
	return string(buf), nil
}

// Verify reports whether plaintext matches digest. bcrypt compares in
// constant time, so a partial match leaks nothing through timing.
func Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}

// DeriveChannelToken computes the name of the private channel owned by
// username. The input is username||passwordHash, pre-digested with
// SHA-256 because bcrypt only reads the first 72 bytes and the
// password-hash suffix must never fall off for long usernames. Nobody
// without the password hash can predict the result.
func DeriveChannelToken(username, passwordHash string, cost int) (string, error) {
	sum := sha256.Sum256([]byte(username + passwordHash))
	buf, err := bcrypt.GenerateFromPassword(sum[:], cost)
	if err != nil {
		return "", fmt.Errorf("unable to derive channel token for %v, cause %w", username, err)
	}
	return string(buf), nil
}
