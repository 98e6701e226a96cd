package auth

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Continuation secrets authenticate resumption of an exam attempt. Only the
// bcrypt hash is ever persisted; the plaintext is shown to the student once.

const secretBytes = 20

// Cost for hashing continuation secrets. Lower than a password cost would be
// since secrets are high-entropy random strings, not guessable phrases.
const SecretHashCost = 10

// NewContinuationSecret generates a high-entropy secret and its bcrypt hash.
func NewContinuationSecret() (plaintext, hash string, err error) {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("failed to generate secret: %w", err)
	}
	plaintext = base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(buf)

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), SecretHashCost)
	if err != nil {
		return "", "", fmt.Errorf("failed to hash secret: %w", err)
	}
	return plaintext, string(hashed), nil
}

// CheckContinuationSecret verifies a plaintext secret against its stored hash.
func CheckContinuationSecret(hash, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
