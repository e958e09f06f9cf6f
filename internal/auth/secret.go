package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// SecretBytes is the entropy of an email token secret.
const SecretBytes = 60

// NewSecret returns SecretBytes random bytes, hex encoded.
func NewSecret() (string, error) {
	b := make([]byte, SecretBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
