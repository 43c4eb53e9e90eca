package auth

import (
	"crypto/rand"
	"encoding/base64"
)

// GenerateState creates an unguessable OAuth state value.
func GenerateState() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
