package internal

import (
	"crypto/rand"
	"encoding/base64"
)

const stateTokenSize = 32

// NewStateToken returns a fresh unguessable value for the OAuth state
// parameter, base64url without padding.
func NewStateToken() (string, error) {
	var raw [stateTokenSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}
