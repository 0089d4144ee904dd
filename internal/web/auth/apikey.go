// Package auth verifies the credentials accepted by the delivery API: the
// Api-Key header and member bearer tokens.
package auth

import (
	"crypto/sha256"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// HashAPIKey hashes an API key with bcrypt for storage in configuration.
// Keys longer than 72 bytes are rejected (bcrypt's maximum).
func HashAPIKey(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("api key cannot be empty")
	}
	if len(key) > 72 {
		return "", fmt.Errorf("api key exceeds maximum length of 72 bytes")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// APIKeyVerifier checks Api-Key header values against a bcrypt hash. Keys that
// passed once are remembered by digest so bcrypt runs once per key.
type APIKeyVerifier struct {
	hash     []byte
	verified sync.Map
}

// NewAPIKeyVerifier creates a verifier. An empty hash rejects every key.
func NewAPIKeyVerifier(hash string) *APIKeyVerifier {
	return &APIKeyVerifier{hash: []byte(hash)}
}

// Configured reports whether an API key hash is set
func (v *APIKeyVerifier) Configured() bool {
	return len(v.hash) > 0
}

// Verify reports whether key matches the configured hash
func (v *APIKeyVerifier) Verify(key string) bool {
	if key == "" || !v.Configured() {
		return false
	}

	digest := sha256.Sum256([]byte(key))
	if _, ok := v.verified.Load(digest); ok {
		return true
	}
	if bcrypt.CompareHashAndPassword(v.hash, []byte(key)) != nil {
		return false
	}
	v.verified.Store(digest, struct{}{})
	return true
}
