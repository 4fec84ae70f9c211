package service

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// TokenService mints and checks the opaque per-attempt session tokens.
// A token is bound to exactly one download cycle: every package issue
// overwrites the assignment's stored token, so stale tokens die the moment
// a fresh download happens.
type TokenService struct{}

// NewTokenService creates a new TokenService.
func NewTokenService() *TokenService {
	return &TokenService{}
}

// TokenLength is the hex length of an issued token (32 random bytes).
const TokenLength = 64

// Issue generates a cryptographically random opaque token.
func (s *TokenService) Issue() (string, error) {
	raw := make([]byte, TokenLength/2)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return hex.EncodeToString(raw), nil
}

// Validate compares a presented token against the stored one in constant
// time. A nil stored token (never downloaded) never matches.
func (s *TokenService) Validate(stored *string, presented string) bool {
	if stored == nil || len(presented) != TokenLength {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(*stored), []byte(presented)) == 1
}
