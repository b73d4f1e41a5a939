package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrBadSecret is returned when the provisioning secret does not match.
var ErrBadSecret = errors.New("invalid provisioning secret")

const bcryptCost = 10

// Service issues and validates panel session tokens. A panel exchanges the
// device's provisioning secret for a short-lived token once, then presents
// the token on every websocket attach.
type Service struct {
	cfg        *JWTConfig
	deviceID   string
	secretHash string
}

// NewService builds the auth service. secretHash is the bcrypt hash of the
// provisioning secret; an empty hash disables session issuing.
func NewService(cfg *JWTConfig, deviceID, secretHash string) *Service {
	return &Service{cfg: cfg, deviceID: deviceID, secretHash: secretHash}
}

// IssueSession exchanges the provisioning secret for a session token.
func (s *Service) IssueSession(secret string) (string, error) {
	if s.secretHash == "" {
		return "", fmt.Errorf("session issuing disabled: no provisioning secret configured")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.secretHash), []byte(secret)); err != nil {
		return "", ErrBadSecret
	}
	return GenerateToken(s.cfg, s.deviceID)
}

// ValidateSession checks a session token and returns its claims.
func (s *Service) ValidateSession(token string) (*Claims, error) {
	return ValidateToken(s.cfg, token)
}

// HashSecret generates a bcrypt hash for a new provisioning secret. Exposed
// for the hash-secret CLI command.
func HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash secret: %w", err)
	}
	return string(hash), nil
}
