package services

import (
	"crypto/rand"
	"crypto/subtle"
	"time"

	"promptvault/utils/token"
)

type AuthServiceInterface interface {
	Enabled() bool
	IssueToken(appKey string) (string, error)
	ValidateToken(tokenString string) (*token.SessionClaims, error)
}

// AuthService gates the local API behind a shared app key: the desktop
// shell exchanges the key for a short-lived session token. The signing
// secret is generated per process, so tokens die with the backend. With no
// app key configured the API is open (local development).
type AuthService struct {
	appKey []byte
	secret []byte
	ttl    time.Duration
}

func NewAuthService(appKey string, ttlHours int) *AuthService {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		panic(err)
	}
	return &AuthService{
		appKey: []byte(appKey),
		secret: secret,
		ttl:    time.Duration(ttlHours) * time.Hour,
	}
}

func (s *AuthService) Enabled() bool {
	return len(s.appKey) > 0
}

// IssueToken exchanges the configured app key for a session token.
func (s *AuthService) IssueToken(appKey string) (string, error) {
	if !s.Enabled() {
		return "", ErrInvalidCredentials
	}
	if subtle.ConstantTimeCompare(s.appKey, []byte(appKey)) != 1 {
		return "", ErrInvalidCredentials
	}
	return token.GenerateToken(s.secret, s.ttl)
}

func (s *AuthService) ValidateToken(tokenString string) (*token.SessionClaims, error) {
	claims, err := token.ValidateToken(tokenString, s.secret)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
