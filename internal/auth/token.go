package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrNoSecret     = errors.New("token secret is not set")
	ErrInvalidToken = errors.New("invalid token")
)

const DefaultTokenTTL = 24 * time.Hour

// TokenManager issues and verifies the HS256 tokens that identify a
// logged-in user, both in the session cookie and in API requests.
type TokenManager struct {
	Secret []byte
	TTL    time.Duration
}

func NewTokenManager(secret string) *TokenManager {
	return &TokenManager{Secret: []byte(secret), TTL: DefaultTokenTTL}
}

func (m *TokenManager) Issue(userID uuid.UUID) (string, error) {
	if len(m.Secret) == 0 {
		return "", ErrNoSecret
	}
	ttl := m.TTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID.String(),
		"exp": now.Add(ttl).Unix(),
		"iat": now.Unix(),
	})

	signed, err := token.SignedString(m.Secret)
	if err != nil {
		return "", fmt.Errorf("error signing token: %w", err)
	}
	return signed, nil
}

// Parse returns the user id carried in a valid token.
func (m *TokenManager) Parse(tokenString string) (uuid.UUID, error) {
	if len(m.Secret) == 0 {
		return uuid.Nil, ErrNoSecret
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return m.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return uuid.Nil, ErrInvalidToken
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return uuid.Nil, ErrInvalidToken
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return id, nil
}
