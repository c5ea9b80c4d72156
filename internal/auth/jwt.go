package auth

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrSecretNotInitialized is returned before first-run setup has created a secret
var ErrSecretNotInitialized = errors.New("JWT secret not initialized")

// JWTClaims represents the JWT token claims
type JWTClaims struct {
	UserID         string `json:"user_id"`
	Email          string `json:"email"`
	SessionVersion int    `json:"sv"`
	jwt.RegisteredClaims
}

// Tokens issues and validates HS256 tokens. The secret lives in the Config
// row and is only known after first-run setup, so it can be set late.
type Tokens struct {
	mu     sync.RWMutex
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokens creates a token issuer; secret may be empty until setup
func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// SetSecret installs the signing secret
func (t *Tokens) SetSecret(secret string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.secret = []byte(secret)
}

func (t *Tokens) key() ([]byte, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.secret) == 0 {
		return nil, ErrSecretNotInitialized
	}
	return t.secret, nil
}

// Generate creates a new token for a user at the given session version
func (t *Tokens) Generate(userID, email string, sessionVersion int) (string, error) {
	key, err := t.key()
	if err != nil {
		return "", err
	}

	now := t.now()
	claims := JWTClaims{
		UserID:         userID,
		Email:          email,
		SessionVersion: sessionVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(key)
}

// Validate validates a token and returns the claims
func (t *Tokens) Validate(tokenString string) (*JWTClaims, error) {
	key, err := t.key()
	if err != nil {
		return nil, err
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return key, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}
