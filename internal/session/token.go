// Package session issues the signed session token and guards routes that
// need a signed-in user.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/estr/backoffice/internal/domain/entity"
)

var (
	ErrNoSession    = errors.New("no session")
	ErrInvalidToken = errors.New("invalid session token")
	ErrUserMismatch = errors.New("session user does not match identity cookie")
)

// Claims is the payload of the session token
type Claims struct {
	UserID     string `json:"user_id"`
	BranchCode string `json:"branch_code"`
	Role       string `json:"role"`
	Name       string `json:"name"`
	jwt.RegisteredClaims
}

// Profile returns the signed-in user described by the claims
func (c *Claims) Profile() *entity.Profile {
	return &entity.Profile{
		UserID:     c.UserID,
		Name:       c.Name,
		BranchCode: c.BranchCode,
		Role:       c.Role,
	}
}

// Config holds token and cookie settings
type Config struct {
	Secret       string
	Issuer       string
	TTL          time.Duration
	SecureCookie bool
	CookieDomain string
}

// Manager signs and verifies session tokens
type Manager struct {
	cfg Config
	now func() time.Time
}

// NewManager creates a Manager
func NewManager(cfg Config) *Manager {
	if cfg.TTL <= 0 {
		cfg.TTL = 8 * time.Hour
	}
	return &Manager{cfg: cfg, now: time.Now}
}

// Issue signs a token for profile and returns it with its expiry
func (m *Manager) Issue(profile *entity.Profile) (string, time.Time, error) {
	now := m.now()
	expires := now.Add(m.cfg.TTL)

	claims := &Claims{
		UserID:     profile.UserID,
		BranchCode: profile.BranchCode,
		Role:       profile.Role,
		Name:       profile.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   profile.UserID,
			Issuer:    m.cfg.Issuer,
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(m.cfg.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, expires, nil
}

// Parse verifies a token's signature, issuer and expiry
func (m *Manager) Parse(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrNoSession
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	}
	if m.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.cfg.Issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(m.cfg.Secret), nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
