// Excalidraw Self-Hosted - Whiteboard Persistence and Sync Backend
// Copyright 2026 fakuuy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fakuuy/excalidraw

// Package auth issues and verifies the bearer credential attached to
// every API request. Token issuance is deliberately minimal (a single
// admin credential checked against a bcrypt hash); federated flows are
// out of scope for this deployment.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/fakuuy/excalidraw/internal/config"
)

// Sentinel errors.
var (
	// ErrInvalidToken covers missing, malformed, expired, and
	// wrong-signature tokens alike; the API reports them all as 401.
	ErrInvalidToken = errors.New("invalid token")

	// ErrBadCredentials is returned by Login on a wrong username or
	// password. Deliberately indistinguishable between the two.
	ErrBadCredentials = errors.New("invalid username or password")
)

// Claims are the JWT claims carried by an issued token.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// JWTManager creates and validates HS256 bearer tokens.
type JWTManager struct {
	secret        []byte
	timeout       time.Duration
	adminUsername string
	adminHash     []byte
}

// NewJWTManager builds a manager from the security configuration.
// The JWT secret must be configured and at least 32 characters.
func NewJWTManager(cfg *config.SecurityConfig) (*JWTManager, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("SECURITY_JWT_SECRET is required but was empty")
	}
	if len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("SECURITY_JWT_SECRET must be at least 32 characters")
	}

	return &JWTManager{
		secret:        []byte(cfg.JWTSecret),
		timeout:       cfg.SessionTimeout,
		adminUsername: cfg.AdminUsername,
		adminHash:     []byte(cfg.AdminPasswordHash),
	}, nil
}

// Login verifies the admin credential and issues a token. The password
// check is bcrypt, so config only ever holds a hash.
func (m *JWTManager) Login(username, password string) (token string, expiresAt time.Time, err error) {
	if username != m.adminUsername || len(m.adminHash) == 0 {
		// Burn a comparison anyway so the two failure paths take
		// similar time.
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$0000000000000000000000000000000000000000000000000000"), []byte(password))
		return "", time.Time{}, ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword(m.adminHash, []byte(password)); err != nil {
		return "", time.Time{}, ErrBadCredentials
	}
	return m.GenerateToken(username)
}

// GenerateToken creates a signed token for an authenticated user.
func (m *JWTManager) GenerateToken(username string) (token string, expiresAt time.Time, err error) {
	expiresAt = time.Now().Add(m.timeout)
	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateToken parses and verifies a bearer token, returning its claims.
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
