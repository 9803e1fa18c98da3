// Pulse - Client Site Analytics and Live Visitor Reporting
// Copyright 2026 Draycott Digital
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/draycottdigital/pulse

package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/draycottdigital/pulse/internal/config"
)

// Claims represents the JWT claims carried by client dashboard tokens.
// The registered Subject claim holds the client identifier and is matched
// against the project's ClientID during authorization.
type Claims struct {
	jwt.RegisteredClaims
}

// JWTManager handles JWT token creation and validation.
type JWTManager struct {
	secret  []byte
	timeout time.Duration
}

// NewJWTManager creates a JWT token manager with the configured secret and
// token lifetime. The manager uses HMAC-SHA256 signing.
//
// Security Requirements:
//   - The secret must be at least 32 characters
//   - Secret is stored as []byte to prevent string interning attacks
func NewJWTManager(cfg config.SecurityConfig) (*JWTManager, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but was empty")
	}
	if len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}

	return &JWTManager{
		secret:  []byte(cfg.JWTSecret),
		timeout: cfg.TokenTTL,
	}, nil
}

// GenerateToken creates a signed token whose subject is the given client
// identifier. The token is valid for the configured lifetime.
func (m *JWTManager) GenerateToken(clientID string) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   clientID,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.timeout)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signedToken, nil
}

// ValidateToken validates a token string and extracts its claims.
//
// Validation Steps:
//  1. Parse token structure and extract claims
//  2. Verify HMAC-SHA256 signature matches secret
//  3. Check signing algorithm is HMAC (prevents algorithm confusion attacks)
//  4. Verify ExpiresAt and NotBefore against server time
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	return claims, nil
}
