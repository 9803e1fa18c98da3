// Pulse - Client Site Analytics and Live Visitor Reporting
// Copyright 2026 Draycott Digital
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/draycottdigital/pulse

package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/draycottdigital/pulse/internal/config"
)

func testSecurityConfig() config.SecurityConfig {
	return config.SecurityConfig{
		SharedSecret: "partner-secret",
		JWTSecret:    strings.Repeat("k", 32),
		TokenTTL:     time.Hour,
	}
}

func TestNewJWTManager_RequiresSecret(t *testing.T) {
	cfg := testSecurityConfig()
	cfg.JWTSecret = ""

	if _, err := NewJWTManager(cfg); err == nil {
		t.Error("NewJWTManager() should fail with empty secret")
	}

	cfg.JWTSecret = "too-short"
	if _, err := NewJWTManager(cfg); err == nil {
		t.Error("NewJWTManager() should fail with short secret")
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	mgr, err := NewJWTManager(testSecurityConfig())
	if err != nil {
		t.Fatalf("NewJWTManager() error: %v", err)
	}

	token, err := mgr.GenerateToken("client-42")
	if err != nil {
		t.Fatalf("GenerateToken() error: %v", err)
	}

	claims, err := mgr.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error: %v", err)
	}
	if claims.Subject != "client-42" {
		t.Errorf("Subject = %q, want client-42", claims.Subject)
	}
	if claims.ExpiresAt == nil || time.Until(claims.ExpiresAt.Time) > time.Hour {
		t.Errorf("ExpiresAt = %v, want within 1h", claims.ExpiresAt)
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	mgr, _ := NewJWTManager(testSecurityConfig())

	otherCfg := testSecurityConfig()
	otherCfg.JWTSecret = strings.Repeat("x", 32)
	other, _ := NewJWTManager(otherCfg)

	token, err := other.GenerateToken("client-42")
	if err != nil {
		t.Fatalf("GenerateToken() error: %v", err)
	}

	if _, err := mgr.ValidateToken(token); err == nil {
		t.Error("ValidateToken() should reject token signed with different secret")
	}
}

func TestValidateToken_Expired(t *testing.T) {
	cfg := testSecurityConfig()
	cfg.TokenTTL = -time.Minute
	mgr, _ := NewJWTManager(cfg)

	token, err := mgr.GenerateToken("client-42")
	if err != nil {
		t.Fatalf("GenerateToken() error: %v", err)
	}

	if _, err := mgr.ValidateToken(token); err == nil {
		t.Error("ValidateToken() should reject expired token")
	}
}

func TestValidateToken_Malformed(t *testing.T) {
	mgr, _ := NewJWTManager(testSecurityConfig())

	for _, token := range []string{"", "garbage", "a.b.c"} {
		if _, err := mgr.ValidateToken(token); err == nil {
			t.Errorf("ValidateToken(%q) should fail", token)
		}
	}
}
