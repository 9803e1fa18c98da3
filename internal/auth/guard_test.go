// Pulse - Client Site Analytics and Live Visitor Reporting
// Copyright 2026 Draycott Digital
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/draycottdigital/pulse

package auth

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/draycottdigital/pulse/internal/models"
)

func testProject() *models.Project {
	return &models.Project{
		ID:       "acme-co",
		Name:     "Acme Marketing Site",
		ClientID: "client-42",
	}
}

func newTestGuard(t *testing.T) *Guard {
	t.Helper()
	g, err := NewGuard(testSecurityConfig())
	if err != nil {
		t.Fatalf("NewGuard() error: %v", err)
	}
	return g
}

func TestAuthorize_SharedSecretHeader(t *testing.T) {
	g := newTestGuard(t)

	r := httptest.NewRequest("GET", "/api/v1/reports?project_id=acme-co", nil)
	r.Header.Set(APIKeyHeader, "partner-secret")

	if err := g.Authorize(r, testProject()); err != nil {
		t.Errorf("Authorize() with valid header key returned %v", err)
	}
}

func TestAuthorize_SharedSecretQuery(t *testing.T) {
	g := newTestGuard(t)

	r := httptest.NewRequest("GET", "/api/v1/reports?project_id=acme-co&api_key=partner-secret", nil)

	if err := g.Authorize(r, testProject()); err != nil {
		t.Errorf("Authorize() with valid query key returned %v", err)
	}
}

func TestAuthorize_WrongSharedSecret(t *testing.T) {
	g := newTestGuard(t)

	r := httptest.NewRequest("GET", "/api/v1/reports", nil)
	r.Header.Set(APIKeyHeader, "wrong")

	if err := g.Authorize(r, testProject()); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Authorize() = %v, want ErrUnauthorized", err)
	}
}

func TestAuthorize_WrongSecretFallsThroughToBearer(t *testing.T) {
	g := newTestGuard(t)

	token, err := g.jwt.GenerateToken("client-42")
	if err != nil {
		t.Fatalf("GenerateToken() error: %v", err)
	}

	// The two paths are independent; a wrong key must not veto a valid
	// token for the right client.
	r := httptest.NewRequest("GET", "/api/v1/reports", nil)
	r.Header.Set(APIKeyHeader, "wrong")
	r.Header.Set("Authorization", "Bearer "+token)

	if err := g.Authorize(r, testProject()); err != nil {
		t.Errorf("Authorize() with wrong key and valid bearer = %v, want nil", err)
	}
}

func TestAuthorize_WrongSecretAndWrongSubject(t *testing.T) {
	g := newTestGuard(t)

	token, err := g.jwt.GenerateToken("someone-else")
	if err != nil {
		t.Fatalf("GenerateToken() error: %v", err)
	}

	r := httptest.NewRequest("GET", "/api/v1/reports", nil)
	r.Header.Set(APIKeyHeader, "wrong")
	r.Header.Set("Authorization", "Bearer "+token)

	if err := g.Authorize(r, testProject()); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Authorize() = %v, want ErrUnauthorized when both paths fail", err)
	}
}

func TestAuthorize_BearerTokenMatchingSubject(t *testing.T) {
	g := newTestGuard(t)

	token, err := g.jwt.GenerateToken("client-42")
	if err != nil {
		t.Fatalf("GenerateToken() error: %v", err)
	}

	r := httptest.NewRequest("GET", "/api/v1/reports", nil)
	r.Header.Set("Authorization", "Bearer "+token)

	if err := g.Authorize(r, testProject()); err != nil {
		t.Errorf("Authorize() with matching subject returned %v", err)
	}
}

func TestAuthorize_BearerTokenWrongSubject(t *testing.T) {
	g := newTestGuard(t)

	token, err := g.jwt.GenerateToken("someone-else")
	if err != nil {
		t.Fatalf("GenerateToken() error: %v", err)
	}

	r := httptest.NewRequest("GET", "/api/v1/reports", nil)
	r.Header.Set("Authorization", "Bearer "+token)

	if err := g.Authorize(r, testProject()); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Authorize() = %v, want ErrUnauthorized for subject mismatch", err)
	}
}

func TestAuthorize_BearerTokenNilProject(t *testing.T) {
	g := newTestGuard(t)

	token, _ := g.jwt.GenerateToken("client-42")
	r := httptest.NewRequest("GET", "/api/v1/reports", nil)
	r.Header.Set("Authorization", "Bearer "+token)

	if err := g.Authorize(r, nil); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Authorize() = %v, want ErrUnauthorized without project", err)
	}
}

func TestAuthorize_NoCredentials(t *testing.T) {
	g := newTestGuard(t)

	r := httptest.NewRequest("GET", "/api/v1/reports", nil)

	if err := g.Authorize(r, testProject()); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Authorize() = %v, want ErrUnauthorized with no credentials", err)
	}
}

func TestAuthorize_MalformedBearer(t *testing.T) {
	g := newTestGuard(t)

	for _, header := range []string{"Bearer", "Bearer ", "Token abc", "bearer-but-not-really"} {
		r := httptest.NewRequest("GET", "/api/v1/reports", nil)
		r.Header.Set("Authorization", header)

		if err := g.Authorize(r, testProject()); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("Authorize() with header %q = %v, want ErrUnauthorized", header, err)
		}
	}
}

func TestAuthorizeSharedSecret(t *testing.T) {
	g := newTestGuard(t)

	r := httptest.NewRequest("PUT", "/api/v1/projects/acme-co", nil)
	r.Header.Set(APIKeyHeader, "partner-secret")
	if err := g.AuthorizeSharedSecret(r); err != nil {
		t.Errorf("AuthorizeSharedSecret() = %v", err)
	}

	// Bearer tokens never pass the management path
	token, _ := g.jwt.GenerateToken("client-42")
	r = httptest.NewRequest("PUT", "/api/v1/projects/acme-co", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	if err := g.AuthorizeSharedSecret(r); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("AuthorizeSharedSecret() with bearer = %v, want ErrUnauthorized", err)
	}
}
