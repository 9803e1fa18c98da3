// Pulse - Client Site Analytics and Live Visitor Reporting
// Copyright 2026 Draycott Digital
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/draycottdigital/pulse

package auth

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/draycottdigital/pulse/internal/config"
	"github.com/draycottdigital/pulse/internal/logging"
	"github.com/draycottdigital/pulse/internal/metrics"
	"github.com/draycottdigital/pulse/internal/models"
)

// ErrUnauthorized is the single error returned for every authorization
// failure. Callers map it to a generic 401; the specific reason is only
// logged, never surfaced to the client.
var ErrUnauthorized = errors.New("unauthorized")

// APIKeyHeader is the header carrying the partner shared secret.
const APIKeyHeader = "x-api-key"

// APIKeyQueryParam is the query parameter fallback for the shared secret,
// for callers that cannot set headers.
const APIKeyQueryParam = "api_key"

// Guard authorizes report requests. A request passes with either the
// partner shared secret or a Bearer token whose subject matches the
// project's client identifier.
type Guard struct {
	sharedSecret []byte
	jwt          *JWTManager
}

// NewGuard builds a Guard from security configuration. At least one of the
// shared secret or the JWT secret must be configured, which config
// validation guarantees.
func NewGuard(cfg config.SecurityConfig) (*Guard, error) {
	g := &Guard{}

	if cfg.SharedSecret != "" {
		g.sharedSecret = []byte(cfg.SharedSecret)
	}

	if cfg.JWTSecret != "" {
		mgr, err := NewJWTManager(cfg)
		if err != nil {
			return nil, err
		}
		g.jwt = mgr
	}

	if g.sharedSecret == nil && g.jwt == nil {
		return nil, errors.New("guard requires a shared secret or a JWT secret")
	}

	return g, nil
}

// Authorize checks the request's credentials against the given project.
// The two paths are independent and evaluated in order, first success
// wins: a wrong shared secret does not block a valid Bearer token. project
// may be nil on the shared-secret-only paths; the Bearer path always
// requires a project to match the token subject against.
func (g *Guard) Authorize(r *http.Request, project *models.Project) error {
	if key := extractAPIKey(r); key != "" && g.sharedSecret != nil &&
		subtle.ConstantTimeCompare([]byte(key), g.sharedSecret) == 1 {
		return nil
	}

	if token := extractBearerToken(r); token != "" && g.jwt != nil {
		claims, err := g.jwt.ValidateToken(token)
		switch {
		case err != nil:
			logging.Ctx(r.Context()).Warn().Err(err).Msg("rejected bearer token")
		case project == nil || claims.Subject == "" || claims.Subject != project.ClientID:
			logging.Ctx(r.Context()).Warn().Str("subject", claims.Subject).Msg("rejected token for mismatched client")
		default:
			return nil
		}
	}

	logging.Ctx(r.Context()).Warn().Str("remote", r.RemoteAddr).Msg("rejected unauthorized request")
	metrics.APIAuthFailures.Inc()
	return ErrUnauthorized
}

// AuthorizeSharedSecret checks the shared secret only. Used by the project
// management endpoints, which are partner-facing and never token-scoped.
func (g *Guard) AuthorizeSharedSecret(r *http.Request) error {
	key := extractAPIKey(r)
	if key != "" && g.sharedSecret != nil && subtle.ConstantTimeCompare([]byte(key), g.sharedSecret) == 1 {
		return nil
	}

	logging.Ctx(r.Context()).Warn().Str("remote", r.RemoteAddr).Msg("rejected management request")
	metrics.APIAuthFailures.Inc()
	return ErrUnauthorized
}

func extractAPIKey(r *http.Request) string {
	if key := r.Header.Get(APIKeyHeader); key != "" {
		return key
	}
	return r.URL.Query().Get(APIKeyQueryParam)
}

func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return header[len(prefix):]
	}
	return ""
}
