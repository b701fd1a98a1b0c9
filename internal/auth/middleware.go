// Excalidraw Self-Hosted - Whiteboard Persistence and Sync Backend
// Copyright 2026 fakuuy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fakuuy/excalidraw

package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/fakuuy/excalidraw/internal/logging"
	"github.com/fakuuy/excalidraw/internal/models"
)

type contextKey string

// usernameKey carries the authenticated username through the request
// context.
const usernameKey contextKey = "auth_username"

// UsernameFromContext returns the authenticated username, or "".
func UsernameFromContext(ctx context.Context) string {
	if u, ok := ctx.Value(usernameKey).(string); ok {
		return u
	}
	return ""
}

// BearerToken extracts the token from an Authorization header or, for
// websocket upgrades where custom headers are awkward, a ?token= query
// parameter. Returns "" when neither is present.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

// Middleware returns a chi-compatible middleware that rejects requests
// without a valid bearer token. An authorization failure is its own
// error kind on the wire (401, code UNAUTHORIZED), distinct from 404 and
// transport-level failures, so clients can surface re-authentication
// instead of retrying.
func (m *JWTManager) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				unauthorized(w, "missing bearer token")
				return
			}

			claims, err := m.ValidateToken(token)
			if err != nil {
				logging.Ctx(r.Context()).Debug().Err(err).Msg("rejected bearer token")
				unauthorized(w, "invalid bearer token")
				return
			}

			ctx := context.WithValue(r.Context(), usernameKey, claims.Username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// unauthorized writes the 401 envelope directly; the api package's
// responder helpers are not imported here to keep auth free of an api
// dependency cycle.
func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(&models.APIResponse{
		Status: "error",
		Error: &models.APIError{
			Code:    models.CodeUnauthorized,
			Message: message,
		},
	})
}
