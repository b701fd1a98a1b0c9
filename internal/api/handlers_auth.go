// Excalidraw Self-Hosted - Whiteboard Persistence and Sync Backend
// Copyright 2026 fakuuy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fakuuy/excalidraw

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/fakuuy/excalidraw/internal/auth"
	"github.com/fakuuy/excalidraw/internal/logging"
	"github.com/fakuuy/excalidraw/internal/models"
	"github.com/fakuuy/excalidraw/internal/validation"
)

// Login verifies the admin credential and issues a bearer token.
//
// Method: POST
// Path: /api/v2/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, models.CodeMalformed, "request body is not a valid login request", nil)
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		respondError(w, http.StatusBadRequest, models.CodeValidation, err.Error(), nil)
		return
	}

	token, expiresAt, err := h.jwt.Login(req.Username, req.Password)
	if errors.Is(err, auth.ErrBadCredentials) {
		logging.Ctx(r.Context()).Warn().Str("username", req.Username).Msg("failed login attempt")
		respondError(w, http.StatusUnauthorized, models.CodeUnauthorized, "invalid username or password", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, models.CodeStorage, "failed to issue token", err)
		return
	}

	respondOK(w, http.StatusOK, &models.LoginResponse{Token: token, ExpiresAt: expiresAt}, time.Now())
}

// Health reports liveness. Unauthenticated; used by container health
// checks and load balancers.
//
// Method: GET
// Path: /api/v2/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondOK(w, http.StatusOK, map[string]string{"status": "ok"}, time.Now())
}
