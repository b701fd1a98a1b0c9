// Excalidraw Self-Hosted - Whiteboard Persistence and Sync Backend
// Copyright 2026 fakuuy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fakuuy/excalidraw

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/fakuuy/excalidraw/internal/logging"
	"github.com/fakuuy/excalidraw/internal/metrics"
	"github.com/fakuuy/excalidraw/internal/models"
	"github.com/fakuuy/excalidraw/internal/scene"
	"github.com/fakuuy/excalidraw/internal/store"
	"github.com/fakuuy/excalidraw/internal/validation"
)

// roomID extracts and validates the room identifier path parameter.
// Returns "" after writing the error response when invalid.
func roomID(w http.ResponseWriter, r *http.Request) string {
	id := chi.URLParam(r, "roomID")
	if !validation.ValidRoomID(id) {
		respondError(w, http.StatusBadRequest, models.CodeValidation, "invalid room identifier", nil)
		return ""
	}
	return id
}

// GetScene returns a room's persisted scene document.
//
// Method: GET
// Path: /api/v2/rooms/{roomID}
//
// Response:
//   - 200: scene document
//   - 404: room has never been saved (code NOT_FOUND — expected, clients
//     treat it as "start with an empty scene")
//   - 500: storage error
func (h *Handler) GetScene(w http.ResponseWriter, r *http.Request) {
	id := roomID(w, r)
	if id == "" {
		return
	}
	start := time.Now()

	doc, err := h.store.GetScene(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		metrics.SceneLoads.WithLabelValues("not_found").Inc()
		respondError(w, http.StatusNotFound, models.CodeNotFound, "scene not found", nil)
		return
	}
	if err != nil {
		metrics.SceneLoads.WithLabelValues("error").Inc()
		respondError(w, http.StatusInternalServerError, models.CodeStorage, "failed to load scene", err)
		return
	}

	metrics.SceneLoads.WithLabelValues("ok").Inc()
	respondOK(w, http.StatusOK, doc, start)
}

// SaveScene persists a room's scene document and notifies the room's
// websocket peers.
//
// Method: PUT
// Path: /api/v2/rooms/{roomID}
//
// The store is last-write-wins by design: concurrent editors reconcile
// before saving, so the document arriving here is already merged. The
// scene version is recomputed server-side from the decodable elements;
// the client-supplied version is advisory.
//
// Response:
//   - 200: saved, body carries the persisted version
//   - 400: body is not valid JSON or fails validation
//   - 500: storage error
func (h *Handler) SaveScene(w http.ResponseWriter, r *http.Request) {
	id := roomID(w, r)
	if id == "" {
		return
	}
	start := time.Now()

	var req models.SaveSceneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, models.CodeMalformed, "request body is not a valid scene", nil)
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		respondError(w, http.StatusBadRequest, models.CodeValidation, err.Error(), nil)
		return
	}

	elements, skipped := scene.DecodeElements(req.Elements)
	if skipped > 0 {
		logging.Ctx(r.Context()).Warn().
			Str("room_id", id).
			Int("skipped", skipped).
			Msg("scene contains undecodable elements")
	}
	version := scene.Version(elements)
	if req.Version != 0 && req.Version != version {
		logging.Ctx(r.Context()).Debug().
			Str("room_id", id).
			Int64("client_version", req.Version).
			Int64("computed_version", version).
			Msg("client scene version differs from computed")
	}

	doc := &models.SceneDocument{
		RoomID:    id,
		Elements:  req.Elements,
		ViewState: req.ViewState,
		Version:   version,
	}
	if err := h.store.PutScene(r.Context(), doc); err != nil {
		metrics.SceneSaves.WithLabelValues("error").Inc()
		respondError(w, http.StatusInternalServerError, models.CodeStorage, "failed to save scene", err)
		return
	}

	metrics.SceneSaves.WithLabelValues("ok").Inc()
	metrics.SceneElements.Observe(float64(len(req.Elements)))

	// Tell the room's peers a new version exists; they re-sync over HTTP.
	h.hub.SceneChanged(id, version)

	respondOK(w, http.StatusOK, &models.SaveSceneResponse{RoomID: id, Version: version}, start)
}
