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

	"github.com/fakuuy/excalidraw/internal/models"
	"github.com/fakuuy/excalidraw/internal/store"
	"github.com/fakuuy/excalidraw/internal/validation"
)

// UploadFile stores one binary attachment for a room.
//
// Method: POST
// Path: /api/v2/rooms/{roomID}/files/{fileID}
//
// Duplicate policy is first-write-wins: re-uploading identical content
// is an idempotent 201; different content under an existing ID is a 409
// CONFLICT. Oversize payloads are a 413.
func (h *Handler) UploadFile(w http.ResponseWriter, r *http.Request) {
	id := roomID(w, r)
	if id == "" {
		return
	}
	fileID := chi.URLParam(r, "fileID")
	if !validation.ValidRoomID(fileID) {
		respondError(w, http.StatusBadRequest, models.CodeValidation, "invalid file identifier", nil)
		return
	}
	start := time.Now()

	// Base64 inflates payloads by a third; bound the body accordingly
	// so an oversize upload fails early instead of buffering.
	r.Body = http.MaxBytesReader(w, r.Body, h.store.MaxFileSize()*2)

	var req models.FileDocument
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, models.CodeTooLarge, "file exceeds size limit", nil)
			return
		}
		respondError(w, http.StatusBadRequest, models.CodeMalformed, "request body is not a valid file document", nil)
		return
	}
	req.ID = fileID

	err := h.store.PutFile(r.Context(), id, &req)
	switch {
	case errors.Is(err, store.ErrTooLarge):
		respondError(w, http.StatusRequestEntityTooLarge, models.CodeTooLarge, "file exceeds size limit", nil)
		return
	case errors.Is(err, store.ErrConflict):
		respondError(w, http.StatusConflict, models.CodeConflict, "file already exists with different content", nil)
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, models.CodeStorage, "failed to store file", err)
		return
	}

	respondOK(w, http.StatusCreated, map[string]string{"id": fileID}, start)
}

// DownloadFile returns one binary attachment.
//
// Method: GET
// Path: /api/v2/rooms/{roomID}/files/{fileID}
//
// Response:
//   - 200: file document (payload base64 inside JSON)
//   - 404: unknown file ID (expected; the element may reference a file
//     another peer has not uploaded yet)
func (h *Handler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	id := roomID(w, r)
	if id == "" {
		return
	}
	fileID := chi.URLParam(r, "fileID")
	if !validation.ValidRoomID(fileID) {
		respondError(w, http.StatusBadRequest, models.CodeValidation, "invalid file identifier", nil)
		return
	}
	start := time.Now()

	file, err := h.store.GetFile(r.Context(), id, fileID)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, models.CodeNotFound, "file not found", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, models.CodeStorage, "failed to load file", err)
		return
	}

	respondOK(w, http.StatusOK, file, start)
}
