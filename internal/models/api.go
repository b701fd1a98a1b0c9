// Excalidraw Self-Hosted - Whiteboard Persistence and Sync Backend
// Copyright 2026 fakuuy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fakuuy/excalidraw

// Package models defines the wire types shared between the HTTP API and
// its clients.
package models

import (
	"time"

	"github.com/goccy/go-json"

	"github.com/fakuuy/excalidraw/internal/scene"
)

// APIResponse is the envelope for every JSON response.
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata for observability.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
}

// APIError carries a machine-readable code alongside the human-readable
// message. Clients branch on Code, never on Message.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Error codes returned by the API. The client maps these onto its error
// taxonomy, so the set is part of the wire contract.
const (
	CodeNotFound     = "NOT_FOUND"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeConflict     = "CONFLICT"
	CodeTooLarge     = "PAYLOAD_TOO_LARGE"
	CodeValidation   = "VALIDATION_ERROR"
	CodeStorage      = "STORAGE_ERROR"
	CodeMalformed    = "MALFORMED_DATA"
)

// SceneDocument is the persisted form of a room's scene. Elements stay
// raw on the wire so a partially corrupt element can be skipped during
// decode without poisoning its neighbors.
type SceneDocument struct {
	RoomID    string            `json:"roomId"`
	Elements  []json.RawMessage `json:"elements"`
	ViewState scene.ViewState   `json:"appState"`
	Version   int64             `json:"version"`
	SavedAt   time.Time         `json:"savedAt"`
}

// SaveSceneRequest is the PUT body for persisting a room's scene.
type SaveSceneRequest struct {
	Elements  []json.RawMessage `json:"elements" validate:"required"`
	ViewState scene.ViewState   `json:"appState"`
	Version   int64             `json:"version" validate:"min=0"`
}

// SaveSceneResponse acknowledges a persisted scene.
type SaveSceneResponse struct {
	RoomID  string `json:"roomId"`
	Version int64  `json:"version"`
}

// FileDocument is the upload/download form of a binary attachment.
// Payload travels base64-encoded inside JSON.
type FileDocument struct {
	ID       string `json:"id"`
	MimeType string `json:"mimeType"`
	Payload  []byte `json:"payload"`
}

// LoginRequest is the POST body for obtaining a bearer token.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the issued bearer token.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
