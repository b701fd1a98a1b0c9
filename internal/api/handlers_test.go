// Excalidraw Self-Hosted - Whiteboard Persistence and Sync Backend
// Copyright 2026 fakuuy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fakuuy/excalidraw

package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/crypto/bcrypt"

	"github.com/fakuuy/excalidraw/internal/auth"
	"github.com/fakuuy/excalidraw/internal/config"
	"github.com/fakuuy/excalidraw/internal/models"
	"github.com/fakuuy/excalidraw/internal/store"
	ws "github.com/fakuuy/excalidraw/internal/websocket"
)

const (
	testUsername = "admin"
	testPassword = "correct-horse-battery"
	testSecret   = "0123456789abcdef0123456789abcdef"
)

// newTestAPI wires a full handler stack against an in-memory store and
// returns the router plus a valid bearer token.
func newTestAPI(t *testing.T) (http.Handler, string) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	cfg := &config.Config{}
	cfg.Server.CORSOrigins = []string{"*"}
	cfg.Server.RateLimitReqs = 1000
	cfg.Server.RateLimitWindow = time.Minute
	cfg.Security.JWTSecret = testSecret
	cfg.Security.SessionTimeout = time.Hour
	cfg.Security.AdminUsername = testUsername
	cfg.Security.AdminPasswordHash = string(hash)
	cfg.Files.MaxSize = 1024

	st, err := store.Open(store.Options{MaxFileSize: cfg.Files.MaxSize})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		t.Fatalf("jwt manager: %v", err)
	}
	token, _, err := jwtManager.GenerateToken(testUsername)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	handler := NewHandler(st, ws.NewHub(), jwtManager, cfg)
	return handler.Routes(), token
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, data any) *models.APIError {
	t.Helper()

	var env struct {
		Status string           `json:"status"`
		Data   json.RawMessage  `json:"data"`
		Error  *models.APIError `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body %q)", err, rec.Body.String())
	}
	if data != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, data); err != nil {
			t.Fatalf("decode data: %v", err)
		}
	}
	return env.Error
}

func TestSceneSaveLoadRoundTrip(t *testing.T) {
	router, token := newTestAPI(t)

	save := models.SaveSceneRequest{
		Elements: []json.RawMessage{
			json.RawMessage(`{"id":"a","type":"rectangle","version":2,"versionNonce":5}`),
			json.RawMessage(`{"id":"b","type":"ellipse","version":3,"versionNonce":6}`),
		},
	}
	rec := doJSON(t, router, http.MethodPut, "/api/v2/rooms/room-1", token, save)
	if rec.Code != http.StatusOK {
		t.Fatalf("save status = %d, body %s", rec.Code, rec.Body.String())
	}

	var saved models.SaveSceneResponse
	decodeEnvelope(t, rec, &saved)
	if saved.Version != 5 {
		t.Errorf("saved version = %d, want 5 (recomputed server-side)", saved.Version)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/v2/rooms/room-1", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("load status = %d", rec.Code)
	}
	var doc models.SceneDocument
	decodeEnvelope(t, rec, &doc)
	if doc.RoomID != "room-1" || len(doc.Elements) != 2 || doc.Version != 5 {
		t.Errorf("loaded document mismatch: %+v", doc)
	}
}

func TestGetSceneUnknownRoom(t *testing.T) {
	router, token := newTestAPI(t)

	rec := doJSON(t, router, http.MethodGet, "/api/v2/rooms/never-saved", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	apiErr := decodeEnvelope(t, rec, nil)
	if apiErr == nil || apiErr.Code != models.CodeNotFound {
		t.Errorf("error = %+v, want code %s", apiErr, models.CodeNotFound)
	}
}

func TestRoomsRequireBearerToken(t *testing.T) {
	router, _ := newTestAPI(t)

	rec := doJSON(t, router, http.MethodGet, "/api/v2/rooms/room-1", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status without token = %d, want 401", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/v2/rooms/room-1", "not-a-jwt", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status with bogus token = %d, want 401", rec.Code)
	}
	apiErr := decodeEnvelope(t, rec, nil)
	if apiErr == nil || apiErr.Code != models.CodeUnauthorized {
		t.Errorf("error = %+v, want code %s", apiErr, models.CodeUnauthorized)
	}
}

func TestSaveSceneRejectsInvalidRoomID(t *testing.T) {
	router, token := newTestAPI(t)

	rec := doJSON(t, router, http.MethodPut, "/api/v2/rooms/bad!id", token,
		models.SaveSceneRequest{Elements: []json.RawMessage{}})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestSaveSceneRejectsMalformedBody(t *testing.T) {
	router, token := newTestAPI(t)

	req := httptest.NewRequest(http.MethodPut, "/api/v2/rooms/room-1", bytes.NewReader([]byte("{nope")))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	apiErr := decodeEnvelope(t, rec, nil)
	if apiErr == nil || apiErr.Code != models.CodeMalformed {
		t.Errorf("error = %+v, want code %s", apiErr, models.CodeMalformed)
	}
}

func TestSaveSceneSkipsUndecodableElements(t *testing.T) {
	router, token := newTestAPI(t)

	save := models.SaveSceneRequest{
		Elements: []json.RawMessage{
			json.RawMessage(`{"id":"good","type":"rectangle","version":4,"versionNonce":1}`),
			json.RawMessage(`{"type":"orphan","version":1}`),
		},
	}
	rec := doJSON(t, router, http.MethodPut, "/api/v2/rooms/room-1", token, save)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var saved models.SaveSceneResponse
	decodeEnvelope(t, rec, &saved)
	if saved.Version != 4 {
		t.Errorf("version = %d, want 4 (undecodable element excluded)", saved.Version)
	}
}

func TestFileUploadDownloadRoundTrip(t *testing.T) {
	router, token := newTestAPI(t)

	upload := models.FileDocument{ID: "file-1", MimeType: "image/png", Payload: []byte("png-bytes")}
	rec := doJSON(t, router, http.MethodPost, "/api/v2/rooms/room-1/files/file-1", token, upload)
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodGet, "/api/v2/rooms/room-1/files/file-1", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("download status = %d", rec.Code)
	}
	var got models.FileDocument
	decodeEnvelope(t, rec, &got)
	if got.MimeType != "image/png" || string(got.Payload) != "png-bytes" {
		t.Errorf("downloaded file mismatch: %+v", got)
	}
}

func TestFileUploadConflict(t *testing.T) {
	router, token := newTestAPI(t)

	first := models.FileDocument{ID: "file-1", Payload: []byte("original")}
	if rec := doJSON(t, router, http.MethodPost, "/api/v2/rooms/room-1/files/file-1", token, first); rec.Code != http.StatusCreated {
		t.Fatalf("first upload status = %d", rec.Code)
	}

	// Identical re-upload is idempotent.
	if rec := doJSON(t, router, http.MethodPost, "/api/v2/rooms/room-1/files/file-1", token, first); rec.Code != http.StatusCreated {
		t.Errorf("identical re-upload status = %d, want 201", rec.Code)
	}

	// Different content is a conflict; first write wins.
	second := models.FileDocument{ID: "file-1", Payload: []byte("different")}
	rec := doJSON(t, router, http.MethodPost, "/api/v2/rooms/room-1/files/file-1", token, second)
	if rec.Code != http.StatusConflict {
		t.Fatalf("conflicting upload status = %d, want 409", rec.Code)
	}
	apiErr := decodeEnvelope(t, rec, nil)
	if apiErr == nil || apiErr.Code != models.CodeConflict {
		t.Errorf("error = %+v, want code %s", apiErr, models.CodeConflict)
	}
}

func TestFileUploadTooLarge(t *testing.T) {
	router, token := newTestAPI(t)

	big := models.FileDocument{ID: "file-1", Payload: make([]byte, 4096)}
	rec := doJSON(t, router, http.MethodPost, "/api/v2/rooms/room-1/files/file-1", token, big)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}

func TestFileDownloadUnknownID(t *testing.T) {
	router, token := newTestAPI(t)

	rec := doJSON(t, router, http.MethodGet, "/api/v2/rooms/room-1/files/nope", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestLoginIssuesUsableToken(t *testing.T) {
	router, _ := newTestAPI(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v2/auth/login", "",
		models.LoginRequest{Username: testUsername, Password: testPassword})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp models.LoginResponse
	decodeEnvelope(t, rec, &resp)
	if resp.Token == "" {
		t.Fatal("login returned empty token")
	}

	rec = doJSON(t, router, http.MethodGet, "/api/v2/rooms/room-1", resp.Token, nil)
	if rec.Code == http.StatusUnauthorized {
		t.Error("token from login rejected by rooms endpoint")
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	router, _ := newTestAPI(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v2/auth/login", "",
		models.LoginRequest{Username: testUsername, Password: "wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestHealthIsUnauthenticated(t *testing.T) {
	router, _ := newTestAPI(t)

	rec := doJSON(t, router, http.MethodGet, "/api/v2/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", rec.Code)
	}
}
