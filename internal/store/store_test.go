// Excalidraw Self-Hosted - Whiteboard Persistence and Sync Backend
// Copyright 2026 fakuuy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fakuuy/excalidraw

package store

import (
	"context"
	"errors"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/fakuuy/excalidraw/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Options{MaxFileSize: 1024})
	if err != nil {
		t.Fatalf("open in-memory store: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return s
}

func TestSceneRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc := &models.SceneDocument{
		RoomID: "room-1",
		Elements: []json.RawMessage{
			json.RawMessage(`{"id":"a","type":"rectangle","version":2,"versionNonce":7}`),
		},
		Version: 2,
	}
	if err := s.PutScene(ctx, doc); err != nil {
		t.Fatalf("put scene: %v", err)
	}

	got, err := s.GetScene(ctx, "room-1")
	if err != nil {
		t.Fatalf("get scene: %v", err)
	}
	if got.RoomID != "room-1" || got.Version != 2 || len(got.Elements) != 1 {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.SavedAt.IsZero() {
		t.Error("SavedAt not stamped on save")
	}
}

func TestGetSceneUnknownRoom(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetScene(context.Background(), "never-saved")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestPutSceneReplacesPrevious(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for v := int64(1); v <= 3; v++ {
		doc := &models.SceneDocument{RoomID: "room-1", Version: v}
		if err := s.PutScene(ctx, doc); err != nil {
			t.Fatalf("put scene v%d: %v", v, err)
		}
	}

	got, err := s.GetScene(ctx, "room-1")
	if err != nil {
		t.Fatalf("get scene: %v", err)
	}
	if got.Version != 3 {
		t.Errorf("Version = %d, want 3 (last write wins)", got.Version)
	}
}

func TestFileRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	file := &models.FileDocument{ID: "file-1", MimeType: "image/png", Payload: []byte("png-bytes")}
	if err := s.PutFile(ctx, "room-1", file); err != nil {
		t.Fatalf("put file: %v", err)
	}

	got, err := s.GetFile(ctx, "room-1", "file-1")
	if err != nil {
		t.Fatalf("get file: %v", err)
	}
	if got.MimeType != "image/png" || string(got.Payload) != "png-bytes" {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestGetFileUnknownID(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetFile(context.Background(), "room-1", "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestPutFileIdempotentReupload(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	file := &models.FileDocument{ID: "file-1", MimeType: "image/png", Payload: []byte("same")}
	if err := s.PutFile(ctx, "room-1", file); err != nil {
		t.Fatalf("first put: %v", err)
	}
	if err := s.PutFile(ctx, "room-1", file); err != nil {
		t.Errorf("identical re-upload must succeed, got %v", err)
	}
}

func TestPutFileConflictOnDifferentContent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.PutFile(ctx, "room-1", &models.FileDocument{ID: "file-1", Payload: []byte("original")}); err != nil {
		t.Fatalf("first put: %v", err)
	}

	err := s.PutFile(ctx, "room-1", &models.FileDocument{ID: "file-1", Payload: []byte("different")})
	if !errors.Is(err, ErrConflict) {
		t.Errorf("err = %v, want ErrConflict (first write wins)", err)
	}

	// Original content must be untouched.
	got, err := s.GetFile(ctx, "room-1", "file-1")
	if err != nil {
		t.Fatalf("get file: %v", err)
	}
	if string(got.Payload) != "original" {
		t.Errorf("payload = %q, conflicting write overwrote the original", got.Payload)
	}
}

func TestPutFileTooLarge(t *testing.T) {
	s := newTestStore(t)

	big := &models.FileDocument{ID: "file-1", Payload: make([]byte, 2048)}
	err := s.PutFile(context.Background(), "room-1", big)
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("err = %v, want ErrTooLarge", err)
	}
}

func TestFilesAreScopedByRoom(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.PutFile(ctx, "room-1", &models.FileDocument{ID: "file-1", Payload: []byte("x")}); err != nil {
		t.Fatalf("put file: %v", err)
	}

	if _, err := s.GetFile(ctx, "room-2", "file-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound for other room", err)
	}
}

func TestCanceledContextRejected(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.PutScene(ctx, &models.SceneDocument{RoomID: "r"}); err == nil {
		t.Error("PutScene accepted canceled context")
	}
	if _, err := s.GetScene(ctx, "r"); err == nil {
		t.Error("GetScene accepted canceled context")
	}
}
