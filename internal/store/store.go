// Excalidraw Self-Hosted - Whiteboard Persistence and Sync Backend
// Copyright 2026 fakuuy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fakuuy/excalidraw

// Package store persists scenes and file attachments in BadgerDB.
//
// Layout:
//
//	scene:<roomID>          -> models.SceneDocument (JSON)
//	file:<roomID>:<fileID>  -> storedFile (JSON, payload + metadata)
//
// Scene writes are last-write-wins: callers resolve concurrency by
// reconciling before saving, so the store never merges. File writes are
// first-write-wins: a duplicate upload with identical content succeeds
// idempotently, a duplicate with different content is rejected with
// ErrConflict.
package store

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/fakuuy/excalidraw/internal/logging"
	"github.com/fakuuy/excalidraw/internal/models"
)

// Sentinel errors. Absence is an expected outcome, distinct from storage
// failure; callers check with errors.Is.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("file exists with different content")
	ErrTooLarge = errors.New("file exceeds size limit")
)

const (
	sceneKeyPrefix = "scene:"
	fileKeyPrefix  = "file:"
)

// Store wraps a Badger database with scene and file operations.
type Store struct {
	db          *badger.DB
	maxFileSize int64
}

// Options configures a Store.
type Options struct {
	// Path is the Badger data directory. Empty means in-memory, which
	// tests use.
	Path string

	// MaxFileSize caps a single attachment's payload in bytes.
	// Default: 2 MiB.
	MaxFileSize int64
}

// Open opens (or creates) the database at opts.Path.
func Open(opts Options) (*Store, error) {
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = 2 << 20
	}

	badgerOpts := badger.DefaultOptions(opts.Path).WithLogger(nil)
	if opts.Path == "" {
		badgerOpts = badgerOpts.WithInMemory(true)
	}

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", opts.Path, err)
	}

	return &Store{db: db, maxFileSize: opts.MaxFileSize}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// PutScene persists a room's scene document, replacing any previous one.
func (s *Store) PutScene(ctx context.Context, doc *models.SceneDocument) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	doc.SavedAt = time.Now().UTC()
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal scene: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(sceneKeyPrefix+doc.RoomID), data)
	})
	if err != nil {
		return fmt.Errorf("put scene %s: %w", doc.RoomID, err)
	}

	logging.Ctx(ctx).Debug().
		Str("room_id", doc.RoomID).
		Int64("version", doc.Version).
		Int("elements", len(doc.Elements)).
		Msg("scene persisted")
	return nil
}

// GetScene loads a room's scene document. Returns ErrNotFound when the
// room has never been saved.
func (s *Store) GetScene(ctx context.Context, roomID string) (*models.SceneDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var doc models.SceneDocument
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(sceneKeyPrefix + roomID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get scene: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &doc)
		})
	})
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// storedFile is the on-disk form of an attachment.
type storedFile struct {
	ID            string    `json:"id"`
	MimeType      string    `json:"mimeType"`
	Payload       []byte    `json:"payload"`
	Checksum      string    `json:"checksum"`
	Created       time.Time `json:"created"`
	LastRetrieved time.Time `json:"lastRetrieved"`
}

// PutFile stores an attachment under the room. First write wins: a
// re-upload with identical content is an idempotent success, differing
// content returns ErrConflict, an oversize payload returns ErrTooLarge.
func (s *Store) PutFile(ctx context.Context, roomID string, file *models.FileDocument) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if int64(len(file.Payload)) > s.maxFileSize {
		return fmt.Errorf("file %s (%d bytes): %w", file.ID, len(file.Payload), ErrTooLarge)
	}

	sum := checksum(file.Payload)
	key := []byte(fileKey(roomID, file.ID))

	return s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		switch {
		case err == nil:
			var existing storedFile
			if verr := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &existing)
			}); verr != nil {
				return fmt.Errorf("read existing file: %w", verr)
			}
			if existing.Checksum == sum {
				return nil // idempotent re-upload
			}
			return fmt.Errorf("file %s: %w", file.ID, ErrConflict)
		case errors.Is(err, badger.ErrKeyNotFound):
			// fall through to write
		default:
			return fmt.Errorf("check existing file: %w", err)
		}

		data, err := json.Marshal(storedFile{
			ID:       file.ID,
			MimeType: file.MimeType,
			Payload:  file.Payload,
			Checksum: sum,
			Created:  time.Now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("marshal file: %w", err)
		}
		return txn.Set(key, data)
	})
}

// GetFile loads an attachment and stamps its last-retrieved time.
// Returns ErrNotFound for an unknown file ID.
func (s *Store) GetFile(ctx context.Context, roomID, fileID string) (*models.FileDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var stored storedFile
	err := s.db.Update(func(txn *badger.Txn) error {
		key := []byte(fileKey(roomID, fileID))
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get file: %w", err)
		}
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &stored)
		}); err != nil {
			return err
		}

		stored.LastRetrieved = time.Now().UTC()
		data, err := json.Marshal(stored)
		if err != nil {
			return fmt.Errorf("marshal file: %w", err)
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return nil, err
	}

	return &models.FileDocument{
		ID:       stored.ID,
		MimeType: stored.MimeType,
		Payload:  stored.Payload,
	}, nil
}

// MaxFileSize returns the configured per-file payload cap.
func (s *Store) MaxFileSize() int64 {
	return s.maxFileSize
}

func fileKey(roomID, fileID string) string {
	return fileKeyPrefix + roomID + ":" + fileID
}

func checksum(payload []byte) string {
	sum := sha256.Sum256(payload)
	return fmt.Sprintf("%x", sum)
}
