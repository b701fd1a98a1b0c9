// Excalidraw Self-Hosted - Whiteboard Persistence and Sync Backend
// Copyright 2026 fakuuy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fakuuy/excalidraw

// Package sync orchestrates scene synchronization between a local
// editing session and the persistence backend. A sync cycle loads the
// stored scene, reconciles it with the local elements, saves the merged
// result, and records the synced version so unchanged scenes cost one
// cache lookup instead of a round trip.
package sync

import (
	"context"
	"errors"
	stdsync "sync"
	"time"

	"github.com/fakuuy/excalidraw/internal/client"
	"github.com/fakuuy/excalidraw/internal/logging"
	"github.com/fakuuy/excalidraw/internal/metrics"
	"github.com/fakuuy/excalidraw/internal/scene"
	"github.com/fakuuy/excalidraw/internal/synccache"
)

// Backend is the slice of the HTTP client the syncer needs.
type Backend interface {
	LoadScene(ctx context.Context, roomID string) (*scene.Scene, error)
	SaveScene(ctx context.Context, roomID string, s *scene.Scene) (int64, error)
	UploadFiles(ctx context.Context, roomID string, files []scene.File) client.FileSyncResult
	DownloadFiles(ctx context.Context, roomID string, fileIDs []string) client.FileFetchResult
}

// Notifier receives a callback after a scene changes on the backend so
// other participants can be told to refresh. A nil Notifier is valid.
type Notifier interface {
	SceneChanged(roomID string, version int64)
}

// Syncer coordinates sync cycles. Cycles for the same room run strictly
// sequentially; concurrent triggers queue on the room's lock rather
// than racing each other's load-reconcile-save window.
type Syncer struct {
	backend  Backend
	cache    *synccache.Cache
	notifier Notifier

	mu       stdsync.Mutex
	rooms    map[string]*stdsync.Mutex
	uploaded map[string]struct{} // "roomID/fileID" pairs already persisted
}

// New constructs a Syncer. notifier may be nil.
func New(backend Backend, cache *synccache.Cache, notifier Notifier) *Syncer {
	return &Syncer{
		backend:  backend,
		cache:    cache,
		notifier: notifier,
		rooms:    make(map[string]*stdsync.Mutex),
		uploaded: make(map[string]struct{}),
	}
}

func (s *Syncer) roomLock(roomID string) *stdsync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.rooms[roomID]
	if !ok {
		lock = &stdsync.Mutex{}
		s.rooms[roomID] = lock
	}
	return lock
}

// Sync runs one sync cycle for a session's local elements. When the
// session's scene version matches the last synced version the cycle is
// skipped entirely. Otherwise the stored scene is loaded, reconciled
// with the local elements, and the merged scene saved back. The merged
// elements are returned so the caller can adopt remote edits.
func (s *Syncer) Sync(ctx context.Context, roomID, sessionID string, local *scene.Scene) (*scene.Scene, error) {
	if s.cache.IsSynced(sessionID, local.Elements) {
		logging.Trace().
			Str("room_id", roomID).
			Str("session_id", sessionID).
			Msg("Scene unchanged since last sync, skipping")
		return local, nil
	}

	lock := s.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	// Re-check under the lock: a queued cycle may already have synced
	// this exact version.
	if s.cache.IsSynced(sessionID, local.Elements) {
		return local, nil
	}

	start := time.Now()

	remote, err := s.loadRemote(ctx, roomID)
	if err != nil {
		return nil, err
	}

	merged := &scene.Scene{
		Elements:  scene.Reconcile(local.Elements, remote.Elements),
		ViewState: local.ViewState,
	}
	metrics.ObserveReconcile(time.Since(start))

	version, err := s.backend.SaveScene(ctx, roomID, merged)
	if err != nil {
		return nil, err
	}

	s.cache.Set(sessionID, merged.Elements)
	if s.notifier != nil {
		s.notifier.SceneChanged(roomID, version)
	}

	logging.Debug().
		Str("room_id", roomID).
		Str("session_id", sessionID).
		Int64("version", version).
		Int("elements", len(merged.Elements)).
		Dur("duration", time.Since(start)).
		Msg("Sync cycle completed")

	return merged, nil
}

// LoadRoom fetches the stored scene and merges it with whatever the
// session already has locally, e.g. edits made while offline. With no
// local elements this is a plain load. A room that has never been
// saved yields an empty scene, not an error. The loaded elements seed
// the session's sync cache, so a Sync for an unchanged scene right
// after a load skips the backend round trip.
func (s *Syncer) LoadRoom(ctx context.Context, roomID, sessionID string, local []scene.Element) (*scene.Scene, error) {
	remote, err := s.loadRemote(ctx, roomID)
	if err != nil {
		return nil, err
	}
	// The cache tracks what the backend holds, so seed it with the
	// remote elements. A merged result with offline edits computes a
	// different version and still triggers the next save.
	if sessionID != "" {
		s.cache.Set(sessionID, remote.Elements)
	}
	if len(local) == 0 {
		return remote, nil
	}
	return &scene.Scene{
		Elements:  scene.Reconcile(local, remote.Elements),
		ViewState: remote.ViewState,
	}, nil
}

func (s *Syncer) loadRemote(ctx context.Context, roomID string) (*scene.Scene, error) {
	remote, err := s.backend.LoadScene(ctx, roomID)
	if errors.Is(err, client.ErrNotFound) {
		return &scene.Scene{}, nil
	}
	if err != nil {
		return nil, err
	}
	return remote, nil
}

// SyncFiles uploads the files in the batch that have not already been
// persisted this session. Files the backend rejects stay unsynced and
// will be retried on the next call.
func (s *Syncer) SyncFiles(ctx context.Context, roomID string, files []scene.File) client.FileSyncResult {
	pending := make([]scene.File, 0, len(files))
	s.mu.Lock()
	for _, f := range files {
		if _, ok := s.uploaded[roomID+"/"+f.ID]; !ok {
			pending = append(pending, f)
		}
	}
	s.mu.Unlock()

	if len(pending) == 0 {
		return client.FileSyncResult{}
	}

	result := s.backend.UploadFiles(ctx, roomID, pending)

	s.mu.Lock()
	for _, id := range result.Saved {
		s.uploaded[roomID+"/"+id] = struct{}{}
	}
	s.mu.Unlock()
	return result
}

// FetchFiles downloads the files referenced by the given elements that
// the caller does not have yet.
func (s *Syncer) FetchFiles(ctx context.Context, roomID string, elements []scene.Element, have map[string]bool) client.FileFetchResult {
	ids := scene.FileIDs(elements)
	missing := ids[:0]
	for _, id := range ids {
		if !have[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return client.FileFetchResult{}
	}
	return s.backend.DownloadFiles(ctx, roomID, missing)
}

// EndSession releases the session's sync cache entry. Must be called
// when a session terminates or the cache grows without bound.
func (s *Syncer) EndSession(sessionID string) {
	s.cache.Remove(sessionID)
}
