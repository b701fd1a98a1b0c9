// Excalidraw Self-Hosted - Whiteboard Persistence and Sync Backend
// Copyright 2026 fakuuy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fakuuy/excalidraw

// Package synccache remembers, per collaboration session, the last scene
// version observed as persisted. It is the fast-path gate in front of
// every save attempt: when the current element set computes to the cached
// version, the save is skipped entirely. Skipping is a pure optimization;
// it must never be observably different from performing the save.
//
// The upstream implementation keys this cache weakly by the live socket
// object so entries vanish with the connection. Here the association is
// an explicit session-ID keyed map with Remove called on session
// teardown, which gives the same lifecycle without weak references.
package synccache

import (
	"sync"

	"github.com/fakuuy/excalidraw/internal/metrics"
	"github.com/fakuuy/excalidraw/internal/scene"
)

// Cache maps session IDs to the last persisted scene version.
// Safe for concurrent use.
type Cache struct {
	mu       sync.RWMutex
	versions map[string]int64
}

// New creates an empty sync cache.
func New() *Cache {
	return &Cache{versions: make(map[string]int64)}
}

// Get returns the last persisted version for a session, if known.
func (c *Cache) Get(sessionID string) (int64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.versions[sessionID]
	return v, ok
}

// Set records the element set's version as persisted for the session.
// Called after every successful save or load.
func (c *Cache) Set(sessionID string, elements []scene.Element) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, known := c.versions[sessionID]; !known {
		metrics.SyncCacheSessions.Inc()
	}
	c.versions[sessionID] = scene.Version(elements)
}

// Remove discards the session's entry. Call on session teardown; the
// cache holds nothing for a session afterwards.
func (c *Cache) Remove(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, known := c.versions[sessionID]; known {
		delete(c.versions, sessionID)
		metrics.SyncCacheSessions.Dec()
	}
}

// IsSynced reports whether the element set's current version equals the
// session's last persisted version. True means a save would be a no-op.
func (c *Cache) IsSynced(sessionID string, elements []scene.Element) bool {
	v, ok := c.Get(sessionID)
	if !ok {
		metrics.SyncCacheMisses.Inc()
		return false
	}
	if v == scene.Version(elements) {
		metrics.SyncCacheHits.Inc()
		return true
	}
	metrics.SyncCacheMisses.Inc()
	return false
}

// Len returns the number of tracked sessions.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.versions)
}
