// Excalidraw Self-Hosted - Whiteboard Persistence and Sync Backend
// Copyright 2026 fakuuy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fakuuy/excalidraw

package scene

import (
	"time"

	"github.com/goccy/go-json"
)

// ViewState is the transient canvas state persisted alongside elements so
// a rejoining session lands where it left off. It never participates in
// version computation: panning or zooming must not mark a scene dirty.
type ViewState struct {
	ScrollX    float64 `json:"scrollX"`
	ScrollY    float64 `json:"scrollY"`
	Zoom       float64 `json:"zoom"`
	Background string  `json:"viewBackgroundColor,omitempty"`
}

// Scene is a drawing's full state: the ordered element set plus view
// parameters. Element order defines z-index and is preserved stably
// across reconciliation except where remote insertions are interleaved.
type Scene struct {
	Elements  []Element `json:"elements"`
	ViewState ViewState `json:"appState"`
}

// Version returns the derived scalar version of the scene's element set.
func (s *Scene) Version() int64 {
	return Version(s.Elements)
}

// File is a binary attachment referenced by image elements. Files are
// owned by the scene; an attachment not referenced by any live element is
// logically orphaned and left to the persistence backend to collect.
type File struct {
	ID            string    `json:"id"`
	MimeType      string    `json:"mimeType"`
	Data          []byte    `json:"data"`
	Created       time.Time `json:"created"`
	LastRetrieved time.Time `json:"lastRetrieved,omitempty"`
}

// FileIDs returns the identifiers of files referenced by live (non-
// tombstoned) image elements, in element order without duplicates. The
// renderer stores the reference under the "fileId" extension field.
func FileIDs(elements []Element) []string {
	seen := make(map[string]struct{})
	var ids []string
	for i := range elements {
		el := &elements[i]
		if el.Deleted {
			continue
		}
		raw, ok := el.Extra["fileId"]
		if !ok {
			continue
		}
		var id string
		if err := json.Unmarshal(raw, &id); err != nil || id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
