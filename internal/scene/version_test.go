// Excalidraw Self-Hosted - Whiteboard Persistence and Sync Backend
// Copyright 2026 fakuuy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fakuuy/excalidraw

package scene

import "testing"

func TestVersionEmpty(t *testing.T) {
	if got := Version(nil); got != 0 {
		t.Errorf("Version(nil) = %d, want 0", got)
	}
	if got := Version([]Element{}); got != 0 {
		t.Errorf("Version(empty) = %d, want 0", got)
	}
}

func TestVersionSumsElementVersions(t *testing.T) {
	elements := []Element{
		{ID: "a", Version: 3},
		{ID: "b", Version: 7},
		{ID: "c", Version: 1},
	}
	if got := Version(elements); got != 11 {
		t.Errorf("Version = %d, want 11", got)
	}
}

func TestVersionOrderIndependent(t *testing.T) {
	forward := []Element{
		{ID: "a", Version: 5},
		{ID: "b", Version: 2},
		{ID: "c", Version: 9},
	}
	reversed := []Element{forward[2], forward[1], forward[0]}

	if Version(forward) != Version(reversed) {
		t.Errorf("Version depends on order: %d vs %d", Version(forward), Version(reversed))
	}
}

func TestVersionMonotonicOnBump(t *testing.T) {
	elements := []Element{
		{ID: "a", Version: 5},
		{ID: "b", Version: 2},
	}
	before := Version(elements)
	elements[1].Version++
	after := Version(elements)

	if after <= before {
		t.Errorf("version did not increase after element bump: before=%d after=%d", before, after)
	}
}

func TestVersionCountsTombstones(t *testing.T) {
	live := []Element{{ID: "a", Version: 2}}
	deleted := []Element{{ID: "a", Version: 3, Deleted: true}}

	if Version(deleted) <= Version(live) {
		t.Error("deletion bump must raise the scene version")
	}
}
