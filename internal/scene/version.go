// Excalidraw Self-Hosted - Whiteboard Persistence and Sync Backend
// Copyright 2026 fakuuy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fakuuy/excalidraw

package scene

// Version computes the scalar scene version for an element set: the sum
// of per-element versions.
//
// Properties the sync layer relies on:
//
//   - Deterministic and order-independent: the same elements in any
//     sequence produce the same version.
//   - Monotonic: bumping any single element's version never decreases
//     the scene version.
//   - O(n), cheap enough to call on every local mutation.
//   - Insensitive to anything but element versions, so transient view
//     state differences never make two otherwise identical scenes
//     compare unequal.
//
// Tombstoned elements count like any other: a deletion bumps the
// element's version, which bumps the scene version and triggers a save.
func Version(elements []Element) int64 {
	var v int64
	for i := range elements {
		v += elements[i].Version
	}
	return v
}
