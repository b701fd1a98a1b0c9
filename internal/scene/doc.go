// Excalidraw Self-Hosted - Whiteboard Persistence and Sync Backend
// Copyright 2026 fakuuy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fakuuy/excalidraw

// Package scene holds the whiteboard data model and the merge logic that
// keeps concurrent editors convergent.
//
// A Scene is an ordered sequence of Elements (draw order is z-order) plus
// the ViewState of the canvas. Elements are never physically removed once
// synced; deletion sets a tombstone flag so peers observe the deletion
// instead of resurrecting the element.
//
// Two operations matter:
//
//   - Version computes a scalar scene version from the element set. It is
//     order-independent and monotonic, and is the sole input to the "has
//     anything changed since the last save" decision.
//
//   - Reconcile merges a local element set with a remote one. The winner
//     for each element identifier is a pure function of the element's
//     (version, nonce) pair, so every peer that runs the same merge on the
//     same inputs converges on the same result without coordination.
package scene
