// Excalidraw Self-Hosted - Whiteboard Persistence and Sync Backend
// Copyright 2026 fakuuy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fakuuy/excalidraw

package scene

import (
	"github.com/fakuuy/excalidraw/internal/logging"
	"github.com/fakuuy/excalidraw/internal/metrics"
)

// shouldKeepLocal decides the winner for an element identifier present in
// both sets. The decision is a pure function of (version, nonce):
//
//   - the higher version wins, so a tombstone with a higher version beats
//     a live element with a lower one and deletions propagate;
//   - on an exact version tie, the lower nonce wins. The direction is
//     arbitrary but must match the stock whiteboard client, so that
//     self-hosted and stock peers reconciling the same pair converge on
//     the same element without further communication.
//
// Never prefer "local" or "remote" as a fixed rule: the function must be
// symmetric so that merging A with B and B with A yield the same winner.
func shouldKeepLocal(local, remote *Element) bool {
	if local.Version != remote.Version {
		return local.Version > remote.Version
	}
	return local.VersionNonce <= remote.VersionNonce
}

// Reconcile merges a local element set with a remote one into a single
// convergent set.
//
// Per element identifier present in either set:
//
//   - only local: this peer's unsynced creation, kept;
//   - only remote: a peer's creation, included;
//   - both: the (version, nonce) winner per shouldKeepLocal.
//
// Ordering: elements retained from local keep the local order. Remote-only
// elements are inserted in their remote relative order, each after the
// nearest preceding remote element that local also knows (remote-only
// prefix elements go first). The result is stable and deterministic for
// identical inputs, and Reconcile(E, E) == E.
//
// A remote element without an identifier is skipped with a warning rather
// than failing the merge; partial corruption must not block the healthy
// elements.
func Reconcile(local, remote []Element) []Element {
	localIdx := make(map[string]int, len(local))
	for i := range local {
		if local[i].ID == "" {
			continue
		}
		if _, dup := localIdx[local[i].ID]; dup {
			continue
		}
		localIdx[local[i].ID] = i
	}

	// Remote-only elements grouped by the shared remote element that
	// precedes them; "" anchors the remote-only prefix.
	followers := make(map[string][]*Element)
	remoteWinner := make(map[string]*Element, len(remote))
	anchor := ""
	for i := range remote {
		re := &remote[i]
		if re.ID == "" {
			logging.Warn().Str("type", re.Type).Msg("discarding remote element without identifier")
			metrics.ReconcileElementsDiscarded.Inc()
			continue
		}
		if _, dup := remoteWinner[re.ID]; dup {
			continue
		}
		remoteWinner[re.ID] = re
		if _, shared := localIdx[re.ID]; shared {
			anchor = re.ID
			continue
		}
		followers[anchor] = append(followers[anchor], re)
	}

	result := make([]Element, 0, len(local)+len(followers[""]))
	for _, re := range followers[""] {
		result = append(result, *re)
	}

	emitted := make(map[string]struct{}, len(local))
	for i := range local {
		le := &local[i]
		if le.ID == "" {
			continue
		}
		if _, dup := emitted[le.ID]; dup {
			continue
		}
		emitted[le.ID] = struct{}{}

		if re, shared := remoteWinner[le.ID]; shared {
			if shouldKeepLocal(le, re) {
				result = append(result, *le)
			} else {
				result = append(result, *re)
			}
			for _, f := range followers[le.ID] {
				result = append(result, *f)
			}
			continue
		}
		result = append(result, *le)
	}

	return result
}
