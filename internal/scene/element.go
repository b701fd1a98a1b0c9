// Excalidraw Self-Hosted - Whiteboard Persistence and Sync Backend
// Copyright 2026 fakuuy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fakuuy/excalidraw

package scene

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

// ErrMissingID marks an element whose identifier is absent or empty.
// Such elements cannot participate in reconciliation.
var ErrMissingID = errors.New("element has no identifier")

// Element is one visual object within a scene. The synchronization core
// only interprets the fields below; everything the renderer cares about
// (geometry, style, text, bindings) travels untouched in Extra.
//
// Version increases monotonically on every edit of the element.
// VersionNonce is a random tie-breaker regenerated alongside Version, used
// to pick a deterministic winner when two peers produce the same version
// concurrently. Deleted is a tombstone: a deleted element stays in the
// scene so the deletion propagates to other peers during reconciliation.
type Element struct {
	ID           string
	Type         string
	Version      int64
	VersionNonce int64
	Deleted      bool
	UpdatedBy    string

	// Extra carries renderer-specific fields the sync core does not
	// interpret, preserved byte-for-byte across merge and persistence.
	Extra map[string]json.RawMessage
}

// elementJSONKeys are the wire names of the interpreted fields.
const (
	keyID           = "id"
	keyType         = "type"
	keyVersion      = "version"
	keyVersionNonce = "versionNonce"
	keyDeleted      = "isDeleted"
	keyUpdatedBy    = "updatedBy"
)

// UnmarshalJSON decodes an element, splitting interpreted fields from the
// open extension bag. A wrong-typed interpreted field (e.g. a string
// version) fails the decode of this element only.
func (e *Element) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode element: %w", err)
	}

	*e = Element{}
	for k, v := range raw {
		var err error
		switch k {
		case keyID:
			err = json.Unmarshal(v, &e.ID)
		case keyType:
			err = json.Unmarshal(v, &e.Type)
		case keyVersion:
			err = json.Unmarshal(v, &e.Version)
		case keyVersionNonce:
			err = json.Unmarshal(v, &e.VersionNonce)
		case keyDeleted:
			err = json.Unmarshal(v, &e.Deleted)
		case keyUpdatedBy:
			err = json.Unmarshal(v, &e.UpdatedBy)
		default:
			if e.Extra == nil {
				e.Extra = make(map[string]json.RawMessage, len(raw))
			}
			e.Extra[k] = v
		}
		if err != nil {
			return fmt.Errorf("decode element field %q: %w", k, err)
		}
	}
	return nil
}

// MarshalJSON emits the interpreted fields merged back into the extension
// bag, reproducing the renderer's element shape.
func (e Element) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(e.Extra)+6)
	for k, v := range e.Extra {
		out[k] = v
	}

	set := func(key string, v interface{}) error {
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		out[key] = data
		return nil
	}

	if err := set(keyID, e.ID); err != nil {
		return nil, err
	}
	if err := set(keyType, e.Type); err != nil {
		return nil, err
	}
	if err := set(keyVersion, e.Version); err != nil {
		return nil, err
	}
	if err := set(keyVersionNonce, e.VersionNonce); err != nil {
		return nil, err
	}
	if err := set(keyDeleted, e.Deleted); err != nil {
		return nil, err
	}
	if e.UpdatedBy != "" {
		if err := set(keyUpdatedBy, e.UpdatedBy); err != nil {
			return nil, err
		}
	}
	return json.Marshal(out)
}

// Validate reports whether the element can participate in reconciliation.
func (e *Element) Validate() error {
	if e.ID == "" {
		return ErrMissingID
	}
	return nil
}

// DecodeElements decodes a batch of raw element documents, skipping the
// malformed ones. A missing identifier or a non-numeric version corrupts
// that single element, never the batch: the good elements are returned
// and the number of skipped elements is reported so callers can log and
// count them.
func DecodeElements(raws []json.RawMessage) (elements []Element, skipped int) {
	elements = make([]Element, 0, len(raws))
	for _, raw := range raws {
		var el Element
		if err := json.Unmarshal(raw, &el); err != nil {
			skipped++
			continue
		}
		if err := el.Validate(); err != nil {
			skipped++
			continue
		}
		elements = append(elements, el)
	}
	return elements, skipped
}
