// Excalidraw Self-Hosted - Whiteboard Persistence and Sync Backend
// Copyright 2026 fakuuy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fakuuy/excalidraw

package client

import (
	"context"
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/fakuuy/excalidraw/internal/logging"
	"github.com/fakuuy/excalidraw/internal/models"
	"github.com/fakuuy/excalidraw/internal/scene"
)

// LoadScene fetches the stored scene for a room. Returns ErrNotFound
// when the room has never been saved. Elements that fail to decode are
// skipped individually so one corrupt element cannot take the whole
// scene down with it.
func (c *Client) LoadScene(ctx context.Context, roomID string) (*scene.Scene, error) {
	var doc models.SceneDocument
	err := c.doRequest(ctx, "load scene", requestConfig{
		method: "GET",
		path:   "/rooms/" + roomID,
	}, &doc)
	if err != nil {
		return nil, err
	}

	elements, skipped := scene.DecodeElements(doc.Elements)
	if skipped > 0 {
		logging.Warn().
			Str("room_id", roomID).
			Int("skipped", skipped).
			Msg("Skipped malformed elements in stored scene")
	}

	return &scene.Scene{
		Elements:  elements,
		ViewState: doc.ViewState,
	}, nil
}

// SaveScene persists a scene for a room. The backend recomputes the
// scene version from the elements it stores; the returned version is
// that authoritative value.
func (c *Client) SaveScene(ctx context.Context, roomID string, s *scene.Scene) (int64, error) {
	raws := make([]json.RawMessage, 0, len(s.Elements))
	for i := range s.Elements {
		encoded, err := json.Marshal(&s.Elements[i])
		if err != nil {
			return 0, fmt.Errorf("save scene: encode element %q: %w", s.Elements[i].ID, err)
		}
		raws = append(raws, encoded)
	}

	var resp models.SaveSceneResponse
	err := c.doRequest(ctx, "save scene", requestConfig{
		method: "PUT",
		path:   "/rooms/" + roomID,
		body: models.SaveSceneRequest{
			Elements:  raws,
			ViewState: s.ViewState,
			Version:   scene.Version(s.Elements),
		},
	}, &resp)
	if err != nil {
		return 0, err
	}
	return resp.Version, nil
}
