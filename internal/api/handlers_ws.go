// Excalidraw Self-Hosted - Whiteboard Persistence and Sync Backend
// Copyright 2026 fakuuy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fakuuy/excalidraw

package api

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/fakuuy/excalidraw/internal/logging"
	ws "github.com/fakuuy/excalidraw/internal/websocket"
)

// upgrader performs the websocket handshake. Origin checking is left to
// the CORS layer; the bearer token on the upgrade request is what gates
// access.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// JoinRoom upgrades the connection and subscribes it to the room's
// change notifications. The bearer token has already been validated by
// the auth middleware (browsers cannot set headers on websocket
// upgrades, so the token may arrive as a query parameter instead).
//
// Method: GET
// Path: /api/v2/rooms/{roomID}/ws
func (h *Handler) JoinRoom(w http.ResponseWriter, r *http.Request) {
	id := roomID(w, r)
	if id == "" {
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		logging.Ctx(r.Context()).Debug().Err(err).Str("room_id", id).Msg("websocket upgrade failed")
		return
	}

	ws.NewClient(h.hub, conn, id).Start()
}
