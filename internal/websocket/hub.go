// Excalidraw Self-Hosted - Whiteboard Persistence and Sync Backend
// Copyright 2026 fakuuy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fakuuy/excalidraw

// Package websocket implements the real-time peer notification channel:
// clients join a room and receive a message whenever another peer
// persists that room's scene. The channel only signals "scene changed";
// peers then run their own load-reconcile-save cycle over HTTP.
package websocket

import (
	"context"
	"sync"

	"github.com/fakuuy/excalidraw/internal/logging"
	"github.com/fakuuy/excalidraw/internal/metrics"
)

// Message types sent to room peers.
const (
	MessageTypeSceneUpdate = "scene_update"
	MessageTypeFilesAdded  = "files_added"
	MessageTypePing        = "ping"
	MessageTypePong        = "pong"
)

// Message is one notification delivered to a room's peers.
type Message struct {
	Type    string      `json:"type"`
	RoomID  string      `json:"roomId"`
	Version int64       `json:"version,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// broadcastReq pairs a message with the room it targets.
type broadcastReq struct {
	roomID string
	msg    Message
}

// Hub tracks room membership and fans notifications out to each room's
// connected clients. One hub serves all rooms.
type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]map[*Client]bool
	broadcast  chan broadcastReq
	register   chan *Client
	unregister chan *Client
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		broadcast:  make(chan broadcastReq, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Register adds a client to its room.
func (h *Hub) Register(c *Client) {
	h.register <- c
}

// Unregister removes a client from its room.
func (h *Hub) Unregister(c *Client) {
	h.unregister <- c
}

// SceneChanged notifies a room's peers that a new scene version has been
// persisted. Implements the sync.Notifier interface.
func (h *Hub) SceneChanged(roomID string, version int64) {
	h.BroadcastRoom(roomID, Message{
		Type:    MessageTypeSceneUpdate,
		RoomID:  roomID,
		Version: version,
	})
}

// BroadcastRoom queues a message for every client in the room. Delivery
// is best-effort: a full hub queue drops the message rather than block
// the caller, since peers resynchronize over HTTP anyway.
func (h *Hub) BroadcastRoom(roomID string, msg Message) {
	select {
	case h.broadcast <- broadcastReq{roomID: roomID, msg: msg}:
	default:
		logging.Warn().Str("room_id", roomID).Msg("hub broadcast queue full, dropping notification")
	}
}

// RoomSize returns the number of clients currently in a room.
func (h *Hub) RoomSize(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// Serve runs the hub loop until the context is canceled. Designed for
// suture supervision; a panic inside restarts the hub with membership
// rebuilt as clients reconnect.
//
// Lifecycle events take priority over broadcasts so membership is
// consistent before any message is fanned out. Go's select picks ready
// channels at random, so the priority is enforced with a non-blocking
// pre-check.
func (h *Hub) Serve(ctx context.Context) error {
	logging.Info().Msg("websocket hub started")
	for {
		select {
		case c := <-h.register:
			h.addClient(c)
			continue
		case c := <-h.unregister:
			h.removeClient(c)
			continue
		default:
		}

		select {
		case c := <-h.register:
			h.addClient(c)
		case c := <-h.unregister:
			h.removeClient(c)
		case req := <-h.broadcast:
			h.broadcastToRoom(req.roomID, req.msg)
		case <-ctx.Done():
			h.closeAll()
			logging.Info().Msg("websocket hub stopped")
			return ctx.Err()
		}
	}
}

// String implements fmt.Stringer for supervisor logging.
func (h *Hub) String() string {
	return "websocket-hub"
}

func (h *Hub) addClient(c *Client) {
	h.mu.Lock()
	room, ok := h.rooms[c.roomID]
	if !ok {
		room = make(map[*Client]bool)
		h.rooms[c.roomID] = room
	}
	room[c] = true
	size := len(room)
	h.mu.Unlock()

	metrics.WebSocketConnections.Inc()
	logging.Info().Str("room_id", c.roomID).Int("room_clients", size).Msg("peer joined room")
}

func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	room, ok := h.rooms[c.roomID]
	removed := false
	if ok {
		if _, present := room[c]; present {
			delete(room, c)
			close(c.send)
			removed = true
		}
		if len(room) == 0 {
			delete(h.rooms, c.roomID)
		}
	}
	size := len(room)
	h.mu.Unlock()

	if removed {
		metrics.WebSocketConnections.Dec()
		logging.Info().Str("room_id", c.roomID).Int("room_clients", size).Msg("peer left room")
	}
}

func (h *Hub) broadcastToRoom(roomID string, msg Message) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.rooms[roomID]))
	for c := range h.rooms[roomID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.send <- msg:
			metrics.WebSocketMessagesSent.WithLabelValues(msg.Type).Inc()
		default:
			// Slow consumer; drop it rather than stall the room.
			h.removeClient(c)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for roomID, room := range h.rooms {
		for c := range room {
			close(c.send)
			metrics.WebSocketConnections.Dec()
		}
		delete(h.rooms, roomID)
	}
}
