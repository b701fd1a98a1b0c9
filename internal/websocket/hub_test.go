// Excalidraw Self-Hosted - Whiteboard Persistence and Sync Backend
// Copyright 2026 fakuuy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fakuuy/excalidraw

package websocket

import (
	"context"
	"testing"
	"time"
)

// testClient builds a hub-only client; the connection pumps are not
// started, messages are read straight off the send channel.
func testClient(hub *Hub, roomID string) *Client {
	return &Client{
		hub:    hub,
		roomID: roomID,
		send:   make(chan Message, 8),
	}
}

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = hub.Serve(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return hub, cancel
}

func waitForRoomSize(t *testing.T, hub *Hub, roomID string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.RoomSize(roomID) == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("room %q size = %d, want %d", roomID, hub.RoomSize(roomID), want)
}

func expectMessage(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case msg := <-c.send:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no message delivered")
		return Message{}
	}
}

func expectNoMessage(t *testing.T, c *Client) {
	t.Helper()
	select {
	case msg := <-c.send:
		t.Fatalf("unexpected message: %+v", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSceneChangedReachesRoomPeers(t *testing.T) {
	hub, _ := startHub(t)

	c1 := testClient(hub, "room-1")
	c2 := testClient(hub, "room-1")
	hub.Register(c1)
	hub.Register(c2)
	waitForRoomSize(t, hub, "room-1", 2)

	hub.SceneChanged("room-1", 42)

	for _, c := range []*Client{c1, c2} {
		msg := expectMessage(t, c)
		if msg.Type != MessageTypeSceneUpdate || msg.RoomID != "room-1" || msg.Version != 42 {
			t.Errorf("message = %+v", msg)
		}
	}
}

func TestRoomsAreIsolated(t *testing.T) {
	hub, _ := startHub(t)

	c1 := testClient(hub, "room-1")
	c2 := testClient(hub, "room-2")
	hub.Register(c1)
	hub.Register(c2)
	waitForRoomSize(t, hub, "room-1", 1)
	waitForRoomSize(t, hub, "room-2", 1)

	hub.SceneChanged("room-1", 7)

	expectMessage(t, c1)
	expectNoMessage(t, c2)
}

func TestUnregisterStopsDelivery(t *testing.T) {
	hub, _ := startHub(t)

	c := testClient(hub, "room-1")
	hub.Register(c)
	waitForRoomSize(t, hub, "room-1", 1)

	hub.Unregister(c)
	waitForRoomSize(t, hub, "room-1", 0)

	// The send channel is closed on unregister.
	select {
	case _, ok := <-c.send:
		if ok {
			t.Error("received message after unregister")
		}
	case <-time.After(2 * time.Second):
		t.Error("send channel not closed after unregister")
	}
}

func TestSlowConsumerIsDropped(t *testing.T) {
	hub, _ := startHub(t)

	c := &Client{hub: hub, roomID: "room-1", send: make(chan Message)} // unbuffered, never read
	hub.Register(c)
	waitForRoomSize(t, hub, "room-1", 1)

	hub.SceneChanged("room-1", 1)
	waitForRoomSize(t, hub, "room-1", 0)
}

func TestShutdownClosesClients(t *testing.T) {
	hub, cancel := startHub(t)

	c := testClient(hub, "room-1")
	hub.Register(c)
	waitForRoomSize(t, hub, "room-1", 1)

	cancel()

	select {
	case _, ok := <-c.send:
		if ok {
			t.Error("expected closed channel after shutdown")
		}
	case <-time.After(2 * time.Second):
		t.Error("send channel not closed on shutdown")
	}
}
