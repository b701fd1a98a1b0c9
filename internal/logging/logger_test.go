// Excalidraw Self-Hosted - Whiteboard Persistence and Sync Backend
// Copyright 2026 fakuuy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fakuuy/excalidraw

package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestInit_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf, Timestamp: false})
	defer Init(DefaultConfig())

	Info().Str("room_id", "abc123").Msg("scene persisted")

	out := buf.String()
	if !strings.Contains(out, `"room_id":"abc123"`) {
		t.Errorf("Expected structured field in output, got: %s", out)
	}
	if !strings.Contains(out, `"message":"scene persisted"`) {
		t.Errorf("Expected message field in output, got: %s", out)
	}
}

func TestInit_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "warn", Format: "json", Output: &buf, Timestamp: false})
	defer Init(DefaultConfig())

	Debug().Msg("should be filtered")
	Info().Msg("should also be filtered")
	Warn().Msg("should appear")

	out := buf.String()
	if strings.Contains(out, "filtered") {
		t.Errorf("Expected debug/info suppressed at warn level, got: %s", out)
	}
	if !strings.Contains(out, "should appear") {
		t.Errorf("Expected warn message in output, got: %s", out)
	}
}

func TestParseLevel_Defaults(t *testing.T) {
	if got := parseLevel("nonsense"); got != zerolog.InfoLevel {
		t.Errorf("Expected unknown level to default to info, got %v", got)
	}
	if got := parseLevel("WARNING"); got != zerolog.WarnLevel {
		t.Errorf("Expected 'WARNING' to parse as warn, got %v", got)
	}
}

func TestCtx_AttachesIDs(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf, Timestamp: false})
	defer Init(DefaultConfig())

	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithSessionID(ctx, "sess-9")

	Ctx(ctx).Info().Msg("hello")

	out := buf.String()
	if !strings.Contains(out, `"request_id":"req-1"`) {
		t.Errorf("Expected request_id field, got: %s", out)
	}
	if !strings.Contains(out, `"session_id":"sess-9"`) {
		t.Errorf("Expected session_id field, got: %s", out)
	}
}

func TestRequestIDFromContext_Missing(t *testing.T) {
	if id := RequestIDFromContext(context.Background()); id != "" {
		t.Errorf("Expected empty request ID for bare context, got %q", id)
	}
}
