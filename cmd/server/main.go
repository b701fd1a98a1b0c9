// Excalidraw Self-Hosted - Whiteboard Persistence and Sync Backend
// Copyright 2026 fakuuy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fakuuy/excalidraw

// Package main is the entry point for the whiteboard persistence server.
//
// The server stores Excalidraw scenes and their binary files per room,
// merges concurrent edits with element-version reconciliation, and
// notifies connected collaborators over WebSocket when a room's scene
// changes.
//
// # Application Architecture
//
// Components initialize in the following order:
//
//  1. Configuration: layered sources via Koanf v2 (defaults, config
//     file, environment variables)
//  2. Storage: BadgerDB key-value store for scenes and files
//  3. WebSocket hub: room-scoped change notifications
//  4. Authentication: JWT with bcrypt-verified admin credentials
//  5. HTTP server: REST API under /api/v2 plus /metrics
//
// The WebSocket hub and HTTP server run under a suture supervisor
// tree so a crash in one layer restarts only that layer.
//
// # Configuration
//
// Environment variables override the config file, which overrides
// built-in defaults:
//
//	export SECURITY_JWT_SECRET=$(openssl rand -base64 32)
//	export SECURITY_ADMIN_USERNAME=admin
//	export SECURITY_ADMIN_PASSWORD_HASH='$2a$10$...'   # bcrypt hash
//	export STORAGE_PATH=/data/excalidraw
//	./excalidraw-server
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the server stops
// accepting connections, drains in-flight requests within the
// shutdown timeout, closes the hub, and flushes the store.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/fakuuy/excalidraw/internal/api"
	"github.com/fakuuy/excalidraw/internal/auth"
	"github.com/fakuuy/excalidraw/internal/config"
	"github.com/fakuuy/excalidraw/internal/logging"
	"github.com/fakuuy/excalidraw/internal/store"
	"github.com/fakuuy/excalidraw/internal/supervisor"
	"github.com/fakuuy/excalidraw/internal/supervisor/services"
	ws "github.com/fakuuy/excalidraw/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Default logger; config is not available yet.
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("storage_path", cfg.Storage.Path).
		Int("port", cfg.Server.Port).
		Msg("Configuration loaded")

	st, err := store.Open(store.Options{
		Path:        cfg.Storage.Path,
		MaxFileSize: cfg.Files.MaxSize,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open store")
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing store")
		}
	}()
	logging.Info().Msg("Store opened")

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bridge zerolog to slog for sutureslog.
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})

	hub := ws.NewHub()
	tree.AddMessagingService(hub)

	handler := api.NewHandler(st, hub, jwtManager, cfg)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler.Routes(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().
		Str("addr", server.Addr).
		Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Server stopped gracefully")
}
