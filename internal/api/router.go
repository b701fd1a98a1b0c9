// Excalidraw Self-Hosted - Whiteboard Persistence and Sync Backend
// Copyright 2026 fakuuy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fakuuy/excalidraw

// Package api provides the HTTP surface of the persistence backend:
// scene load/save, file upload/download, bearer-token login, and the
// websocket notification channel.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fakuuy/excalidraw/internal/auth"
	"github.com/fakuuy/excalidraw/internal/config"
	"github.com/fakuuy/excalidraw/internal/middleware"
	"github.com/fakuuy/excalidraw/internal/store"
	ws "github.com/fakuuy/excalidraw/internal/websocket"
)

// Handler bundles the dependencies the route handlers need.
type Handler struct {
	store *store.Store
	hub   *ws.Hub
	jwt   *auth.JWTManager
	cfg   *config.Config
}

// NewHandler creates the API handler set.
func NewHandler(st *store.Store, hub *ws.Hub, jwt *auth.JWTManager, cfg *config.Config) *Handler {
	return &Handler{store: st, hub: hub, jwt: jwt, cfg: cfg}
}

// Routes builds the chi router.
//
// Everything under /api/v2/rooms requires a bearer token. Login gets a
// strict rate limit of its own (brute-force protection); the general
// limit from config applies to the data endpoints.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/api/v2", func(r chi.Router) {
		r.Use(middleware.PrometheusMetrics)

		r.Get("/health", h.Health)

		r.With(httprate.LimitByIP(10, h.cfg.Server.RateLimitWindow)).
			Post("/auth/login", h.Login)

		r.Route("/rooms/{roomID}", func(r chi.Router) {
			r.Use(httprate.LimitByIP(h.cfg.Server.RateLimitReqs, h.cfg.Server.RateLimitWindow))
			r.Use(h.jwt.Middleware())

			r.Get("/", h.GetScene)
			r.Put("/", h.SaveScene)
			r.Get("/ws", h.JoinRoom)

			r.Post("/files/{fileID}", h.UploadFile)
			r.Get("/files/{fileID}", h.DownloadFile)
		})
	})

	return r
}
