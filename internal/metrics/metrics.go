// Excalidraw Self-Hosted - Whiteboard Persistence and Sync Backend
// Copyright 2026 fakuuy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fakuuy/excalidraw

// Package metrics provides Prometheus instrumentation for:
//   - API endpoint latency and throughput
//   - Scene persistence operations
//   - Reconciliation outcomes
//   - File transfer outcomes
//   - Sync cache efficiency
//   - WebSocket connections
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	// Scene Store Metrics
	SceneLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scene_loads_total",
			Help: "Total number of scene load operations",
		},
		[]string{"result"}, // "ok", "not_found", "error"
	)

	SceneSaves = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scene_saves_total",
			Help: "Total number of scene save operations",
		},
		[]string{"result"}, // "ok", "skipped", "error"
	)

	SceneElements = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scene_elements",
			Help:    "Number of elements per persisted scene",
			Buckets: []float64{10, 50, 100, 500, 1000, 5000, 10000},
		},
	)

	// Reconciliation Metrics
	ReconcileDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reconcile_duration_seconds",
			Help:    "Duration of element set reconciliation",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
	)

	ReconcileElementsDiscarded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reconcile_elements_discarded_total",
			Help: "Total number of malformed elements skipped during reconciliation",
		},
	)

	// Sync Cache Metrics
	SyncCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sync_cache_hits_total",
			Help: "Total number of saves skipped because the scene version was already persisted",
		},
	)

	SyncCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sync_cache_misses_total",
			Help: "Total number of sync cache lookups that required a save",
		},
	)

	SyncCacheSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sync_cache_sessions",
			Help: "Current number of sessions tracked by the sync cache",
		},
	)

	// File Transfer Metrics
	FileUploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "file_uploads_total",
			Help: "Total number of file upload attempts",
		},
		[]string{"result"}, // "saved", "failed"
	)

	FileDownloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "file_downloads_total",
			Help: "Total number of file download attempts",
		},
		[]string{"result"}, // "loaded", "failed"
	)

	FileBytesTransferred = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "file_bytes_transferred_total",
			Help: "Total bytes moved by file sync",
		},
		[]string{"direction"}, // "upload", "download"
	)

	// Circuit Breaker Metrics (backend HTTP client)
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total requests seen by the circuit breaker",
		},
		[]string{"name", "result"}, // "success", "failure", "rejected"
	)

	// WebSocket Metrics
	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of connected websocket peers",
		},
	)

	WebSocketMessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total websocket messages broadcast to peers",
		},
		[]string{"type"},
	)
)

// RecordAPIRequest records a completed API request with its duration.
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// ObserveReconcile records one reconciliation pass.
func ObserveReconcile(duration time.Duration) {
	ReconcileDuration.Observe(duration.Seconds())
}
