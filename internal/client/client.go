// Excalidraw Self-Hosted - Whiteboard Persistence and Sync Backend
// Copyright 2026 fakuuy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fakuuy/excalidraw

// Package client is the HTTP adapter a sync client uses to talk to the
// persistence backend. It owns the error taxonomy for backend calls,
// wraps requests in a circuit breaker so a struggling backend is not
// hammered, and rate-limits outbound calls.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/fakuuy/excalidraw/internal/logging"
	"github.com/fakuuy/excalidraw/internal/metrics"
	"github.com/fakuuy/excalidraw/internal/models"
)

const (
	defaultTimeout     = 15 * time.Second
	defaultConcurrency = 4
)

// Options configures a Client. Zero values get sensible defaults.
type Options struct {
	// BaseURL is the backend root, e.g. "https://draw.example.com".
	BaseURL string

	// Token is the bearer token attached to every request.
	Token string

	// HTTPClient overrides the underlying transport. Defaults to a
	// client with a 15s timeout.
	HTTPClient *http.Client

	// RequestsPerSecond caps outbound request rate. Zero means
	// unlimited.
	RequestsPerSecond float64

	// Concurrency bounds parallel file transfers. Defaults to 4.
	Concurrency int
}

// Client talks to the persistence backend over its JSON API.
type Client struct {
	baseURL     string
	token       string
	httpClient  *http.Client
	breaker     *gobreaker.CircuitBreaker[*http.Response]
	limiter     *rate.Limiter
	concurrency int
}

// New constructs a Client for the given backend.
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("client: base URL is required")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	breaker := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        "backend",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
		},
		IsSuccessful: func(err error) bool {
			// Only transport failures count against backend health.
			// A 404 or 409 is the backend working as intended.
			return err == nil || !IsTransport(err)
		},
	})

	return &Client{
		baseURL:     opts.BaseURL,
		token:       opts.Token,
		httpClient:  httpClient,
		breaker:     breaker,
		limiter:     rate.NewLimiter(limit, 1),
		concurrency: concurrency,
	}, nil
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateOpen:
		return 2
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 0
	}
}

// requestConfig describes a single backend call.
type requestConfig struct {
	method string
	path   string // relative to the API root, e.g. "/rooms/abc"
	body   any    // encoded as JSON when non-nil
}

// envelope mirrors the backend response wrapper, deferring Data decoding
// until the outcome is known.
type envelope struct {
	Status string           `json:"status"`
	Data   json.RawMessage  `json:"data,omitempty"`
	Error  *models.APIError `json:"error,omitempty"`
	Meta   *models.Metadata `json:"metadata,omitempty"`
}

// doRequest performs one backend call through the rate limiter and
// circuit breaker, maps the status code onto the error taxonomy, and
// decodes the response envelope's data into result when non-nil.
func (c *Client) doRequest(ctx context.Context, op string, cfg requestConfig, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &TransportError{Op: op, Err: err}
	}

	var bodyReader io.Reader
	if cfg.body != nil {
		encoded, err := json.Marshal(cfg.body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	url := c.baseURL + "/api/v2" + cfg.path
	req, err := http.NewRequestWithContext(ctx, cfg.method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if cfg.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			metrics.CircuitBreakerRequests.WithLabelValues("backend", "failure").Inc()
			return nil, &TransportError{Op: op, Err: err}
		}
		if resp.StatusCode >= 500 {
			resp.Body.Close()
			metrics.CircuitBreakerRequests.WithLabelValues("backend", "failure").Inc()
			return nil, &TransportError{Op: op, Status: resp.StatusCode}
		}
		metrics.CircuitBreakerRequests.WithLabelValues("backend", "success").Inc()
		return resp, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return &TransportError{Op: op, Err: err}
		}
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%s: %w", op, ErrUnauthorized)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case resp.StatusCode == http.StatusConflict:
		return fmt.Errorf("%s: %w", op, ErrConflict)
	case resp.StatusCode == http.StatusRequestEntityTooLarge:
		return fmt.Errorf("%s: %w", op, ErrTooLarge)
	case resp.StatusCode >= 400:
		return &TransportError{Op: op, Status: resp.StatusCode}
	}

	if result == nil {
		return nil
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	if len(env.Data) == 0 {
		return fmt.Errorf("%s: response has no data", op)
	}
	if err := json.Unmarshal(env.Data, result); err != nil {
		return fmt.Errorf("%s: decode response data: %w", op, err)
	}
	return nil
}
