// Excalidraw Self-Hosted - Whiteboard Persistence and Sync Backend
// Copyright 2026 fakuuy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fakuuy/excalidraw

package client

import (
	"errors"
	"fmt"
)

// Error taxonomy for backend operations. Callers branch with errors.Is:
//
//   - ErrNotFound: the scene or file does not exist. Expected; never
//     logged as an error and never retried.
//   - ErrUnauthorized: the bearer credential is missing or rejected.
//     Surfaces to the caller for re-authentication; never retried
//     silently.
//   - ErrConflict: a duplicate file write with differing content was
//     rejected (first write wins).
//   - ErrTooLarge: the file exceeds the backend's size limit.
//   - TransportError: network failure or 5xx. Eligible for caller-driven
//     retry with backoff; this package never retries internally.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("conflict")
	ErrTooLarge     = errors.New("payload too large")
)

// TransportError wraps a network-level or server-side failure. Distinct
// from the sentinel errors above: a transport failure says nothing about
// whether the resource exists.
type TransportError struct {
	Op     string // logical operation, e.g. "load scene"
	Status int    // HTTP status, 0 when the request never completed
	Err    error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: backend returned status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransport reports whether err is (or wraps) a transport failure.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
