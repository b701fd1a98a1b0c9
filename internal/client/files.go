// Excalidraw Self-Hosted - Whiteboard Persistence and Sync Backend
// Copyright 2026 fakuuy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fakuuy/excalidraw

package client

import (
	"context"
	"errors"
	"sync"

	"github.com/fakuuy/excalidraw/internal/logging"
	"github.com/fakuuy/excalidraw/internal/metrics"
	"github.com/fakuuy/excalidraw/internal/models"
	"github.com/fakuuy/excalidraw/internal/scene"
)

// FileSyncResult partitions an upload batch into the file IDs that were
// persisted and those that were not. Both slices preserve input order.
// An idempotent re-upload of identical content counts as saved.
type FileSyncResult struct {
	Saved  []string
	Failed []string
}

// FileFetchResult partitions a download batch. Missing holds IDs the
// backend has never seen, Failed holds IDs whose fetch errored. Order
// follows the input.
type FileFetchResult struct {
	Files   []scene.File
	Missing []string
	Failed  []string
}

// UploadFiles pushes a batch of files for a room, bounded by the
// client's concurrency limit. One file's failure never aborts the
// batch; every file is attempted and reported individually.
func (c *Client) UploadFiles(ctx context.Context, roomID string, files []scene.File) FileSyncResult {
	if len(files) == 0 {
		return FileSyncResult{}
	}

	errs := make([]error, len(files))
	sem := make(chan struct{}, c.concurrency)
	var wg sync.WaitGroup

	for i := range files {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			errs[i] = c.uploadFile(ctx, roomID, &files[i])
		}(i)
	}
	wg.Wait()

	var result FileSyncResult
	for i, f := range files {
		if errs[i] != nil {
			logging.Warn().
				Err(errs[i]).
				Str("room_id", roomID).
				Str("file_id", f.ID).
				Msg("File upload failed")
			metrics.FileUploads.WithLabelValues("failed").Inc()
			result.Failed = append(result.Failed, f.ID)
			continue
		}
		result.Saved = append(result.Saved, f.ID)
	}
	return result
}

func (c *Client) uploadFile(ctx context.Context, roomID string, f *scene.File) error {
	err := c.doRequest(ctx, "upload file", requestConfig{
		method: "POST",
		path:   "/rooms/" + roomID + "/files/" + f.ID,
		body: models.FileDocument{
			ID:       f.ID,
			MimeType: f.MimeType,
			Payload:  f.Data,
		},
	}, nil)
	if err != nil {
		return err
	}
	metrics.FileUploads.WithLabelValues("saved").Inc()
	metrics.FileBytesTransferred.WithLabelValues("upload").Add(float64(len(f.Data)))
	return nil
}

// DownloadFiles fetches a batch of files for a room, bounded by the
// client's concurrency limit. IDs the backend does not have land in
// Missing; transient errors land in Failed so the caller can retry
// just those.
func (c *Client) DownloadFiles(ctx context.Context, roomID string, fileIDs []string) FileFetchResult {
	if len(fileIDs) == 0 {
		return FileFetchResult{}
	}

	type slot struct {
		file scene.File
		err  error
	}
	slots := make([]slot, len(fileIDs))
	sem := make(chan struct{}, c.concurrency)
	var wg sync.WaitGroup

	for i, id := range fileIDs {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, id string) {
			defer wg.Done()
			defer func() { <-sem }()

			var doc models.FileDocument
			err := c.doRequest(ctx, "download file", requestConfig{
				method: "GET",
				path:   "/rooms/" + roomID + "/files/" + id,
			}, &doc)
			if err != nil {
				slots[i].err = err
				return
			}
			slots[i].file = scene.File{
				ID:       doc.ID,
				MimeType: doc.MimeType,
				Data:     doc.Payload,
			}
			metrics.FileDownloads.WithLabelValues("loaded").Inc()
			metrics.FileBytesTransferred.WithLabelValues("download").Add(float64(len(doc.Payload)))
		}(i, id)
	}
	wg.Wait()

	var result FileFetchResult
	for i, id := range fileIDs {
		switch {
		case slots[i].err == nil:
			result.Files = append(result.Files, slots[i].file)
		case errors.Is(slots[i].err, ErrNotFound):
			result.Missing = append(result.Missing, id)
		default:
			logging.Warn().
				Err(slots[i].err).
				Str("room_id", roomID).
				Str("file_id", id).
				Msg("File download failed")
			metrics.FileDownloads.WithLabelValues("failed").Inc()
			result.Failed = append(result.Failed, id)
		}
	}
	return result
}
