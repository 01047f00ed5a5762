// Copyright (c) 2026 TeamPulse. All rights reserved.
// Author: engineering@teampulse.dev

package gateway

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/billowria/teampulse/internal/platform/apperr"
)

// DiskStorage implements [Storage] on the local filesystem.
//
// Objects land under {root}/{bucket}/{path} and are served by a static file
// route (or a fronting CDN) rooted at the configured public base URL. The
// dependency corpus carries no cloud object-store SDK, so local disk behind
// the [Storage] interface is the production implementation; swapping in an
// S3-compatible backend later only requires another implementation of the
// same interface.
type DiskStorage struct {
	root    string
	baseURL string
}

// NewDiskStorage constructs a filesystem backed object store.
func NewDiskStorage(root, publicBaseURL string) *DiskStorage {
	return &DiskStorage{
		root:    root,
		baseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

/*
Upload persists the blob under bucket/path and returns the stored path.

Description: Rejects path traversal, creates parent directories, and writes
via a temporary file so a crashed upload never leaves a partial object
visible.

Parameters:
  - ctx: context.Context (checked before the write begins)
  - bucket: string
  - path: string (relative object key)
  - blob: io.Reader

Returns:
  - string: The stored object key
  - error: Validation or filesystem failures
*/
func (storage *DiskStorage) Upload(ctx context.Context, bucket, path string, blob io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	cleanPath, err := sanitizeObjectKey(bucket, path)
	if err != nil {
		return "", err
	}

	target := filepath.Join(storage.root, cleanPath)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("storage_mkdir_failed: %w", err)
	}

	// Write to a temp file first, then rename into place atomically.
	tempFile, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("storage_tempfile_failed: %w", err)
	}

	if _, err := io.Copy(tempFile, blob); err != nil {
		_ = tempFile.Close()
		_ = os.Remove(tempFile.Name())
		return "", fmt.Errorf("storage_write_failed: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		_ = os.Remove(tempFile.Name())
		return "", fmt.Errorf("storage_close_failed: %w", err)
	}

	if err := os.Rename(tempFile.Name(), target); err != nil {
		_ = os.Remove(tempFile.Name())
		return "", fmt.Errorf("storage_rename_failed: %w", err)
	}

	return path, nil
}

// PublicURL returns the publicly reachable URL for a stored object.
func (storage *DiskStorage) PublicURL(bucket, path string) string {
	return fmt.Sprintf("%s/%s/%s", storage.baseURL, bucket, strings.TrimLeft(path, "/"))
}

// sanitizeObjectKey validates and joins the bucket/path pair.
func sanitizeObjectKey(bucket, path string) (string, error) {
	if bucket == "" || strings.ContainsAny(bucket, "/\\") {
		return "", apperr.ValidationError("Invalid storage bucket")
	}

	cleaned := filepath.Clean("/" + path)
	if cleaned == "/" || strings.Contains(cleaned, "..") {
		return "", apperr.ValidationError("Invalid storage path")
	}

	return filepath.Join(bucket, cleaned), nil
}
