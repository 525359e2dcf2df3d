// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalBackend stores media on the local filesystem under a base directory.
// The router serves the directory at /media/ in development.
type LocalBackend struct {
	baseDir string
	baseURL string // e.g. "http://localhost:8080/media"
}

// NewLocal creates a filesystem storage backend rooted at baseDir.
func NewLocal(baseDir, baseURL string) (*LocalBackend, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	return &LocalBackend{
		baseDir: baseDir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Dir returns the base directory, for mounting as a static file route.
func (b *LocalBackend) Dir() string {
	return b.baseDir
}

// path resolves a key inside the base directory, rejecting traversal.
func (b *LocalBackend) path(key string) (string, error) {
	clean := filepath.Clean("/" + key)
	if clean == "/" {
		return "", fmt.Errorf("empty storage key")
	}
	return filepath.Join(b.baseDir, clean), nil
}

// Save writes an object to disk, creating parent directories as needed.
func (b *LocalBackend) Save(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	path, err := b.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("local save %s: %w", key, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("local save %s: %w", key, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, body); err != nil {
		os.Remove(path)
		return fmt.Errorf("local save %s: %w", key, err)
	}
	return nil
}

// Delete removes an object. A missing file is not an error.
func (b *LocalBackend) Delete(ctx context.Context, key string) error {
	path, err := b.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("local delete %s: %w", key, err)
	}
	return nil
}

// URL returns the media URL served by the API's static file route.
func (b *LocalBackend) URL(key string) string {
	return b.baseURL + "/" + strings.TrimLeft(key, "/")
}
