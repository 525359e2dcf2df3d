// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package storage abstracts where uploaded images live. Production uses an
// S3-compatible bucket (CEPH/Hetzner); development falls back to the local
// filesystem so the API runs without cloud credentials.
package storage

import (
	"context"
	"io"
)

// Backend stores and serves uploaded media by key. Keys are relative paths
// like "recipes/<uuid>.png".
type Backend interface {
	// Save writes an object under key, replacing any existing one.
	Save(ctx context.Context, key, contentType string, body io.Reader, size int64) error

	// Delete removes an object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// URL returns the absolute URL clients use to fetch the object.
	URL(key string) string
}
