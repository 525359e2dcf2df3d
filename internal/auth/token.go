// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package auth provides Valkey-backed API token management. Tokens are
// opaque random strings sent in the Authorization header and stored as JSON
// in Valkey with automatic TTL expiry.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// Scheme is the Authorization header scheme clients must use:
	// "Authorization: Token <value>".
	Scheme = "Token"

	// DefaultTTL is how long a token lives in Valkey before automatic expiry.
	DefaultTTL = 30 * 24 * time.Hour

	// keyPrefix namespaces token keys in Valkey to avoid collisions.
	keyPrefix = "token:"

	// idLength is the byte length of the random token (20 bytes = 40 hex chars).
	idLength = 20
)

// Data holds the token payload stored in Valkey.
type Data struct {
	UserID    uuid.UUID `json:"user_id"`
	IssuedAt  time.Time `json:"issued_at"`
}

// Store manages token lifecycle in Valkey.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore creates a token store backed by the given Valkey client.
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
		ttl:    DefaultTTL,
	}
}

// Issue generates a new token for the user and stores it in Valkey.
func (s *Store) Issue(ctx context.Context, userID uuid.UUID) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", fmt.Errorf("token issue: %w", err)
	}

	payload, err := json.Marshal(Data{UserID: userID, IssuedAt: time.Now()})
	if err != nil {
		return "", fmt.Errorf("token marshal: %w", err)
	}

	if err := s.client.Set(ctx, keyPrefix+token, payload, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("token store: %w", err)
	}

	return token, nil
}

// Get resolves a token value to its payload. Returns nil if the token does
// not exist or has expired.
func (s *Store) Get(ctx context.Context, token string) (*Data, error) {
	payload, err := s.client.Get(ctx, keyPrefix+token).Bytes()
	if err == redis.Nil {
		return nil, nil // Expired or never issued (not an error)
	}
	if err != nil {
		return nil, fmt.Errorf("token get: %w", err)
	}

	var data Data
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("token unmarshal: %w", err)
	}

	return &data, nil
}

// Revoke deletes a token. Revoking an unknown token is not an error.
func (s *Store) Revoke(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, keyPrefix+token).Err(); err != nil {
		return fmt.Errorf("token revoke: %w", err)
	}
	return nil
}

// FromRequest extracts the token value from the Authorization header.
// Returns "" when the header is missing or uses a different scheme.
func FromRequest(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != Scheme {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// generateToken creates a cryptographically random token value.
func generateToken() (string, error) {
	b := make([]byte, idLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
