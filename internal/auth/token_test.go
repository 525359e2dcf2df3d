package auth

import (
	"context"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// testValkeyClient returns a Redis client connected to the test Valkey.
// Skips the test if Valkey is unavailable.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15, // Use DB 15 for tests to isolate from dev data.
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping integration test: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		// Clean up test keys.
		keys, _ := client.Keys(ctx, "token:*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		client.Close()
	})

	return client
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestTokenIssueAndGet(t *testing.T) {
	client := testValkeyClient(t)
	store := NewStore(client)
	ctx := context.Background()

	userID := uuid.New()
	token, err := store.Issue(ctx, userID)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	data, err := store.Get(ctx, token)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if data == nil {
		t.Fatal("expected token data, got nil")
	}
	if data.UserID != userID {
		t.Errorf("userID: got %s, want %s", data.UserID, userID)
	}
	if data.IssuedAt.IsZero() {
		t.Error("expected IssuedAt to be set")
	}
}

func TestTokenGetUnknown(t *testing.T) {
	client := testValkeyClient(t)
	store := NewStore(client)

	data, err := store.Get(context.Background(), "nonexistent-token")
	if err != nil {
		t.Fatalf("Get (unknown): %v", err)
	}
	if data != nil {
		t.Error("expected nil for unknown token")
	}
}

func TestTokenRevoke(t *testing.T) {
	client := testValkeyClient(t)
	store := NewStore(client)
	ctx := context.Background()

	token, err := store.Issue(ctx, uuid.New())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if err := store.Revoke(ctx, token); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	data, err := store.Get(ctx, token)
	if err != nil {
		t.Fatalf("Get after revoke: %v", err)
	}
	if data != nil {
		t.Error("expected nil after revoke")
	}

	// Revoking again is not an error.
	if err := store.Revoke(ctx, token); err != nil {
		t.Errorf("second Revoke: %v", err)
	}
}

func TestFromRequest(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Token abc123", "abc123"},
		{"Token  abc123", "abc123"},
		{"Bearer abc123", ""},
		{"Token", ""},
		{"", ""},
	}

	for _, tt := range tests {
		req := httptest.NewRequest("GET", "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		if got := FromRequest(req); got != tt.want {
			t.Errorf("FromRequest(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}
