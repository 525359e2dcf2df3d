// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// shoppinglist.go provides a Valkey-backed cache for rendered shopping
// lists. Aggregating a cart joins three tables, so the rendered text file is
// cached per user and invalidated whenever the cart or a carted recipe
// changes.
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// shoppingListKeyPrefix is the Valkey key prefix for cached lists.
	shoppingListKeyPrefix = "shoppinglist:"

	// DefaultShoppingListTTL bounds staleness when an invalidation is missed.
	DefaultShoppingListTTL = 15 * time.Minute
)

// ShoppingListCache manages rendered shopping-list caching in Valkey.
type ShoppingListCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewShoppingListCache creates a cache backed by the given Valkey client.
func NewShoppingListCache(client *redis.Client, ttl time.Duration) *ShoppingListCache {
	if ttl == 0 {
		ttl = DefaultShoppingListTTL
	}
	return &ShoppingListCache{client: client, ttl: ttl}
}

// Get retrieves the cached rendered list for a user. Returns false on miss.
func (c *ShoppingListCache) Get(ctx context.Context, userID uuid.UUID) ([]byte, bool) {
	val, err := c.client.Get(ctx, shoppingListKeyPrefix+userID.String()).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("shopping list cache get error", "user", userID, "error", err)
		return nil, false
	}
	slog.Debug("shopping list cache hit", "user", userID)
	return val, true
}

// Set stores the rendered list for a user with the configured TTL.
func (c *ShoppingListCache) Set(ctx context.Context, userID uuid.UUID, body []byte) {
	if err := c.client.Set(ctx, shoppingListKeyPrefix+userID.String(), body, c.ttl).Err(); err != nil {
		slog.Warn("shopping list cache set error", "user", userID, "error", err)
	}
}

// Invalidate removes a user's cached list. Called when their cart changes.
func (c *ShoppingListCache) Invalidate(ctx context.Context, userID uuid.UUID) {
	if err := c.client.Del(ctx, shoppingListKeyPrefix+userID.String()).Err(); err != nil {
		slog.Warn("shopping list cache invalidate error", "user", userID, "error", err)
	}
}

// InvalidateForRecipe removes the cached lists of every user whose cart
// contains the recipe. Called when a recipe's ingredients change or the
// recipe is deleted.
func (c *ShoppingListCache) InvalidateForRecipe(ctx context.Context, userIDs []uuid.UUID) {
	if len(userIDs) == 0 {
		return
	}
	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = shoppingListKeyPrefix + id.String()
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		slog.Warn("shopping list cache bulk invalidate error", "error", err)
	}
}
