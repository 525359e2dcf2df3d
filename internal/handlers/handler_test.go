// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler integration
// tests. Tests are skipped when PostgreSQL or Valkey are unavailable.
package handlers

import (
	"context"
	"database/sql"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	"forkful/internal/auth"
	"forkful/internal/cache"
	"forkful/internal/database"
	"forkful/internal/middleware"
	"forkful/internal/models"
	"forkful/internal/storage"
	"forkful/internal/store"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test PostgreSQL and runs migrations.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "forkful")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "forkful")
	dsn := "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// testValkeyClient returns a Redis client for handler tests on DB 15.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		// Clean up test token and cache keys.
		for _, pattern := range []string{"token:*", "shoppinglist:*", "ratelimit:*"} {
			keys, _ := client.Keys(ctx, pattern).Result()
			if len(keys) > 0 {
				client.Del(ctx, keys...)
			}
		}
		client.Close()
	})

	return client
}

// testEnv holds all dependencies for handler integration tests.
type testEnv struct {
	DB              *sql.DB
	Valkey          *redis.Client
	Tokens          *auth.Store
	UserStore       *store.UserStore
	RecipeStore     *store.RecipeStore
	TagStore        *store.TagStore
	IngredientStore *store.IngredientStore
	RelationStore   *store.RelationStore
	ListStore       *store.ShoppingListStore
	ListCache       *cache.ShoppingListCache
	Media           storage.Backend
	Auth            *Auth
	Users           *Users
	Recipes         *Recipes
	Tags            *Tags
	Ingredients     *Ingredients
}

// newTestEnv creates a complete test environment with all handler
// dependencies, backed by local media storage in a temp directory.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testDB(t)
	vk := testValkeyClient(t)

	media, err := storage.NewLocal(t.TempDir(), "http://localhost:8080/media")
	if err != nil {
		t.Fatalf("storage.NewLocal: %v", err)
	}

	tokens := auth.NewStore(vk)
	listCache := cache.NewShoppingListCache(vk, 1*time.Minute)

	userStore := store.NewUserStore(db)
	recipeStore := store.NewRecipeStore(db)
	tagStore := store.NewTagStore(db)
	ingredientStore := store.NewIngredientStore(db)
	relationStore := store.NewRelationStore(db)
	listStore := store.NewShoppingListStore(db)

	return &testEnv{
		DB:              db,
		Valkey:          vk,
		Tokens:          tokens,
		UserStore:       userStore,
		RecipeStore:     recipeStore,
		TagStore:        tagStore,
		IngredientStore: ingredientStore,
		RelationStore:   relationStore,
		ListStore:       listStore,
		ListCache:       listCache,
		Media:           media,
		Auth:            NewAuth(tokens, userStore),
		Users:           NewUsers(userStore, recipeStore, relationStore, media),
		Recipes: NewRecipes(recipeStore, userStore, relationStore,
			ingredientStore, tagStore, listStore, listCache, media, "http://localhost:8080"),
		Tags:        NewTags(tagStore),
		Ingredients: NewIngredients(ingredientStore),
	}
}

// ctxWithUser adds an authenticated user to a request context using the
// middleware key.
func ctxWithUser(r *http.Request, u *models.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), middleware.UserKey, u))
}

// withChiURLParam adds a chi URL parameter to a request.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// mustUser creates a user with a unique suffix and registers cleanup.
func (env *testEnv) mustUser(t *testing.T, prefix string) *models.User {
	t.Helper()
	suffix := uuid.NewString()[:8]
	email := fmt.Sprintf("%s-%s@test.local", prefix, suffix)
	u, err := env.UserStore.Create(prefix+"-"+suffix, email, "secret-pw-123", "Test", "User")
	if err != nil {
		t.Fatalf("create test user: %v", err)
	}
	t.Cleanup(func() { env.DB.Exec("DELETE FROM users WHERE id = $1", u.ID) })
	return u
}

// mustIngredient creates a catalog ingredient and registers cleanup.
func (env *testEnv) mustIngredient(t *testing.T, name, unit string) *models.Ingredient {
	t.Helper()
	var i models.Ingredient
	err := env.DB.QueryRow(`
		INSERT INTO ingredients (name, measurement_unit) VALUES ($1, $2)
		RETURNING id, name, measurement_unit
	`, name, unit).Scan(&i.ID, &i.Name, &i.MeasurementUnit)
	if err != nil {
		t.Fatalf("create test ingredient: %v", err)
	}
	t.Cleanup(func() { env.DB.Exec("DELETE FROM ingredients WHERE id = $1", i.ID) })
	return &i
}

// mustTag creates a tag with a unique slug and registers cleanup.
func (env *testEnv) mustTag(t *testing.T, name string) *models.Tag {
	t.Helper()
	slug := "t-" + uuid.NewString()[:8]
	tag, err := env.TagStore.Create(name, slug)
	if err != nil {
		t.Fatalf("create test tag: %v", err)
	}
	t.Cleanup(func() { env.DB.Exec("DELETE FROM tags WHERE id = $1", tag.ID) })
	return tag
}

// mustRecipe creates a recipe owned by author and registers cleanup.
func (env *testEnv) mustRecipe(t *testing.T, author *models.User, name string, ingredients []models.IngredientAmount, tagIDs []uuid.UUID) *models.Recipe {
	t.Helper()
	r, err := env.RecipeStore.Create(author.ID, name, "Test recipe body.", "recipes/test.png", 15, ingredients, tagIDs)
	if err != nil {
		t.Fatalf("create test recipe: %v", err)
	}
	t.Cleanup(func() { env.DB.Exec("DELETE FROM recipes WHERE id = $1", r.ID) })
	return r
}

// tinyPNG is a valid 1x1 transparent PNG for image upload payloads.
var tinyPNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0d, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x62, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

// pngDataURI returns the test image as a base64 data URI.
func pngDataURI() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(tinyPNG)
}
