// store_test.go provides a shared test database helper for all store
// integration tests. Tests are skipped if PostgreSQL is not available.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"forkful/internal/database"
	"forkful/internal/models"
)

// testDSN returns the PostgreSQL connection string for testing.
// Uses environment variables with defaults matching docker-compose.yml.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "forkful")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "forkful")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test database and runs migrations.
// If the database is unavailable, the test is skipped. A cleanup
// function is registered to close the connection when the test finishes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := testDSN()
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}

	// Run migrations to ensure the schema is current.
	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	// Downgrade goose global state.
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// cleanUsers removes test users by email. Deleting the user cascades to
// their recipes, relations, and subscriptions. Call in t.Cleanup().
func cleanUsers(t *testing.T, db *sql.DB, emails ...string) {
	t.Helper()
	for _, email := range emails {
		db.Exec("DELETE FROM users WHERE email = $1", email)
	}
}

// cleanIngredients removes test ingredients by name. Call in t.Cleanup().
func cleanIngredients(t *testing.T, db *sql.DB, names ...string) {
	t.Helper()
	for _, name := range names {
		db.Exec("DELETE FROM ingredients WHERE name = $1", name)
	}
}

// cleanTags removes test tags by slug. Call in t.Cleanup().
func cleanTags(t *testing.T, db *sql.DB, slugs ...string) {
	t.Helper()
	for _, slug := range slugs {
		db.Exec("DELETE FROM tags WHERE slug = $1", slug)
	}
}

// mustUser creates a user with a unique suffix and registers cleanup.
func mustUser(t *testing.T, db *sql.DB, prefix string) *models.User {
	t.Helper()
	suffix := uuid.NewString()[:8]
	email := fmt.Sprintf("%s-%s@test.local", prefix, suffix)
	u, err := NewUserStore(db).Create(prefix+"-"+suffix, email, "secret-pw", "Test", "User")
	if err != nil {
		t.Fatalf("create test user: %v", err)
	}
	t.Cleanup(func() { cleanUsers(t, db, email) })
	return u
}

// mustIngredient creates a catalog ingredient and registers cleanup.
func mustIngredient(t *testing.T, db *sql.DB, name, unit string) *models.Ingredient {
	t.Helper()
	var i models.Ingredient
	err := db.QueryRow(`
		INSERT INTO ingredients (name, measurement_unit) VALUES ($1, $2)
		RETURNING id, name, measurement_unit
	`, name, unit).Scan(&i.ID, &i.Name, &i.MeasurementUnit)
	if err != nil {
		t.Fatalf("create test ingredient: %v", err)
	}
	t.Cleanup(func() { cleanIngredients(t, db, name) })
	return &i
}

// mustTag creates a tag and registers cleanup.
func mustTag(t *testing.T, db *sql.DB, name, slug string) *models.Tag {
	t.Helper()
	tag, err := NewTagStore(db).Create(name, slug)
	if err != nil {
		t.Fatalf("create test tag: %v", err)
	}
	t.Cleanup(func() { cleanTags(t, db, slug) })
	return tag
}
