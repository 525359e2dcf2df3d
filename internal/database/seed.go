package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"forkful/internal/slug"
)

// defaultTags are the tag labels every development instance starts with.
var defaultTags = []string{"Breakfast", "Lunch", "Dinner", "Dessert"}

// Seed populates the database with initial development data: a default
// admin account and a small set of recipe tags. It is a no-op when users
// already exist.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("admin"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO users (username, email, password_hash, first_name, last_name, role)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, "admin", "admin@forkful.local", string(hash), "Admin", "Admin", "admin")
	if err != nil {
		return fmt.Errorf("seed insert admin: %w", err)
	}

	for _, name := range defaultTags {
		_, err = db.Exec(`
			INSERT INTO tags (name, slug) VALUES ($1, $2)
			ON CONFLICT (slug) DO NOTHING
		`, name, slug.Generate(name))
		if err != nil {
			return fmt.Errorf("seed insert tag %q: %w", name, err)
		}
	}

	slog.Info("database seeded with default admin user and tags",
		"email", "admin@forkful.local",
		"password", "admin",
		"tags", len(defaultTags),
	)

	return nil
}
