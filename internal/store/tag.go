// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store provides database access methods for all Forkful entities.
// Each store struct wraps a *sql.DB and exposes typed query methods.
package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"forkful/internal/models"
)

// TagStore handles all tag-related database operations. Tags are shared
// reference data: recipe operations link to them but never modify them.
type TagStore struct {
	db *sql.DB
}

// NewTagStore creates a new TagStore with the given database connection.
func NewTagStore(db *sql.DB) *TagStore {
	return &TagStore{db: db}
}

// List returns all tags ordered by name.
func (s *TagStore) List() ([]models.Tag, error) {
	rows, err := s.db.Query(`SELECT id, name, slug FROM tags ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	var tags []models.Tag
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// FindByID retrieves a tag by its UUID. Returns nil if not found.
func (s *TagStore) FindByID(id uuid.UUID) (*models.Tag, error) {
	t := &models.Tag{}
	err := s.db.QueryRow(`SELECT id, name, slug FROM tags WHERE id = $1`, id).
		Scan(&t.ID, &t.Name, &t.Slug)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find tag by id: %w", err)
	}
	return t, nil
}

// FindByIDs retrieves the tags for the given IDs, ordered by name. The
// result may be shorter than ids when some IDs do not exist; callers that
// need all of them must compare lengths.
func (s *TagStore) FindByIDs(ids []uuid.UUID) ([]models.Tag, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := s.db.Query(`
		SELECT id, name, slug FROM tags
		WHERE id = ANY($1::uuid[])
		ORDER BY name ASC
	`, uuidStrings(ids))
	if err != nil {
		return nil, fmt.Errorf("find tags by ids: %w", err)
	}
	defer rows.Close()

	var tags []models.Tag
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// Create inserts a new tag. Used by seeding and administrative tooling.
func (s *TagStore) Create(name, slug string) (*models.Tag, error) {
	t := &models.Tag{}
	err := s.db.QueryRow(`
		INSERT INTO tags (name, slug) VALUES ($1, $2)
		RETURNING id, name, slug
	`, name, slug).Scan(&t.ID, &t.Name, &t.Slug)
	if err != nil {
		return nil, fmt.Errorf("create tag: %w", err)
	}
	return t, nil
}

// uuidStrings converts a UUID slice to strings for array binding.
func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
