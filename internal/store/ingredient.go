// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"forkful/internal/models"
)

// IngredientStore handles the ingredient catalog: long-lived reference rows
// that recipes point at.
type IngredientStore struct {
	db *sql.DB
}

// NewIngredientStore creates a new IngredientStore with the given database connection.
func NewIngredientStore(db *sql.DB) *IngredientStore {
	return &IngredientStore{db: db}
}

// List returns ingredients ordered by name. A non-empty prefix restricts the
// result to names starting with it (case-sensitive, for typeahead filtering).
func (s *IngredientStore) List(prefix string) ([]models.Ingredient, error) {
	query := `SELECT id, name, measurement_unit FROM ingredients`
	args := []any{}
	if prefix != "" {
		query += ` WHERE name LIKE $1 || '%'`
		args = append(args, escapeLike(prefix))
	}
	query += ` ORDER BY name ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list ingredients: %w", err)
	}
	defer rows.Close()

	var items []models.Ingredient
	for rows.Next() {
		var i models.Ingredient
		if err := rows.Scan(&i.ID, &i.Name, &i.MeasurementUnit); err != nil {
			return nil, fmt.Errorf("scan ingredient: %w", err)
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

// FindByID retrieves an ingredient by its UUID. Returns nil if not found.
func (s *IngredientStore) FindByID(id uuid.UUID) (*models.Ingredient, error) {
	i := &models.Ingredient{}
	err := s.db.QueryRow(`
		SELECT id, name, measurement_unit FROM ingredients WHERE id = $1
	`, id).Scan(&i.ID, &i.Name, &i.MeasurementUnit)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find ingredient by id: %w", err)
	}
	return i, nil
}

// CountByIDs returns how many of the given ingredient IDs exist. Recipe
// validation uses it to reject payloads referencing unknown ingredients.
func (s *IngredientStore) CountByIDs(ids []uuid.UUID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var count int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM ingredients WHERE id = ANY($1::uuid[])
	`, uuidStrings(ids)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count ingredients by ids: %w", err)
	}
	return count, nil
}

// ImportRow is one line of a bulk ingredient import.
type ImportRow struct {
	Name            string
	MeasurementUnit string
}

// Import upserts catalog rows keyed on (name, measurement_unit). Existing
// pairs are left untouched, so running the same import twice is a no-op.
// Returns the number of newly inserted rows.
func (s *IngredientStore) Import(rows []ImportRow) (int, error) {
	inserted := 0
	for _, r := range rows {
		res, err := s.db.Exec(`
			INSERT INTO ingredients (name, measurement_unit)
			VALUES ($1, $2)
			ON CONFLICT ON CONSTRAINT ingredients_name_unit_key DO NOTHING
		`, r.Name, r.MeasurementUnit)
		if err != nil {
			return inserted, fmt.Errorf("import ingredient %q: %w", r.Name, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return inserted, fmt.Errorf("import ingredient %q: %w", r.Name, err)
		}
		inserted += int(n)
	}
	return inserted, nil
}

// escapeLike neutralizes LIKE metacharacters in user-supplied prefixes.
func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
