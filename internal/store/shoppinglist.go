// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"forkful/internal/models"
)

// ShoppingListStore aggregates ingredient amounts across every recipe in a
// user's shopping cart.
type ShoppingListStore struct {
	db *sql.DB
}

// NewShoppingListStore creates a new ShoppingListStore with the given database connection.
func NewShoppingListStore(db *sql.DB) *ShoppingListStore {
	return &ShoppingListStore{db: db}
}

// Aggregate sums ingredient amounts over the user's cart, grouped by
// ingredient name and measurement unit so that identical ingredients from
// different catalog rows still merge into one line. Ordered by name.
func (s *ShoppingListStore) Aggregate(userID uuid.UUID) ([]models.ShoppingItem, error) {
	rows, err := s.db.Query(`
		SELECT i.name, i.measurement_unit, SUM(ri.amount)
		FROM shopping_cart_entries c
		JOIN recipe_ingredients ri ON ri.recipe_id = c.recipe_id
		JOIN ingredients i ON i.id = ri.ingredient_id
		WHERE c.user_id = $1
		GROUP BY i.name, i.measurement_unit
		ORDER BY i.name ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("aggregate shopping list: %w", err)
	}
	defer rows.Close()

	var items []models.ShoppingItem
	for rows.Next() {
		var item models.ShoppingItem
		if err := rows.Scan(&item.Name, &item.MeasurementUnit, &item.TotalAmount); err != nil {
			return nil, fmt.Errorf("scan shopping item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// FormatPlainText renders the aggregated list as the downloadable text file,
// one line per ingredient.
func FormatPlainText(items []models.ShoppingItem) string {
	var b strings.Builder
	for _, item := range items {
		fmt.Fprintf(&b, "%s  - %d(%s)\n", item.Name, item.TotalAmount, item.MeasurementUnit)
	}
	return b.String()
}
