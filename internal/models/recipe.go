// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Bounds for recipe numeric fields. Enforced both in request validation and
// by CHECK constraints in the schema.
const (
	CookingTimeMin = 1
	CookingTimeMax = 32000
	AmountMin      = 1
	AmountMax      = 32000
)

// Recipe represents a published recipe. The ingredient and tag associations
// are owned by the recipe and replaced wholesale on every update.
type Recipe struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	ImageKey    string    `json:"-"` // storage key; read views expose a URL
	Text        string    `json:"text"`
	CookingTime int       `json:"cooking_time"`
	AuthorID    uuid.UUID `json:"author_id"`
	PublishedAt time.Time `json:"published_at"`
}

// RecipeDetail is the read projection of a recipe: the entity plus its
// resolved associations and the caller-relative ledger flags. It is built by
// the store, never persisted.
type RecipeDetail struct {
	Recipe
	Ingredients      []RecipeIngredient `json:"ingredients"`
	Tags             []Tag              `json:"tags"`
	IsFavorited      bool               `json:"is_favorited"`
	IsInShoppingCart bool               `json:"is_in_shopping_cart"`
}
