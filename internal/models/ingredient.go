// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "github.com/google/uuid"

// Ingredient is catalog reference data: a named ingredient with its
// measurement unit. Two rows may share a name with different units.
type Ingredient struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	MeasurementUnit string    `json:"measurement_unit"`
}

// IngredientAmount pairs an ingredient reference with a quantity inside a
// recipe write payload.
type IngredientAmount struct {
	IngredientID uuid.UUID
	Amount       int
}

// RecipeIngredient is the resolved read view of one ingredient line in a
// recipe: the catalog fields denormalized together with the amount.
type RecipeIngredient struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	MeasurementUnit string    `json:"measurement_unit"`
	Amount          int       `json:"amount"`
}
