// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"forkful/internal/models"
	"forkful/internal/store"
)

// Ingredients groups the read-only ingredient catalog handlers.
type Ingredients struct {
	ingredientStore *store.IngredientStore
}

// NewIngredients creates a new Ingredients handler group.
func NewIngredients(ingredientStore *store.IngredientStore) *Ingredients {
	return &Ingredients{ingredientStore: ingredientStore}
}

// List returns catalog ingredients, optionally filtered by name prefix.
// Not paginated: clients filter with ?name= for typeahead.
// GET /api/ingredients/?name=<prefix>
func (h *Ingredients) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.ingredientStore.List(r.URL.Query().Get("name"))
	if err != nil {
		writeServerError(w, "ingredient list failed", err)
		return
	}
	if items == nil {
		items = []models.Ingredient{}
	}
	writeJSON(w, http.StatusOK, items)
}

// Detail returns one catalog ingredient.
// GET /api/ingredients/{id}/
func (h *Ingredients) Detail(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeDetail(w, http.StatusNotFound, "Ingredient not found.")
		return
	}

	item, err := h.ingredientStore.FindByID(id)
	if err != nil {
		writeServerError(w, "ingredient lookup failed", err)
		return
	}
	if item == nil {
		writeDetail(w, http.StatusNotFound, "Ingredient not found.")
		return
	}
	writeJSON(w, http.StatusOK, item)
}
