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

// Tags groups the read-only tag handlers. Tags are reference data managed
// by seeding, not through the API.
type Tags struct {
	tagStore *store.TagStore
}

// NewTags creates a new Tags handler group.
func NewTags(tagStore *store.TagStore) *Tags {
	return &Tags{tagStore: tagStore}
}

// List returns all tags. Not paginated: the tag set is small and stable.
// GET /api/tags/
func (h *Tags) List(w http.ResponseWriter, r *http.Request) {
	tags, err := h.tagStore.List()
	if err != nil {
		writeServerError(w, "tag list failed", err)
		return
	}
	if tags == nil {
		tags = []models.Tag{}
	}
	writeJSON(w, http.StatusOK, tags)
}

// Detail returns one tag.
// GET /api/tags/{id}/
func (h *Tags) Detail(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeDetail(w, http.StatusNotFound, "Tag not found.")
		return
	}

	tag, err := h.tagStore.FindByID(id)
	if err != nil {
		writeServerError(w, "tag lookup failed", err)
		return
	}
	if tag == nil {
		writeDetail(w, http.StatusNotFound, "Tag not found.")
		return
	}
	writeJSON(w, http.StatusOK, tag)
}
