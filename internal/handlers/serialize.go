// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// serialize.go builds the API's response projections. Read views resolve
// storage keys to URLs and attach the caller-relative flags; they never
// expose password hashes or raw storage keys.
package handlers

import (
	"github.com/google/uuid"

	"forkful/internal/models"
	"forkful/internal/storage"
)

// userOut is the public projection of a user.
type userOut struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	IsSubscribed bool      `json:"is_subscribed"`
	Avatar       *string   `json:"avatar"`
}

// recipeOut is the full read projection of a recipe.
type recipeOut struct {
	ID               uuid.UUID                 `json:"id"`
	Tags             []models.Tag              `json:"tags"`
	Author           userOut                   `json:"author"`
	Ingredients      []models.RecipeIngredient `json:"ingredients"`
	IsFavorited      bool                      `json:"is_favorited"`
	IsInShoppingCart bool                      `json:"is_in_shopping_cart"`
	Name             string                    `json:"name"`
	Image            string                    `json:"image"`
	Text             string                    `json:"text"`
	CookingTime      int                       `json:"cooking_time"`
}

// recipeShortOut is the compact projection used in subscription feeds.
type recipeShortOut struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Image       string    `json:"image"`
	CookingTime int       `json:"cooking_time"`
}

// subscriptionOut is a followed author together with a recipe preview.
type subscriptionOut struct {
	userOut
	Recipes      []recipeShortOut `json:"recipes"`
	RecipesCount int              `json:"recipes_count"`
}

// serializer turns models into response projections. It needs the storage
// backend to build image URLs.
type serializer struct {
	media storage.Backend
}

func (s serializer) user(u *models.User, isSubscribed bool) userOut {
	out := userOut{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: isSubscribed,
	}
	if u.AvatarKey != nil {
		url := s.media.URL(*u.AvatarKey)
		out.Avatar = &url
	}
	return out
}

func (s serializer) recipe(d *models.RecipeDetail, author *models.User, authorSubscribed bool) recipeOut {
	out := recipeOut{
		ID:               d.ID,
		Tags:             d.Tags,
		Author:           s.user(author, authorSubscribed),
		Ingredients:      d.Ingredients,
		IsFavorited:      d.IsFavorited,
		IsInShoppingCart: d.IsInShoppingCart,
		Name:             d.Name,
		Image:            s.media.URL(d.ImageKey),
		Text:             d.Text,
		CookingTime:      d.CookingTime,
	}
	// JSON arrays, not null, even when empty.
	if out.Tags == nil {
		out.Tags = []models.Tag{}
	}
	if out.Ingredients == nil {
		out.Ingredients = []models.RecipeIngredient{}
	}
	return out
}

func (s serializer) recipeShort(r *models.Recipe) recipeShortOut {
	return recipeShortOut{
		ID:          r.ID,
		Name:        r.Name,
		Image:       s.media.URL(r.ImageKey),
		CookingTime: r.CookingTime,
	}
}
