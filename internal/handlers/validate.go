// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"forkful/internal/models"
)

// Validation limits for user and recipe fields.
const (
	maxUsernameLen  = 150
	maxEmailLen     = 254
	maxNamePartLen  = 150
	maxRecipeName   = 50
	maxRecipeText   = 1000
	minPasswordLen  = 8
	maxPasswordLen  = 128
)

// fieldErrors accumulates per-field validation messages.
type fieldErrors map[string][]string

func (fe fieldErrors) add(field, msg string) {
	fe[field] = append(fe[field], msg)
}

func (fe fieldErrors) ok() bool {
	return len(fe) == 0
}

// validateRegistration checks the signup payload.
func validateRegistration(username, email, password, firstName, lastName string) fieldErrors {
	fe := fieldErrors{}

	if strings.TrimSpace(username) == "" {
		fe.add("username", "Username is required.")
	} else if utf8.RuneCountInString(username) > maxUsernameLen {
		fe.add("username", fmt.Sprintf("Username is too long (max %d characters).", maxUsernameLen))
	}

	if strings.TrimSpace(email) == "" {
		fe.add("email", "Email is required.")
	} else if len(email) > maxEmailLen {
		fe.add("email", fmt.Sprintf("Email is too long (max %d characters).", maxEmailLen))
	} else if _, err := mail.ParseAddress(email); err != nil {
		fe.add("email", "Enter a valid email address.")
	}

	if len(password) < minPasswordLen {
		fe.add("password", fmt.Sprintf("Password must be at least %d characters.", minPasswordLen))
	} else if len(password) > maxPasswordLen {
		fe.add("password", fmt.Sprintf("Password is too long (max %d characters).", maxPasswordLen))
	}

	if utf8.RuneCountInString(firstName) > maxNamePartLen {
		fe.add("first_name", fmt.Sprintf("First name is too long (max %d characters).", maxNamePartLen))
	}
	if utf8.RuneCountInString(lastName) > maxNamePartLen {
		fe.add("last_name", fmt.Sprintf("Last name is too long (max %d characters).", maxNamePartLen))
	}

	return fe
}

// ingredientIn is one ingredient line in a recipe write payload.
type ingredientIn struct {
	ID     uuid.UUID `json:"id"`
	Amount int       `json:"amount"`
}

// validateRecipe checks a recipe write payload. Duplicate ingredient or tag
// references are rejected rather than merged, so the client hears about the
// mistake instead of silently losing a line.
func validateRecipe(name, text string, cookingTime int, ingredients []ingredientIn, tags []uuid.UUID) fieldErrors {
	fe := fieldErrors{}

	if strings.TrimSpace(name) == "" {
		fe.add("name", "Name is required.")
	} else if utf8.RuneCountInString(name) > maxRecipeName {
		fe.add("name", fmt.Sprintf("Name is too long (max %d characters).", maxRecipeName))
	}

	if strings.TrimSpace(text) == "" {
		fe.add("text", "Description is required.")
	} else if utf8.RuneCountInString(text) > maxRecipeText {
		fe.add("text", fmt.Sprintf("Description is too long (max %d characters).", maxRecipeText))
	}

	if cookingTime < models.CookingTimeMin || cookingTime > models.CookingTimeMax {
		fe.add("cooking_time", fmt.Sprintf("Cooking time must be between %d and %d minutes.",
			models.CookingTimeMin, models.CookingTimeMax))
	}

	if len(ingredients) == 0 {
		fe.add("ingredients", "At least one ingredient is required.")
	}
	seen := make(map[uuid.UUID]bool, len(ingredients))
	for _, ing := range ingredients {
		if seen[ing.ID] {
			fe.add("ingredients", "Duplicate ingredient in payload.")
			break
		}
		seen[ing.ID] = true
	}
	for _, ing := range ingredients {
		if ing.Amount < models.AmountMin || ing.Amount > models.AmountMax {
			fe.add("ingredients", fmt.Sprintf("Amount must be between %d and %d.",
				models.AmountMin, models.AmountMax))
			break
		}
	}

	if len(tags) == 0 {
		fe.add("tags", "At least one tag is required.")
	}
	seenTags := make(map[uuid.UUID]bool, len(tags))
	for _, id := range tags {
		if seenTags[id] {
			fe.add("tags", "Duplicate tag in payload.")
			break
		}
		seenTags[id] = true
	}

	return fe
}

// validatePassword checks a new password for the set_password endpoint.
func validatePassword(password string) fieldErrors {
	fe := fieldErrors{}
	if len(password) < minPasswordLen {
		fe.add("new_password", fmt.Sprintf("Password must be at least %d characters.", minPasswordLen))
	} else if len(password) > maxPasswordLen {
		fe.add("new_password", fmt.Sprintf("Password is too long (max %d characters).", maxPasswordLen))
	}
	return fe
}
