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

// RelationStore handles the per-user relation tables: favourites, shopping
// cart entries, and author subscriptions. All adds and removes are
// idempotent; the boolean result reports whether a row actually changed.
type RelationStore struct {
	db *sql.DB
}

// NewRelationStore creates a new RelationStore with the given database connection.
func NewRelationStore(db *sql.DB) *RelationStore {
	return &RelationStore{db: db}
}

func (s *RelationStore) add(table string, userID, recipeID uuid.UUID) (bool, error) {
	res, err := s.db.Exec(`
		INSERT INTO `+table+` (user_id, recipe_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, userID, recipeID)
	if err != nil {
		return false, fmt.Errorf("add %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("add %s: %w", table, err)
	}
	return n > 0, nil
}

func (s *RelationStore) remove(table string, userID, recipeID uuid.UUID) (bool, error) {
	res, err := s.db.Exec(`
		DELETE FROM `+table+` WHERE user_id = $1 AND recipe_id = $2
	`, userID, recipeID)
	if err != nil {
		return false, fmt.Errorf("remove %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("remove %s: %w", table, err)
	}
	return n > 0, nil
}

func (s *RelationStore) exists(table string, userID, recipeID uuid.UUID) (bool, error) {
	var found bool
	err := s.db.QueryRow(`
		SELECT EXISTS (SELECT 1 FROM `+table+` WHERE user_id = $1 AND recipe_id = $2)
	`, userID, recipeID).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("check %s: %w", table, err)
	}
	return found, nil
}

// AddFavorite marks a recipe as a favourite of the user. Returns false if it
// already was one.
func (s *RelationStore) AddFavorite(userID, recipeID uuid.UUID) (bool, error) {
	return s.add("favourites", userID, recipeID)
}

// RemoveFavorite unmarks a favourite. Returns false if no row existed.
func (s *RelationStore) RemoveFavorite(userID, recipeID uuid.UUID) (bool, error) {
	return s.remove("favourites", userID, recipeID)
}

// IsFavorited reports whether the user has favourited the recipe.
func (s *RelationStore) IsFavorited(userID, recipeID uuid.UUID) (bool, error) {
	return s.exists("favourites", userID, recipeID)
}

// AddCartEntry puts a recipe in the user's shopping cart. Returns false if
// it was already there.
func (s *RelationStore) AddCartEntry(userID, recipeID uuid.UUID) (bool, error) {
	return s.add("shopping_cart_entries", userID, recipeID)
}

// RemoveCartEntry takes a recipe out of the user's shopping cart. Returns
// false if no row existed.
func (s *RelationStore) RemoveCartEntry(userID, recipeID uuid.UUID) (bool, error) {
	return s.remove("shopping_cart_entries", userID, recipeID)
}

// IsInCart reports whether the recipe is in the user's shopping cart.
func (s *RelationStore) IsInCart(userID, recipeID uuid.UUID) (bool, error) {
	return s.exists("shopping_cart_entries", userID, recipeID)
}

// UsersWithRecipeInCart returns the IDs of every user whose shopping cart
// contains the recipe. Used to invalidate cached shopping lists when the
// recipe changes.
func (s *RelationStore) UsersWithRecipeInCart(recipeID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.db.Query(`
		SELECT user_id FROM shopping_cart_entries WHERE recipe_id = $1
	`, recipeID)
	if err != nil {
		return nil, fmt.Errorf("users with recipe in cart: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan cart user: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Subscribe makes subscriberID follow authorID. Self-subscription is
// rejected at the schema level; handlers validate it before calling here.
// Returns false if the subscription already existed.
func (s *RelationStore) Subscribe(subscriberID, authorID uuid.UUID) (bool, error) {
	res, err := s.db.Exec(`
		INSERT INTO subscriptions (subscriber_id, author_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, subscriberID, authorID)
	if err != nil {
		return false, fmt.Errorf("subscribe: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("subscribe: %w", err)
	}
	return n > 0, nil
}

// Unsubscribe removes a subscription. Returns false if no row existed.
func (s *RelationStore) Unsubscribe(subscriberID, authorID uuid.UUID) (bool, error) {
	res, err := s.db.Exec(`
		DELETE FROM subscriptions WHERE subscriber_id = $1 AND author_id = $2
	`, subscriberID, authorID)
	if err != nil {
		return false, fmt.Errorf("unsubscribe: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("unsubscribe: %w", err)
	}
	return n > 0, nil
}

// IsSubscribed reports whether subscriberID follows authorID.
func (s *RelationStore) IsSubscribed(subscriberID, authorID uuid.UUID) (bool, error) {
	var found bool
	err := s.db.QueryRow(`
		SELECT EXISTS (SELECT 1 FROM subscriptions WHERE subscriber_id = $1 AND author_id = $2)
	`, subscriberID, authorID).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("check subscription: %w", err)
	}
	return found, nil
}

// ListSubscribedAuthors returns the authors the user follows, ordered by
// when the subscription was created, paginated.
func (s *RelationStore) ListSubscribedAuthors(subscriberID uuid.UUID, limit, offset int) ([]models.User, error) {
	rows, err := s.db.Query(`
		SELECT `+qualify(userColumns, "u")+`
		FROM subscriptions s
		JOIN users u ON u.id = s.author_id
		WHERE s.subscriber_id = $1
		ORDER BY s.created_at ASC
		LIMIT $2 OFFSET $3
	`, subscriberID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list subscribed authors: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subscribed author: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// CountSubscribedAuthors returns how many authors the user follows.
func (s *RelationStore) CountSubscribedAuthors(subscriberID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM subscriptions WHERE subscriber_id = $1
	`, subscriberID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count subscribed authors: %w", err)
	}
	return count, nil
}
