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

const recipeColumns = `id, name, image_key, text, cooking_time, author_id, published_at`

// RecipeStore handles all recipe-related database operations, including the
// ingredient and tag links that belong to each recipe.
type RecipeStore struct {
	db *sql.DB
}

// NewRecipeStore creates a new RecipeStore with the given database connection.
func NewRecipeStore(db *sql.DB) *RecipeStore {
	return &RecipeStore{db: db}
}

// RecipeFilter narrows List and Count. Zero-value fields are ignored.
type RecipeFilter struct {
	AuthorID    *uuid.UUID
	TagSlugs    []string
	FavoritedBy *uuid.UUID
	InCartOf    *uuid.UUID
}

func scanRecipe(row interface{ Scan(...any) error }) (*models.Recipe, error) {
	r := &models.Recipe{}
	err := row.Scan(&r.ID, &r.Name, &r.ImageKey, &r.Text, &r.CookingTime,
		&r.AuthorID, &r.PublishedAt)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Create inserts a recipe together with its ingredient amounts and tag links
// in a single transaction.
func (s *RecipeStore) Create(authorID uuid.UUID, name, text, imageKey string, cookingTime int,
	ingredients []models.IngredientAmount, tagIDs []uuid.UUID) (*models.Recipe, error) {

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("create recipe: begin: %w", err)
	}
	defer tx.Rollback()

	r, err := scanRecipe(tx.QueryRow(`
		INSERT INTO recipes (name, image_key, text, cooking_time, author_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+recipeColumns,
		name, imageKey, text, cookingTime, authorID))
	if err != nil {
		return nil, fmt.Errorf("create recipe: %w", err)
	}

	if err := insertRelations(tx, r.ID, ingredients, tagIDs); err != nil {
		return nil, fmt.Errorf("create recipe: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("create recipe: commit: %w", err)
	}
	return r, nil
}

// Update replaces a recipe's fields and rebuilds its ingredient and tag
// links atomically. A nil imageKey keeps the current image.
func (s *RecipeStore) Update(id uuid.UUID, name, text string, imageKey *string, cookingTime int,
	ingredients []models.IngredientAmount, tagIDs []uuid.UUID) (*models.Recipe, error) {

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("update recipe: begin: %w", err)
	}
	defer tx.Rollback()

	r, err := scanRecipe(tx.QueryRow(`
		UPDATE recipes
		SET name = $1, text = $2, cooking_time = $3,
		    image_key = COALESCE($4, image_key)
		WHERE id = $5
		RETURNING `+recipeColumns,
		name, text, cookingTime, imageKey, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update recipe: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM recipe_ingredients WHERE recipe_id = $1`, id); err != nil {
		return nil, fmt.Errorf("update recipe: clear ingredients: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM recipe_tags WHERE recipe_id = $1`, id); err != nil {
		return nil, fmt.Errorf("update recipe: clear tags: %w", err)
	}
	if err := insertRelations(tx, id, ingredients, tagIDs); err != nil {
		return nil, fmt.Errorf("update recipe: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("update recipe: commit: %w", err)
	}
	return r, nil
}

func insertRelations(tx *sql.Tx, recipeID uuid.UUID,
	ingredients []models.IngredientAmount, tagIDs []uuid.UUID) error {

	for _, ing := range ingredients {
		_, err := tx.Exec(`
			INSERT INTO recipe_ingredients (recipe_id, ingredient_id, amount)
			VALUES ($1, $2, $3)
		`, recipeID, ing.IngredientID, ing.Amount)
		if err != nil {
			return fmt.Errorf("insert ingredient link: %w", err)
		}
	}
	for _, tagID := range tagIDs {
		_, err := tx.Exec(`
			INSERT INTO recipe_tags (recipe_id, tag_id) VALUES ($1, $2)
		`, recipeID, tagID)
		if err != nil {
			return fmt.Errorf("insert tag link: %w", err)
		}
	}
	return nil
}

// FindByID retrieves a recipe row without its associations. Returns nil if
// not found.
func (s *RecipeStore) FindByID(id uuid.UUID) (*models.Recipe, error) {
	r, err := scanRecipe(s.db.QueryRow(`SELECT `+recipeColumns+` FROM recipes WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find recipe by id: %w", err)
	}
	return r, nil
}

// Detail retrieves a recipe with its ingredients, tags, and the viewer's
// favourite/cart flags. A nil viewer (anonymous request) yields false flags.
// Returns nil if the recipe does not exist.
func (s *RecipeStore) Detail(id uuid.UUID, viewer *uuid.UUID) (*models.RecipeDetail, error) {
	r, err := s.FindByID(id)
	if err != nil || r == nil {
		return nil, err
	}

	details, err := s.Details([]models.Recipe{*r}, viewer)
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

// Details loads ingredients, tags, and viewer flags for a page of recipes in
// three batched queries, preserving the input order.
func (s *RecipeStore) Details(recipes []models.Recipe, viewer *uuid.UUID) ([]models.RecipeDetail, error) {
	if len(recipes) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, len(recipes))
	details := make([]models.RecipeDetail, len(recipes))
	index := make(map[uuid.UUID]int, len(recipes))
	for i, r := range recipes {
		ids[i] = r.ID
		details[i] = models.RecipeDetail{Recipe: r}
		index[r.ID] = i
	}

	rows, err := s.db.Query(`
		SELECT ri.recipe_id, i.id, i.name, i.measurement_unit, ri.amount
		FROM recipe_ingredients ri
		JOIN ingredients i ON i.id = ri.ingredient_id
		WHERE ri.recipe_id = ANY($1::uuid[])
		ORDER BY i.name ASC
	`, uuidStrings(ids))
	if err != nil {
		return nil, fmt.Errorf("load recipe ingredients: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var recipeID uuid.UUID
		var ri models.RecipeIngredient
		if err := rows.Scan(&recipeID, &ri.ID, &ri.Name, &ri.MeasurementUnit, &ri.Amount); err != nil {
			return nil, fmt.Errorf("scan recipe ingredient: %w", err)
		}
		i := index[recipeID]
		details[i].Ingredients = append(details[i].Ingredients, ri)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load recipe ingredients: %w", err)
	}

	tagRows, err := s.db.Query(`
		SELECT rt.recipe_id, t.id, t.name, t.slug
		FROM recipe_tags rt
		JOIN tags t ON t.id = rt.tag_id
		WHERE rt.recipe_id = ANY($1::uuid[])
		ORDER BY t.name ASC
	`, uuidStrings(ids))
	if err != nil {
		return nil, fmt.Errorf("load recipe tags: %w", err)
	}
	defer tagRows.Close()
	for tagRows.Next() {
		var recipeID uuid.UUID
		var t models.Tag
		if err := tagRows.Scan(&recipeID, &t.ID, &t.Name, &t.Slug); err != nil {
			return nil, fmt.Errorf("scan recipe tag: %w", err)
		}
		i := index[recipeID]
		details[i].Tags = append(details[i].Tags, t)
	}
	if err := tagRows.Err(); err != nil {
		return nil, fmt.Errorf("load recipe tags: %w", err)
	}

	if viewer != nil {
		flagRows, err := s.db.Query(`
			SELECT r.id,
			       EXISTS (SELECT 1 FROM favourites f
			               WHERE f.user_id = $2 AND f.recipe_id = r.id),
			       EXISTS (SELECT 1 FROM shopping_cart_entries c
			               WHERE c.user_id = $2 AND c.recipe_id = r.id)
			FROM recipes r
			WHERE r.id = ANY($1::uuid[])
		`, uuidStrings(ids), *viewer)
		if err != nil {
			return nil, fmt.Errorf("load viewer flags: %w", err)
		}
		defer flagRows.Close()
		for flagRows.Next() {
			var recipeID uuid.UUID
			var favorited, inCart bool
			if err := flagRows.Scan(&recipeID, &favorited, &inCart); err != nil {
				return nil, fmt.Errorf("scan viewer flags: %w", err)
			}
			i := index[recipeID]
			details[i].IsFavorited = favorited
			details[i].IsInShoppingCart = inCart
		}
		if err := flagRows.Err(); err != nil {
			return nil, fmt.Errorf("load viewer flags: %w", err)
		}
	}

	return details, nil
}

// buildFilter renders the WHERE clause for a RecipeFilter. Argument
// placeholders start at $1.
func buildFilter(f RecipeFilter) (string, []any) {
	var conds []string
	var args []any

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, strings.ReplaceAll(cond, "?", fmt.Sprintf("$%d", len(args))))
	}

	if f.AuthorID != nil {
		add(`r.author_id = ?`, *f.AuthorID)
	}
	if len(f.TagSlugs) > 0 {
		add(`EXISTS (
			SELECT 1 FROM recipe_tags rt
			JOIN tags t ON t.id = rt.tag_id
			WHERE rt.recipe_id = r.id AND t.slug = ANY(?::text[])
		)`, f.TagSlugs)
	}
	if f.FavoritedBy != nil {
		add(`EXISTS (
			SELECT 1 FROM favourites f
			WHERE f.recipe_id = r.id AND f.user_id = ?
		)`, *f.FavoritedBy)
	}
	if f.InCartOf != nil {
		add(`EXISTS (
			SELECT 1 FROM shopping_cart_entries c
			WHERE c.recipe_id = r.id AND c.user_id = ?
		)`, *f.InCartOf)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List returns recipes matching the filter, newest first, paginated.
func (s *RecipeStore) List(f RecipeFilter, limit, offset int) ([]models.Recipe, error) {
	where, args := buildFilter(f)
	args = append(args, limit, offset)
	query := fmt.Sprintf(`
		SELECT %s FROM recipes r%s
		ORDER BY r.published_at DESC
		LIMIT $%d OFFSET $%d
	`, qualify(recipeColumns, "r"), where, len(args)-1, len(args))

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	defer rows.Close()

	var recipes []models.Recipe
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recipe: %w", err)
		}
		recipes = append(recipes, *r)
	}
	return recipes, rows.Err()
}

// Count returns the number of recipes matching the filter.
func (s *RecipeStore) Count(f RecipeFilter) (int, error) {
	where, args := buildFilter(f)
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM recipes r`+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count recipes: %w", err)
	}
	return count, nil
}

// ListByAuthor returns an author's recipes, newest first, optionally capped.
// A limit of 0 means no cap. Used by the subscription feed, which embeds a
// short recipe preview per followed author.
func (s *RecipeStore) ListByAuthor(authorID uuid.UUID, limit int) ([]models.Recipe, error) {
	query := `SELECT ` + recipeColumns + ` FROM recipes WHERE author_id = $1 ORDER BY published_at DESC`
	args := []any{authorID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list recipes by author: %w", err)
	}
	defer rows.Close()

	var recipes []models.Recipe
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recipe: %w", err)
		}
		recipes = append(recipes, *r)
	}
	return recipes, rows.Err()
}

// CountByAuthor returns the number of recipes an author has published.
func (s *RecipeStore) CountByAuthor(authorID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM recipes WHERE author_id = $1`, authorID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count recipes by author: %w", err)
	}
	return count, nil
}

// Delete removes a recipe. Association rows cascade at the schema level.
// Returns false if no recipe had that ID.
func (s *RecipeStore) Delete(id uuid.UUID) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM recipes WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete recipe: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete recipe: %w", err)
	}
	return n > 0, nil
}

// qualify prefixes each column in a comma-separated list with an alias.
func qualify(columns, alias string) string {
	parts := strings.Split(columns, ", ")
	for i, p := range parts {
		parts[i] = alias + "." + p
	}
	return strings.Join(parts, ", ")
}
