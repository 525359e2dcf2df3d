// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"

	"forkful/internal/cache"
	"forkful/internal/images"
	"forkful/internal/metrics"
	"forkful/internal/middleware"
	"forkful/internal/models"
	"forkful/internal/storage"
	"forkful/internal/store"
)

// Recipes groups the recipe CRUD, favourite, cart, and shopping-list
// handlers.
type Recipes struct {
	recipeStore     *store.RecipeStore
	userStore       *store.UserStore
	relationStore   *store.RelationStore
	ingredientStore *store.IngredientStore
	tagStore        *store.TagStore
	listStore       *store.ShoppingListStore
	listCache       *cache.ShoppingListCache
	media           storage.Backend
	publicBaseURL   string
	out             serializer
}

// NewRecipes creates a new Recipes handler group.
func NewRecipes(recipeStore *store.RecipeStore, userStore *store.UserStore, relationStore *store.RelationStore,
	ingredientStore *store.IngredientStore, tagStore *store.TagStore, listStore *store.ShoppingListStore,
	listCache *cache.ShoppingListCache, media storage.Backend, publicBaseURL string) *Recipes {
	return &Recipes{
		recipeStore:     recipeStore,
		userStore:       userStore,
		relationStore:   relationStore,
		ingredientStore: ingredientStore,
		tagStore:        tagStore,
		listStore:       listStore,
		listCache:       listCache,
		media:           media,
		publicBaseURL:   publicBaseURL,
		out:             serializer{media: media},
	}
}

// recipeIn is the write payload shared by create and update.
type recipeIn struct {
	Ingredients []ingredientIn `json:"ingredients"`
	Tags        []uuid.UUID    `json:"tags"`
	Image       string         `json:"image"`
	Name        string         `json:"name"`
	Text        string         `json:"text"`
	CookingTime int            `json:"cooking_time"`
}

// viewerID returns the caller's ID or nil for anonymous requests.
func viewerID(r *http.Request) *uuid.UUID {
	if user := middleware.UserFromCtx(r.Context()); user != nil {
		return &user.ID
	}
	return nil
}

// checkRefs verifies every referenced ingredient and tag exists, adding
// field errors for the ones that don't.
func (h *Recipes) checkRefs(fe fieldErrors, in *recipeIn) error {
	if len(fe["ingredients"]) == 0 && len(in.Ingredients) > 0 {
		ids := make([]uuid.UUID, len(in.Ingredients))
		for i, ing := range in.Ingredients {
			ids[i] = ing.ID
		}
		found, err := h.ingredientStore.CountByIDs(ids)
		if err != nil {
			return err
		}
		if found != len(ids) {
			fe.add("ingredients", "Unknown ingredient in payload.")
		}
	}

	if len(fe["tags"]) == 0 && len(in.Tags) > 0 {
		found, err := h.tagStore.FindByIDs(in.Tags)
		if err != nil {
			return err
		}
		if len(found) != len(in.Tags) {
			fe.add("tags", "Unknown tag in payload.")
		}
	}
	return nil
}

// serializeOne builds the full read projection for a single recipe.
func (h *Recipes) serializeOne(r *http.Request, d *models.RecipeDetail) (*recipeOut, error) {
	author, err := h.userStore.FindByID(d.AuthorID)
	if err != nil {
		return nil, err
	}
	if author == nil {
		return nil, fmt.Errorf("recipe %s has no author row", d.ID)
	}

	subscribed := false
	if viewer := middleware.UserFromCtx(r.Context()); viewer != nil && viewer.ID != author.ID {
		subscribed, err = h.relationStore.IsSubscribed(viewer.ID, author.ID)
		if err != nil {
			return nil, err
		}
	}

	out := h.out.recipe(d, author, subscribed)
	return &out, nil
}

// List returns recipes, newest first, with optional filters.
// GET /api/recipes/
func (h *Recipes) List(w http.ResponseWriter, r *http.Request) {
	p := parsePage(r)
	viewer := viewerID(r)
	q := r.URL.Query()

	var filter store.RecipeFilter
	if raw := q.Get("author"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			// Unknown author matches nothing rather than erroring.
			writeJSON(w, http.StatusOK, paginate(r, p, 0, []recipeOut{}))
			return
		}
		filter.AuthorID = &id
	}
	filter.TagSlugs = q["tags"]

	// Relation filters only make sense for authenticated callers; anonymous
	// requests ignore them instead of failing.
	if viewer != nil {
		if q.Get("is_favorited") == "1" {
			filter.FavoritedBy = viewer
		}
		if q.Get("is_in_shopping_cart") == "1" {
			filter.InCartOf = viewer
		}
	}

	recipes, err := h.recipeStore.List(filter, p.Size, p.offset())
	if err != nil {
		writeServerError(w, "recipe list failed", err)
		return
	}
	count, err := h.recipeStore.Count(filter)
	if err != nil {
		writeServerError(w, "recipe count failed", err)
		return
	}

	details, err := h.recipeStore.Details(recipes, viewer)
	if err != nil {
		writeServerError(w, "recipe detail load failed", err)
		return
	}

	// Batch-load authors for the page.
	authorIDs := make([]uuid.UUID, 0, len(details))
	for i := range details {
		authorIDs = append(authorIDs, details[i].AuthorID)
	}
	authors, err := h.userStore.FindByIDs(authorIDs)
	if err != nil {
		writeServerError(w, "recipe author load failed", err)
		return
	}

	results := make([]recipeOut, 0, len(details))
	for i := range details {
		author := authors[details[i].AuthorID]
		if author == nil {
			continue
		}
		subscribed := false
		if viewer != nil && *viewer != author.ID {
			subscribed, err = h.relationStore.IsSubscribed(*viewer, author.ID)
			if err != nil {
				writeServerError(w, "subscription check failed", err)
				return
			}
		}
		results = append(results, h.out.recipe(&details[i], author, subscribed))
	}

	writeJSON(w, http.StatusOK, paginate(r, p, count, results))
}

// Create publishes a new recipe authored by the caller.
// POST /api/recipes/
func (h *Recipes) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())

	var in recipeIn
	if !decodeBody(w, r, &in) {
		return
	}

	fe := validateRecipe(in.Name, in.Text, in.CookingTime, in.Ingredients, in.Tags)
	if in.Image == "" {
		fe.add("image", "Image is required.")
	}
	if err := h.checkRefs(fe, &in); err != nil {
		writeServerError(w, "recipe ref check failed", err)
		return
	}
	if !fe.ok() {
		writeFieldErrors(w, fe)
		return
	}

	img, err := images.Decode(in.Image)
	if err != nil {
		writeFieldErrors(w, fieldErrors{"image": {"Upload a valid image."}})
		return
	}
	key := "recipes/" + uuid.NewString() + img.Extension
	if err := h.media.Save(r.Context(), key, img.ContentType, bytes.NewReader(img.Data), int64(len(img.Data))); err != nil {
		writeServerError(w, "recipe image upload failed", err)
		return
	}

	ingredients := make([]models.IngredientAmount, len(in.Ingredients))
	for i, ing := range in.Ingredients {
		ingredients[i] = models.IngredientAmount{IngredientID: ing.ID, Amount: ing.Amount}
	}

	recipe, err := h.recipeStore.Create(user.ID, in.Name, in.Text, key, in.CookingTime, ingredients, in.Tags)
	if err != nil {
		h.media.Delete(r.Context(), key)
		writeServerError(w, "recipe create failed", err)
		return
	}

	detail, err := h.recipeStore.Detail(recipe.ID, &user.ID)
	if err != nil {
		writeServerError(w, "recipe detail load failed", err)
		return
	}
	out, err := h.serializeOne(r, detail)
	if err != nil {
		writeServerError(w, "recipe serialize failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

// Detail returns one recipe.
// GET /api/recipes/{id}/
func (h *Recipes) Detail(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeDetail(w, http.StatusNotFound, "Recipe not found.")
		return
	}

	detail, err := h.recipeStore.Detail(id, viewerID(r))
	if err != nil {
		writeServerError(w, "recipe lookup failed", err)
		return
	}
	if detail == nil {
		writeDetail(w, http.StatusNotFound, "Recipe not found.")
		return
	}

	out, err := h.serializeOne(r, detail)
	if err != nil {
		writeServerError(w, "recipe serialize failed", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// loadOwned fetches a recipe and verifies the caller authored it. Writes
// the error response and returns nil when access is denied.
func (h *Recipes) loadOwned(w http.ResponseWriter, r *http.Request) *models.Recipe {
	user := middleware.UserFromCtx(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeDetail(w, http.StatusNotFound, "Recipe not found.")
		return nil
	}

	recipe, err := h.recipeStore.FindByID(id)
	if err != nil {
		writeServerError(w, "recipe lookup failed", err)
		return nil
	}
	if recipe == nil {
		writeDetail(w, http.StatusNotFound, "Recipe not found.")
		return nil
	}
	if recipe.AuthorID != user.ID && !user.IsAdmin() {
		writeDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
		return nil
	}
	return recipe
}

// Update replaces a recipe's fields and associations. Only the author (or
// an admin) may update; the image is optional and kept when omitted.
// PATCH /api/recipes/{id}/
func (h *Recipes) Update(w http.ResponseWriter, r *http.Request) {
	recipe := h.loadOwned(w, r)
	if recipe == nil {
		return
	}

	var in recipeIn
	if !decodeBody(w, r, &in) {
		return
	}

	fe := validateRecipe(in.Name, in.Text, in.CookingTime, in.Ingredients, in.Tags)
	if err := h.checkRefs(fe, &in); err != nil {
		writeServerError(w, "recipe ref check failed", err)
		return
	}
	if !fe.ok() {
		writeFieldErrors(w, fe)
		return
	}

	var newKey *string
	if in.Image != "" {
		img, err := images.Decode(in.Image)
		if err != nil {
			writeFieldErrors(w, fieldErrors{"image": {"Upload a valid image."}})
			return
		}
		key := "recipes/" + uuid.NewString() + img.Extension
		if err := h.media.Save(r.Context(), key, img.ContentType, bytes.NewReader(img.Data), int64(len(img.Data))); err != nil {
			writeServerError(w, "recipe image upload failed", err)
			return
		}
		newKey = &key
	}

	ingredients := make([]models.IngredientAmount, len(in.Ingredients))
	for i, ing := range in.Ingredients {
		ingredients[i] = models.IngredientAmount{IngredientID: ing.ID, Amount: ing.Amount}
	}

	updated, err := h.recipeStore.Update(recipe.ID, in.Name, in.Text, newKey, in.CookingTime, ingredients, in.Tags)
	if err != nil {
		if newKey != nil {
			h.media.Delete(r.Context(), *newKey)
		}
		writeServerError(w, "recipe update failed", err)
		return
	}
	if updated == nil {
		writeDetail(w, http.StatusNotFound, "Recipe not found.")
		return
	}
	if newKey != nil && recipe.ImageKey != "" {
		h.media.Delete(r.Context(), recipe.ImageKey)
	}

	// The ingredient list changed: cached shopping lists that include this
	// recipe are stale.
	h.invalidateListsFor(r, recipe.ID)

	detail, err := h.recipeStore.Detail(updated.ID, viewerID(r))
	if err != nil {
		writeServerError(w, "recipe detail load failed", err)
		return
	}
	out, err := h.serializeOne(r, detail)
	if err != nil {
		writeServerError(w, "recipe serialize failed", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Delete removes a recipe. Only the author (or an admin) may delete.
// DELETE /api/recipes/{id}/
func (h *Recipes) Delete(w http.ResponseWriter, r *http.Request) {
	recipe := h.loadOwned(w, r)
	if recipe == nil {
		return
	}

	// Snapshot affected carts before the cascade wipes the entries.
	h.invalidateListsFor(r, recipe.ID)

	deleted, err := h.recipeStore.Delete(recipe.ID)
	if err != nil {
		writeServerError(w, "recipe delete failed", err)
		return
	}
	if !deleted {
		writeDetail(w, http.StatusNotFound, "Recipe not found.")
		return
	}

	if recipe.ImageKey != "" {
		h.media.Delete(r.Context(), recipe.ImageKey)
	}
	w.WriteHeader(http.StatusNoContent)
}

// invalidateListsFor drops the cached shopping lists of every user whose
// cart contains the recipe.
func (h *Recipes) invalidateListsFor(r *http.Request, recipeID uuid.UUID) {
	userIDs, err := h.relationStore.UsersWithRecipeInCart(recipeID)
	if err != nil {
		// Cached lists carry a TTL, so a missed invalidation heals itself.
		return
	}
	h.listCache.InvalidateForRecipe(r.Context(), userIDs)
}

// loadTarget fetches the recipe a relation endpoint points at.
func (h *Recipes) loadTarget(w http.ResponseWriter, r *http.Request) *models.Recipe {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeDetail(w, http.StatusNotFound, "Recipe not found.")
		return nil
	}

	recipe, err := h.recipeStore.FindByID(id)
	if err != nil {
		writeServerError(w, "recipe lookup failed", err)
		return nil
	}
	if recipe == nil {
		writeDetail(w, http.StatusNotFound, "Recipe not found.")
		return nil
	}
	return recipe
}

// Favorite marks a recipe as a favourite of the caller. Repeating the call
// succeeds with the same response.
// POST /api/recipes/{id}/favorite/
func (h *Recipes) Favorite(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	recipe := h.loadTarget(w, r)
	if recipe == nil {
		return
	}

	if _, err := h.relationStore.AddFavorite(user.ID, recipe.ID); err != nil {
		writeServerError(w, "favorite add failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, h.out.recipeShort(recipe))
}

// Unfavorite removes a favourite. Succeeds even when none existed.
// DELETE /api/recipes/{id}/favorite/
func (h *Recipes) Unfavorite(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	recipe := h.loadTarget(w, r)
	if recipe == nil {
		return
	}

	if _, err := h.relationStore.RemoveFavorite(user.ID, recipe.ID); err != nil {
		writeServerError(w, "favorite remove failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddToCart puts a recipe in the caller's shopping cart.
// POST /api/recipes/{id}/shopping_cart/
func (h *Recipes) AddToCart(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	recipe := h.loadTarget(w, r)
	if recipe == nil {
		return
	}

	changed, err := h.relationStore.AddCartEntry(user.ID, recipe.ID)
	if err != nil {
		writeServerError(w, "cart add failed", err)
		return
	}
	if changed {
		h.listCache.Invalidate(r.Context(), user.ID)
	}
	writeJSON(w, http.StatusCreated, h.out.recipeShort(recipe))
}

// RemoveFromCart takes a recipe out of the caller's shopping cart.
// Succeeds even when it wasn't there.
// DELETE /api/recipes/{id}/shopping_cart/
func (h *Recipes) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	recipe := h.loadTarget(w, r)
	if recipe == nil {
		return
	}

	changed, err := h.relationStore.RemoveCartEntry(user.ID, recipe.ID)
	if err != nil {
		writeServerError(w, "cart remove failed", err)
		return
	}
	if changed {
		h.listCache.Invalidate(r.Context(), user.ID)
	}
	w.WriteHeader(http.StatusNoContent)
}

// DownloadShoppingCart renders the caller's aggregated shopping list as a
// plain-text file. The rendered body is cached per user in Valkey.
// GET /api/recipes/download_shopping_cart/
func (h *Recipes) DownloadShoppingCart(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())

	body, hit := h.listCache.Get(r.Context(), user.ID)
	if hit {
		metrics.ShoppingListCacheHits.Inc()
	} else {
		metrics.ShoppingListCacheMisses.Inc()
		items, err := h.listStore.Aggregate(user.ID)
		if err != nil {
			writeServerError(w, "shopping list aggregate failed", err)
			return
		}
		body = []byte(store.FormatPlainText(items))
		h.listCache.Set(r.Context(), user.ID, body)
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="shopping_list.txt"`)
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// QRCode renders a PNG QR code pointing at the recipe's public URL, for
// sharing a recipe from a phone screen.
// GET /api/recipes/{id}/qrcode/
func (h *Recipes) QRCode(w http.ResponseWriter, r *http.Request) {
	recipe := h.loadTarget(w, r)
	if recipe == nil {
		return
	}

	link := absoluteURL(h.publicBaseURL, "/api/recipes/"+recipe.ID.String()+"/")
	png, err := qrcode.Encode(link, qrcode.Medium, 256)
	if err != nil {
		writeServerError(w, "qr encode failed", err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
