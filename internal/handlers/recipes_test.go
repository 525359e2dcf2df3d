// recipes_test.go covers recipe CRUD, favourites, the shopping cart, and the
// shopping-list download.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"forkful/internal/models"
)

// recipeBody builds a valid create/update payload.
func recipeBody(name string, ingredients []ingredientIn, tags []uuid.UUID, image string) string {
	payload := map[string]any{
		"name":         name,
		"text":         "Mix everything and simmer.",
		"cooking_time": 20,
		"ingredients":  ingredients,
		"tags":         tags,
	}
	if image != "" {
		payload["image"] = image
	}
	b, _ := json.Marshal(payload)
	return string(b)
}

func TestCreateRecipe(t *testing.T) {
	env := newTestEnv(t)
	author := env.mustUser(t, "chef")
	flour := env.mustIngredient(t, "create-flour-"+uuid.NewString()[:8], "g")
	tag := env.mustTag(t, "Dinner")

	body := recipeBody("Flatbread", []ingredientIn{{ID: flour.ID, Amount: 300}},
		[]uuid.UUID{tag.ID}, pngDataURI())
	req := httptest.NewRequest(http.MethodPost, "/api/recipes/", strings.NewReader(body))
	req = ctxWithUser(req, author)
	rec := httptest.NewRecorder()

	env.Recipes.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want 201 (body %s)", rec.Code, rec.Body.String())
	}

	var out recipeOut
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	t.Cleanup(func() { env.DB.Exec("DELETE FROM recipes WHERE id = $1", out.ID) })

	if out.Name != "Flatbread" || out.CookingTime != 20 {
		t.Errorf("recipe = %+v", out)
	}
	if out.Author.ID != author.ID {
		t.Errorf("author = %s, want %s", out.Author.ID, author.ID)
	}
	if len(out.Ingredients) != 1 || out.Ingredients[0].ID != flour.ID || out.Ingredients[0].Amount != 300 {
		t.Errorf("ingredients = %+v", out.Ingredients)
	}
	if len(out.Tags) != 1 || out.Tags[0].ID != tag.ID {
		t.Errorf("tags = %+v", out.Tags)
	}
	if !strings.HasPrefix(out.Image, "http://localhost:8080/media/recipes/") {
		t.Errorf("image URL = %q", out.Image)
	}
}

func TestCreateRecipeValidation(t *testing.T) {
	env := newTestEnv(t)
	author := env.mustUser(t, "chef")
	flour := env.mustIngredient(t, "val-flour-"+uuid.NewString()[:8], "g")
	tag := env.mustTag(t, "Lunch")

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{
			"missing image",
			recipeBody("Soup", []ingredientIn{{ID: flour.ID, Amount: 10}}, []uuid.UUID{tag.ID}, ""),
			"image",
		},
		{
			"duplicate ingredient",
			recipeBody("Soup", []ingredientIn{{ID: flour.ID, Amount: 10}, {ID: flour.ID, Amount: 20}},
				[]uuid.UUID{tag.ID}, pngDataURI()),
			"ingredients",
		},
		{
			"unknown ingredient",
			recipeBody("Soup", []ingredientIn{{ID: uuid.New(), Amount: 10}}, []uuid.UUID{tag.ID}, pngDataURI()),
			"ingredients",
		},
		{
			"unknown tag",
			recipeBody("Soup", []ingredientIn{{ID: flour.ID, Amount: 10}}, []uuid.UUID{uuid.New()}, pngDataURI()),
			"tags",
		},
		{
			"amount out of range",
			recipeBody("Soup", []ingredientIn{{ID: flour.ID, Amount: 50000}}, []uuid.UUID{tag.ID}, pngDataURI()),
			"ingredients",
		},
		{
			"no tags",
			recipeBody("Soup", []ingredientIn{{ID: flour.ID, Amount: 10}}, nil, pngDataURI()),
			"tags",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/recipes/", strings.NewReader(tt.body))
			req = ctxWithUser(req, author)
			rec := httptest.NewRecorder()

			env.Recipes.Create(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status: got %d, want 400 (body %s)", rec.Code, rec.Body.String())
			}
			var fe map[string][]string
			if err := json.Unmarshal(rec.Body.Bytes(), &fe); err != nil {
				t.Fatalf("decode field errors: %v", err)
			}
			if len(fe[tt.field]) == 0 {
				t.Errorf("expected a %s error, got %v", tt.field, fe)
			}
		})
	}
}

func TestUpdateRecipeByNonAuthor(t *testing.T) {
	env := newTestEnv(t)
	author := env.mustUser(t, "owner")
	intruder := env.mustUser(t, "intruder")
	flour := env.mustIngredient(t, "own-flour-"+uuid.NewString()[:8], "g")
	recipe := env.mustRecipe(t, author, "Guarded",
		[]models.IngredientAmount{{IngredientID: flour.ID, Amount: 100}}, nil)

	body := recipeBody("Stolen", []ingredientIn{{ID: flour.ID, Amount: 1}}, []uuid.UUID{}, "")
	req := httptest.NewRequest(http.MethodPatch, "/api/recipes/"+recipe.ID.String()+"/", strings.NewReader(body))
	req = ctxWithUser(req, intruder)
	req = withChiURLParam(req, "id", recipe.ID.String())
	rec := httptest.NewRecorder()

	env.Recipes.Update(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want 403", rec.Code)
	}
}

func TestUpdateRecipeReplacesAssociations(t *testing.T) {
	env := newTestEnv(t)
	author := env.mustUser(t, "editor")
	flour := env.mustIngredient(t, "upd-flour-"+uuid.NewString()[:8], "g")
	sugar := env.mustIngredient(t, "upd-sugar-"+uuid.NewString()[:8], "g")
	oldTag := env.mustTag(t, "Before")
	newTag := env.mustTag(t, "After")
	recipe := env.mustRecipe(t, author, "Original",
		[]models.IngredientAmount{{IngredientID: flour.ID, Amount: 100}},
		[]uuid.UUID{oldTag.ID})

	// No image in the payload: the stored key must survive.
	body := recipeBody("Revised", []ingredientIn{{ID: sugar.ID, Amount: 40}},
		[]uuid.UUID{newTag.ID}, "")
	req := httptest.NewRequest(http.MethodPatch, "/api/recipes/"+recipe.ID.String()+"/", strings.NewReader(body))
	req = ctxWithUser(req, author)
	req = withChiURLParam(req, "id", recipe.ID.String())
	rec := httptest.NewRecorder()

	env.Recipes.Update(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}

	var out recipeOut
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Name != "Revised" {
		t.Errorf("name = %q", out.Name)
	}
	if len(out.Ingredients) != 1 || out.Ingredients[0].ID != sugar.ID {
		t.Errorf("ingredients not replaced: %+v", out.Ingredients)
	}
	if len(out.Tags) != 1 || out.Tags[0].ID != newTag.ID {
		t.Errorf("tags not replaced: %+v", out.Tags)
	}
	if out.Image == "" {
		t.Error("image dropped on image-less update")
	}
}

func TestUpdateRecipeRejectedPayloadKeepsState(t *testing.T) {
	env := newTestEnv(t)
	author := env.mustUser(t, "keeper")
	flour := env.mustIngredient(t, "keep-flour-"+uuid.NewString()[:8], "g")
	tag := env.mustTag(t, "Kept")
	recipe := env.mustRecipe(t, author, "Untouched",
		[]models.IngredientAmount{{IngredientID: flour.ID, Amount: 250}},
		[]uuid.UUID{tag.ID})

	// One amount out of range: the whole update must be rejected and the
	// stored recipe, ingredient links, and tag links left as they were.
	body := recipeBody("Broken", []ingredientIn{{ID: flour.ID, Amount: 50000}},
		[]uuid.UUID{tag.ID}, "")
	req := httptest.NewRequest(http.MethodPatch, "/api/recipes/"+recipe.ID.String()+"/", strings.NewReader(body))
	req = ctxWithUser(req, author)
	req = withChiURLParam(req, "id", recipe.ID.String())
	rec := httptest.NewRecorder()

	env.Recipes.Update(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400 (body %s)", rec.Code, rec.Body.String())
	}

	detail, err := env.RecipeStore.Detail(recipe.ID, nil)
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if detail.Name != "Untouched" {
		t.Errorf("name changed by a rejected update: %q", detail.Name)
	}
	if len(detail.Ingredients) != 1 || detail.Ingredients[0].Amount != 250 {
		t.Errorf("ingredient links changed by a rejected update: %+v", detail.Ingredients)
	}
	if len(detail.Tags) != 1 || detail.Tags[0].ID != tag.ID {
		t.Errorf("tag links changed by a rejected update: %+v", detail.Tags)
	}
}

func TestDeleteRecipe(t *testing.T) {
	env := newTestEnv(t)
	author := env.mustUser(t, "remover")
	flour := env.mustIngredient(t, "del-flour-"+uuid.NewString()[:8], "g")
	recipe := env.mustRecipe(t, author, "Short-lived",
		[]models.IngredientAmount{{IngredientID: flour.ID, Amount: 100}}, nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/recipes/"+recipe.ID.String()+"/", nil)
	req = ctxWithUser(req, author)
	req = withChiURLParam(req, "id", recipe.ID.String())
	rec := httptest.NewRecorder()

	env.Recipes.Delete(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status: got %d, want 204", rec.Code)
	}

	gone, err := env.RecipeStore.FindByID(recipe.ID)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if gone != nil {
		t.Error("recipe still present after delete")
	}

	// A second delete hits the 404 path.
	rec = httptest.NewRecorder()
	env.Recipes.Delete(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete: got %d, want 404", rec.Code)
	}
}

func TestFavoriteIdempotent(t *testing.T) {
	env := newTestEnv(t)
	author := env.mustUser(t, "cook")
	fan := env.mustUser(t, "fan")
	flour := env.mustIngredient(t, "fav-flour-"+uuid.NewString()[:8], "g")
	recipe := env.mustRecipe(t, author, "Crowd pleaser",
		[]models.IngredientAmount{{IngredientID: flour.ID, Amount: 100}}, nil)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/recipes/"+recipe.ID.String()+"/favorite/", nil)
		req = ctxWithUser(req, fan)
		req = withChiURLParam(req, "id", recipe.ID.String())
		rec := httptest.NewRecorder()
		env.Recipes.Favorite(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("favorite attempt %d: got %d, want 201", i+1, rec.Code)
		}

		var out recipeShortOut
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if out.ID != recipe.ID {
			t.Errorf("short projection id = %s", out.ID)
		}
	}

	fav, err := env.RelationStore.IsFavorited(fan.ID, recipe.ID)
	if err != nil || !fav {
		t.Fatalf("favorited = %v, %v", fav, err)
	}

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodDelete, "/api/recipes/"+recipe.ID.String()+"/favorite/", nil)
		req = ctxWithUser(req, fan)
		req = withChiURLParam(req, "id", recipe.ID.String())
		rec := httptest.NewRecorder()
		env.Recipes.Unfavorite(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Errorf("unfavorite attempt %d: got %d, want 204", i+1, rec.Code)
		}
	}
}

func TestShoppingCartDownload(t *testing.T) {
	env := newTestEnv(t)
	author := env.mustUser(t, "planner")
	suffix := uuid.NewString()[:8]
	flour := env.mustIngredient(t, "cart-flour-"+suffix, "g")
	milk := env.mustIngredient(t, "cart-milk-"+suffix, "ml")

	pancakes := env.mustRecipe(t, author, "Pancakes", []models.IngredientAmount{
		{IngredientID: flour.ID, Amount: 200},
		{IngredientID: milk.ID, Amount: 300},
	}, nil)
	bread := env.mustRecipe(t, author, "Bread", []models.IngredientAmount{
		{IngredientID: flour.ID, Amount: 500},
	}, nil)

	for _, recipe := range []*models.Recipe{pancakes, bread} {
		req := httptest.NewRequest(http.MethodPost, "/api/recipes/"+recipe.ID.String()+"/shopping_cart/", nil)
		req = ctxWithUser(req, author)
		req = withChiURLParam(req, "id", recipe.ID.String())
		rec := httptest.NewRecorder()
		env.Recipes.AddToCart(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("add to cart: got %d, want 201", rec.Code)
		}
	}

	download := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/recipes/download_shopping_cart/", nil)
		req = ctxWithUser(req, author)
		rec := httptest.NewRecorder()
		env.Recipes.DownloadShoppingCart(rec, req)
		return rec
	}

	rec := download()
	if rec.Code != http.StatusOK {
		t.Fatalf("download: got %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/plain; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "shopping_list.txt") {
		t.Errorf("Content-Disposition = %q", cd)
	}

	body := rec.Body.String()
	if !strings.Contains(body, fmt.Sprintf("cart-flour-%s  - 700(g)", suffix)) {
		t.Errorf("flour not aggregated across recipes:\n%s", body)
	}
	if !strings.Contains(body, fmt.Sprintf("cart-milk-%s  - 300(ml)", suffix)) {
		t.Errorf("milk missing:\n%s", body)
	}

	// A second download is served from the cache with the same body.
	if again := download().Body.String(); again != body {
		t.Errorf("cached body differs:\n%s", again)
	}

	// Removing a recipe invalidates the cache; the list shrinks.
	req := httptest.NewRequest(http.MethodDelete, "/api/recipes/"+bread.ID.String()+"/shopping_cart/", nil)
	req = ctxWithUser(req, author)
	req = withChiURLParam(req, "id", bread.ID.String())
	rr := httptest.NewRecorder()
	env.Recipes.RemoveFromCart(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("remove from cart: got %d, want 204", rr.Code)
	}

	if after := download().Body.String(); !strings.Contains(after, fmt.Sprintf("cart-flour-%s  - 200(g)", suffix)) {
		t.Errorf("list not refreshed after cart change:\n%s", after)
	}
}

func TestQRCode(t *testing.T) {
	env := newTestEnv(t)
	author := env.mustUser(t, "sharer")
	flour := env.mustIngredient(t, "qr-flour-"+uuid.NewString()[:8], "g")
	recipe := env.mustRecipe(t, author, "Shareable",
		[]models.IngredientAmount{{IngredientID: flour.ID, Amount: 100}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/recipes/"+recipe.ID.String()+"/qrcode/", nil)
	req = withChiURLParam(req, "id", recipe.ID.String())
	rec := httptest.NewRecorder()

	env.Recipes.QRCode(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q", ct)
	}
	if body := rec.Body.Bytes(); len(body) < 8 || string(body[1:4]) != "PNG" {
		t.Error("response is not a PNG")
	}
}

func TestListFilters(t *testing.T) {
	env := newTestEnv(t)
	author := env.mustUser(t, "lister")
	other := env.mustUser(t, "other")
	flour := env.mustIngredient(t, "list-flour-"+uuid.NewString()[:8], "g")
	tag := env.mustTag(t, "Filtered")

	mine := env.mustRecipe(t, author, "Mine",
		[]models.IngredientAmount{{IngredientID: flour.ID, Amount: 100}}, []uuid.UUID{tag.ID})
	env.mustRecipe(t, other, "Theirs",
		[]models.IngredientAmount{{IngredientID: flour.ID, Amount: 100}}, nil)

	list := func(target string, user *models.User) envelope {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		if user != nil {
			req = ctxWithUser(req, user)
		}
		rec := httptest.NewRecorder()
		env.Recipes.List(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("list %s: got %d, want 200 (body %s)", target, rec.Code, rec.Body.String())
		}
		var out struct {
			Count   int               `json:"count"`
			Results []json.RawMessage `json:"results"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode list: %v", err)
		}
		return envelope{Count: out.Count}
	}

	if got := list("/api/recipes/?author="+author.ID.String(), nil); got.Count != 1 {
		t.Errorf("author filter count = %d, want 1", got.Count)
	}
	if got := list("/api/recipes/?tags="+tag.Slug, nil); got.Count != 1 {
		t.Errorf("tag filter count = %d, want 1", got.Count)
	}
	// A malformed author id matches nothing instead of erroring.
	if got := list("/api/recipes/?author=not-a-uuid", nil); got.Count != 0 {
		t.Errorf("bad author filter count = %d, want 0", got.Count)
	}

	// Favourite filter sees only the caller's favourites; anonymous callers
	// have the filter ignored.
	if _, err := env.RelationStore.AddFavorite(other.ID, mine.ID); err != nil {
		t.Fatalf("favorite: %v", err)
	}
	if got := list("/api/recipes/?is_favorited=1", other); got.Count != 1 {
		t.Errorf("favorited filter count = %d, want 1", got.Count)
	}
	if got := list("/api/recipes/?is_favorited=1&author="+author.ID.String(), nil); got.Count != 1 {
		t.Errorf("anonymous favorited filter count = %d, want 1 (filter ignored)", got.Count)
	}
}

func TestDetailAnonymousFlags(t *testing.T) {
	env := newTestEnv(t)
	author := env.mustUser(t, "flags")
	flour := env.mustIngredient(t, "flag-flour-"+uuid.NewString()[:8], "g")
	recipe := env.mustRecipe(t, author, "Public view",
		[]models.IngredientAmount{{IngredientID: flour.ID, Amount: 100}}, nil)

	if _, err := env.RelationStore.AddFavorite(author.ID, recipe.ID); err != nil {
		t.Fatalf("favorite: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/recipes/"+recipe.ID.String()+"/", nil)
	req = withChiURLParam(req, "id", recipe.ID.String())
	rec := httptest.NewRecorder()

	env.Recipes.Detail(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	var out recipeOut
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.IsFavorited || out.IsInShoppingCart {
		t.Errorf("anonymous viewer got true flags: %+v", out)
	}
	if out.Author.IsSubscribed {
		t.Error("anonymous viewer got is_subscribed=true")
	}
}
