// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"bytes"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"forkful/internal/images"
	"forkful/internal/middleware"
	"forkful/internal/models"
	"forkful/internal/storage"
	"forkful/internal/store"
)

// Users groups the user profile, avatar, and subscription handlers.
type Users struct {
	userStore     *store.UserStore
	recipeStore   *store.RecipeStore
	relationStore *store.RelationStore
	media         storage.Backend
	out           serializer
}

// NewUsers creates a new Users handler group.
func NewUsers(userStore *store.UserStore, recipeStore *store.RecipeStore, relationStore *store.RelationStore, media storage.Backend) *Users {
	return &Users{
		userStore:     userStore,
		recipeStore:   recipeStore,
		relationStore: relationStore,
		media:         media,
		out:           serializer{media: media},
	}
}

// isSubscribed resolves the viewer's subscription flag for a profile.
// Anonymous viewers and self-views always get false.
func (h *Users) isSubscribed(r *http.Request, profileID uuid.UUID) (bool, error) {
	viewer := middleware.UserFromCtx(r.Context())
	if viewer == nil || viewer.ID == profileID {
		return false, nil
	}
	return h.relationStore.IsSubscribed(viewer.ID, profileID)
}

// Register creates a new account.
// POST /api/users/
func (h *Users) Register(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username  string `json:"username"`
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	if !decodeBody(w, r, &in) {
		return
	}

	fe := validateRegistration(in.Username, in.Email, in.Password, in.FirstName, in.LastName)

	// Uniqueness checks produce field errors, same shape as format errors.
	if len(fe["email"]) == 0 {
		existing, err := h.userStore.FindByEmail(in.Email)
		if err != nil {
			writeServerError(w, "register email lookup failed", err)
			return
		}
		if existing != nil {
			fe.add("email", "A user with that email already exists.")
		}
	}
	if len(fe["username"]) == 0 {
		existing, err := h.userStore.FindByUsername(in.Username)
		if err != nil {
			writeServerError(w, "register username lookup failed", err)
			return
		}
		if existing != nil {
			fe.add("username", "A user with that username already exists.")
		}
	}
	if !fe.ok() {
		writeFieldErrors(w, fe)
		return
	}

	user, err := h.userStore.Create(in.Username, in.Email, in.Password, in.FirstName, in.LastName)
	if err != nil {
		writeServerError(w, "register create failed", err)
		return
	}

	writeJSON(w, http.StatusCreated, h.out.user(user, false))
}

// List returns all users, paginated.
// GET /api/users/
func (h *Users) List(w http.ResponseWriter, r *http.Request) {
	p := parsePage(r)

	users, err := h.userStore.List(p.Size, p.offset())
	if err != nil {
		writeServerError(w, "user list failed", err)
		return
	}
	count, err := h.userStore.Count()
	if err != nil {
		writeServerError(w, "user count failed", err)
		return
	}

	results := make([]userOut, 0, len(users))
	for i := range users {
		subscribed, err := h.isSubscribed(r, users[i].ID)
		if err != nil {
			writeServerError(w, "subscription check failed", err)
			return
		}
		results = append(results, h.out.user(&users[i], subscribed))
	}

	writeJSON(w, http.StatusOK, paginate(r, p, count, results))
}

// Detail returns a single user profile.
// GET /api/users/{id}/
func (h *Users) Detail(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeDetail(w, http.StatusNotFound, "User not found.")
		return
	}

	user, err := h.userStore.FindByID(id)
	if err != nil {
		writeServerError(w, "user lookup failed", err)
		return
	}
	if user == nil {
		writeDetail(w, http.StatusNotFound, "User not found.")
		return
	}

	subscribed, err := h.isSubscribed(r, user.ID)
	if err != nil {
		writeServerError(w, "subscription check failed", err)
		return
	}

	writeJSON(w, http.StatusOK, h.out.user(user, subscribed))
}

// Me returns the authenticated caller's profile.
// GET /api/users/me/
func (h *Users) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	writeJSON(w, http.StatusOK, h.out.user(user, false))
}

// SetPassword changes the caller's password after verifying the current one.
// POST /api/users/set_password/
func (h *Users) SetPassword(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())

	var in struct {
		NewPassword     string `json:"new_password"`
		CurrentPassword string `json:"current_password"`
	}
	if !decodeBody(w, r, &in) {
		return
	}

	fe := validatePassword(in.NewPassword)
	if !h.userStore.CheckPassword(user, in.CurrentPassword) {
		fe.add("current_password", "Invalid password.")
	}
	if !fe.ok() {
		writeFieldErrors(w, fe)
		return
	}

	if err := h.userStore.SetPassword(user.ID, in.NewPassword); err != nil {
		writeServerError(w, "set password failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetAvatar uploads a new profile image from a base64 data URI.
// PUT /api/users/me/avatar/
func (h *Users) SetAvatar(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())

	var in struct {
		Avatar string `json:"avatar"`
	}
	if !decodeBody(w, r, &in) {
		return
	}

	img, err := images.Decode(in.Avatar)
	if err != nil {
		writeFieldErrors(w, fieldErrors{"avatar": {"Upload a valid image."}})
		return
	}

	key := "avatars/" + uuid.NewString() + img.Extension
	if err := h.media.Save(r.Context(), key, img.ContentType, bytes.NewReader(img.Data), int64(len(img.Data))); err != nil {
		writeServerError(w, "avatar upload failed", err)
		return
	}

	// Replace, then remove the previous object so storage doesn't leak.
	old := user.AvatarKey
	if err := h.userStore.SetAvatar(user.ID, key); err != nil {
		writeServerError(w, "avatar save failed", err)
		return
	}
	if old != nil {
		h.media.Delete(r.Context(), *old)
	}

	writeJSON(w, http.StatusOK, map[string]string{"avatar": h.media.URL(key)})
}

// DeleteAvatar removes the caller's profile image.
// DELETE /api/users/me/avatar/
func (h *Users) DeleteAvatar(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())

	if user.AvatarKey == nil {
		writeDetail(w, http.StatusNotFound, "No avatar to delete.")
		return
	}

	cleared, err := h.userStore.ClearAvatar(user.ID)
	if err != nil {
		writeServerError(w, "avatar clear failed", err)
		return
	}
	if !cleared {
		writeDetail(w, http.StatusNotFound, "No avatar to delete.")
		return
	}
	h.media.Delete(r.Context(), *user.AvatarKey)

	w.WriteHeader(http.StatusNoContent)
}

// subscription builds the feed entry for one followed author.
func (h *Users) subscription(author *models.User, recipesLimit int) (*subscriptionOut, error) {
	recipes, err := h.recipeStore.ListByAuthor(author.ID, recipesLimit)
	if err != nil {
		return nil, err
	}
	count, err := h.recipeStore.CountByAuthor(author.ID)
	if err != nil {
		return nil, err
	}

	shorts := make([]recipeShortOut, 0, len(recipes))
	for i := range recipes {
		shorts = append(shorts, h.out.recipeShort(&recipes[i]))
	}

	return &subscriptionOut{
		userOut:      h.out.user(author, true),
		Recipes:      shorts,
		RecipesCount: count,
	}, nil
}

// Subscriptions lists the authors the caller follows, each with a recipe
// preview capped by ?recipes_limit=.
// GET /api/users/subscriptions/
func (h *Users) Subscriptions(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	p := parsePage(r)
	recipesLimit := queryInt(r, "recipes_limit", 0)

	authors, err := h.relationStore.ListSubscribedAuthors(user.ID, p.Size, p.offset())
	if err != nil {
		writeServerError(w, "subscriptions list failed", err)
		return
	}
	count, err := h.relationStore.CountSubscribedAuthors(user.ID)
	if err != nil {
		writeServerError(w, "subscriptions count failed", err)
		return
	}

	results := make([]subscriptionOut, 0, len(authors))
	for i := range authors {
		entry, err := h.subscription(&authors[i], recipesLimit)
		if err != nil {
			writeServerError(w, "subscription feed failed", err)
			return
		}
		results = append(results, *entry)
	}

	writeJSON(w, http.StatusOK, paginate(r, p, count, results))
}

// Subscribe makes the caller follow an author.
// POST /api/users/{id}/subscribe/
func (h *Users) Subscribe(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeDetail(w, http.StatusNotFound, "User not found.")
		return
	}
	if id == user.ID {
		writeDetail(w, http.StatusBadRequest, "You cannot subscribe to yourself.")
		return
	}

	author, err := h.userStore.FindByID(id)
	if err != nil {
		writeServerError(w, "subscribe lookup failed", err)
		return
	}
	if author == nil {
		writeDetail(w, http.StatusNotFound, "User not found.")
		return
	}

	if _, err := h.relationStore.Subscribe(user.ID, author.ID); err != nil {
		writeServerError(w, "subscribe failed", err)
		return
	}

	recipesLimit := queryInt(r, "recipes_limit", 0)
	entry, err := h.subscription(author, recipesLimit)
	if err != nil {
		writeServerError(w, "subscription feed failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// Unsubscribe removes a subscription. Succeeds even when none existed.
// DELETE /api/users/{id}/subscribe/
func (h *Users) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeDetail(w, http.StatusNotFound, "User not found.")
		return
	}

	author, err := h.userStore.FindByID(id)
	if err != nil {
		writeServerError(w, "unsubscribe lookup failed", err)
		return
	}
	if author == nil {
		writeDetail(w, http.StatusNotFound, "User not found.")
		return
	}

	if _, err := h.relationStore.Unsubscribe(user.ID, author.ID); err != nil {
		writeServerError(w, "unsubscribe failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
