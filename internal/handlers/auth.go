// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"forkful/internal/auth"
	"forkful/internal/middleware"
	"forkful/internal/store"
)

// Auth groups the token login and logout handlers.
type Auth struct {
	tokens    *auth.Store
	userStore *store.UserStore
}

// NewAuth creates a new Auth handler group.
func NewAuth(tokens *auth.Store, userStore *store.UserStore) *Auth {
	return &Auth{
		tokens:    tokens,
		userStore: userStore,
	}
}

// Login exchanges email and password for an API token.
// POST /api/auth/token/login/
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &in) {
		return
	}

	user, err := a.userStore.FindByEmail(in.Email)
	if err != nil {
		writeServerError(w, "login lookup failed", err)
		return
	}

	// Same response for unknown email and wrong password.
	if user == nil || !a.userStore.CheckPassword(user, in.Password) {
		writeDetail(w, http.StatusBadRequest, "Unable to log in with provided credentials.")
		return
	}

	token, err := a.tokens.Issue(r.Context(), user.ID)
	if err != nil {
		writeServerError(w, "token issue failed", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"auth_token": token})
}

// Logout revokes the token that authenticated this request.
// POST /api/auth/token/logout/
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	token := middleware.TokenFromCtx(r.Context())
	if err := a.tokens.Revoke(r.Context(), token); err != nil {
		writeServerError(w, "token revoke failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
