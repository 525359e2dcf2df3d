// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"net/http"

	"forkful/internal/auth"
	"forkful/internal/models"
	"forkful/internal/store"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// UserKey is the context key for the authenticated user.
	UserKey contextKey = "user"

	// TokenKey is the context key for the raw token value, kept so logout
	// can revoke the exact token that authenticated the request.
	TokenKey contextKey = "token"
)

// Authenticate resolves the Authorization token to a user and stores both
// in the request context. Downstream handlers access them via UserFromCtx()
// and TokenFromCtx(). This middleware does NOT enforce authentication; it
// just loads the identity if a valid token is present.
func Authenticate(tokens *auth.Store, users *store.UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.FromRequest(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			data, err := tokens.Get(r.Context(), token)
			if err != nil || data == nil {
				// Invalid or expired token, treat as unauthenticated.
				next.ServeHTTP(w, r)
				return
			}

			user, err := users.FindByID(data.UserID)
			if err != nil || user == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), UserKey, user)
			ctx = context.WithValue(ctx, TokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth returns 401 for requests without an authenticated user.
// Must be applied after Authenticate in the middleware chain.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserFromCtx(r.Context()) == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"detail":"Authentication credentials were not provided."}`))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequireAdmin returns 403 if the authenticated user is not an admin.
// Must be applied after RequireAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := UserFromCtx(r.Context())
		if user == nil || !user.IsAdmin() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"detail":"You do not have permission to perform this action."}`))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// UserFromCtx extracts the authenticated user from the request context.
// Returns nil for anonymous requests.
func UserFromCtx(ctx context.Context) *models.User {
	user, _ := ctx.Value(UserKey).(*models.User)
	return user
}

// TokenFromCtx extracts the raw token value that authenticated the request.
func TokenFromCtx(ctx context.Context) string {
	token, _ := ctx.Value(TokenKey).(string)
	return token
}
