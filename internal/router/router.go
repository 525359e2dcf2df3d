// Package router sets up all HTTP routes and middleware chains for the
// Forkful API. Routes are grouped by resource with public reads and
// token-authenticated writes.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"forkful/internal/auth"
	"forkful/internal/handlers"
	"forkful/internal/metrics"
	"forkful/internal/middleware"
	"forkful/internal/store"
)

// Deps bundles everything the router needs to wire the route tree.
type Deps struct {
	Tokens      *auth.Store
	UserStore   *store.UserStore
	Valkey      *redis.Client
	Auth        *handlers.Auth
	Users       *handlers.Users
	Recipes     *handlers.Recipes
	Tags        *handlers.Tags
	Ingredients *handlers.Ingredients

	// MediaDir, when non-empty, is served at /media/ for local storage.
	MediaDir string
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(metrics.Middleware)
	r.Use(middleware.Authenticate(d.Tokens, d.UserStore))

	// Operational endpoints, no auth.
	r.Get("/health", healthHandler)
	r.Get("/metrics", metrics.Handler())

	// Login attempts are brute-forceable, so they get their own limiter.
	loginLimiter := middleware.NewRateLimiter(d.Valkey, "login", 10, time.Minute)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth/token", func(r chi.Router) {
			r.With(loginLimiter.Middleware).Post("/login/", d.Auth.Login)
			r.With(middleware.RequireAuth).Post("/logout/", d.Auth.Logout)
		})

		r.Route("/users", func(r chi.Router) {
			r.Post("/", d.Users.Register)
			r.Get("/", d.Users.List)

			// Fixed paths before the {id} wildcard.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				r.Get("/me/", d.Users.Me)
				r.Put("/me/avatar/", d.Users.SetAvatar)
				r.Patch("/me/avatar/", d.Users.SetAvatar)
				r.Delete("/me/avatar/", d.Users.DeleteAvatar)
				r.Post("/set_password/", d.Users.SetPassword)
				r.Get("/subscriptions/", d.Users.Subscriptions)
				r.Post("/{id}/subscribe/", d.Users.Subscribe)
				r.Delete("/{id}/subscribe/", d.Users.Unsubscribe)
			})

			r.Get("/{id}/", d.Users.Detail)
		})

		r.Route("/tags", func(r chi.Router) {
			r.Get("/", d.Tags.List)
			r.Get("/{id}/", d.Tags.Detail)
		})

		r.Route("/ingredients", func(r chi.Router) {
			r.Get("/", d.Ingredients.List)
			r.Get("/{id}/", d.Ingredients.Detail)
		})

		r.Route("/recipes", func(r chi.Router) {
			r.Get("/", d.Recipes.List)
			r.Get("/{id}/", d.Recipes.Detail)
			r.Get("/{id}/qrcode/", d.Recipes.QRCode)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				r.Post("/", d.Recipes.Create)
				r.Patch("/{id}/", d.Recipes.Update)
				r.Delete("/{id}/", d.Recipes.Delete)
				r.Get("/download_shopping_cart/", d.Recipes.DownloadShoppingCart)
				r.Post("/{id}/favorite/", d.Recipes.Favorite)
				r.Delete("/{id}/favorite/", d.Recipes.Unfavorite)
				r.Post("/{id}/shopping_cart/", d.Recipes.AddToCart)
				r.Delete("/{id}/shopping_cart/", d.Recipes.RemoveFromCart)
			})
		})
	})

	// Local media files, only when the filesystem backend is active.
	if d.MediaDir != "" {
		fs := http.StripPrefix("/media/", http.FileServer(http.Dir(d.MediaDir)))
		r.Get("/media/*", fs.ServeHTTP)
	}

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
