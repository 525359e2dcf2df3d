// Package main is the entry point for the Forkful API server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"forkful/internal/auth"
	"forkful/internal/cache"
	"forkful/internal/config"
	"forkful/internal/database"
	"forkful/internal/handlers"
	"forkful/internal/router"
	"forkful/internal/storage"
	"forkful/internal/store"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
	)

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Valkey (Redis-compatible store for tokens, rate limits,
	// and the shopping-list cache).
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	tokenStore := auth.NewStore(valkeyClient)
	listCache := cache.NewShoppingListCache(valkeyClient, cache.DefaultShoppingListTTL)

	// Media storage: S3-compatible bucket when configured, local disk
	// otherwise.
	var media storage.Backend
	mediaDir := ""
	if cfg.UseS3() {
		media = storage.NewS3(cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey,
			cfg.S3Bucket, cfg.S3PublicURL)
		slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
	} else {
		local, err := storage.NewLocal(cfg.MediaDir, cfg.PublicBaseURL+"/media")
		if err != nil {
			slog.Error("failed to initialize local storage", "error", err)
			os.Exit(1)
		}
		media = local
		mediaDir = local.Dir()
		slog.Info("local media storage active", "dir", mediaDir)
	}

	// Initialize data stores.
	userStore := store.NewUserStore(db)
	recipeStore := store.NewRecipeStore(db)
	tagStore := store.NewTagStore(db)
	ingredientStore := store.NewIngredientStore(db)
	relationStore := store.NewRelationStore(db)
	listStore := store.NewShoppingListStore(db)

	// Create handler groups with their dependencies.
	authHandlers := handlers.NewAuth(tokenStore, userStore)
	userHandlers := handlers.NewUsers(userStore, recipeStore, relationStore, media)
	recipeHandlers := handlers.NewRecipes(recipeStore, userStore, relationStore,
		ingredientStore, tagStore, listStore, listCache, media, cfg.PublicBaseURL)
	tagHandlers := handlers.NewTags(tagStore)
	ingredientHandlers := handlers.NewIngredients(ingredientStore)

	// Set up the Chi router with all middleware and routes.
	r := router.New(router.Deps{
		Tokens:      tokenStore,
		UserStore:   userStore,
		Valkey:      valkeyClient,
		Auth:        authHandlers,
		Users:       userHandlers,
		Recipes:     recipeHandlers,
		Tags:        tagHandlers,
		Ingredients: ingredientHandlers,
		MediaDir:    mediaDir,
	})

	// Create the HTTP server with sensible timeouts. ReadTimeout allows for
	// base64 image payloads on slow uplinks.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	// Give active requests up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
