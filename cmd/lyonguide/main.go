// Package main is the entry point for the Guide de Lyon content API.
// It loads configuration, connects to services, sets up routing, and
// starts the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lyonguide/internal/ai"
	"lyonguide/internal/cache"
	"lyonguide/internal/config"
	"lyonguide/internal/database"
	"lyonguide/internal/docstore"
	"lyonguide/internal/handlers"
	"lyonguide/internal/router"
	"lyonguide/internal/storage"
	"lyonguide/internal/store"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
	)

	// Connect to PostgreSQL and run pending migrations.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	ds := docstore.NewPostgres(db)

	// Seed development data (no-op if articles already exist).
	if cfg.IsDev() {
		if err := database.Seed(context.Background(), ds); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Valkey (Redis-compatible response cache).
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	respCache := cache.NewResponseCache(valkeyClient, cache.DefaultResponseTTL)

	// Connect to S3-compatible object storage (optional, the API works
	// without it; media uploads just answer 503).
	var storageClient *storage.Client
	if cfg.S3Endpoint != "" && cfg.S3AccessKey != "" {
		storageClient, err = storage.New(
			cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey,
			cfg.S3Bucket, cfg.S3PublicURL,
		)
		if err != nil {
			slog.Error("failed to initialize S3 storage", "error", err)
			os.Exit(1)
		}
		if storageClient != nil {
			slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
		}
	} else {
		slog.Warn("s3 storage not configured, media uploads disabled")
	}

	// Data stores, all backed by the same document store.
	categoryStore := store.NewCategoryStore(ds)
	tagStore := store.NewTagStore(ds)
	authorStore := store.NewAuthorStore(ds)
	articleStore := store.NewArticleStore(ds, categoryStore, tagStore)
	draftStore := store.NewDraftStore(ds, articleStore)
	commentStore := store.NewCommentStore(ds)

	// AI provider registry for editorial suggestions.
	aiRegistry := ai.NewRegistry(cfg.AIProvider, map[string]ai.ProviderConfig{
		"openai":  {APIKey: cfg.OpenAIKey, Model: cfg.OpenAIModel, BaseURL: cfg.OpenAIBaseURL},
		"mistral": {APIKey: cfg.MistralKey, Model: cfg.MistralModel, BaseURL: cfg.MistralBaseURL},
	})

	slog.Info("ai providers initialized",
		"active", aiRegistry.ActiveName(),
		"available", aiRegistry.Available(),
	)

	var suggester *ai.Suggester
	if _, err := aiRegistry.Active(); err == nil {
		suggester = ai.NewSuggester(aiRegistry, articleStore, draftStore, logger)
	}

	// Comment spam screening is OpenAI-only; nil means "no screening".
	moderator := ai.NewModerator(ai.ProviderConfig{APIKey: cfg.OpenAIKey, BaseURL: cfg.OpenAIBaseURL})

	// Handler groups and routing.
	publicHandlers := handlers.NewPublic(articleStore, categoryStore, tagStore, authorStore, commentStore, respCache, moderator)
	adminHandlers := handlers.NewAdmin(articleStore, categoryStore, tagStore, authorStore, draftStore, commentStore, suggester, aiRegistry, storageClient, respCache)

	commentLimiter := router.NewRateLimiter()
	defer commentLimiter.Stop()

	r := router.New(publicHandlers, adminHandlers, cfg.AdminKey, commentLimiter)

	// WriteTimeout must accommodate the AI suggestion endpoint, which
	// waits on an LLM response.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("server shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}
