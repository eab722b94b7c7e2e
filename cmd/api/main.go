package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/novelfinder/novelfinder-go/internal/cache"
	"github.com/novelfinder/novelfinder-go/internal/config"
	"github.com/novelfinder/novelfinder-go/internal/crypto"
	"github.com/novelfinder/novelfinder-go/internal/handler"
	"github.com/novelfinder/novelfinder-go/internal/repository"
	"github.com/novelfinder/novelfinder-go/internal/service"
	"github.com/novelfinder/novelfinder-go/internal/upstream"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg)

	ctx := context.Background()

	stores, err := repository.Open(ctx, cfg.Store, cfg.DatabaseDSN)
	if err != nil {
		slog.Error("store initialization failed", "store", cfg.Store, "error", err)
		os.Exit(1)
	}
	defer stores.Close()

	novelAPI, err := upstream.NewClient(upstream.Config{
		BaseURL: cfg.NovelAPIBaseURL,
		APIKey:  cfg.NovelAPIKey,
		Timeout: cfg.NovelAPITimeout,
		RPS:     cfg.NovelAPIRPS,
		Burst:   cfg.NovelAPIBurst,
	}, nil)
	if err != nil {
		slog.Error("novel api client", "error", err)
		os.Exit(1)
	}

	var searchCache service.SearchCache
	if cfg.RedisAddr != "" {
		rdb, err := cache.Dial(ctx, cfg.RedisAddr)
		if err != nil {
			slog.Warn("redis unavailable, search cache disabled", "error", err)
		} else {
			defer rdb.Close()
			searchCache = cache.NewSearchCache(rdb, cfg.SearchCacheTTL)
		}
	}

	resolve := service.UserIDTokens
	sessionSecret := ""
	if cfg.RequireSession {
		resolve = service.SessionTokens(cfg.JWTSecret)
		sessionSecret = cfg.JWTSecret
	}

	authService := service.NewAuthService(stores.Users, crypto.NewHasher(crypto.DefaultHashParams()), cfg.JWTSecret, cfg.JWTExpiry)
	profileService := service.NewProfileService(stores.Users, stores.Favorites)
	favoriteService := service.NewFavoriteService(stores.Favorites)
	novelService := service.NewNovelService(stores.Users, novelAPI, searchCache, resolve, cfg.SearchFallback)

	router := handler.NewRouter(handler.Routes{
		Auth:          handler.NewAuthHandler(authService, profileService),
		Favorites:     handler.NewFavoriteHandler(favoriteService),
		Novels:        handler.NewNovelHandler(novelService),
		SessionSecret: sessionSecret,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server starting",
			"port", cfg.Port,
			"env", cfg.Env,
			"store", cfg.Store,
			"require_session", cfg.RequireSession,
			"search_fallback", cfg.SearchFallback,
			"search_cache", searchCache != nil,
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}

func setupLogger(cfg config.Config) {
	var h slog.Handler
	if cfg.IsProduction() {
		h = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		h = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	slog.SetDefault(slog.New(h))
}
