package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/iudanet/drawboard/internal/server/handlers"
	"github.com/iudanet/drawboard/internal/server/hub"
	"github.com/iudanet/drawboard/internal/server/middleware"
	"github.com/iudanet/drawboard/internal/server/storage/sqlite"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 30 * 24 * time.Hour

	// лимит на IP: редактирование шлет не чаще 10 submit/сек на документ,
	// запас покрывает несколько параллельных досок за одним NAT
	rateLimitRPS   = 50
	rateLimitBurst = 100

	shutdownTimeout  = 10 * time.Second
	tokenCleanupTick = time.Hour
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	addr := flag.String("addr", envOr("DRAWBOARD_ADDR", ":8080"), "Listen address")
	dbPath := flag.String("db", envOr("DRAWBOARD_DB", "drawboard.db"), "Path to SQLite database")
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(logger, *addr, *dbPath); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, addr, dbPath string) error {
	jwtSecret := os.Getenv("DRAWBOARD_JWT_SECRET")
	if jwtSecret == "" {
		return errors.New("DRAWBOARD_JWT_SECRET environment variable is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := sqlite.New(ctx, dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	go tokenCleanupLoop(ctx, logger, store)

	jwtConfig := handlers.JWTConfig{
		Secret:          []byte(jwtSecret),
		AccessTokenTTL:  accessTokenTTL,
		RefreshTokenTTL: refreshTokenTTL,
	}

	registry := hub.NewRegistry(logger)
	broadcaster := hub.NewBroadcaster(registry, logger)

	authHandler := handlers.NewAuthHandler(logger, store, store, jwtConfig)
	docHandler := handlers.NewDocumentHandler(logger, store, broadcaster)
	subscribeHandler := handlers.NewSubscribeHandler(logger, registry, handlers.NewOwnerAccessChecker(store), store)
	healthHandler := handlers.NewHealthHandler(logger, Version)

	rateLimiter := middleware.NewRateLimiter(logger, rateLimitRPS, rateLimitBurst)
	defer rateLimiter.Stop()

	router := mux.NewRouter()
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(rateLimiter.Middleware)

	router.HandleFunc("/health", healthHandler.Health).Methods(http.MethodGet)

	// Auth endpoints верифицируют токены сами (refresh token не JWT)
	authRouter := router.PathPrefix("/api/v1/auth").Subrouter()
	authRouter.HandleFunc("/register", authHandler.Register).Methods(http.MethodPost)
	authRouter.HandleFunc("/login", authHandler.Login).Methods(http.MethodPost)
	authRouter.HandleFunc("/refresh", authHandler.Refresh).Methods(http.MethodPost)
	authRouter.HandleFunc("/logout", authHandler.Logout).Methods(http.MethodPost)

	docsRouter := router.PathPrefix("/api/v1/documents").Subrouter()
	docsRouter.Use(middleware.AuthMiddleware(logger, jwtConfig))
	docsRouter.HandleFunc("", docHandler.HandleCreate).Methods(http.MethodPost)
	docsRouter.HandleFunc("", docHandler.HandleList).Methods(http.MethodGet)
	docsRouter.HandleFunc("/{id}", docHandler.HandleGet).Methods(http.MethodGet)
	docsRouter.HandleFunc("/{id}/elements", docHandler.HandleSubmitUpdate).Methods(http.MethodPost)
	docsRouter.HandleFunc("/{id}/subscribe", subscribeHandler.HandleSubscribe).Methods(http.MethodGet)

	// WriteTimeout не ставим: websocket подписки живут часами
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", addr, "version", Version)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// tokenCleanupLoop периодически удаляет истекшие refresh tokens
func tokenCleanupLoop(ctx context.Context, logger *slog.Logger, store *sqlite.Storage) {
	ticker := time.NewTicker(tokenCleanupTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := store.DeleteExpiredTokens(ctx)
			if err != nil {
				logger.Warn("failed to delete expired tokens", "error", err)
				continue
			}
			if deleted > 0 {
				logger.Info("expired tokens deleted", "count", deleted)
			}
		}
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func printVersion() {
	fmt.Printf("Drawboard Server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
