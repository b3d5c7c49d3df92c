package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/meeting-coordinator/internal/config"
	"github.com/example/meeting-coordinator/internal/conversation"
	"github.com/example/meeting-coordinator/internal/coordination"
	"github.com/example/meeting-coordinator/internal/httpapi"
	"github.com/example/meeting-coordinator/internal/persistence/sqlite"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	store, err := sqlite.Open(cfg.SQLiteDSN, time.Now)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	if err := store.Migrate(ctx); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	coordinator := coordination.NewCoordinator(cfg.ResponseDeadline, time.Now)
	service := coordination.NewService(store, coordinator, cfg.AssistantEmail, cfg.DefaultTimezone, uuid.NewString, time.Now)
	fallback := conversation.NewService(sqlite.NewConversationStore(store), cfg.DefaultTimezone, time.Now)

	router := httpapi.NewRouter(httpapi.RouterConfig{
		Inbound: httpapi.NewInboundHandler(service, fallback, logger),
		Middleware: []func(http.Handler) http.Handler{
			httpapi.RequestLogger(logger),
		},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shut down server", "error", err)
		}
	}()

	logger.Info("starting coordination server", "port", cfg.HTTPPort)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server terminated unexpectedly", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
