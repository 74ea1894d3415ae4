package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bece-prep/platform/internal/auth"
	"github.com/bece-prep/platform/internal/catalog"
	"github.com/bece-prep/platform/internal/docstore"
	"github.com/bece-prep/platform/internal/platform/cache"
	"github.com/bece-prep/platform/internal/platform/config"
	"github.com/bece-prep/platform/internal/platform/database"
	"github.com/bece-prep/platform/internal/seed"
	"github.com/bece-prep/platform/internal/state"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(cfg.Log))

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	schemas, err := catalog.Schemas()
	if err != nil {
		slog.Error("compile collection schemas", "error", err)
		os.Exit(1)
	}

	var store docstore.Store
	var db *database.DB
	switch cfg.Store.Driver {
	case "postgres":
		db, err = database.New(ctx, cfg.Database)
		if err != nil {
			slog.Error("connect database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		pg, err := docstore.NewPostgresStore(db.Pool, schemas)
		if err != nil {
			slog.Error("create document store", "error", err)
			os.Exit(1)
		}
		if err := pg.Migrate(ctx); err != nil {
			slog.Error("migrate document store", "error", err)
			os.Exit(1)
		}
		store = pg
	case "memory":
		store = docstore.NewMemoryStoreWithSchemas(schemas)
	}

	c, err := cache.New(ctx, cfg.Cache)
	if err != nil {
		slog.Error("connect cache", "error", err)
		os.Exit(1)
	}
	defer c.Close()

	repo := catalog.New(store, catalog.NewStoreEventLogger(store))

	if cfg.Seed.OnStart {
		data, err := seed.Load(cfg.Seed.Path)
		if err != nil {
			slog.Error("load seed data", "error", err)
			os.Exit(1)
		}
		if _, err := seed.Apply(ctx, repo, data); err != nil {
			slog.Error("seed initial data", "error", err)
			os.Exit(1)
		}
	}

	manager := auth.NewManager(auth.NewPasswordProvider(store), repo)
	if err := manager.Init(ctx); err != nil {
		slog.Error("initialize auth", "error", err)
		os.Exit(1)
	}
	defer manager.Close()

	sessions := auth.NewSessionStore(c.Client, time.Duration(cfg.Auth.SessionTTLDays)*24*time.Hour)

	stateStore := state.NewStore(repo)
	if err := stateStore.RefreshData(ctx); err != nil {
		slog.Warn("initial refresh", "error", err)
	}

	app := &app{
		repo:     repo,
		store:    store,
		manager:  manager,
		sessions: sessions,
		state:    stateStore,
		health:   healthCheckers(db, c),
	}

	go app.monitorHealth(ctx, 30*time.Second)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      newMux(app),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "driver", cfg.Store.Driver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

// healthCheckers collects the connectivity probes for readyz. The
// database entry is absent with the memory driver.
func healthCheckers(db *database.DB, c *cache.Cache) map[string]func(context.Context) error {
	checks := map[string]func(context.Context) error{
		"cache": c.HealthCheck,
	}
	if db != nil {
		checks["database"] = db.HealthCheck
	}
	return checks
}
