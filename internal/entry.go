// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/sideload/internal/api"
	"github.com/starford/sideload/internal/derive"
	"github.com/starford/sideload/internal/fsys"
	"github.com/starford/sideload/internal/importer"
	"github.com/starford/sideload/internal/importservice"
	"github.com/starford/sideload/internal/library"
	"github.com/starford/sideload/internal/mcpserver"
	"github.com/starford/sideload/internal/metrics"
	"github.com/starford/sideload/internal/registry"
	"github.com/starford/sideload/internal/settings"
	"github.com/starford/sideload/internal/sse"
)

// Core is the wired import core shared by the server and the CLI commands.
type Core struct {
	Config   *Config
	Logger   *slog.Logger
	Service  *importservice.Service
	Settings *settings.Store
	Library  *library.Library

	db *registry.DB
}

// Close releases the registry connection.
func (c *Core) Close() error {
	return c.db.Close()
}

// Open wires the import core without starting any server.
func Open(opts ...Option) (*Core, error) {
	app := newApplication(opts)
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return build(app, nil)
}

func newLogger(app *application) *slog.Logger {
	if app.logger != nil {
		return app.logger
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: app.config.App.LogLevel,
	}))
}

func build(app *application, events importer.Events) (*Core, error) {
	cfg := app.config
	logger := newLogger(app)

	// Ensure the content directory exists; it is the default browse root.
	if err := os.MkdirAll(cfg.Content.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create content dir: %w", err)
	}
	contentDir, err := filepath.Abs(cfg.Content.Dir)
	if err != nil {
		return nil, fmt.Errorf("resolve content dir: %w", err)
	}

	lib, err := library.Open(cfg.Storage.Dir, library.Options{
		BaseURL:        cfg.Storage.BaseURL,
		OrganizeByDate: cfg.Storage.OrganizeByDate,
	})
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	st, err := settings.Open(cfg.Settings.Path, contentDir, logger)
	if err != nil {
		return nil, fmt.Errorf("init settings: %w", err)
	}

	db, err := registry.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init registry: %w", err)
	}

	svcOpts := importservice.Options{Events: events, Logger: logger}
	if cfg.Derive.Enabled {
		svcOpts.Post = derive.New(lib, cfg.Derive.Sizes, logger)
	}

	return &Core{
		Config:   cfg,
		Logger:   logger,
		Service:  importservice.New(st, fsys.NewHost(), db, lib, svcOpts),
		Settings: st,
		Library:  lib,
		db:       db,
	}, nil
}

// RunMCP serves the MCP tools on stdin/stdout until the client disconnects.
func RunMCP(_ context.Context, opts ...Option) error {
	app := newApplication(opts)
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	core, err := build(app, nil)
	if err != nil {
		return err
	}
	defer core.Close()

	return mcpserver.New(core.Service, app.version).ServeStdio()
}

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)
	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := newLogger(app)
	slog.SetDefault(logger)
	app.logger = logger

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("content_dir", cfg.Content.Dir),
		slog.String("storage_dir", cfg.Storage.Dir),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("settings_path", cfg.Settings.Path),
		slog.String("auth_mode", cfg.Auth.Mode),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	core, err := build(app, broker)
	if err != nil {
		return err
	}
	defer core.Close()

	cur := core.Settings.Current()
	logger.Info("Import settings",
		slog.String("root_path", cur.RootPath),
		slog.String("import_behavior", cur.ImportBehavior),
		slog.String("allowed_types", cur.AllowedTypes))

	apiRouter := api.NewRouter(core.Service, cfg.Auth.API(), broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := os.Stat(core.Settings.Current().RootPath); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"root unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", metrics.Handler())

	// Asset URLs point here.
	r.Get("/media/*", api.NewMediaHandler(core.Library).ServeFile)

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)
	watchCtx, stopWatch := context.WithCancel(gCtx)
	defer stopWatch()

	// Hot-reload settings edited on disk and tell connected browsers.
	if cfg.Settings.Watch {
		if err := os.MkdirAll(filepath.Dir(cfg.Settings.Path), 0o755); err != nil {
			return fmt.Errorf("create settings dir: %w", err)
		}
		g.Go(func() error {
			err := core.Settings.Watch(watchCtx, func(s settings.Settings) {
				broker.Publish(sse.Event{Type: sse.TypeSettingsUpdated, Data: s})
			})
			if err != nil {
				logger.Warn("settings watcher unavailable", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")
		stopWatch()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
