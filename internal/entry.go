// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/cvcraft/internal/api"
	"github.com/starford/cvcraft/internal/chrome"
	"github.com/starford/cvcraft/internal/document"
	"github.com/starford/cvcraft/internal/editor"
	"github.com/starford/cvcraft/internal/mcpserver"
	"github.com/starford/cvcraft/internal/models"
	"github.com/starford/cvcraft/internal/seed"
	"github.com/starford/cvcraft/internal/sse"
)

const (
	sseHeartbeat    = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

// EventSeedUpdated is published when the seed file was reloaded.
const EventSeedUpdated = "seed.updated"

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := newLogger(os.Stdout, cfg.App.LogLevel)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("seed_path", cfg.Seed.Path),
		slog.Bool("print_enabled", cfg.Print.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	src, err := seed.Load(cfg.Seed.Path)
	if err != nil {
		return fmt.Errorf("load seed: %w", err)
	}

	// SSE broker. The latest document, pagination and theme events are
	// replayed to late subscribers.
	broker := sse.NewBroker(sseHeartbeat,
		editor.EventDocumentUpdated,
		editor.EventPaginationUpdated,
		editor.EventThemeUpdated)
	defer broker.Close()

	sessOpts := sessionOptions(cfg, logger)
	sessOpts = append(sessOpts, editor.WithEvents(func(ev editor.Event) {
		broker.Publish(sse.Event{Type: ev.Type, Data: ev.Data})
	}))
	sess := editor.New(src, sessOpts...)
	defer sess.Close()

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           newHandler(cfg, sess, broker),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Reload the reset default when the seed file changes.
	if cfg.Seed.Watch && cfg.Seed.Path != "" {
		g.Go(func() error {
			return src.Watch(gCtx, logger, func(doc models.Document) {
				broker.Publish(sse.Event{Type: EventSeedUpdated, Data: map[string]any{
					"path":     src.Path(),
					"sections": len(doc.Sections),
				}})
			})
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

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown ends the run group once the server has been stopped, which
// also stops the seed watcher.
var errShutdown = errors.New("shutdown")

// RunMCP serves the editing session over MCP on stdin/stdout. Logs go to
// stderr so they do not corrupt the protocol stream.
func RunMCP(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	logger := newLogger(os.Stderr, cfg.App.LogLevel)
	slog.SetDefault(logger)

	src, err := seed.Load(cfg.Seed.Path)
	if err != nil {
		return fmt.Errorf("load seed: %w", err)
	}

	sess := editor.New(src, sessionOptions(cfg, logger)...)
	defer sess.Close()

	logger.Info("MCP server starting", slog.String("version", app.version))
	return mcpserver.New(sess, app.version).ServeStdio()
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

// sessionOptions maps the editor and print configuration to session options.
func sessionOptions(cfg *Config, logger *slog.Logger) []editor.Option {
	opts := []editor.Option{
		editor.WithLogger(logger),
		editor.WithIDGenerator(document.NewGenerator(cfg.Editor.IDScheme)),
		editor.WithPageHeight(cfg.Editor.PageHeight),
		editor.WithDebounce(cfg.Editor.Debounce),
		editor.WithHistoryLimit(cfg.Editor.History.MaxEntries),
		editor.WithThemeColor(cfg.Editor.ThemeColor),
	}
	if cfg.Print.Enabled {
		browser := chrome.New(
			chrome.WithExecPath(cfg.Print.ChromePath),
			chrome.WithTimeout(cfg.Print.Timeout),
		)
		opts = append(opts, editor.WithPrinter(browser))
		if cfg.Print.Measure {
			opts = append(opts, editor.WithMeasurer(browser))
		}
	}
	return opts
}

// newHandler builds the root router: health checks, the API and the SSE stream.
func newHandler(cfg *Config, sess *editor.Session, broker *sse.Broker) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api; the SSE stream shares the API auth.
	r.Mount("/api", api.NewRouter(sess, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker))

	return r
}
