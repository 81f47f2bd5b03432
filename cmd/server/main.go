/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the clientdesk server.
  Handles configuration, dependency injection, and graceful shutdown.

COMMANDS:
  serve    (default) Migrate, seed, and serve HTTP
  migrate  Create the schema and exit

STARTUP SEQUENCE:
  1. Load config (defaults < config.yaml < .env < environment < flags)
  2. Initialize zap logger
  3. Open SQLite store, migrate, seed demo data on an empty database
  4. Create API handler with PDF renderer, mailer and metrics
  5. Configure HTTP router
  6. Start server with graceful shutdown

FLAGS:
  --config  YAML config path (default: config.yaml, optional)
  --port    HTTP server port (overrides PORT)
  --db      SQLite database path (overrides DATABASE_PATH)
            Use ":memory:" for in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server --db=./data/clientdesk.db

  # Run with in-memory database
  ./server serve --db=":memory:"

  # Run on different port
  ./server --port=3000

SEE ALSO:
  - config/config.go: Configuration sources and keys
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/warp/clientdesk/api"
	"github.com/warp/clientdesk/config"
	"github.com/warp/clientdesk/metrics"
	"github.com/warp/clientdesk/store/sqlite"
	"github.com/warp/clientdesk/tools"
	"go.uber.org/zap"
)

type flags struct {
	configPath string
	port       int
	dbPath     string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	f := &flags{}

	root := &cobra.Command{
		Use:           "clientdesk",
		Short:         "clientdesk - business operations backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), f)
		},
	}
	root.PersistentFlags().StringVar(&f.configPath, "config", "config.yaml", "YAML config path")
	root.PersistentFlags().IntVar(&f.port, "port", 0, "HTTP server port")
	root.PersistentFlags().StringVar(&f.dbPath, "db", "", "SQLite database path")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Migrate, seed, and serve the HTTP API",
			RunE: func(cmd *cobra.Command, args []string) error {
				return serve(cmd.Context(), f)
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create the database schema and exit",
			RunE: func(cmd *cobra.Command, args []string) error {
				return migrate(cmd.Context(), f)
			},
		},
	)
	return root
}

// load resolves config and applies flag overrides.
func load(f *flags) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, nil, err
	}
	if f.port > 0 {
		cfg.Server.Port = f.port
	}
	if f.dbPath != "" {
		cfg.Database.Path = f.dbPath
	}

	logger, err := config.NewLogger(cfg.Server.LogLevel, cfg.Server.Env)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logger, nil
}

func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*sqlite.Store, error) {
	store, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	logger.Info("database ready", zap.String("path", cfg.Database.Path))
	return store, nil
}

func migrate(ctx context.Context, f *flags) error {
	cfg, logger, err := load(f)
	if err != nil {
		return err
	}
	defer logger.Sync()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	return store.Close()
}

func serve(ctx context.Context, f *flags) error {
	cfg, logger, err := load(f)
	if err != nil {
		return err
	}
	defer logger.Sync()

	// Initialize store
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	seeded, err := store.Seed(ctx)
	if err != nil {
		return fmt.Errorf("failed to seed database: %w", err)
	}
	if seeded {
		logger.Info("seeded demo data")
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewWithRegistry(registry, logger)

	// Tools
	var pdf tools.PDFRenderer
	if cfg.Tools.PDFEnabled {
		pdf = tools.NewFPDFRenderer()
	}
	mailer := tools.NewMailer(cfg.SMTP)
	if mailer.Previewing() {
		logger.Info("SMTP not configured, send-email returns previews")
	}

	// Initialize handler
	handler := api.NewHandler(store, api.Options{
		PDF:     pdf,
		Mailer:  mailer,
		Metrics: m,
		Logger:  logger,
	})

	// Create router
	router := api.NewRouter(handler, api.RouterConfig{
		AllowedOrigins: cfg.Server.CORSAllowedOrigins,
		StaticDir:      cfg.Server.StaticDir,
		Gatherer:       registry,
	})

	// Create server
	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("addr", server.Addr),
			zap.String("env", cfg.Server.Env),
			zap.Bool("pdf_enabled", pdf != nil),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
