// Package main - Entry point for the slab-pricing API server
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"slab-pricing/api"
	"slab-pricing/core/catalog"
	"slab-pricing/db"
	"slab-pricing/internal/config"
	"slab-pricing/internal/logging"
)

const version = "0.1.0"

func run() error {
	configPath := flag.String("config", "", "Path to config file")
	addr := flag.String("addr", "", "Server address (overrides config)")
	flag.Parse()

	// Load configuration
	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return fmt.Errorf("config initialization failed: %w", err)
		}
		cfg = loaded
	}
	cfg.LoadEnv()
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	config.Set(cfg)

	// Configure logger
	if err := logging.Initialize(cfg.Logging); err != nil {
		return fmt.Errorf("logger initialization failed: %w", err)
	}
	defer logging.Sync()
	logger := logging.Logger

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Catalog.Timeout())
	source, closeSource, err := catalogSource(ctx, cfg)
	cancel()
	if err != nil {
		return err
	}
	defer closeSource()

	apiServer := api.NewServer(source, api.Options{
		Version:      version,
		Currency:     cfg.Pricing.DefaultCurrency,
		DefaultCycle: cfg.Pricing.DefaultCycle,
		Logger:       logger,
	})

	// A failed initial load is retried lazily on the first request
	loadCtx, loadCancel := context.WithTimeout(context.Background(), cfg.Catalog.Timeout())
	if _, err := apiServer.Reload(loadCtx); err != nil {
		logger.Warn("Initial catalog load failed", zap.String("source", source.Name()), zap.Error(err))
	}
	loadCancel()

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           apiServer,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		logger.Info("Server started", zap.String("address", server.Addr), zap.String("version", version))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server failed: %w", err)
	case <-sigChan:
	}
	logger.Info("Shutdown signal received, initiating graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.ShutdownSeconds)*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

// catalogSource builds the configured source; postgres is migrated first
func catalogSource(ctx context.Context, cfg *config.Config) (catalog.Source, func(), error) {
	switch cfg.Catalog.Source {
	case config.SourcePostgres:
		store, err := db.NewPostgresStore(ctx, cfg.Catalog.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("database connection failed: %w", err)
		}
		if err := store.Migrate(); err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("migration failed: %w", err)
		}
		logging.Info("Database ready")
		return db.NewCatalogSource(store), func() { store.Close() }, nil
	case config.SourceHTTP:
		return catalog.NewHTTPSource(cfg.Catalog.URL, cfg.Catalog.Timeout()).
			WithToken(cfg.Catalog.Token), func() {}, nil
	default:
		return catalog.NewFileSource(cfg.Catalog.Path), func() {}, nil
	}
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
