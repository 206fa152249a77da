package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"tempocache/infrastructure/config"
	"tempocache/infrastructure/di"
	"tempocache/interfaces/http/rest"
)

func main() {
	// Initialize context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize dependency container
	container, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	// Warm the cache before taking traffic; a failed task only means
	// cold reads for that kind, never a failed startup
	if cfg.WarmupEnabled {
		report := container.Warmer.WarmUp(ctx)
		container.Logger.Info("cache warm-up finished",
			zap.Int("completed", report.Completed),
			zap.Int("failed", report.Failed),
			zap.Int("loaded", report.Loaded),
		)
	}

	// Start the background flusher for buffered listen events
	container.Flusher.Start(ctx)

	// Create router
	router := rest.NewRouter(rest.Dependencies{
		ArtistReader:   container.ArtistReader,
		AlbumReader:    container.AlbumReader,
		ArtistWriter:   container.ArtistWriter,
		AlbumWriter:    container.AlbumWriter,
		ListenRecorder: container.ListenRecorder,
		Invalidator:    container.Invalidator,
		Warmer:         container.Warmer,
		Metrics:        container.Metrics,
		Logger:         container.Logger,
		EnableCORS:     cfg.EnableCORS,
		IngestLimiter:  container.IngestLimiter,
	})

	// Setup routes
	handler := router.Setup()

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		container.Logger.Info("Starting server",
			zap.String("address", cfg.ServerAddress),
			zap.String("environment", cfg.Environment),
			zap.String("cache_backend", cfg.CacheBackend),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			container.Logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	container.Logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		container.Logger.Error("Server shutdown error", zap.Error(err))
	}

	// Drain buffered listens before the catalog database goes away
	if err := container.Flusher.Stop(shutdownCtx); err != nil {
		container.Logger.Error("Flusher shutdown error", zap.Error(err))
	}

	if err := container.CatalogDB.Close(); err != nil {
		container.Logger.Error("Catalog database close error", zap.Error(err))
	}

	// Clean up resources
	if err := container.Logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}

	log.Println("Server stopped")
}
