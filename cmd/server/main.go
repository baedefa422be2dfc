// Package main is the entry point for the lease billing API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leasebill/internal/app"
	"leasebill/internal/infrastructure/storage/postgres"
	"leasebill/pkg/logger"
)

func main() {
	app.LoadEnv()

	cfg, err := app.LoadConfig()
	if err != nil {
		fmt.Printf("invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := logger.WithLogger(context.Background(), log)
	log.Infow("starting leasebill server", "storage", cfg.StorageDriver, "timezone", cfg.BillingTimezone)

	// --- Storage ---
	storage, err := app.OpenStorage(ctx, cfg)
	if err != nil {
		log.Fatalw("failed to open storage", "error", err)
	}
	defer storage.Close()

	if storage.Pool != nil && os.Getenv("AUTO_MIGRATE") == "true" {
		applied, err := postgres.Migrate(ctx, storage.Pool)
		if err != nil {
			log.Fatalw("failed to apply migrations", "error", err)
		}
		log.Infow("migrations applied", "count", applied)
	}

	if storage.Memory != nil {
		seeded := app.SeedMemory(storage.Memory, 3)
		for _, s := range seeded {
			log.Infow("seeded unit and tenant", "unidade_id", s.UnitID, "identificador", s.Label, "inquilino_id", s.TenantID)
		}
	}

	if cfg.JWTSecret == "" {
		log.Warn("JWT_SECRET not set, requests are served anonymously")
	}

	// --- Services and router ---
	services := app.NewServices(cfg, storage, nil)
	handler := app.NewHandler(cfg, storage, services, log)

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
