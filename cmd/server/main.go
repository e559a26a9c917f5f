// Command server runs the PDF translation HTTP service.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pdf-translator/internal/config"
	"pdf-translator/internal/logger"
	"pdf-translator/internal/pdf"
	"pdf-translator/internal/pipeline"
	"pdf-translator/internal/server"
	"pdf-translator/internal/storage"
	"pdf-translator/internal/translate"
)

func main() {
	if err := logger.Init(logger.DefaultConfig()); err != nil {
		os.Exit(1)
	}
	defer logger.Close()

	cfg := config.Load()
	logger.GetLogger().SetLevel(cfg.LogLevel())

	store, err := storage.New(cfg.StorageDir)
	if err != nil {
		logger.Error("failed to initialize storage", err, logger.String("dir", cfg.StorageDir))
		os.Exit(1)
	}

	client := translate.NewClient(cfg.TranslateAPIURL)
	directory := translate.NewDirectory(client)

	p := pipeline.New(pdf.NewExtractor(), pdf.NewRebuilder(), client, store, cfg.Concurrency)
	srv := server.New(cfg, store, p, directory).HTTPServer()

	// Background sweep catches artifacts orphaned by crashes or kills
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	go runSweep(sweepCtx, store, cfg.CleanupGrace)

	go func() {
		logger.Info("server listening", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", err)
			stopSweep()
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	stopSweep()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown incomplete", err)
	}

	// Final sweep: nothing under the storage root should outlive the process
	store.Sweep(0)
	logger.Info("server stopped")
}

// runSweep deletes leftover files on a fixed interval until ctx ends
func runSweep(ctx context.Context, store *storage.Store, grace time.Duration) {
	interval := grace / 2
	if interval < time.Minute {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			store.Sweep(grace)
		}
	}
}
