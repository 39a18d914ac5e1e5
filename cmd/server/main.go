// Package main provides the entry point for the sealium transcription
// API server: it serves the HTTP intake endpoints and drains the four
// pipeline stage queues in the same process, the in-process-channel
// queue.Registry not (yet) being backed by a shared broker across
// processes.
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

	"github.com/sealium/transcription-service/internal/bootstrap"
	"github.com/sealium/transcription-service/internal/config"
	"github.com/sealium/transcription-service/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting sealium transcription service",
		slog.Int("port", cfg.Port),
		slog.String("storage_root", cfg.StorageRoot),
		slog.String("chunk_mode", cfg.ChunkMode),
		slog.Int("max_parallel_chunks", cfg.MaxParallelChunks),
		slog.Int("queue_workers_per_stage", cfg.QueueWorkersPerStage),
		slog.Bool("s3_enabled", cfg.S3Enabled()),
	)

	deps, err := bootstrap.NewDependencies(cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize dependencies: %w", err)
	}

	handlers := server.NewHandlers(deps.Store, deps.Queue, cfg.StorageRoot, logger)
	router := server.NewRouter(handlers, server.DefaultConfig(), logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // long-poll-free, but downloads can be large
		IdleTimeout:  60 * time.Second,
	}

	queueCtx, stopQueues := context.WithCancel(context.Background())
	defer stopQueues()
	go deps.Queue.RunAll(queueCtx, cfg.QueueWorkersPerStage)

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server failed: %w", err)
		}
	}()

	select {
	case sig := <-shutdownCh:
		logger.Info("received shutdown signal", slog.String("signal", sig.String()))
	case err := <-errCh:
		stopQueues()
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.Info("shutting down server...")
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	stopQueues()
	logger.Info("server stopped gracefully")
	return nil
}
