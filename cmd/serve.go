package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"

	"github.com/S1riyS/tree-server/internal/config"
	"github.com/S1riyS/tree-server/internal/handler"
	"github.com/S1riyS/tree-server/internal/metrics"
	"github.com/S1riyS/tree-server/internal/middleware"
	"github.com/S1riyS/tree-server/internal/repository"
	"github.com/S1riyS/tree-server/internal/service"
	"github.com/S1riyS/tree-server/pkg/logging"
	"github.com/S1riyS/tree-server/pkg/logging/slogext"
)

const shutdownTimeout = 10 * time.Second

func runServe(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, closer, err := logging.Setup(loggingOptions(cfg.Logging))
	if err != nil {
		return err
	}
	defer closer.Close()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.MakeContextWithLogger(ctx, logger)

	types, err := service.NewTypeLookup(cfg.Types)
	if err != nil {
		logger.Error("Invalid type table", slogext.Err(err))
		return err
	}

	// Dependencies
	repo := repository.NewFileSystemRepository(afero.NewOsFs())
	walker := service.NewStatWalker(repo, cfg.Marker)
	listing := service.NewListingBuilder(repo, walker, types, cfg.App.ListingConcurrency)
	h := handler.NewHandler(&cfg.Tree, repo, walker, listing, nil)

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	srv := &http.Server{
		Addr: cfg.App.Addr(),
		Handler: middleware.Chain(mux,
			middleware.LoggerMiddleware(logger),
			middleware.RequestIDMiddleware,
			middleware.AccessLogMiddleware,
		),
		ReadHeaderTimeout: cfg.App.DefaultTimeout,
		// Signals stop accepting, they do not cancel requests Shutdown drains.
		BaseContext: func(_ net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	servers := []*http.Server{srv}
	if addr := cfg.App.MetricsAddr(); addr != "" {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", metrics.Handler())
		servers = append(servers, &http.Server{
			Addr:              addr,
			Handler:           metricsMux,
			ReadHeaderTimeout: cfg.App.DefaultTimeout,
		})
	}

	errCh := make(chan error, len(servers))
	for _, s := range servers {
		go func() {
			logger.Info("Listening", slog.String("addr", s.Addr))
			if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("listen %s: %w", s.Addr, err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("Shutting down")
	case err = <-errCh:
		logger.Error("Server failed", slogext.Err(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, s := range servers {
		if shutdownErr := s.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Warn("Graceful shutdown failed", slogext.Err(shutdownErr), slog.String("addr", s.Addr))
		}
	}

	return err
}

func loggingOptions(c config.LoggingConfig) logging.Options {
	return logging.Options{
		Level:      c.Level,
		Format:     c.Format,
		File:       c.File,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
	}
}
