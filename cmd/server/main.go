// CineScout - Conversational Movie & TV Recommendation Service
// Copyright 2026 Mraprguild
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mraprguild/cinescout

// Command server runs the CineScout recommendation API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/mraprguild/cinescout/internal/api"
	"github.com/mraprguild/cinescout/internal/catalog"
	"github.com/mraprguild/cinescout/internal/config"
	"github.com/mraprguild/cinescout/internal/logging"
	"github.com/mraprguild/cinescout/internal/profile"
	"github.com/mraprguild/cinescout/internal/recommend"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("Server exited with error")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	if cfg.TMDB.APIKey == "" {
		return errors.New("TMDB_API_KEY is required")
	}

	store, err := profile.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Closing profile store failed")
		}
	}()

	cat := catalog.NewBreakerCatalog(catalog.NewClient(&cfg.TMDB))
	engine := recommend.NewEngine(cat, store, &cfg.Recommend)
	handler := api.NewHandler(engine, store, cat)
	router := api.NewRouter(handler, &cfg.RateLimit)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sweeper := profile.NewSweeper(store, &cfg.Retention)
	go sweeper.Run(ctx)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  2 * cfg.Server.Timeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", srv.Addr).Msg("CineScout listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server: %w", err)
	case <-ctx.Done():
	}

	logging.Info().Msg("Shutdown signal received, draining connections")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down HTTP server: %w", err)
	}

	logging.Info().Msg("Server stopped")
	return nil
}
