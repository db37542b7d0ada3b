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

	"golang.org/x/sync/errgroup"

	"github.com/conorfennell/flashmind/internal/config"
	"github.com/conorfennell/flashmind/internal/generator"
	"github.com/conorfennell/flashmind/internal/source"
	"github.com/conorfennell/flashmind/internal/web"
)

func newGenerator(cfg config.GeneratorConfig, logger *slog.Logger) generator.Generator {
	if cfg.Provider == config.ProviderStatic {
		return generator.Lines{}
	}
	return generator.NewGemini(cfg.APIKey, cfg.Model, logger)
}

// serve runs the HTTP API and the source watcher until a shutdown signal
// arrives or either of them fails.
func (a *app) serve(ctx context.Context) error {
	cfg := a.cfg
	logger := a.logger

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.HTTP.Address()),
		slog.String("storage_backend", cfg.Storage.Backend),
		slog.String("storage_path", cfg.Storage.Path),
		slog.String("generator", cfg.Generator.Provider),
		slog.Int("sources", len(cfg.Sources.Paths)))

	importer := source.NewImporter(a.lib, cfg.Sources.ReposDir, logger)
	srv := web.NewServer(a.lib, newGenerator(cfg.Generator, logger), importer, logger)
	httpServer := &http.Server{
		Addr:              cfg.HTTP.Address(),
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	if cfg.Sources.Watch && len(cfg.Sources.Paths) > 0 {
		sources := make([]source.Source, len(cfg.Sources.Paths))
		for i, p := range cfg.Sources.Paths {
			sources[i] = source.Source{DeckID: p.Deck, Path: p.Path}
		}
		g.Go(func() error {
			return source.Watch(gCtx, importer, sources, cfg.Sources.Debounce, logger, nil)
		})
	}

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

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

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		return err
	}
	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the watcher stops with the server.
var errShutdown = errors.New("shutdown")
