// Embytrakt - Emby to Trakt Playback Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/embytrakt

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/embytrakt/internal/config"
	"github.com/tomtom215/embytrakt/internal/logging"
	"github.com/tomtom215/embytrakt/internal/supervisor"
	"github.com/tomtom215/embytrakt/internal/supervisor/services"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Redact:    cfg.Logging.Redact,
		Output:    os.Stderr,
	})

	logging.Info().Str("version", version).Msg("Starting Embytrakt with supervisor tree")
	for _, warning := range cfg.Warnings() {
		logging.Warn().Msg(warning)
	}

	app := newApp(cfg, version)
	if !app.creds.IsConfigured() {
		logging.Warn().Msg("Trakt sync disabled until client credentials and an access token are configured")
	}
	logging.Info().
		Str("env_file", cfg.EnvFile).
		Float64("watched_threshold", cfg.Trakt.WatchedThreshold).
		Bool("sync_collection", cfg.Trakt.SyncCollection).
		Bool("webhook_secret", cfg.Webhook.Secret != "").
		Msg("Configuration loaded")

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddTraktService(services.NewTokenCheckService(app.transport, cfg.Trakt.TokenCheckInterval))
	tree.AddAPIService(services.NewHTTPServerService(app.server, app.server.Addr, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", app.server.Addr).Msg("HTTP server service added")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	var serveErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received, waiting for supervisor to finish...")
		serveErr = <-errCh
	case serveErr = <-errCh:
	}
	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		logging.Error().Err(serveErr).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}
