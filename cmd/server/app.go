// Embytrakt - Emby to Trakt Playback Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/embytrakt

package main

import (
	"net/http"
	"time"

	"github.com/tomtom215/embytrakt/internal/api"
	"github.com/tomtom215/embytrakt/internal/config"
	"github.com/tomtom215/embytrakt/internal/sync"
	"github.com/tomtom215/embytrakt/internal/trakt"
)

// app holds the wired components of a running server.
type app struct {
	creds     *trakt.Credentials
	transport *trakt.Transport
	engine    *sync.Engine
	server    *http.Server
}

// newApp wires the credential store, Trakt transport, sync engine and HTTP
// server from cfg. Nothing is started.
func newApp(cfg *config.Config, version string) *app {
	store := config.NewEnvFileTokenStore(cfg.EnvFile)
	creds := trakt.NewCredentials(
		cfg.Trakt.ClientID,
		cfg.Trakt.ClientSecret,
		cfg.Trakt.AccessToken,
		cfg.Trakt.RefreshToken,
		store,
	)

	transport := trakt.NewTransport(trakt.TransportConfig{
		BaseURL:          cfg.Trakt.BaseURL,
		Timeout:          cfg.Trakt.Timeout,
		MinWriteInterval: cfg.Trakt.MinWriteInterval,
	}, creds)

	engine := sync.NewEngine(sync.Config{
		WatchedThreshold: cfg.Trakt.WatchedThreshold,
		RetryAttempts:    cfg.Trakt.RetryAttempts,
		RetryBackoff:     cfg.Trakt.RetryBackoff,
		MaxRetryDelay:    cfg.Trakt.MaxRetryDelay,
		SyncCollection:   cfg.Trakt.SyncCollection,
	}, creds, trakt.NewResolver(transport), trakt.NewClient(transport))

	handler := api.NewHandler(api.HandlerConfig{
		Version:       version,
		WebhookSecret: cfg.Webhook.Secret,
		MaxBodyBytes:  cfg.Webhook.MaxBodyBytes,
		HealthTimeout: cfg.Trakt.Timeout,
	}, engine, transport, creds)

	middleware := api.NewChiMiddleware(&api.ChiMiddlewareConfig{
		RateLimitRequests: cfg.Security.RateLimitReqs,
		RateLimitWindow:   cfg.Security.RateLimitWindow,
		RateLimitDisabled: cfg.Security.RateLimitDisabled,
	})

	// The write timeout has to cover a webhook that waits on retries and
	// the shared write limiter.
	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           api.NewRouter(handler, middleware).SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout + cfg.Trakt.MaxRetryDelay,
		IdleTimeout:       60 * time.Second,
	}

	return &app{
		creds:     creds,
		transport: transport,
		engine:    engine,
		server:    server,
	}
}
