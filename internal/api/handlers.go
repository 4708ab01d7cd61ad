// Embytrakt - Emby to Trakt Playback Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/embytrakt

package api

import (
	"context"
	"time"

	"github.com/tomtom215/embytrakt/internal/models"
	"github.com/tomtom215/embytrakt/internal/sync"
	"github.com/tomtom215/embytrakt/internal/trakt"
)

// ServiceName is reported by the index and health endpoints.
const ServiceName = "Emby to Trakt Webhook"

// EventProcessor applies a normalized playback event. Implemented by *sync.Engine.
type EventProcessor interface {
	ProcessEvent(ctx context.Context, event models.PlaybackEvent) sync.Outcome
}

// TraktService is the subset of the Trakt transport used by the token and
// health endpoints. Implemented by *trakt.Transport.
type TraktService interface {
	Refresh(ctx context.Context) error
	CheckToken(ctx context.Context) (*trakt.UserSettings, error)
	BreakerState() string
}

// CredentialState reports which Trakt credentials are present.
// Implemented by *trakt.Credentials.
type CredentialState interface {
	HasClient() bool
	IsConfigured() bool
}

// HandlerConfig holds settings for the HTTP handlers.
type HandlerConfig struct {
	Version string

	// WebhookSecret, when non-empty, must accompany every webhook request.
	WebhookSecret string

	// MaxBodyBytes bounds webhook request bodies.
	MaxBodyBytes int64

	// HealthTimeout bounds the Trakt token check in /health.
	HealthTimeout time.Duration
}

// Handler serves the webhook, token refresh, health and index endpoints.
type Handler struct {
	cfg       HandlerConfig
	engine    EventProcessor
	trakt     TraktService
	creds     CredentialState
	startTime time.Time
}

// NewHandler creates a new API handler with all required dependencies.
func NewHandler(cfg HandlerConfig, engine EventProcessor, traktSvc TraktService, creds CredentialState) *Handler {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	if cfg.HealthTimeout <= 0 {
		cfg.HealthTimeout = 10 * time.Second
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	return &Handler{
		cfg:       cfg,
		engine:    engine,
		trakt:     traktSvc,
		creds:     creds,
		startTime: time.Now(),
	}
}
