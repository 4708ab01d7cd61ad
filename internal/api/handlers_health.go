// Embytrakt - Emby to Trakt Playback Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/embytrakt

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/tomtom215/embytrakt/internal/logging"
	"github.com/tomtom215/embytrakt/internal/models"
	"github.com/tomtom215/embytrakt/internal/trakt"
)

// Health reports whether the service can reach Trakt with a valid token.
// GET /health
//
// Returns 200 when the token check succeeds and 503 otherwise, so container
// health checks fail while Trakt sync is not working.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.HealthTimeout)
	defer cancel()

	_, err := h.trakt.CheckToken(ctx)
	valid := err == nil

	health := models.HealthStatus{
		Status:          "healthy",
		Service:         ServiceName,
		Version:         h.cfg.Version,
		TraktConfigured: h.creds.HasClient(),
		TraktTokenValid: valid,
		CircuitBreaker:  h.trakt.BreakerState(),
		Uptime:          time.Since(h.startTime).Seconds(),
		Timestamp:       time.Now().UTC(),
	}

	if valid {
		respondSuccess(w, r, http.StatusOK, models.StatusSuccess, health)
		return
	}

	health.Status = "unhealthy"
	code, message := healthFailure(err)
	logging.Ctx(r.Context()).Warn().Str("code", code).Msg("Health check failed")
	respondJSON(w, http.StatusServiceUnavailable, &models.APIResponse{
		Status:   models.StatusError,
		Data:     health,
		Metadata: newMetadata(r),
		Error:    &models.APIError{Code: code, Message: message},
	})
}

// healthFailure describes a failed token check without leaking token values.
func healthFailure(err error) (code, message string) {
	switch {
	case errors.Is(err, trakt.ErrNotConfigured):
		return "NOT_CONFIGURED", "Trakt not configured"
	case errors.Is(err, trakt.ErrAuthExpired):
		return "AUTH_EXPIRED", "Trakt authorization expired, re-authorization required"
	case errors.Is(err, trakt.ErrTransient):
		return "TRANSIENT_ERROR", "Trakt temporarily unavailable"
	default:
		return "REMOTE_REJECTED", logging.Redact(err.Error())
	}
}

// RefreshToken forces a Trakt OAuth token refresh.
// GET|POST /refresh-token
func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	if !h.creds.HasClient() {
		respondError(w, r, http.StatusServiceUnavailable, "NOT_CONFIGURED",
			"Trakt not configured (missing client_id/client_secret)", nil)
		return
	}

	logging.Ctx(r.Context()).Info().Msg("Manual token refresh requested")
	if err := h.trakt.Refresh(r.Context()); err != nil {
		respondError(w, r, http.StatusInternalServerError, "TOKEN_REFRESH_FAILED", "Could not refresh token", err)
		return
	}

	respondSuccess(w, r, http.StatusOK, models.StatusSuccess, models.TokenRefreshResult{
		Message:   "Token refreshed successfully",
		Refreshed: true,
		Timestamp: time.Now().UTC(),
	})
}

// Index describes the service and its endpoints.
// GET /
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	status := "running"
	if !h.creds.IsConfigured() {
		status = "degraded"
	}
	respondSuccess(w, r, http.StatusOK, models.StatusSuccess, models.ServiceInfo{
		Service:         ServiceName,
		Version:         h.cfg.Version,
		Status:          status,
		TraktConfigured: h.creds.HasClient(),
		SupportedEvents: models.SupportedEmbyEvents(),
		Endpoints: map[string]string{
			"webhook":       "POST /webhook or /",
			"health":        "GET /health",
			"refresh_token": "GET/POST /refresh-token",
			"metrics":       "GET /metrics",
		},
	})
}
