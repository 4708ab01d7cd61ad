// Embytrakt - Emby to Trakt Playback Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/embytrakt

package models

import (
	"time"
)

// Response status values.
const (
	StatusSuccess = "success"
	StatusIgnored = "ignored"
	StatusSkipped = "skipped"
	StatusError   = "error"
)

// APIResponse represents a standardized API response wrapper used by all HTTP endpoints.
//
// Status field values:
//   - "success": Request completed and a Trakt mutation was applied
//   - "ignored": Event understood but no mutation applies
//   - "skipped": Trakt is not configured, nothing was attempted
//   - "error": Request failed, see Error field for details
//
// Example successful response:
//
//	{
//	  "status": "success",
//	  "data": {"message": "Breaking Bad S01E01", "event": "stop", "media_kind": "episode"},
//	  "metadata": {"timestamp": "2026-01-10T12:00:00Z", "query_time_ms": 412}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata for observability.
// QueryTimeMS is the wall time spent handling the request, including Trakt calls.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	RequestID   string    `json:"request_id,omitempty"`
}

// APIError represents an error response with structured error details.
//
// Common error codes:
//   - VALIDATION_ERROR: Invalid or unparseable webhook payload
//   - UNAUTHORIZED: Webhook secret missing or wrong
//   - NOT_FOUND: Media could not be resolved on Trakt
//   - AUTH_EXPIRED: Trakt rejected the token and refresh failed
//   - TRANSIENT_ERROR: Trakt unreachable, rate limited or failing
//   - REMOTE_REJECTED: Trakt rejected the request
//   - NOT_CONFIGURED: Trakt client credentials missing
//   - RATE_LIMIT_EXCEEDED: Too many inbound requests
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// WebhookResult is the data payload returned for a processed webhook.
type WebhookResult struct {
	Message   string    `json:"message"`
	Event     EventType `json:"event,omitempty"`
	MediaKind MediaKind `json:"media_kind,omitempty"`
	Media     string    `json:"media,omitempty"`
}

// HealthStatus is the data payload of the health endpoint.
type HealthStatus struct {
	Status          string    `json:"status"` // "healthy" or "unhealthy"
	Service         string    `json:"service"`
	Version         string    `json:"version"`
	TraktConfigured bool      `json:"trakt_configured"`
	TraktTokenValid bool      `json:"trakt_token_valid"`
	CircuitBreaker  string    `json:"circuit_breaker,omitempty"`
	Uptime          float64   `json:"uptime_seconds"`
	Timestamp       time.Time `json:"timestamp"`
}

// ServiceInfo is the data payload of the index endpoint.
type ServiceInfo struct {
	Service         string            `json:"service"`
	Version         string            `json:"version"`
	Status          string            `json:"status"`
	TraktConfigured bool              `json:"trakt_configured"`
	SupportedEvents []string          `json:"supported_events"`
	Endpoints       map[string]string `json:"endpoints"`
}

// TokenRefreshResult is the data payload of the manual token refresh endpoint.
// Token values are never included.
type TokenRefreshResult struct {
	Message   string    `json:"message"`
	Refreshed bool      `json:"refreshed"`
	Timestamp time.Time `json:"timestamp"`
}
