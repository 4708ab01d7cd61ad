// Embytrakt - Emby to Trakt Playback Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/embytrakt

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Webhook Metrics
	WebhookEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Total number of webhook deliveries by normalized event and media kind",
		},
		[]string{"event", "media_kind"},
	)

	WebhookRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_rejected_total",
			Help: "Total number of webhook deliveries rejected before processing",
		},
		[]string{"reason"}, // "decode", "validation", "unauthorized", "unsupported"
	)

	// Sync Engine Metrics
	SyncOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_outcomes_total",
			Help: "Total number of processed events by outcome",
		},
		[]string{"outcome", "kind"}, // outcome: "applied", "ignored", "failed"
	)

	SyncDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sync_duration_seconds",
			Help:    "Duration of event processing including Trakt calls",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"action"},
	)

	SyncRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sync_transient_retries_total",
			Help: "Total number of retries after transient Trakt failures",
		},
	)

	// Trakt API Metrics
	TraktRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trakt_requests_total",
			Help: "Total number of requests sent to the Trakt API",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	TraktRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trakt_request_duration_seconds",
			Help:    "Trakt API request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method"},
	)

	TraktRateLimitWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "trakt_rate_limit_wait_seconds",
			Help:    "Time mutating calls spent waiting for the outbound write limiter",
			Buckets: []float64{0, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
	)

	TraktTokenRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trakt_token_refreshes_total",
			Help: "Total number of OAuth token refresh exchanges",
		},
		[]string{"result"}, // "success", "failure"
	)

	TraktResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trakt_resolutions_total",
			Help: "Total number of media identity resolutions",
		},
		[]string{"result"}, // "externalId", "titleSearch", "not_found", "error"
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordWebhookEvent counts an accepted webhook delivery
func RecordWebhookEvent(event, mediaKind string) {
	WebhookEventsTotal.WithLabelValues(event, mediaKind).Inc()
}

// RecordWebhookRejected counts a webhook delivery rejected before processing
func RecordWebhookRejected(reason string) {
	WebhookRejected.WithLabelValues(reason).Inc()
}

// RecordSyncOutcome records the outcome of one processed event.
// kind is the failure kind, or "" for applied and ignored outcomes.
func RecordSyncOutcome(action, outcome, kind string, duration time.Duration) {
	if kind == "" {
		kind = "none"
	}
	SyncOutcomesTotal.WithLabelValues(outcome, kind).Inc()
	SyncDuration.WithLabelValues(action).Observe(duration.Seconds())
}

// RecordSyncRetry counts a retry after a transient failure
func RecordSyncRetry() {
	SyncRetries.Inc()
}

// RecordTraktRequest records one HTTP exchange with Trakt.
// statusCode 0 means the request never produced a response.
func RecordTraktRequest(method, endpoint string, statusCode int, duration time.Duration) {
	code := "error"
	if statusCode > 0 {
		code = strconv.Itoa(statusCode)
	}
	TraktRequestsTotal.WithLabelValues(method, endpoint, code).Inc()
	TraktRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordRateLimitWait records time spent waiting on the write limiter
func RecordRateLimitWait(wait time.Duration) {
	TraktRateLimitWait.Observe(wait.Seconds())
}

// RecordTokenRefresh records a token refresh exchange
func RecordTokenRefresh(success bool) {
	if success {
		TraktTokenRefreshes.WithLabelValues("success").Inc()
	} else {
		TraktTokenRefreshes.WithLabelValues("failure").Inc()
	}
}

// RecordResolution records how a media identity resolution ended
func RecordResolution(result string) {
	TraktResolutions.WithLabelValues(result).Inc()
}
