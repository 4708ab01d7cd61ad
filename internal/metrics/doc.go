// Embytrakt - Emby to Trakt Playback Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/embytrakt

/*
Package metrics provides Prometheus metrics collection and export for observability.

Metrics are registered with the default registry through promauto and exposed
at the /metrics endpoint in Prometheus text format:

	curl http://localhost:5000/metrics

# Available Metrics

HTTP Metrics:
  - api_requests_total: Total HTTP requests (labels: method, endpoint, status_code)
  - api_request_duration_seconds: Request latency histogram
  - api_active_requests: Requests currently in flight
  - api_rate_limit_hits_total: Inbound requests rejected by the per-IP limiter

Webhook and Sync Metrics:
  - webhook_events_total: Deliveries by normalized event and media kind
  - webhook_rejected_total: Deliveries rejected before reaching the sync engine
  - sync_outcomes_total: Applied / ignored / failed outcomes by failure kind
  - sync_duration_seconds: Event processing time by action
  - sync_transient_retries_total: Retries after transient Trakt failures

Trakt Metrics:
  - trakt_requests_total: Outbound requests by method, endpoint and status
  - trakt_request_duration_seconds: Outbound latency histogram
  - trakt_rate_limit_wait_seconds: Time spent waiting on the write limiter
  - trakt_token_refreshes_total: OAuth refresh exchanges by result
  - trakt_resolutions_total: Identity resolutions by strategy or failure

Circuit Breaker Metrics:
  - circuit_breaker_state: 0=closed, 1=half-open, 2=open
  - circuit_breaker_requests_total: success / failure / rejected
  - circuit_breaker_consecutive_failures
  - circuit_breaker_state_transitions_total

# Example Queries

Failed syncs per minute:

	sum(rate(sync_outcomes_total{outcome="failed"}[1m])) by (kind)

Token refresh failures:

	increase(trakt_token_refreshes_total{result="failure"}[1h])
*/
package metrics
