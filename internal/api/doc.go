// Embytrakt - Emby to Trakt Playback Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/embytrakt

/*
Package api provides the HTTP surface of Embytrakt.

Endpoints:

  - POST /webhook, POST /: Emby webhook notifications
  - GET|POST /refresh-token: force a Trakt OAuth token refresh
  - GET /health: Trakt token check, 503 when sync cannot work
  - GET /: service information and supported events
  - GET /metrics: Prometheus metrics

Every JSON response uses the models.APIResponse envelope. The webhook
endpoint answers 200 for events that were applied, ignored, or skipped
because Trakt is not configured, so Emby does not keep retrying
notifications the service will never act on.

Middleware (in order): request id and correlation id, chi RealIP and
Recoverer, Prometheus instrumentation, security headers, and a per-IP
httprate limit on the webhook and token endpoints. An optional shared
secret protects the webhook, passed as the X-Webhook-Secret header or the
"secret" query parameter.
*/
package api
