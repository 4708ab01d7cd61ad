// Embytrakt - Emby to Trakt Playback Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/embytrakt

/*
Package config provides configuration loading and token persistence for Embytrakt.

# Configuration Sources

Load layers four sources, later ones overriding earlier ones:

 1. Built-in defaults
 2. YAML config file (CONFIG_PATH, ./config.yaml, /etc/embytrakt/config.yaml)
 3. Dotenv credential file (ENV_FILE, default ./config.env)
 4. Process environment variables

# Environment Variables

Trakt (TraktConfig):
  - TRAKT_CLIENT_ID, TRAKT_CLIENT_SECRET: OAuth application credentials
  - TRAKT_ACCESS_TOKEN, TRAKT_REFRESH_TOKEN: user token pair
  - TRAKT_BASE_URL: API base URL (default: https://api.trakt.tv)
  - TRAKT_TIMEOUT: per-request timeout (default: 30s)
  - TRAKT_MIN_WRITE_INTERVAL: spacing between mutating calls (default: 1s)
  - TRAKT_WATCHED_THRESHOLD: percent played that counts as watched (default: 80)
  - TRAKT_RETRY_ATTEMPTS, TRAKT_RETRY_BACKOFF, TRAKT_MAX_RETRY_DELAY
  - TRAKT_SYNC_COLLECTION: mirror watched items into the collection (default: true)

HTTP Server (ServerConfig):
  - HOST: bind address (default: 0.0.0.0)
  - PORT: listen port (default: 5000)
  - HTTP_TIMEOUT, SHUTDOWN_TIMEOUT

Webhook and rate limiting:
  - WEBHOOK_SECRET: shared secret, empty disables the check
  - WEBHOOK_MAX_BODY_BYTES (default: 1MB)
  - RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW, DISABLE_RATE_LIMIT

Logging:
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER, LOG_REDACT

# Token Persistence

EnvFileTokenStore writes refreshed tokens back into the dotenv file so a
restart picks up the latest pair. Other lines in the file are left as they are.
*/
package config
