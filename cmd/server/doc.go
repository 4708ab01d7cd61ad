// Embytrakt - Emby to Trakt Playback Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/embytrakt

/*
Package main is the entry point for the Embytrakt server.

Embytrakt receives Emby playback webhooks and mirrors them into a Trakt
account: scrobbles for start, pause and stop, watched history past a
progress threshold, ratings for favorites, and best-effort collection sync.

# Application Architecture

	RootSupervisor ("embytrakt")
	├── TraktSupervisor ("trakt-layer")
	│   └── TokenCheckService (periodic token verification and refresh)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService (webhook, health, refresh-token, metrics)

Component initialization order:

 1. Configuration: Koanf v2 with config file, dotenv file and environment
 2. Logging: zerolog with secret redaction
 3. Credential store: token pair persisted back to the dotenv file
 4. Trakt transport: rate limiter, circuit breaker and token refresh
 5. Sync engine: event routing over the resolver and sync client
 6. HTTP server: Chi router with request ID, metrics and rate limiting
 7. Supervisor tree: Suture v4 process supervision

# Configuration

	Priority: Environment variables > dotenv file > Config file > Defaults

	TRAKT_CLIENT_ID=<id>           # OAuth application
	TRAKT_CLIENT_SECRET=<secret>
	TRAKT_ACCESS_TOKEN=<token>     # rewritten in ENV_FILE on refresh
	TRAKT_REFRESH_TOKEN=<token>
	TRAKT_WATCHED_THRESHOLD=80     # percent
	WEBHOOK_SECRET=<secret>        # optional, checked on /webhook
	PORT=5000
	LOG_LEVEL=info
	LOG_FORMAT=json

Without Trakt credentials the server still starts and answers every webhook
with status "skipped".

# Signal Handling

SIGINT and SIGTERM cancel the supervisor tree. The HTTP server stops
accepting connections and in-flight webhooks get SHUTDOWN_TIMEOUT to finish.

# Example Usage

	export TRAKT_CLIENT_ID=...
	export TRAKT_CLIENT_SECRET=...
	export TRAKT_ACCESS_TOKEN=...
	export TRAKT_REFRESH_TOKEN=...
	./embytrakt

In Emby, add a webhook pointing at http://<host>:5000/webhook with the
playback, user data and item events enabled.
*/
package main
