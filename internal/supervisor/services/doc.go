// Embytrakt - Emby to Trakt Playback Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/embytrakt

// Package services adapts long-running components to suture.Service.
//
// HTTPServerService runs the webhook HTTP server with graceful shutdown.
// TokenCheckService verifies (and through the transport, refreshes) the
// Trakt token on a fixed interval.
package services
