// Embytrakt - Emby to Trakt Playback Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/embytrakt

// Package logging provides centralized zerolog-based logging for embytrakt.
//
// A single global logger is configured once at startup and shared by every
// package. Output is JSON by default, console for local use, and every line
// passes through a redacting writer that scrubs bearer tokens, Trakt API
// keys and OAuth secrets.
//
// # Quick Start
//
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	    Redact: true,
//	})
//
//	logging.Info().Msg("Server starting")
//	logging.Error().Err(err).Msg("Token refresh failed")
//
//	// With context (request and correlation IDs)
//	logging.Ctx(ctx).Info().Str("media", "Inception (2010)").Msg("Marked as watched")
//
// # Configuration
//
// Environment Variables:
//   - LOG_LEVEL: debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: true/false - include caller info (default: false)
//
// # slog interop
//
// NewSlogLogger returns a *slog.Logger backed by the same zerolog output,
// used by the suture supervisor tree through sutureslog.
package logging
