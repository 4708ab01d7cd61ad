// Embytrakt - Emby to Trakt Playback Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/embytrakt

// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is shared process-wide; it caches struct
// metadata and carries the struct-level rule for playback events (episodes
// must carry season and episode numbers). Failures convert to the API error
// envelope with code VALIDATION_ERROR.
//
// Example usage:
//
//	if err := validation.ValidatePlaybackEvent(&event); err != nil {
//	    // reject the event with 400
//	}
package validation
