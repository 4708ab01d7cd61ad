// Embytrakt - Emby to Trakt Playback Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/embytrakt

/*
Package trakt talks to the Trakt API on behalf of a single user.

Components:

  - Credentials: client id/secret plus the mutable OAuth token pair
  - Transport: the only path to the network; spaces mutating calls through a
    shared rate.Limiter, refreshes the token once per 401 behind a
    singleflight group, classifies failures and wraps every exchange in a
    gobreaker circuit breaker
  - Resolver: maps a local media identity to a Trakt show or movie, external
    ids first (tvdb, tmdb, imdb), title search second
  - Client: history, favorites and collection sync calls

Errors:

All failures are sentinel-comparable with errors.Is: ErrNotConfigured,
ErrAuthExpired, ErrTransient (*TransientError), ErrRemoteRejected
(*StatusError) and ErrNotFound. Token values never appear in error messages.

Concurrency:

Transport, Resolver and Client are safe for concurrent use. Reads run in
parallel; mutating calls are serialized by the write limiter.
*/
package trakt
