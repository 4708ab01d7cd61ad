// Embytrakt - Emby to Trakt Playback Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/embytrakt

/*
Package models defines data structures for the embytrakt application.

This package holds the normalized playback event consumed by the sync engine,
the Emby webhook payload it is decoded from, the identity types shared by the
Trakt resolver, and the standardized HTTP response envelope.

Key Components:

  - PlaybackEvent: Normalized, validated representation of one webhook delivery
  - MediaIdentity: Local description of a movie or episode (title, year, ids)
  - RemoteReference: Trakt identity produced by the resolver
  - EmbyWebhook: Raw webhook payload sent by the Emby webhooks plugin
  - APIResponse: Standardized API response wrapper

Lifecycle:

PlaybackEvent values are built fresh per inbound call from untrusted payload
fields and discarded once the sync engine returns an outcome. Nothing in this
package is persisted.
*/
package models
