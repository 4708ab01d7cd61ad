// Embytrakt - Emby to Trakt Playback Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/embytrakt

/*
Package middleware provides HTTP middleware components for the application.

Key Components:

  - RequestID: request id and correlation id for every request, taken from
    X-Request-ID when an upstream proxy supplies a sane one
  - PrometheusMetrics: request count, duration and in-flight gauge, labelled
    by chi route pattern

Both are plain func(http.Handler) http.Handler and plug into chi's r.Use:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
*/
package middleware
