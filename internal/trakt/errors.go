// Embytrakt - Emby to Trakt Playback Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/embytrakt

package trakt

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors returned by the credential store, transport and resolver.
// Callers compare with errors.Is; messages never contain token values.
var (
	// ErrNotConfigured means client credentials or the access token are missing.
	ErrNotConfigured = errors.New("trakt not configured")

	// ErrAuthExpired means Trakt rejected the token and a refresh did not fix it.
	ErrAuthExpired = errors.New("trakt authorization expired")

	// ErrTransient covers connection failures, 5xx, 429 and an open circuit breaker.
	ErrTransient = errors.New("trakt temporarily unavailable")

	// ErrRemoteRejected covers non-retryable 4xx responses other than 401.
	ErrRemoteRejected = errors.New("trakt rejected request")

	// ErrNotFound means neither external ids nor title search produced a match.
	ErrNotFound = errors.New("media not found on trakt")
)

// TransientError describes a retryable failure. It matches ErrTransient.
type TransientError struct {
	Op         string
	StatusCode int           // 0 for connection errors
	RetryAfter time.Duration // from the Retry-After header of a 429, if any
	Err        error
}

func (e *TransientError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: trakt returned status %d", e.Op, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return e.Op + ": " + ErrTransient.Error()
	}
}

// Is reports whether target is ErrTransient.
func (e *TransientError) Is(target error) bool {
	return target == ErrTransient
}

// Unwrap returns the underlying cause.
func (e *TransientError) Unwrap() error {
	return e.Err
}

// StatusError is an unexpected non-retryable HTTP status. It matches ErrRemoteRejected.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: trakt returned status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: trakt returned status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// Is reports whether target is ErrRemoteRejected.
func (e *StatusError) Is(target error) bool {
	return target == ErrRemoteRejected
}

// RetryAfter extracts the server-requested delay from err, or 0.
func RetryAfter(err error) time.Duration {
	var te *TransientError
	if errors.As(err, &te) {
		return te.RetryAfter
	}
	return 0
}
