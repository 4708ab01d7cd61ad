// Embytrakt - Emby to Trakt Playback Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/embytrakt

package services

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/embytrakt/internal/logging"
	"github.com/tomtom215/embytrakt/internal/trakt"
)

// TokenChecker verifies the Trakt access token. Implemented by *trakt.Transport.
type TokenChecker interface {
	CheckToken(ctx context.Context) (*trakt.UserSettings, error)
}

// TokenCheckService verifies the Trakt token at startup and then on a fixed
// interval. A rejected token goes through the transport's refresh path, so
// an expiring token is renewed and persisted before a webhook needs it.
//
// Failures are logged, never returned: an unreachable Trakt must not make
// the supervisor restart the service in a tight loop.
type TokenCheckService struct {
	checker  TokenChecker
	interval time.Duration
	timeout  time.Duration
	name     string
}

// NewTokenCheckService creates a token check service.
// A non-positive interval falls back to 6 hours.
func NewTokenCheckService(checker TokenChecker, interval time.Duration) *TokenCheckService {
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	return &TokenCheckService{
		checker:  checker,
		interval: interval,
		timeout:  30 * time.Second,
		name:     "trakt-token-check",
	}
}

// Serve implements suture.Service.
func (s *TokenCheckService) Serve(ctx context.Context) error {
	s.check(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.check(ctx)
		}
	}
}

// check runs one token verification and logs the result.
func (s *TokenCheckService) check(ctx context.Context) {
	log := logging.WithComponent(s.name)

	checkCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	settings, err := s.checker.CheckToken(checkCtx)
	switch {
	case err == nil:
		log.Info().Str("user", settings.User.Username).Msg("Trakt token valid")
	case errors.Is(err, trakt.ErrNotConfigured):
		log.Warn().Msg("Trakt not configured, sync disabled")
	case errors.Is(err, trakt.ErrAuthExpired):
		log.Error().Msg("Trakt authorization expired, re-authorization required")
	default:
		log.Warn().Err(err).Msg("Trakt token check failed")
	}
}

// String implements fmt.Stringer for logging.
func (s *TokenCheckService) String() string {
	return s.name
}
