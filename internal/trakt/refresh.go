// Embytrakt - Emby to Trakt Playback Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/embytrakt

package trakt

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tomtom215/embytrakt/internal/logging"
	"github.com/tomtom215/embytrakt/internal/metrics"
)

const (
	// oobRedirectURI is the redirect URI registered for device/PIN apps.
	oobRedirectURI = "urn:ietf:wg:oauth:2.0:oob"

	refreshKey = "trakt-token-refresh"
)

// refreshStale refreshes the token pair unless another caller already
// replaced the stale token, and returns the token to retry with.
func (t *Transport) refreshStale(ctx context.Context, stale string) (string, error) {
	if current, err := t.creds.AccessToken(); err == nil && current != stale {
		return current, nil
	}
	return t.refreshShared(ctx, stale)
}

// Refresh forces a token refresh exchange. Used by the manual refresh endpoint.
func (t *Transport) Refresh(ctx context.Context) error {
	if !t.creds.HasClient() {
		return ErrNotConfigured
	}
	current, _ := t.creds.AccessToken()
	_, err := t.refreshShared(ctx, current)
	return err
}

// refreshShared runs the exchange through the singleflight group so that at
// most one refresh is in flight per process. Callers arriving while one runs
// share its result.
func (t *Transport) refreshShared(ctx context.Context, stale string) (string, error) {
	// Detached: the exchange outlives whichever caller started it.
	detached := context.WithoutCancel(ctx)

	v, err, shared := t.refreshGroup.Do(refreshKey, func() (interface{}, error) {
		if current, err := t.creds.AccessToken(); err == nil && current != stale {
			return current, nil
		}
		return t.exchangeRefreshToken(detached)
	})
	if shared {
		logging.Ctx(ctx).Debug().Msg("Joined in-flight Trakt token refresh")
	}
	if err != nil {
		return "", err
	}
	token, _ := v.(string)
	return token, nil
}

// exchangeRefreshToken performs POST /oauth/token with the refresh grant and
// stores the new pair. It bypasses the write limiter and the breaker.
func (t *Transport) exchangeRefreshToken(ctx context.Context) (string, error) {
	log := logging.Ctx(ctx)

	if !t.creds.HasClient() {
		return "", ErrNotConfigured
	}
	refreshToken := t.creds.RefreshToken()
	if refreshToken == "" {
		log.Error().Msg("No Trakt refresh token available")
		metrics.RecordTokenRefresh(false)
		return "", fmt.Errorf("no refresh token: %w", ErrAuthExpired)
	}

	req := Request{
		Method: http.MethodPost,
		Path:   "/oauth/token",
		Body: tokenRequest{
			RefreshToken: refreshToken,
			ClientID:     t.creds.ClientID(),
			ClientSecret: t.creds.ClientSecret(),
			RedirectURI:  oobRedirectURI,
			GrantType:    "refresh_token",
		},
	}

	resp, err := t.send(ctx, req, "")
	if err != nil {
		metrics.RecordTokenRefresh(false)
		log.Error().Err(err).Msg("Trakt token refresh request failed")
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		metrics.RecordTokenRefresh(false)
		log.Error().Int("status", resp.StatusCode).Msg("Trakt token refresh rejected")
		if isTransientStatus(resp.StatusCode) {
			return "", &TransientError{Op: "token refresh", StatusCode: resp.StatusCode}
		}
		return "", fmt.Errorf("token refresh returned status %d: %w", resp.StatusCode, ErrAuthExpired)
	}

	var token Token
	if err := resp.Decode(&token); err != nil {
		metrics.RecordTokenRefresh(false)
		return "", fmt.Errorf("token refresh: %w: %w", err, ErrAuthExpired)
	}
	if token.AccessToken == "" {
		metrics.RecordTokenRefresh(false)
		return "", fmt.Errorf("token refresh returned no access token: %w", ErrAuthExpired)
	}

	if err := t.creds.ReplaceTokens(token.AccessToken, token.RefreshToken); err != nil {
		// The new pair is live in memory; only persistence failed.
		log.Error().Err(err).Msg("Failed to persist refreshed Trakt tokens")
	}

	metrics.RecordTokenRefresh(true)
	log.Info().Int("expires_in", token.ExpiresIn).Msg("Trakt access token refreshed")
	return token.AccessToken, nil
}
