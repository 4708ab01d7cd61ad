// Embytrakt - Emby to Trakt Playback Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/embytrakt

package trakt

import (
	"strings"
	"sync"
)

// TokenSink receives the token pair every time it changes.
// config.EnvFileTokenStore persists it so a restart keeps the refreshed pair.
type TokenSink interface {
	SaveTokens(accessToken, refreshToken string) error
}

// Credentials holds the single Trakt credential set of the process.
// Client id and secret are fixed at construction; the token pair is replaced
// atomically on refresh. It performs no I/O itself.
type Credentials struct {
	clientID     string
	clientSecret string

	mu           sync.RWMutex
	accessToken  string
	refreshToken string

	sink TokenSink
}

// NewCredentials creates a credential store. sink may be nil.
func NewCredentials(clientID, clientSecret, accessToken, refreshToken string, sink TokenSink) *Credentials {
	return &Credentials{
		clientID:     strings.TrimSpace(clientID),
		clientSecret: strings.TrimSpace(clientSecret),
		accessToken:  strings.TrimSpace(accessToken),
		refreshToken: strings.TrimSpace(refreshToken),
		sink:         sink,
	}
}

// ClientID returns the Trakt application client id (sent as trakt-api-key).
func (c *Credentials) ClientID() string {
	return c.clientID
}

// ClientSecret returns the Trakt application client secret.
func (c *Credentials) ClientSecret() string {
	return c.clientSecret
}

// HasClient reports whether client id and secret are present.
func (c *Credentials) HasClient() bool {
	return c.clientID != "" && c.clientSecret != ""
}

// IsConfigured reports whether client id, secret and an access token are all present.
func (c *Credentials) IsConfigured() bool {
	if !c.HasClient() {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken != ""
}

// AccessToken returns the current access token, or ErrNotConfigured.
func (c *Credentials) AccessToken() (string, error) {
	if !c.HasClient() {
		return "", ErrNotConfigured
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.accessToken == "" {
		return "", ErrNotConfigured
	}
	return c.accessToken, nil
}

// RefreshToken returns the current refresh token, possibly "".
func (c *Credentials) RefreshToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.refreshToken
}

// ReplaceTokens swaps the token pair. An empty refresh token keeps the
// previous one. The sink is notified after the swap, outside the lock; a sink
// failure is returned but the in-memory pair stays replaced.
func (c *Credentials) ReplaceTokens(accessToken, refreshToken string) error {
	c.mu.Lock()
	c.accessToken = strings.TrimSpace(accessToken)
	if rt := strings.TrimSpace(refreshToken); rt != "" {
		c.refreshToken = rt
	}
	access, refresh := c.accessToken, c.refreshToken
	c.mu.Unlock()

	if c.sink == nil {
		return nil
	}
	return c.sink.SaveTokens(access, refresh)
}
