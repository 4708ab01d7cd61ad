// Embytrakt - Emby to Trakt Playback Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/embytrakt

package config

import (
	"net"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
//
// Thread Safety:
// Config is immutable after Load() and safe for concurrent read access from multiple goroutines.
// The Trakt token pair changes at runtime; the live values are owned by the
// credential store, and Config only carries the startup values.
type Config struct {
	Trakt    TraktConfig    `koanf:"trakt"`
	Server   ServerConfig   `koanf:"server"`
	Webhook  WebhookConfig  `koanf:"webhook"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`

	// EnvFile is the dotenv credential file. Refreshed tokens are written back to it.
	EnvFile string `koanf:"env_file"`
}

// TraktConfig holds Trakt API credentials and sync behavior.
//
// Environment Variables:
//   - TRAKT_CLIENT_ID, TRAKT_CLIENT_SECRET: OAuth application credentials
//   - TRAKT_ACCESS_TOKEN, TRAKT_REFRESH_TOKEN: user token pair
//   - TRAKT_WATCHED_THRESHOLD: progress percentage that counts as watched (default: 80)
//   - TRAKT_MIN_WRITE_INTERVAL: spacing between mutating calls (default: 1s)
//   - TRAKT_RETRY_ATTEMPTS, TRAKT_RETRY_BACKOFF: transient failure retries (default: 2, 2s)
//   - TRAKT_TOKEN_CHECK_INTERVAL: background token verification (default: 6h)
type TraktConfig struct {
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`
	AccessToken  string `koanf:"access_token"`
	RefreshToken string `koanf:"refresh_token"`

	BaseURL          string        `koanf:"base_url"`
	Timeout          time.Duration `koanf:"timeout"`
	MinWriteInterval time.Duration `koanf:"min_write_interval"`

	WatchedThreshold float64       `koanf:"watched_threshold"`
	RetryAttempts    int           `koanf:"retry_attempts"`
	RetryBackoff     time.Duration `koanf:"retry_backoff"`
	MaxRetryDelay    time.Duration `koanf:"max_retry_delay"`
	SyncCollection   bool          `koanf:"sync_collection"`

	// TokenCheckInterval is how often the token is verified in the background.
	TokenCheckInterval time.Duration `koanf:"token_check_interval"`
}

// HasClient reports whether the OAuth application credentials are set.
func (t *TraktConfig) HasClient() bool {
	return strings.TrimSpace(t.ClientID) != "" && strings.TrimSpace(t.ClientSecret) != ""
}

// HasToken reports whether an access token is set.
func (t *TraktConfig) HasToken() bool {
	return strings.TrimSpace(t.AccessToken) != ""
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Addr returns the listen address in host:port form.
func (s *ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// WebhookConfig holds inbound webhook settings.
type WebhookConfig struct {
	// Secret, when set, must match the "secret" query parameter or the
	// X-Webhook-Secret header of every webhook request.
	Secret string `koanf:"secret"`

	// MaxBodyBytes bounds the webhook body, multipart included.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`
}

// SecurityConfig holds per-IP rate limiting for the HTTP API.
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
	Redact bool   `koanf:"redact"`
}
