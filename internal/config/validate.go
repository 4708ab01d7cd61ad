// Embytrakt - Emby to Trakt Playback Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/embytrakt

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/tomtom215/embytrakt/internal/logging"
)

// Validate checks that configuration values are usable.
// Trakt credentials are deliberately not required here; see Warnings.
func (c *Config) Validate() error {
	if err := c.validateTrakt(); err != nil {
		return err
	}

	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateWebhook(); err != nil {
		return err
	}

	if err := c.validateSecurity(); err != nil {
		return err
	}

	return c.validateLogging()
}

// Warnings returns non-fatal configuration problems to log at startup.
func (c *Config) Warnings() []string {
	var warnings []string
	if !c.Trakt.HasClient() {
		warnings = append(warnings, "TRAKT_CLIENT_ID and TRAKT_CLIENT_SECRET are not set; webhooks will be skipped")
	}
	if !c.Trakt.HasToken() {
		warnings = append(warnings, "TRAKT_ACCESS_TOKEN is not set; webhooks will be skipped")
	} else if strings.TrimSpace(c.Trakt.RefreshToken) == "" {
		warnings = append(warnings, "TRAKT_REFRESH_TOKEN is not set; an expired access token cannot be renewed")
	}
	if c.Webhook.Secret == "" {
		warnings = append(warnings, "WEBHOOK_SECRET is not set; the webhook endpoint accepts unauthenticated requests")
	}
	return warnings
}

func (c *Config) validateTrakt() error {
	if err := validateHTTPURL(c.Trakt.BaseURL, "TRAKT_BASE_URL"); err != nil {
		return fmt.Errorf("TRAKT_BASE_URL is invalid: %w", err)
	}
	if c.Trakt.Timeout <= 0 {
		return fmt.Errorf("TRAKT_TIMEOUT must be positive")
	}
	if c.Trakt.MinWriteInterval < 0 {
		return fmt.Errorf("TRAKT_MIN_WRITE_INTERVAL must not be negative")
	}
	if c.Trakt.WatchedThreshold <= 0 || c.Trakt.WatchedThreshold > 100 {
		return fmt.Errorf("TRAKT_WATCHED_THRESHOLD must be greater than 0 and at most 100")
	}
	if c.Trakt.RetryAttempts < 0 || c.Trakt.RetryAttempts > 10 {
		return fmt.Errorf("TRAKT_RETRY_ATTEMPTS must be between 0 and 10")
	}
	if c.Trakt.RetryBackoff <= 0 {
		return fmt.Errorf("TRAKT_RETRY_BACKOFF must be positive")
	}
	if c.Trakt.MaxRetryDelay < c.Trakt.RetryBackoff {
		return fmt.Errorf("TRAKT_MAX_RETRY_DELAY must be at least TRAKT_RETRY_BACKOFF")
	}
	if c.Trakt.TokenCheckInterval < time.Minute {
		return fmt.Errorf("TRAKT_TOKEN_CHECK_INTERVAL must be at least 1m")
	}
	return nil
}

// validateServer validates server configuration
func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateWebhook() error {
	if c.Webhook.MaxBodyBytes <= 0 {
		return fmt.Errorf("WEBHOOK_MAX_BODY_BYTES must be positive")
	}
	return nil
}

// validateSecurity validates rate limiting settings. Skipped when disabled.
func (c *Config) validateSecurity() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < 1 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1")
	}
	if c.Security.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

// validateLogging validates logging configuration
func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error, fatal, panic, disabled")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
		return nil
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console")
	}
}

// validateHTTPURL validates that a URL is a well-formed base URL.
// Supports: HTTP/HTTPS, IP addresses/hostnames, with optional ports.
func validateHTTPURL(rawURL, fieldName string) error {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s failed to parse URL: %w", fieldName, err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("%s scheme must be http or https, got: %s", fieldName, parsedURL.Scheme)
	}

	if parsedURL.Host == "" {
		return fmt.Errorf("%s host is required", fieldName)
	}

	// Allow trailing slash but no other paths
	if parsedURL.Path != "" && parsedURL.Path != "/" {
		return fmt.Errorf("%s should be base URL only, remove path: %s", fieldName, parsedURL.Path)
	}

	if parsedURL.RawQuery != "" {
		return fmt.Errorf("%s should not contain query parameters, remove: ?%s", fieldName, parsedURL.RawQuery)
	}

	return nil
}
