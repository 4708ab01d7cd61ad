// Embytrakt - Emby to Trakt Playback Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/embytrakt

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/embytrakt/config.yaml",
	"/etc/embytrakt/config.yml",
}

const (
	// ConfigPathEnvVar is the environment variable that can override the config file path.
	ConfigPathEnvVar = "CONFIG_PATH"

	// EnvFileEnvVar overrides the dotenv credential file path.
	EnvFileEnvVar = "ENV_FILE"

	// DefaultEnvFile is the dotenv credential file used when none is configured.
	DefaultEnvFile = "config.env"
)

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file, dotenv file and env vars.
func defaultConfig() *Config {
	return &Config{
		Trakt: TraktConfig{
			BaseURL:          "https://api.trakt.tv",
			Timeout:          30 * time.Second,
			MinWriteInterval: time.Second,
			WatchedThreshold: 80,
			RetryAttempts:    2,
			RetryBackoff:     2 * time.Second,
			MaxRetryDelay:    30 * time.Second,
			SyncCollection:   true,

			TokenCheckInterval: 6 * time.Hour,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            5000,
			Timeout:         30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Webhook: WebhookConfig{
			MaxBodyBytes: 1 << 20, // 1MB
		},
		Security: SecurityConfig{
			RateLimitReqs:     120,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
			Redact: true,
		},
		EnvFile: DefaultEnvFile,
	}
}

// Load reads configuration from all sources. Later sources override earlier ones:
//
//  1. Struct defaults
//  2. YAML config file (CONFIG_PATH, config.yaml, /etc/embytrakt/config.yaml)
//  3. Dotenv credential file (ENV_FILE, default config.env), if present
//  4. Process environment variables
//
// Missing Trakt credentials are not an error: the service runs and reports
// webhooks as skipped until credentials are provided.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	envFile := k.String("env_file")
	if override := os.Getenv(EnvFileEnvVar); override != "" {
		envFile = override
	}
	if err := loadEnvFile(k, envFile); err != nil {
		return nil, err
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	cfg.EnvFile = envFile

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// loadEnvFile merges KEY=value pairs from a dotenv file using the same
// key mapping as process environment variables. A missing file is skipped.
func loadEnvFile(k *koanf.Koanf, path string) error {
	if path == "" {
		return nil
	}

	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read env file %s: %w", path, err)
	}

	for key, value := range values {
		target := envTransformFunc(key)
		if target == "" {
			continue
		}
		if err := k.Set(target, value); err != nil {
			return fmt.Errorf("failed to set %s from env file: %w", target, err)
		}
	}
	return nil
}

// findConfigFile returns the first existing config file path.
// CONFIG_PATH takes precedence over the default search paths.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envMappings maps environment variable names (lowercased) to config paths.
var envMappings = map[string]string{
	"trakt_client_id":            "trakt.client_id",
	"trakt_client_secret":        "trakt.client_secret",
	"trakt_access_token":         "trakt.access_token",
	"trakt_refresh_token":        "trakt.refresh_token",
	"trakt_base_url":             "trakt.base_url",
	"trakt_timeout":              "trakt.timeout",
	"trakt_min_write_interval":   "trakt.min_write_interval",
	"trakt_watched_threshold":    "trakt.watched_threshold",
	"trakt_retry_attempts":       "trakt.retry_attempts",
	"trakt_retry_backoff":        "trakt.retry_backoff",
	"trakt_max_retry_delay":      "trakt.max_retry_delay",
	"trakt_sync_collection":      "trakt.sync_collection",
	"trakt_token_check_interval": "trakt.token_check_interval",

	"host":             "server.host",
	"port":             "server.port",
	"http_timeout":     "server.timeout",
	"shutdown_timeout": "server.shutdown_timeout",

	"webhook_secret":         "webhook.secret",
	"webhook_max_body_bytes": "webhook.max_body_bytes",

	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
	"log_redact": "logging.redact",
}

// envTransformFunc transforms environment variable names to koanf config paths.
// Unmapped keys return "" so unrelated environment variables are skipped.
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(strings.TrimSpace(key))]; ok {
		return mapped
	}
	return ""
}
