// Embytrakt - Emby to Trakt Playback Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/embytrakt

package config

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/google/renameio/v2"

	"github.com/tomtom215/embytrakt/internal/logging"
)

const (
	accessTokenKey  = "TRAKT_ACCESS_TOKEN"
	refreshTokenKey = "TRAKT_REFRESH_TOKEN"
)

// EnvFileTokenStore persists the Trakt token pair into a dotenv file.
// Only the token lines are rewritten; comments, ordering and every other
// key are preserved. Missing token keys are appended.
type EnvFileTokenStore struct {
	path string
	mu   sync.Mutex
}

// NewEnvFileTokenStore creates a token store for the dotenv file at path.
// The file does not have to exist yet.
func NewEnvFileTokenStore(path string) *EnvFileTokenStore {
	return &EnvFileTokenStore{path: path}
}

// Path returns the dotenv file location.
func (s *EnvFileTokenStore) Path() string {
	return s.path
}

// SaveTokens writes the token pair atomically. A crash mid-write leaves
// either the old or the new file, never a truncated one.
func (s *EnvFileTokenStore) SaveTokens(accessToken, refreshToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := os.ReadFile(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("read env file: %w", err)
	}

	content := rewriteTokenLines(existing, map[string]string{
		accessTokenKey:  accessToken,
		refreshTokenKey: refreshToken,
	})

	pendingFile, err := renameio.NewPendingFile(s.path, renameio.WithPermissions(0o600))
	if err != nil {
		return fmt.Errorf("create pending env file: %w", err)
	}
	defer func() {
		if err := pendingFile.Cleanup(); err != nil {
			logging.Debug().Err(err).Msg("cleanup pending env file")
		}
	}()

	if _, err := pendingFile.Write(content); err != nil {
		return fmt.Errorf("write env file: %w", err)
	}
	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace env file: %w", err)
	}

	logging.Info().Str("path", s.path).Msg("Persisted refreshed Trakt tokens")
	return nil
}

// rewriteTokenLines replaces KEY=value lines for the given keys and appends
// keys that were not present, in a stable order.
func rewriteTokenLines(existing []byte, values map[string]string) []byte {
	var out bytes.Buffer
	seen := make(map[string]bool, len(values))

	scanner := bufio.NewScanner(bytes.NewReader(existing))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if key := envLineKey(line); key != "" {
			if value, ok := values[key]; ok {
				line = key + "=" + value
				seen[key] = true
			}
		}
		out.WriteString(line)
		out.WriteByte('\n')
	}

	for _, key := range []string{accessTokenKey, refreshTokenKey} {
		value, ok := values[key]
		if !ok || seen[key] {
			continue
		}
		out.WriteString(key + "=" + value + "\n")
	}
	return out.Bytes()
}

// envLineKey returns the key of a KEY=value line, tolerating an "export "
// prefix. Comments and blank lines return "".
func envLineKey(line string) string {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return ""
	}
	trimmed = strings.TrimPrefix(trimmed, "export ")
	key, _, found := strings.Cut(trimmed, "=")
	if !found {
		return ""
	}
	return strings.TrimSpace(key)
}
