// Embytrakt - Emby to Trakt Playback Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/embytrakt

package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/joho/godotenv"
)

func TestEnvFileTokenStore_PreservesOtherLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.env")
	writeFile(t, path, `# Trakt application
TRAKT_CLIENT_ID=client
TRAKT_CLIENT_SECRET=secret

TRAKT_ACCESS_TOKEN=old-access
export TRAKT_REFRESH_TOKEN=old-refresh
LOG_LEVEL=debug
`)

	store := NewEnvFileTokenStore(path)
	if err := store.SaveTokens("new-access", "new-refresh"); err != nil {
		t.Fatalf("SaveTokens() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := `# Trakt application
TRAKT_CLIENT_ID=client
TRAKT_CLIENT_SECRET=secret

TRAKT_ACCESS_TOKEN=new-access
TRAKT_REFRESH_TOKEN=new-refresh
LOG_LEVEL=debug
`
	if string(data) != want {
		t.Errorf("file content =\n%s\nwant\n%s", data, want)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("file mode = %o, want 600", perm)
	}
}

func TestEnvFileTokenStore_AppendsMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.env")
	writeFile(t, path, "TRAKT_CLIENT_ID=client\nTRAKT_ACCESS_TOKEN=old")

	if err := NewEnvFileTokenStore(path).SaveTokens("a1", "r1"); err != nil {
		t.Fatalf("SaveTokens() error = %v", err)
	}

	values, err := godotenv.Read(path)
	if err != nil {
		t.Fatalf("godotenv.Read() error = %v", err)
	}
	checks := map[string]string{
		"TRAKT_CLIENT_ID":     "client",
		"TRAKT_ACCESS_TOKEN":  "a1",
		"TRAKT_REFRESH_TOKEN": "r1",
	}
	for key, want := range checks {
		if values[key] != want {
			t.Errorf("%s = %q, want %q", key, values[key], want)
		}
	}
}

func TestEnvFileTokenStore_CreatesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.env")

	if err := NewEnvFileTokenStore(path).SaveTokens("a1", "r1"); err != nil {
		t.Fatalf("SaveTokens() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "TRAKT_ACCESS_TOKEN=a1\nTRAKT_REFRESH_TOKEN=r1\n" {
		t.Errorf("file content = %q", data)
	}
}

func TestEnvFileTokenStore_ReloadThroughLoad(t *testing.T) {
	dir := isolateEnv(t)
	writeFile(t, filepath.Join(dir, "config.env"), "TRAKT_ACCESS_TOKEN=old\nTRAKT_REFRESH_TOKEN=old\n")

	if err := NewEnvFileTokenStore(filepath.Join(dir, "config.env")).SaveTokens("rotated", "rotated-refresh"); err != nil {
		t.Fatalf("SaveTokens() error = %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Trakt.AccessToken != "rotated" || cfg.Trakt.RefreshToken != "rotated-refresh" {
		t.Errorf("tokens after reload = %q/%q", cfg.Trakt.AccessToken, cfg.Trakt.RefreshToken)
	}
}

func TestEnvFileTokenStore_ConcurrentSaves(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.env")
	writeFile(t, path, "TRAKT_CLIENT_ID=client\n")
	store := NewEnvFileTokenStore(path)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := store.SaveTokens("a", "r"); err != nil {
				t.Errorf("SaveTokens() error = %v", err)
			}
		}()
	}
	wg.Wait()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(string(data), "TRAKT_ACCESS_TOKEN="); n != 1 {
		t.Errorf("TRAKT_ACCESS_TOKEN lines = %d, want 1\n%s", n, data)
	}
}

func TestEnvLineKey(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"TRAKT_ACCESS_TOKEN=abc", "TRAKT_ACCESS_TOKEN"},
		{"  PORT = 5000", "PORT"},
		{"export HOST=0.0.0.0", "HOST"},
		{"# TRAKT_ACCESS_TOKEN=abc", ""},
		{"", ""},
		{"not a pair", ""},
	}
	for _, tt := range tests {
		if got := envLineKey(tt.line); got != tt.want {
			t.Errorf("envLineKey(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}
