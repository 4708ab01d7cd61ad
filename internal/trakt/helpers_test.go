// Embytrakt - Emby to Trakt Playback Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/embytrakt

package trakt

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

// Test assertion helpers. t.Helper() makes failures point at the caller.

func checkNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func checkErrorIs(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("expected error matching %v, got %v", target, err)
	}
}

func checkIntEqual(t *testing.T, fieldName string, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("%s: expected %d, got %d", fieldName, want, got)
	}
}

func checkStringEqual(t *testing.T, fieldName, got, want string) {
	t.Helper()
	if got != want {
		t.Errorf("%s: expected %q, got %q", fieldName, want, got)
	}
}

// ============================================================================
// Fake Trakt server
// ============================================================================

// recordedRequest is one request seen by the fake server.
type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Auth   string
	APIKey string
	Body   string
	At     time.Time
}

// fakeTrakt is an httptest server with per-path handlers and a request log.
type fakeTrakt struct {
	*httptest.Server

	mu       sync.Mutex
	requests []recordedRequest
	handlers map[string]http.HandlerFunc
}

func newFakeTrakt(t *testing.T) *fakeTrakt {
	t.Helper()
	f := &fakeTrakt{handlers: make(map[string]http.HandlerFunc)}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Close)
	return f
}

// handle registers a handler for "METHOD /path".
func (f *fakeTrakt) handle(pattern string, h http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[pattern] = h
}

func (f *fakeTrakt) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Auth:   r.Header.Get("Authorization"),
		APIKey: r.Header.Get("trakt-api-key"),
		Body:   string(body),
		At:     time.Now(),
	})
	h, ok := f.handlers[r.Method+" "+r.URL.Path]
	f.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	h(w, r)
}

// count returns how many requests matched "METHOD /path".
func (f *fakeTrakt) count(pattern string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.requests {
		if r.Method+" "+r.Path == pattern {
			n++
		}
	}
	return n
}

func (f *fakeTrakt) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeTrakt) recorded() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]recordedRequest, len(f.requests))
	copy(out, f.requests)
	return out
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// tokenHandler answers /oauth/token with the given new pair.
func tokenHandler(access, refresh string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, Token{
			AccessToken:  access,
			RefreshToken: refresh,
			TokenType:    "bearer",
			ExpiresIn:    7776000,
		})
	}
}

// requireBearer answers 401 unless the request carries the given token.
func requireBearer(token string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+token {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// memorySink records persisted token pairs.
type memorySink struct {
	mu    sync.Mutex
	saves [][2]string
	err   error
}

func (s *memorySink) SaveTokens(access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves = append(s.saves, [2]string{access, refresh})
	return s.err
}

func (s *memorySink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saves)
}

func (s *memorySink) last() [2]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.saves) == 0 {
		return [2]string{}
	}
	return s.saves[len(s.saves)-1]
}

// newTestTransport builds a transport against the fake server with a short
// write interval and a breaker that will not trip in ordinary tests.
func newTestTransport(f *fakeTrakt, creds *Credentials, interval time.Duration) *Transport {
	return NewTransport(TransportConfig{
		BaseURL:          f.URL,
		Timeout:          5 * time.Second,
		MinWriteInterval: interval,
		Breaker: BreakerConfig{
			Name:         "trakt-test",
			MaxRequests:  1,
			Interval:     time.Minute,
			Timeout:      time.Minute,
			MinRequests:  1000,
			FailureRatio: 1,
		},
	}, creds)
}

func configuredCreds(sink TokenSink) *Credentials {
	return NewCredentials("client-id", "client-secret", "old-access", "old-refresh", sink)
}
