// Embytrakt - Emby to Trakt Playback Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/embytrakt

package trakt

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"
)

func okHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusCreated, SyncResponse{Added: SyncStats{Episodes: 1}})
}

// ============================================================================
// Headers and configuration
// ============================================================================

func TestTransport_SetsTraktHeaders(t *testing.T) {
	f := newFakeTrakt(t)
	f.handle("POST /sync/history", func(w http.ResponseWriter, r *http.Request) {
		checkStringEqual(t, "Content-Type", r.Header.Get("Content-Type"), "application/json")
		checkStringEqual(t, "trakt-api-version", r.Header.Get("trakt-api-version"), "2")
		okHandler(w, r)
	})

	tr := newTestTransport(f, configuredCreds(nil), time.Millisecond)
	_, err := tr.Do(context.Background(), Request{Method: http.MethodPost, Path: "/sync/history", Body: SyncRequest{}}, true)
	checkNoError(t, err)

	reqs := f.recorded()
	checkIntEqual(t, "requests", len(reqs), 1)
	checkStringEqual(t, "Authorization", reqs[0].Auth, "Bearer old-access")
	checkStringEqual(t, "trakt-api-key", reqs[0].APIKey, "client-id")
}

func TestTransport_NotConfigured_NoNetworkIO(t *testing.T) {
	tests := []struct {
		name         string
		creds        *Credentials
		requiresAuth bool
	}{
		{"no access token", NewCredentials("id", "secret", "", "refresh", nil), true},
		{"no client", NewCredentials("", "", "token", "refresh", nil), true},
		{"no client id on public call", NewCredentials("", "", "", "", nil), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeTrakt(t)
			tr := newTestTransport(f, tt.creds, time.Millisecond)

			_, err := tr.Do(context.Background(), Request{Method: http.MethodPost, Path: "/sync/history"}, tt.requiresAuth)
			checkErrorIs(t, err, ErrNotConfigured)
			checkIntEqual(t, "network requests", f.total(), 0)
		})
	}
}

// ============================================================================
// Token refresh
// ============================================================================

func TestTransport_RefreshesOnceAndRetries(t *testing.T) {
	f := newFakeTrakt(t)
	f.handle("POST /sync/history", requireBearer("new-access", okHandler))
	f.handle("POST /oauth/token", tokenHandler("new-access", "new-refresh"))

	sink := &memorySink{}
	tr := newTestTransport(f, configuredCreds(sink), time.Millisecond)

	resp, err := tr.Do(context.Background(), Request{Method: http.MethodPost, Path: "/sync/history", Body: SyncRequest{}}, true)
	checkNoError(t, err)
	checkIntEqual(t, "status", resp.StatusCode, http.StatusCreated)

	checkIntEqual(t, "refresh exchanges", f.count("POST /oauth/token"), 1)
	checkIntEqual(t, "history calls", f.count("POST /sync/history"), 2)

	token, _ := tr.Credentials().AccessToken()
	checkStringEqual(t, "stored access token", token, "new-access")
	checkStringEqual(t, "stored refresh token", tr.Credentials().RefreshToken(), "new-refresh")
	checkIntEqual(t, "sink saves", sink.count(), 1)

	for _, r := range f.recorded() {
		if r.Path != "/oauth/token" {
			continue
		}
		for _, want := range []string{`"grant_type":"refresh_token"`, `"refresh_token":"old-refresh"`, `"redirect_uri":"urn:ietf:wg:oauth:2.0:oob"`} {
			if !strings.Contains(r.Body, want) {
				t.Errorf("refresh body missing %s: %s", want, r.Body)
			}
		}
	}
}

func TestTransport_SecondUnauthorizedIsAuthExpired(t *testing.T) {
	f := newFakeTrakt(t)
	f.handle("POST /sync/history", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	f.handle("POST /oauth/token", tokenHandler("new-access", "new-refresh"))

	tr := newTestTransport(f, configuredCreds(nil), time.Millisecond)

	_, err := tr.Do(context.Background(), Request{Method: http.MethodPost, Path: "/sync/history"}, true)
	checkErrorIs(t, err, ErrAuthExpired)
	checkIntEqual(t, "refresh exchanges", f.count("POST /oauth/token"), 1)
	checkIntEqual(t, "history calls", f.count("POST /sync/history"), 2)
}

func TestTransport_RefreshFailureIsAuthExpired(t *testing.T) {
	tests := []struct {
		name           string
		creds          *Credentials
		handler        http.HandlerFunc
		wantOAuthCalls int
	}{
		{
			name:  "refresh rejected",
			creds: configuredCreds(nil),
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
			},
			wantOAuthCalls: 1,
		},
		{
			name:  "refresh unavailable",
			creds: configuredCreds(nil),
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			},
			wantOAuthCalls: 1,
		},
		{
			name:           "no refresh token",
			creds:          NewCredentials("client-id", "client-secret", "old-access", "", nil),
			handler:        tokenHandler("unused", "unused"),
			wantOAuthCalls: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeTrakt(t)
			f.handle("GET /users/settings", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			})
			f.handle("POST /oauth/token", tt.handler)

			tr := newTestTransport(f, tt.creds, time.Millisecond)
			_, err := tr.CheckToken(context.Background())

			checkErrorIs(t, err, ErrAuthExpired)
			if errors.Is(err, ErrTransient) {
				t.Errorf("refresh failure must not be transient: %v", err)
			}
			checkIntEqual(t, "refresh exchanges", f.count("POST /oauth/token"), tt.wantOAuthCalls)
			checkIntEqual(t, "settings calls", f.count("GET /users/settings"), 1)
		})
	}
}

func TestTransport_RetryFailureAfterRefreshIsAuthExpired(t *testing.T) {
	f := newFakeTrakt(t)
	f.handle("POST /sync/history", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer new-access" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	})
	f.handle("POST /oauth/token", tokenHandler("new-access", "new-refresh"))

	tr := newTestTransport(f, configuredCreds(nil), time.Millisecond)

	_, err := tr.Do(context.Background(), Request{Method: http.MethodPost, Path: "/sync/history"}, true)
	checkErrorIs(t, err, ErrAuthExpired)
	if errors.Is(err, ErrTransient) {
		t.Errorf("retry failure after refresh must not be transient: %v", err)
	}
	checkIntEqual(t, "refresh exchanges", f.count("POST /oauth/token"), 1)
	checkIntEqual(t, "history calls", f.count("POST /sync/history"), 2)
}

func TestTransport_ConcurrentUnauthorizedRefreshOnce(t *testing.T) {
	f := newFakeTrakt(t)
	f.handle("GET /users/settings", requireBearer("new-access", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"user": map[string]string{"username": "tom"}})
	}))
	f.handle("POST /oauth/token", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		tokenHandler("new-access", "new-refresh")(w, r)
	})

	tr := newTestTransport(f, configuredCreds(&memorySink{}), time.Millisecond)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := tr.CheckToken(context.Background())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		checkNoError(t, err)
	}
	checkIntEqual(t, "refresh exchanges", f.count("POST /oauth/token"), 1)
}

func TestTransport_ManualRefresh(t *testing.T) {
	f := newFakeTrakt(t)
	f.handle("POST /oauth/token", tokenHandler("manual-access", "manual-refresh"))

	tr := newTestTransport(f, configuredCreds(nil), time.Millisecond)
	checkNoError(t, tr.Refresh(context.Background()))

	token, _ := tr.Credentials().AccessToken()
	checkStringEqual(t, "access token", token, "manual-access")

	unconfigured := newTestTransport(f, NewCredentials("", "", "", "", nil), time.Millisecond)
	checkErrorIs(t, unconfigured.Refresh(context.Background()), ErrNotConfigured)
}

// ============================================================================
// Failure classification
// ============================================================================

func TestTransport_ClassifiesFailures(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		retryAfter string
		want       error
		wantDelay  time.Duration
	}{
		{"server error", http.StatusInternalServerError, "", ErrTransient, 0},
		{"bad gateway", http.StatusBadGateway, "", ErrTransient, 0},
		{"rate limited", http.StatusTooManyRequests, "3", ErrTransient, 3 * time.Second},
		{"not found", http.StatusNotFound, "", ErrRemoteRejected, 0},
		{"unprocessable", http.StatusUnprocessableEntity, "", ErrRemoteRejected, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeTrakt(t)
			f.handle("POST /sync/history", func(w http.ResponseWriter, _ *http.Request) {
				if tt.retryAfter != "" {
					w.Header().Set("Retry-After", tt.retryAfter)
				}
				w.WriteHeader(tt.status)
			})

			tr := newTestTransport(f, configuredCreds(nil), time.Millisecond)
			_, err := tr.Do(context.Background(), Request{Method: http.MethodPost, Path: "/sync/history"}, true)

			checkErrorIs(t, err, tt.want)
			if got := RetryAfter(err); got != tt.wantDelay {
				t.Errorf("RetryAfter() = %v, want %v", got, tt.wantDelay)
			}
			checkIntEqual(t, "attempts", f.count("POST /sync/history"), 1)

			var statusErr *StatusError
			if errors.Is(tt.want, ErrRemoteRejected) {
				if !errors.As(err, &statusErr) {
					t.Fatalf("expected *StatusError, got %T", err)
				}
				checkIntEqual(t, "status", statusErr.StatusCode, tt.status)
			}
		})
	}
}

func TestTransport_ConnectionErrorIsTransient(t *testing.T) {
	f := newFakeTrakt(t)
	tr := newTestTransport(f, configuredCreds(nil), time.Millisecond)
	f.Close()

	_, err := tr.Do(context.Background(), Request{Method: http.MethodGet, Path: "/users/settings"}, true)
	checkErrorIs(t, err, ErrTransient)
}

func TestTransport_ErrorsNeverContainTokens(t *testing.T) {
	f := newFakeTrakt(t)
	f.handle("POST /sync/history", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"bad","access_token":"old-access"}`))
	})

	tr := newTestTransport(f, configuredCreds(nil), time.Millisecond)
	_, err := tr.Do(context.Background(), Request{Method: http.MethodPost, Path: "/sync/history"}, true)
	if err == nil {
		t.Fatal("expected error")
	}
	if strings.Contains(err.Error(), "old-access") {
		t.Errorf("error leaks token: %v", err)
	}
}

// ============================================================================
// Rate limiting
// ============================================================================

func TestTransport_SpacesMutatingCalls(t *testing.T) {
	const interval = 100 * time.Millisecond

	f := newFakeTrakt(t)
	f.handle("POST /sync/history", okHandler)
	tr := newTestTransport(f, configuredCreds(nil), interval)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := tr.Do(context.Background(), Request{Method: http.MethodPost, Path: "/sync/history"}, true)
			if err != nil {
				t.Errorf("Do() error = %v", err)
			}
		}()
	}
	wg.Wait()

	reqs := f.recorded()
	checkIntEqual(t, "requests", len(reqs), 4)
	sort.Slice(reqs, func(i, j int) bool { return reqs[i].At.Before(reqs[j].At) })

	// Allow some scheduling jitter below the nominal interval.
	minGap := interval - 20*time.Millisecond
	for i := 1; i < len(reqs); i++ {
		if gap := reqs[i].At.Sub(reqs[i-1].At); gap < minGap {
			t.Errorf("mutating calls %d and %d only %v apart, want >= %v", i-1, i, gap, minGap)
		}
	}
}

func TestTransport_ReadsSkipWriteLimiter(t *testing.T) {
	f := newFakeTrakt(t)
	f.handle("GET /search/movie", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, []SearchResult{})
	})
	tr := newTestTransport(f, configuredCreds(nil), time.Second)

	start := time.Now()
	for i := 0; i < 5; i++ {
		_, err := tr.Do(context.Background(), Request{Method: http.MethodGet, Path: "/search/movie"}, false)
		checkNoError(t, err)
	}
	if elapsed := time.Since(start); elapsed > 900*time.Millisecond {
		t.Errorf("5 reads took %v, reads must not wait on the write limiter", elapsed)
	}
}

func TestTransport_LimiterHonorsContext(t *testing.T) {
	f := newFakeTrakt(t)
	f.handle("POST /sync/history", okHandler)
	tr := newTestTransport(f, configuredCreds(nil), time.Hour)

	_, err := tr.Do(context.Background(), Request{Method: http.MethodPost, Path: "/sync/history"}, true)
	checkNoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = tr.Do(ctx, Request{Method: http.MethodPost, Path: "/sync/history"}, true)
	checkErrorIs(t, err, ErrTransient)
	checkIntEqual(t, "requests", f.count("POST /sync/history"), 1)
}

// ============================================================================
// Circuit breaker
// ============================================================================

func TestTransport_BreakerOpensOnTransientFailures(t *testing.T) {
	f := newFakeTrakt(t)
	f.handle("GET /users/settings", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	tr := NewTransport(TransportConfig{
		BaseURL: f.URL,
		Breaker: BreakerConfig{
			Name:         "trakt-breaker-test",
			MaxRequests:  1,
			Interval:     time.Minute,
			Timeout:      time.Minute,
			MinRequests:  2,
			FailureRatio: 0.5,
		},
	}, configuredCreds(nil))

	for i := 0; i < 2; i++ {
		_, err := tr.Do(context.Background(), Request{Method: http.MethodGet, Path: "/users/settings"}, true)
		checkErrorIs(t, err, ErrTransient)
	}
	checkStringEqual(t, "breaker state", tr.BreakerState(), "open")

	_, err := tr.Do(context.Background(), Request{Method: http.MethodGet, Path: "/users/settings"}, true)
	checkErrorIs(t, err, ErrTransient)
	checkIntEqual(t, "requests reaching trakt", f.count("GET /users/settings"), 2)
}

func TestTransport_BreakerIgnoresClientErrors(t *testing.T) {
	f := newFakeTrakt(t)
	f.handle("GET /search/movie", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	tr := NewTransport(TransportConfig{
		BaseURL: f.URL,
		Breaker: BreakerConfig{
			Name:         "trakt-breaker-4xx-test",
			MaxRequests:  1,
			Interval:     time.Minute,
			Timeout:      time.Minute,
			MinRequests:  2,
			FailureRatio: 0.5,
		},
	}, configuredCreds(nil))

	for i := 0; i < 5; i++ {
		_, err := tr.Do(context.Background(), Request{Method: http.MethodGet, Path: "/search/movie"}, false)
		checkErrorIs(t, err, ErrRemoteRejected)
	}
	checkStringEqual(t, "breaker state", tr.BreakerState(), "closed")
}

func TestMetricsEndpoint(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/search/tvdb/81189", "/search/tvdb/:id"},
		{"/search/movie", "/search/movie"},
		{"/sync/history/remove", "/sync/history/remove"},
	}
	for _, tt := range tests {
		checkStringEqual(t, tt.path, metricsEndpoint(tt.path), tt.want)
	}
}
