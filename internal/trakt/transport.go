// Embytrakt - Emby to Trakt Playback Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/embytrakt

/*
transport.go - Rate-Limited Trakt Transport

Every call to the Trakt API goes through Transport.Do. It attaches the Trakt
headers, spaces mutating calls through a shared limiter, performs at most one
transparent token refresh per 401, classifies failures, and runs each
exchange through a circuit breaker.

API Reference: https://trakt.docs.apiary.io/
*/

package trakt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/tomtom215/embytrakt/internal/logging"
	"github.com/tomtom215/embytrakt/internal/metrics"
)

const (
	// DefaultBaseURL is the production Trakt API endpoint.
	DefaultBaseURL = "https://api.trakt.tv"

	apiVersion = "2"

	// maxErrorBody bounds how much of an error response is kept for messages.
	maxErrorBody = 512
)

// Request describes one Trakt API call. Path is relative to the base URL.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   interface{}
}

// Response is a fully read Trakt API response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the response body into v.
func (r *Response) Decode(v interface{}) error {
	if len(r.Body) == 0 {
		return errors.New("empty response body")
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode trakt response: %w", err)
	}
	return nil
}

// Doer issues Trakt API calls. *Transport implements it; tests substitute fakes.
type Doer interface {
	Do(ctx context.Context, req Request, requiresAuth bool) (*Response, error)
}

// Ensure Transport implements Doer
var _ Doer = (*Transport)(nil)

// TransportConfig configures a Transport.
type TransportConfig struct {
	// BaseURL of the Trakt API. Default: https://api.trakt.tv
	BaseURL string

	// Timeout for a single HTTP exchange. Default: 30s
	Timeout time.Duration

	// MinWriteInterval is the minimum spacing between mutating calls. Default: 1s
	MinWriteInterval time.Duration

	// Breaker tunes the circuit breaker. Zero value uses DefaultBreakerConfig.
	Breaker BreakerConfig

	// HTTPClient overrides the HTTP client (tests).
	HTTPClient *http.Client
}

// Transport is the single gateway to the Trakt API.
type Transport struct {
	baseURL    string
	httpClient *http.Client
	creds      *Credentials

	// writeLimiter is shared by every mutating call in the process.
	writeLimiter *rate.Limiter

	// refreshGroup collapses concurrent refreshes into one exchange.
	refreshGroup singleflight.Group

	breaker *gobreaker.CircuitBreaker[*Response]
	log     zerolog.Logger
}

// NewTransport creates a Transport bound to the given credential store.
func NewTransport(cfg TransportConfig, creds *Credentials) *Transport {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MinWriteInterval <= 0 {
		cfg.MinWriteInterval = time.Second
	}
	if cfg.Breaker.Name == "" {
		cfg.Breaker = DefaultBreakerConfig()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Transport{
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient:   httpClient,
		creds:        creds,
		writeLimiter: rate.NewLimiter(rate.Every(cfg.MinWriteInterval), 1),
		breaker:      newBreaker(cfg.Breaker),
		log:          logging.WithComponent("trakt-transport"),
	}
}

// Credentials returns the store the transport reads tokens from.
func (t *Transport) Credentials() *Credentials {
	return t.creds
}

// Do performs a Trakt API call.
//
// Mutating methods wait on the shared write limiter before every attempt.
// When requiresAuth is set and the store is not configured, ErrNotConfigured
// is returned without network I/O. A 401 triggers one refresh and one retry;
// any failure of the refresh or of the retry yields ErrAuthExpired. Connection
// errors, 5xx and 429 yield a *TransientError; other 4xx a *StatusError.
func (t *Transport) Do(ctx context.Context, req Request, requiresAuth bool) (*Response, error) {
	op := req.Method + " " + req.Path

	if t.creds.ClientID() == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrNotConfigured)
	}

	var token string
	if requiresAuth {
		var err error
		if token, err = t.creds.AccessToken(); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	resp, err := t.attempt(ctx, req, token)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return t.classify(req, resp)
	}
	if !requiresAuth {
		return nil, &StatusError{Method: req.Method, Path: req.Path, StatusCode: resp.StatusCode}
	}

	logging.Ctx(ctx).Warn().Str("op", op).Msg("Trakt token rejected, refreshing")

	newToken, err := t.refreshStale(ctx, token)
	if err != nil {
		return nil, authExpired(op, err)
	}

	resp, err = t.attempt(ctx, req, newToken)
	if err != nil {
		return nil, authExpired(op, err)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		logging.Ctx(ctx).Error().Str("op", op).Msg("Trakt rejected refreshed token")
		return nil, fmt.Errorf("%s: %w", op, ErrAuthExpired)
	}
	if resp, err = t.classify(req, resp); err != nil {
		return nil, authExpired(op, err)
	}
	return resp, nil
}

// authExpired reports a failure on the refresh path. Once a 401 has been
// seen every failure is ErrAuthExpired, never transient, so callers do not
// loop through further refreshes.
func authExpired(op string, cause error) error {
	if errors.Is(cause, ErrAuthExpired) {
		return cause
	}
	return fmt.Errorf("%s: %w (%v)", op, ErrAuthExpired, cause)
}

// attempt waits for the write limiter if needed and runs one exchange
// through the circuit breaker.
func (t *Transport) attempt(ctx context.Context, req Request, token string) (*Response, error) {
	op := req.Method + " " + req.Path

	if isMutating(req.Method) {
		start := time.Now()
		if err := t.writeLimiter.Wait(ctx); err != nil {
			return nil, &TransientError{Op: op, Err: err}
		}
		metrics.RecordRateLimitWait(time.Since(start))
	}

	return t.execute(op, func() (*Response, error) {
		resp, err := t.send(ctx, req, token)
		if err != nil {
			return nil, err
		}
		if isTransientStatus(resp.StatusCode) {
			return resp, &TransientError{
				Op:         op,
				StatusCode: resp.StatusCode,
				RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			}
		}
		return resp, nil
	})
}

// send performs a single HTTP exchange and reads the whole body.
func (t *Transport) send(ctx context.Context, req Request, token string) (*Response, error) {
	op := req.Method + " " + req.Path

	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to encode request: %w", op, err)
		}
		body = bytes.NewReader(payload)
	}

	endpoint := t.baseURL + req.Path
	if len(req.Query) > 0 {
		endpoint += "?" + req.Query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create request: %w", op, err)
	}
	t.setHeaders(httpReq, token)

	start := time.Now()
	httpResp, err := t.httpClient.Do(httpReq)
	if err != nil {
		metrics.RecordTraktRequest(req.Method, metricsEndpoint(req.Path), 0, time.Since(start))
		return nil, &TransientError{Op: op, Err: err}
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	metrics.RecordTraktRequest(req.Method, metricsEndpoint(req.Path), httpResp.StatusCode, time.Since(start))
	if err != nil {
		return nil, &TransientError{Op: op, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	t.log.Debug().
		Str("op", op).
		Int("status", httpResp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("Trakt request complete")

	return &Response{StatusCode: httpResp.StatusCode, Header: httpResp.Header, Body: respBody}, nil
}

// setHeaders applies the standard Trakt headers.
func (t *Transport) setHeaders(req *http.Request, token string) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("trakt-api-version", apiVersion)
	req.Header.Set("trakt-api-key", t.creds.ClientID())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// classify maps a non-401, non-transient response to a result.
func (t *Transport) classify(req Request, resp *Response) (*Response, error) {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	body := string(resp.Body)
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return nil, &StatusError{
		Method:     req.Method,
		Path:       req.Path,
		StatusCode: resp.StatusCode,
		Body:       logging.Redact(strings.TrimSpace(body)),
	}
}

// CheckToken verifies the access token with GET /users/settings.
// A rejected token goes through the normal refresh path first.
func (t *Transport) CheckToken(ctx context.Context) (*UserSettings, error) {
	resp, err := t.Do(ctx, Request{Method: http.MethodGet, Path: "/users/settings"}, true)
	if err != nil {
		return nil, err
	}
	var settings UserSettings
	if err := resp.Decode(&settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}

func isTransientStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// parseRetryAfter reads a Retry-After header given in seconds.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// metricsEndpoint collapses id-bearing paths to keep label cardinality bounded.
func metricsEndpoint(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) == 3 && parts[0] == "search" {
		return "/search/" + parts[1] + "/:id"
	}
	return path
}
