// Embytrakt - Emby to Trakt Playback Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/embytrakt

package trakt

import (
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/embytrakt/internal/logging"
	"github.com/tomtom215/embytrakt/internal/metrics"
)

// BreakerConfig tunes the Trakt circuit breaker.
type BreakerConfig struct {
	Name         string
	MaxRequests  uint32        // probes allowed in half-open state
	Interval     time.Duration // count reset period in closed state
	Timeout      time.Duration // open -> half-open delay
	MinRequests  uint32        // minimum requests before the failure ratio is considered
	FailureRatio float64
}

// DefaultBreakerConfig returns the breaker settings used in production:
// opens at a 60% transient failure rate over at least 10 requests and
// probes again after one minute.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:         "trakt-api",
		MaxRequests:  3,
		Interval:     time.Minute,
		Timeout:      time.Minute,
		MinRequests:  10,
		FailureRatio: 0.6,
	}
}

// newBreaker builds a breaker that only counts transient failures. Auth and
// 4xx outcomes mean Trakt is healthy, so IsSuccessful treats them as success.
func newBreaker(cfg BreakerConfig) *gobreaker.CircuitBreaker[*Response] {
	if cfg.Name == "" {
		cfg.Name = "trakt-api"
	}

	metrics.CircuitBreakerState.WithLabelValues(cfg.Name).Set(0)
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(cfg.Name).Set(0)

	return gobreaker.NewCircuitBreaker[*Response](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= cfg.FailureRatio
			if shouldTrip {
				logging.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("[CIRCUIT BREAKER] Opening Trakt circuit")
			}
			return shouldTrip
		},

		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, ErrTransient)
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			logging.Info().Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] Trakt state transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
	})
}

// execute runs fn through the breaker and records breaker metrics.
// A rejected call is reported as a TransientError.
func (t *Transport) execute(op string, fn func() (*Response, error)) (*Response, error) {
	resp, err := t.breaker.Execute(fn)
	name := t.breaker.Name()

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(name, "rejected").Inc()
			t.log.Warn().Str("op", op).Err(err).Msg("[CIRCUIT BREAKER] Trakt request rejected")
			return nil, &TransientError{Op: op, Err: err}
		}
		if errors.Is(err, ErrTransient) {
			metrics.CircuitBreakerRequests.WithLabelValues(name, "failure").Inc()
			counts := t.breaker.Counts()
			metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(float64(counts.ConsecutiveFailures))
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(name, "success").Inc()
		}
		return resp, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(name, "success").Inc()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
	return resp, nil
}

// BreakerState returns the breaker state as "closed", "half-open" or "open".
func (t *Transport) BreakerState() string {
	return stateToString(t.breaker.State())
}

// stateToFloat converts circuit breaker state to numeric value for metrics
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// stateToString converts circuit breaker state to string for logging
func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
