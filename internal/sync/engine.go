// Embytrakt - Emby to Trakt Playback Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/embytrakt

package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/embytrakt/internal/logging"
	"github.com/tomtom215/embytrakt/internal/metrics"
	"github.com/tomtom215/embytrakt/internal/models"
	"github.com/tomtom215/embytrakt/internal/trakt"
	"github.com/tomtom215/embytrakt/internal/validation"
)

// Ignore reasons.
const (
	ReasonUnsupportedKind      = "unsupported media kind"
	ReasonInsufficientProgress = "insufficient progress"
	ReasonNonMutating          = "non-mutating event"
)

// Resolver maps a local identity to a Trakt reference. *trakt.Resolver implements it.
type Resolver interface {
	Resolve(ctx context.Context, identity models.MediaIdentity, kind models.MediaKind) (models.RemoteReference, error)
}

// Syncer performs the list mutations. *trakt.Client implements it.
type Syncer interface {
	AddToHistory(ctx context.Context, target trakt.SyncTarget) (*trakt.SyncResponse, error)
	RemoveFromHistory(ctx context.Context, target trakt.SyncTarget) (*trakt.SyncResponse, error)
	AddToFavorites(ctx context.Context, target trakt.SyncTarget) (*trakt.SyncResponse, error)
	RemoveFromFavorites(ctx context.Context, target trakt.SyncTarget) (*trakt.SyncResponse, error)
	AddToCollection(ctx context.Context, target trakt.SyncTarget) (*trakt.SyncResponse, error)
	RemoveFromCollection(ctx context.Context, target trakt.SyncTarget) (*trakt.SyncResponse, error)
}

// CredentialState reports whether sync calls can be authenticated.
// *trakt.Credentials implements it.
type CredentialState interface {
	IsConfigured() bool
}

// Config tunes the engine.
type Config struct {
	// WatchedThreshold is the progress percentage at which a progress
	// event marks the item watched. Default: 80
	WatchedThreshold float64

	// RetryAttempts is the number of extra attempts after a transient
	// failure. Default: 2
	RetryAttempts int

	// RetryBackoff is the fixed delay between attempts. Default: 2s
	RetryBackoff time.Duration

	// MaxRetryDelay caps a server-requested Retry-After. Default: 30s
	MaxRetryDelay time.Duration

	// SyncCollection mirrors watched and favorite changes into the Trakt
	// collection, best effort.
	SyncCollection bool
}

// DefaultConfig returns production engine settings.
func DefaultConfig() Config {
	return Config{
		WatchedThreshold: 80,
		RetryAttempts:    2,
		RetryBackoff:     2 * time.Second,
		MaxRetryDelay:    30 * time.Second,
		SyncCollection:   true,
	}
}

// action is the remote mutation chosen for an event.
type action int

const (
	actionNone action = iota
	actionMarkWatched
	actionRemoveWatched
	actionAddFavorite
	actionRemoveFavorite
)

func (a action) String() string {
	switch a {
	case actionMarkWatched:
		return "mark_watched"
	case actionRemoveWatched:
		return "remove_watched"
	case actionAddFavorite:
		return "add_favorite"
	case actionRemoveFavorite:
		return "remove_favorite"
	default:
		return "none"
	}
}

// Engine decides and applies the remote mutation for each playback event.
// It holds no per-event state and is safe for concurrent use.
type Engine struct {
	cfg      Config
	creds    CredentialState
	resolver Resolver
	syncer   Syncer
	log      zerolog.Logger
}

// NewEngine creates an engine. Zero numeric settings fall back to DefaultConfig.
func NewEngine(cfg Config, creds CredentialState, resolver Resolver, syncer Syncer) *Engine {
	def := DefaultConfig()
	if cfg.WatchedThreshold <= 0 {
		cfg.WatchedThreshold = def.WatchedThreshold
	}
	if cfg.RetryAttempts < 0 {
		cfg.RetryAttempts = 0
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = def.RetryBackoff
	}
	if cfg.MaxRetryDelay <= 0 {
		cfg.MaxRetryDelay = def.MaxRetryDelay
	}

	return &Engine{
		cfg:      cfg,
		creds:    creds,
		resolver: resolver,
		syncer:   syncer,
		log:      logging.WithComponent("sync-engine"),
	}
}

// ProcessEvent applies the mutation for event, if any, and reports the outcome.
//
// Processing is detached from ctx cancellation: once started, outbound calls
// finish even if the caller goes away. Values carried by ctx (request and
// correlation ids) are kept.
func (e *Engine) ProcessEvent(ctx context.Context, event models.PlaybackEvent) Outcome {
	start := time.Now()

	ctx = context.WithoutCancel(ctx)
	if logging.CorrelationIDFromContext(ctx) == "" {
		ctx = logging.ContextWithNewCorrelationID(ctx)
	}
	ctx = logging.ContextWithLogger(ctx, logging.LoggerFromContext(ctx).With().
		Str("event", string(event.EventType)).
		Str("media_kind", string(event.MediaKind)).
		Str("media", event.Describe()).
		Logger())
	log := logging.Ctx(ctx)

	act, reason := e.plan(&event)
	if act == actionNone {
		log.Debug().Str("reason", reason).Msg("Event ignored")
		return e.finish(act, event, Ignored(reason), start)
	}

	if err := validation.ValidatePlaybackEvent(&event); err != nil {
		log.Warn().Err(err).Msg("Rejected invalid playback event")
		out := Failed(ErrorKindInvalidEvent, err.Error())
		out.Err = err
		return e.finish(act, event, out, start)
	}

	if !e.creds.IsConfigured() {
		log.Warn().Msg("Trakt not configured, skipping sync")
		out := Failed(ErrorKindNotConfigured, "Trakt not configured")
		out.Err = trakt.ErrNotConfigured
		return e.finish(act, event, out, start)
	}

	var ref models.RemoteReference
	err := e.withRetry(ctx, "resolve", func(ctx context.Context) error {
		var rerr error
		ref, rerr = e.resolver.Resolve(ctx, event.Identity, event.MediaKind)
		return rerr
	})
	if err != nil {
		return e.finish(act, event, e.failure(ctx, event, err), start)
	}

	target := trakt.SyncTarget{
		Kind:    event.MediaKind,
		Ref:     ref,
		Season:  event.Identity.Season,
		Episode: event.Identity.Episode,
	}

	err = e.withRetry(ctx, act.String(), func(ctx context.Context) error {
		_, merr := e.mutate(ctx, act, target)
		return merr
	})
	if err != nil {
		return e.finish(act, event, e.failure(ctx, event, err), start)
	}

	if e.cfg.SyncCollection {
		e.syncCollection(ctx, act, target)
	}

	log.Info().
		Int("trakt_id", ref.TraktID).
		Str("resolved_via", string(ref.ResolvedVia)).
		Str("action", act.String()).
		Msg("Trakt sync applied")
	return e.finish(act, event, Applied(describe(act, &event)), start)
}

// plan selects the mutation for an event. Rules are evaluated in order and
// the first match wins; KindOther never reaches a mutating rule.
func (e *Engine) plan(event *models.PlaybackEvent) (action, string) {
	if event.MediaKind != models.KindEpisode && event.MediaKind != models.KindMovie {
		return actionNone, ReasonUnsupportedKind
	}

	switch event.EventType {
	case models.EventStop:
		return actionMarkWatched, ""
	case models.EventProgress:
		if event.ProgressPercent != nil && *event.ProgressPercent >= e.cfg.WatchedThreshold {
			return actionMarkWatched, ""
		}
		return actionNone, ReasonInsufficientProgress
	case models.EventMarkPlayed:
		return actionMarkWatched, ""
	case models.EventMarkUnplayed:
		return actionRemoveWatched, ""
	case models.EventRate:
		if event.IsFavorite != nil && *event.IsFavorite {
			return actionAddFavorite, ""
		}
		return actionRemoveFavorite, ""
	default:
		return actionNone, ReasonNonMutating
	}
}

func (e *Engine) mutate(ctx context.Context, act action, target trakt.SyncTarget) (*trakt.SyncResponse, error) {
	switch act {
	case actionMarkWatched:
		return e.syncer.AddToHistory(ctx, target)
	case actionRemoveWatched:
		return e.syncer.RemoveFromHistory(ctx, target)
	case actionAddFavorite:
		return e.syncer.AddToFavorites(ctx, target)
	case actionRemoveFavorite:
		return e.syncer.RemoveFromFavorites(ctx, target)
	default:
		return nil, fmt.Errorf("no mutation for action %s", act)
	}
}

// syncCollection mirrors a successful change into the collection. Errors
// are logged and never change the outcome.
func (e *Engine) syncCollection(ctx context.Context, act action, target trakt.SyncTarget) {
	var err error
	switch act {
	case actionMarkWatched, actionAddFavorite:
		_, err = e.syncer.AddToCollection(ctx, target)
	case actionRemoveWatched:
		_, err = e.syncer.RemoveFromCollection(ctx, target)
	default:
		return
	}
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("action", act.String()).Msg("Trakt collection sync failed")
	}
}

// withRetry runs fn, retrying transient failures with a fixed backoff.
// A Retry-After longer than the backoff is honored up to MaxRetryDelay.
func (e *Engine) withRetry(ctx context.Context, op string, fn func(context.Context) error) error {
	var err error
	for attempt := 0; attempt <= e.cfg.RetryAttempts; attempt++ {
		if attempt > 0 {
			delay := e.retryDelay(err)
			metrics.RecordSyncRetry()
			logging.Ctx(ctx).Warn().
				Err(err).
				Str("op", op).
				Int("attempt", attempt).
				Dur("delay", delay).
				Msg("Transient Trakt failure, retrying")

			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return err
			}
		}

		err = fn(ctx)
		if err == nil || !errors.Is(err, trakt.ErrTransient) {
			return err
		}
	}
	return err
}

func (e *Engine) retryDelay(err error) time.Duration {
	delay := e.cfg.RetryBackoff
	if ra := trakt.RetryAfter(err); ra > delay {
		delay = ra
	}
	if delay > e.cfg.MaxRetryDelay {
		delay = e.cfg.MaxRetryDelay
	}
	return delay
}

// failure builds the outcome for an error from resolution or mutation.
func (e *Engine) failure(ctx context.Context, event models.PlaybackEvent, err error) Outcome {
	kind := classify(err)

	var detail string
	switch kind {
	case ErrorKindNotFound:
		detail = event.Identity.Title + " not found on remote service"
	case ErrorKindNotConfigured:
		detail = event.Describe() + ": Trakt not configured"
	case ErrorKindAuthExpired:
		detail = event.Describe() + ": Trakt authorization expired, re-authorization required"
	default:
		detail = event.Describe() + ": " + logging.Redact(err.Error())
	}

	logging.Ctx(ctx).Error().Err(err).Str("kind", string(kind)).Msg("Trakt sync failed")

	out := Failed(kind, detail)
	out.Err = err
	return out
}

func (e *Engine) finish(act action, event models.PlaybackEvent, out Outcome, start time.Time) Outcome {
	metrics.RecordSyncOutcome(act.String(), string(out.Status), string(out.Kind), time.Since(start))
	e.log.Debug().
		Str("event", string(event.EventType)).
		Str("status", string(out.Status)).
		Dur("duration", time.Since(start)).
		Msg("Event processed")
	return out
}

// describe formats the applied message for an action.
func describe(act action, event *models.PlaybackEvent) string {
	media := event.Describe()
	switch act {
	case actionAddFavorite:
		return media + " added to favorites"
	case actionRemoveFavorite:
		return media + " removed from favorites"
	case actionRemoveWatched:
		return media + " removed from history"
	default:
		return media
	}
}
