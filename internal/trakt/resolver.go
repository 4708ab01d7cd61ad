// Embytrakt - Emby to Trakt Playback Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/embytrakt

package trakt

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tomtom215/embytrakt/internal/logging"
	"github.com/tomtom215/embytrakt/internal/metrics"
	"github.com/tomtom215/embytrakt/internal/models"
)

const (
	searchTypeShow  = "show"
	searchTypeMovie = "movie"
)

// Resolver maps a local MediaIdentity to a Trakt RemoteReference.
// It keeps no state between calls: no cache, no retries.
type Resolver struct {
	doer Doer
}

// NewResolver creates a resolver issuing lookups through doer.
func NewResolver(doer Doer) *Resolver {
	return &Resolver{doer: doer}
}

// Resolve finds the Trakt show (for episodes) or movie for identity.
//
// External ids are tried first in ProviderPriority order; the first lookup
// returning a match wins and title search is skipped. For episodes an id hit
// only counts when its show title equals the series title. Otherwise a title
// search picks the exact case-insensitive title match, then the year match
// among those, then the first result. Episodes resolve to their show; season
// and episode numbers are carried separately by the caller.
//
// Returns an error wrapping ErrNotFound when nothing matches. Lookup
// failures other than empty results are returned unchanged.
func (r *Resolver) Resolve(ctx context.Context, identity models.MediaIdentity, kind models.MediaKind) (models.RemoteReference, error) {
	searchType, err := searchTypeFor(kind)
	if err != nil {
		return models.RemoteReference{}, err
	}

	// Episode payloads carry the episode's own ids, so a show hit must also
	// carry the series title.
	var wantTitle string
	if kind == models.KindEpisode {
		wantTitle = strings.TrimSpace(identity.Title)
	}

	for _, provider := range models.ProviderPriority {
		id := identity.ExternalID(provider)
		if id == "" || !validExternalID(provider, id) {
			continue
		}

		ref, found, err := r.lookupByID(ctx, provider, id, searchType, wantTitle)
		if err != nil {
			metrics.RecordResolution("error")
			return models.RemoteReference{}, err
		}
		if found {
			metrics.RecordResolution(string(models.ResolvedViaExternalID))
			logging.Ctx(ctx).Debug().
				Str("provider", string(provider)).
				Int("trakt_id", ref.TraktID).
				Msg("Resolved media by external id")
			return ref, nil
		}
	}

	if strings.TrimSpace(identity.Title) == "" {
		metrics.RecordResolution("not_found")
		return models.RemoteReference{}, fmt.Errorf("no usable identifiers: %w", ErrNotFound)
	}

	ref, found, err := r.searchByTitle(ctx, identity, searchType)
	if err != nil {
		metrics.RecordResolution("error")
		return models.RemoteReference{}, err
	}
	if !found {
		metrics.RecordResolution("not_found")
		return models.RemoteReference{}, fmt.Errorf("%q: %w", identity.Title, ErrNotFound)
	}

	metrics.RecordResolution(string(models.ResolvedViaTitleSearch))
	logging.Ctx(ctx).Debug().
		Str("title", identity.Title).
		Int("trakt_id", ref.TraktID).
		Msg("Resolved media by title search")
	return ref, nil
}

// lookupByID queries GET /search/{provider}/{id}?type={searchType}.
// A 404 counts as an empty result. When wantTitle is set, results with a
// different title are skipped.
func (r *Resolver) lookupByID(ctx context.Context, provider models.Provider, id, searchType, wantTitle string) (models.RemoteReference, bool, error) {
	req := Request{
		Method: http.MethodGet,
		Path:   "/search/" + string(provider) + "/" + url.PathEscape(id),
		Query:  url.Values{"type": []string{searchType}},
	}

	results, err := r.search(ctx, req)
	if err != nil {
		return models.RemoteReference{}, false, err
	}

	for i := range results {
		title, year, ids, ok := results[i].Media(searchType)
		if !ok || ids.Trakt == 0 {
			continue
		}
		if wantTitle != "" && !strings.EqualFold(strings.TrimSpace(title), wantTitle) {
			logging.Ctx(ctx).Debug().
				Str("provider", string(provider)).
				Str("title", title).
				Msg("Ignoring external id match with a different title")
			continue
		}
		return toReference(title, year, ids, models.ResolvedViaExternalID), true, nil
	}
	return models.RemoteReference{}, false, nil
}

// searchByTitle queries GET /search/{searchType}?query=... by title only;
// the year is applied by bestMatch, not as a remote filter.
func (r *Resolver) searchByTitle(ctx context.Context, identity models.MediaIdentity, searchType string) (models.RemoteReference, bool, error) {
	results, err := r.search(ctx, Request{
		Method: http.MethodGet,
		Path:   "/search/" + searchType,
		Query:  url.Values{"query": []string{identity.Title}},
	})
	if err != nil {
		return models.RemoteReference{}, false, err
	}

	best, ok := bestMatch(results, searchType, identity.Title, identity.Year)
	if !ok {
		return models.RemoteReference{}, false, nil
	}
	title, year, ids, _ := best.Media(searchType)
	return toReference(title, year, ids, models.ResolvedViaTitleSearch), true, nil
}

func (r *Resolver) search(ctx context.Context, req Request) ([]SearchResult, error) {
	resp, err := r.doer.Do(ctx, req, false)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	if len(resp.Body) == 0 {
		return nil, nil
	}

	var results []SearchResult
	if err := resp.Decode(&results); err != nil {
		return nil, err
	}
	return results, nil
}

// bestMatch applies the title tie-break: exact case-insensitive title first,
// then year among exact matches, then the first usable result.
func bestMatch(results []SearchResult, searchType, title string, year *int) (*SearchResult, bool) {
	var first, exact, exactYear *SearchResult
	want := strings.TrimSpace(title)

	for i := range results {
		candidate := &results[i]
		t, y, ids, ok := candidate.Media(searchType)
		if !ok || ids.Trakt == 0 {
			continue
		}
		if first == nil {
			first = candidate
		}
		if !strings.EqualFold(strings.TrimSpace(t), want) {
			continue
		}
		if exact == nil {
			exact = candidate
		}
		if year != nil && y == *year && exactYear == nil {
			exactYear = candidate
		}
	}

	switch {
	case exactYear != nil:
		return exactYear, true
	case exact != nil:
		return exact, true
	case first != nil:
		return first, true
	default:
		return nil, false
	}
}

func toReference(title string, year int, ids IDs, via models.ResolvedVia) models.RemoteReference {
	return models.RemoteReference{
		TraktID:     ids.Trakt,
		Slug:        ids.Slug,
		Title:       title,
		Year:        year,
		ResolvedVia: via,
	}
}

func searchTypeFor(kind models.MediaKind) (string, error) {
	switch kind {
	case models.KindEpisode:
		return searchTypeShow, nil
	case models.KindMovie:
		return searchTypeMovie, nil
	default:
		return "", fmt.Errorf("cannot resolve media kind %q", kind)
	}
}

// validExternalID drops ids that cannot be valid for their provider:
// tvdb and tmdb are positive integers, imdb ids start with "tt".
func validExternalID(provider models.Provider, id string) bool {
	switch provider {
	case models.ProviderTVDB, models.ProviderTMDB:
		n, err := strconv.Atoi(id)
		return err == nil && n > 0
	case models.ProviderIMDB:
		return strings.HasPrefix(strings.ToLower(id), "tt") && len(id) > 2
	default:
		return false
	}
}
