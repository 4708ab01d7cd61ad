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

	"github.com/tomtom215/embytrakt/internal/models"
)

// SyncList names a Trakt user list that sync calls mutate.
type SyncList string

// Trakt sync lists.
const (
	ListHistory    SyncList = "history"
	ListCollection SyncList = "collection"
	ListFavorites  SyncList = "favorites"
)

// SyncTarget is a resolved item to add to or remove from a list.
// Season and Episode are required for episodes and ignored for movies.
type SyncTarget struct {
	Kind    models.MediaKind
	Ref     models.RemoteReference
	Season  *int
	Episode *int
}

// Client issues authenticated sync calls.
type Client struct {
	doer Doer
}

// NewClient creates a sync client issuing calls through doer.
func NewClient(doer Doer) *Client {
	return &Client{doer: doer}
}

// AddToHistory marks the target as watched.
func (c *Client) AddToHistory(ctx context.Context, target SyncTarget) (*SyncResponse, error) {
	return c.sync(ctx, ListHistory, false, target)
}

// RemoveFromHistory removes all watched entries of the target.
func (c *Client) RemoveFromHistory(ctx context.Context, target SyncTarget) (*SyncResponse, error) {
	return c.sync(ctx, ListHistory, true, target)
}

// AddToFavorites adds the target to the user's favorites.
func (c *Client) AddToFavorites(ctx context.Context, target SyncTarget) (*SyncResponse, error) {
	return c.sync(ctx, ListFavorites, false, target)
}

// RemoveFromFavorites removes the target from the user's favorites.
func (c *Client) RemoveFromFavorites(ctx context.Context, target SyncTarget) (*SyncResponse, error) {
	return c.sync(ctx, ListFavorites, true, target)
}

// AddToCollection adds the target to the user's collection.
func (c *Client) AddToCollection(ctx context.Context, target SyncTarget) (*SyncResponse, error) {
	return c.sync(ctx, ListCollection, false, target)
}

// RemoveFromCollection removes the target from the user's collection.
func (c *Client) RemoveFromCollection(ctx context.Context, target SyncTarget) (*SyncResponse, error) {
	return c.sync(ctx, ListCollection, true, target)
}

// sync posts the payload to /sync/{list} or /sync/{list}/remove.
// Entries reported under not_found yield ErrNotFound.
func (c *Client) sync(ctx context.Context, list SyncList, remove bool, target SyncTarget) (*SyncResponse, error) {
	payload, err := BuildSyncRequest(target)
	if err != nil {
		return nil, err
	}

	path := "/sync/" + string(list)
	if remove {
		path += "/remove"
	}

	resp, err := c.doer.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: payload}, true)
	if err != nil {
		return nil, err
	}

	var result SyncResponse
	if resp.StatusCode == http.StatusNoContent || len(resp.Body) == 0 {
		return &result, nil
	}
	if err := resp.Decode(&result); err != nil {
		return nil, err
	}
	if !result.Empty() {
		return &result, fmt.Errorf("%s: trakt could not match %q: %w", path, target.Ref.Title, ErrNotFound)
	}
	return &result, nil
}

// BuildSyncRequest builds the sync payload for a single show episode or movie.
func BuildSyncRequest(target SyncTarget) (SyncRequest, error) {
	if target.Ref.TraktID == 0 {
		return SyncRequest{}, errors.New("sync target has no trakt id")
	}
	ids := IDs{Trakt: target.Ref.TraktID, Slug: target.Ref.Slug}

	switch target.Kind {
	case models.KindEpisode:
		if target.Season == nil || target.Episode == nil {
			return SyncRequest{}, errors.New("episode sync target needs season and episode numbers")
		}
		return SyncRequest{Shows: []SyncShow{{
			Title: target.Ref.Title,
			Year:  target.Ref.Year,
			IDs:   ids,
			Seasons: []SyncSeason{{
				Number:   *target.Season,
				Episodes: []SyncEpisode{{Number: *target.Episode}},
			}},
		}}}, nil
	case models.KindMovie:
		return SyncRequest{Movies: []SyncMovie{{
			Title: target.Ref.Title,
			Year:  target.Ref.Year,
			IDs:   ids,
		}}}, nil
	default:
		return SyncRequest{}, fmt.Errorf("cannot sync media kind %q", target.Kind)
	}
}
