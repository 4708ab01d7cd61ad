// Embytrakt - Emby to Trakt Playback Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/embytrakt

package models

import (
	"fmt"
	"strings"
)

// EventType is the normalized kind of playback or library notification.
type EventType string

// Supported event types.
const (
	EventStart        EventType = "start"
	EventStop         EventType = "stop"
	EventProgress     EventType = "progress"
	EventPause        EventType = "pause"
	EventUnpause      EventType = "unpause"
	EventMarkPlayed   EventType = "markPlayed"
	EventMarkUnplayed EventType = "markUnplayed"
	EventRate         EventType = "rate"
)

// MediaKind classifies the item an event refers to.
type MediaKind string

// Supported media kinds. Events for KindOther are acknowledged but never
// mutate remote state.
const (
	KindEpisode MediaKind = "episode"
	KindMovie   MediaKind = "movie"
	KindOther   MediaKind = "other"
)

// Provider names an external catalog whose identifiers can resolve media.
type Provider string

// Known external id providers.
const (
	ProviderTVDB Provider = "tvdb"
	ProviderTMDB Provider = "tmdb"
	ProviderIMDB Provider = "imdb"
)

// ProviderPriority is the fixed order in which external ids are tried.
var ProviderPriority = []Provider{ProviderTVDB, ProviderTMDB, ProviderIMDB}

// MediaIdentity is the local description of a media item.
// ExternalIDs are advisory: they may be absent, stale, or wrong.
type MediaIdentity struct {
	Title       string              `json:"title" validate:"required"`
	Year        *int                `json:"year,omitempty" validate:"omitempty,min=1870,max=2200"`
	Season      *int                `json:"season,omitempty" validate:"omitempty,min=0"`
	Episode     *int                `json:"episode,omitempty" validate:"omitempty,min=0"`
	ExternalIDs map[Provider]string `json:"external_ids,omitempty"`
}

// ExternalID returns the trimmed id for a provider, or "" when absent.
func (m *MediaIdentity) ExternalID(p Provider) string {
	if m.ExternalIDs == nil {
		return ""
	}
	return strings.TrimSpace(m.ExternalIDs[p])
}

// HasExternalIDs reports whether any known provider id is present.
func (m *MediaIdentity) HasExternalIDs() bool {
	for _, p := range ProviderPriority {
		if m.ExternalID(p) != "" {
			return true
		}
	}
	return false
}

// PlaybackEvent is the normalized representation of one inbound notification.
// EventType and MediaKind together determine which mutation, if any, applies.
type PlaybackEvent struct {
	EventType       EventType     `json:"event_type" validate:"required,oneof=start stop progress pause unpause markPlayed markUnplayed rate"`
	MediaKind       MediaKind     `json:"media_kind" validate:"required,oneof=episode movie other"`
	ProgressPercent *float64      `json:"progress_percent,omitempty" validate:"omitempty,min=0,max=100"`
	IsFavorite      *bool         `json:"is_favorite,omitempty"`
	Identity        MediaIdentity `json:"media_identity"`
}

// Describe formats the media item for logs and outcome messages,
// e.g. "Breaking Bad S01E01" or "Inception (2010)".
func (e *PlaybackEvent) Describe() string {
	id := e.Identity
	if e.MediaKind == KindEpisode && id.Season != nil && id.Episode != nil {
		return fmt.Sprintf("%s S%02dE%02d", id.Title, *id.Season, *id.Episode)
	}
	if id.Year != nil {
		return fmt.Sprintf("%s (%d)", id.Title, *id.Year)
	}
	return id.Title
}

// ResolvedVia records how a RemoteReference was found. It is diagnostic only.
type ResolvedVia string

// Resolution strategies.
const (
	ResolvedViaExternalID  ResolvedVia = "externalId"
	ResolvedViaTitleSearch ResolvedVia = "titleSearch"
)

// RemoteReference is the Trakt identity of a show or movie. For episodes it
// identifies the show only; season and episode numbers travel separately.
type RemoteReference struct {
	TraktID     int         `json:"trakt_id"`
	Slug        string      `json:"slug,omitempty"`
	Title       string      `json:"title"`
	Year        int         `json:"year,omitempty"`
	ResolvedVia ResolvedVia `json:"resolved_via"`
}
