// Embytrakt - Emby to Trakt Playback Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/embytrakt

package models

import (
	"strconv"
	"strings"
)

// ============================================================================
// Emby Webhook Models (requires Emby webhooks plugin)
// ============================================================================
// Emby posts one JSON document per notification, either as the raw request
// body or in the "data" field of a multipart form.

// Emby webhook event names mapped to normalized event types.
var embyEventTypes = map[string]EventType{
	"playback.start":    EventStart,
	"playback.stop":     EventStop,
	"playback.progress": EventProgress,
	"playback.pause":    EventPause,
	"playback.unpause":  EventUnpause,
	"item.markplayed":   EventMarkPlayed,
	"item.markunplayed": EventMarkUnplayed,
	"item.rate":         EventRate,
}

// SupportedEmbyEvents returns the Emby event names the service acts on, sorted.
func SupportedEmbyEvents() []string {
	return []string{
		"item.markplayed",
		"item.markunplayed",
		"item.rate",
		"playback.pause",
		"playback.progress",
		"playback.start",
		"playback.stop",
		"playback.unpause",
	}
}

// EmbyWebhook represents a webhook payload from Emby
type EmbyWebhook struct {
	Title string `json:"Title,omitempty"`
	Event string `json:"Event"`
	Date  string `json:"Date,omitempty"` // ISO timestamp

	User   *EmbyWebhookUser   `json:"User,omitempty"`
	Server *EmbyWebhookServer `json:"Server,omitempty"`
	Item   *EmbyWebhookItem   `json:"Item,omitempty"`

	PlaybackInfo *EmbyPlaybackInfo `json:"PlaybackInfo,omitempty"`

	// Older plugin versions send the position at the top level.
	PlaybackPositionTicks int64 `json:"PlaybackPositionTicks,omitempty"`
}

// EmbyWebhookUser identifies the Emby user that triggered the event
type EmbyWebhookUser struct {
	ID   string `json:"Id"`
	Name string `json:"Name"`
}

// EmbyWebhookServer identifies the sending Emby server
type EmbyWebhookServer struct {
	ID      string `json:"Id"`
	Name    string `json:"Name"`
	Version string `json:"Version,omitempty"`
}

// EmbyWebhookItem describes the library item the event refers to
type EmbyWebhookItem struct {
	ID                string            `json:"Id"`
	Name              string            `json:"Name"`
	Type              string            `json:"Type"` // "Movie", "Episode", "Audio", ...
	SeriesName        string            `json:"SeriesName,omitempty"`
	ParentIndexNumber *int              `json:"ParentIndexNumber,omitempty"` // Season number
	IndexNumber       *int              `json:"IndexNumber,omitempty"`       // Episode number
	ProductionYear    int               `json:"ProductionYear,omitempty"`
	PremiereDate      string            `json:"PremiereDate,omitempty"`
	RunTimeTicks      int64             `json:"RunTimeTicks,omitempty"` // 100ns units
	ProviderIDs       map[string]string `json:"ProviderIds,omitempty"`  // Imdb, Tmdb, Tvdb, ...
	UserData          *EmbyUserData     `json:"UserData,omitempty"`
}

// EmbyUserData carries per-user item state
type EmbyUserData struct {
	IsFavorite bool `json:"IsFavorite"`
	Played     bool `json:"Played,omitempty"`
}

// EmbyPlaybackInfo carries the playback position of a session event
type EmbyPlaybackInfo struct {
	PositionTicks      int64  `json:"PositionTicks"`
	PlayedToCompletion bool   `json:"PlayedToCompletion,omitempty"`
	DeviceName         string `json:"DeviceName,omitempty"`
	ClientName         string `json:"ClientName,omitempty"`
}

// ============================================================================
// Helper Methods for Emby Webhooks
// ============================================================================

// NormalizedEventType maps the Emby event name to an EventType.
// The second return value is false for events the service does not handle.
func (w *EmbyWebhook) NormalizedEventType() (EventType, bool) {
	et, ok := embyEventTypes[strings.ToLower(strings.TrimSpace(w.Event))]
	return et, ok
}

// GetMediaKind returns the normalized media kind of the item
func (w *EmbyWebhook) GetMediaKind() MediaKind {
	if w.Item == nil {
		return KindOther
	}
	switch strings.ToLower(w.Item.Type) {
	case "episode":
		return KindEpisode
	case "movie":
		return KindMovie
	default:
		return KindOther
	}
}

// GetPositionTicks returns the playback position, preferring PlaybackInfo
func (w *EmbyWebhook) GetPositionTicks() int64 {
	if w.PlaybackInfo != nil && w.PlaybackInfo.PositionTicks > 0 {
		return w.PlaybackInfo.PositionTicks
	}
	return w.PlaybackPositionTicks
}

// GetPercentComplete returns the playback progress percentage clamped to
// [0,100], or nil when the runtime is unknown.
func (w *EmbyWebhook) GetPercentComplete() *float64 {
	if w.Item == nil || w.Item.RunTimeTicks <= 0 {
		return nil
	}
	pct := float64(w.GetPositionTicks()) / float64(w.Item.RunTimeTicks) * 100
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return &pct
}

// GetYear returns ProductionYear, falling back to the PremiereDate year.
func (i *EmbyWebhookItem) GetYear() *int {
	if i.ProductionYear > 0 {
		y := i.ProductionYear
		return &y
	}
	if len(i.PremiereDate) >= 4 {
		if y, err := strconv.Atoi(i.PremiereDate[:4]); err == nil && y > 0 {
			return &y
		}
	}
	return nil
}

// ExternalIDs extracts the known provider ids, ignoring key case.
func (i *EmbyWebhookItem) ExternalIDs() map[Provider]string {
	ids := make(map[Provider]string, len(ProviderPriority))
	for key, value := range i.ProviderIDs {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		switch Provider(strings.ToLower(key)) {
		case ProviderTVDB:
			ids[ProviderTVDB] = value
		case ProviderTMDB:
			ids[ProviderTMDB] = value
		case ProviderIMDB:
			ids[ProviderIMDB] = value
		}
	}
	return ids
}

// ToPlaybackEvent converts the webhook into a normalized PlaybackEvent.
// It returns false when the event name is not one the service handles or the
// payload has no item.
func (w *EmbyWebhook) ToPlaybackEvent() (*PlaybackEvent, bool) {
	eventType, ok := w.NormalizedEventType()
	if !ok || w.Item == nil {
		return nil, false
	}

	event := &PlaybackEvent{
		EventType: eventType,
		MediaKind: w.GetMediaKind(),
	}

	item := w.Item
	identity := MediaIdentity{
		Title:       strings.TrimSpace(item.Name),
		ExternalIDs: item.ExternalIDs(),
	}
	switch event.MediaKind {
	case KindEpisode:
		// Episodes resolve through their show.
		if item.SeriesName != "" {
			identity.Title = strings.TrimSpace(item.SeriesName)
		}
		identity.Season = copyInt(item.ParentIndexNumber)
		identity.Episode = copyInt(item.IndexNumber)
	case KindMovie:
		identity.Year = item.GetYear()
	}
	event.Identity = identity

	switch eventType {
	case EventProgress, EventStop:
		event.ProgressPercent = w.GetPercentComplete()
	case EventRate:
		fav := item.UserData != nil && item.UserData.IsFavorite
		event.IsFavorite = &fav
	}

	return event, true
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
