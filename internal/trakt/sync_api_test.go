// Embytrakt - Emby to Trakt Playback Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/embytrakt

package trakt

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/embytrakt/internal/models"
)

func episodeTarget() SyncTarget {
	return SyncTarget{
		Kind:    models.KindEpisode,
		Ref:     models.RemoteReference{TraktID: 1388, Slug: "breaking-bad", Title: "Breaking Bad", Year: 2008},
		Season:  intPtr(2),
		Episode: intPtr(5),
	}
}

func movieTarget() SyncTarget {
	return SyncTarget{
		Kind: models.KindMovie,
		Ref:  models.RemoteReference{TraktID: 481, Title: "The Matrix", Year: 1999},
	}
}

func TestBuildSyncRequest_Episode(t *testing.T) {
	req, err := BuildSyncRequest(episodeTarget())
	checkNoError(t, err)

	if len(req.Movies) != 0 || len(req.Shows) != 1 {
		t.Fatalf("unexpected payload shape: %+v", req)
	}
	show := req.Shows[0]
	checkIntEqual(t, "show trakt id", show.IDs.Trakt, 1388)
	checkStringEqual(t, "show slug", show.IDs.Slug, "breaking-bad")
	if len(show.Seasons) != 1 || len(show.Seasons[0].Episodes) != 1 {
		t.Fatalf("unexpected seasons: %+v", show.Seasons)
	}
	checkIntEqual(t, "season", show.Seasons[0].Number, 2)
	checkIntEqual(t, "episode", show.Seasons[0].Episodes[0].Number, 5)
}

func TestBuildSyncRequest_Movie(t *testing.T) {
	req, err := BuildSyncRequest(movieTarget())
	checkNoError(t, err)

	if len(req.Shows) != 0 || len(req.Movies) != 1 {
		t.Fatalf("unexpected payload shape: %+v", req)
	}
	checkIntEqual(t, "movie trakt id", req.Movies[0].IDs.Trakt, 481)
	checkIntEqual(t, "movie year", req.Movies[0].Year, 1999)
}

func TestBuildSyncRequest_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		target SyncTarget
	}{
		{"no trakt id", SyncTarget{Kind: models.KindMovie}},
		{"episode without numbers", SyncTarget{Kind: models.KindEpisode, Ref: models.RemoteReference{TraktID: 1}}},
		{"other kind", SyncTarget{Kind: models.KindOther, Ref: models.RemoteReference{TraktID: 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := BuildSyncRequest(tt.target); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestClient_SyncPaths(t *testing.T) {
	f := newFakeTrakt(t)
	for _, p := range []string{
		"/sync/history", "/sync/history/remove",
		"/sync/favorites", "/sync/favorites/remove",
		"/sync/collection", "/sync/collection/remove",
	} {
		f.handle("POST "+p, okHandler)
	}

	client := NewClient(newTestTransport(f, configuredCreds(nil), time.Millisecond))
	ctx := context.Background()
	target := movieTarget()

	calls := []struct {
		path string
		fn   func(context.Context, SyncTarget) (*SyncResponse, error)
	}{
		{"/sync/history", client.AddToHistory},
		{"/sync/history/remove", client.RemoveFromHistory},
		{"/sync/favorites", client.AddToFavorites},
		{"/sync/favorites/remove", client.RemoveFromFavorites},
		{"/sync/collection", client.AddToCollection},
		{"/sync/collection/remove", client.RemoveFromCollection},
	}
	for _, c := range calls {
		_, err := c.fn(ctx, target)
		checkNoError(t, err)
		checkIntEqual(t, c.path, f.count("POST "+c.path), 1)
	}

	for _, r := range f.recorded() {
		checkStringEqual(t, "auth on "+r.Path, r.Auth, "Bearer old-access")
		var body SyncRequest
		if err := json.Unmarshal([]byte(r.Body), &body); err != nil {
			t.Fatalf("body of %s is not a sync payload: %v", r.Path, err)
		}
		if len(body.Movies) != 1 || body.Movies[0].IDs.Trakt != 481 {
			t.Errorf("unexpected body on %s: %s", r.Path, r.Body)
		}
	}
}

func TestClient_NotFoundEntries(t *testing.T) {
	f := newFakeTrakt(t)
	f.handle("POST /sync/history", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusCreated, SyncResponse{
			NotFound: SyncNotFound{Shows: []SyncShow{{IDs: IDs{Trakt: 1388}}}},
		})
	})

	client := NewClient(newTestTransport(f, configuredCreds(nil), time.Millisecond))
	_, err := client.AddToHistory(context.Background(), episodeTarget())
	checkErrorIs(t, err, ErrNotFound)
	if !strings.Contains(err.Error(), "Breaking Bad") {
		t.Errorf("error should name the item: %v", err)
	}
}

func TestClient_NoContent(t *testing.T) {
	f := newFakeTrakt(t)
	f.handle("POST /sync/favorites/remove", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	client := NewClient(newTestTransport(f, configuredCreds(nil), time.Millisecond))
	resp, err := client.RemoveFromFavorites(context.Background(), movieTarget())
	checkNoError(t, err)
	if resp == nil {
		t.Fatal("expected empty response")
	}
}

func TestClient_NotConfigured(t *testing.T) {
	f := newFakeTrakt(t)
	client := NewClient(newTestTransport(f, NewCredentials("client-id", "client-secret", "", "", nil), time.Millisecond))

	_, err := client.AddToHistory(context.Background(), movieTarget())
	checkErrorIs(t, err, ErrNotConfigured)
	checkIntEqual(t, "network requests", f.total(), 0)
}
