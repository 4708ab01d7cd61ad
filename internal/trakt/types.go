// Embytrakt - Emby to Trakt Playback Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/embytrakt

package trakt

// ============================================================================
// Trakt API wire types
// ============================================================================
// API Reference: https://trakt.docs.apiary.io/

// IDs identifies a show or movie across catalogs.
type IDs struct {
	Trakt int    `json:"trakt,omitempty"`
	Slug  string `json:"slug,omitempty"`
	TVDB  int    `json:"tvdb,omitempty"`
	IMDB  string `json:"imdb,omitempty"`
	TMDB  int    `json:"tmdb,omitempty"`
}

// Show is a Trakt show summary.
type Show struct {
	Title string `json:"title"`
	Year  int    `json:"year,omitempty"`
	IDs   IDs    `json:"ids"`
}

// Movie is a Trakt movie summary.
type Movie struct {
	Title string `json:"title"`
	Year  int    `json:"year,omitempty"`
	IDs   IDs    `json:"ids"`
}

// SearchResult is one entry of a /search response.
type SearchResult struct {
	Type  string  `json:"type"` // "show", "movie", "episode"
	Score float64 `json:"score"`
	Show  *Show   `json:"show,omitempty"`
	Movie *Movie  `json:"movie,omitempty"`
}

// Media returns the show or movie of the result matching searchType.
func (r *SearchResult) Media(searchType string) (title string, year int, ids IDs, ok bool) {
	switch searchType {
	case searchTypeShow:
		if r.Show != nil {
			return r.Show.Title, r.Show.Year, r.Show.IDs, true
		}
	case searchTypeMovie:
		if r.Movie != nil {
			return r.Movie.Title, r.Movie.Year, r.Movie.IDs, true
		}
	}
	return "", 0, IDs{}, false
}

// SyncEpisode is an episode number inside a sync payload.
type SyncEpisode struct {
	Number int `json:"number"`
}

// SyncSeason groups episodes of one season inside a sync payload.
type SyncSeason struct {
	Number   int           `json:"number"`
	Episodes []SyncEpisode `json:"episodes"`
}

// SyncShow is a show entry of a sync payload.
type SyncShow struct {
	Title   string       `json:"title,omitempty"`
	Year    int          `json:"year,omitempty"`
	IDs     IDs          `json:"ids"`
	Seasons []SyncSeason `json:"seasons,omitempty"`
}

// SyncMovie is a movie entry of a sync payload.
type SyncMovie struct {
	Title string `json:"title,omitempty"`
	Year  int    `json:"year,omitempty"`
	IDs   IDs    `json:"ids"`
}

// SyncRequest is the body of the /sync/history, /sync/collection and
// /sync/favorites endpoints and their /remove variants.
type SyncRequest struct {
	Shows  []SyncShow  `json:"shows,omitempty"`
	Movies []SyncMovie `json:"movies,omitempty"`
}

// SyncStats counts items affected by a sync call.
type SyncStats struct {
	Movies   int `json:"movies"`
	Shows    int `json:"shows,omitempty"`
	Seasons  int `json:"seasons,omitempty"`
	Episodes int `json:"episodes"`
}

// SyncNotFound lists payload entries Trakt could not match.
type SyncNotFound struct {
	Movies []SyncMovie `json:"movies"`
	Shows  []SyncShow  `json:"shows"`
}

// SyncResponse is the response of a sync call.
type SyncResponse struct {
	Added    SyncStats    `json:"added"`
	Deleted  SyncStats    `json:"deleted"`
	Existing SyncStats    `json:"existing"`
	NotFound SyncNotFound `json:"not_found"`
}

// Empty reports whether the response lists no unmatched entries.
func (r *SyncResponse) Empty() bool {
	return len(r.NotFound.Movies) == 0 && len(r.NotFound.Shows) == 0
}

// tokenRequest is the body of POST /oauth/token for a refresh grant.
type tokenRequest struct {
	RefreshToken string `json:"refresh_token"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RedirectURI  string `json:"redirect_uri"`
	GrantType    string `json:"grant_type"`
}

// Token is the response of POST /oauth/token.
type Token struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	Scope        string `json:"scope"`
	CreatedAt    int64  `json:"created_at"`
}

// UserSettings is the subset of GET /users/settings used by health checks.
type UserSettings struct {
	User struct {
		Username string `json:"username"`
		VIP      bool   `json:"vip"`
	} `json:"user"`
}
