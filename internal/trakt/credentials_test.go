// Embytrakt - Emby to Trakt Playback Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/embytrakt

package trakt

import (
	"errors"
	"sync"
	"testing"
)

func TestCredentials_Configured(t *testing.T) {
	tests := []struct {
		name         string
		id, secret   string
		access       string
		hasClient    bool
		isConfigured bool
		accessErr    error
	}{
		{"fully configured", "id", "secret", "token", true, true, nil},
		{"no access token", "id", "secret", "", true, false, ErrNotConfigured},
		{"no secret", "id", "", "token", false, false, ErrNotConfigured},
		{"no client id", "", "secret", "token", false, false, ErrNotConfigured},
		{"whitespace only", "  ", " ", " ", false, false, ErrNotConfigured},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCredentials(tt.id, tt.secret, tt.access, "", nil)

			if got := c.HasClient(); got != tt.hasClient {
				t.Errorf("HasClient() = %v, want %v", got, tt.hasClient)
			}
			if got := c.IsConfigured(); got != tt.isConfigured {
				t.Errorf("IsConfigured() = %v, want %v", got, tt.isConfigured)
			}
			token, err := c.AccessToken()
			if tt.accessErr != nil {
				checkErrorIs(t, err, tt.accessErr)
				checkStringEqual(t, "token", token, "")
				return
			}
			checkNoError(t, err)
			checkStringEqual(t, "token", token, tt.access)
		})
	}
}

func TestCredentials_ReplaceTokens(t *testing.T) {
	sink := &memorySink{}
	c := configuredCreds(sink)

	checkNoError(t, c.ReplaceTokens("new-access", "new-refresh"))

	token, err := c.AccessToken()
	checkNoError(t, err)
	checkStringEqual(t, "access", token, "new-access")
	checkStringEqual(t, "refresh", c.RefreshToken(), "new-refresh")
	checkIntEqual(t, "sink saves", sink.count(), 1)
	if got := sink.last(); got != [2]string{"new-access", "new-refresh"} {
		t.Errorf("sink saved %v", got)
	}
}

func TestCredentials_ReplaceTokens_KeepsRefreshWhenEmpty(t *testing.T) {
	c := configuredCreds(nil)

	checkNoError(t, c.ReplaceTokens("new-access", ""))
	checkStringEqual(t, "refresh", c.RefreshToken(), "old-refresh")
}

func TestCredentials_ReplaceTokens_SinkFailure(t *testing.T) {
	sink := &memorySink{err: errors.New("read-only filesystem")}
	c := configuredCreds(sink)

	if err := c.ReplaceTokens("new-access", "new-refresh"); err == nil {
		t.Fatal("expected sink error to be returned")
	}

	token, _ := c.AccessToken()
	checkStringEqual(t, "access after sink failure", token, "new-access")
}

func TestCredentials_ConcurrentAccess(t *testing.T) {
	c := configuredCreds(&memorySink{})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = c.ReplaceTokens("access", "refresh")
		}()
		go func() {
			defer wg.Done()
			if _, err := c.AccessToken(); err != nil {
				t.Errorf("AccessToken() error = %v", err)
			}
		}()
	}
	wg.Wait()
}
