// Embytrakt - Emby to Trakt Playback Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/embytrakt

/*
Package sync turns normalized playback events into Trakt list mutations.

Engine.ProcessEvent evaluates a fixed dispatch table (first match wins):

 1. media kind other: ignored, "unsupported media kind"
 2. stop: mark watched
 3. progress: mark watched at or above the watched threshold (80%),
    otherwise ignored, "insufficient progress"
 4. markPlayed: mark watched; markUnplayed: remove from history
 5. rate: add to or remove from favorites depending on the favorite flag
 6. start, pause, unpause: ignored, "non-mutating event"

A mutating event is validated, checked against the credential store (no
network calls when Trakt is not configured), resolved to a Trakt reference,
and then applied. Transient failures are retried with a fixed backoff;
everything else is reported as a Failed outcome with an ErrorKind.

After a successful watched or favorite change the engine mirrors the item
into the Trakt collection. That step is best effort and never changes the
outcome.

Every outcome is recorded in the sync metrics. The engine keeps no state
between events; marking the same item watched twice relies on Trakt's
upsert semantics.
*/
package sync
