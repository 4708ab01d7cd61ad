// Embytrakt - Emby to Trakt Playback Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/embytrakt

package sync

import (
	"errors"

	"github.com/tomtom215/embytrakt/internal/trakt"
	"github.com/tomtom215/embytrakt/internal/validation"
)

// Status is the result class of processing one event.
type Status string

// Outcome statuses.
const (
	StatusApplied Status = "applied"
	StatusIgnored Status = "ignored"
	StatusFailed  Status = "failed"
)

// ErrorKind classifies a failed outcome.
type ErrorKind string

// Failure kinds.
const (
	ErrorKindNotConfigured  ErrorKind = "NotConfigured"
	ErrorKindNotFound       ErrorKind = "NotFound"
	ErrorKindAuthExpired    ErrorKind = "AuthExpired"
	ErrorKindTransient      ErrorKind = "TransientError"
	ErrorKindRemoteRejected ErrorKind = "RemoteRejected"
	ErrorKindInvalidEvent   ErrorKind = "InvalidEvent"
)

// Outcome is the value returned for every processed event. Failures are
// values, never panics; Message never contains credentials.
type Outcome struct {
	Status Status `json:"status"`

	// Message is the applied description, the ignore reason, or the
	// failure detail, depending on Status.
	Message string `json:"message"`

	// Kind is set only for StatusFailed.
	Kind ErrorKind `json:"kind,omitempty"`

	// Err is the underlying failure, kept for callers that need more
	// than the kind (e.g. validation details).
	Err error `json:"-"`
}

// Applied reports a successful remote mutation.
func Applied(description string) Outcome {
	return Outcome{Status: StatusApplied, Message: description}
}

// Ignored reports an event that intentionally caused no mutation.
func Ignored(reason string) Outcome {
	return Outcome{Status: StatusIgnored, Message: reason}
}

// Failed reports an event whose mutation could not be applied.
func Failed(kind ErrorKind, detail string) Outcome {
	return Outcome{Status: StatusFailed, Kind: kind, Message: detail}
}

// IsApplied reports whether the mutation was applied.
func (o Outcome) IsApplied() bool { return o.Status == StatusApplied }

// IsIgnored reports whether the event was ignored.
func (o Outcome) IsIgnored() bool { return o.Status == StatusIgnored }

// IsFailed reports whether processing failed.
func (o Outcome) IsFailed() bool { return o.Status == StatusFailed }

// classify maps an error from the Trakt layer to a failure kind.
func classify(err error) ErrorKind {
	var verr *validation.RequestValidationError
	switch {
	case errors.Is(err, trakt.ErrNotConfigured):
		return ErrorKindNotConfigured
	case errors.Is(err, trakt.ErrAuthExpired):
		return ErrorKindAuthExpired
	case errors.Is(err, trakt.ErrNotFound):
		return ErrorKindNotFound
	case errors.Is(err, trakt.ErrTransient):
		return ErrorKindTransient
	case errors.As(err, &verr):
		return ErrorKindInvalidEvent
	default:
		return ErrorKindRemoteRejected
	}
}
