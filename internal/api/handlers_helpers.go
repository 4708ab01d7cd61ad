// Embytrakt - Emby to Trakt Playback Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/embytrakt

package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/embytrakt/internal/logging"
	"github.com/tomtom215/embytrakt/internal/models"
)

// sanitizeLogValue escapes control characters so a webhook title cannot
// forge log lines.
func sanitizeLogValue(s string) string {
	if strings.IndexFunc(s, isControl) < 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for _, r := range s {
		if isControl(r) {
			fmt.Fprintf(&b, "\\x%02x", r)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isControl(r rune) bool {
	return r < 0x20 || r == 0x7f
}

// respondJSON sends a JSON response with proper headers
func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// respondSuccess sends a response envelope with the given status string and data.
func respondSuccess(w http.ResponseWriter, r *http.Request, httpStatus int, status string, data interface{}) {
	respondJSON(w, httpStatus, &models.APIResponse{
		Status:   status,
		Data:     data,
		Metadata: newMetadata(r),
	})
}

// respondError sends an error envelope. A non-nil err is logged, redacted,
// at warn level for client errors and error level for server errors.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, err error) {
	if err != nil {
		log := logging.Ctx(r.Context())
		event := log.Error()
		if status < http.StatusInternalServerError {
			event = log.Warn()
		}
		event.Int("status", status).
			Str("code", sanitizeLogValue(code)).
			Str("error", sanitizeLogValue(logging.Redact(err.Error()))).
			Msg("API error")
	}

	respondJSON(w, status, &models.APIResponse{
		Status:   models.StatusError,
		Metadata: newMetadata(r),
		Error:    &models.APIError{Code: code, Message: message},
	})
}

func newMetadata(r *http.Request) models.Metadata {
	return models.Metadata{
		Timestamp: time.Now().UTC(),
		RequestID: logging.RequestIDFromContext(r.Context()),
	}
}
