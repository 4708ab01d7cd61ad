// Embytrakt - Emby to Trakt Playback Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/embytrakt

package api

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/embytrakt/internal/logging"
	"github.com/tomtom215/embytrakt/internal/metrics"
	"github.com/tomtom215/embytrakt/internal/models"
	"github.com/tomtom215/embytrakt/internal/sync"
	"github.com/tomtom215/embytrakt/internal/validation"
)

const (
	// WebhookSecretHeader carries the shared webhook secret.
	WebhookSecretHeader = "X-Webhook-Secret"

	// webhookSecretParam is the query parameter alternative to the header,
	// for Emby versions that cannot send custom headers.
	webhookSecretParam = "secret"

	// webhookDataField is the multipart field holding the JSON document.
	webhookDataField = "data"
)

// errBodyTooLarge marks a webhook body over the configured limit.
var errBodyTooLarge = errors.New("request body too large")

// Webhook handles Emby webhook notifications.
// POST /webhook and POST /
//
// Emby posts one notification per request, as a JSON body or as
// multipart/form-data with the JSON document in the "data" field.
//
// Responses:
//   - 200 success: a Trakt mutation was applied
//   - 200 ignored: unsupported event or item type, or no mutation applies
//   - 200 skipped: Trakt is not configured
//   - 400: unparseable payload or invalid event
//   - 401: webhook secret missing or wrong
//   - 413: body over WEBHOOK_MAX_BODY_BYTES
//   - 500: the Trakt mutation failed
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	log := logging.Ctx(r.Context())

	if !h.authorizedWebhook(r) {
		metrics.RecordWebhookRejected("unauthorized")
		respondError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Webhook secret missing or invalid", nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxBodyBytes)
	webhook, err := decodeWebhook(r, h.cfg.MaxBodyBytes)
	if err != nil {
		metrics.RecordWebhookRejected("decode")
		if errors.Is(err, errBodyTooLarge) {
			respondError(w, r, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Webhook body exceeds the size limit", nil)
			return
		}
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Failed to parse webhook payload", err)
		return
	}

	event, ok := webhook.ToPlaybackEvent()
	if !ok {
		metrics.RecordWebhookRejected("unsupported")
		log.Debug().
			Str("event", sanitizeLogValue(webhook.Event)).
			Msg("Ignoring unsupported webhook event")
		respondSuccess(w, r, http.StatusOK, models.StatusIgnored, models.WebhookResult{
			Message: "Unsupported event or media type",
		})
		return
	}

	metrics.RecordWebhookEvent(string(event.EventType), string(event.MediaKind))
	log.Info().
		Str("event", string(event.EventType)).
		Str("media_kind", string(event.MediaKind)).
		Str("media", sanitizeLogValue(event.Describe())).
		Msg("Webhook received")

	out := h.engine.ProcessEvent(r.Context(), *event)
	h.respondOutcome(w, r, event, out)
}

// respondOutcome maps a sync outcome onto the response envelope.
func (h *Handler) respondOutcome(w http.ResponseWriter, r *http.Request, event *models.PlaybackEvent, out sync.Outcome) {
	result := models.WebhookResult{
		Message:   out.Message,
		Event:     event.EventType,
		MediaKind: event.MediaKind,
		Media:     event.Describe(),
	}

	switch {
	case out.IsApplied():
		respondSuccess(w, r, http.StatusOK, models.StatusSuccess, result)
	case out.IsIgnored():
		respondSuccess(w, r, http.StatusOK, models.StatusIgnored, result)
	case out.Kind == sync.ErrorKindNotConfigured:
		respondSuccess(w, r, http.StatusOK, models.StatusSkipped, result)
	case out.Kind == sync.ErrorKindInvalidEvent:
		var verr *validation.RequestValidationError
		if errors.As(out.Err, &verr) {
			respondJSON(w, http.StatusBadRequest, &models.APIResponse{
				Status:   models.StatusError,
				Data:     result,
				Metadata: newMetadata(r),
				Error:    verr.ToAPIError(),
			})
			return
		}
		respondError(w, r, http.StatusBadRequest, errorCode(out.Kind), out.Message, nil)
	default:
		respondJSON(w, http.StatusInternalServerError, &models.APIResponse{
			Status:   models.StatusError,
			Data:     result,
			Metadata: newMetadata(r),
			Error:    &models.APIError{Code: errorCode(out.Kind), Message: out.Message},
		})
	}
}

// errorCode converts a failure kind into an API error code.
func errorCode(kind sync.ErrorKind) string {
	switch kind {
	case sync.ErrorKindNotConfigured:
		return "NOT_CONFIGURED"
	case sync.ErrorKindNotFound:
		return "NOT_FOUND"
	case sync.ErrorKindAuthExpired:
		return "AUTH_EXPIRED"
	case sync.ErrorKindTransient:
		return "TRANSIENT_ERROR"
	case sync.ErrorKindInvalidEvent:
		return "VALIDATION_ERROR"
	default:
		return "REMOTE_REJECTED"
	}
}

// authorizedWebhook checks the shared secret in constant time.
// With no secret configured every request is accepted.
func (h *Handler) authorizedWebhook(r *http.Request) bool {
	if h.cfg.WebhookSecret == "" {
		return true
	}
	provided := r.Header.Get(WebhookSecretHeader)
	if provided == "" {
		provided = r.URL.Query().Get(webhookSecretParam)
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(h.cfg.WebhookSecret)) == 1
}

// decodeWebhook parses the notification from a JSON body, a multipart form
// with a "data" field, or as a last resort a JSON or urlencoded body sent
// without a useful content type.
func decodeWebhook(r *http.Request, maxMemory int64) (*models.EmbyWebhook, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch {
	case mediaType == "application/json" || strings.HasSuffix(mediaType, "+json"):
		body, err := readBody(r.Body)
		if err != nil {
			return nil, err
		}
		return unmarshalWebhook(body)

	case mediaType == "multipart/form-data":
		if err := r.ParseMultipartForm(maxMemory); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				return nil, errBodyTooLarge
			}
			return nil, fmt.Errorf("parse multipart form: %w", err)
		}
		return unmarshalField(r.FormValue(webhookDataField))

	default:
		body, err := readBody(r.Body)
		if err != nil {
			return nil, err
		}
		if webhook, jsonErr := unmarshalWebhook(body); jsonErr == nil {
			return webhook, nil
		}
		values, err := url.ParseQuery(string(body))
		if err != nil {
			return nil, fmt.Errorf("body is neither JSON nor form data: %w", err)
		}
		if data := values.Get(webhookDataField); data != "" {
			return unmarshalField(data)
		}
		// A flat form carries no item, so it converts to an ignored event.
		return &models.EmbyWebhook{Event: values.Get("Event"), Title: values.Get("Title")}, nil
	}
}

func readBody(body io.Reader) ([]byte, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, errBodyTooLarge
		}
		return nil, fmt.Errorf("read body: %w", err)
	}
	return data, nil
}

// unmarshalField decodes the JSON document of a form field. An empty field
// yields an empty notification, which is ignored downstream.
func unmarshalField(data string) (*models.EmbyWebhook, error) {
	if strings.TrimSpace(data) == "" {
		return &models.EmbyWebhook{}, nil
	}
	return unmarshalWebhook([]byte(data))
}

func unmarshalWebhook(body []byte) (*models.EmbyWebhook, error) {
	var webhook models.EmbyWebhook
	if err := json.Unmarshal(body, &webhook); err != nil {
		return nil, fmt.Errorf("decode webhook JSON: %w", err)
	}
	return &webhook, nil
}
