// Embytrakt - Emby to Trakt Playback Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/embytrakt

package validation

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/tomtom215/embytrakt/internal/models"
)

// ErrorCodeValidation is the APIError code for validation failures.
const ErrorCodeValidation = "VALIDATION_ERROR"

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// GetValidator returns the process-wide validator, with the playback event
// rules registered. Safe for concurrent use.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterStructValidation(playbackEventRules, models.PlaybackEvent{})
	})
	return validate
}

// playbackEventRules requires season and episode numbers on episodes.
func playbackEventRules(sl validator.StructLevel) {
	event, ok := sl.Current().Interface().(models.PlaybackEvent)
	if !ok || event.MediaKind != models.KindEpisode {
		return
	}
	if event.Identity.Season == nil {
		sl.ReportError(event.Identity.Season, "Season", "Season", "required_for_episode", "")
	}
	if event.Identity.Episode == nil {
		sl.ReportError(event.Identity.Episode, "Episode", "Episode", "required_for_episode", "")
	}
}

// FieldError is one failed rule.
type FieldError struct {
	field   string
	tag     string
	message string
}

// Field returns the struct field name.
func (e FieldError) Field() string { return e.field }

// Tag returns the failed rule, e.g. "required" or "oneof".
func (e FieldError) Tag() string { return e.tag }

// Error returns the human-readable message.
func (e FieldError) Error() string { return e.message }

// RequestValidationError collects every failed rule of one struct.
type RequestValidationError struct {
	errors []FieldError
}

// Errors returns the individual failures.
func (ve *RequestValidationError) Errors() []FieldError {
	return ve.errors
}

// Error joins the individual messages with "; ".
func (ve *RequestValidationError) Error() string {
	if len(ve.errors) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(ve.errors))
	for i, fe := range ve.errors {
		msgs[i] = fe.message
	}
	return strings.Join(msgs, "; ")
}

// ToAPIError renders the failures as an API error envelope. A single
// failure reports its field and tag in Details; several are listed under
// Details["fields"].
func (ve *RequestValidationError) ToAPIError() *models.APIError {
	apiErr := &models.APIError{Code: ErrorCodeValidation, Message: "Validation failed"}

	switch len(ve.errors) {
	case 0:
	case 1:
		fe := ve.errors[0]
		apiErr.Message = fe.message
		apiErr.Details = map[string]interface{}{"field": fe.field, "tag": fe.tag}
	default:
		fields := make([]map[string]interface{}, len(ve.errors))
		msgs := make([]string, len(ve.errors))
		for i, fe := range ve.errors {
			fields[i] = map[string]interface{}{"field": fe.field, "tag": fe.tag, "message": fe.message}
			msgs[i] = fe.field + ": " + fe.message
		}
		apiErr.Message = strings.Join(msgs, "; ")
		apiErr.Details = map[string]interface{}{"fields": fields}
	}
	return apiErr
}

// ValidateStruct validates s. It returns nil when s is valid.
func ValidateStruct(s interface{}) *RequestValidationError {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &RequestValidationError{errors: []FieldError{{field: "unknown", tag: "unknown", message: err.Error()}}}
	}

	out := make([]FieldError, len(fieldErrs))
	for i, fe := range fieldErrs {
		out[i] = FieldError{field: fe.Field(), tag: fe.Tag(), message: message(fe)}
	}
	return &RequestValidationError{errors: out}
}

// ValidatePlaybackEvent validates a normalized event before it may mutate
// remote state. A valid event yields a nil error interface.
func ValidatePlaybackEvent(event *models.PlaybackEvent) error {
	if verr := ValidateStruct(event); verr != nil {
		return verr
	}
	return nil
}

// messages holds per-tag templates. The first %s is the field, the second
// (when present) the rule parameter.
var messages = map[string]string{
	"required":             "%s is required",
	"required_for_episode": "%s is required for episodes",
	"url":                  "%s must be a valid URL",
	"hostname_port":        "%s must be a valid host:port",
	"oneof":                "%s must be one of: %s",
	"gte":                  "%s must be greater than or equal to %s",
	"lte":                  "%s must be less than or equal to %s",
	"gt":                   "%s must be greater than %s",
	"lt":                   "%s must be less than %s",
}

func message(fe validator.FieldError) string {
	field, tag, param := fe.Field(), fe.Tag(), fe.Param()

	if tmpl, ok := messages[tag]; ok {
		if strings.Count(tmpl, "%s") == 2 {
			return fmt.Sprintf(tmpl, field, param)
		}
		return fmt.Sprintf(tmpl, field)
	}

	unit := ""
	if fe.Kind().String() == "string" {
		unit = " characters"
	}
	switch tag {
	case "min":
		return fmt.Sprintf("%s must be at least %s%s", field, param, unit)
	case "max":
		return fmt.Sprintf("%s must be at most %s%s", field, param, unit)
	default:
		return fmt.Sprintf("%s failed %s validation", field, tag)
	}
}
