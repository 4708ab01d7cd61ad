// Embytrakt - Emby to Trakt Playback Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/embytrakt

package logging

import (
	"context"
	"log/slog"

	"github.com/rs/zerolog"
)

// SlogHandler is a slog.Handler writing through zerolog, so libraries that
// want a *slog.Logger (sutureslog) end up in the same redacted output.
//
// Attributes from WithAttrs are rendered into the zerolog context right
// away under the group prefix active at that point; groups opened later
// only prefix later attributes.
type SlogHandler struct {
	logger zerolog.Logger
	prefix string
}

// NewSlogHandler wraps the global logger.
func NewSlogHandler() *SlogHandler {
	return &SlogHandler{logger: Logger()}
}

// NewSlogHandlerWithLogger wraps logger.
//
//nolint:gocritic // zerolog.Logger is passed by value
func NewSlogHandlerWithLogger(logger zerolog.Logger) *SlogHandler {
	return &SlogHandler{logger: logger}
}

// Enabled implements slog.Handler.
func (h *SlogHandler) Enabled(_ context.Context, level slog.Level) bool {
	zl := slogToZerologLevel(level)
	return zl >= h.logger.GetLevel() && zl >= zerolog.GlobalLevel()
}

// Handle implements slog.Handler.
//
//nolint:gocritic // slog.Record is passed by value per slog.Handler
func (h *SlogHandler) Handle(_ context.Context, record slog.Record) error {
	f := fields{}
	record.Attrs(func(attr slog.Attr) bool {
		f.add(h.prefix, attr)
		return true
	})
	h.logger.WithLevel(slogToZerologLevel(record.Level)).Fields(map[string]interface{}(f)).Msg(record.Message)
	return nil
}

// WithAttrs implements slog.Handler.
func (h *SlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	f := fields{}
	for _, attr := range attrs {
		f.add(h.prefix, attr)
	}
	return &SlogHandler{
		logger: h.logger.With().Fields(map[string]interface{}(f)).Logger(),
		prefix: h.prefix,
	}
}

// WithGroup implements slog.Handler. Groups become dotted key prefixes.
func (h *SlogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &SlogHandler{logger: h.logger, prefix: h.prefix + name + "."}
}

// fields collects slog attributes as zerolog fields.
type fields map[string]interface{}

func (f fields) add(prefix string, attr slog.Attr) {
	v := attr.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		inner := prefix
		if attr.Key != "" {
			inner += attr.Key + "."
		}
		for _, ga := range v.Group() {
			f.add(inner, ga)
		}
		return
	}
	if attr.Key == "" {
		return
	}

	key := prefix + attr.Key
	switch v.Kind() {
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			f[key] = err.Error()
			return
		}
		f[key] = v.Any()
	case slog.KindDuration:
		f[key] = v.Duration()
	case slog.KindTime:
		f[key] = v.Time()
	default:
		// String, Int64, Uint64, Float64 and Bool.
		f[key] = v.Any()
	}
}

// slogToZerologLevel converts slog.Level to zerolog.Level.
func slogToZerologLevel(level slog.Level) zerolog.Level {
	switch {
	case level < slog.LevelDebug:
		return zerolog.TraceLevel
	case level < slog.LevelInfo:
		return zerolog.DebugLevel
	case level < slog.LevelWarn:
		return zerolog.InfoLevel
	case level < slog.LevelError:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

// NewSlogLogger returns a *slog.Logger over the global zerolog logger.
//
//	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
func NewSlogLogger() *slog.Logger {
	return slog.New(NewSlogHandler())
}
