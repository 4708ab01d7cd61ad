// Embytrakt - Emby to Trakt Playback Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/embytrakt

package logging

import (
	"io"
	"regexp"
)

// RedactedValue replaces secret values in log output.
const RedactedValue = "[REDACTED]"

// redactPatterns match a secret-bearing key and its separator in group 1
// and the secret itself afterwards. Only the secret is replaced, so JSON
// log lines stay well formed.
var redactPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(bearer\s+)[A-Za-z0-9._~+/=-]+`),
	regexp.MustCompile(`(?i)(trakt-api-key["']?\s*[:=]\s*["']?)[A-Za-z0-9._-]+`),
	regexp.MustCompile(`(?i)(client_id["']?\s*[:=]\s*["']?)[A-Za-z0-9._-]+`),
	regexp.MustCompile(`(?i)(client_secret["']?\s*[:=]\s*["']?)[A-Za-z0-9._-]+`),
	regexp.MustCompile(`(?i)(refresh_token["']?\s*[:=]\s*["']?)[A-Za-z0-9._-]+`),
	regexp.MustCompile(`(?i)(access_token["']?\s*[:=]\s*["']?)[A-Za-z0-9._-]+`),
}

// Redact scrubs bearer tokens, Trakt API keys and OAuth credentials from s.
func Redact(s string) string {
	if s == "" {
		return s
	}
	for _, re := range redactPatterns {
		s = re.ReplaceAllString(s, "${1}"+RedactedValue)
	}
	return s
}

// RedactingWriter is an io.Writer that redacts secrets before forwarding.
// zerolog writes one complete event per Write call, so patterns never span calls.
type RedactingWriter struct {
	out io.Writer
}

// NewRedactingWriter wraps w with secret redaction.
func NewRedactingWriter(w io.Writer) *RedactingWriter {
	return &RedactingWriter{out: w}
}

// Write implements io.Writer. It reports len(p) on success even when the
// redacted line differs in length.
func (w *RedactingWriter) Write(p []byte) (int, error) {
	if _, err := w.out.Write([]byte(Redact(string(p)))); err != nil {
		return 0, err
	}
	return len(p), nil
}

// SanitizeToken returns a short, non-reversible hint of a token for
// diagnostics, e.g. "abcd...". Empty tokens yield "".
func SanitizeToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 8 {
		return "***"
	}
	return token[:4] + "..."
}
