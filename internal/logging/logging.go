// Package logging builds the zerolog logger shared by the CLI and pipeline.
package logging

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Field names shared across components.
const (
	FieldCorrelationID = "correlation_id"
	FieldPubID         = "pub_id"
	FieldComponent     = "component"
)

// New returns a logger writing to w at the named level. Human output uses
// zerolog's console writer; otherwise each event is one JSON line.
// Unknown levels fall back to info.
func New(w io.Writer, level string, human bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	if human {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}
