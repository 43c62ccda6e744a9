// Package logger provides a thin wrapper around zerolog.Logger with the
// constructors used throughout the auth service. Embedding zerolog.Logger
// exposes the full zerolog API (Debug, Info, Warn, Error, Fatal, ...)
// directly on *Logger.
package logger

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger wraps zerolog.Logger so helper methods can be added without
// modifying the upstream type.
type Logger struct {
	zerolog.Logger
}

// New constructs a JSON logger writing to stdout. The service label is
// attached to every entry so logs from different components can be filtered.
func New(service string) *Logger {
	l := zerolog.New(os.Stdout).With().
		Str("service", service).
		Timestamp().
		Logger()
	return &Logger{l}
}

// Nop returns a *Logger that discards all output. Intended for tests.
func Nop() *Logger {
	return &Logger{zerolog.Nop()}
}

// FromContext returns the logger attached to ctx by zerolog's WithContext,
// falling back to zerolog's global logger when none is present.
func FromContext(ctx context.Context) *Logger {
	return &Logger{*log.Ctx(ctx)}
}
