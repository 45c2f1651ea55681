package icontext

import (
	"os"

	"github.com/rs/zerolog"
)

// Logger is the pluggable logging interface every context carries, modeled
// on the teacher engine's types.Config.Logger field. Interceptors, the
// registry, and connectors all log through this interface rather than the
// standard library logger directly, so a host application can redirect
// engine diagnostics into its own structured log sink.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// zerologLogger adapts github.com/rs/zerolog to Logger. It is the default
// used by New when no WithLogger option is supplied.
type zerologLogger struct {
	log zerolog.Logger
}

// DefaultLogger returns a console-friendly zerolog-backed Logger writing to
// stderr, the same role DefaultLogger() plays in the teacher's Config.
func DefaultLogger() Logger {
	return &zerologLogger{log: zerolog.New(os.Stderr).With().Timestamp().Logger()}
}

func (l *zerologLogger) Debugf(format string, args ...any) { l.log.Debug().Msgf(format, args...) }
func (l *zerologLogger) Infof(format string, args ...any)  { l.log.Info().Msgf(format, args...) }
func (l *zerologLogger) Warnf(format string, args ...any)  { l.log.Warn().Msgf(format, args...) }
func (l *zerologLogger) Errorf(format string, args ...any) { l.log.Error().Msgf(format, args...) }

// NopLogger discards everything. Useful for tests that don't want log noise.
func NopLogger() Logger { return nopLogger{} }

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}
