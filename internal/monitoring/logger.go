// Package monitoring holds the process-wide diagnostic logger.
package monitoring

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var (
	level = zerolog.InfoLevel
	base  = newConsoleLogger(os.Stderr)
)

func newConsoleLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
		Level(level).With().Timestamp().Logger()
}

// Logf is the package-level diagnostic logger. It defaults to an info-level
// zerolog message but may be replaced by SetLogger. Tests or production code
// can redirect or mute it.
var Logf func(format string, v ...interface{}) = defaultLogf

func defaultLogf(format string, v ...interface{}) {
	base.Info().Msgf(format, v...)
}

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// SetOutput sends structured output to w and restores the default Logf.
// Passing nil discards everything.
func SetOutput(w io.Writer) {
	if w == nil {
		base = zerolog.Nop()
	} else {
		base = newConsoleLogger(w)
	}
	Logf = defaultLogf
}

// SetLevel sets the minimum level by name ("debug", "info", "warn", ...).
func SetLevel(name string) error {
	lvl, err := zerolog.ParseLevel(name)
	if err != nil {
		return err
	}
	level = lvl
	base = base.Level(lvl)
	return nil
}

// With attaches a string field to every subsequent message, e.g. a run ID.
func With(key, value string) {
	base = base.With().Str(key, value).Logger()
}

// Logger returns the underlying structured logger for callers that want to
// attach typed fields.
func Logger() *zerolog.Logger {
	return &base
}

// Debugf logs at debug level.
func Debugf(format string, v ...interface{}) {
	base.Debug().Msgf(format, v...)
}

// Warnf logs at warn level.
func Warnf(format string, v ...interface{}) {
	base.Warn().Msgf(format, v...)
}

// Fatalf logs at fatal level and exits the process with status 1.
func Fatalf(format string, v ...interface{}) {
	base.Fatal().Msgf(format, v...)
}
