package log

import (
	"io"

	"github.com/rs/zerolog"
)

// Logger is the interface that the loggers used by the library will use.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
	// WithField returns a logger that adds the field to every entry.
	WithField(key string, value interface{}) Logger
}

// Dummy logger doesn't log anything.
var Dummy = &dummy{}

type dummy struct{}

func (d *dummy) Infof(format string, args ...interface{})       {}
func (d *dummy) Warnf(format string, args ...interface{})       {}
func (d *dummy) Errorf(format string, args ...interface{})      {}
func (d *dummy) Debugf(format string, args ...interface{})      {}
func (d *dummy) WithField(key string, value interface{}) Logger { return d }

type logger struct {
	l zerolog.Logger
}

// NewZerolog returns a logger backed by zerolog writing to out. When pretty
// is set, entries are written in the human console format.
func NewZerolog(out io.Writer, debug, pretty bool) Logger {
	if pretty {
		out = zerolog.ConsoleWriter{Out: out}
	}

	lvl := zerolog.InfoLevel
	if debug {
		lvl = zerolog.DebugLevel
	}

	l := zerolog.New(out).Level(lvl).With().Timestamp().Logger()
	return &logger{l: l}
}

func (l *logger) Infof(format string, args ...interface{}) {
	l.l.Info().Msgf(format, args...)
}

func (l *logger) Warnf(format string, args ...interface{}) {
	l.l.Warn().Msgf(format, args...)
}

func (l *logger) Errorf(format string, args ...interface{}) {
	l.l.Error().Msgf(format, args...)
}

func (l *logger) Debugf(format string, args ...interface{}) {
	l.l.Debug().Msgf(format, args...)
}

func (l *logger) WithField(key string, value interface{}) Logger {
	return &logger{l: l.l.With().Interface(key, value).Logger()}
}
