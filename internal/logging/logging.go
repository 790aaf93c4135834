// Package logging builds the logger handed to every component. There is no
// package-level logger anywhere in this codebase: constructors receive a
// zerolog.Logger value and derive their own component loggers from it.
package logging

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// New returns a console logger writing to w. With debug set, debug-level
// messages are included and log lines carry the caller location.
func New(w io.Writer, debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	console := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.Kitchen,
	}
	logger := zerolog.New(console).Level(level).With().Timestamp()
	if debug {
		logger = logger.Caller()
	}
	return logger.Logger()
}
