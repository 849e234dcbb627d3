package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// New builds the process logger. DEV gets a human readable console writer,
// every other environment gets JSON lines on w.
func New(w io.Writer, level, env string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	out := w
	if env == "DEV" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}

// Setup installs the logger as the zerolog global logger and returns it
func Setup(level, env string) zerolog.Logger {
	logger := New(os.Stderr, level, env)
	log.Logger = logger
	return logger
}

// Component returns a child of the global logger tagged with the component name
func Component(name string) zerolog.Logger {
	return log.Logger.With().Str("component", name).Logger()
}
