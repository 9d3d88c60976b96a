// Package logging builds the structured logger used by every binary and
// host layer in this repo. The market engine itself never logs; hosts
// attach request-scoped loggers to the context and the engine's errors
// carry everything worth reporting.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options configures the structured logger.
type Options struct {
	// Service is stamped on every line.
	Service string

	// Level is the minimum emitted level. NoLevel means info.
	Level zerolog.Level

	// Console switches from JSON lines to a human-readable writer.
	Console bool

	// Output defaults to os.Stdout.
	Output io.Writer
}

// New builds the root logger.
func New(opts Options) zerolog.Logger {
	if opts.Level == zerolog.NoLevel {
		opts.Level = zerolog.InfoLevel
	}

	var output io.Writer = opts.Output
	if output == nil {
		output = os.Stdout
	}
	if opts.Console {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: "15:04:05",
		}
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano

	return zerolog.
		New(output).
		With().
		Timestamp().
		Str("service", opts.Service).
		Logger().
		Level(opts.Level)
}

// ParseLevel maps a config string to a level, defaulting to info on
// anything unrecognized or empty.
func ParseLevel(value string) zerolog.Level {
	levelString := strings.ToLower(strings.TrimSpace(value))
	if levelString == "" {
		return zerolog.InfoLevel
	}
	if lvl, err := zerolog.ParseLevel(levelString); err == nil {
		return lvl
	}
	return zerolog.InfoLevel
}
