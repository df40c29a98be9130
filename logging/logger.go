// Package logging wraps zerolog with the process-wide logger used by every
// other package.
//
// Structured logs are opt-in. Until Configure is called with a level (or
// TAPPY_LOG_LEVEL is set) the base logger discards everything, which keeps
// the line-oriented stdout/stderr output of the CLI exact.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/TapTrack/tappy-stream/buildinfo"
)

// Config captures options for configuring the global logger.
type Config struct {
	Level  string    // optional log level ("debug", "info", ...); empty disables logging
	Format string    // "json" or "console"; empty means json, the CLI passes console
	Output io.Writer // optional writer (defaults to os.Stderr)
}

var (
	mu   sync.RWMutex
	base = zerolog.Nop()
)

// Configure replaces the base logger.
func Configure(cfg Config) error {
	level := cfg.Level
	if level == "" {
		level = os.Getenv("TAPPY_LOG_LEVEL")
	}
	if level == "" {
		mu.Lock()
		base = zerolog.Nop()
		mu.Unlock()
		return nil
	}

	parsed, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	writer := cfg.Output
	if writer == nil {
		writer = os.Stderr
	}
	switch cfg.Format {
	case "", "json":
	case "console":
		writer = zerolog.ConsoleWriter{Out: writer, TimeFormat: time.Kitchen}
	default:
		return fmt.Errorf("invalid log format %q", cfg.Format)
	}

	zerolog.TimeFieldFormat = time.RFC3339

	l := zerolog.New(writer).Level(parsed).With().
		Timestamp().
		Str("service", buildinfo.Name).
		Str("version", buildinfo.Version).
		Logger()

	mu.Lock()
	base = l
	mu.Unlock()
	return nil
}

// Base returns the configured base logger instance.
func Base() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// WithComponent returns a child logger annotated with the given component name.
func WithComponent(component string) zerolog.Logger {
	return Base().With().Str("component", component).Logger()
}
