// Package logging configures the process-wide structured logger used by
// the pluginhost library and its CLI demo.
//
// Adapted from the teacher's api/internal/logger/logger.go: a
// package-level zerolog.Logger initialized once, with component
// sub-loggers built via .With().Str("component", ...).Logger().
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Log is the global logger instance. It is the zero value until
// Initialize is called, at which point zerolog's own global default
// (silent-until-configured) behavior applies.
var Log zerolog.Logger

// Initialize sets up the global logger.
//
// level is a zerolog level name ("debug", "info", "warn", "error");
// invalid or empty values fall back to "info". pretty selects a
// human-readable console writer for local development instead of the
// default JSON output used in production.
func Initialize(level string, pretty bool) {
	logLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		logLevel = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	if pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	} else {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	}

	Log = log.With().Str("service", "pluginhost").Logger()
}

// Host returns a sub-logger tagged for the plugin host component.
func Host() zerolog.Logger {
	return Log.With().Str("component", "host").Logger()
}

// Reload returns a sub-logger tagged for a specific hot-reload operation,
// so every line from one HotReload call can be grouped by reload_id.
func Reload(reloadID string) zerolog.Logger {
	return Log.With().Str("component", "hot-reload").Str("reload_id", reloadID).Logger()
}
