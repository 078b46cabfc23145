// Package logging configures the zerolog logger shared by the iNaturalist
// tools.
//
// Stdout carries result lines (lookup matches, CSV records), so every log
// event goes to stderr. Without --verbose only warnings and errors are
// written; --verbose switches to debug on a console writer.
//
// Events carry a component field plus, where they apply: url, endpoint,
// status, error_class and the page/per_page/total_results/results counters.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel is a level name as accepted on the command line.
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// Config selects level and format. A nil Output means os.Stderr.
type Config struct {
	Level  LogLevel
	Pretty bool
	Output io.Writer
}

// DefaultConfig is JSON at warn on stderr.
func DefaultConfig() Config {
	return Config{Level: LevelWarn, Output: os.Stderr}
}

// VerboseConfig is console output at debug on stderr.
func VerboseConfig() Config {
	return Config{Level: LevelDebug, Pretty: true, Output: os.Stderr}
}

// ForVerbosity picks DefaultConfig or VerboseConfig.
func ForVerbosity(verbose bool) Config {
	if verbose {
		return VerboseConfig()
	}
	return DefaultConfig()
}

// ForFlags is ForVerbosity with the level lowered to info when run
// summaries were requested, so they are not filtered out.
func ForFlags(verbose, summaries bool) Config {
	cfg := ForVerbosity(verbose)
	if summaries && parseLevel(cfg.Level) > zerolog.InfoLevel {
		cfg.Level = LevelInfo
	}
	return cfg
}

// Setup installs a logger built from cfg as the global zerolog logger and
// returns it.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}
	}

	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return log.Logger
}

// parseLevel maps a level name to zerolog, defaulting to info.
func parseLevel(level LogLevel) zerolog.Level {
	name := strings.ToLower(strings.TrimSpace(string(level)))
	if name == "warning" {
		name = "warn"
	}
	switch lvl, err := zerolog.ParseLevel(name); {
	case err != nil, name == "":
		return zerolog.InfoLevel
	default:
		return lvl
	}
}

// NewLogger derives a logger tagged with component from the global one.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}
