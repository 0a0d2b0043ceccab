// Package logger configures the zerolog logger shared by every entry point.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config selects the level and output format.
type Config struct {
	Level      string `yaml:"level"`       // debug, info, warn, error
	Format     string `yaml:"format"`      // json or pretty
	TimeFormat string `yaml:"time_format"` // defaults to RFC3339
}

// New builds a logger writing to out. An unknown level falls back to info.
func New(cfg Config, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	timeFormat := cfg.TimeFormat
	if timeFormat == "" {
		timeFormat = time.RFC3339
	}
	zerolog.TimeFieldFormat = timeFormat

	if cfg.Format == "pretty" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: timeFormat}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// Init builds a stdout logger and installs it as the zerolog global.
func Init(cfg Config) zerolog.Logger {
	l := New(cfg, os.Stdout)
	log.Logger = l
	return l
}
