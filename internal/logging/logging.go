// Package logging builds the process logger from configuration.
package logging

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/dshills/modbank/internal/config"
)

// New returns a logger honoring the configured level. Logs go to stderr
// unless a file is configured, in which case they go to a size-rotated file.
func New(cfg config.LogConfig) *log.Logger {
	var w io.Writer = os.Stderr
	if cfg.File != "" {
		w = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		}
	}
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Level:           parseLevel(cfg.Level),
	})
}

// parseLevel falls back to info on unknown level names.
func parseLevel(name string) log.Level {
	lvl, err := log.ParseLevel(name)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}
