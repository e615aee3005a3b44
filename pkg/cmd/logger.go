package cmd

import (
	"io"

	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/boxnow-labels/pkg/logging"
)

// initLogger configures the global zerolog logger from the loaded config.
func initLogger(cfg logConfig, version string, out io.Writer) {
	logger := logging.Setup(logging.Config{
		Level:      logging.LogLevel(cfg.Level),
		Pretty:     cfg.Pretty,
		Output:     out,
		File:       cfg.File,
		MaxSizeMB:  cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAgeDays: cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	})

	log.Logger = logger.With().
		Str("app", "boxnow-labels").
		Str("ver", version).
		Logger()
}
