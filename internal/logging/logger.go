package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/edvin/unihub/internal/config"
)

// NewLogger creates a structured zerolog.Logger tagged with the service name
// from the config, writing JSON to stdout.
func NewLogger(cfg *config.Config) zerolog.Logger {
	return New(os.Stdout, cfg.ServiceName, cfg.LogLevel)
}

// New builds a logger on w. Unknown levels fall back to info.
func New(w io.Writer, service, logLevel string) zerolog.Logger {
	ctx := zerolog.New(w).With().Timestamp()
	if service != "" {
		ctx = ctx.Str("service", service)
	}
	logger := ctx.Logger()

	level, err := zerolog.ParseLevel(logLevel)
	if err != nil || logLevel == "" {
		level = zerolog.InfoLevel
	}

	return logger.Level(level)
}
