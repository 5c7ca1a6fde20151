package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"gridduel/internal/config"
)

var output io.Writer = os.Stdout

// Init configures the global zerolog logger. With cfg.File set, logs go
// to a size-capped file instead of stdout.
func Init(cfg config.LogConfig) {
	level := zerolog.InfoLevel
	if parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level))); err == nil {
		level = parsed
	}

	output = os.Stdout
	if cfg.File != "" {
		if w, err := newSizeLimitedWriter(cfg.File, cfg.MaxMB); err == nil {
			output = w
		}
	}
	// The console formatter only wraps zerolog's own sink; Writer()
	// keeps handing out the raw output so the HTTP request logger's
	// JSON lines are not run through it.
	sink := output
	if cfg.Pretty {
		sink = zerolog.ConsoleWriter{Out: output}
	}

	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(sink).With().Timestamp().Logger()
}

// Writer exposes the active log output for the HTTP request logger.
func Writer() io.Writer {
	return output
}
