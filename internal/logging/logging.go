package logging

import (
	"io"
	"os"
	"time"

	"github.com/jrsteele09/cactus-garden/internal/config"
	"github.com/rs/zerolog"
)

// New builds the process logger. DEV gets a human readable console writer,
// everything else gets JSON lines on stdout.
func New(cfg config.EnvConfig) zerolog.Logger {
	return NewWithWriter(cfg, os.Stdout)
}

func NewWithWriter(cfg config.EnvConfig, w io.Writer) zerolog.Logger {
	out := w
	if cfg.GetEnv() == "DEV" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}

	level := zerolog.InfoLevel
	if cfg.GetVerboseLogging() {
		level = zerolog.DebugLevel
	}

	return zerolog.New(out).Level(level).With().Timestamp().Str("app", cfg.GetAppName()).Logger()
}
