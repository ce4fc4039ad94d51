package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tuncerburak97/gozlem/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Init configures the global zerolog logger from cfg and returns it.
func Init(cfg config.LogConfig) zerolog.Logger {
	return InitWriter(cfg, os.Stdout)
}

// InitWriter is Init with an explicit output.
func InitWriter(cfg config.LogConfig, out io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	var w io.Writer = out
	if cfg.Format == "console" {
		w = zerolog.ConsoleWriter{Out: out}
	}
	l := zerolog.New(w).With().Timestamp().Logger()

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		l.Warn().Str("level", cfg.Level).Msg("Invalid log level, defaulting to info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Logger = l
	return l
}

// NewZap builds a zap logger for cfg, for hosts writing records with zap.
func NewZap(cfg config.LogConfig) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.DisableStacktrace = true
	return zc.Build()
}
