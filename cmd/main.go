package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tuncerburak97/gozlem/internal/config"
	"github.com/tuncerburak97/gozlem/internal/logger"
	"github.com/tuncerburak97/gozlem/internal/metrics"
	"github.com/tuncerburak97/gozlem/internal/observability"
)

// server is one of the supported host frameworks, serving the demo routes.
type server interface {
	Listen(addr string) error
	Shutdown(ctx context.Context) error
}

func main() {
	folder := flag.String("configuration", "config", "folder holding the configuration and logging files")
	flag.Parse()

	logCfg, err := config.LoadLogConfig(*folder)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load logging configuration")
	}
	zl := logger.Init(*logCfg)

	cfg, err := config.LoadConfig(*folder)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	var sink observability.Sink = logger.NewZerologSink(zl)
	if logCfg.Sink == "zap" {
		zapLogger, err := logger.NewZap(*logCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize zap logger")
		}
		defer func() { _ = zapLogger.Sync() }()
		sink = logger.NewZapSink(zapLogger)
	}

	opts := observability.Options{
		SkipPaths:       cfg.Observability.SkipPaths,
		RequestIDHeader: cfg.Observability.RequestIDHeader,
		BodyLimit:       cfg.Observability.BodyLimit,
	}
	if cfg.Observability.Metrics.Enabled {
		opts.Metrics = metrics.NewMetricsCollector(cfg.Observability.Metrics.Namespace, cfg.Info.Title, nil)
		opts.SkipPaths = append(opts.SkipPaths, cfg.Observability.Metrics.Path)
	}
	m := observability.New(sink, opts)

	var srv server
	switch cfg.Server.Framework {
	case "fiber":
		srv = newFiberServer(cfg, m)
	case "http":
		srv = newHTTPServer(cfg, m)
	case "echo":
		srv = newEchoServer(cfg, m)
	default:
		log.Fatal().Str("framework", cfg.Server.Framework).Msg("Unsupported framework")
	}

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		log.Info().
			Str("framework", cfg.Server.Framework).
			Str("environment", config.Environment()).
			Str("addr", addr).
			Msg("Starting server")
		if err := srv.Listen(addr); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to shutdown server")
	}
}
