// Command resume-server serves the resume batch upload API.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/muhammadolammi/resumeextract/internal/batch"
	"github.com/muhammadolammi/resumeextract/internal/config"
	"github.com/muhammadolammi/resumeextract/internal/logger"
	"github.com/muhammadolammi/resumeextract/internal/server"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "path to a YAML config file")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	l := logger.Init(cfg.Log)
	if err := cfg.Validate(config.ModeServer); err != nil {
		l.Fatal().Err(err).Msg("invalid config")
	}

	processor := batch.NewProcessor(batch.OptionsFrom(cfg.Batch), nil, l)
	app := server.New(server.NewBatchHandler(processor, cfg.Batch.MaxArchiveBytes), l)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		l.Info().Str("addr", cfg.Server.Address).Msg("server listening")
		if err := app.Listen(cfg.Server.Address); err != nil {
			l.Error().Err(err).Msg("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	l.Info().Msg("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		l.Error().Err(err).Msg("shutdown failed")
	}
}
