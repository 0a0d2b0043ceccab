// Command resumeextract is the queue worker: it consumes batch jobs, extracts
// resume fields from the uploaded archive and stores the CSV table in R2.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/streadway/amqp"

	"github.com/muhammadolammi/resumeextract/internal/batch"
	"github.com/muhammadolammi/resumeextract/internal/config"
	"github.com/muhammadolammi/resumeextract/internal/logger"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "path to a YAML config file")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	l := logger.Init(cfg.Log)
	if err := cfg.Validate(config.ModeWorker); err != nil {
		l.Fatal().Err(err).Msg("invalid config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	awsConfig, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.R2.AccessKey, cfg.R2.SecretKey, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		l.Fatal().Err(err).Msg("error creating aws config")
	}

	conn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		l.Fatal().Err(err).Msg("error connecting to RabbitMQ")
	}
	defer conn.Close()
	if err := declareUpdatesExchange(conn, cfg.RabbitMQ.UpdatesExchange); err != nil {
		l.Fatal().Err(err).Str("exchange", cfg.RabbitMQ.UpdatesExchange).Msg("failed to declare updates exchange")
	}

	workerConfig := WorkerConfig{
		Cfg:        cfg,
		Processor:  batch.NewProcessor(batch.OptionsFrom(cfg.Batch), nil, l),
		Store:      NewR2Store(awsConfig, cfg.R2),
		Updates:    &amqpPublisher{conn: conn, exchange: cfg.RabbitMQ.UpdatesExchange},
		RabbitConn: conn,
		Logger:     l,
	}

	l.Info().Int("workers", cfg.RabbitMQ.Workers).Str("queue", cfg.RabbitMQ.Queue).Msg("starting consumer pool")
	workerConfig.StartConsumerWorkerPool(ctx, cfg.RabbitMQ.Workers)
}
