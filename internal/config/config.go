// Package config loads service configuration from defaults, an optional YAML
// file, a .env file and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/muhammadolammi/resumeextract/internal/logger"
)

// Config holds all application configuration.
type Config struct {
	Log      logger.Config  `yaml:"log"`
	Batch    BatchConfig    `yaml:"batch"`
	Server   ServerConfig   `yaml:"server"`
	R2       R2Config       `yaml:"r2"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
}

// BatchConfig bounds one archive run.
type BatchConfig struct {
	SkipHidden      bool  `yaml:"skip_hidden"`
	MaxEntries      int   `yaml:"max_entries"`
	MaxEntryBytes   int64 `yaml:"max_entry_bytes"`
	MaxArchiveBytes int64 `yaml:"max_archive_bytes"`
}

// ServerConfig configures the HTTP upload surface.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// R2Config holds Cloudflare R2 credentials for the queue worker.
type R2Config struct {
	AccountID    string `yaml:"account_id"`
	Bucket       string `yaml:"bucket"`
	AccessKey    string `yaml:"access_key"`
	SecretKey    string `yaml:"secret_key"`
	ResultPrefix string `yaml:"result_prefix"`
}

// RabbitMQConfig configures the batch job queue.
type RabbitMQConfig struct {
	URL             string `yaml:"url"`
	Queue           string `yaml:"queue"`
	UpdatesExchange string `yaml:"updates_exchange"`
	Workers         int    `yaml:"workers"`
}

// Mode names an entry point; each validates a different subset of Config.
type Mode string

const (
	ModeBatch  Mode = "batch"
	ModeServer Mode = "server"
	ModeWorker Mode = "worker"
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log: logger.Config{Level: "info", Format: "json"},
		Batch: BatchConfig{
			SkipHidden:      true,
			MaxEntries:      1000,
			MaxEntryBytes:   20 << 20,
			MaxArchiveBytes: 100 << 20,
		},
		Server: ServerConfig{Address: ":8080"},
		R2:     R2Config{ResultPrefix: "results"},
		RabbitMQ: RabbitMQConfig{
			Queue:           "batches",
			UpdatesExchange: "batch_updates",
			Workers:         3,
		},
	}
}

// Load builds the configuration. path may be empty; a missing .env is ignored.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)

	c.Batch.SkipHidden = getEnvBool("BATCH_SKIP_HIDDEN", c.Batch.SkipHidden)
	c.Batch.MaxEntries = getEnvInt("BATCH_MAX_ENTRIES", c.Batch.MaxEntries)
	c.Batch.MaxEntryBytes = getEnvInt64("BATCH_MAX_ENTRY_BYTES", c.Batch.MaxEntryBytes)
	c.Batch.MaxArchiveBytes = getEnvInt64("BATCH_MAX_ARCHIVE_BYTES", c.Batch.MaxArchiveBytes)

	c.Server.Address = getEnv("SERVER_ADDR", c.Server.Address)

	c.R2.AccountID = getEnv("R2_ACCOUNT_ID", c.R2.AccountID)
	c.R2.Bucket = getEnv("R2_BUCKET", c.R2.Bucket)
	c.R2.AccessKey = getEnv("R2_ACCESS_KEY", c.R2.AccessKey)
	c.R2.SecretKey = getEnv("R2_SECRET_KEY", c.R2.SecretKey)
	c.R2.ResultPrefix = getEnv("R2_RESULT_PREFIX", c.R2.ResultPrefix)

	c.RabbitMQ.URL = getEnv("RABBITMQ_URL", c.RabbitMQ.URL)
	c.RabbitMQ.Queue = getEnv("RABBITMQ_QUEUE", c.RabbitMQ.Queue)
	c.RabbitMQ.UpdatesExchange = getEnv("RABBITMQ_UPDATES_EXCHANGE", c.RabbitMQ.UpdatesExchange)
	c.RabbitMQ.Workers = getEnvInt("WORKERS", c.RabbitMQ.Workers)
}

// Validate checks the values the given mode needs.
func (c *Config) Validate(mode Mode) error {
	var errs []error
	if c.Batch.MaxArchiveBytes <= 0 {
		errs = append(errs, errors.New("batch.max_archive_bytes must be positive"))
	}
	switch mode {
	case ModeServer:
		if c.Server.Address == "" {
			errs = append(errs, errors.New("empty SERVER_ADDR"))
		}
	case ModeWorker:
		required := [][2]string{
			{"R2_ACCOUNT_ID", c.R2.AccountID},
			{"R2_BUCKET", c.R2.Bucket},
			{"R2_ACCESS_KEY", c.R2.AccessKey},
			{"R2_SECRET_KEY", c.R2.SecretKey},
			{"RABBITMQ_URL", c.RabbitMQ.URL},
		}
		for _, kv := range required {
			if kv[1] == "" {
				errs = append(errs, fmt.Errorf("empty %s in environment", kv[0]))
			}
		}
		if c.RabbitMQ.Workers <= 0 {
			errs = append(errs, errors.New("WORKERS must be positive"))
		}
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
