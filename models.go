package main

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"

	"github.com/muhammadolammi/resumeextract/internal/batch"
	"github.com/muhammadolammi/resumeextract/internal/config"
)

// Batch job statuses published on the updates exchange.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusEmpty      = "empty"
	StatusFailed     = "failed"
)

// BatchJob is the queue message: an uploaded zip of resumes waiting in R2.
type BatchJob struct {
	BatchID   uuid.UUID `json:"batch_id"`
	ObjectKey string    `json:"object_key"`
}

type BatchUpdate struct {
	BatchID   uuid.UUID `json:"batch_id"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	ResultKey string    `json:"result_key,omitempty"`
	Records   int       `json:"records"`
	Failures  int       `json:"failures"`
	Timestamp time.Time `json:"timestamp"`
}

// ObjectStore reads uploaded archives and stores result tables.
type ObjectStore interface {
	Download(ctx context.Context, key string) ([]byte, error)
	Upload(ctx context.Context, key string, body []byte, contentType string) error
}

// UpdatePublisher fans batch status out to subscribers.
type UpdatePublisher interface {
	Publish(ctx context.Context, update BatchUpdate) error
}

type WorkerConfig struct {
	Cfg        *config.Config
	Processor  *batch.Processor
	Store      ObjectStore
	Updates    UpdatePublisher
	RabbitConn *amqp.Connection
	Logger     zerolog.Logger
}
