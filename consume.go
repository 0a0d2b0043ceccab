package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/muhammadolammi/resumeextract/internal/batch"
	"github.com/muhammadolammi/resumeextract/internal/export"
)

// runJob downloads the archive, extracts every resume and stores the CSV
// table. Failures here fail the whole job; per-document failures do not.
func runJob(ctx context.Context, job BatchJob, workerConfig *WorkerConfig) (BatchUpdate, error) {
	update := BatchUpdate{BatchID: job.BatchID}

	data, err := workerConfig.Store.Download(ctx, job.ObjectKey)
	if err != nil {
		return update, fmt.Errorf("download %s: %w", job.ObjectKey, err)
	}

	b, err := workerConfig.Processor.ProcessArchive(ctx, data)
	if err != nil {
		return update, err
	}
	update.Records = len(b.Records)
	update.Failures = len(b.Failures)
	for _, f := range b.Failures {
		workerConfig.Logger.Warn().
			Str("batch_id", job.BatchID.String()).
			Str("document", f.Document).
			Str("stage", string(f.Stage)).
			Msg(f.Message)
	}

	if b.Empty() {
		update.Status = StatusEmpty
		update.Message = "No valid resumes found."
		return update, nil
	}

	table, err := export.CSV(b.Records)
	if err != nil {
		return update, fmt.Errorf("export: %w", err)
	}
	key := resultKey(workerConfig.Cfg.R2.ResultPrefix, job.BatchID.String())
	if err := workerConfig.Store.Upload(ctx, key, table, "text/csv"); err != nil {
		return update, fmt.Errorf("upload %s: %w", key, err)
	}

	update.Status = StatusCompleted
	update.Message = "analysis completed"
	update.ResultKey = key
	return update, nil
}

// handleJob processes one queue message and publishes its status updates.
// It returns the final update.
func handleJob(ctx context.Context, body []byte, workerConfig *WorkerConfig) BatchUpdate {
	job := BatchJob{}
	if err := json.Unmarshal(body, &job); err != nil || job.BatchID == uuid.Nil || job.ObjectKey == "" {
		workerConfig.Logger.Error().Err(err).Bytes("body", body).Msg("invalid batch job")
		update := BatchUpdate{BatchID: job.BatchID, Status: StatusFailed, Message: "invalid batch job"}
		if job.BatchID != uuid.Nil {
			publish(ctx, workerConfig, update)
		}
		return update
	}

	log := workerConfig.Logger.With().Str("batch_id", job.BatchID.String()).Logger()
	log.Info().Str("object_key", job.ObjectKey).Msg("processing batch")
	publish(ctx, workerConfig, BatchUpdate{BatchID: job.BatchID, Status: StatusProcessing, Message: "analysis started"})

	update, err := runJob(ctx, job, workerConfig)
	if err != nil {
		log.Error().Err(err).Bool("archive_error", batch.IsArchiveError(err)).Msg("batch failed")
		update.Status = StatusFailed
		update.Message = "analysis failed: " + err.Error()
	} else {
		log.Info().Str("status", update.Status).Int("records", update.Records).Int("failures", update.Failures).Msg("batch finished")
	}
	publish(ctx, workerConfig, update)
	return update
}

func publish(ctx context.Context, workerConfig *WorkerConfig, update BatchUpdate) {
	update.Timestamp = time.Now()
	if err := workerConfig.Updates.Publish(ctx, update); err != nil {
		workerConfig.Logger.Warn().Err(err).Str("batch_id", update.BatchID.String()).Msg("failed to publish update")
	}
}

func worker(ctx context.Context, id int, workerConfig *WorkerConfig, wg *sync.WaitGroup) {
	defer wg.Done()
	log := workerConfig.Logger.With().Int("worker", id+1).Logger()
	queue := workerConfig.Cfg.RabbitMQ.Queue

	ch, err := workerConfig.RabbitConn.Channel()
	if err != nil {
		log.Error().Err(err).Msg("error opening rabbitmq channel")
		return
	}
	defer ch.Close()
	_, err = ch.QueueDeclare(
		queue,
		true,  // durable (survives broker restarts)
		false, // auto-delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("failed to declare queue")
		return
	}

	msgs, err := ch.Consume(
		queue,
		"",    // consumer tag
		true,  // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		log.Error().Err(err).Msg("error consuming rabbitmq messages")
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				log.Warn().Msg("delivery channel closed")
				return
			}
			handleJob(ctx, msg.Body, workerConfig)
		}
	}
}

// StartConsumerWorkerPool runs numWorkers consumers and blocks until all of
// them stop.
func (workerConfig *WorkerConfig) StartConsumerWorkerPool(ctx context.Context, numWorkers int) {
	var wg sync.WaitGroup
	wg.Add(numWorkers)

	for i := 0; i < numWorkers; i++ {
		workerConfig.Logger.Info().Int("worker", i+1).Msg("worker started")
		go worker(ctx, i, workerConfig, &wg)
	}
	wg.Wait()
}
