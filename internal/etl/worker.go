// Package etl claims stored files and persists validated client records.
package etl

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/JakeFAU/findata-ingest/internal/ingest"
	"github.com/JakeFAU/findata-ingest/internal/metrics"
)

// Worker processes one file job at a time: claim, read, decode, validate,
// transform, write. There is no automatic retry; a failed job parks the
// workflow at etl-failed and releases the claim as failed so a later replay
// can re-acquire it.
type Worker struct {
	id        int
	claims    ingest.ClaimRegistry
	blobs     ingest.BlobStore
	decoder   ingest.Decoder
	records   ingest.RecordStore
	workflows ingest.WorkflowStore
	logs      ingest.LogChannel
	clock     ingest.Clock
	logger    *zap.Logger
}

// NewWorker creates a Worker.
func NewWorker(id int, claims ingest.ClaimRegistry, blobs ingest.BlobStore, decoder ingest.Decoder, records ingest.RecordStore, workflows ingest.WorkflowStore, logs ingest.LogChannel, clock ingest.Clock, logger *zap.Logger) *Worker {
	return &Worker{
		id:        id,
		claims:    claims,
		blobs:     blobs,
		decoder:   decoder,
		records:   records,
		workflows: workflows,
		logs:      logs,
		clock:     clock,
		logger:    logger.Named("etl").With(zap.Int("worker", id)),
	}
}

// ProcessFile runs one job end to end.
func (w *Worker) ProcessFile(ctx context.Context, job ingest.FileJob) {
	claim, acquired, err := w.claims.Acquire(ctx, job.FilePath)
	if err != nil {
		w.logger.Error("claim acquire failed", zap.Error(err), zap.String("file", job.FilePath))
		return
	}
	if !acquired {
		w.appendLog(ctx, job.RequestID, ingest.LevelInfo,
			fmt.Sprintf("File %s already being processed, skipping", job.FilePath))
		metrics.ObserveETLFile("skipped")
		return
	}

	metrics.IncActiveWorkers()
	defer metrics.DecActiveWorkers()

	if err := w.process(ctx, job); err != nil {
		reason := err.Error()
		if relErr := w.claims.Release(ctx, claim.ClaimID, ingest.ClaimFailed); relErr != nil {
			w.logger.Error("claim release failed", zap.Error(relErr))
		}
		w.appendLog(ctx, job.RequestID, ingest.LevelError,
			fmt.Sprintf("ETL failed for %s: %s", job.FilePath, reason))
		if updErr := w.workflows.UpdateStatus(ctx, job.RequestID, ingest.ETLFailed(reason)); updErr != nil {
			w.logger.Error("update workflow status", zap.Error(updErr))
		}
		metrics.ObserveETLFile("failed")
		w.logger.Error("file processing failed",
			zap.String("request_id", job.RequestID),
			zap.String("file", job.FilePath),
			zap.String("reason", reason),
		)
		return
	}

	if err := w.claims.Release(ctx, claim.ClaimID, ingest.ClaimCompleted); err != nil {
		w.logger.Error("claim release failed", zap.Error(err))
	}
	w.appendLog(ctx, job.RequestID, ingest.LevelInfo,
		fmt.Sprintf("ETL complete for %s", job.FilePath))
	if err := w.workflows.UpdateStatus(ctx, job.RequestID, ingest.StatusETLComplete); err != nil {
		w.logger.Error("update workflow status", zap.Error(err))
	}
	metrics.ObserveETLFile("completed")
}

func (w *Worker) process(ctx context.Context, job ingest.FileJob) error {
	raw, err := w.blobs.Get(ctx, job.FilePath)
	if err != nil {
		return fmt.Errorf("read stored file: %w", err)
	}

	payload, err := w.decoder.Decode(raw)
	if err != nil {
		return fmt.Errorf("decode record: %w", err)
	}

	clientID, balance, err := validate(payload)
	if err != nil {
		return err
	}

	now := w.clock.Now().UTC()
	key := ingest.RecordKey{
		RequestID:    job.RequestID,
		PartnerID:    job.PartnerID,
		ClientID:     clientID,
		BusinessDate: now.Format("2006-01-02"),
	}
	record := ingest.ClientRecord{
		ClientID:       clientID,
		AccountBalance: balance,
		ProcessedAt:    now,
	}

	inserted, err := w.records.UpsertIfAbsent(ctx, key, record)
	if err != nil {
		return fmt.Errorf("persist record: %w", err)
	}
	if !inserted {
		w.appendLog(ctx, job.RequestID, ingest.LevelInfo,
			fmt.Sprintf("Record %s already persisted, skipping duplicate", key))
		metrics.ObserveRecord("duplicate")
		return nil
	}
	metrics.ObserveRecord("inserted")
	return nil
}

// validate enforces the two required fields and coerces the balance, which
// partners sometimes send as a string.
func validate(payload map[string]any) (clientID string, balance float64, err error) {
	id, ok := payload["client_id"].(string)
	if !ok || id == "" {
		return "", 0, fmt.Errorf("%w: missing client_id", ingest.ErrSchema)
	}

	switch v := payload["account_balance"].(type) {
	case float64:
		balance = v
	case string:
		balance, err = strconv.ParseFloat(v, 64)
		if err != nil {
			return "", 0, fmt.Errorf("%w: malformed account_balance %q", ingest.ErrSchema, v)
		}
	default:
		return "", 0, fmt.Errorf("%w: missing account_balance", ingest.ErrSchema)
	}
	return id, balance, nil
}

func (w *Worker) appendLog(ctx context.Context, requestID string, level ingest.LogLevel, message string) {
	entry := ingest.LogEntry{
		Module:    "etl",
		RequestID: requestID,
		Timestamp: w.clock.Now(),
		Level:     level,
		Message:   message,
	}
	if err := w.logs.Append(ctx, entry); err != nil {
		w.logger.Warn("log channel append failed", zap.Error(err))
	}
}
