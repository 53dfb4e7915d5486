// Package ingestor downloads partner archives, extracts them, stores each
// entry in blob storage, and fans out per-file ETL jobs.
package ingestor

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/findata-ingest/internal/ingest"
	"github.com/JakeFAU/findata-ingest/internal/metrics"
)

// Config sets blob placement for extracted entries.
type Config struct {
	Prefix string
}

// Ingestor is the single consumer of the download-jobs channel.
type Ingestor struct {
	cfg        Config
	downloads  ingest.DownloadQueue
	files      ingest.FileQueue
	deadLetter ingest.DeadLetterSink
	fetcher    ingest.ArchiveFetcher
	extractor  ingest.Extractor
	blobs      ingest.BlobStore
	workflows  ingest.WorkflowStore
	logs       ingest.LogChannel
	retry      ingest.RetryPolicy
	clock      ingest.Clock
	logger     *zap.Logger
}

// New creates an Ingestor.
func New(cfg Config, downloads ingest.DownloadQueue, files ingest.FileQueue, deadLetter ingest.DeadLetterSink, fetcher ingest.ArchiveFetcher, extractor ingest.Extractor, blobs ingest.BlobStore, workflows ingest.WorkflowStore, logs ingest.LogChannel, retry ingest.RetryPolicy, clock ingest.Clock, logger *zap.Logger) *Ingestor {
	if cfg.Prefix == "" {
		cfg.Prefix = "findata"
	}
	return &Ingestor{
		cfg:        cfg,
		downloads:  downloads,
		files:      files,
		deadLetter: deadLetter,
		fetcher:    fetcher,
		extractor:  extractor,
		blobs:      blobs,
		workflows:  workflows,
		logs:       logs,
		retry:      retry,
		clock:      clock,
		logger:     logger.Named("ingestor"),
	}
}

// Run consumes download jobs until the context is canceled.
func (i *Ingestor) Run(ctx context.Context) error {
	i.logger.Info("ingestor started")
	for {
		job, err := i.downloads.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				i.logger.Info("ingestor stopping")
				return ctx.Err()
			}
			i.logger.Error("dequeue download job", zap.Error(err))
			continue
		}
		i.Process(ctx, job)
	}
}

// Process runs one job through fetch, extract, store, and publish. A failure
// at any stage parks the workflow at ingestion-failed, appends exactly one
// error log entry, and dead-letters the job; no FileJob is published.
func (i *Ingestor) Process(ctx context.Context, job ingest.DownloadJob) {
	logger := i.logger.With(
		zap.String("request_id", job.RequestID),
		zap.String("partner_id", job.PartnerID),
	)

	data, err := i.fetch(ctx, job.ArchiveURL)
	if err != nil {
		i.fail(ctx, job, fmt.Sprintf("archive download failed: %v", err))
		metrics.ObserveArchive(job.PartnerID, "fetch_failed", 0)
		return
	}
	logger.Info("archive fetched", zap.Int("bytes", len(data)))

	entries, err := i.extractor.Extract(data)
	if err != nil {
		i.fail(ctx, job, fmt.Sprintf("archive extraction failed: %v", err))
		metrics.ObserveArchive(job.PartnerID, "corrupt", len(data))
		return
	}

	stored := make([]string, 0, len(entries))
	for _, entry := range entries {
		blobPath := path.Join(i.cfg.Prefix, job.RequestID, entry.Name)
		if _, err := i.blobs.Put(ctx, blobPath, entry.Data); err != nil {
			i.fail(ctx, job, fmt.Sprintf("blob store write failed for %s: %v", entry.Name, err))
			metrics.ObserveArchive(job.PartnerID, "store_failed", len(data))
			return
		}
		stored = append(stored, blobPath)
	}

	for _, blobPath := range stored {
		fileJob := ingest.FileJob{
			RequestID: job.RequestID,
			PartnerID: job.PartnerID,
			FilePath:  blobPath,
		}
		if err := i.files.Enqueue(ctx, fileJob); err != nil {
			i.fail(ctx, job, fmt.Sprintf("file job publish failed for %s: %v", blobPath, err))
			metrics.ObserveArchive(job.PartnerID, "publish_failed", len(data))
			return
		}
	}

	if err := i.workflows.UpdateStatus(ctx, job.RequestID, ingest.StatusFilesStored); err != nil {
		logger.Error("update workflow status", zap.Error(err))
	}
	i.appendLog(ctx, job.RequestID, ingest.LevelInfo,
		fmt.Sprintf("Stored %d files from partner archive", len(stored)))

	metrics.ObserveArchive(job.PartnerID, "stored", len(data))
	metrics.ObserveStoredFiles(job.PartnerID, len(stored))
	logger.Info("archive ingested", zap.Int("files", len(stored)))
}

// fetch retries transient download failures with jittered backoff.
func (i *Ingestor) fetch(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 1; ; attempt++ {
		data, err := i.fetcher.Fetch(ctx, url)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if !i.retry.ShouldRetry(err, attempt) {
			return nil, lastErr
		}
		timer := time.NewTimer(i.retry.Backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (i *Ingestor) fail(ctx context.Context, job ingest.DownloadJob, reason string) {
	i.appendLog(ctx, job.RequestID, ingest.LevelError, reason)
	if err := i.workflows.UpdateStatus(ctx, job.RequestID, ingest.IngestionFailed(reason)); err != nil {
		i.logger.Error("update workflow status", zap.Error(err), zap.String("request_id", job.RequestID))
	}
	if err := i.deadLetter.Append(ctx, ingest.DeadLetter{Job: job, Reason: reason}); err != nil {
		i.logger.Error("dead-letter append failed", zap.Error(err), zap.String("request_id", job.RequestID))
	}
	i.logger.Error("ingestion failed",
		zap.String("request_id", job.RequestID),
		zap.String("reason", reason),
	)
}

func (i *Ingestor) appendLog(ctx context.Context, requestID string, level ingest.LogLevel, message string) {
	entry := ingest.LogEntry{
		Module:    "ingestor",
		RequestID: requestID,
		Timestamp: i.clock.Now(),
		Level:     level,
		Message:   message,
	}
	if err := i.logs.Append(ctx, entry); err != nil {
		i.logger.Warn("log channel append failed", zap.Error(err))
	}
}
