package ingest

import (
	"context"
	"time"
)

// WorkflowStore keeps the single live WorkflowRecord per request, indexed by
// request_id for O(1) lookup and update.
type WorkflowStore interface {
	Create(ctx context.Context, record WorkflowRecord) error
	UpdateStatus(ctx context.Context, requestID string, status Status) error
	Get(ctx context.Context, requestID string) (WorkflowRecord, error)
	List(ctx context.Context) ([]WorkflowRecord, error)
}

// LogChannel is the append-only observability channel shared by all stages.
// EntriesSince supports cursor reads so the monitor never double-counts.
type LogChannel interface {
	Append(ctx context.Context, entry LogEntry) error
	Entries(ctx context.Context, requestID string) ([]LogEntry, error)
	EntriesSince(ctx context.Context, requestID string, cursor int) ([]LogEntry, int, error)
}

// DownloadQueue carries download jobs from the webhook gateway to the file
// ingestor. FIFO per producer, each job delivered to exactly one consumer.
type DownloadQueue interface {
	Enqueue(ctx context.Context, job DownloadJob) error
	Dequeue(ctx context.Context) (DownloadJob, error)
}

// FileQueue carries file jobs from the ingestor to the ETL worker pool.
type FileQueue interface {
	Enqueue(ctx context.Context, job FileJob) error
	Dequeue(ctx context.Context) (FileJob, error)
}

// DeadLetterSink receives download jobs the pipeline will not retry.
type DeadLetterSink interface {
	Append(ctx context.Context, letter DeadLetter) error
}

// BlobStore writes and reads raw file content. Get returns ErrNotFound for
// absent paths.
type BlobStore interface {
	Put(ctx context.Context, path string, data []byte) (string, error)
	Get(ctx context.Context, path string) ([]byte, error)
}

// ClaimRegistry provides the mutual-exclusion discipline for file
// processing. Acquire is a single atomic test-and-set: it returns
// acquired=false when another claim for the path is currently processing.
type ClaimRegistry interface {
	Acquire(ctx context.Context, filePath string) (ProcessingClaim, bool, error)
	Release(ctx context.Context, claimID string, state ClaimState) error
	Get(ctx context.Context, filePath string) (ProcessingClaim, error)
}

// RecordStore persists transformed records idempotently. UpsertIfAbsent
// reports inserted=false when the key already exists; the second write is a
// no-op, never an error.
type RecordStore interface {
	UpsertIfAbsent(ctx context.Context, key RecordKey, record ClientRecord) (bool, error)
}

// ArchiveFetcher retrieves the raw archive bytes for a download job.
type ArchiveFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Extractor unpacks an archive into its entries.
type Extractor interface {
	Extract(data []byte) ([]Entry, error)
}

// Decoder turns raw file bytes into the generic record mapping the ETL
// stage validates. External collaborator; only type coercion happens inside.
type Decoder interface {
	Decode(raw []byte) (map[string]any, error)
}

// PartnerClient issues the outbound export request to the partner API.
// Success is signaled by HTTP 201.
type PartnerClient interface {
	RequestExport(ctx context.Context, requestID string) (int, error)
}

// AlertSink delivers monitor alerts. Fire-and-forget; the monitor only
// decides when to fire.
type AlertSink interface {
	Notify(ctx context.Context, message string) error
}

// Publisher pushes events to an external topic (Pub/Sub or an in-memory
// recorder in tests).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Clock returns the current time (injectable for tests).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces request and claim IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
