package ingest

import (
	"fmt"
	"strings"
	"time"
)

// Status represents the lifecycle state of one ingestion workflow.
type Status string

// Workflow status values. A record moves initiated -> webhook-received ->
// files-stored -> etl-complete under normal operation; any stage may park it
// at a failure status instead.
const (
	StatusInitiated       Status = "initiated"
	StatusWebhookReceived Status = "webhook-received"
	StatusFilesStored     Status = "files-stored"
	StatusETLComplete     Status = "etl-complete"
)

// Failure status prefixes. The human-readable reason is appended after a
// colon, e.g. "ingestion-failed: corrupt archive".
const (
	failPrefixIngestion = "ingestion-failed"
	failPrefixETL       = "etl-failed"
)

// IngestionFailed builds the failure status recorded when the
// download/extract/store pipeline gives up on a request.
func IngestionFailed(reason string) Status {
	return Status(fmt.Sprintf("%s: %s", failPrefixIngestion, reason))
}

// ETLFailed builds the failure status recorded when a worker cannot process
// a file job.
func ETLFailed(reason string) Status {
	return Status(fmt.Sprintf("%s: %s", failPrefixETL, reason))
}

// IsFailure reports whether the status is any *-failed variant.
func (s Status) IsFailure() bool {
	return strings.HasPrefix(string(s), failPrefixIngestion) ||
		strings.HasPrefix(string(s), failPrefixETL)
}

// IsTerminalSuccess reports whether no further stage is expected to mutate
// the record. Both files-stored and etl-complete count: the ETL stage is
// optional downstream work, so a record resting at files-stored is not
// considered stalled by the monitor.
func (s Status) IsTerminalSuccess() bool {
	return s == StatusFilesStored || s == StatusETLComplete
}

// WorkflowRecord is the single live record tracking one scheduled request.
// Every stage performs a read-modify-write on Status; updates are
// last-writer-wins under the store's lock.
type WorkflowRecord struct {
	RequestID string    `json:"request_id"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LogLevel classifies log entries on the logging channel.
type LogLevel string

// Log levels. The monitor counts error entries toward its alert threshold.
const (
	LevelInfo  LogLevel = "info"
	LevelError LogLevel = "error"
)

// LogEntry is an append-only observability record scoped to a request.
type LogEntry struct {
	Module    string    `json:"module"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
	Level     LogLevel  `json:"level"`
	Message   string    `json:"message"`
}

// DownloadJob instructs the file ingestor to fetch one partner archive.
// Produced by the webhook gateway, consumed exactly once.
type DownloadJob struct {
	RequestID  string `json:"request_id"`
	PartnerID  string `json:"partner_id"`
	ArchiveURL string `json:"archive_url"`
}

// FileJob instructs an ETL worker to process one stored file. Produced per
// extracted entry by the file ingestor, delivered to exactly one worker.
type FileJob struct {
	RequestID string `json:"request_id"`
	PartnerID string `json:"partner_id"`
	FilePath  string `json:"file_path"`
}

// DeadLetter records a download job the pipeline gave up on, with the reason.
type DeadLetter struct {
	Job    DownloadJob `json:"job"`
	Reason string      `json:"reason"`
}

// ClaimState is the lifecycle state of a processing claim.
type ClaimState string

// Claim states. Only one claim per file path may be processing at a time.
const (
	ClaimProcessing ClaimState = "processing"
	ClaimCompleted  ClaimState = "completed"
	ClaimFailed     ClaimState = "failed"
)

// ProcessingClaim is the mutual-exclusion marker preventing two workers from
// handling the same file concurrently. Keyed by FilePath, not RequestID: two
// requests must not race on the same path either.
type ProcessingClaim struct {
	ClaimID   string     `json:"claim_id"`
	FilePath  string     `json:"file_path"`
	State     ClaimState `json:"state"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// RecordKey is the business identity of a persisted record. Writes are
// idempotent under this composite key.
type RecordKey struct {
	RequestID    string `json:"request_id"`
	PartnerID    string `json:"partner_id"`
	ClientID     string `json:"client_id"`
	BusinessDate string `json:"business_date"` // YYYY-MM-DD, UTC
}

// String renders the key in the canonical request-partner-client-date form.
func (k RecordKey) String() string {
	return fmt.Sprintf("%s-%s-%s-%s", k.RequestID, k.PartnerID, k.ClientID, k.BusinessDate)
}

// ClientRecord is the transformed payload the ETL stage persists.
type ClientRecord struct {
	ClientID       string    `json:"client_id"`
	AccountBalance float64   `json:"account_balance"`
	ProcessedAt    time.Time `json:"processed_at"`
}

// Entry is one file extracted from a partner archive.
type Entry struct {
	Name string
	Data []byte
}
