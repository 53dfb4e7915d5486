package ingest

import "errors"

// Failure taxonomy shared across stages. Stage code classifies collaborator
// failures into one of these sentinels; the stage boundary converts them
// into a workflow status and a log entry instead of propagating upward.
var (
	// ErrTransientIO marks a retryable I/O failure (network fault while
	// fetching the partner archive).
	ErrTransientIO = errors.New("transient i/o failure")

	// ErrCorruptArchive marks an archive that cannot be unpacked. Not
	// retryable; the job goes to the dead-letter channel.
	ErrCorruptArchive = errors.New("corrupt archive")

	// ErrNotFound is returned by blob reads for absent paths.
	ErrNotFound = errors.New("not found")

	// ErrSchema marks a decoded payload missing required fields.
	ErrSchema = errors.New("invalid record schema")

	// ErrWorkflowNotFound is returned by workflow lookups for unknown
	// request IDs.
	ErrWorkflowNotFound = errors.New("workflow not found")
)
