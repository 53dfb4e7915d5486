package memory

import (
	"context"
	"sync"

	"github.com/JakeFAU/findata-ingest/internal/ingest"
)

// DeadLetter collects download jobs the pipeline gave up on. Retained for
// inspection; nothing consumes it automatically.
type DeadLetter struct {
	mu      sync.RWMutex
	letters []ingest.DeadLetter
}

// NewDeadLetter constructs an empty dead-letter topic.
func NewDeadLetter() *DeadLetter {
	return &DeadLetter{}
}

// Append records a dead letter.
func (d *DeadLetter) Append(_ context.Context, letter ingest.DeadLetter) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.letters = append(d.letters, letter)
	return nil
}

// Letters returns a copy of everything recorded so far.
func (d *DeadLetter) Letters() []ingest.DeadLetter {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]ingest.DeadLetter, len(d.letters))
	copy(out, d.letters)
	return out
}
