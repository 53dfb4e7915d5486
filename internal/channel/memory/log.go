package memory

import (
	"context"
	"sync"

	"github.com/JakeFAU/findata-ingest/internal/ingest"
)

// Log is the append-only logging channel. Entries are never mutated;
// consumers read by request ID, optionally from a cursor so periodic scans
// never see the same entry twice.
type Log struct {
	mu      sync.RWMutex
	entries []ingest.LogEntry
}

// NewLog constructs an empty logging channel.
func NewLog() *Log {
	return &Log{}
}

// Append adds an entry. FIFO order is preserved per producer.
func (l *Log) Append(_ context.Context, entry ingest.LogEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
	return nil
}

// Entries returns every entry recorded for the request, oldest first.
func (l *Log) Entries(ctx context.Context, requestID string) ([]ingest.LogEntry, error) {
	out, _, err := l.EntriesSince(ctx, requestID, 0)
	return out, err
}

// EntriesSince returns entries for the request appended after the cursor,
// plus the new cursor. The cursor indexes the whole channel, not the
// request-scoped view, so it stays valid as other requests log.
func (l *Log) EntriesSince(_ context.Context, requestID string, cursor int) ([]ingest.LogEntry, int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(l.entries) {
		cursor = len(l.entries)
	}
	var out []ingest.LogEntry
	for _, e := range l.entries[cursor:] {
		if e.RequestID == requestID {
			out = append(out, e)
		}
	}
	return out, len(l.entries), nil
}
