package memory

import (
	"context"
	"testing"
	"time"

	"github.com/JakeFAU/findata-ingest/internal/ingest"
)

func TestLogEntriesScopedByRequest(t *testing.T) {
	t.Parallel()

	log := NewLog()
	ctx := context.Background()
	now := time.Now().UTC()

	entries := []ingest.LogEntry{
		{Module: "scheduler", RequestID: "req-1", Timestamp: now, Level: ingest.LevelInfo, Message: "request sent"},
		{Module: "webhook", RequestID: "req-2", Timestamp: now, Level: ingest.LevelError, Message: "missing zip_file_url"},
		{Module: "etl", RequestID: "req-1", Timestamp: now, Level: ingest.LevelError, Message: "file not found"},
	}
	for _, e := range entries {
		if err := log.Append(ctx, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := log.Entries(ctx, "req-1")
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries for req-1, got %d", len(got))
	}
	if got[0].Module != "scheduler" || got[1].Module != "etl" {
		t.Fatalf("entries out of order: %+v", got)
	}
}

func TestLogEntriesSinceCursor(t *testing.T) {
	t.Parallel()

	log := NewLog()
	ctx := context.Background()

	if err := log.Append(ctx, ingest.LogEntry{RequestID: "req-1", Level: ingest.LevelError, Message: "one"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	first, cursor, err := log.EntriesSince(ctx, "req-1", 0)
	if err != nil {
		t.Fatalf("entries since: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("expected 1 new entry, got %d", len(first))
	}

	// No new appends: the cursor read must come back empty.
	second, cursor2, err := log.EntriesSince(ctx, "req-1", cursor)
	if err != nil {
		t.Fatalf("entries since: %v", err)
	}
	if len(second) != 0 {
		t.Fatalf("expected no new entries, got %d", len(second))
	}
	if cursor2 != cursor {
		t.Fatalf("cursor moved without appends: %d -> %d", cursor, cursor2)
	}

	// An interleaved entry for another request advances the cursor but is
	// not returned for req-1.
	if err := log.Append(ctx, ingest.LogEntry{RequestID: "req-2", Message: "other"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := log.Append(ctx, ingest.LogEntry{RequestID: "req-1", Message: "two"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	third, _, err := log.EntriesSince(ctx, "req-1", cursor2)
	if err != nil {
		t.Fatalf("entries since: %v", err)
	}
	if len(third) != 1 || third[0].Message != "two" {
		t.Fatalf("unexpected entries after cursor: %+v", third)
	}
}
