package etl

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	channelmemory "github.com/JakeFAU/findata-ingest/internal/channel/memory"
	claimsmemory "github.com/JakeFAU/findata-ingest/internal/claims/memory"
	"github.com/JakeFAU/findata-ingest/internal/decoder"
	uuidgen "github.com/JakeFAU/findata-ingest/internal/id/uuid"
	"github.com/JakeFAU/findata-ingest/internal/ingest"
	"github.com/JakeFAU/findata-ingest/internal/metrics"
	recordsmemory "github.com/JakeFAU/findata-ingest/internal/records/memory"
	storagememory "github.com/JakeFAU/findata-ingest/internal/storage/memory"
	workflowmemory "github.com/JakeFAU/findata-ingest/internal/workflow/memory"
)

func TestPoolProcessesEveryJobExactlyOnce(t *testing.T) {
	t.Parallel()
	metrics.Init()

	clock := fixedClock{now: time.Date(2026, 3, 2, 20, 0, 0, 0, time.UTC)}
	files := channelmemory.NewQueue[ingest.FileJob](64)
	claims := claimsmemory.NewRegistry(uuidgen.New(), clock)
	blobs := storagememory.NewBlobStore()
	records := recordsmemory.NewStore()
	workflows := workflowmemory.NewStore()
	logs := channelmemory.NewLog()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, workflows.Create(ctx, ingest.WorkflowRecord{
		RequestID: "req-1",
		Status:    ingest.StatusFilesStored,
	}))

	const jobs = 20
	for i := 0; i < jobs; i++ {
		path := fmt.Sprintf("findata/req-1/client_%02d.json", i)
		payload := fmt.Sprintf(`{"client_id":"c-%02d","account_balance":%d}`, i, i*100)
		_, err := blobs.Put(ctx, path, []byte(payload))
		require.NoError(t, err)
		require.NoError(t, files.Enqueue(ctx, ingest.FileJob{
			RequestID: "req-1",
			PartnerID: "acme",
			FilePath:  path,
		}))
	}

	pool := NewPool(4, files, claims, blobs, decoder.New(), records,
		workflows, logs, clock, zaptest.NewLogger(t))

	done := make(chan error, 1)
	go func() { done <- pool.Run(ctx) }()

	deadline := time.After(5 * time.Second)
	for records.Len() < jobs {
		select {
		case <-deadline:
			t.Fatalf("timed out: %d of %d records persisted", records.Len(), jobs)
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("pool did not stop on cancel")
	}

	assert.Equal(t, jobs, records.Len(), "each job persisted exactly once")
	for i := 0; i < jobs; i++ {
		key := ingest.RecordKey{
			RequestID:    "req-1",
			PartnerID:    "acme",
			ClientID:     fmt.Sprintf("c-%02d", i),
			BusinessDate: "2026-03-02",
		}
		record, ok := records.Get(key)
		require.True(t, ok, "missing record for %s", key)
		assert.Equal(t, float64(i*100), record.AccountBalance)
	}
}
