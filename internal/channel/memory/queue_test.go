package memory

import (
	"context"
	"testing"
	"time"

	"github.com/JakeFAU/findata-ingest/internal/ingest"
)

func TestQueueEnqueueDequeueFIFO(t *testing.T) {
	t.Parallel()

	q := NewQueue[ingest.FileJob](4)
	ctx := context.Background()

	jobs := []ingest.FileJob{
		{RequestID: "req-1", PartnerID: "PartnerA", FilePath: "exports/a.json"},
		{RequestID: "req-1", PartnerID: "PartnerA", FilePath: "exports/b.json"},
	}
	for _, job := range jobs {
		if err := q.Enqueue(ctx, job); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}
	if q.Len() != 2 {
		t.Fatalf("expected 2 buffered jobs, got %d", q.Len())
	}

	for i, want := range jobs {
		got, err := q.Dequeue(ctx)
		if err != nil {
			t.Fatalf("dequeue %d: %v", i, err)
		}
		if got != want {
			t.Fatalf("dequeue %d = %+v, want %+v", i, got, want)
		}
	}
}

func TestQueueDequeueRespectsContext(t *testing.T) {
	t.Parallel()

	q := NewQueue[ingest.DownloadJob](1)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := q.Dequeue(ctx); err == nil {
		t.Fatal("expected dequeue on empty queue to fail after context timeout")
	}
}

func TestQueueEachJobDeliveredOnce(t *testing.T) {
	t.Parallel()

	const jobs = 50
	q := NewQueue[ingest.FileJob](jobs)
	ctx := context.Background()
	for i := 0; i < jobs; i++ {
		if err := q.Enqueue(ctx, ingest.FileJob{FilePath: string(rune('a' + i))}); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}
	q.Close()

	seen := make(chan ingest.FileJob, jobs)
	done := make(chan struct{})
	for w := 0; w < 4; w++ {
		go func() {
			for {
				job, err := q.Dequeue(ctx)
				if err != nil {
					done <- struct{}{}
					return
				}
				seen <- job
			}
		}()
	}
	for w := 0; w < 4; w++ {
		<-done
	}
	close(seen)

	paths := make(map[string]int)
	for job := range seen {
		paths[job.FilePath]++
	}
	if len(paths) != jobs {
		t.Fatalf("expected %d distinct jobs, got %d", jobs, len(paths))
	}
	for path, n := range paths {
		if n != 1 {
			t.Fatalf("job %q delivered %d times", path, n)
		}
	}
}
