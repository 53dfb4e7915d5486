package etl

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/JakeFAU/findata-ingest/internal/ingest"
)

// Pool fans N workers out over the shared file-jobs channel. The channel
// guarantees each job reaches exactly one worker.
type Pool struct {
	workers []*Worker
	files   ingest.FileQueue
	logger  *zap.Logger
}

// NewPool creates a Pool of n workers sharing the given dependencies.
func NewPool(n int, files ingest.FileQueue, claims ingest.ClaimRegistry, blobs ingest.BlobStore, decoder ingest.Decoder, records ingest.RecordStore, workflows ingest.WorkflowStore, logs ingest.LogChannel, clock ingest.Clock, logger *zap.Logger) *Pool {
	if n <= 0 {
		n = 1
	}
	workers := make([]*Worker, n)
	for i := range workers {
		workers[i] = NewWorker(i+1, claims, blobs, decoder, records, workflows, logs, clock, logger)
	}
	return &Pool{workers: workers, files: files, logger: logger.Named("etl-pool")}
}

// Run starts all workers and blocks until the context is canceled and every
// worker has drained.
func (p *Pool) Run(ctx context.Context) error {
	p.logger.Info("etl pool started", zap.Int("workers", len(p.workers)))

	var wg sync.WaitGroup
	for _, worker := range p.workers {
		wg.Add(1)
		go func(w *Worker) {
			defer wg.Done()
			p.runWorker(ctx, w)
		}(worker)
	}
	wg.Wait()

	p.logger.Info("etl pool stopped")
	return ctx.Err()
}

func (p *Pool) runWorker(ctx context.Context, w *Worker) {
	for {
		job, err := p.files.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			p.logger.Error("dequeue file job", zap.Error(err))
			continue
		}
		w.ProcessFile(ctx, job)
	}
}
