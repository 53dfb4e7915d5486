// Package memory implements the processing-claim registry backing the ETL
// duplicate-delivery guard.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/JakeFAU/findata-ingest/internal/ingest"
)

// Registry holds claims keyed by file path. The check-then-set in Acquire
// happens under one lock, so two workers racing on the same path cannot both
// observe it unclaimed.
type Registry struct {
	mu     sync.Mutex
	byPath map[string]ingest.ProcessingClaim
	byID   map[string]string // claim ID -> file path
	idGen  ingest.IDGenerator
	clock  ingest.Clock
}

// NewRegistry constructs a Registry.
func NewRegistry(idGen ingest.IDGenerator, clock ingest.Clock) *Registry {
	return &Registry{
		byPath: make(map[string]ingest.ProcessingClaim),
		byID:   make(map[string]string),
		idGen:  idGen,
		clock:  clock,
	}
}

// Acquire atomically claims the file path. It returns acquired=false when a
// claim for the path is currently processing; a completed or failed claim
// may be re-acquired (replay safety comes from the idempotent record write,
// not from the claim).
func (r *Registry) Acquire(_ context.Context, filePath string) (ingest.ProcessingClaim, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byPath[filePath]; ok && existing.State == ingest.ClaimProcessing {
		return existing, false, nil
	}

	id, err := r.idGen.NewID()
	if err != nil {
		return ingest.ProcessingClaim{}, false, fmt.Errorf("generate claim id: %w", err)
	}
	claim := ingest.ProcessingClaim{
		ClaimID:   id,
		FilePath:  filePath,
		State:     ingest.ClaimProcessing,
		UpdatedAt: r.clock.Now(),
	}
	r.byPath[filePath] = claim
	r.byID[id] = filePath
	return claim, true, nil
}

// Release moves the claim to completed or failed. Claims are retained for
// dedup lookups, never deleted.
func (r *Registry) Release(_ context.Context, claimID string, state ingest.ClaimState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	path, ok := r.byID[claimID]
	if !ok {
		return fmt.Errorf("release claim %s: %w", claimID, ingest.ErrNotFound)
	}
	claim := r.byPath[path]
	if claim.ClaimID != claimID {
		// A newer claim superseded this one; releasing a stale claim must
		// not clobber the live state.
		return nil
	}
	claim.State = state
	claim.UpdatedAt = r.clock.Now()
	r.byPath[path] = claim
	return nil
}

// Get returns the current claim for a file path.
func (r *Registry) Get(_ context.Context, filePath string) (ingest.ProcessingClaim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	claim, ok := r.byPath[filePath]
	if !ok {
		return ingest.ProcessingClaim{}, fmt.Errorf("get claim for %s: %w", filePath, ingest.ErrNotFound)
	}
	return claim, nil
}
