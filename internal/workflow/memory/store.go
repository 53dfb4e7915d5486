// Package memory provides the in-process workflow store: one live record per
// request, indexed by request ID.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/JakeFAU/findata-ingest/internal/ingest"
)

// Store keeps workflow records in a map keyed by request ID. All mutation is
// read-modify-write under one lock, so concurrent stage updates are
// last-writer-wins without lost updates.
type Store struct {
	mu      sync.RWMutex
	records map[string]ingest.WorkflowRecord
	clock   ingest.Clock
}

// NewStore constructs an empty Store stamping updates with wall-clock time.
func NewStore() *Store {
	return NewStoreWithClock(wallClock{})
}

// NewStoreWithClock constructs an empty Store using the given clock for
// UpdatedAt stamps.
func NewStoreWithClock(clock ingest.Clock) *Store {
	return &Store{
		records: make(map[string]ingest.WorkflowRecord),
		clock:   clock,
	}
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now().UTC() }

// Create stores a new record. A second create for the same request ID is
// rejected: at most one WorkflowRecord exists per request.
func (s *Store) Create(_ context.Context, record ingest.WorkflowRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[record.RequestID]; exists {
		return fmt.Errorf("workflow %s already exists", record.RequestID)
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = record.CreatedAt
	}
	s.records[record.RequestID] = record
	return nil
}

// UpdateStatus mutates the status of the live record.
func (s *Store) UpdateStatus(_ context.Context, requestID string, status ingest.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[requestID]
	if !ok {
		return fmt.Errorf("update workflow %s: %w", requestID, ingest.ErrWorkflowNotFound)
	}
	record.Status = status
	record.UpdatedAt = s.clock.Now().UTC()
	s.records[requestID] = record
	return nil
}

// Get fetches the record for a request ID.
func (s *Store) Get(_ context.Context, requestID string) (ingest.WorkflowRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[requestID]
	if !ok {
		return ingest.WorkflowRecord{}, fmt.Errorf("get workflow %s: %w", requestID, ingest.ErrWorkflowNotFound)
	}
	return record, nil
}

// List returns a copy of every record. Records are never deleted; they are
// retained for audit and monitoring.
func (s *Store) List(_ context.Context) ([]ingest.WorkflowRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ingest.WorkflowRecord, 0, len(s.records))
	for _, record := range s.records {
		out = append(out, record)
	}
	return out, nil
}
