// Package memory provides the in-process idempotent record store.
package memory

import (
	"context"
	"sync"

	"github.com/JakeFAU/findata-ingest/internal/ingest"
)

// Store keeps persisted records keyed by their business identity. A second
// write with the same key is a no-op.
type Store struct {
	mu      sync.RWMutex
	records map[ingest.RecordKey]ingest.ClientRecord
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{
		records: make(map[ingest.RecordKey]ingest.ClientRecord),
	}
}

// UpsertIfAbsent inserts the record unless the key already exists. The
// stored payload is never overwritten.
func (s *Store) UpsertIfAbsent(_ context.Context, key ingest.RecordKey, record ingest.ClientRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[key]; exists {
		return false, nil
	}
	s.records[key] = record
	return true, nil
}

// Get returns the stored record for a key, if present.
func (s *Store) Get(key ingest.RecordKey) (ingest.ClientRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[key]
	return record, ok
}

// Len reports the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
