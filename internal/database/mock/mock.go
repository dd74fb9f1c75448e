// Package mock provides mock implementations of database interfaces for testing.
package mock

import (
	"context"
	"sync"

	"github.com/kozaktomas/face-reindex/internal/database"
	"github.com/kozaktomas/face-reindex/internal/facematch"
)

// MockResultStore is an in-memory database.ResultStore
type MockResultStore struct {
	mu      sync.RWMutex
	rows    []database.StoredResult
	batches int

	// Error injection
	SaveError  error
	ListError  error
	CountError error
}

// NewMockResultStore creates a new empty mock result store
func NewMockResultStore() *MockResultStore {
	return &MockResultStore{}
}

// SaveResults appends the batch rows
func (m *MockResultStore) SaveResults(ctx context.Context, batch facematch.ResultBatch) error {
	if m.SaveError != nil {
		return m.SaveError
	}
	rows, err := database.RowsFromBatch(batch)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, rows...)
	m.batches++
	return nil
}

// ListResults returns rows stored for an external image id
func (m *MockResultStore) ListResults(ctx context.Context, externalImageID string) ([]database.StoredResult, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []database.StoredResult
	for _, r := range m.rows {
		if r.ExternalImageID == externalImageID {
			out = append(out, r)
		}
	}
	return out, nil
}

// CountResults returns the number of stored rows
func (m *MockResultStore) CountResults(ctx context.Context) (int, error) {
	if m.CountError != nil {
		return 0, m.CountError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rows), nil
}

// Batches returns how many batches were saved
func (m *MockResultStore) Batches() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.batches
}

// Rows returns a copy of all stored rows
func (m *MockResultStore) Rows() []database.StoredResult {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]database.StoredResult(nil), m.rows...)
}
