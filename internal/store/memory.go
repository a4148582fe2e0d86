// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory Sink and Sweeper for tests.
type MemoryStore struct {
	mu     sync.Mutex
	nextID int64
	byName map[string]Recording
	data   map[string][]byte

	// FailWith, when set, is returned by Store to simulate storage failure.
	FailWith error
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byName: make(map[string]Recording),
		data:   make(map[string][]byte),
	}
}

// Store records the buffer in memory, overwriting same-filename deliveries.
func (m *MemoryStore) Store(_ context.Context, data []byte, filename string, meta Metadata) (Recording, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return Recording{}, m.FailWith
	}

	rec, ok := m.byName[filename]
	if !ok {
		m.nextID++
		rec = Recording{ID: m.nextID}
	}
	rec.Filename = filename
	rec.StationID = meta.StationID
	rec.StationName = meta.StationName
	rec.DurationSec = meta.DurationSec
	rec.SizeBytes = meta.SizeBytes
	rec.CreatedAt = meta.Timestamp

	m.byName[filename] = rec
	m.data[filename] = append([]byte(nil), data...)
	return rec, nil
}

// ListOlderThan returns recordings created strictly before cutoff.
func (m *MemoryStore) ListOlderThan(_ context.Context, cutoff time.Time) ([]Recording, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Recording
	for _, rec := range m.byName {
		if rec.CreatedAt.Before(cutoff) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// RemoveAll forgets the given recordings.
func (m *MemoryStore) RemoveAll(_ context.Context, recs []Recording) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range recs {
		delete(m.byName, rec.Filename)
		delete(m.data, rec.Filename)
	}
	return nil
}

// Bytes returns the stored buffer for filename, or nil.
func (m *MemoryStore) Bytes(filename string) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.data[filename]...)
}

// Recordings returns all stored recordings.
func (m *MemoryStore) Recordings() []Recording {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Recording, 0, len(m.byName))
	for _, rec := range m.byName {
		out = append(out, rec)
	}
	return out
}
