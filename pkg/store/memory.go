package store

import (
	"context"
	"sync"
)

// Memory is a durable store that keeps records in process memory. It exists
// for tests and for callers that want the cache/service machinery without
// persistence across restarts.
type Memory struct {
	mu      sync.RWMutex
	records map[string][]byte
}

// NewMemory creates a new in-memory store.
func NewMemory() *Memory {
	return &Memory{
		records: make(map[string][]byte),
	}
}

// Get retrieves a record.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.records[key]
	if !ok {
		return nil, false, nil
	}

	// Copy so callers cannot mutate the stored record.
	out := make([]byte, len(data))
	copy(out, data)

	return out, true, nil
}

// Set saves a record.
func (m *Memory) Set(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make([]byte, len(data))
	copy(stored, data)
	m.records[key] = stored

	return nil
}

// Delete removes a record.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.records, key)

	return nil
}

// Keys returns all slot keys present.
func (m *Memory) Keys(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.records))
	for key := range m.records {
		keys = append(keys, key)
	}

	return keys, nil
}

// Close is a no-op for the in-memory store.
func (m *Memory) Close() error {
	return nil
}
