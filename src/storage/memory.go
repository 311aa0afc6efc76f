package storage

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type memoryEntry struct {
	record    Record
	expiresAt time.Time
}

// MemoryStorage is the default in-process Store. Records vanish on restart.
type MemoryStorage struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStorage creates a new in-memory storage instance
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get retrieves a record, dropping it if it has expired
func (m *MemoryStorage) Get(ctx context.Context, key string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.entries[key]
	if !exists {
		return nil, ErrNotFound
	}

	if !entry.expiresAt.IsZero() && m.now().After(entry.expiresAt) {
		delete(m.entries, key)
		return nil, ErrNotFound
	}

	record := entry.record
	record.Payload = append([]byte(nil), entry.record.Payload...)
	return &record, nil
}

// Put saves or replaces a record. A zero ttl keeps it until deleted.
func (m *MemoryStorage) Put(ctx context.Context, record *Record, ttl time.Duration) error {
	if record.Key == "" {
		return fmt.Errorf("session key cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	stored := *record
	stored.Payload = append([]byte(nil), record.Payload...)
	stored.UpdatedAt = now

	entry := memoryEntry{record: stored}
	if ttl > 0 {
		entry.expiresAt = now.Add(ttl)
	}
	m.entries[record.Key] = entry
	return nil
}

// Delete removes a record
func (m *MemoryStorage) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

// Sweep drops every expired record and returns how many were removed
func (m *MemoryStorage) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for key, entry := range m.entries {
		if !entry.expiresAt.IsZero() && now.After(entry.expiresAt) {
			delete(m.entries, key)
			removed++
		}
	}
	return removed
}

// Len reports the number of stored records, expired ones included
func (m *MemoryStorage) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}

func (m *MemoryStorage) Close() error {
	return nil
}
