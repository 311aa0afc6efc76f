package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no live record exists for a key
var ErrNotFound = errors.New("session not found")

// Record is the persisted form of one conversation. Payload is the encoded
// stage of the flow and is opaque to the store.
type Record struct {
	Key       string    `json:"key"`
	Flow      string    `json:"flow"`
	State     string    `json:"state"`
	RunID     string    `json:"run_id"`
	Payload   []byte    `json:"payload"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store keeps conversation records until they are deleted or their TTL lapses
type Store interface {
	Get(ctx context.Context, key string) (*Record, error)
	Put(ctx context.Context, record *Record, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}
