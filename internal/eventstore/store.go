// Package eventstore keeps the history of completed builds.
package eventstore

import (
	"context"
	"encoding/json"
	"time"
)

// BuildRecord is one finished build.
type BuildRecord struct {
	ID         string          `json:"id"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Outcome    string          `json:"outcome"`
	Published  int             `json:"published"`
	Emitted    int             `json:"emitted"`
	Duration   time.Duration   `json:"duration"`
	Report     json.RawMessage `json:"report,omitempty"`
}

// Store persists build records.
type Store interface {
	// Record appends a finished build. IDs are unique.
	Record(ctx context.Context, rec BuildRecord) error

	// List returns up to limit records, newest first. limit <= 0 returns all.
	List(ctx context.Context, limit int) ([]BuildRecord, error)

	// Close releases the underlying database.
	Close() error
}
