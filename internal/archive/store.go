// Package archive keeps finished measurement sessions in a SQLite database so
// timing records from earlier runs can be listed, inspected and compared.
package archive

import (
	"context"
	"time"

	"git.home.luguber.info/inful/splatbench/internal/benchmarker"
)

// SessionInfo describes an archived session without its samples.
type SessionInfo struct {
	ID        string    `json:"id"`
	Label     string    `json:"label,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Tags      int       `json:"tags"`
	Samples   int       `json:"samples"`
}

// Session is an archived session with its full timing record.
type Session struct {
	SessionInfo
	Timings *benchmarker.Timings `json:"timings"`
}

// Store defines the interface for persisting and retrieving sessions.
type Store interface {
	// SaveSession stores a session; ids are unique.
	SaveSession(ctx context.Context, info SessionInfo, timings *benchmarker.Timings) error

	// ListSessions returns sessions newest first. limit <= 0 means all.
	ListSessions(ctx context.Context, limit int) ([]SessionInfo, error)

	// LoadSession returns one session with its samples in recorded order.
	LoadSession(ctx context.Context, id string) (*Session, error)

	// Close closes the store and releases resources.
	Close() error
}
