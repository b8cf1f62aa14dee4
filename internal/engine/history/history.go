// Package history records resolved searches. It is backed by Postgres when a
// DATABASE_URL is configured and by a local SQLite file otherwise.
package history

import (
	"context"
	"os"
	"path/filepath"
	"time"
)

const (
	DefaultLimit = 20
	MaxLimit     = 200
)

// Entry is one resolved search.
type Entry struct {
	Query     string    `json:"query"`
	VideoID   string    `json:"id"`
	Fallback  bool      `json:"fallback,omitempty"`
	Cached    bool      `json:"cached,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists entries. Recent returns the newest first.
type Store interface {
	Record(ctx context.Context, e Entry) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
	Close() error
}

// Open picks Postgres when databaseURL is set, else SQLite at sqlitePath.
// An empty sqlitePath means DefaultSQLitePath().
func Open(ctx context.Context, databaseURL, sqlitePath string) (Store, error) {
	if databaseURL != "" {
		return OpenPostgres(ctx, databaseURL)
	}
	if sqlitePath == "" {
		sqlitePath = DefaultSQLitePath()
	}
	return OpenSQLite(sqlitePath)
}

// DefaultSQLitePath is $HOME/.go_spotitube/history.db.
func DefaultSQLitePath() string {
	return filepath.Join(os.Getenv("HOME"), ".go_spotitube", "history.db")
}

// clampLimit maps limit into [1, MaxLimit], with 0 or less meaning DefaultLimit.
func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	}
	return limit
}

// stamp fills CreatedAt if unset.
func stamp(e Entry) Entry {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	return e
}
