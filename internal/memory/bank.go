// Package memory implements the reasoning bank: SQLite-backed storage
// for execution patterns, learning episodes, vector embeddings, memory
// distillations, and pattern associations, plus similarity retrieval.
package memory

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Bank provides SQLite-backed storage for the reasoning memory.
// Durable records are append-mostly; the per-pattern episode counter is
// the only write path requiring serialized access.
type Bank struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex

	index *graphIndex
}

// GlobalDBPath returns the path to the global reasoning bank database.
func GlobalDBPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, _ := os.UserHomeDir()
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "swarm", "reasoningbank.db")
}

// ProjectDBPath returns the path to the project-local bank database.
func ProjectDBPath(projectRoot string) string {
	return filepath.Join(projectRoot, ".swarm", "reasoningbank.db")
}

// Open opens (creating if necessary) a reasoning bank at the given path.
// Parent directories are created and WAL mode is enabled for concurrent
// reads.
func Open(dbPath string) (*Bank, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return &Bank{
		db:     conn,
		dbPath: dbPath,
		index:  newGraphIndex(defaultFanOut, defaultSearchDepth),
	}, nil
}

// Close closes the database connection.
func (b *Bank) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.db.Close()
}

// Path returns the path to the database file.
func (b *Bank) Path() string {
	return b.dbPath
}

// Helper functions

// formatTime formats a time.Time for SQLite storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// parseTime parses a time string from SQLite.
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

// nullTime converts an optional time to sql.NullString.
func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}
