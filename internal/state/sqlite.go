package state

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver (pure Go)
)

// SQLiteStore implements Store on top of modernc.org/sqlite.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Open opens (creating if needed) the index at path and applies pending
// migrations. Use ":memory:" for a throwaway index.
func Open(ctx context.Context, path string, logger *slog.Logger) (*SQLiteStore, error) {
	dsn := ":memory:"
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create state directory: %w", err)
			}
		}
		dsn = "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// One connection keeps an in-memory database alive and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s := newStore(db, logger)
	s.path = path
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	s.logger.Debug("opened macro index", slog.String("path", path))
	return s, nil
}

// Attach wraps an index connection that is already open, without migrating
// it. The caller keeps ownership of db.
func Attach(db *sql.DB, logger *slog.Logger) *SQLiteStore {
	return newStore(db, logger)
}

func newStore(db *sql.DB, logger *slog.Logger) *SQLiteStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLiteStore{db: db, logger: logger}
}

// Path returns the database path the store was opened with.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func generateID() string {
	return uuid.New().String()
}

func nullableString(s string, valid bool) sql.NullString {
	return sql.NullString{String: s, Valid: valid}
}

var _ Store = (*SQLiteStore)(nil)
