package state

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/macroscan/internal/macro"
)

// ReplaceFileMacros swaps the indexed macros of one manifest entry in a run
// for entries. entry is the zero-based slot of file among the run's sources,
// so a file listed twice is indexed twice, as the CSV records it. The delete
// and the inserts share one transaction.
func (s *SQLiteStore) ReplaceFileMacros(ctx context.Context, runID string, entry int, file string, entries []macro.Entry) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM macros WHERE run_id = ? AND entry = ?`, runID, entry); err != nil {
		return fmt.Errorf("failed to delete old macros: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO macros (run_id, entry, file, position, macro_key, identifier, value, kind, diagnostic)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare macro insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, e := range NewMacroEntries(runID, entry, file, entries) {
		_, err := stmt.ExecContext(ctx,
			e.RunID, e.Entry, e.File, e.Position, e.Key, e.Identifier,
			nullableString(e.Value, e.HasValue), string(e.Kind), e.Diagnostic,
		)
		if err != nil {
			return fmt.Errorf("failed to insert macro %s: %w", e.Identifier, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Debug("indexed file macros",
		slog.String("run_id", runID),
		slog.Int("entry", entry),
		slog.String("file", file),
		slog.Int("count", len(entries)))
	return nil
}

// ListMacros returns the macros of a run in the order they were written.
func (s *SQLiteStore) ListMacros(ctx context.Context, runID string, filter Filter) ([]*MacroEntry, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	query := `SELECT run_id, entry, file, position, macro_key, identifier, value, kind, diagnostic
		FROM macros WHERE run_id = ?`
	args := []any{runID}

	if filter.File != "" {
		query += ` AND file = ?`
		args = append(args, filter.File)
	}
	if filter.NamePrefix != "" {
		query += ` AND identifier LIKE ? ESCAPE '\'`
		args = append(args, escapeLike(filter.NamePrefix)+"%")
	}
	if filter.DiagnosticsOnly {
		query += ` AND diagnostic = 1`
	}
	query += ` ORDER BY rowid`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list macros: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []*MacroEntry
	for rows.Next() {
		e := &MacroEntry{}
		var value sql.NullString
		var kind string
		if err := rows.Scan(&e.RunID, &e.Entry, &e.File, &e.Position, &e.Key, &e.Identifier, &value, &kind, &e.Diagnostic); err != nil {
			return nil, fmt.Errorf("failed to scan macro: %w", err)
		}
		e.Value = value.String
		e.HasValue = value.Valid
		e.Kind = macro.Kind(kind)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
