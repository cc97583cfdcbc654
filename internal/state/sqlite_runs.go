package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const runColumns = `id, manifest, status, started_at, completed_at, files, rows_written, diagnostics, failures, error`

// BeginRun records the start of a scan over manifest.
func (s *SQLiteStore) BeginRun(ctx context.Context, manifest string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run := &Run{
		ID:        generateID(),
		Manifest:  manifest,
		Status:    RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}

	s.logger.Debug("creating run", slog.String("id", run.ID), slog.String("manifest", manifest))

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, manifest, status, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.Manifest, string(run.Status), run.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return run, nil
}

// CompleteRun stores the final counters of a run. A nil runErr marks the run
// completed, a cancelled context marks it cancelled, anything else failed.
func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, stats RunStats, runErr error) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	status := RunStatusCompleted
	var errMsg sql.NullString
	switch {
	case runErr == nil:
	case errors.Is(runErr, context.Canceled):
		status = RunStatusCancelled
		errMsg = nullableString(runErr.Error(), true)
	default:
		status = RunStatusFailed
		errMsg = nullableString(runErr.Error(), true)
	}

	// The scan context may already be cancelled; the final status still has
	// to be written.
	result, err := s.db.ExecContext(context.WithoutCancel(ctx),
		`UPDATE runs SET status = ?, completed_at = ?, files = ?, rows_written = ?, diagnostics = ?, failures = ?, error = ? WHERE id = ?`,
		string(status), time.Now().UTC(), stats.Files, stats.RowsWritten, stats.Diagnostics, stats.Failures, errMsg, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("run not found: %s", runID)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run, err := scanRun(s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// LatestRun returns the most recently started run, or nil when the index is
// empty.
func (s *SQLiteStore) LatestRun(ctx context.Context) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run, err := scanRun(s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, rowid DESC LIMIT 1`))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}
	return run, nil
}

// ListRuns returns up to limit runs, newest first. A limit of zero or less
// returns every run.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	run := &Run{}
	var status string
	var completedAt sql.NullTime
	var errMsg sql.NullString

	err := row.Scan(&run.ID, &run.Manifest, &status, &run.StartedAt, &completedAt,
		&run.Files, &run.RowsWritten, &run.Diagnostics, &run.Failures, &errMsg)
	if err != nil {
		return nil, err
	}

	run.Status = RunStatus(status)
	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}
	if errMsg.Valid {
		run.Error = errMsg.String
	}
	return run, nil
}
