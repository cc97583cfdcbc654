// Package state keeps an optional SQLite index of scan runs and the macros
// each run extracted.
package state

import (
	"context"
	"time"

	"github.com/leapstack-labs/macroscan/internal/macro"
)

// RunStatus represents the status of a scan run.
type RunStatus string

// Run status values.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// Run is one invocation of the scanner over a manifest.
type Run struct {
	ID          string     `json:"id" yaml:"id"`
	Manifest    string     `json:"manifest" yaml:"manifest"`
	Status      RunStatus  `json:"status" yaml:"status"`
	StartedAt   time.Time  `json:"started_at" yaml:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
	Files       int        `json:"files" yaml:"files"`
	RowsWritten int        `json:"rows_written" yaml:"rows_written"`
	Diagnostics int        `json:"diagnostics" yaml:"diagnostics"`
	Failures    int        `json:"failures" yaml:"failures"`
	Error       string     `json:"error,omitempty" yaml:"error,omitempty"`
}

// RunStats are the counters recorded when a run completes.
type RunStats struct {
	Files       int
	RowsWritten int
	Diagnostics int
	Failures    int
}

// MacroEntry is one indexed split result.
type MacroEntry struct {
	RunID      string     `json:"run_id" yaml:"run_id"`
	Entry      int        `json:"entry" yaml:"entry"`
	File       string     `json:"file" yaml:"file"`
	Position   int        `json:"position" yaml:"position"`
	Key        string     `json:"key" yaml:"key"`
	Identifier string     `json:"identifier" yaml:"identifier"`
	Value      string     `json:"value" yaml:"value"`
	HasValue   bool       `json:"has_value" yaml:"has_value"`
	Kind       macro.Kind `json:"kind" yaml:"kind"`
	Diagnostic bool       `json:"diagnostic" yaml:"diagnostic"`
}

// Filter narrows ListMacros. Zero values match everything.
type Filter struct {
	File            string
	NamePrefix      string
	DiagnosticsOnly bool
}

// Store is the macro index.
type Store interface {
	BeginRun(ctx context.Context, manifest string) (*Run, error)
	ReplaceFileMacros(ctx context.Context, runID string, entry int, file string, entries []macro.Entry) error
	CompleteRun(ctx context.Context, runID string, stats RunStats, runErr error) error
	GetRun(ctx context.Context, id string) (*Run, error)
	LatestRun(ctx context.Context) (*Run, error)
	ListRuns(ctx context.Context, limit int) ([]*Run, error)
	ListMacros(ctx context.Context, runID string, filter Filter) ([]*MacroEntry, error)
	Close() error
}

// NewMacroEntries converts the extraction result of one manifest entry into
// index rows, numbering positions from zero in extraction order.
func NewMacroEntries(runID string, entry int, file string, entries []macro.Entry) []*MacroEntry {
	out := make([]*MacroEntry, 0, len(entries))
	for i, e := range entries {
		out = append(out, &MacroEntry{
			RunID:      runID,
			Entry:      entry,
			File:       file,
			Position:   i,
			Key:        e.Record.Key,
			Identifier: e.Result.Identifier,
			Value:      e.Result.Value,
			HasValue:   e.Result.HasValue,
			Kind:       e.Kind(),
			Diagnostic: e.Class() == macro.ClassDiagnostic,
		})
	}
	return out
}
