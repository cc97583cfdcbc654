// Package scan runs macro extraction over every source file listed in a
// manifest and feeds the results to the report sinks and the optional index.
package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/macroscan/internal/macro"
	"github.com/leapstack-labs/macroscan/internal/report"
	"github.com/leapstack-labs/macroscan/internal/state"
)

// Default sink names and limits.
const (
	DefaultCSVFile   = "output.csv"
	DefaultDebugFile = "debug_support.txt"
	DefaultWorkers   = 4
	DefaultDebounce  = 100 * time.Millisecond
)

// Indexer receives every scanned file. state.SQLiteStore satisfies it.
type Indexer interface {
	BeginRun(ctx context.Context, manifest string) (*state.Run, error)
	ReplaceFileMacros(ctx context.Context, runID string, entry int, file string, entries []macro.Entry) error
	CompleteRun(ctx context.Context, runID string, stats state.RunStats, runErr error) error
}

// Config holds everything a scan needs. Paths are used as given.
type Config struct {
	Manifest        string
	OutputDir       string
	CSVFile         string
	DebugFile       string
	DiagnosticsMode report.DiagnosticsMode
	Workers         int
	ContinueOnError bool
	Extensions      []string
	Debounce        time.Duration
	Logger          *slog.Logger
	Index           Indexer
}

// Scanner runs scans for one configuration. A Scanner is not safe for
// concurrent Run calls because runs share the sinks.
type Scanner struct {
	cfg    Config
	logger *slog.Logger
	filter ExtensionFilter
	csv    *report.CSVSink
	diag   *report.DiagnosticSink
}

// New validates cfg and fills in defaults.
func New(cfg Config) (*Scanner, error) {
	if cfg.Manifest == "" {
		return nil, errors.New("manifest path is required")
	}
	if cfg.OutputDir == "" {
		return nil, errors.New("output directory is required")
	}
	if cfg.CSVFile == "" {
		cfg.CSVFile = DefaultCSVFile
	}
	if cfg.DebugFile == "" {
		cfg.DebugFile = DefaultDebugFile
	}
	if cfg.DiagnosticsMode == "" {
		cfg.DiagnosticsMode = report.DiagnosticsRewrite
	}
	if !cfg.DiagnosticsMode.Valid() {
		return nil, fmt.Errorf("invalid diagnostics mode %q", cfg.DiagnosticsMode)
	}
	if cfg.Workers < 1 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Scanner{
		cfg:    cfg,
		logger: logger,
		filter: NewExtensionFilter(cfg.Extensions),
		csv:    report.NewCSVSink(filepath.Join(cfg.OutputDir, cfg.CSVFile)),
		diag:   report.NewDiagnosticSink(filepath.Join(cfg.OutputDir, cfg.DebugFile), cfg.DiagnosticsMode),
	}, nil
}

// FileSummary describes one manifest entry after a run.
type FileSummary struct {
	Path        string `json:"path" yaml:"path"`
	Macros      int    `json:"macros" yaml:"macros"`
	Rows        int    `json:"rows" yaml:"rows"`
	Diagnostics int    `json:"diagnostics" yaml:"diagnostics"`
	Err         error  `json:"-" yaml:"-"`
	Error       string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Summary is the outcome of one run.
type Summary struct {
	RunID       string        `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Manifest    string        `json:"manifest" yaml:"manifest"`
	CSVPath     string        `json:"csv_path" yaml:"csv_path"`
	DebugPath   string        `json:"debug_path" yaml:"debug_path"`
	Files       []FileSummary `json:"files" yaml:"files"`
	Skipped     []string      `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Rows        int           `json:"rows" yaml:"rows"`
	Diagnostics int           `json:"diagnostics" yaml:"diagnostics"`
	Failures    int           `json:"failures" yaml:"failures"`
	Duration    time.Duration `json:"duration" yaml:"duration"`
}

// Stats converts the summary into index counters.
func (s *Summary) Stats() state.RunStats {
	return state.RunStats{
		Files:       len(s.Files),
		RowsWritten: s.Rows,
		Diagnostics: s.Diagnostics,
		Failures:    s.Failures,
	}
}

type fileResult struct {
	entries []macro.Entry
	err     error
}

// Run performs one scan. Files are parsed concurrently but written to the
// sinks in manifest order. A failing file aborts the run after the files
// before it are written, unless ContinueOnError is set. The returned summary
// is non-nil whenever the manifest could be read.
func (s *Scanner) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()

	sources, err := ReadManifest(s.cfg.Manifest)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		Manifest:  s.cfg.Manifest,
		CSVPath:   s.csv.Path(),
		DebugPath: s.diag.Path(),
	}

	accepted := make([]Source, 0, len(sources))
	for _, src := range sources {
		if !s.filter.Accept(src.Path) {
			s.logger.Debug("skipping source by extension", slog.String("path", src.Path))
			summary.Skipped = append(summary.Skipped, src.Path)
			continue
		}
		accepted = append(accepted, src)
	}

	if err := s.resetSinks(); err != nil {
		return summary, err
	}

	if s.cfg.Index != nil {
		run, err := s.cfg.Index.BeginRun(ctx, s.cfg.Manifest)
		if err != nil {
			return summary, fmt.Errorf("failed to begin indexed run: %w", err)
		}
		summary.RunID = run.ID
	}

	s.logger.Debug("scanning sources",
		slog.String("manifest", s.cfg.Manifest),
		slog.Int("files", len(accepted)),
		slog.Int("workers", s.cfg.Workers))

	results := s.extractAll(ctx, accepted)
	runErr := ctx.Err()
	if runErr == nil {
		runErr = s.writeAll(ctx, summary, accepted, results)
	}

	if s.cfg.Index != nil {
		if err := s.cfg.Index.CompleteRun(ctx, summary.RunID, summary.Stats(), runErr); err != nil {
			s.logger.Error("failed to complete indexed run", slog.String("run_id", summary.RunID), slog.Any("error", err))
			if runErr == nil {
				runErr = err
			}
		}
	}

	summary.Duration = time.Since(start)
	s.logger.Info("scan finished",
		slog.Int("files", len(summary.Files)),
		slog.Int("rows", summary.Rows),
		slog.Int("diagnostics", summary.Diagnostics),
		slog.Int("failures", summary.Failures),
		slog.Duration("duration", summary.Duration))

	return summary, runErr
}

func (s *Scanner) resetSinks() error {
	if err := os.MkdirAll(s.cfg.OutputDir, 0o750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := s.csv.Reset(); err != nil {
		return err
	}
	return s.diag.Reset()
}

// extractAll loads and parses every source. Per-file failures are recorded in
// the result slot rather than returned, so one bad file never cancels the
// others.
func (s *Scanner) extractAll(ctx context.Context, sources []Source) []fileResult {
	results := make([]fileResult, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)

	for i, src := range sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i].err = err
				return nil
			}
			content, err := LoadSource(src.Resolved)
			if err != nil {
				results[i].err = &FileError{Path: src.Path, Err: err}
				return nil
			}
			results[i].entries = macro.Extract(content)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (s *Scanner) writeAll(ctx context.Context, summary *Summary, sources []Source, results []fileResult) error {
	for i, src := range sources {
		if err := ctx.Err(); err != nil {
			return err
		}

		res := results[i]
		if res.err != nil {
			summary.Failures++
			summary.Files = append(summary.Files, FileSummary{Path: src.Path, Err: res.err, Error: res.err.Error()})
			if !s.cfg.ContinueOnError {
				return res.err
			}
			s.logger.Warn("skipping unreadable source", slog.String("path", src.Path), slog.Any("error", res.err))
			continue
		}

		fs, err := s.writeFile(ctx, summary.RunID, i, src.Path, res.entries)
		if err != nil {
			return err
		}
		summary.Files = append(summary.Files, fs)
		summary.Rows += fs.Rows
		summary.Diagnostics += fs.Diagnostics
	}
	return nil
}

func (s *Scanner) writeFile(ctx context.Context, runID string, slot int, path string, entries []macro.Entry) (FileSummary, error) {
	rows, diagnostics := report.Partition(path, entries)

	if err := s.csv.Append(rows); err != nil {
		return FileSummary{}, err
	}
	if err := s.diag.Write(diagnostics); err != nil {
		return FileSummary{}, err
	}
	if s.cfg.Index != nil {
		if err := s.cfg.Index.ReplaceFileMacros(ctx, runID, slot, path, entries); err != nil {
			return FileSummary{}, fmt.Errorf("failed to index %s: %w", path, err)
		}
	}

	s.logger.Debug("wrote source",
		slog.String("path", path),
		slog.Int("rows", len(rows)),
		slog.Int("diagnostics", len(diagnostics)))

	return FileSummary{
		Path:        path,
		Macros:      len(entries),
		Rows:        len(rows),
		Diagnostics: len(diagnostics),
	}, nil
}
