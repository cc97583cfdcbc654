package report

import (
	"fmt"
	"os"
	"strings"
)

// DiagnosticsMode controls how successive files share the diagnostic sink.
type DiagnosticsMode string

const (
	// DiagnosticsRewrite replaces the sink contents every time a file produces
	// diagnostics; only the last such file survives.
	DiagnosticsRewrite DiagnosticsMode = "rewrite"
	// DiagnosticsAppend keeps the diagnostics of every file in the run.
	DiagnosticsAppend DiagnosticsMode = "append"
)

// Valid reports whether m is a known mode.
func (m DiagnosticsMode) Valid() bool {
	return m == DiagnosticsRewrite || m == DiagnosticsAppend
}

// DiagnosticSink is a plain-text log of valueless bare macros, one
// "id: <name>, value: None" line each.
type DiagnosticSink struct {
	path string
	mode DiagnosticsMode
}

// NewDiagnosticSink returns a sink writing to path. An unknown mode falls
// back to DiagnosticsRewrite.
func NewDiagnosticSink(path string, mode DiagnosticsMode) *DiagnosticSink {
	if !mode.Valid() {
		mode = DiagnosticsRewrite
	}
	return &DiagnosticSink{path: path, mode: mode}
}

// Path returns the sink's file path.
func (s *DiagnosticSink) Path() string {
	return s.path
}

// Reset removes output left over from a previous run.
func (s *DiagnosticSink) Reset() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to reset diagnostic sink: %w", err)
	}
	return nil
}

// Write records one file's diagnostics. It is a no-op for an empty list, so
// files without diagnostics never disturb the sink.
func (s *DiagnosticSink) Write(identifiers []string) error {
	if len(identifiers) == 0 {
		return nil
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if s.mode == DiagnosticsAppend {
		flags = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	}

	f, err := os.OpenFile(s.path, flags, 0o644) //nolint:gosec // G304: path comes from configuration
	if err != nil {
		return fmt.Errorf("failed to open diagnostic sink: %w", err)
	}

	var b strings.Builder
	for _, id := range identifiers {
		b.WriteString(FormatDiagnostic(id))
		b.WriteByte('\n')
	}
	if _, err := f.WriteString(b.String()); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write diagnostic sink: %w", err)
	}
	return f.Close()
}

// FormatDiagnostic renders one diagnostic line without the trailing newline.
func FormatDiagnostic(identifier string) string {
	return fmt.Sprintf("id: %s, value: None", identifier)
}
