package report

import (
	"encoding/csv"
	"fmt"
	"os"
)

// Header is the first record of every tabular sink.
var Header = []string{"Macro Name", "Macro Definition", "Defined File Name"}

// CSVSink appends rows to a comma-separated file. Reset truncates the file
// and writes Header; Append opens, writes and closes the file each call so a
// crash between files leaves only complete rows behind.
type CSVSink struct {
	path string
}

// NewCSVSink returns a sink writing to path. Nothing is touched until Reset.
func NewCSVSink(path string) *CSVSink {
	return &CSVSink{path: path}
}

// Path returns the sink's file path.
func (s *CSVSink) Path() string {
	return s.path
}

// Reset truncates the sink and writes the header record.
func (s *CSVSink) Reset() error {
	f, err := os.Create(s.path) //nolint:gosec // G304: path comes from configuration
	if err != nil {
		return fmt.Errorf("failed to reset csv sink: %w", err)
	}
	if err := writeRecords(f, [][]string{Header}); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Append writes rows after any existing content.
func (s *CSVSink) Append(rows []Row) error {
	if len(rows) == 0 {
		return nil
	}

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644) //nolint:gosec // G304: path comes from configuration
	if err != nil {
		return fmt.Errorf("failed to open csv sink: %w", err)
	}

	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{r.Identifier, r.Value, r.File})
	}
	if err := writeRecords(f, records); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func writeRecords(f *os.File, records [][]string) error {
	w := csv.NewWriter(f)
	w.UseCRLF = true
	if err := w.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write csv sink %s: %w", f.Name(), err)
	}
	return nil
}
