// Package report writes extracted macros to the tabular and diagnostic sinks.
package report

import (
	"github.com/leapstack-labs/macroscan/internal/macro"
)

// Row is one line of the tabular sink.
type Row struct {
	Identifier string
	Value      string
	File       string
}

// Partition routes one file's entries: normal results become rows tagged with
// file, diagnostic results contribute their identifier to the diagnostics list.
// Input order is preserved in both outputs.
func Partition(file string, entries []macro.Entry) (rows []Row, diagnostics []string) {
	for _, e := range entries {
		if e.Class() == macro.ClassDiagnostic {
			diagnostics = append(diagnostics, e.Result.Identifier)
			continue
		}
		rows = append(rows, Row{
			Identifier: e.Result.Identifier,
			Value:      e.Result.Value,
			File:       file,
		})
	}
	return rows, diagnostics
}
