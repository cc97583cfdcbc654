// Package macro extracts preprocessor macro definitions from C-like source text.
//
// Extraction runs in two phases. The first phase (Sanitize, Assemble, Normalize)
// joins line-continued #define bodies into single logical records keyed by the
// macro signature. The second phase (SplitLine) re-parses each record's
// serialized "<key> <body>" line to separate the identifier from the value.
//
// This is not a preprocessor: macros are never expanded, conditionals are not
// evaluated and includes are not followed. Malformed input degrades to a
// best-effort result instead of an error.
package macro

import "strings"

// Kind distinguishes object-like from function-like macros.
type Kind string

const (
	KindObject   Kind = "object"
	KindFunction Kind = "function"
)

// RawKey is a macro name plus its raw, un-normalized parameter list.
// Params includes the surrounding parentheses and is empty for object-like macros.
type RawKey struct {
	Name   string
	Params string
}

// String renders the key as it is stored in the assembled mapping.
func (k RawKey) String() string {
	return k.Name + k.Params
}

// Definition is one assembled macro: its raw key and cleaned single-line body.
type Definition struct {
	Key  RawKey
	Body string
}

// Record is a definition after signature normalization.
type Record struct {
	Key  string // normalized signature, e.g. "MAX (a,b)"
	Body string
}

// Line serializes the record to the intermediate "<key> <body>" form
// consumed by SplitLine.
func (r Record) Line() string {
	return r.Key + " " + r.Body
}

// SplitResult is the identifier/value pair recovered from a record line.
// Value is meaningful only when HasValue is true.
type SplitResult struct {
	Identifier string
	Value      string
	HasValue   bool
}

// Class routes a split result to a sink.
type Class int

const (
	// ClassNormal results go to the tabular sink.
	ClassNormal Class = iota
	// ClassDiagnostic results are bare macros with no value and no signature.
	ClassDiagnostic
)

func (c Class) String() string {
	if c == ClassDiagnostic {
		return "diagnostic"
	}
	return "normal"
}

// Classify returns ClassDiagnostic when the value is absent and the identifier
// has no parenthesized signature.
func Classify(r SplitResult) Class {
	if !r.HasValue && !strings.Contains(r.Identifier, "(") {
		return ClassDiagnostic
	}
	return ClassNormal
}

// Entry pairs a normalized record with its split result.
type Entry struct {
	Record Record
	Result SplitResult
}

// Class is shorthand for Classify(e.Result).
func (e Entry) Class() Class {
	return Classify(e.Result)
}

// Kind reports KindFunction when the recovered identifier carries a
// parameter list. A key like "FOO (1)" whose group turned out to be the
// value is therefore object-like.
func (e Entry) Kind() Kind {
	if strings.Contains(e.Result.Identifier, "(") {
		return KindFunction
	}
	return KindObject
}

// Extract runs the full pipeline over one file's content. All intermediate
// state is local to the call, so concurrent calls on different files are safe.
// The result has one entry per distinct normalized key, in first-seen order.
func Extract(content string) []Entry {
	records := Normalize(Assemble(Sanitize(content)))

	entries := make([]Entry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, Entry{
			Record: rec,
			Result: SplitLine(rec.Line()),
		})
	}
	return entries
}
