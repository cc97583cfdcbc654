// Package testutil provides logging helpers for package tests.
package testutil

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"testing"
)

// NewTestLogger returns a debug logger that writes to t.Log, so scan and
// index logs only appear for failing tests or with -v.
func NewTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	logger, _ := NewCapturingLogger(t)
	return logger
}

// NewCapturingLogger is NewTestLogger that also keeps every record, so tests
// can assert what a scan reported (skipped sources, indexed entries) without
// parsing text output. Group names are not kept; attributes are flattened.
func NewCapturingLogger(t testing.TB) (*slog.Logger, *Logs) {
	t.Helper()
	logs := &Logs{}
	text := slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(&captureHandler{next: text, logs: logs}), logs
}

// LogEntry is one captured record with its attributes rendered as strings.
type LogEntry struct {
	Level   slog.Level
	Message string
	Attrs   map[string]string
}

// Logs collects records from a capturing logger. It is safe for concurrent
// use, since scan workers log from several goroutines.
type Logs struct {
	mu      sync.Mutex
	entries []LogEntry
}

// Entries returns a copy of everything logged so far.
func (l *Logs) Entries() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.entries)
}

// Find returns every entry with the given message, in logging order.
func (l *Logs) Find(message string) []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []LogEntry
	for _, e := range l.entries {
		if e.Message == message {
			out = append(out, e)
		}
	}
	return out
}

func (l *Logs) add(e LogEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, e)
}

type captureHandler struct {
	next  slog.Handler
	logs  *Logs
	attrs []slog.Attr
}

func (h *captureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *captureHandler) Handle(ctx context.Context, r slog.Record) error {
	entry := LogEntry{Level: r.Level, Message: r.Message, Attrs: make(map[string]string, len(h.attrs)+r.NumAttrs())}
	for _, a := range h.attrs {
		entry.Attrs[a.Key] = a.Value.String()
	}
	r.Attrs(func(a slog.Attr) bool {
		entry.Attrs[a.Key] = a.Value.String()
		return true
	})
	h.logs.add(entry)
	return h.next.Handle(ctx, r)
}

func (h *captureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &captureHandler{
		next:  h.next.WithAttrs(attrs),
		logs:  h.logs,
		attrs: append(slices.Clip(h.attrs), attrs...),
	}
}

func (h *captureHandler) WithGroup(name string) slog.Handler {
	return &captureHandler{next: h.next.WithGroup(name), logs: h.logs, attrs: h.attrs}
}

type testWriter struct {
	t testing.TB
}

func (w testWriter) Write(p []byte) (n int, err error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}
