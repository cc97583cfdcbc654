package commands

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/macroscan/internal/state"
)

const (
	replPrompt         = "macroscan> "
	replContinuePrompt = "       ...> "
)

// queryFormats are the formats accepted by --format and .format.
var queryFormats = []string{"table", "json", "csv", "md"}

// errQuitREPL ends the session.
var errQuitREPL = errors.New("quit")

// replCommand is one dot-command of the interactive session.
type replCommand struct {
	name  string
	args  string
	help  string
	nargs int
	run   func(ctx context.Context, s *replSession, args []string) error
}

// replSession is an interactive query session over a read-only index.
// Dot-commands browse the latest run through the same filters as
// 'macroscan list'; anything else accumulates as SQL until a semicolon.
type replSession struct {
	db       *sql.DB
	store    *state.SQLiteStore
	out      io.Writer
	errOut   io.Writer
	format   string
	pending  strings.Builder
	commands []replCommand
}

func newREPLSession(db *sql.DB, out, errOut io.Writer, format string) *replSession {
	s := &replSession{
		db:     db,
		store:  state.Attach(db, nil),
		out:    out,
		errOut: errOut,
		format: format,
	}
	s.commands = []replCommand{
		{name: ".help", help: "Show this help message", run: func(_ context.Context, s *replSession, _ []string) error {
			s.printHelp()
			return nil
		}},
		{name: ".tables", help: "List all tables and views", run: func(ctx context.Context, s *replSession, _ []string) error {
			return listTablesFromDB(ctx, s.out, s.db, s.format)
		}},
		{name: ".schema", args: "<name>", nargs: 1, help: "Show schema for a table or view", run: func(ctx context.Context, s *replSession, args []string) error {
			return showSchemaFromDB(ctx, s.out, s.db, args[0], s.format)
		}},
		{name: ".search", args: "<term>", nargs: 1, help: "Search names and definitions of the latest run", run: func(ctx context.Context, s *replSession, args []string) error {
			return searchMacros(ctx, s.out, s.db, strings.Join(args, " "), s.format)
		}},
		{name: ".file", args: "<path>", nargs: 1, help: "Macros a manifest entry defined in the latest run", run: func(ctx context.Context, s *replSession, args []string) error {
			return s.listLatest(ctx, state.Filter{File: args[0]})
		}},
		{name: ".name", args: "<prefix>", nargs: 1, help: "Macros whose name starts with prefix", run: func(ctx context.Context, s *replSession, args []string) error {
			return s.listLatest(ctx, state.Filter{NamePrefix: args[0]})
		}},
		{name: ".diagnostics", args: "[path]", help: "Macros without a determinable definition", run: func(ctx context.Context, s *replSession, args []string) error {
			filter := state.Filter{DiagnosticsOnly: true}
			if len(args) > 0 {
				filter.File = args[0]
			}
			return s.listLatest(ctx, filter)
		}},
		{name: ".runs", args: "[n]", help: "Recent scan runs (default 10)", run: func(ctx context.Context, s *replSession, args []string) error {
			limit := 10
			if len(args) > 0 {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid run count %q", args[0])
				}
				limit = n
			}
			return s.listRuns(ctx, limit)
		}},
		{name: ".format", args: "[format]", help: "Show or set the output format (table, json, csv, md)", run: func(_ context.Context, s *replSession, args []string) error {
			if len(args) == 0 {
				_, _ = fmt.Fprintln(s.out, s.format)
				return nil
			}
			return s.setFormat(args[0])
		}},
		{name: ".clear", help: "Clear the screen", run: func(_ context.Context, s *replSession, _ []string) error {
			_, _ = fmt.Fprint(s.out, "\033[H\033[2J")
			return nil
		}},
		{name: ".quit", help: "Exit the REPL (also .exit)", run: func(context.Context, *replSession, []string) error {
			return errQuitREPL
		}},
		{name: ".exit", run: func(context.Context, *replSession, []string) error {
			return errQuitREPL
		}},
	}
	return s
}

// prompt returns the prompt for the next line.
func (s *replSession) prompt() string {
	if s.pending.Len() > 0 {
		return replContinuePrompt
	}
	return replPrompt
}

// interrupt drops a partially entered statement.
func (s *replSession) interrupt() {
	s.pending.Reset()
}

// handle processes one input line and reports whether the session should end.
// Errors are printed, never returned, so one bad statement keeps the session.
func (s *replSession) handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	if s.pending.Len() == 0 && strings.HasPrefix(line, ".") {
		err := s.dispatch(ctx, line)
		if errors.Is(err, errQuitREPL) {
			return true
		}
		if err != nil {
			_, _ = fmt.Fprintf(s.errOut, "Error: %v\n", err)
		}
		return false
	}

	query, ready := s.feed(line)
	if !ready {
		return false
	}
	if err := executeAndRenderQuery(ctx, s.out, s.db, query, s.format); err != nil {
		_, _ = fmt.Fprintf(s.errOut, "Error: %v\n", err)
	}
	_, _ = fmt.Fprintln(s.out)
	return false
}

// feed appends a line of SQL and returns the statement once a line ends with
// a semicolon.
func (s *replSession) feed(line string) (string, bool) {
	if s.pending.Len() > 0 {
		s.pending.WriteByte(' ')
	}
	s.pending.WriteString(line)
	if !strings.HasSuffix(line, ";") {
		return "", false
	}
	query := strings.TrimSuffix(s.pending.String(), ";")
	s.pending.Reset()
	return query, true
}

func (s *replSession) dispatch(ctx context.Context, line string) error {
	parts := strings.Fields(line)
	name := strings.ToLower(parts[0])
	for _, c := range s.commands {
		if c.name != name {
			continue
		}
		if len(parts)-1 < c.nargs {
			return fmt.Errorf("usage: %s %s", c.name, c.args)
		}
		return c.run(ctx, s, parts[1:])
	}
	return fmt.Errorf("unknown command: %s (type .help for commands)", name)
}

func (s *replSession) setFormat(format string) error {
	format = strings.ToLower(format)
	if format == "markdown" {
		format = "md"
	}
	for _, f := range queryFormats {
		if f == format {
			s.format = format
			return nil
		}
	}
	return fmt.Errorf("unknown format %q (want one of %s)", format, strings.Join(queryFormats, ", "))
}

// listLatest renders the macros of the most recent run that match filter.
func (s *replSession) listLatest(ctx context.Context, filter state.Filter) error {
	run, err := s.store.LatestRun(ctx)
	if err != nil {
		return err
	}
	if run == nil {
		return errNoRuns
	}
	macros, err := s.store.ListMacros(ctx, run.ID, filter)
	if err != nil {
		return err
	}

	results := make([][]any, 0, len(macros))
	for _, m := range macros {
		var value any
		if m.HasValue {
			value = m.Value
		}
		results = append(results, []any{m.Identifier, value, m.File, string(m.Kind)})
	}
	return renderGrid(s.out, []string{"identifier", "value", "file", "kind"}, results, s.format)
}

func (s *replSession) listRuns(ctx context.Context, limit int) error {
	runs, err := s.store.ListRuns(ctx, limit)
	if err != nil {
		return err
	}

	results := make([][]any, 0, len(runs))
	for _, r := range runs {
		results = append(results, []any{
			r.ID, string(r.Status), r.StartedAt.Format("2006-01-02 15:04:05"),
			r.Files, r.RowsWritten, r.Diagnostics, r.Failures,
		})
	}
	return renderGrid(s.out,
		[]string{"id", "status", "started_at", "files", "rows", "diagnostics", "failures"},
		results, s.format)
}

func (s *replSession) printHelp() {
	var b strings.Builder
	b.WriteString("\nCommands:\n")
	for _, c := range s.commands {
		if c.help == "" {
			continue
		}
		usage := strings.TrimSpace(c.name + " " + c.args)
		fmt.Fprintf(&b, "  %-20s %s\n", usage, c.help)
	}
	b.WriteString(`
Tips:
  - SQL statements must end with a semicolon (;)
  - Use arrow keys to navigate history
  - Tab completes tables, files and macro names of the latest run
`)
	_, _ = fmt.Fprintln(s.out, b.String())
}

func runQueryREPL(cmd *cobra.Command, statePath string, opts *QueryOptions) error {
	ctx := cmd.Context()

	db, err := openIndexReadOnly(statePath)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	session := newREPLSession(db, cmd.OutOrStdout(), cmd.ErrOrStderr(), opts.Format)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     filepath.Join(filepath.Dir(statePath), "query_history"),
		AutoComplete:    newREPLCompleter(ctx, db),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "macroscan index REPL (%s)\n", statePath)
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(cmd.OutOrStdout())

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			session.interrupt()
			rl.SetPrompt(session.prompt())
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if session.handle(ctx, line) {
			return nil
		}
		rl.SetPrompt(session.prompt())
	}
}

// newREPLCompleter completes table names for SQL, and files and macro names
// of the latest run for the browsing dot-commands. Files and names are read
// on each completion so they follow scans made while the session is open.
func newREPLCompleter(ctx context.Context, db *sql.DB) *readline.PrefixCompleter {
	tables := indexWords(ctx, db, `
		SELECT name FROM sqlite_master
		WHERE type IN ('table', 'view')
		AND name NOT LIKE 'sqlite_%'
		AND name NOT LIKE 'goose_%'
		ORDER BY name`)

	var tableItems []readline.PrefixCompleterInterface
	for _, name := range tables {
		tableItems = append(tableItems, readline.PcItem(name))
	}

	files := func(string) []string { return latestFiles(ctx, db) }
	names := func(string) []string { return latestIdentifiers(ctx, db) }

	var formats []readline.PrefixCompleterInterface
	for _, f := range queryFormats {
		formats = append(formats, readline.PcItem(f))
	}

	items := append([]readline.PrefixCompleterInterface{}, tableItems...)
	items = append(items,
		readline.PcItem(".help"),
		readline.PcItem(".tables"),
		readline.PcItem(".schema", tableItems...),
		readline.PcItem(".search", readline.PcItemDynamic(names)),
		readline.PcItem(".file", readline.PcItemDynamic(files)),
		readline.PcItem(".name", readline.PcItemDynamic(names)),
		readline.PcItem(".diagnostics", readline.PcItemDynamic(files)),
		readline.PcItem(".runs"),
		readline.PcItem(".format", formats...),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
	return readline.NewPrefixCompleter(items...)
}

// latestFiles lists the manifest entries indexed by the latest run.
func latestFiles(ctx context.Context, db *sql.DB) []string {
	return indexWords(ctx, db, `SELECT DISTINCT file FROM v_latest_macros ORDER BY file`)
}

// latestIdentifiers lists the macro names recorded by the latest run.
func latestIdentifiers(ctx context.Context, db *sql.DB) []string {
	return indexWords(ctx, db, `SELECT DISTINCT identifier FROM v_latest_macros ORDER BY identifier`)
}

// indexWords runs a single-column query for completion. Failures yield no
// candidates.
func indexWords(ctx context.Context, db *sql.DB, query string) []string {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil
	}
	defer func() { _ = rows.Close() }()

	var words []string
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err == nil {
			words = append(words, w)
		}
	}
	return words
}
