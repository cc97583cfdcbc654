package commands

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	// sqlite driver for read-only index queries.
	_ "modernc.org/sqlite"
)

// openIndexReadOnly opens the macro index without migrating or writing it.
func openIndexReadOnly(path string) (*sql.DB, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("macro index not found at %s (run 'macroscan scan --index' first)", path)
	}
	return sql.Open("sqlite", path+"?mode=ro")
}

// QueryOptions holds options for the query command.
type QueryOptions struct {
	Format string
	Input  string
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query [SQL]",
		Short: "Query the macro index with SQL",
		Long: `Run read-only SQL against the macro index.

Tables: runs, macros. Views: v_runs (newest first) and v_latest_macros
(the macros of the most recent run, in extraction order).

When invoked without arguments on a terminal, enters interactive REPL mode.`,
		Example: `  # Execute SQL directly
  macroscan query "SELECT identifier, value FROM v_latest_macros"

  # List available tables
  macroscan query tables

  # Show schema for a table
  macroscan query schema macros

  # Search names and definitions of the latest run
  macroscan query search BUFFER

  # Output as CSV
  macroscan query "SELECT * FROM v_runs" --format csv

  # Interactive mode
  macroscan query`,
		// SQL text is positional, so an unmatched first word must not be
		// reported as an unknown subcommand.
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args, opts)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.Format, "format", "f", "table", "Output format: table, json, csv, md")
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Read SQL from file")

	cmd.AddCommand(newQueryTablesCommand(opts))
	cmd.AddCommand(newQuerySchemaCommand(opts))
	cmd.AddCommand(newQuerySearchCommand(opts))

	return cmd
}

func runQuery(cmd *cobra.Command, args []string, opts *QueryOptions) error {
	statePath := getConfig().StatePath

	var sqlQuery string
	switch {
	case len(args) > 0:
		sqlQuery = strings.Join(args, " ")
	case opts.Input != "":
		content, err := os.ReadFile(opts.Input)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		sqlQuery = string(content)
	case !isInteractive(cmd.InOrStdin()):
		content, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		sqlQuery = string(content)
	default:
		return runQueryREPL(cmd, statePath, opts)
	}

	db, err := openIndexReadOnly(statePath)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	return executeAndRenderQuery(cmd.Context(), cmd.OutOrStdout(), db, sqlQuery, opts.Format)
}

// executeAndRenderQuery executes a query and renders results, properly closing rows with defer.
func executeAndRenderQuery(ctx context.Context, w io.Writer, db *sql.DB, query, format string) error {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return renderResults(w, rows, format)
}

func newQueryTablesCommand(opts *QueryOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List tables and views in the macro index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := openIndexReadOnly(getConfig().StatePath)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()
			return listTablesFromDB(cmd.Context(), cmd.OutOrStdout(), db, opts.Format)
		},
	}
}

func newQuerySchemaCommand(opts *QueryOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schema <table>",
		Short: "Show schema for a table or view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openIndexReadOnly(getConfig().StatePath)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()
			return showSchemaFromDB(cmd.Context(), cmd.OutOrStdout(), db, args[0], opts.Format)
		},
	}
}

func newQuerySearchCommand(opts *QueryOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "search <term>",
		Short: "Search macro names and definitions of the latest run",
		Long: `Case-insensitive substring search over the names and definitions
recorded by the most recent indexed scan.`,
		Example: `  macroscan query search MAX
  macroscan query search "sizeof" --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openIndexReadOnly(getConfig().StatePath)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()
			return searchMacros(cmd.Context(), cmd.OutOrStdout(), db, args[0], opts.Format)
		},
	}
}

func searchMacros(ctx context.Context, w io.Writer, db *sql.DB, term, format string) error {
	query := `
		SELECT identifier, value, file, kind
		FROM v_latest_macros
		WHERE identifier LIKE ? ESCAPE '\' OR value LIKE ? ESCAPE '\'
		LIMIT 200
	`
	pattern := "%" + likeEscaper.Replace(term) + "%"

	rows, err := db.QueryContext(ctx, query, pattern, pattern)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return renderResults(w, rows, format)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// isInteractive reports whether r is a terminal rather than a pipe or file.
func isInteractive(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
