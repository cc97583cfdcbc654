package commands

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/macroscan/internal/macro"
	"github.com/leapstack-labs/macroscan/internal/state"
)

// setupTestIndex creates a macro index holding one completed run and
// returns its path.
func setupTestIndex(t *testing.T) string {
	t.Helper()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	store, err := state.Open(ctx, path, nil)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	run, err := store.BeginRun(ctx, "input.txt")
	require.NoError(t, err)

	limits := macro.Extract("#define MAX_USERS 64\n#define NAME_LEN (MAX_USERS / 2)\n#define PIPE_SEP \"a|b\"\n")
	require.NoError(t, store.ReplaceFileMacros(ctx, run.ID, 0, "include/limits.h", limits))

	logc := macro.Extract("#define LOG_TAG \"log\"\n#define TRACE\n#define PCT_100 100%\n")
	require.NoError(t, store.ReplaceFileMacros(ctx, run.ID, 1, "src/log.c", logc))

	require.NoError(t, store.CompleteRun(ctx, run.ID, state.RunStats{Files: 2, RowsWritten: 5, Diagnostics: 1}, nil))
	return path
}

func openTestIndex(t *testing.T, path string) *sql.DB {
	t.Helper()
	db, err := openIndexReadOnly(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpenIndexReadOnly_Missing(t *testing.T) {
	_, err := openIndexReadOnly(filepath.Join(t.TempDir(), "missing.db"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "macroscan scan --index")
}

func TestQuery_Tables(t *testing.T) {
	db := openTestIndex(t, setupTestIndex(t))

	buf := new(bytes.Buffer)
	require.NoError(t, listTablesFromDB(context.Background(), buf, db, "table"))

	out := buf.String()
	assert.Contains(t, out, "runs")
	assert.Contains(t, out, "macros")
	assert.Contains(t, out, "v_latest_macros")
	assert.Contains(t, out, "v_runs")
	assert.NotContains(t, out, "goose_db_version")
}

func TestQuery_Schema(t *testing.T) {
	db := openTestIndex(t, setupTestIndex(t))
	ctx := context.Background()

	t.Run("table", func(t *testing.T) {
		buf := new(bytes.Buffer)
		require.NoError(t, showSchemaFromDB(ctx, buf, db, "macros", "table"))
		out := buf.String()
		assert.Contains(t, out, "Table: macros")
		assert.Contains(t, out, "identifier")
		assert.Contains(t, out, "position")
	})

	t.Run("view as json", func(t *testing.T) {
		buf := new(bytes.Buffer)
		require.NoError(t, showSchemaFromDB(ctx, buf, db, "v_latest_macros", "json"))

		var schema schemaOutput
		require.NoError(t, json.Unmarshal(buf.Bytes(), &schema))
		assert.Equal(t, "view", schema.Type)
		names := make([]string, 0, len(schema.Columns))
		for _, c := range schema.Columns {
			names = append(names, c.Name)
		}
		assert.Equal(t, []string{"file", "position", "identifier", "value", "kind", "diagnostic"}, names)
	})

	t.Run("unknown", func(t *testing.T) {
		err := showSchemaFromDB(ctx, new(bytes.Buffer), db, "nope", "table")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})
}

func TestQuery_ExecuteFormats(t *testing.T) {
	db := openTestIndex(t, setupTestIndex(t))
	ctx := context.Background()
	query := "SELECT identifier, value FROM v_latest_macros WHERE file = 'include/limits.h' ORDER BY position"

	t.Run("table", func(t *testing.T) {
		buf := new(bytes.Buffer)
		require.NoError(t, executeAndRenderQuery(ctx, buf, db, query, "table"))
		out := buf.String()
		assert.Contains(t, out, "MAX_USERS")
		assert.Contains(t, out, "(3 rows)")
	})

	t.Run("csv", func(t *testing.T) {
		buf := new(bytes.Buffer)
		require.NoError(t, executeAndRenderQuery(ctx, buf, db, query, "csv"))
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 4)
		assert.Equal(t, "identifier,value", lines[0])
		assert.Equal(t, "MAX_USERS,64", lines[1])
		assert.Equal(t, `PIPE_SEP,"""a|b"""`, lines[3])
	})

	t.Run("json", func(t *testing.T) {
		buf := new(bytes.Buffer)
		require.NoError(t, executeAndRenderQuery(ctx, buf, db, query, "json"))
		var rows []map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &rows))
		require.Len(t, rows, 3)
		assert.Equal(t, "NAME_LEN", rows[1]["identifier"])
	})

	t.Run("markdown escapes pipes", func(t *testing.T) {
		buf := new(bytes.Buffer)
		require.NoError(t, executeAndRenderQuery(ctx, buf, db, query, "md"))
		out := buf.String()
		assert.True(t, strings.HasPrefix(out, "| identifier | value |\n| --- | --- |\n"))
		assert.Contains(t, out, `"a\|b"`)
	})

	t.Run("null values", func(t *testing.T) {
		buf := new(bytes.Buffer)
		require.NoError(t, executeAndRenderQuery(ctx, buf, db,
			"SELECT identifier, value FROM v_latest_macros WHERE identifier = 'TRACE'", "csv"))
		assert.Contains(t, buf.String(), "TRACE,NULL")
	})

	t.Run("invalid sql", func(t *testing.T) {
		err := executeAndRenderQuery(ctx, new(bytes.Buffer), db, "SELEC nothing", "table")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "query failed")
	})
}

func TestQuery_Search(t *testing.T) {
	db := openTestIndex(t, setupTestIndex(t))
	ctx := context.Background()

	tests := []struct {
		name  string
		term  string
		want  []string
		avoid []string
	}{
		{name: "by name", term: "max_users", want: []string{"MAX_USERS", "NAME_LEN"}, avoid: []string{"LOG_TAG"}},
		{name: "by definition", term: `"log"`, want: []string{"LOG_TAG"}, avoid: []string{"MAX_USERS"}},
		{name: "percent is literal", term: "%", want: []string{"PCT_100"}, avoid: []string{"MAX_USERS"}},
		{name: "underscore is literal", term: "_", want: []string{"MAX_USERS"}, avoid: []string{"TRACE"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := new(bytes.Buffer)
			require.NoError(t, searchMacros(ctx, buf, db, tt.term, "csv"))
			out := buf.String()
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
			for _, a := range tt.avoid {
				assert.NotContains(t, out, a)
			}
		})
	}
}

func TestQueryCommand_Args(t *testing.T) {
	statePath := setupTestIndex(t)
	t.Chdir(filepath.Dir(statePath))
	writeTestConfig(t, filepath.Dir(statePath), "state_path: state.db\n")

	cmd := NewQueryCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"SELECT COUNT(*) AS n FROM v_latest_macros", "--format", "csv"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "n\n6\n", buf.String())
}

func TestQueryCommand_SubcommandStillRoutes(t *testing.T) {
	statePath := setupTestIndex(t)
	dir := filepath.Dir(statePath)
	t.Chdir(dir)
	writeTestConfig(t, dir, "state_path: state.db\n")

	out, err := execute(t, NewQueryCommand(), "tables")
	require.NoError(t, err)
	assert.Contains(t, out, "v_latest_macros")
	assert.NotContains(t, out, "unknown command")
}

func TestQueryCommand_InputFile(t *testing.T) {
	statePath := setupTestIndex(t)
	dir := filepath.Dir(statePath)
	t.Chdir(dir)
	writeTestConfig(t, dir, "state_path: state.db\n")

	sqlFile := filepath.Join(dir, "q.sql")
	require.NoError(t, os.WriteFile(sqlFile, []byte("SELECT status FROM v_runs"), 0o600))

	cmd := NewQueryCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--input", sqlFile, "-f", "csv"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "status\ncompleted\n", buf.String())
}

func TestQueryCommand_Stdin(t *testing.T) {
	statePath := setupTestIndex(t)
	dir := filepath.Dir(statePath)
	t.Chdir(dir)
	writeTestConfig(t, dir, "state_path: state.db\n")

	cmd := NewQueryCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetIn(strings.NewReader("SELECT files FROM runs"))
	cmd.SetArgs([]string{"-f", "csv"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "files\n2\n", buf.String())
}

func TestQueryCommandMetadata(t *testing.T) {
	cmd := NewQueryCommand()

	assert.Equal(t, "query [SQL]", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Example)
	assert.NotNil(t, cmd.PersistentFlags().Lookup("format"))
	assert.NotNil(t, cmd.Flags().Lookup("input"))
	assert.NoError(t, cmd.Args(cmd, []string{"SELECT 1", "FROM runs"}), "positional SQL is accepted")

	subs := make([]string, 0)
	for _, c := range cmd.Commands() {
		subs = append(subs, c.Name())
	}
	assert.ElementsMatch(t, []string{"tables", "schema", "search"}, subs)
}

func TestIsInteractive(t *testing.T) {
	assert.False(t, isInteractive(strings.NewReader("")))

	f, err := os.CreateTemp(t.TempDir(), "stdin")
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	assert.False(t, isInteractive(f))
}
