package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/macroscan/internal/macro"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestPartition(t *testing.T) {
	entries := macro.Extract("#define A 1\n#define BARE\n#define F(x) (x)\n#define Z\n")

	rows, diags := Partition("src/a.h", entries)

	assert.Equal(t, []Row{
		{Identifier: "A", Value: "1", File: "src/a.h"},
		{Identifier: "F(x)", Value: "(x)", File: "src/a.h"},
	}, rows)
	assert.Equal(t, []string{"BARE", "Z"}, diags)
}

func TestCSVSink_ResetAndAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output.csv")
	sink := NewCSVSink(path)

	require.NoError(t, sink.Reset())
	require.NoError(t, sink.Append([]Row{{Identifier: "A", Value: "1", File: "a.c"}}))
	require.NoError(t, sink.Append(nil))
	require.NoError(t, sink.Append([]Row{
		{Identifier: "MAX(a,b)", Value: "((a) > (b) ? (a) : (b))", File: "b.c"},
		{Identifier: "EMPTY", Value: "", File: "b.c"},
		{Identifier: "STR", Value: `"x, y"`, File: "b.c"},
	}))

	assert.Equal(t, [][]string{
		Header,
		{"A", "1", "a.c"},
		{"MAX(a,b)", "((a) > (b) ? (a) : (b))", "b.c"},
		{"EMPTY", "", "b.c"},
		{"STR", `"x, y"`, "b.c"},
	}, readCSV(t, path))
}

func TestCSVSink_ResetDiscardsPreviousRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output.csv")
	require.NoError(t, os.WriteFile(path, []byte("stale,row,here\r\n"), 0o644))

	sink := NewCSVSink(path)
	require.NoError(t, sink.Reset())

	assert.Equal(t, [][]string{Header}, readCSV(t, path))
}

func TestCSVSink_MissingDirectory(t *testing.T) {
	sink := NewCSVSink(filepath.Join(t.TempDir(), "missing", "output.csv"))
	assert.Error(t, sink.Reset())
}

func TestDiagnosticSink(t *testing.T) {
	tests := []struct {
		name string
		mode DiagnosticsMode
		want string
	}{
		{
			name: "rewrite keeps last file",
			mode: DiagnosticsRewrite,
			want: "id: C, value: None\n",
		},
		{
			name: "append keeps every file",
			mode: DiagnosticsAppend,
			want: "id: A, value: None\nid: B, value: None\nid: C, value: None\n",
		},
		{
			name: "unknown mode rewrites",
			mode: DiagnosticsMode("bogus"),
			want: "id: C, value: None\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "debug_support.txt")
			sink := NewDiagnosticSink(path, tt.mode)

			require.NoError(t, sink.Reset())
			require.NoError(t, sink.Write([]string{"A", "B"}))
			require.NoError(t, sink.Write(nil))
			require.NoError(t, sink.Write([]string{"C"}))

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))
		})
	}
}

func TestDiagnosticSink_ResetRemovesStaleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug_support.txt")
	require.NoError(t, os.WriteFile(path, []byte("id: OLD, value: None\n"), 0o644))

	sink := NewDiagnosticSink(path, DiagnosticsRewrite)
	require.NoError(t, sink.Reset())
	require.NoError(t, sink.Reset(), "reset of a missing file is fine")

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestDiagnosticsMode_Valid(t *testing.T) {
	assert.True(t, DiagnosticsRewrite.Valid())
	assert.True(t, DiagnosticsAppend.Valid())
	assert.False(t, DiagnosticsMode("").Valid())
}
