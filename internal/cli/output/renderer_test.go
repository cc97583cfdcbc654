package output

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func newTestRenderer(mode Mode, isTTY bool) (*Renderer, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return NewRendererWithTTY(&out, &errOut, isTTY, mode), &out, &errOut
}

func TestRenderer_EffectiveMode(t *testing.T) {
	tests := []struct {
		name  string
		mode  Mode
		isTTY bool
		want  Mode
	}{
		{"auto on tty", ModeAuto, true, ModeText},
		{"auto piped", ModeAuto, false, ModeMarkdown},
		{"empty piped", "", false, ModeMarkdown},
		{"explicit text piped", ModeText, false, ModeText},
		{"explicit json on tty", ModeJSON, true, ModeJSON},
		{"explicit yaml", ModeYAML, false, ModeYAML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _, _ := newTestRenderer(tt.mode, tt.isTTY)
			assert.Equal(t, tt.want, r.EffectiveMode())
		})
	}
}

func TestRenderer_HeaderMarkdown(t *testing.T) {
	r, out, _ := newTestRenderer(ModeMarkdown, false)
	r.Header(2, "Macros")
	assert.Equal(t, "## Macros\n\n", out.String())
}

func TestRenderer_TextHasNoANSIWhenPiped(t *testing.T) {
	r, out, errOut := newTestRenderer(ModeText, false)
	r.Header(1, "Scan")
	r.Success("done")
	r.StatusLine("a.h", "failed", "read error")
	r.Warning("careful")

	assert.NotContains(t, out.String(), "\x1b[")
	assert.NotContains(t, errOut.String(), "\x1b[")
	assert.Contains(t, out.String(), "✓ done")
	assert.Contains(t, out.String(), "✗ a.h read error")
	assert.Contains(t, errOut.String(), "Warning: careful")
}

func TestRenderer_StatusLineMarkdown(t *testing.T) {
	r, out, _ := newTestRenderer(ModeMarkdown, false)
	r.StatusLine("a.h", "success", "3 rows")
	r.StatusLine("b.h", "skipped", "")
	assert.Equal(t, "- a.h: success (3 rows)\n- b.h: skipped\n", out.String())
}

func TestRenderer_Data(t *testing.T) {
	v := map[string]any{"rows": 2, "file": "a.h"}

	t.Run("json", func(t *testing.T) {
		r, out, _ := newTestRenderer(ModeJSON, false)
		handled, err := r.Data(v)
		require.NoError(t, err)
		assert.True(t, handled)

		var got map[string]any
		require.NoError(t, json.Unmarshal(out.Bytes(), &got))
		assert.Equal(t, "a.h", got["file"])
	})

	t.Run("yaml", func(t *testing.T) {
		r, out, _ := newTestRenderer(ModeYAML, false)
		handled, err := r.Data(v)
		require.NoError(t, err)
		assert.True(t, handled)

		var got map[string]any
		require.NoError(t, yaml.Unmarshal(out.Bytes(), &got))
		assert.Equal(t, 2, got["rows"])
	})

	t.Run("markdown is left to the caller", func(t *testing.T) {
		r, out, _ := newTestRenderer(ModeMarkdown, false)
		handled, err := r.Data(v)
		require.NoError(t, err)
		assert.False(t, handled)
		assert.Empty(t, out.String())
	})
}

func TestRenderer_Table(t *testing.T) {
	header := []string{"Macro Name", "Macro Definition"}
	rows := [][]string{{"A", "1"}, {"F(x)", "x*2"}}

	t.Run("markdown", func(t *testing.T) {
		r, out, _ := newTestRenderer(ModeMarkdown, false)
		r.Table(header, rows)
		assert.Contains(t, out.String(), "| Macro Name | Macro Definition |")
		assert.Contains(t, out.String(), "| F(x) | x*2 |")
	})

	t.Run("text", func(t *testing.T) {
		r, out, _ := newTestRenderer(ModeText, false)
		r.Table(header, rows)
		assert.Contains(t, out.String(), "┌")
		assert.Contains(t, out.String(), "F(x)")
	})

	t.Run("markdown escapes pipes", func(t *testing.T) {
		r, out, _ := newTestRenderer(ModeMarkdown, false)
		r.Table(header, [][]string{{"OR(a,b)", "a|b"}})
		assert.Contains(t, out.String(), `| OR(a,b) | a\|b |`)
	})

	t.Run("empty", func(t *testing.T) {
		r, out, _ := newTestRenderer(ModeText, false)
		r.Table(header, nil)
		assert.Equal(t, "(0 rows)\n", out.String())
	})
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("md")
	require.NoError(t, err)
	assert.Equal(t, ModeMarkdown, m)

	m, err = ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeAuto, m)

	_, err = ParseMode("html")
	assert.ErrorContains(t, err, "unknown output mode")
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "# Title", FormatHeader(0, "Title"))
	assert.Equal(t, "### Title", FormatHeader(3, "Title"))
	assert.Equal(t, "- **Rows**: 4", FormatKeyValue("Rows", "4"))
	assert.Equal(t, "Rows Written", FormatLabel("rows_written"))
	assert.Equal(t, "12ms", FormatDuration(12345*time.Microsecond))
	assert.Equal(t, "`x*2`", FormatCode("x*2"))
	assert.Equal(t, "``a`b``", FormatCode("a`b"))
	assert.Equal(t, "`` `q ``", FormatCode("`q"))
}
