package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/macroscan/internal/scan"
)

func TestNewInitCommand(t *testing.T) {
	tests := []struct {
		name      string
		setupDir  func(t *testing.T, dir string) // setup before running
		args      []string
		wantErr   bool
		wantFiles []string
	}{
		{
			name:    "init empty directory",
			args:    []string{},
			wantErr: false,
			wantFiles: []string{
				"macroscan.yaml",
				"input.txt",
				".gitignore",
			},
		},
		{
			name: "init existing config without force",
			setupDir: func(_ *testing.T, dir string) {
				_ = os.WriteFile(filepath.Join(dir, "macroscan.yaml"), []byte("existing"), 0600)
			},
			args:    []string{},
			wantErr: true,
		},
		{
			name: "init existing config with force",
			setupDir: func(_ *testing.T, dir string) {
				_ = os.WriteFile(filepath.Join(dir, "macroscan.yaml"), []byte("existing"), 0600)
			},
			args:    []string{"--force"},
			wantErr: false,
			wantFiles: []string{
				"macroscan.yaml",
				"input.txt",
			},
		},
		{
			name:    "init with example sources",
			args:    []string{"--example"},
			wantErr: false,
			wantFiles: []string{
				"macroscan.yaml",
				"include/config.h",
				"src/util.c",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			t.Chdir(tmpDir)

			if tt.setupDir != nil {
				tt.setupDir(t, tmpDir)
			}

			cmd := NewInitCommand()
			buf := new(bytes.Buffer)
			cmd.SetOut(buf)
			cmd.SetErr(buf)
			cmd.SetArgs(tt.args)

			err := cmd.Execute()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			for _, f := range tt.wantFiles {
				assert.FileExists(t, filepath.Join(tmpDir, f))
			}
		})
	}
}

func TestInitCommandMetadata(t *testing.T) {
	cmd := NewInitCommand()

	assert.Equal(t, "init [directory]", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotNil(t, cmd.Flags().Lookup("force"), "--force flag should exist")
	assert.NotNil(t, cmd.Flags().Lookup("example"), "--example flag should exist")
}

func TestInitCreatesValidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	t.Chdir(tmpDir)

	cmd := NewInitCommand()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))

	err := cmd.Execute()
	require.NoError(t, err)

	content, err := os.ReadFile("macroscan.yaml")
	require.NoError(t, err, "failed to read macroscan.yaml")

	expectedContents := []string{
		"manifest: input.txt",
		"output_dir: Output",
		"csv_file: output.csv",
		"debug_file: debug_support.txt",
		"diagnostics_mode: rewrite",
		"state_path:",
	}

	for _, expected := range expectedContents {
		assert.Contains(t, string(content), expected, "config should contain %q", expected)
	}

	cfg := writeTestConfig(t, tmpDir, string(content))
	assert.Equal(t, filepath.Join(tmpDir, "input.txt"), cfg.Manifest)
	assert.Empty(t, cfg.Extensions)
}

func TestInitIntoSubdirectory(t *testing.T) {
	tmpDir := t.TempDir()
	t.Chdir(tmpDir)

	cmd := NewInitCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"headers"})

	require.NoError(t, cmd.Execute())
	assert.FileExists(t, filepath.Join(tmpDir, "headers", "macroscan.yaml"))
	assert.Contains(t, buf.String(), "macroscan project initialized!")
}

func TestInitExampleScans(t *testing.T) {
	tmpDir := t.TempDir()
	t.Chdir(tmpDir)

	cmd := NewInitCommand()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"--example"})
	require.NoError(t, cmd.Execute())

	sources, err := scan.ReadManifest(filepath.Join(tmpDir, "input.txt"))
	require.NoError(t, err)
	require.Len(t, sources, 2)
	for _, src := range sources {
		assert.FileExists(t, src.Resolved)
	}
}

func TestRenameSpecialFiles(t *testing.T) {
	assert.Equal(t, ".gitignore", renameSpecialFiles("gitignore"))
	assert.Equal(t, filepath.Join("sub", ".gitignore"), renameSpecialFiles(filepath.Join("sub", "gitignore")))
	assert.Equal(t, "input.txt", renameSpecialFiles("input.txt"))
}

func TestGroupTemplateFiles(t *testing.T) {
	groups := groupTemplateFiles([]string{"macroscan.yaml", "input.txt", "include/config.h", "src/util.c"})

	assert.ElementsMatch(t, []string{"macroscan.yaml", "input.txt"}, groups["config"])
	assert.ElementsMatch(t, []string{"include/config.h", "src/util.c"}, groups["sources"])
}
