// Package main provides tests for the macroscan CLI.
package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leapstack-labs/macroscan/internal/cli"
	"github.com/leapstack-labs/macroscan/internal/cli/testutil"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	t.Chdir(t.TempDir())

	output, err := execute(t, "version")
	if err != nil {
		t.Errorf("version command error = %v", err)
	}
	if !strings.Contains(output, "macroscan") {
		t.Errorf("version output should contain 'macroscan', got: %s", output)
	}
}

func TestHelpCommand(t *testing.T) {
	output, err := execute(t, "--help")
	if err != nil {
		t.Errorf("help command error = %v", err)
	}

	expectedCommands := []string{"scan", "list", "runs", "query", "watch", "doctor", "init"}
	for _, expected := range expectedCommands {
		if !strings.Contains(output, expected) {
			t.Errorf("help output should contain '%s', got: %s", expected, output)
		}
	}
}

func TestScanCommand(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	t.Chdir(dir)

	output, err := execute(t, "scan")
	if err != nil {
		t.Fatalf("scan command error = %v", err)
	}
	if !strings.Contains(output, "Scan (2 files)") {
		t.Errorf("scan output should contain 'Scan (2 files)', got: %s", output)
	}

	data, err := os.ReadFile(filepath.Join(dir, "Output", "output.csv"))
	if err != nil {
		t.Fatalf("csv not written: %v", err)
	}
	if !strings.HasPrefix(string(data), "Macro Name,Macro Definition,Defined File Name\r\n") {
		t.Errorf("csv should start with the header row, got: %s", data)
	}
}

func TestScanCommandFlags(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	outDir := filepath.Join(t.TempDir(), "macros")
	t.Chdir(t.TempDir())

	output, err := execute(t, "scan",
		"--manifest", filepath.Join(dir, "input.txt"),
		"--output-dir", outDir,
		"--csv-file", "defines.csv",
		"--extensions", ".h",
		"-o", "json",
	)
	if err != nil {
		t.Fatalf("scan command error = %v", err)
	}

	var summary struct {
		Rows    int      `json:"rows"`
		Skipped []string `json:"skipped"`
	}
	if err := json.Unmarshal([]byte(output), &summary); err != nil {
		t.Fatalf("scan -o json should print JSON: %v\n%s", err, output)
	}
	if summary.Rows != 3 {
		t.Errorf("rows = %d, want 3", summary.Rows)
	}
	if len(summary.Skipped) != 1 || summary.Skipped[0] != "src/log.c" {
		t.Errorf("skipped = %v, want [src/log.c]", summary.Skipped)
	}
	if _, err := os.Stat(filepath.Join(outDir, "defines.csv")); err != nil {
		t.Errorf("expected defines.csv in output dir: %v", err)
	}
}

func TestIndexedScanThenList(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	t.Chdir(dir)

	if _, err := execute(t, "scan", "--index"); err != nil {
		t.Fatalf("scan --index error = %v", err)
	}

	output, err := execute(t, "list", "--name", "MAX")
	if err != nil {
		t.Fatalf("list command error = %v", err)
	}
	if !strings.Contains(output, "MAX_USERS") {
		t.Errorf("list output should contain 'MAX_USERS', got: %s", output)
	}

	output, err = execute(t, "query", "SELECT COUNT(*) AS n FROM runs", "--format", "csv")
	if err != nil {
		t.Fatalf("query command error = %v", err)
	}
	if output != "n\n1\n" {
		t.Errorf("query output = %q, want %q", output, "n\n1\n")
	}
}

func TestInvalidConfig(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	t.Chdir(dir)

	_, err := execute(t, "scan", "--diagnostics-mode", "sometimes")
	if err == nil || !strings.Contains(err.Error(), "diagnostics_mode") {
		t.Errorf("expected diagnostics_mode error, got %v", err)
	}
}

func TestCompletionCommand(t *testing.T) {
	shells := []string{"bash", "zsh", "fish", "powershell"}

	for _, shell := range shells {
		t.Run(shell, func(t *testing.T) {
			output, err := execute(t, "completion", shell)
			if err != nil {
				t.Errorf("completion %s command error = %v", shell, err)
			}
			if output == "" {
				t.Errorf("completion %s should print a script", shell)
			}
		})
	}
}

func TestUnknownCommand(t *testing.T) {
	_, err := execute(t, "unknown-command")
	if err == nil {
		t.Error("unknown command should return an error")
	}
}

func TestMain(m *testing.M) {
	os.Exit(m.Run())
}
