package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewScanCommand(t *testing.T) {
	cmd := NewScanCommand()

	assert.Equal(t, "scan", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")

	// Scan options are global persistent flags on root, not local
}

func TestNewListCommand(t *testing.T) {
	cmd := NewListCommand()

	assert.Equal(t, "list", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")

	flags := []string{"run", "file", "name", "diagnostics"}
	for _, flag := range flags {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestNewRunsCommand(t *testing.T) {
	cmd := NewRunsCommand()

	assert.Equal(t, "runs", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")

	limit := cmd.Flags().Lookup("limit")
	if assert.NotNil(t, limit) {
		assert.Equal(t, "n", limit.Shorthand)
		assert.Equal(t, "10", limit.DefValue)
	}
}

func TestNewWatchCommand(t *testing.T) {
	cmd := NewWatchCommand()

	assert.Equal(t, "watch", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")
}

func TestDisplayPath(t *testing.T) {
	tests := []struct {
		name string
		root string
		path string
		want string
	}{
		{name: "inside root", root: "/proj", path: "/proj/Output/output.csv", want: "Output/output.csv"},
		{name: "outside root", root: "/proj", path: "/elsewhere/output.csv", want: "/elsewhere/output.csv"},
		{name: "no root", root: "", path: "/proj/x", want: "/proj/x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, displayPath(tt.root, tt.path))
		})
	}
}
