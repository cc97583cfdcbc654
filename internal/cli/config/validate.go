package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/macroscan/internal/cli/output"
	"github.com/leapstack-labs/macroscan/internal/report"
)

// Validate checks enumerations and numeric limits.
func (c *Config) Validate() error {
	if c.Manifest == "" {
		return fmt.Errorf("manifest is required")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir is required")
	}
	for key, name := range map[string]string{"csv_file": c.CSVFile, "debug_file": c.DebugFile} {
		if name == "" {
			return fmt.Errorf("%s is required", key)
		}
		if filepath.Base(name) != name {
			return fmt.Errorf("%s must be a file name inside output_dir, got %q", key, name)
		}
	}
	if !report.DiagnosticsMode(c.DiagnosticsMode).Valid() {
		return fmt.Errorf("invalid diagnostics_mode %q (want rewrite or append)", c.DiagnosticsMode)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if !output.Mode(c.OutputFormat).Valid() && c.OutputFormat != "md" {
		return fmt.Errorf("invalid output %q (want one of %s)", c.OutputFormat, strings.Join(output.ModeNames(), ", "))
	}
	return nil
}

// ValidateManifest checks that the manifest file exists.
func (c *Config) ValidateManifest() error {
	info, err := os.Stat(c.Manifest)
	if os.IsNotExist(err) {
		return fmt.Errorf("manifest does not exist: %s\nHint: create it or use --manifest to point at a different file", c.Manifest)
	}
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("manifest is a directory: %s", c.Manifest)
	}
	return nil
}
