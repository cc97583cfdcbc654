package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/macroscan/internal/cli/output"
	"github.com/spf13/cobra"
)

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool
	var example bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new macroscan project",
		Long: `Initialize a macroscan project with a commented configuration file and an
empty manifest.

This creates:
  - macroscan.yaml configuration file
  - input.txt manifest (one source path per line)
  - .gitignore excluding Output/ and the macro index

Use --example to also create sample C sources listed in the manifest, so
"macroscan scan" works straight away.`,
		Example: `  # Initialize in current directory
  macroscan init

  # Initialize a new directory with sample sources
  macroscan init my-headers --example

  # Force overwrite existing config
  macroscan init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			cfg := getConfig()
			mode, _ := output.ParseMode(cfg.OutputFormat)
			r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

			template := "minimal"
			if example {
				template = "example"
			}
			return runInit(r, dir, template, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing files")
	cmd.Flags().BoolVar(&example, "example", false, "Add sample C sources to the manifest")

	return cmd
}

func runInit(r *output.Renderer, dir, template string, force bool) error {
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	configPath := filepath.Join(dir, "macroscan.yaml")
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("macroscan.yaml already exists. Use --force to overwrite")
	}

	if err := copyTemplate(template, dir, force); err != nil {
		return fmt.Errorf("failed to initialize project: %w", err)
	}

	files, _ := listTemplateFiles(template)
	groups := groupTemplateFiles(files)

	r.Header(2, "Configuration")
	for _, f := range groups["config"] {
		r.StatusLine(f, "success", "")
	}
	if len(groups["sources"]) > 0 {
		r.Println("")
		r.Header(2, "Sources")
		for _, f := range groups["sources"] {
			r.StatusLine(f, "success", "")
		}
	}

	r.Println("")
	r.Success("macroscan project initialized!")
	r.Println("")
	r.Println("Next steps:")
	if template == "minimal" {
		r.Println("  1. List your C/C++ files in input.txt")
		r.Println("  2. Run 'macroscan scan' to write Output/output.csv")
		r.Println("  3. Run 'macroscan doctor' if anything looks off")
		return nil
	}
	r.Println("  macroscan scan     Extract macros into Output/output.csv")
	r.Println("  macroscan list     Query the macros recorded in the index")
	r.Println("  macroscan watch    Rescan as you edit the sources")
	return nil
}
