package commands

import (
	"embed"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

//go:embed all:templates
var templateFS embed.FS

// copyTemplate copies an embedded template directory to the target path.
// It handles special file renames (e.g., "gitignore" -> ".gitignore").
func copyTemplate(templateName, targetDir string, force bool) error {
	root := path.Join("templates", templateName)

	return fs.WalkDir(templateFS, root, func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// Calculate relative path from template root
		relPath, err := filepath.Rel(root, name)
		if err != nil {
			return err
		}

		// Skip root directory
		if relPath == "." {
			return nil
		}

		// Handle special file renames
		targetPath := filepath.Join(targetDir, renameSpecialFiles(relPath))

		if d.IsDir() {
			return os.MkdirAll(targetPath, 0750)
		}

		// Check if file exists
		if !force {
			if _, err := os.Stat(targetPath); err == nil {
				return nil // Skip existing files
			}
		}

		// Read and write file
		content, err := templateFS.ReadFile(name)
		if err != nil {
			return err
		}

		return os.WriteFile(targetPath, content, 0600)
	})
}

// renameSpecialFiles handles files that need renaming (e.g., dotfiles).
func renameSpecialFiles(rel string) string {
	base := filepath.Base(rel)
	dir := filepath.Dir(rel)

	switch base {
	case "gitignore":
		return filepath.Join(dir, ".gitignore")
	default:
		return rel
	}
}

// listTemplateFiles returns all files in a template for display purposes.
func listTemplateFiles(templateName string) ([]string, error) {
	var files []string
	root := path.Join("templates", templateName)

	err := fs.WalkDir(templateFS, root, func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			relPath, _ := filepath.Rel(root, name)
			files = append(files, renameSpecialFiles(relPath))
		}
		return nil
	})

	return files, err
}

// groupTemplateFiles splits template files into configuration and C sources
// for display.
func groupTemplateFiles(files []string) map[string][]string {
	groups := map[string][]string{
		"config":  {},
		"sources": {},
	}

	for _, f := range files {
		switch strings.ToLower(filepath.Ext(f)) {
		case ".h", ".c", ".hpp", ".cpp":
			groups["sources"] = append(groups["sources"], f)
		default:
			groups["config"] = append(groups["config"], f)
		}
	}

	return groups
}
