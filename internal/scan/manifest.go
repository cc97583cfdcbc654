package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Source is one manifest entry.
type Source struct {
	// Path is the entry exactly as listed, after trimming. It is what the
	// sinks record.
	Path string
	// Resolved is the path used to open the file: Path itself when absolute,
	// otherwise Path joined onto the manifest's directory.
	Resolved string
}

// ReadManifest reads the list of source files at path. Lines are trimmed;
// blank lines and lines starting with '#' are skipped.
func ReadManifest(path string) ([]Source, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: manifest path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrManifest, err)
	}
	return ParseManifest(string(data), filepath.Dir(path)), nil
}

// ParseManifest splits manifest content into sources, resolving relative
// entries against baseDir.
func ParseManifest(content, baseDir string) []Source {
	var sources []Source
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		resolved := line
		if !filepath.IsAbs(line) {
			resolved = filepath.Join(baseDir, line)
		}
		sources = append(sources, Source{Path: line, Resolved: resolved})
	}
	return sources
}

// ExtensionFilter accepts paths whose extension is in a fixed set. An empty
// filter accepts everything. Matching ignores case and a missing leading dot
// in the configured extensions.
type ExtensionFilter map[string]struct{}

// NewExtensionFilter builds a filter from configured extensions.
func NewExtensionFilter(exts []string) ExtensionFilter {
	f := make(ExtensionFilter, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		f[ext] = struct{}{}
	}
	return f
}

// Accept reports whether path passes the filter.
func (f ExtensionFilter) Accept(path string) bool {
	if len(f) == 0 {
		return true
	}
	_, ok := f[strings.ToLower(filepath.Ext(path))]
	return ok
}
