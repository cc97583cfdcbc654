package scan

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is checks.
var (
	// ErrManifest marks a manifest that could not be read. It is fatal for
	// the whole run.
	ErrManifest = errors.New("manifest unreadable")
	// ErrDecode marks a source file that is not valid UTF-8.
	ErrDecode = errors.New("source is not valid UTF-8")
)

// FileError is a failure confined to one manifest entry.
type FileError struct {
	Path string // as written in the manifest
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}
