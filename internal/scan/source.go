package scan

import (
	"fmt"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// LoadSource reads a source file as UTF-8 text. A leading byte order mark is
// dropped. Invalid UTF-8 yields an error wrapping ErrDecode.
func LoadSource(path string) (string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the manifest
	if err != nil {
		return "", fmt.Errorf("failed to read source: %w", err)
	}
	return DecodeSource(data)
}

// DecodeSource validates data as UTF-8 and strips a leading BOM.
func DecodeSource(data []byte) (string, error) {
	// The x/text decoder replaces bad bytes with U+FFFD, so validate first.
	if !utf8.Valid(data) {
		return "", ErrDecode
	}
	out, _, err := transform.Bytes(unicode.UTF8BOM.NewDecoder(), data)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return string(out), nil
}
