package scan

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSource(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		want    string
		wantErr bool
	}{
		{name: "plain", data: []byte("#define A 1\n"), want: "#define A 1\n"},
		{name: "bom stripped", data: []byte("\xef\xbb\xbf#define A 1\n"), want: "#define A 1\n"},
		{name: "multibyte kept", data: []byte("#define S \"héllo\"\n"), want: "#define S \"héllo\"\n"},
		{name: "empty", data: nil, want: ""},
		{name: "latin1 rejected", data: []byte("#define S \"h\xe9llo\"\n"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeSource(tt.data)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrDecode))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadSource_Missing(t *testing.T) {
	_, err := LoadSource(filepath.Join(t.TempDir(), "missing.c"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestFileError(t *testing.T) {
	err := &FileError{Path: "src/a.c", Err: ErrDecode}
	assert.Equal(t, "src/a.c: source is not valid UTF-8", err.Error())
	assert.True(t, errors.Is(err, ErrDecode))

	var fe *FileError
	require.True(t, errors.As(error(err), &fe))
	assert.Equal(t, "src/a.c", fe.Path)
}
