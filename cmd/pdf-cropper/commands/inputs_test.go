package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical/pdf-cropper/internal/domain"
)

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4\n"), 0o644))
	}
}

func TestExpandInputs(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "b.pdf", "a.PDF", "notes.txt", "sub/deep.pdf", "with space.pdf")

	j := func(name string) string { return filepath.Join(dir, name) }

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"plain files keep order", []string{j("b.pdf"), j("a.PDF")}, []string{j("b.pdf"), j("a.PDF")}},
		{"directory is not recursive", []string{dir}, []string{j("a.PDF"), j("b.pdf"), j("with space.pdf")}},
		{"glob", []string{filepath.Join(dir, "*.pdf")}, []string{j("b.pdf"), j("with space.pdf")}},
		{"duplicates removed", []string{j("b.pdf"), dir, j("b.pdf")}, []string{j("b.pdf"), j("a.PDF"), j("with space.pdf")}},
		{"braced drop", []string{"{" + j("with space.pdf") + "}"}, []string{j("with space.pdf")}},
		{"quoted", []string{`"` + j("b.pdf") + `"`}, []string{j("b.pdf")}},
		{"missing file passes through", []string{j("gone.pdf")}, []string{j("gone.pdf")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandInputs(tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpandInputs_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := ExpandInputs(nil)
	assert.True(t, domain.IsType(err, domain.ErrorTypeValidation))

	_, err = ExpandInputs([]string{"  ", "{}"})
	assert.True(t, domain.IsType(err, domain.ErrorTypeValidation))

	_, err = ExpandInputs([]string{filepath.Join(dir, "*.pdf")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no files match")

	_, err = ExpandInputs([]string{dir})
	assert.True(t, domain.IsType(err, domain.ErrorTypeValidation), "empty directory yields no files")
}
