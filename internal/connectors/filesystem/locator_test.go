package filesystem

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/readwell/internal/core/domain"
)

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	pdf := filepath.Join(dir, "my paper.pdf")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF"), 0o644))

	t.Run("local file", func(t *testing.T) {
		locator, source, err := Resolve(pdf)

		require.NoError(t, err)
		assert.Equal(t, domain.SourceUpload, source)
		assert.Equal(t, pdf, LocalPath(locator))
	})

	t.Run("remote url", func(t *testing.T) {
		locator, source, err := Resolve("https://utfs.io/f/paper.pdf")

		require.NoError(t, err)
		assert.Equal(t, domain.SourceURL, source)
		assert.Equal(t, "https://utfs.io/f/paper.pdf", locator)
	})

	t.Run("file url", func(t *testing.T) {
		locator, source, err := Resolve("file:///tmp/paper.pdf")

		require.NoError(t, err)
		assert.Equal(t, domain.SourceUpload, source)
		assert.Equal(t, "file:///tmp/paper.pdf", locator)
	})

	t.Run("missing file", func(t *testing.T) {
		_, _, err := Resolve(filepath.Join(dir, "missing.pdf"))
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("directory", func(t *testing.T) {
		_, _, err := Resolve(dir)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("empty", func(t *testing.T) {
		_, _, err := Resolve("  ")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestFileURL(t *testing.T) {
	assert.Equal(t, "file:///home/ada/my%20paper.pdf", FileURL("/home/ada/my paper.pdf"))
}

func TestLocalPath(t *testing.T) {
	tests := []struct {
		name string
		uri  string
		want string
	}{
		{"file url", "file:///Users/test/documents/file.pdf", filepath.FromSlash("/Users/test/documents/file.pdf")},
		{"escaped spaces", "file:///Users/test/my%20documents/file.pdf", filepath.FromSlash("/Users/test/my documents/file.pdf")},
		{"bare path", "/Users/test/file.pdf", "/Users/test/file.pdf"},
		{"http url", "https://utfs.io/a.pdf", "https://utfs.io/a.pdf"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LocalPath(tt.uri))
		})
	}
}

func TestIsPDF(t *testing.T) {
	assert.True(t, IsPDF("a.pdf"))
	assert.True(t, IsPDF("/x/A.PDF"))
	assert.False(t, IsPDF("a.pdf.txt"))
	assert.False(t, IsPDF("pdf"))
}
