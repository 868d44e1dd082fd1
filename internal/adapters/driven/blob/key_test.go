package blob

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtension(t *testing.T) {
	tests := []struct {
		contentType string
		want        string
	}{
		{"text/markdown", ".md"},
		{"image/png", ".png"},
		{"IMAGE/JPEG", ".jpg"},
		{"text/plain; charset=utf-8", ".txt"},
		{"application/x-unknown", ".bin"},
		{"", ".bin"},
	}
	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			assert.Equal(t, tt.want, Extension(tt.contentType))
		})
	}
}

func TestNewKey_UniqueWithExtension(t *testing.T) {
	a := NewKey("image/png")
	b := NewKey("image/png")

	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasSuffix(a, ".png"))
	assert.True(t, ValidKey(a))
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "image/png", ContentType("abc.png"))
	assert.Equal(t, "text/markdown", ContentType("abc.md"))
	assert.Equal(t, "application/octet-stream", ContentType("abc.bin"))
	assert.Equal(t, "application/octet-stream", ContentType("abc"))
}

func TestValidKey(t *testing.T) {
	assert.True(t, ValidKey("0b7c.md"))
	assert.False(t, ValidKey(""))
	assert.False(t, ValidKey(".."))
	assert.False(t, ValidKey("../etc/passwd"))
	assert.False(t, ValidKey("a/b.md"))
	assert.False(t, ValidKey(`a\b.md`))
}
