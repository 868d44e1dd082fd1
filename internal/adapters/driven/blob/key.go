// Package blob holds helpers shared by the BlobStore adapters.
package blob

import (
	"strings"

	"github.com/google/uuid"
)

var extensions = map[string]string{
	"text/markdown": ".md",
	"text/plain":    ".txt",
	"image/png":     ".png",
	"image/jpeg":    ".jpg",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
	"image/bmp":     ".bmp",
	"image/tiff":    ".tiff",
}

// NewKey returns a fresh object key with an extension matching contentType.
// Keys are never reused, so a superseded blob can be deleted safely.
func NewKey(contentType string) string {
	return uuid.NewString() + Extension(contentType)
}

// Extension maps a MIME type to a file extension, ".bin" when unknown.
func Extension(contentType string) string {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if ext, ok := extensions[ct]; ok {
		return ext
	}
	return ".bin"
}

// ContentType is the inverse of Extension for keys produced by NewKey.
func ContentType(key string) string {
	i := strings.LastIndexByte(key, '.')
	if i < 0 {
		return "application/octet-stream"
	}
	ext := strings.ToLower(key[i:])
	for ct, e := range extensions {
		if e == ext {
			return ct
		}
	}
	return "application/octet-stream"
}

// ValidKey reports whether key is safe to use as a single path element.
func ValidKey(key string) bool {
	if key == "" || key == "." || key == ".." {
		return false
	}
	return !strings.ContainsAny(key, `/\`) && !strings.Contains(key, "..")
}
