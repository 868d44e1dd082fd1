package filesystem

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/readwell/internal/core/domain"
)

// Resolve turns a command-line argument into a source locator.
// http(s) and file:// URLs pass through; anything else must be an existing
// local file and becomes an absolute file:// URL.
func Resolve(arg string) (string, domain.SourceKind, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return "", "", fmt.Errorf("%w: path or URL required", domain.ErrInvalidInput)
	}

	lower := strings.ToLower(arg)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return arg, domain.SourceURL, nil
	case strings.HasPrefix(lower, "file://"):
		return arg, domain.SourceUpload, nil
	}

	abs, err := filepath.Abs(arg)
	if err != nil {
		return "", "", fmt.Errorf("resolve %s: %w", arg, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", "", fmt.Errorf("%w: %s", domain.ErrNotFound, arg)
		}
		return "", "", err
	}
	if info.IsDir() {
		return "", "", fmt.Errorf("%w: %s is a directory", domain.ErrInvalidInput, arg)
	}

	return FileURL(abs), domain.SourceUpload, nil
}

// FileURL returns the file:// URL for an absolute path.
func FileURL(path string) string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	if !strings.HasPrefix(u.Path, "/") {
		// Windows drive paths.
		u.Path = "/" + u.Path
	}
	return u.String()
}

// LocalPath converts a file:// URL back to a path. Other inputs pass through unchanged.
func LocalPath(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || !strings.EqualFold(u.Scheme, "file") {
		return uri
	}
	return filepath.FromSlash(u.Path)
}

// IsPDF reports whether path has a .pdf extension.
func IsPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}
