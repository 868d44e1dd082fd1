// Package filesystem provides a BlobStore backed by a local directory.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/custodia-labs/readwell/internal/adapters/driven/blob"
	"github.com/custodia-labs/readwell/internal/core/domain"
	"github.com/custodia-labs/readwell/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.BlobStore = (*Store)(nil)

// Store writes each blob to its own file under root.
type Store struct {
	root string
}

// New creates a filesystem blob store rooted at dir, creating it if needed.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: blob directory required", domain.ErrInvalidInput)
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create blob directory: %w", err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve blob directory: %w", err)
	}
	return &Store{root: abs}, nil
}

// Root returns the blob directory.
func (s *Store) Root() string {
	return s.root
}

// Store writes data to a new file. The write goes through a temp file
// so readers never see a partial blob.
func (s *Store) Store(ctx context.Context, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	key := blob.NewKey(contentType)
	tmp, err := os.CreateTemp(s.root, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp blob: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("close blob: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.root, key)); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("commit blob: %w", err)
	}
	return key, nil
}

// Get reads the blob stored under ref.
func (s *Store) Get(ctx context.Context, ref string) ([]byte, error) {
	path, err := s.path(ref)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("blob %s: %w", ref, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read blob %s: %w", ref, err)
	}
	return data, nil
}

// Delete removes the blob file. Missing files are ignored.
func (s *Store) Delete(_ context.Context, ref string) error {
	path, err := s.path(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete blob %s: %w", ref, err)
	}
	return nil
}

// URL returns a file:// URL for the blob.
func (s *Store) URL(_ context.Context, ref string) (string, error) {
	path, err := s.path(ref)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("blob %s: %w", ref, domain.ErrNotFound)
		}
		return "", fmt.Errorf("stat blob %s: %w", ref, err)
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return u.String(), nil
}

func (s *Store) path(ref string) (string, error) {
	if !blob.ValidKey(ref) {
		return "", fmt.Errorf("%w: blob reference %q", domain.ErrInvalidInput, ref)
	}
	return filepath.Join(s.root, ref), nil
}
