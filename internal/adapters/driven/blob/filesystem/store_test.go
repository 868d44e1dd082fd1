package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/readwell/internal/core/domain"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "blobs"))
	require.NoError(t, err)
	return s
}

func TestNew_RequiresDir(t *testing.T) {
	_, err := New("")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStore_RoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	ref, err := s.Store(ctx, []byte("# Heading\n\nBody"), "text/markdown")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(ref, ".md"))

	data, err := s.Get(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, "# Heading\n\nBody", string(data))

	_, err = os.Stat(filepath.Join(s.Root(), ref))
	assert.NoError(t, err)
}

func TestStore_NoTempFilesLeft(t *testing.T) {
	s := newStore(t)
	_, err := s.Store(context.Background(), []byte("x"), "image/png")
	require.NoError(t, err)

	entries, err := os.ReadDir(s.Root())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.False(t, strings.HasPrefix(entries[0].Name(), ".upload-"))
}

func TestStore_Get_NotFound(t *testing.T) {
	s := newStore(t)
	_, err := s.Get(context.Background(), "missing.md")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_RejectsTraversal(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.Get(ctx, "../config.toml")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	err = s.Delete(ctx, "../config.toml")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStore_Delete(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	ref, err := s.Store(ctx, []byte("x"), "image/png")
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, ref))
	_, err = s.Get(ctx, ref)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.NoError(t, s.Delete(ctx, ref))
}

func TestStore_URL(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	ref, err := s.Store(ctx, []byte("x"), "image/png")
	require.NoError(t, err)

	u, err := s.URL(ctx, ref)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u, "file://"))
	assert.True(t, strings.HasSuffix(u, ref))

	_, err = s.URL(ctx, "missing.png")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_CancelledContext(t *testing.T) {
	s := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Store(ctx, []byte("x"), "image/png")
	assert.ErrorIs(t, err, context.Canceled)
}
