package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/readwell/internal/connectors/filesystem"
	"github.com/custodia-labs/readwell/internal/core/domain"
)

func TestWatchCmd_ExistingFiles(t *testing.T) {
	env := setupTestServices(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "paper.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"watch", "--existing", dir})
	defer rootCmd.SetArgs(nil)

	require.NoError(t, rootCmd.ExecuteContext(ctx))

	require.Len(t, env.ingest.submitted, 1)
	req := env.ingest.submitted[0]
	assert.Equal(t, filesystem.FileURL(path), req.SourceURL)
	assert.Equal(t, "paper.pdf", req.FileName)
	assert.Equal(t, domain.SourceUpload, req.Source)
	assert.Contains(t, buf.String(), "Watching "+dir)
	assert.Contains(t, buf.String(), "Stopped watching.")
}

func TestWatchCmd_MissingDir(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "watch", filepath.Join(t.TempDir(), "missing"))

	assert.Error(t, err)
}

func TestSubmitWatched_SkipsFailures(t *testing.T) {
	env := setupTestServices(t)
	env.ingest.submitErr = domain.ErrInvalidInput

	buf := new(bytes.Buffer)
	watchCmd.SetOut(buf)
	watchCmd.SetErr(buf)
	defer func() {
		watchCmd.SetOut(nil)
		watchCmd.SetErr(nil)
	}()

	submitWatched(context.Background(), watchCmd, defaultOwner, "/drop/bad.pdf")

	assert.Contains(t, buf.String(), "Skipped bad.pdf")
	assert.Empty(t, env.ingest.submitted)
}
