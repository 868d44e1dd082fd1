package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/readwell/internal/core/ports/driven"
)

func TestNewPromptStore_WithCustomDir(t *testing.T) {
	dir := t.TempDir()

	store, err := NewPromptStore(dir)

	require.NoError(t, err)
	assert.Equal(t, dir, store.Dir())
}

func TestNewPromptStore_DefaultDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv(HomeEnv, home)

	store, err := NewPromptStore("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "prompts"), store.Dir())
}

func TestPromptStore_Load_CreatesDefaultFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = store.Load(driven.PromptRefine)
	require.NoError(t, err)

	for _, f := range []string{"refine.txt", "explain_system.txt", "explain.txt", "README.md"} {
		_, err := os.Stat(filepath.Join(dir, f))
		assert.NoError(t, err, "expected file %s to exist", f)
	}
}

func TestPromptStore_Load_ReturnsDefaultContent(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	refine, err := store.Load(driven.PromptRefine)
	require.NoError(t, err)
	assert.Contains(t, refine, "__IMAGE_PLACEHOLDER_N__")

	explain, err := store.Load(driven.PromptExplain)
	require.NoError(t, err)
	assert.Contains(t, explain, "%s")
	assert.Contains(t, explain, `"eli5"`)
}

func TestPromptStore_Load_ReturnsCustomContent(t *testing.T) {
	dir := t.TempDir()
	custom := "Explain this like a pirate: %s"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "explain.txt"), []byte(custom), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptExplain)
	require.NoError(t, err)
	assert.Equal(t, custom, prompt)
}

func TestPromptStore_Load_EmptyFileFallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "refine.txt"), []byte("  \n"), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptRefine)
	require.NoError(t, err)
	want, _ := DefaultPrompt(driven.PromptRefine)
	assert.Equal(t, want, prompt)
}

func TestPromptStore_Load_FallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, _ = store.Load(driven.PromptExplainSystem)
	require.NoError(t, os.Remove(filepath.Join(dir, "explain_system.txt")))
	store.Reload()

	prompt, err := store.Load(driven.PromptExplainSystem)
	require.NoError(t, err)
	assert.Contains(t, prompt, "valid JSON")
}

func TestPromptStore_Load_UnknownPrompt(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load("nonexistent_prompt")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "nonexistent_prompt")
}

func TestPromptStore_Load_CachesUntilReload(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	first, err := store.Load(driven.PromptExplain)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "explain.txt"), []byte("modified: %s"), 0600))

	cached, err := store.Load(driven.PromptExplain)
	require.NoError(t, err)
	assert.Equal(t, first, cached)

	store.Reload()
	fresh, err := store.Load(driven.PromptExplain)
	require.NoError(t, err)
	assert.Equal(t, "modified: %s", fresh)
}

func TestPromptStore_DoesNotOverwriteExistingFiles(t *testing.T) {
	dir := t.TempDir()
	custom := "pre-existing custom prompt"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "refine.txt"), []byte(custom), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)
	_, _ = store.Load(driven.PromptExplain)

	data, err := os.ReadFile(filepath.Join(dir, "refine.txt"))
	require.NoError(t, err)
	assert.Equal(t, custom, string(data))
}

func TestPromptStore_Load_ConcurrentAccess(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	const goroutines = 50
	var wg sync.WaitGroup
	results := make(chan string, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			prompt, err := store.Load(driven.PromptRefine)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			results <- prompt
		}()
	}
	wg.Wait()
	close(results)

	var first string
	for prompt := range results {
		if first == "" {
			first = prompt
			continue
		}
		assert.Equal(t, first, prompt)
	}
}
