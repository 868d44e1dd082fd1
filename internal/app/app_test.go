package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/readwell/internal/adapters/driven/config/file"
	"github.com/custodia-labs/readwell/internal/adapters/driving/cli"
	"github.com/custodia-labs/readwell/internal/core/domain"
	"github.com/custodia-labs/readwell/internal/core/ports/driven"
)

// isolate points the home directory at a temp dir and clears provider keys.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv(file.HomeEnv, home)
	for _, key := range []string{"MISTRAL_API_KEY", "GROQ_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GEMINI_API_KEY", "GROQ_REFINER_TEMPERATURE"} {
		t.Setenv(key, "")
	}
	return home
}

func TestBuild_Ephemeral(t *testing.T) {
	isolate(t)
	ctx := context.Background()

	svc, cleanup, err := Build(ctx, cli.Options{Ephemeral: true})
	require.NoError(t, err)
	defer cleanup()

	require.NotNil(t, svc.Ingest)
	require.NotNil(t, svc.Documents)
	require.NotNil(t, svc.Explainer)
	require.NotNil(t, svc.Settings)

	settings, err := svc.Settings.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultProcessingSettings().ChunkSize, settings.Processing.ChunkSize)

	_, err = svc.Explainer.Explain(ctx, "attention")
	assert.ErrorIs(t, err, domain.ErrMissingCredentials)
}

func TestBuild_RunFailsWithoutCredentials(t *testing.T) {
	isolate(t)
	ctx := context.Background()

	svc, cleanup, err := Build(ctx, cli.Options{Ephemeral: true})
	require.NoError(t, err)
	defer cleanup()

	doc, err := svc.Ingest.Submit(ctx, domain.SubmitRequest{
		OwnerID:   "ada",
		SourceURL: "https://utfs.io/f/paper.pdf",
		Source:    domain.SourceURL,
	})
	require.NoError(t, err)

	svc.Ingest.Wait()

	got, err := svc.Documents.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, got.Status)
	assert.NotEmpty(t, got.Error)
}

func TestBuild_PersistentDefaults(t *testing.T) {
	home := isolate(t)
	ctx := context.Background()

	svc, cleanup, err := Build(ctx, cli.Options{})
	require.NoError(t, err)

	docs, err := svc.Documents.List(ctx, "ada")
	require.NoError(t, err)
	assert.Empty(t, docs)
	cleanup()

	_, err = os.Stat(filepath.Join(home, "readwell.db"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(home, "blobs"))
	assert.NoError(t, err)
}

func TestBuild_SettingsPersist(t *testing.T) {
	isolate(t)
	ctx := context.Background()

	svc, cleanup, err := Build(ctx, cli.Options{})
	require.NoError(t, err)
	require.NoError(t, svc.Settings.Set("pipeline.chunk_size", "1234"))
	cleanup()

	svc, cleanup, err = Build(ctx, cli.Options{})
	require.NoError(t, err)
	defer cleanup()

	settings, err := svc.Settings.Get()
	require.NoError(t, err)
	assert.Equal(t, 1234, settings.Processing.ChunkSize)
}

func TestBuild_PostgresRequiresDSN(t *testing.T) {
	isolate(t)
	ctx := context.Background()

	svc, cleanup, err := Build(ctx, cli.Options{})
	require.NoError(t, err)
	require.NoError(t, svc.Settings.Set("storage.backend", "postgres"))
	cleanup()

	// postgres without a DSN cannot open.
	_, _, err = Build(ctx, cli.Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// optionsLLM echoes the user message and keeps the options it was called with.
type optionsLLM struct {
	opts []driven.ChatOptions
}

func (l *optionsLLM) Generate(context.Context, string, driven.GenerateOptions) (string, error) {
	return "", nil
}

func (l *optionsLLM) Chat(_ context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	l.opts = append(l.opts, opts)
	return messages[len(messages)-1].Content, nil
}

func (l *optionsLLM) ModelName() string { return "options" }

func (l *optionsLLM) Ping(context.Context) error { return nil }

func (l *optionsLLM) Close() error { return nil }

func TestRefinerFactory_UsesProcessingSettings(t *testing.T) {
	llm := &optionsLLM{}
	cfg := domain.DefaultProcessingSettings()
	cfg.Temperature = 0.7
	cfg.MaxTokens = 1024

	factory := refinerFactory(llm, nil, cfg)
	require.NotNil(t, factory)

	out, err := factory().Refine(context.Background(), "Some text.")
	require.NoError(t, err)
	assert.Equal(t, "Some text.", out)

	require.Len(t, llm.opts, 1)
	assert.InDelta(t, 0.7, llm.opts[0].Temperature, 1e-9)
	assert.Equal(t, 1024, llm.opts[0].MaxTokens)
}

func TestRefinerFactory_NilWithoutLLM(t *testing.T) {
	assert.Nil(t, refinerFactory(nil, nil, domain.DefaultProcessingSettings()))
}
