package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "readwell", rootCmd.Use)
}

func TestRootCmd_HasCommands(t *testing.T) {
	names := make([]string, 0)
	for _, cmd := range rootCmd.Commands() {
		names = append(names, cmd.Name())
	}

	for _, name := range []string{"process", "document", "explain", "read", "watch", "settings", "version"} {
		assert.Contains(t, names, name)
	}
}

func TestBuilder(t *testing.T) {
	t.Cleanup(func() {
		SetBuilder(nil)
		closeServices()
	})

	t.Run("builds services and cleans up", func(t *testing.T) {
		env := setupTestServices(t)
		services := &Services{
			Ingest:    env.ingest,
			Documents: documentService,
			Explainer: env.explainer,
			Settings:  env.settings,
		}
		SetServices(nil)

		var got Options
		cleaned := 0
		SetBuilder(func(_ context.Context, opts Options) (*Services, func(), error) {
			got = opts
			return services, func() { cleaned++ }, nil
		})

		out, err := execute(t, "--ephemeral", "document", "list")

		require.NoError(t, err)
		assert.Contains(t, out, "No documents found.")
		assert.True(t, got.Ephemeral)

		closeServices()
		closeServices()
		assert.Equal(t, 1, cleaned)
		ephemeral = false
	})

	t.Run("build failure aborts the command", func(t *testing.T) {
		setupTestServices(t)
		SetBuilder(func(context.Context, Options) (*Services, func(), error) {
			return nil, nil, errors.New("open store: locked")
		})

		_, err := execute(t, "document", "list")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "open store: locked")
	})

	t.Run("version skips the builder", func(t *testing.T) {
		called := false
		SetBuilder(func(context.Context, Options) (*Services, func(), error) {
			called = true
			return &Services{}, nil, nil
		})

		out, err := execute(t, "version")

		require.NoError(t, err)
		assert.Contains(t, out, "readwell version")
		assert.False(t, called)
	})
}

func TestSetVersion(t *testing.T) {
	original := version
	defer func() { version = original }()

	SetVersion("1.2.3")
	assert.Equal(t, "1.2.3", version)

	SetVersion("")
	assert.Equal(t, "1.2.3", version)
}

func TestOwner(t *testing.T) {
	original := ownerID
	defer func() { ownerID = original }()

	ownerID = ""
	_, err := owner()
	require.Error(t, err)
	assert.Contains(t, err.Error(), OwnerEnv)

	ownerID = "ada"
	got, err := owner()
	require.NoError(t, err)
	assert.Equal(t, "ada", got)
}
