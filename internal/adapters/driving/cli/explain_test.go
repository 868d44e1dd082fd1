package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/readwell/internal/core/domain"
)

func TestExplainCmd(t *testing.T) {
	env := setupTestServices(t)
	env.explainer.result = &domain.Explanation{
		ELI5:    "Computers pay attention to the important words.",
		Summary: "Attention replaces recurrence.",
	}

	out, err := execute(t, "explain", "self-attention", "layers")

	require.NoError(t, err)
	assert.Equal(t, "self-attention layers", env.explainer.got)
	assert.Contains(t, out, "Explained simply")
	assert.Contains(t, out, "Computers pay attention to the important words.")
	assert.Contains(t, out, "Attention replaces recurrence.")
	assert.Contains(t, out, "(none)")
}

func TestExplainCmd_ReadsStdin(t *testing.T) {
	env := setupTestServices(t)
	env.explainer.result = &domain.Explanation{ELI5: "ok"}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(bytes.NewBufferString("a passage from stdin"))
	rootCmd.SetArgs([]string{"explain"})
	defer rootCmd.SetArgs(nil)

	require.NoError(t, rootCmd.ExecuteContext(context.Background()))
	assert.Equal(t, "a passage from stdin", env.explainer.got)
}

func TestExplainCmd_Error(t *testing.T) {
	env := setupTestServices(t)
	env.explainer.err = domain.ErrLLMUnavailable

	_, err := execute(t, "explain", "text")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}
