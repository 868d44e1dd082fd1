package throttle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/readwell/internal/core/ports/driven"
)

type countingLLM struct {
	calls int
}

func (c *countingLLM) Generate(context.Context, string, driven.GenerateOptions) (string, error) {
	c.calls++
	return "gen", nil
}

func (c *countingLLM) Chat(context.Context, []driven.ChatMessage, driven.ChatOptions) (string, error) {
	c.calls++
	return "chat", nil
}

func (c *countingLLM) ModelName() string { return "fake" }
func (c *countingLLM) Ping(context.Context) error { return nil }
func (c *countingLLM) Close() error { return nil }

func TestWrap_DisabledReturnsInner(t *testing.T) {
	inner := &countingLLM{}
	assert.Same(t, inner, Wrap(inner, 0))
	assert.Nil(t, Wrap(nil, 10))
}

func TestWrap_Delegates(t *testing.T) {
	inner := &countingLLM{}
	svc := Wrap(inner, 6000)

	out, err := svc.Chat(context.Background(), nil, driven.ChatOptions{})
	require.NoError(t, err)
	assert.Equal(t, "chat", out)
	assert.Equal(t, "fake", svc.ModelName())
	assert.Equal(t, 1, inner.calls)
}

func TestWrap_WaitHonoursContext(t *testing.T) {
	inner := &countingLLM{}
	svc := Wrap(inner, 1)

	_, err := svc.Chat(context.Background(), nil, driven.ChatOptions{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = svc.Generate(ctx, "x", driven.GenerateOptions{})
	require.Error(t, err)
	assert.Equal(t, 1, inner.calls)
}
