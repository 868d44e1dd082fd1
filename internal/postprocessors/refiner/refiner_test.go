package refiner

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/readwell/internal/core/ports/driven"
)

// fakeLLM returns scripted results in order, repeating the last one.
type fakeLLM struct {
	mu       sync.Mutex
	results  []fakeResult
	calls    int
	messages [][]driven.ChatMessage
	opts     []driven.ChatOptions
	respond  func(user string) string
}

type fakeResult struct {
	text string
	err  error
}

func (f *fakeLLM) Generate(context.Context, string, driven.GenerateOptions) (string, error) {
	return "", errors.New("not used")
}

func (f *fakeLLM) Chat(_ context.Context, msgs []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.messages = append(f.messages, msgs)
	f.opts = append(f.opts, opts)

	if f.respond != nil {
		return f.respond(msgs[len(msgs)-1].Content), nil
	}
	if len(f.results) == 0 {
		return "", errors.New("no script")
	}
	idx := f.calls - 1
	if idx >= len(f.results) {
		idx = len(f.results) - 1
	}
	return f.results[idx].text, f.results[idx].err
}

func (f *fakeLLM) ModelName() string { return "fake" }

func (f *fakeLLM) Ping(context.Context) error { return nil }

func (f *fakeLLM) Close() error { return nil }

// recordSleeper records waits without sleeping.
type recordSleeper struct {
	waits []time.Duration
}

func (s *recordSleeper) sleep(ctx context.Context, d time.Duration) error {
	s.waits = append(s.waits, d)
	return ctx.Err()
}

type fakePrompts struct{ prompt string }

func (p fakePrompts) Load(string) (string, error) { return p.prompt, nil }

func (p fakePrompts) Reload() {}

type mapCache struct {
	mu   sync.Mutex
	data map[string]string
}

func (c *mapCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *mapCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func TestRefine_Success(t *testing.T) {
	llm := &fakeLLM{results: []fakeResult{{text: "# Title\n\nBody text."}}}
	r := New(llm)

	out, err := r.Refine(context.Background(), "#Title\nBody text.")
	require.NoError(t, err)
	assert.Equal(t, "# Title\n\nBody text.", out)

	require.Equal(t, 1, llm.calls)
	require.Len(t, llm.messages[0], 2)
	assert.Equal(t, "system", llm.messages[0][0].Role)
	assert.Equal(t, DefaultPrompt, llm.messages[0][0].Content)
	assert.Equal(t, "user", llm.messages[0][1].Role)
	assert.Equal(t, "#Title\nBody text.", llm.messages[0][1].Content)
	assert.InDelta(t, DefaultTemperature, llm.opts[0].Temperature, 1e-9)
	assert.Equal(t, DefaultMaxTokens, llm.opts[0].MaxTokens)
}

func TestRefine_FallbackAfterFailures(t *testing.T) {
	llm := &fakeLLM{results: []fakeResult{{err: errors.New("503")}}}
	s := &recordSleeper{}
	r := New(llm, WithSleeper(s.sleep))

	chunk := "Original [Image #1] chunk."
	out, err := r.Refine(context.Background(), chunk)
	require.NoError(t, err)
	assert.Equal(t, chunk, out)
	assert.Equal(t, 3, llm.calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, s.waits)
}

func TestRefine_EmptyCompletionRetried(t *testing.T) {
	llm := &fakeLLM{results: []fakeResult{{text: "  "}, {text: "fixed"}}}
	s := &recordSleeper{}
	r := New(llm, WithSleeper(s.sleep))

	out, err := r.Refine(context.Background(), "broken")
	require.NoError(t, err)
	assert.Equal(t, "fixed", out)
	assert.Equal(t, 2, llm.calls)
	assert.Len(t, s.waits, 1)
}

func TestRefine_ImageReferenceSurvivesUppercasing(t *testing.T) {
	llm := &fakeLLM{respond: strings.ToUpper}
	r := New(llm)

	out, err := r.Refine(context.Background(), "See [Image #2] above.")
	require.NoError(t, err)
	assert.Equal(t, "SEE [Image #2] ABOVE.", out)
	assert.NotContains(t, llm.messages[0][1].Content, "[Image #2]")
}

func TestRefine_DedupesModelOutput(t *testing.T) {
	llm := &fakeLLM{results: []fakeResult{{text: "Header\nHeader\nHeader\nBody"}}}

	out, err := New(llm).Refine(context.Background(), "Body")
	require.NoError(t, err)
	assert.Equal(t, "Header\nBody", out)
}

func TestRefine_ContextCancelled(t *testing.T) {
	llm := &fakeLLM{results: []fakeResult{{err: errors.New("boom")}}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(llm).Refine(ctx, "text")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, llm.calls)
}

func TestRefine_CancelledDuringBackoff(t *testing.T) {
	llm := &fakeLLM{results: []fakeResult{{err: errors.New("boom")}}}
	ctx, cancel := context.WithCancel(context.Background())

	r := New(llm, WithSleeper(func(context.Context, time.Duration) error {
		cancel()
		return context.Canceled
	}))

	_, err := r.Refine(ctx, "text")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, llm.calls)
}

func TestRefine_BlankChunkSkipsLLM(t *testing.T) {
	llm := &fakeLLM{}

	out, err := New(llm).Refine(context.Background(), "  \n ")
	require.NoError(t, err)
	assert.Equal(t, "  \n ", out)
	assert.Equal(t, 0, llm.calls)
}

func TestRefine_PromptStore(t *testing.T) {
	llm := &fakeLLM{results: []fakeResult{{text: "ok"}}}
	r := New(llm)
	r.SetPromptStore(fakePrompts{prompt: "custom system prompt"})

	_, err := r.Refine(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, "custom system prompt", llm.messages[0][0].Content)
}

func TestRefine_Cache(t *testing.T) {
	llm := &fakeLLM{results: []fakeResult{{text: "cached result"}}}
	cache := &mapCache{data: map[string]string{}}
	r := New(llm, WithCache(cache))

	first, err := r.Refine(context.Background(), "same chunk")
	require.NoError(t, err)
	second, err := r.Refine(context.Background(), "same chunk")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, llm.calls)
	assert.Len(t, cache.data, 1)
}

func TestOptions(t *testing.T) {
	r := New(&fakeLLM{},
		WithMaxAttempts(5),
		WithBackoff(10*time.Millisecond),
		WithTemperature(0.1),
		WithMaxTokens(100),
		WithPromptStore(fakePrompts{prompt: "p"}),
	)

	assert.Equal(t, 5, r.maxAttempts)
	assert.Equal(t, 10*time.Millisecond, r.backoff)
	assert.InDelta(t, 0.1, r.temperature, 1e-9)
	assert.Equal(t, 100, r.maxTokens)
	assert.Equal(t, "p", r.loadPrompt())

	d := New(&fakeLLM{}, WithMaxAttempts(0), WithMaxTokens(-1))
	assert.Equal(t, DefaultMaxAttempts, d.maxAttempts)
	assert.Equal(t, DefaultMaxTokens, d.maxTokens)
}

func TestSleepContext(t *testing.T) {
	assert.NoError(t, sleepContext(context.Background(), 0))
	assert.NoError(t, sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
}
