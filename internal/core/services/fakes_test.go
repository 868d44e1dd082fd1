package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/readwell/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/readwell/internal/core/domain"
	"github.com/custodia-labs/readwell/internal/core/ports/driven"
)

// fakeLLM answers chats with a configurable function.
type fakeLLM struct {
	mu    sync.Mutex
	chat  func(messages []driven.ChatMessage) (string, error)
	calls int
	opts  []driven.ChatOptions
}

// echoLLM returns the user message unchanged.
func echoLLM() *fakeLLM {
	return &fakeLLM{chat: func(messages []driven.ChatMessage) (string, error) {
		return messages[len(messages)-1].Content, nil
	}}
}

func (f *fakeLLM) Generate(context.Context, string, driven.GenerateOptions) (string, error) {
	return "", nil
}

func (f *fakeLLM) Chat(_ context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	f.mu.Lock()
	f.calls++
	f.opts = append(f.opts, opts)
	f.mu.Unlock()
	return f.chat(messages)
}

func (f *fakeLLM) ModelName() string { return "fake" }

func (f *fakeLLM) Ping(context.Context) error { return nil }

func (f *fakeLLM) Close() error { return nil }

func (f *fakeLLM) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeOCR returns a fixed result.
type fakeOCR struct {
	result *domain.OCRResult
	err    error
	calls  int
}

func (f *fakeOCR) Process(ctx context.Context, _ string) (*domain.OCRResult, error) {
	f.calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.result, f.err
}

func (f *fakeOCR) Close() error { return nil }

func pagesOCR(markdown ...string) *fakeOCR {
	result := &domain.OCRResult{}
	for i, md := range markdown {
		result.Pages = append(result.Pages, domain.OCRPage{Index: i, Markdown: md})
	}
	return &fakeOCR{result: result}
}

// recordingDocs records every patch applied to the wrapped store.
type recordingDocs struct {
	*memory.DocumentStore

	mu      sync.Mutex
	patches []domain.DocumentPatch
}

func newRecordingDocs() *recordingDocs {
	return &recordingDocs{DocumentStore: memory.NewDocumentStore()}
}

func (r *recordingDocs) Patch(ctx context.Context, id string, patch domain.DocumentPatch) error {
	r.mu.Lock()
	r.patches = append(r.patches, patch)
	r.mu.Unlock()
	return r.DocumentStore.Patch(ctx, id, patch)
}

// progress returns the progress value of every patch that set one.
func (r *recordingDocs) progress() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []int
	for _, p := range r.patches {
		if p.Progress != nil {
			out = append(out, *p.Progress)
		}
	}
	return out
}

// fakeDispatcher records enqueued requests without running them.
type fakeDispatcher struct {
	mu       sync.Mutex
	requests []domain.ProcessRequest
	inFlight map[string]bool
	err      error
	waited   bool
}

func newFakeDispatcher() *fakeDispatcher {
	return &fakeDispatcher{inFlight: make(map[string]bool)}
}

func (f *fakeDispatcher) Enqueue(req domain.ProcessRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.inFlight[req.DocumentID] {
		return fmt.Errorf("%w: document %s", domain.ErrRunInProgress, req.DocumentID)
	}
	f.requests = append(f.requests, req)
	return nil
}

func (f *fakeDispatcher) InFlight(documentID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inFlight[documentID]
}

func (f *fakeDispatcher) Wait() {
	f.mu.Lock()
	f.waited = true
	f.mu.Unlock()
}

func (f *fakeDispatcher) Stop() {}

// fakePromptStore serves prompts from a map.
type fakePromptStore map[string]string

func (f fakePromptStore) Load(name string) (string, error) {
	if p, ok := f[name]; ok {
		return p, nil
	}
	return "", domain.ErrNotFound
}

func (f fakePromptStore) Reload() {}
