package cli

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	blobmemory "github.com/custodia-labs/readwell/internal/adapters/driven/blob/memory"
	"github.com/custodia-labs/readwell/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/readwell/internal/core/domain"
	"github.com/custodia-labs/readwell/internal/core/services"
)

// fakeIngest creates pending documents on Submit and settles them on Wait.
type fakeIngest struct {
	docs *memory.DocumentStore

	mu        sync.Mutex
	submitted []domain.SubmitRequest
	retried   []string
	queued    []string
	waits     int

	submitErr error
	retryErr  error

	// outcome is applied to every queued document on Wait.
	outcome domain.ProcessingStatus
}

func (f *fakeIngest) Submit(ctx context.Context, req domain.SubmitRequest) (*domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	f.submitted = append(f.submitted, req)

	title := req.Title
	if title == "" {
		title = services.TitleFromFileName(req.FileName)
	}
	doc := &domain.Document{
		ID:        fmt.Sprintf("doc-%d", len(f.submitted)),
		OwnerID:   req.OwnerID,
		Title:     title,
		Source:    req.Source,
		SourceURL: req.SourceURL,
		FileName:  req.FileName,
		Status:    domain.StatusPending,
	}
	if err := f.docs.Create(ctx, doc); err != nil {
		return nil, err
	}
	f.queued = append(f.queued, doc.ID)
	return doc, nil
}

func (f *fakeIngest) Retry(_ context.Context, _, documentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.retryErr != nil {
		return f.retryErr
	}
	f.retried = append(f.retried, documentID)
	f.queued = append(f.queued, documentID)
	return nil
}

func (f *fakeIngest) Wait() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.waits++

	status := f.outcome
	if status == "" {
		status = domain.StatusCompleted
	}
	progress := 100
	message := ""
	if status == domain.StatusFailed {
		message = "ocr: rate limited"
	}
	for _, id := range f.queued {
		_ = f.docs.Patch(context.Background(), id, domain.DocumentPatch{
			Status:   &status,
			Progress: &progress,
			Error:    &message,
		})
	}
	f.queued = nil
}

type fakeExplainer struct {
	result *domain.Explanation
	err    error
	got    string
}

func (f *fakeExplainer) Explain(_ context.Context, text string) (*domain.Explanation, error) {
	f.got = text
	return f.result, f.err
}

type testEnv struct {
	docs      *memory.DocumentStore
	blobs     *blobmemory.Store
	ingest    *fakeIngest
	explainer *fakeExplainer
	settings  *services.SettingsService
}

// setupTestServices installs services backed by in-memory stores and fakes.
func setupTestServices(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		docs:      memory.NewDocumentStore(),
		blobs:     blobmemory.New(),
		explainer: &fakeExplainer{},
	}
	env.ingest = &fakeIngest{docs: env.docs}
	env.settings = services.NewSettingsService(memory.NewConfigStore(), nil,
		services.WithEnvLookup(func(string) (string, bool) { return "", false }))

	SetServices(&Services{
		Ingest:    env.ingest,
		Documents: services.NewDocumentService(env.docs, env.blobs, nil),
		Explainer: env.explainer,
		Settings:  env.settings,
	})

	input := settingsInput
	settingsInput = strings.NewReader("")

	t.Cleanup(func() {
		SetServices(nil)
		settingsInput = input
		resetFlags()
	})
	return env
}

// seed stores a completed document with content and images.
func (e *testEnv) seed(t *testing.T, id, content string, images ...string) {
	t.Helper()
	ctx := context.Background()

	contentRef, err := e.blobs.Store(ctx, []byte(content), "text/markdown")
	require.NoError(t, err)

	md := &domain.Metadata{WordCount: 3, EstimatedReadingTime: 1}
	for i, img := range images {
		ref, err := e.blobs.Store(ctx, []byte(img), "image/png")
		require.NoError(t, err)
		md.Images = append(md.Images, domain.ImageRef{Index: i + 1, ID: fmt.Sprintf("img-%d.png", i), StorageRef: ref})
	}

	require.NoError(t, e.docs.Create(ctx, &domain.Document{
		ID:         id,
		OwnerID:    defaultOwner,
		Title:      "Paper " + id,
		ContentRef: contentRef,
		Source:     domain.SourceUpload,
		SourceURL:  "file:///tmp/" + id + ".pdf",
		FileName:   id + ".pdf",
		Status:     domain.StatusCompleted,
		Progress:   100,
		Metadata:   md,
	}))
}

// execute runs the root command with args and returns combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(new(bytes.Buffer))
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

// resetFlags restores flag variables that persist between executions.
func resetFlags() {
	processTitle = ""
	processFileName = ""
	processWait = true
	renderContent = false
	retryWait = true
	imagesURLs = false
	watchExisting = false
	watchSettle = 0
	ownerID = defaultOwner
	for _, name := range []string{"title", "file-name", "wait"} {
		if f := processCmd.Flags().Lookup(name); f != nil {
			f.Changed = false
		}
	}
}
