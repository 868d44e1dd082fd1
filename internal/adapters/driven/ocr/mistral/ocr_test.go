package mistral

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/readwell/internal/core/domain"
)

const sampleResponse = `{
  "model": "mistral-ocr-latest",
  "pages": [
    {"index": 0, "markdown": "# Title\n\n![img-0.jpeg](img-0.jpeg)", "images": [{"id": "img-0.jpeg", "image_base64": "data:image/jpeg;base64,AAAA"}]},
    {"index": 1, "markdown": "Second page"}
  ]
}`

func TestNew_RequiresKey(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, domain.ErrMissingCredentials)
}

func TestProcess_RemoteURL(t *testing.T) {
	var got ocrRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/ocr", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(sampleResponse))
	}))
	defer srv.Close()

	svc, err := New(Config{APIKey: "key", BaseURL: srv.URL})
	require.NoError(t, err)

	result, err := svc.Process(context.Background(), "https://utfs.io/f/paper.pdf")
	require.NoError(t, err)

	assert.Equal(t, DefaultModel, got.Model)
	assert.Equal(t, "document_url", got.Document.Type)
	assert.Equal(t, "https://utfs.io/f/paper.pdf", got.Document.DocumentURL)
	assert.True(t, got.IncludeImageBase64)

	require.Len(t, result.Pages, 2)
	assert.Equal(t, "Second page", result.Pages[1].Markdown)
	require.Len(t, result.Pages[0].Images, 1)
	assert.Equal(t, "img-0.jpeg", result.Pages[0].Images[0].ID)
}

func TestProcess_LocalFileSentInline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paper.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.7"), 0o600))

	var got ocrRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"pages":[]}`))
	}))
	defer srv.Close()

	svc, err := New(Config{APIKey: "key", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = svc.Process(context.Background(), "file://"+path)
	require.NoError(t, err)

	prefix := "data:application/pdf;base64,"
	require.True(t, strings.HasPrefix(got.Document.DocumentURL, prefix))
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(got.Document.DocumentURL, prefix))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7", string(decoded))
}

func TestProcess_UnsupportedScheme(t *testing.T) {
	svc, err := New(Config{APIKey: "key"})
	require.NoError(t, err)

	_, err = svc.Process(context.Background(), "ftp://example.com/a.pdf")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestProcess_StatusErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, domain.ErrMissingCredentials},
		{"rate limited", http.StatusTooManyRequests, domain.ErrRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"message":"nope"}`))
			}))
			defer srv.Close()

			svc, err := New(Config{APIKey: "key", BaseURL: srv.URL})
			require.NoError(t, err)

			_, err = svc.Process(context.Background(), "https://utfs.io/f/a.pdf")
			assert.ErrorIs(t, err, tt.want)
			assert.Contains(t, err.Error(), "nope")
		})
	}
}

func TestProcess_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer srv.Close()

	svc, err := New(Config{APIKey: "key", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = svc.Process(context.Background(), "https://utfs.io/f/a.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}
