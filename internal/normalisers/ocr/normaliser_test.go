package ocr

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/readwell/internal/core/domain"
)

func TestExtractText_JoinsPages(t *testing.T) {
	result := &domain.OCRResult{Pages: []domain.OCRPage{
		{Markdown: "  # Title\n\nIntro.\u200B"},
		{Markdown: "Second page."},
		{Text: "Plain fallback."},
	}}

	text := ExtractText(result)
	assert.Equal(t, "# Title\n\nIntro.\n\nSecond page.\n\nPlain fallback.", text)
}

func TestExtractText_DedupesRunningHeaders(t *testing.T) {
	result := &domain.OCRResult{Pages: []domain.OCRPage{
		{Markdown: "Journal\nJournal\nJournal\nBody"},
	}}

	assert.Equal(t, "Journal\nBody", ExtractText(result))
	assert.Equal(t, "", ExtractText(nil))
}

func TestExtractImages_TrimsPayload(t *testing.T) {
	result := &domain.OCRResult{Pages: []domain.OCRPage{
		{Images: []domain.OCRImage{
			{ID: "a", ImageBase64: "  /9j/AAAA\n"},
			{ID: "blank", ImageBase64: " \n\t"},
		}},
	}}

	images := ExtractImages(result)
	require.Len(t, images, 1)
	assert.Equal(t, "data:image/jpeg;base64,/9j/AAAA", images[0].DataURI)

	mime, data, err := DecodeDataURI(images[0].DataURI)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mime)
	assert.NotEmpty(t, data)
}

func TestExtractImages(t *testing.T) {
	result := &domain.OCRResult{Pages: []domain.OCRPage{
		{Images: []domain.OCRImage{
			{ID: "img-0.jpeg", ImageBase64: "/9j/AAAA"},
			{ID: "empty"},
		}},
		{Images: []domain.OCRImage{
			{ImageBase64: "iVBORw0KGgoAAAA"},
			{ID: "gif", ImageBase64: "R0lGODlh"},
			{ID: "webp", ImageBase64: "UklGRAAA"},
			{ID: "uri", ImageBase64: "data:image/svg+xml;base64,PHN2Zz4="},
		}},
	}}

	images := ExtractImages(result)
	require.Len(t, images, 5)

	assert.Equal(t, 1, images[0].Index)
	assert.Equal(t, "img-0.jpeg", images[0].ID)
	assert.Equal(t, "data:image/jpeg;base64,/9j/AAAA", images[0].DataURI)

	assert.Equal(t, 2, images[1].Index)
	assert.Equal(t, "img-2", images[1].ID)
	assert.True(t, strings.HasPrefix(images[1].DataURI, "data:image/png;base64,"))

	assert.True(t, strings.HasPrefix(images[2].DataURI, "data:image/gif;"))
	assert.True(t, strings.HasPrefix(images[3].DataURI, "data:image/webp;"))
	assert.Equal(t, "data:image/svg+xml;base64,PHN2Zz4=", images[4].DataURI)

	for i, img := range images {
		assert.Equal(t, i+1, img.Index)
	}
}

func TestSniffMIME_Default(t *testing.T) {
	assert.Equal(t, "image/png", SniffMIME("AAAA"))
}

func TestDecodeDataURI(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("hello"))

	mime, data, err := DecodeDataURI("data:image/png;base64," + payload)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)
	assert.Equal(t, []byte("hello"), data)

	for _, bad := range []string{"image/png;base64,AAAA", "data:image/png;base64", "data:image/png,AAAA", "data:image/png;base64,!!!"} {
		_, _, err := DecodeDataURI(bad)
		assert.Error(t, err, bad)
	}
}

func TestNormaliser_Normalise(t *testing.T) {
	n := New()
	result := &domain.OCRResult{Pages: []domain.OCRPage{
		{Markdown: strings.Repeat("Readable sentence. ", 5)},
	}}

	out, err := n.Normalise(context.Background(), result)
	require.NoError(t, err)
	assert.NotEmpty(t, out.Text)
	assert.Empty(t, out.Images)
}

func TestNormaliser_InsufficientContent(t *testing.T) {
	result := &domain.OCRResult{Pages: []domain.OCRPage{{Markdown: "0123456789"}}}

	_, err := New().Normalise(context.Background(), result)
	assert.ErrorIs(t, err, domain.ErrInsufficientContent)

	_, err = New(WithMinTextLength(16)).Normalise(context.Background(), result)
	assert.ErrorIs(t, err, domain.ErrInsufficientContent)

	_, err = New(WithMinTextLength(10)).Normalise(context.Background(), result)
	assert.NoError(t, err)
}

func TestNormaliser_NilResult(t *testing.T) {
	_, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
