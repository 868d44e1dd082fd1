package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/readwell/internal/core/domain"
)

func TestDefaultTheme(t *testing.T) {
	theme := DefaultTheme()

	require.NotNil(t, theme)
	assert.NotEmpty(t, string(theme.Primary))
	assert.NotEmpty(t, string(theme.Secondary))
	assert.NotEmpty(t, string(theme.Foreground))
	assert.NotEmpty(t, string(theme.Muted))
	assert.NotEmpty(t, string(theme.Success))
	assert.NotEmpty(t, string(theme.Warning))
	assert.NotEmpty(t, string(theme.Error))
	assert.NotEmpty(t, string(theme.Border))
}

func TestDefaultTheme_StatusColoursAreDistinct(t *testing.T) {
	theme := DefaultTheme()

	colours := []lipgloss.Color{
		theme.Secondary,
		theme.Success,
		theme.Warning,
		theme.Error,
		theme.Muted,
	}

	seen := make(map[string]bool)
	for _, c := range colours {
		s := string(c)
		assert.False(t, seen[s], "duplicate colour: %s", s)
		seen[s] = true
	}
}

func TestNewStyles_NilTheme(t *testing.T) {
	styles := NewStyles(nil)

	require.NotNil(t, styles)
	assert.NotNil(t, styles.Theme())
}

func TestStyles_AllStylesInitialised(t *testing.T) {
	styles := DefaultStyles()

	assert.NotEqual(t, lipgloss.Style{}, styles.Title)
	assert.NotEqual(t, lipgloss.Style{}, styles.Subtitle)
	assert.NotEqual(t, lipgloss.Style{}, styles.Normal)
	assert.NotEqual(t, lipgloss.Style{}, styles.Muted)
	assert.NotEqual(t, lipgloss.Style{}, styles.Selected)
	assert.NotEqual(t, lipgloss.Style{}, styles.Error)
	assert.NotEqual(t, lipgloss.Style{}, styles.InputField)
	assert.NotEqual(t, lipgloss.Style{}, styles.StatusBar)
	assert.NotEqual(t, lipgloss.Style{}, styles.Help)
}

func TestStatusBadge(t *testing.T) {
	styles := DefaultStyles()

	for _, status := range []domain.ProcessingStatus{
		domain.StatusPending,
		domain.StatusProcessing,
		domain.StatusCompleted,
		domain.StatusFailed,
	} {
		assert.Contains(t, styles.StatusBadge(status), status.String())
	}
}

func TestProgressBar(t *testing.T) {
	styles := DefaultStyles()

	tests := []struct {
		progress int
		want     string
	}{
		{0, "  0%"},
		{45, " 45%"},
		{100, "100%"},
		{150, "100%"},
		{-5, "  0%"},
	}

	for _, tt := range tests {
		got := styles.ProgressBar(tt.progress, 10)
		assert.Contains(t, got, tt.want)
	}
	assert.Contains(t, styles.ProgressBar(50, 10), "█████░░░░░")
}

func TestMarkdown(t *testing.T) {
	out := Markdown("# Heading\n\nSome text.", 40)

	assert.Contains(t, out, "Heading")
	assert.Contains(t, out, "Some text.")
}
