package cli

import (
	"github.com/custodia-labs/readwell/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/readwell/internal/core/domain"
)

var theme = styles.DefaultStyles()

var (
	headingStyle = theme.Title
	mutedStyle   = theme.Muted
	errorStyle   = theme.Error
)

func statusBadge(status domain.ProcessingStatus) string {
	return theme.StatusBadge(status)
}

func progressBar(progress, width int) string {
	return theme.ProgressBar(progress, width)
}

func renderMarkdown(content string, width int) string {
	return styles.Markdown(content, width)
}
