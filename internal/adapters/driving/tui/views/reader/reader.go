// Package reader provides the document reader view for the TUI.
package reader

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/readwell/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/readwell/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/readwell/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/readwell/internal/core/domain"
	"github.com/custodia-labs/readwell/internal/core/ports/driving"
)

// chromeLines is the height taken by the title, separator and footer.
const chromeLines = 5

// View renders one document's markdown in a scrollable viewport.
type View struct {
	ctx             context.Context
	styles          *styles.Styles
	keymap          *keymap.KeyMap
	documentService driving.DocumentService

	document *domain.Document
	content  string
	viewport viewport.Model
	width    int
	height   int
	err      error
	loading  bool
}

// NewView creates a reader view.
func NewView(ctx context.Context, s *styles.Styles, km *keymap.KeyMap, documentService driving.DocumentService) *View {
	return &View{
		ctx:             ctx,
		styles:          s,
		keymap:          km,
		documentService: documentService,
		viewport:        viewport.New(80, 20),
	}
}

// SetDocument switches to doc and loads its content.
func (v *View) SetDocument(doc domain.Document) tea.Cmd {
	v.document = &doc
	v.content = ""
	v.err = nil
	v.viewport.SetContent("")
	v.viewport.GotoTop()
	return v.loadContent()
}

func (v *View) loadContent() tea.Cmd {
	if v.document == nil {
		return nil
	}
	v.loading = true
	ctx, svc, id := v.ctx, v.documentService, v.document.ID
	return func() tea.Msg {
		content, err := svc.Content(ctx, id)
		return messages.DocumentContentLoaded{DocumentID: id, Content: content, Err: err}
	}
}

// Update handles messages for the reader.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, v.keymap.Back):
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewDocuments}
			}
		case key.Matches(msg, v.keymap.Reload):
			return v, v.loadContent()
		case key.Matches(msg, v.keymap.Explain):
			return v, func() tea.Msg {
				return messages.ExplainRequested{}
			}
		}

	case messages.DocumentContentLoaded:
		if v.document == nil || msg.DocumentID != v.document.ID {
			return v, nil
		}
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.content = msg.Content
		v.render()
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	var cmd tea.Cmd
	v.viewport, cmd = v.viewport.Update(msg)
	return v, cmd
}

// render lays the markdown out for the current width. Offset is kept so a
// reload of a growing document does not jump back to the top.
func (v *View) render() {
	offset := v.viewport.YOffset
	if v.content == "" {
		v.viewport.SetContent(v.styles.Muted.Render("(no content yet)"))
		return
	}
	v.viewport.SetContent(styles.Markdown(v.content, max(v.width-4, 20)))
	v.viewport.SetYOffset(offset)
}

// View renders the reader.
func (v *View) View() string {
	var b strings.Builder

	title := "Document"
	if v.document != nil {
		title = v.document.Title
		if title == "" {
			title = v.document.ID
		}
		if v.document.Status != domain.StatusCompleted {
			title += "  " + v.styles.StatusBadge(v.document.Status)
		}
	}
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", max(min(v.width-4, 60), 1)))
	b.WriteString("\n")

	switch {
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
		return b.String()
	case v.loading && v.content == "":
		b.WriteString(v.styles.Muted.Render("Loading content..."))
		return b.String()
	}

	b.WriteString(v.viewport.View())
	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%3.f%%]", v.viewport.ScrollPercent()*100)))
	return b.String()
}

// SetDimensions resizes the viewport and re-renders the content.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.viewport.Width = width
	v.viewport.Height = max(height-chromeLines, 1)
	if v.content != "" {
		v.render()
	}
}

// Document returns the current document.
func (v *View) Document() *domain.Document {
	return v.document
}

// Content returns the raw markdown.
func (v *View) Content() string {
	return v.content
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
