// Package documents provides the document list view for the TUI.
package documents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/readwell/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/readwell/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/readwell/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/readwell/internal/core/domain"
	"github.com/custodia-labs/readwell/internal/core/ports/driving"
)

// RefreshInterval is how often the list reloads while any document is
// still pending or processing.
const RefreshInterval = time.Second

// View is the document list view.
type View struct {
	ctx             context.Context
	styles          *styles.Styles
	keymap          *keymap.KeyMap
	documentService driving.DocumentService
	owner           string

	documents    []domain.Document
	selected     int
	scrollOffset int
	width        int
	height       int
	err          error
	loading      bool

	// ticking is set while a RefreshTick is scheduled so reloads do not
	// start a second refresh chain.
	ticking bool
}

// NewView creates a document list for owner.
func NewView(ctx context.Context, s *styles.Styles, km *keymap.KeyMap, documentService driving.DocumentService, owner string) *View {
	return &View{
		ctx:             ctx,
		styles:          s,
		keymap:          km,
		documentService: documentService,
		owner:           owner,
	}
}

// Init loads the first page of documents.
func (v *View) Init() tea.Cmd {
	return v.Reload()
}

// Reload returns a command that fetches the document list.
func (v *View) Reload() tea.Cmd {
	v.loading = true
	ctx, svc, owner := v.ctx, v.documentService, v.owner
	return func() tea.Msg {
		docs, err := svc.List(ctx, owner)
		return messages.DocumentsLoaded{Documents: docs, Err: err}
	}
}

// Update handles messages for the documents view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.DocumentsLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.documents = msg.Documents
		if v.selected >= len(v.documents) {
			v.selected = max(len(v.documents)-1, 0)
		}
		v.adjustScroll()
		if v.hasActive() && !v.ticking {
			v.ticking = true
			return v, tea.Tick(RefreshInterval, func(time.Time) tea.Msg {
				return messages.RefreshTick{}
			})
		}
		return v, nil

	case messages.RefreshTick:
		v.ticking = false
		return v, v.Reload()

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keymap.Up):
		if v.selected > 0 {
			v.selected--
			v.adjustScroll()
		}
	case key.Matches(msg, v.keymap.Down):
		if v.selected < len(v.documents)-1 {
			v.selected++
			v.adjustScroll()
		}
	case key.Matches(msg, v.keymap.Select):
		if doc := v.SelectedDocument(); doc != nil {
			selected := *doc
			return v, func() tea.Msg {
				return messages.DocumentSelected{Document: selected}
			}
		}
	case key.Matches(msg, v.keymap.Reload):
		return v, v.Reload()
	case key.Matches(msg, v.keymap.Explain):
		return v, func() tea.Msg {
			return messages.ExplainRequested{}
		}
	}

	return v, nil
}

// hasActive reports whether any document is still moving through the pipeline.
func (v *View) hasActive() bool {
	for _, doc := range v.documents {
		if doc.Status == domain.StatusPending || doc.Status == domain.StatusProcessing {
			return true
		}
	}
	return false
}

// adjustScroll keeps the selected item visible.
func (v *View) adjustScroll() {
	visible := v.visibleItemCount()
	if v.selected < v.scrollOffset {
		v.scrollOffset = v.selected
	} else if v.selected >= v.scrollOffset+visible {
		v.scrollOffset = v.selected - visible + 1
	}
}

// visibleItemCount reserves lines for the title, scroll indicator and status bar.
func (v *View) visibleItemCount() int {
	return max(v.height-6, 1)
}

// View renders the documents view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Documents (%d)", len(v.documents))))
	b.WriteString("\n\n")

	switch {
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
		return b.String()
	case v.loading && len(v.documents) == 0:
		b.WriteString(v.styles.Muted.Render("Loading documents..."))
		return b.String()
	case len(v.documents) == 0:
		b.WriteString(v.styles.Muted.Render("No documents yet. Run `readwell process <file>` to add one."))
		return b.String()
	}

	visible := v.visibleItemCount()
	for i := v.scrollOffset; i < len(v.documents) && i < v.scrollOffset+visible; i++ {
		b.WriteString(v.renderDocument(i, &v.documents[i]))
		b.WriteString("\n")
	}

	if len(v.documents) > visible {
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%d-%d of %d]",
			v.scrollOffset+1,
			min(v.scrollOffset+visible, len(v.documents)),
			len(v.documents))))
	}

	return b.String()
}

func (v *View) renderDocument(index int, doc *domain.Document) string {
	title := doc.Title
	if title == "" {
		title = doc.ID
	}
	maxTitleLen := max(v.width/2-4, 10)
	if len(title) > maxTitleLen {
		title = title[:maxTitleLen-3] + "..."
	}

	status := v.styles.StatusBadge(doc.Status)
	if doc.Status == domain.StatusProcessing {
		status = v.styles.ProgressBar(doc.Progress, 12)
	}

	if index == v.selected {
		return v.styles.Selected.Render(fmt.Sprintf("> %-*s", maxTitleLen, title)) + "  " + status
	}
	return v.styles.Normal.Render(fmt.Sprintf("  %-*s", maxTitleLen, title)) + "  " + status
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.adjustScroll()
}

// Documents returns the current list of documents.
func (v *View) Documents() []domain.Document {
	return v.documents
}

// SelectedIndex returns the currently selected document index.
func (v *View) SelectedIndex() int {
	return v.selected
}

// SelectedDocument returns the currently selected document.
func (v *View) SelectedDocument() *domain.Document {
	if v.selected < len(v.documents) {
		return &v.documents[v.selected]
	}
	return nil
}

// Loading reports whether a reload is in flight.
func (v *View) Loading() bool {
	return v.loading
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
