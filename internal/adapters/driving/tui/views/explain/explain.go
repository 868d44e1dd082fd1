// Package explain provides the explain view for the TUI.
package explain

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/readwell/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/readwell/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/readwell/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/readwell/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/readwell/internal/core/domain"
	"github.com/custodia-labs/readwell/internal/core/ports/driving"
)

// View asks the explainer about a passage and shows the answer.
type View struct {
	ctx       context.Context
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	explainer driving.Explainer

	prompt   *input.Prompt
	returnTo messages.ViewType
	asked    string
	result   *domain.Explanation
	width    int
	err      error
	loading  bool
}

// NewView creates an explain view.
func NewView(ctx context.Context, s *styles.Styles, km *keymap.KeyMap, explainer driving.Explainer) *View {
	return &View{
		ctx:       ctx,
		styles:    s,
		keymap:    km,
		explainer: explainer,
		prompt:    input.NewPrompt(s, "Explain:", "Paste a term or passage..."),
	}
}

// Open resets the view, prefilled with text. Back returns to returnTo.
func (v *View) Open(returnTo messages.ViewType, text string) tea.Cmd {
	v.returnTo = returnTo
	v.asked = ""
	v.result = nil
	v.err = nil
	v.loading = false
	v.prompt.Reset()
	v.prompt.SetValue(text)
	return tea.Batch(v.prompt.Focus(), v.prompt.Init())
}

// Update handles messages for the explain view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, v.keymap.Back):
			returnTo := v.returnTo
			return v, func() tea.Msg {
				return messages.ViewChanged{View: returnTo}
			}
		case key.Matches(msg, v.keymap.Submit):
			return v, v.submit()
		}

	case messages.ExplanationLoaded:
		if msg.Text != v.asked {
			return v, nil
		}
		v.loading = false
		v.err = msg.Err
		v.result = msg.Explanation
		return v, nil
	}

	var cmd tea.Cmd
	v.prompt, cmd = v.prompt.Update(msg)
	return v, cmd
}

func (v *View) submit() tea.Cmd {
	text := strings.TrimSpace(v.prompt.Value())
	if text == "" || v.loading {
		return nil
	}
	v.asked = text
	v.result = nil
	v.err = nil
	v.loading = true
	ctx, explainer := v.ctx, v.explainer
	return func() tea.Msg {
		result, err := explainer.Explain(ctx, text)
		return messages.ExplanationLoaded{Text: text, Explanation: result, Err: err}
	}
}

// View renders the prompt and the latest answer.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Explain"))
	b.WriteString("\n\n")
	b.WriteString(v.prompt.View())
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Thinking..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
	case v.result != nil:
		b.WriteString(styles.Markdown(answerMarkdown(v.result), max(v.width-4, 20)))
	}
	return b.String()
}

// answerMarkdown lays the three answer sections out as markdown.
func answerMarkdown(e *domain.Explanation) string {
	var b strings.Builder
	for _, section := range []struct{ title, body string }{
		{"Explained simply", e.ELI5},
		{"Summary", e.Summary},
		{"Jargon", e.Jargon},
	} {
		body := strings.TrimSpace(section.body)
		if body == "" {
			body = "_(none)_"
		}
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", section.title, body)
	}
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, _ int) {
	v.width = width
	v.prompt.SetWidth(width)
}

// Result returns the latest explanation.
func (v *View) Result() *domain.Explanation {
	return v.result
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}

// Loading reports whether a request is in flight.
func (v *View) Loading() bool {
	return v.loading
}
