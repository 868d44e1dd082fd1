// Package input provides text input components for the TUI.
package input

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/readwell/internal/adapters/driving/tui/styles"
)

// charLimit bounds a single explain request.
const charLimit = 2000

// Prompt wraps a bubbles textinput with a styled label.
type Prompt struct {
	textinput textinput.Model
	styles    *styles.Styles
	label     string
	width     int
}

// NewPrompt creates a focused prompt showing label before the input.
func NewPrompt(s *styles.Styles, label, placeholder string) *Prompt {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Focus()
	ti.CharLimit = charLimit
	ti.Width = 50

	return &Prompt{
		textinput: ti,
		styles:    s,
		label:     label,
		width:     50,
	}
}

// Init starts the cursor blinking.
func (p *Prompt) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles input messages.
func (p *Prompt) Update(msg tea.Msg) (*Prompt, tea.Cmd) {
	var cmd tea.Cmd
	p.textinput, cmd = p.textinput.Update(msg)
	return p, cmd
}

// View renders the prompt.
func (p *Prompt) View() string {
	label := p.styles.Title.Render(p.label + " ")
	field := p.styles.InputField.Render(p.textinput.View())
	return lipgloss.JoinHorizontal(lipgloss.Center, label, field)
}

func (p *Prompt) Value() string {
	return p.textinput.Value()
}

func (p *Prompt) SetValue(value string) {
	p.textinput.SetValue(value)
}

func (p *Prompt) Focus() tea.Cmd {
	return p.textinput.Focus()
}

func (p *Prompt) Blur() {
	p.textinput.Blur()
}

func (p *Prompt) Focused() bool {
	return p.textinput.Focused()
}

// SetWidth sets the total width, leaving room for the label and border.
func (p *Prompt) SetWidth(width int) {
	p.width = width
	p.textinput.Width = max(width-lipgloss.Width(p.label)-6, 20)
}

func (p *Prompt) Width() int {
	return p.width
}

// Reset clears the input.
func (p *Prompt) Reset() {
	p.textinput.Reset()
}
