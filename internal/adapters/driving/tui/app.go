package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/readwell/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/readwell/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/readwell/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/readwell/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/readwell/internal/adapters/driving/tui/views/documents"
	"github.com/custodia-labs/readwell/internal/adapters/driving/tui/views/explain"
	"github.com/custodia-labs/readwell/internal/adapters/driving/tui/views/reader"
)

// App is the reader application following the Elm architecture.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keymap *keymap.KeyMap

	documentsView *documents.View
	readerView    *reader.View
	explainView   *explain.View
	statusBar     *status.Bar

	currentView messages.ViewType

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a reader bound to ctx. Views use ctx for every service call.
func NewApp(ctx context.Context, ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:         ports,
		ctx:           ctx,
		styles:        s,
		keymap:        km,
		documentsView: documents.NewView(ctx, s, km, ports.Documents, ports.Owner),
		readerView:    reader.NewView(ctx, s, km, ports.Documents),
		explainView:   explain.NewView(ctx, s, km, ports.Explainer),
		statusBar:     status.NewBar(s),
		currentView:   messages.ViewDocuments,
	}, nil
}

// Run starts the program and blocks until the user quits or ctx is done.
func Run(ctx context.Context, ports *Ports) error {
	app, err := NewApp(ctx, ports)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("readwell"),
		a.documentsView.Init(),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		body := max(msg.Height-1, 1)
		a.documentsView.SetDimensions(msg.Width, body)
		a.readerView.SetDimensions(msg.Width, body)
		a.explainView.SetDimensions(msg.Width, body)
		a.statusBar.SetWidth(msg.Width)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		// q is text inside the explain prompt.
		if a.currentView != messages.ViewExplain && key.Matches(msg, a.keymap.Quit) {
			return a, tea.Quit
		}
		return a, a.updateCurrent(msg)

	case messages.ViewChanged:
		a.currentView = msg.View
		if msg.View == messages.ViewDocuments {
			return a, a.documentsView.Reload()
		}
		return a, nil

	case messages.DocumentSelected:
		a.currentView = messages.ViewReader
		return a, a.readerView.SetDocument(msg.Document)

	case messages.ExplainRequested:
		returnTo := a.currentView
		a.currentView = messages.ViewExplain
		return a, a.explainView.Open(returnTo, msg.Text)

	case messages.DocumentsLoaded, messages.RefreshTick:
		a.documentsView, cmd = a.documentsView.Update(msg)
		return a, cmd

	case messages.DocumentContentLoaded:
		a.readerView, cmd = a.readerView.Update(msg)
		return a, cmd

	case messages.ExplanationLoaded:
		a.explainView, cmd = a.explainView.Update(msg)
		return a, cmd
	}

	return a, a.updateCurrent(msg)
}

// updateCurrent forwards msg to the active view.
func (a *App) updateCurrent(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.currentView {
	case messages.ViewDocuments:
		a.documentsView, cmd = a.documentsView.Update(msg)
	case messages.ViewReader:
		a.readerView, cmd = a.readerView.Update(msg)
	case messages.ViewExplain:
		a.explainView, cmd = a.explainView.Update(msg)
	}
	return cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	var body string
	switch a.currentView {
	case messages.ViewReader:
		body = a.readerView.View()
		a.setStatus(a.readerView.Err(), false, a.keymap.ReaderHelp())
	case messages.ViewExplain:
		body = a.explainView.View()
		a.setStatus(a.explainView.Err(), a.explainView.Loading(), a.keymap.ExplainHelp())
	default:
		body = a.documentsView.View()
		loading := a.documentsView.Loading() && len(a.documentsView.Documents()) == 0
		a.setStatus(a.documentsView.Err(), loading, a.keymap.DocumentsHelp())
		if a.documentsView.Err() == nil {
			a.statusBar.SetMessage(fmt.Sprintf("%d documents", len(a.documentsView.Documents())))
		}
	}

	body = lipgloss.NewStyle().Height(max(a.height-1, 1)).Render(body)
	return body + "\n" + a.statusBar.View()
}

func (a *App) setStatus(err error, loading bool, hints []key.Binding) {
	a.statusBar.Clear()
	a.statusBar.SetHints(hints)
	switch {
	case err != nil:
		a.statusBar.SetState(status.StateError)
		a.statusBar.SetMessage(err.Error())
	case loading:
		a.statusBar.SetState(status.StateLoading)
	}
}

// CurrentView returns the active view.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}
