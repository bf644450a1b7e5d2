package tui

import tea "github.com/charmbracelet/bubbletea"

// App is the top-level Bubble Tea model that routes between pages. Input
// goes to the active page only; every other message reaches all pages so
// that background work (player ticks, index builds, file changes) keeps
// running while another page is shown.
type App struct {
	pages      []Page
	activePage int
	width      int
	height     int
}

// NewApp creates a new App with the given pages. The first page is the default.
func NewApp(pages ...Page) *App {
	return &App{pages: pages}
}

// ActivePage returns the ID of the page on screen.
func (a *App) ActivePage() string {
	if len(a.pages) == 0 {
		return ""
	}
	return a.pages[a.activePage].ID()
}

func (a *App) Init() tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(a.pages))
	for _, p := range a.pages {
		cmds = append(cmds, p.Init())
	}
	return tea.Batch(cmds...)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if len(a.pages) == 0 {
		return a, nil
	}
	if wsm, ok := msg.(tea.WindowSizeMsg); ok {
		a.width = wsm.Width
		a.height = wsm.Height
	}

	switch msg.(type) {
	case tea.KeyMsg, tea.MouseMsg:
		cmd, nav := a.pages[a.activePage].Update(msg)
		return a, tea.Batch(cmd, a.navigate(nav))
	}

	var cmds []tea.Cmd
	var nav *PageNav
	for _, p := range a.pages {
		cmd, n := p.Update(msg)
		cmds = append(cmds, cmd)
		if n != nil {
			nav = n
		}
	}
	cmds = append(cmds, a.navigate(nav))
	return a, tea.Batch(cmds...)
}

// navigate switches to the requested page and returns its Init command.
func (a *App) navigate(nav *PageNav) tea.Cmd {
	if nav == nil {
		return nil
	}
	for i, p := range a.pages {
		if p.ID() == nav.PageID {
			if i == a.activePage {
				return nil
			}
			a.activePage = i
			return p.Init()
		}
	}
	return nil
}

func (a *App) View() string {
	if len(a.pages) == 0 {
		return "No active page"
	}
	return a.pages[a.activePage].View(a.width, a.height)
}
