package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Modal is a self-contained modal that owns its own Update/View lifecycle.
// Modals are managed via a stack on ViewerModel; the topmost modal
// receives all input and renders full-screen.
type Modal interface {
	// ID returns a unique identifier used to deduplicate pushes.
	ID() string
	// Update processes a message. Return pop=true to close the modal.
	Update(msg tea.Msg) (pop bool, cmd tea.Cmd)
	// View renders the modal content for the given terminal dimensions.
	View(width, height int) string
}

// pushModal pushes m unless a modal with the same ID is already open.
func (m *ViewerModel) pushModal(md Modal) {
	for _, open := range m.modals {
		if open.ID() == md.ID() {
			return
		}
	}
	m.modals = append(m.modals, md)
}

func (m *ViewerModel) topModal() Modal {
	if len(m.modals) == 0 {
		return nil
	}
	return m.modals[len(m.modals)-1]
}

func (m *ViewerModel) popModal() {
	if len(m.modals) > 0 {
		m.modals = m.modals[:len(m.modals)-1]
	}
}

// frame draws a bordered, centered modal box.
func frame(title, body, footer string, width, height int) string {
	modalWidth := max(width-8, 20)
	modalHeight := max(height-4, 6)

	header := lipgloss.NewStyle().
		Width(modalWidth - 4).
		Foreground(ColorBlue).
		Bold(true).
		Render(title)

	content := lipgloss.JoinVertical(lipgloss.Left, header, body, helpStyle.Render(footer))
	box := lipgloss.NewStyle().
		Width(modalWidth).
		MaxHeight(modalHeight).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBlue).
		Padding(0, 1).
		Render(content)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}

// ContentModal shows scrollable text (help, about, run statistics).
type ContentModal struct {
	id    string
	title string
	body  string
	vp    viewport.Model
	keys  KeyMap
	sized bool
}

func NewContentModal(id, title, body string, keys KeyMap) *ContentModal {
	return &ContentModal{id: id, title: title, body: body, vp: viewport.New(0, 0), keys: keys}
}

func (c *ContentModal) ID() string { return c.id }

func (c *ContentModal) Update(msg tea.Msg) (bool, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(km, c.keys.Escape), key.Matches(km, c.keys.Quit):
			return true, nil
		case c.id == "help" && key.Matches(km, c.keys.Help):
			return true, nil
		}
	}
	var cmd tea.Cmd
	c.vp, cmd = c.vp.Update(msg)
	return false, cmd
}

func (c *ContentModal) View(width, height int) string {
	w, h := max(width-14, 10), max(height-9, 3)
	if !c.sized || c.vp.Width != w || c.vp.Height != h {
		c.vp.Width, c.vp.Height = w, h
		c.vp.SetContent(lipgloss.NewStyle().Width(w).Render(c.body))
		c.sized = true
	}
	return frame(c.title, c.vp.View(), "up/down: scroll | esc: close", width, height)
}

// helpText renders the key map by section.
func helpText(k KeyMap) string {
	var b strings.Builder
	for i, g := range k.helpGroups() {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(chartTitleStyle.Render(g.title))
		b.WriteString("\n")
		for _, bind := range g.bindings {
			h := bind.Help()
			fmt.Fprintf(&b, "  %-14s %s\n", h.Key, h.Desc)
		}
	}
	return b.String()
}

// InputModal asks for a single value. Submit validates the text; a non-nil
// error keeps the modal open and shows the error.
type InputModal struct {
	id     string
	title  string
	input  textinput.Model
	submit func(string) (tea.Cmd, error)
	err    error
}

func NewInputModal(id, title, placeholder, value string, submit func(string) (tea.Cmd, error)) *InputModal {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.SetValue(value)
	ti.CharLimit = 512
	ti.Focus()
	return &InputModal{id: id, title: title, input: ti, submit: submit}
}

func (im *InputModal) ID() string { return im.id }

func (im *InputModal) Update(msg tea.Msg) (bool, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.Type {
		case tea.KeyEsc:
			return true, nil
		case tea.KeyEnter:
			cmd, err := im.submit(strings.TrimSpace(im.input.Value()))
			if err != nil {
				im.err = err
				return false, nil
			}
			return true, cmd
		}
	}
	var cmd tea.Cmd
	im.input, cmd = im.input.Update(msg)
	return false, cmd
}

func (im *InputModal) View(width, height int) string {
	im.input.Width = max(width-20, 10)
	body := im.input.View()
	if im.err != nil {
		body += "\n" + lipgloss.NewStyle().Foreground(ColorRed).Render(im.err.Error())
	}
	return frame(im.title, body, "enter: apply | esc: cancel", width, min(height, 10))
}
