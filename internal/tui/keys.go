package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all viewer key bindings with built-in help text.
type KeyMap struct {
	// Global
	Quit      key.Binding
	ForceQuit key.Binding
	Help      key.Binding
	About     key.Binding
	Escape    key.Binding

	// Notebook
	NextPage key.Binding
	PrevPage key.Binding

	// Events
	Next      key.Binding
	Prev      key.Binding
	Goto      key.Binding
	First     key.Binding
	Last      key.Binding
	SetCut    key.Binding
	OpenFile  key.Binding
	EventList key.Binding
	Reload    key.Binding

	// Player
	Forward  key.Binding
	Rewind   key.Binding
	Stop     key.Binding
	Cycle    key.Binding
	SetDelay key.Binding

	// Pages
	Accumulate     key.Binding
	WholeEnchilada key.Binding
	Snapshot       key.Binding
	SnapshotMode   key.Binding
	Toggle         key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "force quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?", "h"),
			key.WithHelp("?/h", "help"),
		),
		About: key.NewBinding(
			key.WithKeys("A"),
			key.WithHelp("A", "about"),
		),
		Escape: key.NewBinding(
			key.WithKeys("escape", "esc"),
			key.WithHelp("esc", "close"),
		),

		NextPage: key.NewBinding(
			key.WithKeys("]", "tab"),
			key.WithHelp("]/tab", "next page"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("[", "shift+tab"),
			key.WithHelp("[/shift+tab", "prev page"),
		),

		Next: key.NewBinding(
			key.WithKeys("n", "right", "l"),
			key.WithHelp("n/→", "next event"),
		),
		Prev: key.NewBinding(
			key.WithKeys("p", "left"),
			key.WithHelp("p/←", "previous event"),
		),
		Goto: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "goto event"),
		),
		First: key.NewBinding(
			key.WithKeys("home"),
			key.WithHelp("home", "first event"),
		),
		Last: key.NewBinding(
			key.WithKeys("end"),
			key.WithHelp("end", "last event"),
		),
		SetCut: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "set ADC cut"),
		),
		OpenFile: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "open file"),
		),
		EventList: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "event list"),
		),
		Reload: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "reload file"),
		),

		Forward: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "forward player"),
		),
		Rewind: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "rewind player"),
		),
		Stop: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "stop player"),
		),
		Cycle: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "cycle pages"),
		),
		SetDelay: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "set delay"),
		),

		Accumulate: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "accumulate"),
		),
		WholeEnchilada: key.NewBinding(
			key.WithKeys("W"),
			key.WithHelp("W", "whole enchilada"),
		),
		Snapshot: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "snapshot"),
		),
		SnapshotMode: key.NewBinding(
			key.WithKeys("S"),
			key.WithHelp("S", "snapshot mode"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"),
			key.WithHelp("1-9", "page toggles"),
		),
	}
}

// helpGroups lists the bindings shown by the help modal, by section.
func (k KeyMap) helpGroups() []struct {
	title    string
	bindings []key.Binding
} {
	return []struct {
		title    string
		bindings []key.Binding
	}{
		{"EVENTS", []key.Binding{k.Next, k.Prev, k.Goto, k.First, k.Last, k.SetCut, k.EventList, k.OpenFile, k.Reload}},
		{"PLAYER", []key.Binding{k.Forward, k.Rewind, k.Stop, k.Cycle, k.SetDelay}},
		{"PAGES", []key.Binding{k.NextPage, k.PrevPage, k.Toggle, k.Accumulate, k.WholeEnchilada, k.Snapshot, k.SnapshotMode}},
		{"GENERAL", []key.Binding{k.Help, k.About, k.Escape, k.Quit, k.ForceQuit}},
	}
}
