package tui

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tbeam/tbview/internal/index"
	"github.com/tbeam/tbview/internal/model"
)

// EventsPageID is the ID of the indexed event list page.
const EventsPageID = "events"

// eventListLimit caps the rows fetched for the list.
const eventListLimit = 1000

type eventRowsMsg struct {
	key   index.RunKey
	rows  []model.EventSummary
	stats model.RunStats
	err   error
}

// EventsPage lists the indexed events of the open run passing the ADC cut.
// Enter jumps to the selected event in the viewer.
type EventsPage struct {
	keys   KeyMap
	store  *index.Store
	minADC func() float64

	key    index.RunKey
	hasRun bool
	rows   []model.EventSummary
	stats  model.RunStats
	err    error
	table  table.Model
}

// NewEventsPage returns the event list. minADC supplies the cut applied to
// the rows; store may be nil when indexing is disabled.
func NewEventsPage(store *index.Store, minADC func() float64) *EventsPage {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "event", Width: 8},
			{Title: "number", Width: 10},
			{Title: "time", Width: 19},
			{Title: "max ADC", Width: 9},
			{Title: "sum ADC", Width: 10},
			{Title: "ch over", Width: 8},
			{Title: "WC hits", Width: 8},
		}),
		table.WithFocused(true),
	)
	return &EventsPage{keys: DefaultKeyMap(), store: store, minADC: minADC, table: t}
}

func (p *EventsPage) ID() string { return EventsPageID }

// Init reloads the rows each time the page is shown.
func (p *EventsPage) Init() tea.Cmd {
	return p.loadCmd()
}

func (p *EventsPage) loadCmd() tea.Cmd {
	if p.store == nil || !p.hasRun {
		return nil
	}
	store, key, cut := p.store, p.key, 0.0
	if p.minADC != nil {
		cut = p.minADC()
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		rows, err := store.List(ctx, key, cut, eventListLimit)
		if err != nil {
			return eventRowsMsg{key: key, err: err}
		}
		stats, err := store.Stats(ctx, key)
		return eventRowsMsg{key: key, rows: rows, stats: stats, err: err}
	}
}

func (p *EventsPage) Update(msg tea.Msg) (tea.Cmd, *PageNav) {
	switch msg := msg.(type) {
	case RunIndexedMsg:
		p.key, p.hasRun = msg.Key, true
		return p.loadCmd(), nil

	case eventRowsMsg:
		if msg.key != p.key {
			return nil, nil
		}
		p.err = msg.err
		p.rows, p.stats = msg.rows, msg.stats
		p.table.SetRows(p.tableRows())
		return nil, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, p.keys.ForceQuit):
			return tea.Quit, nil
		case key.Matches(msg, p.keys.Escape), key.Matches(msg, p.keys.EventList), key.Matches(msg, p.keys.Quit):
			return nil, &PageNav{PageID: ViewerPageID}
		case msg.Type == tea.KeyEnter:
			ev, ok := p.Selected()
			if !ok {
				return nil, nil
			}
			return func() tea.Msg { return GotoEventMsg{Event: ev} }, &PageNav{PageID: ViewerPageID}
		}
		var cmd tea.Cmd
		p.table, cmd = p.table.Update(msg)
		return cmd, nil
	}
	return nil, nil
}

// Selected returns the event index of the highlighted row.
func (p *EventsPage) Selected() (int, bool) {
	i := p.table.Cursor()
	if i < 0 || i >= len(p.rows) {
		return 0, false
	}
	return p.rows[i].Event, true
}

func (p *EventsPage) tableRows() []table.Row {
	rows := make([]table.Row, 0, len(p.rows))
	for _, r := range p.rows {
		ts := "-"
		if r.Timestamp > 0 {
			ts = time.Unix(r.Timestamp, 0).UTC().Format("2006-01-02 15:04:05")
		}
		rows = append(rows, table.Row{
			strconv.Itoa(r.Event),
			strconv.FormatInt(r.Number, 10),
			ts,
			fmt.Sprintf("%.0f", r.MaxADC),
			fmt.Sprintf("%.0f", r.SumADC),
			strconv.Itoa(r.ChannelsOver),
			strconv.Itoa(r.WCHits),
		})
	}
	return rows
}

func (p *EventsPage) View(width, height int) string {
	title := chartTitleStyle.Render("Events")
	footer := helpStyle.Render("up/down: select | enter: show event | esc/e: back to display")

	var body string
	switch {
	case p.store == nil:
		body = helpStyle.Render("Event index disabled.")
	case !p.hasRun:
		body = helpStyle.Render("No indexed run yet.")
	case p.err != nil:
		body = lipgloss.NewStyle().Foreground(ColorRed).Render(p.err.Error())
	default:
		cut := 0.0
		if p.minADC != nil {
			cut = p.minADC()
		}
		summary := fmt.Sprintf("%d events | mean max ADC %.1f | peak %.0f | %d WC hits | %d rows with max ADC >= %g",
			p.stats.Events, p.stats.MeanMaxADC, p.stats.PeakMaxADC, p.stats.WCHits, len(p.rows), cut)
		p.table.SetWidth(max(width-4, 20))
		p.table.SetHeight(max(height-8, 3))
		body = lipgloss.JoinVertical(lipgloss.Left, summary, p.table.View())
	}
	content := lipgloss.JoinVertical(lipgloss.Left, title, body, footer)
	return activeSectionStyle.Width(max(width-2, 1)).Height(max(height-2, 1)).Render(content)
}
