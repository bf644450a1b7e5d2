// Package display holds the event display pages. A page accumulates the
// events it is filled with into histograms and exposes them as figures that
// the terminal UI and the snapshot writer both render.
package display

import (
	"github.com/tbeam/tbview/internal/calib"
	"github.com/tbeam/tbview/internal/mapping"
	"github.com/tbeam/tbview/internal/model"
)

// Page is one tab of the event display notebook.
type Page interface {
	// ID is the short name used in snapshot file names.
	ID() string
	Title() string
	// Fill adds ev to the page. Unless opts.Accumulate is set the page is
	// reset first.
	Fill(ev *model.Event, opts *model.Options)
	Reset()
	// Filled returns the number of events in the page since the last reset.
	Filled() int
	Toggles(opts *model.Options) []Toggle
	Figures(opts *model.Options) []Figure
}

// Toggle is a page-specific option bound to a number key.
type Toggle struct {
	Key   string
	Label string
	On    bool
	Flip  func(opts *model.Options)
}

// Deps are the detector descriptions shared by the pages.
type Deps struct {
	Mapper *mapping.Mapper
	Means  *calib.Means
}

// NewPages returns a fresh notebook in tab order.
func NewPages(deps Deps) []Page {
	if deps.Mapper == nil {
		deps.Mapper = mapping.New(model.DefaultBoards)
	}
	if deps.Means == nil {
		deps.Means = calib.New(model.DefaultWCTimeMean, model.DefaultWCTimeWindow)
	}
	return []Page{
		NewTracesPage(),
		NewHeatmapPage(deps.Mapper),
		NewFibersPage(),
		NewWireChamberPage(deps.Means),
		NewTDCPage(),
		NewScenePage(deps.Mapper, deps.Means),
	}
}

// counter tracks fills since reset; pages embed it.
type counter struct{ n int }

func (c *counter) Filled() int { return c.n }

// begin resets p unless accumulating and counts the fill.
func begin(p Page, c *counter, opts *model.Options) {
	if !opts.Accumulate {
		p.Reset()
	}
	c.n++
}

func keyFor(i int) string {
	return string(rune('1' + i))
}
