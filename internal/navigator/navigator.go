// Package navigator tracks the current event of an open run and steps
// through it, skipping events below the ADC cut.
package navigator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tbeam/tbview/internal/model"
)

// ErrNoEvents is returned when navigating a run without events or without
// an open source.
var ErrNoEvents = errors.New("navigator: no events")

// Navigator owns the current/previous event index of one source. Methods are
// safe for concurrent use; reads are serialized so a single-threaded source
// is never entered twice.
type Navigator struct {
	mu sync.Mutex

	src    model.EventSource
	cutter model.Cutter
	cut    float64

	current  int
	previous int
	event    *model.Event
}

// New returns a navigator positioned before the first event. A nil cutter
// falls back to scanning the source.
func New(src model.EventSource, cutter model.Cutter) *Navigator {
	n := &Navigator{cut: model.DefaultADCCut, current: -1, previous: -1}
	n.setSource(src, cutter)
	return n
}

func (n *Navigator) setSource(src model.EventSource, cutter model.Cutter) {
	if cutter == nil && src != nil {
		cutter = NewScanCutter(src)
	}
	n.src = src
	n.cutter = cutter
}

// SetSource swaps the source (after a refresh or re-open) keeping the
// current index, clamped to the new event count.
func (n *Navigator) SetSource(src model.EventSource, cutter model.Cutter) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.setSource(src, cutter)
	n.event = nil
	if entries := n.entries(); n.current >= entries {
		n.current = entries - 1
	}
}

// SetCutter replaces the cut lookup, e.g. once the event index is built.
func (n *Navigator) SetCutter(cutter model.Cutter) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.setSource(n.src, cutter)
}

func (n *Navigator) entries() int {
	if n.src == nil {
		return 0
	}
	return n.src.Entries()
}

// Entries returns the event count of the source.
func (n *Navigator) Entries() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.entries()
}

// Current returns the current event index, -1 before the first read.
func (n *Navigator) Current() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// PreviousIndex returns the index held before the last move.
func (n *Navigator) PreviousIndex() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.previous
}

// Event returns the last event read, or nil.
func (n *Navigator) Event() *model.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.event
}

// Cut returns the ADC cut.
func (n *Navigator) Cut() float64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.cut
}

// SetCut sets the ADC cut applied by Next and Prev.
func (n *Navigator) SetCut(cut float64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cut = cut
}

// AtBoundary reports whether the current event is the first or the last.
func (n *Navigator) AtBoundary() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current <= 0 || n.current >= n.entries()-1
}

// Next moves to the first event after the current one passing the cut,
// wrapping from the last event to the first. When nothing passes it lands
// on the last event.
func (n *Navigator) Next(ctx context.Context) (*model.Event, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	entries := n.entries()
	if entries == 0 {
		return nil, ErrNoEvents
	}
	start := n.current + 1
	if n.current < 0 || n.current >= entries-1 {
		start = 0
	}
	idx, found, err := n.cutter.NextAbove(ctx, start, n.cut)
	if err != nil {
		return nil, fmt.Errorf("searching forward from %d: %w", start, err)
	}
	if !found {
		idx = entries - 1
	}
	return n.load(idx)
}

// Prev moves to the first event before the current one passing the cut,
// wrapping from the first event to the last. When nothing passes it lands
// on the first event.
func (n *Navigator) Prev(ctx context.Context) (*model.Event, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	entries := n.entries()
	if entries == 0 {
		return nil, ErrNoEvents
	}
	start := n.current - 1
	if n.current <= 0 || n.current > entries-1 {
		start = entries - 1
	}
	idx, found, err := n.cutter.PrevAbove(ctx, start, n.cut)
	if err != nil {
		return nil, fmt.Errorf("searching backward from %d: %w", start, err)
	}
	if !found {
		idx = 0
	}
	return n.load(idx)
}

// Goto reads event i, clamped to the valid range, without applying the cut.
func (n *Navigator) Goto(i int) (*model.Event, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	entries := n.entries()
	if entries == 0 {
		return nil, ErrNoEvents
	}
	return n.load(max(0, min(i, entries-1)))
}

// Reload re-reads the current event, or the first one before any read.
func (n *Navigator) Reload() (*model.Event, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	entries := n.entries()
	if entries == 0 {
		return nil, ErrNoEvents
	}
	return n.load(max(0, min(n.current, entries-1)))
}

func (n *Navigator) load(idx int) (*model.Event, error) {
	ev, err := n.src.Read(idx)
	if err != nil {
		return nil, fmt.Errorf("reading event %d: %w", idx, err)
	}
	n.previous = n.current
	n.current = idx
	n.event = ev
	slog.Debug(fmt.Sprintf("event %d -> %d", n.previous, idx), "module", "navigator")
	return ev, nil
}
