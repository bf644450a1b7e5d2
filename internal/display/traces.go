package display

import (
	"fmt"
	"slices"

	"github.com/tbeam/tbview/internal/model"
)

// TracesPage draws the pedestal-subtracted waveforms of every channel,
// grouped by board.
type TracesPage struct {
	counter
	// sums[board][channel] holds the summed samples.
	sums map[int]map[int]*[model.NPadeSamples]float64
}

func NewTracesPage() *TracesPage {
	p := &TracesPage{}
	p.Reset()
	return p
}

func (p *TracesPage) ID() string    { return "Traces" }
func (p *TracesPage) Title() string { return "WF Traces" }

func (p *TracesPage) Reset() {
	p.sums = make(map[int]map[int]*[model.NPadeSamples]float64)
	p.n = 0
}

func (p *TracesPage) Fill(ev *model.Event, opts *model.Options) {
	begin(p, &p.counter, opts)
	for c := range ev.Channels {
		pc := &ev.Channels[c]
		board := p.sums[pc.BoardID]
		if board == nil {
			board = make(map[int]*[model.NPadeSamples]float64)
			p.sums[pc.BoardID] = board
		}
		sum := board[pc.ChannelID]
		if sum == nil {
			sum = new([model.NPadeSamples]float64)
			board[pc.ChannelID] = sum
		}
		for s := range sum {
			sum[s] += pc.Sample(s)
		}
	}
}

// boards returns the board IDs to offer toggles for.
func (p *TracesPage) boards(opts *model.Options) []int {
	if len(opts.BoardNumbers) > 0 {
		return opts.BoardNumbers
	}
	ids := make([]int, 0, len(p.sums))
	for id := range p.sums {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (p *TracesPage) Toggles(opts *model.Options) []Toggle {
	var toggles []Toggle
	for i, id := range p.boards(opts) {
		if i >= 9 {
			break
		}
		toggles = append(toggles, Toggle{
			Key:   keyFor(i),
			Label: fmt.Sprintf("board %d", id),
			On:    opts.BoardVisible(id),
			Flip:  func(o *model.Options) { o.ToggleBoard(id) },
		})
	}
	return toggles
}

// Figures returns one trace figure per visible board; series are sorted by
// decreasing peak.
func (p *TracesPage) Figures(opts *model.Options) []Figure {
	var figs []Figure
	for _, id := range p.boards(opts) {
		if !opts.BoardVisible(id) {
			continue
		}
		board := p.sums[id]
		chans := make([]int, 0, len(board))
		for ch := range board {
			chans = append(chans, ch)
		}
		slices.Sort(chans)

		tr := Traces{Title: fmt.Sprintf("board %d", id)}
		for _, ch := range chans {
			y := board[ch][:]
			tr.Series = append(tr.Series, Series{
				Name: fmt.Sprintf("ch %d", ch),
				Y:    slices.Clone(y),
				Peak: slices.Max(y),
			})
		}
		slices.SortStableFunc(tr.Series, func(a, b Series) int {
			switch {
			case a.Peak > b.Peak:
				return -1
			case a.Peak < b.Peak:
				return 1
			}
			return 0
		})
		figs = append(figs, tr)
	}
	return figs
}
