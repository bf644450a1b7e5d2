package display

import (
	"go-hep.org/x/hep/hbook"

	"github.com/tbeam/tbview/internal/mapping"
	"github.com/tbeam/tbview/internal/model"
)

// HeatmapPage maps channel peaks onto the calorimeter face, per module and
// per fiber, for both readout ends.
type HeatmapPage struct {
	counter
	mapper *mapping.Mapper

	modD, modU   *hbook.H2D
	chanD, chanU *hbook.H2D
}

func NewHeatmapPage(m *mapping.Mapper) *HeatmapPage {
	p := &HeatmapPage{mapper: m}
	p.Reset()
	return p
}

func (p *HeatmapPage) ID() string    { return "Heatmap" }
func (p *HeatmapPage) Title() string { return "ADC Heatmap" }

func (p *HeatmapPage) Reset() {
	const lo, hi = 0.5, mapping.ModuleGrid + 0.5
	p.modD = hbook.NewH2D(mapping.ModuleGrid, lo, hi, mapping.ModuleGrid, lo, hi)
	p.modU = hbook.NewH2D(mapping.ModuleGrid, lo, hi, mapping.ModuleGrid, lo, hi)
	p.chanD = hbook.NewH2D(2*mapping.ModuleGrid, lo, hi, 2*mapping.ModuleGrid, lo, hi)
	p.chanU = hbook.NewH2D(2*mapping.ModuleGrid, lo, hi, 2*mapping.ModuleGrid, lo, hi)
	p.n = 0
}

func (p *HeatmapPage) Fill(ev *model.Event, opts *model.Options) {
	begin(p, &p.counter, opts)
	for c := range ev.Channels {
		pc := &ev.Channels[c]
		module, fiber := p.mapper.Pade2Fiber(pc.BoardID, pc.ChannelID)
		if module == 0 {
			continue
		}
		peak := pc.Peak()
		xm, ym := mapping.ModuleXY(module)
		xf, yf := mapping.FiberXY(mapping.FiberID(module, fiber))
		if module < 0 {
			p.modU.Fill(float64(xm), float64(ym), peak)
			p.chanU.Fill(xf, yf, peak)
		} else {
			p.modD.Fill(float64(xm), float64(ym), peak)
			p.chanD.Fill(xf, yf, peak)
		}
	}
}

func (p *HeatmapPage) Toggles(*model.Options) []Toggle { return nil }

func (p *HeatmapPage) Figures(*model.Options) []Figure {
	return []Figure{
		Hist2D{Title: "Modules DownStream RO", XLabel: "x", YLabel: "y", H: p.modD},
		Hist2D{Title: "Modules UpStream RO", XLabel: "x", YLabel: "y", H: p.modU},
		Hist2D{Title: "Channels DownStream RO", XLabel: "x", YLabel: "y", H: p.chanD},
		Hist2D{Title: "Channels UpStream RO", XLabel: "x", YLabel: "y", H: p.chanU},
	}
}
