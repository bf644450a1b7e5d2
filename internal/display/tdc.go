package display

import (
	"fmt"

	"go-hep.org/x/hep/hbook"

	"github.com/tbeam/tbview/internal/model"
)

const (
	tdcBins    = 64
	tdcTimeMax = 512
)

// TDCPage histograms hit times per TDC module.
type TDCPage struct {
	counter
	hists [model.NTDC]*hbook.H1D
}

func NewTDCPage() *TDCPage {
	p := &TDCPage{}
	p.Reset()
	return p
}

func (p *TDCPage) ID() string    { return "TDC" }
func (p *TDCPage) Title() string { return "TDC Timing" }

func (p *TDCPage) Reset() {
	for i := range p.hists {
		p.hists[i] = hbook.NewH1D(tdcBins, 0, tdcTimeMax)
	}
	p.n = 0
}

func (p *TDCPage) Fill(ev *model.Event, opts *model.Options) {
	begin(p, &p.counter, opts)
	for _, h := range ev.WCHits {
		if h.TDC < 1 || h.TDC > model.NTDC {
			continue
		}
		p.hists[h.TDC-1].Fill(float64(h.Time), 1)
	}
}

func (p *TDCPage) Toggles(*model.Options) []Toggle { return nil }

func (p *TDCPage) Figures(*model.Options) []Figure {
	figs := make([]Figure, 0, model.NTDC)
	for i, h := range p.hists {
		figs = append(figs, Hist1D{
			Title:  fmt.Sprintf("TDC %d", i+1),
			XLabel: "time (counts)",
			YLabel: "hits",
			H:      h,
		})
	}
	return figs
}
