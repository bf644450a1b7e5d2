package display

import (
	"fmt"

	"go-hep.org/x/hep/hbook"

	"github.com/tbeam/tbview/internal/calib"
	"github.com/tbeam/tbview/internal/mapping"
	"github.com/tbeam/tbview/internal/model"
)

const wcMapBins = 32

// WireChamberPage shows, per chamber, the x/y hit map and the wire profile
// of each plane.
type WireChamberPage struct {
	counter
	means *calib.Means

	maps     [mapping.NChambers]*hbook.H2D
	profiles [mapping.NChambers][2]*hbook.H1D
}

func NewWireChamberPage(means *calib.Means) *WireChamberPage {
	p := &WireChamberPage{means: means}
	p.Reset()
	return p
}

func (p *WireChamberPage) ID() string    { return "WC" }
func (p *WireChamberPage) Title() string { return "Wire Chambers" }

func (p *WireChamberPage) Reset() {
	half := float64(mapping.WiresPerPlane) * mapping.WirePitch / 2
	for c := range p.maps {
		p.maps[c] = hbook.NewH2D(wcMapBins, -half, half, wcMapBins, -half, half)
		for plane := range p.profiles[c] {
			p.profiles[c][plane] = hbook.NewH1D(mapping.WiresPerPlane, 0, mapping.WiresPerPlane)
		}
	}
	p.n = 0
}

func (p *WireChamberPage) Fill(ev *model.Event, opts *model.Options) {
	begin(p, &p.counter, opts)
	hits := selectWCHits(ClassifyWCHits(ev.WCHits, p.means), opts)

	var xs, ys [mapping.NChambers][]float64
	for _, h := range hits {
		c := h.Chamber - 1
		p.profiles[c][h.Plane].Fill(float64(h.Wire)+0.5, 1)
		pos := mapping.WirePosition(h.Wire)
		if h.Plane == mapping.PlaneX {
			xs[c] = append(xs[c], pos)
		} else {
			ys[c] = append(ys[c], pos)
		}
	}
	for c := range p.maps {
		for _, x := range xs[c] {
			for _, y := range ys[c] {
				p.maps[c].Fill(x, y, 1)
			}
		}
	}
}

func (p *WireChamberPage) Toggles(opts *model.Options) []Toggle {
	return []Toggle{
		{Key: "1", Label: "in-time hits", On: opts.WCShowInTime,
			Flip: func(o *model.Options) { o.WCShowInTime = !o.WCShowInTime }},
		{Key: "2", Label: "quality hits", On: opts.WCShowQuality,
			Flip: func(o *model.Options) { o.WCShowQuality = !o.WCShowQuality }},
	}
}

func (p *WireChamberPage) Figures(*model.Options) []Figure {
	figs := make([]Figure, 0, 3*mapping.NChambers)
	for c := range p.maps {
		figs = append(figs, Hist2D{
			Title:  fmt.Sprintf("WC%d y vs x", c+1),
			XLabel: "x (mm)",
			YLabel: "y (mm)",
			H:      p.maps[c],
		})
		for plane, h := range p.profiles[c] {
			figs = append(figs, Hist1D{
				Title:  fmt.Sprintf("WC%d %s wires", c+1, mapping.Plane(plane)),
				XLabel: "wire",
				YLabel: "hits",
				H:      h,
			})
		}
	}
	return figs
}
