package display

import (
	"go-hep.org/x/hep/hbook"

	"github.com/tbeam/tbview/internal/model"
)

const (
	fiberSamples = model.NPadeSamples / 2
	fiberADCMax  = 3000
	fiberSNMax   = 1000
)

// FibersPage plots ADC samples and signal-over-noise against channel index.
type FibersPage struct {
	counter
	adc   *hbook.H2D
	sn    *hbook.H2D
	noise *hbook.H1D
}

func NewFibersPage() *FibersPage {
	p := &FibersPage{}
	p.Reset()
	return p
}

func (p *FibersPage) ID() string    { return "Fibers" }
func (p *FibersPage) Title() string { return "ADC Fibers" }

func (p *FibersPage) Reset() {
	p.adc = hbook.NewH2D(model.NPadeChannels, 0, model.NPadeChannels, 60, 0, fiberADCMax)
	p.sn = hbook.NewH2D(model.NPadeChannels, 0, model.NPadeChannels, 25, 0, fiberSNMax)
	p.noise = hbook.NewH1D(model.NPadeChannels, 0, model.NPadeChannels)
	p.n = 0
}

func (p *FibersPage) fillChannel(pc *model.PadeChannel, h RecHit) {
	x := float64(pc.Index) + 0.5
	for s := 0; s < fiberSamples; s++ {
		p.adc.Fill(x, pc.Sample(s), 1)
	}
	if h.Noise > 0 {
		p.sn.Fill(x, min(h.Amplitude/h.Noise, fiberSNMax-1), 1)
	}
	p.noise.Fill(x, h.Noise)
}

func (p *FibersPage) Fill(ev *model.Event, opts *model.Options) {
	begin(p, &p.counter, opts)
	for c := range ev.Channels {
		pc := &ev.Channels[c]
		h := NewRecHit(pc, opts.ZSPSigma)
		if opts.FADCShowRecHits && !h.ZSP {
			p.fillChannel(pc, h)
		}
		if opts.FADCShowAllHits {
			p.fillChannel(pc, h)
		}
	}
}

func (p *FibersPage) Toggles(opts *model.Options) []Toggle {
	return []Toggle{
		{Key: "1", Label: "rec hits", On: opts.FADCShowRecHits,
			Flip: func(o *model.Options) { o.FADCShowRecHits = !o.FADCShowRecHits }},
		{Key: "2", Label: "all hits", On: opts.FADCShowAllHits,
			Flip: func(o *model.Options) { o.FADCShowAllHits = !o.FADCShowAllHits }},
	}
}

func (p *FibersPage) Figures(*model.Options) []Figure {
	return []Figure{
		Hist2D{Title: "ADC Samples Vs. Channel", XLabel: "channel", YLabel: "ADC", H: p.adc, LogZ: true},
		Hist2D{Title: "Signal/Noise Vs. Channel", XLabel: "channel", YLabel: "S/N", H: p.sn},
		Hist1D{Title: "Noise Vs. Channel", XLabel: "channel", YLabel: "noise (ADC)", H: p.noise},
	}
}
