package display

import (
	"github.com/tbeam/tbview/internal/model"
)

// RecHit is the zero-suppression summary of one channel. No pulse fit is
// performed; the amplitude is the pedestal-subtracted maximum.
type RecHit struct {
	ChannelIndex int
	MaxADC       float64
	Pedestal     float64
	Noise        float64
	Amplitude    float64
	// ZSP is set when the channel is suppressed.
	ZSP bool
}

// NewRecHit builds the hit of pc. The channel is suppressed when its
// amplitude is below zsp noise sigmas.
func NewRecHit(pc *model.PadeChannel, zsp float64) RecHit {
	h := RecHit{
		ChannelIndex: pc.Index,
		MaxADC:       float64(pc.Max()),
		Pedestal:     float64(pc.Pedestal),
		Noise:        pc.Noise(model.DefaultNoiseSamples),
	}
	h.Amplitude = h.MaxADC - h.Pedestal
	if h.Noise > 0 {
		h.ZSP = h.Amplitude/h.Noise < zsp
	} else {
		h.ZSP = h.Amplitude <= 0
	}
	return h
}

// RecHits returns the hits of ev passing zero suppression.
func RecHits(ev *model.Event, zsp float64) []RecHit {
	var hits []RecHit
	for c := range ev.Channels {
		if h := NewRecHit(&ev.Channels[c], zsp); !h.ZSP {
			hits = append(hits, h)
		}
	}
	return hits
}
