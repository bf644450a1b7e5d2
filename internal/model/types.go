package model

import "math"

// Readout geometry of the test-beam PADE digitizers and wire-chamber TDCs.
const (
	NPadeSamples     = 120 // samples per waveform
	NPadeChannels    = 128 // channels per event (4 boards x 32)
	ChannelsPerBoard = 32
	NTDC             = 16 // wire-chamber TDC modules
	TDCChannels      = 64 // wires read out per TDC module
	MaxADC           = 4095
)

// PadeChannel is one digitized detector-channel waveform.
type PadeChannel struct {
	BoardID   int
	ChannelID int // channel within the board
	Index     int // global channel index
	Pedestal  int
	Wform     [NPadeSamples]uint16
}

// Max returns the largest raw sample.
func (p *PadeChannel) Max() uint16 {
	var m uint16
	for _, s := range p.Wform {
		if s > m {
			m = s
		}
	}
	return m
}

// Peak returns the largest pedestal-subtracted sample, never below zero.
func (p *PadeChannel) Peak() float64 {
	peak := float64(p.Max()) - float64(p.Pedestal)
	if peak < 0 {
		return 0
	}
	return peak
}

// Sample returns sample i with the pedestal removed.
func (p *PadeChannel) Sample(i int) float64 {
	return float64(p.Wform[i]) - float64(p.Pedestal)
}

// Noise returns the RMS of the first n samples about the pedestal.
func (p *PadeChannel) Noise(n int) float64 {
	if n <= 0 {
		return 0
	}
	if n > NPadeSamples {
		n = NPadeSamples
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := p.Sample(i)
		sum += d * d
	}
	return math.Sqrt(sum / float64(n))
}

// WCHit is one wire-chamber TDC hit.
type WCHit struct {
	TDC     int // 1..NTDC
	Channel int // 0..TDCChannels-1
	Time    int // TDC counts
}

// Event is one recorded detector readout. It is read-only once fetched.
type Event struct {
	Number    int64
	Timestamp int64
	Spill     int64
	Channels  []PadeChannel
	WCHits    []WCHit
}

// MaxPadeADC returns the largest pedestal-subtracted sample over all channels.
func (e *Event) MaxPadeADC() float64 {
	var ymax float64
	for i := range e.Channels {
		ch := &e.Channels[i]
		for j := range ch.Wform {
			if y := ch.Sample(j); y > ymax {
				ymax = y
			}
		}
	}
	return ymax
}

// SumPeakADC returns the sum of channel peaks.
func (e *Event) SumPeakADC() float64 {
	var sum float64
	for i := range e.Channels {
		sum += e.Channels[i].Peak()
	}
	return sum
}

// Spill holds per-spill beam conditions.
type Spill struct {
	Number     int64
	TableX     float64
	TableY     float64
	BeamEnergy float64
}

// RunInfo summarizes an opened readout file.
type RunInfo struct {
	Path     string
	Entries  int
	Spill    Spill
	BoardIDs []int
}
