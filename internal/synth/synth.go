// Package synth generates simulated test-beam runs for demos and tests.
package synth

import (
	"math"
	"math/rand/v2"

	"github.com/tbeam/tbview/internal/mapping"
	"github.com/tbeam/tbview/internal/model"
)

// Config controls a generated run.
type Config struct {
	Seed       uint64
	Events     int
	Boards     []int
	Spill      int64
	TableX     float64
	TableY     float64
	BeamEnergy float64
	// Fraction of events with no beam particle (pedestal only).
	EmptyFraction float64
	// Peak amplitude of the hottest channel in a beam event, ADC counts.
	Amplitude float64
	Pedestal  int
	Noise     float64
	WCMean    int
}

// DefaultConfig returns a small 100 GeV run on the default boards.
func DefaultConfig() Config {
	return Config{
		Seed:          1,
		Events:        200,
		Boards:        model.DefaultBoards,
		Spill:         1,
		TableX:        220,
		TableY:        200,
		BeamEnergy:    100,
		EmptyFraction: 0.3,
		Amplitude:     1500,
		Pedestal:      100,
		Noise:         2,
		WCMean:        model.DefaultWCTimeMean,
	}
}

// Run generates cfg.Events events and the spill they belong to.
func Run(cfg Config) ([]*model.Event, []model.Spill) {
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	m := mapping.New(cfg.Boards)

	events := make([]*model.Event, cfg.Events)
	for i := range events {
		events[i] = generate(rng, m, cfg, int64(i+1))
	}
	spills := []model.Spill{{
		Number:     cfg.Spill,
		TableX:     cfg.TableX,
		TableY:     cfg.TableY,
		BeamEnergy: cfg.BeamEnergy,
	}}
	return events, spills
}

func generate(rng *rand.Rand, m *mapping.Mapper, cfg Config, number int64) *model.Event {
	ev := &model.Event{
		Number:    number,
		Timestamp: number * 1000,
		Spill:     cfg.Spill,
		Channels:  make([]model.PadeChannel, len(cfg.Boards)*model.ChannelsPerBoard),
	}

	beam := rng.Float64() >= cfg.EmptyFraction
	// Shower center in mm; the beam spot sits near the calorimeter center.
	cx, cy := rng.NormFloat64()*8, rng.NormFloat64()*8
	scale := cfg.Amplitude * (0.6 + 0.4*rng.Float64())

	for slot, board := range cfg.Boards {
		for ch := 0; ch < model.ChannelsPerBoard; ch++ {
			index := slot*model.ChannelsPerBoard + ch
			pc := &ev.Channels[index]
			pc.BoardID = board
			pc.ChannelID = ch
			pc.Index = index
			pc.Pedestal = cfg.Pedestal

			var amp float64
			if x, y, _, ok := m.IndexXYZ(index); ok && beam {
				r2 := (x-cx)*(x-cx) + (y-cy)*(y-cy)
				amp = scale * math.Exp(-r2/(2*15*15))
			}
			fillWaveform(rng, pc, amp, cfg.Noise)
		}
	}

	if beam {
		ev.WCHits = wireChamberHits(rng, cfg, cx, cy)
	}
	if rng.IntN(4) == 0 {
		// Out-of-time noise hit.
		ev.WCHits = append(ev.WCHits, model.WCHit{
			TDC:     rng.IntN(model.NTDC) + 1,
			Channel: rng.IntN(model.TDCChannels),
			Time:    cfg.WCMean + 200 + rng.IntN(100),
		})
	}
	return ev
}

// fillWaveform writes a pedestal with gaussian noise and, for amp > 0, a
// pulse peaking at sample 40.
func fillWaveform(rng *rand.Rand, pc *model.PadeChannel, amp, noise float64) {
	const peakAt, rise, fall = 40.0, 3.0, 12.0
	for s := range pc.Wform {
		v := float64(pc.Pedestal) + rng.NormFloat64()*noise
		if amp > 0 {
			dt := float64(s) - peakAt
			if dt < 0 {
				v += amp * math.Exp(-dt*dt/(2*rise*rise))
			} else {
				v += amp * math.Exp(-dt/fall)
			}
		}
		pc.Wform[s] = clampADC(v)
	}
}

func clampADC(v float64) uint16 {
	switch {
	case v < 0:
		return 0
	case v > model.MaxADC:
		return model.MaxADC
	}
	return uint16(math.Round(v))
}

// wireChamberHits produces one in-time hit per plane near the shower axis,
// sometimes with a neighbouring wire.
func wireChamberHits(rng *rand.Rand, cfg Config, cx, cy float64) []model.WCHit {
	var hits []model.WCHit
	for chamber := 1; chamber <= mapping.NChambers; chamber++ {
		for plane, pos := range []float64{cx, cy} {
			wire := int(math.Round(pos/mapping.WirePitch + float64(mapping.WiresPerPlane-1)/2))
			wire = max(0, min(mapping.WiresPerPlane-1, wire))
			wires := []int{wire}
			if rng.IntN(3) == 0 && wire+1 < mapping.WiresPerPlane {
				wires = append(wires, wire+1)
			}
			for _, w := range wires {
				tdc := (chamber-1)*4 + plane*2 + w/model.TDCChannels + 1
				hits = append(hits, model.WCHit{
					TDC:     tdc,
					Channel: w % model.TDCChannels,
					Time:    cfg.WCMean + int(math.Round(rng.NormFloat64()*4)),
				})
			}
		}
	}
	return hits
}
