package navigator

import (
	"context"
	"math"

	"github.com/tbeam/tbview/internal/model"
)

// ScanCutter answers cut queries by reading events from the source, the way
// the viewer works before the event index is available. Amplitudes already
// seen are remembered.
type ScanCutter struct {
	src    model.EventSource
	maxADC []float64
}

var _ model.Cutter = (*ScanCutter)(nil)

// NewScanCutter returns a cutter reading from src.
func NewScanCutter(src model.EventSource) *ScanCutter {
	c := &ScanCutter{src: src, maxADC: make([]float64, src.Entries())}
	for i := range c.maxADC {
		c.maxADC[i] = math.NaN()
	}
	return c
}

func (c *ScanCutter) amplitude(i int) (float64, error) {
	if i < len(c.maxADC) && !math.IsNaN(c.maxADC[i]) {
		return c.maxADC[i], nil
	}
	ev, err := c.src.Read(i)
	if err != nil {
		return 0, err
	}
	v := ev.MaxPadeADC()
	if i < len(c.maxADC) {
		c.maxADC[i] = v
	}
	return v, nil
}

// NextAbove scans forward from start.
func (c *ScanCutter) NextAbove(ctx context.Context, start int, cut float64) (int, bool, error) {
	for i := max(start, 0); i < c.src.Entries(); i++ {
		if err := ctx.Err(); err != nil {
			return 0, false, err
		}
		v, err := c.amplitude(i)
		if err != nil {
			return 0, false, err
		}
		if v >= cut {
			return i, true, nil
		}
	}
	return 0, false, nil
}

// PrevAbove scans backward from start.
func (c *ScanCutter) PrevAbove(ctx context.Context, start int, cut float64) (int, bool, error) {
	for i := min(start, c.src.Entries()-1); i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return 0, false, err
		}
		v, err := c.amplitude(i)
		if err != nil {
			return 0, false, err
		}
		if v >= cut {
			return i, true, nil
		}
	}
	return 0, false, nil
}
