package snapshot

import (
	"math"

	"go-hep.org/x/hep/hbook"
	"go-hep.org/x/hep/hplot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/tbeam/tbview/internal/display"
)

const (
	tileWidth  = 4 * vg.Inch
	tileHeight = 3 * vg.Inch

	sceneBinsU = 120
	sceneBinsV = 60

	// legendSeries caps the legend of a trace figure to its largest pulses.
	legendSeries = 4
)

var heatPalette palette.Palette = moreland.SmoothBlueRed().Palette(255)

// layout returns a near-square grid holding n tiles.
func layout(n int) (rows, cols int) {
	if n <= 0 {
		return 1, 1
	}
	cols = int(math.Ceil(math.Sqrt(float64(n))))
	rows = (n + cols - 1) / cols
	return rows, cols
}

// Render draws figs onto a tiled canvas and returns it with its size.
func Render(figs []display.Figure) (*hplot.TiledPlot, vg.Length, vg.Length) {
	rows, cols := layout(len(figs))
	tp := hplot.NewTiledPlot(draw.Tiles{
		Rows: rows,
		Cols: cols,
		PadX: vg.Millimeter,
		PadY: vg.Millimeter,
	})
	for i := range tp.Plots {
		if i >= len(figs) {
			tp.Plots[i] = nil
			continue
		}
		drawFigure(tp.Plots[i], figs[i])
	}
	return tp, vg.Length(cols) * tileWidth, vg.Length(rows) * tileHeight
}

func drawFigure(p *hplot.Plot, fig display.Figure) {
	p.Title.Text = fig.FigureTitle()
	switch f := fig.(type) {
	case display.Hist1D:
		p.X.Label.Text = f.XLabel
		p.Y.Label.Text = f.YLabel
		p.Add(hplot.NewH1D(f.H))
	case display.Hist2D:
		p.X.Label.Text = f.XLabel
		p.Y.Label.Text = f.YLabel
		drawHeat(p, f.H, f.LogZ)
	case display.Traces:
		p.X.Label.Text = "sample"
		p.Y.Label.Text = "ADC"
		drawTraces(p, f)
	case display.Scene:
		p.X.Label.Text = "z (oblique)"
		p.Y.Label.Text = "y (oblique)"
		drawHeat(p, f.Project(sceneBinsU, sceneBinsV), false)
	}
}

// drawHeat adds h as a color map. Empty histograms only set the axes, a
// flat heat map has no color scale.
func drawHeat(p *hplot.Plot, h *hbook.H2D, logZ bool) {
	if logZ {
		h = logContents(h)
	}
	if (display.Hist2D{H: h}).MaxZ() <= 0 {
		p.X.Min, p.X.Max = h.XMin(), h.XMax()
		p.Y.Min, p.Y.Max = h.YMin(), h.YMax()
		return
	}
	p.Add(hplot.NewH2D(h, heatPalette))
}

// logContents returns a copy of h holding log10(1+z) per cell.
func logContents(h *hbook.H2D) *hbook.H2D {
	g := h.GridXYZ()
	nx, ny := g.Dims()
	out := hbook.NewH2D(nx, h.XMin(), h.XMax(), ny, h.YMin(), h.YMax())
	for c := 0; c < nx; c++ {
		for r := 0; r < ny; r++ {
			if z := g.Z(c, r); z > 0 {
				out.Fill(g.X(c), g.Y(r), math.Log10(1+z))
			}
		}
	}
	return out
}

func drawTraces(p *hplot.Plot, tr display.Traces) {
	for i, s := range tr.Series {
		xys := make(plotter.XYs, len(s.Y))
		for j, y := range s.Y {
			xys[j].X = float64(j)
			xys[j].Y = y
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			continue
		}
		line.Color = plotutil.Color(i)
		p.Add(line)
		if i < legendSeries {
			p.Legend.Add(s.Name, line)
		}
	}
	p.Legend.Top = true
}
