package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/NimbleMarkets/ntcharts/sparkline"
	"github.com/charmbracelet/lipgloss"

	"github.com/tbeam/tbview/internal/display"
)

// maxTraceSeries is the number of waveforms drawn per trace figure.
const maxTraceSeries = 4

// renderFigures lays the figures out on a grid of roughly square shape.
func renderFigures(figs []display.Figure, width, height int) string {
	if len(figs) == 0 || width < 8 || height < 4 {
		return ""
	}
	cols := int(math.Ceil(math.Sqrt(float64(len(figs)))))
	rows := (len(figs) + cols - 1) / cols
	cellW, cellH := width/cols, height/rows

	var lines []string
	for r := range rows {
		var cells []string
		for c := range cols {
			i := r*cols + c
			if i >= len(figs) {
				break
			}
			cells = append(cells, renderCell(figs[i], cellW, cellH))
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// renderCell draws one figure inside a bordered section of width x height.
func renderCell(fig display.Figure, width, height int) string {
	// Border and horizontal padding take 4 columns, border and title 3 rows.
	innerW, innerH := max(width-4, 1), max(height-3, 1)

	var body string
	switch f := fig.(type) {
	case display.Hist1D:
		body = renderHist1D(f, innerW, innerH)
	case display.Hist2D:
		body = renderHeat(f.Grid(), f.LogZ, innerW, innerH)
	case display.Scene:
		body = renderHeat(display.Hist2D{H: f.Project(innerW, innerH)}.Grid(), false, innerW, innerH)
	case display.Traces:
		body = renderTraces(f, innerW, innerH)
	}

	title := chartTitleStyle.Render(truncate(fig.FigureTitle(), innerW))
	return sectionStyle.
		Width(max(width-2, 1)).
		Height(max(height-2, 1)).
		Render(lipgloss.JoinVertical(lipgloss.Left, title, body))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

// rebin sums adjacent bins of ys down to at most n bins.
func rebin(ys []float64, n int) []float64 {
	if n <= 0 || len(ys) <= n {
		return ys
	}
	out := make([]float64, n)
	for i, y := range ys {
		out[i*n/len(ys)] += y
	}
	return out
}

func renderHist1D(h display.Hist1D, width, height int) string {
	_, ys := h.Bins()
	// One column per bar plus one of gap.
	ys = rebin(ys, (width+1)/2)

	var entries float64
	for _, y := range ys {
		entries += y
	}
	chartH := max(height-1, 1)
	bc := barchart.New(width, chartH,
		barchart.WithBarGap(1),
		barchart.WithBarWidth(1),
		barchart.WithNoAxis(),
	)
	style := lipgloss.NewStyle().Foreground(ColorGreen).Background(ColorGreen)
	for _, y := range ys {
		bc.Push(barchart.BarData{
			Values: []barchart.BarValue{{Name: "n", Value: y, Style: style}},
		})
	}
	bc.Draw()

	axis := fmt.Sprintf("%.4g .. %.4g  entries %.0f", h.H.XMin(), h.H.XMax(), entries)
	return lipgloss.JoinVertical(lipgloss.Left, bc.View(), helpStyle.Render(truncate(axis, width)))
}

// renderHeat draws a grid (bottom row first) as colored blocks resampled to
// width x height.
func renderHeat(grid [][]float64, logZ bool, width, height int) string {
	ny := len(grid)
	if ny == 0 || len(grid[0]) == 0 {
		return ""
	}
	nx := len(grid[0])
	tw, th := min(width, nx*2), min(height, ny)
	if tw == 0 || th == 0 {
		return ""
	}

	cells := make([][]float64, th)
	var zmax float64
	for tr := range th {
		cells[tr] = make([]float64, tw)
		r0, r1 := span(tr, th, ny)
		for tc := range tw {
			c0, c1 := span(tc, tw, nx)
			var z float64
			for r := r0; r < r1; r++ {
				for c := c0; c < c1; c++ {
					z += grid[r][c]
				}
			}
			cells[tr][tc] = z
			zmax = max(zmax, z)
		}
	}

	empty := lipgloss.NewStyle().Foreground(ColorGray).Render("·")
	var b strings.Builder
	for tr := th - 1; tr >= 0; tr-- {
		for _, z := range cells[tr] {
			if z <= 0 || zmax <= 0 {
				b.WriteString(empty)
				continue
			}
			level := z / zmax
			if logZ {
				level = math.Log1p(z) / math.Log1p(zmax)
			}
			idx := min(int(level*float64(len(heatRamp))), len(heatRamp)-1)
			b.WriteString(lipgloss.NewStyle().Foreground(heatRamp[idx]).Render("█"))
		}
		if tr > 0 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// span maps target cell i of n onto the source range [lo, hi) of size.
func span(i, n, size int) (lo, hi int) {
	lo = i * size / n
	hi = max((i+1)*size/n, lo+1)
	return lo, min(hi, size)
}

func renderTraces(t display.Traces, width, height int) string {
	series := t.Series
	if len(series) > maxTraceSeries {
		series = series[:maxTraceSeries]
	}
	if len(series) == 0 {
		return helpStyle.Render("no channels")
	}
	rowH := max(height/len(series)-1, 1)

	var parts []string
	for i, s := range series {
		ys := make([]float64, len(s.Y))
		for j, y := range s.Y {
			ys[j] = max(y, 0)
		}
		sl := sparkline.New(width, rowH)
		sl.PushAll(rebinMax(ys, width))
		sl.Draw()
		label := lipgloss.NewStyle().Foreground(traceColor(i)).
			Render(truncate(fmt.Sprintf("%s  peak %.0f", s.Name, s.Peak), width))
		parts = append(parts, label, sl.View())
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// rebinMax keeps the maximum of adjacent samples so peaks survive.
func rebinMax(ys []float64, n int) []float64 {
	if n <= 0 || len(ys) <= n {
		return ys
	}
	out := make([]float64, n)
	for i, y := range ys {
		j := i * n / len(ys)
		out[j] = max(out[j], y)
	}
	return out
}

func traceColor(i int) lipgloss.Color {
	colors := []lipgloss.Color{ColorGreen, ColorOrange, ColorBlue, ColorRed}
	return colors[i%len(colors)]
}
