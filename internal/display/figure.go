package display

import (
	"go-hep.org/x/hep/hbook"
)

// Figure is a drawable produced by a page.
type Figure interface {
	FigureTitle() string
}

// Hist1D is a one dimensional histogram.
type Hist1D struct {
	Title  string
	XLabel string
	YLabel string
	H      *hbook.H1D
}

// Hist2D is a two dimensional histogram drawn as a color map.
type Hist2D struct {
	Title  string
	XLabel string
	YLabel string
	H      *hbook.H2D
	// LogZ draws the color scale logarithmically.
	LogZ bool
}

// Series is one waveform of a trace figure.
type Series struct {
	Name string
	Y    []float64
	Peak float64
}

// Traces is a set of waveforms on a common sample axis.
type Traces struct {
	Title  string
	Series []Series
}

func (h Hist1D) FigureTitle() string { return h.Title }
func (h Hist2D) FigureTitle() string { return h.Title }
func (t Traces) FigureTitle() string { return t.Title }

// Bins returns the bin centers and contents of h.
func (h Hist1D) Bins() (xs, ys []float64) {
	n := h.H.Len()
	width := (h.H.XMax() - h.H.XMin()) / float64(n)
	xs = make([]float64, n)
	ys = make([]float64, n)
	for i := 0; i < n; i++ {
		x, y := h.H.XY(i)
		xs[i] = x + width/2
		ys[i] = y
	}
	return xs, ys
}

// Grid returns the contents of h as rows (bottom row first) of columns.
func (h Hist2D) Grid() [][]float64 {
	g := h.H.GridXYZ()
	nx, ny := g.Dims()
	rows := make([][]float64, ny)
	for r := 0; r < ny; r++ {
		rows[r] = make([]float64, nx)
		for c := 0; c < nx; c++ {
			rows[r][c] = g.Z(c, r)
		}
	}
	return rows
}

// MaxZ returns the largest cell content of h.
func (h Hist2D) MaxZ() float64 {
	var m float64
	for _, row := range h.Grid() {
		for _, z := range row {
			m = max(m, z)
		}
	}
	return m
}
