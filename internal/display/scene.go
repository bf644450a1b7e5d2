package display

import (
	"math"

	"go-hep.org/x/hep/hbook"

	"github.com/tbeam/tbview/internal/calib"
	"github.com/tbeam/tbview/internal/mapping"
	"github.com/tbeam/tbview/internal/model"
)

// PointKind tells calorimeter hits from wire-chamber hits.
type PointKind int

const (
	CaloPoint PointKind = iota
	WCPoint
)

// Point3D is a weighted hit position in mm.
type Point3D struct {
	X, Y, Z float64
	W       float64
	Kind    PointKind
}

// Scene is a 3D hit display.
type Scene struct {
	Title  string
	Points []Point3D
}

func (s Scene) FigureTitle() string { return s.Title }

// Oblique projection of the beam line: z runs left to right, compressed so
// the chambers and the calorimeter share the view; x leans up and right.
const (
	sceneZScale = 0.1
	sceneShear  = 0.5
)

func project(pt Point3D) (u, v float64) {
	return pt.Z*sceneZScale + sceneShear*pt.X, pt.Y + sceneShear*0.5*pt.X
}

// Project rasterizes the scene onto an nx by ny histogram of the oblique
// view, weighting each point by W.
func (s Scene) Project(nx, ny int) *hbook.H2D {
	umin, umax := math.Inf(1), math.Inf(-1)
	vmin, vmax := math.Inf(1), math.Inf(-1)
	for _, pt := range s.Points {
		u, v := project(pt)
		umin, umax = min(umin, u), max(umax, u)
		vmin, vmax = min(vmin, v), max(vmax, v)
	}
	if len(s.Points) == 0 {
		umin, umax, vmin, vmax = -1, 1, -1, 1
	}
	// Pad so points on the edge stay inside the last bin.
	du, dv := max(umax-umin, 1)*0.05, max(vmax-vmin, 1)*0.05
	h := hbook.NewH2D(nx, umin-du, umax+du, ny, vmin-dv, vmax+dv)
	for _, pt := range s.Points {
		u, v := project(pt)
		h.Fill(u, v, pt.W)
	}
	return h
}

// ScenePage shows calorimeter rec hits and wire-chamber hits in 3D.
type ScenePage struct {
	counter
	mapper *mapping.Mapper
	means  *calib.Means
	points []Point3D
}

func NewScenePage(m *mapping.Mapper, means *calib.Means) *ScenePage {
	p := &ScenePage{mapper: m, means: means}
	p.Reset()
	return p
}

func (p *ScenePage) ID() string    { return "3D_" }
func (p *ScenePage) Title() string { return "3D Display" }

func (p *ScenePage) Reset() {
	p.points = nil
	p.n = 0
}

func (p *ScenePage) Fill(ev *model.Event, opts *model.Options) {
	begin(p, &p.counter, opts)

	var calo []Point3D
	for _, h := range RecHits(ev, opts.ZSPSigma) {
		x, y, z, ok := p.mapper.IndexXYZ(h.ChannelIndex)
		if !ok {
			continue
		}
		calo = append(calo, Point3D{X: x, Y: y, Z: z, W: h.Amplitude, Kind: CaloPoint})
	}
	if opts.IsolateClusters {
		calo = LargestCluster(calo, clusterRadius)
	}
	p.points = append(p.points, calo...)

	var xs, ys [mapping.NChambers][]float64
	for _, h := range ClassifyWCHits(ev.WCHits, p.means) {
		if !h.InTime || !p.showChamber(h.Chamber, opts) {
			continue
		}
		pos := mapping.WirePosition(h.Wire)
		if h.Plane == mapping.PlaneX {
			xs[h.Chamber-1] = append(xs[h.Chamber-1], pos)
		} else {
			ys[h.Chamber-1] = append(ys[h.Chamber-1], pos)
		}
	}
	for c := range xs {
		z := mapping.ChamberZ(c + 1)
		for _, x := range xs[c] {
			for _, y := range ys[c] {
				p.points = append(p.points, Point3D{X: x, Y: y, Z: z, W: 1, Kind: WCPoint})
			}
		}
	}
}

// showChamber reports whether hits of chamber are drawn. Only the first two
// chambers are switchable; the downstream pair is always shown.
func (p *ScenePage) showChamber(chamber int, opts *model.Options) bool {
	switch chamber {
	case 1:
		return opts.Show3DWC1
	case 2:
		return opts.Show3DWC2
	}
	return true
}

func (p *ScenePage) Toggles(opts *model.Options) []Toggle {
	return []Toggle{
		{Key: "1", Label: "WC1", On: opts.Show3DWC1,
			Flip: func(o *model.Options) { o.Show3DWC1 = !o.Show3DWC1 }},
		{Key: "2", Label: "WC2", On: opts.Show3DWC2,
			Flip: func(o *model.Options) { o.Show3DWC2 = !o.Show3DWC2 }},
		{Key: "3", Label: "isolate cluster", On: opts.IsolateClusters,
			Flip: func(o *model.Options) { o.IsolateClusters = !o.IsolateClusters }},
	}
}

func (p *ScenePage) Figures(*model.Options) []Figure {
	return []Figure{Scene{Title: "3D Display", Points: append([]Point3D(nil), p.points...)}}
}

// clusterRadius joins fibers on neighbouring grid positions, diagonals
// included.
var clusterRadius = mapping.ModulePitch / 2 * math.Sqrt2 * 1.01

// LargestCluster returns the connected group of points (same readout end,
// transverse distance within radius) with the largest summed weight.
func LargestCluster(pts []Point3D, radius float64) []Point3D {
	if len(pts) == 0 {
		return nil
	}
	label := make([]int, len(pts))
	for i := range label {
		label[i] = -1
	}
	var best []int
	bestW := -1.0
	next := 0
	for seed := range pts {
		if label[seed] >= 0 {
			continue
		}
		label[seed] = next
		members := []int{seed}
		for q := 0; q < len(members); q++ {
			a := pts[members[q]]
			for j := range pts {
				if label[j] >= 0 || pts[j].Z != a.Z {
					continue
				}
				if math.Hypot(pts[j].X-a.X, pts[j].Y-a.Y) <= radius {
					label[j] = next
					members = append(members, j)
				}
			}
		}
		var w float64
		for _, m := range members {
			w += pts[m].W
		}
		if w > bestW {
			best, bestW = members, w
		}
		next++
	}
	out := make([]Point3D, 0, len(best))
	for _, m := range best {
		out = append(out, pts[m])
	}
	return out
}
