package display

import (
	"slices"

	"github.com/tbeam/tbview/internal/calib"
	"github.com/tbeam/tbview/internal/mapping"
	"github.com/tbeam/tbview/internal/model"
)

// maxQualityCluster is the widest wire cluster still counted as a clean
// single-particle hit.
const maxQualityCluster = 3

// WCHitInfo is a wire-chamber hit located on its chamber plane.
type WCHitInfo struct {
	model.WCHit
	Chamber int
	Plane   mapping.Plane
	Wire    int
	InTime  bool
	// Quality marks in-time hits forming the only, narrow cluster of their plane.
	Quality bool
}

type planeKey struct {
	chamber int
	plane   mapping.Plane
}

// ClassifyWCHits locates hits and flags in-time and quality hits. Hits on
// unmapped TDC channels are dropped.
func ClassifyWCHits(hits []model.WCHit, means *calib.Means) []WCHitInfo {
	out := make([]WCHitInfo, 0, len(hits))
	wires := make(map[planeKey][]int)
	for _, h := range hits {
		chamber, plane, wire, ok := mapping.WCWire(h.TDC, h.Channel)
		if !ok {
			continue
		}
		info := WCHitInfo{
			WCHit:   h,
			Chamber: chamber,
			Plane:   plane,
			Wire:    wire,
			InTime:  means.InTime(h.TDC, h.Channel, h.Time),
		}
		if info.InTime {
			k := planeKey{chamber, plane}
			wires[k] = append(wires[k], wire)
		}
		out = append(out, info)
	}

	clean := make(map[planeKey]bool, len(wires))
	for k, ws := range wires {
		slices.Sort(ws)
		ws = slices.Compact(ws)
		clean[k] = ws[len(ws)-1]-ws[0] == len(ws)-1 && len(ws) <= maxQualityCluster
	}
	for i := range out {
		if out[i].InTime && clean[planeKey{out[i].Chamber, out[i].Plane}] {
			out[i].Quality = true
		}
	}
	return out
}

// selectWCHits applies the in-time and quality filters of opts.
func selectWCHits(infos []WCHitInfo, opts *model.Options) []WCHitInfo {
	out := infos[:0:0]
	for _, h := range infos {
		if opts.WCShowInTime && !h.InTime {
			continue
		}
		if opts.WCShowQuality && !h.Quality {
			continue
		}
		out = append(out, h)
	}
	return out
}
