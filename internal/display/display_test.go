package display

import (
	"testing"

	"github.com/tbeam/tbview/internal/calib"
	"github.com/tbeam/tbview/internal/mapping"
	"github.com/tbeam/tbview/internal/model"
)

// makeEvent returns a flat 128-channel event with the given peaks by
// channel index.
func makeEvent(peaks map[int]float64, hits ...model.WCHit) *model.Event {
	ev := &model.Event{Channels: make([]model.PadeChannel, model.NPadeChannels), WCHits: hits}
	for i := range ev.Channels {
		pc := &ev.Channels[i]
		pc.BoardID = model.DefaultBoards[i/model.ChannelsPerBoard]
		pc.ChannelID = i % model.ChannelsPerBoard
		pc.Index = i
		pc.Pedestal = 100
		for s := range pc.Wform {
			pc.Wform[s] = 100
		}
		if p, ok := peaks[i]; ok {
			pc.Wform[40] = uint16(100 + p)
		}
	}
	return ev
}

func sum2D(h Hist2D) float64 {
	var s float64
	for _, row := range h.Grid() {
		for _, z := range row {
			s += z
		}
	}
	return s
}

func TestNewPagesOrder(t *testing.T) {
	t.Parallel()
	pages := NewPages(Deps{})
	want := []string{"Traces", "Heatmap", "Fibers", "WC", "TDC", "3D_"}
	if len(pages) != len(want) {
		t.Fatalf("len(pages) = %d, want %d", len(pages), len(want))
	}
	for i, p := range pages {
		if p.ID() != want[i] {
			t.Errorf("page %d ID = %q, want %q", i, p.ID(), want[i])
		}
	}
}

func TestAccumulate(t *testing.T) {
	t.Parallel()
	p := NewHeatmapPage(mapping.New(model.DefaultBoards))
	opts := model.NewOptions()
	ev := makeEvent(map[int]float64{0: 1000})

	p.Fill(ev, opts)
	p.Fill(ev, opts)
	if p.Filled() != 1 {
		t.Errorf("Filled() without accumulate = %d, want 1", p.Filled())
	}
	if got := sum2D(p.Figures(opts)[0].(Hist2D)); got != 1000 {
		t.Errorf("downstream module sum = %v, want 1000", got)
	}

	opts.Accumulate = true
	p.Fill(ev, opts)
	p.Fill(ev, opts)
	if p.Filled() != 3 {
		t.Errorf("Filled() with accumulate = %d, want 3", p.Filled())
	}
	if got := sum2D(p.Figures(opts)[0].(Hist2D)); got != 3000 {
		t.Errorf("accumulated module sum = %v, want 3000", got)
	}

	p.Reset()
	if p.Filled() != 0 || sum2D(p.Figures(opts)[0].(Hist2D)) != 0 {
		t.Error("Reset did not clear the page")
	}
}

func TestHeatmapUpstreamCell(t *testing.T) {
	t.Parallel()
	p := NewHeatmapPage(mapping.New(model.DefaultBoards))
	opts := model.NewOptions()
	// Index 64 is board 115 channel 0: upstream module 1, grid cell (1, 1).
	p.Fill(makeEvent(map[int]float64{64: 800}), opts)

	figs := p.Figures(opts)
	up := figs[1].(Hist2D).Grid()
	if up[0][0] != 800 {
		t.Errorf("upstream cell (1,1) = %v, want 800", up[0][0])
	}
	if sum2D(figs[0].(Hist2D)) != 0 {
		t.Error("downstream map filled by an upstream channel")
	}
}

func TestRecHitZSP(t *testing.T) {
	t.Parallel()
	ev := makeEvent(map[int]float64{3: 50})
	// Noise of 2 counts on the first samples of channel 3.
	for s := 0; s < model.DefaultNoiseSamples; s += 2 {
		ev.Channels[3].Wform[s] = 102
		ev.Channels[3].Wform[s+1] = 98
	}
	if h := NewRecHit(&ev.Channels[3], 10); h.ZSP || h.Amplitude != 50 || h.Noise != 2 {
		t.Errorf("hit = %+v, want amplitude 50, noise 2, not suppressed", h)
	}
	if h := NewRecHit(&ev.Channels[3], 30); !h.ZSP {
		t.Error("S/N 25 passed a 30 sigma cut")
	}
	if h := NewRecHit(&ev.Channels[0], 1); !h.ZSP {
		t.Error("flat channel not suppressed")
	}
	if hits := RecHits(ev, 1); len(hits) != 1 || hits[0].ChannelIndex != 3 {
		t.Errorf("RecHits = %+v, want channel 3 only", hits)
	}
}

func TestFibersToggles(t *testing.T) {
	t.Parallel()
	p := NewFibersPage()
	opts := model.NewOptions()
	ev := makeEvent(map[int]float64{5: 500})

	opts.FADCShowAllHits, opts.FADCShowRecHits = true, false
	p.Fill(ev, opts)
	all := sum2D(p.Figures(opts)[0].(Hist2D))
	if all != float64(model.NPadeChannels*fiberSamples) {
		t.Errorf("all hits samples = %v, want %d", all, model.NPadeChannels*fiberSamples)
	}

	opts.FADCShowAllHits, opts.FADCShowRecHits = false, true
	p.Fill(ev, opts)
	if got := sum2D(p.Figures(opts)[0].(Hist2D)); got != fiberSamples {
		t.Errorf("rec hit samples = %v, want %d", got, fiberSamples)
	}

	toggles := p.Toggles(opts)
	toggles[1].Flip(opts)
	if !opts.FADCShowAllHits {
		t.Error("all hits toggle did not flip the option")
	}
}

func TestClassifyWCHits(t *testing.T) {
	t.Parallel()
	means := calib.New(100, 20)
	hits := []model.WCHit{
		{TDC: 1, Channel: 10, Time: 100}, // chamber 1 x, wire 10
		{TDC: 1, Channel: 11, Time: 105}, // chamber 1 x, wire 11
		{TDC: 3, Channel: 5, Time: 100},  // chamber 1 y, wire 5
		{TDC: 3, Channel: 40, Time: 100}, // chamber 1 y, wire 40: second cluster
		{TDC: 5, Channel: 0, Time: 400},  // chamber 2 x, out of time
		{TDC: 20, Channel: 0, Time: 100}, // unmapped
	}
	infos := ClassifyWCHits(hits, means)
	if len(infos) != 5 {
		t.Fatalf("len(infos) = %d, want 5", len(infos))
	}
	want := []struct{ inTime, quality bool }{
		{true, true}, {true, true}, {true, false}, {true, false}, {false, false},
	}
	for i, w := range want {
		if infos[i].InTime != w.inTime || infos[i].Quality != w.quality {
			t.Errorf("hit %d: inTime=%v quality=%v, want %v %v", i, infos[i].InTime, infos[i].Quality, w.inTime, w.quality)
		}
	}

	opts := model.NewOptions()
	if got := len(selectWCHits(infos, opts)); got != 2 {
		t.Errorf("selected with both filters = %d, want 2", got)
	}
	opts.WCShowQuality = false
	if got := len(selectWCHits(infos, opts)); got != 4 {
		t.Errorf("selected in-time only = %d, want 4", got)
	}
	opts.WCShowInTime = false
	if got := len(selectWCHits(infos, opts)); got != 5 {
		t.Errorf("selected without filters = %d, want 5", got)
	}
}

func TestWireChamberMap(t *testing.T) {
	t.Parallel()
	p := NewWireChamberPage(calib.New(100, 20))
	opts := model.NewOptions()
	p.Fill(makeEvent(nil,
		model.WCHit{TDC: 1, Channel: 64 - 1, Time: 100},
		model.WCHit{TDC: 3, Channel: 0, Time: 100},
	), opts)

	figs := p.Figures(opts)
	if len(figs) != 3*mapping.NChambers {
		t.Fatalf("len(figs) = %d, want %d", len(figs), 3*mapping.NChambers)
	}
	if got := sum2D(figs[0].(Hist2D)); got != 1 {
		t.Errorf("WC1 map entries = %v, want 1", got)
	}
	if got := sum2D(figs[3].(Hist2D)); got != 0 {
		t.Errorf("WC2 map entries = %v, want 0", got)
	}
}

func TestTDCPage(t *testing.T) {
	t.Parallel()
	p := NewTDCPage()
	opts := model.NewOptions()
	p.Fill(makeEvent(nil, model.WCHit{TDC: 16, Channel: 1, Time: 100}, model.WCHit{TDC: 99, Time: 1}), opts)

	figs := p.Figures(opts)
	if len(figs) != model.NTDC {
		t.Fatalf("len(figs) = %d, want %d", len(figs), model.NTDC)
	}
	_, ys := figs[15].(Hist1D).Bins()
	var n float64
	for _, y := range ys {
		n += y
	}
	if n != 1 {
		t.Errorf("TDC 16 entries = %v, want 1", n)
	}
}

func TestTracesBoardToggle(t *testing.T) {
	t.Parallel()
	p := NewTracesPage()
	opts := model.NewOptions()
	opts.BoardNumbers = model.DefaultBoards
	p.Fill(makeEvent(map[int]float64{33: 700}), opts)

	figs := p.Figures(opts)
	if len(figs) != 4 {
		t.Fatalf("len(figs) = %d, want 4", len(figs))
	}
	tr := figs[1].(Traces)
	if tr.Series[0].Name != "ch 1" || tr.Series[0].Peak != 700 {
		t.Errorf("top series of board 113 = %s peak %v, want ch 1 peak 700", tr.Series[0].Name, tr.Series[0].Peak)
	}

	p.Toggles(opts)[1].Flip(opts)
	if got := len(p.Figures(opts)); got != 3 {
		t.Errorf("figures after hiding board 113 = %d, want 3", got)
	}
}

func TestScenePage(t *testing.T) {
	t.Parallel()
	p := NewScenePage(mapping.New(model.DefaultBoards), calib.New(100, 20))
	opts := model.NewOptions()
	ev := makeEvent(map[int]float64{0: 900, 1: 400, 31: 300},
		model.WCHit{TDC: 1, Channel: 0, Time: 100},
		model.WCHit{TDC: 3, Channel: 0, Time: 100},
	)

	p.Fill(ev, opts)
	scene := p.Figures(opts)[0].(Scene)
	var calo, wc int
	for _, pt := range scene.Points {
		if pt.Kind == CaloPoint {
			calo++
		} else {
			wc++
		}
	}
	if calo != 3 || wc != 1 {
		t.Errorf("points calo=%d wc=%d, want 3 and 1", calo, wc)
	}

	opts.Show3DWC1 = false
	opts.IsolateClusters = true
	p.Fill(ev, opts)
	scene = p.Figures(opts)[0].(Scene)
	if len(scene.Points) != 2 {
		t.Errorf("points with WC1 hidden and cluster isolation = %d, want 2", len(scene.Points))
	}

	h := Hist2D{H: scene.Project(20, 10)}
	if got := sum2D(h); got != 1300 {
		t.Errorf("projected weight = %v, want 1300", got)
	}
}

func TestLargestCluster(t *testing.T) {
	t.Parallel()
	pts := []Point3D{
		{X: 0, Y: 0, Z: 150, W: 10},
		{X: 7, Y: 0, Z: 150, W: 10},
		{X: 7, Y: 7, Z: 150, W: 10},
		{X: 35, Y: 35, Z: 150, W: 25},
		{X: 0, Y: 0, Z: -150, W: 5},
	}
	got := LargestCluster(pts, clusterRadius)
	if len(got) != 3 {
		t.Errorf("len(cluster) = %d, want 3", len(got))
	}
	if LargestCluster(nil, 1) != nil {
		t.Error("LargestCluster(nil) != nil")
	}
}
