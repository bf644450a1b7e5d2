package navigator

import (
	"context"
	"errors"
	"testing"

	"github.com/tbeam/tbview/internal/model"
)

// fakeSource serves events whose max ADC equals amps[i].
type fakeSource struct {
	amps  []float64
	reads int
	fail  map[int]bool
}

func (f *fakeSource) Entries() int { return len(f.amps) }

func (f *fakeSource) Read(i int) (*model.Event, error) {
	if i < 0 || i >= len(f.amps) {
		return nil, errors.New("out of range")
	}
	if f.fail[i] {
		return nil, errors.New("broken event")
	}
	f.reads++
	ev := &model.Event{Number: int64(i), Channels: make([]model.PadeChannel, 1)}
	ch := &ev.Channels[0]
	ch.Pedestal = 100
	for s := range ch.Wform {
		ch.Wform[s] = 100
	}
	ch.Wform[10] = uint16(100 + f.amps[i])
	return ev, nil
}

func (f *fakeSource) Info() model.RunInfo { return model.RunInfo{Entries: len(f.amps)} }
func (f *fakeSource) Close() error        { return nil }

func newNav(amps ...float64) (*Navigator, *fakeSource) {
	src := &fakeSource{amps: amps}
	return New(src, nil), src
}

func mustNext(t *testing.T, n *Navigator) int {
	t.Helper()
	if _, err := n.Next(context.Background()); err != nil {
		t.Fatalf("Next: %v", err)
	}
	return n.Current()
}

func mustPrev(t *testing.T, n *Navigator) int {
	t.Helper()
	if _, err := n.Prev(context.Background()); err != nil {
		t.Fatalf("Prev: %v", err)
	}
	return n.Current()
}

func TestNextAppliesCut(t *testing.T) {
	t.Parallel()
	n, _ := newNav(0, 600, 10, 10, 900, 10)

	if got := mustNext(t, n); got != 1 {
		t.Errorf("first Next = %d, want 1", got)
	}
	if got := mustNext(t, n); got != 4 {
		t.Errorf("second Next = %d, want 4", got)
	}
	// Nothing passes after 4: land on the last event.
	if got := mustNext(t, n); got != 5 {
		t.Errorf("third Next = %d, want 5", got)
	}
	// From the last event forward wraps to the start.
	if got := mustNext(t, n); got != 1 {
		t.Errorf("wrapped Next = %d, want 1", got)
	}
}

func TestNextWrapsToZero(t *testing.T) {
	t.Parallel()
	n, _ := newNav(1000, 1000, 1000)
	n.SetCut(0)
	if _, err := n.Goto(2); err != nil {
		t.Fatal(err)
	}
	if got := mustNext(t, n); got != 0 {
		t.Errorf("Next from last = %d, want 0", got)
	}
}

func TestPrevWrapsToLast(t *testing.T) {
	t.Parallel()
	n, _ := newNav(1000, 1000, 1000, 1000)
	if got := mustPrev(t, n); got != 3 {
		t.Errorf("Prev before any read = %d, want 3", got)
	}
	if _, err := n.Goto(0); err != nil {
		t.Fatal(err)
	}
	if got := mustPrev(t, n); got != 3 {
		t.Errorf("Prev from 0 = %d, want 3", got)
	}
	if got := mustPrev(t, n); got != 2 {
		t.Errorf("Prev from 3 = %d, want 2", got)
	}
}

func TestPrevWithNothingPassingLandsOnFirst(t *testing.T) {
	t.Parallel()
	n, _ := newNav(10, 10, 10, 10)
	if _, err := n.Goto(3); err != nil {
		t.Fatal(err)
	}
	if got := mustPrev(t, n); got != 0 {
		t.Errorf("Prev = %d, want 0", got)
	}
}

func TestGotoClampsWithoutCut(t *testing.T) {
	t.Parallel()
	n, _ := newNav(0, 0, 0)
	tests := []struct{ in, want int }{{-5, 0}, {1, 1}, {99, 2}}
	for _, tt := range tests {
		if _, err := n.Goto(tt.in); err != nil {
			t.Fatalf("Goto(%d): %v", tt.in, err)
		}
		if got := n.Current(); got != tt.want {
			t.Errorf("Goto(%d) -> %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestPreviousIndexCached(t *testing.T) {
	t.Parallel()
	n, _ := newNav(1000, 1000, 1000)
	mustNext(t, n)
	mustNext(t, n)
	if got := n.PreviousIndex(); got != 0 {
		t.Errorf("PreviousIndex = %d, want 0", got)
	}
}

func TestIndexAlwaysInRange(t *testing.T) {
	t.Parallel()
	amps := []float64{0, 800, 0, 0, 700, 0, 0}
	n, _ := newNav(amps...)
	for step := 0; step < 50; step++ {
		var idx int
		if step%3 == 0 {
			idx = mustPrev(t, n)
		} else {
			idx = mustNext(t, n)
		}
		if idx < 0 || idx >= len(amps) {
			t.Fatalf("step %d: index %d out of [0, %d)", step, idx, len(amps))
		}
	}
}

func TestEmptySource(t *testing.T) {
	t.Parallel()
	n, _ := newNav()
	if _, err := n.Next(context.Background()); !errors.Is(err, ErrNoEvents) {
		t.Errorf("Next on empty source error = %v, want ErrNoEvents", err)
	}
	if _, err := n.Prev(context.Background()); !errors.Is(err, ErrNoEvents) {
		t.Errorf("Prev on empty source error = %v, want ErrNoEvents", err)
	}
	if _, err := n.Goto(0); !errors.Is(err, ErrNoEvents) {
		t.Errorf("Goto on empty source error = %v, want ErrNoEvents", err)
	}
}

func TestReadErrorKeepsPosition(t *testing.T) {
	t.Parallel()
	src := &fakeSource{amps: []float64{1000, 1000, 1000}, fail: map[int]bool{2: true}}
	n := New(src, nil)
	if _, err := n.Goto(1); err != nil {
		t.Fatal(err)
	}
	if _, err := n.Goto(2); err == nil {
		t.Fatal("Goto(2) succeeded, want read error")
	}
	if got := n.Current(); got != 1 {
		t.Errorf("Current after failed read = %d, want 1", got)
	}
}

func TestSetSourceClampsCurrent(t *testing.T) {
	t.Parallel()
	n, _ := newNav(0, 0, 0, 0, 0)
	if _, err := n.Goto(4); err != nil {
		t.Fatal(err)
	}
	n.SetSource(&fakeSource{amps: []float64{0, 0}}, nil)
	if got := n.Current(); got != 1 {
		t.Errorf("Current after shrink = %d, want 1", got)
	}
	n.SetSource(&fakeSource{amps: make([]float64, 10)}, nil)
	if got := n.Current(); got != 1 {
		t.Errorf("Current after grow = %d, want 1", got)
	}
}

func TestScanCutterCachesAmplitudes(t *testing.T) {
	t.Parallel()
	src := &fakeSource{amps: []float64{0, 0, 900}}
	c := NewScanCutter(src)
	ctx := context.Background()

	idx, found, err := c.NextAbove(ctx, 0, 500)
	if err != nil || !found || idx != 2 {
		t.Fatalf("NextAbove = (%d, %v, %v), want (2, true, nil)", idx, found, err)
	}
	reads := src.reads
	idx, found, err = c.PrevAbove(ctx, 2, 500)
	if err != nil || !found || idx != 2 {
		t.Fatalf("PrevAbove = (%d, %v, %v), want (2, true, nil)", idx, found, err)
	}
	if src.reads != reads {
		t.Errorf("PrevAbove re-read events: reads %d -> %d", reads, src.reads)
	}

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	if _, _, err := c.NextAbove(cctx, 0, 500); !errors.Is(err, context.Canceled) {
		t.Errorf("NextAbove with cancelled context error = %v, want context.Canceled", err)
	}
}
