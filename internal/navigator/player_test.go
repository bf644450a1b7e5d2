package navigator

import (
	"slices"
	"testing"
	"time"
)

func TestPlayerDelayClamped(t *testing.T) {
	t.Parallel()
	p := NewPlayer(100*time.Millisecond, time.Second)
	if got := p.Delay(); got != time.Second {
		t.Errorf("Delay() = %v, want 1s", got)
	}
	if got := p.SetDelay(3 * time.Second); got != 3*time.Second {
		t.Errorf("SetDelay(3s) = %v, want 3s", got)
	}
	if got := p.SetDelay(0); got != time.Second {
		t.Errorf("SetDelay(0) = %v, want 1s", got)
	}
}

func TestPlayerCycleInterval(t *testing.T) {
	t.Parallel()
	p := NewPlayer(2*time.Second, time.Second)
	p.StartCycle()
	if !p.Cycling() {
		t.Fatal("Cycling() = false after StartCycle")
	}
	if got := p.Interval(); got != 10*time.Second {
		t.Errorf("Interval() = %v, want 10s", got)
	}
	p.Start(Reverse)
	if p.Cycling() || p.Direction() != Reverse {
		t.Errorf("after Start(Reverse): cycling=%v dir=%v", p.Cycling(), p.Direction())
	}
	if got := p.Interval(); got != 2*time.Second {
		t.Errorf("Interval() = %v, want 2s", got)
	}
}

func TestPlayerStaleTickIgnored(t *testing.T) {
	t.Parallel()
	p := NewPlayer(time.Second, time.Second)
	gen := p.Start(Forward)
	p.Stop()
	if got := p.BeginTick(gen); got != TickStale {
		t.Fatalf("BeginTick of a tick scheduled before Stop = %v, want TickStale", got)
	}

	old := p.Start(Forward)
	current := p.Start(Reverse)
	if got := p.BeginTick(old); got != TickStale {
		t.Fatalf("BeginTick of a superseded generation = %v, want TickStale", got)
	}
	if got := p.BeginTick(current); got != TickReady {
		t.Fatalf("BeginTick of the current generation = %v, want TickReady", got)
	}
	p.EndTick(current, false)
}

func TestPlayerRejectsOverlappingTicks(t *testing.T) {
	t.Parallel()
	p := NewPlayer(time.Second, time.Second)
	gen := p.Start(Forward)

	if got := p.BeginTick(gen); got != TickReady {
		t.Fatalf("first BeginTick = %v, want TickReady", got)
	}
	if got := p.BeginTick(gen); got != TickBusy {
		t.Fatalf("second BeginTick while the first is in flight = %v, want TickBusy", got)
	}
	if !p.EndTick(gen, false) {
		t.Fatal("EndTick(false) = false, want reschedule")
	}
	if got := p.BeginTick(gen); got != TickReady {
		t.Fatalf("BeginTick after EndTick = %v, want TickReady", got)
	}
	p.EndTick(gen, false)
}

func TestPlayerRestartWhileStepInFlight(t *testing.T) {
	t.Parallel()
	p := NewPlayer(time.Second, time.Second)
	old := p.Start(Forward)
	if got := p.BeginTick(old); got != TickReady {
		t.Fatalf("BeginTick = %v, want TickReady", got)
	}

	p.Stop()
	current := p.Start(Forward)
	if got := p.BeginTick(current); got != TickBusy {
		t.Fatalf("BeginTick of the new generation while the old step runs = %v, want TickBusy", got)
	}

	// The old step lands on a boundary; it must not stop the new run.
	if p.EndTick(old, true) {
		t.Error("EndTick of the old generation asked for another tick")
	}
	if !p.Running() {
		t.Fatal("old step stopped the restarted player")
	}
	if got := p.BeginTick(current); got != TickReady {
		t.Fatalf("BeginTick after the old step ended = %v, want TickReady", got)
	}
	if !p.EndTick(current, false) {
		t.Error("EndTick of the current generation = false, want reschedule")
	}
}

func TestPlayerStopsAtBoundary(t *testing.T) {
	t.Parallel()
	p := NewPlayer(time.Second, time.Second)
	gen := p.Start(Forward)
	if p.BeginTick(gen) != TickReady {
		t.Fatal("BeginTick rejected")
	}
	if p.EndTick(gen, true) {
		t.Error("EndTick(true) asked for another tick")
	}
	if p.Running() {
		t.Error("player still running after reaching a boundary")
	}
}

func TestPlayerWithNavigatorRunsToEnd(t *testing.T) {
	t.Parallel()
	n, _ := newNav(0, 600, 0, 700, 0, 800)
	p := NewPlayer(time.Second, time.Second)
	gen := p.Start(Forward)

	var visited []int
	for steps := 0; steps < 10; steps++ {
		if p.BeginTick(gen) != TickReady {
			break
		}
		idx := mustNext(t, n)
		visited = append(visited, idx)
		if !p.EndTick(gen, n.AtBoundary()) {
			break
		}
	}
	want := []int{1, 3, 5}
	if !slices.Equal(visited, want) {
		t.Errorf("visited = %v, want %v", visited, want)
	}
	if p.Running() {
		t.Error("player running after reaching the last event")
	}
}
