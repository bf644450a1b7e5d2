package navigator

import (
	"sync"
	"time"

	"github.com/tbeam/tbview/internal/model"
)

// Direction is the stepping direction of the player.
type Direction int

const (
	Forward Direction = iota
	Reverse
)

func (d Direction) String() string {
	if d == Reverse {
		return "rewind"
	}
	return "forward"
}

// TickState is the answer of BeginTick.
type TickState int

const (
	// TickStale marks a tick of a stopped player or an older generation.
	TickStale TickState = iota
	// TickBusy marks a tick arriving while another step is in flight; it
	// should be tried again later.
	TickBusy
	// TickReady admits the tick. It must be paired with EndTick.
	TickReady
)

// Player drives automatic stepping. Each Start returns a generation; ticks
// carrying an older generation are ignored, so a Stop invalidates ticks
// already scheduled. Only one step is in flight at a time, whatever
// generation started it.
type Player struct {
	mu       sync.Mutex
	running  bool
	cycle    bool
	dir      Direction
	delay    time.Duration
	minDelay time.Duration
	gen      uint64
	inFlight bool
}

// NewPlayer returns a stopped player.
func NewPlayer(delay, minDelay time.Duration) *Player {
	p := &Player{minDelay: minDelay}
	p.delay = p.clamp(delay)
	return p
}

func (p *Player) clamp(d time.Duration) time.Duration {
	if d < p.minDelay {
		return p.minDelay
	}
	return d
}

// Start runs the player in direction dir.
func (p *Player) Start(dir Direction) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gen++
	p.running = true
	p.cycle = false
	p.dir = dir
	return p.gen
}

// StartCycle runs the player forward, turning the page on every tick.
func (p *Player) StartCycle() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gen++
	p.running = true
	p.cycle = true
	p.dir = Forward
	return p.gen
}

// Stop halts the player. It reports whether the player was running.
func (p *Player) Stop() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	was := p.running
	p.gen++
	p.running = false
	p.cycle = false
	return was
}

// Running reports whether the player is active.
func (p *Player) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Cycling reports whether the player also turns pages.
func (p *Player) Cycling() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running && p.cycle
}

// Direction returns the stepping direction.
func (p *Player) Direction() Direction {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dir
}

// Generation returns the current generation.
func (p *Player) Generation() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gen
}

// Delay returns the step delay.
func (p *Player) Delay() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.delay
}

// SetDelay sets the step delay, never below the minimum, and returns the
// value applied.
func (p *Player) SetDelay(d time.Duration) time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.delay = p.clamp(d)
	return p.delay
}

// Interval returns the time until the next tick; page cycling waits
// CycleDelayFactor times longer.
func (p *Player) Interval() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cycle {
		return p.delay * model.CycleDelayFactor
	}
	return p.delay
}

// BeginTick admits a tick of generation gen.
func (p *Player) BeginTick(gen uint64) TickState {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case !p.running || gen != p.gen:
		return TickStale
	case p.inFlight:
		return TickBusy
	}
	p.inFlight = true
	return TickReady
}

// EndTick finishes the step begun by a tick of generation gen. A step of
// the current generation landing on the first or last event stops the
// player; steps of older generations only release the gate. It reports
// whether another tick of gen should be scheduled.
func (p *Player) EndTick(gen uint64, atBoundary bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inFlight = false
	if gen != p.gen || !p.running {
		return false
	}
	if atBoundary {
		p.gen++
		p.running = false
		p.cycle = false
		return false
	}
	return true
}
