package tui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tbeam/tbview/internal/index"
	"github.com/tbeam/tbview/internal/model"
	"github.com/tbeam/tbview/internal/snapshot"
	"github.com/tbeam/tbview/internal/watch"
)

// fakeSource serves flat 128-channel events with one peak of amps[i] on
// channel 0.
type fakeSource struct {
	amps []float64
}

func (f *fakeSource) Entries() int { return len(f.amps) }

func (f *fakeSource) Read(i int) (*model.Event, error) {
	ev := &model.Event{Number: int64(i + 1), Channels: make([]model.PadeChannel, model.NPadeChannels)}
	for c := range ev.Channels {
		pc := &ev.Channels[c]
		pc.BoardID = model.DefaultBoards[c/model.ChannelsPerBoard]
		pc.ChannelID = c % model.ChannelsPerBoard
		pc.Index = c
		pc.Pedestal = 100
		for s := range pc.Wform {
			pc.Wform[s] = 100
		}
	}
	ev.Channels[0].Wform[40] = uint16(100 + f.amps[i])
	return ev, nil
}

func (f *fakeSource) Info() model.RunInfo {
	return model.RunInfo{
		Entries:  len(f.amps),
		Spill:    model.Spill{Number: 7, TableX: 12.5, TableY: -3},
		BoardIDs: model.DefaultBoards,
	}
}

func (f *fakeSource) Close() error { return nil }

// opener hands out a fresh fakeSource per Open; amps can be swapped to
// simulate a growing file. wrap, when set, decorates the next sources.
type opener struct {
	mu   sync.Mutex
	amps []float64
	wrap func(*fakeSource) model.EventSource
}

func (o *opener) open(string) (model.EventSource, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	src := &fakeSource{amps: append([]float64(nil), o.amps...)}
	if o.wrap != nil {
		return o.wrap(src), nil
	}
	return src, nil
}

// blockingSource holds the read of event at until release is closed and
// fails reads once closed.
type blockingSource struct {
	*fakeSource
	at      int
	reading chan struct{}
	release chan struct{}
	closed  atomic.Bool
}

func (b *blockingSource) Read(i int) (*model.Event, error) {
	if b.closed.Load() {
		return nil, errors.New("read after close")
	}
	if i == b.at {
		close(b.reading)
		<-b.release
	}
	if b.closed.Load() {
		return nil, errors.New("reader closed during read")
	}
	return b.fakeSource.Read(i)
}

func (b *blockingSource) Close() error {
	b.closed.Store(true)
	return nil
}

func (o *opener) set(amps ...float64) {
	o.mu.Lock()
	o.amps = amps
	o.mu.Unlock()
}

type fakeWatcher struct{ paths []string }

func (w *fakeWatcher) Watch(path string) error {
	w.paths = append(w.paths, path)
	return nil
}

type fakeAPI struct{ keys []index.RunKey }

func (a *fakeAPI) SetRun(key index.RunKey) { a.keys = append(a.keys, key) }

// runFile creates an empty file so the run key can be taken.
func runFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run_1234.h5")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// newTestViewer returns a viewer on path whose player ticks fire at once.
func newTestViewer(t *testing.T, op *opener, cfg Config, deps Deps) (*ViewerModel, *App) {
	t.Helper()
	if cfg.File == "" {
		cfg.File = runFile(t)
	}
	deps.Open = op.open
	v := NewViewer(cfg, deps)
	v.tick = func(_ time.Duration, fn func(time.Time) tea.Msg) tea.Cmd {
		return func() tea.Msg { return fn(time.Time{}) }
	}
	app := NewApp(v, NewEventsPage(deps.Store, v.Cut))
	pump(t, app, app.Init())
	t.Cleanup(func() { v.Close() })
	return v, app
}

// pump runs cmd and every command produced by the resulting updates until
// none is left.
func pump(t *testing.T, app *App, cmd tea.Cmd) {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 10000 {
			t.Fatal("pump did not settle")
		}
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case nil, tea.QuitMsg:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			_, next := app.Update(msg)
			queue = append(queue, next)
		}
	}
}

func press(t *testing.T, app *App, keys ...string) {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case " ":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		_, cmd := app.Update(msg)
		pump(t, app, cmd)
	}
}

func TestOpenShowsFirstPassingEvent(t *testing.T) {
	op := &opener{amps: []float64{100, 600, 700, 50}}
	w := &fakeWatcher{}
	v, _ := newTestViewer(t, op, Config{ADCCut: 500}, Deps{Watcher: w})

	if got := v.nav.Current(); got != 1 {
		t.Errorf("current after open = %d, want 1", got)
	}
	if v.opts.TableX != 12.5 || v.opts.TableY != -3 {
		t.Errorf("table = (%v, %v), want (12.5, -3)", v.opts.TableX, v.opts.TableY)
	}
	if v.opts.Filename != "run_1234.h5" {
		t.Errorf("Filename = %q, want run_1234.h5", v.opts.Filename)
	}
	if len(w.paths) != 1 || w.paths[0] != v.path {
		t.Errorf("watched paths = %v, want [%s]", w.paths, v.path)
	}
	if got := v.eventText(); got != "event: 1 / 3" {
		t.Errorf("eventText() = %q, want %q", got, "event: 1 / 3")
	}
}

func TestStepKeysApplyCutAndWrap(t *testing.T) {
	op := &opener{amps: []float64{600, 100, 700, 50, 800}}
	v, app := newTestViewer(t, op, Config{ADCCut: 500}, Deps{})

	want := []struct {
		key  string
		want int
	}{
		{"n", 2},
		{"n", 4},
		{"n", 0},
		{"p", 4},
		{"p", 2},
	}
	for _, w := range want {
		press(t, app, w.key)
		if got := v.nav.Current(); got != w.want {
			t.Errorf("after %q current = %d, want %d", w.key, got, w.want)
		}
	}
}

func TestGotoModal(t *testing.T) {
	op := &opener{amps: []float64{600, 600, 600, 600}}
	v, app := newTestViewer(t, op, Config{}, Deps{})

	// Typing into the input modal; its cursor commands are not pumped.
	for _, k := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune("g")},
		{Type: tea.KeyRunes, Runes: []rune("9")},
	} {
		app.Update(k)
	}
	if v.topModal() == nil {
		t.Fatal("goto modal not open")
	}
	press(t, app, "enter")
	if v.topModal() != nil {
		t.Error("goto modal still open after enter")
	}
	if got := v.nav.Current(); got != 3 {
		t.Errorf("current after goto 9 = %d, want 3 (clamped)", got)
	}
}

func TestInputModalRejectsBadValue(t *testing.T) {
	op := &opener{amps: []float64{600}}
	v, app := newTestViewer(t, op, Config{}, Deps{})

	app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("g")})
	app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	press(t, app, "enter")
	if v.topModal() == nil {
		t.Fatal("modal closed on an invalid event number")
	}
	press(t, app, "esc")
	if v.topModal() != nil {
		t.Error("modal still open after esc")
	}
}

func TestPlayerRunsToLastEvent(t *testing.T) {
	op := &opener{amps: []float64{600, 600, 600, 600, 600}}
	v, app := newTestViewer(t, op, Config{}, Deps{})

	press(t, app, "f")
	if got := v.nav.Current(); got != 4 {
		t.Errorf("current after forward play = %d, want 4", got)
	}
	if v.player.Running() {
		t.Error("player still running at the last event")
	}
	if got := v.playerText(); got != "stopped" {
		t.Errorf("playerText() = %q, want stopped", got)
	}
}

func TestStoppedPlayerIgnoresTick(t *testing.T) {
	op := &opener{amps: []float64{600, 600, 600}}
	v, app := newTestViewer(t, op, Config{}, Deps{})

	gen := v.player.Start(0)
	v.player.Stop()
	_, cmd := app.Update(playerTickMsg{gen: gen})
	if cmd != nil {
		t.Error("stale tick produced a command")
	}
	if got := v.nav.Current(); got != 0 {
		t.Errorf("current = %d, want 0", got)
	}
}

func TestCyclePlayerTurnsPages(t *testing.T) {
	op := &opener{amps: []float64{600, 600, 600, 600}}
	v, app := newTestViewer(t, op, Config{}, Deps{})

	press(t, app, "y")
	// Each tick turns the page and steps the event; event 3 is the last.
	if got := v.nav.Current(); got != 3 {
		t.Errorf("current after cycling = %d, want 3", got)
	}
	if v.active != 3 {
		t.Errorf("active page = %d, want 3", v.active)
	}
	if v.player.Running() {
		t.Error("cycle player still running at the last event")
	}
}

func TestManualStepToLastEventStopsPlayer(t *testing.T) {
	op := &opener{amps: []float64{600, 600, 600}}
	v, app := newTestViewer(t, op, Config{}, Deps{})
	press(t, app, "n")

	// A running player whose tick has not fired yet.
	v.player.Start(0)
	press(t, app, "n")
	if got := v.nav.Current(); got != 2 {
		t.Fatalf("current = %d, want 2", got)
	}
	if v.player.Running() {
		t.Error("player still running after a manual step to the last event")
	}
}

func TestRestartedPlayerWaitsForStepInFlight(t *testing.T) {
	op := &opener{amps: []float64{600, 600, 600, 600, 600}}
	v, app := newTestViewer(t, op, Config{}, Deps{})

	old := v.player.Start(0)
	_, step := app.Update(playerTickMsg{gen: old})
	if step == nil {
		t.Fatal("tick produced no step")
	}
	press(t, app, " ")
	_, restart := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("f")})
	if !v.player.Running() {
		t.Fatal("player not running after restart")
	}

	// The first tick of the new run arrives while the old step is still in
	// flight; it must be retried once the old step has finished.
	pump(t, app, tea.Batch(restart, step))
	if got := v.nav.Current(); got != 4 {
		t.Errorf("current = %d, want 4", got)
	}
	if v.player.Running() {
		t.Error("player still running at the last event")
	}
}

func TestAccumulateKey(t *testing.T) {
	op := &opener{amps: []float64{600, 600, 600, 600}}
	v, app := newTestViewer(t, op, Config{}, Deps{})

	press(t, app, "a", "n", "n")
	if got := v.activePage().Filled(); got != 3 {
		t.Errorf("Filled() = %d, want 3", got)
	}
	// A toggle while accumulating must not fill the event again.
	press(t, app, "1")
	if got := v.activePage().Filled(); got != 3 {
		t.Errorf("Filled() after toggle = %d, want 3", got)
	}
	press(t, app, "a", "n")
	if got := v.activePage().Filled(); got != 1 {
		t.Errorf("Filled() after accumulate off = %d, want 1", got)
	}
}

func TestWholeEnchilada(t *testing.T) {
	op := &opener{amps: []float64{600, 100, 600, 600, 600}}
	v, app := newTestViewer(t, op, Config{ADCCut: 500}, Deps{})

	press(t, app, "]", "W")
	if v.enchilada != nil {
		t.Fatal("accumulation job still running")
	}
	if got := v.nav.Current(); got != 4 {
		t.Errorf("current = %d, want 4", got)
	}
	if !v.opts.Accumulate {
		t.Error("accumulate not switched on")
	}
	// Events 0, 2, 3 pass the cut, plus the last event shown.
	if got := v.activePage().Filled(); got != 4 {
		t.Errorf("Filled() = %d, want 4", got)
	}
	if v.activePage().ID() != "Heatmap" {
		t.Errorf("active page = %s, want Heatmap", v.activePage().ID())
	}
}

func TestStopAccumulationDuringRead(t *testing.T) {
	op := &opener{amps: []float64{600, 600, 600}}
	v, app := newTestViewer(t, op, Config{}, Deps{})

	src := &blockingSource{at: 1, reading: make(chan struct{}), release: make(chan struct{})}
	op.mu.Lock()
	op.wrap = func(f *fakeSource) model.EventSource {
		src.fakeSource = f
		return src
	}
	op.mu.Unlock()

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("W")})
	if cmd == nil {
		t.Fatal("W produced no command")
	}
	out := make(chan tea.Msg, 1)
	go func() { out <- cmd() }()
	<-src.reading

	press(t, app, " ")
	if v.enchilada != nil {
		t.Fatal("accumulation job still set after stop")
	}
	if src.closed.Load() {
		t.Fatal("reader closed while a read was in flight")
	}

	close(src.release)
	msg := <-out
	chunk, ok := msg.(enchiladaChunkMsg)
	if !ok {
		t.Fatalf("command returned %T, want enchiladaChunkMsg", msg)
	}
	if !errors.Is(chunk.err, context.Canceled) {
		t.Errorf("chunk error = %v, want context.Canceled", chunk.err)
	}
	_, next := app.Update(msg)
	pump(t, app, next)

	if !src.closed.Load() {
		t.Error("accumulation reader not closed")
	}
	if v.errMsg != "" {
		t.Errorf("error shown after stop: %s", v.errMsg)
	}
	if v.opts.Accumulate {
		t.Error("accumulate switched on by a stopped job")
	}
	if got := v.nav.Current(); got != 0 {
		t.Errorf("current = %d, want 0", got)
	}
}

func TestSnapshotKey(t *testing.T) {
	op := &opener{amps: []float64{600, 600}}
	dir := t.TempDir()
	v, app := newTestViewer(t, op, Config{SnapshotDir: dir, SnapshotFormat: snapshot.FormatPNG}, Deps{})

	press(t, app, "s")
	want := filepath.Join(dir, "pdfs_run_1234", "Traces0.png")
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("snapshot not written: %v", err)
	}

	press(t, app, "S", "n")
	if _, err := os.Stat(filepath.Join(dir, "pdfs_run_1234", "Traces1.png")); err != nil {
		t.Errorf("snapshot mode did not write event 1: %v", err)
	}
	if got := len(v.snap.Manifest().Entries); got != 3 {
		t.Errorf("manifest entries = %d, want 3", got)
	}
}

func TestIndexAndEventList(t *testing.T) {
	store, err := index.NewStore("")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer store.Close()

	op := &opener{amps: []float64{100, 600, 200, 900, 700}}
	api := &fakeAPI{}
	v, app := newTestViewer(t, op, Config{ADCCut: 500}, Deps{Store: store, API: api})

	key, ok := v.RunKey()
	if !ok {
		t.Fatal("run not indexed after open")
	}
	if len(api.keys) != 1 || api.keys[0] != key {
		t.Errorf("API runs = %v, want [%v]", api.keys, key)
	}

	press(t, app, "e")
	if app.ActivePage() != EventsPageID {
		t.Fatalf("active page = %s, want %s", app.ActivePage(), EventsPageID)
	}
	events := app.pages[1].(*EventsPage)
	if len(events.rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(events.rows))
	}
	if !strings.Contains(events.View(120, 30), "peak 900") {
		t.Error("event list does not show run stats")
	}

	// Rows are in event order; select the second one (event 3).
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyDown})
	pump(t, app, cmd)
	press(t, app, "enter")
	if app.ActivePage() != ViewerPageID {
		t.Errorf("active page = %s, want %s", app.ActivePage(), ViewerPageID)
	}
	if got := v.nav.Current(); got != 3 {
		t.Errorf("current = %d, want 3", got)
	}
}

func TestSupersededIndexBuildIgnored(t *testing.T) {
	store, err := index.NewStore("")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer store.Close()

	op := &opener{amps: []float64{100, 600, 700}}
	v, app := newTestViewer(t, op, Config{ADCCut: 500}, Deps{Store: store})

	stale := v.startIndex()
	live := v.startIndex()

	pump(t, app, stale)
	if !v.indexing || v.indexCancel == nil {
		t.Fatal("report of a superseded build ended the live one")
	}
	pump(t, app, live)
	if v.indexing || !v.indexed {
		t.Errorf("indexing=%v indexed=%v after the live build, want false true", v.indexing, v.indexed)
	}
	if v.indexCancel != nil {
		t.Error("cancel func kept after the build finished")
	}
}

func TestFileChangeKeepsPosition(t *testing.T) {
	op := &opener{amps: []float64{600, 600, 600}}
	v, app := newTestViewer(t, op, Config{}, Deps{})
	press(t, app, "n", "n")

	op.set(600, 600, 600, 600, 600, 600)
	_, cmd := app.Update(watch.FileChangedMsg{Path: v.path})
	pump(t, app, cmd)

	if got := v.nav.Entries(); got != 6 {
		t.Errorf("entries after reload = %d, want 6", got)
	}
	if got := v.nav.Current(); got != 2 {
		t.Errorf("current after reload = %d, want 2", got)
	}

	// Changes to other files are ignored.
	_, cmd = app.Update(watch.FileChangedMsg{Path: "/elsewhere.h5"})
	if cmd != nil {
		t.Error("change of another file triggered a reload")
	}
}

func TestOpenFailureKeepsRun(t *testing.T) {
	op := &opener{amps: []float64{600, 600}}
	v, app := newTestViewer(t, op, Config{}, Deps{})
	path := v.path

	pump(t, app, v.openFileCmd(filepath.Join(t.TempDir(), "missing.h5")))
	if v.path != path {
		t.Errorf("path = %s, want %s", v.path, path)
	}
	if v.errMsg == "" {
		t.Error("no error shown for a missing file")
	}
}

func TestViewRendersStatus(t *testing.T) {
	op := &opener{amps: []float64{600, 600, 600}}
	v, app := newTestViewer(t, op, Config{}, Deps{})
	app.Update(tea.WindowSizeMsg{Width: 160, Height: 48})

	for range v.pages {
		out := app.View()
		for _, want := range []string{"event: 0 / 2", "table(12.5, -3.0)", "run_1234.h5", "stopped"} {
			if !strings.Contains(out, want) {
				t.Errorf("page %s view missing %q", v.activePage().ID(), want)
			}
		}
		press(t, app, "tab")
	}
}

func TestParseDelay(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{"2", 2 * time.Second, true},
		{"1.5", 1500 * time.Millisecond, true},
		{"750ms", 750 * time.Millisecond, true},
		{"soon", 0, false},
	}
	for _, tt := range tests {
		got, err := parseDelay(tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("parseDelay(%q) = %v, %v; want %v, ok=%v", tt.in, got, err, tt.want, tt.ok)
		}
	}
}

func TestDelayIsClamped(t *testing.T) {
	op := &opener{amps: []float64{600}}
	v, _ := newTestViewer(t, op, Config{}, Deps{})
	if _, err := v.submitDelay("0.1"); err != nil {
		t.Fatal(err)
	}
	if got := v.player.Delay(); got != model.MinPlayerDelay {
		t.Errorf("delay = %v, want %v", got, model.MinPlayerDelay)
	}
}
