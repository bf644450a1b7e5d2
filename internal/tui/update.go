package tui

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tbeam/tbview/internal/display"
	"github.com/tbeam/tbview/internal/navigator"
	"github.com/tbeam/tbview/internal/snapshot"
	"github.com/tbeam/tbview/internal/watch"
)

// Update handles viewer messages. Input reaches it only while the viewer is
// the active page; everything else always does.
func (m *ViewerModel) Update(msg tea.Msg) (tea.Cmd, *PageNav) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return nil, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg), nil

	case fileOpenedMsg:
		return m.handleFileOpened(msg), nil

	case fileReopenedMsg:
		return m.handleFileReopened(msg), nil

	case watch.FileChangedMsg:
		if m.src == nil || filepath.Clean(msg.Path) != filepath.Clean(m.path) {
			return nil, nil
		}
		slog.Info(fmt.Sprintf("file changed, reloading %s", m.path), "module", "tui")
		return m.reopenFileCmd(m.path), nil

	case eventLoadedMsg:
		return m.handleEventLoaded(msg), nil

	case playerTickMsg:
		return m.handlePlayerTick(msg), nil

	case GotoEventMsg:
		if m.src == nil || m.loading {
			return nil, nil
		}
		m.loading = true
		return m.gotoCmd(msg.Event), nil

	case indexProgressMsg:
		if msg.gen == m.indexGen {
			m.indexDone, m.indexTotal = msg.done, msg.total
		}
		return listenIndex(msg.ch), nil

	case indexDoneMsg:
		return m.handleIndexDone(msg), nil

	case enchiladaChunkMsg:
		return m.handleEnchiladaChunk(msg), nil

	case statusMsg:
		m.setStatus(string(msg))
		return nil, nil
	}
	return nil, nil
}

func (m *ViewerModel) setStatus(s string) {
	m.status = s
	m.errMsg = ""
}

func (m *ViewerModel) setError(err error) {
	m.errMsg = err.Error()
	slog.Error(err.Error(), "module", "tui")
}

func (m *ViewerModel) handleKeyPress(msg tea.KeyMsg) (tea.Cmd, *PageNav) {
	if key.Matches(msg, m.keys.ForceQuit) {
		return tea.Quit, nil
	}
	if md := m.topModal(); md != nil {
		pop, cmd := md.Update(msg)
		if pop {
			m.popModal()
		}
		return cmd, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit, nil
	case key.Matches(msg, m.keys.Help):
		m.pushModal(NewContentModal("help", "Help", helpText(m.keys), m.keys))
	case key.Matches(msg, m.keys.About):
		m.pushModal(NewContentModal("about", "About", m.aboutText(), m.keys))
	case key.Matches(msg, m.keys.Escape):
		m.errMsg = ""
	case key.Matches(msg, m.keys.NextPage):
		m.setPage(m.active + 1)
	case key.Matches(msg, m.keys.PrevPage):
		m.setPage(m.active - 1)
	case key.Matches(msg, m.keys.EventList):
		return nil, &PageNav{PageID: EventsPageID}

	case key.Matches(msg, m.keys.Next):
		return m.step(navigator.Forward), nil
	case key.Matches(msg, m.keys.Prev):
		return m.step(navigator.Reverse), nil
	case key.Matches(msg, m.keys.First):
		return m.Update(GotoEventMsg{Event: 0})
	case key.Matches(msg, m.keys.Last):
		return m.Update(GotoEventMsg{Event: m.nav.Entries() - 1})
	case key.Matches(msg, m.keys.Goto):
		m.pushModal(NewInputModal("goto", "Go to event", "event number",
			"", m.submitGoto))
	case key.Matches(msg, m.keys.SetCut):
		m.pushModal(NewInputModal("cut", "Set ADC cut", "ADC counts",
			strconv.FormatFloat(m.nav.Cut(), 'f', -1, 64), m.submitCut))
	case key.Matches(msg, m.keys.SetDelay):
		m.pushModal(NewInputModal("delay", "Set player delay", "seconds or duration (1.5, 2s)",
			m.player.Delay().String(), m.submitDelay))
	case key.Matches(msg, m.keys.OpenFile):
		m.pushModal(NewInputModal("open", "Open file", "path to readout file",
			m.path, m.submitOpen))
	case key.Matches(msg, m.keys.Reload):
		if m.src != nil {
			return m.reopenFileCmd(m.path), nil
		}

	case key.Matches(msg, m.keys.Forward):
		return m.startPlayer(navigator.Forward), nil
	case key.Matches(msg, m.keys.Rewind):
		return m.startPlayer(navigator.Reverse), nil
	case key.Matches(msg, m.keys.Cycle):
		if m.src == nil {
			return nil, nil
		}
		return m.scheduleTick(m.player.StartCycle()), nil
	case key.Matches(msg, m.keys.Stop):
		m.stopAll()

	case key.Matches(msg, m.keys.Accumulate):
		m.opts.Accumulate = !m.opts.Accumulate
		m.optionsChanged()
		m.ensureFilled()
	case key.Matches(msg, m.keys.WholeEnchilada):
		return m.startEnchilada(), nil
	case key.Matches(msg, m.keys.Snapshot):
		m.snapshot()
	case key.Matches(msg, m.keys.SnapshotMode):
		m.snapshotMode = !m.snapshotMode
		if m.snapshotMode {
			m.snapshot()
		}
	case key.Matches(msg, m.keys.Toggle):
		m.flipToggle(msg.String())
	}
	return nil, nil
}

func (m *ViewerModel) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if m.topModal() != nil || msg.Action != tea.MouseActionPress {
		return nil
	}
	forward, reverse := navigator.Forward, navigator.Reverse
	if m.cfg.ReverseScrollWheel {
		forward, reverse = reverse, forward
	}
	switch msg.Button {
	case tea.MouseButtonWheelDown:
		return m.step(forward)
	case tea.MouseButtonWheelUp:
		return m.step(reverse)
	}
	return nil
}

// step moves one event in dir unless a read is already in flight.
func (m *ViewerModel) step(dir navigator.Direction) tea.Cmd {
	if m.src == nil || m.loading {
		return nil
	}
	m.loading = true
	return m.stepCmd(dir, false, 0)
}

func (m *ViewerModel) startPlayer(dir navigator.Direction) tea.Cmd {
	if m.src == nil {
		return nil
	}
	return m.scheduleTick(m.player.Start(dir))
}

// stopAll stops the player and cancels an accumulation job. The job's
// reader is closed when its chunk command returns.
func (m *ViewerModel) stopAll() {
	m.player.Stop()
	if m.enchilada != nil {
		m.enchilada.cancel()
		m.enchilada = nil
		m.setStatus("accumulation cancelled")
	}
}

func (m *ViewerModel) flipToggle(k string) {
	for _, t := range m.activePage().Toggles(m.opts) {
		if t.Key == k {
			t.Flip(m.opts)
			m.optionsChanged()
			m.ensureFilled()
			m.setStatus(fmt.Sprintf("%s: %s", t.Label, onOff(!t.On)))
			return
		}
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func (m *ViewerModel) submitGoto(s string) (tea.Cmd, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("not an event number: %q", s)
	}
	return func() tea.Msg { return GotoEventMsg{Event: n} }, nil
}

func (m *ViewerModel) submitCut(s string) (tea.Cmd, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return nil, fmt.Errorf("ADC cut must be a number >= 0")
	}
	m.nav.SetCut(v)
	m.setStatus(fmt.Sprintf("ADC cut set to %g", v))
	return nil, nil
}

// parseDelay accepts plain seconds or a Go duration.
func parseDelay(s string) (time.Duration, error) {
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(v * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("not a delay: %q", s)
	}
	return d, nil
}

func (m *ViewerModel) submitDelay(s string) (tea.Cmd, error) {
	d, err := parseDelay(s)
	if err != nil {
		return nil, err
	}
	applied := m.player.SetDelay(d)
	m.setStatus(fmt.Sprintf("player delay %s", applied))
	return nil, nil
}

var homeDir = os.UserHomeDir

func (m *ViewerModel) submitOpen(s string) (tea.Cmd, error) {
	if s == "" {
		return nil, fmt.Errorf("no file name")
	}
	if strings.HasPrefix(s, "~/") {
		if home, err := homeDir(); err == nil {
			s = filepath.Join(home, s[2:])
		}
	}
	return m.openFileCmd(s), nil
}

func (m *ViewerModel) handleFileOpened(msg fileOpenedMsg) tea.Cmd {
	if msg.err != nil {
		m.setError(fmt.Errorf("cannot open %s: %w", msg.path, msg.err))
		return nil
	}
	m.stopAll()
	if m.indexCancel != nil {
		m.indexCancel()
		m.indexCancel = nil
	}
	if m.src != nil {
		if err := m.src.Close(); err != nil {
			slog.Warn(fmt.Sprintf("error closing %s: %v", m.path, err), "module", "tui")
		}
	}

	cut := m.nav.Cut()
	m.src, m.path, m.runKey = msg.src, msg.path, msg.key
	m.nav = navigator.New(msg.src, nil)
	m.nav.SetCut(cut)
	m.snap = nil
	m.loading = false
	m.resetPages()

	info := msg.src.Info()
	m.opts.Filename = filepath.Base(msg.path)
	m.opts.TableX, m.opts.TableY = info.Spill.TableX, info.Spill.TableY
	m.opts.BoardNumbers = append([]int(nil), info.BoardIDs...)
	m.opts.EventNumber = -1
	m.optionsChanged()

	if m.deps.Watcher != nil {
		if err := m.deps.Watcher.Watch(msg.path); err != nil {
			slog.Warn(fmt.Sprintf("cannot watch %s: %v", msg.path, err), "module", "tui")
		}
	}
	slog.Info(fmt.Sprintf("opened %s with %d events", msg.path, msg.src.Entries()), "module", "tui")
	m.setStatus(fmt.Sprintf("opened %s", filepath.Base(msg.path)))

	m.loading = true
	return tea.Batch(m.stepCmd(navigator.Forward, false, 0), m.startIndex())
}

// handleFileReopened swaps in the refreshed reader keeping the current
// event index.
func (m *ViewerModel) handleFileReopened(msg fileReopenedMsg) tea.Cmd {
	if msg.path != m.path {
		if msg.src != nil {
			msg.src.Close()
		}
		return nil
	}
	if msg.err != nil {
		m.setError(fmt.Errorf("cannot reload %s: %w", msg.path, msg.err))
		return nil
	}
	if m.enchilada != nil {
		m.stopAll()
	}
	old := m.src
	m.src, m.runKey = msg.src, msg.key
	m.nav.SetSource(msg.src, nil)
	if old != nil {
		old.Close()
	}
	m.setStatus(fmt.Sprintf("reloaded %s: %d events", filepath.Base(m.path), msg.src.Entries()))
	for i := range m.filled {
		m.filled[i] = fillState{event: -1}
	}
	cmds := []tea.Cmd{m.startIndex()}
	if !m.loading {
		m.loading = true
		cmds = append(cmds, m.reloadCmd())
	}
	return tea.Batch(cmds...)
}

func (m *ViewerModel) handleEventLoaded(msg eventLoadedMsg) tea.Cmd {
	m.loading = false
	var cmd tea.Cmd
	if msg.player {
		if m.player.EndTick(msg.gen, m.nav.AtBoundary()) {
			cmd = m.scheduleTick(msg.gen)
		}
	}
	if msg.err != nil {
		m.player.Stop()
		m.setError(msg.err)
		return nil
	}
	// A manual move onto the first or last event stops the player too.
	if !msg.player && m.nav.AtBoundary() {
		m.player.Stop()
	}
	m.opts.EventNumber = m.nav.Current()
	m.errMsg = ""
	m.ensureFilled()
	if m.snapshotMode {
		m.snapshot()
	}
	return cmd
}

// handlePlayerTick steps the event for the player. In cycle mode every tick
// also turns the page before stepping.
func (m *ViewerModel) handlePlayerTick(msg playerTickMsg) tea.Cmd {
	switch m.player.BeginTick(msg.gen) {
	case navigator.TickStale:
		return nil
	case navigator.TickBusy:
		return m.scheduleTick(msg.gen)
	}
	if m.loading {
		m.player.EndTick(msg.gen, false)
		return m.scheduleTick(msg.gen)
	}
	if m.player.Cycling() {
		m.setPage(m.active + 1)
	}
	m.loading = true
	return m.stepCmd(m.player.Direction(), true, msg.gen)
}

func (m *ViewerModel) handleIndexDone(msg indexDoneMsg) tea.Cmd {
	if msg.gen != m.indexGen {
		return nil
	}
	m.indexing = false
	m.indexCancel = nil
	if msg.err != nil {
		if !isCanceled(msg.err) {
			m.setError(fmt.Errorf("index: %w", msg.err))
		}
		return nil
	}
	m.indexed = true
	m.nav.SetCutter(m.deps.Store.Cutter(msg.key))
	if m.deps.API != nil {
		m.deps.API.SetRun(msg.key)
	}
	key := msg.key
	return func() tea.Msg { return RunIndexedMsg{Key: key} }
}

// snapshot writes the active page for the current event.
func (m *ViewerModel) snapshot() {
	cur := m.nav.Current()
	if m.src == nil || cur < 0 {
		return
	}
	if m.snap == nil {
		w, err := snapshot.NewWriter(m.cfg.SnapshotDir, m.path, m.cfg.SnapshotFormat)
		if err != nil {
			m.setError(err)
			return
		}
		m.snap = w
	}
	m.ensureFilled()
	path, err := m.snap.Write(m.activePage(), cur, m.opts)
	if err != nil {
		m.setError(err)
		return
	}
	m.setStatus("saved " + path)
}

// startEnchilada accumulates every event passing the cut into a fresh copy
// of the active page, then shows the last event on top of it.
func (m *ViewerModel) startEnchilada() tea.Cmd {
	if m.src == nil || m.enchilada != nil {
		return nil
	}
	n := m.nav.Entries()
	if n == 0 {
		return nil
	}
	m.player.Stop()

	var page display.Page
	id := m.activePage().ID()
	for _, p := range display.NewPages(m.deps.Display) {
		if p.ID() == id {
			page = p
		}
	}
	opts := m.opts.Clone()
	opts.Accumulate = true
	ctx, cancel := context.WithCancel(context.Background())
	job := &enchiladaJob{
		ctx:     ctx,
		cancel:  cancel,
		pageIdx: m.active,
		page:    page,
		opts:    opts,
		cut:     m.nav.Cut(),
		total:   n,
	}
	m.enchilada = job
	m.setStatus(fmt.Sprintf("accumulating %d events into %s", n, page.Title()))
	return enchiladaCmd(job, m.deps.Open, m.path)
}

func (m *ViewerModel) handleEnchiladaChunk(msg enchiladaChunkMsg) tea.Cmd {
	job := msg.job
	if job != m.enchilada {
		job.close()
		return nil
	}
	if msg.err != nil {
		job.close()
		job.cancel()
		m.enchilada = nil
		m.setError(fmt.Errorf("accumulate: %w", msg.err))
		return nil
	}
	if job.next < job.total-1 {
		return enchiladaCmd(job, m.deps.Open, m.path)
	}

	job.close()
	job.cancel()
	m.enchilada = nil
	m.pages[job.pageIdx] = job.page
	m.filled[job.pageIdx] = fillState{event: -1}
	m.opts.Accumulate = true
	m.optionsChanged()
	m.setStatus(fmt.Sprintf("accumulated %d events", job.passed+1))
	slog.Info(fmt.Sprintf("accumulated %d of %d events into %s", job.passed, job.total-1, job.page.ID()), "module", "tui")
	m.loading = true
	return m.gotoCmd(job.total - 1)
}
