package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tbeam/tbview/internal/display"
	"github.com/tbeam/tbview/internal/index"
	"github.com/tbeam/tbview/internal/model"
	"github.com/tbeam/tbview/internal/navigator"
	"github.com/tbeam/tbview/internal/snapshot"
)

// ViewerPageID is the ID of the event display page.
const ViewerPageID = "viewer"

// Config holds the viewer settings resolved from the config file and flags.
type Config struct {
	ADCCut             float64
	PlayerDelay        time.Duration
	MinDelay           time.Duration
	ZSPSigma           float64
	SnapshotDir        string
	SnapshotFormat     snapshot.Format
	IndexWorkers       int
	ChannelThreshold   float64
	ReverseScrollWheel bool
	// File is opened on start when set.
	File    string
	Version string
}

// FileWatcher reports changes to the open file (see watch.Watcher).
type FileWatcher interface {
	Watch(path string) error
}

// RunPublisher is told about every run whose index is ready (see
// httpserver.Server).
type RunPublisher interface {
	SetRun(key index.RunKey)
}

// Deps are the collaborators of the viewer. Only Open is required.
type Deps struct {
	Open    func(path string) (model.EventSource, error)
	Store   *index.Store
	Watcher FileWatcher
	API     RunPublisher
	Display display.Deps
}

// fillState records what a page was last filled with.
type fillState struct {
	event   int
	version int
}

// ViewerModel is the event display: a notebook of detector pages, the
// navigator and the player, and the background jobs started from it.
type ViewerModel struct {
	keys   KeyMap
	cfg    Config
	deps   Deps
	width  int
	height int

	nav    *navigator.Navigator
	player *navigator.Player
	src    model.EventSource
	path   string

	pages       []display.Page
	active      int
	filled      []fillState
	opts        *model.Options
	optsVersion int

	runKey      index.RunKey
	indexed     bool
	indexing    bool
	indexCancel context.CancelFunc
	indexGen    uint64
	indexDone   int
	indexTotal  int

	snap         *snapshot.Writer
	snapshotMode bool

	loading   bool
	enchilada *enchiladaJob
	started   bool

	modals []Modal
	status string
	errMsg string
	bar    progress.Model

	// tick schedules player ticks; tests replace it.
	tick func(d time.Duration, fn func(time.Time) tea.Msg) tea.Cmd
}

// NewViewer returns a viewer with no file open.
func NewViewer(cfg Config, deps Deps) *ViewerModel {
	if cfg.MinDelay <= 0 {
		cfg.MinDelay = model.MinPlayerDelay
	}
	if cfg.PlayerDelay <= 0 {
		cfg.PlayerDelay = model.DefaultPlayerDelay
	}
	if cfg.SnapshotFormat == "" {
		cfg.SnapshotFormat = snapshot.FormatPDF
	}
	opts := model.NewOptions()
	if cfg.ZSPSigma > 0 {
		opts.ZSPSigma = cfg.ZSPSigma
	}
	m := &ViewerModel{
		keys:   DefaultKeyMap(),
		cfg:    cfg,
		deps:   deps,
		nav:    navigator.New(nil, nil),
		player: navigator.NewPlayer(cfg.PlayerDelay, cfg.MinDelay),
		opts:   opts,
		bar:    progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		tick:   tea.Tick,
	}
	m.nav.SetCut(cfg.ADCCut)
	m.resetPages()
	return m
}

func (m *ViewerModel) ID() string { return ViewerPageID }

// Init opens the start-up file the first time the viewer is shown.
func (m *ViewerModel) Init() tea.Cmd {
	if m.started {
		return nil
	}
	m.started = true
	if m.cfg.File == "" {
		return nil
	}
	return m.openFileCmd(m.cfg.File)
}

// Close stops background work and closes the open file.
func (m *ViewerModel) Close() error {
	m.player.Stop()
	if m.enchilada != nil {
		m.enchilada.cancel()
		m.enchilada = nil
	}
	if m.indexCancel != nil {
		m.indexCancel()
	}
	if m.src != nil {
		err := m.src.Close()
		m.src = nil
		return err
	}
	return nil
}

// Options returns the live option set.
func (m *ViewerModel) Options() *model.Options { return m.opts }

// Cut returns the ADC cut applied by navigation.
func (m *ViewerModel) Cut() float64 { return m.nav.Cut() }

// RunKey returns the key of the open run and whether its index is ready.
func (m *ViewerModel) RunKey() (index.RunKey, bool) { return m.runKey, m.indexed }

func (m *ViewerModel) resetPages() {
	m.pages = display.NewPages(m.deps.Display)
	m.filled = make([]fillState, len(m.pages))
	for i := range m.filled {
		m.filled[i] = fillState{event: -1}
	}
	if m.active >= len(m.pages) {
		m.active = 0
	}
}

func (m *ViewerModel) activePage() display.Page {
	return m.pages[m.active]
}

// ensureFilled refills the active page when the event changed, or when the
// options changed and the page is not accumulating.
func (m *ViewerModel) ensureFilled() {
	ev := m.nav.Event()
	if ev == nil {
		return
	}
	cur := m.nav.Current()
	st := m.filled[m.active]
	if st.event == cur && (m.opts.Accumulate || st.version == m.optsVersion) {
		return
	}
	m.activePage().Fill(ev, m.opts)
	m.filled[m.active] = fillState{event: cur, version: m.optsVersion}
}

// optionsChanged marks every page stale.
func (m *ViewerModel) optionsChanged() {
	m.optsVersion++
}

func (m *ViewerModel) setPage(i int) {
	n := len(m.pages)
	m.active = ((i % n) + n) % n
	m.ensureFilled()
}
