package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tbeam/tbview/internal/display"
	"github.com/tbeam/tbview/internal/index"
	"github.com/tbeam/tbview/internal/model"
	"github.com/tbeam/tbview/internal/navigator"
)

// enchiladaChunk is the number of events filled per command while
// accumulating a whole run.
const enchiladaChunk = 200

// GotoEventMsg asks the viewer to show event Event.
type GotoEventMsg struct {
	Event int
}

// RunIndexedMsg is broadcast when the index of the open run is ready.
type RunIndexedMsg struct {
	Key index.RunKey
}

type fileOpenedMsg struct {
	path string
	src  model.EventSource
	key  index.RunKey
	err  error
}

type fileReopenedMsg struct {
	path string
	src  model.EventSource
	key  index.RunKey
	err  error
}

// eventLoadedMsg carries the result of a navigator move. gen is the player
// generation for player steps and zero otherwise.
type eventLoadedMsg struct {
	ev     *model.Event
	err    error
	player bool
	gen    uint64
}

type playerTickMsg struct {
	gen uint64
}

// indexProgressMsg and indexDoneMsg carry the build generation so reports
// of a superseded build of the same run are ignored.
type indexProgressMsg struct {
	gen         uint64
	done, total int
	ch          <-chan tea.Msg
}

type indexDoneMsg struct {
	gen uint64
	key index.RunKey
	err error
}

// enchiladaJob is a whole-run accumulation. Its reader belongs to the chunk
// command in flight; the UI only cancels the job and closes the reader once
// a chunk message came back.
type enchiladaJob struct {
	ctx     context.Context
	cancel  context.CancelFunc
	pageIdx int
	page    display.Page
	opts    *model.Options
	cut     float64
	src     model.EventSource
	next    int
	total   int
	passed  int
}

type enchiladaChunkMsg struct {
	job *enchiladaJob
	err error
}

type statusMsg string

func openSource(open func(string) (model.EventSource, error), path string) (model.EventSource, index.RunKey, error) {
	src, err := open(path)
	if err != nil {
		return nil, index.RunKey{}, err
	}
	key, err := index.KeyFor(path)
	if err != nil {
		src.Close()
		return nil, index.RunKey{}, err
	}
	return src, key, nil
}

func (m *ViewerModel) openFileCmd(path string) tea.Cmd {
	open := m.deps.Open
	return func() tea.Msg {
		src, key, err := openSource(open, path)
		return fileOpenedMsg{path: path, src: src, key: key, err: err}
	}
}

func (m *ViewerModel) reopenFileCmd(path string) tea.Cmd {
	open := m.deps.Open
	return func() tea.Msg {
		src, key, err := openSource(open, path)
		return fileReopenedMsg{path: path, src: src, key: key, err: err}
	}
}

// stepCmd moves the navigator in a command. The caller sets m.loading.
func (m *ViewerModel) stepCmd(dir navigator.Direction, player bool, gen uint64) tea.Cmd {
	nav := m.nav
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		var ev *model.Event
		var err error
		if dir == navigator.Reverse {
			ev, err = nav.Prev(ctx)
		} else {
			ev, err = nav.Next(ctx)
		}
		return eventLoadedMsg{ev: ev, err: err, player: player, gen: gen}
	}
}

func (m *ViewerModel) gotoCmd(i int) tea.Cmd {
	nav := m.nav
	return func() tea.Msg {
		ev, err := nav.Goto(i)
		return eventLoadedMsg{ev: ev, err: err}
	}
}

func (m *ViewerModel) reloadCmd() tea.Cmd {
	nav := m.nav
	return func() tea.Msg {
		ev, err := nav.Reload()
		return eventLoadedMsg{ev: ev, err: err}
	}
}

func (m *ViewerModel) scheduleTick(gen uint64) tea.Cmd {
	return m.tick(m.player.Interval(), func(time.Time) tea.Msg {
		return playerTickMsg{gen: gen}
	})
}

// startIndex builds the event index of the open run on a second reader.
// Progress and completion arrive through a channel read by listenIndex.
func (m *ViewerModel) startIndex() tea.Cmd {
	if m.deps.Store == nil || m.path == "" {
		return nil
	}
	if m.indexCancel != nil {
		m.indexCancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.indexCancel = cancel
	m.indexGen++
	gen := m.indexGen
	m.indexing = true
	m.indexed = false
	m.indexDone, m.indexTotal = 0, 0

	store, open, path, key := m.deps.Store, m.deps.Open, m.path, m.runKey
	conf := index.BuildConfig{Workers: m.cfg.IndexWorkers, ChannelThreshold: m.cfg.ChannelThreshold}
	ch := make(chan tea.Msg, 16)
	conf.Progress = func(done, total int) {
		select {
		case ch <- indexProgressMsg{gen: gen, done: done, total: total, ch: ch}:
		default:
		}
	}

	go func() {
		defer close(ch)
		src, err := open(path)
		if err == nil {
			err = store.Build(ctx, key, src, conf)
			src.Close()
		}
		ch <- indexDoneMsg{gen: gen, key: key, err: err}
	}()
	return listenIndex(ch)
}

func listenIndex(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

// enchiladaCmd fills the next chunk of the job's page off the UI goroutine.
// The job owns its page and reader until it is handed back. A cancelled job
// stops between two reads and closes its reader itself.
func enchiladaCmd(job *enchiladaJob, open func(string) (model.EventSource, error), path string) tea.Cmd {
	return func() tea.Msg {
		if err := job.ctx.Err(); err != nil {
			job.close()
			return enchiladaChunkMsg{job: job, err: err}
		}
		if job.src == nil {
			src, err := open(path)
			if err != nil {
				return enchiladaChunkMsg{job: job, err: err}
			}
			job.src = src
		}
		end := min(job.next+enchiladaChunk, job.total-1)
		for i := job.next; i < end; i++ {
			if err := job.ctx.Err(); err != nil {
				job.close()
				return enchiladaChunkMsg{job: job, err: err}
			}
			ev, err := job.src.Read(i)
			if err != nil {
				return enchiladaChunkMsg{job: job, err: fmt.Errorf("reading event %d: %w", i, err)}
			}
			job.next = i + 1
			if ev.MaxPadeADC() < job.cut {
				continue
			}
			job.page.Fill(ev, job.opts)
			job.passed++
		}
		job.next = end
		if err := job.ctx.Err(); err != nil {
			job.close()
			return enchiladaChunkMsg{job: job, err: err}
		}
		return enchiladaChunkMsg{job: job}
	}
}

func (j *enchiladaJob) close() {
	if j.src != nil {
		if err := j.src.Close(); err != nil {
			slog.Warn(fmt.Sprintf("error closing accumulation reader: %v", err), "module", "tui")
		}
		j.src = nil
	}
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}
