package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tbeam/tbview/internal/calib"
	"github.com/tbeam/tbview/internal/display"
	"github.com/tbeam/tbview/internal/httpserver"
	"github.com/tbeam/tbview/internal/index"
	"github.com/tbeam/tbview/internal/logging"
	"github.com/tbeam/tbview/internal/mapping"
	"github.com/tbeam/tbview/internal/model"
	"github.com/tbeam/tbview/internal/tbfile"
	"github.com/tbeam/tbview/internal/tui"
	"github.com/tbeam/tbview/internal/watch"
)

// programSender forwards watcher messages once the program exists.
type programSender struct {
	p *tea.Program
}

func (s *programSender) Send(msg tea.Msg) {
	if s.p != nil {
		s.p.Send(msg)
	}
}

func openSource(path string) (model.EventSource, error) {
	r, err := tbfile.Open(path)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// runViewer sets up the detector description, the index and the optional
// API, then runs the terminal UI until quit.
func runViewer(cfg appConfig, file string) error {
	logPath, cleanupLogger := logging.ConfigureRuntime("tbview", logging.ParseLevel(cfg.LogLevel))
	defer cleanupLogger()
	slog.Info(fmt.Sprintf("tbview %s starting, logging to %s", version, logPath), "module", "main")

	if err := tui.InitializeSkin(cfg.Skin, cfg.ConfigDir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to load skin '%s': %v (using default)\n", cfg.Skin, err)
	}

	// A file named on the command line must open before the UI starts.
	if file != "" {
		src, err := tbfile.Open(file)
		if err != nil {
			return err
		}
		src.Close()
	}

	deps, err := loadDetector(cfg)
	if err != nil {
		return err
	}

	store, err := index.NewStore(cfg.IndexPath, cfg.QueryTimeout)
	if err != nil {
		return fmt.Errorf("failed to open event index: %w", err)
	}
	defer store.Close()
	pruneIndex(store, cfg)

	var api *httpserver.Server
	if cfg.APIEnabled {
		api = httpserver.NewServer(cfg.APIAddr, store)
		if err := api.Start(); err != nil {
			return fmt.Errorf("failed to start API on %s: %w", cfg.APIAddr, err)
		}
		defer api.Stop()
	}

	sender := &programSender{}
	viewerDeps := tui.Deps{
		Open:    openSource,
		Store:   store,
		Display: deps,
	}
	if api != nil {
		viewerDeps.API = api
	}
	if cfg.WatchFile {
		w, err := watch.New(sender, watch.DefaultDebounce)
		if err != nil {
			slog.Warn(fmt.Sprintf("file watching disabled: %v", err), "module", "main")
		} else {
			defer w.Close()
			viewerDeps.Watcher = w
		}
	}

	viewer := tui.NewViewer(tui.Config{
		ADCCut:             cfg.ADCCut,
		PlayerDelay:        cfg.PlayerDelay,
		MinDelay:           cfg.MinDelay,
		ZSPSigma:           cfg.ZSPSigma,
		SnapshotDir:        cfg.SnapshotDir,
		SnapshotFormat:     cfg.Format,
		IndexWorkers:       cfg.IndexWorkers,
		ChannelThreshold:   cfg.ChannelThreshold,
		ReverseScrollWheel: cfg.ReverseScrollWheel,
		File:               file,
		Version:            version,
	}, viewerDeps)
	defer viewer.Close()

	app := tui.NewApp(viewer, tui.NewEventsPage(store, viewer.Cut))
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())
	sender.p = p

	if _, err := p.Run(); err != nil {
		if strings.Contains(err.Error(), "TTY") || strings.Contains(err.Error(), "/dev/tty") {
			return fmt.Errorf("tbview requires a real terminal")
		}
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}

// loadDetector builds the channel mapping and the wire-chamber time means.
func loadDetector(cfg appConfig) (display.Deps, error) {
	var deps display.Deps

	if cfg.MappingDSN != "" {
		db, err := mapping.ConnectToDatabase(cfg.MappingDSN)
		if err != nil {
			return deps, err
		}
		defer db.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		m, err := mapping.LoadFromDB(ctx, db, cfg.MappingRun, model.DefaultBoards)
		if err != nil {
			return deps, err
		}
		deps.Mapper = m
		slog.Info(fmt.Sprintf("channel mapping loaded for run %d", cfg.MappingRun), "module", "main")
	}

	if cfg.CalibFile != "" {
		means, err := calib.Load(cfg.CalibFile, model.DefaultWCTimeMean, cfg.WCTimeWindow)
		if err != nil {
			return deps, err
		}
		deps.Means = means
		slog.Info(fmt.Sprintf("loaded %d wire-chamber time means from %s", means.Len(), cfg.CalibFile), "module", "main")
	} else {
		deps.Means = calib.New(model.DefaultWCTimeMean, cfg.WCTimeWindow)
	}
	return deps, nil
}

// pruneIndex drops index data of old runs; failures only cost disk space.
func pruneIndex(store *index.Store, cfg appConfig) {
	if cfg.IndexKeepRuns <= 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), cfg.QueryTimeout)
	defer cancel()
	n, err := store.PruneRuns(ctx, cfg.IndexKeepRuns, time.Now().Add(-cfg.IndexMaxAge))
	if err != nil {
		slog.Warn(fmt.Sprintf("index prune failed: %v", err), "module", "main")
		return
	}
	if n > 0 {
		slog.Info(fmt.Sprintf("pruned %d old runs from the index", n), "module", "main")
	}
}
