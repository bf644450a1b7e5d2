package index

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tbeam/tbview/internal/model"
)

// BuildConfig holds tunable parameters of an index build.
type BuildConfig struct {
	Workers int
	// Channels with a peak at or above ChannelThreshold count as "over".
	ChannelThreshold float64
	BatchSize        int
	// Progress is called from the collecting goroutine after each batch.
	Progress func(done, total int)
}

const (
	defaultChannelThreshold = 50
	defaultBatchSize        = 500
)

type buildJob struct {
	index int
	event *model.Event
}

// Summarize computes the index row of event i.
func Summarize(i int, ev *model.Event, channelThreshold float64) model.EventSummary {
	s := model.EventSummary{
		Event:     i,
		Number:    ev.Number,
		Timestamp: ev.Timestamp,
		MaxADC:    ev.MaxPadeADC(),
		WCHits:    len(ev.WCHits),
	}
	for c := range ev.Channels {
		peak := ev.Channels[c].Peak()
		s.SumADC += peak
		if peak >= channelThreshold {
			s.ChannelsOver++
		}
	}
	return s
}

// Build indexes every event of src under key. A run already indexed with
// the same event count is left untouched. Events are read sequentially on
// one goroutine; summaries are computed by a worker pool and inserted in
// batches. Builds of the same key run one at a time: a later build waits
// until an earlier one, cancelled or not, has finished or cleaned up.
func (s *Store) Build(ctx context.Context, key RunKey, src model.EventSource, conf BuildConfig) error {
	unlock, err := s.lockRun(ctx, key.String())
	if err != nil {
		return fmt.Errorf("indexing %s: %w", key.Path, err)
	}
	defer unlock()

	if conf.Workers <= 0 {
		conf.Workers = runtime.NumCPU()
	}
	if conf.ChannelThreshold <= 0 {
		conf.ChannelThreshold = defaultChannelThreshold
	}
	if conf.BatchSize <= 0 {
		conf.BatchSize = defaultBatchSize
	}

	total := src.Entries()
	if run, ok, err := s.Run(ctx, key); err != nil {
		return err
	} else if ok && run.Entries == total {
		slog.Info(fmt.Sprintf("index for %s is up to date (%d events)", key.Path, total), "module", "index")
		if conf.Progress != nil {
			conf.Progress(total, total)
		}
		return nil
	}

	if err := s.deleteRun(ctx, key.String()); err != nil {
		return err
	}

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	jobs := make(chan buildJob, conf.Workers)
	results := make(chan model.EventSummary, conf.Workers)

	g.Go(func() error {
		defer close(jobs)
		for i := 0; i < total; i++ {
			ev, err := src.Read(i)
			if err != nil {
				return fmt.Errorf("reading event %d: %w", i, err)
			}
			select {
			case jobs <- buildJob{index: i, event: ev}:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	var workers sync.WaitGroup
	for w := 0; w < conf.Workers; w++ {
		workers.Add(1)
		g.Go(func() error {
			defer workers.Done()
			for job := range jobs {
				select {
				case results <- Summarize(job.index, job.event, conf.ChannelThreshold):
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}
	go func() {
		workers.Wait()
		close(results)
	}()

	g.Go(func() error {
		batch := make([]model.EventSummary, 0, conf.BatchSize)
		done := 0
		flush := func() error {
			if len(batch) == 0 {
				return nil
			}
			if err := s.insertSummaries(gctx, key.String(), batch); err != nil {
				return err
			}
			done += len(batch)
			batch = batch[:0]
			if conf.Progress != nil {
				conf.Progress(done, total)
			}
			return nil
		}
		for r := range results {
			batch = append(batch, r)
			if len(batch) == conf.BatchSize {
				if err := flush(); err != nil {
					return err
				}
			}
		}
		return flush()
	})

	if err := g.Wait(); err != nil {
		// Leave no partial run behind.
		if derr := s.deleteRun(context.Background(), key.String()); derr != nil {
			slog.Error(fmt.Sprintf("error removing partial index: %v", derr), "module", "index")
		}
		return fmt.Errorf("indexing %s: %w", key.Path, err)
	}

	if err := s.recordRun(ctx, key, src, total); err != nil {
		return err
	}
	slog.Info(fmt.Sprintf("indexed %d events of %s in %v with %d workers",
		total, key.Path, time.Since(start).Round(time.Millisecond), conf.Workers), "module", "index")
	return nil
}

func (s *Store) lockRun(ctx context.Context, runKey string) (func(), error) {
	s.buildMu.Lock()
	slot, ok := s.building[runKey]
	if !ok {
		slot = make(chan struct{}, 1)
		s.building[runKey] = slot
	}
	s.buildMu.Unlock()

	select {
	case slot <- struct{}{}:
		return func() { <-slot }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Store) insertSummaries(ctx context.Context, runKey string, rows []model.EventSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO event_summary
		(run_key, event, number, ts, max_adc, sum_adc, n_channels_over, n_wc_hits)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, runKey, r.Event, r.Number, r.Timestamp,
			r.MaxADC, r.SumADC, r.ChannelsOver, r.WCHits); err != nil {
			return fmt.Errorf("inserting event %d: %w", r.Event, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func (s *Store) recordRun(ctx context.Context, key RunKey, src model.EventSource, total int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	spill := src.Info().Spill
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO runs
		(run_key, path, mod_time, entries, table_x, table_y, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?, current_timestamp)`,
		key.String(), key.Path, key.ModTime.UnixNano(), total, spill.TableX, spill.TableY)
	if err != nil {
		return fmt.Errorf("recording run %s: %w", key.Path, err)
	}
	return nil
}

func (s *Store) deleteRun(ctx context.Context, runKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM event_summary WHERE run_key = ?", runKey); err != nil {
		return fmt.Errorf("deleting summaries of %s: %w", runKey, err)
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM runs WHERE run_key = ?", runKey); err != nil {
		return fmt.Errorf("deleting run %s: %w", runKey, err)
	}
	return nil
}
