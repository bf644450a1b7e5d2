package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tbeam/tbview/internal/model"
)

// ErrNotIndexed is returned by per-run queries for a run without index rows.
var ErrNotIndexed = errors.New("index: run not indexed")

// queryCtx bounds a query by the store timeout and the caller context.
func (s *Store) queryCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.QueryTimeout)
}

// Run returns the record of an indexed run.
func (s *Store) Run(ctx context.Context, key RunKey) (RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	var r RunRecord
	err := s.db.QueryRowContext(ctx, `SELECT run_key, path, entries, table_x, table_y, indexed_at
		FROM runs WHERE run_key = ?`, key.String()).
		Scan(&r.Key, &r.Path, &r.Entries, &r.TableX, &r.TableY, &r.IndexedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, false, nil
	}
	if err != nil {
		return RunRecord{}, false, fmt.Errorf("looking up run %s: %w", key.Path, err)
	}
	return r, true, nil
}

// Runs lists indexed runs, most recent first.
func (s *Store) Runs(ctx context.Context) ([]RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `SELECT run_key, path, entries, table_x, table_y, indexed_at
		FROM runs ORDER BY indexed_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var r RunRecord
		if err := rows.Scan(&r.Key, &r.Path, &r.Entries, &r.TableX, &r.TableY, &r.IndexedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// NextAbove returns the first event at or after start with max ADC >= cut.
func (s *Store) NextAbove(ctx context.Context, key RunKey, start int, cut float64) (int, bool, error) {
	return s.findAbove(ctx, `SELECT MIN(event) FROM event_summary
		WHERE run_key = ? AND event >= ? AND max_adc >= ?`, key, start, cut)
}

// PrevAbove returns the last event at or before start with max ADC >= cut.
func (s *Store) PrevAbove(ctx context.Context, key RunKey, start int, cut float64) (int, bool, error) {
	return s.findAbove(ctx, `SELECT MAX(event) FROM event_summary
		WHERE run_key = ? AND event <= ? AND max_adc >= ?`, key, start, cut)
}

func (s *Store) findAbove(ctx context.Context, query string, key RunKey, start int, cut float64) (int, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	var idx sql.NullInt64
	if err := s.db.QueryRowContext(ctx, query, key.String(), start, cut).Scan(&idx); err != nil {
		return 0, false, fmt.Errorf("cut search in %s: %w", key.Path, err)
	}
	if !idx.Valid {
		return 0, false, nil
	}
	return int(idx.Int64), true, nil
}

const summaryColumns = `event, number, ts, max_adc, sum_adc, n_channels_over, n_wc_hits`

func scanSummary(sc interface{ Scan(...any) error }) (model.EventSummary, error) {
	var r model.EventSummary
	err := sc.Scan(&r.Event, &r.Number, &r.Timestamp, &r.MaxADC, &r.SumADC, &r.ChannelsOver, &r.WCHits)
	return r, err
}

// Summary returns the index row of event i.
func (s *Store) Summary(ctx context.Context, key RunKey, i int) (model.EventSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	row := s.db.QueryRowContext(ctx, `SELECT `+summaryColumns+`
		FROM event_summary WHERE run_key = ? AND event = ?`, key.String(), i)
	r, err := scanSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.EventSummary{}, fmt.Errorf("event %d: %w", i, ErrNotIndexed)
	}
	return r, err
}

// List returns up to limit events with max ADC >= minADC in event order.
func (s *Store) List(ctx context.Context, key RunKey, minADC float64, limit int) ([]model.EventSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `SELECT `+summaryColumns+`
		FROM event_summary WHERE run_key = ? AND max_adc >= ?
		ORDER BY event LIMIT ?`, key.String(), minADC, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.EventSummary
	for rows.Next() {
		r, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Stats aggregates the indexed events of a run.
func (s *Store) Stats(ctx context.Context, key RunKey) (model.RunStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	var (
		st         model.RunStats
		mean, peak sql.NullFloat64
		hits       sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*), AVG(max_adc), MAX(max_adc), SUM(n_wc_hits)
		FROM event_summary WHERE run_key = ?`, key.String()).Scan(&st.Events, &mean, &peak, &hits)
	if err != nil {
		return model.RunStats{}, err
	}
	if st.Events == 0 {
		return model.RunStats{}, ErrNotIndexed
	}
	st.MeanMaxADC = mean.Float64
	st.PeakMaxADC = peak.Float64
	st.WCHits = hits.Int64
	return st, nil
}

// PruneRuns drops every run indexed before cutoff, keeping at least the
// keep most recent ones. It returns the number of runs removed.
func (s *Store) PruneRuns(ctx context.Context, keep int, cutoff time.Time) (int, error) {
	runs, err := s.Runs(ctx)
	if err != nil {
		return 0, err
	}
	removed := 0
	for i, r := range runs {
		if i < keep || !r.IndexedAt.Before(cutoff) {
			continue
		}
		if err := s.deleteRun(ctx, r.Key); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
