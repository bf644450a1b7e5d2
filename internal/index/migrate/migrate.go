// Package migrate keeps the event index schema current. The index only
// caches summaries of readout files, so a schema this build does not know
// is dropped and recreated instead of repaired.
package migrate

import (
	"cmp"
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strconv"
	"strings"
)

//go:embed migrations/*.sql
var files embed.FS

// ErrNewerSchema is returned when the index was written by a build with
// more migrations than this one.
var ErrNewerSchema = errors.New("index schema is newer than this build")

// Tables created by the migrations, dropped by Reset in reverse order.
var tables = []string{"runs", "event_summary"}

// step is one versioned schema change split into single statements.
type step struct {
	version int
	name    string
	stmts   []string
}

// Runner applies the embedded schema steps to an index database.
type Runner struct {
	db    *sql.DB
	steps []step
}

// NewRunner creates a migration runner for the given database connection.
func NewRunner(db *sql.DB) *Runner {
	return &Runner{db: db}
}

func parseStep(name string, data []byte) (step, bool, error) {
	prefix, _, ok := strings.Cut(name, "_")
	if !ok || path.Ext(name) != ".sql" {
		return step{}, false, nil
	}
	v, err := strconv.Atoi(prefix)
	if err != nil {
		return step{}, false, fmt.Errorf("migration %s: bad version: %w", name, err)
	}
	st := step{version: v, name: name}
	for _, s := range strings.Split(string(data), ";") {
		if s = strings.TrimSpace(s); s != "" {
			st.stmts = append(st.stmts, s)
		}
	}
	return st, true, nil
}

func (r *Runner) load() ([]step, error) {
	if r.steps != nil {
		return r.steps, nil
	}
	entries, err := fs.ReadDir(files, "migrations")
	if err != nil {
		return nil, fmt.Errorf("reading embedded migrations: %w", err)
	}
	var steps []step
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := files.ReadFile("migrations/" + e.Name())
		if err != nil {
			return nil, err
		}
		st, ok, err := parseStep(e.Name(), data)
		if err != nil {
			return nil, err
		}
		if ok {
			steps = append(steps, st)
		}
	}
	slices.SortFunc(steps, func(a, b step) int { return cmp.Compare(a.version, b.version) })
	r.steps = steps
	return steps, nil
}

func (r *Runner) applied(ctx context.Context) (int, error) {
	if _, err := r.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		name       VARCHAR NOT NULL,
		applied_at TIMESTAMP DEFAULT current_timestamp
	)`); err != nil {
		return 0, fmt.Errorf("creating schema_migrations: %w", err)
	}
	var v sql.NullInt64
	if err := r.db.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_migrations").Scan(&v); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return int(v.Int64), nil
}

// Run brings the schema to the latest embedded version. It fails with
// ErrNewerSchema when the database is ahead of this build.
func (r *Runner) Run(ctx context.Context) error {
	steps, err := r.load()
	if err != nil {
		return err
	}
	current, err := r.applied(ctx)
	if err != nil {
		return err
	}
	if n := len(steps); n > 0 && current > steps[n-1].version {
		return fmt.Errorf("%w: version %d, latest known %d", ErrNewerSchema, current, steps[n-1].version)
	}
	for _, st := range steps {
		if st.version > current {
			if err := r.apply(ctx, st); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Runner) apply(ctx context.Context, st step) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migration %s: %w", st.name, err)
	}
	defer tx.Rollback()

	for _, s := range st.stmts {
		if _, err := tx.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("migration %s: %w", st.name, err)
		}
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version, name) VALUES (?, ?)", st.version, st.name); err != nil {
		return fmt.Errorf("recording migration %s: %w", st.name, err)
	}
	return tx.Commit()
}

// Reset drops the index tables and the migration record, then runs every
// step again. Indexed runs are lost and rebuilt on their next open.
func (r *Runner) Reset(ctx context.Context) error {
	for _, t := range slices.Backward(tables) {
		if _, err := r.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+t); err != nil {
			return fmt.Errorf("dropping %s: %w", t, err)
		}
	}
	if _, err := r.db.ExecContext(ctx, "DROP TABLE IF EXISTS schema_migrations"); err != nil {
		return fmt.Errorf("dropping schema_migrations: %w", err)
	}
	return r.Run(ctx)
}

// Status returns the applied version and the number of pending steps.
func (r *Runner) Status(ctx context.Context) (current, pending int, err error) {
	steps, err := r.load()
	if err != nil {
		return 0, 0, err
	}
	if current, err = r.applied(ctx); err != nil {
		return 0, 0, err
	}
	for _, st := range steps {
		if st.version > current {
			pending++
		}
	}
	return current, pending, nil
}
