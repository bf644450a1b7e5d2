// Package index keeps per-event summaries of opened runs in DuckDB so cut
// searches and run statistics do not re-read the readout file.
package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tbeam/tbview/internal/index/migrate"
)

// Store manages the DuckDB connection holding the event index.
type Store struct {
	db           *sql.DB
	mu           sync.RWMutex
	dbPath       string
	QueryTimeout time.Duration

	// building holds one slot per run key; Build takes it for its whole
	// duration so builds of the same run never overlap.
	buildMu  sync.Mutex
	building map[string]chan struct{}
}

// NewStore opens or creates an index database. An empty dbPath keeps the
// index in memory. queryTimeout defaults to 30s.
func NewStore(dbPath string, queryTimeout ...time.Duration) (*Store, error) {
	dsn := ""
	if dbPath != "" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, err
		}
		dsn = dbPath
	}

	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("open index %q: %w", dbPath, err)
	}

	runner := migrate.NewRunner(db)
	err = runner.Run(context.Background())
	if errors.Is(err, migrate.ErrNewerSchema) {
		slog.Warn(fmt.Sprintf("rebuilding index %s: %v", dbPath, err), "module", "index")
		err = runner.Reset(context.Background())
	}
	if err != nil {
		db.Close()
		return nil, err
	}

	qt := 30 * time.Second
	if len(queryTimeout) > 0 && queryTimeout[0] > 0 {
		qt = queryTimeout[0]
	}

	return &Store{
		db:           db,
		dbPath:       dbPath,
		QueryTimeout: qt,
		building:     make(map[string]chan struct{}),
	}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DBPath returns the database path; empty means in-memory.
func (s *Store) DBPath() string {
	return s.dbPath
}
