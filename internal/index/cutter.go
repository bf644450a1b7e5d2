package index

import (
	"context"

	"github.com/tbeam/tbview/internal/model"
)

// Cutter answers cut searches of one run from the index.
type Cutter struct {
	store *Store
	key   RunKey
}

var _ model.Cutter = (*Cutter)(nil)

// Cutter returns the cut lookup of run key.
func (s *Store) Cutter(key RunKey) *Cutter {
	return &Cutter{store: s, key: key}
}

func (c *Cutter) NextAbove(ctx context.Context, start int, cut float64) (int, bool, error) {
	return c.store.NextAbove(ctx, c.key, start, cut)
}

func (c *Cutter) PrevAbove(ctx context.Context, start int, cut float64) (int, bool, error) {
	return c.store.PrevAbove(ctx, c.key, start, cut)
}
