package index

import (
	"fmt"
	"os"
	"time"
)

// RunKey identifies one version of a readout file: the same path with a
// newer modification time is a different run key.
type RunKey struct {
	Path    string
	ModTime time.Time
}

// KeyFor stats path and returns its key.
func KeyFor(path string) (RunKey, error) {
	st, err := os.Stat(path)
	if err != nil {
		return RunKey{}, err
	}
	return RunKey{Path: path, ModTime: st.ModTime()}, nil
}

func (k RunKey) String() string {
	return fmt.Sprintf("%s@%d", k.Path, k.ModTime.UnixNano())
}

// RunRecord is one indexed run.
type RunRecord struct {
	Key       string    `json:"key"`
	Path      string    `json:"path"`
	Entries   int       `json:"entries"`
	TableX    float64   `json:"table_x"`
	TableY    float64   `json:"table_y"`
	IndexedAt time.Time `json:"indexed_at"`
}
