// Package snapshot writes rendered display pages to disk, one file per
// event, and keeps a YAML manifest of what was written.
package snapshot

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go-hep.org/x/hep/hplot"
	"gopkg.in/yaml.v3"

	"github.com/tbeam/tbview/internal/display"
	"github.com/tbeam/tbview/internal/model"
)

// Format is an output file type.
type Format string

const (
	FormatPDF Format = "pdf"
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

// ManifestName is the manifest file written next to the snapshots.
const ManifestName = "index.yml"

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimPrefix(s, "."))); f {
	case FormatPDF, FormatPNG, FormatSVG:
		return f, nil
	}
	return "", fmt.Errorf("unknown snapshot format %q", s)
}

// RunName derives the run name from a data file path.
func RunName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Entry records one written file.
type Entry struct {
	Page    string    `yaml:"page"`
	Event   int       `yaml:"event"`
	File    string    `yaml:"file"`
	Written time.Time `yaml:"written"`
}

// Manifest lists the snapshots of a run.
type Manifest struct {
	Run     string  `yaml:"run"`
	Source  string  `yaml:"source"`
	Entries []Entry `yaml:"entries"`
}

// Writer saves pages of one run into <base>/pdfs_<run>/.
type Writer struct {
	mu       sync.Mutex
	dir      string
	format   Format
	manifest Manifest
}

// NewWriter prepares the output directory for the run read from source and
// picks up an existing manifest.
func NewWriter(baseDir, source string, format Format) (*Writer, error) {
	run := RunName(source)
	dir := filepath.Join(baseDir, "pdfs_"+run)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	w := &Writer{
		dir:      dir,
		format:   format,
		manifest: Manifest{Run: run, Source: source},
	}
	m, err := LoadManifest(filepath.Join(dir, ManifestName))
	switch {
	case err == nil:
		w.manifest.Entries = m.Entries
	case !errors.Is(err, os.ErrNotExist):
		slog.Warn(fmt.Sprintf("ignoring unreadable snapshot manifest: %v", err), "module", "snapshot")
	}
	return w, nil
}

// Dir returns the output directory.
func (w *Writer) Dir() string { return w.dir }

// Format returns the configured output format.
func (w *Writer) Format() Format { return w.format }

// FileName returns the file name for page at event. The 3D display is
// always written as an image.
func (w *Writer) FileName(pageID string, event int) string {
	ext := w.format
	if strings.HasPrefix(pageID, "3D") {
		ext = FormatPNG
	}
	return fmt.Sprintf("%s%d.%s", pageID, event, ext)
}

// Write renders the current content of page and records it in the
// manifest. It returns the path written.
func (w *Writer) Write(page display.Page, event int, opts *model.Options) (string, error) {
	figs := page.Figures(opts)
	tp, width, height := Render(figs)
	name := w.FileName(page.ID(), event)
	path := filepath.Join(w.dir, name)

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := hplot.Save(tp, width, height, path); err != nil {
		return "", fmt.Errorf("save snapshot %s: %w", name, err)
	}
	w.manifest.Entries = append(w.manifest.Entries, Entry{
		Page:    page.ID(),
		Event:   event,
		File:    name,
		Written: time.Now().UTC().Truncate(time.Second),
	})
	if err := w.saveManifest(); err != nil {
		return path, err
	}
	slog.Info(fmt.Sprintf("snapshot written to %s", path), "module", "snapshot")
	return path, nil
}

// Manifest returns a copy of the manifest.
func (w *Writer) Manifest() Manifest {
	w.mu.Lock()
	defer w.mu.Unlock()
	m := w.manifest
	m.Entries = append([]Entry(nil), w.manifest.Entries...)
	return m
}

func (w *Writer) saveManifest() error {
	data, err := yaml.Marshal(&w.manifest)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	tmp := filepath.Join(w.dir, ManifestName+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(w.dir, ManifestName)); err != nil {
		return fmt.Errorf("replace manifest: %w", err)
	}
	return nil
}

// LoadManifest reads a manifest file.
func LoadManifest(path string) (Manifest, error) {
	var m Manifest
	data, err := os.ReadFile(path)
	if err != nil {
		return m, err
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("decode manifest %s: %w", path, err)
	}
	return m, nil
}
