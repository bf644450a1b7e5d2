// Package calib loads the per-channel wire-chamber timing means used to
// select in-time hits.
package calib

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Key addresses one TDC channel.
type Key struct {
	TDC     int
	Channel int
}

// Mean is the calibrated hit time of a channel.
type Mean struct {
	Mean  float64
	Sigma float64
}

// Means holds the calibration table. The zero value is an empty table that
// answers every lookup with the default mean.
type Means struct {
	Default float64
	Window  float64
	values  map[Key]Mean
}

// New returns an empty table with the given default mean and in-time window.
func New(defaultMean, window float64) *Means {
	return &Means{Default: defaultMean, Window: window, values: make(map[Key]Mean)}
}

// Load reads path into a table. A missing file yields an empty table so the
// viewer runs uncalibrated.
func Load(path string, defaultMean, window float64) (*Means, error) {
	m := New(defaultMean, window)
	if path == "" {
		return m, nil
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Warn(fmt.Sprintf("calibration file %s not found, using default mean %.1f", path, defaultMean), "module", "calib")
		return m, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error opening calibration file: %w", err)
	}
	defer f.Close()

	if err := m.Parse(f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	slog.Info(fmt.Sprintf("loaded %d calibration means from %s", m.Len(), path), "module", "calib")
	return m, nil
}

// Parse reads lines of "tdc channel mean [sigma]". Blank lines and text after
// '#' are ignored.
func (m *Means) Parse(r io.Reader) error {
	if m.values == nil {
		m.values = make(map[Key]Mean)
	}
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 3 || len(fields) > 4 {
			return fmt.Errorf("line %d: want 3 or 4 fields, got %d", line, len(fields))
		}
		tdc, err := strconv.Atoi(fields[0])
		if err != nil {
			return fmt.Errorf("line %d: tdc: %w", line, err)
		}
		ch, err := strconv.Atoi(fields[1])
		if err != nil {
			return fmt.Errorf("line %d: channel: %w", line, err)
		}
		mean, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return fmt.Errorf("line %d: mean: %w", line, err)
		}
		var sigma float64
		if len(fields) == 4 {
			if sigma, err = strconv.ParseFloat(fields[3], 64); err != nil {
				return fmt.Errorf("line %d: sigma: %w", line, err)
			}
		}
		m.values[Key{TDC: tdc, Channel: ch}] = Mean{Mean: mean, Sigma: sigma}
	}
	return sc.Err()
}

// Len returns the number of calibrated channels.
func (m *Means) Len() int { return len(m.values) }

// Lookup returns the mean of a channel, falling back to the default.
func (m *Means) Lookup(tdc, channel int) float64 {
	if v, ok := m.values[Key{TDC: tdc, Channel: channel}]; ok {
		return v.Mean
	}
	return m.Default
}

// InTime reports whether a hit time falls within the window around the
// channel mean.
func (m *Means) InTime(tdc, channel, time int) bool {
	d := float64(time) - m.Lookup(tdc, channel)
	if d < 0 {
		d = -d
	}
	return d <= m.Window
}
