package tbfile

import (
	"fmt"
	"log/slog"
	"maps"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/jmbenlloch/go-hdf5"

	"github.com/tbeam/tbview/internal/model"
)

// The HDF5 library is built without thread safety; every call into it
// holds libMu, so separate Readers may be used from separate goroutines.
var libMu sync.Mutex

// Reader gives random access to the events of one HDF5 readout file.
type Reader struct {
	path    string
	modTime time.Time
	file    *hdf5.File

	waveforms *hdf5.Dataset
	pedestals *hdf5.Dataset
	boards    *hdf5.Dataset
	channels  *hdf5.Dataset
	wcHits    *hdf5.Dataset

	header  []int64
	wcIndex []int64

	nevents   int
	nchannels int
	info      model.RunInfo
}

var _ model.EventSource = (*Reader)(nil)

// Open opens a readout file and loads the per-run metadata.
func Open(path string) (*Reader, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, &ErrOpenFile{Filename: path, Err: err}
	}

	libMu.Lock()
	defer libMu.Unlock()

	f, err := hdf5.OpenFile(path, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, &ErrOpenFile{Filename: path, Err: err}
	}

	r := &Reader{path: path, modTime: st.ModTime(), file: f}
	if err := r.load(); err != nil {
		r.close()
		return nil, err
	}

	slog.Info(fmt.Sprintf("opened %s: %d events, %d channels, boards %v",
		path, r.nevents, r.nchannels, r.info.BoardIDs), "module", "tbfile")
	return r, nil
}

func (r *Reader) openDataset(name string) (*hdf5.Dataset, error) {
	ds, err := r.file.OpenDataset(name)
	if err != nil {
		return nil, &ErrMissingDataset{Name: name, Err: err}
	}
	return ds, nil
}

func (r *Reader) load() error {
	var err error
	if r.waveforms, err = r.openDataset(dsWaveforms); err != nil {
		return err
	}
	if r.pedestals, err = r.openDataset(dsPedestals); err != nil {
		return err
	}
	if r.boards, err = r.openDataset(dsBoards); err != nil {
		return err
	}
	if r.channels, err = r.openDataset(dsChannels); err != nil {
		return err
	}
	if r.wcHits, err = r.openDataset(dsWCHits); err != nil {
		return err
	}

	dims, err := datasetDims(r.waveforms)
	if err != nil {
		return &ErrMissingDataset{Name: dsWaveforms, Err: err}
	}
	if len(dims) != 3 || dims[2] != model.NPadeSamples {
		return &ErrShape{Name: dsWaveforms, Dims: dims}
	}
	r.nevents = int(dims[0])
	r.nchannels = int(dims[1])

	header, err := r.openDataset(dsHeader)
	if err != nil {
		return err
	}
	defer header.Close()
	if r.header, err = readRows[int64](header, 0, uint(r.nevents)); err != nil {
		return fmt.Errorf("reading %s: %w", dsHeader, err)
	}

	wcIndex, err := r.openDataset(dsWCIndex)
	if err != nil {
		return err
	}
	defer wcIndex.Close()
	if r.wcIndex, err = readRows[int64](wcIndex, 0, uint(r.nevents)); err != nil {
		return fmt.Errorf("reading %s: %w", dsWCIndex, err)
	}

	spill, err := r.readSpill()
	if err != nil {
		return err
	}

	boards, err := r.readBoardIDs()
	if err != nil {
		return err
	}

	r.info = model.RunInfo{
		Path:     r.path,
		Entries:  r.nevents,
		Spill:    spill,
		BoardIDs: boards,
	}
	return nil
}

// readSpill returns the spill of the first event, or the first spill row
// when the event's spill is not listed.
func (r *Reader) readSpill() (model.Spill, error) {
	ds, err := r.openDataset(dsSpillInfo)
	if err != nil {
		return model.Spill{}, err
	}
	defer ds.Close()

	dims, err := datasetDims(ds)
	if err != nil {
		return model.Spill{}, &ErrMissingDataset{Name: dsSpillInfo, Err: err}
	}
	if len(dims) != 2 || dims[1] != spillCols {
		return model.Spill{}, &ErrShape{Name: dsSpillInfo, Dims: dims}
	}
	rows, err := readRows[float64](ds, 0, dims[0])
	if err != nil {
		return model.Spill{}, fmt.Errorf("reading %s: %w", dsSpillInfo, err)
	}
	if len(rows) == 0 {
		return model.Spill{}, nil
	}

	want := int64(-1)
	if r.nevents > 0 {
		want = r.header[2]
	}
	pick := rows[:spillCols]
	for i := 0; i+spillCols <= len(rows); i += spillCols {
		if int64(rows[i]) == want {
			pick = rows[i : i+spillCols]
			break
		}
	}
	return model.Spill{
		Number:     int64(pick[0]),
		TableX:     pick[1],
		TableY:     pick[2],
		BeamEnergy: pick[3],
	}, nil
}

func (r *Reader) readBoardIDs() ([]int, error) {
	if r.nevents == 0 {
		return nil, nil
	}
	ids, err := readRows[int32](r.boards, 0, 1)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dsBoards, err)
	}
	seen := make(map[int]struct{}, 4)
	for _, id := range ids {
		seen[int(id)] = struct{}{}
	}
	return slices.Sorted(maps.Keys(seen)), nil
}

// Entries returns the number of events in the file.
func (r *Reader) Entries() int { return r.nevents }

// Info returns the run metadata read at open time.
func (r *Reader) Info() model.RunInfo { return r.info }

// Spill returns the spill of the first event.
func (r *Reader) Spill() model.Spill { return r.info.Spill }

// Path returns the file path.
func (r *Reader) Path() string { return r.path }

// ModTime returns the file modification time observed at open.
func (r *Reader) ModTime() time.Time { return r.modTime }

// Read fetches event i.
func (r *Reader) Read(i int) (*model.Event, error) {
	if i < 0 || i >= r.nevents {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrEventOutOfRange, i, r.nevents)
	}
	row := uint(i)

	libMu.Lock()
	defer libMu.Unlock()

	wf, err := readRows[uint16](r.waveforms, row, 1)
	if err != nil {
		return nil, fmt.Errorf("reading waveforms of event %d: %w", i, err)
	}
	peds, err := readRows[int32](r.pedestals, row, 1)
	if err != nil {
		return nil, fmt.Errorf("reading pedestals of event %d: %w", i, err)
	}
	boards, err := readRows[int32](r.boards, row, 1)
	if err != nil {
		return nil, fmt.Errorf("reading boards of event %d: %w", i, err)
	}
	chans, err := readRows[int32](r.channels, row, 1)
	if err != nil {
		return nil, fmt.Errorf("reading channels of event %d: %w", i, err)
	}

	ev := &model.Event{
		Number:    r.header[i*headerCols],
		Timestamp: r.header[i*headerCols+1],
		Spill:     r.header[i*headerCols+2],
		Channels:  make([]model.PadeChannel, r.nchannels),
	}
	for c := 0; c < r.nchannels; c++ {
		ch := &ev.Channels[c]
		ch.BoardID = int(boards[c])
		ch.ChannelID = int(chans[c])
		ch.Index = c
		ch.Pedestal = int(peds[c])
		copy(ch.Wform[:], wf[c*model.NPadeSamples:(c+1)*model.NPadeSamples])
	}

	offset, count := r.wcIndex[i*wcIdxCols], r.wcIndex[i*wcIdxCols+1]
	if count > 0 {
		hits, err := readRows[int32](r.wcHits, uint(offset), uint(count))
		if err != nil {
			return nil, fmt.Errorf("reading wire chamber hits of event %d: %w", i, err)
		}
		ev.WCHits = make([]model.WCHit, 0, count)
		for h := 0; h+wcHitCols <= len(hits); h += wcHitCols {
			ev.WCHits = append(ev.WCHits, model.WCHit{
				TDC:     int(hits[h]),
				Channel: int(hits[h+1]),
				Time:    int(hits[h+2]),
			})
		}
	}
	return ev, nil
}

// Close releases the datasets and the file handle.
func (r *Reader) Close() error {
	libMu.Lock()
	defer libMu.Unlock()
	return r.close()
}

func (r *Reader) close() error {
	for _, ds := range []*hdf5.Dataset{r.waveforms, r.pedestals, r.boards, r.channels, r.wcHits} {
		if ds != nil {
			ds.Close()
		}
	}
	r.waveforms, r.pedestals, r.boards, r.channels, r.wcHits = nil, nil, nil, nil, nil
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

func datasetDims(ds *hdf5.Dataset) ([]uint, error) {
	space := ds.Space()
	defer space.Close()
	dims, _, err := space.SimpleExtentDims()
	return dims, err
}

// readRows reads count rows starting at row along the first dimension,
// keeping every trailing dimension whole.
func readRows[T any](ds *hdf5.Dataset, row, count uint) ([]T, error) {
	if count == 0 {
		return nil, nil
	}
	filespace := ds.Space()
	defer filespace.Close()

	dims, _, err := filespace.SimpleExtentDims()
	if err != nil {
		return nil, err
	}
	if len(dims) == 0 || row+count > dims[0] {
		return nil, fmt.Errorf("%w: rows [%d, %d) of %v", ErrEventOutOfRange, row, row+count, dims)
	}

	start := make([]uint, len(dims))
	span := append([]uint(nil), dims...)
	start[0] = row
	span[0] = count
	if err := filespace.SelectHyperslab(start, nil, span, nil); err != nil {
		return nil, err
	}

	memspace, err := hdf5.CreateSimpleDataspace(span, nil)
	if err != nil {
		return nil, err
	}
	defer memspace.Close()

	n := 1
	for _, d := range span {
		n *= int(d)
	}
	buf := make([]T, n)
	if err := ds.ReadSubset(&buf, memspace, filespace); err != nil {
		return nil, err
	}
	return buf, nil
}
