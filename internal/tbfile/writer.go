package tbfile

import (
	"fmt"

	"github.com/jmbenlloch/go-hdf5"

	"github.com/tbeam/tbview/internal/model"
)

// Write stores events and spills in a new readout file, truncating any
// existing file. All events must carry the same number of channels.
func Write(path string, events []*model.Event, spills []model.Spill) error {
	nch := 0
	if len(events) > 0 {
		nch = len(events[0].Channels)
	}
	for i, ev := range events {
		if len(ev.Channels) != nch {
			return fmt.Errorf("event %d has %d channels, want %d", i, len(ev.Channels), nch)
		}
	}

	libMu.Lock()
	defer libMu.Unlock()

	f, err := hdf5.CreateFile(path, hdf5.F_ACC_TRUNC)
	if err != nil {
		return &ErrOpenFile{Filename: path, Err: err}
	}
	defer f.Close()

	for _, name := range []string{groupEvent, groupSpill} {
		g, err := f.CreateGroup(name)
		if err != nil {
			return fmt.Errorf("error creating group %q: %w", name, err)
		}
		g.Close()
	}

	n := uint(len(events))
	waveforms := make([]uint16, 0, len(events)*nch*model.NPadeSamples)
	pedestals := make([]int32, 0, len(events)*nch)
	boards := make([]int32, 0, len(events)*nch)
	channels := make([]int32, 0, len(events)*nch)
	header := make([]int64, 0, len(events)*headerCols)
	wcIndex := make([]int64, 0, len(events)*wcIdxCols)
	var wcHits []int32

	for _, ev := range events {
		for c := range ev.Channels {
			ch := &ev.Channels[c]
			waveforms = append(waveforms, ch.Wform[:]...)
			pedestals = append(pedestals, int32(ch.Pedestal))
			boards = append(boards, int32(ch.BoardID))
			channels = append(channels, int32(ch.ChannelID))
		}
		header = append(header, ev.Number, ev.Timestamp, ev.Spill)
		wcIndex = append(wcIndex, int64(len(wcHits)/wcHitCols), int64(len(ev.WCHits)))
		for _, h := range ev.WCHits {
			wcHits = append(wcHits, int32(h.TDC), int32(h.Channel), int32(h.Time))
		}
	}

	spillInfo := make([]float64, 0, len(spills)*spillCols)
	for _, s := range spills {
		spillInfo = append(spillInfo, float64(s.Number), s.TableX, s.TableY, s.BeamEnergy)
	}

	nch64 := uint(nch)
	if err := writeDataset(f, dsWaveforms, hdf5.T_NATIVE_UINT16, []uint{n, nch64, model.NPadeSamples}, &waveforms); err != nil {
		return err
	}
	if err := writeDataset(f, dsPedestals, hdf5.T_NATIVE_INT32, []uint{n, nch64}, &pedestals); err != nil {
		return err
	}
	if err := writeDataset(f, dsBoards, hdf5.T_NATIVE_INT32, []uint{n, nch64}, &boards); err != nil {
		return err
	}
	if err := writeDataset(f, dsChannels, hdf5.T_NATIVE_INT32, []uint{n, nch64}, &channels); err != nil {
		return err
	}
	if err := writeDataset(f, dsHeader, hdf5.T_NATIVE_INT64, []uint{n, headerCols}, &header); err != nil {
		return err
	}
	if err := writeDataset(f, dsWCIndex, hdf5.T_NATIVE_INT64, []uint{n, wcIdxCols}, &wcIndex); err != nil {
		return err
	}
	if err := writeDataset(f, dsWCHits, hdf5.T_NATIVE_INT32, []uint{uint(len(wcHits) / wcHitCols), wcHitCols}, &wcHits); err != nil {
		return err
	}
	return writeDataset(f, dsSpillInfo, hdf5.T_NATIVE_DOUBLE, []uint{uint(len(spills)), spillCols}, &spillInfo)
}

func writeDataset[T any](f *hdf5.File, name string, dtype *hdf5.Datatype, dims []uint, data *[]T) error {
	space, err := hdf5.CreateSimpleDataspace(dims, nil)
	if err != nil {
		return fmt.Errorf("error creating dataspace for %q: %w", name, err)
	}
	defer space.Close()

	ds, err := f.CreateDataset(name, dtype, space)
	if err != nil {
		return fmt.Errorf("error creating table %q: %w", name, err)
	}
	defer ds.Close()

	// Zero-sized datasets only need to exist.
	if len(*data) == 0 {
		return nil
	}
	if err := ds.Write(data); err != nil {
		return fmt.Errorf("error writing %q: %w", name, err)
	}
	return nil
}
