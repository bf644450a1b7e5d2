package tbfile

import (
	"errors"
	"fmt"
)

// ErrEventOutOfRange is returned when reading an index outside [0, Entries()).
var ErrEventOutOfRange = errors.New("tbfile: event index out of range")

// ErrOpenFile represents an error when opening a readout file.
type ErrOpenFile struct {
	Filename string
	Err      error
}

func (e *ErrOpenFile) Error() string {
	return fmt.Sprintf("error opening file %q: %v", e.Filename, e.Err)
}

func (e *ErrOpenFile) Unwrap() error { return e.Err }

// ErrMissingDataset represents a dataset absent from the readout file.
type ErrMissingDataset struct {
	Name string
	Err  error
}

func (e *ErrMissingDataset) Error() string {
	return fmt.Sprintf("can't read dataset %q: %v", e.Name, e.Err)
}

func (e *ErrMissingDataset) Unwrap() error { return e.Err }

// ErrShape represents a dataset whose dimensions do not match the layout.
type ErrShape struct {
	Name string
	Dims []uint
}

func (e *ErrShape) Error() string {
	return fmt.Sprintf("dataset %q has unexpected dimensions %v", e.Name, e.Dims)
}
