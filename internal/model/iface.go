package model

import "context"

// EventSource provides random access to the events of one readout file.
type EventSource interface {
	Entries() int
	Read(i int) (*Event, error)
	Info() RunInfo
	Close() error
}

// Cutter finds the next event passing an amplitude threshold.
// Both methods search inclusively from start; found is false when no
// event in the searched range passes.
type Cutter interface {
	NextAbove(ctx context.Context, start int, cut float64) (idx int, found bool, err error)
	PrevAbove(ctx context.Context, start int, cut float64) (idx int, found bool, err error)
}

// EventSummary is the per-event row kept in the event index.
type EventSummary struct {
	Event        int     `json:"event"`
	Number       int64   `json:"number"`
	Timestamp    int64   `json:"timestamp"`
	MaxADC       float64 `json:"max_adc"`
	SumADC       float64 `json:"sum_adc"`
	ChannelsOver int     `json:"channels_over"`
	WCHits       int     `json:"wc_hits"`
}

// RunStats aggregates an indexed run.
type RunStats struct {
	Events     int     `json:"events"`
	MeanMaxADC float64 `json:"mean_max_adc"`
	PeakMaxADC float64 `json:"peak_max_adc"`
	WCHits     int64   `json:"wc_hits"`
}
