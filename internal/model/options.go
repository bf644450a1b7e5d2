package model

// Options is the flat toggle bag mutated by the shell and read by every
// display page. It is owned by the viewer model and never shared across
// goroutines; background jobs receive a copy.
type Options struct {
	Accumulate bool

	EventNumber  int
	Filename     string
	TableX       float64
	TableY       float64
	BoardNumbers []int

	// Per-board trace visibility; boards missing from the map are shown.
	HiddenBoards map[int]bool

	WCShowInTime  bool
	WCShowQuality bool

	FADCShowRecHits bool
	FADCShowAllHits bool

	Show3DWC1       bool
	Show3DWC2       bool
	IsolateClusters bool

	ZSPSigma float64 // zero suppression threshold in noise sigmas
}

// NewOptions returns the start-up option set.
func NewOptions() *Options {
	return &Options{
		EventNumber:     -1,
		HiddenBoards:    make(map[int]bool),
		WCShowInTime:    true,
		WCShowQuality:   true,
		FADCShowAllHits: true,
		Show3DWC1:       true,
		Show3DWC2:       true,
		ZSPSigma:        DefaultZSPSigma,
	}
}

// BoardVisible reports whether traces of board id are drawn.
func (o *Options) BoardVisible(id int) bool {
	return !o.HiddenBoards[id]
}

// ToggleBoard flips the visibility of board id.
func (o *Options) ToggleBoard(id int) {
	if o.HiddenBoards == nil {
		o.HiddenBoards = make(map[int]bool)
	}
	o.HiddenBoards[id] = !o.HiddenBoards[id]
}

// Clone returns a deep copy for use off the UI goroutine.
func (o *Options) Clone() *Options {
	c := *o
	c.BoardNumbers = append([]int(nil), o.BoardNumbers...)
	c.HiddenBoards = make(map[int]bool, len(o.HiddenBoards))
	for k, v := range o.HiddenBoards {
		c.HiddenBoards[k] = v
	}
	return &c
}
