package mapping

import (
	"fmt"
	"slices"
)

// Calorimeter geometry: a 4x4 array of shashlik modules, four fibers per
// module, read out at both the upstream and the downstream end.
const (
	ModulesPerSide  = 16
	ModuleGrid      = 4
	FibersPerModule = 4
	ModulePitch     = 14.0 // mm
	UpstreamZ       = -150.0
	DownstreamZ     = 150.0
)

// Mapper translates between readout addresses and detector positions.
type Mapper struct {
	boards    []int
	indexToID map[int]int
	idToIndex map[int]int
}

// New builds the default test-beam mapping for the given boards in slot
// order. Slots 0 and 1 read the downstream end, slots 2 and 3 the upstream end.
func New(boards []int) *Mapper {
	m := &Mapper{
		boards:    append([]int(nil), boards...),
		indexToID: make(map[int]int),
		idToIndex: make(map[int]int),
	}
	for slot := range m.boards {
		for ch := 0; ch < channelsPerBoard; ch++ {
			index := slot*channelsPerBoard + ch
			module, fiber := m.slotChannelToFiber(slot, ch)
			id := FiberID(module, fiber)
			m.indexToID[index] = id
			m.idToIndex[id] = index
		}
	}
	return m
}

const channelsPerBoard = 32

// FiberID returns the channel ID of a fiber: |module|*100 + fiber, negated
// for the upstream end.
func FiberID(module, fiber int) int {
	if module < 0 {
		return module*100 - fiber
	}
	return module*100 + fiber
}

// Boards returns the board IDs in slot order.
func (m *Mapper) Boards() []int { return append([]int(nil), m.boards...) }

func (m *Mapper) slot(boardID int) int {
	return slices.Index(m.boards, boardID)
}

func (m *Mapper) slotChannelToFiber(slot, channelID int) (module, fiber int) {
	module = (slot%2)*(ModulesPerSide/2) + channelID/FibersPerModule + 1
	fiber = channelID%FibersPerModule + 1
	if slot >= 2 {
		module = -module
	}
	return module, fiber
}

// Pade2Fiber returns the module (negative upstream) and fiber (1..4) read by
// a board channel. Unknown boards map to module 0.
func (m *Mapper) Pade2Fiber(boardID, channelID int) (module, fiber int) {
	slot := m.slot(boardID)
	if slot < 0 || channelID < 0 || channelID >= channelsPerBoard {
		return 0, 0
	}
	return m.slotChannelToFiber(slot, channelID)
}

// ModuleXY returns the 1-based grid column and row of a module.
func ModuleXY(module int) (x, y int) {
	a := module
	if a < 0 {
		a = -a
	}
	if a == 0 {
		return 0, 0
	}
	return (a-1)%ModuleGrid + 1, (a-1)/ModuleGrid + 1
}

// FiberXY returns the position of fiberID (module*100 + fiber) in module
// grid units; each fiber sits at a quarter of the module cell.
func FiberXY(fiberID int) (x, y float64) {
	module := fiberID / 100
	fiber := fiberID % 100
	if fiber < 0 {
		fiber = -fiber
	}
	xm, ym := ModuleXY(module)
	if xm == 0 || fiber < 1 || fiber > FibersPerModule {
		return 0, 0
	}
	x = float64(xm) - 0.25 + 0.5*float64((fiber-1)%2)
	y = float64(ym) - 0.25 + 0.5*float64((fiber-1)/2)
	return x, y
}

// ChannelIndex2ChannelID converts a global channel index to its fiber ID.
func (m *Mapper) ChannelIndex2ChannelID(index int) (int, bool) {
	id, ok := m.indexToID[index]
	return id, ok
}

// ChannelID2ChannelIndex is the inverse of ChannelIndex2ChannelID.
func (m *Mapper) ChannelID2ChannelIndex(id int) (int, bool) {
	index, ok := m.idToIndex[id]
	return index, ok
}

// ChannelXYZ returns the position in mm of the fiber read by channel ID.
func ChannelXYZ(channelID int) (x, y, z float64) {
	xf, yf := FiberXY(channelID)
	center := float64(ModuleGrid+1) / 2
	x = (xf - center) * ModulePitch
	y = (yf - center) * ModulePitch
	z = DownstreamZ
	if channelID < 0 {
		z = UpstreamZ
	}
	return x, y, z
}

// IndexXYZ returns the position of a global channel index.
func (m *Mapper) IndexXYZ(index int) (x, y, z float64, ok bool) {
	id, ok := m.indexToID[index]
	if !ok {
		return 0, 0, 0, false
	}
	x, y, z = ChannelXYZ(id)
	return x, y, z, true
}

// override replaces the index/ID table, used by the database loader.
func (m *Mapper) override(pairs map[int]int) error {
	if len(pairs) == 0 {
		return fmt.Errorf("mapping: empty channel table")
	}
	m.indexToID = make(map[int]int, len(pairs))
	m.idToIndex = make(map[int]int, len(pairs))
	for index, id := range pairs {
		if prev, dup := m.idToIndex[id]; dup {
			return fmt.Errorf("mapping: channel ID %d mapped by indices %d and %d", id, prev, index)
		}
		m.indexToID[index] = id
		m.idToIndex[id] = index
	}
	return nil
}
