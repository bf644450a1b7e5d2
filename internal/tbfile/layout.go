package tbfile

// Dataset paths of the HDF5 readout layout.
const (
	groupEvent = "tbevent"
	groupSpill = "tbspill"

	dsWaveforms = "/tbevent/waveforms" // uint16 [events, channels, samples]
	dsPedestals = "/tbevent/pedestals" // int32  [events, channels]
	dsBoards    = "/tbevent/boards"    // int32  [events, channels]
	dsChannels  = "/tbevent/channels"  // int32  [events, channels]
	dsHeader    = "/tbevent/header"    // int64  [events, 3] number, timestamp, spill
	dsWCIndex   = "/tbevent/wc_index"  // int64  [events, 2] offset, count
	dsWCHits    = "/tbevent/wc_hits"   // int32  [hits, 3] tdc, channel, time
	dsSpillInfo = "/tbspill/info"      // float64 [spills, 4] number, table x, table y, energy
)

const (
	headerCols = 3
	wcIdxCols  = 2
	wcHitCols  = 3
	spillCols  = 4
)
