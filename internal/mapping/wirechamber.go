package mapping

// Wire chamber readout: 4 chambers, each with an X and a Y plane of 128
// wires; every plane is read by two consecutive 64-channel TDC modules.
const (
	NChambers      = 4
	WiresPerPlane  = 128
	WirePitch      = 1.0 // mm
	tdcsPerChamber = 4
	tdcsPerPlane   = 2
	tdcChannels    = 64
)

// Plane identifies the wire orientation of a chamber plane.
type Plane int

const (
	PlaneX Plane = iota
	PlaneY
)

func (p Plane) String() string {
	if p == PlaneY {
		return "y"
	}
	return "x"
}

// chamberZ is the position of each chamber along the beam, in mm relative to
// the calorimeter center.
var chamberZ = [NChambers]float64{-2400, -1600, -900, -400}

// WCWire locates the wire read by a TDC channel. ok is false for TDC or
// channel numbers outside the readout.
func WCWire(tdc, channel int) (chamber int, plane Plane, wire int, ok bool) {
	if tdc < 1 || tdc > NChambers*tdcsPerChamber || channel < 0 || channel >= tdcChannels {
		return 0, 0, 0, false
	}
	t := tdc - 1
	chamber = t/tdcsPerChamber + 1
	plane = Plane((t / tdcsPerPlane) % 2)
	wire = (t%tdcsPerPlane)*tdcChannels + channel
	return chamber, plane, wire, true
}

// WirePosition returns the transverse coordinate of a wire in mm, centered
// on the beam axis.
func WirePosition(wire int) float64 {
	return (float64(wire) - float64(WiresPerPlane-1)/2) * WirePitch
}

// ChamberZ returns the beam-axis position of chamber (1-based) in mm.
func ChamberZ(chamber int) float64 {
	if chamber < 1 || chamber > NChambers {
		return 0
	}
	return chamberZ[chamber-1]
}
