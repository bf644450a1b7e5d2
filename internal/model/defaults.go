package model

import "time"

// Shared defaults used by the viewer binary and its packages.
const (
	DefaultADCCut       = 500
	DefaultPlayerDelay  = 1 * time.Second
	MinPlayerDelay      = 1 * time.Second
	CycleDelayFactor    = 5
	DefaultZSPSigma     = 1.0
	DefaultNoiseSamples = 20
	DefaultWCTimeWindow = 20
	DefaultWCTimeMean   = 100
	DefaultSkin         = "default"
)

// DefaultBoards are the PADE boards of the test-beam readout.
var DefaultBoards = []int{112, 113, 115, 116}
