// Command tbgen writes a simulated test-beam run for trying out tbview
// without detector data.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tbeam/tbview/internal/synth"
	"github.com/tbeam/tbview/internal/tbfile"
)

func main() {
	cfg := synth.DefaultConfig()
	var out string

	flag.StringVar(&out, "o", "run_sim.h5", "output file")
	flag.IntVar(&cfg.Events, "events", cfg.Events, "number of events")
	flag.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "random seed")
	flag.Int64Var(&cfg.Spill, "spill", cfg.Spill, "spill number")
	flag.Float64Var(&cfg.BeamEnergy, "energy", cfg.BeamEnergy, "beam energy in GeV")
	flag.Float64Var(&cfg.EmptyFraction, "empty", cfg.EmptyFraction, "fraction of events without beam")
	flag.Float64Var(&cfg.Amplitude, "amplitude", cfg.Amplitude, "peak amplitude of beam events (ADC)")
	flag.Parse()

	if cfg.Events <= 0 {
		fmt.Fprintln(os.Stderr, "Error: -events must be positive")
		os.Exit(1)
	}

	events, spills := synth.Run(cfg)
	if err := tbfile.Write(out, events, spills); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("wrote %d events to %s\n", len(events), out)
}
