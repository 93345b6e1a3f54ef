package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Mikea1985/reboundx"
)

// NOTE: This tool reproduces the classic ephemeris forces driver: read the labelled
// initial conditions file, integrate its particles under the pull of the configured
// number of ephemeris bodies, and write the dense output table.

/* === CONFIG === */
var (
	condFile  string
	numBodies int
	outName   string
	asCSV     bool
	cosmo     bool
	compress  bool
)

/* ===  END  === */

func init() {
	// Read flags
	flag.StringVar(&condFile, "conditions", "initial_conditions.txt", "path to the initial conditions file")
	flag.IntVar(&numBodies, "bodies", len(reboundx.ForceBodies), "number of perturbing bodies, counted in the fixed force order")
	flag.StringVar(&outName, "name", "run", "name tag of the output files")
	flag.BoolVar(&asCSV, "csv", false, "also write all samples to a CSV file")
	flag.BoolVar(&cosmo, "cosmo", false, "also write Cosmographia xyzv files and their catalog")
	flag.BoolVar(&compress, "compress", false, "zstd compress the trajectory files")
}

func main() {
	flag.Parse()
	scenario, err := reboundx.ReadScenario(condFile)
	if err != nil {
		fmt.Printf("%s\n", err)
		os.Exit(1)
	}
	if len(scenario.States) == 0 {
		fmt.Printf("no particle states in %s\n", condFile)
		os.Exit(1)
	}
	if scenario.TStep <= 0 || scenario.TRange <= 0 {
		fmt.Printf("%s must set positive tstep and trange\n", condFile)
		os.Exit(1)
	}

	eph, err := reboundx.OpenConfiguredEphemeris()
	if err != nil {
		fmt.Printf("could not open the ephemeris: %s\n", err)
		os.Exit(1)
	}
	defer eph.Close()
	fmt.Printf("%s\n", eph)

	forces, err := reboundx.NewEphemerisForces(eph, numBodies)
	if err != nil {
		fmt.Printf("%s\n", err)
		os.Exit(1)
	}

	particles := scenario.Particles()
	conf := reboundx.ExportConfig{Filename: outName, AsTxt: true, AsCSV: asCSV, Cosmo: cosmo, Compress: compress}
	if scenario.Geocentric {
		// Inputs are relative to the geocenter: shift them to the
		// barycenter for the integration, and shift every output row
		// back using the Earth state at the row's own time.
		earth0, err := eph.StateOf(reboundx.Earth, scenario.TStart)
		if err != nil {
			fmt.Printf("%s\n", err)
			os.Exit(1)
		}
		for _, p := range particles {
			for i := 0; i < 3; i++ {
				p.R[i] += earth0.R[i]
				p.V[i] += earth0.V[i]
			}
		}
		conf.Transform = func(s reboundx.TrajectorySample) reboundx.TrajectorySample {
			earth, err := eph.StateOf(reboundx.Earth, s.JD)
			if err != nil {
				panic(err)
			}
			for i := 0; i < 3; i++ {
				s.R[i] -= earth.R[i]
				s.V[i] -= earth.V[i]
			}
			return s
		}
	}

	prop := reboundx.NewPrecisePropagation(particles, forces, scenario.TStart, scenario.StopJD(), scenario.TStep, conf)
	prop.Propagate()
	for i, p := range particles {
		fmt.Printf("p%d: %s\n", i, p)
	}
}
