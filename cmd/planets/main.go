package main

import (
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/Mikea1985/reboundx"
	"github.com/soniakeys/meeus/julian"
)

// NOTE: This tool tabulates body states straight from the ephemeris file named in
// the configuration, and optionally checks them against the VSOP87 analytic theory
// (which requires VSOP87 to be enabled in the configuration too).

/* === CONFIG === */
var (
	bodyName  string
	startDate string
	startJD   float64
	days      float64
	step      float64
	check     bool
)

/* ===  END  === */

func init() {
	// Read flags
	flag.StringVar(&bodyName, "body", "Jupiter", "body to tabulate")
	flag.StringVar(&startDate, "start", "", "start date as YYYY-MM-DD (overrides -jd)")
	flag.Float64Var(&startJD, "jd", 0, "start Julian date (defaults to the middle of the file)")
	flag.Float64Var(&days, "days", 365, "number of days to tabulate")
	flag.Float64Var(&step, "step", 30, "days between rows")
	flag.BoolVar(&check, "check", false, "compare each row against VSOP87")
}

func main() {
	flag.Parse()
	body, err := reboundx.BodyFromString(bodyName)
	if err != nil {
		fmt.Printf("%s\n", err)
		os.Exit(1)
	}
	if check {
		switch body {
		case reboundx.Sun, reboundx.Barycenter, reboundx.EarthMoonBarycenter, reboundx.Moon:
			fmt.Printf("no VSOP87 check possible for %s\n", body)
			check = false
		}
	}

	eph, err := reboundx.OpenConfiguredEphemeris()
	if err != nil {
		fmt.Printf("could not open the ephemeris: %s\n", err)
		os.Exit(1)
	}
	defer eph.Close()
	fmt.Printf("%s\n", eph)

	jd := startJD
	if startDate != "" {
		var y, m int
		var d float64
		if _, err := fmt.Sscanf(startDate, "%d-%d-%f", &y, &m, &d); err != nil {
			fmt.Printf("could not parse -start: %s\n", err)
			os.Exit(1)
		}
		jd = julian.CalendarGregorianToJD(y, m, d)
	}
	if jd == 0 {
		jd = eph.Begin + math.Floor((eph.End-eph.Begin)/2)
	}

	for t := jd; t <= jd+days; t += step {
		s, err := eph.StateOf(body, t)
		if err != nil {
			fmt.Printf("%s\n", err)
			os.Exit(1)
		}
		fmt.Printf("%.2f\t%s\n", t, s)
		if check {
			helio, err := eph.RelativeState(body, reboundx.Sun, t)
			if err != nil {
				fmt.Printf("%s\n", err)
				os.Exit(1)
			}
			v87 := reboundx.VSOP87State(body, t)
			deltaR, rNorm := 0., 0.
			for i := 0; i < 3; i++ {
				deltaR += math.Pow(helio.R[i]-v87.R[i], 2)
				rNorm += math.Pow(helio.R[i], 2)
			}
			deltaR, rNorm = math.Sqrt(deltaR), math.Sqrt(rNorm)
			fmt.Printf("\tVSOP87 Δr=%.6f AU (%.4f%% of r=%.3f AU)\n", deltaR, 100*deltaR/rNorm, rNorm)
		}
	}
}
