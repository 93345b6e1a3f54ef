package reboundx

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
)

// Scenario holds the initial conditions of a propagation, as read from a
// labelled conditions file.
type Scenario struct {
	TStart     float64      // Julian date of the start.
	TStep      float64      // Step size in days.
	TRange     float64      // Duration in days.
	Geocentric bool         // States are relative to the geocenter.
	States     [][6]float64 // One position and velocity per particle, AU and AU/day.
}

// StopJD returns the Julian date the scenario ends at.
func (sc Scenario) StopJD() float64 {
	return sc.TStart + sc.TRange
}

// Particles builds the particle set of the scenario.
func (sc Scenario) Particles() []*Particle {
	particles := make([]*Particle, len(sc.States))
	for i, st := range sc.States {
		p := Particle{}
		copy(p.R[:], st[:3])
		copy(p.V[:], st[3:])
		particles[i] = &p
	}
	return particles
}

// ReadScenario reads a labelled initial conditions file. The format is
// whitespace separated tokens: `tstart`, `tstep` and `trange` each
// followed by one number, `geocentric` followed by 0 or 1, and `state`
// followed by six numbers, position in AU then velocity in AU/day. An
// undefined label fails the read rather than being skipped.
func ReadScenario(path string) (Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("scenario: %w", err)
	}
	defer f.Close()

	sc := Scenario{}
	scanner := bufio.NewScanner(f)
	scanner.Split(bufio.ScanWords)
	nextFloat := func(label string) (float64, error) {
		if !scanner.Scan() {
			return 0, fmt.Errorf("scenario: '%s' is missing its value", label)
		}
		val, err := strconv.ParseFloat(scanner.Text(), 64)
		if err != nil {
			return 0, fmt.Errorf("scenario: bad value for '%s': %w", label, err)
		}
		return val, nil
	}
	for scanner.Scan() {
		label := scanner.Text()
		switch label {
		case "tstart":
			if sc.TStart, err = nextFloat(label); err != nil {
				return sc, err
			}
		case "tstep":
			if sc.TStep, err = nextFloat(label); err != nil {
				return sc, err
			}
		case "trange":
			if sc.TRange, err = nextFloat(label); err != nil {
				return sc, err
			}
		case "geocentric":
			val, err := nextFloat(label)
			if err != nil {
				return sc, err
			}
			sc.Geocentric = val != 0
		case "state":
			var st [6]float64
			for i := range st {
				if st[i], err = nextFloat(label); err != nil {
					return sc, err
				}
			}
			sc.States = append(sc.States, st)
		default:
			return sc, fmt.Errorf("scenario: undefined label '%s'", label)
		}
	}
	if err := scanner.Err(); err != nil {
		return sc, fmt.Errorf("scenario: %w", err)
	}
	return sc, nil
}
