package reboundx

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// DefaultG is the gravitational constant in AU³/day²/M☉, the square of
// the Gaussian gravitational constant of the DE430 set.
const DefaultG = 0.295912208285591100e-3

// ForceBodies lists the perturbing bodies in the order the configured
// body count truncates: asking for N bodies sums the pulls of the first
// N entries. The order is fixed and part of the contract, so that a
// count of 1 means the Sun alone and 3 adds the inner planets.
var ForceBodies = [...]Body{Sun, Mercury, Venus, Earth, Moon, Mars, Jupiter, Saturn, Uranus, Neptune, Pluto}

// ErrNoBodies is returned when the perturbing body count was never
// configured. Defaulting it silently would integrate with the wrong
// force model, so setup fails instead.
var ErrNoBodies = errors.New("ephemeris: count of perturbing bodies missing or zero")

// EphemerisForces sums the point-mass pulls of the major solar system
// bodies onto simulated particles, with body states interpolated from a
// JPL development ephemeris. Positions are in AU, velocities in AU/day
// and accelerations in AU/day².
type EphemerisForces struct {
	// G is the gravitational constant in AU³/day²/M☉. It starts at
	// DefaultG and may be overridden before the first Accelerate call.
	G      float64
	eph    *Ephemeris
	num    int
	masses [len(ForceBodies)]float64
}

// NewEphemerisForces creates the force model for the first num bodies of
// ForceBodies. The mass table holds the DE430 masses in solar masses,
// with the Earth and the Moon split by the mass ratio of the file itself.
func NewEphemerisForces(eph *Ephemeris, num int) (*EphemerisForces, error) {
	if eph == nil {
		panic("ephemeris may not be nil")
	}
	if num <= 0 {
		return nil, ErrNoBodies
	}
	if num > len(ForceBodies) {
		return nil, fmt.Errorf("ephemeris: only %d perturbing bodies are defined, not %d", len(ForceBodies), num)
	}
	f := EphemerisForces{G: DefaultG, eph: eph, num: num}
	for i, b := range ForceBodies {
		switch b {
		case Earth:
			f.masses[i] = embMass * eph.EmRat / (1 + eph.EmRat)
		case Moon:
			f.masses[i] = embMass / (1 + eph.EmRat)
		default:
			f.masses[i] = b.Mass()
		}
	}
	return &f, nil
}

// NumBodies returns the configured count of perturbing bodies.
func (f *EphemerisForces) NumBodies() int {
	return f.num
}

// SetMass overrides the mass of one perturbing body, in solar masses.
func (f *EphemerisForces) SetMass(b Body, mass float64) {
	for i, fb := range ForceBodies {
		if fb == b {
			f.masses[i] = mass
			return
		}
	}
	panic(fmt.Errorf("%s is not a perturbing body", b))
}

// Accelerate adds the gravitational acceleration of each configured body
// onto accel, which holds three components per particle like pos. It
// only ever adds contributions, so the caller owns zeroing accel. All
// body states for the call come from a single record lookup.
func (f *EphemerisForces) Accelerate(jd float64, pos, accel []float64) error {
	if len(pos) != len(accel) || len(pos)%3 != 0 {
		panic("position and acceleration must hold three components per particle")
	}
	rec, frac, err := f.eph.Record(jd)
	if err != nil {
		return err
	}
	var d [3]float64
	for i := 0; i < f.num; i++ {
		s := f.baryState(ForceBodies[i], rec, frac)
		gm := f.G * f.masses[i]
		for j := 0; j < len(pos); j += 3 {
			d[0] = pos[j] - s.R[0]
			d[1] = pos[j+1] - s.R[1]
			d[2] = pos[j+2] - s.R[2]
			r := norm(d[:])
			prefac := gm / (r * r * r)
			accel[j] -= prefac * d[0]
			accel[j+1] -= prefac * d[1]
			accel[j+2] -= prefac * d[2]
		}
	}
	return nil
}

// baryState lifts the geocentric Moon to the barycenter, which is the
// frame the force sum runs in. Every other body resolves barycentric
// already.
func (f *EphemerisForces) baryState(b Body, rec []float64, frac float64) StateVector {
	s := f.eph.stateFromRecord(b, rec, frac)
	if b == Moon {
		e := f.eph.stateFromRecord(Earth, rec, frac)
		floats.Add(s.R[:], e.R[:])
		floats.Add(s.V[:], e.V[:])
	}
	return s
}
