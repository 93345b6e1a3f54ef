package reboundx

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// defaultEmRat is the DE430 Earth/Moon mass ratio, used by the mass
// table when no file is at hand.
const defaultEmRat = 81.30056907419062

// Body identifies an addressable solar system body. The barycenter is
// the coordinate origin, and Earth here means the geocenter, not the
// Earth-Moon barycenter.
type Body int

// The addressable bodies.
const (
	Barycenter Body = iota
	Sun
	Earth
	EarthMoonBarycenter
	Mercury
	Venus
	Mars
	Jupiter
	Saturn
	Uranus
	Neptune
	Pluto
	Moon // geocentric
)

var bodyNames = [...]string{"barycenter", "Sun", "Earth", "Earth-Moon barycenter", "Mercury", "Venus", "Mars", "Jupiter", "Saturn", "Uranus", "Neptune", "Pluto", "Moon"}

// String implements the Stringer interface.
func (b Body) String() string {
	if b < Barycenter || int(b) >= len(bodyNames) {
		panic(fmt.Errorf("unknown body %d", int(b)))
	}
	return bodyNames[b]
}

// BodyFromString returns the body from its name.
func BodyFromString(name string) (Body, error) {
	switch strings.ToLower(name) {
	case "barycenter", "ssb":
		return Barycenter, nil
	case "sun":
		return Sun, nil
	case "earth":
		return Earth, nil
	case "emb", "earth-moon barycenter":
		return EarthMoonBarycenter, nil
	case "mercury":
		return Mercury, nil
	case "venus":
		return Venus, nil
	case "mars":
		return Mars, nil
	case "jupiter":
		return Jupiter, nil
	case "saturn":
		return Saturn, nil
	case "uranus":
		return Uranus, nil
	case "neptune":
		return Neptune, nil
	case "pluto":
		return Pluto, nil
	case "moon":
		return Moon, nil
	default:
		return Barycenter, fmt.Errorf("undefined body '%s'", name)
	}
}

// Mass returns the body's mass in solar masses, from the DE430 constant
// set. The Earth and Moon masses split the Earth-Moon barycenter mass by
// the DE430 mass ratio.
func (b Body) Mass() float64 {
	switch b {
	case Barycenter:
		return 0
	case Sun:
		return 1
	case Earth:
		return embMass * defaultEmRat / (1 + defaultEmRat)
	case EarthMoonBarycenter:
		return embMass
	case Mercury:
		return 1 / 6023600.0
	case Venus:
		return 1 / 408523.71
	case Mars:
		return 1 / 3098708.0
	case Jupiter:
		return 1 / 1047.3486
	case Saturn:
		return 1 / 3497.898
	case Uranus:
		return 1 / 22902.98
	case Neptune:
		return 1 / 19412.24
	case Pluto:
		return 1 / 1.35e8
	case Moon:
		return embMass / (1 + defaultEmRat)
	default:
		panic(fmt.Errorf("unknown body %d", int(b)))
	}
}

const embMass = 1 / 328900.56

// slot returns the coefficient slot evaluated for this body, and panics
// for the composites which have none of their own.
func (b Body) slot() int {
	switch b {
	case Sun:
		return slotSun
	case EarthMoonBarycenter:
		return slotEMB
	case Mercury:
		return slotMercury
	case Venus:
		return slotVenus
	case Mars:
		return slotMars
	case Jupiter:
		return slotJupiter
	case Saturn:
		return slotSaturn
	case Uranus:
		return slotUranus
	case Neptune:
		return slotNeptune
	case Pluto:
		return slotPluto
	case Moon:
		return slotMoon
	default:
		panic(fmt.Errorf("body %s has no coefficient slot", b))
	}
}

// StateVector is a body or particle state at one instant: barycentric
// equatorial position in AU, velocity in AU/day, and the Julian date it
// was evaluated at.
type StateVector struct {
	R  [3]float64
	V  [3]float64
	JD float64
}

// String implements the Stringer interface.
func (s StateVector) String() string {
	return fmt.Sprintf("R=%v AU\tV=%v AU/day\t@ JD %f", s.R, s.V, s.JD)
}

// StateOf returns the barycentric state of a body at the given Julian
// date, in the equatorial frame of the file. The Moon is the exception:
// the file stores it geocentric and it resolves geocentric here too, so
// use RelativeState or the force model helpers for its barycentric
// vector.
func (e *Ephemeris) StateOf(b Body, jd float64) (StateVector, error) {
	rec, frac, err := e.Record(jd)
	if err != nil {
		return StateVector{}, err
	}
	s := e.stateFromRecord(b, rec, frac)
	s.JD = jd
	return s, nil
}

// RelativeState returns the state of target relative to ref at the given
// Julian date. Both bodies are evaluated from a single record lookup.
func (e *Ephemeris) RelativeState(target, ref Body, jd float64) (StateVector, error) {
	rec, frac, err := e.Record(jd)
	if err != nil {
		return StateVector{}, err
	}
	s := e.stateFromRecord(target, rec, frac)
	o := e.stateFromRecord(ref, rec, frac)
	floats.Sub(s.R[:], o.R[:])
	floats.Sub(s.V[:], o.V[:])
	s.JD = jd
	return s, nil
}

// stateFromRecord dispatches a body to its slot evaluation, or to the
// fixed composition rule for the ones without a slot of their own.
func (e *Ephemeris) stateFromRecord(b Body, rec []float64, frac float64) StateVector {
	switch b {
	case Barycenter:
		// The barycenter is the origin by definition.
		return StateVector{}
	case Earth:
		// The file stores the Earth-Moon barycenter and the geocentric
		// Moon: the geocenter sits a scaled lunar offset from the
		// barycenter, on position and velocity alike.
		s := e.slotState(slotEMB, rec, frac)
		moon := e.slotState(slotMoon, rec, frac)
		w := -1.0 / (1.0 + e.EmRat)
		floats.AddScaled(s.R[:], w, moon.R[:])
		floats.AddScaled(s.V[:], w, moon.V[:])
		return s
	default:
		return e.slotState(b.slot(), rec, frac)
	}
}

// slotState evaluates one coefficient slot of a record and scales the
// result from km and km/s to AU and AU/day.
func (e *Ephemeris) slotState(p int, rec []float64, frac float64) (s StateVector) {
	n := int(e.ncf[p]) * int(e.niv[p]) * int(e.ncm[p])
	coef := rec[int(e.off[p]) : int(e.off[p])+n]
	chebyshevEval(coef, int(e.ncm[p]), int(e.ncf[p]), int(e.niv[p]), frac, e.Step, s.R[:], s.V[:])
	floats.Scale(1/e.AU, s.R[:])
	floats.Scale(86400/e.AU, s.V[:])
	return
}
