package reboundx

import (
	"fmt"
	"math"

	"github.com/soniakeys/meeus/planetposition"
	"github.com/soniakeys/meeus/pluto"
)

// obliquityJ2000 is the mean obliquity of the ecliptic at J2000, in radians.
var obliquityJ2000 = Deg2rad(23.43929111)

// planetMeanA holds the mean semi-major axes in AU, used for the
// circular speed estimate of the analytic velocities.
var planetMeanA = map[Body]float64{
	Mercury: 0.38709927,
	Venus:   0.72333566,
	Earth:   1.00000261,
	Mars:    1.52371034,
	Jupiter: 5.20288700,
	Saturn:  9.53667594,
	Uranus:  19.18916464,
	Neptune: 30.06992276,
	Pluto:   39.48211675,
}

var v87planets = map[Body]*planetposition.V87Planet{}

// v87index returns the VSOP87 planet index of the body.
func v87index(b Body) int {
	switch b {
	case Mercury:
		return planetposition.Mercury
	case Venus:
		return planetposition.Venus
	case Earth:
		return planetposition.Earth
	case Mars:
		return planetposition.Mars
	case Jupiter:
		return planetposition.Jupiter
	case Saturn:
		return planetposition.Saturn
	case Uranus:
		return planetposition.Uranus
	case Neptune:
		return planetposition.Neptune
	default:
		panic(fmt.Errorf("no VSOP87 theory for %s", b))
	}
}

// VSOP87State returns the heliocentric state of a planet from the
// VSOP87 analytic theory, rotated to the equatorial frame, position in
// AU and velocity in AU/day. The position carries the full theory but
// the velocity is only a circular orbit estimate: good enough to sanity
// check an ephemeris file, not to integrate against. Note that the whole
// data file of a planet is loaded on its first use, which is slow but
// keeps every later call consistent.
func VSOP87State(body Body, jd float64) StateVector {
	if !rebxConfig().VSOP87 {
		panic("VSOP87 is not enabled in the configuration")
	}
	var lon, lat, r float64
	if body == Pluto {
		// Special case in Sonia Keys' Meeus
		l, b, rad := pluto.Heliocentric(jd)
		lon, lat, r = l.Rad(), b.Rad(), rad
	} else {
		planet, found := v87planets[body]
		if !found {
			var err error
			planet, err = planetposition.LoadPlanetPath(v87index(body), rebxConfig().VSOP87Dir)
			if err != nil {
				panic(fmt.Errorf("could not load %s: %s", body, err))
			}
			v87planets[body] = planet
		}
		l, b, rad := planet.Position2000(jd)
		lon, lat, r = l.Rad(), b.Rad(), rad
	}
	// Get the Cartesian coordinates from L,B,R.
	R := Spherical2Cartesian([]float64{r, math.Pi/2 - lat, lon})
	// Let's find the direction of the velocity vector.
	v := math.Sqrt(2*DefaultG/r - DefaultG/planetMeanA[body])
	vDir := unit(cross(R, []float64{0, 0, -1}))
	// Rotate from the ecliptic of J2000 to the equator.
	sε, cε := math.Sincos(obliquityJ2000)
	s := StateVector{JD: jd}
	s.R = [3]float64{R[0], R[1]*cε - R[2]*sε, R[1]*sε + R[2]*cε}
	s.V = [3]float64{v * vDir[0], v * (vDir[1]*cε - vDir[2]*sε), v * (vDir[1]*sε + vDir[2]*cε)}
	return s
}
