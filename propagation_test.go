package reboundx

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

func TestPropagationConfigPanics(t *testing.T) {
	e := openSyntheticDE(t)
	f, err := NewEphemerisForces(e, 1)
	if err != nil {
		t.Fatal(err)
	}
	one := []*Particle{{R: [3]float64{1, 0, 0}}}
	assertPanic(t, func() { NewPropagation(nil, f, e.Begin, e.End, ExportConfig{}) })
	assertPanic(t, func() { NewPropagation(one, nil, e.Begin, e.End, ExportConfig{}) })
	assertPanic(t, func() { NewPrecisePropagation(one, f, e.Begin, e.End, 0, ExportConfig{}) })
}

func TestStateRoundtrip(t *testing.T) {
	e := openSyntheticDE(t)
	f, err := NewEphemerisForces(e, 1)
	if err != nil {
		t.Fatal(err)
	}
	particles := []*Particle{
		{R: [3]float64{1, 2, 3}, V: [3]float64{0.1, 0.2, 0.3}},
		{R: [3]float64{4, 5, 6}, V: [3]float64{0.4, 0.5, 0.6}},
	}
	a := NewPropagation(particles, f, e.Begin, e.End, ExportConfig{})
	s := a.GetState()
	// Positions of all particles first, velocities second.
	want := []float64{1, 2, 3, 4, 5, 6, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6}
	for i := range want {
		if s[i] != want[i] {
			t.Fatalf("state[%d]=%f, expected %f", i, s[i], want[i])
		}
	}
	for i := range s {
		s[i] += 10
	}
	a.SetState(e.Begin+1, s)
	if a.CurrentJD != e.Begin+1 {
		t.Fatalf("CurrentJD=%f", a.CurrentJD)
	}
	if particles[0].R != [3]float64{11, 12, 13} || particles[1].V != [3]float64{10.4, 10.5, 10.6} {
		t.Fatalf("particles not updated: %s / %s", particles[0], particles[1])
	}
}

func TestStopControls(t *testing.T) {
	e := openSyntheticDE(t)
	f, err := NewEphemerisForces(e, 1)
	if err != nil {
		t.Fatal(err)
	}
	one := []*Particle{{R: [3]float64{1, 0, 0}}}
	a := NewPropagation(one, f, e.Begin, e.Begin+10, ExportConfig{})
	if a.Stop(e.Begin + 5) {
		t.Fatal("stopped halfway through")
	}
	// Accumulated step roundoff just shy of the end date must not cost
	// an extra step.
	if !a.Stop(e.Begin + 10 - 1e-12) {
		t.Fatal("did not stop within tolerance of the end date")
	}
	a.StopPropagation()
	if !a.Stop(e.Begin) {
		t.Fatal("the stop request was ignored")
	}
}

func TestFuncDerivatives(t *testing.T) {
	e := openSyntheticDE(t)
	f, err := NewEphemerisForces(e, 1)
	if err != nil {
		t.Fatal(err)
	}
	particles := []*Particle{{R: [3]float64{1.5, -0.5, 0.25}, V: [3]float64{0.01, 0.02, -0.03}}}
	a := NewPropagation(particles, f, e.Begin, e.End, ExportConfig{})
	jd := e.Begin + 20
	fDot := a.Func(jd, a.GetState())
	// Position rates are the velocities.
	for i := 0; i < 3; i++ {
		if fDot[i] != particles[0].V[i] {
			t.Fatalf("position rate %d is %f", i, fDot[i])
		}
	}
	want := make([]float64, 3)
	pull(Sun, DefaultG, jd, []float64{1.5, -0.5, 0.25}, want)
	for i := 0; i < 3; i++ {
		if !scalar.EqualWithinRel(fDot[3+i], want[i], 1e-12) {
			t.Fatalf("velocity rate %d is %g, expected %g", i, fDot[3+i], want[i])
		}
	}
}

func TestUniformMotion(t *testing.T) {
	// With the only perturber turned massless the particle coasts, and
	// the fixed step integration is exact.
	e := openSyntheticDE(t)
	f, err := NewEphemerisForces(e, 1)
	if err != nil {
		t.Fatal(err)
	}
	f.SetMass(Sun, 0)
	p := &Particle{R: [3]float64{0.5, -1, 2}, V: [3]float64{0.01, 0.005, -0.002}}
	a := NewPrecisePropagation([]*Particle{p}, f, e.Begin, e.Begin+64, 0.5, ExportConfig{})
	a.Propagate()
	if a.CurrentJD != e.Begin+64 {
		t.Fatalf("stopped at JD %f", a.CurrentJD)
	}
	for i, r0 := range []float64{0.5, -1, 2} {
		want := r0 + 64*p.V[i]
		if !scalar.EqualWithinAbs(p.R[i], want, 1e-12) {
			t.Fatalf("coasted to %f, expected %f", p.R[i], want)
		}
	}
	if p.V != [3]float64{0.01, 0.005, -0.002} {
		t.Fatalf("velocity drifted to %v", p.V)
	}
}

func TestCircularOrbit(t *testing.T) {
	// A particle on a circular orbit about the Sun, which coasts at its
	// own linear pace in the synthetic file. In the Sun's frame the two
	// body problem is exact, so the propagated particle must come back
	// around at the analytic phase.
	e := openSyntheticDE(t)
	f, err := NewEphemerisForces(e, 1)
	if err != nil {
		t.Fatal(err)
	}
	sun0 := linearBody(Sun, e.Begin)
	ω := math.Sqrt(DefaultG)
	p := &Particle{
		R: [3]float64{sun0.R[0] + 1, sun0.R[1], sun0.R[2]},
		V: [3]float64{sun0.V[0], sun0.V[1] + ω, sun0.V[2]},
	}
	const days = 64.0
	a := NewPrecisePropagation([]*Particle{p}, f, e.Begin, e.Begin+days, 0.5, ExportConfig{})
	a.Propagate()

	sunT := linearBody(Sun, e.Begin+days)
	θ := ω * days
	wantR := [3]float64{sunT.R[0] + math.Cos(θ), sunT.R[1] + math.Sin(θ), sunT.R[2]}
	wantV := [3]float64{sunT.V[0] - ω*math.Sin(θ), sunT.V[1] + ω*math.Cos(θ), sunT.V[2]}
	for i := 0; i < 3; i++ {
		if !scalar.EqualWithinAbs(p.R[i], wantR[i], 1e-7) {
			t.Fatalf("position component %d at %f, expected %f", i, p.R[i], wantR[i])
		}
		if !scalar.EqualWithinAbs(p.V[i], wantV[i], 1e-8) {
			t.Fatalf("velocity component %d at %f, expected %f", i, p.V[i], wantV[i])
		}
	}
	r := math.Hypot(p.R[0]-sunT.R[0], p.R[1]-sunT.R[1])
	if !scalar.EqualWithinAbs(r, 1, 1e-8) {
		t.Fatalf("orbit radius drifted to %.12f AU", r)
	}
}

func TestPropagationStreams(t *testing.T) {
	e := openSyntheticDE(t)
	f, err := NewEphemerisForces(e, 1)
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	cfgLoaded = true
	config = _rebxconfig{outputDir: dir}

	particles := []*Particle{
		{R: [3]float64{1, 0, 0}, V: [3]float64{0, 0.0172, 0}},
		{R: [3]float64{0, 1.2, 0}, V: [3]float64{-0.015, 0, 0.001}},
	}
	r00 := particles[0].R
	conf := ExportConfig{Filename: "stream", Cosmo: true, AsCSV: true, AsTxt: true}
	a := NewPrecisePropagation(particles, f, e.Begin, e.Begin+8, 0.5, conf)
	a.Propagate()

	// Sixteen steps of eight dense nodes each, plus the final state.
	const wantRows = 16*8 + 1
	var p0 []TrajectorySample
	for particle := 0; particle < 2; particle++ {
		name := fmt.Sprintf("prop-stream-p%d.xyzv", particle)
		samples := ParseTrajectory(readTestFile(t, dir, name), particle)
		if len(samples) != wantRows {
			t.Fatalf("%d rows in %s, expected %d", len(samples), name, wantRows)
		}
		for i := 1; i < len(samples); i++ {
			if samples[i].JD <= samples[i-1].JD {
				t.Fatalf("row %d of %s does not advance in time", i, name)
			}
		}
		if !scalar.EqualWithinAbs(samples[0].JD, e.Begin, 1e-5) || !scalar.EqualWithinAbs(samples[wantRows-1].JD, e.Begin+8, 1e-5) {
			t.Fatalf("%s spans [%f, %f]", name, samples[0].JD, samples[wantRows-1].JD)
		}
		if particle == 0 {
			p0 = samples
		}
	}
	for i := 0; i < 3; i++ {
		if !scalar.EqualWithinAbs(p0[0].R[i], r00[i], 1e-5) {
			t.Fatalf("first row starts at %v", p0[0].R)
		}
	}

	countRows := func(name string) int {
		rows := 0
		for _, line := range strings.Split(readTestFile(t, dir, name), "\n") {
			if strings.HasPrefix(line, "2451") {
				rows++
			}
		}
		return rows
	}
	if got := countRows("states-stream.csv"); got != 2*wantRows {
		t.Fatalf("%d rows in the CSV, expected %d", got, 2*wantRows)
	}
	if got := countRows("out_states-stream.txt"); got != 2*wantRows {
		t.Fatalf("%d rows in the plain table, expected %d", got, 2*wantRows)
	}

	var catalog CgCatalog
	if err := json.Unmarshal([]byte(readTestFile(t, dir, "catalog-stream.json")), &catalog); err != nil {
		t.Fatal(err)
	}
	if catalog.Name != "stream" || len(catalog.Items) != 2 {
		t.Fatalf("catalog %s holds %d items", catalog.Name, len(catalog.Items))
	}
	for _, item := range catalog.Items {
		if err := item.Trajectory.Validate(); err != nil {
			t.Fatal(err)
		}
	}
}

func readTestFile(t *testing.T, dir, name string) string {
	t.Helper()
	content, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatal(err)
	}
	return string(content)
}
