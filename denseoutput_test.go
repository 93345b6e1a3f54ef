package reboundx

import (
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

// quarticStep builds a step whose trajectory is the exact quartic defined
// by the start state, jerk and snap, including the matching b vectors and
// end state. The b coefficients of the reconstruction absorb one factor
// of the step size per order.
func quarticStep(t0, dt float64, x0, v0, a0, jerk, snap []float64) *IntegratorStep {
	n := len(x0)
	x1 := make([]float64, n)
	v1 := make([]float64, n)
	var b [7][]float64
	for i := range b {
		b[i] = make([]float64, n)
	}
	for k := 0; k < n; k++ {
		b[0][k] = jerk[k] * dt
		b[1][k] = snap[k] * dt * dt / 2
		x1[k], v1[k] = quarticState(dt, x0[k], v0[k], a0[k], jerk[k], snap[k])
	}
	return NewIntegratorStep(t0, dt, x0, v0, a0, x1, v1, b)
}

func quarticState(τ, x0, v0, a0, j, q float64) (x, v float64) {
	x = x0 + v0*τ + a0*τ*τ/2 + j*τ*τ*τ/6 + q*τ*τ*τ*τ/24
	v = v0 + a0*τ + j*τ*τ/2 + q*τ*τ*τ/6
	return
}

func TestSampleEndpoints(t *testing.T) {
	x0 := []float64{1, 2, -1, 0.5, 0, 3}
	v0 := []float64{0.1, -0.2, 0.05, 0, 0.3, -0.1}
	a0 := []float64{0.01, 0.02, -0.03, 0.005, 0, 0.04}
	x1 := []float64{1.5, 1.1, -0.8, 0.6, 1.2, 2.6}
	v1 := []float64{0.14, -0.12, 0.08, 0.02, 0.3, 0.06}
	var b [7][]float64
	for i := range b {
		b[i] = make([]float64, 6)
	}
	st := NewIntegratorStep(2451545.0, 4, x0, v0, a0, x1, v1, b)
	if st.NumParticles() != 2 {
		t.Fatalf("%d particles", st.NumParticles())
	}
	for p := 0; p < 2; p++ {
		start := st.Sample(0, p)
		if start.JD != 2451545.0 || start.Particle != p {
			t.Fatalf("start sample stamped %f for particle %d", start.JD, start.Particle)
		}
		end := st.Sample(8, p)
		if end.JD != 2451549.0 {
			t.Fatalf("end sample stamped %f", end.JD)
		}
		for m := 0; m < 3; m++ {
			k := 3*p + m
			// The endpoints come back as stored, not reconstructed.
			if start.R[m] != x0[k] || start.V[m] != v0[k] {
				t.Fatalf("start sample of particle %d is %v %v", p, start.R, start.V)
			}
			if end.R[m] != x1[k] || end.V[m] != v1[k] {
				t.Fatalf("end sample of particle %d is %v %v", p, end.R, end.V)
			}
		}
	}
}

func TestSampleTimes(t *testing.T) {
	z3 := make([]float64, 3)
	st := NewIntegratorStep(100, 2, []float64{1, 1, 1}, z3, z3, []float64{1, 1, 1}, z3, [7][]float64{z3, z3, z3, z3, z3, z3, z3})
	prev := st.Sample(0, 0).JD
	for n := 1; n <= 8; n++ {
		jd := st.Sample(n, 0).JD
		if jd <= prev {
			t.Fatalf("node %d at %f does not advance past %f", n, jd, prev)
		}
		if want := 100 + 2*gaussRadauNodes[n]; !scalar.EqualWithinAbs(jd, want, 1e-9) {
			t.Fatalf("node %d at %f, expected %f", n, jd, want)
		}
		prev = jd
	}
}

func TestSampleQuadratic(t *testing.T) {
	// With every b vector zero the reconstruction is the quadratic
	// Taylor expansion about the step start.
	x0 := []float64{1, -2, 0.5}
	v0 := []float64{0.25, 0.1, -0.3}
	a0 := []float64{-0.05, 0.02, 0.01}
	zero := make([]float64, 3)
	st := quarticStep(2451545.0, 3.5, x0, v0, a0, zero, zero)
	for n := 1; n <= 7; n++ {
		τ := 3.5 * gaussRadauNodes[n]
		got := st.Sample(n, 0)
		for m := 0; m < 3; m++ {
			x, v := quarticState(τ, x0[m], v0[m], a0[m], 0, 0)
			if !scalar.EqualWithinAbs(got.R[m], x, 1e-12) {
				t.Fatalf("node %d position %g, expected %g", n, got.R[m], x)
			}
			if !scalar.EqualWithinAbs(got.V[m], v, 1e-12) {
				t.Fatalf("node %d velocity %g, expected %g", n, got.V[m], v)
			}
		}
	}
}

func TestSampleQuartic(t *testing.T) {
	// The first two b vectors carry a constant jerk and snap, which the
	// reconstruction must integrate exactly on position and velocity.
	x0 := []float64{1, 2, -1, 0.5, 0, 3}
	v0 := []float64{0.1, -0.2, 0.05, 0, 0.3, -0.1}
	a0 := []float64{0.01, 0.02, -0.03, 0.005, 0, 0.04}
	jerk := []float64{0.004, -0.002, 0.001, 0.003, -0.001, 0.002}
	snap := []float64{-0.0008, 0.0004, 0.0002, -0.0006, 0.001, -0.0002}
	st := quarticStep(2451545.0, 4, x0, v0, a0, jerk, snap)
	for n := 1; n <= 7; n++ {
		τ := 4 * gaussRadauNodes[n]
		for p := 0; p < 2; p++ {
			got := st.Sample(n, p)
			for m := 0; m < 3; m++ {
				k := 3*p + m
				x, v := quarticState(τ, x0[k], v0[k], a0[k], jerk[k], snap[k])
				if !scalar.EqualWithinAbs(got.R[m], x, 1e-12) {
					t.Fatalf("node %d particle %d position %g, expected %g", n, p, got.R[m], x)
				}
				if !scalar.EqualWithinAbs(got.V[m], v, 1e-12) {
					t.Fatalf("node %d particle %d velocity %g, expected %g", n, p, got.V[m], v)
				}
			}
		}
	}
	// And the stored end state agrees with the quartic too, so node 8
	// joins up with the reconstruction.
	end := st.Sample(8, 0)
	x, v := quarticState(4, x0[0], v0[0], a0[0], jerk[0], snap[0])
	if end.R[0] != x || end.V[0] != v {
		t.Fatalf("end state %g %g, expected %g %g", end.R[0], end.V[0], x, v)
	}
}

func TestStepPanics(t *testing.T) {
	n3 := make([]float64, 3)
	n6 := make([]float64, 6)
	b3 := [7][]float64{n3, n3, n3, n3, n3, n3, n3}
	assertPanic(t, func() { NewIntegratorStep(0, 1, nil, nil, nil, nil, nil, [7][]float64{}) })
	assertPanic(t, func() { NewIntegratorStep(0, 1, make([]float64, 4), make([]float64, 4), make([]float64, 4), make([]float64, 4), make([]float64, 4), b3) })
	assertPanic(t, func() { NewIntegratorStep(0, 1, n3, n6, n3, n3, n3, b3) })
	assertPanic(t, func() { NewIntegratorStep(0, 1, n3, n3, n3, n3, n3, [7][]float64{n3, n3, n6, n3, n3, n3, n3}) })

	st := NewIntegratorStep(0, 1, n3, n3, n3, n3, n3, b3)
	assertPanic(t, func() { st.Sample(-1, 0) })
	assertPanic(t, func() { st.Sample(9, 0) })
	assertPanic(t, func() { st.Sample(0, 1) })
}
