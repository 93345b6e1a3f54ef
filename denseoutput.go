package reboundx

import "fmt"

// gaussRadauNodes holds the spacings of the 15th order Gauss-Radau
// scheme over a normalized step, with the step start prepended and the
// step end appended.
var gaussRadauNodes = [9]float64{
	0.0,
	0.0562625605369221464656521910318,
	0.180240691736892364987579942780,
	0.352624717113169637373907769648,
	0.547153626330555383001448554766,
	0.734210177215410531523210605558,
	0.885320946839095768090359771030,
	0.977520613561287501891174488626,
	1.0,
}

// TrajectorySample is one dense output row: the state of one particle at
// one instant inside a completed integration step, position in AU and
// velocity in AU/day.
type TrajectorySample struct {
	JD       float64
	Particle int
	R        [3]float64
	V        [3]float64
}

// IntegratorStep captures one completed step of the propagator along
// with the seven b coefficient vectors of its local polynomial, from
// which Sample reconstructs the trajectory anywhere inside the step.
// The flat vectors hold three components per particle.
type IntegratorStep struct {
	Time float64 // Julian date at step start
	Dt   float64 // achieved step size in days
	X0   []float64
	V0   []float64
	A0   []float64
	X1   []float64
	V1   []float64
	B    [7][]float64
}

// NewIntegratorStep builds an IntegratorStep and panics if any vector
// disagrees on the particle count, since a mismatch is a bug in the
// integrator feeding it.
func NewIntegratorStep(startJD, dt float64, x0, v0, a0, x1, v1 []float64, b [7][]float64) *IntegratorStep {
	n := len(x0)
	if n == 0 || n%3 != 0 {
		panic("step vectors must hold three components per particle")
	}
	for _, v := range [][]float64{v0, a0, x1, v1, b[0], b[1], b[2], b[3], b[4], b[5], b[6]} {
		if len(v) != n {
			panic("step vectors disagree on the particle count")
		}
	}
	return &IntegratorStep{Time: startJD, Dt: dt, X0: x0, V0: v0, A0: a0, X1: x1, V1: v1, B: b}
}

// NumParticles returns the number of particles the step propagated.
func (st *IntegratorStep) NumParticles() int {
	return len(st.X0) / 3
}

// Sample reconstructs the state of particle p at node n of the step.
// Node 0 is the step start and node 8 the step end, both returned as
// stored rather than reconstructed. Nodes 1 through 7 evaluate the local
// polynomial at the Gauss-Radau spacings; with all b vectors zero that
// degrades to the quadratic Taylor expansion about the step start.
func (st *IntegratorStep) Sample(n, p int) TrajectorySample {
	if n < 0 || n >= len(gaussRadauNodes) {
		panic(fmt.Errorf("node %d out of the 0 to 8 range", n))
	}
	if p < 0 || p >= st.NumParticles() {
		panic(fmt.Errorf("particle %d out of range", p))
	}
	j := 3 * p
	smp := TrajectorySample{Particle: p}
	switch n {
	case 0:
		smp.JD = st.Time
		copy(smp.R[:], st.X0[j:j+3])
		copy(smp.V[:], st.V0[j:j+3])
		return smp
	case len(gaussRadauNodes) - 1:
		smp.JD = st.Time + st.Dt
		copy(smp.R[:], st.X1[j:j+3])
		copy(smp.V[:], st.V1[j:j+3])
		return smp
	}

	h := gaussRadauNodes[n]
	// Times count from the end of the step, like the integrator reports
	// them.
	smp.JD = (st.Time + st.Dt) + st.Dt*(h-1)

	var s [9]float64
	s[0] = st.Dt * h
	s[1] = s[0] * s[0] / 2
	s[2] = s[1] * h / 3
	s[3] = s[2] * h / 2
	s[4] = 3 * s[3] * h / 5
	s[5] = 2 * s[4] * h / 3
	s[6] = 5 * s[5] * h / 7
	s[7] = 3 * s[6] * h / 4
	s[8] = 7 * s[7] * h / 9
	for m := 0; m < 3; m++ {
		k := j + m
		// Summation order is fixed to reproduce the integrator's own
		// expansion exactly.
		smp.R[m] = st.X0[k] + (s[8]*st.B[6][k] + s[7]*st.B[5][k] + s[6]*st.B[4][k] + s[5]*st.B[3][k] + s[4]*st.B[2][k] + s[3]*st.B[1][k] + s[2]*st.B[0][k] + s[1]*st.A0[k] + s[0]*st.V0[k])
	}

	s[0] = st.Dt * h
	s[1] = s[0] * h / 2
	s[2] = 2 * s[1] * h / 3
	s[3] = 3 * s[2] * h / 4
	s[4] = 4 * s[3] * h / 5
	s[5] = 5 * s[4] * h / 6
	s[6] = 6 * s[5] * h / 7
	s[7] = 7 * s[6] * h / 8
	for m := 0; m < 3; m++ {
		k := j + m
		smp.V[m] = st.V0[k] + s[7]*st.B[6][k] + s[6]*st.B[5][k] + s[5]*st.B[4][k] + s[4]*st.B[3][k] + s[3]*st.B[2][k] + s[2]*st.B[1][k] + s[1]*st.B[0][k] + s[0]*st.A0[k]
	}
	return smp
}
