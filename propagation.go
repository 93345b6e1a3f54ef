package reboundx

import (
	"fmt"
	"math"
	"os"
	"sync"
	"time"

	kitlog "github.com/go-kit/kit/log"

	"github.com/Mikea1985/reboundx/integrator"
)

const (
	// DefaultStep is the default step size of propagation, in days.
	DefaultStep = 1.0
)

var wg sync.WaitGroup

/* Handles the ephemeris driven propagations. */

// Particle is one massless simulated particle, barycentric equatorial
// position in AU and velocity in AU/day.
type Particle struct {
	R [3]float64
	V [3]float64
}

// String implements the Stringer interface.
func (p Particle) String() string {
	return fmt.Sprintf("R=%v AU\tV=%v AU/day", p.R, p.V)
}

// Propagation defines a propagation of test particles under the pull of
// the ephemeris bodies, and streams dense output while doing so.
type Propagation struct {
	Particles                  []*Particle // As pointers because they are altered during propagation.
	Forces                     *EphemerisForces
	StartJD, StopJD, CurrentJD float64
	step                       float64 // step size in days
	stopChan                   chan (bool)
	histChan                   chan<- (TrajectorySample)
	logger                     kitlog.Logger
	done                       bool
	lastStep                   *IntegratorStep
}

// NewPropagation is the same as NewPrecisePropagation with the default step size.
func NewPropagation(particles []*Particle, forces *EphemerisForces, startJD, endJD float64, conf ExportConfig) *Propagation {
	return NewPrecisePropagation(particles, forces, startJD, endJD, DefaultStep, conf)
}

// NewPrecisePropagation returns a new Propagation instance with custom provided time step.
func NewPrecisePropagation(particles []*Particle, forces *EphemerisForces, startJD, endJD, step float64, conf ExportConfig) *Propagation {
	if len(particles) == 0 {
		panic("config Particles may not be empty")
	}
	if forces == nil {
		panic("config Forces may not be nil")
	}
	if step <= 0 {
		panic("config step must be positive")
	}
	// If no export is configured, then no output will be written.
	var histChan chan (TrajectorySample)
	if !conf.IsUseless() {
		histChan = make(chan (TrajectorySample), 1000) // a 1k entry buffer
		wg.Add(1)
		go func() {
			defer wg.Done()
			StreamStates(conf, histChan)
		}()
	} else {
		histChan = nil
	}
	klog := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stdout))
	klog = kitlog.With(klog, "prop", conf.Filename)
	a := &Propagation{particles, forces, startJD, endJD, startJD, step, make(chan (bool), 1), histChan, klog, false, nil}

	if endJD < startJD {
		a.logger.Log("level", "warning", "subsys", "astro", "message", "no end date")
	}

	return a
}

// LogStatus logs the status of the propagation.
func (a *Propagation) LogStatus() {
	a.logger.Log("level", "info", "subsys", "astro", "jd", a.CurrentJD, "particles", len(a.Particles))
}

// PropagateUntil propagates until the given Julian date is reached.
func (a *Propagation) PropagateUntil(jd float64) {
	a.StopJD = jd
	a.Propagate()
}

// Propagate starts the propagation.
func (a *Propagation) Propagate() {
	// Add a ticker status report based on the duration of the simulation.
	a.LogStatus()
	ticker := time.NewTicker(10 * time.Second)
	go func() {
		for _ = range ticker.C {
			if a.done {
				break
			}
			a.LogStatus()
		}
	}()
	iters, finalJD, _ := integrator.NewRK4(a.StartJD, a.step, a).Solve() // Blocking.
	a.done = true
	ticker.Stop()
	if a.histChan != nil {
		// The interior nodes never land on the step end, so the very
		// last state goes out as its own row.
		if a.lastStep != nil {
			for p := 0; p < a.lastStep.NumParticles(); p++ {
				a.histChan <- a.lastStep.Sample(8, p)
			}
		}
		close(a.histChan)
	}
	a.logger.Log("level", "notice", "subsys", "astro", "status", "finished", "steps", iters, "jd", finalJD, "days", finalJD-a.StartJD)
	wg.Wait() // Don't return until we're done writing all the files.
}

// StopPropagation is used to stop the propagation before it is completed.
func (a *Propagation) StopPropagation() {
	a.stopChan <- true
}

// Stop implements the stop call of the integrator. To stop the propagation, call StopPropagation().
func (a *Propagation) Stop(t float64) bool {
	select {
	case <-a.stopChan:
		return true // Stop because there is a request to stop.
	default:
		// The tolerance keeps floating accumulation of the step from
		// costing an extra step at the end date.
		return t >= a.StopJD-1e-9
	}
}

// GetState returns the state for the integrator, positions of all
// particles first and velocities second.
func (a *Propagation) GetState() (s []float64) {
	n := 3 * len(a.Particles)
	s = make([]float64, 2*n)
	for i, p := range a.Particles {
		copy(s[3*i:3*i+3], p.R[:])
		copy(s[n+3*i:n+3*i+3], p.V[:])
	}
	return
}

// SetState sets the updated state, and streams the dense output of the
// step which just completed.
func (a *Propagation) SetState(t float64, s []float64) {
	if a.histChan != nil {
		st := a.captureStep(t, s)
		for n := 0; n <= 7; n++ {
			for p := 0; p < st.NumParticles(); p++ {
				a.histChan <- st.Sample(n, p)
			}
		}
		a.lastStep = st
	}
	n := 3 * len(a.Particles)
	for i, p := range a.Particles {
		copy(p.R[:], s[3*i:3*i+3])
		copy(p.V[:], s[n+3*i:n+3*i+3])
	}
	a.CurrentJD = t
}

// captureStep freezes the step which just completed, before the new
// state is applied to the particles, so samples can be reconstructed
// anywhere inside it.
func (a *Propagation) captureStep(t float64, s []float64) *IntegratorStep {
	n := 3 * len(a.Particles)
	x0 := make([]float64, n)
	v0 := make([]float64, n)
	a0 := make([]float64, n)
	for i, p := range a.Particles {
		copy(x0[3*i:3*i+3], p.R[:])
		copy(v0[3*i:3*i+3], p.V[:])
	}
	if err := a.Forces.Accelerate(a.CurrentJD, x0, a0); err != nil {
		panic(fmt.Errorf("force evaluation failed at JD %f: %s", a.CurrentJD, err))
	}
	var b [7][]float64
	for i := range b {
		// The fixed step integrator carries no higher order terms.
		b[i] = make([]float64, n)
	}
	x1 := make([]float64, n)
	v1 := make([]float64, n)
	copy(x1, s[:n])
	copy(v1, s[n:])
	return NewIntegratorStep(a.CurrentJD, t-a.CurrentJD, x0, v0, a0, x1, v1, b)
}

// Func is the integration function: velocities feed the position rates
// and the ephemeris bodies pull on the velocity rates.
func (a *Propagation) Func(t float64, f []float64) (fDot []float64) {
	n := len(f) / 2
	fDot = make([]float64, len(f)) // init return vector
	// d\vec{R}/dt
	copy(fDot[:n], f[n:])
	// d\vec{V}/dt
	if err := a.Forces.Accelerate(t, f[:n], fDot[n:]); err != nil {
		panic(fmt.Errorf("force evaluation failed at JD %f: %s", t, err))
	}
	for i, val := range fDot {
		if math.IsNaN(val) {
			panic(fmt.Errorf("fDot[%d]=NaN @ jd=%f", i, t))
		}
	}
	return
}
