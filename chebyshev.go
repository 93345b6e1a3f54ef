package reboundx

// maxChebyshevOrder is the largest coefficient count per component found
// in a DE430/431 series (the lunar libration angles).
const maxChebyshevOrder = 18

// chebyshevEval evaluates one slot's Chebyshev series and its time
// derivative. coef holds the slot's block of a record laid out as
// (sub-interval, component, order), ncm components of ncf coefficients
// over niv equal sub-intervals of a record spanning stepDays. tfrac is
// the fractional position inside the record in [0, 1]. Positions land in
// pos[0:ncm] in the file's length unit, velocities in vel[0:ncm] in that
// unit per second.
//
// This is a pure function over its inputs and allocates nothing, so it
// is safe to call from concurrent queries.
func chebyshevEval(coef []float64, ncm, ncf, niv int, tfrac, stepDays float64, pos, vel []float64) {
	var T, S [maxChebyshevOrder]float64

	// Locate the sub-interval and its normalized argument in [-1, 1].
	raw := tfrac * float64(niv)
	b := int(raw)
	if b >= niv {
		// tfrac == 1: far edge of the last sub-interval.
		b = niv - 1
	}
	x := 2*(raw-float64(b)) - 1

	T[0] = 1
	T[1] = x
	S[0] = 0
	S[1] = 1
	for p := 2; p < ncf; p++ {
		T[p] = 2*x*T[p-1] - T[p-2]
		S[p] = 2*x*S[p-1] + 2*T[p-1] - S[p-2]
	}
	// Chain rule factor from the normalized argument to seconds.
	c := float64(niv*2) / stepDays / 86400.0

	for m := 0; m < ncm; m++ {
		var u, v float64
		n := ncf * (m + b*ncm)
		for p := 0; p < ncf; p++ {
			u += T[p] * coef[n+p]
			v += S[p] * coef[n+p]
		}
		pos[m] = u
		vel[m] = v * c
	}
}
