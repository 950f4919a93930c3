package armcore

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// QuinticSegment is a fifth-order polynomial over [0, Duration] satisfying
// position, velocity and acceleration boundary conditions at both ends.
// Coefficients are immutable once solved.
type QuinticSegment struct {
	coeffs   [6]float64 // a0..a5
	duration float64
}

// SolveQuintic fits a quintic to the boundary values (p0, v0, a0) at t=0
// and (p1, v1, a1) at t=T by solving the 6x6 constraint system.
func SolveQuintic(p0, v0, a0, p1, v1, a1, T float64) (QuinticSegment, error) {
	if T <= 0 {
		return QuinticSegment{}, errors.Wrapf(ErrDegenerateDuration, "T=%g", T)
	}

	t2 := T * T
	t3 := t2 * T
	t4 := t3 * T
	t5 := t4 * T

	a := mat.NewDense(6, 6, []float64{
		1, 0, 0, 0, 0, 0,
		0, 1, 0, 0, 0, 0,
		0, 0, 2, 0, 0, 0,
		1, T, t2, t3, t4, t5,
		0, 1, 2 * T, 3 * t2, 4 * t3, 5 * t4,
		0, 0, 2, 6 * T, 12 * t2, 20 * t3,
	})
	b := mat.NewVecDense(6, []float64{p0, v0, a0, p1, v1, a1})

	var x mat.VecDense
	if err := x.SolveVec(a, b); err != nil {
		return QuinticSegment{}, errors.Wrap(err, "quintic boundary system is singular")
	}

	var seg QuinticSegment
	seg.duration = T
	for i := range seg.coeffs {
		seg.coeffs[i] = x.AtVec(i)
	}
	return seg, nil
}

// Duration returns the segment duration in seconds.
func (s QuinticSegment) Duration() float64 { return s.duration }

// clamp restricts t to [0, duration]; the polynomial is never extrapolated
// past its boundary conditions.
func (s QuinticSegment) clamp(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > s.duration {
		return s.duration
	}
	return t
}

// Position evaluates the polynomial at t, clamped into [0, Duration].
func (s QuinticSegment) Position(t float64) float64 {
	t = s.clamp(t)
	c := s.coeffs
	return c[0] + t*(c[1]+t*(c[2]+t*(c[3]+t*(c[4]+t*c[5]))))
}

// Velocity evaluates the first derivative at t, clamped into [0, Duration].
func (s QuinticSegment) Velocity(t float64) float64 {
	t = s.clamp(t)
	c := s.coeffs
	return c[1] + t*(2*c[2]+t*(3*c[3]+t*(4*c[4]+t*5*c[5])))
}

// Acceleration evaluates the second derivative at t, clamped into
// [0, Duration].
func (s QuinticSegment) Acceleration(t float64) float64 {
	t = s.clamp(t)
	c := s.coeffs
	return 2*c[2] + t*(6*c[3]+t*(12*c[4]+t*20*c[5]))
}
