package armcore

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolveQuinticBoundaryConditions(t *testing.T) {
	cases := []struct {
		name                   string
		p0, v0, a0, p1, v1, a1 float64
		duration               float64
	}{
		{"rest to rest", 0, 0, 0, 90, 0, 0, 2.0},
		{"negative travel", 45, 0, 0, -45, 0, 0, 1.5},
		{"nonzero boundary rates", 10, 5, -2, 80, -3, 4, 3.0},
		{"short segment", 0, 0, 0, 0.5, 0, 0, 0.1},
		{"zero displacement", 30, 0, 0, 30, 0, 0, 1.0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			seg, err := SolveQuintic(tc.p0, tc.v0, tc.a0, tc.p1, tc.v1, tc.a1, tc.duration)
			require.NoError(t, err)

			assert.InDelta(t, tc.p0, seg.Position(0), 1e-6)
			assert.InDelta(t, tc.v0, seg.Velocity(0), 1e-6)
			assert.InDelta(t, tc.a0, seg.Acceleration(0), 1e-6)
			assert.InDelta(t, tc.p1, seg.Position(tc.duration), 1e-6)
			assert.InDelta(t, tc.v1, seg.Velocity(tc.duration), 1e-6)
			assert.InDelta(t, tc.a1, seg.Acceleration(tc.duration), 1e-6)
		})
	}
}

func TestQuinticClampsOutsideSegment(t *testing.T) {
	seg, err := SolveQuintic(0, 0, 0, 100, 0, 0, 2.0)
	require.NoError(t, err)

	// Before the segment: start boundary values, no extrapolation.
	assert.InDelta(t, 0, seg.Position(-1), 1e-9)
	assert.InDelta(t, 0, seg.Velocity(-1), 1e-9)
	assert.InDelta(t, 0, seg.Acceleration(-1), 1e-9)

	// Past the segment: end boundary values.
	assert.InDelta(t, 100, seg.Position(10), 1e-6)
	assert.InDelta(t, 0, seg.Velocity(10), 1e-6)
	assert.InDelta(t, 0, seg.Acceleration(10), 1e-6)
}

func TestQuinticMidpointIsBetweenEndpoints(t *testing.T) {
	seg, err := SolveQuintic(0, 0, 0, 100, 0, 0, 2.0)
	require.NoError(t, err)

	// Rest-to-rest quintic is symmetric: midpoint at half travel.
	assert.InDelta(t, 50, seg.Position(1.0), 1e-6)
	assert.Greater(t, seg.Velocity(1.0), 0.0)
}

func TestSolveQuinticDegenerateDuration(t *testing.T) {
	for _, duration := range []float64{0, -0.5} {
		_, err := SolveQuintic(0, 0, 0, 10, 0, 0, duration)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrDegenerateDuration))
	}
}
