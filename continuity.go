package armcore

import "math"

// ClosestSolution resolves a multi-branch inverse kinematics solution set
// down to the configuration nearest the reference. Each candidate is
// scored by the Euclidean norm of its per-joint differences from the
// reference, with every difference first wrapped into (-180, 180] so a
// joint sitting at 390 degrees is 30 degrees away from 25, not 365. This
// is what keeps consecutive IK solves of a continuous path from flipping
// the wrist.
//
// Branches a whole turn apart wrap to identical scores, so ties are
// broken by the raw unwrapped travel; a candidate 360 degrees from the
// reference never beats the one the arm is already at, no matter how the
// solver orders its results.
//
// The selector is a pure function; callers carry the reference between
// samples themselves.
func ClosestSolution(solutions []JointAngles, reference JointAngles) (JointAngles, error) {
	if len(solutions) == 0 {
		return JointAngles{}, ErrNoSolution
	}

	best := 0
	bestScore := math.Inf(1)
	bestRaw := math.Inf(1)
	for k, candidate := range solutions {
		var score, raw float64
		for i := 0; i < NumJoints; i++ {
			d := candidate[i] - reference[i]
			raw += d * d
			w := wrapTo180(d)
			score += w * w
		}
		if score < bestScore || (score == bestScore && raw < bestRaw) {
			bestScore = score
			bestRaw = raw
			best = k
		}
	}
	return solutions[best], nil
}
