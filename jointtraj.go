package armcore

import (
	"math"

	"github.com/pkg/errors"
)

// minJointSegmentDuration is the floor applied to auto-computed segment
// durations so a zero-displacement segment still gets a solvable quintic.
const minJointSegmentDuration = 0.1

// JointLimits holds per-joint velocity and acceleration ceilings used when
// segment durations are not supplied explicitly.
type JointLimits struct {
	MaxVelocity     [NumJoints]float64 // deg/s
	MaxAcceleration [NumJoints]float64 // deg/s^2
}

// DefaultJointLimits is a conservative limit set for a desktop-class arm.
var DefaultJointLimits = JointLimits{
	MaxVelocity:     [NumJoints]float64{90, 90, 90, 120, 120, 120},
	MaxAcceleration: [NumJoints]float64{180, 180, 180, 240, 240, 240},
}

// JointPlan describes a joint-space motion request. Velocities,
// Accelerations and Durations are optional; omitted boundary velocities
// and accelerations default to zero so the arm comes to rest at every
// waypoint.
type JointPlan struct {
	Waypoints     []JointAngles
	Velocities    []JointAngles // per waypoint, deg/s
	Accelerations []JointAngles // per waypoint, deg/s^2
	Durations     []float64     // per segment, seconds
	Limits        JointLimits
}

// JointTrajectory is an immutable multi-segment joint-space trajectory,
// one quintic per joint per segment. Segments are contiguous in time.
type JointTrajectory struct {
	segments  [][NumJoints]QuinticSegment
	durations []float64
	total     float64
}

// PlanJointTrajectory solves one quintic per joint per inter-waypoint
// interval. It fails with ErrInsufficientWaypoints for fewer than two
// waypoints and ErrDegenerateDuration for a non-positive explicit segment
// duration.
func PlanJointTrajectory(plan JointPlan) (*JointTrajectory, error) {
	n := len(plan.Waypoints)
	if n < 2 {
		return nil, errors.Wrapf(ErrInsufficientWaypoints, "got %d", n)
	}
	if plan.Velocities != nil && len(plan.Velocities) != n {
		return nil, errors.Errorf("expected %d waypoint velocities, got %d", n, len(plan.Velocities))
	}
	if plan.Accelerations != nil && len(plan.Accelerations) != n {
		return nil, errors.Errorf("expected %d waypoint accelerations, got %d", n, len(plan.Accelerations))
	}
	if plan.Durations != nil && len(plan.Durations) != n-1 {
		return nil, errors.Errorf("expected %d segment durations, got %d", n-1, len(plan.Durations))
	}

	limits := plan.Limits
	if limits.MaxVelocity == ([NumJoints]float64{}) {
		limits.MaxVelocity = DefaultJointLimits.MaxVelocity
	}
	if limits.MaxAcceleration == ([NumJoints]float64{}) {
		limits.MaxAcceleration = DefaultJointLimits.MaxAcceleration
	}

	boundary := func(set []JointAngles, k int) JointAngles {
		if set == nil {
			return JointAngles{}
		}
		return set[k]
	}

	traj := &JointTrajectory{
		segments:  make([][NumJoints]QuinticSegment, 0, n-1),
		durations: make([]float64, 0, n-1),
	}

	for k := 0; k < n-1; k++ {
		from, to := plan.Waypoints[k], plan.Waypoints[k+1]

		var duration float64
		if plan.Durations != nil {
			duration = plan.Durations[k]
			if duration <= 0 {
				return nil, errors.Wrapf(ErrDegenerateDuration, "segment %d", k)
			}
		} else {
			duration = jointSegmentDuration(from, to, limits)
		}

		v0, v1 := boundary(plan.Velocities, k), boundary(plan.Velocities, k+1)
		a0, a1 := boundary(plan.Accelerations, k), boundary(plan.Accelerations, k+1)

		var segs [NumJoints]QuinticSegment
		for i := 0; i < NumJoints; i++ {
			seg, err := SolveQuintic(from[i], v0[i], a0[i], to[i], v1[i], a1[i], duration)
			if err != nil {
				return nil, errors.Wrapf(err, "segment %d joint %d", k, i+1)
			}
			segs[i] = seg
		}

		traj.segments = append(traj.segments, segs)
		traj.durations = append(traj.durations, duration)
		traj.total += duration
	}

	return traj, nil
}

// jointSegmentDuration picks the slowest joint's velocity- and
// acceleration-limited travel time, floored at minJointSegmentDuration.
func jointSegmentDuration(from, to JointAngles, limits JointLimits) float64 {
	var tVel, tAcc float64
	for i := 0; i < NumJoints; i++ {
		delta := math.Abs(to[i] - from[i])
		if limits.MaxVelocity[i] > 0 {
			tVel = math.Max(tVel, delta/limits.MaxVelocity[i])
		}
		if limits.MaxAcceleration[i] > 0 {
			tAcc = math.Max(tAcc, math.Sqrt(2*delta/limits.MaxAcceleration[i]))
		}
	}
	return math.Max(math.Max(tVel, tAcc), minJointSegmentDuration)
}

// Duration returns the total trajectory duration in seconds.
func (tr *JointTrajectory) Duration() float64 { return tr.total }

// SegmentCount returns the number of planned segments.
func (tr *JointTrajectory) SegmentCount() int { return len(tr.segments) }

// JointStates evaluates all joint polynomials at time t. Times past the
// trajectory end clamp to the final segment's end state.
func (tr *JointTrajectory) JointStates(t float64) (pos, vel, acc JointAngles) {
	idx, local := locateSegment(tr.durations, t)
	for i := 0; i < NumJoints; i++ {
		seg := tr.segments[idx][i]
		pos[i] = seg.Position(local)
		vel[i] = seg.Velocity(local)
		acc[i] = seg.Acceleration(local)
	}
	return pos, vel, acc
}

// locateSegment finds the segment owning time t by cumulative duration and
// returns its index plus the segment-local time. Out-of-range times clamp
// to the nearest end.
func locateSegment(durations []float64, t float64) (int, float64) {
	if t <= 0 {
		return 0, 0
	}
	var start float64
	for i, d := range durations {
		if t < start+d || i == len(durations)-1 {
			return i, t - start
		}
		start += d
	}
	return 0, 0
}
