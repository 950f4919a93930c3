package armcore

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// minCartesianSegmentDuration is the floor applied to auto-computed
// Cartesian segment durations.
const minCartesianSegmentDuration = 0.5

// CartesianLimits holds the scalar task-space velocity and acceleration
// ceilings used when segment durations are not supplied explicitly.
type CartesianLimits struct {
	MaxLinearVelocity      float64 // mm/s
	MaxAngularVelocity     float64 // deg/s
	MaxLinearAcceleration  float64 // mm/s^2
	MaxAngularAcceleration float64 // deg/s^2
}

// DefaultCartesianLimits is a conservative limit set for a desktop-class
// arm.
var DefaultCartesianLimits = CartesianLimits{
	MaxLinearVelocity:      50,
	MaxAngularVelocity:     45,
	MaxLinearAcceleration:  100,
	MaxAngularAcceleration: 90,
}

// CartesianMotion is a task-space rate or acceleration: a linear part and
// a per-Euler-axis angular part.
type CartesianMotion struct {
	Linear  r3.Vector  // mm/s or mm/s^2
	Angular [3]float64 // deg/s or deg/s^2
}

// CartesianState is the sampled task-space state at one instant.
type CartesianState struct {
	Pose                CartesianPose
	LinearVelocity      r3.Vector
	AngularVelocity     [3]float64
	LinearAcceleration  r3.Vector
	AngularAcceleration [3]float64
}

// CartesianPlan describes a task-space motion request. Velocities,
// Accelerations and Durations are optional, defaulting to stop-to-stop
// motion with auto-computed durations.
type CartesianPlan struct {
	Waypoints     []CartesianPose
	Velocities    []CartesianMotion
	Accelerations []CartesianMotion
	Durations     []float64 // per segment, seconds
	Limits        CartesianLimits
}

// CartesianTrajectory is an immutable multi-segment task-space trajectory.
// Each segment carries three position quintics and three orientation
// quintics sharing one duration. Orientation is interpolated linearly per
// Euler axis rather than by SLERP; the path is re-resolved through IK at
// every control sample, so the small non-uniformity of large-angle
// reorientations is accepted.
type CartesianTrajectory struct {
	position    [][3]QuinticSegment
	orientation [][3]QuinticSegment
	durations   []float64
	total       float64
}

// PlanCartesianTrajectory solves position and orientation quintics for
// every inter-waypoint interval.
func PlanCartesianTrajectory(plan CartesianPlan) (*CartesianTrajectory, error) {
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
	if limits == (CartesianLimits{}) {
		limits = DefaultCartesianLimits
	}

	boundary := func(set []CartesianMotion, k int) CartesianMotion {
		if set == nil {
			return CartesianMotion{}
		}
		return set[k]
	}

	traj := &CartesianTrajectory{
		position:    make([][3]QuinticSegment, 0, n-1),
		orientation: make([][3]QuinticSegment, 0, n-1),
		durations:   make([]float64, 0, n-1),
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
			duration = cartesianSegmentDuration(from, to, limits)
		}

		v0, v1 := boundary(plan.Velocities, k), boundary(plan.Velocities, k+1)
		a0, a1 := boundary(plan.Accelerations, k), boundary(plan.Accelerations, k+1)

		p0 := [3]float64{from.Point.X, from.Point.Y, from.Point.Z}
		p1 := [3]float64{to.Point.X, to.Point.Y, to.Point.Z}
		pv0 := [3]float64{v0.Linear.X, v0.Linear.Y, v0.Linear.Z}
		pv1 := [3]float64{v1.Linear.X, v1.Linear.Y, v1.Linear.Z}
		pa0 := [3]float64{a0.Linear.X, a0.Linear.Y, a0.Linear.Z}
		pa1 := [3]float64{a1.Linear.X, a1.Linear.Y, a1.Linear.Z}

		var pos, orient [3]QuinticSegment
		for i := 0; i < 3; i++ {
			seg, err := SolveQuintic(p0[i], pv0[i], pa0[i], p1[i], pv1[i], pa1[i], duration)
			if err != nil {
				return nil, errors.Wrapf(err, "segment %d position axis %d", k, i)
			}
			pos[i] = seg

			seg, err = SolveQuintic(from.Euler[i], v0.Angular[i], a0.Angular[i],
				to.Euler[i], v1.Angular[i], a1.Angular[i], duration)
			if err != nil {
				return nil, errors.Wrapf(err, "segment %d orientation axis %d", k, i)
			}
			orient[i] = seg
		}

		traj.position = append(traj.position, pos)
		traj.orientation = append(traj.orientation, orient)
		traj.durations = append(traj.durations, duration)
		traj.total += duration
	}

	return traj, nil
}

// cartesianSegmentDuration picks the velocity- and acceleration-limited
// travel time from the scalar linear and angular displacements, floored at
// minCartesianSegmentDuration.
func cartesianSegmentDuration(from, to CartesianPose, limits CartesianLimits) float64 {
	linDist := to.Point.Sub(from.Point).Norm()
	angDist := math.Sqrt(
		(to.Euler[0]-from.Euler[0])*(to.Euler[0]-from.Euler[0]) +
			(to.Euler[1]-from.Euler[1])*(to.Euler[1]-from.Euler[1]) +
			(to.Euler[2]-from.Euler[2])*(to.Euler[2]-from.Euler[2]))

	duration := minCartesianSegmentDuration
	if limits.MaxLinearVelocity > 0 {
		duration = math.Max(duration, linDist/limits.MaxLinearVelocity)
	}
	if limits.MaxAngularVelocity > 0 {
		duration = math.Max(duration, angDist/limits.MaxAngularVelocity)
	}
	if limits.MaxLinearAcceleration > 0 {
		duration = math.Max(duration, math.Sqrt(2*linDist/limits.MaxLinearAcceleration))
	}
	if limits.MaxAngularAcceleration > 0 {
		duration = math.Max(duration, math.Sqrt(2*angDist/limits.MaxAngularAcceleration))
	}
	return duration
}

// Duration returns the total trajectory duration in seconds.
func (tr *CartesianTrajectory) Duration() float64 { return tr.total }

// SegmentCount returns the number of planned segments.
func (tr *CartesianTrajectory) SegmentCount() int { return len(tr.durations) }

// CartesianStates evaluates the task-space state at time t. Times past the
// trajectory end clamp to the final segment's end state.
func (tr *CartesianTrajectory) CartesianStates(t float64) CartesianState {
	idx, local := locateSegment(tr.durations, t)
	pos := tr.position[idx]
	orient := tr.orientation[idx]

	var state CartesianState
	state.Pose.Point = r3.Vector{
		X: pos[0].Position(local),
		Y: pos[1].Position(local),
		Z: pos[2].Position(local),
	}
	state.LinearVelocity = r3.Vector{
		X: pos[0].Velocity(local),
		Y: pos[1].Velocity(local),
		Z: pos[2].Velocity(local),
	}
	state.LinearAcceleration = r3.Vector{
		X: pos[0].Acceleration(local),
		Y: pos[1].Acceleration(local),
		Z: pos[2].Acceleration(local),
	}
	for i := 0; i < 3; i++ {
		state.Pose.Euler[i] = orient[i].Position(local)
		state.AngularVelocity[i] = orient[i].Velocity(local)
		state.AngularAcceleration[i] = orient[i].Acceleration(local)
	}
	return state
}
