package armcore

import (
	"math"

	"github.com/pkg/errors"
	"go.viam.com/rdk/logging"
)

// JointExecutor plans joint-space moves and streams them directly, with no
// IK step: every sample is guaranteed present.
type JointExecutor struct {
	pointStreamer

	logger logging.Logger
	traj   *JointTrajectory
}

// NewJointExecutor builds an executor over a drive-parameter table.
func NewJointExecutor(motors MotorConfig, logger logging.Logger) *JointExecutor {
	e := &JointExecutor{logger: logger}
	e.motors = motors
	return e
}

// PlanJointMove plans a trajectory through the given joint-space
// waypoints. Any previously generated point list is discarded.
func (e *JointExecutor) PlanJointMove(waypoints []JointAngles, limits JointLimits) error {
	traj, err := PlanJointTrajectory(JointPlan{Waypoints: waypoints, Limits: limits})
	if err != nil {
		return errors.Wrap(err, "planning failed")
	}
	e.traj = traj
	e.Reset()
	return nil
}

// PlanJointPath plans a trajectory from a full joint-space plan request.
func (e *JointExecutor) PlanJointPath(plan JointPlan) error {
	traj, err := PlanJointTrajectory(plan)
	if err != nil {
		return errors.Wrap(err, "planning failed")
	}
	e.traj = traj
	e.Reset()
	return nil
}

// Duration returns the planned trajectory duration in seconds, or zero if
// nothing is planned.
func (e *JointExecutor) Duration() float64 {
	if e.traj == nil {
		return 0
	}
	return e.traj.Duration()
}

// GenerateTrajectoryPoints samples the planned trajectory at dt. Joint
// velocities come straight from the segment polynomials. On success the
// point list is frozen, the cursor reset, and streaming enabled.
func (e *JointExecutor) GenerateTrajectoryPoints(dt float64) error {
	if e.traj == nil {
		return ErrNotPlanned
	}
	if dt <= 0 {
		dt = DefaultControlPeriod.Seconds()
	}

	duration := e.traj.Duration()
	steps := int(math.Ceil(duration / dt))

	points := make([]TrajectoryPoint, 0, steps+1)
	for k := 0; k <= steps; k++ {
		t := float64(k) * dt
		if t > duration {
			t = duration
		}
		pos, vel, _ := e.traj.JointStates(t)
		points = append(points, TrajectoryPoint{Time: t, Angles: pos, Velocities: vel})
	}

	if len(points) < 2 {
		return errors.Wrapf(ErrInsufficientPoints, "accepted %d samples", len(points))
	}

	e.setPoints(points)
	return nil
}
