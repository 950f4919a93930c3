package armcore

import (
	"math"
	"sync/atomic"

	"github.com/pkg/errors"
	"go.viam.com/rdk/logging"
)

// defaultStreamSpeed is the speed commanded to the drives while streaming.
// It is deliberately far above the sampled stream's real rate: the 20 ms
// position updates, not the drive's own velocity profile, are what shape
// the motion.
const defaultStreamSpeed = 3000

// Executor is the per-tick step function driven by the control loop.
type Executor interface {
	NextMotorCommands(speed int) ([]MotorCommand, TickInfo)
	StopExecution()
}

// pointStreamer owns a frozen trajectory point list and the execution
// cursor. The point list is built once per trajectory and consumed
// strictly in order; the cursor is the only state mutated while
// streaming. Not safe for concurrent use by more than one goroutine.
type pointStreamer struct {
	motors    MotorConfig
	points    []TrajectoryPoint
	cursor    int
	executing atomic.Bool
}

func (s *pointStreamer) setPoints(points []TrajectoryPoint) {
	s.points = points
	s.cursor = 0
	s.executing.Store(true)
}

// NextMotorCommands returns the motor commands for the point under the
// cursor and advances it. Once the cursor reaches the end, or after
// StopExecution, it reports finished with an empty command list.
func (s *pointStreamer) NextMotorCommands(speed int) ([]MotorCommand, TickInfo) {
	if !s.executing.Load() || s.cursor >= len(s.points) {
		info := TickInfo{Finished: true, NextInterval: DefaultControlPeriod}
		if n := len(s.points); n > 0 {
			info.Progress = float64(s.cursor) / float64(n) * 100
			if s.cursor > 0 {
				info.Target = s.points[s.cursor-1].Angles
			}
		}
		s.executing.Store(false)
		return nil, info
	}

	if speed <= 0 {
		speed = defaultStreamSpeed
	}

	pt := s.points[s.cursor]
	commands := make([]MotorCommand, NumJoints)
	for i := 0; i < NumJoints; i++ {
		commands[i] = MotorCommand{
			MotorID:     i + 1,
			TargetAngle: motorAngle(s.motors, i, pt.Angles[i]),
			Speed:       speed,
		}
	}
	s.cursor++

	return commands, TickInfo{
		Finished:     false,
		Progress:     float64(s.cursor) / float64(len(s.points)) * 100,
		Target:       pt.Angles,
		NextInterval: DefaultControlPeriod,
	}
}

// StopExecution abandons the remaining points. The next
// NextMotorCommands call reports finished immediately. Idempotent.
// Commands already dispatched are not recalled; issuing a hardware stop
// is the caller's responsibility.
func (s *pointStreamer) StopExecution() {
	s.executing.Store(false)
}

// Reset stops execution and releases the point list. Idempotent.
func (s *pointStreamer) Reset() {
	s.executing.Store(false)
	s.points = nil
	s.cursor = 0
}

// IsExecuting reports whether a point stream is active.
func (s *pointStreamer) IsExecuting() bool { return s.executing.Load() }

// Points exposes the generated point list, for previews and telemetry.
func (s *pointStreamer) Points() []TrajectoryPoint { return s.points }

// CartesianExecutor plans straight-line task-space moves and streams them
// as IK-resolved joint waypoints.
type CartesianExecutor struct {
	pointStreamer

	logger logging.Logger
	kin    Kinematics
	traj   *CartesianTrajectory
}

// NewCartesianExecutor builds an executor over a kinematics collaborator
// and a drive-parameter table.
func NewCartesianExecutor(kin Kinematics, motors MotorConfig, logger logging.Logger) *CartesianExecutor {
	e := &CartesianExecutor{logger: logger, kin: kin}
	e.motors = motors
	return e
}

// PlanCartesianMove plans a two-waypoint task-space trajectory from start
// to end. Any previously generated point list is discarded.
func (e *CartesianExecutor) PlanCartesianMove(start, end CartesianPose, limits CartesianLimits) error {
	traj, err := PlanCartesianTrajectory(CartesianPlan{
		Waypoints: []CartesianPose{start, end},
		Limits:    limits,
	})
	if err != nil {
		return errors.Wrap(err, "planning failed")
	}
	e.traj = traj
	e.Reset()
	return nil
}

// PlanCartesianPath plans a multi-waypoint task-space trajectory.
func (e *CartesianExecutor) PlanCartesianPath(plan CartesianPlan) error {
	traj, err := PlanCartesianTrajectory(plan)
	if err != nil {
		return errors.Wrap(err, "planning failed")
	}
	e.traj = traj
	e.Reset()
	return nil
}

// Duration returns the planned trajectory duration in seconds, or zero if
// nothing is planned.
func (e *CartesianExecutor) Duration() float64 {
	if e.traj == nil {
		return 0
	}
	return e.traj.Duration()
}

// GenerateTrajectoryPoints samples the planned trajectory at dt, resolving
// each sample to joint space through the kinematics collaborator with
// continuity selection seeded by current. Samples with no IK solution are
// skipped; the reference for the next sample stays the last accepted
// configuration. Per-point joint velocity is a backward finite difference
// against the previous accepted point.
//
// On success the point list is frozen, the cursor reset, and streaming
// enabled.
func (e *CartesianExecutor) GenerateTrajectoryPoints(current JointAngles, dt float64) error {
	if e.traj == nil {
		return ErrNotPlanned
	}
	if dt <= 0 {
		dt = DefaultControlPeriod.Seconds()
	}

	duration := e.traj.Duration()
	steps := int(math.Ceil(duration / dt))
	reference := current
	skipped := 0

	points := make([]TrajectoryPoint, 0, steps+1)
	for k := 0; k <= steps; k++ {
		t := float64(k) * dt
		if t > duration {
			t = duration
		}

		state := e.traj.CartesianStates(t)
		solutions, err := e.kin.InverseKinematics(state.Pose.Pose(), true)
		if err != nil || len(solutions) == 0 {
			skipped++
			e.logger.Debugf("no IK solution at t=%.3fs, skipping sample", t)
			continue
		}

		joints, err := ClosestSolution(solutions, reference)
		if err != nil {
			skipped++
			continue
		}

		var vel JointAngles
		if len(points) > 0 {
			prev := points[len(points)-1]
			for i := 0; i < NumJoints; i++ {
				vel[i] = (joints[i] - prev.Angles[i]) / dt
			}
		}

		points = append(points, TrajectoryPoint{Time: t, Angles: joints, Velocities: vel})
		reference = joints
	}

	if skipped > 0 {
		e.logger.Warnf("skipped %d of %d samples with no IK solution", skipped, steps+1)
	}
	if len(points) < 2 {
		return errors.Wrapf(ErrInsufficientPoints, "accepted %d samples", len(points))
	}

	e.setPoints(points)
	return nil
}
