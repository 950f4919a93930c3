package armcore

import (
	"math"
	"time"

	"github.com/golang/geo/r3"
	"go.viam.com/rdk/spatialmath"
)

// NumJoints is the number of joint axes of the arm.
const NumJoints = 6

// JointAngles holds one output-frame angle per joint, in degrees.
type JointAngles [NumJoints]float64

// CartesianPose is an end-effector pose: position in millimeters and
// roll/pitch/yaw Euler angles in degrees.
type CartesianPose struct {
	Point r3.Vector  // mm
	Euler [3]float64 // roll, pitch, yaw in degrees
}

// Pose converts to a spatialmath.Pose for the kinematics collaborator.
func (p CartesianPose) Pose() spatialmath.Pose {
	return spatialmath.NewPose(p.Point, &spatialmath.EulerAngles{
		Roll:  degToRad(p.Euler[0]),
		Pitch: degToRad(p.Euler[1]),
		Yaw:   degToRad(p.Euler[2]),
	})
}

// CartesianPoseFromPose converts a spatialmath.Pose back to the
// millimeter/degree representation used by the planners.
func CartesianPoseFromPose(pose spatialmath.Pose) CartesianPose {
	ea := pose.Orientation().EulerAngles()
	return CartesianPose{
		Point: pose.Point(),
		Euler: [3]float64{radToDeg(ea.Roll), radToDeg(ea.Pitch), radToDeg(ea.Yaw)},
	}
}

// TrajectoryPoint is one sampled, IK-resolved waypoint ready for motor
// dispatch.
type TrajectoryPoint struct {
	Time       float64     // seconds from trajectory start
	Angles     JointAngles // degrees
	Velocities JointAngles // degrees per second
}

// MotorCommand is a single per-motor target for one control tick. The
// target angle is in the motor frame, after gear ratio and direction
// conversion.
type MotorCommand struct {
	MotorID     int
	TargetAngle float64 // motor-frame degrees
	Speed       int
}

// TickInfo reports the outcome of one control tick.
type TickInfo struct {
	Finished     bool
	Progress     float64 // percent of points consumed, 0-100
	Target       JointAngles
	NextInterval time.Duration
	Err          error
}

// DefaultControlPeriod is the nominal spacing between streamed trajectory
// points.
const DefaultControlPeriod = 20 * time.Millisecond

func degToRad(d float64) float64 { return d * math.Pi / 180 }

func radToDeg(r float64) float64 { return r * 180 / math.Pi }

// wrapTo180 maps an angular difference in degrees into (-180, 180].
func wrapTo180(d float64) float64 {
	for d > 180 {
		d -= 360
	}
	for d <= -180 {
		d += 360
	}
	return d
}
