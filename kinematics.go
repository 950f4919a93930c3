package armcore

import "go.viam.com/rdk/spatialmath"

// Kinematics is the kinematic-model collaborator. The arm's geometry (DH
// parameters, joint limits) lives entirely behind this interface; the
// executors only need forward solves, all-branch inverse solves, and a
// convenience pose read-back.
type Kinematics interface {
	// ForwardKinematics returns the end-effector transform for a joint
	// configuration.
	ForwardKinematics(joints JointAngles) (spatialmath.Pose, error)

	// InverseKinematics returns joint configurations reaching the target
	// transform. With allSolutions set, every branch of the solution set
	// is returned so the caller can apply continuity selection; otherwise
	// the solver may return a single preferred configuration. An empty
	// slice (or error) means the pose is unreachable.
	InverseKinematics(target spatialmath.Pose, allSolutions bool) ([]JointAngles, error)

	// EndEffectorPose returns the end-effector pose in the
	// millimeter/degree task-space representation.
	EndEffectorPose(joints JointAngles) (CartesianPose, error)
}
