package armcore

import "context"

// MotorBus is the motor-driver collaborator. Implementations own the wire
// protocol; the core only issues frame-level operations.
type MotorBus interface {
	// MoveToPosition commands one motor. With sync set the motor arms the
	// move but does not execute it until TriggerSynchronizedMotion.
	MoveToPosition(ctx context.Context, motorID int, angle float64, maxSpeed, accel, decel int, absolute, sync bool) error

	// ReadPosition reads a motor's current motor-frame angle in degrees.
	ReadPosition(ctx context.Context, motorID int) (float64, error)

	// SendMultiMotorCommand sends all commands as one atomic multi-motor
	// message, for drive generations that support it.
	SendMultiMotorCommand(ctx context.Context, commands []MotorCommand) error

	// TriggerSynchronizedMotion broadcasts the execute trigger for
	// previously armed sync moves.
	TriggerSynchronizedMotion(ctx context.Context) error
}

// MotorConfig is the drive-parameter collaborator relating output-frame
// joint angles to motor-frame angles.
type MotorConfig interface {
	ReducerRatio(joint int) float64 // gear reduction, output to motor
	Direction(joint int) int        // +1 or -1
}

// StaticMotorConfig is a fixed-table MotorConfig.
type StaticMotorConfig struct {
	Ratios     [NumJoints]float64
	Directions [NumJoints]int
}

// DefaultMotorConfig is direct drive on every joint.
var DefaultMotorConfig = StaticMotorConfig{
	Ratios:     [NumJoints]float64{1, 1, 1, 1, 1, 1},
	Directions: [NumJoints]int{1, 1, 1, 1, 1, 1},
}

// ReducerRatio returns the gear reduction for a zero-based joint index.
func (c StaticMotorConfig) ReducerRatio(joint int) float64 {
	if joint < 0 || joint >= NumJoints {
		return 1
	}
	return c.Ratios[joint]
}

// Direction returns the mechanical direction sign for a zero-based joint
// index.
func (c StaticMotorConfig) Direction(joint int) int {
	if joint < 0 || joint >= NumJoints {
		return 1
	}
	if c.Directions[joint] < 0 {
		return -1
	}
	return 1
}

// motorAngle converts an output-frame joint angle to the motor frame.
func motorAngle(cfg MotorConfig, joint int, angle float64) float64 {
	return angle * cfg.ReducerRatio(joint) * float64(cfg.Direction(joint))
}

// JointFrameAngle converts a motor-frame angle read back from the bus to
// the output frame.
func JointFrameAngle(cfg MotorConfig, joint int, angle float64) float64 {
	ratio := cfg.ReducerRatio(joint)
	if ratio == 0 {
		ratio = 1
	}
	return angle / ratio * float64(cfg.Direction(joint))
}
