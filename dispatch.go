package armcore

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/rdk/logging"
)

// HardwareGeneration identifies which synchronization protocol the
// connected drive hardware speaks. It is detected once before a trajectory
// run and held fixed for its duration.
type HardwareGeneration int

const (
	GenerationUnknown HardwareGeneration = iota
	// GenerationBatched hardware accepts one atomic multi-motor message.
	GenerationBatched
	// GenerationBroadcastSync hardware needs each motor armed individually
	// and a broadcast trigger to start motion together.
	GenerationBroadcastSync
)

func (g HardwareGeneration) String() string {
	switch g {
	case GenerationBatched:
		return "batched"
	case GenerationBroadcastSync:
		return "broadcast-sync"
	default:
		return "unknown"
	}
}

// Dispatcher converts one tick's motor commands into wire traffic. A
// failed motor is logged and skipped so one unresponsive drive does not
// abort a multi-second trajectory; the aggregated error is returned for
// telemetry.
type Dispatcher interface {
	Dispatch(ctx context.Context, commands []MotorCommand) error
}

// NewDispatcher selects the strategy for a detected hardware generation.
func NewDispatcher(gen HardwareGeneration, bus MotorBus, logger logging.Logger) Dispatcher {
	if gen == GenerationBatched {
		return &BatchedDispatcher{bus: bus, logger: logger}
	}
	return &BroadcastSyncDispatcher{bus: bus, logger: logger, Accel: defaultDispatchAccel, Decel: defaultDispatchAccel}
}

const defaultDispatchAccel = 254

// BatchedDispatcher serializes all commands into a single multi-motor
// message per control tick.
type BatchedDispatcher struct {
	bus    MotorBus
	logger logging.Logger
}

// NewBatchedDispatcher returns a dispatcher for batch-capable hardware.
func NewBatchedDispatcher(bus MotorBus, logger logging.Logger) *BatchedDispatcher {
	return &BatchedDispatcher{bus: bus, logger: logger}
}

func (d *BatchedDispatcher) Dispatch(ctx context.Context, commands []MotorCommand) error {
	if len(commands) == 0 {
		return nil
	}
	if err := d.bus.SendMultiMotorCommand(ctx, commands); err != nil {
		d.logger.Warnf("multi-motor command rejected: %v", err)
		return errors.Wrap(err, "batched dispatch")
	}
	return nil
}

// BroadcastSyncDispatcher arms each motor with a sync-flagged move, then
// fires one broadcast trigger so all axes start together. Used by drive
// generations without a native multi-axis command.
type BroadcastSyncDispatcher struct {
	bus    MotorBus
	logger logging.Logger

	Accel int
	Decel int
}

// NewBroadcastSyncDispatcher returns a dispatcher for older two-phase
// hardware.
func NewBroadcastSyncDispatcher(bus MotorBus, logger logging.Logger) *BroadcastSyncDispatcher {
	return &BroadcastSyncDispatcher{
		bus:    bus,
		logger: logger,
		Accel:  defaultDispatchAccel,
		Decel:  defaultDispatchAccel,
	}
}

func (d *BroadcastSyncDispatcher) Dispatch(ctx context.Context, commands []MotorCommand) error {
	if len(commands) == 0 {
		return nil
	}

	var errs error
	armed := 0
	for _, cmd := range commands {
		err := d.bus.MoveToPosition(ctx, cmd.MotorID, cmd.TargetAngle, cmd.Speed, d.Accel, d.Decel, true, true)
		if err != nil {
			d.logger.Warnf("motor %d rejected sync move: %v", cmd.MotorID, err)
			errs = multierr.Append(errs, errors.Wrapf(err, "motor %d", cmd.MotorID))
			continue
		}
		armed++
	}

	// Fire the trigger even if some motors failed to arm; the ones that
	// accepted still move together on schedule.
	if armed > 0 {
		if err := d.bus.TriggerSynchronizedMotion(ctx); err != nil {
			d.logger.Warnf("synchronized motion trigger failed: %v", err)
			errs = multierr.Append(errs, errors.Wrap(err, "sync trigger"))
		}
	}
	return errs
}
