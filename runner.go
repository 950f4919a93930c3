package armcore

import (
	"context"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"
	"go.viam.com/rdk/logging"
)

// Runner drives an Executor's step function at the interval each tick
// reports, dispatching the resulting commands. It is index-driven: each
// tick consumes exactly one pre-computed sample, so sleep jitter stretches
// wall-clock time without desynchronizing which sample is sent.
type Runner struct {
	dispatcher Dispatcher
	clock      clock.Clock
	logger     logging.Logger
}

// NewRunner builds a runner on the real clock.
func NewRunner(dispatcher Dispatcher, logger logging.Logger) *Runner {
	return NewRunnerWithClock(dispatcher, clock.New(), logger)
}

// NewRunnerWithClock builds a runner on an injected clock, for
// deterministic tests.
func NewRunnerWithClock(dispatcher Dispatcher, clk clock.Clock, logger logging.Logger) *Runner {
	return &Runner{dispatcher: dispatcher, clock: clk, logger: logger}
}

// Run streams the executor's points until finished, the context is
// cancelled, or StopExecution is called from elsewhere. Per-tick dispatch
// failures are logged and accumulated but never abort the stream; the
// accumulated error is returned alongside normal completion so the caller
// can distinguish a clean finish from a finish with errors and issue a
// hardware safety stop for the latter.
func (r *Runner) Run(ctx context.Context, exec Executor, speed int) error {
	var tickErrs error

	for {
		if err := ctx.Err(); err != nil {
			exec.StopExecution()
			return multierr.Append(err, tickErrs)
		}

		commands, info := exec.NextMotorCommands(speed)
		if info.Finished {
			if info.Err != nil {
				tickErrs = multierr.Append(info.Err, tickErrs)
			}
			return tickErrs
		}

		if err := r.dispatcher.Dispatch(ctx, commands); err != nil {
			tickErrs = multierr.Append(tickErrs, err)
		}

		timer := r.clock.Timer(info.NextInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			exec.StopExecution()
			return multierr.Append(ctx.Err(), tickErrs)
		case <-timer.C:
		}
	}
}
