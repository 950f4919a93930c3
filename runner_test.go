package armcore

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.viam.com/rdk/logging"
)

// countingDispatcher records each tick's commands and optionally fails
// every dispatch.
type countingDispatcher struct {
	ticks   [][]MotorCommand
	failAll error
}

func (d *countingDispatcher) Dispatch(_ context.Context, commands []MotorCommand) error {
	d.ticks = append(d.ticks, commands)
	return d.failAll
}

func streamOf(t *testing.T, points int) *JointExecutor {
	t.Helper()
	exec := NewJointExecutor(DefaultMotorConfig, logging.NewTestLogger(t))
	dt := DefaultControlPeriod.Seconds()
	require.NoError(t, exec.PlanJointPath(JointPlan{
		Waypoints: []JointAngles{{}, {10, 0, 0, 0, 0, 0}},
		Durations: []float64{float64(points-1) * dt},
	}))
	require.NoError(t, exec.GenerateTrajectoryPoints(dt))
	require.Len(t, exec.Points(), points)
	return exec
}

// drive advances the mock clock until Run reports back, then returns its
// error.
func drive(t *testing.T, clk *clock.Mock, done <-chan error) error {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case err := <-done:
			return err
		case <-deadline:
			t.Fatal("runner did not finish")
		default:
			clk.Add(DefaultControlPeriod)
			time.Sleep(time.Millisecond)
		}
	}
}

func TestRunnerDispatchesEveryPointOnce(t *testing.T) {
	exec := streamOf(t, 5)
	dispatcher := &countingDispatcher{}
	clk := clock.NewMock()
	runner := NewRunnerWithClock(dispatcher, clk, logging.NewTestLogger(t))

	done := make(chan error, 1)
	go func() { done <- runner.Run(context.Background(), exec, 2000) }()

	require.NoError(t, drive(t, clk, done))

	// One dispatch per pre-computed point, strictly in order.
	require.Len(t, dispatcher.ticks, 5)
	for _, cmds := range dispatcher.ticks {
		assert.Len(t, cmds, NumJoints)
	}
	first := dispatcher.ticks[0][0].TargetAngle
	last := dispatcher.ticks[4][0].TargetAngle
	assert.InDelta(t, 0, first, 1e-6)
	assert.InDelta(t, 10, last, 1e-6)
	assert.False(t, exec.IsExecuting())
}

func TestRunnerCancellationStopsStream(t *testing.T) {
	exec := streamOf(t, 50)
	dispatcher := &countingDispatcher{}
	clk := clock.NewMock()
	runner := NewRunnerWithClock(dispatcher, clk, logging.NewTestLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runner.Run(ctx, exec, 2000) }()

	// Let a few ticks through, then cancel mid-stream.
	for i := 0; i < 3; i++ {
		clk.Add(DefaultControlPeriod)
		time.Sleep(time.Millisecond)
	}
	cancel()

	err := drive(t, clk, done)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Less(t, len(dispatcher.ticks), 50)
	assert.False(t, exec.IsExecuting())
}

func TestRunnerAccumulatesDispatchErrors(t *testing.T) {
	exec := streamOf(t, 3)
	dispatcher := &countingDispatcher{failAll: errors.New("bus timeout")}
	clk := clock.NewMock()
	runner := NewRunnerWithClock(dispatcher, clk, logging.NewTestLogger(t))

	done := make(chan error, 1)
	go func() { done <- runner.Run(context.Background(), exec, 2000) }()

	err := drive(t, clk, done)

	// Failures never abort the stream: all three ticks went out, and the
	// aggregated error comes back with the completion.
	require.Error(t, err)
	assert.Len(t, dispatcher.ticks, 3)
	assert.Contains(t, err.Error(), "bus timeout")
}
