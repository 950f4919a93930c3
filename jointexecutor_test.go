package armcore

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.viam.com/rdk/logging"
)

func TestJointExecutorGeneratesRestToRestStream(t *testing.T) {
	exec := NewJointExecutor(DefaultMotorConfig, logging.NewTestLogger(t))

	waypoints := []JointAngles{
		{0, 0, 0, 0, 0, 0},
		{45, -30, 60, 15, 0, -20},
	}
	require.NoError(t, exec.PlanJointMove(waypoints, DefaultJointLimits))
	require.NoError(t, exec.GenerateTrajectoryPoints(0.02))
	require.True(t, exec.IsExecuting())

	points := exec.Points()
	require.GreaterOrEqual(t, len(points), 2)

	first, last := points[0], points[len(points)-1]
	for i := 0; i < NumJoints; i++ {
		assert.InDelta(t, waypoints[0][i], first.Angles[i], 1e-6)
		assert.InDelta(t, 0, first.Velocities[i], 1e-6)
		assert.InDelta(t, waypoints[1][i], last.Angles[i], 1e-6)
		assert.InDelta(t, 0, last.Velocities[i], 1e-6)
	}
	assert.InDelta(t, exec.Duration(), last.Time, 1e-9)

	// Sample times are an even grid except for the clamped final sample.
	for k := 1; k < len(points)-1; k++ {
		assert.InDelta(t, float64(k)*0.02, points[k].Time, 1e-9)
	}
}

func TestJointExecutorStreamReachesHardwareFrame(t *testing.T) {
	cfg := StaticMotorConfig{
		Ratios:     [NumJoints]float64{1, 3, 1, 1, 1, 1},
		Directions: [NumJoints]int{1, -1, 1, 1, 1, 1},
	}
	exec := NewJointExecutor(cfg, logging.NewTestLogger(t))

	require.NoError(t, exec.PlanJointPath(JointPlan{
		Waypoints: []JointAngles{{0, 0, 0, 0, 0, 0}, {0, 10, 0, 0, 0, 0}},
		Durations: []float64{1.0},
	}))
	require.NoError(t, exec.GenerateTrajectoryPoints(0.5))

	// Drain the stream and keep the last non-finished command set.
	var lastCmds []MotorCommand
	for {
		cmds, info := exec.NextMotorCommands(1000)
		if info.Finished {
			break
		}
		lastCmds = cmds
	}
	require.Len(t, lastCmds, NumJoints)
	assert.Equal(t, 2, lastCmds[1].MotorID)
	assert.InDelta(t, -30, lastCmds[1].TargetAngle, 1e-6)
}

func TestJointExecutorRequiresPlan(t *testing.T) {
	exec := NewJointExecutor(DefaultMotorConfig, logging.NewTestLogger(t))
	err := exec.GenerateTrajectoryPoints(0.02)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotPlanned))
}

func TestJointExecutorReplanDiscardsOldStream(t *testing.T) {
	exec := NewJointExecutor(DefaultMotorConfig, logging.NewTestLogger(t))

	require.NoError(t, exec.PlanJointMove([]JointAngles{{}, {10, 0, 0, 0, 0, 0}}, DefaultJointLimits))
	require.NoError(t, exec.GenerateTrajectoryPoints(0.02))
	firstLen := len(exec.Points())
	require.Greater(t, firstLen, 0)

	// Replanning drops the generated points until regeneration.
	require.NoError(t, exec.PlanJointMove([]JointAngles{{}, {90, 0, 0, 0, 0, 0}}, DefaultJointLimits))
	assert.Empty(t, exec.Points())
	assert.False(t, exec.IsExecuting())

	require.NoError(t, exec.GenerateTrajectoryPoints(0.02))
	assert.Greater(t, len(exec.Points()), firstLen)
}
