package armcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMotorFrameConversionRoundTrip(t *testing.T) {
	cfg := StaticMotorConfig{
		Ratios:     [NumJoints]float64{1, 3, 2.5, 1, 1, 1},
		Directions: [NumJoints]int{1, -1, 1, -1, 1, 1},
	}

	for joint := 0; joint < NumJoints; joint++ {
		for _, angle := range []float64{-90, -10.5, 0, 33.3, 120} {
			motor := motorAngle(cfg, joint, angle)
			assert.InDelta(t, angle, JointFrameAngle(cfg, joint, motor), 1e-9)
		}
	}

	assert.InDelta(t, -30, motorAngle(cfg, 1, 10), 1e-9)
}

func TestMotorConfigOutOfRangeJointIsDirectDrive(t *testing.T) {
	cfg := StaticMotorConfig{
		Ratios:     [NumJoints]float64{2, 2, 2, 2, 2, 2},
		Directions: [NumJoints]int{-1, -1, -1, -1, -1, -1},
	}
	assert.InDelta(t, 1, cfg.ReducerRatio(-1), 1e-9)
	assert.InDelta(t, 1, cfg.ReducerRatio(NumJoints), 1e-9)
	assert.Equal(t, 1, cfg.Direction(NumJoints))
}
