package armcore

import (
	"testing"

	"github.com/hipsterbrown/feetech-servo/feetech"
	"github.com/stretchr/testify/assert"
)

func TestFilterCandidatePorts(t *testing.T) {
	tests := []struct {
		name     string
		ports    []string
		expected []string
	}{
		{
			name:     "Linux USB ports",
			ports:    []string{"/dev/ttyUSB0", "/dev/ttyS0", "/dev/ttyACM0", "/dev/null"},
			expected: []string{"/dev/ttyUSB0", "/dev/ttyACM0"},
		},
		{
			name:     "macOS USB ports",
			ports:    []string{"/dev/tty.usbmodem123", "/dev/tty.Bluetooth", "/dev/cu.usbserial-AB"},
			expected: []string{"/dev/tty.usbmodem123", "/dev/cu.usbserial-AB"},
		},
		{
			name:     "Windows COM ports",
			ports:    []string{"COM3", "COM10", "LPT1", "PRN"},
			expected: []string{"COM3", "COM10"},
		},
		{
			name:     "Empty list",
			ports:    []string{},
			expected: []string{},
		},
		{
			name:     "No matching ports",
			ports:    []string{"/dev/null", "/dev/zero"},
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := filterCandidatePorts(tt.ports)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestGenerationFromModels(t *testing.T) {
	tests := []struct {
		name     string
		found    []feetech.FoundServo
		expected HardwareGeneration
	}{
		{
			name: "all STS series",
			found: []feetech.FoundServo{
				{ID: 1, ModelNumber: feetech.ModelSTS3215.Number, Model: &feetech.ModelSTS3215},
				{ID: 2, ModelNumber: feetech.ModelSTS3215.Number, Model: &feetech.ModelSTS3215},
				{ID: 3, ModelNumber: feetech.ModelSTS3250.Number, Model: &feetech.ModelSTS3250},
			},
			expected: GenerationBatched,
		},
		{
			name: "all SCS series",
			found: []feetech.FoundServo{
				{ID: 1, ModelNumber: feetech.ModelSCS0009.Number, Model: &feetech.ModelSCS0009},
				{ID: 2, ModelNumber: feetech.ModelSCS0009.Number, Model: &feetech.ModelSCS0009},
			},
			expected: GenerationBroadcastSync,
		},
		{
			name: "mixed bus forces two-phase dispatch",
			found: []feetech.FoundServo{
				{ID: 1, ModelNumber: feetech.ModelSTS3215.Number, Model: &feetech.ModelSTS3215},
				{ID: 2, ModelNumber: feetech.ModelSCS0009.Number, Model: &feetech.ModelSCS0009},
				{ID: 3, ModelNumber: feetech.ModelSTS3215.Number, Model: &feetech.ModelSTS3215},
			},
			expected: GenerationBroadcastSync,
		},
		{
			name: "unrecognized model is treated as older hardware",
			found: []feetech.FoundServo{
				{ID: 1, ModelNumber: feetech.ModelSTS3215.Number, Model: &feetech.ModelSTS3215},
				{ID: 2, ModelNumber: 4242, Model: nil},
			},
			expected: GenerationBroadcastSync,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, generationFromModels(tt.found))
		})
	}
}

func TestServoIDRange(t *testing.T) {
	lo, hi := servoIDRange([]int{4, 1, 6, 2, 3, 5})
	assert.Equal(t, 1, lo)
	assert.Equal(t, 6, hi)

	lo, hi = servoIDRange(nil)
	assert.Equal(t, 1, lo)
	assert.Equal(t, NumJoints, hi)
}
