package armcore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"go.viam.com/rdk/logging"
)

// Config holds the connection and motion settings for one arm.
type Config struct {
	Port     string        `json:"port"`               // Required: serial port path (e.g., "/dev/ttyUSB0")
	Baudrate int           `json:"baudrate,omitempty"` // Servo bus baudrate (default: 1000000)
	Timeout  time.Duration `json:"timeout,omitempty"`  // Bus communication timeout (default: 5s)

	ServoIDs []int `json:"servo_ids,omitempty"` // Servo IDs for the 6 joints (default: [1,2,3,4,5,6])

	// Generation forces the dispatch strategy instead of probing the bus:
	// "batched", "broadcast-sync", or empty for auto-detection.
	Generation string `json:"generation,omitempty"`

	ControlPeriod time.Duration `json:"control_period,omitempty"` // Spacing between streamed points (default: 20ms)
	StreamSpeed   int           `json:"stream_speed,omitempty"`   // Servo speed while streaming (default: 3000)

	JointLimits     *JointLimits     `json:"joint_limits,omitempty"`
	CartesianLimits *CartesianLimits `json:"cartesian_limits,omitempty"`

	DriveParamsFile string `json:"drive_params_file,omitempty"` // Per-joint gear ratio/direction table

	// Not serialized
	Logger logging.Logger `json:"-"`
}

// Validate ensures all parts of the config are valid and fills defaults.
func (cfg *Config) Validate(path string) ([]string, error) {
	if cfg.Port == "" {
		return nil, errors.New("serial port must be specified")
	}

	if cfg.Baudrate == 0 {
		cfg.Baudrate = 1000000
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	if len(cfg.ServoIDs) == 0 {
		cfg.ServoIDs = []int{1, 2, 3, 4, 5, 6}
	}
	if len(cfg.ServoIDs) != NumJoints {
		return nil, errors.Errorf("expected %d servo IDs, got %d", NumJoints, len(cfg.ServoIDs))
	}
	if cfg.ControlPeriod == 0 {
		cfg.ControlPeriod = DefaultControlPeriod
	}
	if cfg.StreamSpeed == 0 {
		cfg.StreamSpeed = defaultStreamSpeed
	}
	if cfg.StreamSpeed < 1 || cfg.StreamSpeed > 4094 {
		return nil, errors.Errorf("stream_speed must be between 1 and 4094, got %d", cfg.StreamSpeed)
	}

	switch cfg.Generation {
	case "", "batched", "broadcast-sync":
	default:
		return nil, errors.Errorf("generation must be 'batched' or 'broadcast-sync', got '%s'", cfg.Generation)
	}

	return nil, nil
}

// DispatchGeneration maps the configured generation string onto a
// HardwareGeneration, GenerationUnknown meaning auto-detect.
func (cfg *Config) DispatchGeneration() HardwareGeneration {
	switch cfg.Generation {
	case "batched":
		return GenerationBatched
	case "broadcast-sync":
		return GenerationBroadcastSync
	default:
		return GenerationUnknown
	}
}

// DriveParams is one joint's entry in the drive-parameter file.
type DriveParams struct {
	JointID      int     `json:"joint_id"`
	ReducerRatio float64 `json:"reducer_ratio"`
	Direction    int     `json:"direction"`
}

// DriveParamsFile is the on-disk drive-parameter table.
type DriveParamsFile struct {
	Joints []DriveParams `json:"joints"`
}

// LoadDriveParams loads the per-joint gear table from the configured file,
// falling back to direct drive when no file is configured or it cannot be
// read. Returns (params, fromFile).
func (cfg *Config) LoadDriveParams(logger logging.Logger) (StaticMotorConfig, bool) {
	if cfg.DriveParamsFile == "" {
		if logger != nil {
			logger.Debug("No drive parameter file specified, assuming direct drive")
		}
		return DefaultMotorConfig, false
	}

	path := cfg.DriveParamsFile
	if !filepath.IsAbs(path) {
		dataDir := os.Getenv("ARMCORE_DATA")
		if dataDir == "" {
			dataDir = "/tmp"
		}
		path = filepath.Join(dataDir, path)
	}

	params, err := LoadDriveParamsFromFile(path)
	if err != nil {
		if logger != nil {
			logger.Warnf("Failed to load drive parameters from %s: %v, assuming direct drive", path, err)
		}
		return DefaultMotorConfig, false
	}

	if logger != nil {
		logger.Infof("Loaded drive parameters from %s", path)
	}
	return params, true
}

// LoadDriveParamsFromFile reads and validates a drive-parameter table.
// Joints missing from the file keep the direct-drive default.
func LoadDriveParamsFromFile(path string) (StaticMotorConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return StaticMotorConfig{}, errors.Wrap(err, "failed to read drive parameter file")
	}

	var file DriveParamsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return StaticMotorConfig{}, errors.Wrap(err, "failed to parse drive parameter JSON")
	}

	params := DefaultMotorConfig
	for _, joint := range file.Joints {
		if joint.JointID < 1 || joint.JointID > NumJoints {
			return StaticMotorConfig{}, errors.Errorf("joint_id must be 1-%d, got %d", NumJoints, joint.JointID)
		}
		if joint.ReducerRatio <= 0 {
			return StaticMotorConfig{}, errors.Errorf("joint %d: reducer_ratio must be positive, got %g", joint.JointID, joint.ReducerRatio)
		}
		if joint.Direction != 1 && joint.Direction != -1 {
			return StaticMotorConfig{}, errors.Errorf("joint %d: direction must be +1 or -1, got %d", joint.JointID, joint.Direction)
		}
		params.Ratios[joint.JointID-1] = joint.ReducerRatio
		params.Directions[joint.JointID-1] = joint.Direction
	}
	return params, nil
}

// SaveDriveParamsToFile writes a drive-parameter table as JSON.
func SaveDriveParamsToFile(path string, params StaticMotorConfig) error {
	file := DriveParamsFile{Joints: make([]DriveParams, 0, NumJoints)}
	for i := 0; i < NumJoints; i++ {
		file.Joints = append(file.Joints, DriveParams{
			JointID:      i + 1,
			ReducerRatio: params.ReducerRatio(i),
			Direction:    params.Direction(i),
		})
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal drive parameters")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(err, "failed to write drive parameter file")
	}
	return nil
}
