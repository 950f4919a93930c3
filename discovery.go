package armcore

import (
	"context"
	"strings"
	"time"

	"github.com/hipsterbrown/feetech-servo/feetech"
	"github.com/pkg/errors"
	"go.bug.st/serial/enumerator"
	"go.viam.com/rdk/logging"
)

// EnumerateSerialPorts returns every serial port on the system.
func EnumerateSerialPorts() []string {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return []string{}
	}

	var portPaths []string
	for _, port := range ports {
		portPaths = append(portPaths, port.Name)
	}
	return portPaths
}

// filterCandidatePorts filters serial ports by platform-specific naming
// patterns.
func filterCandidatePorts(ports []string) []string {
	candidates := []string{}
	for _, port := range ports {
		if isCandidatePort(port) {
			candidates = append(candidates, port)
		}
	}
	return candidates
}

// isCandidatePort checks if a port matches USB serial adapter patterns.
func isCandidatePort(port string) bool {
	// Linux: /dev/ttyUSB*, /dev/ttyACM*
	if strings.HasPrefix(port, "/dev/ttyUSB") || strings.HasPrefix(port, "/dev/ttyACM") {
		return true
	}
	// macOS: /dev/tty.usbmodem*, /dev/tty.usbserial*, /dev/cu.usbmodem*, /dev/cu.usbserial*
	if strings.HasPrefix(port, "/dev/tty.usbmodem") || strings.HasPrefix(port, "/dev/tty.usbserial") ||
		strings.HasPrefix(port, "/dev/cu.usbmodem") || strings.HasPrefix(port, "/dev/cu.usbserial") {
		return true
	}
	// Windows: COM*
	if strings.HasPrefix(port, "COM") {
		return true
	}
	return false
}

// FindArmPorts enumerates serial ports and returns the candidates likely
// to carry a servo bus.
func FindArmPorts() []string {
	return filterCandidatePorts(EnumerateSerialPorts())
}

// probeTimeout caps the configured bus timeout for discovery probes so an
// empty bus does not stall startup.
func probeTimeout(cfg *Config) time.Duration {
	if cfg.Timeout > 0 && cfg.Timeout < 500*time.Millisecond {
		return cfg.Timeout
	}
	return 500 * time.Millisecond
}

// DetectHardwareGeneration scans the servo bus once, before a trajectory
// run, to decide which synchronization protocol the connected drives
// speak. STS-series servos accept atomic multi-motor sync writes; older
// SCS-series buses get the two-phase arm-and-trigger pattern. The result
// is held fixed for the whole session.
func DetectHardwareGeneration(ctx context.Context, cfg *Config, logger logging.Logger) (HardwareGeneration, error) {
	if gen := cfg.DispatchGeneration(); gen != GenerationUnknown {
		logger.Infof("Dispatch strategy forced by config: %s", gen)
		return gen, nil
	}

	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     cfg.Port,
		BaudRate: cfg.Baudrate,
		Protocol: feetech.ProtocolSTS,
		Timeout:  probeTimeout(cfg),
	})
	if err != nil {
		return GenerationUnknown, errors.Wrapf(err, "failed to open port %s", cfg.Port)
	}
	defer bus.Close()

	lo, hi := servoIDRange(cfg.ServoIDs)
	found, err := bus.Scan(ctx, lo, hi)
	if err != nil {
		return GenerationUnknown, errors.Wrap(err, "servo scan failed")
	}
	if len(found) == 0 {
		return GenerationUnknown, errors.Errorf("no servos found on %s", cfg.Port)
	}

	gen := generationFromModels(found)
	logger.Infof("Detected %d servos on %s, dispatch strategy: %s", len(found), cfg.Port, gen)
	return gen, nil
}

// servoIDRange returns the inclusive ID span covering the configured
// servos.
func servoIDRange(ids []int) (int, int) {
	if len(ids) == 0 {
		return 1, NumJoints
	}
	lo, hi := ids[0], ids[0]
	for _, id := range ids[1:] {
		if id < lo {
			lo = id
		}
		if id > hi {
			hi = id
		}
	}
	return lo, hi
}

// generationFromModels maps scanned servo models onto a hardware
// generation. A single non-STS servo on the bus, or one whose model the
// SDK does not recognize, forces the conservative two-phase strategy for
// everyone.
func generationFromModels(found []feetech.FoundServo) HardwareGeneration {
	gen := GenerationBatched
	for _, servo := range found {
		if servo.Model == nil || servo.Model.Protocol != feetech.ProtocolSTS {
			gen = GenerationBroadcastSync
		}
	}
	return gen
}

// ProbeServos pings each configured servo and reports which responded.
func ProbeServos(ctx context.Context, cfg *Config, logger logging.Logger) (map[int]bool, error) {
	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     cfg.Port,
		BaudRate: cfg.Baudrate,
		Protocol: feetech.ProtocolSTS,
		Timeout:  probeTimeout(cfg),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open port %s", cfg.Port)
	}
	defer bus.Close()

	responding := make(map[int]bool, len(cfg.ServoIDs))
	for _, id := range cfg.ServoIDs {
		servo := feetech.NewServo(bus, id, &feetech.ModelSTS3215)
		if _, err := servo.Ping(ctx); err != nil {
			logger.Debugf("Servo %d did not respond to ping: %v", id, err)
			responding[id] = false
			continue
		}
		responding[id] = true
	}
	return responding, nil
}
