// Command armctl plans a joint-space move and streams it to a servo bus.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"go.viam.com/rdk/logging"

	"armcore"
)

func main() {
	if err := realMain(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func realMain() error {
	portVal := flag.String("port", "", "Serial port path (empty to auto-discover)")
	baudVal := flag.Int("baud", 1000000, "Baudrate")
	targetVal := flag.String("target", "0,0,0,0,0,0", "Target joint angles in degrees, comma separated")
	speedVal := flag.Int("speed", 0, "Servo speed while streaming (0 for default)")
	driveParams := flag.String("drive-params", "", "Drive parameter JSON file")
	dryRun := flag.Bool("dry-run", false, "Plan and preview without touching hardware")
	flag.Parse()

	logger := logging.NewLogger("armctl")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	target, err := parseAngles(*targetVal)
	if err != nil {
		return err
	}

	port := *portVal
	if port == "" && !*dryRun {
		candidates := armcore.FindArmPorts()
		if len(candidates) == 0 {
			return fmt.Errorf("no candidate serial ports found; specify -port")
		}
		port = candidates[0]
		logger.Infof("Auto-selected port %s", port)
	}

	cfg := &armcore.Config{Port: port, Baudrate: *baudVal, DriveParamsFile: *driveParams, Logger: logger}
	if *dryRun && cfg.Port == "" {
		cfg.Port = "/dev/null"
	}
	if _, err := cfg.Validate(""); err != nil {
		return err
	}

	motors, _ := cfg.LoadDriveParams(logger)

	exec := armcore.NewJointExecutor(motors, logger)

	var current armcore.JointAngles
	var bus *armcore.FeetechBus
	gen := armcore.GenerationBroadcastSync
	if !*dryRun {
		responding, err := armcore.ProbeServos(ctx, cfg, logger)
		if err != nil {
			return err
		}
		for _, id := range cfg.ServoIDs {
			if !responding[id] {
				logger.Warnf("Servo %d did not respond to pre-flight ping", id)
			}
		}

		gen, err = armcore.DetectHardwareGeneration(ctx, cfg, logger)
		if err != nil {
			logger.Warnf("Hardware generation detection failed, using broadcast-sync: %v", err)
			gen = armcore.GenerationBroadcastSync
		}

		bus, err = armcore.NewFeetechBus(cfg, logger)
		if err != nil {
			return err
		}
		defer bus.Close()

		if err := bus.SetTorqueEnable(true); err != nil {
			logger.Warnf("Failed to enable torque: %v", err)
		}
		for i := 0; i < armcore.NumJoints; i++ {
			angle, err := bus.ReadPosition(ctx, i+1)
			if err != nil {
				logger.Warnf("Failed to read joint %d position, assuming 0: %v", i+1, err)
				continue
			}
			current[i] = armcore.JointFrameAngle(motors, i, angle)
		}
	}

	if err := exec.PlanJointMove([]armcore.JointAngles{current, target}, armcore.DefaultJointLimits); err != nil {
		return err
	}
	if err := exec.GenerateTrajectoryPoints(cfg.ControlPeriod.Seconds()); err != nil {
		return err
	}

	points := exec.Points()
	logger.Infof("Planned %.2fs trajectory with %d points", exec.Duration(), len(points))
	for i, pt := range points {
		if i >= 5 {
			logger.Infof("  ... (%d more points)", len(points)-i)
			break
		}
		logger.Infof("  t=%.3fs angles=%v", pt.Time, pt.Angles)
	}

	if *dryRun {
		return nil
	}

	runner := armcore.NewRunner(armcore.NewDispatcher(gen, bus, logger), logger)
	if err := runner.Run(ctx, exec, *speedVal); err != nil {
		// A finish with dispatch errors warrants a hardware stop.
		logger.Warnf("Trajectory finished with errors, halting: %v", err)
		if haltErr := bus.Halt(); haltErr != nil {
			logger.Errorf("Safety halt failed: %v", haltErr)
		}
		return err
	}

	logger.Info("Trajectory complete")
	return nil
}

func parseAngles(s string) (armcore.JointAngles, error) {
	var angles armcore.JointAngles
	parts := strings.Split(s, ",")
	if len(parts) != armcore.NumJoints {
		return angles, fmt.Errorf("expected %d comma-separated angles, got %d", armcore.NumJoints, len(parts))
	}
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return angles, fmt.Errorf("bad angle %q: %w", part, err)
		}
		angles[i] = v
	}
	return angles, nil
}
