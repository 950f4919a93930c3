package armcore

import (
	"context"
	"encoding/binary"
	"math"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.bug.st/serial"
	"go.viam.com/rdk/logging"
)

// Feetech SCS/STS protocol constants.
const (
	pktHeader   = 0xFF
	broadcastID = 0xFE

	instPing      = 0x01
	instRead      = 0x02
	instWrite     = 0x03
	instRegWrite  = 0x04
	instAction    = 0x05
	instSyncWrite = 0x83

	addrTorqueEnable    = 40
	addrGoalAccel       = 41
	addrGoalPosition    = 42
	addrGoalSpeed       = 46
	addrPresentPosition = 56

	ticksPerRev    = 4096
	centerPosition = 2048

	busReadTimeout = 100 * time.Millisecond
)

// FeetechBus implements MotorBus over a Feetech SCS/STS servo bus. One
// transaction at a time; the bus is half-duplex.
type FeetechBus struct {
	mu       sync.Mutex
	port     serial.Port
	portName string
	servoIDs []int
	logger   logging.Logger
}

// NewFeetechBus opens the serial port and verifies the configured servos
// respond.
func NewFeetechBus(cfg *Config, logger logging.Logger) (*FeetechBus, error) {
	port, err := serial.Open(cfg.Port, &serial.Mode{BaudRate: cfg.Baudrate})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open serial port %s", cfg.Port)
	}
	if err := port.SetReadTimeout(busReadTimeout); err != nil {
		port.Close()
		return nil, errors.Wrap(err, "failed to set read timeout")
	}

	bus := &FeetechBus{
		port:     port,
		portName: cfg.Port,
		servoIDs: append([]int(nil), cfg.ServoIDs...),
		logger:   logger,
	}

	for _, id := range bus.servoIDs {
		if err := bus.ping(id); err != nil {
			logger.Warnf("Servo %d did not respond to ping: %v", id, err)
		}
	}

	logger.Infof("Connected to servo bus on %s at %d baud", cfg.Port, cfg.Baudrate)
	return bus, nil
}

// Close disables torque on all servos and closes the port.
func (b *FeetechBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.port == nil {
		return nil
	}
	for _, id := range b.servoIDs {
		b.writeRegister(id, addrTorqueEnable, []byte{0}, instWrite)
	}
	err := b.port.Close()
	b.port = nil
	return err
}

// SetTorqueEnable enables or disables torque on all servos.
func (b *FeetechBus) SetTorqueEnable(enable bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	value := byte(0)
	if enable {
		value = 1
	}
	for _, id := range b.servoIDs {
		if err := b.writeRegister(id, addrTorqueEnable, []byte{value}, instWrite); err != nil {
			return errors.Wrapf(err, "servo %d", id)
		}
	}
	return nil
}

// Halt disables torque on all servos, abandoning any in-flight motion.
func (b *FeetechBus) Halt() error {
	return b.SetTorqueEnable(false)
}

// MoveToPosition commands one motor. With sync set the move is written to
// the servo's staging register and executes on the next broadcast action.
// The drives share a single ramp register, so decel is folded into accel.
func (b *FeetechBus) MoveToPosition(ctx context.Context, motorID int, angle float64, maxSpeed, accel, decel int, absolute, sync bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !absolute {
		return errors.New("relative moves are not supported on this bus")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if accel > 0 {
		ramp := accel
		if decel > accel {
			ramp = decel
		}
		if ramp > 254 {
			ramp = 254
		}
		if err := b.writeRegister(motorID, addrGoalAccel, []byte{byte(ramp)}, instWrite); err != nil {
			return errors.Wrapf(err, "servo %d acceleration", motorID)
		}
	}

	inst := byte(instWrite)
	if sync {
		inst = instRegWrite
	}
	return b.writeRegister(motorID, addrGoalPosition, goalBytes(angle, maxSpeed), inst)
}

// TriggerSynchronizedMotion broadcasts the action instruction, executing
// every staged sync move at once.
func (b *FeetechBus) TriggerSynchronizedMotion(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	_, err := b.transact(broadcastID, instAction, nil)
	return err
}

// SendMultiMotorCommand sends all commands in one sync-write frame; the
// servos latch and execute the targets together.
func (b *FeetechBus) SendMultiMotorCommand(ctx context.Context, commands []MotorCommand) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(commands) == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	const perServo = 6 // position(2) + time(2) + speed(2)
	params := make([]byte, 0, 2+len(commands)*(1+perServo))
	params = append(params, addrGoalPosition, perServo)
	for _, cmd := range commands {
		params = append(params, byte(cmd.MotorID))
		params = append(params, goalBytes(cmd.TargetAngle, cmd.Speed)...)
	}

	_, err := b.transact(broadcastID, instSyncWrite, params)
	return errors.Wrap(err, "sync write")
}

// ReadPosition reads a motor's present position and converts it to
// motor-frame degrees.
func (b *FeetechBus) ReadPosition(ctx context.Context, motorID int) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	response, err := b.transact(motorID, instRead, []byte{addrPresentPosition, 2})
	if err != nil {
		return 0, errors.Wrapf(err, "servo %d position read", motorID)
	}
	if len(response) < 2 {
		return 0, errors.Errorf("servo %d: short position response (%d bytes)", motorID, len(response))
	}

	ticks := int(binary.LittleEndian.Uint16(response[:2]))
	return ticksToDegrees(ticks), nil
}

func (b *FeetechBus) ping(id int) error {
	_, err := b.transact(id, instPing, nil)
	return err
}

func (b *FeetechBus) writeRegister(id, address int, data []byte, inst byte) error {
	params := make([]byte, 0, 1+len(data))
	params = append(params, byte(address))
	params = append(params, data...)
	_, err := b.transact(id, inst, params)
	return err
}

// transact sends one instruction frame and, for non-broadcast IDs, reads
// back the status frame's parameter bytes. Callers hold b.mu.
func (b *FeetechBus) transact(id int, instruction byte, params []byte) ([]byte, error) {
	if b.port == nil {
		return nil, errors.New("serial port is closed")
	}

	length := len(params) + 2 // instruction + checksum
	packet := make([]byte, 0, 6+len(params))
	packet = append(packet, pktHeader, pktHeader, byte(id), byte(length), instruction)
	packet = append(packet, params...)

	var checksum byte
	for _, v := range packet[2:] {
		checksum += v
	}
	packet = append(packet, ^checksum)

	if _, err := b.port.Write(packet); err != nil {
		return nil, errors.Wrap(err, "failed to write to serial port")
	}

	if id == broadcastID {
		return nil, nil
	}

	response := make([]byte, 64)
	n, err := b.port.Read(response)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response")
	}
	if n < 6 {
		return nil, errors.Errorf("short response (%d bytes)", n)
	}
	if response[0] != pktHeader || response[1] != pktHeader {
		return nil, errors.New("malformed response header")
	}
	if errBits := response[4]; errBits != 0 {
		return nil, errors.Errorf("servo %d reported error bits 0x%02x", id, errBits)
	}

	dataLen := int(response[3]) - 2
	if dataLen < 0 || 5+dataLen > n {
		return nil, errors.Errorf("invalid data length in response")
	}
	return response[5 : 5+dataLen], nil
}

// goalBytes encodes a motor-frame angle and speed as the six goal-register
// bytes: position, time (unused), speed.
func goalBytes(angle float64, speed int) []byte {
	data := make([]byte, 6)
	binary.LittleEndian.PutUint16(data[0:2], uint16(degreesToTicks(angle)))
	binary.LittleEndian.PutUint16(data[2:4], 0)
	binary.LittleEndian.PutUint16(data[4:6], uint16(speed))
	return data
}

// degreesToTicks converts motor-frame degrees to encoder ticks, centered
// at mid-range and clamped to the encoder span.
func degreesToTicks(angle float64) int {
	ticks := int(math.Round(angle*ticksPerRev/360)) + centerPosition
	if ticks < 0 {
		ticks = 0
	}
	if ticks > ticksPerRev-1 {
		ticks = ticksPerRev - 1
	}
	return ticks
}

// ticksToDegrees converts encoder ticks to motor-frame degrees.
func ticksToDegrees(ticks int) float64 {
	return float64(ticks-centerPosition) * 360 / ticksPerRev
}
