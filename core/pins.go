package core

import (
	"pinio/gpio"
	"pinio/pinaddr"
	"pinio/protocol"
)

// PinOut flags
const (
	PF_ON         = 1 << 0 // currently driven high
	PF_OUTPUT     = 1 << 1 // configured as output
	PF_DEFAULT_ON = 1 << 2 // default level driven on shutdown
)

// PinOut is one host-configured pin. The pin value on the wire is the
// packed pin address itself; the host takes it from the dictionary's pin
// enumeration, so only catalog pins ever arrive here.
type PinOut struct {
	OID   uint8
	Pin   pinaddr.Pin
	Flags uint8

	Timer       Timer
	queuedValue bool
}

var pinOuts = make(map[uint8]*PinOut)

// InitPinCommands registers the pin control commands.
func InitPinCommands() {
	RegisterCommand("config_pin", "oid=%c pin=%u out=%c value=%c default_value=%c", handleConfigPin)
	RegisterCommand("update_pin", "oid=%c value=%c", handleUpdatePin)
	RegisterCommand("queue_pin", "oid=%c clock=%u value=%c", handleQueuePin)
	RegisterCommand("toggle_pin", "oid=%c", handleTogglePin)
	RegisterCommand("read_pin", "oid=%c", handleReadPin)

	RegisterResponse("pin_state", "oid=%c value=%c")
}

// handleConfigPin binds an OID to a pin and configures its direction.
// Format: config_pin oid=%c pin=%u out=%c value=%c default_value=%c
func handleConfigPin(data *[]byte) error {
	oid, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	pinVal, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	out, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	value, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	defaultValue, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}

	if old, exists := pinOuts[uint8(oid)]; exists {
		// Reconfiguring an OID invalidates its pending scheduled update;
		// the old struct becomes unreachable once replaced in the map.
		CancelTimer(&old.Timer)
	}

	pout := &PinOut{
		OID: uint8(oid),
		Pin: pinaddr.Pin(pinVal),
	}
	if defaultValue != 0 {
		pout.Flags |= PF_DEFAULT_ON
	}

	if out != 0 {
		// Set the level before flipping the direction so the pin never
		// drives the wrong value, even for one cycle.
		gpio.Write(pout.Pin, value != 0)
		gpio.ConfigureOutput(pout.Pin)

		pout.Flags |= PF_OUTPUT
		if value != 0 {
			pout.Flags |= PF_ON
		}
	} else {
		gpio.ConfigureInput(pout.Pin)
	}

	pinOuts[uint8(oid)] = pout
	return nil
}

// handleUpdatePin drives a configured output immediately.
// Format: update_pin oid=%c value=%c
func handleUpdatePin(data *[]byte) error {
	oid, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	value, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}

	pout, exists := pinOuts[uint8(oid)]
	if !exists || pout.Flags&PF_OUTPUT == 0 {
		return nil
	}

	pout.setLevel(value != 0)
	return nil
}

// handleQueuePin schedules a level change for a clock time.
// Format: queue_pin oid=%c clock=%u value=%c
func handleQueuePin(data *[]byte) error {
	oid, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	clock, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	value, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}

	pout, exists := pinOuts[uint8(oid)]
	if !exists || pout.Flags&PF_OUTPUT == 0 {
		return nil
	}

	// A newer queue_pin supersedes a still-pending one for this OID. The
	// timer must leave the queue before its fields change.
	CancelTimer(&pout.Timer)

	pout.queuedValue = value != 0
	pout.Timer.WakeTime = clock
	pout.Timer.Handler = func(t *Timer) uint8 {
		pout.setLevel(pout.queuedValue)
		return SF_DONE
	}
	ScheduleTimer(&pout.Timer)

	return nil
}

// handleTogglePin inverts a configured output.
// Format: toggle_pin oid=%c
func handleTogglePin(data *[]byte) error {
	oid, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}

	pout, exists := pinOuts[uint8(oid)]
	if !exists || pout.Flags&PF_OUTPUT == 0 {
		return nil
	}

	gpio.Toggle(pout.Pin)
	pout.Flags ^= PF_ON
	return nil
}

// handleReadPin reports the sensed level of a configured pin.
// Format: read_pin oid=%c, response: pin_state oid=%c value=%c
func handleReadPin(data *[]byte) error {
	oid, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}

	pout, exists := pinOuts[uint8(oid)]
	if !exists {
		return nil
	}

	var value uint32
	if gpio.Read(pout.Pin) {
		value = 1
	}

	SendResponse("pin_state", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, uint32(pout.OID))
		protocol.EncodeVLQUint(output, value)
	})

	return nil
}

func (p *PinOut) setLevel(on bool) {
	gpio.Write(p.Pin, on)
	if on {
		p.Flags |= PF_ON
	} else {
		p.Flags &^= PF_ON
	}
}

// ShutdownPin returns one output to its default level.
func ShutdownPin(p *PinOut) {
	if p.Flags&PF_OUTPUT == 0 {
		return
	}
	p.setLevel(p.Flags&PF_DEFAULT_ON != 0)
	CancelTimer(&p.Timer)
}

// ShutdownAllPins returns every configured output to its default level.
// Called from the shutdown handler.
func ShutdownAllPins() {
	for _, pout := range pinOuts {
		if pout != nil {
			ShutdownPin(pout)
		}
	}
}

// ClearPins forgets all pin configuration.
func ClearPins() {
	pinOuts = make(map[uint8]*PinOut)
}
