package core

import (
	"sync/atomic"

	"pinio/protocol"
)

var isShutdown uint32 // atomic bool

// InitCoreCommands registers the bootstrap and housekeeping commands.
// identify_response and identify must be registered first: the host only
// knows those two IDs before it has the dictionary.
func InitCoreCommands() {
	RegisterResponse("identify_response", "offset=%u data=%*s")
	RegisterCommand("identify", "offset=%u count=%c", handleIdentify)

	RegisterCommand("get_clock", "", handleGetClock)
	RegisterCommand("get_status", "", handleGetStatus)
	RegisterCommand("emergency_stop", "", handleEmergencyStop)
	RegisterCommand("reset", "", handleReset)

	RegisterResponse("clock", "clock=%u")
	RegisterResponse("status", "is_shutdown=%c pins=%c")
}

// handleIdentify serves one chunk of the data dictionary.
func handleIdentify(data *[]byte) error {
	offset, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}

	count, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}

	chunk := GetGlobalDictionary().GetChunk(offset, uint8(count))

	SendResponse("identify_response", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, offset)
		protocol.EncodeVLQBytes(output, chunk)
	})

	return nil
}

func handleGetClock(data *[]byte) error {
	clock := GetTime()

	SendResponse("clock", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, clock)
	})

	return nil
}

func handleGetStatus(data *[]byte) error {
	shutdown := IsShutdown()
	configured := uint32(len(pinOuts))

	SendResponse("status", func(output protocol.OutputBuffer) {
		if shutdown {
			protocol.EncodeVLQUint(output, 1)
		} else {
			protocol.EncodeVLQUint(output, 0)
		}
		protocol.EncodeVLQUint(output, configured)
	})

	return nil
}

// handleEmergencyStop drives every configured output back to its default
// level and stops accepting scheduled updates.
func handleEmergencyStop(data *[]byte) error {
	atomic.StoreUint32(&isShutdown, 1)
	resetTimers()
	ShutdownAllPins()
	return nil
}

// IsShutdown reports whether the firmware is in the shutdown state.
func IsShutdown() bool {
	return atomic.LoadUint32(&isShutdown) != 0
}

// ResetFirmwareState clears the shutdown flag and all pin configuration,
// e.g. after a host reconnect.
func ResetFirmwareState() {
	atomic.StoreUint32(&isShutdown, 0)
	resetTimers()
	ClearPins()
}

// SendResponse frames a pre-registered response message on the global
// transport.
func SendResponse(name string, args func(output protocol.OutputBuffer)) {
	if globalTransport == nil {
		return
	}

	cmd, ok := globalRegistry.GetCommandByName(name)
	if !ok {
		// Responses are registered at init; a miss is a firmware bug.
		panic("response not registered: " + name)
	}

	globalTransport.SendMessage(cmd.ID, args)
}

var globalTransport *protocol.Transport

// SetGlobalTransport installs the transport used for responses.
func SetGlobalTransport(t *protocol.Transport) {
	globalTransport = t
}

var globalResetHandler func()

// resetPending defers the hardware reset until the ACK has gone out.
var resetPending uint32 // atomic bool

// SetResetHandler installs the target's hardware reset hook.
func SetResetHandler(handler func()) {
	globalResetHandler = handler
}

func handleReset(_ *[]byte) error {
	atomic.StoreUint32(&resetPending, 1)
	return nil
}

// CheckPendingReset executes a requested reset. Called from the main
// loop once pending output has been flushed.
func CheckPendingReset() {
	if atomic.LoadUint32(&resetPending) != 0 && globalResetHandler != nil {
		globalResetHandler()
	}
}
