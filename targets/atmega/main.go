//go:build tinygo && avr

package main

import (
	"machine"
	"runtime/volatile"
	"unsafe"

	"pinio/avr"
	"pinio/core"
	"pinio/gpio"
	"pinio/protocol"
)

var (
	inputBuffer  *protocol.FifoBuffer
	outputBuffer *protocol.ScratchOutput
	transport    *protocol.Transport
)

func main() {
	machine.Serial.Configure(machine.UARTConfig{BaudRate: 250000})

	InitClock()

	core.InitCoreCommands()
	core.InitPinCommands()

	// The pin enumeration must be registered before Build: it is how the
	// host learns which packed pin addresses this chip accepts.
	core.RegisterEnumeration("pin", avr.PinValues())

	dict := core.GetGlobalDictionary()
	dict.SetMCU(avr.Variant, clockFreq)
	dict.Build()

	inputBuffer = protocol.NewFifoBuffer(192)
	outputBuffer = protocol.NewScratchOutput()

	transport = protocol.NewTransport(outputBuffer, handleCommand)
	transport.SetResetCallback(func() {
		inputBuffer.Reset()
		outputBuffer.Reset()
		core.ResetFirmwareState()
	})
	// ACKs must reach the host before any response frame.
	transport.SetFlushCallback(flushSerial)
	core.SetGlobalTransport(transport)

	core.SetResetHandler(resetMCU)

	for {
		UpdateSystemTime()

		pumpSerial()
		if inputBuffer.Available() > 0 {
			transport.Receive(inputBuffer)
		}
		flushSerial()

		// Only reset once the ACK has gone out on the wire.
		core.CheckPendingReset()

		core.ProcessTimers()
	}
}

func handleCommand(cmdID uint16, data *[]byte) error {
	return core.DispatchCommand(cmdID, data)
}

// pumpSerial drains the UART receive buffer into the frame FIFO.
func pumpSerial() {
	for machine.Serial.Buffered() > 0 {
		b, err := machine.Serial.ReadByte()
		if err != nil {
			return
		}
		if inputBuffer.Write([]byte{b}) == 0 {
			// FIFO full; the host retransmits after the resync.
			return
		}
	}
}

func flushSerial() {
	result := outputBuffer.Result()
	if len(result) > 0 {
		machine.Serial.Write(result)
		outputBuffer.Reset()
	}
}

const wdtcsrAddr = 0x60

var wdtcsr = (*volatile.Register8)(unsafe.Pointer(uintptr(wdtcsrAddr)))

// resetMCU reboots through the watchdog: enable it with the shortest
// timeout and spin until it fires.
func resetMCU() {
	gpio.Critical(func() {
		wdtcsr.Set(0x18) // WDCE|WDE opens the timed change window
		wdtcsr.Set(0x08) // WDE with the 16ms timeout
	})
	for {
	}
}
