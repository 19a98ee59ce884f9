// Package serial abstracts the host's serial link to the MCU so the mcu
// client can run over real hardware or an in-memory pipe in tests.
package serial

import (
	"io"
)

// Port is one open serial connection.
type Port interface {
	io.ReadWriteCloser

	// Flush drains any buffered outgoing data.
	Flush() error
}

// Config holds serial port configuration.
type Config struct {
	// Device path, e.g. "/dev/ttyUSB0" or "COM3".
	Device string

	// Baud rate. AVR boards with a real UART care about this; USB CDC
	// adapters ignore it.
	Baud int

	// Read timeout in milliseconds, 0 for blocking reads.
	ReadTimeout int
}

// DefaultConfig returns the configuration for a 16 MHz AVR board.
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        250000,
		ReadTimeout: 100,
	}
}
