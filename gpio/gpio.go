// Package gpio is the public pin access surface: direction configuration
// and single-bit reads and writes over packed pin addresses. Every
// operation is a thin wrapper around one register resolved by package
// regio and the pin's bit mask, and compiles to the same register
// instructions as writing the register access by hand.
//
// The set/clear/configure operations are read-modify-write sequences on a
// register shared by all pins of the bank. They are not atomic with
// respect to interrupts: an interrupt handler touching the same register
// between the read and the write loses its update. Callers sharing a bank
// with interrupt context wrap the call in Critical.
package gpio

import (
	"pinio/pinaddr"
	"pinio/regio"
)

// ConfigureOutput configures the pin as a digital output.
func ConfigureOutput(p pinaddr.Pin) {
	regio.Dir(p).SetBits(p.Mask())
}

// ConfigureInput configures the pin as a digital input.
func ConfigureInput(p pinaddr.Pin) {
	regio.Dir(p).ClearBits(p.Mask())
}

// SetHigh drives an output-configured pin high.
func SetHigh(p pinaddr.Pin) {
	regio.Out(p).SetBits(p.Mask())
}

// SetLow drives an output-configured pin low.
func SetLow(p pinaddr.Pin) {
	regio.Out(p).ClearBits(p.Mask())
}

// Write drives the pin high when on is true, low otherwise.
func Write(p pinaddr.Pin, on bool) {
	if on {
		SetHigh(p)
	} else {
		SetLow(p)
	}
}

// Toggle inverts the driven level of an output-configured pin.
func Toggle(p pinaddr.Pin) {
	r := regio.Out(p)
	r.Set(r.Get() ^ p.Mask())
}

// Read returns the sensed level of the pin.
func Read(p pinaddr.Pin) bool {
	return regio.In(p).HasBits(p.Mask())
}

// Critical runs fn with interrupts masked, restoring the previous
// interrupt state afterwards. Use it around pin operations on banks that
// interrupt handlers also modify.
func Critical(fn func()) {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	fn()
}
