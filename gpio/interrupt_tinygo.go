//go:build tinygo

package gpio

import "runtime/interrupt"

// On hardware, Critical masks interrupts so register read-modify-write
// sequences and timer queue updates cannot race an interrupt handler.

func disableInterrupts() interrupt.State {
	return interrupt.Disable()
}

func restoreInterrupts(state interrupt.State) {
	interrupt.Restore(state)
}
