//go:build !tinygo

package gpio

// State stands in for the saved interrupt flags when built with the
// host toolchain, where there is nothing to mask.
type State uintptr

func disableInterrupts() State { return 0 }

func restoreInterrupts(State) {}
