package core

import "sync/atomic"

var systemTicks uint32

// GetTime returns the current system time in timer ticks. The tick source
// is target code: the firmware main loop advances it from the hardware
// timer, tests set it directly.
func GetTime() uint32 {
	return atomic.LoadUint32(&systemTicks)
}

// SetTime sets the current system time.
func SetTime(ticks uint32) {
	atomic.StoreUint32(&systemTicks, ticks)
}

// AdvanceTime moves the clock forward by delta ticks.
func AdvanceTime(delta uint32) uint32 {
	return atomic.AddUint32(&systemTicks, delta)
}
