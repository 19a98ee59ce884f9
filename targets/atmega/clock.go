//go:build tinygo && avr

package main

import (
	"runtime/volatile"
	"unsafe"

	"pinio/core"
)

// ATmega Timer1 memory map.
const (
	tccr1aAddr = 0x80
	tccr1bAddr = 0x81
	tcnt1lAddr = 0x84
	tcnt1hAddr = 0x85
)

const clockFreq = 16000000

var (
	tccr1a = (*volatile.Register8)(unsafe.Pointer(uintptr(tccr1aAddr)))
	tccr1b = (*volatile.Register8)(unsafe.Pointer(uintptr(tccr1bAddr)))
	tcnt1l = (*volatile.Register8)(unsafe.Pointer(uintptr(tcnt1lAddr)))
	tcnt1h = (*volatile.Register8)(unsafe.Pointer(uintptr(tcnt1hAddr)))
)

// timerHigh extends the 16-bit hardware counter to 32 bits in software.
var (
	timerHigh uint16
	timerLast uint16
)

// InitClock starts Timer1 free-running at the CPU clock.
func InitClock() {
	tccr1a.Set(0x00)
	tccr1b.Set(0x01) // clk/1, normal mode
}

// readTCNT1 reads the 16-bit counter, low byte first so the hardware
// temp register latches a consistent high byte.
func readTCNT1() uint16 {
	low := tcnt1l.Get()
	high := tcnt1h.Get()
	return uint16(high)<<8 | uint16(low)
}

// GetHardwareTime returns a 32-bit tick counter built from Timer1. It
// must be called at least once per 16-bit rollover (about 4ms at 16MHz),
// which the main loop guarantees.
func GetHardwareTime() uint32 {
	now := readTCNT1()
	if now < timerLast {
		timerHigh++
	}
	timerLast = now
	return uint32(timerHigh)<<16 | uint32(now)
}

// UpdateSystemTime publishes the hardware time to the timer queue.
func UpdateSystemTime() {
	core.SetTime(GetHardwareTime())
}
