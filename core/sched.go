package core

import "pinio/gpio"

// Timer is one scheduled event. Handlers run from ProcessTimers in the
// main loop and return SF_RESCHEDULE after updating WakeTime to stay
// scheduled.
type Timer struct {
	WakeTime uint32
	Handler  func(*Timer) uint8
	Next     *Timer
}

const (
	SF_DONE       = 0
	SF_RESCHEDULE = 1
)

var timerList *Timer

// timerBefore orders wake times by signed tick difference, so the
// 32-bit clock may wrap mid-queue as long as no timer is scheduled more
// than half the clock period ahead.
func timerBefore(a, b uint32) bool {
	return int32(a-b) < 0
}

// ScheduleTimer inserts a timer into the queue, ordered by wake time.
// The queue is shared with interrupt context on hardware, so insertion
// runs inside a critical section.
func ScheduleTimer(t *Timer) {
	gpio.Critical(func() {
		insertTimer(t)
	})
}

func insertTimer(t *Timer) {
	if timerList == nil || timerBefore(t.WakeTime, timerList.WakeTime) {
		t.Next = timerList
		timerList = t
		return
	}

	cur := timerList
	for cur.Next != nil && timerBefore(cur.Next.WakeTime, t.WakeTime) {
		cur = cur.Next
	}

	t.Next = cur.Next
	cur.Next = t
}

// ProcessTimers runs every timer whose wake time has passed. Called from
// the firmware main loop after the clock advances.
func ProcessTimers() {
	now := GetTime()

	gpio.Critical(func() {
		for timerList != nil && !timerBefore(now, timerList.WakeTime) {
			t := timerList
			timerList = t.Next
			t.Next = nil

			if t.Handler(t) == SF_RESCHEDULE {
				insertTimer(t)
			}
		}
	})
}

// CancelTimer removes a timer from the queue if it is scheduled.
func CancelTimer(t *Timer) {
	gpio.Critical(func() {
		if timerList == t {
			timerList = t.Next
			t.Next = nil
			return
		}
		for cur := timerList; cur != nil; cur = cur.Next {
			if cur.Next == t {
				cur.Next = t.Next
				t.Next = nil
				return
			}
		}
	})
}

// resetTimers drops every scheduled timer. Used by tests and the
// firmware reset path.
func resetTimers() {
	gpio.Critical(func() {
		timerList = nil
	})
}
