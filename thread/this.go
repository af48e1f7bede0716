package thread

import (
	"time"

	"rtthread/kernel"
	"rtthread/tick"
)

// Yield gives the rest of the calling thread's turn to other ready threads of
// the same priority.
func Yield(k Kernel) {
	k.ThreadRelinquish()
}

// CurrentID returns the identity of the calling thread, or 0 outside a
// thread handle.
func CurrentID(k Kernel) ID {
	if t := Current(k); t != nil {
		return t.ID()
	}
	return 0
}

// SleepFor blocks the calling thread for at least d ticks. Zero returns at
// once; tick.Infinity sleeps until the thread is resumed.
func SleepFor(k Kernel, d tick.Duration) {
	if st := k.ThreadSleep(tick.ToTicks(d)); st != kernel.Success {
		kernel.Fatalf("thread: sleep %d ticks: %w", d, st.Err())
	}
}

// SleepForStd is SleepFor for a time.Duration, truncated to whole ticks.
func SleepForStd(k Kernel, d time.Duration) {
	SleepFor(k, tick.FromStd(d))
}

// SleepUntil blocks the calling thread until deadline. A deadline in the past
// returns at once. Deadlines are compared modulo the tick counter, so one
// 2^31 or more ticks ahead (about 24.8 days at 1000 Hz) counts as past; use
// SleepFor for longer waits.
func SleepUntil(k Kernel, deadline tick.TimePoint) {
	SleepFor(k, tick.Until(tick.Now(k), deadline))
}
