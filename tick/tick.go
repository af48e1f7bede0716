// Package tick wraps the kernel tick counter in typed durations and time
// points.
//
// The clock is monotonic and steady. The counter is as wide as kernel.Ticks
// (32 bits), so it wraps every 2^32/RateHz seconds, about 49.7 days at
// 1000 Hz. Differences between time points are computed modulo the counter
// width and are meaningful for spans up to half the wrap period.
package tick

import (
	"time"

	"rtthread/kernel"
)

// RateHz is the tick frequency.
const RateHz = kernel.TickRateHz

// Period is the length of one tick.
const Period = time.Second / RateHz

// Duration is a span measured in ticks.
type Duration kernel.Ticks

// TimePoint is a tick count since kernel start.
type TimePoint kernel.Ticks

// Infinity is the Duration meaning "wait with no timeout".
const Infinity = Duration(kernel.WaitForever)

// Source is a monotonic tick counter.
type Source interface {
	TimeGet() kernel.Ticks
}

// Now returns the current tick count. It never blocks or allocates and may be
// called from interrupt context.
func Now(src Source) TimePoint {
	return TimePoint(src.TimeGet())
}

// ToTicks returns d in native ticks.
func ToTicks(d Duration) kernel.Ticks {
	return kernel.Ticks(d)
}

// Ticks returns tp in native ticks since kernel start.
func (tp TimePoint) Ticks() kernel.Ticks {
	return kernel.Ticks(tp)
}

// Add returns tp+d, wrapping with the counter.
func (tp TimePoint) Add(d Duration) TimePoint {
	return tp + TimePoint(d)
}

// Sub returns tp-u in ticks. The result is negative when tp is before u.
func (tp TimePoint) Sub(u TimePoint) int64 {
	return int64(int32(uint32(tp) - uint32(u)))
}

// Before reports whether tp is before u.
func (tp TimePoint) Before(u TimePoint) bool {
	return tp.Sub(u) < 0
}

// Until returns the time left from now until deadline, or zero if the
// deadline has passed. A deadline 2^31 or more ticks after now is taken as
// passed.
func Until(now, deadline TimePoint) Duration {
	d := deadline.Sub(now)
	if d <= 0 {
		return 0
	}
	return Duration(d)
}

// FromStd converts d to ticks, truncating toward zero. Negative durations
// become zero; durations too long to represent saturate just below Infinity.
func FromStd(d time.Duration) Duration {
	if d <= 0 {
		return 0
	}
	n := d / Period
	if n >= time.Duration(Infinity) {
		return Infinity - 1
	}
	return Duration(n)
}

// Std converts d to a time.Duration. Infinity has no finite equivalent and
// converts to the largest time.Duration.
func (d Duration) Std() time.Duration {
	if d == Infinity {
		return time.Duration(1<<63 - 1)
	}
	return time.Duration(d) * Period
}
