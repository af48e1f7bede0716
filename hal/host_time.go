//go:build !tinygo

package hal

import "time"

// TickPeriod is the host time represented by one tick.
const TickPeriod = time.Millisecond

type hostTime struct {
	ch  chan uint64
	seq uint64
	// sent is the last sequence number the consumer accepted. Ticks that
	// do not fit in the channel are carried in seq and delivered later.
	sent uint64

	last time.Time
	acc  time.Duration
	now  func() time.Time
}

func newHostTime() *hostTime {
	return &hostTime{ch: make(chan uint64, 1024), now: time.Now}
}

func (t *hostTime) Ticks() <-chan uint64 { return t.ch }

// step advances the tick sequence by the host time elapsed since the last
// call. The first call advances by n.
func (t *hostTime) step(n uint64) {
	now := t.now()
	if t.last.IsZero() {
		t.last = now
		t.acc = 0
		t.stepN(n)
		return
	}

	t.acc += now.Sub(t.last)
	t.last = now

	ticks := uint64(t.acc / TickPeriod)
	if ticks == 0 {
		t.flush()
		return
	}
	t.acc = t.acc % TickPeriod
	t.stepN(ticks)
}

func (t *hostTime) stepN(n uint64) {
	t.seq += n
	t.flush()
}

func (t *hostTime) flush() {
	for t.sent < t.seq {
		select {
		case t.ch <- t.sent + 1:
			t.sent++
		default:
			return
		}
	}
}
