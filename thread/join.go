package thread

import (
	"rtthread/kernel"
	"rtthread/tick"
)

// rendezvous is the binary semaphore a joiner waits on while the target runs.
type rendezvous struct {
	sem kernel.Semaphore
}

// joinClaim is what a waiting joiner holds: the target whose join slot it
// claimed and the rendezvous it put there.
type joinClaim struct {
	target *Thread
	rv     *rendezvous
}

// onEntryExit is the kernel notification callback registered by Create. The
// join rendezvous has its own slot, so the lifecycle hook and Join share the
// single kernel notification without interfering.
func (t *Thread) onEntryExit(_ *kernel.TCB, id kernel.NotifyID) {
	if id == kernel.NotifyExit {
		// t was terminated inside Join: release the target's slot.
		if c := t.joining.Swap(nil); c != nil {
			c.target.joiner.CompareAndSwap(c.rv, nil)
		}
		if rv := t.joiner.Swap(nil); rv != nil {
			// SemaphoreError means the joiner was terminated and deleted
			// while waiting and its rendezvous is gone.
			switch st := t.k.SemaphoreCeilingPut(&rv.sem, 1); st {
			case kernel.Success, kernel.SemaphoreError:
			default:
				kernel.Fatalf("thread %q: join signal: %w", t.name, st.Err())
			}
		}
	}
	if t.hook != nil {
		t.hook(t, Event(id))
	}
}

// Joinable reports whether the thread is created, has not finished and is not
// already being joined.
func (t *Thread) Joinable() bool {
	if !t.tcb.Created() {
		return false
	}
	switch t.State() {
	case Completed, Terminated:
		return false
	}
	return t.joiner.Load() == nil
}

// Join blocks the calling thread until t completes or is terminated. Only one
// thread may join t at a time; others get ErrNotJoinable. A thread joining
// itself gets ErrDeadlock.
func (t *Thread) Join() error {
	return t.join(tick.Infinity)
}

// JoinFor is Join with a timeout. It returns ErrTimeout if t is still
// running after d, after which t is joinable again.
func (t *Thread) JoinFor(d tick.Duration) error {
	return t.join(d)
}

func (t *Thread) join(timeout tick.Duration) error {
	if !t.Joinable() {
		return ErrNotJoinable
	}
	if !t.k.InThreadContext() {
		return ErrCallerContext
	}
	if Current(t.k) == t {
		return ErrDeadlock
	}

	rv := &rendezvous{}
	if st := t.k.SemaphoreCreate(&rv.sem, "join", 0); st != kernel.Success {
		kernel.Fatalf("thread %q: join semaphore: %w", t.name, st.Err())
	}
	defer t.k.SemaphoreDelete(&rv.sem)

	if !t.joiner.CompareAndSwap(nil, rv) {
		return ErrNotJoinable
	}
	defer t.joiner.CompareAndSwap(rv, nil)
	if self := Current(t.k); self != nil {
		c := &joinClaim{target: t, rv: rv}
		self.joining.Store(c)
		defer self.joining.CompareAndSwap(c, nil)
	}
	// The exit notification may have fired between Joinable and the claim.
	if s := t.State(); s == Completed || s == Terminated {
		if t.joiner.CompareAndSwap(rv, nil) {
			return nil
		}
	}

	switch st := t.k.SemaphoreGet(&rv.sem, tick.ToTicks(timeout)); st {
	case kernel.Success:
		return nil
	case kernel.NotAvailable:
		if t.joiner.CompareAndSwap(rv, nil) {
			return ErrTimeout
		}
		// Lost the race with the exit notification; its signal is on the way.
		if st := t.k.SemaphoreGet(&rv.sem, kernel.WaitForever); st != kernel.Success {
			kernel.Fatalf("thread %q: join wait: %w", t.name, st.Err())
		}
		return nil
	default:
		kernel.Fatalf("thread %q: join wait: %w", t.name, st.Err())
		return nil
	}
}
