package kernel

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/petermattis/goid"
)

// Ticks is the native tick count. It is 32 bits wide, so the counter wraps
// after 2^32 ticks (about 49.7 days at 1000 Hz).
type Ticks uint32

const (
	// NoWait makes a blocking service return immediately.
	NoWait Ticks = 0
	// WaitForever makes a blocking service wait without a timeout.
	WaitForever Ticks = 0xFFFFFFFF
)

const (
	// TickRateHz is the tick frequency of the deployment target.
	TickRateHz = 1000

	// MaxPriorities is the number of priority levels. Valid priorities are
	// 0 (most urgent) through MaxPriorities-1.
	MaxPriorities = 32

	// MinStackSize is the smallest stack ThreadCreate accepts.
	MinStackSize = 256

	// NoTimeSlice disables time slicing for a thread.
	NoTimeSlice Ticks = 0
)

// Auto start modes for ThreadCreate.
const (
	DontStart uint = iota
	AutoStart
)

// Logger writes newline-delimited log lines.
type Logger interface {
	WriteLineString(s string)
}

// Config configures a kernel instance.
type Config struct {
	// Logger receives kernel trace lines. Nil disables tracing.
	Logger Logger
}

// Kernel is a uniprocessor, preemptive, priority-based real-time kernel.
//
// Every thread runs on its own goroutine, but only the dispatched thread
// executes: all others are parked waiting for their run token. A thread gives
// up the processor only inside a kernel service, so preemption requested from
// interrupt context (Tick, or a service called from a goroutine that is not a
// kernel thread) takes effect at the running thread's next kernel call.
type Kernel struct {
	mu sync.Mutex // interrupt disable

	ticks atomic.Uint32
	log   Logger

	current *TCB
	ready   [MaxPriorities][]*TCB
	threads []*TCB
	timed   []*TCB
	byGoid  map[int64]*TCB

	idle       chan struct{}
	idleClosed bool

	panicActive  atomic.Bool
	panicOnce    sync.Once
	panicHandler atomic.Value // func(PanicInfo)
}

// New creates a kernel instance.
func New(cfg Config) *Kernel {
	k := &Kernel{
		log:        cfg.Logger,
		byGoid:     make(map[int64]*TCB),
		idle:       make(chan struct{}),
		idleClosed: true,
	}
	close(k.idle)
	return k
}

// StartTick drives Tick from a host ticker at TickRateHz until ctx is done.
func (k *Kernel) StartTick(ctx context.Context) {
	go func() {
		t := time.NewTicker(time.Second / TickRateHz)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				k.Tick()
			}
		}
	}()
}

// TimeGet returns the current tick count. It is safe from any context.
func (k *Kernel) TimeGet() Ticks {
	return Ticks(k.ticks.Load())
}

// Tick is the timer interrupt: it advances the tick counter, expires sleeps
// and wait timeouts, and requests preemption if a more urgent thread became
// ready.
func (k *Kernel) Tick() {
	k.ticks.Add(1)

	self := k.lock()
	var expired []*TCB
	for _, t := range k.timed {
		t.timeout--
		if t.timeout == 0 {
			expired = append(expired, t)
		}
	}
	for _, t := range expired {
		switch t.state {
		case StateSleep:
			k.wakeLocked(t, Success)
		case StateSemaphoreSusp:
			t.sem.removeWaiter(t)
			k.wakeLocked(t, NotAvailable)
		}
	}
	k.unlock(self)
}

// Preempt is an explicit preemption point for threads that run for long
// stretches without calling other kernel services.
func (k *Kernel) Preempt() {
	k.unlock(k.lock())
}

// InThreadContext reports whether the caller is a kernel thread.
func (k *Kernel) InThreadContext() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.selfLocked() != nil
}

// WaitIdle blocks until no thread is running or ready.
func (k *Kernel) WaitIdle(ctx context.Context) error {
	k.mu.Lock()
	ch := k.idle
	k.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Threads returns a snapshot of the created threads in creation order.
func (k *Kernel) Threads() []*TCB {
	k.mu.Lock()
	defer k.mu.Unlock()
	out := make([]*TCB, len(k.threads))
	copy(out, k.threads)
	return out
}

func (k *Kernel) logf(format string, args ...any) {
	if k.log == nil {
		return
	}
	k.log.WriteLineString("kernel: " + fmt.Sprintf(format, args...))
}

// lock enters the kernel and returns the calling thread, or nil when the
// caller is interrupt or host context.
func (k *Kernel) lock() *TCB {
	k.mu.Lock()
	self := k.selfLocked()
	if self != nil && self == k.current && !self.noPreempt && self.state != StateReady {
		// Suspended or terminated from interrupt context while running.
		k.unlock(self)
		k.mu.Lock()
	}
	return self
}

// unlock leaves the kernel. When the caller is the running thread and it can
// no longer run (blocked, suspended, terminated, or preempted by a more
// urgent thread), the processor is handed over before returning.
func (k *Kernel) unlock(self *TCB) {
	if self == nil {
		if k.current == nil {
			k.dispatchLocked()
		}
		k.mu.Unlock()
		return
	}
	if self != k.current || self.noPreempt {
		k.mu.Unlock()
		return
	}

	switch {
	case self.state == StateTerminated:
		ctl := self.ctl
		k.retireLocked(self)
		k.mu.Unlock()
		ctl.exit()
	case self.state != StateReady || k.mustPreemptLocked():
		ctl := self.ctl
		k.dispatchLocked()
		k.mu.Unlock()
		ctl.await()
	default:
		k.mu.Unlock()
	}
}

func (k *Kernel) selfLocked() *TCB {
	if len(k.byGoid) == 0 {
		return nil
	}
	return k.byGoid[goid.Get()]
}

func (k *Kernel) highestLocked() *TCB {
	for p := range k.ready {
		if len(k.ready[p]) > 0 {
			return k.ready[p][0]
		}
	}
	return nil
}

func (k *Kernel) mustPreemptLocked() bool {
	top := k.highestLocked()
	return top != nil && top != k.current && top.prio < k.current.threshold
}

// dispatchLocked makes the most urgent ready thread current and hands it the
// run token.
func (k *Kernel) dispatchLocked() {
	next := k.highestLocked()
	k.current = next
	if next == nil {
		if !k.idleClosed {
			close(k.idle)
			k.idleClosed = true
		}
		return
	}
	if k.idleClosed {
		k.idle = make(chan struct{})
		k.idleClosed = false
	}
	next.runCount++
	next.ctl.run <- struct{}{}
}

func (k *Kernel) pushReadyLocked(t *TCB) {
	k.ready[t.prio] = append(k.ready[t.prio], t)
}

func (k *Kernel) pushReadyFrontLocked(t *TCB) {
	q := k.ready[t.prio]
	q = append(q, nil)
	copy(q[1:], q)
	q[0] = t
	k.ready[t.prio] = q
}

func (k *Kernel) removeReadyLocked(t *TCB) {
	k.ready[t.prio] = removeTCB(k.ready[t.prio], t)
}

func (k *Kernel) addTimedLocked(t *TCB, timeout Ticks) {
	t.timeout = timeout
	k.timed = append(k.timed, t)
}

func (k *Kernel) removeTimedLocked(t *TCB) {
	t.timeout = 0
	k.timed = removeTCB(k.timed, t)
}

// wakeLocked ends a sleep or semaphore wait with the given status.
func (k *Kernel) wakeLocked(t *TCB, st Status) {
	k.removeTimedLocked(t)
	t.sem = nil
	t.status = st
	if t.delayedSuspend {
		t.delayedSuspend = false
		t.state = StateSuspended
		return
	}
	t.state = StateReady
	k.pushReadyLocked(t)
}

// retireLocked drops a finished thread's goroutine bookkeeping and, if it was
// running, dispatches the next thread.
func (k *Kernel) retireLocked(t *TCB) {
	delete(k.byGoid, t.ctl.gid)
	k.removeReadyLocked(t)
	if k.current == t {
		k.dispatchLocked()
	}
}

func removeTCB(q []*TCB, t *TCB) []*TCB {
	for i, x := range q {
		if x != t {
			continue
		}
		copy(q[i:], q[i+1:])
		q[len(q)-1] = nil
		return q[:len(q)-1]
	}
	return q
}

// control is the goroutine side of one thread incarnation.
type control struct {
	run  chan struct{}
	kill chan struct{}
	gid  int64
}

func newControl() *control {
	return &control{
		run:  make(chan struct{}, 1),
		kill: make(chan struct{}),
	}
}

// await parks the thread goroutine until it is dispatched again.
func (c *control) await() {
	select {
	case <-c.run:
	case <-c.kill:
		runtime.Goexit()
	}
}

func (c *control) exit() {
	runtime.Goexit()
}
