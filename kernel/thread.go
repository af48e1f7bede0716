package kernel

import (
	"github.com/petermattis/goid"
)

// State is the kernel-native thread state.
type State uint8

const (
	StateReady State = iota
	StateCompleted
	StateTerminated
	StateSuspended
	StateSleep
	StateSemaphoreSusp
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateCompleted:
		return "completed"
	case StateTerminated:
		return "terminated"
	case StateSuspended:
		return "suspended"
	case StateSleep:
		return "sleep"
	case StateSemaphoreSusp:
		return "semaphore"
	default:
		return "unknown"
	}
}

// NotifyID tells an entry/exit callback which transition happened.
type NotifyID uint8

const (
	NotifyEntry NotifyID = iota
	NotifyExit
)

// NotifyFunc is an entry/exit notification callback.
type NotifyFunc func(t *TCB, id NotifyID)

// TCB is a thread control block. Owners embed it by value; the kernel keeps
// pointers to it while the thread exists, so it must not be copied or moved.
type TCB struct {
	_ [0]func() // prevent accidental copying.

	k       *Kernel
	created bool
	ctl     *control

	name      string
	entry     func(input uintptr)
	input     uintptr
	stack     []byte
	prio      uint
	userPrio  uint
	threshold uint
	timeSlice Ticks

	state          State
	delayedSuspend bool
	noPreempt      bool
	runCount       uint32

	timeout Ticks
	status  Status
	sem     *Semaphore

	notify NotifyFunc
	owner  any
}

// SetOwner attaches an arbitrary value to the TCB (user extension).
func (t *TCB) SetOwner(v any) { t.owner = v }

// Owner returns the value set with SetOwner.
func (t *TCB) Owner() any { return t.owner }

// Created reports whether the TCB is registered with a kernel.
func (t *TCB) Created() bool {
	k := t.k
	if k == nil {
		return false
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	return t.created
}

// State returns the native state. A TCB that was never created reports
// StateSuspended.
func (t *TCB) State() State {
	k := t.k
	if k == nil {
		return StateSuspended
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	return t.state
}

// UserPriority returns the priority last set by ThreadCreate or
// ThreadPriorityChange.
func (t *TCB) UserPriority() uint {
	k := t.k
	if k == nil {
		return t.userPrio
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	return t.userPrio
}

// Name returns the name given to ThreadCreate.
func (t *TCB) Name() string { return t.name }

// RunCount returns how many times the thread has been dispatched.
func (t *TCB) RunCount() uint32 {
	k := t.k
	if k == nil {
		return 0
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	return t.runCount
}

// StackSize returns the size of the stack given to ThreadCreate.
func (t *TCB) StackSize() int { return len(t.stack) }

// ThreadCreate registers t with the scheduler. With DontStart the thread is
// left suspended until ThreadResume.
func (k *Kernel) ThreadCreate(t *TCB, name string, entry func(input uintptr), input uintptr,
	stack []byte, prio, threshold uint, timeSlice Ticks, autoStart uint) Status {
	if t == nil || entry == nil {
		return PtrError
	}
	if stack == nil {
		return PtrError
	}
	if len(stack) < MinStackSize {
		return SizeError
	}
	if prio >= MaxPriorities {
		return PriorityError
	}
	if threshold > prio {
		return ThresholdError
	}
	if autoStart > AutoStart {
		return StartError
	}

	self := k.lock()
	if t.created || k.current == t {
		// A deleted thread that is still running keeps its TCB until it
		// retires at its next kernel call.
		k.unlock(self)
		return ThreadError
	}

	ctl := newControl()
	t.k = k
	t.created = true
	t.ctl = ctl
	t.name = name
	t.entry = entry
	t.input = input
	t.stack = stack
	t.prio = prio
	t.userPrio = prio
	t.threshold = threshold
	t.timeSlice = timeSlice
	t.state = StateSuspended
	t.delayedSuspend = false
	t.noPreempt = false
	t.runCount = 0
	t.timeout = 0
	t.status = Success
	t.sem = nil
	t.notify = nil
	k.threads = append(k.threads, t)
	k.logf("thread %q created prio=%d stack=%d", name, prio, len(stack))

	go k.run(t, ctl)

	if autoStart == AutoStart {
		t.state = StateReady
		k.pushReadyLocked(t)
	}
	k.unlock(self)
	return Success
}

// run is the body of a thread goroutine.
func (k *Kernel) run(t *TCB, ctl *control) {
	k.mu.Lock()
	if t.ctl != ctl || !t.created {
		k.mu.Unlock()
		return
	}
	ctl.gid = goid.Get()
	k.byGoid[ctl.gid] = t
	k.mu.Unlock()

	ctl.await()
	k.notifyFrom(t, t, NotifyEntry)
	if k.runEntry(t) {
		k.complete(t)
		return
	}
	k.abort(t)
}

func (k *Kernel) runEntry(t *TCB) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			k.triggerPanic(PanicInfo{Thread: t.name, Value: r, Stack: captureStack()})
		}
	}()
	t.entry(t.input)
	return true
}

// complete handles the entry function returning.
func (k *Kernel) complete(t *TCB) {
	k.mu.Lock()
	if t.state != StateTerminated {
		t.state = StateCompleted
		k.removeReadyLocked(t)
		k.notifyLocked(t, t, NotifyExit)
	}
	k.retireLocked(t)
	k.mu.Unlock()
}

// abort handles the entry function panicking.
func (k *Kernel) abort(t *TCB) {
	k.mu.Lock()
	if t.state != StateTerminated {
		t.state = StateTerminated
		k.removeReadyLocked(t)
		k.notifyLocked(t, t, NotifyExit)
	}
	k.logf("thread %q aborted", t.name)
	k.retireLocked(t)
	k.mu.Unlock()
}

// notifyLocked runs t's entry/exit callback outside the kernel lock. The
// caller (self, nil for interrupt context) is not preempted while it runs.
func (k *Kernel) notifyLocked(self, t *TCB, id NotifyID) {
	fn := t.notify
	if fn == nil {
		return
	}
	if self != nil {
		self.noPreempt = true
	}
	k.mu.Unlock()
	fn(t, id)
	k.mu.Lock()
	if self != nil {
		self.noPreempt = false
	}
}

func (k *Kernel) notifyFrom(self, t *TCB, id NotifyID) {
	k.mu.Lock()
	k.notifyLocked(self, t, id)
	k.mu.Unlock()
}

// ThreadEntryExitNotify registers fn to be called when t starts and when it
// completes or is terminated. It replaces any previous registration.
func (k *Kernel) ThreadEntryExitNotify(t *TCB, fn NotifyFunc) Status {
	if t == nil {
		return PtrError
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	if !t.created || t.k != k {
		return ThreadError
	}
	t.notify = fn
	return Success
}

// ThreadSuspend suspends t. Suspending a thread that is already suspended is
// not an error; a thread waiting on something else is suspended once the
// wait ends.
func (k *Kernel) ThreadSuspend(t *TCB) Status {
	if t == nil {
		return PtrError
	}
	self := k.lock()
	if !t.created || t.k != k {
		k.unlock(self)
		return ThreadError
	}

	st := Success
	switch t.state {
	case StateReady:
		t.state = StateSuspended
		k.removeReadyLocked(t)
	case StateSuspended:
	case StateSleep, StateSemaphoreSusp:
		t.delayedSuspend = true
	default:
		st = SuspendError
	}
	k.unlock(self)
	return st
}

// ThreadResume resumes a suspended thread. It also lifts a pending delayed
// suspension and ends an unbounded sleep.
func (k *Kernel) ThreadResume(t *TCB) Status {
	if t == nil {
		return PtrError
	}
	self := k.lock()
	if !t.created || t.k != k {
		k.unlock(self)
		return ThreadError
	}

	st := Success
	switch {
	case t.state == StateSuspended:
		t.state = StateReady
		k.pushReadyLocked(t)
	case t.delayedSuspend:
		t.delayedSuspend = false
		st = SuspendLifted
	case t.state == StateSleep && t.timeout == 0:
		k.wakeLocked(t, Success)
	default:
		st = ResumeError
	}
	k.unlock(self)
	return st
}

// ThreadTerminate ends t unconditionally. Terminating a completed or
// terminated thread succeeds without effect. The thread stays registered
// until ThreadDelete.
func (k *Kernel) ThreadTerminate(t *TCB) Status {
	if t == nil {
		return PtrError
	}
	self := k.lock()
	if !t.created || t.k != k {
		k.unlock(self)
		return ThreadError
	}
	if t.state == StateCompleted || t.state == StateTerminated {
		k.unlock(self)
		return Success
	}

	switch t.state {
	case StateReady:
		k.removeReadyLocked(t)
	case StateSleep:
		k.removeTimedLocked(t)
	case StateSemaphoreSusp:
		k.removeTimedLocked(t)
		t.sem.removeWaiter(t)
		t.sem = nil
	}
	t.state = StateTerminated
	t.delayedSuspend = false
	k.logf("thread %q terminated", t.name)
	k.notifyLocked(self, t, NotifyExit)
	k.unlock(self)
	return Success
}

// ThreadDelete releases a completed or terminated thread.
func (k *Kernel) ThreadDelete(t *TCB) Status {
	if t == nil {
		return PtrError
	}
	self := k.lock()
	if !t.created || t.k != k {
		k.unlock(self)
		return ThreadError
	}
	if t.state != StateCompleted && t.state != StateTerminated {
		k.unlock(self)
		return DeleteError
	}
	t.created = false
	t.notify = nil
	k.threads = removeTCB(k.threads, t)
	if k.current != t {
		delete(k.byGoid, t.ctl.gid)
		close(t.ctl.kill)
	}
	// Otherwise t was terminated from interrupt context while running and
	// its goroutine retires itself in lock at its next kernel call.
	k.logf("thread %q deleted", t.name)
	k.unlock(self)
	return Success
}

// ThreadPriorityChange sets t's priority and preemption threshold and returns
// the previous priority.
func (k *Kernel) ThreadPriorityChange(t *TCB, prio uint) (uint, Status) {
	if t == nil {
		return 0, PtrError
	}
	if prio >= MaxPriorities {
		return 0, PriorityError
	}
	self := k.lock()
	if !t.created || t.k != k {
		k.unlock(self)
		return 0, ThreadError
	}

	old := t.userPrio
	if t.state == StateReady {
		k.removeReadyLocked(t)
		t.prio = prio
		if t == k.current {
			k.pushReadyFrontLocked(t)
		} else {
			k.pushReadyLocked(t)
		}
	} else {
		t.prio = prio
	}
	t.userPrio = prio
	t.threshold = prio
	k.unlock(self)
	return old, Success
}

// ThreadIdentify returns the calling thread. From interrupt context it
// returns the interrupted (current) thread, which may be nil.
func (k *Kernel) ThreadIdentify() *TCB {
	k.mu.Lock()
	defer k.mu.Unlock()
	if self := k.selfLocked(); self != nil {
		return self
	}
	return k.current
}

// ThreadRelinquish lets other ready threads of the same priority run.
func (k *Kernel) ThreadRelinquish() {
	self := k.lock()
	if self == nil || self != k.current || self.state != StateReady {
		k.unlock(self)
		return
	}
	k.removeReadyLocked(self)
	k.pushReadyLocked(self)
	if k.highestLocked() != self {
		ctl := self.ctl
		k.dispatchLocked()
		k.mu.Unlock()
		ctl.await()
		return
	}
	k.unlock(self)
}

// ThreadSleep suspends the calling thread for ticks timer ticks. Zero returns
// immediately; WaitForever sleeps until ThreadResume or ThreadWaitAbort.
func (k *Kernel) ThreadSleep(ticks Ticks) Status {
	self := k.lock()
	if self == nil {
		k.unlock(self)
		return CallerError
	}
	if ticks == NoWait {
		k.unlock(self)
		return Success
	}

	k.removeReadyLocked(self)
	self.state = StateSleep
	self.status = Success
	if ticks != WaitForever {
		k.addTimedLocked(self, ticks)
	}
	k.unlock(self)

	k.mu.Lock()
	defer k.mu.Unlock()
	return self.status
}

// ThreadWaitAbort ends t's sleep or semaphore wait; the wait returns
// WaitAborted.
func (k *Kernel) ThreadWaitAbort(t *TCB) Status {
	if t == nil {
		return PtrError
	}
	self := k.lock()
	if !t.created || t.k != k {
		k.unlock(self)
		return ThreadError
	}

	st := Success
	switch t.state {
	case StateSleep:
		k.wakeLocked(t, WaitAborted)
	case StateSemaphoreSusp:
		t.sem.removeWaiter(t)
		k.wakeLocked(t, WaitAborted)
	default:
		st = WaitAbortError
	}
	k.unlock(self)
	return st
}
