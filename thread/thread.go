// Package thread provides object-oriented thread handles on top of the
// kernel's native thread services: create, suspend, resume, terminate, join,
// priority and state queries, plus facilities for the calling thread.
package thread

import (
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"unsafe"

	"rtthread/kernel"
)

var (
	ErrAlreadyCreated = errors.New("thread: already created")
	ErrNotCreated     = errors.New("thread: not created")
	ErrNotJoinable    = errors.New("thread: not joinable")
	ErrDeadlock       = errors.New("thread: join would deadlock")
	ErrCallerContext  = errors.New("thread: not called from a thread")
	ErrTimeout        = errors.New("thread: timed out")
)

// DefaultName is the name of threads created without WithName.
const DefaultName = "N/A"

// ID identifies a thread. It is derived from the handle's address, which is
// stable for the handle's lifetime because heap objects are never moved.
type ID uintptr

// State is the thread state as seen by callers.
type State uint8

const (
	Running State = iota
	Ready
	Completed
	Terminated
	Suspended
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Ready:
		return "ready"
	case Completed:
		return "completed"
	case Terminated:
		return "terminated"
	case Suspended:
		return "suspended"
	default:
		return "unknown"
	}
}

// Event is the lifecycle transition reported to a hook.
type Event uint8

const (
	Entered Event = Event(kernel.NotifyEntry)
	Exited  Event = Event(kernel.NotifyExit)
)

func (e Event) String() string {
	switch e {
	case Entered:
		return "entered"
	case Exited:
		return "exited"
	default:
		return "unknown"
	}
}

// Hook observes thread entry and exit. It runs in the context that caused the
// transition and must not block.
type Hook func(t *Thread, ev Event)

// Option configures a Thread.
type Option func(*Thread)

// WithPriority sets the thread priority.
func WithPriority(p Priority) Option {
	return func(t *Thread) { t.prio = p }
}

// WithName sets the display name.
func WithName(name string) Option {
	return func(t *Thread) { t.name = name }
}

// WithHook installs a lifecycle hook. It coexists with Join.
func WithHook(h Hook) Option {
	return func(t *Thread) { t.hook = h }
}

// noCopy may be embedded into structs which must not be copied after first
// use; go vet's copylocks check reports violations.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Thread is a handle to one kernel thread. It embeds the kernel control
// block, so a Thread must not be copied once created.
type Thread struct {
	noCopy noCopy

	tcb kernel.TCB
	k   Kernel

	stack []byte
	entry Entry
	prio  Priority
	name  string
	hook  Hook

	joiner  atomic.Pointer[rendezvous]
	joining atomic.Pointer[joinClaim]
}

// New returns an inert handle. The stack is owned by the handle until it is
// closed. Call Create to register it with the scheduler.
func New(k Kernel, stack []byte, entry Entry, opts ...Option) *Thread {
	t := &Thread{}
	t.init(k, stack, entry, opts)
	return t
}

func (t *Thread) init(k Kernel, stack []byte, entry Entry, opts []Option) {
	t.k = k
	t.stack = stack
	t.entry = entry
	t.prio = DefaultPriority
	t.name = DefaultName
	for _, opt := range opts {
		opt(t)
	}
	t.tcb.SetOwner(t)
}

// Create registers the thread with the scheduler. The thread does not run
// until Resume. Its priority doubles as its preemption threshold and it is
// not time-sliced.
func (t *Thread) Create() error {
	if t.tcb.Created() {
		return ErrAlreadyCreated
	}
	if t.entry.fn == nil {
		return fmt.Errorf("thread %q: create: %w", t.name, kernel.ErrPtr)
	}
	st := t.k.ThreadCreate(&t.tcb, t.name, t.trampoline, t.entry.input, t.stack,
		uint(t.prio), uint(t.prio), kernel.NoTimeSlice, kernel.DontStart)
	if err := st.Err(); err != nil {
		return fmt.Errorf("thread %q: create: %w", t.name, err)
	}
	if err := t.k.ThreadEntryExitNotify(&t.tcb, t.onEntryExit).Err(); err != nil {
		kernel.Fatalf("thread %q: register notify: %w", t.name, err)
	}
	return nil
}

func (t *Thread) trampoline(input uintptr) {
	t.entry.fn(input)
}

var _ io.Closer = (*Thread)(nil)

// Close terminates the thread unless it has completed, then releases its
// kernel registration. Closing an uncreated handle does nothing. A thread
// closing itself never returns.
//
// The error is always nil: the kernel only rejects these calls on a broken
// contract, which is fatal. Close returns one so a Thread is an io.Closer.
func (t *Thread) Close() error {
	if !t.tcb.Created() {
		return nil
	}
	if t.tcb.State() != kernel.StateCompleted {
		if err := t.k.ThreadTerminate(&t.tcb).Err(); err != nil {
			kernel.Fatalf("thread %q: terminate: %w", t.name, err)
		}
	}
	if err := t.k.ThreadDelete(&t.tcb).Err(); err != nil {
		kernel.Fatalf("thread %q: delete: %w", t.name, err)
	}
	return nil
}

// Suspend stops the thread from being scheduled. Suspending a suspended
// thread is a no-op.
func (t *Thread) Suspend() {
	_ = t.k.ThreadSuspend(&t.tcb)
}

// Resume makes a suspended thread schedulable. Resuming a running thread is a
// no-op.
func (t *Thread) Resume() {
	_ = t.k.ThreadResume(&t.tcb)
}

// Terminate ends the thread. Its registration is released by Close.
func (t *Thread) Terminate() {
	_ = t.k.ThreadTerminate(&t.tcb)
}

// Priority returns the current priority.
func (t *Thread) Priority() Priority {
	if !t.tcb.Created() {
		return t.prio
	}
	return Priority(t.tcb.UserPriority())
}

// SetPriority changes the priority and, with it, the preemption threshold.
func (t *Thread) SetPriority(p Priority) error {
	if !t.tcb.Created() {
		return ErrNotCreated
	}
	if _, st := t.k.ThreadPriorityChange(&t.tcb, uint(p)); st != kernel.Success {
		return fmt.Errorf("thread %q: set priority %d: %w", t.name, p, st.Err())
	}
	return nil
}

// ID returns the thread identity.
func (t *Thread) ID() ID {
	return ID(uintptr(unsafe.Pointer(t)))
}

// Name returns the display name.
func (t *Thread) Name() string { return t.name }

// StackSize returns the size of the thread's stack in bytes.
func (t *Thread) StackSize() int { return len(t.stack) }

// Input returns the kernel input word passed to the entry function.
func (t *Thread) Input() uintptr { return t.entry.input }

// RunCount returns how many times the scheduler has dispatched the thread.
func (t *Thread) RunCount() uint32 { return t.tcb.RunCount() }

// State returns the thread state. A handle that was never created reports
// Suspended.
func (t *Thread) State() State {
	switch t.tcb.State() {
	case kernel.StateReady:
		if Current(t.k) == t {
			return Running
		}
		return Ready
	case kernel.StateCompleted:
		return Completed
	case kernel.StateTerminated:
		return Terminated
	default:
		return Suspended
	}
}

// Current returns the handle of the calling thread, or of the interrupted
// thread when called from interrupt context. It returns nil when no handle
// is executing.
func Current(k Kernel) *Thread {
	tcb := k.ThreadIdentify()
	if tcb == nil {
		return nil
	}
	t, _ := tcb.Owner().(*Thread)
	return t
}
