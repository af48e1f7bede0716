package kernel

import (
	"fmt"
	"runtime/debug"
)

// PanicInfo contains details about a recovered thread panic.
type PanicInfo struct {
	Thread string
	Value  any
	Stack  []byte
}

// Fault is the panic value used for unrecoverable kernel contract violations.
type Fault struct {
	Err error
}

func (f *Fault) Error() string { return "fatal: " + f.Err.Error() }

func (f *Fault) Unwrap() error { return f.Err }

// Fatal aborts the calling context with a *Fault. Inside a kernel thread the
// fault is recovered by the kernel, reported to the panic handler and the
// thread is terminated; elsewhere it crashes the program.
func Fatal(err error) {
	panic(&Fault{Err: err})
}

// Fatalf is Fatal with a formatted error.
func Fatalf(format string, args ...any) {
	Fatal(fmt.Errorf(format, args...))
}

// InPanicMode reports whether a thread of k has panicked.
func (k *Kernel) InPanicMode() bool {
	return k.panicActive.Load()
}

// SetPanicHandler installs the panic handler for k.
//
// The handler is invoked at most once (on the first panic). It must not panic.
func (k *Kernel) SetPanicHandler(fn func(PanicInfo)) {
	k.panicHandler.Store(fn)
}

func (k *Kernel) triggerPanic(info PanicInfo) {
	k.logf("thread %q panic: %v", info.Thread, info.Value)
	k.panicOnce.Do(func() {
		k.panicActive.Store(true)
		if v := k.panicHandler.Load(); v != nil {
			if fn, ok := v.(func(PanicInfo)); ok && fn != nil {
				fn(info)
			}
		}
	})
}

// captureStack is called from the deferred recover, so the trace still
// includes the frames that panicked.
func captureStack() []byte {
	return debug.Stack()
}
