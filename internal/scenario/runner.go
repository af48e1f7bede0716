package scenario

import (
	"fmt"
	"sync"

	"rtthread/thread"
	"rtthread/tick"
)

// Kernel is what scripted threads need from the kernel.
type Kernel interface {
	thread.Kernel
	Preempt()
}

// Logger writes newline-delimited log lines.
type Logger interface {
	WriteLineString(s string)
}

// Runner owns the threads spawned from one scenario.
type Runner struct {
	k   Kernel
	log Logger

	mu      sync.Mutex
	threads []*thread.Thread
	byName  map[string]*thread.Thread
}

type script struct {
	r     *Runner
	name  string
	steps []Step
}

// Spawn creates one thread per spec and resumes those not marked suspended.
// Threads are created first and resumed afterwards in file order, so a
// thread may join any other thread of the scenario.
func Spawn(k Kernel, f *File, log Logger) (*Runner, error) {
	r := &Runner{
		k:      k,
		log:    log,
		byName: make(map[string]*thread.Thread, len(f.Threads)),
	}
	for i := range f.Threads {
		ts := &f.Threads[i]
		sc := &script{r: r, name: ts.Name, steps: ts.Parsed()}
		t := thread.New(k, make([]byte, ts.Stack), thread.Method(sc, (*script).run),
			thread.WithName(ts.Name),
			thread.WithPriority(thread.Priority(ts.Priority)),
			thread.WithHook(r.hook))
		if err := t.Create(); err != nil {
			r.Close()
			return nil, fmt.Errorf("spawn %q: %w", ts.Name, err)
		}
		r.add(t)
	}
	for i := range f.Threads {
		if !f.Threads[i].Suspended {
			r.Lookup(f.Threads[i].Name).Resume()
		}
	}
	return r, nil
}

func (r *Runner) add(t *thread.Thread) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.threads = append(r.threads, t)
	r.byName[t.Name()] = t
}

// Threads returns the spawned threads in file order.
func (r *Runner) Threads() []*thread.Thread {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*thread.Thread, len(r.threads))
	copy(out, r.threads)
	return out
}

// Lookup returns the thread with the given name, or nil.
func (r *Runner) Lookup(name string) *thread.Thread {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byName[name]
}

// Close terminates and releases every spawned thread.
func (r *Runner) Close() {
	for _, t := range r.Threads() {
		t.Close()
	}
}

func (r *Runner) logf(format string, args ...any) {
	if r.log == nil {
		return
	}
	msg := fmt.Sprintf(format, args...)
	r.log.WriteLineString(fmt.Sprintf("[%8d] %s", tick.Now(r.k), msg))
}

func (r *Runner) hook(t *thread.Thread, ev thread.Event) {
	r.logf("%s: %s", t.Name(), ev)
}

func (sc *script) run() {
	r := sc.r
	self := thread.Current(r.k)
	for pc := 0; pc < len(sc.steps); pc++ {
		st := sc.steps[pc]
		switch st.Op {
		case OpSleep:
			thread.SleepFor(r.k, tick.Duration(st.N))
		case OpYield:
			thread.Yield(r.k)
		case OpSpin:
			for i := uint32(0); i < st.N; i++ {
				r.k.Preempt()
			}
		case OpSuspend:
			self.Suspend()
		case OpExit:
			return
		case OpJoin:
			target := r.Lookup(st.Arg)
			if target == nil {
				r.logf("%s: join %s: no such thread", sc.name, st.Arg)
				continue
			}
			if err := target.Join(); err != nil {
				r.logf("%s: join %s: %v", sc.name, st.Arg, err)
				continue
			}
			r.logf("%s: joined %s", sc.name, st.Arg)
		case OpPrio:
			if err := self.SetPriority(thread.Priority(st.N)); err != nil {
				r.logf("%s: %v", sc.name, err)
			}
		case OpLog:
			r.logf("%s: %s", sc.name, st.Arg)
		case OpLoop:
			pc = -1
		}
	}
}
