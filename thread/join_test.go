package thread

import (
	"errors"
	"reflect"
	"testing"

	"rtthread/kernel"
	"rtthread/tick"
)

func TestJoinWaitsForCompletion(t *testing.T) {
	k := kernel.New(kernel.Config{})
	var order []string
	var joinErr error = errors.New("not joined")

	worker := New(k, make([]byte, 1024), Func(func() { order = append(order, "worker") }),
		WithName("worker"), WithPriority(10))
	runMain(t, k, 5, func() {
		worker.Create()
		worker.Resume()
		joinErr = worker.Join()
		order = append(order, "joined")
	})

	if joinErr != nil {
		t.Fatalf("Join() = %v, want nil", joinErr)
	}
	if want := []string{"worker", "joined"}; !reflect.DeepEqual(order, want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	if worker.Joinable() {
		t.Fatal("Joinable() = true after completion, want false")
	}
}

func TestJoinIgnoresSuspend(t *testing.T) {
	k := kernel.New(kernel.Config{})
	joined := false

	var worker *Thread
	worker = New(k, make([]byte, 1024), Func(func() { worker.Suspend() }), WithPriority(10))
	main := runMain(t, k, 5, func() {
		worker.Create()
		worker.Resume()
		if err := worker.Join(); err != nil {
			t.Errorf("Join() = %v, want nil", err)
		}
		joined = true
	})

	if joined {
		t.Fatal("Join() returned while the target was only suspended")
	}
	if got := worker.State(); got != Suspended {
		t.Fatalf("target State() = %s, want %s", got, Suspended)
	}
	if got := main.State(); got != Suspended {
		t.Fatalf("joiner State() = %s, want %s", got, Suspended)
	}

	worker.Resume()
	waitIdle(t, k)
	if !joined {
		t.Fatal("Join() did not return after the target completed")
	}
}

func TestJoinSelfDeadlocks(t *testing.T) {
	k := kernel.New(kernel.Config{})
	var err error
	runMain(t, k, 5, func() { err = Current(k).Join() })
	if !errors.Is(err, ErrDeadlock) {
		t.Fatalf("Join() on self = %v, want %v", err, ErrDeadlock)
	}
}

func TestJoinFromHost(t *testing.T) {
	k := kernel.New(kernel.Config{})
	worker := New(k, make([]byte, 1024), Func(func() {}))
	if err := worker.Create(); err != nil {
		t.Fatalf("Create() = %v, want nil", err)
	}
	if err := worker.Join(); !errors.Is(err, ErrCallerContext) {
		t.Fatalf("Join() from host = %v, want %v", err, ErrCallerContext)
	}
	if !worker.Joinable() {
		t.Fatal("failed Join() left the thread claimed")
	}
}

func TestJoinFinishedThread(t *testing.T) {
	k := kernel.New(kernel.Config{})
	done := New(k, make([]byte, 1024), Func(func() {}), WithPriority(10))
	start(t, done)
	waitIdle(t, k)

	killed := New(k, make([]byte, 1024), Func(func() { SleepFor(k, tick.Infinity) }), WithPriority(10))
	start(t, killed)
	waitIdle(t, k)
	killed.Terminate()

	var errDone, errKilled error
	runMain(t, k, 5, func() {
		errDone = done.Join()
		errKilled = killed.Join()
	})
	if !errors.Is(errDone, ErrNotJoinable) {
		t.Fatalf("Join() on completed = %v, want %v", errDone, ErrNotJoinable)
	}
	if !errors.Is(errKilled, ErrNotJoinable) {
		t.Fatalf("Join() on terminated = %v, want %v", errKilled, ErrNotJoinable)
	}
}

func TestJoinOnlyOneJoiner(t *testing.T) {
	k := kernel.New(kernel.Config{})
	target := New(k, make([]byte, 1024), Func(func() { SleepFor(k, tick.Infinity) }),
		WithName("target"), WithPriority(20))
	start(t, target)
	waitIdle(t, k)

	const n = 4
	errs := make([]error, n)
	joiners := make([]*Thread, n)
	for i := range joiners {
		i := i
		joiners[i] = New(k, make([]byte, 1024), Func(func() { errs[i] = target.Join() }), WithPriority(5))
	}
	for _, j := range joiners {
		start(t, j)
	}
	waitIdle(t, k)
	if target.Joinable() {
		t.Fatal("Joinable() = true while a join is pending, want false")
	}

	target.Resume()
	waitIdle(t, k)

	succeeded := 0
	for i, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrNotJoinable):
		default:
			t.Fatalf("joiner %d: Join() = %v, want nil or %v", i, err, ErrNotJoinable)
		}
	}
	if succeeded != 1 {
		t.Fatalf("%d joiners succeeded, want 1", succeeded)
	}
}

func TestJoinForTimesOut(t *testing.T) {
	k := kernel.New(kernel.Config{})
	worker := New(k, make([]byte, 1024), Func(func() { SleepFor(k, tick.Infinity) }), WithPriority(10))

	errPending := errors.New("pending")
	err := errPending
	runMain(t, k, 5, func() {
		worker.Create()
		worker.Resume()
		err = worker.JoinFor(2)
	})
	if err != errPending {
		t.Fatalf("JoinFor() returned %v before the timeout", err)
	}

	k.Tick()
	k.Tick()
	waitIdle(t, k)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("JoinFor() = %v, want %v", err, ErrTimeout)
	}
	if !worker.Joinable() {
		t.Fatal("Joinable() = false after a timed-out join, want true")
	}
}

func TestTerminateReleasesJoiner(t *testing.T) {
	k := kernel.New(kernel.Config{})
	worker := New(k, make([]byte, 1024), Func(func() { SleepFor(k, tick.Infinity) }), WithPriority(10))

	joinErr := errors.New("not joined")
	runMain(t, k, 5, func() {
		worker.Create()
		worker.Resume()
		joinErr = worker.Join()
	})

	worker.Terminate()
	waitIdle(t, k)
	if joinErr != nil {
		t.Fatalf("Join() = %v, want nil", joinErr)
	}
	if got := worker.State(); got != Terminated {
		t.Fatalf("State() = %s, want %s", got, Terminated)
	}
}

func TestTerminatedJoinerReleasesTarget(t *testing.T) {
	k := kernel.New(kernel.Config{})
	worker := New(k, make([]byte, 1024), Func(func() { SleepFor(k, tick.Infinity) }),
		WithName("worker"), WithPriority(10))

	joiner := runMain(t, k, 5, func() {
		worker.Create()
		worker.Resume()
		worker.Join()
	})
	defer worker.Close()
	defer joiner.Close()
	if worker.Joinable() {
		t.Fatal("Joinable() = true while a join is waiting, want false")
	}

	joiner.Terminate()
	if !worker.Joinable() {
		t.Fatal("Joinable() = false after the joiner was terminated, want true")
	}

	joinErr := errors.New("not joined")
	second := New(k, make([]byte, 1024), Func(func() { joinErr = worker.Join() }),
		WithName("second"), WithPriority(5))
	defer second.Close()
	start(t, second)
	waitIdle(t, k)

	worker.Resume()
	waitIdle(t, k)
	if joinErr != nil {
		t.Fatalf("second Join() = %v, want nil", joinErr)
	}
	if got := worker.State(); got != Completed {
		t.Fatalf("State() = %s, want %s", got, Completed)
	}
}

func TestHookCoexistsWithJoin(t *testing.T) {
	k := kernel.New(kernel.Config{})
	var events []string
	hook := func(th *Thread, ev Event) { events = append(events, th.Name()+" "+ev.String()) }
	worker := New(k, make([]byte, 1024), Func(func() {}),
		WithName("worker"), WithPriority(10), WithHook(hook))

	var joinErr error
	runMain(t, k, 5, func() {
		worker.Create()
		worker.Resume()
		joinErr = worker.Join()
	})

	if joinErr != nil {
		t.Fatalf("Join() = %v, want nil", joinErr)
	}
	if want := []string{"worker entered", "worker exited"}; !reflect.DeepEqual(events, want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
}
