package shell

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"rtthread/internal/scenario"
	"rtthread/kernel"
	"rtthread/thread"
)

const doc = `
threads:
  - name: sleeper
    priority: 10
    steps: ["sleep 3", "exit"]
  - name: parked
    priority: 12
    suspended: true
    steps: ["log hello"]
`

func newShell(t *testing.T) (*Shell, *scenario.Runner, *kernel.Kernel, *bytes.Buffer) {
	t.Helper()
	k := kernel.New(kernel.Config{})
	f, err := scenario.Load(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	r, err := scenario.Spawn(k, f, nil)
	if err != nil {
		t.Fatalf("Spawn() error = %v", err)
	}
	t.Cleanup(r.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := k.WaitIdle(ctx); err != nil {
		t.Fatalf("WaitIdle() = %v", err)
	}

	var out bytes.Buffer
	return New(k, r, &out), r, k, &out
}

func exec(t *testing.T, s *Shell, line string) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return s.Exec(ctx, line)
}

func TestPs(t *testing.T) {
	s, _, _, out := newShell(t)
	if err := exec(t, s, "ps"); err != nil {
		t.Fatalf("ps: %v", err)
	}
	got := out.String()
	for _, want := range []string{"tick 0, 2 threads", "sleeper", "parked"} {
		if !strings.Contains(got, want) {
			t.Fatalf("ps output missing %q:\n%s", want, got)
		}
	}
	if err := exec(t, s, "ps extra"); err == nil {
		t.Fatal("ps extra: want usage error")
	}
}

func TestSuspendResumeTerminate(t *testing.T) {
	s, r, _, out := newShell(t)
	parked := r.Lookup("parked")

	if err := exec(t, s, "resume parked"); err != nil {
		t.Fatalf("resume: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.k.WaitIdle(ctx); err != nil {
		t.Fatalf("WaitIdle() = %v", err)
	}
	if got := parked.State(); got != thread.Completed {
		t.Fatalf("parked State() = %s, want %s", got, thread.Completed)
	}

	if err := exec(t, s, "kill sleeper"); err != nil {
		t.Fatalf("kill: %v", err)
	}
	if got := r.Lookup("sleeper").State(); got != thread.Terminated {
		t.Fatalf("sleeper State() = %s, want %s", got, thread.Terminated)
	}
	if !strings.Contains(out.String(), "sleeper: terminated") {
		t.Fatalf("output = %q", out.String())
	}

	if err := exec(t, s, "suspend nobody"); !errors.Is(err, ErrNoThread) {
		t.Fatalf("suspend nobody = %v, want %v", err, ErrNoThread)
	}
	if err := exec(t, s, "suspend"); err == nil {
		t.Fatal("suspend without name: want usage error")
	}
}

func TestPrio(t *testing.T) {
	s, r, _, out := newShell(t)
	if err := exec(t, s, "prio parked 3"); err != nil {
		t.Fatalf("prio: %v", err)
	}
	if got := r.Lookup("parked").Priority(); got != 3 {
		t.Fatalf("Priority() = %d, want 3", got)
	}
	if !strings.Contains(out.String(), "parked: priority 12 -> 3") {
		t.Fatalf("output = %q", out.String())
	}
	if err := exec(t, s, "prio parked 32"); !errors.Is(err, kernel.ErrPriority) {
		t.Fatalf("prio 32 = %v, want %v", err, kernel.ErrPriority)
	}
	if err := exec(t, s, "prio parked high"); err == nil {
		t.Fatal("prio with a word: want error")
	}
}

// tickWhenClaimed plays n timer ticks once a join on target is pending.
func tickWhenClaimed(t *testing.T, k *kernel.Kernel, target *thread.Thread, n int) {
	t.Helper()
	go func() {
		deadline := time.Now().Add(2 * time.Second)
		for target.Joinable() && time.Now().Before(deadline) {
			time.Sleep(time.Millisecond)
		}
		for i := 0; i < n; i++ {
			k.Tick()
		}
	}()
}

func TestTickAndJoin(t *testing.T) {
	s, r, k, out := newShell(t)
	sleeper := r.Lookup("sleeper")

	tickWhenClaimed(t, k, sleeper, 1)
	if err := exec(t, s, "join sleeper 1"); !errors.Is(err, thread.ErrTimeout) {
		t.Fatalf("join with timeout = %v, want %v", err, thread.ErrTimeout)
	}
	if !sleeper.Joinable() {
		t.Fatal("timed-out join left the thread claimed")
	}

	tickWhenClaimed(t, k, sleeper, 2)
	if err := exec(t, s, "join sleeper"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if !strings.Contains(out.String(), "sleeper: joined (completed)") {
		t.Fatalf("output = %q", out.String())
	}
	if err := exec(t, s, "join sleeper"); !errors.Is(err, thread.ErrNotJoinable) {
		t.Fatalf("second join = %v, want %v", err, thread.ErrNotJoinable)
	}
	if r.Lookup("join:sleeper") != nil {
		t.Fatal("join helper leaked into the registry")
	}

	out.Reset()
	if err := exec(t, s, "tick 2"); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "5" {
		t.Fatalf("tick output = %q, want 5", got)
	}
}

func TestJoinCanceled(t *testing.T) {
	s, r, _, _ := newShell(t)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := s.Exec(ctx, "join sleeper"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("join = %v, want %v", err, context.DeadlineExceeded)
	}
	// The helper's claim is withdrawn as its goroutine unwinds.
	deadline := time.Now().Add(2 * time.Second)
	for !r.Lookup("sleeper").Joinable() {
		if time.Now().After(deadline) {
			t.Fatal("canceled join left the thread claimed")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestHelpAndErrors(t *testing.T) {
	s, _, _, out := newShell(t)
	if err := exec(t, s, "help"); err != nil {
		t.Fatalf("help: %v", err)
	}
	for _, name := range []string{"ps", "join", "tick", "quit"} {
		if !strings.Contains(out.String(), name) {
			t.Fatalf("help output missing %q", name)
		}
	}
	out.Reset()
	if err := exec(t, s, "help join"); err != nil || !strings.Contains(out.String(), "usage: join <thread> [ticks]") {
		t.Fatalf("help join = %v, output %q", err, out.String())
	}

	if err := exec(t, s, "frobnicate"); !errors.Is(err, ErrUnknownCommand) {
		t.Fatalf("frobnicate = %v, want %v", err, ErrUnknownCommand)
	}
	if err := exec(t, s, `ps "unterminated`); err == nil {
		t.Fatal("unterminated quote: want parse error")
	}
	if err := exec(t, s, "   # comment"); err != nil {
		t.Fatalf("comment = %v, want nil", err)
	}
	if err := exec(t, s, "exit"); !errors.Is(err, ErrQuit) {
		t.Fatalf("exit = %v, want %v", err, ErrQuit)
	}
}

func TestRun(t *testing.T) {
	s, _, _, out := newShell(t)
	in := strings.NewReader("ticks\nbogus\nquit\nps\n")
	if err := s.Run(context.Background(), in); err != nil {
		t.Fatalf("Run() = %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "error: unknown command: bogus") {
		t.Fatalf("output = %q, want the command error", got)
	}
	if strings.Contains(got, "NAME") {
		t.Fatalf("output = %q, commands after quit ran", got)
	}
}
