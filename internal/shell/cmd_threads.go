package shell

import (
	"errors"
	"fmt"
	"strconv"

	"rtthread/internal/monitor"
	"rtthread/thread"
	"rtthread/tick"
)

func registerThreadCommands(r *registry) error {
	for _, cmd := range []command{
		{Name: "ps", Aliases: []string{"ls"}, Usage: "ps", Desc: "List threads.", Run: cmdPs},
		{Name: "suspend", Usage: "suspend <thread>", Desc: "Suspend a thread.", Run: cmdSuspend},
		{Name: "resume", Usage: "resume <thread>", Desc: "Resume a thread.", Run: cmdResume},
		{Name: "terminate", Aliases: []string{"kill"}, Usage: "terminate <thread>", Desc: "Terminate a thread.", Run: cmdTerminate},
		{Name: "prio", Usage: "prio <thread> <priority>", Desc: "Change a thread's priority.", Run: cmdPrio},
		{Name: "join", Usage: "join <thread> [ticks]", Desc: "Wait for a thread to finish.", Run: cmdJoin},
	} {
		if err := r.register(cmd); err != nil {
			return err
		}
	}
	return nil
}

func cmdPs(s *Shell, args []string) error {
	if len(args) != 0 {
		return errors.New("usage: ps")
	}
	return monitor.WriteTable(s.out, tick.Now(s.k), monitor.Snapshot(s.reg.Threads()))
}

func cmdSuspend(s *Shell, args []string) error {
	return s.control(args, "suspend", (*thread.Thread).Suspend)
}

func cmdResume(s *Shell, args []string) error {
	return s.control(args, "resume", (*thread.Thread).Resume)
}

func cmdTerminate(s *Shell, args []string) error {
	return s.control(args, "terminate", (*thread.Thread).Terminate)
}

func (s *Shell) control(args []string, verb string, op func(*thread.Thread)) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: %s <thread>", verb)
	}
	t, err := s.lookup(args[0])
	if err != nil {
		return err
	}
	op(t)
	s.printf("%s: %s\n", t.Name(), t.State())
	return nil
}

func cmdPrio(s *Shell, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: prio <thread> <priority>")
	}
	t, err := s.lookup(args[0])
	if err != nil {
		return err
	}
	p, err := strconv.ParseUint(args[1], 10, 32)
	if err != nil {
		return fmt.Errorf("prio: invalid priority %q", args[1])
	}
	old := t.Priority()
	if err := t.SetPriority(thread.Priority(p)); err != nil {
		return err
	}
	s.printf("%s: priority %d -> %d\n", t.Name(), old, p)
	return nil
}

// cmdJoin joins from a helper thread, since joining needs thread context.
// The helper runs at the most urgent priority so it claims the target
// before anything else is scheduled.
func cmdJoin(s *Shell, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errors.New("usage: join <thread> [ticks]")
	}
	target, err := s.lookup(args[0])
	if err != nil {
		return err
	}
	timeout := tick.Infinity
	if len(args) == 2 {
		n, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			return fmt.Errorf("join: invalid ticks %q", args[1])
		}
		timeout = tick.Duration(n)
	}

	var joinErr error
	done := make(chan struct{})
	helper := thread.New(s.k, make([]byte, 512),
		thread.Func(func() { joinErr = target.JoinFor(timeout) }),
		thread.WithName("join:"+target.Name()),
		thread.WithPriority(thread.PriorityMin),
		thread.WithHook(func(_ *thread.Thread, ev thread.Event) {
			if ev == thread.Exited {
				close(done)
			}
		}))
	if err := helper.Create(); err != nil {
		return fmt.Errorf("join: %w", err)
	}
	defer helper.Close()
	helper.Resume()

	select {
	case <-done:
	case <-s.ctx.Done():
		return s.ctx.Err()
	}
	if joinErr != nil {
		return fmt.Errorf("join %s: %w", target.Name(), joinErr)
	}
	s.printf("%s: joined (%s)\n", target.Name(), target.State())
	return nil
}
