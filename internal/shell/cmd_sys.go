package shell

import (
	"errors"
	"fmt"
	"strconv"

	"rtthread/internal/buildinfo"
	"rtthread/tick"
)

func registerSysCommands(r *registry) error {
	for _, cmd := range []command{
		{Name: "help", Usage: "help [command]", Desc: "Show available commands.", Run: cmdHelp},
		{Name: "ticks", Usage: "ticks", Desc: "Show current kernel tick counter.", Run: cmdTicks},
		{Name: "tick", Usage: "tick [n]", Desc: "Advance the kernel timer by n ticks (default 1).", Run: cmdTick},
		{Name: "version", Usage: "version", Desc: "Show build version.", Run: cmdVersion},
		{Name: "quit", Aliases: []string{"exit"}, Usage: "quit", Desc: "Leave the shell.", Run: cmdQuit},
	} {
		if err := r.register(cmd); err != nil {
			return err
		}
	}
	return nil
}

func cmdHelp(s *Shell, args []string) error {
	if len(args) == 0 {
		for _, name := range s.cmds.names() {
			cmd, _ := s.cmds.resolve(name)
			s.printf("%-10s %s\n", cmd.Name, cmd.Desc)
		}
		return nil
	}
	if len(args) != 1 {
		return errors.New("usage: help [command]")
	}

	cmd, ok := s.cmds.resolve(args[0])
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, args[0])
	}
	s.printf("usage: %s\n%s\n", cmd.Usage, cmd.Desc)
	return nil
}

func cmdTicks(s *Shell, _ []string) error {
	s.printf("%d\n", tick.Now(s.k))
	return nil
}

// cmdTick plays the timer interrupt n times and waits for the threads it
// woke to settle.
func cmdTick(s *Shell, args []string) error {
	n := uint64(1)
	if len(args) > 1 {
		return errors.New("usage: tick [n]")
	}
	if len(args) == 1 {
		v, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			return errors.New("tick: invalid count")
		}
		n = v
	}
	for i := uint64(0); i < n; i++ {
		s.k.Tick()
		if err := s.k.WaitIdle(s.ctx); err != nil {
			return err
		}
	}
	s.printf("%d\n", tick.Now(s.k))
	return nil
}

func cmdVersion(s *Shell, _ []string) error {
	s.printf("%s %s %s\n", buildinfo.Version, buildinfo.Commit, buildinfo.Date)
	return nil
}

func cmdQuit(*Shell, []string) error {
	return ErrQuit
}
