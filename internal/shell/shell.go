// Package shell is the line-oriented monitor console: it inspects and
// controls scenario threads from host context.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/shlex"

	"rtthread/thread"
)

// Kernel is what the shell needs from the kernel.
type Kernel interface {
	thread.Kernel
	Tick()
	WaitIdle(ctx context.Context) error
}

// Registry finds threads by name.
type Registry interface {
	Threads() []*thread.Thread
	Lookup(name string) *thread.Thread
}

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrNoThread       = errors.New("no such thread")
	ErrQuit           = errors.New("quit")
)

// Shell executes monitor commands.
type Shell struct {
	k   Kernel
	reg Registry
	out io.Writer

	cmds *registry
	ctx  context.Context
}

// New returns a shell writing command output to out.
func New(k Kernel, reg Registry, out io.Writer) *Shell {
	s := &Shell{k: k, reg: reg, out: out, cmds: newRegistry(), ctx: context.Background()}
	if err := registerThreadCommands(s.cmds); err != nil {
		panic(err)
	}
	if err := registerSysCommands(s.cmds); err != nil {
		panic(err)
	}
	return s
}

// Exec runs one command line. Blank lines and lines starting with # are
// ignored. ErrQuit is returned for the quit command.
func (s *Shell) Exec(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}
	args, err := shlex.Split(line)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	if len(args) == 0 {
		return nil
	}
	cmd, ok := s.cmds.resolve(args[0])
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, args[0])
	}

	s.ctx = ctx
	defer func() { s.ctx = context.Background() }()
	return cmd.Run(s, args[1:])
}

// Run reads commands from in until EOF, quit or ctx is done. Command errors
// are printed and do not stop the loop.
func (s *Shell) Run(ctx context.Context, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- sc.Err()
	}()

	for {
		s.printf("> ")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			s.printf("\n")
			return err
		case line := <-lines:
			err := s.Exec(ctx, line)
			if errors.Is(err, ErrQuit) {
				return nil
			}
			if err != nil {
				s.printf("error: %v\n", err)
			}
		}
	}
}

func (s *Shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

func (s *Shell) lookup(name string) (*thread.Thread, error) {
	t := s.reg.Lookup(name)
	if t == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoThread, name)
	}
	return t, nil
}
