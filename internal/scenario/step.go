package scenario

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/shlex"
)

// Op is a scripted thread action.
type Op uint8

const (
	OpSleep Op = iota + 1
	OpYield
	OpSpin
	OpSuspend
	OpExit
	OpJoin
	OpPrio
	OpLog
	OpLoop
)

var opNames = map[string]Op{
	"sleep":   OpSleep,
	"yield":   OpYield,
	"spin":    OpSpin,
	"suspend": OpSuspend,
	"exit":    OpExit,
	"join":    OpJoin,
	"prio":    OpPrio,
	"log":     OpLog,
	"loop":    OpLoop,
}

func (op Op) String() string {
	for name, o := range opNames {
		if o == op {
			return name
		}
	}
	return "op(" + strconv.Itoa(int(op)) + ")"
}

// blocks reports whether the step always gives the processor to less urgent
// threads. A join does not: it returns at once when the target has finished.
func (op Op) blocks() bool {
	switch op {
	case OpSleep, OpSuspend, OpExit:
		return true
	default:
		return false
	}
}

// Step is one parsed scenario step.
type Step struct {
	Op Op
	// N is the tick count for sleep, the iteration count for spin and the
	// priority for prio.
	N uint32
	// Arg is the target name for join and the message for log.
	Arg string
}

var ErrBadStep = errors.New("bad step")

// ParseStep parses a step written with shell quoting, e.g. `sleep 10` or
// `log "waiting for io"`.
func ParseStep(s string) (Step, error) {
	args, err := shlex.Split(s)
	if err != nil {
		return Step{}, fmt.Errorf("%w %q: %v", ErrBadStep, s, err)
	}
	if len(args) == 0 {
		return Step{}, fmt.Errorf("%w: empty", ErrBadStep)
	}
	op, ok := opNames[args[0]]
	if !ok {
		return Step{}, fmt.Errorf("%w %q: unknown op %q", ErrBadStep, s, args[0])
	}

	st := Step{Op: op}
	switch op {
	case OpSleep, OpSpin, OpPrio:
		if len(args) != 2 {
			return Step{}, fmt.Errorf("%w %q: %s takes one number", ErrBadStep, s, op)
		}
		n, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			return Step{}, fmt.Errorf("%w %q: %v", ErrBadStep, s, err)
		}
		st.N = uint32(n)
	case OpJoin:
		if len(args) != 2 {
			return Step{}, fmt.Errorf("%w %q: join takes a thread name", ErrBadStep, s)
		}
		st.Arg = args[1]
	case OpLog:
		if len(args) < 2 {
			return Step{}, fmt.Errorf("%w %q: log needs a message", ErrBadStep, s)
		}
		st.Arg = strings.Join(args[1:], " ")
	default:
		if len(args) != 1 {
			return Step{}, fmt.Errorf("%w %q: %s takes no arguments", ErrBadStep, s, op)
		}
	}
	return st, nil
}

func (s Step) String() string {
	switch s.Op {
	case OpSleep, OpSpin, OpPrio:
		return fmt.Sprintf("%s %d", s.Op, s.N)
	case OpJoin:
		return "join " + s.Arg
	case OpLog:
		return "log " + strconv.Quote(s.Arg)
	default:
		return s.Op.String()
	}
}
