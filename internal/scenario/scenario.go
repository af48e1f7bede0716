// Package scenario loads YAML descriptions of scripted threads and runs them
// on the kernel through thread handles.
//
//	name: handoff
//	threads:
//	  - name: worker
//	    priority: 10
//	    steps: ["log start", "sleep 5", "exit"]
//	  - name: main
//	    priority: 5
//	    steps: ["join worker", "log \"worker done\""]
package scenario

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"rtthread/kernel"
	"rtthread/thread"
)

// DefaultStack is the stack size of threads that do not set one.
const DefaultStack = 1024

// File is a scenario document.
type File struct {
	Name    string       `yaml:"name"`
	Threads []ThreadSpec `yaml:"threads"`
}

// ThreadSpec describes one scripted thread.
type ThreadSpec struct {
	Name     string `yaml:"name"`
	Priority uint   `yaml:"priority"`
	Stack    int    `yaml:"stack"`
	// Suspended leaves the thread created but not resumed.
	Suspended bool     `yaml:"suspended"`
	Steps     []string `yaml:"steps"`

	steps []Step
}

// Parsed returns the parsed steps. It is valid after Validate.
func (ts *ThreadSpec) Parsed() []Step { return ts.steps }

var ErrInvalid = errors.New("invalid scenario")

// Load decodes and validates a scenario. Unknown keys are rejected.
func Load(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalid)
		}
		return nil, fmt.Errorf("yaml decode: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// LoadFile is Load for a file on disk.
func LoadFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	f, err := Load(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if f.Name == "" {
		f.Name = path
	}
	return f, nil
}

// Validate fills in defaults, parses the steps and checks cross references.
func (f *File) Validate() error {
	if len(f.Threads) == 0 {
		return fmt.Errorf("%w: no threads", ErrInvalid)
	}

	names := make(map[string]bool, len(f.Threads))
	for i := range f.Threads {
		ts := &f.Threads[i]
		if ts.Name == "" {
			return fmt.Errorf("%w: thread %d has no name", ErrInvalid, i)
		}
		if names[ts.Name] {
			return fmt.Errorf("%w: duplicate thread %q", ErrInvalid, ts.Name)
		}
		names[ts.Name] = true

		if !thread.Priority(ts.Priority).Valid() {
			return fmt.Errorf("%w: thread %q: priority %d out of range [%d, %d]",
				ErrInvalid, ts.Name, ts.Priority, thread.PriorityMin, thread.PriorityMax)
		}
		if ts.Stack == 0 {
			ts.Stack = DefaultStack
		}
		if ts.Stack < kernel.MinStackSize {
			return fmt.Errorf("%w: thread %q: stack %d below %d", ErrInvalid, ts.Name, ts.Stack, kernel.MinStackSize)
		}

		ts.steps = ts.steps[:0]
		for _, raw := range ts.Steps {
			st, err := ParseStep(raw)
			if err != nil {
				return fmt.Errorf("%w: thread %q: %w", ErrInvalid, ts.Name, err)
			}
			ts.steps = append(ts.steps, st)
		}
	}

	for i := range f.Threads {
		if err := f.Threads[i].check(names); err != nil {
			return err
		}
	}
	return nil
}

func (ts *ThreadSpec) check(names map[string]bool) error {
	blocking := false
	for i, st := range ts.steps {
		switch st.Op {
		case OpJoin:
			if !names[st.Arg] {
				return fmt.Errorf("%w: thread %q joins unknown thread %q", ErrInvalid, ts.Name, st.Arg)
			}
			if st.Arg == ts.Name {
				return fmt.Errorf("%w: thread %q joins itself", ErrInvalid, ts.Name)
			}
		case OpPrio:
			if !thread.Priority(st.N).Valid() {
				return fmt.Errorf("%w: thread %q: prio %d out of range", ErrInvalid, ts.Name, st.N)
			}
		case OpLoop:
			if i != len(ts.steps)-1 {
				return fmt.Errorf("%w: thread %q: loop must be the last step", ErrInvalid, ts.Name)
			}
			if !blocking {
				return fmt.Errorf("%w: thread %q: loop without sleep or suspend never lets lower priorities run",
					ErrInvalid, ts.Name)
			}
		}
		if st.Op.blocks() {
			blocking = true
		}
	}
	return nil
}
