package app

import (
	"fmt"
	"strings"

	"rtthread/kernel"
)

// installPanicHandler logs the first thread panic and keeps it for Step,
// which replaces the monitor with a panic screen. The handler runs inside
// the panicking thread and must return.
func (s *System) installPanicHandler() {
	s.k.SetPanicHandler(func(info kernel.PanicInfo) {
		if l := s.h.Logger(); l != nil {
			l.WriteLineString(fmt.Sprintf("rtthread panic: thread=%s panic=%v", info.Thread, info.Value))
			for _, line := range stackLines(info.Stack) {
				l.WriteLineString(line)
			}
		}
		s.panicInfo.Store(&info)
	})
}

// Panic returns the recorded thread panic, if any.
func (s *System) Panic() (kernel.PanicInfo, bool) {
	info := s.panicInfo.Load()
	if info == nil {
		return kernel.PanicInfo{}, false
	}
	return *info, true
}

func panicLines(info *kernel.PanicInfo) []string {
	lines := []string{
		"rtthread panic:",
		fmt.Sprintf("thread: %s", info.Thread),
		fmt.Sprintf("panic: %v", info.Value),
	}
	stack := stackLines(info.Stack)
	if len(stack) == 0 {
		return append(lines, "stack: unavailable")
	}
	lines = append(lines, "stack:")
	for _, line := range stack {
		lines = append(lines, strings.ReplaceAll(line, "\t", "  "))
	}
	return lines
}

func stackLines(stack []byte) []string {
	var out []string
	for _, line := range strings.Split(string(stack), "\n") {
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}
