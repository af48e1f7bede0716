// Package app wires the kernel, a scenario and the thread monitor to a HAL.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"rtthread/hal"
	"rtthread/internal/monitor"
	"rtthread/internal/scenario"
	"rtthread/kernel"
	"rtthread/tick"
)

// ErrQuit is returned by Step once the monitor was asked to stop.
var ErrQuit = errors.New("quit")

// Config selects what the system runs.
type Config struct {
	Scenario *scenario.File
	// Report writes the thread table to the logger every Report ticks
	// (0 = never).
	Report tick.Duration
}

// System is one running kernel with its scenario threads and monitor.
type System struct {
	h      hal.HAL
	k      *kernel.Kernel
	run    *scenario.Runner
	screen *monitor.Screen
	cfg    Config

	cancel context.CancelFunc
	pumped chan struct{}

	selected   int
	status     string
	lastReport tick.TimePoint
	panicShown bool

	panicInfo atomic.Pointer[kernel.PanicInfo]
	stopped   atomic.Bool
}

// New starts a kernel on h, spawns the scenario threads and feeds the HAL
// tick stream to the kernel timer.
func New(h hal.HAL, cfg Config) (*System, error) {
	if cfg.Scenario == nil {
		return nil, errors.New("app: no scenario")
	}

	k := kernel.New(kernel.Config{Logger: h.Logger()})
	s := &System{h: h, k: k, cfg: cfg, pumped: make(chan struct{})}
	if disp := h.Display(); disp != nil {
		if fb := disp.Framebuffer(); fb != nil {
			s.screen = monitor.NewScreen(fb)
		}
	}
	s.installPanicHandler()

	run, err := scenario.Spawn(k, cfg.Scenario, h.Logger())
	if err != nil {
		return nil, err
	}
	s.run = run
	s.logf("scenario %q: %d threads", cfg.Scenario.Name, len(run.Threads()))

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.pumpTicks(ctx)
	return s, nil
}

func (s *System) pumpTicks(ctx context.Context) {
	defer close(s.pumped)
	ht := s.h.Time()
	if ht == nil {
		return
	}
	ch := ht.Ticks()
	if ch == nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ch:
			s.k.Tick()
		}
	}
}

// Kernel returns the kernel the scenario runs on.
func (s *System) Kernel() *kernel.Kernel { return s.k }

// Runner returns the scenario thread registry.
func (s *System) Runner() *scenario.Runner { return s.run }

// Stop makes the next Step return ErrQuit.
func (s *System) Stop() { s.stopped.Store(true) }

// Close stops the tick feed and releases the scenario threads.
func (s *System) Close() {
	s.cancel()
	<-s.pumped
	s.run.Close()
}

// Step handles pending input, writes the periodic report and redraws the
// monitor. It is called once per host frame.
func (s *System) Step() error {
	if s.stopped.Load() {
		return ErrQuit
	}
	if info := s.panicInfo.Load(); info != nil {
		if !s.panicShown && s.screen != nil {
			s.panicShown = true
			return s.screen.DrawLines(panicLines(info))
		}
		return nil
	}

	if err := s.handleInput(); err != nil {
		return err
	}

	threads := s.run.Threads()
	rows := monitor.Snapshot(threads)
	now := tick.Now(s.k)

	if s.cfg.Report > 0 && now.Sub(s.lastReport) >= int64(s.cfg.Report) {
		s.lastReport = now
		s.report(now, rows)
	}

	if s.screen == nil {
		return nil
	}
	if s.selected >= len(rows) {
		s.selected = len(rows) - 1
	}
	if s.selected < 0 {
		s.selected = 0
	}
	status := s.status
	if status == "" {
		status = "up/down select  s suspend  r resume  t terminate  q quit"
	}
	return s.screen.Draw(now, rows, s.selected, status)
}

func (s *System) handleInput() error {
	in := s.h.Input()
	if in == nil {
		return nil
	}
	kbd := in.Keyboard()
	if kbd == nil {
		return nil
	}
	threads := s.run.Threads()
	for {
		var ev hal.KeyEvent
		select {
		case ev = <-kbd.Events():
		default:
			return nil
		}
		if !ev.Press {
			continue
		}
		switch ev.Code {
		case hal.KeyUp:
			if s.selected > 0 {
				s.selected--
			}
			continue
		case hal.KeyDown:
			if s.selected < len(threads)-1 {
				s.selected++
			}
			continue
		case hal.KeyEscape:
			return ErrQuit
		}
		if ev.Rune == 'q' {
			return ErrQuit
		}
		if s.selected < 0 || s.selected >= len(threads) {
			continue
		}
		t := threads[s.selected]
		switch ev.Rune {
		case 's':
			t.Suspend()
		case 'r':
			t.Resume()
		case 't':
			t.Terminate()
		default:
			continue
		}
		s.status = fmt.Sprintf("%s: %s", t.Name(), t.State())
	}
}

func (s *System) report(now tick.TimePoint, rows []monitor.Row) {
	var b strings.Builder
	monitor.WriteTable(&b, now, rows)
	for _, line := range strings.Split(strings.TrimSuffix(b.String(), "\n"), "\n") {
		s.h.Logger().WriteLineString(line)
	}
}

func (s *System) logf(format string, args ...any) {
	if l := s.h.Logger(); l != nil {
		l.WriteLineString(fmt.Sprintf(format, args...))
	}
}
