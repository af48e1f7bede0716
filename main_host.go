//go:build !tinygo

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"rtthread/app"
	"rtthread/hal"
	"rtthread/internal/buildinfo"
	"rtthread/internal/scenario"
	"rtthread/internal/shell"
	"rtthread/tick"

	"golang.org/x/sync/errgroup"
)

func main() {
	var (
		cfg          hal.HeadlessConfig
		scenarioPath string
		report       uint
		withShell    bool
		showVersion  bool
	)
	flag.StringVar(&scenarioPath, "scenario", "", "Scenario YAML file (default: built-in demo).")
	flag.BoolVar(&cfg.Enabled, "headless", false, "Run without a window.")
	flag.IntVar(&cfg.Hz, "hz", 60, "Step rate in headless mode.")
	flag.Uint64Var(&cfg.Ticks, "ticks", 0, "Stop after N ticks in headless mode (0 = run forever).")
	flag.UintVar(&report, "report", 0, "Log the thread table every N ticks (0 = never).")
	flag.BoolVar(&withShell, "shell", false, "Read monitor commands from stdin.")
	flag.BoolVar(&showVersion, "version", false, "Print the version and exit.")
	flag.Parse()

	if showVersion {
		fmt.Println(buildinfo.String())
		return
	}

	f := app.Demo()
	if scenarioPath != "" {
		var err error
		if f, err = scenario.LoadFile(scenarioPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	if err := run(f, cfg, tick.Duration(report), withShell); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(f *scenario.File, cfg hal.HeadlessConfig, report tick.Duration, withShell bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var sys atomic.Pointer[app.System]
	ready := make(chan struct{})
	newApp := func(h hal.HAL) func() error {
		s, err := app.New(h, app.Config{Scenario: f, Report: report})
		if err != nil {
			return func() error { return err }
		}
		sys.Store(s)
		close(ready)
		return s.Step
	}
	defer func() {
		if s := sys.Load(); s != nil {
			s.Close()
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	if withShell {
		g.Go(func() error {
			select {
			case <-ready:
			case <-gctx.Done():
				return nil
			}
			s := sys.Load()
			defer s.Stop()
			return shell.New(s.Kernel(), s.Runner(), os.Stdout).Run(gctx, os.Stdin)
		})
	}

	var err error
	if cfg.Enabled {
		g.Go(func() error {
			defer cancel()
			return clean(hal.RunHeadless(gctx, newApp, cfg))
		})
	} else {
		// The window must own the main goroutine.
		err = clean(hal.RunWindow(newApp))
		cancel()
	}
	return errors.Join(err, clean(g.Wait()))
}

func clean(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, app.ErrQuit) {
		return nil
	}
	return err
}
