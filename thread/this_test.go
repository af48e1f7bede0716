package thread

import (
	"math"
	"reflect"
	"testing"
	"time"

	"rtthread/kernel"
	"rtthread/tick"
)

func TestSleepFor(t *testing.T) {
	k := kernel.New(kernel.Config{})
	woke := false
	main := runMain(t, k, 5, func() {
		SleepFor(k, 3)
		woke = true
	})

	k.Tick()
	k.Tick()
	waitIdle(t, k)
	if woke {
		t.Fatal("woke after 2 of 3 ticks")
	}
	if got := main.State(); got != Suspended {
		t.Fatalf("State() while sleeping = %s, want %s", got, Suspended)
	}
	k.Tick()
	waitIdle(t, k)
	if !woke {
		t.Fatal("did not wake after 3 ticks")
	}
}

func TestSleepReturnsPromptly(t *testing.T) {
	k := kernel.New(kernel.Config{})
	for i := 0; i < 5; i++ {
		k.Tick()
	}

	done := false
	runMain(t, k, 5, func() {
		SleepFor(k, 0)
		SleepForStd(k, 0)
		SleepForStd(k, tick.Period/2)
		SleepUntil(k, tick.Now(k))
		SleepUntil(k, tick.TimePoint(1))
		done = true
	})
	if !done {
		t.Fatal("zero and past-deadline sleeps blocked")
	}
}

func TestSleepUntil(t *testing.T) {
	k := kernel.New(kernel.Config{})
	var woke tick.TimePoint
	runMain(t, k, 5, func() {
		SleepUntil(k, tick.Now(k).Add(4))
		woke = tick.Now(k)
	})
	for i := 0; i < 4; i++ {
		k.Tick()
	}
	waitIdle(t, k)
	if woke != 4 {
		t.Fatalf("woke at %d, want 4", woke)
	}
}

func TestSleepForStd(t *testing.T) {
	k := kernel.New(kernel.Config{})
	woke := false
	runMain(t, k, 5, func() {
		SleepForStd(k, 2*time.Millisecond+500*time.Microsecond)
		woke = true
	})
	k.Tick()
	waitIdle(t, k)
	if woke {
		t.Fatal("woke after 1 tick, want 2")
	}
	k.Tick()
	waitIdle(t, k)
	if !woke {
		t.Fatal("did not wake after 2 ticks")
	}
}

func TestYieldRotatesEqualPriority(t *testing.T) {
	k := kernel.New(kernel.Config{})
	var order []byte
	worker := func(name byte) *Thread {
		return New(k, make([]byte, 1024), Func(func() {
			for i := 0; i < 3; i++ {
				order = append(order, name)
				Yield(k)
			}
		}), WithPriority(8))
	}
	a, b := worker('a'), worker('b')

	runMain(t, k, 1, func() {
		a.Create()
		a.Resume()
		b.Create()
		b.Resume()
	})

	if got := string(order); got != "ababab" {
		t.Fatalf("order = %q, want %q", got, "ababab")
	}
}

func TestYieldAlone(t *testing.T) {
	k := kernel.New(kernel.Config{})
	n := 0
	runMain(t, k, 5, func() {
		Yield(k)
		n++
	})
	if n != 1 {
		t.Fatalf("n = %d, want 1", n)
	}
	Yield(k)
}

func TestEntryAdapters(t *testing.T) {
	k := kernel.New(kernel.Config{})

	var gotInt int8
	neg := int8(-1)
	intEntry := FuncInt(func(v int8) { gotInt = v }, neg)
	if got := intEntry.Input(); got != ^uintptr(0) {
		t.Fatalf("FuncInt(-1).Input() = %#x, want %#x", got, ^uintptr(0))
	}

	var gotWord uintptr
	wordEntry := FuncWord(func(w uintptr) { gotWord = w }, 0xBEEF)

	type counter struct{ n int }
	c := &counter{}
	ptrEntry := FuncPtr(func(c *counter) { c.n++ }, c)
	methodEntry := Method(c, func(c *counter) { c.n += 10 })

	var ran []string
	for _, tt := range []struct {
		name  string
		entry Entry
	}{
		{"int", intEntry},
		{"word", wordEntry},
		{"ptr", ptrEntry},
		{"method", methodEntry},
	} {
		th := New(k, make([]byte, 1024), tt.entry, WithName(tt.name))
		start(t, th)
		waitIdle(t, k)
		if got := th.State(); got != Completed {
			t.Fatalf("%s: State() = %s, want %s", tt.name, got, Completed)
		}
		if got := th.Input(); got != tt.entry.Input() {
			t.Fatalf("%s: Input() = %#x, want %#x", tt.name, got, tt.entry.Input())
		}
		ran = append(ran, tt.name)
	}

	if gotInt != -1 {
		t.Fatalf("FuncInt argument = %d, want -1", gotInt)
	}
	if gotWord != 0xBEEF {
		t.Fatalf("FuncWord input = %#x, want 0xbeef", gotWord)
	}
	if c.n != 11 {
		t.Fatalf("counter = %d, want 11", c.n)
	}
	if want := []string{"int", "word", "ptr", "method"}; !reflect.DeepEqual(ran, want) {
		t.Fatalf("ran = %v, want %v", ran, want)
	}
}

func TestFuncIntKeepsBitPattern(t *testing.T) {
	var gotI32 int32
	e := FuncInt(func(v int32) { gotI32 = v }, math.MinInt32)
	e.fn(e.input)
	if gotI32 != math.MinInt32 {
		t.Fatalf("FuncInt(MinInt32) argument = %d, want %d", gotI32, int32(math.MinInt32))
	}

	var gotU32 uint32
	e = FuncInt(func(v uint32) { gotU32 = v }, math.MaxUint32)
	e.fn(e.input)
	if gotU32 != math.MaxUint32 {
		t.Fatalf("FuncInt(MaxUint32) argument = %d, want %d", gotU32, uint32(math.MaxUint32))
	}
}
