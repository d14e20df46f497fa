package emu

import "testing"

func newTestTimers() (*Timers, *Gpu, *SharedState) {
	shared := NewSharedState(nil)
	tk := shared.TimeKeeper()
	for p := Peripheral(0); p < peripheralCount; p++ {
		tk.NoSyncNeeded(p)
	}
	gpu := NewGpu(NTSC, nil)
	gpu.Sync(shared)
	return NewTimers(), gpu, shared
}

func TestTimersFreeRun(t *testing.T) {
	ts, gpu, shared := newTestTimers()

	shared.TimeKeeper().Tick(100)
	if got := ts.Load(shared, gpu, Halfword, 0x00); got != 100 {
		t.Errorf("counter: got %d, want 100", got)
	}

	ts.Store(shared, nil, Word, 0x00, 0x1234)
	shared.TimeKeeper().Tick(1)
	if got := ts.Load(shared, gpu, Word, 0x00); got != 0x1235 {
		t.Errorf("counter after write: got 0x%X", got)
	}
}

func TestTimersTargetWrap(t *testing.T) {
	ts, gpu, shared := newTestTimers()

	ts.Store(shared, gpu, Halfword, 0x18, 9)
	ts.Store(shared, gpu, Halfword, 0x14, 0x0008)
	shared.TimeKeeper().Tick(25)

	if got := ts.Load(shared, gpu, Halfword, 0x10); got != 5 {
		t.Errorf("counter: got %d, want 5", got)
	}
	mode := ts.Load(shared, gpu, Halfword, 0x14)
	if mode&(1<<11) == 0 {
		t.Errorf("target reached flag not set: 0x%04X", mode)
	}
	if mode&(1<<12) != 0 {
		t.Errorf("overflow flag set: 0x%04X", mode)
	}
	if ts.Load(shared, gpu, Halfword, 0x14)&(1<<11) != 0 {
		t.Error("reading mode should clear the reached flags")
	}
}

func TestTimersOverflow(t *testing.T) {
	ts, gpu, shared := newTestTimers()

	ts.Store(shared, gpu, Halfword, 0x00, 0xfff0)
	shared.TimeKeeper().Tick(0x20)

	if got := ts.Load(shared, gpu, Halfword, 0x00); got != 0x10 {
		t.Errorf("counter: got 0x%X, want 0x10", got)
	}
	if ts.Load(shared, gpu, Halfword, 0x04)&(1<<12) == 0 {
		t.Error("overflow flag not set")
	}
}

func TestTimersSysClockDiv8(t *testing.T) {
	ts, gpu, shared := newTestTimers()

	ts.Store(shared, gpu, Halfword, 0x24, 0x0200)
	shared.TimeKeeper().Tick(83)

	if got := ts.Load(shared, gpu, Halfword, 0x20); got != 10 {
		t.Errorf("counter: got %d, want 10", got)
	}
	shared.TimeKeeper().Tick(5)
	if got := ts.Load(shared, gpu, Halfword, 0x20); got != 11 {
		t.Errorf("phase lost: got %d, want 11", got)
	}
}

func TestTimersTargetInterrupt(t *testing.T) {
	ts, gpu, shared := newTestTimers()
	tk := shared.TimeKeeper()

	ts.Store(shared, gpu, Halfword, 0x08, 99)
	// Target wrap, target IRQ, repeat, pulse
	ts.Store(shared, gpu, Halfword, 0x04, 0x0058)

	tk.UpdateSyncPending()
	if got := tk.NextSync() - tk.Now(); got != 99 {
		t.Fatalf("next sync in %d cycles, want 99", got)
	}

	tk.Tick(98)
	ts.Sync(shared)
	if shared.IRQ().Status()&(1<<InterruptTimer0) != 0 {
		t.Fatal("interrupt raised early")
	}

	tk.Tick(1)
	ts.Sync(shared)
	if shared.IRQ().Status()&(1<<InterruptTimer0) == 0 {
		t.Fatal("target interrupt not raised")
	}

	// Next one is a full period later
	shared.IRQ().Ack(0)
	tk.UpdateSyncPending()
	if got := tk.NextSync() - tk.Now(); got != 100 {
		t.Errorf("next sync in %d cycles, want 100", got)
	}
}

func TestTimersWrapInterrupt(t *testing.T) {
	ts, gpu, shared := newTestTimers()
	tk := shared.TimeKeeper()

	// Wrap IRQ, repeat, pulse on timer 2
	ts.Store(shared, gpu, Halfword, 0x24, 0x0060)
	ts.Store(shared, gpu, Halfword, 0x20, 0xff00)

	tk.UpdateSyncPending()
	if got := tk.NextSync() - tk.Now(); got != 0x100 {
		t.Fatalf("next sync in %d cycles, want 256", got)
	}
	tk.Tick(0x100)
	ts.Sync(shared)
	if shared.IRQ().Status()&(1<<InterruptTimer2) == 0 {
		t.Error("wrap interrupt not raised")
	}
}

func TestTimersUnsupportedModesPanic(t *testing.T) {
	cases := []struct {
		name string
		mode uint32
	}{
		{"sync mode", 0x0001},
		{"one-shot", 0x0010},
		{"toggle", 0x00d0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ts, gpu, shared := newTestTimers()
			defer func() {
				if recover() == nil {
					t.Errorf("mode 0x%04X should panic", c.mode)
				}
			}()
			ts.Store(shared, gpu, Halfword, 0x04, c.mode)
		})
	}
}

func TestTimersHsyncClock(t *testing.T) {
	ts, gpu, shared := newTestTimers()
	tk := shared.TimeKeeper()

	ts.Store(shared, gpu, Halfword, 0x14, 0x0100)
	if !ts.Timer(1).NeedsGpu() {
		t.Fatal("hsync clocked timer should need the GPU")
	}

	// Three and a half lines
	line := gpu.HsyncPeriod()
	tk.Tick(line.Multiply(FracCyclesFromFP(7 << (fracBits - 1))).Ceil())

	if got := ts.Load(shared, gpu, Halfword, 0x10); got != 3 {
		t.Errorf("lines counted: got %d, want 3", got)
	}
}

func TestTimersLoadSyncsGpu(t *testing.T) {
	ts, gpu, shared := newTestTimers()
	tk := shared.TimeKeeper()

	ts.Store(shared, gpu, Halfword, 0x14, 0x0100)

	// Twenty and a half lines, without syncing the GPU directly
	line := gpu.HsyncPeriod()
	tk.Tick(line.Multiply(FracCyclesFromFP(41 << (fracBits - 1))).Ceil())

	if got := ts.Load(shared, gpu, Halfword, 0x10); got != 20 {
		t.Errorf("lines counted: got %d, want 20", got)
	}
	if got := gpu.DisplayLine(); got != 20 {
		t.Errorf("GPU line: got %d, want 20", got)
	}
	if gpu.InVBlank() {
		t.Error("GPU still in VBlank after the timer read")
	}
}

func TestTimersVideoTimingsChanged(t *testing.T) {
	ts, gpu, shared := newTestTimers()

	ts.Store(shared, gpu, Halfword, 0x04, 0x0100)
	before := ts.Timer(0).period

	// 640 pixel mode has a shorter dot clock
	if gpu.Store(shared, Word, 4, 0x08000003) {
		ts.VideoTimingsChanged(shared, gpu)
	}
	if ts.Timer(0).period >= before {
		t.Errorf("dot clock period not updated: %d then %d", before, ts.Timer(0).period)
	}
}
