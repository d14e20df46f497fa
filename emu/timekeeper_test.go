package emu

import (
	"math"
	"testing"
)

func TestFracCycles(t *testing.T) {
	if got := FracCyclesFromCycles(3).FP(); got != 3<<16 {
		t.Errorf("FromCycles(3) = %#x", got)
	}
	if got := FracCyclesFromF32(1.5).FP(); got != 0x18000 {
		t.Errorf("FromF32(1.5) = %#x", got)
	}

	half := FracCyclesFromFP(0x8000)
	two := FracCyclesFromCycles(2)
	if got := two.Multiply(half); got != FracCyclesFromCycles(1) {
		t.Errorf("2 * 0.5 = %#x", got.FP())
	}
	if got := FracCyclesFromCycles(1).Divide(two); got != half {
		t.Errorf("1 / 2 = %#x", got.FP())
	}
	if got := half.Add(half); got != FracCyclesFromCycles(1) {
		t.Errorf("0.5 + 0.5 = %#x", got.FP())
	}
}

func TestFracCycles_Ceil(t *testing.T) {
	tests := []struct {
		fp   uint64
		want Cycles
	}{
		{0, 0},
		{1, 1},
		{0x10000, 1},
		{0x10001, 2},
		{0x2ffff, 3},
	}
	for _, tt := range tests {
		if got := FracCyclesFromFP(tt.fp).Ceil(); got != tt.want {
			t.Errorf("Ceil(%#x) = %d, want %d", tt.fp, got, tt.want)
		}
	}
}

func TestTimeKeeper_InitialSync(t *testing.T) {
	tk := NewTimeKeeper()
	for p := PeripheralGpu; p < peripheralCount; p++ {
		if !tk.NeedsSync(p) {
			t.Errorf("%s does not need a sync at power on", p)
		}
	}
	if !tk.SyncPending() {
		t.Error("no sync pending at power on")
	}
}

func TestTimeKeeper_Sync(t *testing.T) {
	tk := NewTimeKeeper()
	tk.Tick(100)
	if d := tk.Sync(PeripheralGpu); d != 100 {
		t.Errorf("first delta = %d", d)
	}
	tk.Tick(25)
	if d := tk.Sync(PeripheralGpu); d != 25 {
		t.Errorf("second delta = %d", d)
	}
	if d := tk.Sync(PeripheralCdRom); d != 125 {
		t.Errorf("cdrom delta = %d", d)
	}
}

func TestTimeKeeper_NextSync(t *testing.T) {
	tk := NewTimeKeeper()
	for p := PeripheralGpu; p < peripheralCount; p++ {
		tk.NoSyncNeeded(p)
	}
	tk.UpdateSyncPending()
	if tk.SyncPending() || tk.NextSync() != math.MaxUint64 {
		t.Fatalf("sync pending with every sheet idle: next %d", tk.NextSync())
	}

	tk.SetNextSyncDelta(PeripheralTimer1, 50)
	tk.SetNextSyncDelta(PeripheralCdRom, 80)
	if tk.NextSync() != 50 {
		t.Errorf("NextSync = %d, want 50", tk.NextSync())
	}

	tk.SetNextSyncDeltaIfSooner(PeripheralCdRom, 90)
	tk.SetNextSyncDeltaIfSooner(PeripheralTimer1, 30)

	tk.Tick(30)
	if !tk.NeedsSync(PeripheralTimer1) {
		t.Error("timer1 deadline not moved earlier")
	}
	if tk.NeedsSync(PeripheralCdRom) {
		t.Error("cdrom needs sync too early")
	}

	tk.Tick(50)
	if !tk.NeedsSync(PeripheralCdRom) {
		t.Error("cdrom deadline postponed by a later request")
	}

	tk.NoSyncNeeded(PeripheralTimer1)
	tk.NoSyncNeeded(PeripheralCdRom)
	tk.UpdateSyncPending()
	if tk.SyncPending() {
		t.Error("sync still pending after clearing deadlines")
	}
}

func TestInterruptState(t *testing.T) {
	var irq InterruptState

	irq.Assert(InterruptCdRom)
	irq.Assert(InterruptCdRom)
	if irq.Status() != 1<<InterruptCdRom {
		t.Fatalf("status = %#x", irq.Status())
	}
	if irq.Active() {
		t.Error("active with an empty mask")
	}

	irq.SetMask(1 << InterruptCdRom)
	if !irq.Active() {
		t.Error("not active with the line unmasked")
	}

	irq.Assert(InterruptVBlank)
	irq.Ack(^uint16(1 << InterruptCdRom))
	if irq.Status() != 1<<InterruptVBlank || irq.Active() {
		t.Errorf("after ack: status %#x", irq.Status())
	}
}

func TestInterruptState_UnsupportedMask(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("SPU mask bit accepted")
		}
	}()
	var irq InterruptState
	irq.SetMask(1 << InterruptSpu)
}

func TestTraceLog(t *testing.T) {
	tl := NewTraceLog()
	tl.Trace(10, "cdrom", "irq", TraceU8(1))
	tl.Trace(20, "cdrom", "irq", TraceU8(1))
	tl.Trace(30, "cdrom", "irq", TraceU8(3))
	tl.Trace(30, "cdrom", "irq", TraceU8(5))
	tl.Trace(40, "gpu", "vblank", TraceBool(true))

	logs := tl.Drain()
	irq := logs["cdrom"]["irq"]
	if irq == nil || irq.Size != 8 {
		t.Fatalf("cdrom.irq = %+v", irq)
	}
	want := []TraceEvent{{10, 1}, {30, 5}}
	if len(irq.Log) != len(want) {
		t.Fatalf("log = %+v, want %+v", irq.Log, want)
	}
	for i := range want {
		if irq.Log[i] != want[i] {
			t.Errorf("event %d = %+v, want %+v", i, irq.Log[i], want[i])
		}
	}
	if logs["gpu"]["vblank"].Size != 1 {
		t.Error("bool traced with the wrong width")
	}

	if len(tl.Drain()) != 0 {
		t.Error("Drain did not reset the log")
	}
}

func TestTraceLog_OutOfOrder(t *testing.T) {
	tl := NewTraceLog()
	tl.Trace(10, "timers", "t0", TraceU16(1))

	defer func() {
		if recover() == nil {
			t.Error("out of order event accepted")
		}
	}()
	tl.Trace(5, "timers", "t0", TraceU16(2))
}
