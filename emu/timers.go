package emu

// timerClock is the tick source of a timer.
type timerClock uint8

const (
	clockSys timerClock = iota
	clockSysDiv8
	clockGpuDot
	clockGpuHsync
)

func (c timerClock) needsGpu() bool {
	return c == clockGpuDot || c == clockGpuHsync
}

// timerClockSources maps the 2-bit clock source field of each timer.
// Timers 0 and 1 use odd values for their alternate source, timer 2 uses
// values 2 and 3.
var timerClockSources = [3][4]timerClock{
	{clockSys, clockGpuDot, clockSys, clockGpuDot},
	{clockSys, clockGpuHsync, clockSys, clockGpuHsync},
	{clockSys, clockSys, clockSysDiv8, clockSysDiv8},
}

// counterWrap is the number of counter values without target wrapping.
const counterWrap = 0x10000

// Timer is one of the three root counters.
type Timer struct {
	instance Peripheral
	counter  uint16
	target   uint16

	freeRun    bool
	syncMode   uint8
	targetWrap bool
	targetIrq  bool
	wrapIrq    bool
	repeatIrq  bool
	// Toggle the IRQ line instead of pulsing it
	toggleIrq   bool
	clockSource uint8

	// Sticky until the mode register is read
	targetReached   bool
	overflowReached bool

	// Duration of a counter tick and position within the current one
	period FracCycles
	phase  FracCycles
}

func newTimer(instance Peripheral) Timer {
	return Timer{
		instance: instance,
		freeRun:  true,
		period:   FracCyclesFromCycles(1),
	}
}

func (t *Timer) index() int {
	return int(t.instance - PeripheralTimer0)
}

func (t *Timer) clock() timerClock {
	return timerClockSources[t.index()][t.clockSource]
}

func (t *Timer) irqEnabled() bool {
	return t.targetIrq || t.wrapIrq
}

func (t *Timer) interrupt() Interrupt {
	return InterruptTimer0 + Interrupt(t.index())
}

// reconfigure recomputes period and phase. GPU clocked timers need the
// GPU to be synchronized first.
func (t *Timer) reconfigure(shared *SharedState, gpu *Gpu) {
	switch t.clock() {
	case clockSys:
		t.period = FracCyclesFromCycles(1)
		t.phase = 0
	case clockSysDiv8:
		t.period = FracCyclesFromCycles(8)
		t.phase = 0
	case clockGpuDot:
		t.period = gpu.DotclockPeriod()
		t.phase = gpu.DotclockPhase()
	case clockGpuHsync:
		t.period = gpu.HsyncPeriod()
		t.phase = gpu.HsyncPhase()
	}
	if t.phase >= t.period {
		t.phase = 0
	}

	t.predictNextSync(shared)
}

// ticksToTarget returns the number of ticks until the counter next
// reaches the target.
func (t *Timer) ticksToTarget() uint64 {
	c := uint64(t.counter)
	target := uint64(t.target)

	switch {
	case c < target:
		return target - c
	case c == target && t.targetWrap:
		return target + 1
	default:
		// Through 0xffff and back to 0
		return counterWrap - c + target
	}
}

// ticksToOverflow returns the number of ticks until the counter wraps
// from 0xffff to 0, or 0 if it never does.
func (t *Timer) ticksToOverflow() uint64 {
	if t.targetWrap && t.counter <= t.target && t.target != 0xffff {
		return 0
	}
	return counterWrap - uint64(t.counter)
}

// advance moves the counter forward by ticks and returns which events
// were crossed.
func (t *Timer) advance(ticks uint64) (target, overflow bool) {
	if ticks == 0 {
		return false, false
	}

	toTarget := t.ticksToTarget()
	toOverflow := t.ticksToOverflow()
	target = ticks >= toTarget
	overflow = toOverflow != 0 && ticks >= toOverflow

	c := uint64(t.counter)
	if !t.targetWrap {
		c = (c + ticks) % counterWrap
	} else {
		period := uint64(t.target) + 1
		if c > uint64(t.target) {
			// Above the target the counter runs up to 0xffff first
			if ticks < toOverflow {
				c += ticks
				ticks = 0
			} else {
				ticks -= toOverflow
				c = 0
			}
		}
		c = (c + ticks) % period
	}
	t.counter = uint16(c)

	return target, overflow
}

// Sync advances the counter to the current date.
func (t *Timer) Sync(shared *SharedState) {
	delta := shared.TimeKeeper().Sync(t.instance)

	ticks := FracCyclesFromCycles(delta).Add(t.phase)
	count := ticks.FP() / t.period.FP()
	t.phase = FracCyclesFromFP(ticks.FP() % t.period.FP())

	target, overflow := t.advance(count)
	if target {
		t.targetReached = true
	}
	if overflow {
		t.overflowReached = true
	}

	if (target && t.targetIrq) || (overflow && t.wrapIrq) {
		shared.Trace("timers", t.instance.String(), TraceBool(true))
		shared.IRQ().Assert(t.interrupt())
	}

	t.predictNextSync(shared)
}

// predictNextSync schedules a sync at the next interrupt condition.
func (t *Timer) predictNextSync(shared *SharedState) {
	tk := shared.TimeKeeper()

	if !t.irqEnabled() {
		tk.NoSyncNeeded(t.instance)
		return
	}

	var ticks uint64
	if t.targetIrq {
		ticks = t.ticksToTarget()
	}
	if t.wrapIrq {
		if o := t.ticksToOverflow(); o != 0 && (ticks == 0 || o < ticks) {
			ticks = o
		}
	}
	if ticks == 0 {
		tk.NoSyncNeeded(t.instance)
		return
	}

	// phase is always below period so this never underflows
	remaining := FracCyclesFromFP(ticks*t.period.FP() - t.phase.FP())
	delta := remaining.Ceil()
	if delta == 0 {
		delta = 1
	}
	tk.SetNextSyncDelta(t.instance, delta)
}

// NeedsGpu reports whether the timer is clocked by the GPU.
func (t *Timer) NeedsGpu() bool {
	return t.clock().needsGpu()
}

// Mode returns the mode register. Reading it clears the reached flags.
func (t *Timer) Mode() uint16 {
	var r uint16

	r |= uint16(boolByte(!t.freeRun))
	r |= uint16(t.syncMode) << 1
	r |= uint16(boolByte(t.targetWrap)) << 3
	r |= uint16(boolByte(t.targetIrq)) << 4
	r |= uint16(boolByte(t.wrapIrq)) << 5
	r |= uint16(boolByte(t.repeatIrq)) << 6
	r |= uint16(boolByte(t.toggleIrq)) << 7
	r |= uint16(t.clockSource) << 8
	// Interrupt request, active low. Pulsed interrupts are never seen
	// low by the CPU.
	r |= 1 << 10
	r |= uint16(boolByte(t.targetReached)) << 11
	r |= uint16(boolByte(t.overflowReached)) << 12

	t.targetReached = false
	t.overflowReached = false

	return r
}

// SetMode writes the mode register, which also resets the counter.
func (t *Timer) SetMode(val uint16) {
	t.freeRun = val&1 == 0
	t.syncMode = uint8((val >> 1) & 3)
	t.targetWrap = val&(1<<3) != 0
	t.targetIrq = val&(1<<4) != 0
	t.wrapIrq = val&(1<<5) != 0
	t.repeatIrq = val&(1<<6) != 0
	t.toggleIrq = val&(1<<7) != 0
	t.clockSource = uint8((val >> 8) & 3)

	t.counter = 0

	if !t.freeRun {
		panicf("%s: sync mode %d not supported (mode %04x)", t.instance, t.syncMode, val)
	}
	if t.irqEnabled() && !t.repeatIrq {
		panicf("%s: one-shot interrupts not supported (mode %04x)", t.instance, val)
	}
	if t.irqEnabled() && t.toggleIrq {
		panicf("%s: toggled interrupts not supported (mode %04x)", t.instance, val)
	}
}

func (t *Timer) Counter() uint16 {
	return t.counter
}

func (t *Timer) SetCounter(val uint16) {
	t.counter = val
}

func (t *Timer) Target() uint16 {
	return t.target
}

func (t *Timer) SetTarget(val uint16) {
	t.target = val
}

// Timers are the three root counters. Timer 0 can count GPU dots, timer 1
// GPU lines and timer 2 the system clock divided by 8.
type Timers struct {
	timers [3]Timer
}

func NewTimers() *Timers {
	return &Timers{
		timers: [3]Timer{
			newTimer(PeripheralTimer0),
			newTimer(PeripheralTimer1),
			newTimer(PeripheralTimer2),
		},
	}
}

// Timer returns timer n.
func (ts *Timers) Timer(n int) *Timer {
	return &ts.timers[n]
}

func (ts *Timers) instance(offset uint32) *Timer {
	n := offset >> 4
	if n > 2 {
		panicf("unhandled timer access at offset %02x", offset)
	}
	return &ts.timers[n]
}

// Load reads a timer register. offset is relative to 0x1f801100. The GPU
// is synchronized before a timer it clocks.
func (ts *Timers) Load(shared *SharedState, gpu *Gpu, width AccessWidth, offset uint32) uint32 {
	if width == Byte {
		panicf("unhandled %s timer load at offset %02x", width, offset)
	}

	t := ts.instance(offset)
	if t.NeedsGpu() {
		gpu.Sync(shared)
	}
	t.Sync(shared)

	switch offset & 0xf {
	case 0:
		return uint32(t.Counter())
	case 4:
		return uint32(t.Mode())
	case 8:
		return uint32(t.Target())
	}
	panicf("unhandled timer register at offset %02x", offset)
	return 0
}

// Store writes a timer register. The GPU is synchronized first when the
// timer is clocked by it.
func (ts *Timers) Store(shared *SharedState, gpu *Gpu, width AccessWidth, offset uint32, val uint32) {
	if width == Byte {
		panicf("unhandled %s timer store at offset %02x: %08x", width, offset, val)
	}

	t := ts.instance(offset)
	t.Sync(shared)

	v := uint16(val)
	switch offset & 0xf {
	case 0:
		t.SetCounter(v)
	case 4:
		t.SetMode(v)
	case 8:
		t.SetTarget(v)
	default:
		panicf("unhandled timer register at offset %02x: %08x", offset, val)
	}

	if t.NeedsGpu() {
		gpu.Sync(shared)
	}
	t.reconfigure(shared, gpu)
}

// Sync synchronizes the timers that asked for it.
func (ts *Timers) Sync(shared *SharedState) {
	tk := shared.TimeKeeper()
	for i := range ts.timers {
		t := &ts.timers[i]
		if tk.NeedsSync(t.instance) {
			t.Sync(shared)
		}
	}
}

// VideoTimingsChanged reconfigures the GPU clocked timers. The GPU must
// be synchronized.
func (ts *Timers) VideoTimingsChanged(shared *SharedState, gpu *Gpu) {
	for i := range ts.timers {
		t := &ts.timers[i]
		if t.NeedsGpu() {
			t.Sync(shared)
			t.reconfigure(shared, gpu)
		}
	}
}
