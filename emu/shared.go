package emu

// Counter is a wrapping event counter.
type Counter uint32

func (c *Counter) Increment() {
	*c++
}

func (c *Counter) Reset() {
	*c = 0
}

func (c Counter) Get() uint32 {
	return uint32(c)
}

// Counters tracks events frontends and tests use for pacing.
type Counters struct {
	Frame           Counter // Incremented at the end of each VBlank
	FramebufferSwap Counter // Incremented on every display buffer change
	CPUInterrupt    Counter // Incremented when the CPU takes an interrupt
}

// SharedState is the only state shared between peripherals. It is passed
// into every Sync, Load and Store call and never retained.
type SharedState struct {
	tk       TimeKeeper
	irq      InterruptState
	counters Counters
	tracer   Tracer
}

// NewSharedState creates the shared state. A nil tracer disables tracing.
func NewSharedState(tracer Tracer) *SharedState {
	if tracer == nil {
		tracer = NopTracer{}
	}
	return &SharedState{tracer: tracer}
}

func (s *SharedState) TimeKeeper() *TimeKeeper {
	return &s.tk
}

func (s *SharedState) IRQ() *InterruptState {
	return &s.irq
}

func (s *SharedState) Counters() *Counters {
	return &s.counters
}

// Trace records the value of a variable of module at the current date.
func (s *SharedState) Trace(module, name string, v TraceValue) {
	s.tracer.Trace(s.tk.now, module, name, v)
}
