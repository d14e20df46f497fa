package emu

// Bus is the view of the Interconnect the CPU gets. Every access carries
// the shared state so that peripherals can synchronize themselves.
type Bus interface {
	Load(shared *SharedState, width AccessWidth, addr uint32) uint32
	Store(shared *SharedState, width AccessWidth, addr uint32, val uint32)
}

var _ Bus = (*Interconnect)(nil)

// CPU executes instructions until the clock reaches a deadline. The
// interpreter is supplied by the embedder; it must Tick the TimeKeeper
// for every cycle it consumes and return as soon as the clock reaches
// until or a peripheral requested an early sync.
type CPU interface {
	Reset()
	Run(bus Bus, shared *SharedState, until Cycles)
}

// IdleCPU is a CPU stuck waiting for an interrupt. It only advances the
// clock, which keeps the peripherals and the frame pacing running.
type IdleCPU struct{}

var _ CPU = IdleCPU{}

func (IdleCPU) Reset() {}

func (IdleCPU) Run(_ Bus, shared *SharedState, until Cycles) {
	tk := shared.TimeKeeper()
	if now := tk.Now(); until > now {
		tk.Tick(until - now)
	}
}
