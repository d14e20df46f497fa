package emu

// fracBits is the number of fractional bits carried by FracCycles.
const fracBits = 16

// FracCycles is a cycle count with a 16-bit fractional part. It is used to
// convert durations between clock domains (CPU, GPU dot clock, hsync)
// without accumulating rounding errors.
type FracCycles uint64

// FracCyclesFromFP wraps a raw fixed-point value.
func FracCyclesFromFP(v uint64) FracCycles {
	return FracCycles(v)
}

// FracCyclesFromF32 converts a floating point cycle count.
func FracCyclesFromF32(v float32) FracCycles {
	precision := float32(uint32(1) << fracBits)
	return FracCycles(uint64(v * precision))
}

// FracCyclesFromCycles converts a whole number of cycles.
func FracCyclesFromCycles(c Cycles) FracCycles {
	return FracCycles(c << fracBits)
}

// FP returns the raw fixed-point value.
func (f FracCycles) FP() uint64 {
	return uint64(f)
}

func (f FracCycles) Add(v FracCycles) FracCycles {
	return f + v
}

func (f FracCycles) Multiply(m FracCycles) FracCycles {
	return FracCycles((uint64(f) * uint64(m)) >> fracBits)
}

func (f FracCycles) Divide(d FracCycles) FracCycles {
	return FracCycles((uint64(f) << fracBits) / uint64(d))
}

// Ceil returns the smallest whole cycle count not below f.
func (f FracCycles) Ceil() Cycles {
	const mask = (1 << fracBits) - 1
	return Cycles((uint64(f) + mask) >> fracBits)
}
