package emu

// Fifo is the 16-byte parameter and response queue of the CD-ROM
// controller. Indices are 4 bits plus a carry bit, so Len wraps at 32 like
// the hardware does on overflow.
type Fifo struct {
	buffer   [16]uint8
	writeIdx uint8
	readIdx  uint8
}

// FifoFromBytes returns a Fifo holding b.
func FifoFromBytes(b ...uint8) Fifo {
	var f Fifo
	for _, v := range b {
		f.Push(v)
	}
	return f
}

// Empty is true when both indices point to the same cell with the same
// carry.
func (f *Fifo) Empty() bool {
	return f.writeIdx == f.readIdx
}

// Full is true when both indices point to the same cell with a different
// carry.
func (f *Fifo) Full() bool {
	return f.writeIdx == f.readIdx^0x10
}

func (f *Fifo) Clear() {
	f.writeIdx = 0
	f.readIdx = 0
	f.buffer = [16]uint8{}
}

func (f *Fifo) Len() uint8 {
	return (f.writeIdx - f.readIdx) & 0x1f
}

func (f *Fifo) Push(v uint8) {
	f.buffer[f.writeIdx&0xf] = v
	f.writeIdx = (f.writeIdx + 1) & 0x1f
}

func (f *Fifo) Pop() uint8 {
	v := f.buffer[f.readIdx&0xf]
	f.readIdx = (f.readIdx + 1) & 0x1f
	return v
}
