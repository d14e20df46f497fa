package emu

import "fmt"

// AccessWidth is the size of a CPU or DMA memory access.
type AccessWidth uint8

const (
	Byte     AccessWidth = 1
	Halfword AccessWidth = 2
	Word     AccessWidth = 4
)

func (w AccessWidth) String() string {
	switch w {
	case Byte:
		return "byte"
	case Halfword:
		return "halfword"
	case Word:
		return "word"
	}
	return fmt.Sprintf("width(%d)", uint8(w))
}

// addrRange is a window of the physical address space.
type addrRange struct {
	start  uint32
	length uint32
}

// contains returns the offset of addr within the range and whether addr
// falls inside it.
func (r addrRange) contains(addr uint32) (uint32, bool) {
	if addr >= r.start && addr < r.start+r.length {
		return addr - r.start, true
	}
	return 0, false
}

// panicf aborts emulation on a condition the emulated software should never
// produce or that the core does not implement.
func panicf(format string, args ...any) {
	panic(fmt.Sprintf(format, args...))
}

// boolByte converts a bool to a uint8 (0 or 1).
func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
