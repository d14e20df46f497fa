package emu

import "encoding/binary"

const (
	ramSize        = 2 * 1024 * 1024
	scratchpadSize = 1024
)

// loadLE reads a little-endian value of the given width at offset.
func loadLE(buf []byte, width AccessWidth, offset uint32) uint32 {
	switch width {
	case Byte:
		return uint32(buf[offset])
	case Halfword:
		return uint32(binary.LittleEndian.Uint16(buf[offset:]))
	default:
		return binary.LittleEndian.Uint32(buf[offset:])
	}
}

// storeLE writes a little-endian value of the given width at offset.
func storeLE(buf []byte, width AccessWidth, offset uint32, val uint32) {
	switch width {
	case Byte:
		buf[offset] = uint8(val)
	case Halfword:
		binary.LittleEndian.PutUint16(buf[offset:], uint16(val))
	default:
		binary.LittleEndian.PutUint32(buf[offset:], val)
	}
}

// RAM is the 2MB main memory. It is mirrored four times over the first
// 8MB of the address space.
type RAM struct {
	data [ramSize]byte
}

// NewRAM returns RAM filled with garbage so reads of uninitialized memory
// stand out.
func NewRAM() *RAM {
	r := &RAM{}
	for i := range r.data {
		r.data[i] = 0xca
	}
	return r
}

func (r *RAM) Load(width AccessWidth, offset uint32) uint32 {
	return loadLE(r.data[:], width, offset&(ramSize-1))
}

func (r *RAM) Store(width AccessWidth, offset uint32, val uint32) {
	storeLE(r.data[:], width, offset&(ramSize-1), val)
}

// ScratchPad is the 1KB data cache used as fast RAM.
type ScratchPad struct {
	data [scratchpadSize]byte
}

func NewScratchPad() *ScratchPad {
	s := &ScratchPad{}
	for i := range s.data {
		s.data[i] = 0xdb
	}
	return s
}

func (s *ScratchPad) Load(width AccessWidth, offset uint32) uint32 {
	return loadLE(s.data[:], width, offset)
}

func (s *ScratchPad) Store(width AccessWidth, offset uint32, val uint32) {
	storeLE(s.data[:], width, offset, val)
}
