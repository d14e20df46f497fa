package emu

// SPU register indices, in halfwords from 0x1f801c00. The first 0xc0
// halfwords are 24 voices of 8 registers.
const (
	spuVoiceRegisters = 0xc0

	spuVoiceOnLow         = 0xc4
	spuVoiceOnHigh        = 0xc5
	spuVoiceOffLow        = 0xc6
	spuVoiceOffHigh       = 0xc7
	spuVoiceStatusLow     = 0xce
	spuVoiceStatusHigh    = 0xcf
	spuTransferStart      = 0xd3
	spuTransferFifo       = 0xd4
	spuControl            = 0xd5
	spuTransferControl    = 0xd6
	spuStatus             = 0xd7
	spuCurrentVolumeLeft  = 0xdc
	spuCurrentVolumeRight = 0xdd

	// SPU RAM is 512KiB
	spuRAMHalfwords = 256 * 1024
)

// spuUnknownRegister reports the holes of the register map.
func spuUnknownRegister(index uint32) bool {
	switch index {
	case 0xd0, 0xd2, 0xde, 0xdf:
		return true
	}
	return false
}

// Spu models the SPU register file and its RAM. Most registers are only
// latched by the hardware so they are kept as shadow values. No audio is
// produced.
type Spu struct {
	shadow [0x100]uint16
	ram    [spuRAMHalfwords]uint16
	// Transfer pointer in halfwords
	ramIndex uint32
}

func NewSpu() *Spu {
	s := &Spu{}
	for i := range s.ram {
		s.ram[i] = 0xbad
	}
	return s
}

// Load reads a register. offset is relative to 0x1f801c00.
func (s *Spu) Load(width AccessWidth, offset uint32) uint32 {
	if width != Halfword {
		panicf("unhandled %s SPU load at offset %03x", width, offset)
	}

	index := offset >> 1
	if index >= uint32(len(s.shadow)) || spuUnknownRegister(index) {
		panicf("unhandled SPU load at offset %03x", offset)
	}

	if index == spuStatus {
		return uint32(s.status())
	}
	return uint32(s.shadow[index])
}

// Store writes a register.
func (s *Spu) Store(width AccessWidth, offset uint32, val uint32) {
	if width != Halfword {
		panicf("unhandled %s SPU store at offset %03x: %08x", width, offset, val)
	}

	index := offset >> 1
	v := uint16(val)

	if index >= uint32(len(s.shadow)) || spuUnknownRegister(index) {
		panicf("unhandled SPU store at offset %03x: %04x", offset, v)
	}

	if index >= spuVoiceRegisters {
		switch index {
		case spuVoiceOnLow:
			s.shadow[spuVoiceStatusLow] |= v
		case spuVoiceOnHigh:
			s.shadow[spuVoiceStatusHigh] |= v
		case spuVoiceOffLow:
			s.shadow[spuVoiceStatusLow] &^= v
		case spuVoiceOffHigh:
			s.shadow[spuVoiceStatusHigh] &^= v
		case spuTransferStart:
			// In units of 8 bytes
			s.ramIndex = (uint32(v) << 2) & (spuRAMHalfwords - 1)
		case spuTransferFifo:
			s.fifoWrite(v)
		case spuControl:
			s.setControl(v)
		case spuTransferControl:
			s.setTransferControl(v)
		case spuStatus, spuCurrentVolumeLeft, spuCurrentVolumeRight:
			panicf("SPU store to read-only register %03x: %04x", offset, v)
		}
	}

	s.shadow[index] = v
}

func (s *Spu) control() uint16 {
	return s.shadow[spuControl]
}

func (s *Spu) setControl(ctrl uint16) {
	if ctrl&0x3f4a != 0 {
		panicf("unhandled SPU control %04x", ctrl)
	}
}

func (s *Spu) status() uint16 {
	return s.control() & 0x3f
}

// setTransferControl only accepts sequential RAM access.
func (s *Spu) setTransferControl(val uint16) {
	if val != 4 {
		panicf("unhandled SPU RAM access pattern %x", val)
	}
}

func (s *Spu) fifoWrite(val uint16) {
	s.ram[s.ramIndex] = val
	s.ramIndex = (s.ramIndex + 1) & (spuRAMHalfwords - 1)
}

func (s *Spu) fifoRead() uint16 {
	v := s.ram[s.ramIndex]
	s.ramIndex = (s.ramIndex + 1) & (spuRAMHalfwords - 1)
	return v
}

// DmaWriteWord pushes two halfwords to the RAM transfer FIFO.
func (s *Spu) DmaWriteWord(w uint32) {
	s.fifoWrite(uint16(w))
	s.fifoWrite(uint16(w >> 16))
}

// DmaReadWord reads two halfwords at the transfer pointer.
func (s *Spu) DmaReadWord() uint32 {
	lo := s.fifoRead()
	hi := s.fifoRead()
	return uint32(lo) | uint32(hi)<<16
}

// RAM returns the sound RAM.
func (s *Spu) RAM() []uint16 {
	return s.ram[:]
}
