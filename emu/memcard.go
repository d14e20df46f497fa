package emu

import (
	"errors"
	"fmt"
	"log/slog"
)

const (
	MemCardFrameSize  = 128
	MemCardFrameCount = 1024
	MemCardSize       = MemCardFrameSize * MemCardFrameCount
)

// ErrMemCardSize is returned when loading an image of the wrong size.
var ErrMemCardSize = errors.New("invalid memory card size")

// End of command status bytes
const (
	memCardGood        = 'G'
	memCardBadChecksum = 'N'
	memCardBadSector   = 0xff
)

// Byte positions in a transaction
const (
	mcSeqReadData  = 10
	mcSeqReadCsum  = mcSeqReadData + MemCardFrameSize
	mcSeqReadEnd   = mcSeqReadCsum + 1
	mcSeqWriteData = 6
	mcSeqWriteCsum = mcSeqWriteData + MemCardFrameSize
	mcSeqWriteAck  = mcSeqWriteCsum + 1
	mcSeqWriteEnd  = mcSeqWriteAck + 2
)

// MemCard is a 128KiB memory card made of 1024 frames of 128 bytes.
type MemCard struct {
	data [MemCardSize]byte

	seq    uint16
	active bool
	// 'R' or 'W'
	command uint8
	frame   uint16
	csum    uint8
	// Previous command byte, echoed back during writes
	prev   uint8
	buffer [MemCardFrameSize]byte
	// Directory unread since power on, reported in the flag byte
	fresh bool
	dirty bool
}

// NewMemCard returns a formatted card.
func NewMemCard() *MemCard {
	m := &MemCard{active: true, fresh: true}
	m.Format()
	return m
}

func frameChecksum(f []byte) uint8 {
	var c uint8
	for _, b := range f[:MemCardFrameSize-1] {
		c ^= b
	}
	return c
}

// Format writes an empty directory.
func (m *MemCard) Format() {
	clear(m.data[:])

	header := m.data[:MemCardFrameSize]
	header[0], header[1] = 'M', 'C'
	header[127] = frameChecksum(header)

	for i := 1; i < 16; i++ {
		f := m.data[i*MemCardFrameSize : (i+1)*MemCardFrameSize]
		// Free block, no next block
		f[0] = 0xa0
		f[8], f[9] = 0xff, 0xff
		f[127] = frameChecksum(f)
	}

	for i := 16; i < 36; i++ {
		f := m.data[i*MemCardFrameSize : (i+1)*MemCardFrameSize]
		// Empty broken sector list
		f[0], f[1], f[2], f[3] = 0xff, 0xff, 0xff, 0xff
		f[8], f[9] = 0xff, 0xff
		f[127] = frameChecksum(f)
	}

	// Write test frame
	copy(m.data[63*MemCardFrameSize:], header)
	m.dirty = true
}

// Select starts a new transaction.
func (m *MemCard) Select() {
	m.active = true
	m.seq = 0
}

// SendCommand handles one byte of the transaction.
func (m *MemCard) SendCommand(cmd uint8) (uint8, bool) {
	if !m.active {
		return 0xff, false
	}

	resp, dsr := m.handleCommand(cmd)
	m.prev = cmd
	m.active = dsr
	m.seq++
	return resp, dsr
}

func (m *MemCard) flag() uint8 {
	if m.fresh {
		return 0x08
	}
	return 0x00
}

func (m *MemCard) validFrame() bool {
	return m.frame < MemCardFrameCount
}

func (m *MemCard) handleCommand(cmd uint8) (uint8, bool) {
	switch m.seq {
	case 0:
		return 0xff, cmd == 0x81
	case 1:
		m.command = cmd
		if cmd != 'R' && cmd != 'W' {
			slog.Debug("unsupported memory card command", "cmd", fmt.Sprintf("%02x", cmd))
			return m.flag(), false
		}
		return m.flag(), true
	case 2:
		return 0x5a, true
	case 3:
		return 0x5d, true
	case 4:
		m.frame = uint16(cmd) << 8
		m.csum = cmd
		return 0x00, true
	case 5:
		m.frame |= uint16(cmd)
		m.csum ^= cmd
		return m.prev, true
	}

	if m.command == 'R' {
		return m.handleRead()
	}
	return m.handleWrite(cmd)
}

func (m *MemCard) handleRead() (uint8, bool) {
	switch {
	case m.seq == 6:
		return 0x5c, true
	case m.seq == 7:
		return 0x5d, true
	case m.seq == 8:
		if !m.validFrame() {
			return 0xff, true
		}
		return uint8(m.frame >> 8), true
	case m.seq == 9:
		if !m.validFrame() {
			return 0xff, false
		}
		m.fresh = false
		return uint8(m.frame), true
	case m.seq < mcSeqReadCsum:
		b := m.data[int(m.frame)*MemCardFrameSize+int(m.seq-mcSeqReadData)]
		m.csum ^= b
		return b, true
	case m.seq == mcSeqReadCsum:
		return m.csum, true
	case m.seq == mcSeqReadEnd:
		return memCardGood, false
	}
	return 0xff, false
}

func (m *MemCard) handleWrite(cmd uint8) (uint8, bool) {
	switch {
	case m.seq < mcSeqWriteCsum:
		m.buffer[m.seq-mcSeqWriteData] = cmd
		m.csum ^= cmd
		return m.prev, true
	case m.seq == mcSeqWriteCsum:
		// Stash the received checksum in csum: zero means it matched
		m.csum ^= cmd
		return m.prev, true
	case m.seq == mcSeqWriteAck:
		return 0x5c, true
	case m.seq == mcSeqWriteAck+1:
		return 0x5d, true
	case m.seq == mcSeqWriteEnd:
		switch {
		case !m.validFrame():
			return memCardBadSector, false
		case m.csum != 0:
			slog.Warn("memory card write checksum mismatch", "frame", m.frame)
			return memCardBadChecksum, false
		}
		copy(m.data[int(m.frame)*MemCardFrameSize:], m.buffer[:])
		m.fresh = false
		m.dirty = true
		return memCardGood, false
	}
	return 0xff, false
}

// Data returns the card contents.
func (m *MemCard) Data() []byte {
	return m.data[:]
}

// Load replaces the card contents.
func (m *MemCard) Load(data []byte) error {
	if len(data) != MemCardSize {
		return fmt.Errorf("%w: %d bytes", ErrMemCardSize, len(data))
	}
	copy(m.data[:], data)
	m.dirty = false
	return nil
}

// Dirty reports whether the card was written since the last Load or
// ClearDirty.
func (m *MemCard) Dirty() bool {
	return m.dirty
}

func (m *MemCard) ClearDirty() {
	m.dirty = false
}
