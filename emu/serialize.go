package emu

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"sync"
)

// Save state format constants
const (
	stateVersion    = 1
	stateMagic      = "eMPSXState\x00\x00"
	stateHeaderSize = 22 // magic(12) + version(2) + discCRC(4) + dataCRC(4)
)

var (
	ErrStateSize    = errors.New("save state too short")
	ErrStateMagic   = errors.New("invalid save state magic")
	ErrStateVersion = errors.New("unsupported save state version")
	ErrStateDisc    = errors.New("save state is for a different disc")
	ErrStateCRC     = errors.New("save state data is corrupted")
)

// stateWriter appends little-endian values at a running offset. With a
// nil buffer it only counts bytes.
type stateWriter struct {
	buf []byte
	off int
	tmp [8]byte
}

func (w *stateWriter) bytes(b []byte) {
	if w.buf != nil {
		copy(w.buf[w.off:], b)
	}
	w.off += len(b)
}

func (w *stateWriter) u8(v uint8) {
	w.tmp[0] = v
	w.bytes(w.tmp[:1])
}

func (w *stateWriter) bool(v bool) {
	w.u8(boolByte(v))
}

func (w *stateWriter) u16(v uint16) {
	binary.LittleEndian.PutUint16(w.tmp[:], v)
	w.bytes(w.tmp[:2])
}

func (w *stateWriter) u32(v uint32) {
	binary.LittleEndian.PutUint32(w.tmp[:], v)
	w.bytes(w.tmp[:4])
}

func (w *stateWriter) u64(v uint64) {
	binary.LittleEndian.PutUint64(w.tmp[:], v)
	w.bytes(w.tmp[:8])
}

func (w *stateWriter) u16s(vs []uint16) {
	for _, v := range vs {
		w.u16(v)
	}
}

// stateReader is the counterpart of stateWriter. The caller checks the
// buffer size beforehand.
type stateReader struct {
	buf []byte
	off int
}

func (r *stateReader) bytes(dst []byte) {
	copy(dst, r.buf[r.off:r.off+len(dst)])
	r.off += len(dst)
}

func (r *stateReader) u8() uint8 {
	v := r.buf[r.off]
	r.off++
	return v
}

func (r *stateReader) bool() bool {
	return r.u8() != 0
}

func (r *stateReader) u16() uint16 {
	v := binary.LittleEndian.Uint16(r.buf[r.off:])
	r.off += 2
	return v
}

func (r *stateReader) u32() uint32 {
	v := binary.LittleEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v
}

func (r *stateReader) u64() uint64 {
	v := binary.LittleEndian.Uint64(r.buf[r.off:])
	r.off += 8
	return v
}

func (r *stateReader) u16s(dst []uint16) {
	for i := range dst {
		dst[i] = r.u16()
	}
}

// stateBodySize is the size of the component blocks. The layout does not
// depend on the console configuration so it is measured once on a blank
// machine.
var stateBodySize = sync.OnceValue(func() int {
	e := &Emulator{
		shared: NewSharedState(nil),
		ic: NewInterconnect(&BIOS{}, NewGpu(NTSC, nil), NewCdRom(nil),
			NewPadMemCard(PadDisconnected, PadDisconnected, nil, nil)),
	}
	var w stateWriter
	e.writeState(&w)
	return w.off
})

// SerializeSize returns the total size in bytes needed for a save state.
func SerializeSize() int {
	return stateHeaderSize + stateBodySize()
}

// SerializeSize returns the total size in bytes needed for a save state.
func (e *Emulator) SerializeSize() int {
	return SerializeSize()
}

// Serialize creates a save state and returns it as a byte slice.
func (e *Emulator) Serialize() ([]byte, error) {
	data := make([]byte, SerializeSize())

	// Write header
	copy(data[0:12], stateMagic)
	binary.LittleEndian.PutUint16(data[12:14], stateVersion)
	binary.LittleEndian.PutUint32(data[14:18], e.discCRC)

	w := stateWriter{buf: data, off: stateHeaderSize}
	e.writeState(&w)
	if w.off != len(data) {
		return nil, fmt.Errorf("save state layout mismatch: wrote %d of %d bytes", w.off, len(data))
	}

	// Calculate and write data CRC32 (over everything after header)
	dataCRC := crc32.ChecksumIEEE(data[stateHeaderSize:])
	binary.LittleEndian.PutUint32(data[18:22], dataCRC)

	return data, nil
}

// Deserialize restores emulator state from a save state byte slice.
// Region and controller types are NOT restored.
func (e *Emulator) Deserialize(data []byte) error {
	if err := e.VerifyState(data); err != nil {
		return err
	}

	r := stateReader{buf: data, off: stateHeaderSize}
	e.readState(&r)
	return nil
}

// VerifyState checks if a save state is valid without loading it.
func (e *Emulator) VerifyState(data []byte) error {
	if len(data) < SerializeSize() {
		return ErrStateSize
	}

	if string(data[0:12]) != stateMagic {
		return ErrStateMagic
	}

	version := binary.LittleEndian.Uint16(data[12:14])
	if version > stateVersion {
		return fmt.Errorf("version %d: %w", version, ErrStateVersion)
	}

	discCRC := binary.LittleEndian.Uint32(data[14:18])
	if discCRC != e.discCRC {
		return fmt.Errorf("disc CRC %08x, loaded %08x: %w", discCRC, e.discCRC, ErrStateDisc)
	}

	expectedCRC := binary.LittleEndian.Uint32(data[18:22])
	actualCRC := crc32.ChecksumIEEE(data[stateHeaderSize:SerializeSize()])
	if expectedCRC != actualCRC {
		return ErrStateCRC
	}

	return nil
}

// writeState writes every component block in a fixed order.
func (e *Emulator) writeState(w *stateWriter) {
	e.shared.serialize(w)
	e.ic.serialize(w)
	e.ic.gpu.serialize(w)
	if e.vram != nil {
		w.u16s(e.vram.pixels[:])
	} else {
		w.bytes(make([]byte, 2*vramWidth*vramHeight))
	}
	e.ic.cdrom.serialize(w)
	e.ic.padMemCard.serialize(w)
}

func (e *Emulator) readState(r *stateReader) {
	e.shared.deserialize(r)
	e.ic.deserialize(r)
	e.ic.gpu.deserialize(r)
	if e.vram != nil {
		r.u16s(e.vram.pixels[:])
	} else {
		r.off += 2 * vramWidth * vramHeight
	}
	e.ic.cdrom.deserialize(r)
	e.ic.padMemCard.deserialize(r)
}

func (s *SharedState) serialize(w *stateWriter) {
	tk := &s.tk
	w.u64(tk.now)
	for i := range tk.sheets {
		w.u64(tk.sheets[i].lastSync)
		w.u64(tk.sheets[i].nextSync)
	}
	w.u64(tk.nextSync)

	w.u16(s.irq.status)
	w.u16(s.irq.mask)

	w.u32(uint32(s.counters.Frame))
	w.u32(uint32(s.counters.FramebufferSwap))
	w.u32(uint32(s.counters.CPUInterrupt))
}

func (s *SharedState) deserialize(r *stateReader) {
	tk := &s.tk
	tk.now = r.u64()
	for i := range tk.sheets {
		tk.sheets[i].lastSync = r.u64()
		tk.sheets[i].nextSync = r.u64()
	}
	tk.nextSync = r.u64()

	s.irq.status = r.u16()
	s.irq.mask = r.u16()

	s.counters.Frame = Counter(r.u32())
	s.counters.FramebufferSwap = Counter(r.u32())
	s.counters.CPUInterrupt = Counter(r.u32())
}
