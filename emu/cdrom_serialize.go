package emu

import "github.com/user-none/empsx/disc"

// serialize writes the controller state. The disc itself is not part of
// the state; VerifyState checks its CRC instead.
func (c *CdRom) serialize(w *stateWriter) {
	cs := &c.commandState
	w.u8(uint8(cs.kind))
	w.u32(cs.rxDelay)
	w.u32(cs.irqDelay)
	w.u8(uint8(cs.code))
	cs.response.serialize(w)

	w.bool(c.readState.reading)
	w.u32(c.readState.delay)

	w.u8(c.index)
	c.params.serialize(w)
	c.response.serialize(w)
	w.u8(c.irqMask)
	w.u8(c.irqFlags)

	w.u8(uint8(c.onAck))
	w.u8(c.queuedCommand)
	c.queuedParams.serialize(w)

	serializeMsf(w, c.seekTarget)
	w.bool(c.seekTargetPending)
	serializeMsf(w, c.position)

	w.bool(c.doubleSpeed)
	w.bool(c.xaADPCMToSPU)
	w.bool(c.readWholeSector)
	w.bool(c.sectorSizeOverride)
	w.bool(c.cddaMode)
	w.bool(c.autopause)
	w.bool(c.reportInterrupts)
	w.bool(c.filterEnabled)
	w.u8(c.filterFile)
	w.u8(c.filterChannel)

	w.bytes(c.rxBuffer[:])
	w.bool(c.rxActive)
	w.u16(c.rxIndex)
	w.u16(c.rxLen)

	w.u8(c.mixer.LeftToLeft)
	w.u8(c.mixer.LeftToRight)
	w.u8(c.mixer.RightToLeft)
	w.u8(c.mixer.RightToRight)

	w.bool(c.async.pending)
	w.u8(uint8(c.async.code))
	c.async.response.serialize(w)
}

func (c *CdRom) deserialize(r *stateReader) {
	cs := &c.commandState
	cs.kind = cdCommandKind(r.u8())
	cs.rxDelay = r.u32()
	cs.irqDelay = r.u32()
	cs.code = IrqCode(r.u8())
	cs.response.deserialize(r)

	c.readState.reading = r.bool()
	c.readState.delay = r.u32()

	c.index = r.u8()
	c.params.deserialize(r)
	c.response.deserialize(r)
	c.irqMask = r.u8()
	c.irqFlags = r.u8()

	c.onAck = ackHandler(r.u8())
	c.queuedCommand = r.u8()
	c.queuedParams.deserialize(r)

	c.seekTarget = deserializeMsf(r)
	c.seekTargetPending = r.bool()
	c.position = deserializeMsf(r)

	c.doubleSpeed = r.bool()
	c.xaADPCMToSPU = r.bool()
	c.readWholeSector = r.bool()
	c.sectorSizeOverride = r.bool()
	c.cddaMode = r.bool()
	c.autopause = r.bool()
	c.reportInterrupts = r.bool()
	c.filterEnabled = r.bool()
	c.filterFile = r.u8()
	c.filterChannel = r.u8()

	r.bytes(c.rxBuffer[:])
	c.rxActive = r.bool()
	c.rxIndex = r.u16()
	c.rxLen = r.u16()

	c.mixer.LeftToLeft = r.u8()
	c.mixer.LeftToRight = r.u8()
	c.mixer.RightToLeft = r.u8()
	c.mixer.RightToRight = r.u8()

	c.async.pending = r.bool()
	c.async.code = IrqCode(r.u8())
	c.async.response.deserialize(r)
}

func (f *Fifo) serialize(w *stateWriter) {
	w.bytes(f.buffer[:])
	w.u8(f.writeIdx)
	w.u8(f.readIdx)
}

func (f *Fifo) deserialize(r *stateReader) {
	r.bytes(f.buffer[:])
	f.writeIdx = r.u8()
	f.readIdx = r.u8()
}

func serializeMsf(w *stateWriter, m disc.Msf) {
	mm, ss, ff := m.BCD()
	w.u8(mm)
	w.u8(ss)
	w.u8(ff)
}

// deserializeMsf falls back to 00:00:00 on a malformed position.
func deserializeMsf(r *stateReader) disc.Msf {
	mm, ss, ff := r.u8(), r.u8(), r.u8()
	m, _ := disc.MsfFromBCD(mm, ss, ff)
	return m
}
