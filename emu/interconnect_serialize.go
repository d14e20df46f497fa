package emu

// serialize writes the memories and the register-only peripherals. The
// GPU, CD-ROM and Pad/MemCard blocks follow separately.
func (ic *Interconnect) serialize(w *stateWriter) {
	w.bytes(ic.ram.data[:])
	w.bytes(ic.scratchPad.data[:])
	for _, v := range ic.memControl {
		w.u32(v)
	}
	w.u32(ic.ramSize)
	w.u32(ic.cacheControl)

	ic.dma.serialize(w)
	ic.timers.serialize(w)
	ic.spu.serialize(w)
	ic.mdec.serialize(w)
}

func (ic *Interconnect) deserialize(r *stateReader) {
	r.bytes(ic.ram.data[:])
	r.bytes(ic.scratchPad.data[:])
	for i := range ic.memControl {
		ic.memControl[i] = r.u32()
	}
	ic.ramSize = r.u32()
	ic.cacheControl = r.u32()

	ic.dma.deserialize(r)
	ic.timers.deserialize(r)
	ic.spu.deserialize(r)
	ic.mdec.deserialize(r)
}

func (d *Dma) serialize(w *stateWriter) {
	w.u32(d.control)
	w.bool(d.irqEn)
	w.u8(d.channelIrqEn)
	w.u8(d.channelIrqFlag)
	w.bool(d.forceIrq)
	w.u8(d.irqDummy)

	for i := range d.channels {
		c := &d.channels[i]
		w.u32(c.Base())
		w.u32(c.BlockControl())
		w.u32(c.Control())
	}
}

func (d *Dma) deserialize(r *stateReader) {
	d.control = r.u32()
	d.irqEn = r.bool()
	d.channelIrqEn = r.u8()
	d.channelIrqFlag = r.u8()
	d.forceIrq = r.bool()
	d.irqDummy = r.u8()

	for i := range d.channels {
		c := &d.channels[i]
		c.SetBase(r.u32())
		c.SetBlockControl(r.u32())
		c.SetControl(r.u32())
	}
}

func (ts *Timers) serialize(w *stateWriter) {
	for i := range ts.timers {
		t := &ts.timers[i]
		w.u16(t.counter)
		w.u16(t.target)
		w.bool(t.freeRun)
		w.u8(t.syncMode)
		w.bool(t.targetWrap)
		w.bool(t.targetIrq)
		w.bool(t.wrapIrq)
		w.bool(t.repeatIrq)
		w.bool(t.toggleIrq)
		w.u8(t.clockSource)
		w.bool(t.targetReached)
		w.bool(t.overflowReached)
		w.u64(t.period.FP())
		w.u64(t.phase.FP())
	}
}

func (ts *Timers) deserialize(r *stateReader) {
	for i := range ts.timers {
		t := &ts.timers[i]
		t.counter = r.u16()
		t.target = r.u16()
		t.freeRun = r.bool()
		t.syncMode = r.u8()
		t.targetWrap = r.bool()
		t.targetIrq = r.bool()
		t.wrapIrq = r.bool()
		t.repeatIrq = r.bool()
		t.toggleIrq = r.bool()
		t.clockSource = r.u8()
		t.targetReached = r.bool()
		t.overflowReached = r.bool()
		t.period = FracCyclesFromFP(r.u64())
		t.phase = FracCyclesFromFP(r.u64())
	}
}

func (s *Spu) serialize(w *stateWriter) {
	w.u16s(s.shadow[:])
	w.u16s(s.ram[:])
	w.u32(s.ramIndex)
}

func (s *Spu) deserialize(r *stateReader) {
	r.u16s(s.shadow[:])
	r.u16s(s.ram[:])
	s.ramIndex = r.u32()
}

func (m *MDec) serialize(w *stateWriter) {
	w.bool(m.dmaInEnable)
	w.bool(m.dmaOutEnable)
	w.u8(uint8(m.outputDepth))
	w.bool(m.outputSigned)
	w.bool(m.outputBit15)
	for _, q := range m.quantMatrices {
		w.bytes(q[:])
	}
	for _, v := range m.idctMatrix {
		w.u16(uint16(v))
	}
	w.u8(uint8(m.command))
	w.u16(m.commandRemaining)
	for _, v := range m.coefficients {
		w.u16(uint16(v))
	}
	w.u8(m.blockIndex)
	w.u8(m.blockType)
	w.u8(m.quantFactor)
	w.u64(m.blocksDecoded)
}

func (m *MDec) deserialize(r *stateReader) {
	m.dmaInEnable = r.bool()
	m.dmaOutEnable = r.bool()
	m.outputDepth = MDecDepth(r.u8())
	m.outputSigned = r.bool()
	m.outputBit15 = r.bool()
	for i := range m.quantMatrices {
		r.bytes(m.quantMatrices[i][:])
	}
	for i := range m.idctMatrix {
		m.idctMatrix[i] = int16(r.u16())
	}
	m.command = mdecCommand(r.u8())
	m.commandRemaining = r.u16()
	for i := range m.coefficients {
		m.coefficients[i] = int16(r.u16())
	}
	m.blockIndex = r.u8()
	m.blockType = r.u8()
	m.quantFactor = r.u8()
	m.blocksDecoded = r.u64()
}
