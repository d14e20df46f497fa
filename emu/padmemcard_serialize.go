package emu

func (pm *PadMemCard) serialize(w *stateWriter) {
	w.u16(pm.baudDiv)
	w.u8(pm.mode)
	w.bool(pm.txEn)
	w.bool(pm.selected)
	w.u8(pm.target)
	w.u8(pm.unknown)
	w.bool(pm.rxEn)
	w.bool(pm.dsr)
	w.bool(pm.dsrIt)
	w.bool(pm.interrupt)
	w.u8(pm.response)
	w.bool(pm.rxNotEmpty)

	w.u8(uint8(pm.bus))
	w.u8(pm.busResponse)
	w.bool(pm.busDsr)
	w.u64(pm.busDelay)

	for i := range pm.ports {
		p := &pm.ports[i]
		w.u8(uint8(p.device))
		w.u8(p.pad.seq)
		w.bool(p.pad.active)
		// Slots are always written so the layout does not depend on
		// the inserted cards
		w.bool(p.card != nil)
		card := p.card
		if card == nil {
			card = &MemCard{}
		}
		card.serialize(w)
	}
}

// deserialize restores the controller. Cards present in the state but
// not in the console are inserted; the pad types are kept.
func (pm *PadMemCard) deserialize(r *stateReader) {
	pm.baudDiv = r.u16()
	pm.mode = r.u8()
	pm.txEn = r.bool()
	pm.selected = r.bool()
	pm.target = r.u8()
	pm.unknown = r.u8()
	pm.rxEn = r.bool()
	pm.dsr = r.bool()
	pm.dsrIt = r.bool()
	pm.interrupt = r.bool()
	pm.response = r.u8()
	pm.rxNotEmpty = r.bool()

	pm.bus = busState(r.u8())
	pm.busResponse = r.u8()
	pm.busDsr = r.bool()
	pm.busDelay = r.u64()

	for i := range pm.ports {
		p := &pm.ports[i]
		p.device = portDevice(r.u8())
		p.pad.seq = r.u8()
		p.pad.active = r.bool()

		present := r.bool()
		switch {
		case present && p.card == nil:
			p.card = &MemCard{}
		case !present:
			p.card = nil
		}
		card := p.card
		if card == nil {
			card = &MemCard{}
		}
		card.deserialize(r)
	}
}

func (m *MemCard) serialize(w *stateWriter) {
	w.bytes(m.data[:])
	w.u16(m.seq)
	w.bool(m.active)
	w.u8(m.command)
	w.u16(m.frame)
	w.u8(m.csum)
	w.u8(m.prev)
	w.bytes(m.buffer[:])
	w.bool(m.fresh)
}

func (m *MemCard) deserialize(r *stateReader) {
	r.bytes(m.data[:])
	m.seq = r.u16()
	m.active = r.bool()
	m.command = r.u8()
	m.frame = r.u16()
	m.csum = r.u8()
	m.prev = r.u8()
	r.bytes(m.buffer[:])
	m.fresh = r.bool()
	// The restored contents differ from the file on disk
	m.dirty = true
}
