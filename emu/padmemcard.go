package emu

import (
	"fmt"
	"log/slog"
)

// dsrDuration is the length of the DSR pulse in CPU cycles. Real pads
// hold it for 90 to 100 cycles but the BIOS would then acknowledge the
// interrupt while DSR is still active.
const dsrDuration = 10

// busState is the serial bus state machine.
type busState uint8

const (
	busIdle busState = iota
	// Byte being shifted, response pending
	busTransfer
	// DSR pulse in progress
	busDsr
)

// portDevice is the device answering the current transaction of a port.
type portDevice uint8

const (
	deviceNone portDevice = iota
	devicePad
	deviceMemCard
	// First byte addressed nothing, the port stays silent
	deviceIgnored
)

// padPort is one of the two controller ports: a pad and an optional
// memory card sharing the same select line.
type padPort struct {
	pad    *GamePad
	card   *MemCard
	device portDevice
}

func (p *padPort) selectPort() {
	p.device = deviceNone
	p.pad.Select()
	if p.card != nil {
		p.card.Select()
	}
}

// send routes the first byte of a transaction: 0x01 addresses the pad and
// 0x81 the memory card.
func (p *padPort) send(cmd uint8) (uint8, bool) {
	if p.device == deviceNone {
		switch {
		case cmd == 0x01:
			p.device = devicePad
		case cmd == 0x81 && p.card != nil:
			p.device = deviceMemCard
		default:
			p.device = deviceIgnored
		}
	}

	switch p.device {
	case devicePad:
		return p.pad.SendCommand(cmd)
	case deviceMemCard:
		return p.card.SendCommand(cmd)
	}
	return 0xff, false
}

// PadMemCard is the serial controller shared by the pads and the memory
// cards.
type PadMemCard struct {
	// The LSB is not used by the hardware
	baudDiv uint16
	mode    uint8
	txEn    bool
	// Select line of the target port, active
	selected bool
	// Port 2 when set
	target uint8
	// Control bits 3 and 5 are read/write with no known function
	unknown uint8
	rxEn    bool
	dsr     bool
	dsrIt   bool
	// Interrupt level
	interrupt  bool
	response   uint8
	rxNotEmpty bool

	ports [2]padPort

	bus busState
	// Response latched at the end of the transfer
	busResponse uint8
	busDsr      bool
	busDelay    Cycles
}

// NewPadMemCard returns a controller with a digital pad in port 1.
func NewPadMemCard(pad1, pad2 PadType, card1, card2 *MemCard) *PadMemCard {
	return &PadMemCard{
		response: 0xff,
		ports: [2]padPort{
			{pad: NewGamePad(pad1), card: card1},
			{pad: NewGamePad(pad2), card: card2},
		},
	}
}

// Pad returns the pad in port n (0 or 1).
func (pm *PadMemCard) Pad(n int) *GamePad {
	return pm.ports[n].pad
}

// MemCard returns the card in port n or nil.
func (pm *PadMemCard) MemCard(n int) *MemCard {
	return pm.ports[n].card
}

// SetMemCard inserts or removes (nil) a memory card.
func (pm *PadMemCard) SetMemCard(n int, card *MemCard) {
	pm.ports[n].card = card
}

// Load reads a register. offset is relative to 0x1f801040.
func (pm *PadMemCard) Load(shared *SharedState, width AccessWidth, offset uint32) uint32 {
	pm.Sync(shared)

	switch offset {
	case 0:
		if width != Byte {
			panicf("unhandled %s gamepad RX access", width)
		}
		r := pm.response
		pm.rxNotEmpty = false
		pm.response = 0xff
		return uint32(r)
	case 4:
		return pm.stat()
	case 8:
		return uint32(pm.mode)
	case 10:
		return uint32(pm.control())
	case 14:
		return uint32(pm.baudDiv)
	}
	panicf("unhandled gamepad read (%s) at offset %d", width, offset)
	return 0
}

// Store writes a register.
func (pm *PadMemCard) Store(shared *SharedState, width AccessWidth, offset uint32, val uint32) {
	pm.Sync(shared)

	switch offset {
	case 0:
		if width != Byte {
			panicf("unhandled %s gamepad TX access: %08x", width, val)
		}
		pm.sendCommand(shared, uint8(val))
	case 8:
		pm.mode = uint8(val)
	case 10:
		if width == Byte {
			panicf("unhandled byte gamepad control access: %02x", val)
		}
		pm.setControl(shared, uint16(val))
	case 14:
		pm.baudDiv = uint16(val)
	default:
		panicf("unhandled write to gamepad register %d: %04x", offset, val)
	}
}

// Sync advances the bus state machine.
func (pm *PadMemCard) Sync(shared *SharedState) {
	tk := shared.TimeKeeper()
	delta := tk.Sync(PeripheralPadMemCard)

	switch pm.bus {
	case busIdle:
		tk.NoSyncNeeded(PeripheralPadMemCard)

	case busTransfer:
		if delta < pm.busDelay {
			pm.busDelay -= delta
			if pm.dsrIt {
				tk.SetNextSyncDelta(PeripheralPadMemCard, pm.busDelay)
			} else {
				tk.NoSyncNeeded(PeripheralPadMemCard)
			}
			return
		}

		// End of the transfer
		if pm.rxNotEmpty {
			panicf("gamepad RX while the FIFO is not empty")
		}
		pm.response = pm.busResponse
		pm.rxNotEmpty = true
		pm.dsr = pm.busDsr

		if pm.dsr {
			if pm.dsrIt {
				if !pm.interrupt {
					shared.Trace("padmemcard", "irq", TraceBool(true))
					shared.IRQ().Assert(InterruptPadMemCard)
				}
				pm.interrupt = true
			}
			pm.bus = busDsr
			pm.busDelay = dsrDuration
		} else {
			pm.bus = busIdle
		}
		tk.NoSyncNeeded(PeripheralPadMemCard)

	case busDsr:
		if delta < pm.busDelay {
			pm.busDelay -= delta
		} else {
			pm.dsr = false
			pm.bus = busIdle
		}
		tk.NoSyncNeeded(PeripheralPadMemCard)
	}
}

func (pm *PadMemCard) sendCommand(shared *SharedState, cmd uint8) {
	if !pm.txEn {
		panicf("unhandled gamepad command %02x while TX is disabled", cmd)
	}

	if pm.bus != busIdle {
		slog.Warn("gamepad command while bus is busy", "cmd", fmt.Sprintf("%02x", cmd))
	}

	response, dsr := uint8(0xff), false
	if pm.selected {
		response, dsr = pm.ports[pm.target].send(cmd)
	}

	// 8 bits, one every baudDiv cycles. The mode register is ignored.
	duration := 8 * Cycles(pm.baudDiv)

	pm.bus = busTransfer
	pm.busResponse = response
	pm.busDsr = dsr
	pm.busDelay = duration

	shared.TimeKeeper().SetNextSyncDelta(PeripheralPadMemCard, duration)
}

func (pm *PadMemCard) stat() uint32 {
	var s uint32

	// TX ready
	s |= 5
	s |= uint32(boolByte(pm.rxNotEmpty)) << 1
	s |= uint32(boolByte(pm.dsr)) << 7
	s |= uint32(boolByte(pm.interrupt)) << 9

	return s
}

func (pm *PadMemCard) control() uint16 {
	var c uint16

	c |= uint16(pm.unknown)
	c |= uint16(boolByte(pm.txEn))
	c |= uint16(boolByte(pm.selected)) << 1
	c |= uint16(boolByte(pm.rxEn)) << 2
	c |= uint16(boolByte(pm.dsrIt)) << 12
	c |= uint16(pm.target) << 13

	return c
}

func (pm *PadMemCard) setControl(shared *SharedState, ctrl uint16) {
	if ctrl&0x40 != 0 {
		// Soft reset. The RX data is kept.
		pm.baudDiv = 0
		pm.mode = 0
		pm.selected = false
		pm.target = 0
		pm.unknown = 0
		pm.interrupt = false
		pm.rxNotEmpty = false
		pm.bus = busIdle
		pm.dsr = false
		return
	}

	if ctrl&0x10 != 0 {
		// Acknowledge. The pad interrupt is level triggered: it fires
		// again right away while DSR is active.
		pm.interrupt = false
		if pm.dsr && pm.dsrIt {
			slog.Warn("gamepad interrupt acknowledge while DSR is active")
			pm.interrupt = true
			shared.IRQ().Assert(InterruptPadMemCard)
		}
	}

	prevSelected := pm.selected
	prevTarget := pm.target

	pm.unknown = uint8(ctrl) & 0x28
	pm.txEn = ctrl&1 != 0
	pm.selected = ctrl&2 != 0
	pm.rxEn = ctrl&4 != 0
	pm.dsrIt = ctrl&(1<<12) != 0
	pm.target = uint8((ctrl >> 13) & 1)

	if pm.rxEn {
		panicf("gamepad RX enable not implemented (control %04x)", ctrl)
	}
	if pm.dsrIt && !pm.interrupt && pm.dsr {
		panicf("DSR interrupt enabled while DSR is active (control %04x)", ctrl)
	}
	if ctrl&0xf00 != 0 {
		panicf("unsupported gamepad interrupts: %04x", ctrl)
	}

	if pm.selected && (!prevSelected || pm.target != prevTarget) {
		pm.ports[pm.target].selectPort()
	}
}
