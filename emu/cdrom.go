package emu

import (
	"fmt"
	"log/slog"

	"github.com/user-none/empsx/disc"
)

// IrqCode is the interrupt code raised by the CD-ROM sub-CPU.
type IrqCode uint8

const (
	IrqSectorReady IrqCode = 1 // A sector is in the RX buffer
	IrqDone        IrqCode = 2 // Second response of a two phase command
	IrqOk          IrqCode = 3 // First response
	IrqError       IrqCode = 5 // Bad command or no disc
)

// CdDisc is the disc as seen by the controller. *disc.Disc implements it.
type CdDisc interface {
	ReadSector(s *disc.Sector, msf disc.Msf) error
	Region() disc.Region
}

type cdCommandKind uint8

const (
	cmdIdle cdCommandKind = iota
	// Waiting for the response to reach the FIFO, then for the IRQ
	cmdRxPending
	// Response received, waiting for the IRQ
	cmdIrqPending
)

// cdCommandState is the command state machine. rxDelay is always less
// than or equal to irqDelay.
type cdCommandState struct {
	kind     cdCommandKind
	rxDelay  uint32
	irqDelay uint32
	code     IrqCode
	response Fifo
}

// rxPending builds a command state that receives response after rx cycles
// and raises code irq cycles later.
func rxPending(rx, irq uint32, code IrqCode, response Fifo) cdCommandState {
	return cdCommandState{
		kind:     cmdRxPending,
		rxDelay:  rx,
		irqDelay: rx + irq,
		code:     code,
		response: response,
	}
}

// cdReadState is the data read state machine. delay counts down to the
// next sector.
type cdReadState struct {
	reading bool
	delay   uint32
}

// ackHandler is the continuation run when the IRQ is acknowledged.
type ackHandler uint8

const (
	ackIdle ackHandler = iota
	ackSeekL
	ackGetID
	ackReadTOC
	ackPause
	ackInit
	// A command issued while an IRQ was pending
	ackCommand
)

// asyncEvent holds an interrupt raised by the drive while the previous one
// is still being acknowledged.
type asyncEvent struct {
	pending  bool
	code     IrqCode
	response Fifo
}

// Mixer holds the CD audio volumes routed to the SPU inputs.
type Mixer struct {
	LeftToLeft   uint8
	LeftToRight  uint8
	RightToLeft  uint8
	RightToRight uint8
}

// CdRom is the CD-ROM controller. Register semantics follow the CXD1199AQ
// host interface; the drive side is modelled by the command and read state
// machines with delays measured on real hardware.
type CdRom struct {
	commandState cdCommandState
	readState    cdReadState

	// Selects the meaning of registers 1 to 3
	index    uint8
	params   Fifo
	response Fifo
	irqMask  uint8
	// Low 3 bits hold the IrqCode, the upper 2 belong to the decoder
	irqFlags uint8

	onAck         ackHandler
	queuedCommand uint8
	queuedParams  Fifo

	disc CdDisc

	seekTarget        disc.Msf
	seekTargetPending bool
	position          disc.Msf

	doubleSpeed        bool
	xaADPCMToSPU       bool
	readWholeSector    bool
	sectorSizeOverride bool
	cddaMode           bool
	autopause          bool
	reportInterrupts   bool
	filterEnabled      bool
	filterFile         uint8
	filterChannel      uint8

	rxBuffer [disc.SectorSize]byte
	sector   disc.Sector
	rxActive bool
	rxIndex  uint16
	rxLen    uint16

	mixer Mixer
	async asyncEvent
}

// NewCdRom returns a controller with the given disc, which may be nil.
func NewCdRom(d CdDisc) *CdRom {
	return &CdRom{
		disc:             d,
		readWholeSector:  true,
		reportInterrupts: true,
	}
}

// Disc returns the loaded disc or nil.
func (c *CdRom) Disc() CdDisc {
	return c.disc
}

// SetDisc inserts a disc.
func (c *CdRom) SetDisc(d CdDisc) {
	c.disc = d
}

// RemoveDisc opens the shell.
func (c *CdRom) RemoveDisc() {
	c.disc = nil
}

func (c *CdRom) Mixer() Mixer {
	return c.mixer
}

func (c *CdRom) Load(shared *SharedState, width AccessWidth, offset uint32) uint32 {
	c.Sync(shared)

	if width != Byte {
		panicf("unhandled CD-ROM load (%s) at offset %d", width, offset)
	}

	var val uint8
	switch offset {
	case 0:
		val = c.hostStatus()
	case 1:
		// The response FIFO wraps around after 16 reads
		if c.response.Empty() {
			slog.Warn("CD-ROM response FIFO underflow", "date", shared.TimeKeeper())
		}
		val = c.response.Pop()
	case 2:
		val = c.readByte()
	case 3:
		// The 3 MSBs read back as 1
		switch c.index {
		case 0, 2:
			val = c.irqMask | 0xe0
		default:
			val = c.irqFlags | 0xe0
		}
	default:
		panicf("read CD-ROM register %d.%d", offset, c.index)
	}
	return uint32(val)
}

func (c *CdRom) Store(shared *SharedState, width AccessWidth, offset uint32, v uint32) {
	c.Sync(shared)

	if width != Byte {
		panicf("unhandled CD-ROM store (%s) at offset %d: %08x", width, offset, v)
	}

	val := uint8(v)
	unimplemented := func() {
		panicf("write CD-ROM register %d.%d %02x", offset, c.index, val)
	}

	switch offset {
	case 0:
		c.index = val & 3
	case 1:
		switch c.index {
		case 0:
			c.command(shared, val)
		case 3:
			// ATV2
			c.mixer.RightToRight = val
		default:
			unimplemented()
		}
	case 2:
		switch c.index {
		case 0:
			c.pushParam(val)
		case 1:
			c.setHostInterruptMask(val)
		case 2:
			// ATV0
			c.mixer.LeftToLeft = val
		case 3:
			// ATV3
			c.mixer.RightToLeft = val
		}
	case 3:
		switch c.index {
		case 0:
			c.setHostChipControl(val)
		case 1:
			// HCLRCTL
			c.irqAck(shared, val&0x1f)
			if val&0x40 != 0 {
				c.params.Clear()
			}
			if val&0xa0 != 0 {
				panicf("unhandled CD-ROM 3.1: %02x", val)
			}
		case 2:
			// ATV1
			c.mixer.LeftToRight = val
		case 3:
			// ADPCTL
			slog.Debug("CD-ROM mixer apply", "value", fmt.Sprintf("%02x", val))
		}
	default:
		unimplemented()
	}

	c.checkAsyncEvent(shared)
}

// Sync advances both state machines to the current date.
func (c *CdRom) Sync(shared *SharedState) {
	tk := shared.TimeKeeper()
	delta := tk.Sync(PeripheralCdRom)

	// Command processing stalls while an interrupt is active. The ack
	// store reschedules us.
	if c.irqFlags == 0 {
		c.syncCommands(shared, delta)
	} else {
		tk.NoSyncNeeded(PeripheralCdRom)
	}

	if c.readState.reading {
		var next uint32
		if Cycles(c.readState.delay) > delta {
			next = c.readState.delay - uint32(delta)
		} else {
			slog.Debug("CD-ROM read sector", "date", tk, "position", c.position)
			c.readSector(shared)
			next = c.cyclesPerSector()
		}
		c.readState.delay = next
		tk.SetNextSyncDeltaIfSooner(PeripheralCdRom, Cycles(next))
	}
}

func (c *CdRom) syncCommands(shared *SharedState, delta Cycles) {
	tk := shared.TimeKeeper()
	st := &c.commandState

	switch st.kind {
	case cmdIdle:
		tk.NoSyncNeeded(PeripheralCdRom)
	case cmdRxPending:
		if Cycles(st.rxDelay) > delta {
			st.rxDelay -= uint32(delta)
			st.irqDelay -= uint32(delta)
			tk.SetNextSyncDelta(PeripheralCdRom, Cycles(st.rxDelay))
			return
		}

		// End of the transfer
		c.response = st.response
		if Cycles(st.irqDelay) > delta {
			st.irqDelay -= uint32(delta)
			st.kind = cmdIrqPending
			tk.SetNextSyncDelta(PeripheralCdRom, Cycles(st.irqDelay))
			return
		}
		c.triggerIRQ(shared, st.code)
		*st = cdCommandState{}
		tk.NoSyncNeeded(PeripheralCdRom)
	case cmdIrqPending:
		if Cycles(st.irqDelay) > delta {
			st.irqDelay -= uint32(delta)
			tk.SetNextSyncDelta(PeripheralCdRom, Cycles(st.irqDelay))
			return
		}
		c.triggerIRQ(shared, st.code)
		*st = cdCommandState{}
		tk.NoSyncNeeded(PeripheralCdRom)
	}
}

// readByte returns the next byte of the RX buffer.
func (c *CdRom) readByte() uint8 {
	if !c.rxActive {
		panicf("CD-ROM RX read while the buffer is inactive")
	}

	b := c.rxBuffer[c.rxIndex]
	c.rxIndex++
	if c.rxIndex == c.rxLen {
		// Clears automatically at the end of the transfer
		c.rxActive = false
	}
	return b
}

// DmaReadWord reads the RX buffer one little-endian word at a time.
func (c *CdRom) DmaReadWord() uint32 {
	b0 := uint32(c.readByte())
	b1 := uint32(c.readByte())
	b2 := uint32(c.readByte())
	b3 := uint32(c.readByte())
	return b0 | b1<<8 | b2<<16 | b3<<24
}

var pregapEnd = disc.MustMsf(0x00, 0x02, 0x00)

func (c *CdRom) doSeek() {
	// Track 1 pregap is not stored in the image
	if c.seekTarget.Less(pregapEnd) {
		panicf("CD-ROM seek to track 1 pregap: %s", c.seekTarget)
	}
	c.position = c.seekTarget
	c.seekTargetPending = false
}

// readSector is called when the drive reaches a new sector.
func (c *CdRom) readSector(shared *SharedState) {
	if c.async.pending {
		panicf("CD-ROM sector read while an async event is pending")
	}
	if c.disc == nil {
		panicf("CD-ROM sector read without a disc")
	}

	if err := c.disc.ReadSector(&c.sector, c.position); err != nil {
		panic(fmt.Errorf("CD-ROM: couldn't read sector %s: %w", c.position, err))
	}

	var data []byte
	if c.readWholeSector {
		// Everything but the sync pattern
		data = c.sector.Data2352()[12:]
	} else {
		payload, err := c.sector.Mode2XAPayload()
		if err != nil {
			panic(fmt.Errorf("CD-ROM: failed to read sector %s: %w", c.position, err))
		}
		if len(payload) > 2048 {
			slog.Warn("CD-ROM Form 2 sector partial read", "position", c.position)
		}
		data = payload[:2048]
	}

	copy(c.rxBuffer[:], data)
	c.rxLen = uint16(len(data))

	c.async = asyncEvent{
		pending:  true,
		code:     IrqSectorReady,
		response: FifoFromBytes(c.driveStatus()),
	}
	c.checkAsyncEvent(shared)

	next, ok := c.position.Next()
	if !ok {
		panicf("CD-ROM MSF overflow at %s", c.position)
	}
	c.position = next
}

func (c *CdRom) checkAsyncEvent(shared *SharedState) {
	if c.async.pending && c.irqFlags == 0 {
		c.response = c.async.response
		c.triggerIRQ(shared, c.async.code)
		c.async = asyncEvent{}
	}
}

func (c *CdRom) hostStatus() uint8 {
	r := c.index
	// ADPBUSY (bit 2) is never set
	r |= boolByte(c.params.Empty()) << 3
	r |= boolByte(!c.params.Full()) << 4
	r |= boolByte(!c.response.Empty()) << 5
	r |= boolByte(c.rxIndex < c.rxLen) << 6
	// BUSYSTS is set between the command write and the response
	r |= boolByte(c.commandState.kind == cmdRxPending) << 7
	return r
}

func (c *CdRom) irq() bool {
	return c.irqFlags&c.irqMask != 0
}

func (c *CdRom) triggerIRQ(shared *SharedState, code IrqCode) {
	if c.irqFlags != 0 {
		panicf("unsupported nested CD-ROM interrupt %d while %d is pending", code, c.irqFlags)
	}

	prev := c.irq()
	c.irqFlags = uint8(code)
	shared.Trace("cdrom", "irq_flags", TraceU8(c.irqFlags))

	if !prev && c.irq() {
		shared.IRQ().Assert(InterruptCdRom)
	}
}

func (c *CdRom) irqAck(shared *SharedState, v uint8) {
	c.irqFlags &^= v
	shared.Trace("cdrom", "irq_flags", TraceU8(c.irqFlags))

	// A partial ack leaves the second phase pending
	if c.irqFlags != 0 {
		return
	}

	// Some commands have a second phase once the first IRQ is acked
	if ack := c.onAck; ack != ackIdle {
		c.onAck = ackIdle
		c.commandState = c.runAck(ack)
	}
	if c.commandState.kind != cmdIdle {
		shared.TimeKeeper().SetNextSyncDelta(PeripheralCdRom, 0)
	}
}

// setHostChipControl writes HCHPCTL.
func (c *CdRom) setHostChipControl(ctrl uint8) {
	prev := c.rxActive
	c.rxActive = ctrl&0x80 != 0

	if c.rxActive {
		if !prev {
			c.rxIndex = 0
		}
	} else {
		// With the buffer inactive the hardware keeps returning the byte
		// at the closest multiple of 8
		i := c.rxIndex
		adjust := (i & 4) << 1
		c.rxIndex = i&^7 + adjust
	}

	if ctrl&0x7f != 0 {
		panicf("CD-ROM: unhandled HCHPCTL %02x", ctrl)
	}
}

// setHostInterruptMask writes HINTMSK.
func (c *CdRom) setHostInterruptMask(val uint8) {
	if val&0x18 != 0 {
		slog.Warn("CD-ROM: unhandled IRQ mask", "mask", fmt.Sprintf("%02x", val))
	}
	c.irqMask = val & 0x1f
}

func (c *CdRom) pushParam(v uint8) {
	if c.params.Full() {
		slog.Warn("CD-ROM parameter FIFO overflow")
	}
	c.params.Push(v)
}

// cyclesPerSector is 75 sectors per second at 1x, 150 at 2x.
func (c *CdRom) cyclesPerSector() uint32 {
	return (CPUFreqHz / 75) >> boolByte(c.doubleSpeed)
}

// driveStatus is the first response byte of most commands.
func (c *CdRom) driveStatus() uint8 {
	if c.disc == nil {
		// Shell open
		return 0x10
	}
	// Motor on
	return 1<<1 | boolByte(c.readState.reading)<<5
}
