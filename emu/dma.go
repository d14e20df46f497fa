package emu

import "fmt"

// DmaPort identifies one of the 7 DMA channels.
type DmaPort uint8

const (
	DmaMDecIn DmaPort = iota
	DmaMDecOut
	DmaGpu
	DmaCdRom
	DmaSpu
	DmaPio
	// Ordering table clear
	DmaOtc

	dmaPortCount
)

var dmaPortNames = [dmaPortCount]string{"MDecIn", "MDecOut", "Gpu", "CdRom", "Spu", "Pio", "Otc"}

func (p DmaPort) String() string {
	if p >= dmaPortCount {
		return fmt.Sprintf("DmaPort(%d)", uint8(p))
	}
	return dmaPortNames[p]
}

// DmaTransferDirection is relative to RAM.
type DmaTransferDirection uint8

const (
	DmaToRam DmaTransferDirection = iota
	DmaFromRam
)

// DmaStep is applied to the RAM address after each word.
type DmaStep uint8

const (
	DmaIncrement DmaStep = iota
	DmaDecrement
)

// DmaSync is the channel synchronization mode. It has nothing to do with
// TimeKeeper syncs.
type DmaSync uint8

const (
	// Starts on the trigger bit, transfers one block
	DmaSyncManual DmaSync = iota
	// Transfers blockCount blocks
	DmaSyncRequest
	// Walks a GPU command list
	DmaSyncLinkedList
)

// DmaChannel holds the registers of one channel.
type DmaChannel struct {
	enable    bool
	direction DmaTransferDirection
	step      DmaStep
	sync      DmaSync
	trigger   bool
	chop      bool
	// log2 of the chopping windows
	chopDmaSize uint8
	chopCPUSize uint8
	base        uint32
	blockSize   uint16
	blockCount  uint16
	// Bits 29-30 are read/write with no known function
	dummy uint8
}

func (c *DmaChannel) Base() uint32 {
	return c.base
}

// SetBase sets the start address. The DMA can only address 16MB.
func (c *DmaChannel) SetBase(val uint32) {
	c.base = val & 0xffffff
}

func (c *DmaChannel) Control() uint32 {
	var r uint32

	r |= uint32(c.direction)
	r |= uint32(c.step) << 1
	r |= uint32(boolByte(c.chop)) << 8
	r |= uint32(c.sync) << 9
	r |= uint32(c.chopDmaSize) << 16
	r |= uint32(c.chopCPUSize) << 20
	r |= uint32(boolByte(c.enable)) << 24
	r |= uint32(boolByte(c.trigger)) << 28
	r |= uint32(c.dummy) << 29

	return r
}

func (c *DmaChannel) SetControl(val uint32) {
	c.direction = DmaTransferDirection(val & 1)
	c.step = DmaStep((val >> 1) & 1)
	c.chop = val&(1<<8) != 0

	sync := (val >> 9) & 3
	if sync == 3 {
		panicf("unknown DMA sync mode %d (control %08x)", sync, val)
	}
	c.sync = DmaSync(sync)

	c.chopDmaSize = uint8((val >> 16) & 7)
	c.chopCPUSize = uint8((val >> 20) & 7)
	c.enable = val&(1<<24) != 0
	c.trigger = val&(1<<28) != 0
	c.dummy = uint8((val >> 29) & 3)
}

func (c *DmaChannel) BlockControl() uint32 {
	return uint32(c.blockCount)<<16 | uint32(c.blockSize)
}

func (c *DmaChannel) SetBlockControl(val uint32) {
	c.blockSize = uint16(val)
	c.blockCount = uint16(val >> 16)
}

// Active reports whether the transfer should start. In manual mode the
// trigger bit is required as well.
func (c *DmaChannel) Active() bool {
	trigger := true
	if c.sync == DmaSyncManual {
		trigger = c.trigger
	}
	return c.enable && trigger
}

func (c *DmaChannel) Direction() DmaTransferDirection {
	return c.direction
}

func (c *DmaChannel) Step() DmaStep {
	return c.step
}

func (c *DmaChannel) Sync() DmaSync {
	return c.sync
}

// TransferSize returns the number of words to copy. ok is false in linked
// list mode where the size is only known at the end of the list.
func (c *DmaChannel) TransferSize() (words uint32, ok bool) {
	bs := uint32(c.blockSize)
	bc := uint32(c.blockCount)

	switch c.sync {
	case DmaSyncManual:
		return bs, true
	case DmaSyncRequest:
		return bc * bs, true
	}
	return 0, false
}

func (c *DmaChannel) done() {
	c.enable = false
	c.trigger = false
}

// Dma holds the DMA controller registers. Transfers themselves are run by
// the Interconnect which owns RAM and the peripherals.
type Dma struct {
	control uint32
	// Master IRQ enable
	irqEn          bool
	channelIrqEn   uint8
	channelIrqFlag uint8
	// Interrupt active regardless of irqEn
	forceIrq bool
	// Bits 0-5 of the interrupt register, stored and returned untouched
	irqDummy uint8
	channels [dmaPortCount]DmaChannel
}

func NewDma() *Dma {
	return &Dma{
		control: 0x07654321,
	}
}

// irq returns the level of the DMA interrupt.
func (d *Dma) irq() bool {
	channelIrq := d.channelIrqFlag & d.channelIrqEn
	return d.forceIrq || (d.irqEn && channelIrq != 0)
}

func (d *Dma) Control() uint32 {
	return d.control
}

func (d *Dma) SetControl(val uint32) {
	d.control = val
}

func (d *Dma) Interrupt() uint32 {
	var r uint32

	r |= uint32(d.irqDummy)
	r |= uint32(boolByte(d.forceIrq)) << 15
	r |= uint32(d.channelIrqEn) << 16
	r |= uint32(boolByte(d.irqEn)) << 23
	r |= uint32(d.channelIrqFlag) << 24
	r |= uint32(boolByte(d.irq())) << 31

	return r
}

func (d *Dma) SetInterrupt(shared *SharedState, val uint32) {
	prev := d.irq()

	d.irqDummy = uint8(val & 0x3f)
	d.forceIrq = val&(1<<15) != 0
	d.channelIrqEn = uint8((val >> 16) & 0x7f)
	d.irqEn = val&(1<<23) != 0

	// Writing 1 acknowledges a flag
	ack := uint8((val >> 24) & 0x7f)
	d.channelIrqFlag &^= ack

	d.checkIRQ(shared, prev)
}

// Channel returns the registers of port.
func (d *Dma) Channel(port DmaPort) *DmaChannel {
	return &d.channels[port]
}

// Done ends the transfer of port and flags its interrupt.
func (d *Dma) Done(shared *SharedState, port DmaPort) {
	d.channels[port].done()

	prev := d.irq()
	d.channelIrqFlag |= d.channelIrqEn & (1 << port)
	d.checkIRQ(shared, prev)
}

// checkIRQ raises the DMA interrupt on a rising edge only.
func (d *Dma) checkIRQ(shared *SharedState, prev bool) {
	if !prev && d.irq() {
		shared.Trace("dma", "irq", TraceBool(true))
		shared.IRQ().Assert(InterruptDma)
	}
}

// Load reads a DMA register. offset is relative to 0x1f801080.
func (d *Dma) Load(offset uint32) uint32 {
	major := (offset >> 4) & 7
	minor := offset & 0xf

	if major == 7 {
		switch minor {
		case 0:
			return d.control
		case 4:
			return d.Interrupt()
		}
		panicf("unhandled DMA read at offset %02x", offset)
	}

	c := &d.channels[major]
	switch minor {
	case 0:
		return c.Base()
	case 4:
		return c.BlockControl()
	case 8:
		return c.Control()
	}
	panicf("unhandled DMA read at offset %02x", offset)
	return 0
}

// Store writes a DMA register. It returns the port to run if the write
// started a transfer.
func (d *Dma) Store(shared *SharedState, offset uint32, val uint32) (DmaPort, bool) {
	major := (offset >> 4) & 7
	minor := offset & 0xf

	if major == 7 {
		switch minor {
		case 0:
			d.SetControl(val)
		case 4:
			d.SetInterrupt(shared, val)
		default:
			panicf("unhandled DMA write at offset %02x: %08x", offset, val)
		}
		return 0, false
	}

	port := DmaPort(major)
	c := &d.channels[port]
	switch minor {
	case 0:
		c.SetBase(val)
	case 4:
		c.SetBlockControl(val)
	case 8:
		c.SetControl(val)
	default:
		panicf("unhandled DMA write at offset %02x: %08x", offset, val)
	}

	return port, c.Active()
}
