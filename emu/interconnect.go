package emu

import (
	"fmt"
	"log/slog"
)

// regionMask strips the KSEG bits of a virtual address, indexed by the
// top 3 bits. KSEG2 is not mirrored.
var regionMask = [8]uint32{
	// KUSEG: 2048MB
	0xffffffff, 0xffffffff, 0xffffffff, 0xffffffff,
	// KSEG0: 512MB
	0x7fffffff,
	// KSEG1: 512MB
	0x1fffffff,
	// KSEG2: 1024MB
	0xffffffff, 0xffffffff,
}

func maskRegion(addr uint32) uint32 {
	return addr & regionMask[addr>>29]
}

// Physical memory map
var (
	rangeRAM          = addrRange{0x00000000, 8 * 1024 * 1024}
	rangeExpansion1   = addrRange{0x1f000000, 512 * 1024}
	rangeScratchPad   = addrRange{0x1f800000, scratchpadSize}
	rangeMemControl   = addrRange{0x1f801000, 36}
	rangePadMemCard   = addrRange{0x1f801040, 32}
	rangeRAMSize      = addrRange{0x1f801060, 4}
	rangeIRQControl   = addrRange{0x1f801070, 8}
	rangeDma          = addrRange{0x1f801080, 0x80}
	rangeTimers       = addrRange{0x1f801100, 0x30}
	rangeCdRom        = addrRange{0x1f801800, 4}
	rangeGpu          = addrRange{0x1f801810, 8}
	rangeMDec         = addrRange{0x1f801820, 8}
	rangeSpu          = addrRange{0x1f801c00, 640}
	rangeExpansion2   = addrRange{0x1f802000, 66}
	rangeBIOS         = addrRange{0x1fc00000, BIOSSize}
	rangeCacheControl = addrRange{0xfffe0130, 4}
)

// Expected expansion base addresses
const (
	expansion1Base = 0x1f000000
	expansion2Base = 0x1f802000
)

// Interconnect routes CPU and DMA accesses to memory and peripherals. It
// owns every peripheral.
type Interconnect struct {
	ram        *RAM
	scratchPad *ScratchPad
	bios       *BIOS
	dma        *Dma
	gpu        *Gpu
	cdrom      *CdRom
	timers     *Timers
	padMemCard *PadMemCard
	spu        *Spu
	mdec       *MDec

	memControl   [9]uint32
	ramSize      uint32
	cacheControl uint32
}

func NewInterconnect(bios *BIOS, gpu *Gpu, cdrom *CdRom, padMemCard *PadMemCard) *Interconnect {
	return &Interconnect{
		ram:        NewRAM(),
		scratchPad: NewScratchPad(),
		bios:       bios,
		dma:        NewDma(),
		gpu:        gpu,
		cdrom:      cdrom,
		timers:     NewTimers(),
		padMemCard: padMemCard,
		spu:        NewSpu(),
		mdec:       NewMDec(),
		ramSize:    0x00000b88,
	}
}

func (ic *Interconnect) RAM() *RAM               { return ic.ram }
func (ic *Interconnect) ScratchPad() *ScratchPad { return ic.scratchPad }
func (ic *Interconnect) BIOS() *BIOS             { return ic.bios }
func (ic *Interconnect) Dma() *Dma               { return ic.dma }
func (ic *Interconnect) Gpu() *Gpu               { return ic.gpu }
func (ic *Interconnect) CdRom() *CdRom           { return ic.cdrom }
func (ic *Interconnect) Timers() *Timers         { return ic.timers }
func (ic *Interconnect) PadMemCard() *PadMemCard { return ic.padMemCard }
func (ic *Interconnect) Spu() *Spu               { return ic.spu }
func (ic *Interconnect) MDec() *MDec             { return ic.mdec }

// Sync synchronizes the peripherals whose forced sync date was reached.
// The order is fixed so that simultaneous events resolve the same way
// every run.
func (ic *Interconnect) Sync(shared *SharedState) {
	tk := shared.TimeKeeper()

	if tk.NeedsSync(PeripheralGpu) {
		ic.gpu.Sync(shared)
	}
	if tk.NeedsSync(PeripheralPadMemCard) {
		ic.padMemCard.Sync(shared)
	}
	ic.timers.Sync(shared)
	if tk.NeedsSync(PeripheralCdRom) {
		ic.cdrom.Sync(shared)
	}
}

// Load reads width bytes at addr.
func (ic *Interconnect) Load(shared *SharedState, width AccessWidth, addr uint32) uint32 {
	if addr%uint32(width) != 0 {
		panicf("unaligned %s load at %08x", width, addr)
	}

	abs := maskRegion(addr)

	if off, ok := rangeRAM.contains(abs); ok {
		return ic.ram.Load(width, off)
	}
	if off, ok := rangeBIOS.contains(abs); ok {
		return ic.bios.Load(width, off)
	}
	if off, ok := rangeScratchPad.contains(abs); ok {
		return ic.scratchPad.Load(width, off)
	}
	if off, ok := rangeIRQControl.contains(abs); ok {
		return ic.loadIRQ(shared, width, off)
	}
	if off, ok := rangeDma.contains(abs); ok {
		if width != Word {
			panicf("unhandled %s DMA load at %08x", width, addr)
		}
		return ic.dma.Load(off)
	}
	if off, ok := rangeGpu.contains(abs); ok {
		return ic.gpu.Load(shared, width, off)
	}
	if off, ok := rangeTimers.contains(abs); ok {
		return ic.timers.Load(shared, ic.gpu, width, off)
	}
	if off, ok := rangeCdRom.contains(abs); ok {
		return ic.cdrom.Load(shared, width, off)
	}
	if off, ok := rangePadMemCard.contains(abs); ok {
		return ic.padMemCard.Load(shared, width, off)
	}
	if off, ok := rangeSpu.contains(abs); ok {
		return ic.spu.Load(width, off)
	}
	if off, ok := rangeMDec.contains(abs); ok {
		return ic.mdec.Load(width, off)
	}
	if _, ok := rangeExpansion1.contains(abs); ok {
		// No expansion plugged in: open bus
		return ^uint32(0) >> (32 - 8*uint32(width))
	}
	if off, ok := rangeMemControl.contains(abs); ok {
		return ic.memControl[off>>2]
	}
	if _, ok := rangeRAMSize.contains(abs); ok {
		return ic.ramSize
	}
	if _, ok := rangeCacheControl.contains(abs); ok {
		return ic.cacheControl
	}

	panicf("unhandled %s load at address %08x", width, addr)
	return 0
}

// Store writes the low width bytes of val at addr.
func (ic *Interconnect) Store(shared *SharedState, width AccessWidth, addr uint32, val uint32) {
	if addr%uint32(width) != 0 {
		panicf("unaligned %s store at %08x: %08x", width, addr, val)
	}

	abs := maskRegion(addr)

	if off, ok := rangeRAM.contains(abs); ok {
		ic.ram.Store(width, off, val)
		return
	}
	if off, ok := rangeScratchPad.contains(abs); ok {
		ic.scratchPad.Store(width, off, val)
		return
	}
	if off, ok := rangeIRQControl.contains(abs); ok {
		ic.storeIRQ(shared, width, off, val)
		return
	}
	if off, ok := rangeDma.contains(abs); ok {
		if width != Word {
			panicf("unhandled %s DMA store at %08x: %08x", width, addr, val)
		}
		if port, start := ic.dma.Store(shared, off, val); start {
			ic.doDma(shared, port)
		}
		return
	}
	if off, ok := rangeGpu.contains(abs); ok {
		if ic.gpu.Store(shared, width, off, val) {
			ic.timers.VideoTimingsChanged(shared, ic.gpu)
		}
		return
	}
	if off, ok := rangeTimers.contains(abs); ok {
		ic.timers.Store(shared, ic.gpu, width, off, val)
		return
	}
	if off, ok := rangeCdRom.contains(abs); ok {
		ic.cdrom.Store(shared, width, off, val)
		return
	}
	if off, ok := rangePadMemCard.contains(abs); ok {
		ic.padMemCard.Store(shared, width, off, val)
		return
	}
	if off, ok := rangeSpu.contains(abs); ok {
		ic.spu.Store(width, off, val)
		return
	}
	if off, ok := rangeMDec.contains(abs); ok {
		ic.mdec.Store(width, off, val)
		return
	}
	if off, ok := rangeMemControl.contains(abs); ok {
		ic.storeMemControl(width, off, val)
		return
	}
	if _, ok := rangeRAMSize.contains(abs); ok {
		ic.ramSize = val
		return
	}
	if off, ok := rangeExpansion2.contains(abs); ok {
		if off == 0x41 {
			slog.Debug("POST", "status", fmt.Sprintf("%x", val&0xf))
		}
		return
	}
	if _, ok := rangeCacheControl.contains(abs); ok {
		ic.cacheControl = val
		return
	}
	if _, ok := rangeBIOS.contains(abs); ok {
		panicf("%s store to BIOS at %08x: %08x", width, addr, val)
	}

	panicf("unhandled %s store at address %08x: %08x", width, addr, val)
}

func (ic *Interconnect) loadIRQ(shared *SharedState, width AccessWidth, offset uint32) uint32 {
	if width == Byte {
		panicf("unhandled byte IRQ control load at offset %d", offset)
	}
	irq := shared.IRQ()
	switch offset {
	case 0:
		return uint32(irq.Status())
	case 4:
		return uint32(irq.Mask())
	}
	panicf("unhandled IRQ control load at offset %d", offset)
	return 0
}

func (ic *Interconnect) storeIRQ(shared *SharedState, width AccessWidth, offset uint32, val uint32) {
	if width == Byte {
		panicf("unhandled byte IRQ control store at offset %d: %02x", offset, val)
	}
	irq := shared.IRQ()
	switch offset {
	case 0:
		irq.Ack(uint16(val))
	case 4:
		irq.SetMask(uint16(val))
	default:
		panicf("unhandled IRQ control store at offset %d: %08x", offset, val)
	}
}

func (ic *Interconnect) storeMemControl(width AccessWidth, offset uint32, val uint32) {
	if width != Word {
		panicf("unhandled %s memory control store at offset %d: %08x", width, offset, val)
	}

	switch offset {
	case 0:
		if val != expansion1Base {
			panicf("bad expansion 1 base address: %08x", val)
		}
	case 4:
		if val != expansion2Base {
			panicf("bad expansion 2 base address: %08x", val)
		}
	default:
		slog.Debug("memory control write", "offset", offset, "value", fmt.Sprintf("%08x", val))
	}
	ic.memControl[offset>>2] = val
}

// ReadRAM returns the byte of main RAM at offset, mirrors included.
func (ic *Interconnect) ReadRAM(offset uint32) uint8 {
	return uint8(ic.ram.Load(Byte, offset))
}

// WriteRAM sets the byte of main RAM at offset.
func (ic *Interconnect) WriteRAM(offset uint32, v uint8) {
	ic.ram.Store(Byte, offset, uint32(v))
}
