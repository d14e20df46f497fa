package emu

// DMA transfers run instantly: the whole block is copied when the channel
// starts. Bus contention is not modeled.

const (
	dmaAddrMask = 0x1ffffc
	// Marks the last packet of a GPU command list
	dmaListEnd = 0x800000
	// Bound on the number of packets walked in one list. A list longer
	// than that loops.
	dmaListMaxPackets = ramSize / 4
)

func (ic *Interconnect) doDma(shared *SharedState, port DmaPort) {
	shared.Trace("dma", "start", TraceU8(uint8(port)))

	switch port {
	case DmaGpu:
		ic.gpu.Sync(shared)
	case DmaCdRom:
		ic.cdrom.Sync(shared)
	}

	if ic.dma.Channel(port).Sync() == DmaSyncLinkedList {
		ic.doDmaLinkedList(shared, port)
	} else {
		ic.doDmaBlock(shared, port)
	}

	ic.dma.Done(shared, port)
}

func (ic *Interconnect) doDmaBlock(shared *SharedState, port DmaPort) {
	ch := ic.dma.Channel(port)

	step := uint32(4)
	if ch.Step() == DmaDecrement {
		step = ^uint32(3)
	}

	addr := ch.Base()
	remaining, _ := ch.TransferSize()
	if remaining == 0 && ch.Sync() == DmaSyncManual {
		// A block size of 0 means the maximum
		remaining = 0x10000
	}

	for ; remaining > 0; remaining-- {
		cur := addr & dmaAddrMask

		switch ch.Direction() {
		case DmaFromRam:
			word := ic.ram.Load(Word, cur)
			switch port {
			case DmaGpu:
				ic.gpu.Gp0(shared, word)
			case DmaMDecIn:
				ic.mdec.DmaWriteWord(word)
			case DmaSpu:
				ic.spu.DmaWriteWord(word)
			default:
				panicf("unhandled DMA write to %s", port)
			}
		case DmaToRam:
			var word uint32
			switch port {
			case DmaOtc:
				if remaining == 1 {
					// End of table
					word = 0xffffff
				} else {
					// Pointer to the previous entry
					word = (addr - 4) & 0x1fffff
				}
			case DmaGpu:
				word = ic.gpu.Read()
			case DmaCdRom:
				word = ic.cdrom.DmaReadWord()
			case DmaMDecOut:
				word = ic.mdec.DmaReadWord()
			case DmaSpu:
				word = ic.spu.DmaReadWord()
			default:
				panicf("unhandled DMA read from %s", port)
			}
			ic.ram.Store(Word, cur, word)
		}

		addr += step
	}
}

// doDmaLinkedList walks a list of GP0 command packets. Each packet starts
// with a header word holding the word count in the top byte and the
// address of the next packet in the low 24 bits.
func (ic *Interconnect) doDmaLinkedList(shared *SharedState, port DmaPort) {
	ch := ic.dma.Channel(port)

	if port != DmaGpu {
		panicf("linked list DMA on port %s", port)
	}
	if ch.Direction() == DmaToRam {
		panicf("linked list DMA to RAM")
	}

	addr := ch.Base() & dmaAddrMask

	for packets := 0; ; packets++ {
		if packets >= dmaListMaxPackets {
			panicf("GPU command list at %06x does not terminate", ch.Base())
		}

		header := ic.ram.Load(Word, addr)

		for count := header >> 24; count > 0; count-- {
			addr = (addr + 4) & dmaAddrMask
			ic.gpu.Gp0(shared, ic.ram.Load(Word, addr))
		}

		if header&dmaListEnd != 0 {
			break
		}
		addr = header & dmaAddrMask
	}
}
