package emu

import "testing"

func newTestInterconnect(t *testing.T) (*Interconnect, *SharedState) {
	t.Helper()

	bios, err := NewBIOS(make([]byte, BIOSSize))
	if err != nil {
		t.Fatalf("NewBIOS: %v", err)
	}

	shared := NewSharedState(nil)
	tk := shared.TimeKeeper()
	for p := Peripheral(0); p < peripheralCount; p++ {
		tk.NoSyncNeeded(p)
	}

	gpu := NewGpu(NTSC, nil)
	ic := NewInterconnect(bios, gpu, NewCdRom(nil), NewPadMemCard(PadDigital, PadDisconnected, nil, nil))
	return ic, shared
}

func TestInterconnectRAMMirrors(t *testing.T) {
	ic, shared := newTestInterconnect(t)

	ic.Store(shared, Word, 0x00000010, 0xdeadbeef)

	for _, addr := range []uint32{0x00000010, 0x80000010, 0xa0000010, 0x00200010, 0x80600010} {
		if got := ic.Load(shared, Word, addr); got != 0xdeadbeef {
			t.Errorf("load %08X: got 0x%08X, want 0xDEADBEEF", addr, got)
		}
	}
	if got := ic.Load(shared, Byte, 0x80000013); got != 0xde {
		t.Errorf("byte load: got 0x%02X, want 0xDE", got)
	}
	if got := ic.ReadRAM(0x10); got != 0xef {
		t.Errorf("ReadRAM: got 0x%02X, want 0xEF", got)
	}
}

func TestInterconnectBIOS(t *testing.T) {
	data := make([]byte, BIOSSize)
	data[0] = 0x3c
	data[1] = 0x08
	data[2] = 0x13
	data[3] = 0x00
	bios, err := NewBIOS(data)
	if err != nil {
		t.Fatalf("NewBIOS: %v", err)
	}
	shared := NewSharedState(nil)
	ic := NewInterconnect(bios, NewGpu(NTSC, nil), NewCdRom(nil), NewPadMemCard(PadDisconnected, PadDisconnected, nil, nil))

	if got := ic.Load(shared, Word, 0xbfc00000); got != 0x0013083c {
		t.Errorf("reset vector: got 0x%08X, want 0x0013083C", got)
	}
	if got := ic.Load(shared, Halfword, 0x9fc00002); got != 0x0013 {
		t.Errorf("KSEG0 halfword: got 0x%04X, want 0x0013", got)
	}
}

func TestInterconnectExpansion1OpenBus(t *testing.T) {
	ic, shared := newTestInterconnect(t)

	if got := ic.Load(shared, Byte, 0x1f000084); got != 0xff {
		t.Errorf("byte: got 0x%X, want 0xFF", got)
	}
	if got := ic.Load(shared, Word, 0x1f000080); got != 0xffffffff {
		t.Errorf("word: got 0x%X, want 0xFFFFFFFF", got)
	}
}

func TestInterconnectScratchPad(t *testing.T) {
	ic, shared := newTestInterconnect(t)

	ic.Store(shared, Halfword, 0x1f8003fe, 0x1234)
	if got := ic.Load(shared, Halfword, 0x1f8003fe); got != 0x1234 {
		t.Errorf("got 0x%04X, want 0x1234", got)
	}
}

func TestInterconnectIRQControl(t *testing.T) {
	ic, shared := newTestInterconnect(t)

	ic.Store(shared, Word, 0x1f801074, 1<<InterruptDma)
	if got := ic.Load(shared, Word, 0x1f801074); got != 1<<InterruptDma {
		t.Errorf("mask: got 0x%X", got)
	}

	shared.IRQ().Assert(InterruptDma)
	shared.IRQ().Assert(InterruptCdRom)
	if got := ic.Load(shared, Halfword, 0x1f801070); got != 1<<InterruptDma|1<<InterruptCdRom {
		t.Errorf("status: got 0x%X", got)
	}

	// Writing 0 to a bit acknowledges it
	ic.Store(shared, Word, 0x1f801070, ^uint32(1<<InterruptDma))
	if got := ic.Load(shared, Word, 0x1f801070); got != 1<<InterruptCdRom {
		t.Errorf("status after ack: got 0x%X", got)
	}
}

func TestInterconnectMemControl(t *testing.T) {
	ic, shared := newTestInterconnect(t)

	ic.Store(shared, Word, 0x1f801000, expansion1Base)
	ic.Store(shared, Word, 0x1f801004, expansion2Base)
	ic.Store(shared, Word, 0x1f801008, 0x0013243f)
	if got := ic.Load(shared, Word, 0x1f801008); got != 0x0013243f {
		t.Errorf("got 0x%08X", got)
	}

	defer func() {
		if recover() == nil {
			t.Error("expected panic for a relocated expansion 1")
		}
	}()
	ic.Store(shared, Word, 0x1f801000, 0x1f100000)
}

func TestInterconnectIgnoredWrites(t *testing.T) {
	ic, shared := newTestInterconnect(t)

	ic.Store(shared, Word, 0x1f801060, 0x00000b88)
	ic.Store(shared, Byte, 0x1f802041, 0x0f)
	ic.Store(shared, Word, 0xfffe0130, 0x0001e988)

	if got := ic.Load(shared, Word, 0x1f801060); got != 0x00000b88 {
		t.Errorf("RAM size: got 0x%X", got)
	}
	if got := ic.Load(shared, Word, 0xfffe0130); got != 0x0001e988 {
		t.Errorf("cache control: got 0x%X", got)
	}
}

func TestInterconnectFaults(t *testing.T) {
	tests := []struct {
		name string
		fn   func(ic *Interconnect, shared *SharedState)
	}{
		{"unaligned load", func(ic *Interconnect, s *SharedState) { ic.Load(s, Word, 0x00000002) }},
		{"unaligned store", func(ic *Interconnect, s *SharedState) { ic.Store(s, Halfword, 0x00000001, 0) }},
		{"BIOS store", func(ic *Interconnect, s *SharedState) { ic.Store(s, Word, 0xbfc00000, 0) }},
		{"unmapped load", func(ic *Interconnect, s *SharedState) { ic.Load(s, Word, 0x1f900000) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ic, shared := newTestInterconnect(t)
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			tt.fn(ic, shared)
		})
	}
}

func TestInterconnectGpuRegisters(t *testing.T) {
	ic, shared := newTestInterconnect(t)

	ic.Store(shared, Word, 0x1f801810, 0xe100000a)
	stat := ic.Load(shared, Word, 0x1f801814)
	if stat&0x7ff != 0x00a {
		t.Errorf("draw mode bits: got 0x%03X, want 0x00A", stat&0x7ff)
	}
	if stat&(7<<26) != 7<<26 {
		t.Errorf("ready bits not set: 0x%08X", stat)
	}
}

func dmaReg(port DmaPort, reg uint32) uint32 {
	return 0x1f801080 + uint32(port)*0x10 + reg
}

func TestDmaOrderingTableClear(t *testing.T) {
	ic, shared := newTestInterconnect(t)

	const entries = 8
	const base = 0x1000
	top := uint32(base + 4*(entries-1))

	ic.Store(shared, Word, dmaReg(DmaOtc, 0), top)
	ic.Store(shared, Word, dmaReg(DmaOtc, 4), entries)
	// Start, trigger, decrement
	ic.Store(shared, Word, dmaReg(DmaOtc, 8), 0x11000002)

	for i := uint32(0); i < entries; i++ {
		addr := base + 4*i
		got := ic.Load(shared, Word, addr)
		want := addr - 4
		if i == 0 {
			want = 0xffffff
		}
		if got != want {
			t.Errorf("entry %d at 0x%X: got 0x%06X, want 0x%06X", i, addr, got, want)
		}
	}

	if ic.Dma().Channel(DmaOtc).Active() {
		t.Error("channel still active after transfer")
	}
	if got := ic.Load(shared, Word, dmaReg(DmaOtc, 8)); got&(1<<24) != 0 {
		t.Errorf("enable bit still set: 0x%08X", got)
	}
}

func TestDmaBlockToGpu(t *testing.T) {
	ic, shared := newTestInterconnect(t)

	// Fill rectangle: command, position, size
	ic.Store(shared, Word, 0x2000, 0x020000ff)
	ic.Store(shared, Word, 0x2004, 0x00000000)
	ic.Store(shared, Word, 0x2008, 0x00010010)

	ic.Store(shared, Word, dmaReg(DmaGpu, 0), 0x2000)
	// 3 blocks of 1 word
	ic.Store(shared, Word, dmaReg(DmaGpu, 4), 0x00030001)
	// Request sync, from RAM
	ic.Store(shared, Word, dmaReg(DmaGpu, 8), 0x01000201)

	vram, ok := ic.Gpu().Renderer().(*VRAM)
	if !ok {
		t.Fatal("default renderer is not a VRAM")
	}
	if got := vram.ReadPixel(0, 0); got != 0x001f {
		t.Errorf("pixel (0,0): got 0x%04X, want 0x001F", got)
	}
	if got := vram.ReadPixel(15, 0); got != 0x001f {
		t.Errorf("pixel (15,0): got 0x%04X, want 0x001F", got)
	}
}

func TestDmaLinkedList(t *testing.T) {
	ic, shared := newTestInterconnect(t)

	// Packet at 0x1000: one word, next at 0x2000
	ic.Store(shared, Word, 0x1000, 0x01002000)
	ic.Store(shared, Word, 0x1004, 0xe1000005)
	// Empty packet at 0x2000 pointing to the last one
	ic.Store(shared, Word, 0x2000, 0x00003000)
	// Last packet
	ic.Store(shared, Word, 0x3000, 0x01ffffff)
	ic.Store(shared, Word, 0x3004, 0xe6000001)

	// DMA interrupt for the GPU channel
	ic.Store(shared, Word, 0x1f8010f4, 1<<23|1<<(16+DmaGpu))

	ic.Store(shared, Word, dmaReg(DmaGpu, 0), 0x1000)
	ic.Store(shared, Word, dmaReg(DmaGpu, 8), 0x01000401)

	stat := ic.Gpu().Status()
	if stat&0x7ff != 0x005 {
		t.Errorf("draw mode bits: got 0x%03X, want 0x005", stat&0x7ff)
	}
	if stat&(1<<11) == 0 {
		t.Error("mask bit setting from the last packet not applied")
	}

	if shared.IRQ().Status()&(1<<InterruptDma) == 0 {
		t.Error("DMA interrupt not asserted")
	}
	if got := ic.Load(shared, Word, 0x1f8010f4); got&(1<<(24+DmaGpu)) == 0 || got&(1<<31) == 0 {
		t.Errorf("DICR: got 0x%08X", got)
	}
}

func TestDmaInterruptRisingEdge(t *testing.T) {
	ic, shared := newTestInterconnect(t)

	ic.Store(shared, Word, 0x1f8010f4, 1<<23|1<<(16+DmaOtc))

	run := func() {
		ic.Store(shared, Word, dmaReg(DmaOtc, 0), 0x100)
		ic.Store(shared, Word, dmaReg(DmaOtc, 4), 1)
		ic.Store(shared, Word, dmaReg(DmaOtc, 8), 0x11000002)
	}

	run()
	if shared.IRQ().Status()&(1<<InterruptDma) == 0 {
		t.Fatal("DMA interrupt not asserted")
	}
	shared.IRQ().Ack(0)

	// The flag is still set so the master IRQ stays high: no new edge
	run()
	if shared.IRQ().Status()&(1<<InterruptDma) != 0 {
		t.Error("DMA interrupt asserted without a rising edge")
	}

	// Acknowledge the channel flag, then a new transfer raises it again
	ic.Store(shared, Word, 0x1f8010f4, 1<<23|1<<(16+DmaOtc)|1<<(24+DmaOtc))
	run()
	if shared.IRQ().Status()&(1<<InterruptDma) == 0 {
		t.Error("DMA interrupt not asserted after acknowledge")
	}
}

func TestDmaLinkedListOnlyForGpu(t *testing.T) {
	ic, shared := newTestInterconnect(t)

	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	ic.Store(shared, Word, dmaReg(DmaSpu, 8), 0x01000401)
}
