package emu

import (
	"errors"
	"testing"

	emucore "github.com/user-none/eblitui/api"
)

func TestNewEmulator_BadBIOS(t *testing.T) {
	_, err := NewEmulator(Config{BIOS: make([]byte, 1024)})
	if !errors.Is(err, ErrBadBIOS) {
		t.Errorf("got %v, want ErrBadBIOS", err)
	}
}

func TestRunFrame_AdvancesOneFrame(t *testing.T) {
	e := createTestEmulator(t, Config{})
	shared := e.Shared()
	tk := shared.TimeKeeper()

	e.RunFrame()
	if got := shared.Counters().Frame.Get(); got != 1 {
		t.Fatalf("frame counter after first frame: got %d, want 1", got)
	}
	if shared.IRQ().Status()&(1<<InterruptVBlank) == 0 {
		t.Error("VBlank interrupt not asserted")
	}

	start := tk.Now()
	e.RunFrame()
	if got := shared.Counters().Frame.Get(); got != 2 {
		t.Fatalf("frame counter after second frame: got %d, want 2", got)
	}

	// 263 lines of 3412 GPU ticks
	want := Cycles(263 * 3412 * CPUFreqHz / 53_690_000)
	if got := tk.Now() - start; got < want-100 || got > want+100 {
		t.Errorf("frame length: got %d cycles, want about %d", got, want)
	}
}

func TestRunFrame_BoundedWithoutVBlank(t *testing.T) {
	e := createTestEmulator(t, Config{})
	tk := e.Shared().TimeKeeper()

	// Keep every peripheral quiet: the loop must stop on its own
	for p := Peripheral(0); p < peripheralCount; p++ {
		tk.NoSyncNeeded(p)
	}
	tk.UpdateSyncPending()

	e.RunFrame()
	if got := tk.Now(); got != e.maxFrameCycles {
		t.Errorf("clock: got %d, want %d", got, e.maxFrameCycles)
	}
}

// countingCPU counts Run calls and behaves like IdleCPU.
type countingCPU struct {
	IdleCPU
	resets int
	runs   int
}

func (c *countingCPU) Reset() { c.resets++ }

func (c *countingCPU) Run(bus Bus, shared *SharedState, until Cycles) {
	c.runs++
	c.IdleCPU.Run(bus, shared, until)
}

func TestEmulator_UsesCPU(t *testing.T) {
	cpu := &countingCPU{}
	e := createTestEmulator(t, Config{CPU: cpu})
	if cpu.resets != 1 {
		t.Errorf("Reset called %d times, want 1", cpu.resets)
	}
	e.RunFrame()
	if cpu.runs == 0 {
		t.Error("CPU never ran")
	}
}

func TestSetInput(t *testing.T) {
	e := createTestEmulator(t, Config{Pad1: PadDigital})

	e.SetInput(0, 1<<InputCross|1<<InputStart|1<<uint(emucore.ButtonUp))

	p, ok := e.ic.PadMemCard().Pad(0).Profile().(*DigitalProfile)
	if !ok {
		t.Fatal("port 1 is not a digital pad")
	}
	want := uint16(0xffff) &^ (1<<ButtonCross | 1<<ButtonStart | 1<<ButtonUp)
	if got := p.Buttons(); got != want {
		t.Errorf("buttons: got 0x%04X, want 0x%04X", got, want)
	}

	e.SetInput(0, 0)
	if got := p.Buttons(); got != 0xffff {
		t.Errorf("released buttons: got 0x%04X", got)
	}

	// Out of range players are ignored
	e.SetInput(5, 0xffff)
}

func TestSetOption(t *testing.T) {
	e := createTestEmulator(t, Config{Pad1: PadDigital})
	pm := e.ic.PadMemCard()

	e.SetOption("pad2", "digital")
	if pm.Pad(1).Profile().Type() != PadDigital {
		t.Error("pad2 option not applied")
	}
	e.SetOption("pad2", "bogus")
	if pm.Pad(1).Profile().Type() != PadDigital {
		t.Error("invalid pad2 value changed the pad")
	}
	e.SetOption("pad2", "false")
	if pm.Pad(1).Profile().Type() != PadDisconnected {
		t.Error("pad2=false did not unplug the pad")
	}

	e.SetOption("memcard2", "true")
	if pm.MemCard(1) == nil {
		t.Error("memcard2 not inserted")
	}
	e.SetOption("memcard2", "false")
	if pm.MemCard(1) != nil {
		t.Error("memcard2 not removed")
	}
}

func TestSRAM(t *testing.T) {
	e := createTestEmulator(t, Config{})
	if e.HasSRAM() || e.GetSRAM() != nil {
		t.Fatal("SRAM reported without a memory card")
	}

	e = createTestEmulator(t, Config{MemCard1: NewMemCard()})
	if !e.HasSRAM() {
		t.Fatal("HasSRAM false with a memory card")
	}

	data := e.GetSRAM()
	if len(data) != MemCardSize || data[0] != 'M' || data[1] != 'C' {
		t.Fatalf("unexpected card image: len %d", len(data))
	}

	data[0x80*64] = 0x77
	e.SetSRAM(data)
	if got := e.GetSRAM()[0x80*64]; got != 0x77 {
		t.Errorf("SetSRAM not applied: got 0x%02X", got)
	}

	// Bad sizes are ignored
	e.SetSRAM(make([]byte, 10))
	if got := e.GetSRAM()[0x80*64]; got != 0x77 {
		t.Error("short image overwrote the card")
	}
}

func TestReadMemory(t *testing.T) {
	e := createTestEmulator(t, Config{})
	shared := e.Shared()

	e.ic.Store(shared, Word, 0x001ffffc, 0x44332211)
	e.ic.Store(shared, Byte, 0x1f800000, 0x99)

	buf := make([]byte, 4)
	if n := e.ReadMemory(0x1ffffc, buf); n != 4 {
		t.Fatalf("read %d bytes, want 4", n)
	}
	if buf[0] != 0x11 || buf[3] != 0x44 {
		t.Errorf("RAM bytes: % x", buf)
	}

	if n := e.ReadMemory(scratchPadStart, buf[:1]); n != 1 || buf[0] != 0x99 {
		t.Errorf("scratchpad: n=%d byte=0x%02X", n, buf[0])
	}

	// Stops at the first unmapped byte
	if n := e.ReadMemory(scratchPadEnd, buf); n != 1 {
		t.Errorf("read past scratchpad: got %d bytes, want 1", n)
	}
}

func TestMemoryMap(t *testing.T) {
	e := createTestEmulator(t, Config{MemCard1: NewMemCard()})

	regions := e.MemoryMap()
	if len(regions) != 2 {
		t.Fatalf("got %d regions, want 2", len(regions))
	}
	if regions[0].Type != emucore.MemorySystemRAM || regions[0].Size != ramSize {
		t.Errorf("system RAM region: %+v", regions[0])
	}
	if regions[1].Type != emucore.MemorySaveRAM || regions[1].Size != MemCardSize {
		t.Errorf("save RAM region: %+v", regions[1])
	}

	ram := make([]byte, ramSize)
	ram[5] = 0xab
	e.WriteRegion(emucore.MemorySystemRAM, ram)
	if got := e.ReadRegion(emucore.MemorySystemRAM)[5]; got != 0xab {
		t.Errorf("system RAM round trip: got 0x%02X", got)
	}
}

func TestGetTiming(t *testing.T) {
	e := createTestEmulator(t, Config{Region: RegionPAL})
	if got := e.GetTiming(); got.FPS != 50 || got.Scanlines != 314 {
		t.Errorf("PAL timing: %+v", got)
	}
	if e.Interconnect().Gpu().Standard() != PAL {
		t.Error("GPU not clocked for PAL")
	}

	e.SetRegion(RegionNTSC)
	if got := e.GetTiming(); got.FPS != 60 {
		t.Errorf("NTSC timing: %+v", got)
	}
}

func TestFramebuffer(t *testing.T) {
	e := createTestEmulator(t, Config{})

	if got := e.GetActiveHeight(); got != 240 {
		t.Errorf("height before first frame: got %d, want 240", got)
	}
	if got := e.GetFramebufferStride(); got != ScreenWidth*4 {
		t.Errorf("stride: got %d", got)
	}
	if got := len(e.GetFramebuffer()); got != ScreenWidth*4*MaxScreenHeight {
		t.Errorf("framebuffer size: got %d", got)
	}
}
