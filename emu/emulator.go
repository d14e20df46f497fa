package emu

import (
	"fmt"
	"image"
	"log/slog"

	emucore "github.com/user-none/eblitui/api"
	"github.com/user-none/empsx/disc"
)

// Compile-time interface checks.
var _ emucore.Emulator = (*Emulator)(nil)
var _ emucore.SaveStater = (*Emulator)(nil)
var _ emucore.BatterySaver = (*Emulator)(nil)
var _ emucore.MemoryInspector = (*Emulator)(nil)
var _ emucore.MemoryMapper = (*Emulator)(nil)

const (
	Name    = "empsx"
	Version = "0.1.0"
)

// Flat address boundaries for ReadMemory.
const (
	mainRAMStart    = 0x000000
	mainRAMEnd      = mainRAMStart + ramSize - 1
	scratchPadStart = 0x200000
	scratchPadEnd   = scratchPadStart + scratchpadSize - 1
)

// Input bits after the emucore d-pad bits.
const (
	InputCross    = 4
	InputCircle   = 5
	InputSquare   = 6
	InputTriangle = 7
	InputL1       = 8
	InputR1       = 9
	InputL2       = 10
	InputR2       = 11
	InputStart    = 12
	InputSelect   = 13
)

// inputButtons maps SetInput bits to pad buttons.
var inputButtons = [...]struct {
	bit    uint
	button Button
}{
	{uint(emucore.ButtonUp), ButtonUp},
	{uint(emucore.ButtonDown), ButtonDown},
	{uint(emucore.ButtonLeft), ButtonLeft},
	{uint(emucore.ButtonRight), ButtonRight},
	{InputCross, ButtonCross},
	{InputCircle, ButtonCircle},
	{InputSquare, ButtonSquare},
	{InputTriangle, ButtonTriangle},
	{InputL1, ButtonL1},
	{InputR1, ButtonR1},
	{InputL2, ButtonL2},
	{InputR2, ButtonR2},
	{InputStart, ButtonStart},
	{InputSelect, ButtonSelect},
}

// Config holds everything needed to power on the console.
type Config struct {
	// 512KiB BIOS image
	BIOS []byte
	// Loaded disc, nil for an empty drive
	Disc CdDisc
	// Video clock of the console
	Region Region
	Pad1   PadType
	Pad2   PadType
	// Memory cards, nil for an empty slot
	MemCard1 *MemCard
	MemCard2 *MemCard
	// Optional collaborators. Defaults: IdleCPU, VRAM, no tracing.
	CPU      CPU
	Renderer Renderer
	Tracer   Tracer
}

// framebufferSource is implemented by renderers that produce an RGBA
// frame for the frontend.
type framebufferSource interface {
	Framebuffer() *image.RGBA
	Height() int
}

// Emulator drives the CPU and the peripherals frame by frame.
type Emulator struct {
	shared *SharedState
	ic     *Interconnect
	cpu    CPU
	fb     framebufferSource
	vram   *VRAM

	region  Region
	timing  RegionTiming
	discCRC uint32

	// Frames are bounded by this many cycles so that a GPU with the
	// display disabled cannot stall the frontend
	maxFrameCycles Cycles
}

// RegionForDisc returns the video clock matching the disc region. Without
// a disc the console defaults to NTSC.
func RegionForDisc(d CdDisc) Region {
	if d != nil && d.Region() == disc.RegionEurope {
		return RegionPAL
	}
	return RegionNTSC
}

// NewEmulator powers on a console.
func NewEmulator(cfg Config) (*Emulator, error) {
	bios, err := NewBIOS(cfg.BIOS)
	if err != nil {
		return nil, fmt.Errorf("loading BIOS: %w", err)
	}

	standard := NTSC
	if cfg.Region == RegionPAL {
		standard = PAL
	}

	renderer := cfg.Renderer
	if renderer == nil {
		renderer = NewVRAM()
	}
	cpu := cfg.CPU
	if cpu == nil {
		cpu = IdleCPU{}
	}

	gpu := NewGpu(standard, renderer)
	padMemCard := NewPadMemCard(cfg.Pad1, cfg.Pad2, cfg.MemCard1, cfg.MemCard2)

	e := &Emulator{
		shared: NewSharedState(cfg.Tracer),
		ic:     NewInterconnect(bios, gpu, NewCdRom(cfg.Disc), padMemCard),
		cpu:    cpu,
		region: cfg.Region,
		timing: GetTimingForRegion(cfg.Region),
	}
	e.fb, _ = renderer.(framebufferSource)
	e.vram, _ = renderer.(*VRAM)
	if c, ok := cfg.Disc.(interface{ CRC() uint32 }); ok {
		e.discCRC = c.CRC()
	}
	e.maxFrameCycles = Cycles(2 * CPUFreqHz / e.timing.FPS)

	e.cpu.Reset()

	slog.Info("console powered on",
		"standard", standard,
		"bios_crc", fmt.Sprintf("%08x", bios.CRC()),
		"disc", cfg.Disc != nil)

	return e, nil
}

// Shared returns the state shared by the peripherals.
func (e *Emulator) Shared() *SharedState {
	return e.shared
}

// Interconnect returns the bus.
func (e *Emulator) Interconnect() *Interconnect {
	return e.ic
}

// RunFrame runs until the GPU starts a new frame.
func (e *Emulator) RunFrame() {
	shared := e.shared
	tk := shared.TimeKeeper()
	counters := shared.Counters()

	frame := counters.Frame.Get()
	limit := tk.Now() + e.maxFrameCycles

	for counters.Frame.Get() == frame && tk.Now() < limit {
		deadline := min(tk.NextSync(), limit)
		e.cpu.Run(e.ic, shared, deadline)
		e.ic.Sync(shared)
		tk.UpdateSyncPending()
	}
}

// SetInput unpacks a button bitmask and sets controller state for the given player.
func (e *Emulator) SetInput(player int, buttons uint32) {
	if player < 0 || player > 1 {
		return
	}
	profile := e.ic.PadMemCard().Pad(player).Profile()
	for _, b := range inputButtons {
		profile.SetButton(b.button, buttons&(1<<b.bit) != 0)
	}
}

// SetPadType plugs a controller of type t in port n (0 or 1).
func (e *Emulator) SetPadType(n int, t PadType) {
	e.ic.PadMemCard().Pad(n).SetProfile(newProfile(t))
}

// SetMemCardInserted inserts a blank card in slot n or removes the card.
func (e *Emulator) SetMemCardInserted(n int, inserted bool) {
	pm := e.ic.PadMemCard()
	switch {
	case inserted && pm.MemCard(n) == nil:
		pm.SetMemCard(n, NewMemCard())
	case !inserted:
		pm.SetMemCard(n, nil)
	}
}

// GetFramebuffer returns raw RGBA pixel data for current frame.
func (e *Emulator) GetFramebuffer() []byte {
	if e.fb == nil {
		return nil
	}
	return e.fb.Framebuffer().Pix
}

// GetFramebufferStride returns the stride (bytes per row) of the framebuffer.
func (e *Emulator) GetFramebufferStride() int {
	if e.fb == nil {
		return ScreenWidth * 4
	}
	return e.fb.Framebuffer().Stride
}

// GetActiveHeight returns the number of displayed lines. Until the first
// frame is out it reports the default 240 line mode.
func (e *Emulator) GetActiveHeight() int {
	if e.fb == nil || e.fb.Height() == 0 {
		return 240
	}
	return e.fb.Height()
}

// GetAudioSamples returns no samples: the SPU does not mix audio.
func (e *Emulator) GetAudioSamples() []int16 {
	return nil
}

// GetRegion returns the emulator's region setting.
func (e *Emulator) GetRegion() Region {
	return e.region
}

// SetRegion updates the reported frame timing. The GPU video clock is
// fixed at power on.
func (e *Emulator) SetRegion(region Region) {
	e.region = region
	e.timing = GetTimingForRegion(region)
	e.maxFrameCycles = Cycles(2 * CPUFreqHz / e.timing.FPS)
}

// GetTiming returns FPS and scanline count for the current region.
func (e *Emulator) GetTiming() emucore.Timing {
	return emucore.Timing{
		FPS:       e.timing.FPS,
		Scanlines: e.timing.Scanlines,
	}
}

// HasSRAM reports whether a memory card sits in slot 1.
func (e *Emulator) HasSRAM() bool {
	return e.ic.PadMemCard().MemCard(0) != nil
}

// GetSRAM returns a copy of memory card 1.
func (e *Emulator) GetSRAM() []byte {
	card := e.ic.PadMemCard().MemCard(0)
	if card == nil {
		return nil
	}
	out := make([]byte, MemCardSize)
	copy(out, card.Data())
	card.ClearDirty()
	return out
}

// SetSRAM loads memory card 1 from a save file.
func (e *Emulator) SetSRAM(data []byte) {
	card := e.ic.PadMemCard().MemCard(0)
	if card == nil {
		return
	}
	if err := card.Load(data); err != nil {
		slog.Warn("ignoring memory card image", "error", err)
	}
}

// ReadMainRAM reads a single byte of main RAM.
func (e *Emulator) ReadMainRAM(addr uint32) byte {
	return e.ic.ReadRAM(addr)
}

// GetMainRAM returns a copy of main RAM.
func (e *Emulator) GetMainRAM() []byte {
	out := make([]byte, ramSize)
	copy(out, e.ic.RAM().data[:])
	return out
}

// SetMainRAM writes data into main RAM.
func (e *Emulator) SetMainRAM(data []byte) {
	copy(e.ic.RAM().data[:], data)
}

// Close releases any resources held by the emulator.
func (e *Emulator) Close() {}

// SetOption applies a core option change identified by key.
func (e *Emulator) SetOption(key string, value string) {
	switch key {
	case "pad2":
		// The bool form comes from frontends with a checkbox option.
		switch value {
		case "true":
			value = PadDigital.String()
		case "false":
			value = PadDisconnected.String()
		}
		t, err := ParsePadType(value)
		if err != nil {
			slog.Warn("ignoring core option", "key", key, "error", err)
			return
		}
		e.SetPadType(1, t)
	case "memcard1":
		e.SetMemCardInserted(0, value == "true")
	case "memcard2":
		e.SetMemCardInserted(1, value == "true")
	}
}

// ReadMemory reads from a flat address into buf and returns the number
// of bytes read. Main RAM is at 0, the scratchpad follows at 0x200000.
func (e *Emulator) ReadMemory(addr uint32, buf []byte) uint32 {
	var count uint32
	for i := range buf {
		cur := addr + uint32(i)
		var b byte
		switch {
		case cur <= mainRAMEnd:
			b = e.ReadMainRAM(cur - mainRAMStart)
		case cur >= scratchPadStart && cur <= scratchPadEnd:
			b = e.ic.ScratchPad().data[cur-scratchPadStart]
		default:
			return count
		}
		buf[i] = b
		count++
	}
	return count
}

// MemoryMap returns a list of available memory regions with sizes.
func (e *Emulator) MemoryMap() []emucore.MemoryRegion {
	regions := []emucore.MemoryRegion{
		{Type: emucore.MemorySystemRAM, Size: ramSize},
	}
	if e.HasSRAM() {
		regions = append(regions, emucore.MemoryRegion{
			Type: emucore.MemorySaveRAM,
			Size: MemCardSize,
		})
	}
	return regions
}

// ReadRegion returns a copy of the specified memory region.
func (e *Emulator) ReadRegion(regionType int) []byte {
	switch regionType {
	case emucore.MemorySystemRAM:
		return e.GetMainRAM()
	case emucore.MemorySaveRAM:
		return e.GetSRAM()
	default:
		return nil
	}
}

// WriteRegion writes data to the specified memory region.
func (e *Emulator) WriteRegion(regionType int, data []byte) {
	switch regionType {
	case emucore.MemorySystemRAM:
		e.SetMainRAM(data)
	case emucore.MemorySaveRAM:
		e.SetSRAM(data)
	}
}
