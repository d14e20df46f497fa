package emu

import "fmt"

// VideoStandard is the video clock of the console or the output mode
// selected by GP1(0x08).
type VideoStandard uint8

const (
	NTSC VideoStandard = iota
	PAL
)

func (s VideoStandard) String() string {
	if s == PAL {
		return "PAL"
	}
	return "NTSC"
}

// DmaDirection is the GPU DMA request mode set by GP1(0x04).
type DmaDirection uint8

const (
	DmaDirectionOff DmaDirection = iota
	DmaDirectionFifo
	DmaDirectionCpuToGp0
	DmaDirectionVRAMToCpu
)

// hres is the 3-bit horizontal resolution field of the status register:
// bit 0 selects 368 pixels, bits 1-2 select 256/320/512/640.
type hres uint8

func hresFromFields(hr1, hr2 uint8) hres {
	return hres(hr2&1 | (hr1&3)<<1)
}

// dotclockDivider is the number of GPU ticks per pixel.
func (h hres) dotclockDivider() uint8 {
	if h&1 != 0 {
		return 7
	}
	switch h >> 1 {
	case 0:
		return 10
	case 1:
		return 8
	case 2:
		return 5
	default:
		return 4
	}
}

func (h hres) width() uint16 {
	if h&1 != 0 {
		return 368
	}
	return [4]uint16{256, 320, 512, 640}[h>>1]
}

// imageTransfer tracks a GP0(0xa0) load or GP0(0xc0) store.
type imageTransfer struct {
	active  bool
	topLeft [2]uint16
	dims    [2]uint16
	// Pixels consumed so far
	index uint32
}

func (t *imageTransfer) pixelCount() uint32 {
	return uint32(t.dims[0]) * uint32(t.dims[1])
}

// Gpu models the GPU registers, the GP0 command parser and the video
// timings. Drawing is delegated to a Renderer.
type Gpu struct {
	renderer Renderer

	// Console video clock, fixed at construction
	standard VideoStandard
	// GPU ticks per CPU cycle
	clockRatio FracCycles

	pageBaseX            uint8
	pageBaseY            uint8
	semiTransparency     uint8
	textureDepth         TextureDepth
	dithering            bool
	drawToDisplay        bool
	forceSetMaskBit      bool
	preserveMaskedPixels bool
	// Currently displayed field, always top for progressive output
	fieldTop        bool
	textureDisable  bool
	hres            hres
	vres480         bool
	vmode           VideoStandard
	displayDepth24  bool
	interlaced      bool
	displayDisabled bool
	interrupt       bool
	dmaDirection    DmaDirection

	rectTextureXFlip bool
	rectTextureYFlip bool

	textureWindowXMask   uint8
	textureWindowYMask   uint8
	textureWindowXOffset uint8
	textureWindowYOffset uint8

	drawingAreaLeft   uint16
	drawingAreaTop    uint16
	drawingAreaRight  uint16
	drawingAreaBottom uint16
	drawingXOffset    int16
	drawingYOffset    int16

	displayVRAMXStart uint16
	displayVRAMYStart uint16
	displayHorizStart uint16
	displayHorizEnd   uint16
	displayLineStart  uint16
	displayLineEnd    uint16

	// GP0 parser
	gp0State     gp0State
	gp0Command   CommandBuffer
	gp0Remaining uint32
	gp0Opcode    uint8
	imageLoad    imageTransfer
	imageBuffer  []uint16
	polyline     polylineState

	// GPUREAD
	readWord   uint32
	imageStore imageTransfer

	// Video timings
	gpuClockPhase   uint16
	displayLine     uint16
	displayLineTick uint16
	vblank          bool
}

// NewGpu returns a GPU in its reset state. standard selects the video
// clock of the console. A nil renderer selects a VRAM sink.
func NewGpu(standard VideoStandard, renderer Renderer) *Gpu {
	if renderer == nil {
		renderer = NewVRAM()
	}
	g := &Gpu{
		renderer:    renderer,
		standard:    standard,
		clockRatio:  gpuClockRatio(standard),
		imageBuffer: make([]uint16, 0, vramWidth*vramHeight),
	}
	g.reset()
	g.vmode = standard
	g.vblank = g.inVBlank()
	return g
}

// Standard returns the console video clock.
func (g *Gpu) Standard() VideoStandard {
	return g.standard
}

// Renderer returns the renderer commands are sent to.
func (g *Gpu) Renderer() Renderer {
	return g.renderer
}

// Status returns the GPUSTAT register.
func (g *Gpu) Status() uint32 {
	var r uint32

	r |= uint32(g.pageBaseX)
	r |= uint32(g.pageBaseY) << 4
	r |= uint32(g.semiTransparency) << 5
	r |= uint32(g.textureDepth) << 7
	r |= uint32(boolByte(g.dithering)) << 9
	r |= uint32(boolByte(g.drawToDisplay)) << 10
	r |= uint32(boolByte(g.forceSetMaskBit)) << 11
	r |= uint32(boolByte(g.preserveMaskedPixels)) << 12
	r |= uint32(boolByte(g.fieldTop)) << 13
	// Bit 14 (reverse flag) is not supported
	r |= uint32(boolByte(g.textureDisable)) << 15
	r |= uint32(g.hres) << 16
	r |= uint32(boolByte(g.vres480)) << 19
	r |= uint32(g.vmode) << 20
	r |= uint32(boolByte(g.displayDepth24)) << 21
	r |= uint32(boolByte(g.interlaced)) << 22
	r |= uint32(boolByte(g.displayDisabled)) << 23
	r |= uint32(boolByte(g.interrupt)) << 24

	// Always ready to receive a command, to send VRAM and to receive a
	// DMA block
	r |= 1 << 26
	r |= 1 << 27
	r |= 1 << 28

	r |= uint32(g.dmaDirection) << 29

	// Parity of the line being displayed, 0 during vertical blanking
	if !g.vblank {
		r |= uint32(g.displayLine&1) << 31
	}

	var dmaRequest uint32
	switch g.dmaDirection {
	case DmaDirectionFifo:
		// FIFO never fills up
		dmaRequest = 1
	case DmaDirectionCpuToGp0:
		dmaRequest = (r >> 28) & 1
	case DmaDirectionVRAMToCpu:
		dmaRequest = (r >> 27) & 1
	}
	r |= dmaRequest << 25

	return r
}

// Load reads GPUREAD (offset 0) or GPUSTAT (offset 4).
func (g *Gpu) Load(shared *SharedState, width AccessWidth, offset uint32) uint32 {
	if width != Word {
		panicf("unhandled GPU load (%s) at offset %d", width, offset)
	}

	g.Sync(shared)

	switch offset {
	case 0:
		return g.Read()
	case 4:
		return g.Status()
	}
	panicf("unhandled GPU load at offset %d", offset)
	return 0
}

// Store writes GP0 (offset 0) or GP1 (offset 4). It reports whether the
// video timings changed so that the timers can be updated.
func (g *Gpu) Store(shared *SharedState, width AccessWidth, offset uint32, val uint32) bool {
	if width != Word {
		panicf("unhandled GPU store (%s) at offset %d: %08x", width, offset, val)
	}

	g.Sync(shared)

	switch offset {
	case 0:
		g.Gp0(shared, val)
		return false
	case 4:
		return g.Gp1(shared, val)
	}
	panicf("unhandled GPU store at offset %d: %08x", offset, val)
	return false
}

// Read returns the next GPUREAD word.
func (g *Gpu) Read() uint32 {
	if !g.imageStore.active {
		return g.readWord
	}

	reader, ok := g.renderer.(VRAMReader)
	var pixels [2]uint16
	for i := range pixels {
		t := &g.imageStore
		if t.index >= t.pixelCount() {
			break
		}
		x := t.topLeft[0] + uint16(t.index%uint32(t.dims[0]))
		y := t.topLeft[1] + uint16(t.index/uint32(t.dims[0]))
		if ok {
			pixels[i] = reader.ReadPixel(x, y)
		}
		t.index++
	}
	if g.imageStore.index >= g.imageStore.pixelCount() {
		g.imageStore.active = false
	}

	g.readWord = uint32(pixels[0]) | uint32(pixels[1])<<16
	return g.readWord
}

// displayResolution returns the output size in pixels.
func (g *Gpu) displayResolution() [2]uint16 {
	h := uint16(240)
	if g.vmode == PAL {
		h = 256
	}
	if g.vres480 && g.interlaced {
		h *= 2
	}
	return [2]uint16{g.hres.width(), h}
}

func (g *Gpu) updateDisplayMode() {
	g.renderer.SetDisplayMode(
		[2]uint16{g.displayVRAMXStart, g.displayVRAMYStart},
		g.displayResolution(),
		g.displayDepth24)
}

func (g *Gpu) String() string {
	return fmt.Sprintf("%s %dx%d line %d tick %d",
		g.vmode, g.hres.width(), g.displayResolution()[1], g.displayLine, g.displayLineTick)
}
