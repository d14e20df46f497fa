package emu

// Gp1 handles a write to the GP1 display control port. It reports whether
// the video timings changed.
func (g *Gpu) Gp1(shared *SharedState, val uint32) bool {
	op := val >> 24

	switch {
	case op == 0x00:
		g.reset()
		g.updateDisplayMode()
	case op == 0x01:
		g.resetCommandBuffer()
	case op == 0x02:
		g.interrupt = false
	case op == 0x03:
		g.displayDisabled = val&1 != 0
	case op == 0x04:
		g.dmaDirection = DmaDirection(val & 3)
	case op == 0x05:
		g.displayVRAMXStart = uint16(val & 0x3fe)
		g.displayVRAMYStart = uint16((val >> 10) & 0x1ff)
		shared.Counters().FramebufferSwap.Increment()
		g.updateDisplayMode()
		return false
	case op == 0x06:
		g.displayHorizStart = uint16(val & 0xfff)
		g.displayHorizEnd = uint16((val >> 12) & 0xfff)
	case op == 0x07:
		g.displayLineStart = uint16(val & 0x3ff)
		g.displayLineEnd = uint16((val >> 10) & 0x3ff)
	case op == 0x08:
		g.setDisplayMode(val)
	case op >= 0x10 && op <= 0x1f:
		g.getInfo(val)
		return false
	default:
		panicf("unhandled GP1 command %08x", val)
	}

	switch op {
	case 0x00, 0x06, 0x07, 0x08:
		// Blanking and line length may have moved
		if g.displayLineTick >= g.ticksPerLine() {
			g.displayLineTick = g.ticksPerLine() - 1
		}
		g.displayLine %= g.linesPerFrame()
		g.updateVBlank(shared)
		g.predictNextSync(shared)
		return true
	}
	return false
}

// reset is GP1(0x00).
func (g *Gpu) reset() {
	g.interrupt = false

	g.pageBaseX = 0
	g.pageBaseY = 0
	g.semiTransparency = 0
	g.textureDepth = TextureDepth4Bpp
	g.textureWindowXMask = 0
	g.textureWindowYMask = 0
	g.textureWindowXOffset = 0
	g.textureWindowYOffset = 0
	g.dithering = false
	g.drawToDisplay = false
	g.textureDisable = false
	g.rectTextureXFlip = false
	g.rectTextureYFlip = false
	g.drawingAreaLeft = 0
	g.drawingAreaTop = 0
	g.drawingAreaRight = 0
	g.drawingAreaBottom = 0
	g.drawingXOffset = 0
	g.drawingYOffset = 0
	g.forceSetMaskBit = false
	g.preserveMaskedPixels = false

	g.dmaDirection = DmaDirectionOff

	g.displayDisabled = true
	g.displayVRAMXStart = 0
	g.displayVRAMYStart = 0
	g.hres = hresFromFields(0, 0)
	g.vres480 = false
	g.vmode = NTSC
	g.interlaced = false
	g.fieldTop = true
	g.displayHorizStart = 0x200
	g.displayHorizEnd = 0xc00
	g.displayLineStart = 0x10
	g.displayLineEnd = 0x100
	g.displayDepth24 = false

	g.resetCommandBuffer()

	g.renderer.SetDrawOffset(0, 0)
}

// resetCommandBuffer is GP1(0x01). It aborts any command in progress.
func (g *Gpu) resetCommandBuffer() {
	g.gp0Command.Clear()
	g.gp0Remaining = 0
	g.gp0State = gp0StateCommand
	g.imageLoad = imageTransfer{}
	g.imageBuffer = g.imageBuffer[:0]
}

// setDisplayMode is GP1(0x08).
func (g *Gpu) setDisplayMode(val uint32) {
	hr1 := uint8(val & 3)
	hr2 := uint8((val >> 6) & 1)
	g.hres = hresFromFields(hr1, hr2)
	g.vres480 = val&0x04 != 0
	g.vmode = VideoStandard((val >> 3) & 1)
	g.displayDepth24 = val&0x10 != 0
	g.interlaced = val&0x20 != 0
	if !g.interlaced {
		g.fieldTop = true
	}

	if val&0x80 != 0 {
		panicf("unsupported GP1 display mode %08x", val)
	}

	g.updateDisplayMode()
}

// getInfo is GP1(0x10): latch internal state into GPUREAD.
func (g *Gpu) getInfo(val uint32) {
	switch val & 0xf {
	case 2:
		g.readWord = uint32(g.textureWindowXMask) |
			uint32(g.textureWindowYMask)<<5 |
			uint32(g.textureWindowXOffset)<<10 |
			uint32(g.textureWindowYOffset)<<15
	case 3:
		g.readWord = uint32(g.drawingAreaLeft) | uint32(g.drawingAreaTop)<<10
	case 4:
		g.readWord = uint32(g.drawingAreaRight) | uint32(g.drawingAreaBottom)<<10
	case 5:
		x := uint32(g.drawingXOffset) & 0x7ff
		y := uint32(g.drawingYOffset) & 0x7ff
		g.readWord = x | y<<11
	case 7:
		// GPU version
		g.readWord = 2
	}
	// Other values leave GPUREAD unchanged
}
