package emu

// serialize writes the GPU registers, the GP0 parser and the video
// timing state. VRAM belongs to the renderer and is handled by the
// Emulator.
func (g *Gpu) serialize(w *stateWriter) {
	w.u8(g.pageBaseX)
	w.u8(g.pageBaseY)
	w.u8(g.semiTransparency)
	w.u8(uint8(g.textureDepth))
	w.bool(g.dithering)
	w.bool(g.drawToDisplay)
	w.bool(g.forceSetMaskBit)
	w.bool(g.preserveMaskedPixels)
	w.bool(g.fieldTop)
	w.bool(g.textureDisable)
	w.u8(uint8(g.hres))
	w.bool(g.vres480)
	w.u8(uint8(g.vmode))
	w.bool(g.displayDepth24)
	w.bool(g.interlaced)
	w.bool(g.displayDisabled)
	w.bool(g.interrupt)
	w.u8(uint8(g.dmaDirection))
	w.bool(g.rectTextureXFlip)
	w.bool(g.rectTextureYFlip)

	w.u8(g.textureWindowXMask)
	w.u8(g.textureWindowYMask)
	w.u8(g.textureWindowXOffset)
	w.u8(g.textureWindowYOffset)

	w.u16(g.drawingAreaLeft)
	w.u16(g.drawingAreaTop)
	w.u16(g.drawingAreaRight)
	w.u16(g.drawingAreaBottom)
	w.u16(uint16(g.drawingXOffset))
	w.u16(uint16(g.drawingYOffset))

	w.u16(g.displayVRAMXStart)
	w.u16(g.displayVRAMYStart)
	w.u16(g.displayHorizStart)
	w.u16(g.displayHorizEnd)
	w.u16(g.displayLineStart)
	w.u16(g.displayLineEnd)

	// GP0 parser
	w.u8(uint8(g.gp0State))
	for _, v := range g.gp0Command.words {
		w.u32(v)
	}
	w.u8(g.gp0Command.len)
	w.u32(g.gp0Remaining)
	w.u8(g.gp0Opcode)
	g.imageLoad.serialize(w)

	// The pending image load is stored at full capacity so that the
	// state size stays constant
	w.u32(uint32(len(g.imageBuffer)))
	w.u16s(g.imageBuffer[:cap(g.imageBuffer)][:vramWidth*vramHeight])

	w.bool(g.polyline.shaded)
	w.bool(g.polyline.semiTransparent)
	serializeVertex(w, &g.polyline.prev)
	w.bytes(g.polyline.color[:])
	w.bool(g.polyline.haveColor)

	// GPUREAD
	w.u32(g.readWord)
	g.imageStore.serialize(w)

	// Video timings
	w.u16(g.gpuClockPhase)
	w.u16(g.displayLine)
	w.u16(g.displayLineTick)
	w.bool(g.vblank)
}

func (g *Gpu) deserialize(r *stateReader) {
	g.pageBaseX = r.u8()
	g.pageBaseY = r.u8()
	g.semiTransparency = r.u8()
	g.textureDepth = TextureDepth(r.u8())
	g.dithering = r.bool()
	g.drawToDisplay = r.bool()
	g.forceSetMaskBit = r.bool()
	g.preserveMaskedPixels = r.bool()
	g.fieldTop = r.bool()
	g.textureDisable = r.bool()
	g.hres = hres(r.u8())
	g.vres480 = r.bool()
	g.vmode = VideoStandard(r.u8())
	g.displayDepth24 = r.bool()
	g.interlaced = r.bool()
	g.displayDisabled = r.bool()
	g.interrupt = r.bool()
	g.dmaDirection = DmaDirection(r.u8())
	g.rectTextureXFlip = r.bool()
	g.rectTextureYFlip = r.bool()

	g.textureWindowXMask = r.u8()
	g.textureWindowYMask = r.u8()
	g.textureWindowXOffset = r.u8()
	g.textureWindowYOffset = r.u8()

	g.drawingAreaLeft = r.u16()
	g.drawingAreaTop = r.u16()
	g.drawingAreaRight = r.u16()
	g.drawingAreaBottom = r.u16()
	g.drawingXOffset = int16(r.u16())
	g.drawingYOffset = int16(r.u16())

	g.displayVRAMXStart = r.u16()
	g.displayVRAMYStart = r.u16()
	g.displayHorizStart = r.u16()
	g.displayHorizEnd = r.u16()
	g.displayLineStart = r.u16()
	g.displayLineEnd = r.u16()

	g.gp0State = gp0State(r.u8())
	for i := range g.gp0Command.words {
		g.gp0Command.words[i] = r.u32()
	}
	g.gp0Command.len = r.u8()
	g.gp0Remaining = r.u32()
	g.gp0Opcode = r.u8()
	g.imageLoad.deserialize(r)

	n := r.u32()
	full := g.imageBuffer[:cap(g.imageBuffer)][:vramWidth*vramHeight]
	r.u16s(full)
	g.imageBuffer = full[:min(int(n), len(full))]

	g.polyline.shaded = r.bool()
	g.polyline.semiTransparent = r.bool()
	deserializeVertex(r, &g.polyline.prev)
	r.bytes(g.polyline.color[:])
	g.polyline.haveColor = r.bool()

	g.readWord = r.u32()
	g.imageStore.deserialize(r)

	g.gpuClockPhase = r.u16()
	g.displayLine = r.u16()
	g.displayLineTick = r.u16()
	g.vblank = r.bool()

	// Bring the renderer back in line with the registers
	g.updateDrawArea()
	g.renderer.SetDrawOffset(g.drawingXOffset, g.drawingYOffset)
	g.updateDisplayMode()
}

func (t *imageTransfer) serialize(w *stateWriter) {
	w.bool(t.active)
	w.u16s(t.topLeft[:])
	w.u16s(t.dims[:])
	w.u32(t.index)
}

func (t *imageTransfer) deserialize(r *stateReader) {
	t.active = r.bool()
	r.u16s(t.topLeft[:])
	r.u16s(t.dims[:])
	t.index = r.u32()
}

func serializeVertex(w *stateWriter, v *Vertex) {
	w.u16(uint16(v.Position[0]))
	w.u16(uint16(v.Position[1]))
	w.bytes(v.Color[:])
	w.u16s(v.TextureCoord[:])
}

func deserializeVertex(r *stateReader, v *Vertex) {
	v.Position[0] = int16(r.u16())
	v.Position[1] = int16(r.u16())
	r.bytes(v.Color[:])
	r.u16s(v.TextureCoord[:])
}
