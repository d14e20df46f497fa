package emu

// polylineState tracks a GP0(0x48) or GP0(0x58) vertex list.
type polylineState struct {
	shaded          bool
	semiTransparent bool
	prev            Vertex
	color           [3]uint8
	// Shaded polylines alternate color and position words
	haveColor bool
}

func colorFromWord(w uint32) [3]uint8 {
	return [3]uint8{uint8(w), uint8(w >> 8), uint8(w >> 16)}
}

// positionFromWord decodes two 11-bit signed coordinates.
func positionFromWord(w uint32) [2]int16 {
	x := int16(uint16(w)<<5) >> 5
	y := int16(uint16(w>>16)<<5) >> 5
	return [2]int16{x, y}
}

func clutFromHalfword(c uint16) [2]uint16 {
	return [2]uint16{(c & 0x3f) * 16, (c >> 6) & 0x1ff}
}

// drawAttributes builds the attributes of a primitive from the draw mode.
func (g *Gpu) drawAttributes(desc *gp0Opcode) PrimitiveAttributes {
	return PrimitiveAttributes{
		SemiTransparent:      desc.semiTransparent,
		SemiTransparencyMode: SemiTransparencyMode(g.semiTransparency),
		BlendMode:            desc.texture,
		TexturePage:          [2]uint16{uint16(g.pageBaseX) * 64, uint16(g.pageBaseY) * 256},
		TextureDepth:         g.textureDepth,
		Dither:               g.dithering,
	}
}

// setTexturePage applies the page attribute of a textured polygon, which
// also updates the draw mode.
func (g *Gpu) setTexturePage(page uint16) {
	g.pageBaseX = uint8(page & 0xf)
	g.pageBaseY = uint8((page >> 4) & 1)
	g.semiTransparency = uint8((page >> 5) & 3)
	depth := (page >> 7) & 3
	if depth == 3 {
		panicf("unhandled texture depth %d", depth)
	}
	g.textureDepth = TextureDepth(depth)
	g.textureDisable = page&0x800 != 0
}

func (g *Gpu) gp0Nop(*SharedState) {}

func (g *Gpu) gp0ClearCache(*SharedState) {}

// gp0Interrupt is GP0(0x1f).
func (g *Gpu) gp0Interrupt(shared *SharedState) {
	if !g.interrupt {
		g.interrupt = true
		shared.IRQ().Assert(InterruptGpu)
	}
}

// gp0Polygon draws a triangle or quad, GP0(0x20) to GP0(0x3f).
func (g *Gpu) gp0Polygon(*SharedState) {
	op := g.gp0Opcode
	desc := &gp0Opcodes[op]
	shaded := op&0x10 != 0
	textured := op&0x04 != 0
	n := 3
	if op&0x08 != 0 {
		n = 4
	}

	var (
		verts [4]Vertex
		clut  uint16
		page  uint16
		color [3]uint8
	)

	i := 0
	for v := 0; v < n; v++ {
		if v == 0 || shaded {
			color = colorFromWord(g.gp0Command.At(i))
			i++
		}
		verts[v].Color = color
		verts[v].Position = positionFromWord(g.gp0Command.At(i))
		i++

		if textured {
			w := g.gp0Command.At(i)
			i++
			verts[v].TextureCoord = [2]uint16{uint16(w & 0xff), uint16((w >> 8) & 0xff)}
			switch v {
			case 0:
				clut = uint16(w >> 16)
			case 1:
				page = uint16(w >> 16)
			}
		}
	}

	if textured {
		g.setTexturePage(page)
	}
	attrs := g.drawAttributes(desc)
	if textured {
		attrs.Clut = clutFromHalfword(clut)
	}

	if n == 3 {
		tri := [3]Vertex{verts[0], verts[1], verts[2]}
		g.renderer.PushTriangle(&attrs, &tri)
	} else {
		g.renderer.PushQuad(&attrs, &verts)
	}
}

// gp0Line draws a line, GP0(0x40) to GP0(0x5f). Polylines keep consuming
// vertices afterwards.
func (g *Gpu) gp0Line(*SharedState) {
	op := g.gp0Opcode
	desc := &gp0Opcodes[op]
	shaded := op&0x10 != 0

	var verts [2]Vertex
	verts[0].Color = colorFromWord(g.gp0Command.At(0))
	verts[0].Position = positionFromWord(g.gp0Command.At(1))
	if shaded {
		verts[1].Color = colorFromWord(g.gp0Command.At(2))
		verts[1].Position = positionFromWord(g.gp0Command.At(3))
	} else {
		verts[1].Color = verts[0].Color
		verts[1].Position = positionFromWord(g.gp0Command.At(2))
	}

	attrs := g.drawAttributes(desc)
	g.renderer.PushLine(&attrs, &verts)

	if op&0x08 != 0 {
		g.polyline = polylineState{
			shaded:          shaded,
			semiTransparent: desc.semiTransparent,
			prev:            verts[1],
			color:           verts[0].Color,
		}
		g.gp0State = gp0StatePolyline
	}
}

// polylineWord consumes a vertex word, or a color word for shaded
// polylines.
func (g *Gpu) polylineWord(val uint32) {
	p := &g.polyline

	if p.shaded && !p.haveColor {
		p.color = colorFromWord(val)
		p.haveColor = true
		return
	}
	p.haveColor = false

	next := Vertex{Position: positionFromWord(val), Color: p.color}
	verts := [2]Vertex{p.prev, next}
	attrs := g.drawAttributes(&gp0Opcode{semiTransparent: p.semiTransparent})
	g.renderer.PushLine(&attrs, &verts)
	p.prev = next
}

// gp0Rectangle draws a rectangle, GP0(0x60) to GP0(0x7f), as a quad.
func (g *Gpu) gp0Rectangle(*SharedState) {
	op := g.gp0Opcode
	desc := &gp0Opcodes[op]
	textured := op&0x04 != 0

	color := colorFromWord(g.gp0Command.At(0))
	pos := positionFromWord(g.gp0Command.At(1))

	i := 2
	var uv [2]uint16
	var clut uint16
	if textured {
		w := g.gp0Command.At(i)
		i++
		uv = [2]uint16{uint16(w & 0xff), uint16((w >> 8) & 0xff)}
		clut = uint16(w >> 16)
	}

	var w, h int16
	switch (op >> 3) & 3 {
	case 0:
		size := g.gp0Command.At(i)
		w = int16(size & 0x3ff)
		h = int16((size >> 16) & 0x1ff)
	case 1:
		w, h = 1, 1
	case 2:
		w, h = 8, 8
	case 3:
		w, h = 16, 16
	}

	attrs := g.drawAttributes(desc)
	if textured {
		attrs.Clut = clutFromHalfword(clut)
	}

	u0, v0 := int32(uv[0]), int32(uv[1])
	u1, v1 := u0+int32(w), v0+int32(h)
	if g.rectTextureXFlip {
		u1 = u0 - int32(w)
	}
	if g.rectTextureYFlip {
		v1 = v0 - int32(h)
	}
	tc := func(u, v int32) [2]uint16 {
		return [2]uint16{uint16(u) & 0xff, uint16(v) & 0xff}
	}

	x0, y0 := pos[0], pos[1]
	x1, y1 := x0+w, y0+h
	verts := [4]Vertex{
		{Position: [2]int16{x0, y0}, Color: color, TextureCoord: tc(u0, v0)},
		{Position: [2]int16{x1, y0}, Color: color, TextureCoord: tc(u1, v0)},
		{Position: [2]int16{x0, y1}, Color: color, TextureCoord: tc(u0, v1)},
		{Position: [2]int16{x1, y1}, Color: color, TextureCoord: tc(u1, v1)},
	}
	g.renderer.PushQuad(&attrs, &verts)
}

// gp0FillRect is GP0(0x02). It ignores the drawing area and mask
// settings.
func (g *Gpu) gp0FillRect(*SharedState) {
	color := colorFromWord(g.gp0Command.At(0))
	tl := g.gp0Command.At(1)
	size := g.gp0Command.At(2)

	topLeft := [2]uint16{uint16(tl & 0x3f0), uint16((tl >> 16) & 0x1ff)}
	dims := [2]uint16{uint16(((size & 0x3ff) + 0xf) &^ 0xf), uint16((size >> 16) & 0x1ff)}
	g.renderer.FillRect(color, topLeft, dims)
}

// transferRect decodes the position and size words of a VRAM transfer.
func transferRect(pos, size uint32) (topLeft, dims [2]uint16) {
	topLeft = [2]uint16{uint16(pos & 0x3ff), uint16((pos >> 16) & 0x1ff)}
	w := ((size&0xffff - 1) & 0x3ff) + 1
	h := (((size >> 16) - 1) & 0x1ff) + 1
	dims = [2]uint16{uint16(w), uint16(h)}
	return topLeft, dims
}

// gp0CopyRect is GP0(0x80), VRAM to VRAM.
func (g *Gpu) gp0CopyRect(*SharedState) {
	src, dims := transferRect(g.gp0Command.At(1), g.gp0Command.At(3))
	dst, _ := transferRect(g.gp0Command.At(2), g.gp0Command.At(3))
	g.renderer.CopyRect(src, dst, dims)
}

// gp0ImageLoad is GP0(0xa0), CPU to VRAM. The pixel words follow.
func (g *Gpu) gp0ImageLoad(*SharedState) {
	topLeft, dims := transferRect(g.gp0Command.At(1), g.gp0Command.At(2))
	g.imageLoad = imageTransfer{active: true, topLeft: topLeft, dims: dims}

	// Pixels are 16 bits, rounded up to a whole word
	g.gp0Remaining = (g.imageLoad.pixelCount() + 1) / 2
	g.imageBuffer = g.imageBuffer[:0]
	g.gp0State = gp0StateImageLoad
}

// gp0ImageStore is GP0(0xc0), VRAM to CPU through GPUREAD.
func (g *Gpu) gp0ImageStore(*SharedState) {
	topLeft, dims := transferRect(g.gp0Command.At(1), g.gp0Command.At(2))
	g.imageStore = imageTransfer{active: true, topLeft: topLeft, dims: dims}
}

// gp0DrawMode is GP0(0xe1).
func (g *Gpu) gp0DrawMode(*SharedState) {
	val := g.gp0Command.At(0)

	g.setTexturePage(uint16(val))
	g.dithering = val&0x200 != 0
	g.drawToDisplay = val&0x400 != 0
	g.rectTextureXFlip = val&0x1000 != 0
	g.rectTextureYFlip = val&0x2000 != 0
}

// gp0TextureWindow is GP0(0xe2).
func (g *Gpu) gp0TextureWindow(*SharedState) {
	val := g.gp0Command.At(0)

	g.textureWindowXMask = uint8(val & 0x1f)
	g.textureWindowYMask = uint8((val >> 5) & 0x1f)
	g.textureWindowXOffset = uint8((val >> 10) & 0x1f)
	g.textureWindowYOffset = uint8((val >> 15) & 0x1f)
}

func (g *Gpu) updateDrawArea() {
	dims := [2]uint16{0, 0}
	if g.drawingAreaRight >= g.drawingAreaLeft && g.drawingAreaBottom >= g.drawingAreaTop {
		dims = [2]uint16{
			g.drawingAreaRight - g.drawingAreaLeft + 1,
			g.drawingAreaBottom - g.drawingAreaTop + 1,
		}
	}
	g.renderer.SetDrawArea([2]uint16{g.drawingAreaLeft, g.drawingAreaTop}, dims)
}

// gp0DrawingAreaTopLeft is GP0(0xe3).
func (g *Gpu) gp0DrawingAreaTopLeft(*SharedState) {
	val := g.gp0Command.At(0)
	g.drawingAreaLeft = uint16(val & 0x3ff)
	g.drawingAreaTop = uint16((val >> 10) & 0x3ff)
	g.updateDrawArea()
}

// gp0DrawingAreaBottomRight is GP0(0xe4).
func (g *Gpu) gp0DrawingAreaBottomRight(*SharedState) {
	val := g.gp0Command.At(0)
	g.drawingAreaRight = uint16(val & 0x3ff)
	g.drawingAreaBottom = uint16((val >> 10) & 0x3ff)
	g.updateDrawArea()
}

// gp0DrawingOffset is GP0(0xe5). Both offsets are 11-bit signed.
func (g *Gpu) gp0DrawingOffset(*SharedState) {
	val := g.gp0Command.At(0)
	off := positionFromWord(val&0x7ff | ((val>>11)&0x7ff)<<16)
	g.drawingXOffset = off[0]
	g.drawingYOffset = off[1]
	g.renderer.SetDrawOffset(off[0], off[1])
}

// gp0MaskBitSetting is GP0(0xe6).
func (g *Gpu) gp0MaskBitSetting(*SharedState) {
	val := g.gp0Command.At(0)
	g.forceSetMaskBit = val&1 != 0
	g.preserveMaskedPixels = val&2 != 0
}
