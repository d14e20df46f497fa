package emu

// gp0State says how the next GP0 word is interpreted.
type gp0State uint8

const (
	// Next word is a command header
	gp0StateCommand gp0State = iota
	// Collecting the parameters of the current command
	gp0StateParams
	// Receiving pixel data for GP0(0xa0)
	gp0StateImageLoad
	// Receiving polyline vertices until the terminator
	gp0StatePolyline
)

// polylineTerminator marks the end of a polyline vertex list.
const (
	polylineTerminatorMask = 0xf000f000
	polylineTerminator     = 0x50005000
)

// CommandBuffer holds the words of the GP0 command being assembled. The
// longest command is a shaded textured quad with 12 words.
type CommandBuffer struct {
	words [12]uint32
	len   uint8
}

func (b *CommandBuffer) Clear() {
	b.len = 0
}

func (b *CommandBuffer) Push(w uint32) {
	if int(b.len) >= len(b.words) {
		panicf("GP0 command buffer overflow")
	}
	b.words[b.len] = w
	b.len++
}

func (b *CommandBuffer) Len() int {
	return int(b.len)
}

// At returns the i-th word of the command.
func (b *CommandBuffer) At(i int) uint32 {
	return b.words[i]
}

// gp0Handler executes a complete GP0 command.
type gp0Handler func(g *Gpu, shared *SharedState)

// gp0Opcode describes a GP0 command: its length in words and how it is
// drawn.
type gp0Opcode struct {
	words           uint8
	handler         gp0Handler
	semiTransparent bool
	texture         BlendMode
}

var gp0Opcodes [256]gp0Opcode

func init() {
	t := &gp0Opcodes

	t[0x00] = gp0Opcode{words: 1, handler: (*Gpu).gp0Nop}
	t[0x01] = gp0Opcode{words: 1, handler: (*Gpu).gp0ClearCache}
	t[0x02] = gp0Opcode{words: 3, handler: (*Gpu).gp0FillRect}
	t[0x1f] = gp0Opcode{words: 1, handler: (*Gpu).gp0Interrupt}

	for op := 0x20; op < 0x40; op++ {
		shaded := op&0x10 != 0
		vertices := 3
		if op&0x08 != 0 {
			vertices = 4
		}
		words := vertices
		if op&0x04 != 0 {
			words *= 2
		}
		if shaded {
			words += vertices
		} else {
			words++
		}
		t[op] = gp0Opcode{
			words:           uint8(words),
			handler:         (*Gpu).gp0Polygon,
			semiTransparent: op&0x02 != 0,
			texture:         textureMethod(uint8(op)),
		}
	}

	for op := 0x40; op < 0x60; op++ {
		words := 3
		if op&0x10 != 0 {
			words = 4
		}
		t[op] = gp0Opcode{
			words:           uint8(words),
			handler:         (*Gpu).gp0Line,
			semiTransparent: op&0x02 != 0,
		}
	}

	for op := 0x60; op < 0x80; op++ {
		words := 2
		if op&0x04 != 0 {
			words++
		}
		if op&0x18 == 0 {
			// Variable size
			words++
		}
		t[op] = gp0Opcode{
			words:           uint8(words),
			handler:         (*Gpu).gp0Rectangle,
			semiTransparent: op&0x02 != 0,
			texture:         textureMethod(uint8(op)),
		}
	}

	t[0x80] = gp0Opcode{words: 4, handler: (*Gpu).gp0CopyRect}
	t[0xa0] = gp0Opcode{words: 3, handler: (*Gpu).gp0ImageLoad}
	t[0xc0] = gp0Opcode{words: 3, handler: (*Gpu).gp0ImageStore}

	t[0xe1] = gp0Opcode{words: 1, handler: (*Gpu).gp0DrawMode}
	t[0xe2] = gp0Opcode{words: 1, handler: (*Gpu).gp0TextureWindow}
	t[0xe3] = gp0Opcode{words: 1, handler: (*Gpu).gp0DrawingAreaTopLeft}
	t[0xe4] = gp0Opcode{words: 1, handler: (*Gpu).gp0DrawingAreaBottomRight}
	t[0xe5] = gp0Opcode{words: 1, handler: (*Gpu).gp0DrawingOffset}
	t[0xe6] = gp0Opcode{words: 1, handler: (*Gpu).gp0MaskBitSetting}
}

// textureMethod decodes the texture bits of polygon and rectangle
// opcodes.
func textureMethod(op uint8) BlendMode {
	switch {
	case op&0x04 == 0:
		return BlendNone
	case op&0x01 != 0:
		return BlendRaw
	default:
		return BlendBlended
	}
}

// Gp0 handles a word written to the GP0 port, by the CPU or by DMA.
func (g *Gpu) Gp0(shared *SharedState, val uint32) {
	switch g.gp0State {
	case gp0StateCommand:
		op := uint8(val >> 24)
		desc := &gp0Opcodes[op]
		if desc.handler == nil {
			panicf("unhandled GP0 command %08x", val)
		}

		g.gp0Opcode = op
		g.gp0Command.Clear()
		g.gp0Command.Push(val)
		g.gp0Remaining = uint32(desc.words) - 1
		if g.gp0Remaining == 0 {
			desc.handler(g, shared)
			return
		}
		g.gp0State = gp0StateParams

	case gp0StateParams:
		g.gp0Command.Push(val)
		g.gp0Remaining--
		if g.gp0Remaining == 0 {
			g.gp0State = gp0StateCommand
			gp0Opcodes[g.gp0Opcode].handler(g, shared)
		}

	case gp0StateImageLoad:
		t := &g.imageLoad
		g.imageBuffer = append(g.imageBuffer, uint16(val), uint16(val>>16))
		g.gp0Remaining--
		if g.gp0Remaining == 0 {
			pixels := g.imageBuffer[:t.pixelCount()]
			g.renderer.LoadImage(t.topLeft, t.dims, pixels)
			g.imageBuffer = g.imageBuffer[:0]
			*t = imageTransfer{}
			g.gp0State = gp0StateCommand
		}

	case gp0StatePolyline:
		if val&polylineTerminatorMask == polylineTerminator {
			g.gp0State = gp0StateCommand
			return
		}
		g.polylineWord(val)
	}
}

// Gp0Remaining returns the number of words the current command still
// expects.
func (g *Gpu) Gp0Remaining() uint32 {
	return g.gp0Remaining
}
