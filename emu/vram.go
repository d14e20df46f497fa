package emu

import "image"

const (
	vramWidth  = 1024
	vramHeight = 512

	// ScreenWidth is the width of the framebuffer handed to frontends.
	// Display modes narrower than this are stretched.
	ScreenWidth     = 640
	MaxScreenHeight = 512
)

// PrimitiveCounts counts the primitives received since power on.
type PrimitiveCounts struct {
	Lines     uint64
	Triangles uint64
	Quads     uint64
}

// VRAM is a software Renderer that keeps the 1MB video memory up to date
// for transfers and fills. Primitives are only counted. On Display the
// visible area is converted to RGBA for the frontend.
type VRAM struct {
	pixels [vramWidth * vramHeight]uint16

	drawOffset  [2]int16
	drawTopLeft [2]uint16
	drawDims    [2]uint16

	displayTopLeft [2]uint16
	displayRes     [2]uint16
	displayDepth24 bool

	counts PrimitiveCounts
	frames uint64

	framebuffer *image.RGBA
	height      int
}

var _ Renderer = (*VRAM)(nil)
var _ VRAMReader = (*VRAM)(nil)

func NewVRAM() *VRAM {
	return &VRAM{
		displayRes:  [2]uint16{320, 240},
		framebuffer: image.NewRGBA(image.Rect(0, 0, ScreenWidth, MaxScreenHeight)),
		height:      240,
	}
}

func vramIndex(x, y uint16) int {
	return int(y%vramHeight)*vramWidth + int(x%vramWidth)
}

func (v *VRAM) ReadPixel(x, y uint16) uint16 {
	return v.pixels[vramIndex(x, y)]
}

func (v *VRAM) WritePixel(x, y uint16, p uint16) {
	v.pixels[vramIndex(x, y)] = p
}

func (v *VRAM) SetDrawOffset(x, y int16) {
	v.drawOffset = [2]int16{x, y}
}

func (v *VRAM) SetDrawArea(topLeft, dimensions [2]uint16) {
	v.drawTopLeft = topLeft
	v.drawDims = dimensions
}

func (v *VRAM) SetDisplayMode(topLeft, resolution [2]uint16, depth24 bool) {
	v.displayTopLeft = topLeft
	v.displayRes = resolution
	v.displayDepth24 = depth24
}

func (v *VRAM) PushLine(*PrimitiveAttributes, *[2]Vertex) {
	v.counts.Lines++
}

func (v *VRAM) PushTriangle(*PrimitiveAttributes, *[3]Vertex) {
	v.counts.Triangles++
}

func (v *VRAM) PushQuad(*PrimitiveAttributes, *[4]Vertex) {
	v.counts.Quads++
}

// rgb15 packs a 24-bit color into the VRAM 1555 format.
func rgb15(c [3]uint8) uint16 {
	return uint16(c[0]>>3) | uint16(c[1]>>3)<<5 | uint16(c[2]>>3)<<10
}

func (v *VRAM) FillRect(color [3]uint8, topLeft, dimensions [2]uint16) {
	p := rgb15(color)
	for y := uint16(0); y < dimensions[1]; y++ {
		for x := uint16(0); x < dimensions[0]; x++ {
			v.WritePixel(topLeft[0]+x, topLeft[1]+y, p)
		}
	}
}

func (v *VRAM) LoadImage(topLeft, dimensions [2]uint16, pixels []uint16) {
	i := 0
	for y := uint16(0); y < dimensions[1]; y++ {
		for x := uint16(0); x < dimensions[0]; x++ {
			if i >= len(pixels) {
				return
			}
			v.WritePixel(topLeft[0]+x, topLeft[1]+y, pixels[i])
			i++
		}
	}
}

func (v *VRAM) CopyRect(src, dst, dimensions [2]uint16) {
	row := make([]uint16, dimensions[0])
	for y := uint16(0); y < dimensions[1]; y++ {
		for x := range row {
			row[x] = v.ReadPixel(src[0]+uint16(x), src[1]+y)
		}
		for x, p := range row {
			v.WritePixel(dst[0]+uint16(x), dst[1]+y, p)
		}
	}
}

// Display converts the display area into the RGBA framebuffer.
func (v *VRAM) Display() {
	v.frames++

	w := int(max(v.displayRes[0], 1))
	h := min(int(v.displayRes[1]), MaxScreenHeight)
	v.height = h

	fb := v.framebuffer
	for y := 0; y < h; y++ {
		vy := v.displayTopLeft[1] + uint16(y)
		line := fb.Pix[y*fb.Stride : y*fb.Stride+ScreenWidth*4]
		for x := 0; x < ScreenWidth; x++ {
			sx := uint16(x * w / ScreenWidth)
			r, g, b := v.displayPixel(sx, vy)
			o := x * 4
			line[o] = r
			line[o+1] = g
			line[o+2] = b
			line[o+3] = 0xff
		}
	}
}

// displayPixel returns the color of pixel x of display line y.
func (v *VRAM) displayPixel(x, y uint16) (r, g, b uint8) {
	if v.displayDepth24 {
		// 3 bytes per pixel packed in 16-bit words
		off := uint32(v.displayTopLeft[0])*2 + uint32(x)*3
		byteAt := func(o uint32) uint8 {
			p := v.ReadPixel(uint16(o/2), y)
			return uint8(p >> ((o & 1) * 8))
		}
		return byteAt(off), byteAt(off + 1), byteAt(off + 2)
	}

	p := v.ReadPixel(v.displayTopLeft[0]+x, y)
	return uint8(p&0x1f) << 3, uint8((p>>5)&0x1f) << 3, uint8((p>>10)&0x1f) << 3
}

func (v *VRAM) Counts() PrimitiveCounts {
	return v.counts
}

// Frames returns the number of Display calls.
func (v *VRAM) Frames() uint64 {
	return v.frames
}

// Framebuffer returns the RGBA image of the last displayed frame.
func (v *VRAM) Framebuffer() *image.RGBA {
	return v.framebuffer
}

// Height returns the number of valid framebuffer lines.
func (v *VRAM) Height() int {
	return v.height
}
