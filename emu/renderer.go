package emu

// BlendMode says how a primitive is colored.
type BlendMode uint8

const (
	// Gouraud shaded or monochrome
	BlendNone BlendMode = iota
	// Raw texture
	BlendRaw
	// Texture modulated by the vertex color
	BlendBlended
)

// SemiTransparencyMode is the blending equation of semi-transparent
// pixels.
type SemiTransparencyMode uint8

const (
	SemiAverage          SemiTransparencyMode = iota // B/2 + F/2
	SemiAdd                                          // B + F
	SemiSubtractSource                               // B - F
	SemiAddQuarterSource                             // B + F/4
)

// TextureDepth is the pixel format of a texture page.
type TextureDepth uint8

const (
	TextureDepth4Bpp TextureDepth = iota
	TextureDepth8Bpp
	TextureDepth16Bpp
)

// PrimitiveAttributes holds the state shared by all vertices of a
// primitive.
type PrimitiveAttributes struct {
	SemiTransparent      bool
	SemiTransparencyMode SemiTransparencyMode
	BlendMode            BlendMode
	// Top-left corner of the 256x256 texture page
	TexturePage  [2]uint16
	TextureDepth TextureDepth
	// First palette entry for 4 and 8bpp textures
	Clut   [2]uint16
	Dither bool
}

// Vertex is a primitive vertex in drawing coordinates, before the drawing
// offset is applied.
type Vertex struct {
	Position     [2]int16
	Color        [3]uint8
	TextureCoord [2]uint16
}

// Renderer receives decoded GPU commands. Rasterization happens behind
// this interface.
type Renderer interface {
	SetDrawOffset(x, y int16)
	SetDrawArea(topLeft, dimensions [2]uint16)
	SetDisplayMode(topLeft, resolution [2]uint16, depth24 bool)

	PushLine(attrs *PrimitiveAttributes, vertices *[2]Vertex)
	PushTriangle(attrs *PrimitiveAttributes, vertices *[3]Vertex)
	PushQuad(attrs *PrimitiveAttributes, vertices *[4]Vertex)

	FillRect(color [3]uint8, topLeft, dimensions [2]uint16)
	LoadImage(topLeft, dimensions [2]uint16, pixels []uint16)
	CopyRect(src, dst, dimensions [2]uint16)

	// Display is called at the start of each vertical blanking.
	Display()
}

// VRAMReader is implemented by renderers that can read VRAM back for
// image store commands.
type VRAMReader interface {
	ReadPixel(x, y uint16) uint16
}
