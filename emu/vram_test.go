package emu

import "testing"

func TestVRAMWrapsCoordinates(t *testing.T) {
	v := NewVRAM()

	v.WritePixel(1024+3, 512+2, 0x1234)
	if got := v.ReadPixel(3, 2); got != 0x1234 {
		t.Errorf("got 0x%04X, want 0x1234", got)
	}
}

func TestVRAMLoadImageShortBuffer(t *testing.T) {
	v := NewVRAM()

	v.LoadImage([2]uint16{0, 0}, [2]uint16{2, 2}, []uint16{1, 2, 3})
	if v.ReadPixel(0, 1) != 3 || v.ReadPixel(1, 1) != 0 {
		t.Error("short pixel buffer should stop the load")
	}
}

func TestVRAMDisplay15(t *testing.T) {
	v := NewVRAM()

	v.SetDisplayMode([2]uint16{0, 0}, [2]uint16{320, 240}, false)
	v.WritePixel(0, 0, 0x1f)
	v.Display()

	fb := v.Framebuffer()
	// 320 pixels stretched to 640
	for _, x := range []int{0, 1} {
		c := fb.RGBAAt(x, 0)
		if c.R != 0xf8 || c.G != 0 || c.B != 0 || c.A != 0xff {
			t.Errorf("pixel %d: got %v", x, c)
		}
	}
	if c := fb.RGBAAt(2, 0); c.R != 0 {
		t.Errorf("pixel 2: got %v", c)
	}
	if v.Height() != 240 || v.Frames() != 1 {
		t.Errorf("height %d frames %d", v.Height(), v.Frames())
	}
}

func TestVRAMDisplay24(t *testing.T) {
	v := NewVRAM()

	v.SetDisplayMode([2]uint16{0, 0}, [2]uint16{640, 480}, true)
	// First pixel is 11 22 33
	v.WritePixel(0, 0, 0x2211)
	v.WritePixel(1, 0, 0x0033)
	v.Display()

	c := v.Framebuffer().RGBAAt(0, 0)
	if c.R != 0x11 || c.G != 0x22 || c.B != 0x33 {
		t.Errorf("got %v", c)
	}
	if v.Height() != 480 {
		t.Errorf("height: got %d", v.Height())
	}
}

func TestVRAMCountsPrimitives(t *testing.T) {
	v := NewVRAM()
	var a PrimitiveAttributes

	v.PushLine(&a, &[2]Vertex{})
	v.PushTriangle(&a, &[3]Vertex{})
	v.PushQuad(&a, &[4]Vertex{})
	v.PushQuad(&a, &[4]Vertex{})

	want := PrimitiveCounts{Lines: 1, Triangles: 1, Quads: 2}
	if got := v.Counts(); got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}
