package emu

import "testing"

func TestSpuTransferFifo(t *testing.T) {
	s := NewSpu()

	s.Store(Halfword, 0x1ac, 4)
	s.Store(Halfword, 0x1a6, 0x100)
	s.Store(Halfword, 0x1a8, 0x1234)
	s.Store(Halfword, 0x1a8, 0x5678)

	ram := s.RAM()
	if ram[0x400] != 0x1234 || ram[0x401] != 0x5678 {
		t.Errorf("RAM: got %04X %04X", ram[0x400], ram[0x401])
	}
	if ram[0x402] != 0xbad {
		t.Errorf("untouched RAM: got %04X", ram[0x402])
	}

	s.Store(Halfword, 0x1a6, 0x100)
	if got := s.DmaReadWord(); got != 0x56781234 {
		t.Errorf("DMA read: got 0x%08X", got)
	}
}

func TestSpuDmaWrite(t *testing.T) {
	s := NewSpu()

	s.Store(Halfword, 0x1a6, 0)
	s.DmaWriteWord(0xbeefcafe)
	if s.RAM()[0] != 0xcafe || s.RAM()[1] != 0xbeef {
		t.Errorf("got %04X %04X", s.RAM()[0], s.RAM()[1])
	}
}

func TestSpuStatusMirrorsControl(t *testing.T) {
	s := NewSpu()

	s.Store(Halfword, 0x1aa, 0x8035)
	if got := s.Load(Halfword, 0x1ae); got != 0x35 {
		t.Errorf("status: got 0x%X, want 0x35", got)
	}
	if got := s.Load(Halfword, 0x1aa); got != 0x8035 {
		t.Errorf("control readback: got 0x%X", got)
	}
}

func TestSpuVoiceOnOff(t *testing.T) {
	s := NewSpu()

	s.Store(Halfword, 0x188, 0x0005)
	s.Store(Halfword, 0x18a, 0x0001)
	s.Store(Halfword, 0x18c, 0x0001)

	if got := s.Load(Halfword, 0x19c); got != 0x0004 {
		t.Errorf("voice status low: got 0x%X", got)
	}
	if got := s.Load(Halfword, 0x19e); got != 0x0001 {
		t.Errorf("voice status high: got 0x%X", got)
	}
}

func TestSpuVoiceShadow(t *testing.T) {
	s := NewSpu()

	// Voice 3 sample rate
	s.Store(Halfword, 3*16+4, 0x1000)
	if got := s.Load(Halfword, 3*16+4); got != 0x1000 {
		t.Errorf("got 0x%X", got)
	}
}

func TestSpuUnsupportedPanics(t *testing.T) {
	cases := []struct {
		name string
		fn   func(s *Spu)
	}{
		{"word store", func(s *Spu) { s.Store(Word, 0x1aa, 0) }},
		{"control bits", func(s *Spu) { s.Store(Halfword, 0x1aa, 0x0002) }},
		{"transfer mode", func(s *Spu) { s.Store(Halfword, 0x1ac, 2) }},
		{"unknown register", func(s *Spu) { s.Load(Halfword, 0x1a0) }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected a panic")
				}
			}()
			c.fn(NewSpu())
		})
	}
}
