package emu

import "testing"

func TestMDecStatusIdle(t *testing.T) {
	m := NewMDec()

	// 0xffff remaining, Cr block, output FIFO empty
	want := uint32(0x8004ffff)
	if got := m.Load(Word, 4); got != want {
		t.Errorf("status: got 0x%08X, want 0x%08X", got, want)
	}
}

func TestMDecQuantTables(t *testing.T) {
	m := NewMDec()

	m.Store(Word, 0, 0x40000001)
	if got := m.Status() & 0xffff; got != 31 {
		t.Errorf("remaining: got %d, want 31", got)
	}
	if m.Status()&(1<<29) == 0 {
		t.Error("busy bit not set")
	}

	for i := uint32(0); i < 32; i++ {
		m.DmaWriteWord(i * 0x04040404)
	}
	if m.Status()&(1<<29) != 0 {
		t.Error("still busy after the tables")
	}

	luma := m.QuantMatrix(0)
	chroma := m.QuantMatrix(1)
	if luma[4] != 4 || luma[63] != 60 {
		t.Errorf("luma table: %v", luma)
	}
	if chroma[0] != 64 {
		t.Errorf("chroma table: got %d at 0", chroma[0])
	}
}

func TestMDecIdctMatrix(t *testing.T) {
	m := NewMDec()

	m.Store(Word, 0, 0x60000000)
	m.Store(Word, 0, 0xfffe0005)
	for i := 1; i < 32; i++ {
		m.Store(Word, 0, 0)
	}
	if m.idctMatrix[0] != 5 || m.idctMatrix[1] != -2 {
		t.Errorf("IDCT matrix: %d %d", m.idctMatrix[0], m.idctMatrix[1])
	}
}

func TestMDecBlockData(t *testing.T) {
	m := NewMDec()

	// 15bpp color macroblock, 3 words
	m.Store(Word, 0, 0x38000003)

	// Cr block: DC then end of block
	m.Store(Word, 0, uint32(mdecEndOfBlock)<<16|0x0c05)
	if m.BlocksDecoded() != 1 {
		t.Fatalf("blocks: got %d, want 1", m.BlocksDecoded())
	}
	if m.quantFactor != 3 || m.coefficients[0] != 5 {
		t.Errorf("DC: factor %d coefficient %d", m.quantFactor, m.coefficients[0])
	}
	if got := (m.Status() >> 16) & 7; got != mdecBlockCb {
		t.Errorf("block type: got %d, want Cb", got)
	}

	// Cb block: DC, two zeroes then -1, end of block
	m.Store(Word, 0, 0x0bff<<16|0x0001)
	m.Store(Word, 0, uint32(mdecEndOfBlock))
	if m.BlocksDecoded() != 2 {
		t.Fatalf("blocks: got %d, want 2", m.BlocksDecoded())
	}
	// Third coefficient in zigzag order is at 0x08
	if m.coefficients[zigzag[3]] != -1 || m.coefficients[zigzag[1]] != 0 {
		t.Errorf("AC coefficients: %v", m.coefficients[:16])
	}
	if got := (m.Status() >> 16) & 7; got != mdecBlockY1 {
		t.Errorf("block type: got %d, want Y1", got)
	}
	if m.Status()&(1<<29) != 0 {
		t.Error("command should be complete")
	}
}

func TestMDecReset(t *testing.T) {
	m := NewMDec()

	m.Store(Word, 0, 0x38000010)
	m.Store(Word, 4, 0xe0000000)

	s := m.Status()
	if s&0xffff != 0xffff || s&(1<<29) != 0 {
		t.Errorf("status after reset: 0x%08X", s)
	}
	if s&(3<<27) != 3<<27 {
		t.Errorf("DMA enables: 0x%08X", s)
	}
}

func TestMDecBadOpcodePanics(t *testing.T) {
	m := NewMDec()
	defer func() {
		if recover() == nil {
			t.Error("opcode 4 should panic")
		}
	}()
	m.Store(Word, 0, 0x80000000)
}
