package emu

import "testing"

func TestFifo_PushPop(t *testing.T) {
	var f Fifo
	if !f.Empty() || f.Full() || f.Len() != 0 {
		t.Fatal("new FIFO should be empty")
	}

	for i := uint8(0); i < 16; i++ {
		f.Push(i)
	}
	if !f.Full() || f.Empty() || f.Len() != 16 {
		t.Fatalf("after 16 pushes: full=%v empty=%v len=%d", f.Full(), f.Empty(), f.Len())
	}

	for i := uint8(0); i < 16; i++ {
		if v := f.Pop(); v != i {
			t.Errorf("pop %d = %d", i, v)
		}
	}
	if !f.Empty() {
		t.Error("FIFO should be empty after popping everything")
	}
}

func TestFifo_LenWraps(t *testing.T) {
	var f Fifo
	for i := 0; i < 33; i++ {
		f.Push(uint8(i))
	}
	// 33 pushes wrap the 5 bit write index back to 1
	if f.Len() != 1 {
		t.Errorf("Len = %d, want 1", f.Len())
	}
	if v := f.Pop(); v != 32 {
		t.Errorf("Pop = %d, want the last pushed value", v)
	}
}

func TestFifo_Clear(t *testing.T) {
	f := FifoFromBytes(1, 2, 3)
	if f.Len() != 3 {
		t.Fatalf("Len = %d", f.Len())
	}
	f.Clear()
	if !f.Empty() || f.Pop() != 0 {
		t.Error("Clear should reset indices and contents")
	}
}
