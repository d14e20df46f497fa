package ui

import (
	"testing"
	"time"
)

func TestSharedInput(t *testing.T) {
	var si SharedInput
	si.Set(0, 0x11)
	si.Set(1, 0x22)
	si.Set(2, 0xff)

	if si.Read(0) != 0x11 || si.Read(1) != 0x22 {
		t.Errorf("got %#x %#x", si.Read(0), si.Read(1))
	}
	if si.Read(2) != 0 || si.Read(-1) != 0 {
		t.Error("out of range player returned buttons")
	}
}

func TestSharedFramebuffer(t *testing.T) {
	sf := NewSharedFramebuffer()
	if _, _, h := sf.Read(); h != 0 {
		t.Fatalf("fresh framebuffer height %d", h)
	}

	pixels := make([]byte, 8*2)
	pixels[9] = 0xaa
	sf.Update(pixels, 8, 2)

	got, stride, h := sf.Read()
	if stride != 8 || h != 2 || got[9] != 0xaa {
		t.Errorf("stride %d height %d pixel %#x", stride, h, got[9])
	}

	// Short input must not panic.
	sf.Update(pixels[:4], 8, 2)
}

func TestEmuControl_PauseResumeStop(t *testing.T) {
	ec := NewEmuControl()
	done := make(chan struct{})
	frames := make(chan struct{}, 100)

	go func() {
		defer close(done)
		for ec.CheckPause() {
			select {
			case frames <- struct{}{}:
			default:
			}
			time.Sleep(time.Millisecond)
		}
	}()

	<-frames
	ec.TogglePause()
	if !ec.IsPaused() {
		t.Fatal("not paused after acknowledgement")
	}

	ec.TogglePause()
	if ec.IsPaused() {
		t.Fatal("still paused after resume")
	}

	ec.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("goroutine did not stop")
	}
}

func TestEmuControl_StopWhilePaused(t *testing.T) {
	ec := NewEmuControl()
	done := make(chan struct{})

	go func() {
		defer close(done)
		for ec.CheckPause() {
			time.Sleep(time.Millisecond)
		}
	}()

	ec.RequestPause()
	ec.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("paused goroutine did not stop")
	}
}
