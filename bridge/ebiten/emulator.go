// Package ebiten provides an Ebiten-specific wrapper for the emulator.
package ebiten

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/user-none/empsx/emu"
)

// Emulator wraps emu.Emulator with Ebiten-specific functionality
type Emulator struct {
	*emu.Emulator

	offscreen *ebiten.Image           // Offscreen buffer for native resolution rendering
	drawOpts  ebiten.DrawImageOptions // Pre-allocated draw options to avoid per-frame allocation
}

// NewEmulator powers on a console with Ebiten rendering.
func NewEmulator(cfg emu.Config) (*Emulator, error) {
	e, err := emu.NewEmulator(cfg)
	if err != nil {
		return nil, err
	}
	return &Emulator{Emulator: e}, nil
}

// Layout implements ebiten.Game.
func (e *Emulator) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

// DrawCachedFramebuffer renders pre-cached pixel data to the screen.
// The emulation goroutine writes pixels to a shared framebuffer and the
// Ebiten Draw() thread renders them. The picture keeps a 4:3 aspect
// whatever the horizontal resolution of the display mode.
func (e *Emulator) DrawCachedFramebuffer(screen *ebiten.Image, pixels []byte, stride, activeHeight int) {
	if activeHeight == 0 || stride == 0 {
		return
	}

	requiredLen := stride * activeHeight
	if len(pixels) < requiredLen {
		return
	}

	if e.offscreen == nil || e.offscreen.Bounds().Dy() != activeHeight {
		e.offscreen = ebiten.NewImage(emu.ScreenWidth, activeHeight)
	}

	e.offscreen.WritePixels(pixels[:requiredLen])

	screenW, screenH := float64(screen.Bounds().Dx()), float64(screen.Bounds().Dy())
	nativeW := float64(emu.ScreenWidth)
	nativeH := float64(activeHeight)

	// Fit a 4:3 box in the window, then stretch the frame into it.
	boxW, boxH := screenW, screenW*3/4
	if boxH > screenH {
		boxW, boxH = screenH*4/3, screenH
	}

	e.drawOpts = ebiten.DrawImageOptions{}
	e.drawOpts.GeoM.Scale(boxW/nativeW, boxH/nativeH)
	e.drawOpts.GeoM.Translate((screenW-boxW)/2, (screenH-boxH)/2)
	e.drawOpts.Filter = ebiten.FilterNearest
	screen.DrawImage(e.offscreen, &e.drawOpts)
}
