// Package cli provides a command-line runner for the emulator.
// It handles input polling and runs the emulator in a window without the full UI.
package cli

import (
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	emucore "github.com/user-none/eblitui/api"
	emubridge "github.com/user-none/empsx/bridge/ebiten"
	"github.com/user-none/empsx/emu"
	"github.com/user-none/empsx/ui"
)

// Runner wraps an emulator for command-line mode.
// The emulator runs on a dedicated goroutine paced by the wall clock.
// The Ebiten thread handles input polling and rendering from the shared framebuffer.
type Runner struct {
	emulator *emubridge.Emulator

	emuControl        *ui.EmuControl
	sharedInput       *ui.SharedInput
	sharedFramebuffer *ui.SharedFramebuffer
	emuDone           chan struct{}
}

// NewRunner creates a new Runner wrapping the given emulator and starts
// the emulation goroutine.
func NewRunner(e *emubridge.Emulator) *Runner {
	r := &Runner{
		emulator:          e,
		emuControl:        ui.NewEmuControl(),
		sharedInput:       &ui.SharedInput{},
		sharedFramebuffer: ui.NewSharedFramebuffer(),
		emuDone:           make(chan struct{}),
	}

	go r.emulationLoop()

	return r
}

// Close stops the emulation goroutine. The emulator is left untouched so
// the caller can still save memory cards.
func (r *Runner) Close() {
	if r.emuControl != nil {
		r.emuControl.Stop()
		<-r.emuDone
		r.emuControl = nil
	}
}

// emulationLoop runs on a dedicated goroutine. Without audio to drive it
// the frame rate follows a deadline that is reset when the loop falls
// too far behind.
func (r *Runner) emulationLoop() {
	defer close(r.emuDone)

	timing := r.emulator.GetTiming()
	frameTime := time.Duration(float64(time.Second) / float64(timing.FPS))
	next := time.Now()

	for {
		if !r.emuControl.CheckPause() {
			return
		}

		r.emulator.SetInput(0, r.sharedInput.Read(0))
		r.emulator.SetInput(1, r.sharedInput.Read(1))

		r.emulator.RunFrame()

		r.sharedFramebuffer.Update(
			r.emulator.GetFramebuffer(),
			r.emulator.GetFramebufferStride(),
			r.emulator.GetActiveHeight(),
		)

		next = next.Add(frameTime)
		sleep := time.Until(next)
		switch {
		case sleep > time.Millisecond:
			time.Sleep(sleep)
		case sleep < -4*frameTime:
			next = time.Now()
		}
	}
}

// Update implements ebiten.Game.
func (r *Runner) Update() error {
	if !ebiten.IsFocused() {
		return nil
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		r.emuControl.TogglePause()
	}

	r.pollInputToShared()
	return nil
}

// Draw implements ebiten.Game.
func (r *Runner) Draw(screen *ebiten.Image) {
	pixels, stride, height := r.sharedFramebuffer.Read()
	if height == 0 {
		return
	}
	r.emulator.DrawCachedFramebuffer(screen, pixels, stride, height)
}

// Layout implements ebiten.Game.
func (r *Runner) Layout(outsideWidth, outsideHeight int) (int, int) {
	return r.emulator.Layout(outsideWidth, outsideHeight)
}

// keyboardMap binds keys to player 1 input bits.
var keyboardMap = []struct {
	keys []ebiten.Key
	bit  int
}{
	{[]ebiten.Key{ebiten.KeyW, ebiten.KeyArrowUp}, int(emucore.ButtonUp)},
	{[]ebiten.Key{ebiten.KeyS, ebiten.KeyArrowDown}, int(emucore.ButtonDown)},
	{[]ebiten.Key{ebiten.KeyA, ebiten.KeyArrowLeft}, int(emucore.ButtonLeft)},
	{[]ebiten.Key{ebiten.KeyD, ebiten.KeyArrowRight}, int(emucore.ButtonRight)},
	{[]ebiten.Key{ebiten.KeyK}, emu.InputCross},
	{[]ebiten.Key{ebiten.KeyL}, emu.InputCircle},
	{[]ebiten.Key{ebiten.KeyJ}, emu.InputSquare},
	{[]ebiten.Key{ebiten.KeyI}, emu.InputTriangle},
	{[]ebiten.Key{ebiten.KeyU}, emu.InputL1},
	{[]ebiten.Key{ebiten.KeyO}, emu.InputR1},
	{[]ebiten.Key{ebiten.Key7}, emu.InputL2},
	{[]ebiten.Key{ebiten.Key9}, emu.InputR2},
	{[]ebiten.Key{ebiten.KeyEnter}, emu.InputStart},
	{[]ebiten.Key{ebiten.KeyBackspace}, emu.InputSelect},
}

// gamepadMap binds standard layout buttons to input bits. Face buttons
// follow their position: bottom is Cross, right is Circle.
var gamepadMap = []struct {
	button ebiten.StandardGamepadButton
	bit    int
}{
	{ebiten.StandardGamepadButtonLeftTop, int(emucore.ButtonUp)},
	{ebiten.StandardGamepadButtonLeftBottom, int(emucore.ButtonDown)},
	{ebiten.StandardGamepadButtonLeftLeft, int(emucore.ButtonLeft)},
	{ebiten.StandardGamepadButtonLeftRight, int(emucore.ButtonRight)},
	{ebiten.StandardGamepadButtonRightBottom, emu.InputCross},
	{ebiten.StandardGamepadButtonRightRight, emu.InputCircle},
	{ebiten.StandardGamepadButtonRightLeft, emu.InputSquare},
	{ebiten.StandardGamepadButtonRightTop, emu.InputTriangle},
	{ebiten.StandardGamepadButtonFrontTopLeft, emu.InputL1},
	{ebiten.StandardGamepadButtonFrontTopRight, emu.InputR1},
	{ebiten.StandardGamepadButtonFrontBottomLeft, emu.InputL2},
	{ebiten.StandardGamepadButtonFrontBottomRight, emu.InputR2},
	{ebiten.StandardGamepadButtonCenterRight, emu.InputStart},
	{ebiten.StandardGamepadButtonCenterLeft, emu.InputSelect},
}

// pollInputToShared reads keyboard and gamepad input and writes to shared
// state. The keyboard and the first gamepad drive player 1, the second
// gamepad drives player 2.
func (r *Runner) pollInputToShared() {
	var players [2]uint32

	for _, m := range keyboardMap {
		for _, k := range m.keys {
			if ebiten.IsKeyPressed(k) {
				players[0] |= 1 << m.bit
			}
		}
	}

	player := 0
	for _, id := range ebiten.AppendGamepadIDs(nil) {
		if player >= len(players) {
			break
		}
		if !ebiten.IsStandardGamepadLayoutAvailable(id) {
			continue
		}
		players[player] |= gamepadButtons(id)
		player++
	}

	r.sharedInput.Set(0, players[0])
	r.sharedInput.Set(1, players[1])
}

func gamepadButtons(id ebiten.GamepadID) uint32 {
	var buttons uint32
	for _, m := range gamepadMap {
		if ebiten.IsStandardGamepadButtonPressed(id, m.button) {
			buttons |= 1 << m.bit
		}
	}

	// Left analog stick (with deadzone)
	const deadzone = 0.5
	axisX := ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisLeftStickHorizontal)
	axisY := ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisLeftStickVertical)
	if axisX < -deadzone {
		buttons |= 1 << emucore.ButtonLeft
	}
	if axisX > deadzone {
		buttons |= 1 << emucore.ButtonRight
	}
	if axisY < -deadzone {
		buttons |= 1 << emucore.ButtonUp
	}
	if axisY > deadzone {
		buttons |= 1 << emucore.ButtonDown
	}
	return buttons
}
