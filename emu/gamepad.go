package emu

import (
	"errors"
	"fmt"
)

// Button is a digital controller button. The value is its bit in the
// 16-bit button state returned on the serial bus.
type Button uint8

const (
	ButtonSelect   Button = 0
	ButtonStart    Button = 3
	ButtonUp       Button = 4
	ButtonRight    Button = 5
	ButtonDown     Button = 6
	ButtonLeft     Button = 7
	ButtonL2       Button = 8
	ButtonR2       Button = 9
	ButtonL1       Button = 10
	ButtonR1       Button = 11
	ButtonTriangle Button = 12
	ButtonCircle   Button = 13
	ButtonCross    Button = 14
	ButtonSquare   Button = 15
)

// PadType selects the controller plugged into a port.
type PadType uint8

const (
	PadDisconnected PadType = iota
	PadDigital
)

func (t PadType) String() string {
	if t == PadDigital {
		return "digital"
	}
	return "disconnected"
}

var ErrPadType = errors.New("unknown pad type")

// ParsePadType is the inverse of PadType.String.
func ParsePadType(s string) (PadType, error) {
	switch s {
	case "digital":
		return PadDigital, nil
	case "disconnected", "none", "":
		return PadDisconnected, nil
	}
	return PadDisconnected, fmt.Errorf("%q: %w", s, ErrPadType)
}

// Profile implements the serial protocol of a controller model. seq is
// the position of cmd in the current transaction. HandleCommand returns
// the response byte and whether DSR is pulsed, asking for more bytes.
type Profile interface {
	HandleCommand(seq uint8, cmd uint8) (response uint8, dsr bool)
	// SetButton is idempotent.
	SetButton(b Button, pressed bool)
	Type() PadType
}

// DisconnectedProfile is an empty port: the bus stays high.
type DisconnectedProfile struct{}

func (DisconnectedProfile) HandleCommand(uint8, uint8) (uint8, bool) {
	return 0xff, false
}

func (DisconnectedProfile) SetButton(Button, bool) {}

func (DisconnectedProfile) Type() PadType {
	return PadDisconnected
}

// DigitalProfile is the SCPH-1080 digital pad. Buttons are active low.
type DigitalProfile struct {
	buttons uint16
}

func NewDigitalProfile() *DigitalProfile {
	return &DigitalProfile{buttons: 0xffff}
}

func (p *DigitalProfile) HandleCommand(seq uint8, cmd uint8) (uint8, bool) {
	switch seq {
	case 0:
		return 0xff, cmd == 0x01
	case 1:
		// Only 0x42 (read buttons) is supported. 0x41 is the digital pad ID.
		return 0x41, cmd == 0x42
	case 2:
		return 0x5a, true
	case 3:
		return uint8(p.buttons), true
	case 4:
		// No DSR after the last byte
		return uint8(p.buttons >> 8), false
	}
	return 0xff, false
}

func (p *DigitalProfile) SetButton(b Button, pressed bool) {
	mask := uint16(1) << b
	if pressed {
		p.buttons &^= mask
	} else {
		p.buttons |= mask
	}
}

func (p *DigitalProfile) Type() PadType {
	return PadDigital
}

// Buttons returns the raw active low button state.
func (p *DigitalProfile) Buttons() uint16 {
	return p.buttons
}

func newProfile(t PadType) Profile {
	if t == PadDigital {
		return NewDigitalProfile()
	}
	return DisconnectedProfile{}
}

// GamePad tracks the position of a controller in the current transaction.
// The profile is not part of save states.
type GamePad struct {
	profile Profile
	seq     uint8
	// Cleared once the pad stops answering
	active bool
}

func NewGamePad(t PadType) *GamePad {
	return &GamePad{profile: newProfile(t), active: true}
}

// Select starts a new transaction.
func (g *GamePad) Select() {
	g.active = true
	g.seq = 0
}

// SendCommand handles one byte of the transaction.
func (g *GamePad) SendCommand(cmd uint8) (uint8, bool) {
	if !g.active {
		return 0xff, false
	}

	resp, dsr := g.profile.HandleCommand(g.seq, cmd)
	g.active = dsr
	g.seq++
	return resp, dsr
}

func (g *GamePad) Profile() Profile {
	return g.profile
}

func (g *GamePad) SetProfile(p Profile) {
	g.profile = p
}
