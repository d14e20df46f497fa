package emu

import "fmt"

// Interrupt is one of the interrupt lines of the interrupt controller.
type Interrupt uint

const (
	InterruptVBlank     Interrupt = 0
	InterruptGpu        Interrupt = 1
	InterruptCdRom      Interrupt = 2
	InterruptDma        Interrupt = 3
	InterruptTimer0     Interrupt = 4
	InterruptTimer1     Interrupt = 5
	InterruptTimer2     Interrupt = 6
	InterruptPadMemCard Interrupt = 7
	InterruptSpu        Interrupt = 9
)

// supportedInterrupts is the set of lines the mask may enable.
const supportedInterrupts uint16 = 1<<InterruptVBlank |
	1<<InterruptGpu |
	1<<InterruptCdRom |
	1<<InterruptDma |
	1<<InterruptTimer0 |
	1<<InterruptTimer1 |
	1<<InterruptTimer2 |
	1<<InterruptPadMemCard

// InterruptState holds the interrupt controller status and mask.
type InterruptState struct {
	status uint16
	mask   uint16
}

// Active reports whether an unmasked interrupt is pending.
func (s *InterruptState) Active() bool {
	return s.status&s.mask != 0
}

func (s *InterruptState) Status() uint16 {
	return s.status
}

// Ack acknowledges interrupts: bits cleared in ack are cleared in the
// status.
func (s *InterruptState) Ack(ack uint16) {
	s.status &= ack
}

func (s *InterruptState) Mask() uint16 {
	return s.mask
}

// SetMask sets the interrupt mask. Lines this core never raises are
// rejected.
func (s *InterruptState) SetMask(mask uint16) {
	if unsupported := mask &^ supportedInterrupts; unsupported != 0 {
		panic(fmt.Sprintf("unsupported interrupt mask: %04x", mask))
	}
	s.mask = mask
}

// Assert raises an interrupt line. Asserting a pending line is a no-op.
func (s *InterruptState) Assert(which Interrupt) {
	s.status |= 1 << which
}
