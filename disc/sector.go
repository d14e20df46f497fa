package disc

import (
	"errors"
	"fmt"
)

const (
	// SectorSize is the size of a raw CD sector.
	SectorSize = 2352
	// syncSize is the length of the sync pattern at the start of a data sector.
	syncSize = 12

	xaForm1Size = 2048
	xaForm2Size = 2324
)

var (
	ErrBadSync   = errors.New("bad sector sync pattern")
	ErrBadMode   = errors.New("unsupported sector mode")
	ErrBadFormat = errors.New("bad disc image format")
)

var syncPattern = [syncSize]byte{
	0x00, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x00,
}

// Metadata describes where a sector sits on the disc. Track and Index are
// BCD encoded like the Q subchannel.
type Metadata struct {
	Msf      Msf // Absolute position
	TrackMsf Msf // Position relative to the start of the track
	Track    uint8
	Index    uint8
}

// Sector is a raw 2352-byte CD sector plus its position metadata.
type Sector struct {
	raw  [SectorSize]byte
	meta Metadata
}

// Metadata returns the position information of the last sector read.
func (s *Sector) Metadata() Metadata {
	return s.meta
}

// Data2352 returns the whole raw sector, sync pattern included.
func (s *Sector) Data2352() []byte {
	return s.raw[:]
}

// HasSync reports whether the sector starts with the data sync pattern.
func (s *Sector) HasSync() bool {
	return [syncSize]byte(s.raw[:syncSize]) == syncPattern
}

// HeaderMsf returns the position stored in the sector header.
func (s *Sector) HeaderMsf() (Msf, bool) {
	return MsfFromBCD(s.raw[12], s.raw[13], s.raw[14])
}

// Mode returns the sector mode from the header.
func (s *Sector) Mode() uint8 {
	return s.raw[15]
}

// Mode2XAPayload returns the user data of a data sector: 2048 bytes for
// Mode 1 and Mode 2 Form 1, 2324 bytes for Mode 2 Form 2.
func (s *Sector) Mode2XAPayload() ([]byte, error) {
	if !s.HasSync() {
		return nil, fmt.Errorf("%s: %w", s.meta.Msf, ErrBadSync)
	}

	switch s.Mode() {
	case 1:
		return s.raw[16 : 16+xaForm1Size], nil
	case 2:
		// Sub-header: file, channel, submode, coding, repeated twice
		submode := s.raw[18]
		if submode&0x20 != 0 {
			return s.raw[24 : 24+xaForm2Size], nil
		}
		return s.raw[24 : 24+xaForm1Size], nil
	default:
		return nil, fmt.Errorf("%s: mode %d: %w", s.meta.Msf, s.Mode(), ErrBadMode)
	}
}

// SetRaw replaces the sector contents. Used by image backends and tests.
func (s *Sector) SetRaw(raw []byte, meta Metadata) {
	copy(s.raw[:], raw)
	s.meta = meta
}
