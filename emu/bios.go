package emu

import (
	"errors"
	"fmt"
	"hash/crc32"
)

// BIOSSize is the size of the BIOS ROM.
const BIOSSize = 512 * 1024

var ErrBadBIOS = errors.New("bad BIOS image")

// BIOS is the read-only boot ROM.
type BIOS struct {
	data [BIOSSize]byte
	crc  uint32
}

// ValidateBIOS checks that data looks like a BIOS image.
func ValidateBIOS(data []byte) error {
	if len(data) != BIOSSize {
		return fmt.Errorf("%d bytes, expected %d: %w", len(data), BIOSSize, ErrBadBIOS)
	}
	return nil
}

// NewBIOS copies data into a new BIOS.
func NewBIOS(data []byte) (*BIOS, error) {
	if err := ValidateBIOS(data); err != nil {
		return nil, err
	}
	b := &BIOS{crc: crc32.ChecksumIEEE(data)}
	copy(b.data[:], data)
	return b, nil
}

func (b *BIOS) Load(width AccessWidth, offset uint32) uint32 {
	return loadLE(b.data[:], width, offset)
}

// CRC returns the CRC32 of the image.
func (b *BIOS) CRC() uint32 {
	return b.crc
}
