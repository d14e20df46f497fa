// Package disc reads PlayStation disc images and identifies them.
package disc

import "fmt"

const (
	framesPerSecond  = 75
	secondsPerMinute = 60
	sectorsPerMinute = framesPerSecond * secondsPerMinute

	// maxSectorIndex is the index of 99:59:74.
	maxSectorIndex = 100*sectorsPerMinute - 1
)

// Msf is a CD position in minutes, seconds and frames (sectors). All three
// components are stored in BCD.
type Msf struct {
	m, s, f uint8
}

// validBCD reports whether b is a well formed BCD byte.
func validBCD(b uint8) bool {
	return b <= 0x99 && b&0xf <= 9
}

// BinaryFromBCD decodes a BCD byte.
func BinaryFromBCD(b uint8) uint8 {
	return (b>>4)*10 + b&0xf
}

// BCDFromBinary encodes a value in the range 0..99 as BCD.
func BCDFromBinary(v uint8) (uint8, bool) {
	if v > 99 {
		return 0, false
	}
	return (v/10)<<4 | v%10, true
}

// MsfFromBCD builds an Msf from three BCD bytes. It fails if any byte is not
// valid BCD or if the seconds or frames are out of range.
func MsfFromBCD(m, s, f uint8) (Msf, bool) {
	if !validBCD(m) || !validBCD(s) || !validBCD(f) {
		return Msf{}, false
	}
	if s >= 0x60 || f >= 0x75 {
		return Msf{}, false
	}
	return Msf{m: m, s: s, f: f}, true
}

// MustMsf is MsfFromBCD for constants. It panics on invalid input.
func MustMsf(m, s, f uint8) Msf {
	msf, ok := MsfFromBCD(m, s, f)
	if !ok {
		panic(fmt.Sprintf("invalid MSF %02x:%02x:%02x", m, s, f))
	}
	return msf
}

// MsfFromSectorIndex is the inverse of SectorIndex.
func MsfFromSectorIndex(index uint32) (Msf, bool) {
	if index > maxSectorIndex {
		return Msf{}, false
	}
	m := uint8(index / sectorsPerMinute)
	index %= sectorsPerMinute
	s := uint8(index / framesPerSecond)
	f := uint8(index % framesPerSecond)

	bm, _ := BCDFromBinary(m)
	bs, _ := BCDFromBinary(s)
	bf, _ := BCDFromBinary(f)
	return Msf{m: bm, s: bs, f: bf}, true
}

// BCD returns the three BCD components.
func (msf Msf) BCD() (m, s, f uint8) {
	return msf.m, msf.s, msf.f
}

// SectorIndex returns the absolute sector index, 60*75*m + 75*s + f.
func (msf Msf) SectorIndex() uint32 {
	m := uint32(BinaryFromBCD(msf.m))
	s := uint32(BinaryFromBCD(msf.s))
	f := uint32(BinaryFromBCD(msf.f))
	return sectorsPerMinute*m + framesPerSecond*s + f
}

// Next returns the position of the following sector. It fails at 99:59:74.
func (msf Msf) Next() (Msf, bool) {
	return MsfFromSectorIndex(msf.SectorIndex() + 1)
}

// Sub returns msf - other. It panics if other is after msf.
func (msf Msf) Sub(other Msf) Msf {
	a, b := msf.SectorIndex(), other.SectorIndex()
	if b > a {
		panic(fmt.Sprintf("MSF underflow: %s - %s", msf, other))
	}
	res, _ := MsfFromSectorIndex(a - b)
	return res
}

// Add returns msf + other, failing past 99:59:74.
func (msf Msf) Add(other Msf) (Msf, bool) {
	return MsfFromSectorIndex(msf.SectorIndex() + other.SectorIndex())
}

func (msf Msf) packed() uint32 {
	return uint32(msf.m)<<16 | uint32(msf.s)<<8 | uint32(msf.f)
}

// Less reports whether msf comes before other on the disc.
func (msf Msf) Less(other Msf) bool {
	return msf.packed() < other.packed()
}

func (msf Msf) String() string {
	return fmt.Sprintf("%02x:%02x:%02x", msf.m, msf.s, msf.f)
}
