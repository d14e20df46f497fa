package emu

import emucore "github.com/user-none/eblitui/api"

// Region is an alias for emucore.Region so internal code compiles unchanged.
type Region = emucore.Region

const (
	RegionNTSC = emucore.RegionNTSC
	RegionPAL  = emucore.RegionPAL
)

// RegionTiming holds the frame timing of a video standard.
type RegionTiming struct {
	Scanlines int // Total lines per frame, progressive
	FPS       int // Frames per second, rounded
}

// NTSC: 263 lines at 59.94Hz
var NTSCTiming = RegionTiming{
	Scanlines: 263,
	FPS:       60,
}

// PAL: 314 lines at 49.76Hz
var PALTiming = RegionTiming{
	Scanlines: 314,
	FPS:       50,
}

// GetTimingForRegion returns the appropriate timing constants
func GetTimingForRegion(r Region) RegionTiming {
	if r == RegionPAL {
		return PALTiming
	}
	return NTSCTiming
}

// DefaultRegion returns the default region (NTSC).
func DefaultRegion() Region {
	return RegionNTSC
}
