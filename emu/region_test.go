package emu

import (
	"testing"

	"github.com/user-none/empsx/disc"
)

func TestRegionForDisc(t *testing.T) {
	tests := []struct {
		name string
		d    CdDisc
		want Region
	}{
		{"no disc", nil, RegionNTSC},
		{"japan", &fakeDisc{region: disc.RegionJapan}, RegionNTSC},
		{"north america", &fakeDisc{region: disc.RegionNorthAmerica}, RegionNTSC},
		{"europe", &fakeDisc{region: disc.RegionEurope}, RegionPAL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RegionForDisc(tt.d); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetTimingForRegion(t *testing.T) {
	if got := GetTimingForRegion(RegionNTSC); got.FPS != 60 || got.Scanlines != 263 {
		t.Errorf("NTSC: got %+v", got)
	}
	if got := GetTimingForRegion(RegionPAL); got.FPS != 50 || got.Scanlines != 314 {
		t.Errorf("PAL: got %+v", got)
	}
}

func TestDefaultRegion(t *testing.T) {
	if DefaultRegion() != RegionNTSC {
		t.Error("default region is not NTSC")
	}
}
