package config

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/spf13/afero"

	"github.com/user-none/empsx/disc"
	"github.com/user-none/empsx/emu"
)

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(afero.NewMemMapFs(), Filename)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Default() {
		t.Errorf("got %+v, want defaults", cfg)
	}
}

func TestLoad_PartialFile(t *testing.T) {
	fsys := afero.NewMemMapFs()
	data := "bios: /bios/scph5502.bin\nregion: pal\npad2: digital\nlog_level: debug\n"
	if err := afero.WriteFile(fsys, Filename, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(fsys, Filename)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.BIOS != "/bios/scph5502.bin" {
		t.Errorf("bios: got %q", cfg.BIOS)
	}
	if cfg.Region != "pal" {
		t.Errorf("region: got %q", cfg.Region)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("log level: got %v", cfg.SlogLevel())
	}
	p1, p2 := cfg.PadTypes()
	if p1 != emu.PadDigital || p2 != emu.PadDigital {
		t.Errorf("pads: got %v %v", p1, p2)
	}
	// Untouched fields keep their defaults
	if cfg.SectorCache != disc.DefaultCacheSize || !cfg.MemCard1 {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"region", "region: secam\n"},
		{"log level", "log_level: loud\n"},
		{"pad", "pad1: analog\n"},
		{"cache", "sector_cache: -1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := afero.NewMemMapFs()
			if err := afero.WriteFile(fsys, Filename, []byte(tt.data), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := Load(fsys, Filename)
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("got %v, want ErrInvalid", err)
			}
		})
	}
}

func TestLoad_BadYAML(t *testing.T) {
	fsys := afero.NewMemMapFs()
	if err := afero.WriteFile(fsys, Filename, []byte("region: [\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(fsys, Filename); err == nil {
		t.Error("expected a parse error")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	fsys := afero.NewMemMapFs()
	cfg := Default()
	cfg.MemCardDir = "/cards"
	cfg.MemCard2 = true
	cfg.Region = "ntsc"

	if err := Save(fsys, Filename, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(fsys, Filename)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != cfg {
		t.Errorf("got %+v, want %+v", got, cfg)
	}
}

func TestVideoRegion(t *testing.T) {
	cfg := Default()
	if got := cfg.VideoRegion(nil); got != emu.RegionNTSC {
		t.Errorf("auto without disc: got %v", got)
	}

	cfg.Region = "pal"
	if got := cfg.VideoRegion(nil); got != emu.RegionPAL {
		t.Errorf("forced PAL: got %v", got)
	}
}
