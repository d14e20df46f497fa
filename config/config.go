// Package config loads the empsx settings file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/user-none/empsx/disc"
	"github.com/user-none/empsx/emu"
)

// Filename is the default settings file name.
const Filename = "empsx.yml"

var ErrInvalid = errors.New("invalid configuration")

// Config holds the user settings shared by the frontends.
type Config struct {
	BIOS       string `yaml:"bios"`
	MemCardDir string `yaml:"memcard_dir"`
	// auto, ntsc or pal
	Region string `yaml:"region"`
	// debug, info, warn or error
	LogLevel string `yaml:"log_level"`
	// digital or disconnected
	Pad1     string `yaml:"pad1"`
	Pad2     string `yaml:"pad2"`
	MemCard1 bool   `yaml:"memcard1"`
	MemCard2 bool   `yaml:"memcard2"`
	// Number of disc sectors kept in memory
	SectorCache int `yaml:"sector_cache"`
}

// Default returns the settings used when no file exists.
func Default() Config {
	return Config{
		BIOS:        "SCPH1001.BIN",
		MemCardDir:  ".",
		Region:      "auto",
		LogLevel:    "info",
		Pad1:        emu.PadDigital.String(),
		Pad2:        emu.PadDisconnected.String(),
		MemCard1:    true,
		SectorCache: disc.DefaultCacheSize,
	}
}

// Load reads path from fsys. A missing file yields Default. Fields absent
// from the file keep their default value.
func Load(fsys afero.Fs, path string) (Config, error) {
	cfg := Default()

	data, err := afero.ReadFile(fsys, path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Debug("no configuration file, using defaults", "path", path)
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path.
func Save(fsys afero.Fs, path string, cfg Config) error {
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(&cfg); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// Validate rejects unknown enum values.
func (c Config) Validate() error {
	switch c.Region {
	case "auto", "ntsc", "pal":
	default:
		return fmt.Errorf("region %q: %w", c.Region, ErrInvalid)
	}
	if _, err := c.slogLevel(); err != nil {
		return err
	}
	if _, err := emu.ParsePadType(c.Pad1); err != nil {
		return fmt.Errorf("pad1: %w: %w", err, ErrInvalid)
	}
	if _, err := emu.ParsePadType(c.Pad2); err != nil {
		return fmt.Errorf("pad2: %w: %w", err, ErrInvalid)
	}
	if c.SectorCache < 0 {
		return fmt.Errorf("sector_cache %d: %w", c.SectorCache, ErrInvalid)
	}
	return nil
}

func (c Config) slogLevel() (slog.Level, error) {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("log_level %q: %w", c.LogLevel, ErrInvalid)
}

// SlogLevel returns the configured log level, info when unset.
func (c Config) SlogLevel() slog.Level {
	l, _ := c.slogLevel()
	return l
}

// PadTypes returns the controllers plugged in both ports.
func (c Config) PadTypes() (emu.PadType, emu.PadType) {
	p1, _ := emu.ParsePadType(c.Pad1)
	p2, _ := emu.ParsePadType(c.Pad2)
	return p1, p2
}

// VideoRegion resolves the region setting against the loaded disc.
func (c Config) VideoRegion(d emu.CdDisc) emu.Region {
	switch c.Region {
	case "ntsc":
		return emu.RegionNTSC
	case "pal":
		return emu.RegionPAL
	}
	return emu.RegionForDisc(d)
}
