package adapter

import (
	"fmt"

	"github.com/spf13/afero"
	emucore "github.com/user-none/eblitui/api"
	"github.com/user-none/empsx/config"
	"github.com/user-none/empsx/disc"
	"github.com/user-none/empsx/emu"
)

// Compile-time interface check.
var _ emucore.CoreFactory = (*Factory)(nil)

// Factory implements emucore.CoreFactory for the PlayStation emulator.
// The BIOS location and the sector cache size come from the config file.
// The zero value reads config.Filename from the working directory.
type Factory struct {
	Fs         afero.Fs
	ConfigPath string
}

func (f *Factory) fs() afero.Fs {
	if f.Fs == nil {
		return afero.NewOsFs()
	}
	return f.Fs
}

func (f *Factory) config() (config.Config, error) {
	path := f.ConfigPath
	if path == "" {
		path = config.Filename
	}
	return config.Load(f.fs(), path)
}

// SystemInfo returns system metadata for UI configuration.
func (f *Factory) SystemInfo() emucore.SystemInfo {
	return emucore.SystemInfo{
		Name:            emu.Name,
		ConsoleName:     "Sony PlayStation",
		Extensions:      []string{".bin", ".img", ".xz", ".zst"},
		ScreenWidth:     emu.ScreenWidth,
		MaxScreenHeight: emu.MaxScreenHeight,
		AspectRatio:     4.0 / 3.0,
		SampleRate:      44100,
		Buttons: []emucore.Button{
			{Name: "Cross", ID: emu.InputCross, DefaultKey: "K", DefaultPad: "A"},
			{Name: "Circle", ID: emu.InputCircle, DefaultKey: "L", DefaultPad: "B"},
			{Name: "Square", ID: emu.InputSquare, DefaultKey: "J", DefaultPad: "X"},
			{Name: "Triangle", ID: emu.InputTriangle, DefaultKey: "I", DefaultPad: "Y"},
			{Name: "L1", ID: emu.InputL1, DefaultKey: "U", DefaultPad: "L1"},
			{Name: "R1", ID: emu.InputR1, DefaultKey: "O", DefaultPad: "R1"},
			{Name: "L2", ID: emu.InputL2, DefaultKey: "7", DefaultPad: "L2"},
			{Name: "R2", ID: emu.InputR2, DefaultKey: "9", DefaultPad: "R2"},
			{Name: "Start", ID: emu.InputStart, DefaultKey: "Enter", DefaultPad: "Start"},
			{Name: "Select", ID: emu.InputSelect, DefaultKey: "Backspace", DefaultPad: "Back"},
		},
		Players: 2,
		CoreOptions: []emucore.CoreOption{
			{
				Key:         "pad2",
				Label:       "Controller 2",
				Description: "Plug a digital pad in the second port",
				Type:        emucore.CoreOptionBool,
				Default:     "false",
				Category:    emucore.CoreOptionCategoryInput,
			},
			{
				Key:         "memcard2",
				Label:       "Memory Card 2",
				Description: "Insert a memory card in the second slot",
				Type:        emucore.CoreOptionBool,
				Default:     "false",
				Category:    emucore.CoreOptionCategoryInput,
			},
		},
		RDBName:       "Sony - PlayStation",
		ThumbnailRepo: "Sony_-_PlayStation",
		DataDirName:   "empsx",
		ConsoleID:     12,
		CoreName:      emu.Name,
		CoreVersion:   emu.Version,
		SerializeSize: emu.SerializeSize(),
	}
}

// CreateEmulator powers on a console with the disc image in rom. Memory
// card 1 is handed to the frontend as SRAM.
func (f *Factory) CreateEmulator(rom []byte, region emucore.Region) (emucore.Emulator, error) {
	cfg, err := f.config()
	if err != nil {
		return nil, err
	}

	bios, err := afero.ReadFile(f.fs(), cfg.BIOS)
	if err != nil {
		return nil, fmt.Errorf("read BIOS: %w", err)
	}

	d, err := openDisc(rom, cfg.SectorCache)
	if err != nil {
		return nil, err
	}

	pad1, pad2 := cfg.PadTypes()
	ecfg := emu.Config{
		BIOS:   bios,
		Disc:   d,
		Region: region,
		Pad1:   pad1,
		Pad2:   pad2,
	}
	if cfg.MemCard1 {
		ecfg.MemCard1 = emu.NewMemCard()
	}
	if cfg.MemCard2 {
		ecfg.MemCard2 = emu.NewMemCard()
	}

	e, err := emu.NewEmulator(ecfg)
	if err != nil {
		d.Close()
		return nil, err
	}
	return e, nil
}

// DetectRegion derives the video clock from the license string on the
// disc. The bool return is false since no database lookup is involved.
func (f *Factory) DetectRegion(rom []byte) (emucore.Region, bool) {
	d, err := openDisc(rom, 1)
	if err != nil {
		return emu.DefaultRegion(), false
	}
	defer d.Close()
	return emu.RegionForDisc(d), false
}

func openDisc(data []byte, cacheSize int) (*disc.Disc, error) {
	image, err := disc.ImageFromBytes(data, cacheSize)
	if err != nil {
		return nil, err
	}
	d, err := disc.New(image)
	if err != nil {
		image.Close()
		return nil, fmt.Errorf("identify disc: %w", err)
	}
	return d, nil
}
