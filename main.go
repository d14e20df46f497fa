package main

import (
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/spf13/afero"
	emubridge "github.com/user-none/empsx/bridge/ebiten"
	"github.com/user-none/empsx/cli"
	"github.com/user-none/empsx/config"
	"github.com/user-none/empsx/disc"
	"github.com/user-none/empsx/emu"
)

func main() {
	discPath := flag.String("disc", "", "path to disc image (boots the BIOS shell if not provided)")
	biosPath := flag.String("bios", "", "path to BIOS image (overrides the config file)")
	configPath := flag.String("config", config.Filename, "path to config file")
	flag.Parse()

	fs := afero.NewOsFs()

	cfg, err := config.Load(fs, *configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *biosPath != "" {
		cfg.BIOS = *biosPath
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})))

	bios, err := afero.ReadFile(fs, cfg.BIOS)
	if err != nil {
		log.Fatalf("Failed to load BIOS: %v", err)
	}

	var (
		d      *disc.Disc
		cdDisc emu.CdDisc
		game   string
	)
	if *discPath != "" {
		d, err = disc.Open(fs, *discPath, cfg.SectorCache)
		if err != nil {
			log.Fatalf("Failed to open disc: %v", err)
		}
		defer d.Close()
		cdDisc = d
		game = d.SerialNumber()
		log.Printf("Disc: %s (%s)", game, d.Region())
	}

	pad1, pad2 := cfg.PadTypes()
	ecfg := emu.Config{
		BIOS:   bios,
		Disc:   cdDisc,
		Region: cfg.VideoRegion(cdDisc),
		Pad1:   pad1,
		Pad2:   pad2,
	}

	var cardPaths [2]string
	for i, inserted := range []bool{cfg.MemCard1, cfg.MemCard2} {
		if !inserted {
			continue
		}
		cardPaths[i] = cfg.MemCardPath(game, i+1)
		card, err := config.LoadMemCard(fs, cardPaths[i])
		if err != nil {
			log.Fatalf("Failed to load memory card: %v", err)
		}
		if i == 0 {
			ecfg.MemCard1 = card
		} else {
			ecfg.MemCard2 = card
		}
	}

	e, err := emubridge.NewEmulator(ecfg)
	if err != nil {
		log.Fatalf("Failed to initialize emulator: %v", err)
	}

	ebiten.SetWindowSize(emu.ScreenWidth, emu.ScreenWidth*3/4)
	ebiten.SetWindowTitle(emu.Name)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSizeLimits(320, 240, -1, -1)
	ebiten.SetTPS(60)

	runner := cli.NewRunner(e)
	defer e.Close()

	// Save memory cards on exit, once the emulation goroutine is stopped
	defer func() {
		pm := e.Interconnect().PadMemCard()
		for i, path := range cardPaths {
			card := pm.MemCard(i)
			if path == "" || card == nil || !card.Dirty() {
				continue
			}
			if err := config.SaveMemCard(fs, path, card); err != nil {
				log.Printf("Warning: %v", err)
			}
		}
	}()
	defer runner.Close()

	if err := ebiten.RunGame(runner); err != nil {
		log.Fatal(err)
	}
}
