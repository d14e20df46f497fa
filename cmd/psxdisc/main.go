// Command psxdisc identifies a PlayStation disc image and optionally checks
// every sector header.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/afero"
	"github.com/user-none/empsx/disc"
	"github.com/user-none/empsx/emu"
)

func main() {
	discPath := flag.String("disc", "", "path to disc image (required)")
	verify := flag.Bool("verify", false, "read every sector and check its header")
	flag.Parse()

	if *discPath == "" {
		log.Fatal("Disc path is required. Usage: psxdisc -disc <path>")
	}

	d, err := disc.Open(afero.NewOsFs(), *discPath, disc.DefaultCacheSize)
	if err != nil {
		log.Fatalf("Failed to open disc: %v", err)
	}
	defer d.Close()

	image := d.Image()
	serial := d.SerialNumber()
	if serial == "" {
		serial = "unknown"
	}
	fmt.Printf("Format:  %s\n", image.Format())
	fmt.Printf("Sectors: %d\n", image.SectorCount())
	video := "NTSC"
	if emu.RegionForDisc(d) == emu.RegionPAL {
		video = "PAL"
	}
	fmt.Printf("Region:  %s (%s)\n", d.Region(), video)
	fmt.Printf("Serial:  %s\n", serial)
	fmt.Printf("CRC32:   %08x\n", d.CRC())

	if !*verify {
		return
	}

	bar := progressbar.Default(int64(image.SectorCount()), "verifying")
	r, err := disc.Verify(image, func() { bar.Add(1) })
	bar.Close()
	if err != nil {
		log.Fatalf("Verify failed: %v", err)
	}

	fmt.Printf("Audio or unsynced sectors: %d\n", r.NoSync)
	if !r.OK() {
		log.Fatalf("%d sectors have a bad header, first at %s", r.BadHeader, r.FirstBad)
	}
	fmt.Println("All data sector headers match")
}
