//go:build !libretro && !ios

package main

import (
	"flag"
	"log"
	"strconv"

	"github.com/user-none/eblitui/standalone"
	"github.com/user-none/empsx/adapter"
)

func main() {
	discPath := flag.String("disc", "", "path to disc image (opens UI if not provided)")
	regionFlag := flag.String("region", "auto", "region: auto, ntsc, or pal")
	configPath := flag.String("config", "", "path to config file")
	pad2 := flag.Bool("pad2", false, "plug a digital pad in port 2")
	memCard2 := flag.Bool("memcard2", false, "insert a memory card in slot 2")
	flag.Parse()

	factory := &adapter.Factory{ConfigPath: *configPath}

	if *discPath != "" {
		options := map[string]string{
			"pad2":     strconv.FormatBool(*pad2),
			"memcard2": strconv.FormatBool(*memCard2),
		}
		if err := standalone.RunDirect(factory, *discPath, *regionFlag, options); err != nil {
			log.Fatal(err)
		}
		return
	}

	if err := standalone.Run(factory); err != nil {
		log.Fatal(err)
	}
}
