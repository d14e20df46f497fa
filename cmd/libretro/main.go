package main

import (
	libretro "github.com/user-none/eblitui/libretro"
	"github.com/user-none/empsx/adapter"
	"github.com/user-none/empsx/emu"
)

func init() {
	libretro.RegisterFactory(&adapter.Factory{}, []libretro.RetropadMapping{
		{RetroID: libretro.JoypadB, BitID: emu.InputCross},
		{RetroID: libretro.JoypadA, BitID: emu.InputCircle},
		{RetroID: libretro.JoypadY, BitID: emu.InputSquare},
		{RetroID: libretro.JoypadX, BitID: emu.InputTriangle},
		{RetroID: libretro.JoypadL, BitID: emu.InputL1},
		{RetroID: libretro.JoypadR, BitID: emu.InputR1},
		{RetroID: libretro.JoypadStart, BitID: emu.InputStart},
		{RetroID: libretro.JoypadSelect, BitID: emu.InputSelect},
	})
}

func main() {}
