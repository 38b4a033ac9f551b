package ppu

import "image/color"

// SystemPalette maps the 64 2C02 color indexes to sRGB.
var SystemPalette [64]color.RGBA

func init() {
	colors := [64]uint32{
		0x666666, 0x002A88, 0x1412A7, 0x3B00A4, 0x5C007E, 0x6E0040, 0x6C0600, 0x561D00,
		0x333500, 0x0B4800, 0x005200, 0x004F08, 0x00404D, 0x000000, 0x000000, 0x000000,
		0xADADAD, 0x155FD9, 0x4240FF, 0x7527FE, 0xA01ACC, 0xB71E7B, 0xB53120, 0x994E00,
		0x6B6D00, 0x388700, 0x0C9300, 0x008F32, 0x007C8D, 0x000000, 0x000000, 0x000000,
		0xFFFEFF, 0x64B0FF, 0x9290FF, 0xC676FF, 0xF36AFF, 0xFE6ECC, 0xFE8170, 0xEA9E22,
		0xBCBE00, 0x88D800, 0x5CE430, 0x45E082, 0x48CDDE, 0x4F4F4F, 0x000000, 0x000000,
		0xFFFEFF, 0xC0DFFF, 0xD3D2FF, 0xE8C8FF, 0xFBC2FF, 0xFEC4EA, 0xFECCC5, 0xF7D8A5,
		0xE4E594, 0xCFEF96, 0xBDF4AB, 0xB3F3CC, 0xB5EBF2, 0xB8B8B8, 0x000000, 0x000000,
	}
	for i, c := range colors {
		SystemPalette[i] = color.RGBA{byte(c >> 16), byte(c >> 8), byte(c), 0xFF}
	}
}

// paletteIndex folds $3F00-$3FFF onto the 32 bytes of palette RAM. The
// sprite backdrop entries alias the background ones.
func paletteIndex(addr uint16) uint16 {
	addr &= 0x1F
	if addr >= 0x10 && addr&0x03 == 0 {
		addr -= 0x10
	}
	return addr
}

// emphasize dims the channels not selected by the PPUMASK emphasis bits.
func emphasize(c color.RGBA, mask byte) color.RGBA {
	e := mask >> 5
	if e == 0 {
		return c
	}
	dim := func(v byte) byte { return byte(uint16(v) * 3 / 4) }
	if e&1 == 0 {
		c.R = dim(c.R)
	}
	if e&2 == 0 {
		c.G = dim(c.G)
	}
	if e&4 == 0 {
		c.B = dim(c.B)
	}
	return c
}
