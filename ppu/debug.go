package ppu

import (
	"image"
	"image/color"
)

// peek reads the PPU address space without side effects.
func (p *PPU) peek(addr uint16) byte {
	addr &= 0x3FFF
	if addr >= 0x3F00 {
		return p.palette[paletteIndex(addr)]
	}
	return p.mem.PeekVideo(addr)
}

// Peek reads PPU memory for debuggers. Cartridge IRQ counters are not clocked.
func (p *PPU) Peek(addr uint16) byte {
	return p.peek(addr)
}

// PaletteColors returns the 32 palette RAM entries as colors.
func (p *PPU) PaletteColors() [32]color.RGBA {
	var out [32]color.RGBA
	for i := range out {
		out[i] = SystemPalette[p.palette[paletteIndex(uint16(i))]&0x3F]
	}
	return out
}

// PatternTable renders pattern table i (0 or 1) as a 128x128 image using
// palette (0-7). Pixel value 0 is drawn black.
func (p *PPU) PatternTable(i int, palette byte) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 128, 128))
	base := uint16(i&1) * 0x1000
	for tileY := 0; tileY < 16; tileY++ {
		for tileX := 0; tileX < 16; tileX++ {
			offset := base + uint16(tileY*256+tileX*16)
			for row := 0; row < 8; row++ {
				lo := p.peek(offset + uint16(row))
				hi := p.peek(offset + uint16(row) + 8)
				for col := 0; col < 8; col++ {
					shift := 7 - col
					px := (lo>>shift)&1 | ((hi>>shift)&1)<<1
					c := color.RGBA{A: 0xFF}
					if px != 0 {
						c = SystemPalette[p.peek(0x3F00+uint16(palette&7)<<2+uint16(px))&0x3F]
					}
					img.SetRGBA(tileX*8+col, tileY*8+row, c)
				}
			}
		}
	}
	return img
}

// Nametables renders the four logical nametables as a 512x480 image, laid
// out as they appear in the PPU address space after mirroring.
func (p *PPU) Nametables() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 2*Width, 2*Height))
	table := uint16(p.Ctrl&ctrlBGTable) << 8
	for nt := uint16(0); nt < 4; nt++ {
		base := 0x2000 + nt*0x400
		ox, oy := int(nt&1)*Width, int(nt>>1)*Height
		for ty := uint16(0); ty < 30; ty++ {
			for tx := uint16(0); tx < 32; tx++ {
				tile := p.peek(base + ty*32 + tx)
				attr := p.peek(base + 0x3C0 + (ty/4)*8 + tx/4)
				shift := (ty&2)<<1 | tx&2
				pal := uint16(attr>>shift) & 3
				for row := uint16(0); row < 8; row++ {
					lo := p.peek(table + uint16(tile)<<4 + row)
					hi := p.peek(table + uint16(tile)<<4 + row + 8)
					for col := 0; col < 8; col++ {
						s := 7 - col
						px := uint16((lo>>s)&1 | ((hi>>s)&1)<<1)
						idx := uint16(0)
						if px != 0 {
							idx = pal<<2 | px
						}
						c := SystemPalette[p.peek(0x3F00+idx)&0x3F]
						img.SetRGBA(ox+int(tx)*8+col, oy+int(ty)*8+int(row), c)
					}
				}
			}
		}
	}
	return img
}

// OAM returns a copy of primary object attribute memory.
func (p *PPU) OAM() [256]byte {
	return p.oam
}
