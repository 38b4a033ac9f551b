package ppu

// renderDot runs the fetch pipeline for one dot of a visible or pre-render
// line. It is only called with rendering enabled.
func (p *PPU) renderDot(visible, preRender bool) {
	c := p.Cycle

	if (c >= 2 && c < 258) || (c >= 321 && c < 338) {
		p.updateShifters()
		switch (c - 1) % 8 {
		case 0:
			p.loadBackgroundShifters()
			p.bgNextTileID = p.mem.ReadVideo(0x2000 | p.vramAddr&0x0FFF)
		case 2:
			v := p.vramAddr
			attr := p.mem.ReadVideo(0x23C0 | v&0x0C00 | (v>>4)&0x38 | (v>>2)&0x07)
			if v&0x40 != 0 {
				attr >>= 4
			}
			if v&0x02 != 0 {
				attr >>= 2
			}
			p.bgNextTileAttrib = attr & 0x03
		case 4:
			p.bgNextTileLSB = p.mem.ReadVideo(p.bgPatternAddr())
		case 6:
			p.bgNextTileMSB = p.mem.ReadVideo(p.bgPatternAddr() + 8)
		case 7:
			p.incrementScrollX()
		}
	}

	switch {
	case c == 256:
		p.incrementScrollY()
	case c == 257:
		p.loadBackgroundShifters()
		p.transferAddressX()
		if visible {
			p.evaluateSprites()
		} else {
			p.spriteCount = 0
			p.spriteZeroInLine = false
		}
	case c == 260:
		p.fetchSprites()
	case c == 338 || c == 340:
		p.bgNextTileID = p.mem.ReadVideo(0x2000 | p.vramAddr&0x0FFF)
	}

	if c >= 257 && c <= 320 {
		p.oamAddr = 0
	}
	if preRender && c >= 280 && c <= 304 {
		p.transferAddressY()
	}
}

func (p *PPU) bgPatternAddr() uint16 {
	return uint16(p.Ctrl&ctrlBGTable)<<8 + uint16(p.bgNextTileID)<<4 + p.vramAddr>>12
}

func (p *PPU) updateShifters() {
	p.bgShifterPatternL <<= 1
	p.bgShifterPatternH <<= 1
	p.bgShifterAttribL <<= 1
	p.bgShifterAttribH <<= 1
}

func (p *PPU) loadBackgroundShifters() {
	p.bgShifterPatternL = p.bgShifterPatternL&0xFF00 | uint16(p.bgNextTileLSB)
	p.bgShifterPatternH = p.bgShifterPatternH&0xFF00 | uint16(p.bgNextTileMSB)
	p.bgShifterAttribL = p.bgShifterAttribL&0xFF00 | uint16(p.bgNextTileAttrib&1)*0xFF
	p.bgShifterAttribH = p.bgShifterAttribH&0xFF00 | uint16(p.bgNextTileAttrib>>1)*0xFF
}

func (p *PPU) incrementScrollX() {
	if p.vramAddr&0x001F == 31 {
		p.vramAddr &^= 0x001F
		p.vramAddr ^= 0x0400
	} else {
		p.vramAddr++
	}
}

func (p *PPU) incrementScrollY() {
	if p.vramAddr&0x7000 != 0x7000 {
		p.vramAddr += 0x1000
		return
	}
	p.vramAddr &^= 0x7000
	y := (p.vramAddr & 0x03E0) >> 5
	switch y {
	case 29:
		y = 0
		p.vramAddr ^= 0x0800
	case 31:
		y = 0
	default:
		y++
	}
	p.vramAddr = p.vramAddr&^0x03E0 | y<<5
}

func (p *PPU) transferAddressX() {
	p.vramAddr = p.vramAddr&0xFBE0 | p.vramTmpAddr&0x041F
}

func (p *PPU) transferAddressY() {
	p.vramAddr = p.vramAddr&0x841F | p.vramTmpAddr&0x7BE0
}

func (p *PPU) spriteHeight() int {
	if p.Ctrl&ctrlSpriteSize16 != 0 {
		return 16
	}
	return 8
}

// evaluateSprites fills secondary OAM with the first eight sprites that
// intersect the next scanline. A ninth sets the overflow flag instead.
func (p *PPU) evaluateSprites() {
	h := p.spriteHeight()
	p.spriteCount = 0
	p.spriteZeroInLine = false
	for i := 0; i < 64; i++ {
		y := p.oam[i*4]
		row := p.Scanline - int(y)
		if row < 0 || row >= h {
			continue
		}
		if p.spriteCount == len(p.spriteScanline) {
			p.Status |= statusOverflow
			break
		}
		if i == 0 {
			p.spriteZeroInLine = true
		}
		p.spriteScanline[p.spriteCount] = sprite{
			y:     y,
			tile:  p.oam[i*4+1],
			attr:  p.oam[i*4+2],
			x:     p.oam[i*4+3],
			index: byte(i),
		}
		p.spriteCount++
	}
}

// fetchSprites loads pattern bytes for all eight slots. Empty slots fetch
// tile $FF like the hardware does, which mappers watching A12 rely on.
func (p *PPU) fetchSprites() {
	h := p.spriteHeight()
	for i := range p.spriteScanline {
		if i >= p.spriteCount {
			addr := p.spritePatternAddr(0xFF, 0, h)
			p.mem.ReadVideo(addr)
			p.mem.ReadVideo(addr + 8)
			continue
		}
		s := &p.spriteScanline[i]
		row := p.Scanline - int(s.y)
		if s.attr&0x80 != 0 {
			row = h - 1 - row
		}
		addr := p.spritePatternAddr(s.tile, row, h)
		s.patternLo = p.mem.ReadVideo(addr)
		s.patternHi = p.mem.ReadVideo(addr + 8)
		if s.attr&0x40 != 0 {
			s.patternLo = reverseBits(s.patternLo)
			s.patternHi = reverseBits(s.patternHi)
		}
	}
}

func (p *PPU) spritePatternAddr(tile byte, row, h int) uint16 {
	if h == 8 {
		table := uint16(p.Ctrl&ctrlSpriteTable) << 9
		return table + uint16(tile)<<4 + uint16(row)
	}
	table := uint16(tile&1) << 12
	tile &^= 1
	if row >= 8 {
		tile++
		row -= 8
	}
	return table + uint16(tile)<<4 + uint16(row)
}

func reverseBits(b byte) byte {
	b = b&0xF0>>4 | b&0x0F<<4
	b = b&0xCC>>2 | b&0x33<<2
	b = b&0xAA>>1 | b&0x55<<1
	return b
}

// composePixel picks between the background and sprite pixels at (x, y)
// and writes the resolved color to the back buffer.
func (p *PPU) composePixel(x, y int) {
	var bgPixel, bgPalette byte
	if p.Mask&maskBG != 0 && (p.Mask&maskBGLeft != 0 || x >= 8) {
		mux := uint16(0x8000) >> p.fineX
		if p.bgShifterPatternL&mux != 0 {
			bgPixel |= 1
		}
		if p.bgShifterPatternH&mux != 0 {
			bgPixel |= 2
		}
		if p.bgShifterAttribL&mux != 0 {
			bgPalette |= 1
		}
		if p.bgShifterAttribH&mux != 0 {
			bgPalette |= 2
		}
	}

	var fgPixel, fgPalette byte
	var fgBehind, spriteZero bool
	if p.Mask&maskSprites != 0 && (p.Mask&maskSpritesLeft != 0 || x >= 8) {
		for i := 0; i < p.spriteCount; i++ {
			s := &p.spriteScanline[i]
			off := x - int(s.x)
			if off < 0 || off > 7 {
				continue
			}
			shift := 7 - off
			px := (s.patternLo>>shift)&1 | ((s.patternHi>>shift)&1)<<1
			if px == 0 {
				continue
			}
			fgPixel = px
			fgPalette = s.attr&0x03 + 4
			fgBehind = s.attr&0x20 != 0
			spriteZero = i == 0 && p.spriteZeroInLine
			break
		}
	}

	if spriteZero && bgPixel != 0 && x != 255 {
		p.Status |= statusSpriteZero
	}

	var idx uint16
	switch {
	case bgPixel == 0 && fgPixel == 0:
		if !p.renderingEnabled() && p.vramAddr&0x3F00 == 0x3F00 {
			idx = p.vramAddr & 0x1F
		}
	case bgPixel == 0:
		idx = uint16(fgPalette)<<2 | uint16(fgPixel)
	case fgPixel == 0 || fgBehind:
		idx = uint16(bgPalette)<<2 | uint16(bgPixel)
	default:
		idx = uint16(fgPalette)<<2 | uint16(fgPixel)
	}

	c := emphasize(SystemPalette[p.readPalette(0x3F00+idx)&0x3F], p.Mask)
	o := y*p.back.Stride + x*4
	pix := p.back.Pix[o : o+4 : o+4]
	pix[0], pix[1], pix[2], pix[3] = c.R, c.G, c.B, 0xFF
}
