package ppu

import "image"

// Frame dimensions.
const (
	Width  = 256
	Height = 240
)

// Timing of one NTSC frame.
const (
	CyclesPerScanline = 341
	ScanlinesPerFrame = 262

	vblankScanline    = 241
	preRenderScanline = 261
)

// PPUCTRL bits.
const (
	ctrlIncrement32   = 0x04
	ctrlSpriteTable   = 0x08
	ctrlBGTable       = 0x10
	ctrlSpriteSize16  = 0x20
	ctrlNMIEnable     = 0x80
	ctrlNametableMask = 0x03
)

// PPUMASK bits.
const (
	maskGreyscale   = 0x01
	maskBGLeft      = 0x02
	maskSpritesLeft = 0x04
	maskBG          = 0x08
	maskSprites     = 0x10
)

// PPUSTATUS bits.
const (
	statusOverflow   = 0x20
	statusSpriteZero = 0x40
	statusVBlank     = 0x80
)

// Memory is the PPU address space below the palette: pattern tables from
// the cartridge and nametables in console VRAM.
type Memory interface {
	ReadVideo(addr uint16) byte
	WriteVideo(addr uint16, v byte)
	// PeekVideo reads without cartridge side effects.
	PeekVideo(addr uint16) byte
}

// sprite is one secondary OAM entry with its fetched pattern.
type sprite struct {
	y, tile, attr, x byte
	index            byte
	patternLo        byte
	patternHi        byte
}

// PPU represents the Picture Processing Unit.
type PPU struct {
	mem Memory

	Ctrl   byte
	Mask   byte
	Status byte

	oamAddr byte
	oam     [256]byte
	palette [32]byte

	vramAddr    uint16 // v
	vramTmpAddr uint16 // t
	fineX       byte
	addrLatch   bool // w
	dataBuffer  byte
	ioLatch     byte

	Scanline int
	Cycle    int
	Frame    uint64
	oddFrame bool

	bgNextTileID     byte
	bgNextTileAttrib byte
	bgNextTileLSB    byte
	bgNextTileMSB    byte

	bgShifterPatternL uint16
	bgShifterPatternH uint16
	bgShifterAttribL  uint16
	bgShifterAttribH  uint16

	spriteScanline   [8]sprite
	spriteCount      int
	spriteZeroInLine bool

	nmiLine     bool
	nmiEdge     bool
	suppressVBL bool
	frameReady  bool

	front, back *image.RGBA
}

// New creates a PPU reading pattern and nametable data through mem.
func New(mem Memory) *PPU {
	p := &PPU{
		mem:   mem,
		front: image.NewRGBA(image.Rect(0, 0, Width, Height)),
		back:  image.NewRGBA(image.Rect(0, 0, Width, Height)),
	}
	p.Reset()
	return p
}

// Reset puts the PPU at the start of the pre-render line with rendering off.
func (p *PPU) Reset() {
	p.Ctrl, p.Mask, p.Status = 0, 0, 0
	p.oamAddr = 0
	p.vramAddr, p.vramTmpAddr, p.fineX, p.addrLatch = 0, 0, 0, false
	p.dataBuffer = 0
	p.Scanline, p.Cycle = preRenderScanline, 0
	p.Frame, p.oddFrame = 0, false
	p.nmiLine, p.nmiEdge, p.suppressVBL, p.frameReady = false, false, false, false
	p.spriteCount = 0
}

func (p *PPU) renderingEnabled() bool {
	return p.Mask&(maskBG|maskSprites) != 0
}

// updateNMI raises an edge when vblank and the NMI enable are both high.
func (p *PPU) updateNMI() {
	line := p.Status&statusVBlank != 0 && p.Ctrl&ctrlNMIEnable != 0
	if line && !p.nmiLine {
		p.nmiEdge = true
	}
	p.nmiLine = line
}

// PollNMI reports and clears a pending NMI edge.
func (p *PPU) PollNMI() bool {
	e := p.nmiEdge
	p.nmiEdge = false
	return e
}

// FrameReady reports and clears the end-of-frame flag.
func (p *PPU) FrameReady() bool {
	r := p.frameReady
	p.frameReady = false
	return r
}

// Output returns the last completed frame. The image is reused two frames
// later; callers that keep it must copy it.
func (p *PPU) Output() *image.RGBA {
	return p.front
}

// ReadRegister handles a CPU read of $2000-$3FFF.
func (p *PPU) ReadRegister(addr uint16) byte {
	switch addr & 7 {
	case 2:
		v := p.Status&0xE0 | p.ioLatch&0x1F
		if p.Scanline == vblankScanline && p.Cycle == 1 {
			p.suppressVBL = true
		}
		p.Status &^= statusVBlank
		p.addrLatch = false
		p.updateNMI()
		p.ioLatch = v
	case 4:
		v := p.oam[p.oamAddr]
		if p.oamAddr&3 == 2 {
			v &= 0xE3
		}
		p.ioLatch = v
	case 7:
		addr := p.vramAddr & 0x3FFF
		if addr < 0x3F00 {
			p.ioLatch = p.dataBuffer
			p.dataBuffer = p.mem.ReadVideo(addr)
		} else {
			p.ioLatch = p.ioLatch&0xC0 | p.readPalette(addr)
			p.dataBuffer = p.mem.ReadVideo(addr - 0x1000)
		}
		p.incrementAddr()
	}
	return p.ioLatch
}

// WriteRegister handles a CPU write of $2000-$3FFF.
func (p *PPU) WriteRegister(addr uint16, v byte) {
	p.ioLatch = v
	switch addr & 7 {
	case 0:
		p.Ctrl = v
		p.vramTmpAddr = p.vramTmpAddr&0xF3FF | uint16(v&ctrlNametableMask)<<10
		p.updateNMI()
	case 1:
		p.Mask = v
	case 3:
		p.oamAddr = v
	case 4:
		p.oam[p.oamAddr] = v
		p.oamAddr++
	case 5:
		if !p.addrLatch {
			p.fineX = v & 0x07
			p.vramTmpAddr = p.vramTmpAddr&0xFFE0 | uint16(v)>>3
		} else {
			p.vramTmpAddr = p.vramTmpAddr&0x8FFF | uint16(v&0x07)<<12
			p.vramTmpAddr = p.vramTmpAddr&0xFC1F | uint16(v&0xF8)<<2
		}
		p.addrLatch = !p.addrLatch
	case 6:
		if !p.addrLatch {
			p.vramTmpAddr = p.vramTmpAddr&0x80FF | uint16(v&0x3F)<<8
		} else {
			p.vramTmpAddr = p.vramTmpAddr&0xFF00 | uint16(v)
			p.vramAddr = p.vramTmpAddr
		}
		p.addrLatch = !p.addrLatch
	case 7:
		addr := p.vramAddr & 0x3FFF
		if addr < 0x3F00 {
			p.mem.WriteVideo(addr, v)
		} else {
			p.palette[paletteIndex(addr)] = v & 0x3F
		}
		p.incrementAddr()
	}
}

// WriteOAM stores one byte of an OAM DMA transfer at the current OAM address.
func (p *PPU) WriteOAM(v byte) {
	p.oam[p.oamAddr] = v
	p.oamAddr++
}

func (p *PPU) incrementAddr() {
	if p.Ctrl&ctrlIncrement32 != 0 {
		p.vramAddr += 32
	} else {
		p.vramAddr++
	}
	p.vramAddr &= 0x7FFF
}

func (p *PPU) readPalette(addr uint16) byte {
	v := p.palette[paletteIndex(addr)]
	if p.Mask&maskGreyscale != 0 {
		v &= 0x30
	}
	return v
}

// Step advances the PPU by one dot.
func (p *PPU) Step() {
	visible := p.Scanline < Height
	preRender := p.Scanline == preRenderScanline
	rendering := p.renderingEnabled()

	if preRender && p.Cycle == 1 {
		p.Status &^= statusVBlank | statusSpriteZero | statusOverflow
		p.updateNMI()
	}

	if rendering && (visible || preRender) {
		p.renderDot(visible, preRender)
	}

	if visible && p.Cycle >= 1 && p.Cycle <= Width {
		p.composePixel(p.Cycle-1, p.Scanline)
	}

	if p.Scanline == vblankScanline && p.Cycle == 1 {
		if !p.suppressVBL {
			p.Status |= statusVBlank
			p.updateNMI()
		}
		p.suppressVBL = false
		p.front, p.back = p.back, p.front
		p.frameReady = true
	}

	p.advance(rendering)
}

func (p *PPU) advance(rendering bool) {
	// With rendering on, the pre-render line of odd frames is one dot short.
	if p.Scanline == preRenderScanline && p.Cycle == 339 && p.oddFrame && rendering {
		p.Cycle = 340
	}
	p.Cycle++
	if p.Cycle < CyclesPerScanline {
		return
	}
	p.Cycle = 0
	p.Scanline++
	if p.Scanline == ScanlinesPerFrame {
		p.Scanline = 0
		p.Frame++
		p.oddFrame = !p.oddFrame
	}
}
