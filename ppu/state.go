package ppu

import "fmt"

// StateVersion is the current layout of State.
const StateVersion = 1

// SpriteState is one secondary OAM slot.
type SpriteState struct {
	Y, Tile, Attr, X     byte
	Index                byte
	PatternLo, PatternHi byte
}

// State is a versioned snapshot of the PPU, including the frame being drawn.
type State struct {
	Version int

	Ctrl, Mask, Status byte
	OAMAddr            byte
	OAM                [256]byte
	Palette            [32]byte

	VRAMAddr    uint16
	VRAMTmpAddr uint16
	FineX       byte
	AddrLatch   bool
	DataBuffer  byte
	IOLatch     byte

	Scanline int
	Cycle    int
	Frame    uint64
	OddFrame bool

	BGNextTileID     byte
	BGNextTileAttrib byte
	BGNextTileLSB    byte
	BGNextTileMSB    byte

	BGShifterPatternL uint16
	BGShifterPatternH uint16
	BGShifterAttribL  uint16
	BGShifterAttribH  uint16

	Sprites          [8]SpriteState
	SpriteCount      int
	SpriteZeroInLine bool

	NMILine     bool
	NMIEdge     bool
	SuppressVBL bool

	// FrameBuffer is the partially drawn back buffer.
	FrameBuffer []byte
}

// SaveState captures the registers, memories and rendering pipeline.
func (p *PPU) SaveState() State {
	s := State{
		Version:           StateVersion,
		Ctrl:              p.Ctrl,
		Mask:              p.Mask,
		Status:            p.Status,
		OAMAddr:           p.oamAddr,
		OAM:               p.oam,
		Palette:           p.palette,
		VRAMAddr:          p.vramAddr,
		VRAMTmpAddr:       p.vramTmpAddr,
		FineX:             p.fineX,
		AddrLatch:         p.addrLatch,
		DataBuffer:        p.dataBuffer,
		IOLatch:           p.ioLatch,
		Scanline:          p.Scanline,
		Cycle:             p.Cycle,
		Frame:             p.Frame,
		OddFrame:          p.oddFrame,
		BGNextTileID:      p.bgNextTileID,
		BGNextTileAttrib:  p.bgNextTileAttrib,
		BGNextTileLSB:     p.bgNextTileLSB,
		BGNextTileMSB:     p.bgNextTileMSB,
		BGShifterPatternL: p.bgShifterPatternL,
		BGShifterPatternH: p.bgShifterPatternH,
		BGShifterAttribL:  p.bgShifterAttribL,
		BGShifterAttribH:  p.bgShifterAttribH,
		SpriteCount:       p.spriteCount,
		SpriteZeroInLine:  p.spriteZeroInLine,
		NMILine:           p.nmiLine,
		NMIEdge:           p.nmiEdge,
		SuppressVBL:       p.suppressVBL,
		FrameBuffer:       append([]byte(nil), p.back.Pix...),
	}
	for i, sp := range p.spriteScanline {
		s.Sprites[i] = SpriteState{sp.y, sp.tile, sp.attr, sp.x, sp.index, sp.patternLo, sp.patternHi}
	}
	return s
}

// CheckState reports whether s can be loaded.
func CheckState(s State) error {
	switch {
	case s.Version != StateVersion:
		return fmt.Errorf("ppu: state version %d, want %d", s.Version, StateVersion)
	case s.Scanline < 0 || s.Scanline >= ScanlinesPerFrame || s.Cycle < 0 || s.Cycle >= CyclesPerScanline:
		return fmt.Errorf("ppu: position %d,%d out of range", s.Scanline, s.Cycle)
	case s.FineX > 7:
		return fmt.Errorf("ppu: fine X %d out of range", s.FineX)
	case s.VRAMAddr > 0x7FFF || s.VRAMTmpAddr > 0x7FFF:
		return fmt.Errorf("ppu: VRAM address %04X/%04X out of range", s.VRAMAddr, s.VRAMTmpAddr)
	case s.SpriteCount < 0 || s.SpriteCount > len(s.Sprites):
		return fmt.Errorf("ppu: sprite count %d out of range", s.SpriteCount)
	case s.FrameBuffer != nil && len(s.FrameBuffer) != Width*Height*4:
		return fmt.Errorf("ppu: frame buffer is %d bytes", len(s.FrameBuffer))
	}
	return nil
}

// LoadState restores s after validating it with CheckState.
func (p *PPU) LoadState(s State) error {
	if err := CheckState(s); err != nil {
		return err
	}
	p.Ctrl, p.Mask, p.Status = s.Ctrl, s.Mask, s.Status
	p.oamAddr, p.oam, p.palette = s.OAMAddr, s.OAM, s.Palette
	p.vramAddr, p.vramTmpAddr, p.fineX, p.addrLatch = s.VRAMAddr, s.VRAMTmpAddr, s.FineX, s.AddrLatch
	p.dataBuffer, p.ioLatch = s.DataBuffer, s.IOLatch
	p.Scanline, p.Cycle, p.Frame, p.oddFrame = s.Scanline, s.Cycle, s.Frame, s.OddFrame
	p.bgNextTileID, p.bgNextTileAttrib = s.BGNextTileID, s.BGNextTileAttrib
	p.bgNextTileLSB, p.bgNextTileMSB = s.BGNextTileLSB, s.BGNextTileMSB
	p.bgShifterPatternL, p.bgShifterPatternH = s.BGShifterPatternL, s.BGShifterPatternH
	p.bgShifterAttribL, p.bgShifterAttribH = s.BGShifterAttribL, s.BGShifterAttribH
	for i, sp := range s.Sprites {
		p.spriteScanline[i] = sprite{sp.Y, sp.Tile, sp.Attr, sp.X, sp.Index, sp.PatternLo, sp.PatternHi}
	}
	p.spriteCount, p.spriteZeroInLine = s.SpriteCount, s.SpriteZeroInLine
	p.nmiLine, p.nmiEdge, p.suppressVBL = s.NMILine, s.NMIEdge, s.SuppressVBL
	p.frameReady = false
	if s.FrameBuffer != nil {
		copy(p.back.Pix, s.FrameBuffer)
	}
	return nil
}
