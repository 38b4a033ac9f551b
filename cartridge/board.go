package cartridge

import (
	"fmt"

	"github.com/meadori/nescore/mapper"
)

// board holds the memories every variant addresses. Variants embed it and
// add their bank registers.
type board struct {
	prg       []byte
	chr       []byte
	prgRAM    []byte
	chrRAM    bool
	mirroring mapper.Mirroring
	kind      uint8
}

func newBoard(c *Cartridge) board {
	return board{
		prg:       c.PRG,
		chr:       c.CHR,
		prgRAM:    c.PRGRAM,
		chrRAM:    c.CHRRAM,
		mirroring: c.Header.Mirroring,
		kind:      c.Header.Mapper,
	}
}

func (b *board) Mirroring() mapper.Mirroring { return b.mirroring }

func (b *board) MapNametableAddress(addr uint16) uint16 {
	return mapper.MirrorNametable(b.mirroring, addr)
}

func (b *board) prgBanks(size int) int { return len(b.prg) / size }
func (b *board) chrBanks(size int) int { return len(b.chr) / size }

func (b *board) readRAM(addr uint16) (byte, bool) {
	if len(b.prgRAM) == 0 {
		return 0, false
	}
	return b.prgRAM[int(addr-0x6000)%len(b.prgRAM)], true
}

func (b *board) writeRAM(addr uint16, v byte) error {
	if len(b.prgRAM) == 0 {
		return mapper.ErrReadOnly
	}
	b.prgRAM[int(addr-0x6000)%len(b.prgRAM)] = v
	return nil
}

func (b *board) writeCHR(offset int, v byte) error {
	if !b.chrRAM {
		return mapper.ErrReadOnly
	}
	b.chr[offset%len(b.chr)] = v
	return nil
}

// state wraps board registers in the opaque record.
func (b *board) state(regs []byte) mapper.State {
	return mapper.State{Version: mapper.StateVersion, Kind: b.kind, Registers: regs}
}

func (b *board) checkState(s mapper.State, n int) error {
	if s.Version != mapper.StateVersion {
		return fmt.Errorf("%w: mapper record version %d", mapper.ErrStateMismatch, s.Version)
	}
	if s.Kind != b.kind {
		return fmt.Errorf("%w: record is for mapper %d, cartridge uses %d", mapper.ErrStateMismatch, s.Kind, b.kind)
	}
	if n >= 0 && len(s.Registers) != n {
		return fmt.Errorf("%w: mapper %d expects %d register bytes, got %d", mapper.ErrStateMismatch, b.kind, n, len(s.Registers))
	}
	return nil
}
