package cartridge

import "github.com/meadori/nescore/mapper"

// nrom is mapper 0: 16 or 32 KiB of fixed PRG-ROM and 8 KiB of CHR. A 16 KiB
// image is mirrored into $C000-$FFFF.
type nrom struct {
	board
}

func newNROM(c *Cartridge) *nrom {
	return &nrom{board: newBoard(c)}
}

func (n *nrom) ReadProgram(addr uint16) (byte, bool) {
	switch {
	case addr >= 0x8000:
		return n.prg[int(addr-0x8000)%len(n.prg)], true
	case addr >= 0x6000:
		return n.readRAM(addr)
	}
	return 0, false
}

// WriteProgram only reaches battery RAM. There is no register behind the
// ROM window, so writes there are reported.
func (n *nrom) WriteProgram(addr uint16, v byte) error {
	if addr >= 0x6000 && addr < 0x8000 {
		return n.writeRAM(addr, v)
	}
	return mapper.ErrReadOnly
}

func (n *nrom) ReadGraphics(addr uint16) byte {
	return n.chr[int(addr&0x1FFF)%len(n.chr)]
}

func (n *nrom) WriteGraphics(addr uint16, v byte) error {
	return n.writeCHR(int(addr&0x1FFF), v)
}

func (n *nrom) SaveState() mapper.State {
	return n.state(nil)
}

func (n *nrom) LoadState(s mapper.State) error {
	return n.checkState(s, 0)
}
