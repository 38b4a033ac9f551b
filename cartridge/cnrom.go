package cartridge

import "github.com/meadori/nescore/mapper"

// cnrom is mapper 3: fixed PRG-ROM and a switchable 8 KiB CHR bank selected
// by writes to $8000-$FFFF.
type cnrom struct {
	board
	bank int
}

func newCNROM(c *Cartridge) *cnrom {
	return &cnrom{board: newBoard(c)}
}

func (c *cnrom) ReadProgram(addr uint16) (byte, bool) {
	switch {
	case addr >= 0x8000:
		return c.prg[int(addr-0x8000)%len(c.prg)], true
	case addr >= 0x6000:
		return c.readRAM(addr)
	}
	return 0, false
}

func (c *cnrom) WriteProgram(addr uint16, v byte) error {
	switch {
	case addr >= 0x8000:
		c.bank = int(v) % c.chrBanks(chrBankSize)
		debugf("cnrom: CHR bank %d", c.bank)
		return nil
	case addr >= 0x6000:
		return c.writeRAM(addr, v)
	}
	return mapper.ErrReadOnly
}

func (c *cnrom) ReadGraphics(addr uint16) byte {
	return c.chr[c.bank*chrBankSize+int(addr&0x1FFF)]
}

func (c *cnrom) WriteGraphics(addr uint16, v byte) error {
	return c.writeCHR(c.bank*chrBankSize+int(addr&0x1FFF), v)
}

func (c *cnrom) SaveState() mapper.State {
	return c.state([]byte{byte(c.bank)})
}

func (c *cnrom) LoadState(s mapper.State) error {
	if err := c.checkState(s, 1); err != nil {
		return err
	}
	c.bank = int(s.Registers[0]) % c.chrBanks(chrBankSize)
	return nil
}
