package cartridge

import "github.com/meadori/nescore/mapper"

// uxrom is mapper 2. A write anywhere in $8000-$FFFF selects the 16 KiB bank
// at $8000; $C000-$FFFF is fixed to the last bank. Boards use 8 KiB CHR-RAM.
type uxrom struct {
	board
	bank int
}

func newUxROM(c *Cartridge) *uxrom {
	return &uxrom{board: newBoard(c)}
}

func (u *uxrom) ReadProgram(addr uint16) (byte, bool) {
	banks := u.prgBanks(prgBankSize)
	switch {
	case addr >= 0xC000:
		return u.prg[(banks-1)*prgBankSize+int(addr-0xC000)], true
	case addr >= 0x8000:
		return u.prg[u.bank*prgBankSize+int(addr-0x8000)], true
	case addr >= 0x6000:
		return u.readRAM(addr)
	}
	return 0, false
}

func (u *uxrom) WriteProgram(addr uint16, v byte) error {
	switch {
	case addr >= 0x8000:
		u.bank = int(v) % u.prgBanks(prgBankSize)
		debugf("uxrom: PRG bank %d", u.bank)
		return nil
	case addr >= 0x6000:
		return u.writeRAM(addr, v)
	}
	return mapper.ErrReadOnly
}

func (u *uxrom) ReadGraphics(addr uint16) byte {
	return u.chr[int(addr&0x1FFF)%len(u.chr)]
}

func (u *uxrom) WriteGraphics(addr uint16, v byte) error {
	return u.writeCHR(int(addr&0x1FFF), v)
}

func (u *uxrom) SaveState() mapper.State {
	return u.state([]byte{byte(u.bank)})
}

func (u *uxrom) LoadState(s mapper.State) error {
	if err := u.checkState(s, 1); err != nil {
		return err
	}
	u.bank = int(s.Registers[0]) % u.prgBanks(prgBankSize)
	return nil
}
