package cartridge

import "github.com/meadori/nescore/mapper"

// mmc1 is mapper 1. Registers are loaded one bit at a time through a 5-bit
// shift register; the fifth write commits to the register picked by
// address bits 13-14.
type mmc1 struct {
	board

	shift byte
	count byte

	control  byte
	chrBank0 byte
	chrBank1 byte
	prgBank  byte
}

func newMMC1(c *Cartridge) *mmc1 {
	return &mmc1{board: newBoard(c), control: 0x0C}
}

func (m *mmc1) ramEnabled() bool { return m.prgBank&0x10 == 0 }

func (m *mmc1) ReadProgram(addr uint16) (byte, bool) {
	switch {
	case addr >= 0x8000:
		return m.prg[m.prgOffset(addr)], true
	case addr >= 0x6000:
		if !m.ramEnabled() {
			return 0, false
		}
		return m.readRAM(addr)
	}
	return 0, false
}

func (m *mmc1) prgOffset(addr uint16) int {
	banks := m.prgBanks(prgBankSize)
	bank := int(m.prgBank & 0x0F)
	switch (m.control >> 2) & 3 {
	case 0, 1:
		pair := (bank >> 1) % max(banks/2, 1)
		return (pair*2*prgBankSize + int(addr-0x8000)) % len(m.prg)
	case 2:
		if addr < 0xC000 {
			return int(addr - 0x8000)
		}
		return (bank%banks)*prgBankSize + int(addr-0xC000)
	default:
		if addr < 0xC000 {
			return (bank%banks)*prgBankSize + int(addr-0x8000)
		}
		return (banks-1)*prgBankSize + int(addr-0xC000)
	}
}

func (m *mmc1) WriteProgram(addr uint16, v byte) error {
	if addr < 0x8000 {
		if addr < 0x6000 || !m.ramEnabled() {
			return mapper.ErrReadOnly
		}
		return m.writeRAM(addr, v)
	}

	if v&0x80 != 0 {
		m.shift, m.count = 0, 0
		m.control |= 0x0C
		return nil
	}
	m.shift = m.shift>>1 | (v&1)<<4
	m.count++
	if m.count < 5 {
		return nil
	}

	switch (addr >> 13) & 3 {
	case 0:
		m.control = m.shift
	case 1:
		m.chrBank0 = m.shift
	case 2:
		m.chrBank1 = m.shift
	case 3:
		m.prgBank = m.shift
	}
	debugf("mmc1: reg %d = %#02x", (addr>>13)&3, m.shift)
	m.shift, m.count = 0, 0
	return nil
}

func (m *mmc1) chrOffset(addr uint16) int {
	addr &= 0x1FFF
	if m.control&0x10 == 0 {
		banks := max(m.chrBanks(chrBankSize), 1)
		return int(m.chrBank0>>1)%banks*chrBankSize + int(addr)
	}
	banks := max(m.chrBanks(0x1000), 1)
	bank := m.chrBank0
	if addr >= 0x1000 {
		bank = m.chrBank1
	}
	return int(bank)%banks*0x1000 + int(addr&0x0FFF)
}

func (m *mmc1) ReadGraphics(addr uint16) byte {
	return m.chr[m.chrOffset(addr)]
}

func (m *mmc1) WriteGraphics(addr uint16, v byte) error {
	return m.writeCHR(m.chrOffset(addr), v)
}

func (m *mmc1) Mirroring() mapper.Mirroring {
	switch m.control & 3 {
	case 0:
		return mapper.SingleScreenLower
	case 1:
		return mapper.SingleScreenUpper
	case 2:
		return mapper.Vertical
	}
	return mapper.Horizontal
}

func (m *mmc1) MapNametableAddress(addr uint16) uint16 {
	return mapper.MirrorNametable(m.Mirroring(), addr)
}

func (m *mmc1) SaveState() mapper.State {
	return m.state([]byte{m.shift, m.count, m.control, m.chrBank0, m.chrBank1, m.prgBank})
}

func (m *mmc1) LoadState(s mapper.State) error {
	if err := m.checkState(s, 6); err != nil {
		return err
	}
	r := s.Registers
	m.shift, m.count, m.control, m.chrBank0, m.chrBank1, m.prgBank = r[0], r[1], r[2], r[3], r[4], r[5]
	return nil
}
