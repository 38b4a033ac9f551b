package cartridge

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/meadori/nescore/mapper"
)

// mmc3 is mapper 4: 8 KiB PRG and 1/2 KiB CHR banking plus a scanline
// counter clocked by rising edges of PPU A12.
type mmc3 struct {
	board
	regs mmc3Registers
}

type mmc3Registers struct {
	Target       byte
	PRGMode      bool // $C000 swappable instead of $8000
	CHRInversion bool
	Banks        [8]byte
	Mirror       byte

	IRQCounter byte
	IRQLatch   byte
	IRQReload  bool
	IRQEnabled bool
	IRQPending bool

	LastA12  bool
	A12Delay int
}

func newMMC3(c *Cartridge) *mmc3 {
	m := &mmc3{board: newBoard(c)}
	if c.Header.Mirroring == mapper.Horizontal {
		m.regs.Mirror = 1
	}
	return m
}

func (m *mmc3) prgBank(addr uint16) int {
	banks := m.prgBanks(0x2000)
	r := &m.regs
	switch {
	case addr < 0xA000:
		if r.PRGMode {
			return banks - 2
		}
		return int(r.Banks[6]) % banks
	case addr < 0xC000:
		return int(r.Banks[7]) % banks
	case addr < 0xE000:
		if r.PRGMode {
			return int(r.Banks[6]) % banks
		}
		return banks - 2
	}
	return banks - 1
}

func (m *mmc3) ReadProgram(addr uint16) (byte, bool) {
	switch {
	case addr >= 0x8000:
		return m.prg[m.prgBank(addr)*0x2000+int(addr&0x1FFF)], true
	case addr >= 0x6000:
		return m.readRAM(addr)
	}
	return 0, false
}

func (m *mmc3) WriteProgram(addr uint16, v byte) error {
	if addr < 0x8000 {
		if addr < 0x6000 {
			return mapper.ErrReadOnly
		}
		return m.writeRAM(addr, v)
	}

	r := &m.regs
	even := addr&1 == 0
	switch {
	case addr < 0xA000:
		if even {
			r.Target = v & 0x07
			r.PRGMode = v&0x40 != 0
			r.CHRInversion = v&0x80 != 0
		} else {
			r.Banks[r.Target] = v
		}
	case addr < 0xC000:
		if even {
			r.Mirror = v & 1
		}
	case addr < 0xE000:
		if even {
			r.IRQLatch = v
		} else {
			r.IRQCounter = 0
			r.IRQReload = true
		}
	default:
		if even {
			r.IRQEnabled = false
			r.IRQPending = false
		} else {
			r.IRQEnabled = true
		}
	}
	return nil
}

func (m *mmc3) chrOffset(addr uint16) int {
	addr &= 0x1FFF
	if m.regs.CHRInversion {
		addr ^= 0x1000
	}
	banks := max(m.chrBanks(0x0400), 1)
	var bank int
	switch {
	case addr < 0x0800:
		bank = int(m.regs.Banks[0]&0xFE) + int(addr>>10&1)
	case addr < 0x1000:
		bank = int(m.regs.Banks[1]&0xFE) + int(addr>>10&1)
	default:
		bank = int(m.regs.Banks[2+(addr-0x1000)>>10])
	}
	return bank%banks*0x0400 + int(addr&0x03FF)
}

func (m *mmc3) ReadGraphics(addr uint16) byte {
	m.watchA12(addr)
	return m.chr[m.chrOffset(addr)]
}

func (m *mmc3) PeekGraphics(addr uint16) byte {
	return m.chr[m.chrOffset(addr)]
}

func (m *mmc3) WriteGraphics(addr uint16, v byte) error {
	m.watchA12(addr)
	return m.writeCHR(m.chrOffset(addr), v)
}

// watchA12 clocks the scanline counter on a rising A12 edge that follows
// at least two CPU cycles of A12 low.
func (m *mmc3) watchA12(addr uint16) {
	r := &m.regs
	a12 := addr&0x1000 != 0
	if a12 && !r.LastA12 && r.A12Delay >= 2 {
		m.clockCounter()
	}
	if a12 {
		r.A12Delay = 0
	}
	r.LastA12 = a12
}

func (m *mmc3) clockCounter() {
	r := &m.regs
	if r.IRQCounter == 0 || r.IRQReload {
		r.IRQCounter = r.IRQLatch
		r.IRQReload = false
	} else {
		r.IRQCounter--
	}
	if r.IRQCounter == 0 && r.IRQEnabled {
		r.IRQPending = true
	}
}

// Clock is called once per CPU cycle.
func (m *mmc3) Clock() {
	if !m.regs.LastA12 {
		m.regs.A12Delay++
	}
}

func (m *mmc3) IRQ() bool { return m.regs.IRQPending }

func (m *mmc3) Mirroring() mapper.Mirroring {
	switch {
	case m.mirroring == mapper.FourScreen:
		return mapper.FourScreen
	case m.regs.Mirror == 0:
		return mapper.Vertical
	}
	return mapper.Horizontal
}

func (m *mmc3) MapNametableAddress(addr uint16) uint16 {
	return mapper.MirrorNametable(m.Mirroring(), addr)
}

func (m *mmc3) SaveState() mapper.State {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(m.regs); err != nil {
		panic(err)
	}
	return m.state(buf.Bytes())
}

func (m *mmc3) LoadState(s mapper.State) error {
	if err := m.checkState(s, -1); err != nil {
		return err
	}
	var r mmc3Registers
	if err := gob.NewDecoder(bytes.NewReader(s.Registers)).Decode(&r); err != nil {
		return fmt.Errorf("%w: %v", mapper.ErrStateMismatch, err)
	}
	m.regs = r
	return nil
}
