package mapper

import (
	"errors"
	"fmt"
)

var (
	// ErrReadOnly is returned for writes into cartridge space that has no
	// writable meaning for the board (fixed PRG-ROM, CHR-ROM).
	ErrReadOnly = errors.New("mapper: write to read-only space")
	// ErrUnsupported is wrapped with the iNES mapper number of a board that
	// has no implementation.
	ErrUnsupported = errors.New("mapper: unsupported board")
	// ErrStateMismatch is returned when a saved record does not fit the
	// cartridge it is restored into.
	ErrStateMismatch = errors.New("mapper: state does not match cartridge")
)

// Mirroring selects how the four logical nametables map onto VRAM.
type Mirroring uint8

const (
	Horizontal Mirroring = iota
	Vertical
	SingleScreenLower
	SingleScreenUpper
	FourScreen
)

func (m Mirroring) String() string {
	switch m {
	case Horizontal:
		return "horizontal"
	case Vertical:
		return "vertical"
	case SingleScreenLower:
		return "single-screen lower"
	case SingleScreenUpper:
		return "single-screen upper"
	case FourScreen:
		return "four-screen"
	}
	return fmt.Sprintf("Mirroring(%d)", uint8(m))
}

var mirrorLookup = [...][4]uint16{
	Horizontal:        {0, 0, 1, 1},
	Vertical:          {0, 1, 0, 1},
	SingleScreenLower: {0, 0, 0, 0},
	SingleScreenUpper: {1, 1, 1, 1},
	FourScreen:        {0, 1, 2, 3},
}

// MirrorNametable maps a PPU address in $2000-$3EFF to an offset into the
// 4 KiB VRAM backing store.
func MirrorNametable(m Mirroring, addr uint16) uint16 {
	if int(m) >= len(mirrorLookup) {
		m = Horizontal
	}
	addr = (addr - 0x2000) % 0x1000
	table := addr / 0x0400
	offset := addr % 0x0400
	return mirrorLookup[m][table]*0x0400 + offset
}

// Mapper is the cartridge board as seen from the CPU and PPU buses.
type Mapper interface {
	// ReadProgram reads CPU space $4020-$FFFF. ok is false when the board
	// does not drive the bus for addr.
	ReadProgram(addr uint16) (v byte, ok bool)
	WriteProgram(addr uint16, v byte) error

	// ReadGraphics and WriteGraphics address PPU space $0000-$1FFF.
	ReadGraphics(addr uint16) byte
	WriteGraphics(addr uint16, v byte) error

	// MapNametableAddress maps PPU $2000-$3EFF onto the VRAM backing store.
	MapNametableAddress(addr uint16) uint16
	Mirroring() Mirroring

	SaveState() State
	LoadState(State) error
}

// Clocker is implemented by boards that count CPU cycles.
type Clocker interface {
	Clock()
}

// IRQSource is implemented by boards that can assert the CPU IRQ line.
type IRQSource interface {
	IRQ() bool
}

// Peeker is implemented by boards whose graphics reads have side effects;
// PeekGraphics reads without them, for debug views.
type Peeker interface {
	PeekGraphics(addr uint16) byte
}

// StateVersion is the current layout of State.
const StateVersion = 1

// State is the bank-select state of a board. Registers is board specific.
type State struct {
	Version   int
	Kind      uint8
	Registers []byte
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	c := s
	if s.Registers != nil {
		c.Registers = append([]byte(nil), s.Registers...)
	}
	return c
}
