package cartridge

import (
	"fmt"

	"github.com/meadori/nescore/mapper"
)

// StateVersion is the current layout of State.
const StateVersion = 1

// State is the writable part of a cartridge: its RAMs and the board's bank
// registers.
type State struct {
	Version int
	PRGSize int
	CHRSize int
	CHRRAM  []byte
	PRGRAM  []byte
	Mapper  mapper.State
}

// SaveState returns a deep copy of the cartridge RAMs and board state.
func (c *Cartridge) SaveState() State {
	s := State{
		Version: StateVersion,
		PRGSize: len(c.PRG),
		CHRSize: len(c.CHR),
		Mapper:  c.Mapper.SaveState().Clone(),
	}
	if c.CHRRAM {
		s.CHRRAM = append([]byte(nil), c.CHR...)
	}
	if c.PRGRAM != nil {
		s.PRGRAM = append([]byte(nil), c.PRGRAM...)
	}
	return s
}

// LoadState restores s. A record taken from a differently shaped cartridge
// is rejected with mapper.ErrStateMismatch and nothing is modified.
func (c *Cartridge) LoadState(s State) error {
	if err := c.checkState(s); err != nil {
		return err
	}
	if err := c.Mapper.LoadState(s.Mapper.Clone()); err != nil {
		return err
	}
	if c.CHRRAM {
		copy(c.CHR, s.CHRRAM)
	}
	copy(c.PRGRAM, s.PRGRAM)
	return nil
}

func (c *Cartridge) checkState(s State) error {
	switch {
	case s.Version != StateVersion:
		return fmt.Errorf("%w: cartridge record version %d", mapper.ErrStateMismatch, s.Version)
	case s.PRGSize != len(c.PRG) || s.CHRSize != len(c.CHR):
		return fmt.Errorf("%w: record has %d/%d bytes PRG/CHR, cartridge has %d/%d",
			mapper.ErrStateMismatch, s.PRGSize, s.CHRSize, len(c.PRG), len(c.CHR))
	case s.Mapper.Kind != c.Header.Mapper:
		return fmt.Errorf("%w: record is for mapper %d", mapper.ErrStateMismatch, s.Mapper.Kind)
	case c.CHRRAM && len(s.CHRRAM) != len(c.CHR):
		return fmt.Errorf("%w: CHR-RAM is %d bytes, record has %d", mapper.ErrStateMismatch, len(c.CHR), len(s.CHRRAM))
	case len(s.PRGRAM) != len(c.PRGRAM):
		return fmt.Errorf("%w: PRG-RAM is %d bytes, record has %d", mapper.ErrStateMismatch, len(c.PRGRAM), len(s.PRGRAM))
	}
	return nil
}
