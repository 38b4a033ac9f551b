package cpu

import "fmt"

// StateVersion is the current layout of State.
const StateVersion = 1

// State is the architectural register file plus the interpreter fields a
// restore needs to resume mid-stream.
type State struct {
	Version int

	PC uint16
	SP byte
	A  byte
	X  byte
	Y  byte
	P  byte

	Opcode      byte
	Address     uint16
	PageCycles  int
	ExtraCycles int
	Cycles      uint64
	Stall       int
	NMIPending  bool
	IRQMasked   bool
}

// SaveState captures the registers and pending interrupt state.
func (c *CPU) SaveState() State {
	return State{
		Version:     StateVersion,
		PC:          c.PC,
		SP:          c.SP,
		A:           c.A,
		X:           c.X,
		Y:           c.Y,
		P:           c.P,
		Opcode:      c.opcode,
		Address:     c.address,
		PageCycles:  c.pageCycles,
		ExtraCycles: c.extraCycles,
		Cycles:      c.Cycles,
		Stall:       c.stall,
		NMIPending:  c.nmiPending,
		IRQMasked:   c.irqMasked,
	}
}

// CheckState reports whether s can be loaded.
func CheckState(s State) error {
	if s.Version != StateVersion {
		return fmt.Errorf("cpu: state version %d, want %d", s.Version, StateVersion)
	}
	return nil
}

// LoadState restores s after validating it with CheckState.
func (c *CPU) LoadState(s State) error {
	if err := CheckState(s); err != nil {
		return err
	}
	c.PC, c.SP, c.A, c.X, c.Y, c.P = s.PC, s.SP, s.A, s.X, s.Y, s.P
	c.opcode, c.address = s.Opcode, s.Address
	c.pageCycles, c.extraCycles = s.PageCycles, s.ExtraCycles
	c.Cycles, c.stall = s.Cycles, s.Stall
	c.nmiPending, c.irqMasked = s.NMIPending, s.IRQMasked
	return nil
}
