package bus

import (
	"fmt"

	"github.com/meadori/nescore/controller"
)

// StateVersion is the current layout of State.
const StateVersion = 1

// State is the machine-wide memory: CPU RAM, nametable VRAM, the open-bus
// value and both controller shift registers.
type State struct {
	Version int
	RAM     [2048]byte
	VRAM    [4096]byte
	OpenBus byte
	Pads    [2]controller.State
}

// SaveState copies RAM, VRAM, the open-bus latch and the pads.
func (b *Bus) SaveState() State {
	return State{
		Version: StateVersion,
		RAM:     b.ram,
		VRAM:    b.vram,
		OpenBus: b.openBus,
		Pads:    [2]controller.State{b.pads[0].SaveState(), b.pads[1].SaveState()},
	}
}

// CheckState reports whether s can be loaded.
func CheckState(s State) error {
	if s.Version != StateVersion {
		return fmt.Errorf("bus: state version %d, want %d", s.Version, StateVersion)
	}
	for i, p := range s.Pads {
		if p.Index > 8 {
			return fmt.Errorf("bus: controller %d index %d out of range", i+1, p.Index)
		}
	}
	return nil
}

// LoadState restores s after validating it with CheckState.
func (b *Bus) LoadState(s State) error {
	if err := CheckState(s); err != nil {
		return err
	}
	b.ram, b.vram, b.openBus = s.RAM, s.VRAM, s.OpenBus
	b.pads[0].LoadState(s.Pads[0])
	b.pads[1].LoadState(s.Pads[1])
	return nil
}
