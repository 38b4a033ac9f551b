package server

import (
	"bytes"

	"github.com/meadori/nescore/cpu"
	"github.com/meadori/nescore/nes"
)

// consoleEmulator adapts a console to Emulator.
type consoleEmulator struct {
	c *nes.Console
}

// NewConsoleEmulator returns an Emulator driving c.
func NewConsoleEmulator(c *nes.Console) Emulator {
	return consoleEmulator{c: c}
}

func (e consoleEmulator) Frame() []byte                       { return e.c.Frame().Pix }
func (e consoleEmulator) Peek(addr uint16) byte               { return e.c.Peek(addr) }
func (e consoleEmulator) PeekBlock(addr uint16, n int) []byte { return e.c.PeekBlock(addr, n) }
func (e consoleEmulator) CPUState() cpu.State                 { return e.c.CPUState() }
func (e consoleEmulator) Pause()                              { e.c.Stop() }
func (e consoleEmulator) Reset()                              { e.c.Reset() }

func (e consoleEmulator) Resume() error {
	if e.c.Running() {
		return nil
	}
	return e.c.Start()
}

func (e consoleEmulator) Step() error {
	_, err := e.c.Step()
	return err
}

func (e consoleEmulator) SaveState() ([]byte, error) {
	snap, err := e.c.CreateSaveState()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := snap.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e consoleEmulator) LoadState(data []byte) error {
	snap, err := nes.DecodeSnapshot(bytes.NewReader(data))
	if err != nil {
		return err
	}
	return e.c.LoadState(snap)
}
