package bus

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/meadori/nescore/apu"
	"github.com/meadori/nescore/cartridge"
	"github.com/meadori/nescore/controller"
	"github.com/meadori/nescore/cpu"
	"github.com/meadori/nescore/mapper"
	"github.com/meadori/nescore/ppu"
)

type system struct {
	bus *Bus
	cpu *cpu.CPU
	ppu *ppu.PPU
	pad *controller.Pad
}

// newSystem wires a bus around an NROM cartridge whose PRG is filled with
// 0xEA and whose reset vector points at $8000.
func newSystem(t *testing.T, m mapper.Mirroring, chr []byte) *system {
	t.Helper()
	prg := make([]byte, 0x4000)
	for i := range prg {
		prg[i] = 0xEA
	}
	prg[0x3FFC], prg[0x3FFD] = 0x00, 0x80
	cart, err := cartridge.New(cartridge.Header{Mirroring: m}, prg, chr)
	if err != nil {
		t.Fatal(err)
	}

	pad := controller.NewPad()
	b := New(pad)
	b.InsertCartridge(cart)
	c := cpu.New(b)
	p := ppu.New(b)
	b.Connect(c, p, apu.New(0))
	return &system{bus: b, cpu: c, ppu: p, pad: pad}
}

// captureLog redirects violation reports for the duration of the test.
func captureLog(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	old := Logf
	Logf = func(format string, args ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, args...))
	}
	t.Cleanup(func() { Logf = old })
	return &lines
}

func TestRAMMirroring(t *testing.T) {
	s := newSystem(t, mapper.Horizontal, nil)
	s.bus.Write(0x0001, 0x42)
	for _, addr := range []uint16{0x0001, 0x0801, 0x1001, 0x1801} {
		if v := s.bus.Read(addr); v != 0x42 {
			t.Errorf("Read(%04X) = %02X, want 42", addr, v)
		}
	}
}

func TestOpenBus(t *testing.T) {
	lines := captureLog(t)
	s := newSystem(t, mapper.Horizontal, nil)

	s.bus.Write(0x0010, 0x5A)
	s.bus.Read(0x0010)
	if v := s.bus.Read(0x4018); v != 0x5A {
		t.Errorf("unmapped read = %02X, want last value read 5A", v)
	}
	if v := s.bus.Read(0x5000); v != 0x5A {
		t.Errorf("unmapped cartridge read = %02X, want 5A", v)
	}
	if v := s.bus.Read(0x4000); v != 0x5A {
		t.Errorf("write-only port read = %02X, want 5A", v)
	}
	if len(*lines) != 2 {
		t.Errorf("logged %d violations, want 2: %q", len(*lines), *lines)
	}
}

func TestViolationLogIsBounded(t *testing.T) {
	lines := captureLog(t)
	s := newSystem(t, mapper.Horizontal, nil)
	for i := 0; i < 100; i++ {
		s.bus.Write(0x8000, byte(i))
	}
	if len(*lines) != maxViolationReports {
		t.Errorf("logged %d lines, want %d", len(*lines), maxViolationReports)
	}
	if v := s.bus.Read(0x8000); v != 0xEA {
		t.Errorf("ROM changed by write: %02X", v)
	}
}

func TestControllerPorts(t *testing.T) {
	s := newSystem(t, mapper.Horizontal, nil)
	s.pad.Set(0, controller.Buttons{controller.ButtonA: true, controller.ButtonStart: true})
	s.pad.Set(1, controller.Buttons{controller.ButtonB: true})

	s.bus.Write(0x4016, 1)
	s.bus.Write(0x4016, 0)

	var p1, p2 byte
	for i := 0; i < 8; i++ {
		p1 |= (s.bus.Read(0x4016) & 1) << i
		p2 |= (s.bus.Read(0x4017) & 1) << i
	}
	if p1 != 0x09 {
		t.Errorf("port 1 bits = %08b, want 00001001", p1)
	}
	if p2 != 0x02 {
		t.Errorf("port 2 bits = %08b, want 00000010", p2)
	}

	s.bus.Write(0x0000, 0xE0)
	s.bus.Read(0x0000)
	if v := s.bus.Read(0x4016); v != 0xE1 {
		t.Errorf("$4016 = %02X, want open-bus high bits with 1", v)
	}
}

func TestOAMDMA(t *testing.T) {
	s := newSystem(t, mapper.Horizontal, nil)
	for i := 0; i < 256; i++ {
		s.bus.Write(0x0200+uint16(i), byte(i))
	}

	s.cpu.Cycles = 10
	s.bus.Write(0x4014, 0x02)
	if n := s.cpu.Stalled(); n != 513 {
		t.Errorf("even-cycle DMA stall = %d, want 513", n)
	}
	oam := s.ppu.OAM()
	for i, v := range oam {
		if v != byte(i) {
			t.Fatalf("oam[%d] = %02X", i, v)
		}
	}

	s.cpu.Step()
	s.cpu.Cycles = 11
	s.bus.Write(0x4014, 0x02)
	if n := s.cpu.Stalled(); n != 514 {
		t.Errorf("odd-cycle DMA stall = %d, want 514", n)
	}
}

func TestNametableMirroring(t *testing.T) {
	tests := []struct {
		mirroring mapper.Mirroring
		write     uint16
		alias     uint16
	}{
		{mapper.Horizontal, 0x2000, 0x2400},
		{mapper.Horizontal, 0x2800, 0x2C00},
		{mapper.Vertical, 0x2000, 0x2800},
		{mapper.Vertical, 0x2400, 0x2C00},
		{mapper.Vertical, 0x2005, 0x3005},
	}
	for _, tt := range tests {
		s := newSystem(t, tt.mirroring, nil)
		s.bus.WriteVideo(tt.write, 0x77)
		if v := s.bus.ReadVideo(tt.alias); v != 0x77 {
			t.Errorf("%v: $%04X does not alias $%04X", tt.mirroring, tt.alias, tt.write)
		}
	}
}

func TestPatternSpace(t *testing.T) {
	lines := captureLog(t)

	s := newSystem(t, mapper.Horizontal, nil)
	s.bus.WriteVideo(0x0010, 0x3C)
	if v := s.bus.ReadVideo(0x0010); v != 0x3C {
		t.Errorf("CHR-RAM read = %02X", v)
	}
	if v := s.bus.PeekVideo(0x0010); v != 0x3C {
		t.Errorf("CHR-RAM peek = %02X", v)
	}

	rom := make([]byte, 0x2000)
	rom[0x10] = 0x99
	s = newSystem(t, mapper.Horizontal, rom)
	s.bus.WriteVideo(0x0010, 0x3C)
	if v := s.bus.ReadVideo(0x0010); v != 0x99 {
		t.Errorf("CHR-ROM modified: %02X", v)
	}
	if len(*lines) != 1 {
		t.Errorf("CHR-ROM write logged %d times", len(*lines))
	}
}

func TestPeekHasNoSideEffects(t *testing.T) {
	s := newSystem(t, mapper.Horizontal, nil)
	s.bus.Write(0x0000, 0x11)
	s.bus.Read(0x0000)
	if v := s.bus.Peek(0x2002); v != 0x11 {
		t.Errorf("Peek($2002) = %02X, want open bus", v)
	}
	if v := s.bus.Peek(0x8000); v != 0xEA {
		t.Errorf("Peek($8000) = %02X", v)
	}
	if s.bus.OpenBus() != 0x11 {
		t.Error("Peek changed the open-bus value")
	}
}

func TestStateRoundTrip(t *testing.T) {
	s := newSystem(t, mapper.Vertical, nil)
	s.bus.Write(0x0123, 0x45)
	s.bus.WriteVideo(0x2400, 0x67)
	s.bus.Read(0x0123)
	s.bus.Write(0x4016, 1)

	st := s.bus.SaveState()
	s.bus.Write(0x0123, 0)
	s.bus.WriteVideo(0x2400, 0)
	s.bus.Read(0x0000)

	if err := s.bus.LoadState(st); err != nil {
		t.Fatal(err)
	}
	if got := s.bus.SaveState(); !reflect.DeepEqual(got, st) {
		t.Error("state differs after restore")
	}
	if s.bus.Read(0x0123) != 0x45 || s.bus.ReadVideo(0x2400) != 0x67 {
		t.Error("memory not restored")
	}

	st.Version = 2
	if err := s.bus.LoadState(st); err == nil {
		t.Error("expected version error")
	}
}
