package cartridge

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/meadori/nescore/mapper"
)

// buildROM returns an iNES image whose PRG bank i is filled with byte i and
// whose CHR bank j is filled with 0x80|j.
func buildROM(mapperID byte, prgBanks, chrBanks int, flags6 byte) []byte {
	data := []byte{'N', 'E', 'S', 0x1A, byte(prgBanks), byte(chrBanks), flags6 | mapperID<<4, mapperID & 0xF0, 0, 0, 0, 0, 0, 0, 0, 0}
	for i := 0; i < prgBanks; i++ {
		bank := make([]byte, prgBankSize)
		for j := range bank {
			bank[j] = byte(i)
		}
		data = append(data, bank...)
	}
	for i := 0; i < chrBanks; i++ {
		bank := make([]byte, chrBankSize)
		for j := range bank {
			bank[j] = 0x80 | byte(i)
		}
		data = append(data, bank...)
	}
	return data
}

func mustLoad(t *testing.T, data []byte) *Cartridge {
	t.Helper()
	c, err := Load(data)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return c
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.nes")
	if err := os.WriteFile(path, buildROM(3, 2, 1, 0x01), 0o644); err != nil {
		t.Fatal(err)
	}

	cart, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(cart.PRG) != 2*prgBankSize {
		t.Errorf("Expected PRG size to be %d, but got %d", 2*prgBankSize, len(cart.PRG))
	}
	if len(cart.CHR) != chrBankSize {
		t.Errorf("Expected CHR size to be %d, but got %d", chrBankSize, len(cart.CHR))
	}
	if cart.Header.Mapper != 3 {
		t.Errorf("Expected mapper to be 3, but got %d", cart.Header.Mapper)
	}
	if cart.Header.Mirroring != mapper.Vertical {
		t.Errorf("Expected vertical mirroring, got %v", cart.Header.Mirroring)
	}
	if len(cart.Hash) != 40 {
		t.Errorf("Expected a SHA-1 hex hash, got %q", cart.Hash)
	}
}

func TestParseHeaderErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"short", []byte{'N', 'E', 'S'}},
		{"bad magic", []byte{'N', 'E', 'Z', 0x1A, 1, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}},
		{"no prg", []byte{'N', 'E', 'S', 0x1A, 0, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseHeader(tt.data); !errors.Is(err, ErrFormat) {
				t.Errorf("ParseHeader error = %v, want ErrFormat", err)
			}
		})
	}
}

func TestParseHeaderFlags(t *testing.T) {
	h, err := ParseHeader([]byte{'N', 'E', 'S', 0x1A, 2, 0, 0x4A, 0x00, 0, 0, 0, 0, 0, 0, 0, 0})
	if err != nil {
		t.Fatal(err)
	}
	if h.Mapper != 4 || !h.Battery || h.Mirroring != mapper.FourScreen || h.Trainer {
		t.Errorf("unexpected header %+v", h)
	}

	// Junk in the padding masks the upper mapper nibble.
	h, err = ParseHeader([]byte{'N', 'E', 'S', 0x1A, 1, 1, 0x10, 0x40, 0, 0, 0, 0, 'D', 'i', 's', 'k'})
	if err != nil {
		t.Fatal(err)
	}
	if h.Mapper != 1 {
		t.Errorf("Mapper = %d, want 1", h.Mapper)
	}
}

func TestLoadTruncated(t *testing.T) {
	data := buildROM(0, 2, 1, 0)
	if _, err := Load(data[:len(data)-1]); !errors.Is(err, ErrTruncated) {
		t.Errorf("Load error = %v, want ErrTruncated", err)
	}
}

func TestLoadUnsupportedMapper(t *testing.T) {
	if _, err := Load(buildROM(0x42, 1, 1, 0)); !errors.Is(err, mapper.ErrUnsupported) {
		t.Errorf("Load error = %v, want ErrUnsupported", err)
	}
}

func TestLoadSkipsTrainer(t *testing.T) {
	rom := buildROM(0, 1, 1, 0x04)
	data := append(append(append([]byte(nil), rom[:headerSize]...), make([]byte, trainerSize)...), rom[headerSize:]...)
	data[headerSize+trainerSize] = 0x5A
	c := mustLoad(t, data)
	if c.PRG[0] != 0x5A {
		t.Errorf("PRG[0] = %#02x, want 0x5a", c.PRG[0])
	}
}

func TestNROM(t *testing.T) {
	c := mustLoad(t, buildROM(0, 1, 1, 0))
	m := c.Mapper

	lo, _ := m.ReadProgram(0x8123)
	hi, _ := m.ReadProgram(0xC123)
	if lo != hi {
		t.Errorf("16 KiB PRG not mirrored: %#02x != %#02x", lo, hi)
	}
	if err := m.WriteProgram(0x8000, 1); !errors.Is(err, mapper.ErrReadOnly) {
		t.Errorf("WriteProgram to ROM = %v, want ErrReadOnly", err)
	}
	if _, ok := m.ReadProgram(0x6000); ok {
		t.Errorf("NROM without battery RAM drove $6000")
	}
	if err := m.WriteGraphics(0x0000, 1); !errors.Is(err, mapper.ErrReadOnly) {
		t.Errorf("WriteGraphics to CHR-ROM = %v, want ErrReadOnly", err)
	}
	if got := m.MapNametableAddress(0x2400); got != 0 {
		t.Errorf("horizontal $2400 -> %#04x, want 0", got)
	}
}

func TestUxROMBankSelect(t *testing.T) {
	const banks = 8
	c := mustLoad(t, buildROM(2, banks, 0, 0))
	m := c.Mapper
	for _, v := range []byte{0, 3, 7, 8, 13, 0xFF} {
		if err := m.WriteProgram(0x8000, v); err != nil {
			t.Fatal(err)
		}
		got, ok := m.ReadProgram(0x8000)
		if want := c.PRG[int(v)%banks*prgBankSize]; !ok || got != want {
			t.Errorf("V=%d: $8000 = %#02x, want %#02x", v, got, want)
		}
		for _, addr := range []uint16{0xC000, 0xDEAD, 0xFFFF} {
			if got, _ := m.ReadProgram(addr); got != banks-1 {
				t.Errorf("V=%d: %#04x = %d, want last bank", v, addr, got)
			}
		}
	}

	if err := m.WriteGraphics(0x1000, 0x42); err != nil {
		t.Errorf("CHR-RAM write failed: %v", err)
	}
	if got := m.ReadGraphics(0x1000); got != 0x42 {
		t.Errorf("CHR-RAM readback = %#02x", got)
	}
}

func TestCNROMBankSelect(t *testing.T) {
	c := mustLoad(t, buildROM(3, 1, 4, 0))
	m := c.Mapper
	if err := m.WriteProgram(0xFFFF, 6); err != nil {
		t.Fatal(err)
	}
	if got := m.ReadGraphics(0x0010); got != 0x82 {
		t.Errorf("CHR after selecting 6 = %#02x, want bank 2", got)
	}
}

func writeMMC1(t *testing.T, m mapper.Mapper, addr uint16, v byte) {
	t.Helper()
	for i := 0; i < 5; i++ {
		if err := m.WriteProgram(addr, v>>i&1); err != nil {
			t.Fatal(err)
		}
	}
}

func TestMMC1(t *testing.T) {
	c := mustLoad(t, buildROM(1, 8, 2, 0))
	m := c.Mapper

	// Power-on control fixes the last bank at $C000.
	if got, _ := m.ReadProgram(0xC000); got != 7 {
		t.Errorf("$C000 = %d, want 7", got)
	}
	writeMMC1(t, m, 0xE000, 3)
	if got, _ := m.ReadProgram(0x8000); got != 3 {
		t.Errorf("$8000 = %d, want 3", got)
	}

	writeMMC1(t, m, 0x8000, 0x12) // 4K CHR, vertical
	if m.Mirroring() != mapper.Vertical {
		t.Errorf("Mirroring = %v, want vertical", m.Mirroring())
	}
	writeMMC1(t, m, 0xC000, 3)
	if got := m.ReadGraphics(0x1000); got != 0x81 {
		t.Errorf("CHR $1000 = %#02x, want bank 1 of 8 KiB", got)
	}

	if err := m.WriteProgram(0x6000, 0x99); err != nil {
		t.Fatal(err)
	}
	if got, ok := m.ReadProgram(0x6000); !ok || got != 0x99 {
		t.Errorf("PRG-RAM readback = %#02x %v", got, ok)
	}

	// A reset write abandons a partial shift.
	m.WriteProgram(0x8000, 1)
	m.WriteProgram(0x8000, 0x80)
	writeMMC1(t, m, 0xE000, 1)
	if got, _ := m.ReadProgram(0x8000); got != 1 {
		t.Errorf("$8000 after reset = %d, want 1", got)
	}
}

func TestMMC3IRQ(t *testing.T) {
	c := mustLoad(t, buildROM(4, 4, 2, 0))
	m := c.Mapper
	irq := m.(mapper.IRQSource)
	clk := m.(mapper.Clocker)

	m.WriteProgram(0xC000, 2) // latch
	m.WriteProgram(0xC001, 0) // reload
	m.WriteProgram(0xE001, 0) // enable

	scanline := func() {
		m.ReadGraphics(0x0000)
		for i := 0; i < 3; i++ {
			clk.Clock()
		}
		m.ReadGraphics(0x1000)
	}
	scanline() // reload to 2
	scanline() // 1
	if irq.IRQ() {
		t.Fatal("IRQ asserted early")
	}
	scanline() // 0
	if !irq.IRQ() {
		t.Fatal("IRQ not asserted when counter reached zero")
	}
	m.WriteProgram(0xE000, 0)
	if irq.IRQ() {
		t.Error("IRQ not acknowledged by $E000")
	}
}

func TestMMC3Banks(t *testing.T) {
	c := mustLoad(t, buildROM(4, 4, 2, 0))
	m := c.Mapper
	// 8 x 8 KiB PRG banks; bank n holds byte n/2.
	m.WriteProgram(0x8000, 6)
	m.WriteProgram(0x8001, 2)
	if got, _ := m.ReadProgram(0x8000); got != 1 {
		t.Errorf("$8000 = %d, want 1", got)
	}
	if got, _ := m.ReadProgram(0xE000); got != 3 {
		t.Errorf("$E000 = %d, want last bank", got)
	}
	m.WriteProgram(0x8000, 0x46)
	if got, _ := m.ReadProgram(0xC000); got != 1 {
		t.Errorf("$C000 in PRG mode 1 = %d, want 1", got)
	}
	if got, _ := m.ReadProgram(0x8000); got != 3 {
		t.Errorf("$8000 in PRG mode 1 = %d, want second-last", got)
	}
}

func TestStateRoundTrip(t *testing.T) {
	c := mustLoad(t, buildROM(2, 4, 0, 0))
	c.Mapper.WriteProgram(0x8000, 2)
	c.Mapper.WriteGraphics(0x0005, 0x77)
	s := c.SaveState()

	c.Mapper.WriteProgram(0x8000, 1)
	c.Mapper.WriteGraphics(0x0005, 0x00)
	if err := c.LoadState(s); err != nil {
		t.Fatal(err)
	}
	if got, _ := c.Mapper.ReadProgram(0x8000); got != 2 {
		t.Errorf("bank after restore = %d, want 2", got)
	}
	if got := c.Mapper.ReadGraphics(0x0005); got != 0x77 {
		t.Errorf("CHR-RAM after restore = %#02x", got)
	}

	// The snapshot owns its buffers.
	c.Mapper.WriteGraphics(0x0005, 0x11)
	if s.CHRRAM[5] != 0x77 {
		t.Error("snapshot aliases live CHR-RAM")
	}
}

func TestStateMismatch(t *testing.T) {
	small := mustLoad(t, buildROM(2, 4, 0, 0))
	large := mustLoad(t, buildROM(2, 8, 0, 0))
	large.Mapper.WriteProgram(0x8000, 5)

	if err := large.LoadState(small.SaveState()); !errors.Is(err, mapper.ErrStateMismatch) {
		t.Fatalf("LoadState error = %v, want ErrStateMismatch", err)
	}
	if got, _ := large.Mapper.ReadProgram(0x8000); got != 5 {
		t.Errorf("failed restore modified bank: %d", got)
	}

	other := mustLoad(t, buildROM(0, 4, 1, 0))
	if err := other.LoadState(small.SaveState()); !errors.Is(err, mapper.ErrStateMismatch) {
		t.Errorf("cross-board LoadState error = %v", err)
	}
}

func TestMMC3StateRoundTrip(t *testing.T) {
	c := mustLoad(t, buildROM(4, 4, 2, 0))
	c.Mapper.WriteProgram(0x8000, 7)
	c.Mapper.WriteProgram(0x8001, 5)
	s := c.SaveState()
	c.Mapper.WriteProgram(0x8001, 0)
	if err := c.LoadState(s); err != nil {
		t.Fatal(err)
	}
	if got, _ := c.Mapper.ReadProgram(0xA000); got != 2 {
		t.Errorf("$A000 after restore = %d, want 2", got)
	}
}
