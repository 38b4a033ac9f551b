package cpu

import (
	"errors"
	"testing"
)

type mockBus struct {
	ram [65536]byte
}

func (b *mockBus) Read(addr uint16) byte {
	return b.ram[addr]
}

func (b *mockBus) Write(addr uint16, data byte) {
	b.ram[addr] = data
}

type irqLine bool

func (l *irqLine) IRQ() bool { return bool(*l) }

func setupCPU(t *testing.T) (*CPU, *mockBus) {
	t.Helper()
	bus := &mockBus{}
	bus.ram[ResetVector] = 0x00
	bus.ram[ResetVector+1] = 0x80
	c := New(bus)
	if c.PC != 0x8000 {
		t.Fatalf("reset vector not followed: PC=%04X", c.PC)
	}
	return c, bus
}

func load(bus *mockBus, addr uint16, program ...byte) {
	copy(bus.ram[addr:], program)
}

func step(t *testing.T, c *CPU) int {
	t.Helper()
	n, err := c.Step()
	if err != nil {
		t.Fatal(err)
	}
	return n
}

func TestPowerOn(t *testing.T) {
	c, _ := setupCPU(t)
	if c.SP != 0xFD || c.P != 0x24 || c.Cycles != 7 {
		t.Errorf("power-on state SP=%02X P=%02X CYC=%d", c.SP, c.P, c.Cycles)
	}
}

func TestLoadStore(t *testing.T) {
	c, bus := setupCPU(t)
	load(bus, 0x8000,
		0xA9, 0x42, // LDA #$42
		0x8D, 0x10, 0x01, // STA $0110
	)
	if n := step(t, c); c.A != 0x42 || n != 2 {
		t.Errorf("LDA IMM: A=%02X cycles=%d", c.A, n)
	}
	if n := step(t, c); bus.ram[0x0110] != 0x42 || n != 4 {
		t.Errorf("STA ABS: mem=%02X cycles=%d", bus.ram[0x0110], n)
	}
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		name    string
		program []byte
		a       byte
		p       byte
		wantA   byte
		wantP   byte
	}{
		{"ADC", []byte{0x69, 5}, 10, 0, 15, 0},
		{"ADC carry out", []byte{0x69, 0x01}, 0xFF, 0, 0x00, Z | C},
		{"ADC overflow", []byte{0x69, 0x01}, 0x7F, 0, 0x80, N | V},
		{"SBC", []byte{0xE9, 5}, 15, C, 10, C},
		{"SBC borrow", []byte{0xE9, 1}, 0, C, 0xFF, N},
		{"SBC unofficial", []byte{0xEB, 5}, 15, C, 10, C},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, bus := setupCPU(t)
			load(bus, 0x8000, tt.program...)
			c.A = tt.a
			c.P = U | tt.p
			step(t, c)
			if c.A != tt.wantA {
				t.Errorf("A = %02X, want %02X", c.A, tt.wantA)
			}
			if got := c.P &^ (U | I); got != tt.wantP {
				t.Errorf("P = %08b, want %08b", got, tt.wantP)
			}
		})
	}
}

func TestIncDec(t *testing.T) {
	c, bus := setupCPU(t)
	bus.ram[0x10] = 0x41
	load(bus, 0x8000, 0xE6, 0x10, 0xE8) // INC $10; INX
	c.X = 0x10
	step(t, c)
	if bus.ram[0x10] != 0x42 {
		t.Error("INC failed")
	}
	step(t, c)
	if c.X != 0x11 {
		t.Error("INX failed")
	}
}

func TestShiftRotate(t *testing.T) {
	c, bus := setupCPU(t)
	load(bus, 0x8000, 0x0A, 0x4A, 0x38, 0x6A) // ASL A; LSR A; SEC; ROR A
	c.A = 0b01010101
	step(t, c)
	if c.A != 0b10101010 || c.flag(C) {
		t.Errorf("ASL: A=%08b C=%v", c.A, c.flag(C))
	}
	step(t, c)
	if c.A != 0b01010101 || c.flag(C) {
		t.Errorf("LSR: A=%08b C=%v", c.A, c.flag(C))
	}
	step(t, c)
	step(t, c)
	if c.A != 0b10101010 || !c.flag(C) || !c.flag(N) {
		t.Errorf("ROR: A=%08b P=%08b", c.A, c.P)
	}
}

func TestBranchCycles(t *testing.T) {
	tests := []struct {
		name   string
		pc     uint16
		offset byte
		zero   bool
		wantPC uint16
		want   int
	}{
		{"not taken", 0x8000, 0x10, false, 0x8002, 2},
		{"taken", 0x8000, 0x10, true, 0x8012, 3},
		{"taken backwards", 0x8010, 0xFE, true, 0x8010, 3},
		{"taken across page", 0x80F0, 0x20, true, 0x8112, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, bus := setupCPU(t)
			load(bus, tt.pc, 0xF0, tt.offset) // BEQ
			c.PC = tt.pc
			c.setFlag(Z, tt.zero)
			n := step(t, c)
			if c.PC != tt.wantPC || n != tt.want {
				t.Errorf("PC=%04X cycles=%d, want %04X/%d", c.PC, n, tt.wantPC, tt.want)
			}
		})
	}
}

func TestPageCrossPenalty(t *testing.T) {
	c, bus := setupCPU(t)
	load(bus, 0x8000,
		0xBD, 0xFF, 0x00, // LDA $00FF,X
		0x9D, 0xFF, 0x00, // STA $00FF,X
		0xBD, 0x00, 0x02, // LDA $0200,X
	)
	c.X = 1
	if n := step(t, c); n != 5 {
		t.Errorf("LDA abs,X across page: %d cycles, want 5", n)
	}
	if n := step(t, c); n != 5 {
		t.Errorf("STA abs,X: %d cycles, want 5", n)
	}
	if n := step(t, c); n != 4 {
		t.Errorf("LDA abs,X same page: %d cycles, want 4", n)
	}
}

func TestJMPIndirectBug(t *testing.T) {
	c, bus := setupCPU(t)
	load(bus, 0x8000, 0x6C, 0xFF, 0x02) // JMP ($02FF)
	bus.ram[0x02FF] = 0x34
	bus.ram[0x0300] = 0x99
	bus.ram[0x0200] = 0x12
	step(t, c)
	if c.PC != 0x1234 {
		t.Errorf("JMP ($02FF) -> %04X, want 1234", c.PC)
	}
}

func TestZeroPageWrap(t *testing.T) {
	c, bus := setupCPU(t)
	load(bus, 0x8000,
		0xB5, 0xF0, // LDA $F0,X
		0xB1, 0xFF, // LDA ($FF),Y
	)
	c.X = 0x20
	bus.ram[0x0010] = 0x77
	bus.ram[0x0110] = 0x55
	step(t, c)
	if c.A != 0x77 {
		t.Errorf("zp,X did not wrap: A=%02X", c.A)
	}
	bus.ram[0x00FF] = 0x00
	bus.ram[0x0000] = 0x04
	bus.ram[0x0100] = 0x05
	bus.ram[0x0401] = 0x66
	c.Y = 1
	step(t, c)
	if c.A != 0x66 {
		t.Errorf("(zp),Y pointer did not wrap: A=%02X", c.A)
	}
}

func TestStack(t *testing.T) {
	c, bus := setupCPU(t)
	load(bus, 0x8000,
		0x20, 0x00, 0x90, // JSR $9000
		0xEA, // NOP
	)
	load(bus, 0x9000,
		0x08, // PHP
		0x28, // PLP
		0x60, // RTS
	)
	step(t, c)
	if c.PC != 0x9000 || c.SP != 0xFB {
		t.Fatalf("JSR: PC=%04X SP=%02X", c.PC, c.SP)
	}
	if bus.ram[0x01FD] != 0x80 || bus.ram[0x01FC] != 0x02 {
		t.Errorf("JSR pushed %02X%02X, want 8002", bus.ram[0x01FD], bus.ram[0x01FC])
	}
	step(t, c)
	if bus.ram[0x01FB]&(B|U) != B|U {
		t.Errorf("PHP pushed %08b without B and U", bus.ram[0x01FB])
	}
	step(t, c)
	if c.P&B != 0 {
		t.Errorf("PLP kept B set")
	}
	step(t, c)
	if c.PC != 0x8003 || c.SP != 0xFD {
		t.Errorf("RTS: PC=%04X SP=%02X", c.PC, c.SP)
	}
}

func TestBRKAndRTI(t *testing.T) {
	c, bus := setupCPU(t)
	bus.ram[IRQVector] = 0x00
	bus.ram[IRQVector+1] = 0x90
	load(bus, 0x8000, 0x00, 0xFF) // BRK
	load(bus, 0x9000, 0x40)       // RTI
	c.P = U

	if n := step(t, c); n != 7 || c.PC != 0x9000 || !c.flag(I) {
		t.Fatalf("BRK: cycles=%d PC=%04X P=%08b", n, c.PC, c.P)
	}
	if pushed := bus.ram[0x01FB]; pushed&B == 0 {
		t.Errorf("BRK pushed status without B: %08b", pushed)
	}
	step(t, c)
	if c.PC != 0x8002 || c.flag(I) {
		t.Errorf("RTI: PC=%04X P=%08b", c.PC, c.P)
	}
}

func TestNMI(t *testing.T) {
	c, bus := setupCPU(t)
	bus.ram[NMIVector] = 0x00
	bus.ram[NMIVector+1] = 0xA0
	load(bus, 0x8000, 0xEA)
	c.TriggerNMI()
	if n := step(t, c); n != 7 || c.PC != 0xA000 {
		t.Fatalf("NMI: cycles=%d PC=%04X", n, c.PC)
	}
	if pushed := bus.ram[0x01FB]; pushed&B != 0 || pushed&U == 0 {
		t.Errorf("NMI pushed status %08b", pushed)
	}
}

func TestIRQMasking(t *testing.T) {
	c, bus := setupCPU(t)
	bus.ram[IRQVector] = 0x00
	bus.ram[IRQVector+1] = 0xB0
	load(bus, 0x8000, 0xEA, 0x58, 0xEA, 0xEA) // NOP; CLI; NOP; NOP
	line := irqLine(true)
	c.SetIRQLine(&line)

	step(t, c) // I still set from reset
	if c.PC != 0x8001 {
		t.Fatalf("IRQ taken while masked")
	}
	step(t, c) // CLI
	step(t, c) // NOP runs before the delayed poll sees I clear
	if c.PC != 0x8003 {
		t.Fatalf("IRQ taken immediately after CLI: PC=%04X", c.PC)
	}
	if n := step(t, c); n != 7 || c.PC != 0xB000 {
		t.Errorf("IRQ not serviced: cycles=%d PC=%04X", n, c.PC)
	}
}

func TestStall(t *testing.T) {
	c, bus := setupCPU(t)
	load(bus, 0x8000, 0xEA)
	c.AddStall(513)
	if n := step(t, c); n != 513 || c.PC != 0x8000 {
		t.Errorf("stall: cycles=%d PC=%04X", n, c.PC)
	}
	if n := step(t, c); n != 2 {
		t.Errorf("NOP after stall: %d cycles", n)
	}
}

func TestUnimplementedOpcode(t *testing.T) {
	c, bus := setupCPU(t)
	load(bus, 0x8000, 0x02) // KIL
	_, err := c.Step()
	var opErr *UnimplementedOpcodeError
	if !errors.As(err, &opErr) || opErr.Opcode != 0x02 || opErr.PC != 0x8000 {
		t.Fatalf("Step error = %v", err)
	}
	if c.PC != 0x8000 {
		t.Errorf("PC moved past a fatal opcode")
	}
}

func TestUnofficial(t *testing.T) {
	c, bus := setupCPU(t)
	load(bus, 0x8000,
		0xA7, 0x10, // LAX $10
		0x87, 0x11, // SAX $11
		0xC7, 0x12, // DCP $12
		0xCB, 0x02, // AXS #$02
	)
	bus.ram[0x10] = 0x0F
	bus.ram[0x12] = 0x10
	step(t, c)
	if c.A != 0x0F || c.X != 0x0F {
		t.Errorf("LAX: A=%02X X=%02X", c.A, c.X)
	}
	c.X = 0x3C
	step(t, c)
	if bus.ram[0x11] != 0x0C {
		t.Errorf("SAX stored %02X", bus.ram[0x11])
	}
	step(t, c)
	if bus.ram[0x12] != 0x0F || !c.flag(Z) || !c.flag(C) {
		t.Errorf("DCP: mem=%02X P=%08b", bus.ram[0x12], c.P)
	}
	step(t, c)
	if c.X != 0x0A || !c.flag(C) {
		t.Errorf("AXS: X=%02X P=%08b", c.X, c.P)
	}
}

func TestStateRoundTrip(t *testing.T) {
	c, bus := setupCPU(t)
	load(bus, 0x8000, 0xA9, 0x01, 0xA9, 0x02)
	step(t, c)
	c.AddStall(3)
	s := c.SaveState()
	step(t, c)
	step(t, c)
	if err := c.LoadState(s); err != nil {
		t.Fatal(err)
	}
	if c.SaveState() != s {
		t.Errorf("restore is not exact:\n got %+v\nwant %+v", c.SaveState(), s)
	}
	if err := c.LoadState(State{Version: 99}); err == nil {
		t.Error("LoadState accepted an unknown version")
	}
}

func TestDisassemble(t *testing.T) {
	bus := &mockBus{}
	tests := []struct {
		program []byte
		want    string
		size    int
	}{
		{[]byte{0x4C, 0xF5, 0xC5}, " JMP $C5F5", 3},
		{[]byte{0xA2, 0x00}, " LDX #$00", 2},
		{[]byte{0xB1, 0x89}, " LDA ($89),Y", 2},
		{[]byte{0xA7, 0x10}, "*LAX $10", 2},
		{[]byte{0x0A}, " ASL A", 1},
		{[]byte{0xD0, 0xFE}, " BNE $C000", 2},
	}
	for _, tt := range tests {
		load(bus, 0xC000, tt.program...)
		got, size := Disassemble(bus, 0xC000)
		if got != tt.want || size != tt.size {
			t.Errorf("Disassemble(% X) = %q/%d, want %q/%d", tt.program, got, size, tt.want, tt.size)
		}
	}
}
