package cpu

import "fmt"

// Reader is the read half of Bus.
type Reader interface {
	Read(addr uint16) byte
}

// Bus defines the interface for the CPU to interact with the bus.
type Bus interface {
	Reader
	Write(addr uint16, data byte)
}

// IRQLine is a level-triggered interrupt source, sampled at instruction
// boundaries.
type IRQLine interface {
	IRQ() bool
}

// Status flag bits of P.
const (
	C byte = 1 << iota // carry
	Z                  // zero
	I                  // interrupt disable
	D                  // decimal (ignored by the 2A03)
	B                  // break, only exists on the stack
	U                  // unused, always set
	V                  // overflow
	N                  // negative
)

// Interrupt vectors.
const (
	NMIVector   = 0xFFFA
	ResetVector = 0xFFFC
	IRQVector   = 0xFFFE
)

// Frequency is the NTSC CPU clock in Hz.
const Frequency = 1789773

const interruptCycles = 7

// UnimplementedOpcodeError is returned by Step for opcodes that lock up the
// processor or whose behaviour depends on analog effects.
type UnimplementedOpcodeError struct {
	Opcode byte
	PC     uint16
}

func (e *UnimplementedOpcodeError) Error() string {
	return fmt.Sprintf("cpu: unimplemented opcode $%02X (%s) at $%04X", e.Opcode, lookup[e.Opcode].name, e.PC)
}

// CPU represents the 6502 CPU.
type CPU struct {
	PC uint16
	SP byte
	A  byte
	X  byte
	Y  byte
	P  byte

	// Cycles is the number of CPU cycles elapsed since power-on.
	Cycles uint64

	bus Bus
	irq IRQLine

	opcode      byte
	address     uint16
	pageCycles  int
	extraCycles int

	stall      int
	nmiPending bool
	// irqMasked is the I flag as seen by the interrupt poll. CLI, SEI and
	// PLP change it one instruction late.
	irqMasked bool
}

// New creates a new CPU instance attached to bus.
func New(bus Bus) *CPU {
	c := &CPU{bus: bus}
	c.PowerOn()
	return c
}

// ConnectBus connects the CPU to the bus.
func (c *CPU) ConnectBus(bus Bus) {
	c.bus = bus
}

// SetIRQLine attaches the maskable interrupt source.
func (c *CPU) SetIRQLine(l IRQLine) {
	c.irq = l
}

// PowerOn sets the registers to their power-up values and jumps through the
// reset vector.
func (c *CPU) PowerOn() {
	c.A, c.X, c.Y = 0, 0, 0
	c.SP = 0
	c.P = U | I
	c.Cycles = 0
	c.stall = 0
	c.nmiPending = false
	c.Reset()
}

// Reset performs the reset sequence: three suppressed stack pushes and a jump
// through $FFFC.
func (c *CPU) Reset() {
	c.SP -= 3
	c.P |= I
	c.irqMasked = true
	c.PC = c.read16(ResetVector)
	c.Cycles += interruptCycles
}

// TriggerNMI latches a non-maskable interrupt for the next instruction
// boundary.
func (c *CPU) TriggerNMI() {
	c.nmiPending = true
}

// AddStall suspends the CPU for n cycles (DMA, DMC fetches).
func (c *CPU) AddStall(n int) {
	c.stall += n
}

// Stalled reports pending stall cycles.
func (c *CPU) Stalled() int {
	return c.stall
}

func (c *CPU) flag(f byte) bool {
	return c.P&f != 0
}

func (c *CPU) setFlag(f byte, v bool) {
	if v {
		c.P |= f
	} else {
		c.P &^= f
	}
}

func (c *CPU) setZN(v byte) {
	c.setFlag(Z, v == 0)
	c.setFlag(N, v&0x80 != 0)
}

func (c *CPU) read16(addr uint16) uint16 {
	lo := uint16(c.bus.Read(addr))
	hi := uint16(c.bus.Read(addr + 1))
	return hi<<8 | lo
}

// read16wrap reads a pointer whose high byte is fetched without carrying
// into the page, as the 6502 does for JMP ($xxFF) and zero-page pointers.
func (c *CPU) read16wrap(addr uint16) uint16 {
	lo := uint16(c.bus.Read(addr))
	hi := uint16(c.bus.Read(addr&0xFF00 | uint16(byte(addr)+1)))
	return hi<<8 | lo
}

func (c *CPU) push(v byte) {
	c.bus.Write(0x100|uint16(c.SP), v)
	c.SP--
}

func (c *CPU) push16(v uint16) {
	c.push(byte(v >> 8))
	c.push(byte(v))
}

func (c *CPU) pull() byte {
	c.SP++
	return c.bus.Read(0x100 | uint16(c.SP))
}

func (c *CPU) pull16() uint16 {
	lo := uint16(c.pull())
	hi := uint16(c.pull())
	return hi<<8 | lo
}

func pagesDiffer(a, b uint16) bool {
	return a&0xFF00 != b&0xFF00
}

func (c *CPU) interrupt(vector uint16) int {
	c.push16(c.PC)
	c.push(c.P&^B | U)
	c.P |= I
	c.irqMasked = true
	c.PC = c.read16(vector)
	c.Cycles += interruptCycles
	return interruptCycles
}

// Step executes one instruction, or services a pending interrupt or stall,
// and returns the number of cycles consumed.
func (c *CPU) Step() (int, error) {
	if c.stall > 0 {
		n := c.stall
		c.stall = 0
		c.Cycles += uint64(n)
		return n, nil
	}
	if c.nmiPending {
		c.nmiPending = false
		return c.interrupt(NMIVector), nil
	}
	if c.irq != nil && !c.irqMasked && c.irq.IRQ() {
		return c.interrupt(IRQVector), nil
	}

	opcode := c.bus.Read(c.PC)
	in := &lookup[opcode]
	if in.exec == nil {
		return 0, &UnimplementedOpcodeError{Opcode: opcode, PC: c.PC}
	}

	addr, crossed := c.resolve(in.mode)
	c.opcode = opcode
	c.address = addr
	c.pageCycles = 0
	c.extraCycles = 0
	if crossed {
		c.pageCycles = int(in.pageCycles)
	}

	c.PC += uint16(in.mode.size())
	masked := c.flag(I)
	in.exec(c, in.mode, addr)
	switch opcode {
	case 0x28, 0x58, 0x78: // PLP, CLI, SEI
		c.irqMasked = masked
	default:
		c.irqMasked = c.flag(I)
	}

	n := int(in.cycles) + c.pageCycles + c.extraCycles
	c.Cycles += uint64(n)
	return n, nil
}

// resolve computes the effective address for mode and whether indexing
// crossed a page.
func (c *CPU) resolve(mode addressingMode) (uint16, bool) {
	pc := c.PC
	switch mode {
	case modeImmediate:
		return pc + 1, false
	case modeZeroPage:
		return uint16(c.bus.Read(pc + 1)), false
	case modeZeroPageX:
		return uint16(c.bus.Read(pc+1) + c.X), false
	case modeZeroPageY:
		return uint16(c.bus.Read(pc+1) + c.Y), false
	case modeAbsolute:
		return c.read16(pc + 1), false
	case modeAbsoluteX:
		base := c.read16(pc + 1)
		addr := base + uint16(c.X)
		return addr, pagesDiffer(base, addr)
	case modeAbsoluteY:
		base := c.read16(pc + 1)
		addr := base + uint16(c.Y)
		return addr, pagesDiffer(base, addr)
	case modeIndirect:
		return c.read16wrap(c.read16(pc + 1)), false
	case modeIndexedIndirect:
		return c.read16wrap(uint16(c.bus.Read(pc+1) + c.X)), false
	case modeIndirectIndexed:
		base := c.read16wrap(uint16(c.bus.Read(pc + 1)))
		addr := base + uint16(c.Y)
		return addr, pagesDiffer(base, addr)
	case modeRelative:
		off := uint16(c.bus.Read(pc + 1))
		if off >= 0x80 {
			off -= 0x100
		}
		return pc + 2 + off, false
	}
	return 0, false
}
