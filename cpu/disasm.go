package cpu

import "fmt"

// Disassemble formats the instruction at pc and returns its length.
func Disassemble(r Reader, pc uint16) (string, int) {
	opcode := r.Read(pc)
	in := lookup[opcode]
	size := in.mode.size()
	lo := r.Read(pc + 1)
	word := uint16(r.Read(pc+2))<<8 | uint16(lo)

	var operand string
	switch in.mode {
	case modeAccumulator:
		operand = "A"
	case modeImmediate:
		operand = fmt.Sprintf("#$%02X", lo)
	case modeZeroPage:
		operand = fmt.Sprintf("$%02X", lo)
	case modeZeroPageX:
		operand = fmt.Sprintf("$%02X,X", lo)
	case modeZeroPageY:
		operand = fmt.Sprintf("$%02X,Y", lo)
	case modeAbsolute:
		operand = fmt.Sprintf("$%04X", word)
	case modeAbsoluteX:
		operand = fmt.Sprintf("$%04X,X", word)
	case modeAbsoluteY:
		operand = fmt.Sprintf("$%04X,Y", word)
	case modeIndirect:
		operand = fmt.Sprintf("($%04X)", word)
	case modeIndexedIndirect:
		operand = fmt.Sprintf("($%02X,X)", lo)
	case modeIndirectIndexed:
		operand = fmt.Sprintf("($%02X),Y", lo)
	case modeRelative:
		off := uint16(lo)
		if off >= 0x80 {
			off -= 0x100
		}
		operand = fmt.Sprintf("$%04X", pc+2+off)
	}

	mark := " "
	if !official(opcode) {
		mark = "*"
	}
	text := mark + in.name
	if operand != "" {
		text += " " + operand
	}
	return text, size
}

// Peeker is implemented by buses that can be read without side effects.
type Peeker interface {
	Peek(addr uint16) byte
}

type peekReader struct{ p Peeker }

func (r peekReader) Read(addr uint16) byte { return r.p.Peek(addr) }

// Trace renders the next instruction and the register file in the layout of
// the nestest.nes reference log.
func (c *CPU) Trace() string {
	var r Reader = c.bus
	if p, ok := c.bus.(Peeker); ok {
		r = peekReader{p}
	}
	text, size := Disassemble(r, c.PC)
	raw := ""
	for i := 0; i < 3; i++ {
		if i < size {
			raw += fmt.Sprintf("%02X ", r.Read(c.PC+uint16(i)))
		} else {
			raw += "   "
		}
	}
	return fmt.Sprintf("%04X  %s%-32s A:%02X X:%02X Y:%02X P:%02X SP:%02X CYC:%d",
		c.PC, raw, text, c.A, c.X, c.Y, c.P, c.SP, c.Cycles)
}
