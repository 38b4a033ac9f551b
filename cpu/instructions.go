package cpu

type addressingMode byte

const (
	modeImplied addressingMode = iota
	modeAccumulator
	modeImmediate
	modeZeroPage
	modeZeroPageX
	modeZeroPageY
	modeAbsolute
	modeAbsoluteX
	modeAbsoluteY
	modeIndirect
	modeIndexedIndirect
	modeIndirectIndexed
	modeRelative
)

func (m addressingMode) size() int {
	switch m {
	case modeImplied, modeAccumulator:
		return 1
	case modeAbsolute, modeAbsoluteX, modeAbsoluteY, modeIndirect:
		return 3
	}
	return 2
}

// instruction is one row of the decode table.
type instruction struct {
	name       string
	mode       addressingMode
	cycles     byte
	pageCycles byte
	exec       func(c *CPU, mode addressingMode, addr uint16)
}

const (
	imp = modeImplied
	acc = modeAccumulator
	imm = modeImmediate
	zp  = modeZeroPage
	zpx = modeZeroPageX
	zpy = modeZeroPageY
	abs = modeAbsolute
	abx = modeAbsoluteX
	aby = modeAbsoluteY
	ind = modeIndirect
	izx = modeIndexedIndirect
	izy = modeIndirectIndexed
	rel = modeRelative
)

var instructionModes = [256]addressingMode{
	imp, izx, imp, izx, zp, zp, zp, zp, imp, imm, acc, imm, abs, abs, abs, abs,
	rel, izy, imp, izy, zpx, zpx, zpx, zpx, imp, aby, imp, aby, abx, abx, abx, abx,
	abs, izx, imp, izx, zp, zp, zp, zp, imp, imm, acc, imm, abs, abs, abs, abs,
	rel, izy, imp, izy, zpx, zpx, zpx, zpx, imp, aby, imp, aby, abx, abx, abx, abx,
	imp, izx, imp, izx, zp, zp, zp, zp, imp, imm, acc, imm, abs, abs, abs, abs,
	rel, izy, imp, izy, zpx, zpx, zpx, zpx, imp, aby, imp, aby, abx, abx, abx, abx,
	imp, izx, imp, izx, zp, zp, zp, zp, imp, imm, acc, imm, ind, abs, abs, abs,
	rel, izy, imp, izy, zpx, zpx, zpx, zpx, imp, aby, imp, aby, abx, abx, abx, abx,
	imm, izx, imm, izx, zp, zp, zp, zp, imp, imm, imp, imm, abs, abs, abs, abs,
	rel, izy, imp, izy, zpx, zpx, zpy, zpy, imp, aby, imp, aby, abx, abx, aby, aby,
	imm, izx, imm, izx, zp, zp, zp, zp, imp, imm, imp, imm, abs, abs, abs, abs,
	rel, izy, imp, izy, zpx, zpx, zpy, zpy, imp, aby, imp, aby, abx, abx, aby, aby,
	imm, izx, imm, izx, zp, zp, zp, zp, imp, imm, imp, imm, abs, abs, abs, abs,
	rel, izy, imp, izy, zpx, zpx, zpx, zpx, imp, aby, imp, aby, abx, abx, abx, abx,
	imm, izx, imm, izx, zp, zp, zp, zp, imp, imm, imp, imm, abs, abs, abs, abs,
	rel, izy, imp, izy, zpx, zpx, zpx, zpx, imp, aby, imp, aby, abx, abx, abx, abx,
}

var instructionCycles = [256]byte{
	7, 6, 2, 8, 3, 3, 5, 5, 3, 2, 2, 2, 4, 4, 6, 6,
	2, 5, 2, 8, 4, 4, 6, 6, 2, 4, 2, 7, 4, 4, 7, 7,
	6, 6, 2, 8, 3, 3, 5, 5, 4, 2, 2, 2, 4, 4, 6, 6,
	2, 5, 2, 8, 4, 4, 6, 6, 2, 4, 2, 7, 4, 4, 7, 7,
	6, 6, 2, 8, 3, 3, 5, 5, 3, 2, 2, 2, 3, 4, 6, 6,
	2, 5, 2, 8, 4, 4, 6, 6, 2, 4, 2, 7, 4, 4, 7, 7,
	6, 6, 2, 8, 3, 3, 5, 5, 4, 2, 2, 2, 5, 4, 6, 6,
	2, 5, 2, 8, 4, 4, 6, 6, 2, 4, 2, 7, 4, 4, 7, 7,
	2, 6, 2, 6, 3, 3, 3, 3, 2, 2, 2, 2, 4, 4, 4, 4,
	2, 6, 2, 6, 4, 4, 4, 4, 2, 5, 2, 5, 5, 5, 5, 5,
	2, 6, 2, 6, 3, 3, 3, 3, 2, 2, 2, 2, 4, 4, 4, 4,
	2, 5, 2, 5, 4, 4, 4, 4, 2, 4, 2, 4, 4, 4, 4, 4,
	2, 6, 2, 8, 3, 3, 5, 5, 2, 2, 2, 2, 4, 4, 6, 6,
	2, 5, 2, 8, 4, 4, 6, 6, 2, 4, 2, 7, 4, 4, 7, 7,
	2, 6, 2, 8, 3, 3, 5, 5, 2, 2, 2, 2, 4, 4, 6, 6,
	2, 5, 2, 8, 4, 4, 6, 6, 2, 4, 2, 7, 4, 4, 7, 7,
}

// instructionPageCycles is the penalty for an indexed read that crosses a
// page. Writes and read-modify-write instructions always pay it in
// instructionCycles.
var instructionPageCycles = [256]byte{
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 1, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 1, 1, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 1, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 1, 1, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 1, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 1, 1, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 1, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 1, 1, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 1, 0, 1, 0, 0, 0, 0, 0, 1, 0, 1, 1, 1, 1, 1,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 1, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 1, 1, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 1, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 1, 1, 0, 0,
}

var instructionNames = [256]string{
	"BRK", "ORA", "KIL", "SLO", "NOP", "ORA", "ASL", "SLO", "PHP", "ORA", "ASL", "ANC", "NOP", "ORA", "ASL", "SLO",
	"BPL", "ORA", "KIL", "SLO", "NOP", "ORA", "ASL", "SLO", "CLC", "ORA", "NOP", "SLO", "NOP", "ORA", "ASL", "SLO",
	"JSR", "AND", "KIL", "RLA", "BIT", "AND", "ROL", "RLA", "PLP", "AND", "ROL", "ANC", "BIT", "AND", "ROL", "RLA",
	"BMI", "AND", "KIL", "RLA", "NOP", "AND", "ROL", "RLA", "SEC", "AND", "NOP", "RLA", "NOP", "AND", "ROL", "RLA",
	"RTI", "EOR", "KIL", "SRE", "NOP", "EOR", "LSR", "SRE", "PHA", "EOR", "LSR", "ALR", "JMP", "EOR", "LSR", "SRE",
	"BVC", "EOR", "KIL", "SRE", "NOP", "EOR", "LSR", "SRE", "CLI", "EOR", "NOP", "SRE", "NOP", "EOR", "LSR", "SRE",
	"RTS", "ADC", "KIL", "RRA", "NOP", "ADC", "ROR", "RRA", "PLA", "ADC", "ROR", "ARR", "JMP", "ADC", "ROR", "RRA",
	"BVS", "ADC", "KIL", "RRA", "NOP", "ADC", "ROR", "RRA", "SEI", "ADC", "NOP", "RRA", "NOP", "ADC", "ROR", "RRA",
	"NOP", "STA", "NOP", "SAX", "STY", "STA", "STX", "SAX", "DEY", "NOP", "TXA", "XAA", "STY", "STA", "STX", "SAX",
	"BCC", "STA", "KIL", "AHX", "STY", "STA", "STX", "SAX", "TYA", "STA", "TXS", "TAS", "SHY", "STA", "SHX", "AHX",
	"LDY", "LDA", "LDX", "LAX", "LDY", "LDA", "LDX", "LAX", "TAY", "LDA", "TAX", "LAX", "LDY", "LDA", "LDX", "LAX",
	"BCS", "LDA", "KIL", "LAX", "LDY", "LDA", "LDX", "LAX", "CLV", "LDA", "TSX", "LAS", "LDY", "LDA", "LDX", "LAX",
	"CPY", "CMP", "NOP", "DCP", "CPY", "CMP", "DEC", "DCP", "INY", "CMP", "DEX", "AXS", "CPY", "CMP", "DEC", "DCP",
	"BNE", "CMP", "KIL", "DCP", "NOP", "CMP", "DEC", "DCP", "CLD", "CMP", "NOP", "DCP", "NOP", "CMP", "DEC", "DCP",
	"CPX", "SBC", "NOP", "ISC", "CPX", "SBC", "INC", "ISC", "INX", "SBC", "NOP", "SBC", "CPX", "SBC", "INC", "ISC",
	"BEQ", "SBC", "KIL", "ISC", "NOP", "SBC", "INC", "ISC", "SED", "SBC", "NOP", "ISC", "NOP", "SBC", "INC", "ISC",
}

// official reports whether the mnemonic belongs to the documented set.
func official(opcode byte) bool {
	name := instructionNames[opcode]
	switch {
	case opcode == 0xEB:
		return false
	case name == "NOP":
		return opcode == 0xEA
	}
	_, ok := officialNames[name]
	return ok
}

var officialNames = map[string]struct{}{}

func init() {
	for _, n := range []string{
		"ADC", "AND", "ASL", "BCC", "BCS", "BEQ", "BIT", "BMI", "BNE", "BPL", "BRK", "BVC", "BVS", "CLC",
		"CLD", "CLI", "CLV", "CMP", "CPX", "CPY", "DEC", "DEX", "DEY", "EOR", "INC", "INX", "INY", "JMP",
		"JSR", "LDA", "LDX", "LDY", "LSR", "NOP", "ORA", "PHA", "PHP", "PLA", "PLP", "ROL", "ROR", "RTI",
		"RTS", "SBC", "SEC", "SED", "SEI", "STA", "STX", "STY", "TAX", "TAY", "TSX", "TXA", "TXS", "TYA",
	} {
		officialNames[n] = struct{}{}
	}
}

var operations = map[string]func(c *CPU, mode addressingMode, addr uint16){
	"ADC": (*CPU).adc, "AND": (*CPU).and, "ASL": (*CPU).asl, "BCC": (*CPU).bcc, "BCS": (*CPU).bcs,
	"BEQ": (*CPU).beq, "BIT": (*CPU).bit, "BMI": (*CPU).bmi, "BNE": (*CPU).bne, "BPL": (*CPU).bpl,
	"BRK": (*CPU).brk, "BVC": (*CPU).bvc, "BVS": (*CPU).bvs, "CLC": (*CPU).clc, "CLD": (*CPU).cld,
	"CLI": (*CPU).cli, "CLV": (*CPU).clv, "CMP": (*CPU).cmp, "CPX": (*CPU).cpx, "CPY": (*CPU).cpy,
	"DEC": (*CPU).dec, "DEX": (*CPU).dex, "DEY": (*CPU).dey, "EOR": (*CPU).eor, "INC": (*CPU).inc,
	"INX": (*CPU).inx, "INY": (*CPU).iny, "JMP": (*CPU).jmp, "JSR": (*CPU).jsr, "LDA": (*CPU).lda,
	"LDX": (*CPU).ldx, "LDY": (*CPU).ldy, "LSR": (*CPU).lsr, "NOP": (*CPU).nop, "ORA": (*CPU).ora,
	"PHA": (*CPU).pha, "PHP": (*CPU).php, "PLA": (*CPU).pla, "PLP": (*CPU).plp, "ROL": (*CPU).rol,
	"ROR": (*CPU).ror, "RTI": (*CPU).rti, "RTS": (*CPU).rts, "SBC": (*CPU).sbc, "SEC": (*CPU).sec,
	"SED": (*CPU).sed, "SEI": (*CPU).sei, "STA": (*CPU).sta, "STX": (*CPU).stx, "STY": (*CPU).sty,
	"TAX": (*CPU).tax, "TAY": (*CPU).tay, "TSX": (*CPU).tsx, "TXA": (*CPU).txa, "TXS": (*CPU).txs,
	"TYA": (*CPU).tya,

	"LAX": (*CPU).lax, "SAX": (*CPU).sax, "DCP": (*CPU).dcp, "ISC": (*CPU).isc, "SLO": (*CPU).slo,
	"RLA": (*CPU).rla, "SRE": (*CPU).sre, "RRA": (*CPU).rra, "ANC": (*CPU).anc, "ALR": (*CPU).alr,
	"ARR": (*CPU).arr, "AXS": (*CPU).axs, "LAS": (*CPU).las,
	// KIL, XAA, AHX, TAS, SHX and SHY are left without an implementation.
}

var lookup [256]instruction

func init() {
	for op := range lookup {
		name := instructionNames[op]
		lookup[op] = instruction{
			name:       name,
			mode:       instructionModes[op],
			cycles:     instructionCycles[op],
			pageCycles: instructionPageCycles[op],
			exec:       operations[name],
		}
	}
}

// operand reads the value an instruction works on.
func (c *CPU) operand(mode addressingMode, addr uint16) byte {
	if mode == modeAccumulator {
		return c.A
	}
	return c.bus.Read(addr)
}

func (c *CPU) store(mode addressingMode, addr uint16, v byte) {
	if mode == modeAccumulator {
		c.A = v
		return
	}
	c.bus.Write(addr, v)
}

func (c *CPU) compare(a, b byte) {
	c.setZN(a - b)
	c.setFlag(C, a >= b)
}

func (c *CPU) addWithCarry(v byte) {
	a := c.A
	var carry uint16
	if c.flag(C) {
		carry = 1
	}
	sum := uint16(a) + uint16(v) + carry
	c.A = byte(sum)
	c.setZN(c.A)
	c.setFlag(C, sum > 0xFF)
	c.setFlag(V, (a^v)&0x80 == 0 && (a^c.A)&0x80 != 0)
}

func (c *CPU) branch(cond bool, addr uint16) {
	if !cond {
		return
	}
	c.extraCycles++
	if pagesDiffer(c.PC, addr) {
		c.extraCycles++
	}
	c.PC = addr
}

// Loads and stores.

func (c *CPU) lda(mode addressingMode, addr uint16) {
	c.A = c.operand(mode, addr)
	c.setZN(c.A)
}

func (c *CPU) ldx(mode addressingMode, addr uint16) {
	c.X = c.operand(mode, addr)
	c.setZN(c.X)
}

func (c *CPU) ldy(mode addressingMode, addr uint16) {
	c.Y = c.operand(mode, addr)
	c.setZN(c.Y)
}

func (c *CPU) sta(mode addressingMode, addr uint16) { c.bus.Write(addr, c.A) }
func (c *CPU) stx(mode addressingMode, addr uint16) { c.bus.Write(addr, c.X) }
func (c *CPU) sty(mode addressingMode, addr uint16) { c.bus.Write(addr, c.Y) }

// Arithmetic and logic.

func (c *CPU) adc(mode addressingMode, addr uint16) {
	c.addWithCarry(c.operand(mode, addr))
}

func (c *CPU) sbc(mode addressingMode, addr uint16) {
	c.addWithCarry(^c.operand(mode, addr))
}

func (c *CPU) and(mode addressingMode, addr uint16) {
	c.A &= c.operand(mode, addr)
	c.setZN(c.A)
}

func (c *CPU) ora(mode addressingMode, addr uint16) {
	c.A |= c.operand(mode, addr)
	c.setZN(c.A)
}

func (c *CPU) eor(mode addressingMode, addr uint16) {
	c.A ^= c.operand(mode, addr)
	c.setZN(c.A)
}

func (c *CPU) bit(mode addressingMode, addr uint16) {
	v := c.operand(mode, addr)
	c.setFlag(Z, c.A&v == 0)
	c.setFlag(V, v&0x40 != 0)
	c.setFlag(N, v&0x80 != 0)
}

func (c *CPU) cmp(mode addressingMode, addr uint16) { c.compare(c.A, c.operand(mode, addr)) }
func (c *CPU) cpx(mode addressingMode, addr uint16) { c.compare(c.X, c.operand(mode, addr)) }
func (c *CPU) cpy(mode addressingMode, addr uint16) { c.compare(c.Y, c.operand(mode, addr)) }

// Read-modify-write.

func (c *CPU) asl(mode addressingMode, addr uint16) {
	v := c.operand(mode, addr)
	c.setFlag(C, v&0x80 != 0)
	v <<= 1
	c.store(mode, addr, v)
	c.setZN(v)
}

func (c *CPU) lsr(mode addressingMode, addr uint16) {
	v := c.operand(mode, addr)
	c.setFlag(C, v&1 != 0)
	v >>= 1
	c.store(mode, addr, v)
	c.setZN(v)
}

func (c *CPU) rol(mode addressingMode, addr uint16) {
	v := c.operand(mode, addr)
	carry := c.P & C
	c.setFlag(C, v&0x80 != 0)
	v = v<<1 | carry
	c.store(mode, addr, v)
	c.setZN(v)
}

func (c *CPU) ror(mode addressingMode, addr uint16) {
	v := c.operand(mode, addr)
	carry := (c.P & C) << 7
	c.setFlag(C, v&1 != 0)
	v = v>>1 | carry
	c.store(mode, addr, v)
	c.setZN(v)
}

func (c *CPU) inc(mode addressingMode, addr uint16) {
	v := c.operand(mode, addr) + 1
	c.store(mode, addr, v)
	c.setZN(v)
}

func (c *CPU) dec(mode addressingMode, addr uint16) {
	v := c.operand(mode, addr) - 1
	c.store(mode, addr, v)
	c.setZN(v)
}

func (c *CPU) inx(addressingMode, uint16) { c.X++; c.setZN(c.X) }
func (c *CPU) iny(addressingMode, uint16) { c.Y++; c.setZN(c.Y) }
func (c *CPU) dex(addressingMode, uint16) { c.X--; c.setZN(c.X) }
func (c *CPU) dey(addressingMode, uint16) { c.Y--; c.setZN(c.Y) }

// Transfers.

func (c *CPU) tax(addressingMode, uint16) { c.X = c.A; c.setZN(c.X) }
func (c *CPU) tay(addressingMode, uint16) { c.Y = c.A; c.setZN(c.Y) }
func (c *CPU) txa(addressingMode, uint16) { c.A = c.X; c.setZN(c.A) }
func (c *CPU) tya(addressingMode, uint16) { c.A = c.Y; c.setZN(c.A) }
func (c *CPU) tsx(addressingMode, uint16) { c.X = c.SP; c.setZN(c.X) }
func (c *CPU) txs(addressingMode, uint16) { c.SP = c.X }

// Flags.

func (c *CPU) clc(addressingMode, uint16) { c.P &^= C }
func (c *CPU) cld(addressingMode, uint16) { c.P &^= D }
func (c *CPU) cli(addressingMode, uint16) { c.P &^= I }
func (c *CPU) clv(addressingMode, uint16) { c.P &^= V }
func (c *CPU) sec(addressingMode, uint16) { c.P |= C }
func (c *CPU) sed(addressingMode, uint16) { c.P |= D }
func (c *CPU) sei(addressingMode, uint16) { c.P |= I }

// Stack.

func (c *CPU) pha(addressingMode, uint16) { c.push(c.A) }
func (c *CPU) php(addressingMode, uint16) { c.push(c.P | B | U) }

func (c *CPU) pla(addressingMode, uint16) {
	c.A = c.pull()
	c.setZN(c.A)
}

func (c *CPU) plp(addressingMode, uint16) {
	c.P = c.pull()&^B | U
}

// Control flow.

func (c *CPU) jmp(mode addressingMode, addr uint16) { c.PC = addr }

func (c *CPU) jsr(mode addressingMode, addr uint16) {
	c.push16(c.PC - 1)
	c.PC = addr
}

func (c *CPU) rts(addressingMode, uint16) {
	c.PC = c.pull16() + 1
}

func (c *CPU) rti(addressingMode, uint16) {
	c.P = c.pull()&^B | U
	c.PC = c.pull16()
}

func (c *CPU) brk(addressingMode, uint16) {
	c.push16(c.PC + 1)
	c.push(c.P | B | U)
	c.P |= I
	c.PC = c.read16(IRQVector)
}

func (c *CPU) bcc(_ addressingMode, addr uint16) { c.branch(!c.flag(C), addr) }
func (c *CPU) bcs(_ addressingMode, addr uint16) { c.branch(c.flag(C), addr) }
func (c *CPU) bne(_ addressingMode, addr uint16) { c.branch(!c.flag(Z), addr) }
func (c *CPU) beq(_ addressingMode, addr uint16) { c.branch(c.flag(Z), addr) }
func (c *CPU) bpl(_ addressingMode, addr uint16) { c.branch(!c.flag(N), addr) }
func (c *CPU) bmi(_ addressingMode, addr uint16) { c.branch(c.flag(N), addr) }
func (c *CPU) bvc(_ addressingMode, addr uint16) { c.branch(!c.flag(V), addr) }
func (c *CPU) bvs(_ addressingMode, addr uint16) { c.branch(c.flag(V), addr) }

// nop also covers the unofficial multi-byte NOPs, which still perform their
// operand read.
func (c *CPU) nop(mode addressingMode, addr uint16) {
	if mode != modeImplied && mode != modeAccumulator {
		c.bus.Read(addr)
	}
}

// Stable unofficial opcodes.

func (c *CPU) lax(mode addressingMode, addr uint16) {
	c.A = c.operand(mode, addr)
	c.X = c.A
	c.setZN(c.A)
}

func (c *CPU) sax(mode addressingMode, addr uint16) { c.bus.Write(addr, c.A&c.X) }

func (c *CPU) dcp(mode addressingMode, addr uint16) {
	v := c.operand(mode, addr) - 1
	c.bus.Write(addr, v)
	c.compare(c.A, v)
}

func (c *CPU) isc(mode addressingMode, addr uint16) {
	v := c.operand(mode, addr) + 1
	c.bus.Write(addr, v)
	c.addWithCarry(^v)
}

func (c *CPU) slo(mode addressingMode, addr uint16) {
	c.asl(mode, addr)
	c.ora(mode, addr)
}

func (c *CPU) rla(mode addressingMode, addr uint16) {
	c.rol(mode, addr)
	c.and(mode, addr)
}

func (c *CPU) sre(mode addressingMode, addr uint16) {
	c.lsr(mode, addr)
	c.eor(mode, addr)
}

func (c *CPU) rra(mode addressingMode, addr uint16) {
	c.ror(mode, addr)
	c.adc(mode, addr)
}

func (c *CPU) anc(mode addressingMode, addr uint16) {
	c.and(mode, addr)
	c.setFlag(C, c.A&0x80 != 0)
}

func (c *CPU) alr(mode addressingMode, addr uint16) {
	c.A &= c.operand(mode, addr)
	c.setFlag(C, c.A&1 != 0)
	c.A >>= 1
	c.setZN(c.A)
}

func (c *CPU) arr(mode addressingMode, addr uint16) {
	c.A &= c.operand(mode, addr)
	c.A = c.A>>1 | (c.P&C)<<7
	c.setZN(c.A)
	c.setFlag(C, c.A&0x40 != 0)
	c.setFlag(V, (c.A>>6^c.A>>5)&1 != 0)
}

func (c *CPU) axs(mode addressingMode, addr uint16) {
	v := c.operand(mode, addr)
	ax := c.A & c.X
	c.X = ax - v
	c.setFlag(C, ax >= v)
	c.setZN(c.X)
}

func (c *CPU) las(mode addressingMode, addr uint16) {
	v := c.operand(mode, addr) & c.SP
	c.A, c.X, c.SP = v, v, v
	c.setZN(v)
}
