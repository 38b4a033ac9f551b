package bus

import (
	"log"

	"github.com/meadori/nescore/apu"
	"github.com/meadori/nescore/cartridge"
	"github.com/meadori/nescore/controller"
	"github.com/meadori/nescore/cpu"
	"github.com/meadori/nescore/mapper"
	"github.com/meadori/nescore/ppu"
)

// maxViolationReports bounds how many contract violations are logged
// before the bus goes quiet.
const maxViolationReports = 16

// Logf receives bus-contract violation reports.
var Logf = log.Printf

// Bus represents the system bus. It routes CPU accesses to RAM, the PPU and
// APU ports, the controllers and the cartridge, and serves the PPU its
// pattern and nametable space.
type Bus struct {
	cpu  *cpu.CPU
	ppu  *ppu.PPU
	apu  *apu.APU
	cart *cartridge.Cartridge
	pads [2]*controller.Controller

	ram     [2048]byte
	vram    [4096]byte
	openBus byte

	violations int
}

// New creates a Bus with both controllers polling provider.
func New(provider controller.Provider) *Bus {
	return &Bus{
		pads: [2]*controller.Controller{
			controller.New(0, provider),
			controller.New(1, provider),
		},
	}
}

// Connect attaches the chips the bus routes to.
func (b *Bus) Connect(c *cpu.CPU, p *ppu.PPU, a *apu.APU) {
	b.cpu, b.ppu, b.apu = c, p, a
}

// InsertCartridge attaches cart. A nil cart leaves $4020-$FFFF unmapped.
func (b *Bus) InsertCartridge(cart *cartridge.Cartridge) {
	b.cart = cart
}

// Cartridge returns the inserted cartridge, if any.
func (b *Bus) Cartridge() *cartridge.Cartridge {
	return b.cart
}

// SetControllerProvider changes where both pads poll their buttons.
func (b *Bus) SetControllerProvider(p controller.Provider) {
	for _, pad := range b.pads {
		pad.SetProvider(p)
	}
}

// Reset clears RAM, VRAM and the open-bus value.
func (b *Bus) Reset() {
	b.ram = [2048]byte{}
	b.vram = [4096]byte{}
	b.openBus = 0
	b.violations = 0
}

// OpenBus returns the last value driven onto the CPU data bus by a read.
func (b *Bus) OpenBus() byte {
	return b.openBus
}

func (b *Bus) violation(format string, args ...interface{}) {
	b.violations++
	switch {
	case b.violations < maxViolationReports:
		Logf("bus: "+format, args...)
	case b.violations == maxViolationReports:
		Logf("bus: "+format+" (further reports suppressed)", args...)
	}
}

// Read reads a byte from the CPU address space.
func (b *Bus) Read(addr uint16) byte {
	v := b.openBus
	switch {
	case addr < 0x2000:
		v = b.ram[addr&0x07FF]
	case addr < 0x4000:
		if b.ppu != nil {
			v = b.ppu.ReadRegister(addr)
		}
	case addr == 0x4015:
		if b.apu != nil {
			v = b.apu.ReadStatus()&^0x20 | b.openBus&0x20
		}
	case addr == 0x4016 || addr == 0x4017:
		v = b.openBus&0xE0 | b.pads[addr&1].Read()
	case addr < 0x4018:
		// Write-only APU and DMA ports.
	case addr < 0x4020:
		b.violation("read of unmapped $%04X", addr)
	default:
		if b.cart == nil {
			break
		}
		if pv, ok := b.cart.Mapper.ReadProgram(addr); ok {
			v = pv
		} else {
			b.violation("read of unmapped cartridge address $%04X", addr)
		}
	}
	b.openBus = v
	return v
}

// Peek reads the CPU address space without side effects. Register ports
// answer with the open-bus value.
func (b *Bus) Peek(addr uint16) byte {
	switch {
	case addr < 0x2000:
		return b.ram[addr&0x07FF]
	case addr >= 0x4020 && b.cart != nil:
		if v, ok := b.cart.Mapper.ReadProgram(addr); ok {
			return v
		}
	}
	return b.openBus
}

// Write writes a byte to the CPU address space.
func (b *Bus) Write(addr uint16, v byte) {
	switch {
	case addr < 0x2000:
		b.ram[addr&0x07FF] = v
	case addr < 0x4000:
		if b.ppu != nil {
			b.ppu.WriteRegister(addr, v)
		}
	case addr == 0x4014:
		b.dma(v)
	case addr == 0x4016:
		b.pads[0].Write(v)
		b.pads[1].Write(v)
	case addr < 0x4018:
		if b.apu != nil {
			b.apu.WriteRegister(addr, v)
		}
	case addr < 0x4020:
		b.violation("write $%02X to unmapped $%04X", v, addr)
	default:
		if b.cart == nil {
			return
		}
		if err := b.cart.Mapper.WriteProgram(addr, v); err != nil {
			b.violation("write $%02X to $%04X: %v", v, addr, err)
		}
	}
}

// dma copies one CPU page into OAM and stalls the CPU for the transfer.
func (b *Bus) dma(page byte) {
	base := uint16(page) << 8
	for i := uint16(0); i < 256; i++ {
		v := b.Read(base + i)
		if b.ppu != nil {
			b.ppu.WriteOAM(v)
		}
	}
	if b.cpu == nil {
		return
	}
	stall := 513
	if b.cpu.Cycles%2 == 1 {
		stall++
	}
	b.cpu.AddStall(stall)
}

func (b *Bus) nametable(addr uint16) uint16 {
	if b.cart == nil {
		return mapper.MirrorNametable(mapper.Horizontal, addr)
	}
	return b.cart.Mapper.MapNametableAddress(addr) & 0x0FFF
}

// ReadVideo implements ppu.Memory.
func (b *Bus) ReadVideo(addr uint16) byte {
	addr &= 0x3FFF
	if addr < 0x2000 {
		if b.cart == nil {
			return 0
		}
		return b.cart.Mapper.ReadGraphics(addr)
	}
	return b.vram[b.nametable(addr)]
}

// WriteVideo implements ppu.Memory.
func (b *Bus) WriteVideo(addr uint16, v byte) {
	addr &= 0x3FFF
	if addr < 0x2000 {
		if b.cart == nil {
			return
		}
		if err := b.cart.Mapper.WriteGraphics(addr, v); err != nil {
			b.violation("PPU write $%02X to $%04X: %v", v, addr, err)
		}
		return
	}
	b.vram[b.nametable(addr)] = v
}

// PeekVideo implements ppu.Memory.
func (b *Bus) PeekVideo(addr uint16) byte {
	addr &= 0x3FFF
	if addr < 0x2000 {
		if b.cart == nil {
			return 0
		}
		if p, ok := b.cart.Mapper.(mapper.Peeker); ok {
			return p.PeekGraphics(addr)
		}
		return b.cart.Mapper.ReadGraphics(addr)
	}
	return b.vram[b.nametable(addr)]
}
