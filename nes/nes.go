// Package nes ties the CPU, PPU, APU, bus and cartridge into a console and
// runs it.
package nes

import (
	"errors"
	"image"
	"image/color"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/meadori/nescore/apu"
	"github.com/meadori/nescore/bus"
	"github.com/meadori/nescore/cartridge"
	"github.com/meadori/nescore/controller"
	"github.com/meadori/nescore/cpu"
	"github.com/meadori/nescore/mapper"
	"github.com/meadori/nescore/ppu"
)

var (
	// ErrNoCartridge is returned by operations that need a cartridge.
	ErrNoCartridge = errors.New("nes: no cartridge inserted")
	// ErrRunning is returned by operations that cannot run alongside the
	// emulation loop.
	ErrRunning = errors.New("nes: console is running")
)

// FrameRate is the NTSC field rate.
const FrameRate = 60.0988

// FramePeriod is the wall-clock time of one frame when throttled.
var FramePeriod = time.Duration(math.Round(float64(time.Second) / FrameRate))

// Config holds the host-provided settings of a console.
type Config struct {
	// SampleRate is the audio output rate in Hz. Zero disables audio.
	SampleRate float64
	// DebugViews adds pattern table, nametable and palette images to
	// every Frame.
	DebugViews bool
	// Throttle paces the run loop at FrameRate.
	Throttle bool
}

// DefaultConfig returns the settings used by the GUI host.
func DefaultConfig() Config {
	return Config{SampleRate: 44100, Throttle: true}
}

// Frame is delivered once per completed picture. The images are reused;
// callbacks that keep them past return must copy them.
type Frame struct {
	Pixels        *image.RGBA
	PatternTables [2]*image.RGBA
	Nametables    *image.RGBA
	Palette       [32]color.RGBA
	Number        uint64
}

// irqLines ORs the interrupt sources wired to the CPU IRQ pin.
type irqLines struct {
	apu    *apu.APU
	mapper mapper.IRQSource
}

func (l *irqLines) IRQ() bool {
	return l.apu.IRQ() || (l.mapper != nil && l.mapper.IRQ())
}

// Console represents the whole machine.
type Console struct {
	cfg Config

	cpu  *cpu.CPU
	ppu  *ppu.PPU
	apu  *apu.APU
	bus  *bus.Bus
	cart *cartridge.Cartridge
	irq  *irqLines

	clocker   mapper.Clocker
	frameDone bool

	// exec is held by whoever is advancing or inspecting the machine. The
	// loop takes it once per instruction.
	exec sync.Mutex

	mu      sync.Mutex
	onFrame func(*Frame)
	onFault func(error)
	done    chan struct{}
	quit    chan struct{}
	err     error

	running atomic.Bool
	stop    atomic.Bool
}

// New creates a console with no cartridge.
func New(cfg Config) *Console {
	c := &Console{cfg: cfg}
	c.bus = bus.New(nil)
	c.cpu = cpu.New(c.bus)
	c.ppu = ppu.New(c.bus)
	c.apu = apu.New(cfg.SampleRate)
	c.apu.Connect(c.bus, c.cpu)
	c.bus.Connect(c.cpu, c.ppu, c.apu)
	c.irq = &irqLines{apu: c.apu}
	c.cpu.SetIRQLine(c.irq)
	return c
}

// Config returns the settings the console was created with.
func (c *Console) Config() Config {
	return c.cfg
}

// InsertCartridge stops the loop, swaps in cart and powers the console on.
// The loop is not restarted.
func (c *Console) InsertCartridge(cart *cartridge.Cartridge) {
	c.Stop()
	c.do(func() {
		c.cart = cart
		c.bus.InsertCartridge(cart)
		c.clocker, c.irq.mapper = nil, nil
		if cart != nil {
			c.clocker, _ = cart.Mapper.(mapper.Clocker)
			c.irq.mapper, _ = cart.Mapper.(mapper.IRQSource)
		}
		c.powerOn()
	})
}

// Cartridge returns the inserted cartridge, or nil.
func (c *Console) Cartridge() *cartridge.Cartridge {
	return c.cart
}

func (c *Console) powerOn() {
	c.bus.Reset()
	c.ppu.Reset()
	c.apu.Reset()
	c.cpu.PowerOn()
	c.frameDone = false
}

// Reset presses the console's reset button. RAM is kept.
func (c *Console) Reset() {
	c.do(func() {
		c.ppu.Reset()
		c.apu.Reset()
		c.cpu.Reset()
		c.frameDone = false
	})
}

// SetControllerProvider sets where both controller ports poll buttons.
func (c *Console) SetControllerProvider(p controller.Provider) {
	c.do(func() { c.bus.SetControllerProvider(p) })
}

// OnFrame registers f to receive every completed frame. f runs on the
// emulation goroutine at the instruction boundary after the frame ends and
// must not block. It may call the console's other methods except Stop.
func (c *Console) OnFrame(f func(*Frame)) {
	c.mu.Lock()
	c.onFrame = f
	c.mu.Unlock()
}

// OnFault registers f to receive the error that stops the loop.
func (c *Console) OnFault(f func(error)) {
	c.mu.Lock()
	c.onFault = f
	c.mu.Unlock()
}

// Step executes one CPU instruction and the PPU, APU and mapper cycles
// that go with it. It returns the CPU cycles consumed.
func (c *Console) Step() (int, error) {
	if c.running.Load() {
		return 0, ErrRunning
	}
	n, _, err := c.advance()
	return n, err
}

// StepFrame runs until the PPU completes a frame.
func (c *Console) StepFrame() error {
	if c.running.Load() {
		return ErrRunning
	}
	for {
		_, ready, err := c.advance()
		if err != nil || ready {
			return err
		}
	}
}

// advance executes one instruction under exec and then delivers the frame
// it completed, if any, with exec released.
func (c *Console) advance() (int, bool, error) {
	c.exec.Lock()
	n, err := c.step()
	ready := c.frameDone
	c.frameDone = false
	var f func(*Frame)
	var fr *Frame
	if ready {
		c.mu.Lock()
		f = c.onFrame
		c.mu.Unlock()
		if f != nil {
			fr = c.frame()
		}
	}
	c.exec.Unlock()

	if fr != nil {
		f(fr)
	}
	return n, ready, err
}

func (c *Console) step() (int, error) {
	if c.cart == nil {
		return 0, ErrNoCartridge
	}
	n, err := c.cpu.Step()
	if err != nil {
		return 0, err
	}
	for i := 0; i < n; i++ {
		c.ppu.Step()
		c.ppu.Step()
		c.ppu.Step()
		if c.ppu.PollNMI() {
			c.cpu.TriggerNMI()
		}
		c.apu.Step()
		if c.clocker != nil {
			c.clocker.Clock()
		}
		if c.ppu.FrameReady() {
			c.frameDone = true
		}
	}
	return n, nil
}

func (c *Console) frame() *Frame {
	fr := &Frame{Pixels: c.ppu.Output(), Number: c.ppu.Frame}
	if c.cfg.DebugViews {
		fr.PatternTables = [2]*image.RGBA{c.ppu.PatternTable(0, 0), c.ppu.PatternTable(1, 0)}
		fr.Nametables = c.ppu.Nametables()
		fr.Palette = c.ppu.PaletteColors()
	}
	return fr
}

// DrainSamples returns exactly n audio samples, zero-filled when the loop
// has not produced enough. It never blocks on the loop.
func (c *Console) DrainSamples(n int) []float32 {
	return c.apu.Drain(n)
}

// DrainInto fills dst like DrainSamples without allocating and returns the
// number of real samples.
func (c *Console) DrainInto(dst []float32) int {
	return c.apu.DrainSamples(dst)
}

// CPUState returns the CPU registers.
func (c *Console) CPUState() cpu.State {
	var s cpu.State
	c.do(func() { s = c.cpu.SaveState() })
	return s
}

// Peek reads CPU memory without side effects.
func (c *Console) Peek(addr uint16) byte {
	var v byte
	c.do(func() { v = c.bus.Peek(addr) })
	return v
}

// PeekBlock reads n bytes of CPU memory starting at addr without side
// effects. Addresses wrap at $FFFF.
func (c *Console) PeekBlock(addr uint16, n int) []byte {
	out := make([]byte, n)
	c.do(func() {
		for i := range out {
			out[i] = c.bus.Peek(addr + uint16(i))
		}
	})
	return out
}

// Frame returns a copy of the last completed picture.
func (c *Console) Frame() *image.RGBA {
	var img *image.RGBA
	c.do(func() {
		src := c.ppu.Output()
		img = image.NewRGBA(src.Rect)
		copy(img.Pix, src.Pix)
	})
	return img
}

// Trace returns a nestest-style line for the next instruction.
func (c *Console) Trace() string {
	var s string
	c.do(func() { s = c.cpu.Trace() })
	return s
}
