package apu

// CPUFrequency is the NTSC CPU clock the APU is stepped at.
const CPUFrequency = 1789773.0

// Frame sequencer step points in CPU cycles.
const (
	stepQuarter1 = 7457
	stepHalf1    = 14913
	stepQuarter3 = 22371
	stepFour     = 29829
	stepFive     = 37281
)

// MemoryReader is the CPU address space as seen by DMC sample fetches.
type MemoryReader interface {
	Read(addr uint16) byte
}

// Staller accepts CPU cycles lost to DMC fetches.
type Staller interface {
	AddStall(n int)
}

var pulseTable [31]float32
var tndTable [203]float32

func init() {
	for i := 1; i < len(pulseTable); i++ {
		pulseTable[i] = 95.52 / (8128.0/float32(i) + 100)
	}
	for i := 1; i < len(tndTable); i++ {
		tndTable[i] = 163.67 / (24329.0/float32(i) + 100)
	}
}

// APU represents the Audio Processing Unit.
type APU struct {
	mem     MemoryReader
	staller Staller

	pulse1   pulse
	pulse2   pulse
	triangle triangle
	noise    noise
	dmc      dmc

	cycle        uint64
	frameCounter uint32
	fiveStep     bool
	irqInhibit   bool
	frameIRQ     bool

	out *output
}

// New creates an APU producing samples at sampleRate. A zero rate produces
// no samples until SetSampleRate is called.
func New(sampleRate float64) *APU {
	a := &APU{out: newOutput(sampleRate)}
	a.Reset()
	return a
}

// Connect attaches the memory DMC samples are read from and the CPU that
// pays for the fetches.
func (a *APU) Connect(mem MemoryReader, staller Staller) {
	a.mem = mem
	a.staller = staller
}

// Reset silences every channel and restarts the frame sequencer.
func (a *APU) Reset() {
	a.pulse1 = pulse{channel1: true}
	a.pulse2 = pulse{}
	a.triangle = triangle{}
	a.noise = noise{shift: 1, period: noiseTable[0]}
	a.dmc.reset()
	a.cycle, a.frameCounter = 0, 0
	a.fiveStep, a.irqInhibit, a.frameIRQ = false, false, false
	a.out.reset()
}

// IRQ reports whether the frame or DMC interrupt line is asserted.
func (a *APU) IRQ() bool {
	return a.frameIRQ || a.dmc.irq
}

// Step advances the APU by one CPU cycle.
func (a *APU) Step() {
	a.triangle.clockTimer()
	a.noise.clockTimer()
	a.dmc.fetch(a.mem, a.staller)
	a.dmc.clockTimer()
	if a.cycle&1 == 1 {
		a.pulse1.clockTimer()
		a.pulse2.clockTimer()
	}
	a.stepFrameCounter()
	a.out.add(a.mix())
	a.cycle++
}

func (a *APU) stepFrameCounter() {
	a.frameCounter++
	switch a.frameCounter {
	case stepQuarter1, stepQuarter3:
		a.clockQuarter()
	case stepHalf1:
		a.clockQuarter()
		a.clockHalf()
	case stepFour:
		if a.fiveStep {
			return
		}
		a.clockQuarter()
		a.clockHalf()
		if !a.irqInhibit {
			a.frameIRQ = true
		}
	case stepFour + 1:
		if !a.fiveStep {
			a.frameCounter = 0
		}
	case stepFive:
		a.clockQuarter()
		a.clockHalf()
	case stepFive + 1:
		a.frameCounter = 0
	}
}

func (a *APU) clockQuarter() {
	a.pulse1.envelope.clock()
	a.pulse2.envelope.clock()
	a.noise.envelope.clock()
	a.triangle.clockLinear()
}

func (a *APU) clockHalf() {
	a.pulse1.length.clock()
	a.pulse2.length.clock()
	a.triangle.length.clock()
	a.noise.length.clock()
	a.pulse1.clockSweep()
	a.pulse2.clockSweep()
}

func (a *APU) mix() float32 {
	p := a.pulse1.output() + a.pulse2.output()
	tnd := 3*int(a.triangle.output()) + 2*int(a.noise.output()) + int(a.dmc.output())
	return pulseTable[p] + tndTable[tnd]
}

// ReadStatus handles a CPU read of $4015. It clears the frame interrupt.
func (a *APU) ReadStatus() byte {
	var v byte
	if a.pulse1.length.value > 0 {
		v |= 0x01
	}
	if a.pulse2.length.value > 0 {
		v |= 0x02
	}
	if a.triangle.length.value > 0 {
		v |= 0x04
	}
	if a.noise.length.value > 0 {
		v |= 0x08
	}
	if a.dmc.remaining > 0 {
		v |= 0x10
	}
	if a.frameIRQ {
		v |= 0x40
	}
	if a.dmc.irq {
		v |= 0x80
	}
	a.frameIRQ = false
	return v
}

// WriteRegister handles a CPU write to $4000-$4013, $4015 or $4017.
func (a *APU) WriteRegister(addr uint16, v byte) {
	switch {
	case addr >= 0x4000 && addr <= 0x4003:
		a.pulse1.write(addr, v)
	case addr >= 0x4004 && addr <= 0x4007:
		a.pulse2.write(addr, v)
	case addr >= 0x4008 && addr <= 0x400B:
		a.triangle.write(addr, v)
	case addr >= 0x400C && addr <= 0x400F:
		a.noise.write(addr, v)
	case addr >= 0x4010 && addr <= 0x4013:
		a.dmc.write(addr, v)
	case addr == 0x4015:
		a.pulse1.length.setEnabled(v&0x01 != 0)
		a.pulse2.length.setEnabled(v&0x02 != 0)
		a.triangle.length.setEnabled(v&0x04 != 0)
		a.noise.length.setEnabled(v&0x08 != 0)
		a.dmc.setEnabled(v&0x10 != 0)
		a.dmc.irq = false
	case addr == 0x4017:
		a.fiveStep = v&0x80 != 0
		a.irqInhibit = v&0x40 != 0
		if a.irqInhibit {
			a.frameIRQ = false
		}
		a.frameCounter = 0
		if a.fiveStep {
			a.clockQuarter()
			a.clockHalf()
		}
	}
}
