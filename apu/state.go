package apu

import "fmt"

// StateVersion is the current layout of State.
const StateVersion = 1

// EnvelopeState is the saved form of a channel's volume envelope.
type EnvelopeState struct {
	Start, Loop, Constant bool
	Period, Divider       byte
	Decay                 byte
}

// LengthState is the saved form of a length counter.
type LengthState struct {
	Enabled, Halt bool
	Value         byte
}

// PulseState is the saved form of a pulse channel including its sweep unit.
type PulseState struct {
	Length       LengthState
	Envelope     EnvelopeState
	Duty         byte
	DutyPhase    byte
	Period       uint16
	Timer        uint16
	SweepEnabled bool
	SweepPeriod  byte
	SweepNegate  bool
	SweepShift   byte
	SweepReload  bool
	SweepDivider byte
}

// TriangleState is the saved form of the triangle channel.
type TriangleState struct {
	Length       LengthState
	Period       uint16
	Timer        uint16
	Phase        byte
	LinearLoad   byte
	Linear       byte
	LinearReload bool
}

// NoiseState is the saved form of the noise channel.
type NoiseState struct {
	Length   LengthState
	Envelope EnvelopeState
	Mode     bool
	Period   uint16
	Timer    uint16
	Shift    uint16
}

// DMCState is the saved form of the delta modulation channel.
type DMCState struct {
	IRQEnabled  bool
	Loop        bool
	Rate        uint16
	Timer       uint16
	SampleAddr  uint16
	SampleLen   uint16
	CurrentAddr uint16
	Remaining   uint16
	Buffer      byte
	BufferEmpty bool
	Shifter     byte
	BitsLeft    byte
	Level       byte
	Silence     bool
	IRQ         bool
}

// FilterState carries the resampler and filter history so a restored
// machine produces the same samples.
type FilterState struct {
	Clock   float64
	Acc     float32
	Count   int
	History [3][2]float32
}

// State is a versioned snapshot of the APU.
type State struct {
	Version int

	Pulse1   PulseState
	Pulse2   PulseState
	Triangle TriangleState
	Noise    NoiseState
	DMC      DMCState

	Cycle        uint64
	FrameCounter uint32
	FiveStep     bool
	IRQInhibit   bool
	FrameIRQ     bool

	Output FilterState
}

func (e *envelope) save() EnvelopeState {
	return EnvelopeState{e.start, e.loop, e.constant, e.period, e.divider, e.decay}
}

func (e *envelope) load(s EnvelopeState) {
	*e = envelope{s.Start, s.Loop, s.Constant, s.Period, s.Divider, s.Decay}
}

func (l *lengthCounter) save() LengthState {
	return LengthState{l.enabled, l.halt, l.value}
}

func (l *lengthCounter) restore(s LengthState) {
	*l = lengthCounter{s.Enabled, s.Halt, s.Value}
}

func (p *pulse) save() PulseState {
	return PulseState{
		Length:       p.length.save(),
		Envelope:     p.envelope.save(),
		Duty:         p.duty,
		DutyPhase:    p.dutyPhase,
		Period:       p.period,
		Timer:        p.timer,
		SweepEnabled: p.sweepEnabled,
		SweepPeriod:  p.sweepPeriod,
		SweepNegate:  p.sweepNegate,
		SweepShift:   p.sweepShift,
		SweepReload:  p.sweepReload,
		SweepDivider: p.sweepDivider,
	}
}

func (p *pulse) load(s PulseState) {
	p.length.restore(s.Length)
	p.envelope.load(s.Envelope)
	p.duty, p.dutyPhase, p.period, p.timer = s.Duty, s.DutyPhase, s.Period, s.Timer
	p.sweepEnabled, p.sweepPeriod, p.sweepNegate = s.SweepEnabled, s.SweepPeriod, s.SweepNegate
	p.sweepShift, p.sweepReload, p.sweepDivider = s.SweepShift, s.SweepReload, s.SweepDivider
}

func (t *triangle) save() TriangleState {
	return TriangleState{t.length.save(), t.period, t.timer, t.phase, t.linearLoad, t.linear, t.linearReload}
}

func (t *triangle) load(s TriangleState) {
	t.length.restore(s.Length)
	t.period, t.timer, t.phase = s.Period, s.Timer, s.Phase
	t.linearLoad, t.linear, t.linearReload = s.LinearLoad, s.Linear, s.LinearReload
}

func (n *noise) save() NoiseState {
	return NoiseState{n.length.save(), n.envelope.save(), n.mode, n.period, n.timer, n.shift}
}

func (n *noise) load(s NoiseState) {
	n.length.restore(s.Length)
	n.envelope.load(s.Envelope)
	n.mode, n.period, n.timer, n.shift = s.Mode, s.Period, s.Timer, s.Shift
}

func (d *dmc) save() DMCState {
	return DMCState{
		IRQEnabled:  d.irqEnabled,
		Loop:        d.loop,
		Rate:        d.rate,
		Timer:       d.timer,
		SampleAddr:  d.sampleAddr,
		SampleLen:   d.sampleLen,
		CurrentAddr: d.currentAddr,
		Remaining:   d.remaining,
		Buffer:      d.buffer,
		BufferEmpty: d.bufferEmpty,
		Shifter:     d.shifter,
		BitsLeft:    d.bitsLeft,
		Level:       d.level,
		Silence:     d.silence,
		IRQ:         d.irq,
	}
}

func (d *dmc) load(s DMCState) {
	*d = dmc{
		irqEnabled:  s.IRQEnabled,
		loop:        s.Loop,
		rate:        s.Rate,
		timer:       s.Timer,
		sampleAddr:  s.SampleAddr,
		sampleLen:   s.SampleLen,
		currentAddr: s.CurrentAddr,
		remaining:   s.Remaining,
		buffer:      s.Buffer,
		bufferEmpty: s.BufferEmpty,
		shifter:     s.Shifter,
		bitsLeft:    s.BitsLeft,
		level:       s.Level,
		silence:     s.Silence,
		irq:         s.IRQ,
	}
}

// SaveState captures the channels, the frame sequencer and the output filters.
func (a *APU) SaveState() State {
	s := State{
		Version:      StateVersion,
		Pulse1:       a.pulse1.save(),
		Pulse2:       a.pulse2.save(),
		Triangle:     a.triangle.save(),
		Noise:        a.noise.save(),
		DMC:          a.dmc.save(),
		Cycle:        a.cycle,
		FrameCounter: a.frameCounter,
		FiveStep:     a.fiveStep,
		IRQInhibit:   a.irqInhibit,
		FrameIRQ:     a.frameIRQ,
		Output: FilterState{
			Clock: a.out.clock,
			Acc:   a.out.acc,
			Count: a.out.count,
		},
	}
	for i, f := range a.out.filters {
		s.Output.History[i] = [2]float32{f.prevX, f.prevY}
	}
	return s
}

// CheckState reports whether s can be loaded.
func CheckState(s State) error {
	switch {
	case s.Version != StateVersion:
		return fmt.Errorf("apu: state version %d, want %d", s.Version, StateVersion)
	case s.DMC.Rate == 0:
		return fmt.Errorf("apu: DMC rate is zero")
	case s.DMC.BitsLeft == 0 || s.DMC.BitsLeft > 8:
		return fmt.Errorf("apu: DMC bit counter %d out of range", s.DMC.BitsLeft)
	case s.FrameCounter > stepFive+1:
		return fmt.Errorf("apu: frame counter %d out of range", s.FrameCounter)
	case s.Triangle.Phase > 31:
		return fmt.Errorf("apu: triangle phase %d out of range", s.Triangle.Phase)
	case s.Noise.Period == 0:
		return fmt.Errorf("apu: noise period is zero")
	case s.Noise.Shift == 0 || s.Noise.Shift > 0x7FFF:
		return fmt.Errorf("apu: noise shift register %04X invalid", s.Noise.Shift)
	}
	for i, p := range []PulseState{s.Pulse1, s.Pulse2} {
		if p.Duty > 3 || p.DutyPhase > 7 {
			return fmt.Errorf("apu: pulse %d duty %d phase %d out of range", i+1, p.Duty, p.DutyPhase)
		}
	}
	return nil
}

// LoadState restores s after validating it with CheckState. Samples
// already buffered for the host are kept.
func (a *APU) LoadState(s State) error {
	if err := CheckState(s); err != nil {
		return err
	}
	a.pulse1.load(s.Pulse1)
	a.pulse2.load(s.Pulse2)
	a.triangle.load(s.Triangle)
	a.noise.load(s.Noise)
	a.dmc.load(s.DMC)
	a.cycle, a.frameCounter = s.Cycle, s.FrameCounter
	a.fiveStep, a.irqInhibit, a.frameIRQ = s.FiveStep, s.IRQInhibit, s.FrameIRQ
	a.out.clock, a.out.acc, a.out.count = s.Output.Clock, s.Output.Acc, s.Output.Count
	for i := range a.out.filters {
		a.out.filters[i].prevX, a.out.filters[i].prevY = s.Output.History[i][0], s.Output.History[i][1]
	}
	return nil
}
