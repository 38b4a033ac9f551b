package apu

import (
	"reflect"
	"testing"
)

type mockMemory struct {
	reads int
}

func (m *mockMemory) Read(addr uint16) byte {
	m.reads++
	return 0xAA
}

type mockStaller struct {
	cycles int
}

func (s *mockStaller) AddStall(n int) { s.cycles += n }

func run(a *APU, cycles int) {
	for i := 0; i < cycles; i++ {
		a.Step()
	}
}

func TestDrainNeverBlocks(t *testing.T) {
	a := New(44100)
	got := a.Drain(512)
	if len(got) != 512 {
		t.Fatalf("Drain returned %d samples, want 512", len(got))
	}
	for i, s := range got {
		if s != 0 {
			t.Fatalf("sample %d = %v, want zero fill", i, s)
		}
	}
}

func TestDrainPartial(t *testing.T) {
	a := New(44100)
	run(a, int(CPUFrequency)/100)
	buffered := a.Buffered()
	if buffered < 440 || buffered > 442 {
		t.Fatalf("buffered %d samples after 10ms", buffered)
	}
	dst := make([]float32, 1000)
	for i := range dst {
		dst[i] = 1
	}
	if n := a.DrainSamples(dst); n != buffered {
		t.Errorf("DrainSamples = %d, want %d", n, buffered)
	}
	for i := buffered; i < len(dst); i++ {
		if dst[i] != 0 {
			t.Fatalf("dst[%d] = %v, want zero fill", i, dst[i])
		}
	}
	if a.Buffered() != 0 {
		t.Error("ring not emptied")
	}
}

func TestZeroSampleRate(t *testing.T) {
	a := New(0)
	run(a, 10000)
	if a.Buffered() != 0 {
		t.Error("samples produced with no output rate")
	}
	if got := a.Drain(16); len(got) != 16 {
		t.Errorf("Drain returned %d samples", len(got))
	}
}

func TestLengthCounter(t *testing.T) {
	a := New(0)
	a.WriteRegister(0x4003, 0x08) // disabled: load ignored
	if a.ReadStatus()&0x01 != 0 {
		t.Fatal("length loaded while channel disabled")
	}

	a.WriteRegister(0x4015, 0x01)
	a.WriteRegister(0x4000, 0x10)
	a.WriteRegister(0x4003, 0x18) // index 3 -> 2
	if a.ReadStatus()&0x01 == 0 {
		t.Fatal("length not loaded")
	}
	run(a, stepHalf1)
	if a.pulse1.length.value != 1 {
		t.Errorf("length = %d after one half frame, want 1", a.pulse1.length.value)
	}
	run(a, stepFour-stepHalf1)
	if a.ReadStatus()&0x01 != 0 {
		t.Error("length counter still running after two half frames")
	}

	a.WriteRegister(0x4003, 0x08)
	a.WriteRegister(0x4015, 0x00)
	if a.ReadStatus()&0x01 != 0 {
		t.Error("disabling did not clear the length counter")
	}
}

func TestFrameIRQ(t *testing.T) {
	a := New(0)
	run(a, stepFour-1)
	if a.IRQ() {
		t.Fatal("frame IRQ early")
	}
	a.Step()
	if !a.IRQ() {
		t.Fatal("no frame IRQ at end of 4-step sequence")
	}
	if a.ReadStatus()&0x40 == 0 {
		t.Error("status missing frame IRQ")
	}
	if a.IRQ() {
		t.Error("status read did not acknowledge frame IRQ")
	}

	a.WriteRegister(0x4017, 0x40)
	run(a, stepFive)
	if a.IRQ() {
		t.Error("frame IRQ despite inhibit")
	}

	a.WriteRegister(0x4017, 0x80)
	run(a, stepFive+10)
	if a.IRQ() {
		t.Error("5-step mode raised a frame IRQ")
	}
}

func TestDMCInterruptOnce(t *testing.T) {
	a := New(0)
	mem, staller := &mockMemory{}, &mockStaller{}
	a.Connect(mem, staller)
	a.WriteRegister(0x4017, 0x40)
	a.WriteRegister(0x4010, 0x8F) // IRQ, no loop, fastest rate
	a.WriteRegister(0x4012, 0x00)
	a.WriteRegister(0x4013, 0x01) // 17 bytes
	a.WriteRegister(0x4015, 0x10)

	edges := 0
	prev := false
	for i := 0; i < 17*8*60; i++ {
		a.Step()
		if a.IRQ() && !prev {
			edges++
		}
		prev = a.IRQ()
	}
	if edges != 1 {
		t.Errorf("DMC IRQ raised %d times, want 1", edges)
	}
	if a.dmc.remaining != 0 {
		t.Errorf("remaining = %d", a.dmc.remaining)
	}
	if mem.reads != 17 {
		t.Errorf("%d sample fetches, want 17", mem.reads)
	}
	if staller.cycles != 17*dmcFetchStall {
		t.Errorf("stalled %d cycles, want %d", staller.cycles, 17*dmcFetchStall)
	}
	if a.ReadStatus()&0x90 != 0x80 {
		t.Error("status should report DMC IRQ with no bytes left")
	}
	a.WriteRegister(0x4015, 0x00)
	if a.IRQ() {
		t.Error("$4015 write did not clear DMC IRQ")
	}
}

func TestDMCLoop(t *testing.T) {
	a := New(0)
	mem := &mockMemory{}
	a.Connect(mem, nil)
	a.WriteRegister(0x4017, 0x40)
	a.WriteRegister(0x4010, 0xCF)
	a.WriteRegister(0x4013, 0x00) // 1 byte
	a.WriteRegister(0x4015, 0x10)
	run(a, 54*8*10)
	if a.IRQ() {
		t.Error("looping sample raised IRQ")
	}
	if mem.reads < 5 {
		t.Errorf("looping sample fetched %d times", mem.reads)
	}
}

func TestDMCAddressWrap(t *testing.T) {
	var d dmc
	d.reset()
	d.sampleAddr, d.sampleLen = 0xFFFF, 2
	d.restart()
	d.fetch(&mockMemory{}, nil)
	if d.currentAddr != 0x8000 {
		t.Errorf("address = %04X after $FFFF, want 8000", d.currentAddr)
	}
}

func TestSweepMute(t *testing.T) {
	var p pulse
	p.length = lengthCounter{enabled: true, value: 10}
	p.envelope.constant, p.envelope.period = true, 15
	p.duty = 2
	p.dutyPhase = 1

	p.period = 7
	if p.output() != 0 {
		t.Error("period < 8 should mute")
	}
	p.period = 0x400
	p.sweepShift = 0
	if p.output() != 0 {
		t.Error("target > $7FF should mute")
	}
	p.sweepShift = 1
	p.sweepNegate = true
	if p.output() != 15 {
		t.Errorf("output = %d, want 15", p.output())
	}
}

func TestSweepNegate(t *testing.T) {
	p1 := pulse{channel1: true, period: 0x100, sweepShift: 1, sweepNegate: true}
	p2 := pulse{period: 0x100, sweepShift: 1, sweepNegate: true}
	if got := p1.targetPeriod(); got != 0x7F {
		t.Errorf("pulse 1 target = %03X, want 07F", got)
	}
	if got := p2.targetPeriod(); got != 0x80 {
		t.Errorf("pulse 2 target = %03X, want 080", got)
	}
}

func TestNoiseLFSR(t *testing.T) {
	n := noise{shift: 1}
	n.clockTimer()
	if n.shift != 0x4000 {
		t.Errorf("mode 0 shift = %04X, want 4000", n.shift)
	}
	n = noise{shift: 1, mode: true}
	n.clockTimer()
	if n.shift != 0x4000 {
		t.Errorf("mode 1 shift = %04X, want 4000", n.shift)
	}
	n = noise{shift: 0x0002}
	n.clockTimer()
	if n.shift != 0x4001 {
		t.Errorf("mode 0 tap bit 1: shift = %04X, want 4001", n.shift)
	}
}

func TestMixerTables(t *testing.T) {
	if pulseTable[0] != 0 || tndTable[0] != 0 {
		t.Error("silence should mix to zero")
	}
	if pulseTable[30] < 0.25 || pulseTable[30] > 0.26 {
		t.Errorf("pulseTable[30] = %v", pulseTable[30])
	}
	if tndTable[202] < 0.74 || tndTable[202] > 0.75 {
		t.Errorf("tndTable[202] = %v", tndTable[202])
	}
}

func TestStateRoundTrip(t *testing.T) {
	a := New(48000)
	a.Connect(&mockMemory{}, nil)
	a.WriteRegister(0x4015, 0x1F)
	a.WriteRegister(0x4000, 0xBF)
	a.WriteRegister(0x4002, 0x40)
	a.WriteRegister(0x4003, 0x08)
	a.WriteRegister(0x400C, 0x3F)
	a.WriteRegister(0x400F, 0x08)
	a.WriteRegister(0x4010, 0x0F)
	run(a, 20000)

	s := a.SaveState()
	a.Drain(a.Buffered())
	run(a, 5000)
	want := a.Drain(a.Buffered())

	if err := a.LoadState(s); err != nil {
		t.Fatal(err)
	}
	if got := a.SaveState(); !reflect.DeepEqual(got, s) {
		t.Fatal("state differs after restore")
	}
	run(a, 5000)
	if got := a.Drain(a.Buffered()); !reflect.DeepEqual(got, want) {
		t.Errorf("replay produced %d samples differing from the original %d", len(got), len(want))
	}

	s.Version = 0
	if err := a.LoadState(s); err == nil {
		t.Error("expected version error")
	}
}

func TestCheckStateRanges(t *testing.T) {
	good := New(0).SaveState()
	tests := []struct {
		name   string
		mutate func(*State)
	}{
		{"pulse duty", func(s *State) { s.Pulse1.Duty = 7 }},
		{"pulse phase", func(s *State) { s.Pulse2.DutyPhase = 8 }},
		{"triangle phase", func(s *State) { s.Triangle.Phase = 32 }},
		{"noise shift", func(s *State) { s.Noise.Shift = 0 }},
		{"noise period", func(s *State) { s.Noise.Period = 0 }},
		{"frame counter", func(s *State) { s.FrameCounter = stepFive + 2 }},
		{"dmc bits", func(s *State) { s.DMC.BitsLeft = 9 }},
	}
	for _, tt := range tests {
		s := good
		tt.mutate(&s)
		a := New(0)
		before := a.SaveState()
		if err := a.LoadState(s); err == nil {
			t.Errorf("%s: LoadState accepted an invalid record", tt.name)
		}
		if !reflect.DeepEqual(a.SaveState(), before) {
			t.Errorf("%s: rejected record modified the APU", tt.name)
		}
	}
	if err := CheckState(good); err != nil {
		t.Errorf("CheckState(valid) = %v", err)
	}
}

func TestNoiseStepRate(t *testing.T) {
	for _, tt := range []struct {
		index  byte
		cycles int
		shifts int
	}{
		{0, 400, 100},
		{4, 640, 10},
		{15, 4068 * 3, 3},
	} {
		a := New(0)
		a.WriteRegister(0x400E, tt.index)
		shifts, last := 0, a.noise.shift
		for i := 0; i < tt.cycles; i++ {
			a.Step()
			if a.noise.shift != last {
				shifts++
				last = a.noise.shift
			}
		}
		if shifts != tt.shifts {
			t.Errorf("period index %d: %d LFSR steps in %d cycles, want %d", tt.index, shifts, tt.cycles, tt.shifts)
		}
	}
}
