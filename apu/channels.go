package apu

var lengthTable = [32]byte{
	10, 254, 20, 2, 40, 4, 80, 6, 160, 8, 60, 10, 14, 12, 26, 14,
	12, 16, 24, 18, 48, 20, 96, 22, 192, 24, 72, 26, 16, 28, 32, 30,
}

var dutyTable = [4][8]byte{
	{0, 1, 0, 0, 0, 0, 0, 0}, // 12.5%
	{0, 1, 1, 0, 0, 0, 0, 0}, // 25%
	{0, 1, 1, 1, 1, 0, 0, 0}, // 50%
	{1, 0, 0, 1, 1, 1, 1, 1}, // 25% negated
}

var triangleTable = [32]byte{
	15, 14, 13, 12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0,
	0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15,
}

// noiseTable holds the noise periods in CPU cycles.
var noiseTable = [16]uint16{
	4, 8, 16, 32, 64, 96, 128, 160, 202, 254, 380, 508, 762, 1016, 2034, 4068,
}

// envelope is the volume unit shared by the pulse and noise channels.
type envelope struct {
	start    bool
	loop     bool
	constant bool
	period   byte
	divider  byte
	decay    byte
}

func (e *envelope) write(v byte) {
	e.loop = v&0x20 != 0
	e.constant = v&0x10 != 0
	e.period = v & 0x0F
}

func (e *envelope) clock() {
	if e.start {
		e.start = false
		e.decay = 15
		e.divider = e.period
		return
	}
	if e.divider > 0 {
		e.divider--
		return
	}
	e.divider = e.period
	if e.decay > 0 {
		e.decay--
	} else if e.loop {
		e.decay = 15
	}
}

func (e *envelope) volume() byte {
	if e.constant {
		return e.period
	}
	return e.decay
}

// lengthCounter silences a channel after a programmed number of half frames.
type lengthCounter struct {
	enabled bool
	halt    bool
	value   byte
}

func (l *lengthCounter) load(index byte) {
	if l.enabled {
		l.value = lengthTable[index&0x1F]
	}
}

func (l *lengthCounter) setEnabled(on bool) {
	l.enabled = on
	if !on {
		l.value = 0
	}
}

func (l *lengthCounter) clock() {
	if !l.halt && l.value > 0 {
		l.value--
	}
}

type pulse struct {
	// channel1 selects the ones' complement sweep negate.
	channel1 bool

	length   lengthCounter
	envelope envelope

	duty      byte
	dutyPhase byte
	period    uint16
	timer     uint16

	sweepEnabled bool
	sweepPeriod  byte
	sweepNegate  bool
	sweepShift   byte
	sweepReload  bool
	sweepDivider byte
}

func (p *pulse) write(reg uint16, v byte) {
	switch reg & 3 {
	case 0:
		p.duty = v >> 6
		p.length.halt = v&0x20 != 0
		p.envelope.write(v)
	case 1:
		p.sweepEnabled = v&0x80 != 0
		p.sweepPeriod = (v >> 4) & 0x07
		p.sweepNegate = v&0x08 != 0
		p.sweepShift = v & 0x07
		p.sweepReload = true
	case 2:
		p.period = p.period&0x0700 | uint16(v)
	case 3:
		p.period = p.period&0x00FF | uint16(v&0x07)<<8
		p.length.load(v >> 3)
		p.dutyPhase = 0
		p.envelope.start = true
	}
}

func (p *pulse) clockTimer() {
	if p.timer == 0 {
		p.timer = p.period
		p.dutyPhase = (p.dutyPhase + 1) & 7
	} else {
		p.timer--
	}
}

func (p *pulse) targetPeriod() uint16 {
	change := p.period >> p.sweepShift
	if !p.sweepNegate {
		return p.period + change
	}
	if p.channel1 {
		change++
	}
	if change > p.period {
		return 0
	}
	return p.period - change
}

func (p *pulse) muted() bool {
	return p.period < 8 || p.targetPeriod() > 0x7FF
}

func (p *pulse) clockSweep() {
	if p.sweepDivider == 0 && p.sweepEnabled && p.sweepShift > 0 && !p.muted() {
		p.period = p.targetPeriod()
	}
	if p.sweepDivider == 0 || p.sweepReload {
		p.sweepDivider = p.sweepPeriod
		p.sweepReload = false
	} else {
		p.sweepDivider--
	}
}

func (p *pulse) output() byte {
	if p.length.value == 0 || p.muted() || dutyTable[p.duty][p.dutyPhase] == 0 {
		return 0
	}
	return p.envelope.volume()
}

type triangle struct {
	length lengthCounter

	period uint16
	timer  uint16
	phase  byte

	linearLoad   byte
	linear       byte
	linearReload bool
}

func (t *triangle) write(reg uint16, v byte) {
	switch reg & 3 {
	case 0:
		t.length.halt = v&0x80 != 0
		t.linearLoad = v & 0x7F
	case 2:
		t.period = t.period&0x0700 | uint16(v)
	case 3:
		t.period = t.period&0x00FF | uint16(v&0x07)<<8
		t.length.load(v >> 3)
		t.linearReload = true
	}
}

func (t *triangle) clockTimer() {
	if t.timer > 0 {
		t.timer--
		return
	}
	t.timer = t.period
	if t.length.value > 0 && t.linear > 0 {
		t.phase = (t.phase + 1) & 31
	}
}

func (t *triangle) clockLinear() {
	if t.linearReload {
		t.linear = t.linearLoad
	} else if t.linear > 0 {
		t.linear--
	}
	// The control flag doubles as the length halt flag.
	if !t.length.halt {
		t.linearReload = false
	}
}

func (t *triangle) output() byte {
	// Periods below 2 are ultrasonic.
	if t.period < 2 {
		return 0
	}
	return triangleTable[t.phase]
}

type noise struct {
	length   lengthCounter
	envelope envelope

	mode   bool
	period uint16
	timer  uint16
	shift  uint16
}

func (n *noise) write(reg uint16, v byte) {
	switch reg & 3 {
	case 0:
		n.length.halt = v&0x20 != 0
		n.envelope.write(v)
	case 2:
		n.mode = v&0x80 != 0
		n.period = noiseTable[v&0x0F]
	case 3:
		n.length.load(v >> 3)
		n.envelope.start = true
	}
}

func (n *noise) clockTimer() {
	if n.timer > 0 {
		n.timer--
		return
	}
	n.timer = n.period - 1
	tap := uint16(1)
	if n.mode {
		tap = 6
	}
	feedback := (n.shift ^ n.shift>>tap) & 1
	n.shift = n.shift>>1 | feedback<<14
}

func (n *noise) output() byte {
	if n.length.value == 0 || n.shift&1 == 1 {
		return 0
	}
	return n.envelope.volume()
}
