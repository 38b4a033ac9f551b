package apu

// dmcRateTable holds NTSC DMC periods in CPU cycles.
var dmcRateTable = [16]uint16{
	428, 380, 340, 320, 286, 254, 226, 214, 190, 160, 142, 128, 106, 84, 72, 54,
}

// dmcFetchStall is the CPU time lost to one sample fetch.
const dmcFetchStall = 4

type dmc struct {
	irqEnabled bool
	loop       bool
	rate       uint16
	timer      uint16

	sampleAddr uint16
	sampleLen  uint16

	// Reader.
	currentAddr uint16
	remaining   uint16
	buffer      byte
	bufferEmpty bool

	// Output unit.
	shifter  byte
	bitsLeft byte
	level    byte
	silence  bool

	irq bool
}

func (d *dmc) reset() {
	*d = dmc{rate: dmcRateTable[0], bufferEmpty: true, bitsLeft: 8, silence: true}
}

func (d *dmc) write(reg uint16, v byte) {
	switch reg & 3 {
	case 0:
		d.irqEnabled = v&0x80 != 0
		d.loop = v&0x40 != 0
		d.rate = dmcRateTable[v&0x0F]
		if !d.irqEnabled {
			d.irq = false
		}
	case 1:
		d.level = v & 0x7F
	case 2:
		d.sampleAddr = 0xC000 | uint16(v)<<6
	case 3:
		d.sampleLen = uint16(v)<<4 | 1
	}
}

func (d *dmc) restart() {
	d.currentAddr = d.sampleAddr
	d.remaining = d.sampleLen
}

func (d *dmc) setEnabled(on bool) {
	if !on {
		d.remaining = 0
	} else if d.remaining == 0 {
		d.restart()
	}
}

// fetch refills the one-byte buffer from memory, stalling the CPU.
func (d *dmc) fetch(mem MemoryReader, staller Staller) {
	if !d.bufferEmpty || d.remaining == 0 {
		return
	}
	if staller != nil {
		staller.AddStall(dmcFetchStall)
	}
	if mem != nil {
		d.buffer = mem.Read(d.currentAddr)
	}
	d.bufferEmpty = false
	d.currentAddr++
	if d.currentAddr == 0 {
		d.currentAddr = 0x8000
	}
	d.remaining--
	if d.remaining == 0 {
		if d.loop {
			d.restart()
		} else if d.irqEnabled {
			d.irq = true
		}
	}
}

func (d *dmc) clockTimer() {
	if d.timer > 0 {
		d.timer--
		return
	}
	d.timer = d.rate - 1
	d.clockOutput()
}

func (d *dmc) clockOutput() {
	if !d.silence {
		if d.shifter&1 != 0 {
			if d.level <= 125 {
				d.level += 2
			}
		} else if d.level >= 2 {
			d.level -= 2
		}
	}
	d.shifter >>= 1
	d.bitsLeft--
	if d.bitsLeft > 0 {
		return
	}
	d.bitsLeft = 8
	if d.bufferEmpty {
		d.silence = true
		return
	}
	d.silence = false
	d.shifter = d.buffer
	d.bufferEmpty = true
}

func (d *dmc) output() byte {
	return d.level
}
