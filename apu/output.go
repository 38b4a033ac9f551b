package apu

import (
	"math"
	"sync"
)

// filter is a first-order IIR stage.
type filter struct {
	b0, b1, a1 float32
	prevX      float32
	prevY      float32
}

func (f *filter) step(x float32) float32 {
	y := f.b0*x + f.b1*f.prevX - f.a1*f.prevY
	f.prevX, f.prevY = x, y
	return y
}

func lowPass(sampleRate, cutoff float64) filter {
	c := sampleRate / math.Pi / cutoff
	a0 := 1 / (1 + c)
	return filter{
		b0: float32(a0),
		b1: float32(a0),
		a1: float32((1 - c) * a0),
	}
}

func highPass(sampleRate, cutoff float64) filter {
	c := sampleRate / math.Pi / cutoff
	a0 := 1 / (1 + c)
	return filter{
		b0: float32(c * a0),
		b1: float32(-c * a0),
		a1: float32((1 - c) * a0),
	}
}

// ring is a bounded sample FIFO shared between the emulation loop and the
// audio host. When full the oldest samples are dropped.
type ring struct {
	mu   sync.Mutex
	buf  []float32
	head int
	n    int
}

func (r *ring) push(s float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.buf) == 0 {
		return
	}
	tail := (r.head + r.n) % len(r.buf)
	r.buf[tail] = s
	if r.n < len(r.buf) {
		r.n++
	} else {
		r.head = (r.head + 1) % len(r.buf)
	}
}

func (r *ring) pop(dst []float32) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := min(len(dst), r.n)
	for i := 0; i < n; i++ {
		dst[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	if n > 0 {
		r.head = (r.head + n) % len(r.buf)
		r.n -= n
	}
	return n
}

func (r *ring) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.n
}

func (r *ring) clear() {
	r.mu.Lock()
	r.head, r.n = 0, 0
	r.mu.Unlock()
}

func (r *ring) resize(size int) {
	r.mu.Lock()
	r.buf = make([]float32, size)
	r.head, r.n = 0, 0
	r.mu.Unlock()
}

// output averages the per-cycle mix down to the host sample rate and runs
// it through the console's analog filter chain.
type output struct {
	rate    float64
	clock   float64
	acc     float32
	count   int
	filters [3]filter
	samples ring
}

func newOutput(rate float64) *output {
	o := &output{}
	o.setRate(rate)
	return o
}

func (o *output) setRate(rate float64) {
	o.rate = rate
	o.samples.resize(int(rate))
	if rate > 0 {
		o.filters = [3]filter{
			highPass(rate, 90),
			highPass(rate, 440),
			lowPass(rate, 14000),
		}
	}
	o.reset()
}

func (o *output) reset() {
	o.clock, o.acc, o.count = 0, 0, 0
	for i := range o.filters {
		o.filters[i].prevX, o.filters[i].prevY = 0, 0
	}
	o.samples.clear()
}

func (o *output) add(v float32) {
	if o.rate <= 0 {
		return
	}
	o.acc += v
	o.count++
	o.clock += o.rate
	if o.clock < CPUFrequency {
		return
	}
	o.clock -= CPUFrequency
	s := o.acc / float32(o.count)
	o.acc, o.count = 0, 0
	for i := range o.filters {
		s = o.filters[i].step(s)
	}
	o.samples.push(s)
}

// SetSampleRate changes the output rate and discards buffered samples.
// It must not be called while the APU is being stepped.
func (a *APU) SetSampleRate(rate float64) {
	a.out.setRate(rate)
}

// SampleRate returns the output rate in Hz.
func (a *APU) SampleRate() float64 {
	return a.out.rate
}

// Buffered returns the number of samples waiting to be drained.
func (a *APU) Buffered() int {
	return a.out.samples.len()
}

// DrainSamples fills dst with buffered samples, oldest first, and zeroes
// whatever the buffer could not cover. It returns the number of real
// samples copied and never blocks on the emulation loop.
func (a *APU) DrainSamples(dst []float32) int {
	n := a.out.samples.pop(dst)
	clear(dst[n:])
	return n
}

// Drain returns exactly n samples.
func (a *APU) Drain(n int) []float32 {
	if n <= 0 {
		return nil
	}
	dst := make([]float32, n)
	a.DrainSamples(dst)
	return dst
}
