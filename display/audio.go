package display

import (
	"encoding/binary"
	"math"

	"github.com/meadori/nescore/nes"
)

// soundStream feeds the ebiten player 16-bit stereo frames. It never
// blocks: when the console falls behind the tail is silence.
type soundStream struct {
	console *nes.Console
	buf     []float32
}

func (s *soundStream) Read(p []byte) (int, error) {
	n := len(p) / 4
	if cap(s.buf) < n {
		s.buf = make([]float32, n)
	}
	s.buf = s.buf[:n]
	s.console.DrainInto(s.buf)
	for i, v := range s.buf {
		v = float32(math.Max(-1, math.Min(1, float64(v))))
		sample := uint16(int16(v * math.MaxInt16))
		binary.LittleEndian.PutUint16(p[4*i:], sample)
		binary.LittleEndian.PutUint16(p[4*i+2:], sample)
	}
	return n * 4, nil
}
