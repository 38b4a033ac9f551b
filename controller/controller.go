package controller

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Button indexes, in the order the shift register reports them.
const (
	ButtonA = iota
	ButtonB
	ButtonSelect
	ButtonStart
	ButtonUp
	ButtonDown
	ButtonLeft
	ButtonRight
)

var buttonNames = [8]string{"A", "B", "Select", "Start", "Up", "Down", "Left", "Right"}

// Buttons is the pressed state of one pad.
type Buttons [8]bool

// Mask packs b with ButtonA in bit 0.
func (b Buttons) Mask() byte {
	var m byte
	for i, pressed := range b {
		if pressed {
			m |= 1 << i
		}
	}
	return m
}

// FromMask is the inverse of Buttons.Mask.
func FromMask(m byte) Buttons {
	var b Buttons
	for i := range b {
		b[i] = m&(1<<i) != 0
	}
	return b
}

func (b Buttons) String() string {
	s := ""
	for i, pressed := range b {
		if pressed {
			if s != "" {
				s += "+"
			}
			s += buttonNames[i]
		}
	}
	if s == "" {
		return "none"
	}
	return s
}

// ParseButtons is the inverse of Buttons.String. Names are matched without
// regard to case; "none" means nothing pressed.
func ParseButtons(s string) (Buttons, error) {
	var b Buttons
	if strings.EqualFold(s, "none") {
		return b, nil
	}
next:
	for _, name := range strings.Split(s, "+") {
		for i, n := range buttonNames {
			if strings.EqualFold(name, n) {
				b[i] = true
				continue next
			}
		}
		return Buttons{}, fmt.Errorf("controller: unknown button %q", name)
	}
	return b, nil
}

// Or returns the buttons pressed in either b or o.
func (b Buttons) Or(o Buttons) Buttons {
	for i := range b {
		b[i] = b[i] || o[i]
	}
	return b
}

// Provider supplies pad state when the game strobes the controller port.
// It is called from the emulation loop and must not block.
type Provider interface {
	Buttons(port int) Buttons
}

// Pad is a Provider fed by the host. Each port holds an immutable snapshot
// that Set replaces as a whole.
type Pad struct {
	ports [2]atomic.Pointer[Buttons]
}

// NewPad returns a Pad with nothing pressed.
func NewPad() *Pad {
	return &Pad{}
}

// Set replaces the state of port (0 or 1).
func (p *Pad) Set(port int, b Buttons) {
	p.ports[port&1].Store(&b)
}

// Buttons implements Provider.
func (p *Pad) Buttons(port int) Buttons {
	if b := p.ports[port&1].Load(); b != nil {
		return *b
	}
	return Buttons{}
}

// Controller is the shift register behind $4016/$4017.
type Controller struct {
	provider Provider
	port     int

	buttons Buttons
	index   byte
	strobe  byte
}

// New creates the controller for port, polling provider on strobe.
func New(port int, provider Provider) *Controller {
	return &Controller{port: port, provider: provider}
}

// SetProvider changes where button state is polled from.
func (c *Controller) SetProvider(p Provider) {
	c.provider = p
}

func (c *Controller) latch() {
	if c.provider != nil {
		c.buttons = c.provider.Buttons(c.port)
	} else {
		c.buttons = Buttons{}
	}
	c.index = 0
}

// Write handles CPU writes to $4016.
func (c *Controller) Write(v byte) {
	c.strobe = v & 1
	if c.strobe == 1 {
		c.latch()
	}
}

// Read returns the next button bit. While strobe is high it keeps reporting
// A; after eight reads it reports 1.
func (c *Controller) Read() byte {
	if c.strobe == 1 {
		c.latch()
	}
	if c.index >= 8 {
		return 1
	}
	var v byte
	if c.buttons[c.index] {
		v = 1
	}
	if c.strobe == 0 {
		c.index++
	}
	return v
}

// State is the shift register contents.
type State struct {
	Buttons Buttons
	Index   byte
	Strobe  byte
}

func (c *Controller) SaveState() State {
	return State{Buttons: c.buttons, Index: c.index, Strobe: c.strobe}
}

func (c *Controller) LoadState(s State) {
	c.buttons, c.index, c.strobe = s.Buttons, s.Index, s.Strobe
}
