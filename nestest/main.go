// Command nestest runs the nestest.nes CPU test in automation mode and
// compares every instruction against the reference log.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/meadori/nescore/apu"
	"github.com/meadori/nescore/bus"
	"github.com/meadori/nescore/cartridge"
	"github.com/meadori/nescore/cpu"
	"github.com/meadori/nescore/ppu"
)

// automationStart is where nestest begins when no PPU is needed.
const automationStart = 0xC000

// Mismatch describes the first instruction that disagrees with the log.
type Mismatch struct {
	Line      int
	Got, Want string
}

func (m *Mismatch) Error() string {
	return fmt.Sprintf("line %d:\n  got  %s\n  want %s", m.Line, m.Got, m.Want)
}

// newMachine wires a CPU to a real bus with cart inserted.
func newMachine(cart *cartridge.Cartridge) (*cpu.CPU, *bus.Bus) {
	b := bus.New(nil)
	b.InsertCartridge(cart)
	c := cpu.New(b)
	b.Connect(c, ppu.New(b), apu.New(0))
	c.PowerOn()
	c.PC = automationStart
	return c, b
}

// registers strips what the log records beyond the CPU: the PPU position
// and the memory annotations of the disassembly.
func registers(line string) string {
	i := strings.Index(line, "A:")
	if i < 4 {
		return line
	}
	regs := line[i:]
	if p := strings.Index(regs, " PPU:"); p >= 0 {
		if c := strings.Index(regs, " CYC:"); c > p {
			regs = regs[:p] + regs[c:]
		}
	}
	return line[:4] + " " + regs
}

// run steps c once per reference line and returns the number of lines
// that matched. trace receives every line produced.
func run(c *cpu.CPU, ref io.Reader, trace io.Writer) (int, error) {
	scanner := bufio.NewScanner(ref)
	n := 0
	for scanner.Scan() {
		want := strings.TrimSpace(scanner.Text())
		if want == "" {
			continue
		}
		got := c.Trace()
		if trace != nil {
			fmt.Fprintln(trace, got)
		}
		if registers(got) != registers(want) {
			return n, &Mismatch{Line: n + 1, Got: got, Want: want}
		}
		n++
		if _, err := c.Step(); err != nil {
			return n, err
		}
	}
	return n, scanner.Err()
}

func main() {
	romPath := flag.String("rom", "nestest/testdata/nestest.nes", "path to nestest.nes")
	logPath := flag.String("log", "nestest/testdata/nestest.log", "path to the reference log")
	verbose := flag.Bool("v", false, "print every traced instruction")
	flag.Parse()

	cart, err := cartridge.LoadFile(*romPath)
	if err != nil {
		log.Fatalf("Error loading nestest ROM from %s: %v", *romPath, err)
	}
	ref, err := os.Open(*logPath)
	if err != nil {
		log.Fatalf("Error opening reference log: %v", err)
	}
	defer ref.Close()

	var trace io.Writer
	if *verbose {
		trace = os.Stdout
	}
	c, b := newMachine(cart)
	n, err := run(c, ref, trace)
	if err != nil {
		color.Red("FAIL after %d instructions", n)
		fmt.Println(err)
		os.Exit(1)
	}

	// nestest leaves its result codes in $02 and $03.
	official, unofficial := b.Peek(0x02), b.Peek(0x03)
	if official != 0 || unofficial != 0 {
		color.Yellow("log matched %d instructions, result codes $%02X $%02X", n, official, unofficial)
		os.Exit(1)
	}
	color.Green("PASS: %d instructions", n)
}
