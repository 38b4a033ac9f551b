package cpu

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Conformance against the SingleStepTests nes6502 corpus. Drop the per-opcode
// files (xx.json or xx.json.gz) into testdata/nes6502/v1 to enable it.

var singleStepSample = flag.Int("singlestep-sample", 0, "run only the first N cases per opcode (0 = all, -short = 50)")

const singleStepDir = "testdata/nes6502/v1"

type singleStepCase struct {
	Name    string          `json:"name"`
	Initial singleStepState `json:"initial"`
	Final   singleStepState `json:"final"`
	Cycles  [][]interface{} `json:"cycles"`
}

type singleStepState struct {
	PC  uint16   `json:"pc"`
	S   byte     `json:"s"`
	A   byte     `json:"a"`
	X   byte     `json:"x"`
	Y   byte     `json:"y"`
	P   byte     `json:"p"`
	RAM [][2]int `json:"ram"`
}

func loadSingleStep(path string) ([]singleStepCase, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}
	var cases []singleStepCase
	if err := json.NewDecoder(r).Decode(&cases); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cases, nil
}

func runSingleStep(t *testing.T, c *CPU, bus *mockBus, tc singleStepCase) {
	t.Helper()
	for _, cell := range tc.Initial.RAM {
		bus.ram[cell[0]] = byte(cell[1])
	}
	c.PC, c.SP, c.A, c.X, c.Y, c.P = tc.Initial.PC, tc.Initial.S, tc.Initial.A, tc.Initial.X, tc.Initial.Y, tc.Initial.P
	c.stall, c.nmiPending, c.irqMasked = 0, false, true

	n, err := c.Step()
	if err != nil {
		t.Fatalf("%s: %v", tc.Name, err)
	}

	f := tc.Final
	const ignored = B | U
	if c.PC != f.PC || c.SP != f.S || c.A != f.A || c.X != f.X || c.Y != f.Y || c.P&^ignored != f.P&^ignored {
		t.Errorf("%s: registers PC=%04X S=%02X A=%02X X=%02X Y=%02X P=%02X, want PC=%04X S=%02X A=%02X X=%02X Y=%02X P=%02X",
			tc.Name, c.PC, c.SP, c.A, c.X, c.Y, c.P, f.PC, f.S, f.A, f.X, f.Y, f.P)
	}
	for _, cell := range f.RAM {
		if got := bus.ram[cell[0]]; got != byte(cell[1]) {
			t.Errorf("%s: ram[%04X] = %02X, want %02X", tc.Name, cell[0], got, cell[1])
		}
	}
	if n != len(tc.Cycles) {
		t.Errorf("%s: %d cycles, want %d", tc.Name, n, len(tc.Cycles))
	}
}

func TestSingleStep(t *testing.T) {
	if _, err := os.Stat(singleStepDir); errors.Is(err, os.ErrNotExist) {
		t.Skipf("%s not present", singleStepDir)
	}

	limit := *singleStepSample
	if limit == 0 && testing.Short() {
		limit = 50
	}

	for op := 0; op < 256; op++ {
		if lookup[op].exec == nil {
			continue
		}
		var path string
		for _, name := range []string{fmt.Sprintf("%02x.json", op), fmt.Sprintf("%02x.json.gz", op)} {
			if _, err := os.Stat(filepath.Join(singleStepDir, name)); err == nil {
				path = filepath.Join(singleStepDir, name)
				break
			}
		}
		if path == "" {
			continue
		}

		t.Run(fmt.Sprintf("%02X_%s", op, lookup[op].name), func(t *testing.T) {
			cases, err := loadSingleStep(path)
			if err != nil {
				t.Fatal(err)
			}
			if limit > 0 && len(cases) > limit {
				cases = cases[:limit]
			}
			bus := &mockBus{}
			c := New(bus)
			for _, tc := range cases {
				runSingleStep(t, c, bus, tc)
				if t.Failed() {
					return
				}
			}
		})
	}
}
