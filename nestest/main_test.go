package main

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/meadori/nescore/cartridge"
	"github.com/meadori/nescore/mapper"
)

func TestRegisters(t *testing.T) {
	ref := "C72A  F0 04     BEQ $C730                       A:00 X:00 Y:00 P:26 SP:FB PPU:  0, 93 CYC:31"
	ours := "C72A  F0 04     BEQ $C730                       A:00 X:00 Y:00 P:26 SP:FB CYC:31"
	if registers(ref) != registers(ours) {
		t.Errorf("%q != %q", registers(ref), registers(ours))
	}
	annotated := "C7A8  8D 00 02  STA $0200 = 7F                  A:00 X:00 Y:00 P:26 SP:FB PPU:  1, 10 CYC:118"
	if got := registers(annotated); got != "C7A8 A:00 X:00 Y:00 P:26 SP:FB CYC:118" {
		t.Errorf("registers = %q", got)
	}
}

func TestSyntheticLog(t *testing.T) {
	prg := make([]byte, 0x4000)
	prg[0], prg[1] = 0xA2, 0x05 // LDX #$05
	prg[2] = 0xE8               // INX
	cart, err := cartridge.New(cartridge.Header{Mirroring: mapper.Horizontal}, prg, nil)
	if err != nil {
		t.Fatal(err)
	}

	ref := strings.Join([]string{
		"C000  A2 05     LDX #$05                        A:00 X:00 Y:00 P:24 SP:FD PPU:  0, 21 CYC:7",
		"C002  E8        INX                             A:00 X:05 Y:00 P:24 SP:FD PPU:  0, 27 CYC:9",
		"C003  00        BRK                             A:00 X:07 Y:00 P:24 SP:FD PPU:  0, 33 CYC:11",
	}, "\n")
	c, _ := newMachine(cart)
	n, err := run(c, strings.NewReader(ref), nil)
	var m *Mismatch
	if !errors.As(err, &m) || n != 2 || m.Line != 3 {
		t.Fatalf("run = %d, %v; want a mismatch on line 3", n, err)
	}
}

func TestNestest(t *testing.T) {
	cart, err := cartridge.LoadFile("testdata/nestest.nes")
	if errors.Is(err, os.ErrNotExist) {
		t.Skip("testdata/nestest.nes not present")
	}
	if err != nil {
		t.Fatal(err)
	}
	ref, err := os.Open("testdata/nestest.log")
	if err != nil {
		t.Skip("testdata/nestest.log not present")
	}
	defer ref.Close()

	c, _ := newMachine(cart)
	if n, err := run(c, ref, nil); err != nil {
		t.Fatalf("after %d instructions: %v", n, err)
	}
}
