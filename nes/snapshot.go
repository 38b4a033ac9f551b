package nes

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"io"

	"github.com/meadori/nescore/apu"
	"github.com/meadori/nescore/bus"
	"github.com/meadori/nescore/cartridge"
	"github.com/meadori/nescore/cpu"
	"github.com/meadori/nescore/mapper"
	"github.com/meadori/nescore/ppu"
)

// SnapshotVersion is the current layout of the snapshot container.
const SnapshotVersion = 1

// ErrSnapshotFormat is returned when an encoded snapshot cannot be decoded.
var ErrSnapshotFormat = errors.New("nes: malformed snapshot")

// Snapshot is a complete machine state. Hash identifies the ROM it was
// taken from.
type Snapshot struct {
	Version   int
	Hash      string
	CPU       cpu.State
	PPU       ppu.State
	APU       apu.State
	Bus       bus.State
	Cartridge cartridge.State
}

// CreateSaveState captures the machine between two instructions.
func (c *Console) CreateSaveState() (*Snapshot, error) {
	if c.cart == nil {
		return nil, ErrNoCartridge
	}
	var s *Snapshot
	c.do(func() {
		s = &Snapshot{
			Version:   SnapshotVersion,
			Hash:      c.cart.Hash,
			CPU:       c.cpu.SaveState(),
			PPU:       c.ppu.SaveState(),
			APU:       c.apu.SaveState(),
			Bus:       c.bus.SaveState(),
			Cartridge: c.cart.SaveState(),
		}
	})
	return s, nil
}

// LoadState restores s. Every record is checked before anything is
// applied, so a rejected snapshot leaves the machine as it was.
func (c *Console) LoadState(s *Snapshot) error {
	if c.cart == nil {
		return ErrNoCartridge
	}
	if s == nil {
		return fmt.Errorf("%w: nil snapshot", ErrSnapshotFormat)
	}
	var err error
	c.do(func() { err = c.loadState(s) })
	return err
}

func (c *Console) loadState(s *Snapshot) error {
	if s.Version != SnapshotVersion {
		return fmt.Errorf("%w: version %d, want %d", ErrSnapshotFormat, s.Version, SnapshotVersion)
	}
	if s.Hash != c.cart.Hash {
		return fmt.Errorf("%w: snapshot is for ROM %.12s, cartridge is %.12s", mapper.ErrStateMismatch, s.Hash, c.cart.Hash)
	}
	for _, err := range []error{
		cpu.CheckState(s.CPU),
		ppu.CheckState(s.PPU),
		apu.CheckState(s.APU),
		bus.CheckState(s.Bus),
	} {
		if err != nil {
			return err
		}
	}

	// The cartridge validates itself before changing anything; the rest
	// cannot fail once checked.
	if err := c.cart.LoadState(s.Cartridge); err != nil {
		return err
	}
	c.frameDone = false
	return errors.Join(
		c.cpu.LoadState(s.CPU),
		c.ppu.LoadState(s.PPU),
		c.apu.LoadState(s.APU),
		c.bus.LoadState(s.Bus),
	)
}

type snapshotHeader struct {
	Magic   string
	Version int
	Hash    string
}

// section carries one component record so a component can change its
// layout without touching the others.
type section struct {
	Name    string
	Version int
	Data    []byte
}

const snapshotMagic = "NESCORE"

// Encode writes s to w.
func (s *Snapshot) Encode(w io.Writer) error {
	enc := gob.NewEncoder(w)
	if err := enc.Encode(snapshotHeader{Magic: snapshotMagic, Version: s.Version, Hash: s.Hash}); err != nil {
		return err
	}
	for _, r := range s.records() {
		var buf bytes.Buffer
		if err := gob.NewEncoder(&buf).Encode(r.value); err != nil {
			return fmt.Errorf("nes: encoding %s: %w", r.name, err)
		}
		if err := enc.Encode(section{Name: r.name, Version: r.version, Data: buf.Bytes()}); err != nil {
			return err
		}
	}
	return nil
}

// DecodeSnapshot reads a snapshot written by Encode.
func DecodeSnapshot(r io.Reader) (*Snapshot, error) {
	dec := gob.NewDecoder(r)
	var h snapshotHeader
	if err := dec.Decode(&h); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshotFormat, err)
	}
	if h.Magic != snapshotMagic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrSnapshotFormat, h.Magic)
	}
	if h.Version != SnapshotVersion {
		return nil, fmt.Errorf("%w: version %d, want %d", ErrSnapshotFormat, h.Version, SnapshotVersion)
	}

	s := &Snapshot{Version: h.Version, Hash: h.Hash}
	records := s.records()
	seen := make(map[string]bool, len(records))
	for range records {
		var sec section
		if err := dec.Decode(&sec); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSnapshotFormat, err)
		}
		rec, ok := findRecord(records, sec.Name)
		if !ok || seen[sec.Name] {
			return nil, fmt.Errorf("%w: unexpected section %q", ErrSnapshotFormat, sec.Name)
		}
		if sec.Version != rec.version {
			return nil, fmt.Errorf("%w: %s section version %d, want %d", ErrSnapshotFormat, sec.Name, sec.Version, rec.version)
		}
		if err := gob.NewDecoder(bytes.NewReader(sec.Data)).Decode(rec.value); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrSnapshotFormat, sec.Name, err)
		}
		seen[sec.Name] = true
	}
	return s, nil
}

type record struct {
	name    string
	version int
	value   interface{}
}

func (s *Snapshot) records() []record {
	return []record{
		{"cpu", cpu.StateVersion, &s.CPU},
		{"ppu", ppu.StateVersion, &s.PPU},
		{"apu", apu.StateVersion, &s.APU},
		{"bus", bus.StateVersion, &s.Bus},
		{"cartridge", cartridge.StateVersion, &s.Cartridge},
	}
}

func findRecord(records []record, name string) (record, bool) {
	for _, r := range records {
		if r.name == name {
			return r, true
		}
	}
	return record{}, false
}
