package cartridge

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"github.com/meadori/nescore/mapper"
)

// LogDebug, when set, receives verbose board tracing (bank switches, IRQ
// counter reloads).
var LogDebug func(format string, a ...interface{})

func debugf(format string, a ...interface{}) {
	if LogDebug != nil {
		LogDebug(format, a...)
	}
}

const (
	headerSize  = 16
	trainerSize = 512

	prgBankSize = 16384
	chrBankSize = 8192
	ramBankSize = 8192
)

var (
	// ErrFormat reports a malformed iNES header.
	ErrFormat = errors.New("cartridge: invalid iNES image")
	// ErrTruncated reports an image shorter than its header declares.
	ErrTruncated = errors.New("cartridge: truncated bank data")
)

// Header holds the fields of an iNES header that affect emulation.
type Header struct {
	PRGBanks    int // 16 KiB units
	CHRBanks    int // 8 KiB units, 0 means CHR-RAM
	PRGRAMBanks int // 8 KiB units
	Mapper      uint8
	Mirroring   mapper.Mirroring
	Battery     bool
	Trainer     bool
	NES2        bool
}

// ParseHeader decodes the 16-byte iNES header at the start of b.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < headerSize {
		return Header{}, fmt.Errorf("%w: %d bytes is shorter than a header", ErrFormat, len(b))
	}
	if b[0] != 'N' || b[1] != 'E' || b[2] != 'S' || b[3] != 0x1A {
		return Header{}, fmt.Errorf("%w: missing signature", ErrFormat)
	}

	flags6, flags7 := b[6], b[7]
	h := Header{
		PRGBanks:    int(b[4]),
		CHRBanks:    int(b[5]),
		PRGRAMBanks: int(b[8]),
		Battery:     flags6&0x02 != 0,
		Trainer:     flags6&0x04 != 0,
		NES2:        flags7&0x0C == 0x08,
	}
	if h.PRGBanks == 0 {
		return Header{}, fmt.Errorf("%w: no PRG banks", ErrFormat)
	}

	switch {
	case flags6&0x08 != 0:
		h.Mirroring = mapper.FourScreen
	case flags6&0x01 != 0:
		h.Mirroring = mapper.Vertical
	default:
		h.Mirroring = mapper.Horizontal
	}

	// Old dumpers wrote ASCII junk into bytes 7-15; the upper nibble of the
	// mapper number is only trusted when the padding is clean.
	h.Mapper = flags6 >> 4
	if h.NES2 || (b[12] == 0 && b[13] == 0 && b[14] == 0 && b[15] == 0) {
		h.Mapper |= flags7 & 0xF0
	}
	if h.NES2 {
		h.PRGBanks |= int(b[9]&0x0F) << 8
		h.CHRBanks |= int(b[9]>>4) << 8
	}
	return h, nil
}

// Cartridge is a loaded ROM image together with the board that maps it.
type Cartridge struct {
	Header Header
	PRG    []byte
	CHR    []byte
	PRGRAM []byte
	CHRRAM bool
	Hash   string
	Mapper mapper.Mapper
}

// Load parses an iNES image.
func Load(data []byte) (*Cartridge, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	offset := headerSize
	if h.Trainer {
		offset += trainerSize
	}

	prgSize := h.PRGBanks * prgBankSize
	chrSize := h.CHRBanks * chrBankSize
	if need := offset + prgSize + chrSize; len(data) < need {
		return nil, fmt.Errorf("%w: have %d bytes, header declares %d", ErrTruncated, len(data), need)
	}
	prg := data[offset : offset+prgSize]
	chr := data[offset+prgSize : offset+prgSize+chrSize]
	return New(h, prg, chr)
}

// LoadFile reads and parses the iNES image at path.
func LoadFile(path string) (*Cartridge, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := Load(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// New builds a cartridge from already parsed header fields. prg and chr are
// copied.
func New(h Header, prg, chr []byte) (*Cartridge, error) {
	if len(prg) == 0 || len(prg)%prgBankSize != 0 {
		return nil, fmt.Errorf("%w: PRG size %d is not a multiple of 16 KiB", ErrFormat, len(prg))
	}
	if len(chr)%chrBankSize != 0 {
		return nil, fmt.Errorf("%w: CHR size %d is not a multiple of 8 KiB", ErrFormat, len(chr))
	}
	h.PRGBanks = len(prg) / prgBankSize
	h.CHRBanks = len(chr) / chrBankSize

	sum := sha1.New()
	sum.Write(prg)
	sum.Write(chr)

	c := &Cartridge{
		Header: h,
		PRG:    append([]byte(nil), prg...),
		Hash:   hex.EncodeToString(sum.Sum(nil)),
	}
	if len(chr) == 0 {
		c.CHR = make([]byte, chrBankSize)
		c.CHRRAM = true
	} else {
		c.CHR = append([]byte(nil), chr...)
	}
	if h.Battery || h.Mapper == 1 || h.Mapper == 4 {
		n := h.PRGRAMBanks
		if n == 0 {
			n = 1
		}
		c.PRGRAM = make([]byte, n*ramBankSize)
	}

	m, err := newMapper(c)
	if err != nil {
		return nil, err
	}
	c.Mapper = m
	debugf("cartridge: mapper %d, %d PRG, %d CHR, %v mirroring", h.Mapper, h.PRGBanks, h.CHRBanks, h.Mirroring)
	return c, nil
}

func newMapper(c *Cartridge) (mapper.Mapper, error) {
	switch c.Header.Mapper {
	case 0:
		return newNROM(c), nil
	case 1:
		return newMMC1(c), nil
	case 2:
		return newUxROM(c), nil
	case 3:
		return newCNROM(c), nil
	case 4:
		return newMMC3(c), nil
	}
	return nil, fmt.Errorf("%w: mapper %d", mapper.ErrUnsupported, c.Header.Mapper)
}
