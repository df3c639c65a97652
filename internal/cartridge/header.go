package cartridge

import (
	"errors"
	"fmt"
)

const (
	headerSize  = 16
	prgPageSize = 16 * 1024
	chrPageSize = 8 * 1024
	prgRAMPage  = 8 * 1024

	flagMirrorVertical = 0x01
	flagHasTrainer     = 0x04
	flagMapperLowNib   = 0xF0
)

var inesMagic = [4]byte{'N', 'E', 'S', 0x1A}

// ErrBadROM reports an iNES header inconsistent with the file it came from:
// a bad magic number, or a byte count that doesn't match the declared
// PRG/CHR page counts.
var ErrBadROM = errors.New("cartridge: malformed iNES image")

// ErrUnsupportedMapper reports a mapper number outside the supported set
// (Mapper000 only).
var ErrUnsupportedMapper = errors.New("cartridge: unsupported mapper")

// Header is the parsed form of an iNES file's 16-byte header.
type Header struct {
	PRGPages    uint8 // 16 KiB units
	CHRPages    uint8 // 8 KiB units
	PRGRAMPages uint8 // 8 KiB units, 0 normalized to 1
	Mapper      uint8
	Vertical    bool
	HasTrainer  bool
}

// parseHeader reads and validates the 16-byte iNES header. It does not
// consume trailing PRG/CHR data; callers read that themselves once they
// know the page counts.
func parseHeader(raw []byte) (Header, error) {
	if len(raw) < headerSize {
		return Header{}, fmt.Errorf("%w: header truncated (%d bytes)", ErrBadROM, len(raw))
	}
	if raw[0] != inesMagic[0] || raw[1] != inesMagic[1] || raw[2] != inesMagic[2] || raw[3] != inesMagic[3] {
		return Header{}, fmt.Errorf("%w: bad magic", ErrBadROM)
	}

	flags6 := raw[6]
	flags7 := raw[7]
	prgRAMPages := raw[8]
	if prgRAMPages == 0 {
		prgRAMPages = 1
	}

	h := Header{
		PRGPages:    raw[4],
		CHRPages:    raw[5],
		PRGRAMPages: prgRAMPages,
		Mapper:      ((flags6 >> 4) & 0x0F) | (flags7 & flagMapperLowNib),
		Vertical:    flags6&flagMirrorVertical != 0,
		HasTrainer:  flags6&flagHasTrainer != 0,
	}
	if h.PRGPages == 0 {
		return Header{}, fmt.Errorf("%w: zero PRG-ROM pages", ErrBadROM)
	}
	return h, nil
}
