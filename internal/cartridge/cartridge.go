// Package cartridge parses iNES ROM images and implements cartridge
// address mapping (currently Mapper000/NROM) for the CPU and PPU buses.
package cartridge

import (
	"fmt"
	"io"
)

// Cartridge holds a loaded ROM's four byte vectors plus the mapper that
// translates addresses into offsets within them.
type Cartridge struct {
	prgROM []uint8
	prgRAM []uint8
	chrROM []uint8
	chrRAM []uint8

	hasCHRRAM bool
	vertical  bool
	mapperID  uint8
	mapper    Mapper
}

// Mapper, Vertical and HasCHRRAM report the mapper number, mirroring flag
// and CHR-RAM fallback parsed from the iNES header, for diagnostics.
func (c *Cartridge) Mapper() uint8   { return c.mapperID }
func (c *Cartridge) Vertical() bool  { return c.vertical }
func (c *Cartridge) HasCHRRAM() bool { return c.hasCHRRAM }

// supportedMappers is the closed set this cartridge implementation knows
// how to build a Mapper for.
var supportedMappers = map[uint8]bool{0: true}

// Load parses an iNES image from r and constructs a Cartridge with its
// mapper wired up. It returns ErrBadROM for a malformed header or short
// read, and ErrUnsupportedMapper for a mapper number outside the
// supported set.
func Load(r io.Reader) (*Cartridge, error) {
	raw := make([]byte, headerSize)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadROM, err)
	}
	header, err := parseHeader(raw)
	if err != nil {
		return nil, err
	}
	if !supportedMappers[header.Mapper] {
		return nil, fmt.Errorf("%w: mapper %d", ErrUnsupportedMapper, header.Mapper)
	}

	if header.HasTrainer {
		trainer := make([]byte, 512)
		if _, err := io.ReadFull(r, trainer); err != nil {
			return nil, fmt.Errorf("%w: truncated trainer", ErrBadROM)
		}
	}

	prgROM := make([]uint8, int(header.PRGPages)*prgPageSize)
	if _, err := io.ReadFull(r, prgROM); err != nil {
		return nil, fmt.Errorf("%w: PRG-ROM short read: %v", ErrBadROM, err)
	}

	var chrROM []uint8
	hasCHRRAM := header.CHRPages == 0
	if hasCHRRAM {
		chrROM = make([]uint8, chrPageSize)
	} else {
		chrROM = make([]uint8, int(header.CHRPages)*chrPageSize)
		if _, err := io.ReadFull(r, chrROM); err != nil {
			return nil, fmt.Errorf("%w: CHR-ROM short read: %v", ErrBadROM, err)
		}
	}

	cart := &Cartridge{
		prgROM:    prgROM,
		prgRAM:    make([]uint8, int(header.PRGRAMPages)*prgRAMPage),
		chrROM:    chrROM,
		hasCHRRAM: hasCHRRAM,
		vertical:  header.Vertical,
		mapperID:  header.Mapper,
	}
	if hasCHRRAM {
		cart.chrRAM = cart.chrROM
	}
	cart.mapper = NewMapper000(header.PRGPages, header.CHRPages > 0 || hasCHRRAM)
	return cart, nil
}

// OwnsCPU reports whether the mapper claims addr for CPU access.
func (c *Cartridge) OwnsCPU(addr uint16) bool {
	return c.mapper.OwnsCPU(addr)
}

// OwnsPPU reports whether the mapper claims addr for PPU (CHR) access.
func (c *Cartridge) OwnsPPU(addr uint16) bool {
	return c.mapper.OwnsPPU(addr)
}

// CPURead serves a CPU-side read. PRG-RAM (0x6000-0x7FFF) is handled
// directly; everything else goes through the mapper's ROM-window mapping.
func (c *Cartridge) CPURead(addr uint16) uint8 {
	if addr >= 0x6000 && addr < prgROMBase {
		if len(c.prgRAM) == 0 {
			return 0
		}
		return c.prgRAM[(addr-0x6000)%uint16(len(c.prgRAM))]
	}
	offset, ok := c.mapper.MapPRGRead(addr)
	if !ok || int(offset) >= len(c.prgROM) {
		return 0
	}
	return c.prgROM[offset]
}

// CPUWrite serves a CPU-side write. PRG-RAM is writable; writes into the
// ROM window are accepted (NROM has no registers to latch) and dropped.
func (c *Cartridge) CPUWrite(addr uint16, value uint8) {
	if addr >= 0x6000 && addr < prgROMBase {
		if len(c.prgRAM) == 0 {
			return
		}
		c.prgRAM[(addr-0x6000)%uint16(len(c.prgRAM))] = value
		return
	}
	c.mapper.MapPRGWrite(addr)
}

// PPURead serves a PPU-side CHR read.
func (c *Cartridge) PPURead(addr uint16) uint8 {
	offset, ok := c.mapper.MapCHR(addr)
	if !ok {
		return 0
	}
	if c.hasCHRRAM {
		return c.chrRAM[offset]
	}
	return c.chrROM[offset]
}

// PPUWrite serves a PPU-side CHR write. Writing CHR on a ROM-only cart is
// a programming error, not a hardware condition a real cartridge could
// hit: no mapper wiring routes PPU writes there unless something upstream
// mis-detected CHR-RAM presence. It aborts rather than silently dropping.
func (c *Cartridge) PPUWrite(addr uint16, value uint8) {
	offset, ok := c.mapper.MapCHR(addr)
	if !ok {
		return
	}
	if !c.hasCHRRAM {
		panic(fmt.Sprintf("cartridge: CHR write to ROM-only cart at $%04X", addr))
	}
	c.chrRAM[offset] = value
}
