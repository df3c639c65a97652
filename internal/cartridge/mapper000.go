package cartridge

// prgROMBase is where Mapper000's PRG-ROM window starts; everything below
// it down to 0x6000 is PRG-RAM, which the cartridge handles directly
// rather than asking the mapper (Mapper000 has no RAM-banking logic).
const prgROMBase = 0x8000

// Mapper000 is NROM: no bank switching, no registers. It is stateless
// beyond the one fact that changes its read mirroring: whether the
// cartridge shipped one 16 KiB PRG-ROM page or two.
type Mapper000 struct {
	twoPRGPages bool
	hasCHR      bool
}

// NewMapper000 builds the mapper from the two facts it is allowed to
// depend on: PRG-ROM page count and whether CHR memory is present.
func NewMapper000(prgPages uint8, hasCHR bool) *Mapper000 {
	return &Mapper000{twoPRGPages: prgPages >= 2, hasCHR: hasCHR}
}

// OwnsCPU matches anything from PRG-RAM through the top of the address
// space; the bus asks first and routes 0x0000-0x5FFF to RAM and its
// register windows when this returns false.
func (m *Mapper000) OwnsCPU(addr uint16) bool {
	return addr >= 0x6000
}

// OwnsPPU matches the 8 KiB CHR window.
func (m *Mapper000) OwnsPPU(addr uint16) bool {
	return addr <= 0x1FFF
}

// MapPRGRead mirrors a 16 KiB cart into the 32 KiB ROM window. Addresses
// below the ROM window (PRG-RAM) are not this mapper's concern; the
// cartridge handles those before consulting the mapper at all.
func (m *Mapper000) MapPRGRead(addr uint16) (uint16, bool) {
	return m.mapPRG(addr)
}

// MapPRGWrite is identical to MapPRGRead: NROM has no registers, so a CPU
// write into the ROM window lands at the same offset a read would, even
// though the cartridge ultimately drops writes to ROM-backed storage.
func (m *Mapper000) MapPRGWrite(addr uint16) (uint16, bool) {
	return m.mapPRG(addr)
}

func (m *Mapper000) mapPRG(addr uint16) (uint16, bool) {
	if addr < prgROMBase {
		return 0, false
	}
	if m.twoPRGPages {
		return addr & 0x7FFF, true
	}
	return addr & 0x3FFF, true
}

// MapCHR is the identity mapping within the 8 KiB CHR window; anything
// above it is not owned by this mapper.
func (m *Mapper000) MapCHR(addr uint16) (uint16, bool) {
	if addr > 0x1FFF {
		return 0, false
	}
	return addr, true
}
