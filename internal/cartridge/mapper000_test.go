package cartridge

import "testing"

func TestMapper000OwnsCPU(t *testing.T) {
	m := NewMapper000(1, false)
	if m.OwnsCPU(0x5FFF) {
		t.Fatal("should not own below 0x6000")
	}
	if !m.OwnsCPU(0x6000) || !m.OwnsCPU(0xFFFF) {
		t.Fatal("should own 0x6000-0xFFFF")
	}
}

func TestMapper000OwnsPPU(t *testing.T) {
	m := NewMapper000(1, true)
	if !m.OwnsPPU(0x0000) || !m.OwnsPPU(0x1FFF) {
		t.Fatal("should own 0x0000-0x1FFF")
	}
	if m.OwnsPPU(0x2000) {
		t.Fatal("should not own 0x2000")
	}
}

func TestMapper000OneBankMirrorMask(t *testing.T) {
	m := NewMapper000(1, false)
	off, ok := m.MapPRGRead(0xC123)
	if !ok {
		t.Fatal("expected ownership of ROM window")
	}
	if off != 0x4123&0x3FFF {
		t.Fatalf("offset = %#x, want %#x", off, 0x4123&0x3FFF)
	}
}

func TestMapper000TwoBankDirectMask(t *testing.T) {
	m := NewMapper000(2, false)
	off, ok := m.MapPRGRead(0xC123)
	if !ok {
		t.Fatal("expected ownership of ROM window")
	}
	if off != 0xC123&0x7FFF {
		t.Fatalf("offset = %#x, want %#x", off, 0xC123&0x7FFF)
	}
}

func TestMapper000PRGRAMNotOwnedByMapper(t *testing.T) {
	m := NewMapper000(1, false)
	if _, ok := m.MapPRGRead(0x6500); ok {
		t.Fatal("PRG-RAM range should not be claimed by the mapper's ROM mapping")
	}
}

func TestMapper000CHRIdentity(t *testing.T) {
	m := NewMapper000(1, true)
	off, ok := m.MapCHR(0x0ABC)
	if !ok || off != 0x0ABC {
		t.Fatalf("MapCHR(0x0ABC) = (%#x, %v), want (0x0ABC, true)", off, ok)
	}
	if _, ok := m.MapCHR(0x2000); ok {
		t.Fatal("MapCHR should not own 0x2000")
	}
}
