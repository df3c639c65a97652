// Package bus implements the system bus connecting the CPU to RAM, the
// stubbed PPU/APU register windows, and the cartridge.
package bus

import (
	"fmt"

	"nescore/internal/cpu"
)

const (
	ramSize     = 0x0800
	ramMirror   = 0x07FF
	ppuWindow   = 0x2000
	apuWindow   = 0x4000
	ticksPerCPU = 3
)

// Cartridge is the subset of the cartridge's CPU-facing contract the bus
// needs: ownership plus read/write. The bus never reaches into cartridge
// internals, mirroring the memory package's CartridgeInterface pattern.
type Cartridge interface {
	OwnsCPU(addr uint16) bool
	CPURead(addr uint16) uint8
	CPUWrite(addr uint16, value uint8)
}

// Bus is the CPU's memory-mapped view of the system: RAM, stub PPU/APU
// register windows, and the cartridge window.
type Bus struct {
	CPU *cpu.CPU

	ram  [ramSize]uint8
	cart Cartridge

	ppu ppuRegisterStub
	apu apuRegisterStub

	masterTicks uint64

	debug bool
}

// New builds a Bus with its CPU wired to read/write through it. Call
// LoadCartridge then Reset before driving it.
func New() *Bus {
	b := &Bus{}
	b.CPU = cpu.New(b)
	return b
}

// LoadCartridge installs the cartridge that owns the $4020-$FFFF window
// (and $6000-$FFFF by Mapper000's ownership rule).
func (b *Bus) LoadCartridge(cart Cartridge) {
	b.cart = cart
}

// SetDebug toggles a tagged Printf diagnostic printed when the CPU writes
// the $4014 OAM DMA register, which has no PPU behind it here.
func (b *Bus) SetDebug(enabled bool) {
	b.debug = enabled
}

// Reset resets the CPU and the master clock. RAM is left as-is: the real
// machine does not clear RAM on reset either.
func (b *Bus) Reset() {
	b.CPU.Reset()
	b.masterTicks = 0
}

// Read implements the bus's four-step routing: cartridge ownership first
// (Mapper000 claims addr >= 0x6000), then RAM, then the PPU register
// window, then the APU/IO window. Every address resolves; nothing fails.
func (b *Bus) Read(addr uint16) uint8 {
	if b.cart != nil && b.cart.OwnsCPU(addr) {
		return b.cart.CPURead(addr)
	}
	switch {
	case addr < ppuWindow:
		return b.ram[addr&ramMirror]
	case addr < apuWindow:
		return b.ppu.Read(addr)
	default:
		return b.apu.Read(addr)
	}
}

// Write is Read's symmetric counterpart.
func (b *Bus) Write(addr uint16, value uint8) {
	if b.cart != nil && b.cart.OwnsCPU(addr) {
		b.cart.CPUWrite(addr, value)
		return
	}
	switch {
	case addr < ppuWindow:
		b.ram[addr&ramMirror] = value
	case addr < apuWindow:
		b.ppu.Write(addr, value)
	default:
		b.apu.Write(addr, value)
		if b.debug && addr == 0x4014 {
			fmt.Printf("[BUS_DEBUG] OAM DMA trigger at $4014 = $%02X (no PPU attached, ignored)\n", value)
		}
	}
}

// Tick advances the master clock by one PPU-equivalent tick. Every third
// tick drives exactly one CPU cycle, the 3:1 ratio a real picture generator
// would also observe off this same clock.
func (b *Bus) Tick() {
	b.masterTicks++
	if b.masterTicks%ticksPerCPU == 0 {
		b.CPU.Step()
	}
}

// Step advances the bus by exactly one CPU cycle (three master ticks).
func (b *Bus) Step() {
	for i := 0; i < ticksPerCPU; i++ {
		b.Tick()
	}
}

// Run drives Step until the CPU's PC reaches stopPC or, when maxSteps is
// non-zero, until maxSteps Steps have run; with a nil stopPC and a zero
// maxSteps it runs forever. Used by headless runs.
func (b *Bus) Run(stopPC *uint16, maxSteps uint64) {
	for i := uint64(0); maxSteps == 0 || i < maxSteps; i++ {
		if stopPC != nil && b.CPU.PC == *stopPC {
			return
		}
		b.Step()
	}
}

// MasterTicks returns the master-clock tick count (three per CPU cycle).
func (b *Bus) MasterTicks() uint64 {
	return b.masterTicks
}

// ppuRegisterStub models the bus's 8-byte PPU register window ($2000-
// $3FFF, mirrored every 8 bytes). The real PPU is an external collaborator;
// this stub only needs to exist so the address space routes correctly and
// reads/writes never panic. It remembers the last value written to each of
// the eight registers for debug introspection.
type ppuRegisterStub struct {
	lastWrite [8]uint8
}

func (p *ppuRegisterStub) Read(addr uint16) uint8 {
	return 0
}

func (p *ppuRegisterStub) Write(addr uint16, value uint8) {
	p.lastWrite[addr&0x0007] = value
}

// apuRegisterStub models the $4000-$4017 APU/IO window the same way.
type apuRegisterStub struct {
	lastWrite [0x18]uint8
}

func (a *apuRegisterStub) Read(addr uint16) uint8 {
	return 0
}

func (a *apuRegisterStub) Write(addr uint16, value uint8) {
	offset := addr - apuWindow
	if int(offset) < len(a.lastWrite) {
		a.lastWrite[offset] = value
	}
}
