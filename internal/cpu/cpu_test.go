package cpu

import (
	"testing"

	"nescore/internal/status"
)

// MockMemory is a flat 64KB address space implementing Memory, with
// per-address access counters for tests that care about dummy reads.
type MockMemory struct {
	data       [0x10000]uint8
	readCount  map[uint16]int
	writeCount map[uint16]int
}

func NewMockMemory() *MockMemory {
	return &MockMemory{readCount: make(map[uint16]int), writeCount: make(map[uint16]int)}
}

func (m *MockMemory) Read(addr uint16) uint8 {
	m.readCount[addr]++
	return m.data[addr]
}

func (m *MockMemory) Write(addr uint16, value uint8) {
	m.writeCount[addr]++
	m.data[addr] = value
}

func (m *MockMemory) SetByte(addr uint16, value uint8) {
	m.data[addr] = value
}

func (m *MockMemory) SetBytes(addr uint16, values ...uint8) {
	for i, v := range values {
		m.data[addr+uint16(i)] = v
	}
}

// CPUTestHelper bundles a CPU with its backing MockMemory and drives it a
// full instruction at a time instead of tick by tick.
type CPUTestHelper struct {
	CPU    *CPU
	Memory *MockMemory
}

func NewCPUTestHelper() *CPUTestHelper {
	mem := NewMockMemory()
	return &CPUTestHelper{CPU: New(mem), Memory: mem}
}

// SetupResetVector points the reset vector at address, resets, and drains
// the 8 reset cycles so the CPU is ready to fetch at address.
func (h *CPUTestHelper) SetupResetVector(address uint16) {
	h.Memory.SetBytes(0xFFFC, uint8(address&0xFF), uint8(address>>8))
	h.CPU.Reset()
	h.drain()
}

func (h *CPUTestHelper) LoadProgram(address uint16, program ...uint8) {
	h.Memory.SetBytes(address, program...)
}

func (h *CPUTestHelper) drain() {
	for h.CPU.CyclesRemaining() > 0 {
		h.CPU.Step()
	}
}

// RunInstruction executes exactly one fetch-decode-execute cycle, ticking
// through every cycle it costs. Must be called with CyclesRemaining() == 0.
func (h *CPUTestHelper) RunInstruction() {
	h.CPU.Step()
	h.drain()
}

func (h *CPUTestHelper) AssertRegisters(t *testing.T, name string, a, x, y, sp uint8, pc uint16) {
	t.Helper()
	c := h.CPU
	if c.A != a {
		t.Errorf("%s: A = 0x%02X, want 0x%02X", name, c.A, a)
	}
	if c.X != x {
		t.Errorf("%s: X = 0x%02X, want 0x%02X", name, c.X, x)
	}
	if c.Y != y {
		t.Errorf("%s: Y = 0x%02X, want 0x%02X", name, c.Y, y)
	}
	if c.SP != sp {
		t.Errorf("%s: SP = 0x%02X, want 0x%02X", name, c.SP, sp)
	}
	if c.PC != pc {
		t.Errorf("%s: PC = 0x%04X, want 0x%04X", name, c.PC, pc)
	}
}

func TestResetState(t *testing.T) {
	h := NewCPUTestHelper()
	h.SetupResetVector(0x8000)
	h.AssertRegisters(t, "reset", 0, 0, 0, 0xFD, 0x8000)
	if h.CPU.P.Byte() != 0x24 {
		t.Fatalf("P after reset = 0x%02X, want 0x24", h.CPU.P.Byte())
	}
}

func TestLDAImmediateSetsFlags(t *testing.T) {
	h := NewCPUTestHelper()
	h.SetupResetVector(0x8000)
	h.LoadProgram(0x8000, 0xA9, 0x00) // LDA #$00
	h.RunInstruction()
	h.AssertRegisters(t, "LDA #$00", 0, 0, 0, 0xFD, 0x8002)
	if !h.CPU.P.Get(status.FlagZ) {
		t.Fatal("Z should be set after loading zero")
	}

	h.LoadProgram(0x8002, 0xA9, 0x80) // LDA #$80
	h.RunInstruction()
	if !h.CPU.P.Get(status.FlagN) {
		t.Fatal("N should be set after loading a negative value")
	}
}

func TestADCCarryAndOverflow(t *testing.T) {
	h := NewCPUTestHelper()
	h.SetupResetVector(0x8000)
	// 0x50 + 0x50 = 0xA0: signed overflow (two positives producing a negative).
	h.LoadProgram(0x8000, 0xA9, 0x50, 0x69, 0x50) // LDA #$50; ADC #$50
	h.RunInstruction()
	h.RunInstruction()
	if h.CPU.A != 0xA0 {
		t.Fatalf("A = 0x%02X, want 0xA0", h.CPU.A)
	}
	if !h.CPU.P.Get(status.FlagV) {
		t.Fatal("V should be set on signed overflow")
	}
	if h.CPU.P.Get(status.FlagC) {
		t.Fatal("C should be clear: sum did not exceed 0xFF")
	}
}

func TestSBCBorrow(t *testing.T) {
	h := NewCPUTestHelper()
	h.SetupResetVector(0x8000)
	// SEC; LDA #$10; SBC #$20 -> borrow, C clears.
	h.LoadProgram(0x8000, 0x38, 0xA9, 0x10, 0xE9, 0x20)
	h.RunInstruction()
	h.RunInstruction()
	h.RunInstruction()
	if h.CPU.A != 0xF0 {
		t.Fatalf("A = 0x%02X, want 0xF0", h.CPU.A)
	}
	if h.CPU.P.Get(status.FlagC) {
		t.Fatal("C should be clear after a borrow")
	}
}

func TestZeroPageXWraps(t *testing.T) {
	h := NewCPUTestHelper()
	h.SetupResetVector(0x8000)
	h.Memory.SetByte(0x007F, 0x42)
	h.LoadProgram(0x8000, 0xA2, 0xFF, 0xB5, 0x80) // LDX #$FF; LDA $80,X -> reads $7F
	h.RunInstruction()
	h.RunInstruction()
	if h.CPU.A != 0x42 {
		t.Fatalf("zero-page,X did not wrap: A = 0x%02X, want 0x42", h.CPU.A)
	}
}

func TestAbsoluteXPageCrossChargesExtraCycle(t *testing.T) {
	h := NewCPUTestHelper()
	h.SetupResetVector(0x8000)
	h.LoadProgram(0x8000, 0xA2, 0x01, 0xBD, 0xFF, 0x00) // LDX #$01; LDA $00FF,X -> $0100
	h.RunInstruction()
	h.CPU.Step() // first tick of the LDA fetch
	if h.CPU.CyclesRemaining() != 4 {
		t.Fatalf("cycles remaining after page-crossing LDA abs,X = %d, want 4 (5 total - 1)", h.CPU.CyclesRemaining())
	}
	h.drain()
}

func TestJMPIndirectPageBoundaryBug(t *testing.T) {
	h := NewCPUTestHelper()
	h.SetupResetVector(0x8000)
	h.Memory.SetBytes(0x02FF, 0x00, 0x03) // low byte at $02FF
	h.Memory.SetByte(0x0200, 0x04)        // the hardware bug reads high byte from $0200, not $0300
	h.LoadProgram(0x8000, 0x6C, 0xFF, 0x02)
	h.RunInstruction()
	if h.CPU.PC != 0x0400 {
		t.Fatalf("PC = 0x%04X, want 0x0400 (page-boundary bug)", h.CPU.PC)
	}
}

func TestJSRRTSRoundTrip(t *testing.T) {
	h := NewCPUTestHelper()
	h.SetupResetVector(0x8000)
	h.LoadProgram(0x8000, 0x20, 0x00, 0x90) // JSR $9000
	h.LoadProgram(0x9000, 0x60)             // RTS
	h.RunInstruction()
	if h.CPU.PC != 0x9000 {
		t.Fatalf("PC after JSR = 0x%04X, want 0x9000", h.CPU.PC)
	}
	h.RunInstruction()
	if h.CPU.PC != 0x8003 {
		t.Fatalf("PC after RTS = 0x%04X, want 0x8003", h.CPU.PC)
	}
}

func TestBRKPushesBAndVectorsThroughIRQ(t *testing.T) {
	h := NewCPUTestHelper()
	h.SetupResetVector(0x8000)
	h.Memory.SetBytes(0xFFFE, 0x00, 0x40) // IRQ/BRK vector -> $4000
	h.LoadProgram(0x8000, 0x00)           // BRK
	h.RunInstruction()
	if h.CPU.PC != 0x4000 {
		t.Fatalf("PC after BRK = 0x%04X, want 0x4000", h.CPU.PC)
	}
	if !h.CPU.P.Get(status.FlagI) {
		t.Fatal("I should be set after BRK")
	}
	pushedP := h.Memory.Read(0x01FB)
	if status.FromByte(pushedP).Get(status.FlagB) != true {
		t.Fatal("pushed status byte should have B set for BRK")
	}
}

func TestNMITakesPriorityAndPushesBClear(t *testing.T) {
	h := NewCPUTestHelper()
	h.SetupResetVector(0x8000)
	h.Memory.SetBytes(0xFFFA, 0x00, 0x50) // NMI vector -> $5000
	h.LoadProgram(0x8000, 0xEA)           // NOP, never actually fetched
	h.CPU.SetNMILine(true)
	h.CPU.SetNMILine(false) // falling edge arms nmiPending
	h.RunInstruction()
	if h.CPU.PC != 0x5000 {
		t.Fatalf("PC after NMI = 0x%04X, want 0x5000", h.CPU.PC)
	}
	pushedP := h.Memory.Read(0x01FB)
	if status.FromByte(pushedP).Get(status.FlagB) {
		t.Fatal("pushed status byte should have B clear for a hardware NMI")
	}
}

func TestIRQMaskedByInterruptDisable(t *testing.T) {
	h := NewCPUTestHelper()
	h.SetupResetVector(0x8000)
	h.LoadProgram(0x8000, 0x78, 0xEA) // SEI; NOP
	h.RunInstruction()
	h.CPU.SetIRQLine(true)
	h.RunInstruction()
	if h.CPU.PC != 0x8002 {
		t.Fatalf("IRQ fired while I was set: PC = 0x%04X, want 0x8002", h.CPU.PC)
	}
}

func TestMustAddressPanicsOnImplied(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic when resolving an address under Implied mode")
		}
	}()
	mustAddress(Implied, operand{address: 0x1234})
}

func TestUndocumentedLAX(t *testing.T) {
	h := NewCPUTestHelper()
	h.SetupResetVector(0x8000)
	h.Memory.SetByte(0x0010, 0x99)
	h.LoadProgram(0x8000, 0xA7, 0x10) // LAX $10
	h.RunInstruction()
	if h.CPU.A != 0x99 || h.CPU.X != 0x99 {
		t.Fatalf("LAX: A=0x%02X X=0x%02X, want both 0x99", h.CPU.A, h.CPU.X)
	}
}

func TestUnknownOpcodePolicyNOP(t *testing.T) {
	h := NewCPUTestHelper()
	h.SetupResetVector(0x8000)
	h.CPU.SetUnknownOpcodePolicy(TreatAsNOP)
	h.LoadProgram(0x8000, 0x02) // unassigned opcode (JAM/KIL, not in this compliance subset)
	h.RunInstruction()
	if h.CPU.PC != 0x8001 {
		t.Fatalf("PC after unknown opcode under NOP policy = 0x%04X, want 0x8001", h.CPU.PC)
	}
}

func TestUnknownOpcodePolicyPanics(t *testing.T) {
	h := NewCPUTestHelper()
	h.SetupResetVector(0x8000)
	h.CPU.SetUnknownOpcodePolicy(PanicOnUnknown)
	h.LoadProgram(0x8000, 0x02)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for unknown opcode under PanicOnUnknown policy")
		}
	}()
	h.RunInstruction()
}

func TestTotalCyclesAdvancesOnePerTick(t *testing.T) {
	h := NewCPUTestHelper()
	h.SetupResetVector(0x8000)
	h.LoadProgram(0x8000, 0xEA) // NOP, 2 cycles
	before := h.CPU.TotalCycles()
	h.RunInstruction()
	if got := h.CPU.TotalCycles() - before; got != 2 {
		t.Fatalf("total cycles advanced by %d, want 2", got)
	}
}
