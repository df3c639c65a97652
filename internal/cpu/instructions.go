package cpu

import "nescore/internal/status"

// execute dispatches opcode to its handler and returns any extra cycles
// beyond the opcode table's base cost (branch-taken bonuses; read/write
// page-cross penalties are applied by the caller via pageCrossCharged).
func (c *CPU) execute(opcode uint8, mode AddressingMode, op operand) uint8 {
	switch opcode {
	// Load
	case 0xA9, 0xA5, 0xB5, 0xAD, 0xBD, 0xB9, 0xA1, 0xB1:
		return c.lda(mustAddress(mode, op))
	case 0xA2, 0xA6, 0xB6, 0xAE, 0xBE:
		return c.ldx(mustAddress(mode, op))
	case 0xA0, 0xA4, 0xB4, 0xAC, 0xBC:
		return c.ldy(mustAddress(mode, op))
	case 0x85, 0x95, 0x8D, 0x9D, 0x99, 0x81, 0x91:
		return c.sta(mustAddress(mode, op))
	case 0x86, 0x96, 0x8E:
		return c.stx(mustAddress(mode, op))
	case 0x84, 0x94, 0x8C:
		return c.sty(mustAddress(mode, op))

	// Arithmetic
	case 0x69, 0x65, 0x75, 0x6D, 0x7D, 0x79, 0x61, 0x71:
		return c.adc(mustAddress(mode, op))
	case 0xE9, 0xEB, 0xE5, 0xF5, 0xED, 0xFD, 0xF9, 0xE1, 0xF1:
		return c.sbc(mustAddress(mode, op))

	// Logical
	case 0x29, 0x25, 0x35, 0x2D, 0x3D, 0x39, 0x21, 0x31:
		return c.and(mustAddress(mode, op))
	case 0x09, 0x05, 0x15, 0x0D, 0x1D, 0x19, 0x01, 0x11:
		return c.ora(mustAddress(mode, op))
	case 0x49, 0x45, 0x55, 0x4D, 0x5D, 0x59, 0x41, 0x51:
		return c.eor(mustAddress(mode, op))

	// Shift/rotate
	case 0x0A:
		c.aslAccumulator()
		return 0
	case 0x06, 0x16, 0x0E, 0x1E:
		return c.asl(mustAddress(mode, op))
	case 0x4A:
		c.lsrAccumulator()
		return 0
	case 0x46, 0x56, 0x4E, 0x5E:
		return c.lsr(mustAddress(mode, op))
	case 0x2A:
		c.rolAccumulator()
		return 0
	case 0x26, 0x36, 0x2E, 0x3E:
		return c.rol(mustAddress(mode, op))
	case 0x6A:
		c.rorAccumulator()
		return 0
	case 0x66, 0x76, 0x6E, 0x7E:
		return c.ror(mustAddress(mode, op))

	// Compare
	case 0xC9, 0xC5, 0xD5, 0xCD, 0xDD, 0xD9, 0xC1, 0xD1:
		return c.cmp(mustAddress(mode, op))
	case 0xE0, 0xE4, 0xEC:
		return c.cpx(mustAddress(mode, op))
	case 0xC0, 0xC4, 0xCC:
		return c.cpy(mustAddress(mode, op))

	// Increment/decrement
	case 0xE6, 0xF6, 0xEE, 0xFE:
		return c.inc(mustAddress(mode, op))
	case 0xC6, 0xD6, 0xCE, 0xDE:
		return c.dec(mustAddress(mode, op))
	case 0xE8:
		c.X++
		c.setZN(c.X)
		return 0
	case 0xCA:
		c.X--
		c.setZN(c.X)
		return 0
	case 0xC8:
		c.Y++
		c.setZN(c.Y)
		return 0
	case 0x88:
		c.Y--
		c.setZN(c.Y)
		return 0

	// Transfer
	case 0xAA:
		c.X = c.A
		c.setZN(c.X)
		return 0
	case 0x8A:
		c.A = c.X
		c.setZN(c.A)
		return 0
	case 0xA8:
		c.Y = c.A
		c.setZN(c.Y)
		return 0
	case 0x98:
		c.A = c.Y
		c.setZN(c.A)
		return 0
	case 0xBA:
		c.X = c.SP
		c.setZN(c.X)
		return 0
	case 0x9A:
		c.SP = c.X
		return 0

	// Stack
	case 0x48:
		c.push(c.A)
		return 0
	case 0x68:
		c.A = c.pop()
		c.setZN(c.A)
		return 0
	case 0x08:
		c.push(c.P.WithBreakAndUnused(true).Byte())
		return 0
	case 0x28:
		c.P = status.FromByte(c.pop()).Set(status.FlagU, true)
		return 0

	// Flags
	case 0x18:
		c.P = c.P.Set(status.FlagC, false)
		return 0
	case 0x38:
		c.P = c.P.Set(status.FlagC, true)
		return 0
	case 0x58:
		c.P = c.P.Set(status.FlagI, false)
		return 0
	case 0x78:
		c.P = c.P.Set(status.FlagI, true)
		return 0
	case 0xB8:
		c.P = c.P.Set(status.FlagV, false)
		return 0
	case 0xD8:
		c.P = c.P.Set(status.FlagD, false)
		return 0
	case 0xF8:
		c.P = c.P.Set(status.FlagD, true)
		return 0

	// Control flow
	case 0x4C, 0x6C:
		c.PC = mustAddress(mode, op)
		return 0
	case 0x20:
		c.pushWord(c.PC - 1)
		c.PC = mustAddress(mode, op)
		return 0
	case 0x60:
		c.PC = c.popWord() + 1
		return 0
	case 0x40:
		c.P = status.FromByte(c.pop()).Set(status.FlagU, true)
		c.PC = c.popWord()
		return 0

	// Branches
	case 0x90:
		return c.branch(!c.P.Get(status.FlagC), op)
	case 0xB0:
		return c.branch(c.P.Get(status.FlagC), op)
	case 0xD0:
		return c.branch(!c.P.Get(status.FlagZ), op)
	case 0xF0:
		return c.branch(c.P.Get(status.FlagZ), op)
	case 0x10:
		return c.branch(!c.P.Get(status.FlagN), op)
	case 0x30:
		return c.branch(c.P.Get(status.FlagN), op)
	case 0x50:
		return c.branch(!c.P.Get(status.FlagV), op)
	case 0x70:
		return c.branch(c.P.Get(status.FlagV), op)

	// Misc
	case 0x24, 0x2C:
		return c.bit(mustAddress(mode, op))
	case 0x00:
		c.brk()
		return 0

	// Unofficial NOPs (dummy read, no register effect)
	case 0xEA, 0x1A, 0x3A, 0x5A, 0x7A, 0xDA, 0xFA:
		return 0
	case 0x80, 0x82, 0x89, 0xC2, 0xE2,
		0x04, 0x44, 0x64, 0x14, 0x34, 0x54, 0x74, 0xD4, 0xF4,
		0x0C, 0x1C, 0x3C, 0x5C, 0x7C, 0xDC, 0xFC:
		c.bus.Read(mustAddress(mode, op))
		return 0

	// Undocumented
	case 0xA3, 0xA7, 0xAF, 0xB3, 0xB7, 0xBF:
		return c.lax(mustAddress(mode, op))
	case 0x83, 0x87, 0x8F, 0x97:
		return c.sax(mustAddress(mode, op))
	case 0xC3, 0xC7, 0xCF, 0xD3, 0xD7, 0xDF, 0xDB:
		return c.dcp(mustAddress(mode, op))
	case 0xE3, 0xE7, 0xEF, 0xF3, 0xF7, 0xFF, 0xFB:
		return c.isb(mustAddress(mode, op))
	case 0x03, 0x07, 0x0F, 0x13, 0x17, 0x1F, 0x1B:
		return c.slo(mustAddress(mode, op))
	case 0x23, 0x27, 0x2F, 0x33, 0x37, 0x3F, 0x3B:
		return c.rla(mustAddress(mode, op))
	case 0x43, 0x47, 0x4F, 0x53, 0x57, 0x5F, 0x5B:
		return c.sre(mustAddress(mode, op))
	case 0x63, 0x67, 0x6F, 0x73, 0x77, 0x7F, 0x7B:
		return c.rra(mustAddress(mode, op))

	default:
		return 0
	}
}

func (c *CPU) lda(addr uint16) uint8 {
	c.A = c.bus.Read(addr)
	c.setZN(c.A)
	return 0
}

func (c *CPU) ldx(addr uint16) uint8 {
	c.X = c.bus.Read(addr)
	c.setZN(c.X)
	return 0
}

func (c *CPU) ldy(addr uint16) uint8 {
	c.Y = c.bus.Read(addr)
	c.setZN(c.Y)
	return 0
}

func (c *CPU) sta(addr uint16) uint8 {
	c.bus.Write(addr, c.A)
	return 0
}

func (c *CPU) stx(addr uint16) uint8 {
	c.bus.Write(addr, c.X)
	return 0
}

func (c *CPU) sty(addr uint16) uint8 {
	c.bus.Write(addr, c.Y)
	return 0
}

// addWithCarry implements ADC's addition, shared with SBC (which feeds in
// the bitwise-negated operand) and with the RMW-then-arithmetic undocumented
// opcodes (ISB, RRA).
func (c *CPU) addWithCarry(operand uint8) {
	carry := uint8(0)
	if c.P.Get(status.FlagC) {
		carry = 1
	}
	sum := uint16(c.A) + uint16(operand) + uint16(carry)
	result := uint8(sum)

	overflow := (c.A^result)&(operand^result)&0x80 != 0
	c.P = c.P.Set(status.FlagV, overflow)
	c.P = c.P.Set(status.FlagC, sum > 0xFF)
	c.A = result
	c.setZN(c.A)
}

func (c *CPU) adc(addr uint16) uint8 {
	c.addWithCarry(c.bus.Read(addr))
	return 0
}

func (c *CPU) sbc(addr uint16) uint8 {
	c.addWithCarry(c.bus.Read(addr) ^ 0xFF)
	return 0
}

func (c *CPU) and(addr uint16) uint8 {
	c.A &= c.bus.Read(addr)
	c.setZN(c.A)
	return 0
}

func (c *CPU) ora(addr uint16) uint8 {
	c.A |= c.bus.Read(addr)
	c.setZN(c.A)
	return 0
}

func (c *CPU) eor(addr uint16) uint8 {
	c.A ^= c.bus.Read(addr)
	c.setZN(c.A)
	return 0
}

func (c *CPU) aslAccumulator() {
	c.P = c.P.Set(status.FlagC, c.A&0x80 != 0)
	c.A <<= 1
	c.setZN(c.A)
}

func (c *CPU) asl(addr uint16) uint8 {
	v := c.bus.Read(addr)
	c.P = c.P.Set(status.FlagC, v&0x80 != 0)
	v <<= 1
	c.bus.Write(addr, v)
	c.setZN(v)
	return 0
}

func (c *CPU) lsrAccumulator() {
	c.P = c.P.Set(status.FlagC, c.A&0x01 != 0)
	c.A >>= 1
	c.setZN(c.A)
}

func (c *CPU) lsr(addr uint16) uint8 {
	v := c.bus.Read(addr)
	c.P = c.P.Set(status.FlagC, v&0x01 != 0)
	v >>= 1
	c.bus.Write(addr, v)
	c.setZN(v)
	return 0
}

func (c *CPU) rolAccumulator() {
	oldCarry := c.P.Get(status.FlagC)
	c.P = c.P.Set(status.FlagC, c.A&0x80 != 0)
	c.A <<= 1
	if oldCarry {
		c.A |= 0x01
	}
	c.setZN(c.A)
}

func (c *CPU) rol(addr uint16) uint8 {
	v := c.bus.Read(addr)
	oldCarry := c.P.Get(status.FlagC)
	c.P = c.P.Set(status.FlagC, v&0x80 != 0)
	v <<= 1
	if oldCarry {
		v |= 0x01
	}
	c.bus.Write(addr, v)
	c.setZN(v)
	return 0
}

func (c *CPU) rorAccumulator() {
	oldCarry := c.P.Get(status.FlagC)
	c.P = c.P.Set(status.FlagC, c.A&0x01 != 0)
	c.A >>= 1
	if oldCarry {
		c.A |= 0x80
	}
	c.setZN(c.A)
}

func (c *CPU) ror(addr uint16) uint8 {
	v := c.bus.Read(addr)
	oldCarry := c.P.Get(status.FlagC)
	c.P = c.P.Set(status.FlagC, v&0x01 != 0)
	v >>= 1
	if oldCarry {
		v |= 0x80
	}
	c.bus.Write(addr, v)
	c.setZN(v)
	return 0
}

func (c *CPU) compare(register, operand uint8) {
	result := register - operand
	c.P = c.P.Set(status.FlagC, register >= operand)
	c.setZN(result)
}

func (c *CPU) cmp(addr uint16) uint8 {
	c.compare(c.A, c.bus.Read(addr))
	return 0
}

func (c *CPU) cpx(addr uint16) uint8 {
	c.compare(c.X, c.bus.Read(addr))
	return 0
}

func (c *CPU) cpy(addr uint16) uint8 {
	c.compare(c.Y, c.bus.Read(addr))
	return 0
}

func (c *CPU) inc(addr uint16) uint8 {
	v := c.bus.Read(addr) + 1
	c.bus.Write(addr, v)
	c.setZN(v)
	return 0
}

func (c *CPU) dec(addr uint16) uint8 {
	v := c.bus.Read(addr) - 1
	c.bus.Write(addr, v)
	c.setZN(v)
	return 0
}

func (c *CPU) bit(addr uint16) uint8 {
	v := c.bus.Read(addr)
	c.P = c.P.Set(status.FlagN, v&0x80 != 0)
	c.P = c.P.Set(status.FlagV, v&0x40 != 0)
	c.P = c.P.Set(status.FlagZ, c.A&v == 0)
	return 0
}

// branch applies the relative jump when taken, pricing 1 cycle for the
// taken branch and a 2nd if the target lands on a different page.
func (c *CPU) branch(taken bool, op operand) uint8 {
	if !taken {
		return 0
	}
	c.PC = op.address
	if op.pageCrossed {
		return 2
	}
	return 1
}

// brk is BRK's handler: Implied mode has already consumed the opcode byte;
// BRK additionally skips a padding byte before pushing the return address.
func (c *CPU) brk() {
	c.PC++
	c.pushWord(c.PC)
	c.push(c.P.WithBreakAndUnused(true).Byte())
	c.P = c.P.Set(status.FlagI, true)
	lo := uint16(c.bus.Read(irqVector))
	hi := uint16(c.bus.Read(irqVector + 1))
	c.PC = hi<<8 | lo
}

// --- Undocumented opcodes ---

func (c *CPU) lax(addr uint16) uint8 {
	c.A = c.bus.Read(addr)
	c.X = c.A
	c.setZN(c.A)
	return 0
}

func (c *CPU) sax(addr uint16) uint8 {
	c.bus.Write(addr, c.A&c.X)
	return 0
}

func (c *CPU) dcp(addr uint16) uint8 {
	v := c.bus.Read(addr) - 1
	c.bus.Write(addr, v)
	c.compare(c.A, v)
	return 0
}

func (c *CPU) isb(addr uint16) uint8 {
	v := c.bus.Read(addr) + 1
	c.bus.Write(addr, v)
	c.addWithCarry(v ^ 0xFF)
	return 0
}

func (c *CPU) slo(addr uint16) uint8 {
	v := c.bus.Read(addr)
	c.P = c.P.Set(status.FlagC, v&0x80 != 0)
	v <<= 1
	c.bus.Write(addr, v)
	c.A |= v
	c.setZN(c.A)
	return 0
}

func (c *CPU) rla(addr uint16) uint8 {
	v := c.bus.Read(addr)
	oldCarry := c.P.Get(status.FlagC)
	c.P = c.P.Set(status.FlagC, v&0x80 != 0)
	v <<= 1
	if oldCarry {
		v |= 0x01
	}
	c.bus.Write(addr, v)
	c.A &= v
	c.setZN(c.A)
	return 0
}

func (c *CPU) sre(addr uint16) uint8 {
	v := c.bus.Read(addr)
	c.P = c.P.Set(status.FlagC, v&0x01 != 0)
	v >>= 1
	c.bus.Write(addr, v)
	c.A ^= v
	c.setZN(c.A)
	return 0
}

func (c *CPU) rra(addr uint16) uint8 {
	v := c.bus.Read(addr)
	oldCarry := c.P.Get(status.FlagC)
	c.P = c.P.Set(status.FlagC, v&0x01 != 0)
	v >>= 1
	if oldCarry {
		v |= 0x80
	}
	c.bus.Write(addr, v)
	c.addWithCarry(v)
	return 0
}
