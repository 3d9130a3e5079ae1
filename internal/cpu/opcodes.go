package cpu

// execute decodes and runs one unprefixed opcode, returning the number of
// T-cycles it consumed. PC has already advanced past the opcode byte
// (fetchOpcode, called by Step, does that).
func (c *CPU) execute(op byte) int {
	switch op {
	case 0x00: // NOP
		return 4
	case 0x10: // STOP
		c.fetch8() // STOP is followed by a throwaway byte on real hardware
		return 4

	// LD r,d8
	case 0x06:
		c.B = c.fetch8()
		return 8
	case 0x0E:
		c.C = c.fetch8()
		return 8
	case 0x16:
		c.D = c.fetch8()
		return 8
	case 0x1E:
		c.E = c.fetch8()
		return 8
	case 0x26:
		c.H = c.fetch8()
		return 8
	case 0x2E:
		c.L = c.fetch8()
		return 8
	case 0x3E:
		c.A = c.fetch8()
		return 8

	// LD r,r' / LD (HL),r / LD r,(HL); 0x76 in this block is HALT.
	case 0x40, 0x41, 0x42, 0x43, 0x44, 0x45, 0x46, 0x47,
		0x48, 0x49, 0x4A, 0x4B, 0x4C, 0x4D, 0x4E, 0x4F,
		0x50, 0x51, 0x52, 0x53, 0x54, 0x55, 0x56, 0x57,
		0x58, 0x59, 0x5A, 0x5B, 0x5C, 0x5D, 0x5E, 0x5F,
		0x60, 0x61, 0x62, 0x63, 0x64, 0x65, 0x66, 0x67,
		0x68, 0x69, 0x6A, 0x6B, 0x6C, 0x6D, 0x6E, 0x6F,
		0x70, 0x71, 0x72, 0x73, 0x74, 0x75, 0x77,
		0x78, 0x79, 0x7A, 0x7B, 0x7C, 0x7D, 0x7E, 0x7F:
		d := (op >> 3) & 7
		s := op & 7
		val := c.getReg8(s)
		c.setReg8(d, val)
		if d == 6 || s == 6 {
			return 8
		}
		return 4
	case 0x76: // HALT
		if !c.IME && c.bus.IRQ.HasPending() {
			// HALT bug: the CPU never actually halts; instead the next
			// opcode fetch fails to advance PC, so that byte runs twice.
			c.haltBug = true
		} else {
			c.halted = true
		}
		return 4

	// 16-bit loads
	case 0x01:
		c.setBC(c.fetch16())
		return 12
	case 0x11:
		c.setDE(c.fetch16())
		return 12
	case 0x21:
		c.setHL(c.fetch16())
		return 12
	case 0x31:
		c.SP = c.fetch16()
		return 12
	case 0x08: // LD (a16),SP
		addr := c.fetch16()
		c.write16(addr, c.SP)
		return 20
	case 0xF9: // LD SP,HL
		c.SP = c.getHL()
		return 8

	case 0x36: // LD (HL),d8
		v := c.fetch8()
		c.write8(c.getHL(), v)
		return 12

	case 0x02:
		c.write8(c.getBC(), c.A)
		return 8
	case 0x12:
		c.write8(c.getDE(), c.A)
		return 8
	case 0x0A:
		c.A = c.read8(c.getBC())
		return 8
	case 0x1A:
		c.A = c.read8(c.getDE())
		return 8

	case 0x22: // LD (HL+),A
		hl := c.getHL()
		c.write8(hl, c.A)
		c.setHL(hl + 1)
		return 8
	case 0x2A: // LD A,(HL+)
		hl := c.getHL()
		c.A = c.read8(hl)
		c.setHL(hl + 1)
		return 8
	case 0x32: // LD (HL-),A
		hl := c.getHL()
		c.write8(hl, c.A)
		c.setHL(hl - 1)
		return 8
	case 0x3A: // LD A,(HL-)
		hl := c.getHL()
		c.A = c.read8(hl)
		c.setHL(hl - 1)
		return 8

	case 0xE0: // LDH (a8),A
		n := uint16(c.fetch8())
		c.write8(0xFF00+n, c.A)
		return 12
	case 0xF0: // LDH A,(a8)
		n := uint16(c.fetch8())
		c.A = c.read8(0xFF00 + n)
		return 12
	case 0xE2: // LD (C),A
		c.write8(0xFF00+uint16(c.C), c.A)
		return 8
	case 0xF2: // LD A,(C)
		c.A = c.read8(0xFF00 + uint16(c.C))
		return 8
	case 0xEA: // LD (a16),A
		c.write8(c.fetch16(), c.A)
		return 16
	case 0xFA: // LD A,(a16)
		c.A = c.read8(c.fetch16())
		return 16

	// Rotates/flags on A
	case 0x07: // RLCA
		cv := (c.A >> 7) & 1
		c.A = (c.A << 1) | cv
		c.setZNHC(false, false, false, cv == 1)
		return 4
	case 0x0F: // RRCA
		cv := c.A & 1
		c.A = (c.A >> 1) | (cv << 7)
		c.setZNHC(false, false, false, cv == 1)
		return 4
	case 0x17: // RLA
		cv := (c.A >> 7) & 1
		cin := byte(0)
		if c.F&flagC != 0 {
			cin = 1
		}
		c.A = (c.A << 1) | cin
		c.setZNHC(false, false, false, cv == 1)
		return 4
	case 0x1F: // RRA
		cv := c.A & 1
		cin := byte(0)
		if c.F&flagC != 0 {
			cin = 1
		}
		c.A = (c.A >> 1) | (cin << 7)
		c.setZNHC(false, false, false, cv == 1)
		return 4
	case 0x27: // DAA
		a := c.A
		cf := c.F&flagC != 0
		hf := c.F&flagH != 0
		if c.F&flagN == 0 { // after addition
			if cf || a > 0x99 {
				a += 0x60
				cf = true
			}
			if hf || (a&0x0F) > 0x09 {
				a += 0x06
			}
		} else { // after subtraction
			if cf {
				a -= 0x60
			}
			if hf {
				a -= 0x06
			}
		}
		c.A = a
		c.setZNHC(c.A == 0, c.F&flagN != 0, false, cf)
		return 4
	case 0x2F: // CPL
		c.A = ^c.A
		c.F = (c.F & (flagZ | flagC)) | flagN | flagH
		return 4
	case 0x37: // SCF
		c.F = (c.F & flagZ) | flagC
		return 4
	case 0x3F: // CCF
		newC := c.F&flagC == 0
		c.F = (c.F & flagZ)
		if newC {
			c.F |= flagC
		}
		return 4

	// INC/DEC r8
	case 0x04, 0x0C, 0x14, 0x1C, 0x24, 0x2C, 0x3C:
		r := (op >> 3) & 7
		v := c.getReg8(r)
		res := v + 1
		c.setReg8(r, res)
		c.F = (c.F & flagC)
		if res == 0 {
			c.F |= flagZ
		}
		if v&0x0F == 0x0F {
			c.F |= flagH
		}
		return 4
	case 0x34: // INC (HL)
		addr := c.getHL()
		v := c.read8(addr)
		res := v + 1
		c.write8(addr, res)
		c.F = (c.F & flagC)
		if res == 0 {
			c.F |= flagZ
		}
		if v&0x0F == 0x0F {
			c.F |= flagH
		}
		return 12
	case 0x05, 0x0D, 0x15, 0x1D, 0x25, 0x2D, 0x3D:
		r := (op >> 3) & 7
		v := c.getReg8(r)
		res := v - 1
		c.setReg8(r, res)
		c.F = (c.F & flagC) | flagN
		if res == 0 {
			c.F |= flagZ
		}
		if v&0x0F == 0x00 {
			c.F |= flagH
		}
		return 4
	case 0x35: // DEC (HL)
		addr := c.getHL()
		v := c.read8(addr)
		res := v - 1
		c.write8(addr, res)
		c.F = (c.F & flagC) | flagN
		if res == 0 {
			c.F |= flagZ
		}
		if v&0x0F == 0x00 {
			c.F |= flagH
		}
		return 12

	// 8-bit ALU against a register operand (the low 3 bits select it).
	case 0x80, 0x81, 0x82, 0x83, 0x84, 0x85, 0x87:
		res, z, n, h, cy := c.add8(c.A, c.getReg8(op&7))
		c.A = res
		c.setZNHC(z, n, h, cy)
		return 4
	case 0x86:
		res, z, n, h, cy := c.add8(c.A, c.read8(c.getHL()))
		c.A = res
		c.setZNHC(z, n, h, cy)
		return 8
	case 0xC6:
		res, z, n, h, cy := c.add8(c.A, c.fetch8())
		c.A = res
		c.setZNHC(z, n, h, cy)
		return 8

	case 0x88, 0x89, 0x8A, 0x8B, 0x8C, 0x8D, 0x8F:
		res, z, n, h, cy := c.adc8(c.A, c.getReg8(op&7), c.F&flagC != 0)
		c.A = res
		c.setZNHC(z, n, h, cy)
		return 4
	case 0x8E:
		res, z, n, h, cy := c.adc8(c.A, c.read8(c.getHL()), c.F&flagC != 0)
		c.A = res
		c.setZNHC(z, n, h, cy)
		return 8
	case 0xCE:
		res, z, n, h, cy := c.adc8(c.A, c.fetch8(), c.F&flagC != 0)
		c.A = res
		c.setZNHC(z, n, h, cy)
		return 8

	case 0x90, 0x91, 0x92, 0x93, 0x94, 0x95, 0x97:
		res, z, n, h, cy := c.sub8(c.A, c.getReg8(op&7))
		c.A = res
		c.setZNHC(z, n, h, cy)
		return 4
	case 0x96:
		res, z, n, h, cy := c.sub8(c.A, c.read8(c.getHL()))
		c.A = res
		c.setZNHC(z, n, h, cy)
		return 8
	case 0xD6:
		res, z, n, h, cy := c.sub8(c.A, c.fetch8())
		c.A = res
		c.setZNHC(z, n, h, cy)
		return 8

	case 0x98, 0x99, 0x9A, 0x9B, 0x9C, 0x9D, 0x9F:
		res, z, n, h, cy := c.sbc8(c.A, c.getReg8(op&7), c.F&flagC != 0)
		c.A = res
		c.setZNHC(z, n, h, cy)
		return 4
	case 0x9E:
		res, z, n, h, cy := c.sbc8(c.A, c.read8(c.getHL()), c.F&flagC != 0)
		c.A = res
		c.setZNHC(z, n, h, cy)
		return 8
	case 0xDE:
		res, z, n, h, cy := c.sbc8(c.A, c.fetch8(), c.F&flagC != 0)
		c.A = res
		c.setZNHC(z, n, h, cy)
		return 8

	case 0xA0, 0xA1, 0xA2, 0xA3, 0xA4, 0xA5, 0xA7:
		res, z, n, h, cy := c.and8(c.A, c.getReg8(op&7))
		c.A = res
		c.setZNHC(z, n, h, cy)
		return 4
	case 0xA6:
		res, z, n, h, cy := c.and8(c.A, c.read8(c.getHL()))
		c.A = res
		c.setZNHC(z, n, h, cy)
		return 8
	case 0xE6:
		res, z, n, h, cy := c.and8(c.A, c.fetch8())
		c.A = res
		c.setZNHC(z, n, h, cy)
		return 8

	case 0xA8, 0xA9, 0xAA, 0xAB, 0xAC, 0xAD, 0xAF:
		res, z, n, h, cy := c.xor8(c.A, c.getReg8(op&7))
		c.A = res
		c.setZNHC(z, n, h, cy)
		return 4
	case 0xAE:
		res, z, n, h, cy := c.xor8(c.A, c.read8(c.getHL()))
		c.A = res
		c.setZNHC(z, n, h, cy)
		return 8
	case 0xEE:
		res, z, n, h, cy := c.xor8(c.A, c.fetch8())
		c.A = res
		c.setZNHC(z, n, h, cy)
		return 8

	case 0xB0, 0xB1, 0xB2, 0xB3, 0xB4, 0xB5, 0xB7:
		res, z, n, h, cy := c.or8(c.A, c.getReg8(op&7))
		c.A = res
		c.setZNHC(z, n, h, cy)
		return 4
	case 0xB6:
		res, z, n, h, cy := c.or8(c.A, c.read8(c.getHL()))
		c.A = res
		c.setZNHC(z, n, h, cy)
		return 8
	case 0xF6:
		res, z, n, h, cy := c.or8(c.A, c.fetch8())
		c.A = res
		c.setZNHC(z, n, h, cy)
		return 8

	case 0xB8, 0xB9, 0xBA, 0xBB, 0xBC, 0xBD, 0xBF:
		z, n, h, cy := c.cp8(c.A, c.getReg8(op&7))
		c.setZNHC(z, n, h, cy)
		return 4
	case 0xBE:
		z, n, h, cy := c.cp8(c.A, c.read8(c.getHL()))
		c.setZNHC(z, n, h, cy)
		return 8
	case 0xFE:
		z, n, h, cy := c.cp8(c.A, c.fetch8())
		c.setZNHC(z, n, h, cy)
		return 8

	// Jumps / calls / returns
	case 0xC3: // JP a16
		c.PC = c.fetch16()
		return 16
	case 0xE9: // JP (HL)
		c.PC = c.getHL()
		return 4
	case 0x18: // JR e8
		off := int8(c.fetch8())
		c.PC = uint16(int32(c.PC) + int32(off))
		return 12
	case 0x20: // JR NZ
		off := int8(c.fetch8())
		if c.F&flagZ == 0 {
			c.PC = uint16(int32(c.PC) + int32(off))
			return 12
		}
		return 8
	case 0x28: // JR Z
		off := int8(c.fetch8())
		if c.F&flagZ != 0 {
			c.PC = uint16(int32(c.PC) + int32(off))
			return 12
		}
		return 8
	case 0x30: // JR NC
		off := int8(c.fetch8())
		if c.F&flagC == 0 {
			c.PC = uint16(int32(c.PC) + int32(off))
			return 12
		}
		return 8
	case 0x38: // JR C
		off := int8(c.fetch8())
		if c.F&flagC != 0 {
			c.PC = uint16(int32(c.PC) + int32(off))
			return 12
		}
		return 8
	case 0xC2: // JP NZ,a16
		addr := c.fetch16()
		if c.F&flagZ == 0 {
			c.PC = addr
			return 16
		}
		return 12
	case 0xCA: // JP Z,a16
		addr := c.fetch16()
		if c.F&flagZ != 0 {
			c.PC = addr
			return 16
		}
		return 12
	case 0xD2: // JP NC,a16
		addr := c.fetch16()
		if c.F&flagC == 0 {
			c.PC = addr
			return 16
		}
		return 12
	case 0xDA: // JP C,a16
		addr := c.fetch16()
		if c.F&flagC != 0 {
			c.PC = addr
			return 16
		}
		return 12

	case 0xCD: // CALL a16
		addr := c.fetch16()
		c.push16(c.PC)
		c.PC = addr
		return 24
	case 0xC4: // CALL NZ,a16
		addr := c.fetch16()
		if c.F&flagZ == 0 {
			c.push16(c.PC)
			c.PC = addr
			return 24
		}
		return 12
	case 0xCC: // CALL Z,a16
		addr := c.fetch16()
		if c.F&flagZ != 0 {
			c.push16(c.PC)
			c.PC = addr
			return 24
		}
		return 12
	case 0xD4: // CALL NC,a16
		addr := c.fetch16()
		if c.F&flagC == 0 {
			c.push16(c.PC)
			c.PC = addr
			return 24
		}
		return 12
	case 0xDC: // CALL C,a16
		addr := c.fetch16()
		if c.F&flagC != 0 {
			c.push16(c.PC)
			c.PC = addr
			return 24
		}
		return 12

	case 0xC9: // RET
		c.PC = c.pop16()
		return 16
	case 0xD9: // RETI
		c.PC = c.pop16()
		c.IME = true
		c.eiDelay = 0
		return 16
	case 0xC0: // RET NZ
		if c.F&flagZ == 0 {
			c.PC = c.pop16()
			return 20
		}
		return 8
	case 0xC8: // RET Z
		if c.F&flagZ != 0 {
			c.PC = c.pop16()
			return 20
		}
		return 8
	case 0xD0: // RET NC
		if c.F&flagC == 0 {
			c.PC = c.pop16()
			return 20
		}
		return 8
	case 0xD8: // RET C
		if c.F&flagC != 0 {
			c.PC = c.pop16()
			return 20
		}
		return 8

	case 0xC7, 0xCF, 0xD7, 0xDF, 0xE7, 0xEF, 0xF7, 0xFF: // RST
		c.push16(c.PC)
		c.PC = uint16(op & 0x38)
		return 16

	// 16-bit INC/DEC
	case 0x03:
		c.setBC(c.getBC() + 1)
		return 8
	case 0x13:
		c.setDE(c.getDE() + 1)
		return 8
	case 0x23:
		c.setHL(c.getHL() + 1)
		return 8
	case 0x33:
		c.SP++
		return 8
	case 0x0B:
		c.setBC(c.getBC() - 1)
		return 8
	case 0x1B:
		c.setDE(c.getDE() - 1)
		return 8
	case 0x2B:
		c.setHL(c.getHL() - 1)
		return 8
	case 0x3B:
		c.SP--
		return 8

	// 16-bit ADD HL,rr
	case 0x09, 0x19, 0x29, 0x39:
		hl := c.getHL()
		var rr uint16
		switch op {
		case 0x09:
			rr = c.getBC()
		case 0x19:
			rr = c.getDE()
		case 0x29:
			rr = c.getHL()
		case 0x39:
			rr = c.SP
		}
		res := uint32(hl) + uint32(rr)
		h := (hl&0x0FFF)+(rr&0x0FFF) > 0x0FFF
		c.setHL(uint16(res))
		c.setZNHC(c.F&flagZ != 0, false, h, res > 0xFFFF)
		return 8

	case 0xF8: // LD HL,SP+e8
		off := int8(c.fetch8())
		low := byte(c.SP & 0xFF)
		_, _, _, h, cy := c.add8(low, byte(off))
		res := uint16(int32(int16(c.SP)) + int32(off))
		c.setHL(res)
		c.setZNHC(false, false, h, cy)
		return 12
	case 0xE8: // ADD SP,e8
		off := int8(c.fetch8())
		low := byte(c.SP & 0xFF)
		_, _, _, h, cy := c.add8(low, byte(off))
		c.SP = uint16(int32(int16(c.SP)) + int32(off))
		c.setZNHC(false, false, h, cy)
		return 16

	case 0xF3: // DI
		c.IME = false
		c.eiDelay = 0
		return 4
	case 0xFB: // EI; IME becomes true after the instruction following this one
		c.eiDelay = 2
		return 4

	case 0xCB:
		return c.executeCB(c.fetch8())

	case 0xF5:
		c.push16(c.getAF())
		return 16
	case 0xC5:
		c.push16(c.getBC())
		return 16
	case 0xD5:
		c.push16(c.getDE())
		return 16
	case 0xE5:
		c.push16(c.getHL())
		return 16
	case 0xF1:
		c.setAF(c.pop16())
		return 12
	case 0xC1:
		c.setBC(c.pop16())
		return 12
	case 0xD1:
		c.setDE(c.pop16())
		return 12
	case 0xE1:
		c.setHL(c.pop16())
		return 12

	// $D3,$DB,$DD,$E3,$E4,$EB,$EC,$ED,$F4,$FC,$FD do not exist on the DMG;
	// a ROM that jumps into one has hit undefined hardware behavior, which
	// the motherboard surfaces as UnsupportedFeature rather than a crash.
	default:
		panic(IllegalOpcode(op))
	}
}

// getReg8 / setReg8 map the SM83's 3-bit register field (0..7) to
// B,C,D,E,H,L,(HL),A, per the unprefixed and CB opcode encodings.
func (c *CPU) getReg8(idx byte) byte {
	switch idx {
	case 0:
		return c.B
	case 1:
		return c.C
	case 2:
		return c.D
	case 3:
		return c.E
	case 4:
		return c.H
	case 5:
		return c.L
	case 6:
		return c.read8(c.getHL())
	default:
		return c.A
	}
}

func (c *CPU) setReg8(idx byte, v byte) {
	switch idx {
	case 0:
		c.B = v
	case 1:
		c.C = v
	case 2:
		c.D = v
	case 3:
		c.E = v
	case 4:
		c.H = v
	case 5:
		c.L = v
	case 6:
		c.write8(c.getHL(), v)
	default:
		c.A = v
	}
}
