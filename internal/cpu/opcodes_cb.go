package cpu

// executeCB decodes and runs one CB-prefixed opcode. The encoding is
// regular across all 256 values: bits 7-6 select the operation group,
// bits 5-3 select a bit index (for BIT/RES/SET) or a sub-op (for group 0),
// and bits 2-0 select the operand register via getReg8/setReg8 (6 = (HL)).
func (c *CPU) executeCB(cb byte) int {
	reg := cb & 7
	group := (cb >> 6) & 3
	y := (cb >> 3) & 7

	cycles := 8
	if reg == 6 {
		cycles = 16
	}

	switch group {
	case 0: // rotate/shift/swap
		v := c.getReg8(reg)
		var cy byte
		switch y {
		case 0: // RLC
			cy = (v >> 7) & 1
			v = (v << 1) | cy
		case 1: // RRC
			cy = v & 1
			v = (v >> 1) | (cy << 7)
		case 2: // RL
			cy = (v >> 7) & 1
			cin := byte(0)
			if c.F&flagC != 0 {
				cin = 1
			}
			v = (v << 1) | cin
		case 3: // RR
			cy = v & 1
			cin := byte(0)
			if c.F&flagC != 0 {
				cin = 1
			}
			v = (v >> 1) | (cin << 7)
		case 4: // SLA
			cy = (v >> 7) & 1
			v <<= 1
		case 5: // SRA
			cy = v & 1
			v = (v >> 1) | (v & 0x80)
		case 6: // SWAP
			v = (v << 4) | (v >> 4)
			cy = 0
		case 7: // SRL
			cy = v & 1
			v >>= 1
		}
		c.setReg8(reg, v)
		if y == 6 { // SWAP clears carry unconditionally
			c.setZNHC(v == 0, false, false, false)
		} else {
			c.setZNHC(v == 0, false, false, cy == 1)
		}
		return cycles

	case 1: // BIT y,r — Z from the tested bit, H always set, C untouched
		v := c.getReg8(reg)
		bit := (v >> y) & 1
		c.F = (c.F & flagC) | flagH
		if bit == 0 {
			c.F |= flagZ
		}
		if reg == 6 {
			return 12
		}
		return 8

	case 2: // RES y,r
		v := c.getReg8(reg)
		c.setReg8(reg, v&^(1<<y))
		return cycles

	default: // 3: SET y,r
		v := c.getReg8(reg)
		c.setReg8(reg, v|(1<<y))
		return cycles
	}
}
