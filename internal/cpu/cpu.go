// Package cpu implements the Sharp SM83 core: registers, flags, the full
// opcode and CB-prefixed tables, and interrupt/HALT dispatch against the
// shared interrupt controller.
package cpu

import (
	"github.com/cerrion/gobound/internal/bus"
	"github.com/cerrion/gobound/internal/interrupt"
)

// CPU holds the SM83 register file and executes one instruction per Step.
type CPU struct {
	A, F byte
	B, C byte
	D, E byte
	H, L byte

	SP uint16
	PC uint16

	IME      bool
	halted   bool
	eiDelay  int // counts down to 0, at which point IME becomes true (EI's one-instruction delay)
	haltBug  bool // next opcode fetch should not advance PC (HALT bug)

	bus *bus.Bus
}

// New creates a CPU wired to bus b, with PC at 0 (boot ROM entry point).
func New(b *bus.Bus) *CPU {
	return &CPU{bus: b, SP: 0xFFFE, PC: 0x0000}
}

// SetPC allows a boot stub or test to set the program counter directly.
func (c *CPU) SetPC(pc uint16) { c.PC = pc }

// Bus exposes the underlying bus for tests and tools.
func (c *CPU) Bus() *bus.Bus { return c.bus }

// ResetNoBoot sets registers to the documented DMG post-boot-ROM state, for
// running without an actual boot ROM image.
func (c *CPU) ResetNoBoot() {
	c.A, c.F = 0x01, 0xB0
	c.B, c.C = 0x00, 0x13
	c.D, c.E = 0x00, 0xD8
	c.H, c.L = 0x01, 0x4D
	c.SP = 0xFFFE
	c.PC = 0x0100
	c.IME = false
	c.halted = false
	c.eiDelay = 0
	c.haltBug = false
}

const (
	flagZ byte = 1 << 7
	flagN byte = 1 << 6
	flagH byte = 1 << 5
	flagC byte = 1 << 4
)

func (c *CPU) setZNHC(z, n, h, carry bool) {
	var f byte
	if z {
		f |= flagZ
	}
	if n {
		f |= flagN
	}
	if h {
		f |= flagH
	}
	if carry {
		f |= flagC
	}
	c.F = f
}

func (c *CPU) add8(a, b byte) (res byte, z, n, h, cy bool) {
	r := uint16(a) + uint16(b)
	res = byte(r)
	z = res == 0
	n = false
	h = ((a & 0x0F) + (b & 0x0F)) > 0x0F
	cy = r > 0xFF
	return
}

func (c *CPU) adc8(a, b byte, carryIn bool) (res byte, z, n, h, cy bool) {
	ci := byte(0)
	if carryIn {
		ci = 1
	}
	r := uint16(a) + uint16(b) + uint16(ci)
	res = byte(r)
	z = res == 0
	n = false
	h = ((a & 0x0F) + (b & 0x0F) + ci) > 0x0F
	cy = r > 0xFF
	return
}

func (c *CPU) sub8(a, b byte) (res byte, z, n, h, cy bool) {
	r := int16(a) - int16(b)
	res = byte(r)
	z = res == 0
	n = true
	h = (a & 0x0F) < (b & 0x0F)
	cy = int16(a) < int16(b)
	return
}

func (c *CPU) sbc8(a, b byte, carryIn bool) (res byte, z, n, h, cy bool) {
	ci := byte(0)
	if carryIn {
		ci = 1
	}
	r := int16(a) - int16(b) - int16(ci)
	res = byte(r)
	z = res == 0
	n = true
	h = (a & 0x0F) < ((b & 0x0F) + ci)
	cy = int16(a) < int16(b)+int16(ci)
	return
}

func (c *CPU) and8(a, b byte) (res byte, z, n, h, cy bool) {
	res = a & b
	z = res == 0
	n = false
	h = true
	cy = false
	return
}

func (c *CPU) xor8(a, b byte) (res byte, z, n, h, cy bool) {
	res = a ^ b
	z = res == 0
	n = false
	h = false
	cy = false
	return
}

func (c *CPU) or8(a, b byte) (res byte, z, n, h, cy bool) {
	res = a | b
	z = res == 0
	n = false
	h = false
	cy = false
	return
}

func (c *CPU) cp8(a, b byte) (z, n, h, cy bool) {
	_, z, n, h, cy = c.sub8(a, b)
	return
}

func (c *CPU) read8(addr uint16) byte     { return c.bus.Read(addr) }
func (c *CPU) write8(addr uint16, v byte) { c.bus.Write(addr, v) }

func (c *CPU) fetch8() byte {
	b := c.read8(c.PC)
	c.PC++
	return b
}

// fetchOpcode is used only for the leading opcode byte of each instruction,
// so the HALT bug's "PC fails to advance" quirk can suppress exactly one
// increment without touching operand fetches.
func (c *CPU) fetchOpcode() byte {
	op := c.read8(c.PC)
	if c.haltBug {
		c.haltBug = false
	} else {
		c.PC++
	}
	return op
}

func (c *CPU) fetch16() uint16 {
	lo := uint16(c.fetch8())
	hi := uint16(c.fetch8())
	return lo | (hi << 8)
}

func (c *CPU) read16(addr uint16) uint16 {
	lo := uint16(c.read8(addr))
	hi := uint16(c.read8(addr + 1))
	return lo | (hi << 8)
}

func (c *CPU) write16(addr uint16, v uint16) {
	c.write8(addr, byte(v&0x00FF))
	c.write8(addr+1, byte(v>>8))
}

func (c *CPU) getAF() uint16  { return uint16(c.A)<<8 | uint16(c.F&0xF0) }
func (c *CPU) setAF(v uint16) { c.A = byte(v >> 8); c.F = byte(v) & 0xF0 }
func (c *CPU) getBC() uint16  { return uint16(c.B)<<8 | uint16(c.C) }
func (c *CPU) setBC(v uint16) { c.B = byte(v >> 8); c.C = byte(v) }
func (c *CPU) getDE() uint16  { return uint16(c.D)<<8 | uint16(c.E) }
func (c *CPU) setDE(v uint16) { c.D = byte(v >> 8); c.E = byte(v) }
func (c *CPU) getHL() uint16  { return uint16(c.H)<<8 | uint16(c.L) }
func (c *CPU) setHL(v uint16) { c.H = byte(v >> 8); c.L = byte(v) }

func (c *CPU) push16(v uint16) {
	c.SP -= 2
	c.write16(c.SP, v)
}

func (c *CPU) pop16() uint16 {
	v := c.read16(c.SP)
	c.SP += 2
	return v
}

// serviceInterrupt dispatches the highest-priority pending, enabled
// interrupt: pushes PC, jumps to its fixed vector, clears IME, and acks the
// IF bit only now (spec: the pending bit clears at dispatch, not request).
func (c *CPU) serviceInterrupt() int {
	src, ok := c.bus.IRQ.Highest()
	if !ok {
		return 0
	}
	c.halted = false
	c.IME = false
	c.push16(c.PC)
	c.bus.IRQ.Ack(src)
	c.PC = interrupt.Vector(src)
	return 20
}

// Step executes one instruction (or one cycle of HALT, or one interrupt
// dispatch) and ticks the bus for however many T-cycles it consumed.
func (c *CPU) Step() (cycles int) {
	defer func() {
		if cycles > 0 {
			c.bus.TickN(cycles)
		}
		if c.eiDelay > 0 {
			c.eiDelay--
			if c.eiDelay == 0 {
				c.IME = true
			}
		}
	}()

	if c.halted {
		if c.IME {
			if cyc := c.serviceInterrupt(); cyc != 0 {
				return cyc
			}
			return 4
		}
		if c.bus.IRQ.HasPending() {
			c.halted = false
		} else {
			return 4
		}
	}

	if c.IME {
		if cyc := c.serviceInterrupt(); cyc != 0 {
			return cyc
		}
	}

	op := c.fetchOpcode()
	return c.execute(op)
}
