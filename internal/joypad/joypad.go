// Package joypad models the DMG JOYP register at $FF00: button/d-pad group
// selection, the active-low 4-bit readback, and the 1->0 edge that raises
// the Joypad interrupt.
package joypad

import "github.com/cerrion/gobound/internal/interrupt"

// Button bitmasks for SetButtons. A set bit means "pressed".
const (
	Right = 1 << 0
	Left  = 1 << 1
	Up    = 1 << 2
	Down  = 1 << 3
	A     = 1 << 4
	B     = 1 << 5
	Select = 1 << 6
	Start  = 1 << 7
)

// Joypad owns the current button state and the $FF00 select bits.
type Joypad struct {
	selectBits byte // bits 5-4 as last written to $FF00
	buttons    byte // bitmask of pressed buttons, see constants above
	lower4     byte // last computed active-low lower 4 bits, for edge detection

	irq *interrupt.Controller
}

// New constructs a Joypad wired to the shared interrupt controller.
func New(irq *interrupt.Controller) *Joypad {
	j := &Joypad{selectBits: 0x30, lower4: 0x0F, irq: irq}
	return j
}

// Reset restores the power-on state: no group selected, nothing pressed.
func (j *Joypad) Reset() {
	j.selectBits = 0x30
	j.buttons = 0
	j.lower4 = 0x0F
}

// Read returns the JOYP register value: bits 7-6 read as 1, bits 5-4 are the
// last-written selection, bits 3-0 are the active-low button readback for
// whichever group(s) are selected.
func (j *Joypad) Read() byte {
	return 0xC0 | (j.selectBits & 0x30) | j.lower4
}

// Write updates the group selection (bits 5-4 only; 3-0 are read-only from
// the CPU's perspective) and re-evaluates the edge-triggered interrupt.
func (j *Joypad) Write(v byte) {
	j.selectBits = v & 0x30
	j.recompute()
}

// SetButtons replaces the full button state for this frame/step. Bits set
// mean pressed, using the constants above.
func (j *Joypad) SetButtons(mask byte) {
	j.buttons = mask
	j.recompute()
}

// recompute derives the active-low lower nibble from the current selection
// and button state, and requests the Joypad interrupt on any 1->0 transition
// of a readback bit — the real hardware's edge-triggered wake mechanism.
func (j *Joypad) recompute() {
	lower := byte(0x0F)
	if j.selectBits&0x10 == 0 { // P14 low selects the d-pad
		if j.buttons&Right != 0 {
			lower &^= 0x01
		}
		if j.buttons&Left != 0 {
			lower &^= 0x02
		}
		if j.buttons&Up != 0 {
			lower &^= 0x04
		}
		if j.buttons&Down != 0 {
			lower &^= 0x08
		}
	}
	if j.selectBits&0x20 == 0 { // P15 low selects the buttons
		if j.buttons&A != 0 {
			lower &^= 0x01
		}
		if j.buttons&B != 0 {
			lower &^= 0x02
		}
		if j.buttons&Select != 0 {
			lower &^= 0x04
		}
		if j.buttons&Start != 0 {
			lower &^= 0x08
		}
	}

	falling := j.lower4 &^ lower
	if falling != 0 {
		j.irq.Request(interrupt.Joypad)
	}
	j.lower4 = lower
}
